package insights

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/equilibra/equilibra/internal/domain"
)

// mockLedger serves a fixed window and balance.
type mockLedger struct {
	account *domain.Account
	window  []domain.Transaction
	monthly []decimal.Decimal
}

func (m *mockLedger) TransactionsInRange(_ context.Context, _ string, _ domain.Mode, _, _ time.Time) ([]domain.Transaction, error) {
	return m.window, nil
}

func (m *mockLedger) PrimaryAccount(_ context.Context, _ string) (*domain.Account, error) {
	return m.account, nil
}

func (m *mockLedger) MonthlyOutflowTotals(_ context.Context, _ string, _ domain.Mode, months int, _ time.Time) ([]decimal.Decimal, error) {
	if m.monthly != nil {
		return m.monthly, nil
	}
	return make([]decimal.Decimal, months), nil
}

// mockWriter records every batch it receives.
type mockWriter struct {
	batches [][]domain.Insight
}

func (m *mockWriter) ReplaceUnreadInsights(_ context.Context, _ string, batch []domain.Insight) error {
	m.batches = append(m.batches, batch)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestServiceRun_EmptyWindowWritesWelcome(t *testing.T) {
	ledger := &mockLedger{}
	writer := &mockWriter{}
	svc := NewService(ledger, writer, RuleGenerator{}, nil, zerolog.Nop())
	svc.now = fixedClock(time.Date(2024, 6, 19, 12, 0, 0, 0, time.UTC))

	n, err := svc.Run(context.Background(), "user-1", domain.ModePersonal)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("Run wrote %d insights, want 1", n)
	}

	batch := writer.batches[0]
	if len(batch) != 1 {
		t.Fatalf("welcome batch has %d insights, want 1", len(batch))
	}
	in := batch[0]
	if in.Kind != domain.KindInfo || in.Priority != domain.PriorityInformational {
		t.Errorf("welcome kind/priority = %s/%d, want %s/%d", in.Kind, in.Priority, domain.KindInfo, domain.PriorityInformational)
	}
	if in.Owner != "user-1" || in.ID == "" || in.Read {
		t.Errorf("welcome insight not stamped correctly: %+v", in)
	}
}

func TestServiceRun_MissingAccountTreatedAsZeroBalance(t *testing.T) {
	now := time.Date(2024, 6, 19, 12, 0, 0, 0, time.UTC)
	ledger := &mockLedger{
		account: nil, // no account at all
		window: []domain.Transaction{
			tx("100.00", domain.DirectionIn, "Salário", now.AddDate(0, 0, -3)),
			tx("95.00", domain.DirectionOut, "Mercado", now.AddDate(0, 0, -10)),
		},
	}
	writer := &mockWriter{}
	svc := NewService(ledger, writer, RuleGenerator{}, nil, zerolog.Nop())
	svc.now = fixedClock(now)

	if _, err := svc.Run(context.Background(), "user-1", domain.ModePersonal); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(writer.batches) != 1 {
		t.Fatalf("expected one batch, got %d", len(writer.batches))
	}
}

func TestServiceRun_RankedAndBounded(t *testing.T) {
	now := time.Date(2024, 6, 19, 12, 0, 0, 0, time.UTC)
	// A busy window that trips several rules at once.
	var window []domain.Transaction
	window = append(window, tx("1000.00", domain.DirectionIn, "Salário", now.AddDate(0, 0, -20)))
	for day := 0; day < 7; day++ {
		for i := 0; i < 6; i++ {
			window = append(window, tx("30.00", domain.DirectionOut, "Lazer", now.AddDate(0, 0, -day)))
		}
	}

	ledger := &mockLedger{
		account: &domain.Account{ID: "acc-1", Owner: "user-1", Balance: decimal.NewFromInt(100)},
		window:  window,
		monthly: months(900, 950, 1000, 1100, 1150, 1260),
	}
	writer := &mockWriter{}
	svc := NewService(ledger, writer, RuleGenerator{}, nil, zerolog.Nop())
	svc.now = fixedClock(now)

	if _, err := svc.Run(context.Background(), "user-1", domain.ModePersonal); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	batch := writer.batches[0]
	if len(batch) > 10 {
		t.Errorf("batch has %d insights, want at most 10", len(batch))
	}
	for i := 1; i < len(batch); i++ {
		if batch[i-1].Priority > batch[i].Priority {
			t.Errorf("batch not sorted by priority at %d: %d then %d", i, batch[i-1].Priority, batch[i].Priority)
		}
	}
}

func TestServiceRun_Idempotent(t *testing.T) {
	now := time.Date(2024, 6, 19, 12, 0, 0, 0, time.UTC)
	ledger := &mockLedger{
		account: &domain.Account{ID: "acc-1", Owner: "user-1", Balance: decimal.NewFromInt(2500)},
		window: []domain.Transaction{
			tx("3500.00", domain.DirectionIn, "Salário", time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC)),
			tx("1200.00", domain.DirectionIn, "Freelance", time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)),
			tx("45.80", domain.DirectionOut, "Transporte", time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)),
			tx("78.90", domain.DirectionOut, "Alimentação", time.Date(2024, 6, 11, 9, 0, 0, 0, time.UTC)),
		},
	}
	writer := &mockWriter{}
	svc := NewService(ledger, writer, RuleGenerator{}, nil, zerolog.Nop())
	svc.now = fixedClock(now)

	for i := 0; i < 2; i++ {
		if _, err := svc.Run(context.Background(), "user-1", domain.ModeWork); err != nil {
			t.Fatalf("Run %d failed: %v", i, err)
		}
	}

	first, second := writer.batches[0], writer.batches[1]
	if len(first) != len(second) {
		t.Fatalf("batch sizes differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if a.Title != b.Title || a.Message != b.Message || a.Kind != b.Kind || a.Priority != b.Priority {
			t.Errorf("batch content differs at %d: %+v vs %+v", i, a, b)
		}
		if a.ID == b.ID {
			t.Errorf("both runs produced insight ID %q; IDs must be fresh", a.ID)
		}
	}
}

func TestRank(t *testing.T) {
	var list []domain.Insight
	for i := 0; i < 12; i++ {
		list = append(list, domain.Insight{Title: string(rune('a' + i)), Priority: 3 - i%3})
	}

	ranked := Rank(list)
	if len(ranked) != 10 {
		t.Fatalf("ranked length = %d, want 10", len(ranked))
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i-1].Priority > ranked[i].Priority {
			t.Errorf("ranked not sorted at %d", i)
		}
	}
	// Stability: within one priority the original order is preserved.
	var last string
	for _, in := range ranked {
		if in.Priority == 1 {
			if last != "" && in.Title < last {
				t.Errorf("equal-priority order not stable: %q after %q", in.Title, last)
			}
			last = in.Title
		}
	}
}
