package seed

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/equilibra/equilibra/internal/domain"
)

type mockStore struct {
	account  *domain.Account
	existing []domain.Transaction

	created  []domain.Account
	inserted []domain.Transaction
	goals    []domain.Goal
	balance  decimal.Decimal
}

func (m *mockStore) PrimaryAccount(ctx context.Context, owner string) (*domain.Account, error) {
	return m.account, nil
}

func (m *mockStore) CreateAccount(ctx context.Context, a domain.Account, primary bool) (string, error) {
	m.created = append(m.created, a)
	return "acc-new", nil
}

func (m *mockStore) RecentTransactions(ctx context.Context, owner string, mode domain.Mode, limit int) ([]domain.Transaction, error) {
	return m.existing, nil
}

func (m *mockStore) InsertTransactions(ctx context.Context, txs []domain.Transaction) error {
	m.inserted = append(m.inserted, txs...)
	return nil
}

func (m *mockStore) SetAccountBalance(ctx context.Context, owner, accountID string, balance decimal.Decimal) error {
	m.balance = balance
	return nil
}

func (m *mockStore) UpsertGoal(ctx context.Context, g domain.Goal) (string, error) {
	m.goals = append(m.goals, g)
	return "goal-1", nil
}

func TestSampleTransactions(t *testing.T) {
	now := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	txs := SampleTransactions("user-1", "acc-1", now)

	if len(txs) != 18 {
		t.Fatalf("got %d transactions, want 18", len(txs))
	}
	for _, tx := range txs {
		if tx.Owner != "user-1" || tx.AccountID != "acc-1" {
			t.Errorf("transaction %q not stamped with owner/account", tx.Description)
		}
		if tx.OccurredAt.Month() != time.June || tx.OccurredAt.Year() != 2024 {
			t.Errorf("transaction %q dated %s, want June 2024", tx.Description, tx.OccurredAt)
		}
		if !tx.Amount.IsPositive() {
			t.Errorf("transaction %q has non-positive amount %s", tx.Description, tx.Amount)
		}
	}
}

func TestBalance(t *testing.T) {
	now := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	got := Balance(SampleTransactions("user-1", "acc-1", now))

	// 3500 + 1200 income against 2985.50 of spending.
	want := decimal.RequireFromString("1714.50")
	if !got.Equal(want) {
		t.Errorf("Balance = %s, want %s", got, want)
	}
}

func TestApply_CreatesAccountAndSetsBalance(t *testing.T) {
	store := &mockStore{}

	n, err := Apply(context.Background(), store, "user-1", zerolog.Nop())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if n != 18 {
		t.Errorf("seeded %d transactions, want 18", n)
	}
	if len(store.created) != 1 {
		t.Fatalf("created %d accounts, want 1", len(store.created))
	}
	if !store.balance.Equal(decimal.RequireFromString("1714.50")) {
		t.Errorf("balance = %s, want 1714.50", store.balance)
	}
	if len(store.goals) != 2 {
		t.Errorf("seeded %d goals, want 2", len(store.goals))
	}
}

func TestApply_RefusesExistingData(t *testing.T) {
	store := &mockStore{
		existing: []domain.Transaction{{ID: "t1"}},
	}

	if _, err := Apply(context.Background(), store, "user-1", zerolog.Nop()); err == nil {
		t.Fatal("expected error for owner with existing transactions")
	}
	if len(store.inserted) != 0 {
		t.Errorf("inserted %d transactions, want 0", len(store.inserted))
	}
}
