package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/equilibra/equilibra/internal/domain"
)

// windowDays is the ledger slice the pattern analysis looks at.
const windowDays = 30

// trendMonths is how many trailing calendar months feed the trend projector.
const trendMonths = 6

// LedgerReader is the storage surface the engine reads from. All reads are
// owner-scoped and window-bounded.
type LedgerReader interface {
	// TransactionsInRange returns the owner's transactions for one mode,
	// ordered by occurrence time ascending.
	TransactionsInRange(ctx context.Context, owner string, mode domain.Mode, start, end time.Time) ([]domain.Transaction, error)

	// PrimaryAccount returns the owner's principal account, or nil when the
	// owner has none.
	PrimaryAccount(ctx context.Context, owner string) (*domain.Account, error)

	// MonthlyOutflowTotals returns one outflow total per trailing calendar
	// month, oldest first, zero-filled for empty months.
	MonthlyOutflowTotals(ctx context.Context, owner string, mode domain.Mode, months int, now time.Time) ([]decimal.Decimal, error)
}

// InsightWriter replaces an owner's unread insights with a new batch.
type InsightWriter interface {
	ReplaceUnreadInsights(ctx context.Context, owner string, batch []domain.Insight) error
}

// Notifier pushes urgent insights out-of-band after a run. Implementations
// are best-effort; the engine logs and moves on when notification fails.
type Notifier interface {
	NotifyUrgent(ctx context.Context, owner string, urgent []domain.Insight) error
}

// Service wires one generator strategy to the ledger and the insight store.
// Each Run is a sequential read→compute→write for a single owner+mode.
type Service struct {
	reader   LedgerReader
	writer   InsightWriter
	gen      Generator
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time
}

// NewService builds an engine service. notifier may be nil.
func NewService(reader LedgerReader, writer InsightWriter, gen Generator, notifier Notifier, log zerolog.Logger) *Service {
	return &Service{
		reader:   reader,
		writer:   writer,
		gen:      gen,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Run executes one analysis for the owner+mode pair and returns how many
// insights were written. A brand-new owner (no transactions in the window)
// gets a single welcome insight instead of an empty batch.
func (s *Service) Run(ctx context.Context, owner string, mode domain.Mode) (int, error) {
	now := s.now()

	balance := decimal.Zero
	account, err := s.reader.PrimaryAccount(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("engine run: primary account: %w", err)
	}
	if account != nil {
		balance = account.Balance
	}

	start := now.AddDate(0, 0, -windowDays)
	window, err := s.reader.TransactionsInRange(ctx, owner, mode, start, now)
	if err != nil {
		return 0, fmt.Errorf("engine run: transactions: %w", err)
	}

	if len(window) == 0 {
		batch := []domain.Insight{s.stamp(welcomeInsight(), owner, now)}
		if err := s.writer.ReplaceUnreadInsights(ctx, owner, batch); err != nil {
			return 0, fmt.Errorf("engine run: write welcome insight: %w", err)
		}
		s.log.Info().Str("owner", owner).Str("mode", string(mode)).Msg("No transactions in window, wrote welcome insight")
		return 1, nil
	}

	monthly, err := s.reader.MonthlyOutflowTotals(ctx, owner, mode, trendMonths, now)
	if err != nil {
		return 0, fmt.Errorf("engine run: monthly totals: %w", err)
	}

	snap := Snapshot{
		Owner:          owner,
		Mode:           mode,
		Balance:        balance,
		Window:         window,
		MonthlyOutflow: monthly,
		Now:            now,
	}

	generated, err := s.gen.Generate(ctx, snap)
	if err != nil {
		return 0, fmt.Errorf("engine run: generate: %w", err)
	}

	ranked := Rank(generated)
	if len(ranked) == 0 {
		ranked = []domain.Insight{welcomeInsight()}
	}
	for i := range ranked {
		ranked[i] = s.stamp(ranked[i], owner, now)
	}

	if err := s.writer.ReplaceUnreadInsights(ctx, owner, ranked); err != nil {
		return 0, fmt.Errorf("engine run: write insights: %w", err)
	}

	s.log.Info().
		Str("owner", owner).
		Str("mode", string(mode)).
		Int("count", len(ranked)).
		Msg("Generated insights")

	s.notify(ctx, owner, ranked)

	return len(ranked), nil
}

func (s *Service) stamp(in domain.Insight, owner string, now time.Time) domain.Insight {
	in.ID = uuid.NewString()
	in.Owner = owner
	in.GeneratedAt = now
	in.Read = false
	return in
}

func (s *Service) notify(ctx context.Context, owner string, batch []domain.Insight) {
	if s.notifier == nil {
		return
	}
	var urgent []domain.Insight
	for _, in := range batch {
		if in.Priority == domain.PriorityUrgent {
			urgent = append(urgent, in)
		}
	}
	if len(urgent) == 0 {
		return
	}
	if err := s.notifier.NotifyUrgent(ctx, owner, urgent); err != nil {
		s.log.Warn().Err(err).Str("owner", owner).Msg("Failed to push urgent insights")
	}
}

func welcomeInsight() domain.Insight {
	return domain.Insight{
		Title:    "👋 Bem-vindo ao Équilibra",
		Message:  "Comece registrando suas transações para receber insights personalizados sobre seus hábitos financeiros!",
		Kind:     domain.KindInfo,
		Source:   domain.SourceHeuristic,
		Priority: domain.PriorityInformational,
	}
}
