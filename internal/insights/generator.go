package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/equilibra/equilibra/internal/domain"
)

// Snapshot is everything a generator may look at for one run: the 30-day
// transaction window for one owner+mode, the current balance (zero when the
// owner has no account) and six trailing monthly outflow totals, oldest
// first. Generators must not touch storage; this keeps every strategy a
// pure function of the snapshot.
type Snapshot struct {
	Owner          string
	Mode           domain.Mode
	Balance        decimal.Decimal
	Window         []domain.Transaction
	MonthlyOutflow []decimal.Decimal
	Now            time.Time
}

// Generator turns a snapshot into unranked insights. Two implementations
// exist: the local rule engine and the Gemini-backed generator. Both honor
// the same output contract so the ranker and writer never care which one
// produced the batch.
type Generator interface {
	Generate(ctx context.Context, snap Snapshot) ([]domain.Insight, error)
}

// RuleGenerator is the local strategy: aggregation, the fixed rule set and
// the linear trend projector.
type RuleGenerator struct{}

// Generate implements Generator. It never fails: rules that cannot
// evaluate are silently skipped.
func (RuleGenerator) Generate(_ context.Context, snap Snapshot) ([]domain.Insight, error) {
	agg := Aggregate(snap.Window, snap.Now)
	projected := BalanceProjection(snap.Balance, agg.MonthToDateOutflow, snap.Now)

	out := evaluateRules(agg, projected, snap.Balance)

	if next, ok := MonthlyTrend(snap.MonthlyOutflow); ok {
		out = append(out, domain.Insight{
			Title:    "📈 Tendência de Gastos",
			Message:  fmt.Sprintf("A tendência dos últimos 6 meses projeta gastos de %s no próximo mês.", domain.FormatBRL(next)),
			Kind:     domain.KindInfo,
			Source:   domain.SourceLinearTrend,
			Priority: domain.PriorityInformational,
		})
	}

	return out, nil
}
