package insights

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/equilibra/equilibra/internal/domain"
)

// Aggregates are the derived scalars the rule evaluator and the projectors
// consume. All sums are zero for an empty window; consumers must still guard
// any ratio denominator.
type Aggregates struct {
	TotalInflow  decimal.Decimal
	TotalOutflow decimal.Decimal

	OutflowByCategory    map[string]decimal.Decimal
	OutflowByCategory7d  map[string]decimal.Decimal
	OutflowByCategory30d map[string]decimal.Decimal

	// OutflowByDay maps day-of-month to outflow for the current month.
	OutflowByDay map[int]decimal.Decimal

	WeekendOutflow     decimal.Decimal
	MonthToDateOutflow decimal.Decimal
	MonthToDateInflow  decimal.Decimal

	// Count7d is the number of transactions (both directions) in the last
	// seven days.
	Count7d int
}

// Aggregate folds a 30-day window of transactions into Aggregates. The
// window is expected to be pre-filtered to one owner+mode; now anchors the
// 7-day and month-to-date slices.
func Aggregate(window []domain.Transaction, now time.Time) Aggregates {
	agg := Aggregates{
		TotalInflow:          decimal.Zero,
		TotalOutflow:         decimal.Zero,
		OutflowByCategory:    make(map[string]decimal.Decimal),
		OutflowByCategory7d:  make(map[string]decimal.Decimal),
		OutflowByCategory30d: make(map[string]decimal.Decimal),
		OutflowByDay:         make(map[int]decimal.Decimal),
		WeekendOutflow:       decimal.Zero,
		MonthToDateOutflow:   decimal.Zero,
		MonthToDateInflow:    decimal.Zero,
	}

	sevenDaysAgo := now.AddDate(0, 0, -7)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	for _, tx := range window {
		inLast7d := !tx.OccurredAt.Before(sevenDaysAgo)
		if inLast7d {
			agg.Count7d++
		}

		if !tx.IsOutflow() {
			agg.TotalInflow = agg.TotalInflow.Add(tx.Amount)
			if !tx.OccurredAt.Before(monthStart) {
				agg.MonthToDateInflow = agg.MonthToDateInflow.Add(tx.Amount)
			}
			continue
		}

		agg.TotalOutflow = agg.TotalOutflow.Add(tx.Amount)
		agg.OutflowByCategory[tx.Category] = agg.OutflowByCategory[tx.Category].Add(tx.Amount)
		agg.OutflowByCategory30d[tx.Category] = agg.OutflowByCategory30d[tx.Category].Add(tx.Amount)
		if inLast7d {
			agg.OutflowByCategory7d[tx.Category] = agg.OutflowByCategory7d[tx.Category].Add(tx.Amount)
		}

		if wd := tx.OccurredAt.Weekday(); wd == time.Saturday || wd == time.Sunday {
			agg.WeekendOutflow = agg.WeekendOutflow.Add(tx.Amount)
		}

		if !tx.OccurredAt.Before(monthStart) {
			agg.MonthToDateOutflow = agg.MonthToDateOutflow.Add(tx.Amount)
			day := tx.OccurredAt.Day()
			agg.OutflowByDay[day] = agg.OutflowByDay[day].Add(tx.Amount)
		}
	}

	return agg
}
