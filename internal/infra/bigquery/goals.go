package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/civil"

	"github.com/equilibra/equilibra/internal/domain"
)

type GoalRow struct {
	GoalID string `bigquery:"goal_id"` // REQUIRED

	UserID string `bigquery:"user_id"` // REQUIRED

	Category string `bigquery:"category"` // REQUIRED
	Mode     string `bigquery:"mode"`     // REQUIRED

	LimitAmount *big.Rat `bigquery:"limit_amount"` // REQUIRED NUMERIC

	PeriodMonth civil.Date `bigquery:"period_month"` // REQUIRED, first day of month

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

func goalRowFromDomain(g domain.Goal) *GoalRow {
	period := time.Date(g.PeriodMonth.Year(), g.PeriodMonth.Month(), 1, 0, 0, 0, 0, time.UTC)
	return &GoalRow{
		GoalID:      g.ID,
		UserID:      g.Owner,
		Category:    g.Category,
		Mode:        string(g.Mode),
		LimitAmount: ratFromDecimal(g.LimitAmount),
		PeriodMonth: civil.DateOf(period),
		CreatedTS:   time.Now().UTC(),
	}
}

func (r *GoalRow) toDomain() domain.Goal {
	return domain.Goal{
		ID:          r.GoalID,
		Owner:       r.UserID,
		Category:    r.Category,
		Mode:        domain.Mode(r.Mode),
		LimitAmount: decimalFromRat(r.LimitAmount),
		PeriodMonth: r.PeriodMonth.In(time.UTC),
		CreatedAt:   r.CreatedTS,
	}
}
