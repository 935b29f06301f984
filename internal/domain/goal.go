package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Goal is a monthly spend limit for one category, unique per
// (owner, category, mode, period month). Goals are created by the user;
// the engine and the goals listing only compare them against aggregated
// category outflow.
type Goal struct {
	ID          string
	Owner       string
	Category    string
	Mode        Mode
	LimitAmount decimal.Decimal
	PeriodMonth time.Time // first day of the month the limit applies to
	CreatedAt   time.Time
}

// GoalProgress pairs a goal with the category outflow accumulated in its
// period. Percent is 0 when the limit is zero.
type GoalProgress struct {
	Goal
	Spent   decimal.Decimal
	Percent float64
}

// Progress computes the spent/limit ratio as a percentage.
func (g Goal) Progress(spent decimal.Decimal) GoalProgress {
	p := GoalProgress{Goal: g, Spent: spent}
	if g.LimitAmount.IsPositive() {
		ratio, _ := spent.Div(g.LimitAmount).Float64()
		p.Percent = ratio * 100
	}
	return p
}
