package insights

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceProjection estimates the end-of-month balance from the current
// month-to-date burn rate: daily average outflow so far, extrapolated over
// the remaining days of the month and subtracted from the current balance.
func BalanceProjection(balance, monthToDateOutflow decimal.Decimal, now time.Time) decimal.Decimal {
	dayOfMonth := int64(now.Day())
	daysInMonth := int64(time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day())

	dailyAvg := monthToDateOutflow.Div(decimal.NewFromInt(dayOfMonth))
	remaining := decimal.NewFromInt(daysInMonth - dayOfMonth)

	return balance.Sub(dailyAvg.Mul(remaining))
}

// MonthlyTrend fits an ordinary least squares line over the given monthly
// outflow totals (oldest first) and projects the next month's value,
// clamped to zero. The projection is unavailable when there are fewer than
// two points or the OLS denominator n·Σx² − (Σx)² is zero.
func MonthlyTrend(monthly []decimal.Decimal) (decimal.Decimal, bool) {
	n := len(monthly)
	if n < 2 {
		return decimal.Zero, false
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i, m := range monthly {
		x := float64(i)
		y, _ := m.Float64()
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	fn := float64(n)
	denom := fn*sumX2 - sumX*sumX
	if denom == 0 {
		return decimal.Zero, false
	}

	slope := (fn*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / fn
	projected := slope*fn + intercept

	if projected < 0 {
		projected = 0
	}
	return decimal.NewFromFloat(projected).Round(2), true
}
