package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FormatBRL renders an amount in the Brazilian currency convention with two
// decimal places, e.g. "R$ 1234.56". Insight messages embed figures in this
// format.
func FormatBRL(amount decimal.Decimal) string {
	return "R$ " + amount.StringFixed(2)
}

// FormatPercent renders a ratio (0.2669 -> "26.69%") with two decimal places.
func FormatPercent(ratio float64) string {
	return fmt.Sprintf("%.2f%%", ratio*100)
}
