package insights

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func months(values ...int64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromInt(v)
	}
	return out
}

func TestMonthlyTrend(t *testing.T) {
	tests := []struct {
		name      string
		input     []decimal.Decimal
		want      string
		available bool
	}{
		{"constant series projects the constant", months(100, 100, 100, 100, 100, 100), "100", true},
		{"linear series continues the line", months(100, 200, 300, 400, 500, 600), "700", true},
		{"steep decline clamps at zero", months(500, 400, 300, 200, 100, 0), "0", true},
		{"single point is unavailable", months(250), "", false},
		{"empty series is unavailable", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MonthlyTrend(tt.input)
			if ok != tt.available {
				t.Fatalf("available = %v, want %v", ok, tt.available)
			}
			if !tt.available {
				return
			}
			if want := decimal.RequireFromString(tt.want); !got.Equal(want) {
				t.Errorf("projection = %s, want %s", got, want)
			}
		})
	}
}

func TestBalanceProjection(t *testing.T) {
	// June 15th of a 30-day month: 300 spent so far is 20/day, 15 days
	// remain, so another 300 is expected to go out.
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	got := BalanceProjection(decimal.NewFromInt(1000), decimal.NewFromInt(300), now)
	if want := decimal.NewFromInt(700); !got.Equal(want) {
		t.Errorf("projection = %s, want %s", got, want)
	}
}

func TestBalanceProjection_LastDayOfMonth(t *testing.T) {
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	got := BalanceProjection(decimal.NewFromInt(1000), decimal.NewFromInt(900), now)
	if want := decimal.NewFromInt(1000); !got.Equal(want) {
		t.Errorf("projection on the last day = %s, want the unchanged balance %s", got, want)
	}
}

func TestBalanceProjection_NoSpendYet(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	got := BalanceProjection(decimal.NewFromInt(500), decimal.Zero, now)
	if want := decimal.NewFromInt(500); !got.Equal(want) {
		t.Errorf("projection with zero spend = %s, want %s", got, want)
	}
}
