package insights

import (
	"sort"

	"github.com/equilibra/equilibra/internal/domain"
)

// maxBatch bounds one run's output: only the ten most urgent insights
// survive ranking.
const maxBatch = 10

// Rank orders insights by ascending priority number (1 = urgent first) and
// truncates to the batch limit. The sort is stable so insights of equal
// priority keep the order their rules fired in.
func Rank(list []domain.Insight) []domain.Insight {
	ranked := make([]domain.Insight, len(list))
	copy(ranked, list)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Priority < ranked[j].Priority
	})

	if len(ranked) > maxBatch {
		ranked = ranked[:maxBatch]
	}
	return ranked
}
