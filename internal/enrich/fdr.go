package enrich

import (
	"math"
	"sort"
)

// AdjustBH applies the Benjamini-Hochberg step-up procedure. It returns the
// adjusted p-values in input order together with the input positions sorted
// by ascending raw p-value. Ties keep input order.
func AdjustBH(pvalues []float64) (adjusted []float64, order []int) {
	m := len(pvalues)
	order = make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return pvalues[order[a]] < pvalues[order[b]]
	})

	adjusted = make([]float64, m)
	running := math.Inf(1)
	for rank := m; rank >= 1; rank-- {
		pos := order[rank-1]
		v := pvalues[pos] * float64(m) / float64(rank)
		if v < running {
			running = v
		}
		adjusted[pos] = math.Min(running, 1)
	}
	return adjusted, order
}
