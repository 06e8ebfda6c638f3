package enrich

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdjustBH(t *testing.T) {
	adjusted, order := AdjustBH([]float64{0.01, 0.04, 0.03, 0.2})

	assert.Equal(t, []int{0, 2, 1, 3}, order)
	assert.InDelta(t, 0.04, adjusted[0], 1e-12)
	assert.InDelta(t, 0.16/3, adjusted[1], 1e-12)
	assert.InDelta(t, 0.16/3, adjusted[2], 1e-12)
	assert.InDelta(t, 0.2*4/4, adjusted[3], 1e-12)
}

func TestAdjustBH_TiesKeepInputOrder(t *testing.T) {
	_, order := AdjustBH([]float64{0.5, 0.1, 0.5, 0.1})
	assert.Equal(t, []int{1, 3, 0, 2}, order)
}

func TestAdjustBH_Empty(t *testing.T) {
	adjusted, order := AdjustBH(nil)
	assert.Empty(t, adjusted)
	assert.Empty(t, order)
}

func TestAdjustBH_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	p := make([]float64, 500)
	for i := range p {
		p[i] = rng.Float64()
		if i%7 == 0 {
			p[i] = 1
		}
	}

	adjusted, order := AdjustBH(p)

	prev := 0.0
	for _, pos := range order {
		assert.GreaterOrEqual(t, adjusted[pos], p[pos], "adjusted below raw")
		assert.LessOrEqual(t, adjusted[pos], 1.0)
		assert.GreaterOrEqual(t, adjusted[pos], prev, "adjusted not monotone")
		prev = adjusted[pos]
	}
}

// bhQuadratic is the reference formulation: for every rank, the minimum
// over all later ranks.
func bhQuadratic(sorted []float64) []float64 {
	m := len(sorted)
	out := make([]float64, m)
	for i := 0; i < m; i++ {
		cur := sorted[i] * float64(m) / float64(i+1)
		for j := i + 1; j < m; j++ {
			if v := sorted[j] * float64(m) / float64(j+1); v < cur {
				cur = v
			}
		}
		out[i] = min(cur, 1.0)
	}
	return out
}

func TestAdjustBH_MatchesQuadratic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	p := make([]float64, 200)
	for i := range p {
		p[i] = rng.Float64() * rng.Float64()
	}

	adjusted, order := AdjustBH(p)

	sorted := make([]float64, len(order))
	for i, pos := range order {
		sorted[i] = p[pos]
	}
	want := bhQuadratic(sorted)
	for i, pos := range order {
		assert.InDelta(t, want[i], adjusted[pos], 1e-15)
	}
}
