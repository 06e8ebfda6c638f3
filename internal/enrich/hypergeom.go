package enrich

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/combin"
)

// ErrInvalidParameters is returned for a distribution or query outside the
// valid domain. Callers fall back to p-value 1 and enrichment factor 1.
var ErrInvalidParameters = errors.New("invalid hypergeometric parameters")

// Hypergeometric is the distribution of the number of successes in Draws
// draws without replacement from a population of size Population holding
// Successes successes.
type Hypergeometric struct {
	Draws      int
	Successes  int
	Population int
}

func (h Hypergeometric) validate() error {
	if h.Population < 0 ||
		h.Successes < 0 || h.Successes > h.Population ||
		h.Draws < 0 || h.Draws > h.Population {
		return fmt.Errorf("%w: draws=%d successes=%d population=%d",
			ErrInvalidParameters, h.Draws, h.Successes, h.Population)
	}
	return nil
}

// Support returns the smallest and largest attainable number of successes.
func (h Hypergeometric) Support() (lo, hi int) {
	return max(0, h.Draws+h.Successes-h.Population), min(h.Draws, h.Successes)
}

// LogProb returns the log probability of exactly k successes.
func (h Hypergeometric) LogProb(k int) float64 {
	lo, hi := h.Support()
	if h.validate() != nil || k < lo || k > hi {
		return math.Inf(-1)
	}
	n, K, N := float64(h.Draws), float64(h.Successes), float64(h.Population)
	x := float64(k)
	return combin.LogGeneralizedBinomial(K, x) +
		combin.LogGeneralizedBinomial(N-K, n-x) -
		combin.LogGeneralizedBinomial(N, n)
}

// Survival returns P(X > x), i.e. 1 - CDF(x). Like the CDF, it is only
// defined for x inside the support; other values yield
// ErrInvalidParameters.
func (h Hypergeometric) Survival(x int) (float64, error) {
	if err := h.validate(); err != nil {
		return 0, err
	}
	lo, hi := h.Support()
	if x < lo || x > hi {
		return 0, fmt.Errorf("%w: x=%d outside support [%d, %d]", ErrInvalidParameters, x, lo, hi)
	}
	if x == hi {
		return 0, nil
	}

	// Upper tail summed in log space, not 1-CDF.
	terms := make([]float64, 0, hi-x)
	for k := x + 1; k <= hi; k++ {
		terms = append(terms, h.LogProb(k))
	}
	return math.Min(1, math.Exp(floats.LogSumExp(terms))), nil
}

// test runs the one-sided over-representation test for observed target
// hits and returns the p-value P(X >= observed) and the enrichment factor.
func (h Hypergeometric) test(observed int) (pvalue, factor float64, err error) {
	pvalue, err = h.Survival(observed - 1)
	if err != nil {
		return 1, 1, err
	}
	expected := float64(h.Draws) * float64(h.Successes) / float64(h.Population)
	if expected == 0 || math.IsNaN(expected) {
		return 1, 1, fmt.Errorf("%w: zero expected count", ErrInvalidParameters)
	}
	return pvalue, float64(observed) / expected, nil
}
