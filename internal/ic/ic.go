// Package ic propagates gene annotations up the ontology and derives the
// information content of each term.
package ic

import (
	"context"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/inodb/goutil/internal/annotation"
	"github.com/inodb/goutil/internal/ontology"
)

// Undefined is the information content of a term without annotations.
const Undefined = -1.0

// Counter counts the distinct genes annotated to a term or any of its
// descendants.
type Counter struct {
	graph   *ontology.Graph
	index   *annotation.Index
	workers int
}

// NewCounter creates a counter over the given graph and annotation index.
func NewCounter(g *ontology.Graph, idx *annotation.Index) *Counter {
	return &Counter{graph: g, index: idx}
}

// SetWorkers sets the number of terms propagated concurrently.
// Zero or less means runtime.NumCPU().
func (c *Counter) SetWorkers(n int) {
	c.workers = n
}

// Genes returns the sorted distinct genes annotated to term or any of its
// descendants.
func (c *Counter) Genes(term int) []string {
	seen := c.closure(term)
	out := make([]string, 0, len(seen))
	for g := range seen {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Frequency returns the number of distinct genes annotated to term or any
// of its descendants.
func (c *Counter) Frequency(term int) int {
	return len(c.closure(term))
}

func (c *Counter) closure(term int) map[string]struct{} {
	seen := make(map[string]struct{})
	for _, d := range c.graph.Descendants(term) {
		for _, g := range c.index.Genes(d) {
			seen[g] = struct{}{}
		}
	}
	return seen
}

// Frequencies computes the frequency of every ancestor of terms. The
// returned slice is indexed by term; terms outside the ancestor closure
// keep frequency 0.
func (c *Counter) Frequencies(ctx context.Context, terms []int) ([]int, error) {
	freq := make([]int, c.graph.Len())
	ancestors := c.graph.Ancestors(terms...)

	workers := c.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, t := range ancestors {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			// Each goroutine writes a distinct slot.
			freq[t] = c.Frequency(t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return freq, nil
}

// AllTerms returns the indices 0..n-1.
func AllTerms(n int) []int {
	terms := make([]int, n)
	for i := range terms {
		terms[i] = i
	}
	return terms
}

// InformationContent returns -log10(freq/total) per term, or Undefined for
// terms with zero frequency.
func InformationContent(freq []int, total int) []float64 {
	out := make([]float64, len(freq))
	for i, f := range freq {
		if f > 0 && total > 0 {
			out[i] = math.Log10(float64(total) / float64(f))
		} else {
			out[i] = Undefined
		}
	}
	return out
}
