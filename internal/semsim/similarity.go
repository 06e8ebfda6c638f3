package semsim

import (
	"go.uber.org/zap"

	"github.com/inodb/goutil/internal/ontology"
)

// Undefined marks a similarity that cannot be computed because a term has
// no information content.
const Undefined = -1.0

// Engine computes term similarities over a fixed graph and IC vector.
type Engine struct {
	graph     *ontology.Graph
	ic        []float64
	ancestors [][]int // memoized by Prepare; read-only afterwards
	logger    *zap.Logger
}

// NewEngine creates an engine. ics is indexed by term.
func NewEngine(g *ontology.Graph, ics []float64) *Engine {
	return &Engine{
		graph:     g,
		ic:        ics,
		ancestors: make([][]int, g.Len()),
		logger:    zap.NewNop(),
	}
}

// SetLogger sets the logger for progress of pairwise runs.
func (e *Engine) SetLogger(logger *zap.Logger) {
	e.logger = logger
}

// IC returns the information content of term.
func (e *Engine) IC(term int) float64 {
	return e.ic[term]
}

// Prepare memoizes the ancestor closures of terms. It must complete before
// Similarity is called from multiple goroutines.
func (e *Engine) Prepare(terms []int) {
	for _, t := range terms {
		if e.ancestors[t] == nil {
			e.ancestors[t] = e.graph.Ancestors(t)
		}
	}
}

func (e *Engine) ancestorsOf(term int) []int {
	if a := e.ancestors[term]; a != nil {
		return a
	}
	return e.graph.Ancestors(term)
}

// MICA returns the information content of the most informative common
// ancestor of i and j, or Undefined when no common ancestor carries
// information.
func (e *Engine) MICA(i, j int) float64 {
	best := Undefined
	for _, a := range ontology.Intersect(e.ancestorsOf(i), e.ancestorsOf(j)) {
		if e.ic[a] > best {
			best = e.ic[a]
		}
	}
	return best
}

// Similarity returns the similarity of terms i and j under metric.
// Undefined (-1) signals that the pair is not comparable.
func (e *Engine) Similarity(i, j int, metric Metric) float64 {
	if i == j {
		switch metric {
		case Lin:
			return 1
		case Resnik:
			return e.ic[i]
		}
		return Undefined
	}

	switch metric {
	case Resnik:
		return e.MICA(i, j)
	case Lin:
		if e.ic[i] <= 0 || e.ic[j] <= 0 {
			return Undefined
		}
		mica := e.MICA(i, j)
		if mica < 0 {
			return Undefined
		}
		return 2 * mica / (e.ic[i] + e.ic[j])
	}
	return Undefined
}

// Informative filters terms down to those with positive information
// content, preserving order.
func (e *Engine) Informative(terms []int) []int {
	var out []int
	for _, t := range terms {
		if e.ic[t] > 0 {
			out = append(out, t)
		}
	}
	return out
}
