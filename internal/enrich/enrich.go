// Package enrich tests a target gene set for over-representation of
// ontology terms relative to a background population.
package enrich

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/goutil/internal/annotation"
	"github.com/inodb/goutil/internal/ic"
	"github.com/inodb/goutil/internal/ontology"
)

// Term is the test result for one term with nonzero target frequency.
type Term struct {
	Index      int
	ID         string
	Definition string

	TargetFreq     int
	BackgroundFreq int

	PValue           float64
	AdjustedP        float64
	EnrichmentFactor float64

	// Genes are the target genes annotated to the term or a descendant.
	Genes []string

	// Fallback is set when the distribution could not be evaluated and the
	// p-value and enrichment factor were replaced by 1.
	Fallback bool
}

// Result holds all tested terms ordered by ascending raw p-value, which is
// also ascending adjusted p-value. Ties keep term index order.
type Result struct {
	Terms          []Term
	TargetSize     int
	BackgroundSize int
}

// Significant returns the terms with AdjustedP <= threshold, in order.
func (r *Result) Significant(threshold float64) []Term {
	var out []Term
	for _, t := range r.Terms {
		if t.AdjustedP <= threshold {
			out = append(out, t)
		}
	}
	return out
}

// Analyzer runs the hypergeometric enrichment test.
type Analyzer struct {
	ont     *ontology.Ontology
	workers int
	logger  *zap.Logger
}

// NewAnalyzer creates an analyzer for the given ontology.
func NewAnalyzer(ont *ontology.Ontology) *Analyzer {
	return &Analyzer{
		ont:    ont,
		logger: zap.NewNop(),
	}
}

// SetWorkers sets the frequency propagation parallelism.
func (a *Analyzer) SetWorkers(n int) {
	a.workers = n
}

// SetLogger sets the logger for progress and fallback messages.
func (a *Analyzer) SetLogger(l *zap.Logger) {
	a.logger = l
}

// Run tests every term with nonzero target frequency and applies the
// Benjamini-Hochberg correction across all tested terms.
func (a *Analyzer) Run(ctx context.Context, ann *annotation.Annotations) (*Result, error) {
	g := a.ont.Graph
	targetSize := ann.TargetPopulation.Len()
	backgroundSize := ann.BackgroundPopulation.Len()

	termsOI := ann.Target.Terms()

	bg := ic.NewCounter(g, ann.Background)
	bg.SetWorkers(a.workers)
	backgroundFreq, err := bg.Frequencies(ctx, termsOI)
	if err != nil {
		return nil, fmt.Errorf("background frequencies: %w", err)
	}

	tg := ic.NewCounter(g, ann.Target)
	tg.SetWorkers(a.workers)
	targetFreq, err := tg.Frequencies(ctx, termsOI)
	if err != nil {
		return nil, fmt.Errorf("target frequencies: %w", err)
	}

	var tested []Term
	fallbacks := 0
	for t, k := range targetFreq {
		if k == 0 {
			continue
		}
		dist := Hypergeometric{
			Draws:      targetSize,
			Successes:  backgroundFreq[t],
			Population: backgroundSize,
		}
		pvalue, factor, err := dist.test(k)
		if err != nil {
			fallbacks++
			a.logger.Debug("hypergeometric fallback",
				zap.String("term", a.ont.Terms.ID(t)),
				zap.Int("target_freq", k),
				zap.Error(err))
		}

		tested = append(tested, Term{
			Index:            t,
			ID:               a.ont.Terms.ID(t),
			Definition:       a.ont.Terms.Definition(t),
			TargetFreq:       k,
			BackgroundFreq:   backgroundFreq[t],
			PValue:           pvalue,
			EnrichmentFactor: factor,
			Genes:            tg.Genes(t),
			Fallback:         err != nil,
		})
	}

	pvalues := make([]float64, len(tested))
	for i, t := range tested {
		pvalues[i] = t.PValue
	}
	adjusted, order := AdjustBH(pvalues)

	res := &Result{
		Terms:          make([]Term, len(tested)),
		TargetSize:     targetSize,
		BackgroundSize: backgroundSize,
	}
	for i, pos := range order {
		t := tested[pos]
		t.AdjustedP = adjusted[pos]
		res.Terms[i] = t
	}

	a.logger.Info("enrichment test complete",
		zap.Int("terms_tested", len(tested)),
		zap.Int("fallbacks", fallbacks),
		zap.Int("target_size", targetSize),
		zap.Int("background_size", backgroundSize))

	return res, nil
}
