package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/goutil/internal/annotation"
	"github.com/inodb/goutil/internal/ic"
	"github.com/inodb/goutil/internal/ontology"
	"github.com/inodb/goutil/internal/output"
	"github.com/inodb/goutil/internal/semsim"
	"github.com/inodb/goutil/internal/store"
)

type semsimOptions struct {
	edges       string
	annotations string
	output      string
	metric      string
	terms       string
}

func newSemsimCmd(a *app) *cobra.Command {
	var o semsimOptions

	cmd := &cobra.Command{
		Use:   "semsim",
		Short: "Compute semantic similarity between ontology terms",
		Long: `Compute Resnik or Lin similarity for every pair of informative terms, or for
the pairs of a term subset read from the first column of --terms (an
enrichment output file works directly).

Information content is derived from all genes in the annotation file. Only
pairs with a positive score are written: term1, term2, score.`,
		Example: `  goutil semsim -e bp.edges -a bp.annot -m Resnik -o similarity.tsv
  goutil semsim -e bp.edges -a bp.annot -m Lin -f enriched.tsv -o similarity.tsv`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlags(cmd, map[string]string{
				"edges":       o.edges,
				"annotations": o.annotations,
				"output":      o.output,
				"metric":      o.metric,
			}); err != nil {
				return err
			}
			metric, err := semsim.ParseMetric(o.metric)
			if err != nil {
				return &usageError{cmd: cmd, err: err}
			}
			return a.runSemsim(cmd, o, metric)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.edges, "edges", "e", "", "Ontology edge-list file")
	f.StringVarP(&o.annotations, "annotations", "a", "", "Gene-centric annotation file")
	f.StringVarP(&o.output, "output", "o", "", "Output file ('-' for stdout)")
	f.StringVarP(&o.metric, "metric", "m", "", "Similarity metric: Resnik or Lin")
	f.StringVarP(&o.terms, "terms", "f", "", "Restrict to the terms in the first column of this file")

	return cmd
}

func (a *app) runSemsim(cmd *cobra.Command, o semsimOptions, metric semsim.Metric) error {
	ctx := cmd.Context()

	ont, err := a.loadOntology(o.edges)
	if err != nil {
		return err
	}

	loader := annotation.NewLoader(ont.Terms)
	loader.SetLogger(a.logger)
	ann, err := loader.Load(o.annotations)
	if err != nil {
		return fmt.Errorf("load annotations: %w", err)
	}
	if ann.Annotated.Len() == 0 {
		a.logger.Warn("the annotation file has no genes; no similarity can be computed",
			zap.String("path", o.annotations))
	}

	terms := ic.AllTerms(ont.Terms.Len())
	if o.terms != "" {
		set, err := ontology.ReadTermSet(o.terms, ont.Terms)
		if err != nil {
			return fmt.Errorf("load term subset: %w", err)
		}
		if len(set.Unknown) > 0 {
			a.logger.Warn("subset terms not found in the ontology were skipped",
				zap.Int("count", len(set.Unknown)),
				zap.Strings("terms", set.Unknown))
		}
		terms = set.Indices
	}

	// Only the ancestor closure of terms is counted.
	a.logger.Debug("computing term frequencies", zap.Int("seeds", len(terms)))
	counter := ic.NewCounter(ont.Graph, ann.Background)
	counter.SetWorkers(a.workers())
	freq, err := counter.Frequencies(ctx, terms)
	if err != nil {
		return err
	}
	engine := semsim.NewEngine(ont.Graph, ic.InformationContent(freq, ann.Annotated.Len()))
	engine.SetLogger(a.logger)

	terms = engine.Informative(terms)
	a.logger.Info("computing similarities",
		zap.Stringer("metric", metric),
		zap.Int("terms", len(terms)),
		zap.Int("population", ann.Annotated.Len()))

	out, err := a.createOutput(o.output)
	if err != nil {
		return err
	}
	defer out.Close()
	w := output.NewSimilarityWriter(out, ont.Terms)

	rec, err := a.recordSemsim(o, metric)
	if err != nil {
		return err
	}
	if rec != nil {
		defer rec.close()
	}

	err = engine.Pairs(ctx, terms, metric, a.workers(), func(p semsim.Pair) error {
		if err := w.Write(p); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		if rec != nil {
			return rec.appender.Append(ont.Terms.ID(p.I), ont.Terms.ID(p.J), p.Score)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	if rec != nil {
		if err := rec.close(); err != nil {
			return err
		}
		a.logger.Info("recorded run", zap.Int64("run", rec.runID))
	}
	a.logger.Info("wrote similarities", zap.String("path", o.output), zap.Int("pairs", w.Rows()))
	return nil
}

// semsimRecorder streams a similarity run into the store.
type semsimRecorder struct {
	runID    int64
	store    *store.Store
	appender *store.SimilarityAppender
	closed   bool
}

func (a *app) recordSemsim(o semsimOptions, metric semsim.Metric) (*semsimRecorder, error) {
	s, err := a.openStore()
	if err != nil || s == nil {
		return nil, err
	}

	inputs, err := store.StatFiles(o.edges, o.annotations, o.terms)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("fingerprint inputs: %w", err)
	}
	id, err := s.NewRun("semsim", map[string]string{
		"metric": metric.String(),
		"output": o.output,
	}, inputs)
	if err != nil {
		s.Close()
		return nil, err
	}
	sa, err := s.NewSimilarityAppender(id)
	if err != nil {
		s.Close()
		return nil, err
	}
	return &semsimRecorder{runID: id, store: s, appender: sa}, nil
}

func (r *semsimRecorder) close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	err := r.appender.Close()
	if cerr := r.store.Close(); err == nil {
		err = cerr
	}
	return err
}
