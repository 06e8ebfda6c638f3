package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/goutil/internal/annotation"
	"github.com/inodb/goutil/internal/enrich"
	"github.com/inodb/goutil/internal/output"
	"github.com/inodb/goutil/internal/store"
)

type enrichOptions struct {
	edges       string
	annotations string
	background  string
	target      string
	output      string
	threshold   float64
}

func newEnrichCmd(a *app) *cobra.Command {
	var o enrichOptions

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Test a target gene set for enriched ontology terms",
		Long: `Test every ontology term annotated in the target set for over-representation
relative to the background (hypergeometric test, Benjamini-Hochberg FDR).

Terms with an adjusted p-value at or below the threshold are written as
tab-delimited rows: term, definition, adjusted p-value, enrichment factor,
contributing genes.`,
		Example: `  goutil enrich -e bp.edges -a bp.annot -b background.txt -t target.txt -o enriched.tsv -p 0.05
  goutil enrich -e bp.edges -a bp.annot -b background.txt -t target.txt -o - -p 0.1 --store runs.duckdb`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlags(cmd, map[string]string{
				"edges":       o.edges,
				"annotations": o.annotations,
				"background":  o.background,
				"target":      o.target,
				"output":      o.output,
			}); err != nil {
				return err
			}
			if !cmd.Flags().Changed("threshold") {
				return usageErrorf(cmd, "required flag(s) --threshold not set")
			}
			if o.threshold < 0 || o.threshold > 1 {
				return usageErrorf(cmd, "threshold must be within [0, 1], got %g", o.threshold)
			}
			return a.runEnrich(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.edges, "edges", "e", "", "Ontology edge-list file")
	f.StringVarP(&o.annotations, "annotations", "a", "", "Gene-centric annotation file")
	f.StringVarP(&o.background, "background", "b", "", "Background gene set, one gene per line")
	f.StringVarP(&o.target, "target", "t", "", "Target gene set, one gene per line")
	f.StringVarP(&o.output, "output", "o", "", "Output file ('-' for stdout)")
	f.Float64VarP(&o.threshold, "threshold", "p", 0, "FDR threshold on the adjusted p-value")

	return cmd
}

func (a *app) runEnrich(cmd *cobra.Command, o enrichOptions) error {
	ctx := cmd.Context()

	ont, err := a.loadOntology(o.edges)
	if err != nil {
		return err
	}

	background, err := annotation.ReadGeneSet(o.background)
	if err != nil {
		return fmt.Errorf("load background: %w", err)
	}
	target, err := annotation.ReadGeneSet(o.target)
	if err != nil {
		return fmt.Errorf("load target: %w", err)
	}

	loader := annotation.NewLoader(ont.Terms)
	loader.SetPopulations(background, target)
	loader.SetLogger(a.logger)
	ann, err := loader.Load(o.annotations)
	if err != nil {
		return fmt.Errorf("load annotations: %w", err)
	}

	if err := ann.Validate(); err != nil {
		if errors.Is(err, annotation.ErrEmptyBackground) {
			return fmt.Errorf("%w: none of the %d background genes are annotated", err, background.Len())
		}
		return err
	}
	if ann.TargetPopulation.Len() == 0 {
		a.logger.Warn("no target gene is annotated; no term can be enriched",
			zap.Int("target_genes", target.Len()))
	}
	a.logger.Info("loaded annotations",
		zap.Int("background", ann.BackgroundPopulation.Len()),
		zap.Int("target", ann.TargetPopulation.Len()),
		zap.Int("annotated_genes", ann.Annotated.Len()))

	analyzer := enrich.NewAnalyzer(ont)
	analyzer.SetWorkers(a.workers())
	analyzer.SetLogger(a.logger)
	res, err := analyzer.Run(ctx, ann)
	if err != nil {
		return err
	}
	significant := res.Significant(o.threshold)

	out, err := a.createOutput(o.output)
	if err != nil {
		return err
	}
	defer out.Close()

	w := output.NewEnrichmentWriter(out)
	if err := w.WriteAll(significant); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	a.logger.Info("wrote enriched terms",
		zap.String("path", o.output),
		zap.Int("reported", len(significant)),
		zap.Int("tested", len(res.Terms)))

	return a.recordEnrich(o, significant)
}

func (a *app) recordEnrich(o enrichOptions, terms []enrich.Term) error {
	s, err := a.openStore()
	if err != nil || s == nil {
		return err
	}
	defer s.Close()

	inputs, err := store.StatFiles(o.edges, o.annotations, o.background, o.target)
	if err != nil {
		return fmt.Errorf("fingerprint inputs: %w", err)
	}
	id, err := s.NewRun("enrich", map[string]string{
		"threshold": strconv.FormatFloat(o.threshold, 'g', -1, 64),
		"output":    o.output,
	}, inputs)
	if err != nil {
		return err
	}
	if err := s.WriteEnrichment(id, terms); err != nil {
		return fmt.Errorf("record enriched terms: %w", err)
	}
	a.logger.Info("recorded run", zap.Int64("run", id))
	return nil
}
