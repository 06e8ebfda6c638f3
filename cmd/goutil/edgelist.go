package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/goutil/internal/ontology"
)

func newEdgelistCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edgelist <obo-file> <namespace> <output>",
		Short: "Build an ontology edge list from an OBO file",
		Long: `Write one edge per is_a and part_of relationship of the terms in the given
namespace (e.g. biological_process). Alternative IDs get the edges of their
primary term. Term names are used as definitions.`,
		Example: `  goutil edgelist go.obo biological_process bp.edges
  goutil edgelist go-basic.obo.gz molecular_function - > mf.edges`,
		Args: usageArgs(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEdgelist(args[0], args[1], args[2])
		},
	}
}

func (a *app) runEdgelist(oboPath, namespace, outPath string) error {
	terms, err := ontology.ReadOBO(oboPath)
	if err != nil {
		return err
	}

	edges := ontology.EdgesFromOBO(terms, namespace)
	if len(edges) == 0 {
		a.logger.Warn("no edges in namespace", zap.String("namespace", namespace))
	}

	out, err := a.createOutput(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := ontology.WriteEdges(out, edges); err != nil {
		return fmt.Errorf("writing edge list: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing edge list: %w", err)
	}

	a.logger.Info("wrote edge list",
		zap.String("path", outPath),
		zap.Int("terms", len(terms)),
		zap.Int("edges", len(edges)))
	return nil
}
