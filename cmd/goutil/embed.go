package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/goutil/internal/embed"
	"github.com/inodb/goutil/internal/output"
)

func newMDSCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mds <similarity-file> <output>",
		Short: "Embed terms in the plane from their Lin similarities",
		Long: `Turn a Lin similarity file written by semsim into the distances 1-s and
place every listed term in two dimensions with classical multidimensional
scaling. Pairs missing from the file are at distance 1.

Each output row is: term, x, y.`,
		Example: `  goutil mds similarity.tsv coordinates.tsv`,
		Args:    usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMDS(args[0], args[1])
		},
	}
}

func (a *app) runMDS(simPath, outPath string) error {
	e, err := a.embedSimilarities(simPath)
	if err != nil {
		return err
	}
	if err := a.writeTo(outPath, func(w io.Writer) error {
		return output.WriteCoordinates(w, e)
	}); err != nil {
		return err
	}
	a.logger.Info("wrote coordinates", zap.String("path", outPath), zap.Int("terms", e.Len()))
	return nil
}

func (a *app) embedSimilarities(path string) (*embed.Embedding, error) {
	d, err := embed.ReadSimilarities(path)
	if err != nil {
		return nil, fmt.Errorf("load similarities: %w", err)
	}
	if d.Len() == 0 {
		a.logger.Warn("the similarity file lists no term pairs", zap.String("path", path))
	}
	e, err := embed.Embed(d)
	if err != nil {
		return nil, err
	}
	a.logger.Info("embedded terms", zap.Int("terms", e.Len()), zap.Int("dims", embed.Dims))
	return e, nil
}

type clusterOptions struct {
	similarities bool
	coordinates  string
	alpha        float64
}

func newClusterCmd(a *app) *cobra.Command {
	var o clusterOptions

	cmd := &cobra.Command{
		Use:   "cluster <input> <output> <clusters>",
		Short: "Group embedded terms by spectral clustering",
		Long: `Split terms into the given number of clusters by spectral clustering on the
affinity exp(-alpha*d) of their plane distances, and mark the medoid of
each cluster as its representative term.

The input is a coordinate file written by mds, or with --similarities a Lin
similarity file that is embedded first.

Each output row is: term, cluster, medoid (true or false).`,
		Example: `  goutil cluster coordinates.tsv clusters.tsv 8
  goutil cluster --similarities similarity.tsv clusters.tsv 8 --coordinates coordinates.tsv`,
		Args: usageArgs(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := strconv.Atoi(args[2])
			if err != nil || k < 1 {
				return usageErrorf(cmd, "the number of clusters must be a positive integer, got %q", args[2])
			}
			if o.alpha <= 0 {
				return usageErrorf(cmd, "--alpha must be positive, got %g", o.alpha)
			}
			if o.coordinates != "" && !o.similarities {
				return usageErrorf(cmd, "--coordinates requires --similarities")
			}
			return a.runCluster(o, args[0], args[1], k)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&o.similarities, "similarities", false, "Input is a Lin similarity file to embed first")
	f.StringVar(&o.coordinates, "coordinates", "", "Also write the embedding to this file (with --similarities)")
	f.Float64Var(&o.alpha, "alpha", embed.DefaultAlpha, "Decay of the affinity kernel exp(-alpha*d)")

	return cmd
}

func (a *app) runCluster(o clusterOptions, inPath, outPath string, k int) error {
	var (
		e   *embed.Embedding
		err error
	)
	if o.similarities {
		e, err = a.embedSimilarities(inPath)
		if err != nil {
			return err
		}
		if o.coordinates != "" {
			if err := a.writeTo(o.coordinates, func(w io.Writer) error {
				return output.WriteCoordinates(w, e)
			}); err != nil {
				return err
			}
		}
	} else {
		e, err = embed.ReadCoordinates(inPath)
		if err != nil {
			return fmt.Errorf("load coordinates: %w", err)
		}
	}

	c, err := embed.Cluster(e, k, o.alpha)
	if err != nil {
		return err
	}
	if err := a.writeTo(outPath, func(w io.Writer) error {
		return output.WriteClusters(w, e.Terms, c)
	}); err != nil {
		return err
	}

	a.logger.Info("wrote clusters",
		zap.String("path", outPath),
		zap.Int("terms", e.Len()),
		zap.Int("clusters", len(c.Medoids)))
	return nil
}
