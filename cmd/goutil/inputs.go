package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/inodb/goutil/internal/ontology"
	"github.com/inodb/goutil/internal/store"
)

// requireFlags returns a usage error naming every empty string flag.
func requireFlags(cmd *cobra.Command, flags map[string]string) error {
	var missing []string
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if v, ok := flags[f.Name]; ok && v == "" {
			missing = append(missing, "--"+f.Name)
		}
	})
	if len(missing) > 0 {
		return usageErrorf(cmd, "required flag(s) %s not set", strings.Join(missing, ", "))
	}
	return nil
}

func (a *app) loadOntology(path string) (*ontology.Ontology, error) {
	edges, hit, err := store.LoadEdges(a.ontologyCache(), path)
	if err != nil {
		return nil, fmt.Errorf("load ontology: %w", err)
	}
	ont := ontology.Build(edges)
	a.logger.Info("loaded ontology",
		zap.String("path", path),
		zap.Int("terms", ont.Terms.Len()),
		zap.Int("edges", ont.Graph.EdgeCount()),
		zap.Bool("cached", hit))
	return ont, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// createOutput creates the output file at path, or wraps stdout for "-".
func (a *app) createOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{a.stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, nil
}
