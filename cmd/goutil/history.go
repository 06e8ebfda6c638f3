package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/inodb/goutil/internal/output"
	"github.com/inodb/goutil/internal/store"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		runID   int64
		similar string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show runs recorded in the results store",
		Long: `List the enrich and semsim runs recorded in the DuckDB store (store.path or
--store), print the enriched terms of one run, or the terms most similar to
a given term across all recorded similarity runs.`,
		Example: `  goutil history --store runs.duckdb
  goutil history --store runs.duckdb --run 3
  goutil history --store runs.duckdb --similar GO:0006915 -n 5`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID != 0 && similar != "" {
				return usageErrorf(cmd, "--run and --similar are mutually exclusive")
			}
			if limit < 1 {
				return usageErrorf(cmd, "-n must be positive, got %d", limit)
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			if s == nil {
				return usageErrorf(cmd, "no store configured; set --store or store.path")
			}
			defer s.Close()

			switch {
			case runID != 0:
				return a.showRun(s, runID)
			case similar != "":
				return a.showSimilar(s, similar, limit)
			}
			return a.listRuns(s)
		},
	}

	cmd.Flags().Int64Var(&runID, "run", 0, "Print the enriched terms of this run")
	cmd.Flags().StringVar(&similar, "similar", "", "Print the terms most similar to this term")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of similar terms to print")

	return cmd
}

func (a *app) listRuns(s *store.Store) error {
	runs, err := s.ListRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(a.stdout, "# No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tTOOL\tCREATED\tPARAMETERS\tINPUTS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			r.ID, r.Tool, r.CreatedAt.Format(time.RFC3339),
			formatParameters(r.Parameters), formatInputs(r.Inputs))
	}
	return tw.Flush()
}

func formatParameters(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + params[k]
	}
	return strings.Join(parts, " ")
}

func formatInputs(inputs []store.FileFingerprint) string {
	paths := make([]string, len(inputs))
	for i, in := range inputs {
		paths[i] = in.Path
	}
	return strings.Join(paths, ",")
}

func (a *app) showRun(s *store.Store, runID int64) error {
	terms, err := s.EnrichedTerms(runID)
	if err != nil {
		return err
	}
	w := output.NewEnrichmentWriter(a.stdout)
	if err := w.WriteAll(terms); err != nil {
		return err
	}
	return w.Flush()
}

func (a *app) showSimilar(s *store.Store, term string, n int) error {
	top, err := s.TopSimilar(term, n)
	if err != nil {
		return err
	}
	return writeSimilar(a.stdout, term, top)
}

func writeSimilar(w io.Writer, term string, top []store.Similar) error {
	for _, sim := range top {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%e\t%d\n", term, sim.Term, sim.Score, sim.RunID); err != nil {
			return err
		}
	}
	return nil
}
