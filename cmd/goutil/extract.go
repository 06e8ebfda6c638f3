package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/goutil/internal/annotation"
)

func newExtractCmd(a *app) *cobra.Command {
	var termCentric string

	cmd := &cobra.Command{
		Use:   "extract <gaf-file> <P|F|C> <excluded-evidence> <id|symbol> <output>",
		Short: "Extract gene-centric annotations from a GO gene association file",
		Long: `Read a GAF file and write "gene<TAB>term<TAB>term..." rows for one aspect
(P biological process, F molecular function, C cellular component).

Rows with a NOT qualifier or an evidence code in the comma-separated
exclusion list are dropped. Genes are identified by the DB object ID or
symbol column.`,
		Example: `  goutil extract goa_human.gaf.gz P IEA,ND,RCA symbol bp.annot
  goutil extract goa_human.gaf F ND id mf.annot --term-centric mf.terms`,
		Args: usageArgs(cobra.ExactArgs(5)),
		RunE: func(cmd *cobra.Command, args []string) error {
			aspect := args[1]
			switch aspect {
			case "P", "F", "C":
			default:
				return usageErrorf(cmd, "namespace must be one of [P, F, C], got %q", aspect)
			}
			idType, err := annotation.ParseIDType(args[3])
			if err != nil {
				return &usageError{cmd: cmd, err: err}
			}

			filter := annotation.GAFFilter{
				Aspect:           aspect,
				ExcludedEvidence: splitList(args[2]),
				IDType:           idType,
			}
			return a.runExtract(args[0], filter, args[4], termCentric)
		},
	}

	cmd.Flags().StringVar(&termCentric, "term-centric", "", "Also write term-centric rows to this file")

	return cmd
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (a *app) runExtract(gafPath string, filter annotation.GAFFilter, outPath, termPath string) error {
	gc, err := annotation.ExtractGAF(gafPath, filter)
	if err != nil {
		return err
	}

	if err := a.writeTo(outPath, gc.WriteGeneCentric); err != nil {
		return err
	}
	if termPath != "" {
		if err := a.writeTo(termPath, gc.WriteTermCentric); err != nil {
			return err
		}
	}

	a.logger.Info("extracted annotations",
		zap.String("aspect", filter.Aspect),
		zap.Strings("excluded_evidence", filter.ExcludedEvidence),
		zap.Int("genes", len(gc.Genes())))
	return nil
}

func (a *app) writeTo(path string, write func(w io.Writer) error) error {
	out, err := a.createOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := write(out); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return out.Close()
}
