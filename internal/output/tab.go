// Package output provides result formatters for enrichment, similarity,
// embedding and clustering runs.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/goutil/internal/enrich"
	"github.com/inodb/goutil/internal/ontology"
	"github.com/inodb/goutil/internal/semsim"
)

// formatScientific renders v the way the result files expect, e.g.
// 3.333333e-01.
func formatScientific(v float64) string {
	return strconv.FormatFloat(v, 'e', 6, 64)
}

// EnrichmentWriter writes enriched terms in tab-delimited format.
type EnrichmentWriter struct {
	w *bufio.Writer
}

// NewEnrichmentWriter creates a new enrichment writer.
func NewEnrichmentWriter(w io.Writer) *EnrichmentWriter {
	return &EnrichmentWriter{w: bufio.NewWriter(w)}
}

// Write writes a single enriched term.
func (ew *EnrichmentWriter) Write(t enrich.Term) error {
	values := []string{
		t.ID,
		t.Definition,
		formatScientific(t.AdjustedP),
		formatScientific(t.EnrichmentFactor),
		strings.Join(t.Genes, " "),
	}
	_, err := ew.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// WriteAll writes terms in order.
func (ew *EnrichmentWriter) WriteAll(terms []enrich.Term) error {
	for _, t := range terms {
		if err := ew.Write(t); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (ew *EnrichmentWriter) Flush() error {
	return ew.w.Flush()
}

// SimilarityWriter writes scored term pairs in tab-delimited format.
type SimilarityWriter struct {
	w     *bufio.Writer
	terms *ontology.Registry
	rows  int
}

// NewSimilarityWriter creates a writer resolving term indices through terms.
func NewSimilarityWriter(w io.Writer, terms *ontology.Registry) *SimilarityWriter {
	return &SimilarityWriter{
		w:     bufio.NewWriter(w),
		terms: terms,
	}
}

// Write writes a single pair.
func (sw *SimilarityWriter) Write(p semsim.Pair) error {
	sw.rows++
	_, err := sw.w.WriteString(sw.terms.ID(p.I) + "\t" + sw.terms.ID(p.J) + "\t" + formatScientific(p.Score) + "\n")
	return err
}

// Rows returns the number of pairs written.
func (sw *SimilarityWriter) Rows() int {
	return sw.rows
}

// Flush flushes any buffered data to the underlying writer.
func (sw *SimilarityWriter) Flush() error {
	return sw.w.Flush()
}
