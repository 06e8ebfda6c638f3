package annotation

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/inodb/goutil/internal/textio"
)

// GAF 2.x column positions (0-based).
const (
	gafColID        = 1
	gafColSymbol    = 2
	gafColQualifier = 3
	gafColTerm      = 4
	gafColEvidence  = 6
	gafColAspect    = 8
	gafMinColumns   = 9
)

// IDType selects which GAF column identifies a gene.
type IDType int

const (
	IDTypeID IDType = iota
	IDTypeSymbol
)

// ParseIDType parses "id" or "symbol".
func ParseIDType(s string) (IDType, error) {
	switch s {
	case "id":
		return IDTypeID, nil
	case "symbol":
		return IDTypeSymbol, nil
	}
	return 0, fmt.Errorf("id type must be one of [id, symbol], got %q", s)
}

func (t IDType) column() int {
	if t == IDTypeSymbol {
		return gafColSymbol
	}
	return gafColID
}

// GAFFilter selects the gene-association rows to keep.
type GAFFilter struct {
	// Aspect is P, F or C.
	Aspect string

	// ExcludedEvidence lists evidence codes to drop (e.g. IEA, ND).
	ExcludedEvidence []string

	IDType IDType
}

// GeneCentric holds per-gene term lists extracted from a GAF file.
type GeneCentric struct {
	genes []string            // first-seen order
	terms map[string][]string // gene -> distinct terms, first-seen order

	termOrder []string
	termGenes map[string][]string // term -> distinct genes, first-seen order
}

// Genes returns the genes in first-seen order.
func (gc *GeneCentric) Genes() []string {
	return gc.genes
}

// Terms returns the distinct terms annotated to gene.
func (gc *GeneCentric) Terms(gene string) []string {
	return gc.terms[gene]
}

// ExtractGAF reads a gene-association file and groups kept rows per gene.
func ExtractGAF(path string, filter GAFFilter) (*GeneCentric, error) {
	r, err := textio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gene association file: %w", err)
	}
	defer r.Close()

	gc, err := ParseGAF(r, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return gc, nil
}

// ParseGAF parses GAF rows, skipping '!' comment lines, rows of another
// aspect, excluded evidence codes and NOT qualifiers.
func ParseGAF(r io.Reader, filter GAFFilter) (*GeneCentric, error) {
	excluded := make(map[string]bool, len(filter.ExcludedEvidence))
	for _, code := range filter.ExcludedEvidence {
		excluded[strings.TrimSpace(code)] = true
	}
	idCol := filter.IDType.column()

	gc := &GeneCentric{
		terms:     make(map[string][]string),
		termGenes: make(map[string][]string),
	}
	seenPair := make(map[[2]string]bool)

	scanner := textio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == '!' {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < gafMinColumns {
			continue
		}
		if fields[gafColAspect] != filter.Aspect ||
			excluded[fields[gafColEvidence]] ||
			isNegated(fields[gafColQualifier]) {
			continue
		}

		gene, term := fields[idCol], fields[gafColTerm]
		if gene == "" || term == "" {
			continue
		}
		key := [2]string{gene, term}
		if seenPair[key] {
			continue
		}
		seenPair[key] = true

		if _, ok := gc.terms[gene]; !ok {
			gc.genes = append(gc.genes, gene)
		}
		gc.terms[gene] = append(gc.terms[gene], term)

		if _, ok := gc.termGenes[term]; !ok {
			gc.termOrder = append(gc.termOrder, term)
		}
		gc.termGenes[term] = append(gc.termGenes[term], gene)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan gene association file: %w", err)
	}

	return gc, nil
}

// isNegated reports whether a qualifier such as "NOT" or "NOT|enables"
// negates the annotation.
func isNegated(qualifier string) bool {
	for _, q := range strings.Split(qualifier, "|") {
		if q == "NOT" {
			return true
		}
	}
	return false
}

// WriteGeneCentric writes "gene\tterm1\tterm2..." rows, the annotation
// format consumed by the enrichment and similarity tools.
func (gc *GeneCentric) WriteGeneCentric(w io.Writer) error {
	return writeGrouped(w, gc.genes, gc.terms)
}

// WriteTermCentric writes "term\tgene1\tgene2..." rows.
func (gc *GeneCentric) WriteTermCentric(w io.Writer) error {
	return writeGrouped(w, gc.termOrder, gc.termGenes)
}

func writeGrouped(w io.Writer, keys []string, groups map[string][]string) error {
	bw := bufio.NewWriter(w)
	for _, k := range keys {
		if _, err := bw.WriteString(k + "\t" + strings.Join(groups[k], "\t") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
