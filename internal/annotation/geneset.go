package annotation

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/inodb/goutil/internal/textio"
)

// GeneSet is a set of gene identifiers.
type GeneSet map[string]struct{}

// NewGeneSet creates a set holding genes.
func NewGeneSet(genes ...string) GeneSet {
	s := make(GeneSet, len(genes))
	for _, g := range genes {
		s[g] = struct{}{}
	}
	return s
}

// Has reports whether gene is in the set.
func (s GeneSet) Has(gene string) bool {
	_, ok := s[gene]
	return ok
}

// Len returns the number of genes.
func (s GeneSet) Len() int {
	return len(s)
}

// Sorted returns the genes in ascending order.
func (s GeneSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for g := range s {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Intersect returns the genes present in both sets.
func (s GeneSet) Intersect(other GeneSet) GeneSet {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(GeneSet, len(small))
	for g := range small {
		if large.Has(g) {
			out[g] = struct{}{}
		}
	}
	return out
}

// ReadGeneSet reads a gene-set file with one identifier per line.
func ReadGeneSet(path string) (GeneSet, error) {
	r, err := textio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gene set: %w", err)
	}
	defer r.Close()

	s, err := ParseGeneSet(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseGeneSet parses one gene identifier per line. Surrounding whitespace
// is trimmed and blank lines are ignored.
func ParseGeneSet(r io.Reader) (GeneSet, error) {
	scanner := textio.NewScanner(r)
	s := make(GeneSet)
	for scanner.Scan() {
		gene := strings.TrimSpace(scanner.Text())
		if gene == "" {
			continue
		}
		s[gene] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan gene set: %w", err)
	}
	return s, nil
}
