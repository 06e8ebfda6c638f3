package ontology

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/inodb/goutil/internal/textio"
)

// TermSet is a set of term indices read from a restriction file.
type TermSet struct {
	// Indices are the distinct known terms, ascending.
	Indices []int
	// Unknown lists identifiers that are not in the registry, in file order.
	Unknown []string
}

// ReadTermSet reads a restriction file whose first column names a term.
// Enrichment output files qualify as is.
func ReadTermSet(path string, reg *Registry) (*TermSet, error) {
	r, err := textio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open term list: %w", err)
	}
	defer r.Close()

	ts, err := ParseTermSet(r, reg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ts, nil
}

// ParseTermSet parses the first whitespace-delimited token of every line
// as a term identifier. Unknown identifiers are collected, not aliased.
func ParseTermSet(r io.Reader, reg *Registry) (*TermSet, error) {
	scanner := textio.NewScanner(r)

	seen := make(map[int]struct{})
	ts := &TermSet{}
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		i, ok := reg.Index(fields[0])
		if !ok {
			ts.Unknown = append(ts.Unknown, fields[0])
			continue
		}
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		ts.Indices = append(ts.Indices, i)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan term list: %w", err)
	}

	sort.Ints(ts.Indices)
	return ts, nil
}
