// Package embed places ontology terms in the plane from their pairwise
// semantic distances and groups them into clusters with one representative
// term each.
package embed

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/inodb/goutil/internal/textio"
)

// ErrSimilarityRange is returned for scores that cannot be turned into a
// distance with 1-s.
var ErrSimilarityRange = errors.New("similarity outside [0, 1]; embedding expects Lin scores")

// Distances is a symmetric term distance matrix. Row i belongs to Terms[i].
type Distances struct {
	Terms  []string
	Matrix *mat.SymDense // nil when Terms is empty
}

// Len returns the number of terms.
func (d *Distances) Len() int {
	return len(d.Terms)
}

// ReadSimilarities reads a similarity file written by semsim.
func ReadSimilarities(path string) (*Distances, error) {
	r, err := textio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open similarity file: %w", err)
	}
	defer r.Close()

	d, err := ParseSimilarities(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// ParseSimilarities reads "term1 term2 score" rows and converts each score s
// to the distance 1-s. Terms are numbered in order of first appearance.
// Pairs that are not listed have similarity 0, i.e. distance 1, which is how
// semsim leaves out pairs without a positive score.
func ParseSimilarities(r io.Reader) (*Distances, error) {
	type pair struct {
		i, j int
		dist float64
	}

	index := make(map[string]int)
	var terms []string
	lookup := func(id string) int {
		i, ok := index[id]
		if !ok {
			i = len(terms)
			index[id] = i
			terms = append(terms, id)
		}
		return i
	}

	var pairs []pair
	scanner := textio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 fields, got %d", line, len(fields))
		}
		s, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid score %q", line, fields[2])
		}
		if s < 0 || s > 1 {
			return nil, fmt.Errorf("line %d: %w: %g", line, ErrSimilarityRange, s)
		}
		i, j := lookup(fields[0]), lookup(fields[1])
		if i == j {
			continue
		}
		pairs = append(pairs, pair{i: i, j: j, dist: 1 - s})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan similarities: %w", err)
	}

	d := &Distances{Terms: terms}
	n := len(terms)
	if n == 0 {
		return d, nil
	}
	d.Matrix = mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d.Matrix.SetSym(i, j, 1)
		}
	}
	// A pair listed twice keeps its last score.
	for _, p := range pairs {
		d.Matrix.SetSym(p.i, p.j, p.dist)
	}
	return d, nil
}
