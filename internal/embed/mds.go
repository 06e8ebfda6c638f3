package embed

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/inodb/goutil/internal/textio"
)

// Dims is the number of coordinates per embedded term.
const Dims = 2

// ErrNoConvergence is returned when an eigendecomposition fails.
var ErrNoConvergence = errors.New("eigendecomposition did not converge")

// Embedding holds the plane coordinates of terms. Row i of Coords belongs
// to Terms[i].
type Embedding struct {
	Terms  []string
	Coords *mat.Dense // nil when Terms is empty
}

// Len returns the number of terms.
func (e *Embedding) Len() int {
	return len(e.Terms)
}

// Embed places the terms of d in the plane with classical multidimensional
// scaling.
func Embed(d *Distances) (*Embedding, error) {
	e := &Embedding{Terms: d.Terms}
	if d.Len() == 0 {
		return e, nil
	}
	x, err := MDS(d.Matrix, Dims)
	if err != nil {
		return nil, err
	}
	e.Coords = x
	return e, nil
}

// MDS returns an n×dims configuration whose Euclidean distances approximate
// d. It double-centres the squared distances and projects onto the leading
// eigenvectors scaled by the square roots of their eigenvalues. Directions
// with non-positive eigenvalues stay at zero. Each axis is oriented so that
// its largest-magnitude coordinate is positive.
func MDS(d mat.Symmetric, dims int) (*mat.Dense, error) {
	n := d.SymmetricDim()

	sq := make([]float64, n*n)
	rowMean := make([]float64, n)
	var grand float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := d.At(i, j)
			sq[i*n+j] = v * v
			rowMean[i] += v * v
		}
		grand += rowMean[i]
		rowMean[i] /= float64(n)
	}
	grand /= float64(n * n)

	b := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			b.SetSym(i, j, -0.5*(sq[i*n+j]-rowMean[i]-rowMean[j]+grand))
		}
	}

	var es mat.EigenSym
	if !es.Factorize(b, true) {
		return nil, fmt.Errorf("multidimensional scaling: %w", ErrNoConvergence)
	}
	values := es.Values(nil) // ascending
	var vectors mat.Dense
	es.VectorsTo(&vectors)

	x := mat.NewDense(n, dims, nil)
	for c := 0; c < dims; c++ {
		k := n - 1 - c
		if k < 0 || values[k] <= 0 {
			continue
		}
		col := mat.Col(nil, k, &vectors)
		orient(col)
		floats.Scale(math.Sqrt(values[k]), col)
		x.SetCol(c, col)
	}
	return x, nil
}

// orient flips v so that its largest-magnitude element is positive.
func orient(v []float64) {
	best := 0
	for i := range v {
		if math.Abs(v[i]) > math.Abs(v[best]) {
			best = i
		}
	}
	if len(v) > 0 && v[best] < 0 {
		floats.Scale(-1, v)
	}
}

// ReadCoordinates reads an embedding written by the mds command.
func ReadCoordinates(path string) (*Embedding, error) {
	r, err := textio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open coordinate file: %w", err)
	}
	defer r.Close()

	e, err := ParseCoordinates(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}

// ParseCoordinates reads "term x y" rows.
func ParseCoordinates(r io.Reader) (*Embedding, error) {
	e := &Embedding{}
	var data []float64

	scanner := textio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 1+Dims {
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", line, 1+Dims, len(fields))
		}
		for _, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid coordinate %q", line, f)
			}
			data = append(data, v)
		}
		e.Terms = append(e.Terms, fields[0])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan coordinates: %w", err)
	}

	if len(e.Terms) > 0 {
		e.Coords = mat.NewDense(len(e.Terms), Dims, data)
	}
	return e, nil
}
