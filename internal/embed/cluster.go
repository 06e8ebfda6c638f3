package embed

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultAlpha is the decay of the affinity kernel exp(-alpha*d).
const DefaultAlpha = 1.0

// maxIterations bounds the k-means refinement.
const maxIterations = 300

// ErrClusterCount is returned for a cluster count outside [1, terms].
var ErrClusterCount = errors.New("invalid number of clusters")

// Clustering assigns every embedded term to a cluster.
type Clustering struct {
	// Labels[i] is the cluster of term i. Clusters are numbered from 0 in
	// order of their first member.
	Labels []int
	// Medoids lists one representative term per cluster, by label.
	Medoids []int
}

// IsMedoid reports whether term i represents its cluster.
func (c *Clustering) IsMedoid(i int) bool {
	for _, m := range c.Medoids {
		if m == i {
			return true
		}
	}
	return false
}

// Cluster groups the terms of e into k clusters by spectral clustering on
// the affinity exp(-alpha*d) of their plane distances, and picks the medoid
// of each cluster.
func Cluster(e *Embedding, k int, alpha float64) (*Clustering, error) {
	n := e.Len()
	if k < 1 || k > n {
		return nil, fmt.Errorf("%w: %d clusters for %d terms", ErrClusterCount, k, n)
	}

	dist := Euclidean(e.Coords)
	labels, err := Spectral(Affinity(dist, alpha), k)
	if err != nil {
		return nil, err
	}
	return &Clustering{Labels: labels, Medoids: Medoids(dist, labels)}, nil
}

// Euclidean returns the pairwise Euclidean distances between the rows of x.
func Euclidean(x *mat.Dense) *mat.SymDense {
	n, _ := x.Dims()
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d.SetSym(i, j, floats.Distance(x.RawRowView(i), x.RawRowView(j), 2))
		}
	}
	return d
}

// Affinity converts distances to the kernel exp(-alpha*d). The diagonal is
// zero.
func Affinity(d mat.Symmetric, alpha float64) *mat.SymDense {
	n := d.SymmetricDim()
	a := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a.SetSym(i, j, math.Exp(-alpha*d.At(i, j)))
		}
	}
	return a
}

// Spectral partitions the graph with affinity matrix a into k clusters. The
// rows of the k leading eigenvectors of the normalized affinity
// D^-1/2 A D^-1/2, rescaled by D^-1/2, are grouped with k-means.
func Spectral(a mat.Symmetric, k int) ([]int, error) {
	n := a.SymmetricDim()
	if k < 1 || k > n {
		return nil, fmt.Errorf("%w: %d clusters for %d terms", ErrClusterCount, k, n)
	}
	if k == 1 {
		return make([]int, n), nil
	}

	// Isolated terms have no degree and stay at the origin.
	scale := make([]float64, n)
	for i := 0; i < n; i++ {
		var deg float64
		for j := 0; j < n; j++ {
			deg += a.At(i, j)
		}
		if deg > 0 {
			scale[i] = 1 / math.Sqrt(deg)
		}
	}

	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			m.SetSym(i, j, scale[i]*a.At(i, j)*scale[j])
		}
	}

	var es mat.EigenSym
	if !es.Factorize(m, true) {
		return nil, fmt.Errorf("spectral clustering: %w", ErrNoConvergence)
	}
	var vectors mat.Dense
	es.VectorsTo(&vectors)

	points := make([][]float64, n)
	for i := range points {
		points[i] = make([]float64, k)
	}
	for c := 0; c < k; c++ {
		col := mat.Col(nil, n-1-c, &vectors)
		orient(col)
		for i, v := range col {
			points[i][c] = v * scale[i]
		}
	}

	return relabel(kmeans(points, k)), nil
}

// kmeans runs Lloyd's algorithm from a farthest-first seeding that starts at
// the first point. Ties go to the lower index.
func kmeans(points [][]float64, k int) []int {
	centers := make([][]float64, 0, k)
	centers = append(centers, append([]float64(nil), points[0]...))
	nearest := make([]float64, len(points))
	for i, p := range points {
		nearest[i] = floats.Distance(p, centers[0], 2)
	}
	for len(centers) < k {
		next := floats.MaxIdx(nearest)
		centers = append(centers, append([]float64(nil), points[next]...))
		for i, p := range points {
			nearest[i] = math.Min(nearest[i], floats.Distance(p, points[next], 2))
		}
	}

	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}
	dim := len(points[0])
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, p := range points {
			best, bestDist := 0, math.Inf(1)
			for c, center := range centers {
				if d := floats.Distance(p, center, 2); d < bestDist {
					best, bestDist = c, d
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, p := range points {
			floats.Add(sums[labels[i]], p)
			counts[labels[i]]++
		}
		// An emptied cluster keeps its previous center.
		for c := range centers {
			if counts[c] > 0 {
				floats.ScaleTo(centers[c], 1/float64(counts[c]), sums[c])
			}
		}
	}
	return labels
}

// relabel renumbers clusters in order of their first member.
func relabel(labels []int) []int {
	ids := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		id, ok := ids[l]
		if !ok {
			id = len(ids)
			ids[l] = id
		}
		out[i] = id
	}
	return out
}

// Medoids returns, for each cluster label in ascending order, the member
// with the smallest total distance to the other members of its cluster.
// Ties go to the lower index.
func Medoids(d mat.Symmetric, labels []int) []int {
	members := make(map[int][]int)
	for i, l := range labels {
		members[l] = append(members[l], i)
	}
	ids := make([]int, 0, len(members))
	for l := range members {
		ids = append(ids, l)
	}
	sort.Ints(ids)

	medoids := make([]int, 0, len(ids))
	for _, l := range ids {
		best, bestSum := -1, math.Inf(1)
		for _, i := range members[l] {
			var sum float64
			for _, j := range members[l] {
				sum += d.At(i, j)
			}
			if sum < bestSum {
				best, bestSum = i, sum
			}
		}
		medoids = append(medoids, best)
	}
	return medoids
}
