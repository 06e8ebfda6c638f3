// Package ontology provides the term registry and the directed term graph
// used for ancestor/descendant closure queries.
package ontology

import "sort"

// Graph is a directed graph over dense term indices. Edges point from a
// child term to its parent. Forward (out) and reverse (in) adjacency are kept
// side by side so both closures are a single walk.
//
// A Graph is not safe for concurrent mutation, but once loading is finished
// any number of goroutines may query it.
type Graph struct {
	out   [][]int // child -> parents
	in    [][]int // parent -> children
	edges int
}

// NewGraph creates a graph with n term nodes and no edges.
func NewGraph(n int) *Graph {
	return &Graph{
		out: make([][]int, n),
		in:  make([][]int, n),
	}
}

// Len returns the number of term nodes.
func (g *Graph) Len() int {
	return len(g.out)
}

// EdgeCount returns the number of edges added, duplicates included.
func (g *Graph) EdgeCount() int {
	return g.edges
}

// AddEdge adds a child -> parent edge. Duplicate edges and self-loops are
// kept as is; closures only observe set membership.
func (g *Graph) AddEdge(child, parent int) {
	g.grow(max(child, parent) + 1)
	g.out[child] = append(g.out[child], parent)
	g.in[parent] = append(g.in[parent], child)
	g.edges++
}

func (g *Graph) grow(n int) {
	for len(g.out) < n {
		g.out = append(g.out, nil)
		g.in = append(g.in, nil)
	}
}

// Parents returns the direct parents of a term.
func (g *Graph) Parents(v int) []int {
	return g.out[v]
}

// Children returns the direct children of a term.
func (g *Graph) Children(v int) []int {
	return g.in[v]
}

// Descendants returns v together with every term that reaches v through
// child -> parent edges, sorted by index.
func (g *Graph) Descendants(v int) []int {
	return g.walk(g.in, []int{v})
}

// Ancestors returns the union of the ancestor closures of terms, each term
// included, sorted by index. All seeds are walked in a single pass.
func (g *Graph) Ancestors(terms ...int) []int {
	return g.walk(g.out, terms)
}

// walk runs an iterative depth-first traversal over adj from all seeds.
// The stack and visited set are local to the call.
func (g *Graph) walk(adj [][]int, seeds []int) []int {
	visited := make(map[int]struct{}, len(seeds))
	stack := make([]int, 0, len(seeds))
	for _, s := range seeds {
		if _, ok := visited[s]; ok {
			continue
		}
		visited[s] = struct{}{}
		stack = append(stack, s)
	}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range adj[node] {
			if _, ok := visited[next]; ok {
				continue
			}
			visited[next] = struct{}{}
			stack = append(stack, next)
		}
	}

	result := make([]int, 0, len(visited))
	for v := range visited {
		result = append(result, v)
	}
	sort.Ints(result)
	return result
}

// Intersect returns the elements common to two ascending index slices.
func Intersect(a, b []int) []int {
	var out []int
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}
