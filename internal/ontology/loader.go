package ontology

import (
	"fmt"
	"io"
	"strings"

	"github.com/inodb/goutil/internal/textio"
)

// Edge is one row of an edge-list file.
type Edge struct {
	Child            string
	ChildDefinition  string
	Parent           string
	ParentDefinition string
}

// Ontology bundles the registry and the graph built from one edge list.
type Ontology struct {
	Terms *Registry
	Graph *Graph
}

// LoadEdgeList reads and builds the ontology from an edge-list file.
func LoadEdgeList(path string) (*Ontology, error) {
	edges, err := ReadEdgeList(path)
	if err != nil {
		return nil, err
	}
	return Build(edges), nil
}

// ReadEdgeList reads the edge rows of an edge-list file.
func ReadEdgeList(path string) ([]Edge, error) {
	r, err := textio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open edge list: %w", err)
	}
	defer r.Close()

	edges, err := ParseEdges(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return edges, nil
}

// ParseEdges parses tab-delimited rows of the form
//
//	childID  childDefinition  parentID  parentDefinition
//
// Definitions may contain spaces; only tabs separate columns. Blank lines
// are skipped.
func ParseEdges(r io.Reader) ([]Edge, error) {
	scanner := textio.NewScanner(r)

	var edges []Edge
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: expected 4 tab-separated columns, got %d", lineNumber, len(fields))
		}

		e := Edge{
			Child:           fields[0],
			ChildDefinition: fields[1],
			Parent:          fields[2],
		}
		if len(fields) > 3 {
			e.ParentDefinition = fields[3]
		}
		edges = append(edges, e)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan edge list: %w", err)
	}
	return edges, nil
}

// Build assigns indices in first-seen order (child before parent within a
// row) and adds one graph edge per row.
func Build(edges []Edge) *Ontology {
	reg := NewRegistry()
	pairs := make([][2]int, len(edges))
	for i, e := range edges {
		pairs[i] = [2]int{
			reg.Add(e.Child, e.ChildDefinition),
			reg.Add(e.Parent, e.ParentDefinition),
		}
	}

	g := NewGraph(reg.Len())
	for _, p := range pairs {
		g.AddEdge(p[0], p[1])
	}

	return &Ontology{Terms: reg, Graph: g}
}
