package ontology

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/inodb/goutil/internal/textio"
)

// OBOTerm is the subset of an OBO [Term] stanza needed to derive edges.
type OBOTerm struct {
	ID        string
	Name      string
	Namespace string
	AltIDs    []string
	Obsolete  bool

	// Parents holds is_a and part_of targets in stanza order.
	Parents []string
}

// ReadOBO parses the [Term] stanzas of an OBO file.
func ReadOBO(path string) ([]OBOTerm, error) {
	r, err := textio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obo file: %w", err)
	}
	defer r.Close()

	terms, err := ParseOBO(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return terms, nil
}

// ParseOBO parses [Term] stanzas from r. Other stanza types are skipped.
func ParseOBO(r io.Reader) ([]OBOTerm, error) {
	scanner := textio.NewScanner(r)

	var terms []OBOTerm
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "[Term]" {
			terms = append(terms, parseOBOTerm(scanner))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan obo: %w", err)
	}
	return terms, nil
}

// parseOBOTerm consumes lines up to the blank line ending the stanza.
func parseOBOTerm(scanner *bufio.Scanner) OBOTerm {
	var t OBOTerm
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}

		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)

		switch key {
		case "id":
			t.ID = val
		case "name":
			t.Name = val
		case "namespace":
			t.Namespace = val
		case "alt_id":
			t.AltIDs = append(t.AltIDs, val)
		case "is_a":
			t.Parents = append(t.Parents, oboTarget(val))
		case "relationship":
			rel, target, ok := strings.Cut(val, " ")
			if ok && rel == "part_of" {
				t.Parents = append(t.Parents, oboTarget(target))
			}
		case "is_obsolete":
			t.Obsolete = val == "true"
		}
	}
	return t
}

// oboTarget strips the trailing "! name" comment and "{...}" qualifiers.
func oboTarget(val string) string {
	if i := strings.IndexAny(val, "!{"); i >= 0 {
		val = val[:i]
	}
	return strings.TrimSpace(val)
}

// EdgesFromOBO returns one edge per is_a or part_of parent of every term in
// namespace. Alternative identifiers inherit the parents of their primary
// term. Term names are used as definitions.
func EdgesFromOBO(terms []OBOTerm, namespace string) []Edge {
	names := make(map[string]string, len(terms))
	for _, t := range terms {
		names[t.ID] = t.Name
		for _, alt := range t.AltIDs {
			names[alt] = t.Name
		}
	}

	var edges []Edge
	for _, t := range terms {
		if t.Namespace != namespace {
			continue
		}
		children := append([]string{t.ID}, t.AltIDs...)
		for _, child := range children {
			for _, parent := range t.Parents {
				edges = append(edges, Edge{
					Child:            child,
					ChildDefinition:  names[child],
					Parent:           parent,
					ParentDefinition: names[parent],
				})
			}
		}
	}
	return edges
}

// WriteEdges writes edges in edge-list format.
func WriteEdges(w io.Writer, edges []Edge) error {
	bw := bufio.NewWriter(w)
	for _, e := range edges {
		if _, err := fmt.Fprintf(bw, "%s\t%s\t%s\t%s\n",
			e.Child, e.ChildDefinition, e.Parent, e.ParentDefinition); err != nil {
			return err
		}
	}
	return bw.Flush()
}
