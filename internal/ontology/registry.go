package ontology

import (
	"errors"
	"fmt"
)

// ErrUnknownTerm is returned when a term identifier is not in the registry.
var ErrUnknownTerm = errors.New("unknown term")

// Registry maps external term identifiers to dense indices in first-seen
// order and keeps the definition recorded at first sighting.
type Registry struct {
	index map[string]int
	ids   []string
	defs  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Add registers id if it is new and returns its index. The definition of an
// already registered term is never overwritten.
func (r *Registry) Add(id, definition string) int {
	if i, ok := r.index[id]; ok {
		return i
	}
	i := len(r.ids)
	r.index[id] = i
	r.ids = append(r.ids, id)
	r.defs = append(r.defs, definition)
	return i
}

// Index returns the index of id and whether it is registered.
func (r *Registry) Index(id string) (int, bool) {
	i, ok := r.index[id]
	return i, ok
}

// Lookup returns the index of id or an error wrapping ErrUnknownTerm.
func (r *Registry) Lookup(id string) (int, error) {
	i, ok := r.index[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTerm, id)
	}
	return i, nil
}

// ID returns the external identifier of term i.
func (r *Registry) ID(i int) string {
	return r.ids[i]
}

// Definition returns the definition of term i.
func (r *Registry) Definition(i int) string {
	return r.defs[i]
}

// Len returns the number of registered terms.
func (r *Registry) Len() int {
	return len(r.ids)
}
