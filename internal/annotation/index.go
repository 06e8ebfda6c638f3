// Package annotation builds term-centric gene annotation indices for a
// background population and a target subset.
package annotation

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/goutil/internal/ontology"
	"github.com/inodb/goutil/internal/textio"
)

// Population errors.
var (
	ErrEmptyBackground         = errors.New("the background set has no annotated genes")
	ErrTargetExceedsBackground = errors.New("more genes in the target than in the background")
)

// Index maps each term index to the genes directly annotated with it, in
// file order. A gene annotated twice with a term appears twice.
type Index struct {
	genes [][]string
}

// NewIndex creates an index for n terms.
func NewIndex(n int) *Index {
	return &Index{genes: make([][]string, n)}
}

// Add appends gene to the direct annotations of term.
func (ix *Index) Add(term int, gene string) {
	ix.genes[term] = append(ix.genes[term], gene)
}

// Genes returns the direct annotations of term.
func (ix *Index) Genes(term int) []string {
	return ix.genes[term]
}

// Len returns the number of terms covered by the index.
func (ix *Index) Len() int {
	return len(ix.genes)
}

// Terms returns the terms with at least one direct annotation, ascending.
func (ix *Index) Terms() []int {
	var out []int
	for i, g := range ix.genes {
		if len(g) > 0 {
			out = append(out, i)
		}
	}
	return out
}

// Annotations is the result of loading an annotation file against a
// background and target population.
type Annotations struct {
	Background *Index
	Target     *Index

	// Populations after intersection with the annotated genes.
	BackgroundPopulation GeneSet
	TargetPopulation     GeneSet

	// Annotated holds every gene that appears in the annotation file.
	Annotated GeneSet

	// UnknownTerms counts term tokens that are not in the registry.
	UnknownTerms int
}

// Validate checks the population sizes required by the enrichment test.
// An empty target is not an error.
func (a *Annotations) Validate() error {
	if a.BackgroundPopulation.Len() < 1 {
		return ErrEmptyBackground
	}
	if a.TargetPopulation.Len() > a.BackgroundPopulation.Len() {
		return fmt.Errorf("%w (%d > %d)", ErrTargetExceedsBackground,
			a.TargetPopulation.Len(), a.BackgroundPopulation.Len())
	}
	return nil
}

// Loader reads gene-centric annotation files into term-centric indices.
type Loader struct {
	terms      *ontology.Registry
	background GeneSet
	target     GeneSet
	logger     *zap.Logger
}

// NewLoader creates a loader resolving term identifiers through terms.
// Without populations every annotated gene is background and the target
// is empty.
func NewLoader(terms *ontology.Registry) *Loader {
	return &Loader{
		terms:  terms,
		logger: zap.NewNop(),
	}
}

// SetPopulations restricts the indices to background and target genes.
func (l *Loader) SetPopulations(background, target GeneSet) {
	l.background = background
	l.target = target
}

// SetLogger sets the logger for warnings about skipped terms.
func (l *Loader) SetLogger(logger *zap.Logger) {
	l.logger = logger
}

// Load reads the annotation file at path.
func (l *Loader) Load(path string) (*Annotations, error) {
	r, err := textio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open annotation file: %w", err)
	}
	defer r.Close()

	a, err := l.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// Parse reads whitespace-delimited rows of the form "gene term1 term2 ...".
// Unknown term tokens are skipped and counted.
func (l *Loader) Parse(r io.Reader) (*Annotations, error) {
	n := l.terms.Len()
	a := &Annotations{
		Background: NewIndex(n),
		Target:     NewIndex(n),
		Annotated:  make(GeneSet),
	}

	unknown := make(map[string]int)
	scanner := textio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		gene := fields[0]
		a.Annotated[gene] = struct{}{}

		if l.background != nil && !l.background.Has(gene) {
			continue
		}
		inTarget := l.target.Has(gene)

		for _, id := range fields[1:] {
			term, ok := l.terms.Index(id)
			if !ok {
				unknown[id]++
				a.UnknownTerms++
				continue
			}
			a.Background.Add(term, gene)
			if inTarget {
				a.Target.Add(term, gene)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan annotations: %w", err)
	}

	if l.background == nil {
		a.BackgroundPopulation = a.Annotated
	} else {
		a.BackgroundPopulation = l.background.Intersect(a.Annotated)
	}
	a.TargetPopulation = l.target.Intersect(a.Annotated)

	if len(unknown) > 0 {
		for id, count := range unknown {
			l.logger.Debug("skipped unknown term", zap.String("term", id), zap.Int("occurrences", count))
		}
		l.logger.Warn("annotation terms not found in the ontology were skipped",
			zap.Int("distinct_terms", len(unknown)),
			zap.Int("occurrences", a.UnknownTerms))
	}

	return a, nil
}
