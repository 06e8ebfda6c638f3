package enrich

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/goutil/internal/annotation"
	"github.com/inodb/goutil/internal/ontology"
)

func load(t *testing.T, edges, annotations string, background, target []string) (*ontology.Ontology, *annotation.Annotations) {
	t.Helper()
	e, err := ontology.ParseEdges(strings.NewReader(edges))
	require.NoError(t, err)
	ont := ontology.Build(e)

	l := annotation.NewLoader(ont.Terms)
	l.SetPopulations(annotation.NewGeneSet(background...), annotation.NewGeneSet(target...))
	ann, err := l.Parse(strings.NewReader(annotations))
	require.NoError(t, err)
	require.NoError(t, ann.Validate())
	return ont, ann
}

func TestAnalyzer_Example(t *testing.T) {
	ont, ann := load(t,
		"A\tterm A\tC\tterm C\nB\tterm B\tC\tterm C\n",
		"g1 A\ng2 B\ng3 C\n",
		[]string{"g1", "g2", "g3"}, []string{"g1"})

	res, err := NewAnalyzer(ont).Run(context.Background(), ann)
	require.NoError(t, err)

	assert.Equal(t, 1, res.TargetSize)
	assert.Equal(t, 3, res.BackgroundSize)
	require.Len(t, res.Terms, 2, "A and its ancestor C have target frequency 1")

	a := res.Terms[0]
	assert.Equal(t, "A", a.ID)
	assert.Equal(t, "term A", a.Definition)
	assert.Equal(t, 1, a.TargetFreq)
	assert.Equal(t, 1, a.BackgroundFreq)
	assert.InDelta(t, 1.0/3.0, a.PValue, 1e-12)
	assert.InDelta(t, 2.0/3.0, a.AdjustedP, 1e-12)
	assert.InDelta(t, 3.0, a.EnrichmentFactor, 1e-12)
	assert.Equal(t, []string{"g1"}, a.Genes)
	assert.False(t, a.Fallback)

	// C: every background gene is annotated, so x=0 lies below the support.
	c := res.Terms[1]
	assert.Equal(t, "C", c.ID)
	assert.Equal(t, 3, c.BackgroundFreq)
	assert.True(t, c.Fallback)
	assert.Equal(t, 1.0, c.PValue)
	assert.Equal(t, 1.0, c.EnrichmentFactor)
	assert.Equal(t, 1.0, c.AdjustedP)

	sig := res.Significant(0.7)
	require.Len(t, sig, 1)
	assert.Equal(t, "A", sig[0].ID)
}

func TestAnalyzer_Properties(t *testing.T) {
	edges := "a1\t\ta\t\n" +
		"a2\t\ta\t\n" +
		"b1\t\tb\t\n" +
		"b2\t\tb\t\n" +
		"a\t\troot\t\n" +
		"b\t\troot\t\n"
	var sb strings.Builder
	var background, target []string
	terms := []string{"a1", "a2", "b1", "b2"}
	for i := 0; i < 40; i++ {
		gene := "g" + string(rune('A'+i%26)) + string(rune('a'+i/26))
		background = append(background, gene)
		term := terms[i%4]
		if i < 12 {
			term = "a1"
			target = append(target, gene)
		}
		sb.WriteString(gene + " " + term + "\n")
	}

	ont, ann := load(t, edges, sb.String(), background, target)
	an := NewAnalyzer(ont)
	an.SetWorkers(3)
	res, err := an.Run(context.Background(), ann)
	require.NoError(t, err)
	require.NotEmpty(t, res.Terms)

	prev := 0.0
	for _, term := range res.Terms {
		assert.GreaterOrEqual(t, term.AdjustedP, term.PValue)
		assert.LessOrEqual(t, term.AdjustedP, 1.0)
		assert.GreaterOrEqual(t, term.AdjustedP, prev)
		assert.Len(t, term.Genes, term.TargetFreq)
		prev = term.AdjustedP
	}

	assert.Equal(t, "a1", res.Terms[0].ID, "a1 holds the whole target")
	assert.Less(t, res.Terms[0].PValue, 1e-4)
}

func TestAnalyzer_EmptyTarget(t *testing.T) {
	ont, ann := load(t,
		"A\t\tC\t\n",
		"g1 A\ng2 C\n",
		[]string{"g1", "g2"}, nil)

	res, err := NewAnalyzer(ont).Run(context.Background(), ann)
	require.NoError(t, err)
	assert.Empty(t, res.Terms)
	assert.Empty(t, res.Significant(1))
}
