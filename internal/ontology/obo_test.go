package ontology

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOBO = `format-version: 1.2
ontology: go

[Term]
id: GO:0000001
name: mitochondrion inheritance
namespace: biological_process
alt_id: GO:0000999
is_a: GO:0048308 ! organelle inheritance
relationship: part_of GO:0007005 ! mitochondrion organization

[Term]
id: GO:0048308
name: organelle inheritance
namespace: biological_process

[Term]
id: GO:0007005
name: mitochondrion organization
namespace: biological_process
relationship: has_part GO:0000001 ! ignored

[Term]
id: GO:0005575
name: cellular_component
namespace: cellular_component
is_a: GO:0048308 {source="x"} ! wrong namespace

[Typedef]
id: part_of
name: part of
`

func TestParseOBO(t *testing.T) {
	terms, err := ParseOBO(strings.NewReader(testOBO))
	require.NoError(t, err)
	require.Len(t, terms, 4)

	first := terms[0]
	assert.Equal(t, "GO:0000001", first.ID)
	assert.Equal(t, "mitochondrion inheritance", first.Name)
	assert.Equal(t, []string{"GO:0000999"}, first.AltIDs)
	assert.Equal(t, []string{"GO:0048308", "GO:0007005"}, first.Parents)

	assert.Empty(t, terms[2].Parents, "has_part is not a parent relation")
	assert.Equal(t, []string{"GO:0048308"}, terms[3].Parents)
}

func TestEdgesFromOBO(t *testing.T) {
	terms, err := ParseOBO(strings.NewReader(testOBO))
	require.NoError(t, err)

	edges := EdgesFromOBO(terms, "biological_process")
	require.Len(t, edges, 4)

	assert.Equal(t, Edge{
		Child: "GO:0000001", ChildDefinition: "mitochondrion inheritance",
		Parent: "GO:0048308", ParentDefinition: "organelle inheritance",
	}, edges[0])
	assert.Equal(t, "GO:0007005", edges[1].Parent)
	assert.Equal(t, "GO:0000999", edges[2].Child)
	assert.Equal(t, "mitochondrion inheritance", edges[2].ChildDefinition)

	assert.Empty(t, EdgesFromOBO(terms, "molecular_function"))
}

func TestWriteEdges_RoundTrip(t *testing.T) {
	terms, err := ParseOBO(strings.NewReader(testOBO))
	require.NoError(t, err)
	edges := EdgesFromOBO(terms, "biological_process")

	var buf bytes.Buffer
	require.NoError(t, WriteEdges(&buf, edges))

	parsed, err := ParseEdges(&buf)
	require.NoError(t, err)
	assert.Equal(t, edges, parsed)
}
