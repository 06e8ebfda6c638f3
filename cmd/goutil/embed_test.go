package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two groups of three terms, similar within and unrelated across.
const groupedSimilarities = "A\tB\t9.000000e-01\nA\tC\t9.000000e-01\nB\tC\t9.000000e-01\n" +
	"D\tE\t9.000000e-01\nD\tF\t9.000000e-01\nE\tF\t9.000000e-01\n"

func column(t *testing.T, content string, col int) []string {
	t.Helper()
	var out []string
	for _, line := range strings.Split(strings.TrimSuffix(content, "\n"), "\n") {
		fields := strings.Split(line, "\t")
		require.Greater(t, len(fields), col, line)
		out = append(out, fields[col])
	}
	return out
}

func TestMDS(t *testing.T) {
	dir := t.TempDir()
	sim := writeFile(t, dir, "sim.tsv", groupedSimilarities)

	code, stdout, stderr := execute(t, "mds", sim, "-")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F"}, column(t, stdout, 0))
	for _, x := range column(t, stdout, 1) {
		assert.Regexp(t, `^-?\d+\.\d{3}$`, x)
	}

	code, _, _ = execute(t, "mds", sim)
	assert.Equal(t, ExitUsage, code)
}

func TestMDS_RejectsResnikScores(t *testing.T) {
	dir := t.TempDir()
	sim := writeFile(t, dir, "sim.tsv", "A\tB\t1.204120e+00\n")

	code, _, stderr := execute(t, "mds", sim, "-")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "Lin")
}

func TestCluster_FromSimilarities(t *testing.T) {
	dir := t.TempDir()
	sim := writeFile(t, dir, "sim.tsv", groupedSimilarities)
	out := filepath.Join(dir, "clusters.tsv")
	coords := filepath.Join(dir, "coords.tsv")

	code, _, stderr := execute(t, "cluster", "--similarities", sim, out, "2", "--coordinates", coords)
	require.Equal(t, ExitSuccess, code, stderr)

	got := readFile(t, out)
	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F"}, column(t, got, 0))
	assert.Equal(t, []string{"0", "0", "0", "1", "1", "1"}, column(t, got, 1))
	assert.Equal(t, 2, strings.Count(got, "\ttrue\n"))
	assert.Len(t, column(t, readFile(t, coords), 0), 6)
}

func TestCluster_FromCoordinates(t *testing.T) {
	dir := t.TempDir()
	coords := writeFile(t, dir, "coords.tsv",
		"a1\t0.000\t0.000\nb1\t5.000\t5.000\na2\t0.100\t0.000\n"+
			"b2\t5.100\t5.000\na3\t0.000\t0.100\nb3\t5.000\t5.100\n")

	code, stdout, stderr := execute(t, "cluster", coords, "-", "2")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t,
		"a1\t0\ttrue\nb1\t1\ttrue\na2\t0\tfalse\nb2\t1\tfalse\na3\t0\tfalse\nb3\t1\tfalse\n",
		stdout)
}

func TestCluster_BadArguments(t *testing.T) {
	dir := t.TempDir()
	sim := writeFile(t, dir, "sim.tsv", groupedSimilarities)
	out := filepath.Join(dir, "clusters.tsv")

	code, _, stderr := execute(t, "cluster", "--similarities", sim, out, "many")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "positive integer")

	code, _, _ = execute(t, "cluster", "--similarities", sim, out, "0")
	assert.Equal(t, ExitUsage, code)

	code, _, _ = execute(t, "cluster", "--similarities", sim, out, "2", "--alpha", "0")
	assert.Equal(t, ExitUsage, code)

	code, _, _ = execute(t, "cluster", sim, out, "2", "--coordinates", filepath.Join(dir, "c.tsv"))
	assert.Equal(t, ExitUsage, code)
	assert.NoFileExists(t, out)

	code, _, stderr = execute(t, "cluster", "--similarities", sim, out, "7")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "7 clusters for 6 terms")
	assert.NoFileExists(t, out)
}

// semsim output feeds the embedding directly.
func TestSemsimToClusters(t *testing.T) {
	dir := t.TempDir()
	edges, annotations := diamondInputs(t, dir)
	sim := filepath.Join(dir, "sim.tsv")
	out := filepath.Join(dir, "clusters.tsv")

	code, _, stderr := execute(t, "semsim", "-e", edges, "-a", annotations, "-m", "Lin", "-o", sim)
	require.Equal(t, ExitSuccess, code, stderr)

	code, _, stderr = execute(t, "cluster", "--similarities", sim, out, "1")
	require.Equal(t, ExitSuccess, code, stderr)
	got := readFile(t, out)
	assert.Equal(t, []string{"leaf", "a", "b"}, column(t, got, 0))
	assert.Equal(t, []string{"0", "0", "0"}, column(t, got, 1))
	assert.Equal(t, 1, strings.Count(got, "\ttrue\n"))
}
