package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	viper.Reset()
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

type enrichInputs struct {
	edges, annotations, background, target string
}

func exampleInputs(t *testing.T, dir string) enrichInputs {
	return enrichInputs{
		edges:       writeFile(t, dir, "go.edges", "A\tterm A\tC\tterm C\nB\tterm B\tC\tterm C\n"),
		annotations: writeFile(t, dir, "genes.annot", "g1 A\ng2 B\ng3 C\n"),
		background:  writeFile(t, dir, "background.txt", "g1\ng2\ng3\n"),
		target:      writeFile(t, dir, "target.txt", "g1\n"),
	}
}

func TestRun_NoCommand(t *testing.T) {
	code, _, stderr := execute(t)
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "Usage:")
}

func TestRun_UnknownCommand(t *testing.T) {
	code, _, _ := execute(t, "annotate")
	assert.Equal(t, ExitUsage, code)
}

func TestRun_UnknownFlag(t *testing.T) {
	code, _, _ := execute(t, "enrich", "--bogus")
	assert.Equal(t, ExitUsage, code)
}

func TestVersion(t *testing.T) {
	code, stdout, _ := execute(t, "version")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "goutil version dev")
}

func TestEnrich_Example(t *testing.T) {
	dir := t.TempDir()
	in := exampleInputs(t, dir)
	out := filepath.Join(dir, "enriched.tsv")

	code, _, stderr := execute(t, "enrich",
		"-e", in.edges, "-a", in.annotations, "-b", in.background, "-t", in.target,
		"-o", out, "-p", "0.7")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "A\tterm A\t6.666667e-01\t3.000000e+00\tg1\n", readFile(t, out))
}

func TestEnrich_ThresholdOne(t *testing.T) {
	dir := t.TempDir()
	in := exampleInputs(t, dir)

	code, stdout, stderr := execute(t, "enrich",
		"-e", in.edges, "-a", in.annotations, "-b", in.background, "-t", in.target,
		"-o", "-", "-p", "1")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t,
		"A\tterm A\t6.666667e-01\t3.000000e+00\tg1\n"+
			"C\tterm C\t1.000000e+00\t1.000000e+00\tg1\n", stdout)
}

func TestEnrich_MissingFlags(t *testing.T) {
	dir := t.TempDir()
	in := exampleInputs(t, dir)
	out := filepath.Join(dir, "enriched.tsv")

	code, _, stderr := execute(t, "enrich", "-e", in.edges, "-a", in.annotations, "-o", out, "-p", "0.05")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "--background")
	assert.Contains(t, stderr, "--target")
	assert.NoFileExists(t, out)

	code, _, stderr = execute(t, "enrich",
		"-e", in.edges, "-a", in.annotations, "-b", in.background, "-t", in.target, "-o", out)
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "--threshold")
}

func TestEnrich_ThresholdOutOfRange(t *testing.T) {
	dir := t.TempDir()
	in := exampleInputs(t, dir)

	code, _, _ := execute(t, "enrich",
		"-e", in.edges, "-a", in.annotations, "-b", in.background, "-t", in.target,
		"-o", "-", "-p", "1.5")
	assert.Equal(t, ExitUsage, code)
}

func TestEnrich_TargetExceedsBackground(t *testing.T) {
	dir := t.TempDir()
	in := exampleInputs(t, dir)
	in.background = writeFile(t, dir, "small.txt", "g1\n")
	in.target = writeFile(t, dir, "big.txt", "g1\ng2\n")
	out := filepath.Join(dir, "enriched.tsv")

	code, _, stderr := execute(t, "enrich",
		"-e", in.edges, "-a", in.annotations, "-b", in.background, "-t", in.target,
		"-o", out, "-p", "0.05")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "target")
	assert.NoFileExists(t, out)
}

func TestEnrich_EmptyTargetWarns(t *testing.T) {
	dir := t.TempDir()
	in := exampleInputs(t, dir)
	in.target = writeFile(t, dir, "none.txt", "unannotated\n")
	out := filepath.Join(dir, "enriched.tsv")

	code, _, stderr := execute(t, "enrich",
		"-e", in.edges, "-a", in.annotations, "-b", in.background, "-t", in.target,
		"-o", out, "-p", "0.05")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stderr, "no target gene is annotated")
	assert.Empty(t, readFile(t, out))
}

func TestEnrich_MissingFile(t *testing.T) {
	dir := t.TempDir()
	in := exampleInputs(t, dir)

	code, _, stderr := execute(t, "enrich",
		"-e", filepath.Join(dir, "missing.edges"), "-a", in.annotations, "-b", in.background, "-t", in.target,
		"-o", "-", "-p", "0.05")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "Hint")
}

// diamond: leaf -> a, b -> root; IC(leaf)=log10(4), IC(a)=IC(b)=log10(2).
func diamondInputs(t *testing.T, dir string) (edges, annotations string) {
	edges = writeFile(t, dir, "diamond.edges",
		"leaf\t\ta\t\nleaf\t\tb\t\na\t\troot\t\nb\t\troot\t\n")
	annotations = writeFile(t, dir, "diamond.annot", "g1 leaf\ng2 a\ng3 b\ng4 root\n")
	return edges, annotations
}

func TestSemsim_Batch(t *testing.T) {
	dir := t.TempDir()
	edges, annotations := diamondInputs(t, dir)
	out := filepath.Join(dir, "sim.tsv")

	code, _, stderr := execute(t, "semsim", "-e", edges, "-a", annotations, "-m", "Resnik", "-o", out)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "leaf\ta\t3.010300e-01\nleaf\tb\t3.010300e-01\n", readFile(t, out))
}

func TestSemsim_Subset(t *testing.T) {
	dir := t.TempDir()
	edges, annotations := diamondInputs(t, dir)
	subset := writeFile(t, dir, "subset.tsv", "b\tdefinition\t1e-3\nleaf\nunknown\n")

	code, stdout, stderr := execute(t, "semsim",
		"-e", edges, "-a", annotations, "-m", "Lin", "-f", subset, "-o", "-", "--workers", "2")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "leaf\tb\t6.666667e-01\n", stdout)
	assert.Contains(t, stderr, "subset terms not found")
}

func TestSemsim_SubsetCountsOnlySubsetClosure(t *testing.T) {
	dir := t.TempDir()
	edges, annotations := diamondInputs(t, dir)
	subset := writeFile(t, dir, "subset.tsv", "a\nleaf\n")

	code, stdout, stderr := execute(t, "semsim", "--log-level", "debug",
		"-e", edges, "-a", annotations, "-m", "Resnik", "-f", subset, "-o", "-")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "leaf\ta\t3.010300e-01\n", stdout)
	assert.Contains(t, stderr, `"seeds": 2`)
}

func TestSemsim_EmptyAnnotations(t *testing.T) {
	dir := t.TempDir()
	edges, _ := diamondInputs(t, dir)
	empty := writeFile(t, dir, "empty.annot", "")
	out := filepath.Join(dir, "sim.tsv")

	code, _, stderr := execute(t, "semsim", "-e", edges, "-a", empty, "-m", "Lin", "-o", out)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "", readFile(t, out))
	assert.Contains(t, stderr, "annotation file has no genes")
	assert.NotContains(t, stderr, "background")
}

func TestSemsim_UnknownMetric(t *testing.T) {
	dir := t.TempDir()
	edges, annotations := diamondInputs(t, dir)
	out := filepath.Join(dir, "sim.tsv")

	code, _, stderr := execute(t, "semsim", "-e", edges, "-a", annotations, "-m", "Jaccard", "-o", out)
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "Resnik, Lin")
	assert.NoFileExists(t, out)
}

func TestStoreAndHistory(t *testing.T) {
	dir := t.TempDir()
	in := exampleInputs(t, dir)
	db := filepath.Join(dir, "runs.duckdb")
	edges, annotations := diamondInputs(t, dir)

	code, _, stderr := execute(t, "enrich", "--store", db,
		"-e", in.edges, "-a", in.annotations, "-b", in.background, "-t", in.target,
		"-o", filepath.Join(dir, "enriched.tsv"), "-p", "0.7")
	require.Equal(t, ExitSuccess, code, stderr)

	code, _, stderr = execute(t, "semsim", "--store", db,
		"-e", edges, "-a", annotations, "-m", "Resnik", "-o", filepath.Join(dir, "sim.tsv"))
	require.Equal(t, ExitSuccess, code, stderr)

	code, stdout, stderr := execute(t, "history", "--store", db)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "enrich")
	assert.Contains(t, stdout, "semsim")
	assert.Contains(t, stdout, "threshold=0.7")
	assert.Contains(t, stdout, "metric=Resnik")

	code, stdout, _ = execute(t, "history", "--store", db, "--run", "1")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "A\tterm A\t6.666667e-01\t3.000000e+00\tg1\n", stdout)

	code, stdout, _ = execute(t, "history", "--store", db, "--similar", "a")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "a\tleaf\t3.010300e-01\t2\n", stdout)
}

func TestHistory_NoStore(t *testing.T) {
	code, _, stderr := execute(t, "history")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "no store configured")
}

func TestCacheDir(t *testing.T) {
	dir := t.TempDir()
	in := exampleInputs(t, dir)
	cacheDir := filepath.Join(dir, "cache")

	for i := 0; i < 2; i++ {
		code, stdout, stderr := execute(t, "enrich", "--cache-dir", cacheDir, "--log-level", "debug",
			"-e", in.edges, "-a", in.annotations, "-b", in.background, "-t", in.target,
			"-o", "-", "-p", "0.7")
		require.Equal(t, ExitSuccess, code, stderr)
		assert.Equal(t, "A\tterm A\t6.666667e-01\t3.000000e+00\tg1\n", stdout)
		if i == 1 {
			assert.Contains(t, stderr, "ontology cache hit")
		}
	}
	matches, err := filepath.Glob(filepath.Join(cacheDir, "go.edges-*.gob"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestInvalidLogLevel(t *testing.T) {
	code, _, _ := execute(t, "version", "--log-level", "loud")
	assert.Equal(t, ExitUsage, code)
}

const oboFixture = `format-version: 1.2

[Term]
id: GO:0000001
name: child
namespace: biological_process
alt_id: GO:0000009
is_a: GO:0000002 ! parent

[Term]
id: GO:0000002
name: parent
namespace: biological_process

[Term]
id: GO:0000003
name: other
namespace: molecular_function
is_a: GO:0000004
`

func TestEdgelist(t *testing.T) {
	dir := t.TempDir()
	obo := writeFile(t, dir, "go.obo", oboFixture)
	out := filepath.Join(dir, "bp.edges")

	code, _, stderr := execute(t, "edgelist", obo, "biological_process", out)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t,
		"GO:0000001\tchild\tGO:0000002\tparent\n"+
			"GO:0000009\tchild\tGO:0000002\tparent\n", readFile(t, out))

	code, _, _ = execute(t, "edgelist", obo, "biological_process")
	assert.Equal(t, ExitUsage, code)
}

const gafFixture = "!gaf-version: 2.2\n" +
	"UniProtKB\tP1\tTP53\t\tGO:1\tPMID:1\tIDA\t\tP\tname\t\tprotein\ttaxon:9606\t20200101\tUniProt\n" +
	"UniProtKB\tP1\tTP53\t\tGO:2\tPMID:1\tIEA\t\tP\tname\t\tprotein\ttaxon:9606\t20200101\tUniProt\n" +
	"UniProtKB\tP2\tBAX\tNOT\tGO:1\tPMID:1\tIDA\t\tP\tname\t\tprotein\ttaxon:9606\t20200101\tUniProt\n" +
	"UniProtKB\tP2\tBAX\t\tGO:3\tPMID:1\tIDA\t\tF\tname\t\tprotein\ttaxon:9606\t20200101\tUniProt\n" +
	"UniProtKB\tP2\tBAX\t\tGO:1\tPMID:1\tIMP\t\tP\tname\t\tprotein\ttaxon:9606\t20200101\tUniProt\n"

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	gaf := writeFile(t, dir, "test.gaf", gafFixture)
	out := filepath.Join(dir, "bp.annot")
	terms := filepath.Join(dir, "bp.terms")

	code, _, stderr := execute(t, "extract", gaf, "P", "IEA,ND", "symbol", out, "--term-centric", terms)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "TP53\tGO:1\nBAX\tGO:1\n", readFile(t, out))
	assert.Equal(t, "GO:1\tTP53\tBAX\n", readFile(t, terms))
}

func TestExtract_BadArguments(t *testing.T) {
	dir := t.TempDir()
	gaf := writeFile(t, dir, "test.gaf", gafFixture)

	code, _, _ := execute(t, "extract", gaf, "X", "IEA", "symbol", "-")
	assert.Equal(t, ExitUsage, code)

	code, _, _ = execute(t, "extract", gaf, "P", "IEA", "name", "-")
	assert.Equal(t, ExitUsage, code)
}

func TestConfigSetGet(t *testing.T) {
	viper.Reset()
	home := t.TempDir()
	t.Setenv("HOME", home)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"config", "set", "workers", "3"}, &stdout, &stderr)
	require.Equal(t, ExitSuccess, code, stderr.String())
	assert.FileExists(t, filepath.Join(home, ".goutil.yaml"))

	viper.Reset()
	stdout.Reset()
	code = run(context.Background(), []string{"config", "get", "workers"}, &stdout, &stderr)
	require.Equal(t, ExitSuccess, code, stderr.String())
	assert.Equal(t, "3\n", stdout.String())
}
