package command_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/shadegraph/cmd/shadegraph/internal/command"
	"github.com/chazu/shadegraph/pkg/loader"
)

const sinProgram = `
(def c (node "c" "constant" :value 0.5))
(def s (node "s" "sin"))
(connect c :out s :in)
(end s)
`

const addDocument = `
graphType: render-pipeline
nodes:
  - {id: A, type: constant, value: 1}
  - {id: B, type: add}
connections:
  - {from: A.out, to: B.in1}
  - {from: A.out, to: B.in2}
end: B
`

// run executes the CLI with args and returns what it printed.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	root := command.NewRootCommand(command.NewCLI())
	root.SetArgs(append([]string{"--no-color"}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(out)
	root.SetErr(new(bytes.Buffer))
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// smallPreviews writes a config that tessellates previews coarsely.
func smallPreviews(t *testing.T, dir string, extra string) string {
	t.Helper()
	return writeFile(t, dir, "config.yaml", "preview:\n  cells: 16\n"+extra)
}

func TestCompileWritesStages(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "sin.sg", sinProgram)
	outDir := filepath.Join(dir, "out")

	out, err := run(t, "", "compile", "-d", outDir, src)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+src)

	frag, err := os.ReadFile(filepath.Join(outDir, "sin.frag"))
	require.NoError(t, err)
	assert.Contains(t, string(frag), "#version 330 core")
	assert.Contains(t, string(frag), "sin(0.5)")
	assert.FileExists(t, filepath.Join(outDir, "sin.vert"))
}

func TestCompileWGSLWithMesh(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "sin.sg", sinProgram)
	cfg := smallPreviews(t, dir, "")

	_, err := run(t, "", "--config", cfg, "compile", "--dialect", "wgsl", "--verify", "--mesh", "box", src)
	require.NoError(t, err)

	frag, err := os.ReadFile(filepath.Join(dir, "sin.frag.wgsl"))
	require.NoError(t, err)
	assert.Contains(t, string(frag), "@fragment")
	assert.FileExists(t, filepath.Join(dir, "sin.vert.wgsl"))

	mesh, err := os.ReadFile(filepath.Join(dir, "sin.mesh.bin"))
	require.NoError(t, err)
	assert.NotEmpty(t, mesh)
	assert.Zero(t, len(mesh)%4)
}

func TestCompileDirectoryReportsFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.sg", sinProgram)
	writeFile(t, dir, "bad.sg", `(end (node "s" "sin"))`)
	writeFile(t, dir, "doc.yaml", `
graphType: shader
nodes:
  - {id: c, type: color, value: [1, 0, 0]}
  - {id: o, type: output}
connections:
  - {from: c.out, to: o.color}
end: o
`)

	out, err := run(t, "", "compile", "-j", "2", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3")
	assert.Contains(t, out, "✗ "+filepath.Join(dir, "bad.sg"))
	assert.Contains(t, out, "✓ "+filepath.Join(dir, "good.sg"))
	assert.FileExists(t, filepath.Join(dir, "good.frag"))
	assert.NoFileExists(t, filepath.Join(dir, "bad.frag"))
}

func TestCompileRejectsUnknownDialect(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "sin.sg", sinProgram)
	_, err := run(t, "", "compile", "--dialect", "hlsl", src)
	assert.ErrorContains(t, err, "unknown shader dialect")
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.sg", sinProgram)
	bad := writeFile(t, dir, "bad.sg", `(end (node "s" "sin"))`)

	out, err := run(t, "", "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+good)

	out, err = run(t, "", "validate", good, bad)
	require.Error(t, err)
	assert.Contains(t, out, "✗ "+bad)
	assert.Contains(t, out, "error: node s:")
	assert.Contains(t, out, "Validated 2 file(s), 1 with errors")
}

func TestEval(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "add.yaml", addDocument)

	out, err := run(t, "", "eval", doc)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	ext := writeFile(t, dir, "ext.sg", `
(external :in "Float")
(end (node "s" "sin"))
`)
	out, err = run(t, "", "eval", "--param", "in=0", ext)
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)

	_, err = run(t, "", "eval", "--param", "other=1", ext)
	assert.ErrorContains(t, err, "no such external input")

	_, err = run(t, "", "eval", ext)
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "sin.sg", sinProgram)

	out, err := run(t, "", "export", "--graph-type", "shader", src)
	require.NoError(t, err)
	assert.Contains(t, out, "graphType: shader")
	assert.Contains(t, out, "end: s")

	doc, err := loader.Parse([]byte(out))
	require.NoError(t, err)
	assert.Len(t, doc.Nodes, 2)
	assert.Equal(t, []loader.ConnectionSpec{{From: "c.out", To: "s.in"}}, doc.Connections)

	out, err = run(t, "", "export", "--json", src)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &raw))
	assert.Equal(t, "s", raw["end"])
}

func TestNodes(t *testing.T) {
	out, err := run(t, "", "nodes")
	require.NoError(t, err)
	assert.Contains(t, out, "Node types of shader:")
	assert.Contains(t, out, "sin")
	assert.Contains(t, out, "in  in (required)")

	out, err = run(t, "", "nodes", "--graph-type", "render-pipeline")
	require.NoError(t, err)
	assert.Contains(t, out, "Node types of render-pipeline:")

	_, err = run(t, "", "nodes", "--graph-type", "unknown")
	assert.Error(t, err)
}

func TestPreviewFromStdin(t *testing.T) {
	dir := t.TempDir()
	cfg := smallPreviews(t, dir, "")

	out, err := run(t, sinProgram, "--config", cfg, "preview", "--shape", "sphere")
	require.NoError(t, err)

	var result command.EvalResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.NotNil(t, result.Program)
	assert.Contains(t, result.Program.Fragment, "sin(0.5)")
	require.NotNil(t, result.Mesh)
	assert.Equal(t, "sphere", result.Mesh.Shape)

	out, err = run(t, `(end (node "s" "sin"))`, "preview")
	require.Error(t, err)
	var failed command.EvalResult
	require.NoError(t, json.Unmarshal([]byte(out), &failed))
	assert.Nil(t, failed.Program)
	assert.NotEmpty(t, failed.Errors)
}

func TestBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", "dialect: glsl\nunknown: 1\n")
	_, err := run(t, "", "--config", cfg, "nodes")
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestExamples(t *testing.T) {
	examples := filepath.Join("..", "..", "..", "..", "examples")
	dir := t.TempDir()
	cfg := smallPreviews(t, dir, "")

	var shaders []string
	for _, name := range []string{"pulse.sg", "stripes.sg", "textured.yaml"} {
		shaders = append(shaders, filepath.Join(examples, name))
	}
	args := append([]string{"--config", cfg, "compile", "--mesh", "sphere", "-d", dir}, shaders...)
	_, err := run(t, "", args...)
	require.NoError(t, err)
	for _, name := range []string{"pulse", "stripes", "textured"} {
		assert.FileExists(t, filepath.Join(dir, name+".frag"))
		assert.FileExists(t, filepath.Join(dir, name+".mesh.bin"))
	}

	out, err := run(t, "", "eval", filepath.Join(examples, "add.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "3.5\n", out)
}
