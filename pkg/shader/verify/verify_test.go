package verify_test

import (
	"encoding/binary"
	"testing"

	"github.com/gogpu/naga/glsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/shadegraph/pkg/graph"
	"github.com/chazu/shadegraph/pkg/pipeline"
	"github.com/chazu/shadegraph/pkg/producer"
	"github.com/chazu/shadegraph/pkg/shader"
	"github.com/chazu/shadegraph/pkg/shader/codegen"
	"github.com/chazu/shadegraph/pkg/shader/verify"
)

const triangle = `
@vertex
fn vs_main(@location(0) pos: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(pos, 1.0);
}
`

func TestSPIRVMagic(t *testing.T) {
	out, err := verify.SPIRV(triangle)
	require.NoError(t, err)
	require.Greater(t, len(out), 20)
	assert.Equal(t, uint32(0x07230203), binary.LittleEndian.Uint32(out))
}

func TestRejectsBrokenSource(t *testing.T) {
	_, err := verify.Module("fn broken( {")
	assert.Error(t, err)
}

func TestGLSLCrossCompile(t *testing.T) {
	out, err := verify.GLSL(triangle, "vs_main", glsl.Version330)
	require.NoError(t, err)
	assert.Contains(t, out, "#version 330")
}

func wgslProgram(t *testing.T, g *graph.Graph, end graph.NodeID) *shader.Program {
	t.Helper()
	reg := producer.NewRegistry()
	gt := shader.NewGraphType(nil)
	shader.Register(reg, gt)
	types := producer.NewGraphTypes()
	types.Register(gt)
	p, err := pipeline.NewCompiler(types, reg, nil).Compile(shader.GraphTypeName, g, end)
	require.NoError(t, err)

	opts := shader.DefaultOptions()
	opts.Dialect = codegen.WGSL
	prog, err := shader.Generate(p, opts)
	require.NoError(t, err)
	return prog
}

func TestGeneratedProgramCompiles(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NewNode("c", "constant", graph.FloatData{Value: 0.5}))
	g.AddNode(graph.NewNode("s", "sin", nil))
	g.AddConnection(graph.Connect("c", "out", "s", "in"))
	prog := wgslProgram(t, g, "s")

	res, err := verify.Program(prog)
	require.NoError(t, err, "vertex:\n%s\nfragment:\n%s", prog.Vertex, prog.Fragment)
	assert.NotEmpty(t, res.Vertex)
	assert.NotEmpty(t, res.Fragment)
}

func TestTextureCoordinateSwizzleCompiles(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NewNode("v", "vector", graph.Vector(0.1, 0.2, 0.3)))
	g.AddNode(graph.NewNode("sw", "swizzle", graph.SwizzleData{Components: "ts"}))
	g.AddConnection(graph.Connect("v", "out", "sw", "in"))
	prog := wgslProgram(t, g, "sw")
	assert.Contains(t, prog.Fragment, ".yx")

	_, err := verify.Program(prog)
	require.NoError(t, err, "fragment:\n%s", prog.Fragment)
}

func TestProgramNeedsWGSL(t *testing.T) {
	_, err := verify.Program(&shader.Program{Dialect: codegen.GLSL})
	assert.ErrorContains(t, err, "want wgsl")
}
