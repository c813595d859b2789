package numeric_test

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/shadegraph/pkg/field"
	"github.com/chazu/shadegraph/pkg/graph"
	"github.com/chazu/shadegraph/pkg/numeric"
	"github.com/chazu/shadegraph/pkg/pipeline"
	"github.com/chazu/shadegraph/pkg/producer"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compiler(env producer.Env) *pipeline.Compiler {
	reg := producer.NewRegistry()
	numeric.Register(reg)
	types := producer.NewGraphTypes()
	types.Register(numeric.GraphType())
	return pipeline.NewCompiler(types, reg, env)
}

func compileAndRun(t *testing.T, g *graph.Graph, end graph.NodeID) (*pipeline.Pipeline, *numeric.Blackboard) {
	t.Helper()
	p, err := compiler(nil).Compile(numeric.GraphTypeName, g, end)
	require.NoError(t, err)
	bb, err := numeric.Run(p, nil)
	require.NoError(t, err)
	return p, bb
}

func TestConstantAddScenario(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NewNode("A", "constant", graph.FloatData{Value: 1}))
	g.AddNode(graph.NewNode("B", "add", nil))
	g.AddConnection(graph.Connect("A", "out", "B", "in1"))
	g.AddConnection(graph.Connect("A", "out", "B", "in2"))

	p, bb := compileAndRun(t, g, "B")
	assert.Equal(t, []graph.NodeID{"A", "B"}, p.Nodes())

	a, err := bb.Get("A", "out", field.Float)
	require.NoError(t, err)
	assert.Equal(t, 1.0, a)
	b, err := bb.Get("B", "out", field.Float)
	require.NoError(t, err)
	assert.Equal(t, 2.0, b)
	assert.Equal(t, []string{"A-out", "B-out"}, bb.Keys())
}

func TestEachOutputWrittenOnce(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NewNode("v", "vector", graph.Vector(1, 2, 3)))
	g.AddNode(graph.NewNode("split", "split", nil))
	g.AddNode(graph.NewNode("merge", "merge", nil))
	g.AddNode(graph.NewNode("unused", "constant", graph.FloatData{Value: 5}))
	g.AddConnection(graph.Connect("v", "out", "split", "in"))
	g.AddConnection(graph.Connect("split", "z", "merge", "x"))
	g.AddConnection(graph.Connect("split", "x", "merge", "y"))

	p, bb := compileAndRun(t, g, "merge")
	want := 0
	for _, e := range p.Entries {
		want += len(e.Outputs)
	}
	keys := bb.Keys()
	assert.Len(t, keys, want)
	seen := map[string]bool{}
	for _, k := range keys {
		assert.False(t, seen[k], "key %s written twice", k)
		seen[k] = true
	}
	assert.False(t, seen["unused-out"])

	got, err := bb.Get("merge", "out", field.Vector2)
	require.NoError(t, err)
	assert.Equal(t, v2.Vec{X: 3, Y: 1}, got)
	w, err := bb.Get("split", "w", field.Float)
	require.NoError(t, err)
	assert.Equal(t, 0.0, w)
}

func TestVectorMath(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NewNode("x", "vector", graph.Vector(1, 0, 0)))
	g.AddNode(graph.NewNode("y", "vector", graph.Vector(0, 2, 0)))
	g.AddNode(graph.NewNode("cross", "cross", nil))
	g.AddNode(graph.NewNode("len", "length", nil))
	g.AddNode(graph.NewNode("norm", "normalize", nil))
	g.AddNode(graph.NewNode("dot", "dot", nil))
	g.AddNode(graph.NewNode("half", "constant", graph.FloatData{Value: 0.5}))
	g.AddNode(graph.NewNode("scaled", "multiply", nil))
	g.AddNode(graph.NewNode("sum", "add", nil))
	g.AddConnection(graph.Connect("x", "out", "cross", "in1"))
	g.AddConnection(graph.Connect("y", "out", "cross", "in2"))
	g.AddConnection(graph.Connect("cross", "out", "len", "in"))
	g.AddConnection(graph.Connect("cross", "out", "norm", "in"))
	g.AddConnection(graph.Connect("norm", "out", "dot", "in1"))
	g.AddConnection(graph.Connect("cross", "out", "dot", "in2"))
	g.AddConnection(graph.Connect("cross", "out", "scaled", "in1"))
	g.AddConnection(graph.Connect("half", "out", "scaled", "in2"))
	g.AddConnection(graph.Connect("scaled", "out", "sum", "in1"))
	g.AddConnection(graph.Connect("dot", "out", "sum", "in2"))

	_, bb := compileAndRun(t, g, "sum")
	cross, _ := bb.Get("cross", "out", field.Vector3)
	assert.Equal(t, v3.Vec{Z: 2}, cross)
	l, _ := bb.Get("len", "out", field.Float)
	assert.InDelta(t, 2.0, l, 1e-9)
	d, _ := bb.Get("dot", "out", field.Float)
	assert.InDelta(t, 2.0, d, 1e-9)
	// (0,0,1) + 2 broadcast
	sum, err := bb.Get("sum", "out", field.Vector3)
	require.NoError(t, err)
	assert.Equal(t, v3.Vec{X: 2, Y: 2, Z: 3}, sum)
}

func TestTransformChain(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NewNode("offset", "vector", graph.Vector(1, 2, 3)))
	g.AddNode(graph.NewNode("factor", "vector", graph.Vector(2, 2, 2)))
	g.AddNode(graph.NewNode("t", "translate", nil))
	g.AddNode(graph.NewNode("s", "scale", nil))
	g.AddNode(graph.NewNode("apply", "transform", nil))
	g.AddNode(graph.NewNode("out", "output", nil))
	g.AddConnection(graph.Connect("offset", "out", "t", "in"))
	g.AddConnection(graph.Connect("factor", "out", "s", "in"))
	g.AddConnection(graph.Connect("t", "out", "apply", "matrix"))
	g.AddConnection(graph.Connect("factor", "out", "apply", "in"))
	g.AddConnection(graph.Connect("apply", "out", "out", "in"))

	p, bb := compileAndRun(t, g, "out")
	res, err := numeric.Result(p, bb)
	require.NoError(t, err)
	assert.Equal(t, sdf.Translate3d(v3.Vec{X: 1, Y: 2, Z: 3}).MulPosition(v3.Vec{X: 2, Y: 2, Z: 2}), res)
	assert.NotContains(t, p.Nodes(), graph.NodeID("s"))
}

func TestColorArithmetic(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NewNode("c", "color", graph.ColorData{R: 1, G: 0.5, B: 0, A: 1}))
	g.AddNode(graph.NewNode("k", "constant", graph.FloatData{Value: 0.5}))
	g.AddNode(graph.NewNode("m", "multiply", nil))
	g.AddConnection(graph.Connect("c", "out", "m", "in1"))
	g.AddConnection(graph.Connect("k", "out", "m", "in2"))

	_, bb := compileAndRun(t, g, "m")
	v, err := bb.Get("m", "out", field.Color)
	require.NoError(t, err)
	assert.Equal(t, field.Vec4{X: 0.5, Y: 0.25, Z: 0, W: 0.5}, v)
}

func TestSumAddsEveryConnection(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NewNode("a", "constant", graph.FloatData{Value: 1}))
	g.AddNode(graph.NewNode("b", "constant", graph.FloatData{Value: 2}))
	g.AddNode(graph.NewNode("v", "vector", graph.Vector(1, 2, 3)))
	g.AddNode(graph.NewNode("s", "sum", nil))
	g.AddConnection(graph.Connect("a", "out", "s", "in"))
	g.AddConnection(graph.Connect("b", "out", "s", "in"))
	g.AddConnection(graph.Connect("v", "out", "s", "in"))

	_, bb := compileAndRun(t, g, "s")
	v, err := bb.Get("s", "out", field.Vector3)
	require.NoError(t, err)
	assert.Equal(t, v3.Vec{X: 4, Y: 5, Z: 6}, v)
}

func TestUnaryMath(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NewNode("k", "constant", graph.FloatData{Value: -4}))
	g.AddNode(graph.NewNode("abs", "abs", nil))
	g.AddNode(graph.NewNode("sqrt", "sqrt", nil))
	g.AddNode(graph.NewNode("sin", "sin", nil))
	g.AddConnection(graph.Connect("k", "out", "abs", "in"))
	g.AddConnection(graph.Connect("abs", "out", "sqrt", "in"))
	g.AddConnection(graph.Connect("sqrt", "out", "sin", "in"))

	_, bb := compileAndRun(t, g, "sin")
	v, _ := bb.Get("sin", "out", field.Float)
	assert.InDelta(t, math.Sin(2), v, 1e-12)
}

func TestTimeUsesClockService(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NewNode("t", "time", nil))

	p, err := compiler(producer.Services{producer.ClockService: producer.FixedClock(3)}).
		Compile(numeric.GraphTypeName, g, "t")
	require.NoError(t, err)
	bb, err := numeric.Run(p, nil)
	require.NoError(t, err)
	v, _ := bb.Get("t", "out", field.Float)
	assert.Equal(t, 3.0, v)

	_, err = compiler(nil).Compile(numeric.GraphTypeName, g, "t")
	assert.ErrorContains(t, err, "clock")
}

func TestExpression(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NewNode("k", "constant", graph.FloatData{Value: 3}))
	g.AddNode(graph.NewNode("e", "expression", graph.ExpressionData{Expr: "a * a + b"}))
	g.AddConnection(graph.Connect("k", "out", "e", "a"))

	p, err := compiler(nil).Compile(numeric.GraphTypeName, g, "e", pipeline.External{Name: "b", Type: field.Float})
	require.NoError(t, err)
	bb, err := numeric.Run(p, map[graph.FieldID]any{"b": 0.5})
	require.NoError(t, err)
	v, _ := bb.Get("e", "out", field.Float)
	assert.Equal(t, 9.5, v)

	g.AddNode(graph.NewNode("e", "expression", graph.ExpressionData{Expr: "a +"}))
	_, err = compiler(nil).Compile(numeric.GraphTypeName, g, "e")
	assert.ErrorContains(t, err, "failed to parse expression")

	g.AddNode(graph.NewNode("e", "expression", graph.ExpressionData{Expr: "a > b"}))
	_, err = compiler(nil).Compile(numeric.GraphTypeName, g, "e")
	assert.ErrorContains(t, err, "want double")
}

func TestRunExternalFaults(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NewNode("add", "add", nil))

	ext := []pipeline.External{
		{Name: "in1", Type: field.Float},
		{Name: "in2", Type: field.Vector2},
	}
	p, err := compiler(nil).Compile(numeric.GraphTypeName, g, "add", ext...)
	require.NoError(t, err)

	_, err = numeric.Run(p, map[graph.FieldID]any{"in1": 1.0})
	assert.ErrorContains(t, err, `"in2" has no value`)
	_, err = numeric.Run(p, map[graph.FieldID]any{"in1": 1.0, "in2": 2.0})
	assert.ErrorContains(t, err, "is not a Vector2")

	bb, err := numeric.Run(p, map[graph.FieldID]any{"in1": 1.0, "in2": v2.Vec{X: 1, Y: 2}})
	require.NoError(t, err)
	v, _ := bb.Get("add", "out", field.Vector2)
	assert.Equal(t, v2.Vec{X: 2, Y: 3}, v)
}

func TestMismatchedSizesRefused(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NewNode("a", "vector", graph.Vector(1, 2)))
	g.AddNode(graph.NewNode("b", "vector", graph.Vector(1, 2, 3)))
	g.AddNode(graph.NewNode("add", "add", nil))
	g.AddConnection(graph.Connect("a", "out", "add", "in1"))
	g.AddConnection(graph.Connect("b", "out", "add", "in2"))

	_, err := compiler(nil).Compile(numeric.GraphTypeName, g, "add")
	var vf *pipeline.ValidationFailedError
	require.True(t, errors.As(err, &vf))
	assert.True(t, vf.Result.IsErrorNode("add"))
}

func TestBadVectorDataRefused(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NewNode("v", "vector", graph.FloatData{Value: 1}))
	_, err := compiler(nil).Compile(numeric.GraphTypeName, g, "v")
	var vf *pipeline.ValidationFailedError
	require.True(t, errors.As(err, &vf))
	assert.True(t, vf.Result.IsErrorNode("v"))
}
