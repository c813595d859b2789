package pipeline

import (
	"errors"
	"slices"
	"testing"

	"github.com/chazu/shadegraph/pkg/field"
	"github.com/chazu/shadegraph/pkg/graph"
	"github.com/chazu/shadegraph/pkg/producer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Fixtures: a tiny float-only back end whose steps are their node IDs.
// ---------------------------------------------------------------------------

var testKind = producer.NewKind("test graph", nil)

func nodeStep(req producer.Request) (producer.Step, error) { return req.Node.ID, nil }

func testCompiler() *Compiler {
	reg := producer.NewRegistry()
	reg.Register(testKind,
		producer.Definition{
			Name: "constant",
			Config: producer.Configuration{Outputs: []producer.OutputDef{
				{ID: "out", Types: []field.FieldType{field.Float}},
			}},
			Create: nodeStep,
		},
		producer.Definition{
			Name: "add",
			Config: producer.Configuration{
				Inputs: []producer.InputDef{
					{ID: "in1", Required: true, Accepts: producer.AcceptsNumeric},
					{ID: "in2", Required: true, Accepts: producer.AcceptsNumeric},
				},
				Outputs: []producer.OutputDef{
					{ID: "out", Types: producer.NumericTypes(), Resolve: producer.Arithmetic("in1", "in2")},
				},
			},
			Create: nodeStep,
		},
		producer.Definition{
			Name: "broken",
			Config: producer.Configuration{Outputs: []producer.OutputDef{
				{ID: "out", Types: []field.FieldType{field.Float}},
			}},
			Create: func(producer.Request) (producer.Step, error) { return nil, errors.New("boom") },
		},
	)
	types := producer.NewGraphTypes()
	types.Register(
		producer.BasicGraphType{TypeName: "test", GraphKind: testKind},
		permissive{},
	)
	return NewCompiler(types, reg, nil)
}

// permissive skips validation so compiler-side checks can be observed.
type permissive struct{}

func (permissive) Name() string                             { return "permissive" }
func (permissive) Kind() *producer.Kind                     { return testKind }
func (permissive) Validator(producer.Scope) graph.Validator { return graph.Serial{} }

// diamond builds k1, k2 -> sum1 -> sum2 <- k1, plus an unconnected island and
// a node downstream of the end.
func diamond() *graph.Graph {
	g := graph.New()
	g.AddNode(graph.NewNode("after", "add", nil))
	g.AddNode(graph.NewNode("sum2", "add", nil))
	g.AddNode(graph.NewNode("sum1", "add", nil))
	g.AddNode(graph.NewNode("k1", "constant", graph.FloatData{Value: 1}))
	g.AddNode(graph.NewNode("k2", "constant", graph.FloatData{Value: 2}))
	g.AddNode(graph.NewNode("island", "constant", graph.FloatData{Value: 9}))
	g.AddConnection(graph.Connect("k1", "out", "sum1", "in1"))
	g.AddConnection(graph.Connect("k2", "out", "sum1", "in2"))
	g.AddConnection(graph.Connect("sum1", "out", "sum2", "in1"))
	g.AddConnection(graph.Connect("k1", "out", "sum2", "in2"))
	g.AddConnection(graph.Connect("sum2", "out", "after", "in1"))
	g.AddConnection(graph.Connect("sum2", "out", "after", "in2"))
	return g
}

// ---------------------------------------------------------------------------
// Compilation
// ---------------------------------------------------------------------------

func TestCompileDeadNodeElimination(t *testing.T) {
	p, err := testCompiler().Compile("test", diamond(), "sum2")
	require.NoError(t, err)

	nodes := p.Nodes()
	assert.ElementsMatch(t, []graph.NodeID{"k1", "k2", "sum1", "sum2"}, nodes)
	assert.NotContains(t, nodes, graph.NodeID("island"))
	assert.NotContains(t, nodes, graph.NodeID("after"))
	assert.Equal(t, graph.NodeID("sum2"), nodes[len(nodes)-1])
	assert.Len(t, p.Steps(), 4)
}

func TestCompileTopologicalOrder(t *testing.T) {
	p, err := testCompiler().Compile("test", diamond(), "sum2")
	require.NoError(t, err)

	nodes := p.Nodes()
	for i, e := range p.Entries {
		for _, in := range e.Inputs {
			for _, src := range in.Sources {
				j := slices.Index(nodes, src.Node)
				assert.True(t, j >= 0 && j < i, "%s consumed by %s before it runs", src.Node, e.Node.ID)
			}
		}
	}
}

func TestCompileIsIdempotent(t *testing.T) {
	c := testCompiler()
	g := diamond()
	first, err := c.Compile("test", g, "sum2")
	require.NoError(t, err)
	second, err := c.Compile("test", g, "sum2")
	require.NoError(t, err)
	assert.Equal(t, first.Nodes(), second.Nodes())
	assert.Equal(t, first.Steps(), second.Steps())
}

func TestCompileResolvesWiring(t *testing.T) {
	p, err := testCompiler().Compile("test", diamond(), "sum2")
	require.NoError(t, err)

	e, ok := p.Entry("sum2")
	require.True(t, ok)
	in1 := e.Inputs["in1"]
	require.Len(t, in1.Sources, 1)
	assert.Equal(t, graph.NodeID("sum1"), in1.Sources[0].Node)
	assert.True(t, field.Same(field.Float, in1.Type()))
	assert.True(t, field.Same(field.Float, e.Outputs["out"].Type))
}

func TestCompileMissingRequiredInput(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NewNode("k", "constant", nil))
	g.AddNode(graph.NewNode("add", "add", nil))
	g.AddConnection(graph.Connect("k", "out", "add", "in1"))

	_, err := testCompiler().Compile("test", g, "add")
	var vf *ValidationFailedError
	require.True(t, errors.As(err, &vf), "got %v", err)
	assert.Contains(t, vf.Result.ErrorNodes(), graph.NodeID("add"))

	// Without validation the compiler itself refuses the node.
	_, err = testCompiler().Compile("permissive", g, "add")
	var mi *MissingInputError
	require.True(t, errors.As(err, &mi), "got %v", err)
	assert.Equal(t, graph.FieldID("in2"), mi.Field)
}

func TestCompileExternalInput(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NewNode("k", "constant", nil))
	g.AddNode(graph.NewNode("add", "add", nil))
	g.AddConnection(graph.Connect("k", "out", "add", "in1"))

	p, err := testCompiler().Compile("test", g, "add", External{Name: "in2", Type: field.Vector3})
	require.NoError(t, err)
	e, _ := p.Entry("add")
	in2 := e.Inputs["in2"]
	assert.True(t, in2.External)
	assert.Equal(t, producer.ExternalNode, in2.Sources[0].Node)
	assert.True(t, field.Same(field.Vector3, e.Outputs["out"].Type))
}

func TestCompileCycleIsStructural(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NewNode("A", "add", nil))
	g.AddNode(graph.NewNode("B", "add", nil))
	g.AddConnection(graph.Connect("A", "out", "B", "in1"))
	g.AddConnection(graph.Connect("B", "out", "A", "in1"))

	_, err := testCompiler().Compile("test", g, "B")
	var vf *ValidationFailedError
	require.True(t, errors.As(err, &vf))
	assert.ElementsMatch(t, []graph.NodeID{"A", "B"}, vf.Result.ErrorNodes())
	assert.Contains(t, err.Error(), "cycle")
}

func TestCompileTypeMismatch(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NewNode("k", "constant", nil))
	g.AddNode(graph.NewNode("add", "add", nil))
	g.AddConnection(graph.Connect("k", "out", "add", "in1"))

	_, err := testCompiler().Compile("permissive", g, "add", External{Name: "in2", Type: field.Texture})
	var tm *TypeMismatchError
	require.True(t, errors.As(err, &tm), "got %v", err)
	assert.Equal(t, graph.FieldID("in2"), tm.Field)
}

func TestCompileFaults(t *testing.T) {
	c := testCompiler()

	_, err := c.Compile("nope", diamond(), "sum2")
	var re *field.ResolutionError
	assert.True(t, errors.As(err, &re))

	g := graph.New()
	g.AddNode(graph.NewNode("x", "mystery", nil))
	_, err = c.Compile("permissive", g, "x")
	var nf *producer.NotFoundError
	assert.True(t, errors.As(err, &nf))

	g.AddNode(graph.NewNode("b", "broken", nil))
	_, err = c.Compile("test", g, "b")
	assert.EqualError(t, err, "node b: boom")
}

// ---------------------------------------------------------------------------
// Blackboard
// ---------------------------------------------------------------------------

func TestBlackboardWriteOnce(t *testing.T) {
	bb := NewBlackboard[float64]()
	require.NoError(t, bb.Set("A", "out", field.Float, 1))
	err := bb.Set("A", "out", field.Float, 2)
	var rw *RewriteError
	require.True(t, errors.As(err, &rw))
	assert.Equal(t, "A-out", rw.Key)

	v, err := bb.Get("A", "out", field.Float)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
	assert.Equal(t, []string{"A-out"}, bb.Keys())
	assert.Equal(t, 1, bb.Len())
}

func TestBlackboardReads(t *testing.T) {
	bb := NewBlackboard[string]()
	require.NoError(t, bb.Set("A", "out", field.Vector2, "v"))

	_, err := bb.Get("A", "out", field.Float)
	var tm *TypeMismatchError
	require.True(t, errors.As(err, &tm))
	assert.True(t, field.Same(field.Vector2, tm.Got))

	v, err := bb.Get("A", "out", nil)
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	v, err = bb.Source(producer.Source{Node: "A", Field: "out", Type: field.Vector2})
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	typ, ok := bb.Type("A", "out")
	assert.True(t, ok)
	assert.True(t, field.Same(field.Vector2, typ))

	_, err = bb.Get("B", "out", nil)
	var mv *MissingValueError
	assert.True(t, errors.As(err, &mv))
}
