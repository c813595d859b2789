package producer

import (
	"errors"
	"testing"

	"github.com/chazu/shadegraph/pkg/field"
	"github.com/chazu/shadegraph/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

var (
	testKind  = NewKind("test graph", nil)
	childKind = NewKind("child graph", testKind)
)

func noStep(req Request) (Step, error) { return req.Node.ID, nil }

func constant(t field.FieldType) Definition {
	return Definition{
		Name: "constant",
		Config: Configuration{Outputs: []OutputDef{
			{ID: "out", Name: "Value", Types: []field.FieldType{t}},
		}},
		Create: noStep,
	}
}

var addDef = Definition{
	Name: "add",
	Doc:  "adds two values",
	Config: Configuration{
		Inputs: []InputDef{
			{ID: "in1", Name: "A", Required: true, Accepts: AcceptsNumeric},
			{ID: "in2", Name: "B", Required: true, Accepts: AcceptsNumeric},
		},
		Outputs: []OutputDef{
			{ID: "out", Name: "Result", Types: NumericTypes(), Resolve: Arithmetic("in1", "in2")},
		},
	},
	Create: noStep,
}

var sinDef = Definition{
	Name: "sin",
	Config: Configuration{
		Inputs: []InputDef{{ID: "in", Required: true, Accepts: AcceptsTypes(field.Float)}},
		Outputs: []OutputDef{
			{ID: "out", Types: []field.FieldType{field.Float}},
		},
	},
	Create: noStep,
}

var sumDef = Definition{
	Name: "sum",
	Config: Configuration{
		Inputs:  []InputDef{{ID: "in", Required: true, Multiple: true, Accepts: AcceptsNumeric}},
		Outputs: []OutputDef{{ID: "out", Types: NumericTypes(), Resolve: Arithmetic("in")}},
	},
	Create: noStep,
}

func testRegistry() *Registry {
	r := NewRegistry()
	r.Register(testKind, constant(field.Float), addDef, sinDef, sumDef)
	return r
}

func scope(externals ...External) Scope {
	return Scope{Producers: testRegistry(), Kind: testKind, Externals: externals}
}

// ---------------------------------------------------------------------------
// Kinds and registry
// ---------------------------------------------------------------------------

func TestKindAncestry(t *testing.T) {
	assert.True(t, childKind.Is(testKind))
	assert.True(t, childKind.Is(Root))
	assert.True(t, testKind.Is(testKind))
	assert.False(t, testKind.Is(childKind))
	assert.Equal(t, "child graph", childKind.String())
}

func TestRegistryResolvesThroughAncestors(t *testing.T) {
	r := testRegistry()
	vec := constant(field.Vector3)
	r.Register(childKind, vec)

	p, err := r.Resolve(childKind, "add")
	require.NoError(t, err)
	assert.Equal(t, "add", p.Type())

	// The parent registration came first, so it wins for the child kind too.
	p, err = r.Resolve(childKind, "constant")
	require.NoError(t, err)
	assert.True(t, field.Same(field.Float, p.Configuration().Outputs[0].Types[0]))

	_, err = r.Resolve(Root, "add")
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "add", nf.Type)
	assert.Contains(t, err.Error(), `"add"`)
}

func TestProducersSkipsShadowedAndForeignKinds(t *testing.T) {
	r := testRegistry()
	other := NewKind("other", nil)
	r.Register(other, Definition{Name: "foreign", Create: noStep})
	r.Register(childKind, constant(field.Vector2))

	var names []string
	for p := range r.Producers(childKind) {
		names = append(names, p.Type())
	}
	assert.Equal(t, []string{"constant", "add", "sin", "sum"}, names)

	d, ok := Producer(addDef).(Describer)
	require.True(t, ok)
	assert.Equal(t, "adds two values", d.Description())
}

func TestGraphTypes(t *testing.T) {
	gts := NewGraphTypes()
	gts.Register(BasicGraphType{TypeName: "test", GraphKind: testKind})
	gt, err := gts.Resolve("test")
	require.NoError(t, err)
	assert.Same(t, testKind, gt.Kind())

	_, err = gts.Resolve("missing")
	var re *field.ResolutionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "graph type", re.Registry)
}

func TestServiceLookup(t *testing.T) {
	env := Services{ClockService: FixedClock(2.5)}
	c, err := Service[Clock](env, ClockService)
	require.NoError(t, err)
	assert.Equal(t, 2.5, c.Seconds())

	_, err = Service[Clock](env, "missing")
	assert.Error(t, err)
	_, err = Service[string](env, ClockService)
	assert.Error(t, err)
	_, err = Service[Clock](nil, ClockService)
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Type resolution
// ---------------------------------------------------------------------------

func TestArithmetic(t *testing.T) {
	resolve := Arithmetic("in1", "in2")
	tests := []struct {
		name string
		in1  []field.FieldType
		in2  []field.FieldType
		want field.FieldType
		err  bool
	}{
		{"nothing connected", nil, nil, field.Float, false},
		{"floats", []field.FieldType{field.Float}, []field.FieldType{field.Float}, field.Float, false},
		{"float broadcasts", []field.FieldType{field.Float}, []field.FieldType{field.Vector3}, field.Vector3, false},
		{"vector and float", []field.FieldType{field.Vector2}, []field.FieldType{field.Float}, field.Vector2, false},
		{"colour and vector4", []field.FieldType{field.Color}, []field.FieldType{field.Vector4}, field.Vector4, false},
		{"colours", []field.FieldType{field.Color}, []field.FieldType{field.Color}, field.Color, false},
		{"size mismatch", []field.FieldType{field.Vector2}, []field.FieldType{field.Vector3}, nil, true},
		{"not numeric", []field.FieldType{field.Boolean}, nil, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolve(map[graph.FieldID][]field.FieldType{"in1": tt.in1, "in2": tt.in2})
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, field.Same(tt.want, got), "got %v", got)
		})
	}
}

func TestResolveOutputsChecksDeclaredTypes(t *testing.T) {
	cfg := Configuration{Outputs: []OutputDef{
		{ID: "out", Types: []field.FieldType{field.Float}, Resolve: Fixed(field.Vector3)},
	}}
	_, err := cfg.ResolveOutputs(nil)
	assert.ErrorContains(t, err, "not one of its declared types")

	cfg.Outputs[0].Resolve = SameAs("in", field.Float)
	outs, err := cfg.ResolveOutputs(nil)
	require.NoError(t, err)
	assert.True(t, field.Same(field.Float, outs["out"]))
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func TestValidateMissingRequiredInput(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NewNode("a", "constant", graph.FloatData{Value: 1}))
	g.AddNode(graph.NewNode("b", "add", nil))
	g.AddConnection(graph.Connect("a", "out", "b", "in1"))

	r := DefaultValidator(scope()).ValidateSubGraph(g, "b")
	require.True(t, r.HasErrors())
	assert.Equal(t, []graph.NodeID{"b"}, r.ErrorNodes())
	assert.Equal(t, []graph.Connector{{Node: "b", Field: "in2"}}, r.ErrorConnectors())

	// An external input of the same name satisfies the slot.
	r = DefaultValidator(scope(External{Name: "in2", Type: field.Float})).ValidateSubGraph(g, "b")
	assert.False(t, r.HasErrors(), "%v", r.Findings)
}

func TestValidateOverConnectedInput(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NewNode("a", "constant", nil))
	g.AddNode(graph.NewNode("b", "constant", nil))
	g.AddNode(graph.NewNode("s", "sin", nil))
	g.AddNode(graph.NewNode("m", "sum", nil))
	g.AddConnection(graph.Connect("a", "out", "s", "in"))
	g.AddConnection(graph.Connect("b", "out", "s", "in"))
	g.AddConnection(graph.Connect("a", "out", "m", "in"))
	g.AddConnection(graph.Connect("b", "out", "m", "in"))

	r := DefaultValidator(scope()).Validate(g)
	assert.Equal(t, []graph.Connector{{Node: "s", Field: "in"}}, r.ErrorConnectors())
}

func TestValidateUnknownProducerAndFields(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NewNode("a", "constant", nil))
	g.AddNode(graph.NewNode("x", "mystery", nil))
	g.AddNode(graph.NewNode("s", "sin", nil))
	g.AddConnection(graph.Connect("a", "value", "s", "in"))
	g.AddConnection(graph.Connect("x", "out", "s", "in"))

	r := DefaultValidator(scope()).Validate(g)
	assert.True(t, r.IsErrorNode("x"))
	assert.Equal(t, []graph.ConnectionID{"a.value->s.in"}, r.ErrorConnections())
}

func TestValidateTypeMismatch(t *testing.T) {
	reg := testRegistry()
	reg.Register(testKind, Definition{
		Name: "vec",
		Config: Configuration{Outputs: []OutputDef{
			{ID: "out", Types: []field.FieldType{field.Vector3}},
		}},
		Create: noStep,
	})
	g := graph.New()
	g.AddNode(graph.NewNode("v", "vec", nil))
	g.AddNode(graph.NewNode("s", "sin", nil))
	g.AddConnection(graph.Connect("v", "out", "s", "in"))

	r := DefaultValidator(Scope{Producers: reg, Kind: testKind}).ValidateSubGraph(g, "s")
	require.True(t, r.HasErrors())
	assert.Equal(t, []graph.ConnectionID{"v.out->s.in"}, r.ErrorConnections())
}

func TestValidateExternalTypeMismatch(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NewNode("s", "sin", nil))
	r := DefaultValidator(scope(External{Name: "in", Type: field.Vector2})).Validate(g)
	assert.Equal(t, []graph.Connector{{Node: "s", Field: "in"}}, r.ErrorConnectors())
}

func TestValidateStructureShortCircuits(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NewNode("a", "add", nil))
	g.AddNode(graph.NewNode("b", "add", nil))
	g.AddConnection(graph.Connect("a", "out", "b", "in1"))
	g.AddConnection(graph.Connect("b", "out", "a", "in1"))

	r := DefaultValidator(scope()).Validate(g)
	require.True(t, r.HasErrors())
	// Missing in2 inputs are never reported: the cycle stops validation first.
	assert.Empty(t, r.ErrorConnectors())
	assert.Equal(t, []graph.NodeID{"a", "b"}, r.ErrorNodes())
}

func TestValidateOrphanWarning(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.NewNode("a", "constant", nil))
	g.AddNode(graph.NewNode("lonely", "constant", nil))
	g.AddNode(graph.NewNode("s", "sin", nil))
	g.AddConnection(graph.Connect("a", "out", "s", "in"))

	r := DefaultValidator(scope()).Validate(g)
	assert.False(t, r.HasErrors())
	assert.Equal(t, []graph.NodeID{"lonely"}, r.WarningNodes())
}
