package numeric

import (
	"fmt"
	"math"
	"slices"

	"github.com/chazu/shadegraph/pkg/field"
	"github.com/chazu/shadegraph/pkg/graph"
	"github.com/chazu/shadegraph/pkg/producer"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Register adds every numeric producer to r.
func Register(r *producer.Registry) {
	r.Register(Kind, Producers()...)
}

// Producers returns the numeric node library.
func Producers() []producer.Producer {
	return []producer.Producer{
		constantNode(), vectorNode(), colorNode(), booleanNode(), timeNode(),
		binary("add", "adds two values", func(x, y float64) float64 { return x + y }),
		binary("subtract", "subtracts the second value from the first", func(x, y float64) float64 { return x - y }),
		binary("multiply", "multiplies two values component-wise", func(x, y float64) float64 { return x * y }),
		binary("divide", "divides the first value by the second", func(x, y float64) float64 { return x / y }),
		sumNode(),
		unary("sin", "sine of each component", math.Sin),
		unary("cos", "cosine of each component", math.Cos),
		unary("abs", "absolute value of each component", math.Abs),
		unary("sqrt", "square root of each component", math.Sqrt),
		lengthNode(), dotNode(), normalizeNode(), crossNode(),
		mergeNode(), splitNode(),
		matrixNode("translate", "translation matrix from an offset", sdf.Translate3d),
		matrixNode("scale", "scale matrix from per-axis factors", sdf.Scale3d),
		transformNode(), expressionNode(), outputNode(),
	}
}

// ---------------------------------------------------------------------------
// Step helpers
// ---------------------------------------------------------------------------

// node wraps a request with blackboard accessors.
type node struct {
	producer.Request
}

// in reads the first value supplied to input id.
func (n node) in(bb *Blackboard, id graph.FieldID) (any, error) {
	in, ok := n.Input(id)
	if !ok {
		return nil, fmt.Errorf("input %q is not wired", id)
	}
	return bb.Source(in.Sources[0])
}

// inOr reads input id, or returns def when it is not wired.
func (n node) inOr(bb *Blackboard, id graph.FieldID, def any) (any, error) {
	if _, ok := n.Input(id); !ok {
		return def, nil
	}
	return n.in(bb, id)
}

// publish writes output id, checking the value against its resolved type.
func (n node) publish(bb *Blackboard, id graph.FieldID, v any) error {
	out, ok := n.Outputs[id]
	if !ok {
		return fmt.Errorf("output %q was not resolved", id)
	}
	if !out.Type.Accepts(v) {
		return fmt.Errorf("output %q: %T is not a %s", id, v, out.Type.Name())
	}
	return bb.Set(n.Node.ID, id, out.Type, v)
}

func (n node) outType(id graph.FieldID) field.FieldType {
	return n.Outputs[id].Type
}

func dataAs[T graph.NodeData](n graph.Node) (T, error) {
	d, ok := n.Data.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("node data %T, want %T", n.Data, zero)
	}
	return d, nil
}

func out(types ...field.FieldType) []producer.OutputDef {
	return []producer.OutputDef{{ID: "out", Name: "Output", Types: types}}
}

func numericIn(id graph.FieldID, name string) producer.InputDef {
	return producer.InputDef{ID: id, Name: name, Required: true, Accepts: producer.AcceptsNumeric}
}

func allTypes() []field.FieldType {
	return append(producer.NumericTypes(), field.Boolean, field.Matrix4)
}

// ---------------------------------------------------------------------------
// Literal nodes
// ---------------------------------------------------------------------------

func literal(name, doc string, t field.FieldType, value func(graph.Node) (any, error)) producer.Definition {
	return producer.Definition{
		Name:   name,
		Doc:    doc,
		Config: producer.Configuration{Outputs: out(t)},
		Create: func(req producer.Request) (producer.Step, error) {
			v, err := value(req.Node)
			if err != nil {
				return nil, err
			}
			n := node{req}
			return StepFunc(func(bb *Blackboard) error { return n.publish(bb, "out", v) }), nil
		},
	}
}

func constantNode() producer.Definition {
	return literal("constant", "a float constant", field.Float, func(gn graph.Node) (any, error) {
		d, err := dataAs[graph.FloatData](gn)
		return d.Value, err
	})
}

func vectorType(gn graph.Node) (graph.VectorData, field.FieldType, error) {
	vd, err := dataAs[graph.VectorData](gn)
	if err != nil {
		return vd, nil, err
	}
	t, ok := field.VectorOfSize(vd.Size)
	if !ok || vd.Size < 2 {
		return vd, nil, fmt.Errorf("vector size %d", vd.Size)
	}
	return vd, t, nil
}

func vectorNode() producer.Definition {
	return producer.Definition{
		Name:   "vector",
		Doc:    "a 2-, 3- or 4-component vector constant",
		Config: producer.Configuration{Outputs: out(field.Vector2, field.Vector3, field.Vector4)},
		Configure: func(gn graph.Node) (producer.Configuration, error) {
			_, t, err := vectorType(gn)
			return producer.Configuration{Outputs: out(t)}, err
		},
		Create: func(req producer.Request) (producer.Step, error) {
			vd, t, err := vectorType(req.Node)
			if err != nil {
				return nil, err
			}
			v, err := fromComponents(t, vd.Components[:vd.Size])
			if err != nil {
				return nil, err
			}
			n := node{req}
			return StepFunc(func(bb *Blackboard) error { return n.publish(bb, "out", v) }), nil
		},
	}
}

func colorNode() producer.Definition {
	return literal("color", "an RGBA colour constant", field.Color, func(gn graph.Node) (any, error) {
		d, err := dataAs[graph.ColorData](gn)
		return field.Vec4{X: d.R, Y: d.G, Z: d.B, W: d.A}, err
	})
}

func booleanNode() producer.Definition {
	return literal("boolean", "a boolean constant", field.Boolean, func(gn graph.Node) (any, error) {
		d, err := dataAs[graph.BoolData](gn)
		return d.Value, err
	})
}

func timeNode() producer.Definition {
	return producer.Definition{
		Name:   "time",
		Doc:    "seconds reported by the clock service",
		Config: producer.Configuration{Outputs: out(field.Float)},
		Create: func(req producer.Request) (producer.Step, error) {
			clock, err := producer.Service[producer.Clock](req.Env, producer.ClockService)
			if err != nil {
				return nil, err
			}
			n := node{req}
			return StepFunc(func(bb *Blackboard) error { return n.publish(bb, "out", clock.Seconds()) }), nil
		},
	}
}

// ---------------------------------------------------------------------------
// Math nodes
// ---------------------------------------------------------------------------

func binary(name, doc string, op func(x, y float64) float64) producer.Definition {
	return producer.Definition{
		Name: name,
		Doc:  doc,
		Config: producer.Configuration{
			Inputs: []producer.InputDef{numericIn("in1", "A"), numericIn("in2", "B")},
			Outputs: []producer.OutputDef{{
				ID: "out", Name: "Result", Types: producer.NumericTypes(),
				Resolve: producer.Arithmetic("in1", "in2"),
			}},
		},
		Create: func(req producer.Request) (producer.Step, error) {
			n := node{req}
			return StepFunc(func(bb *Blackboard) error {
				a, err := n.in(bb, "in1")
				if err != nil {
					return err
				}
				b, err := n.in(bb, "in2")
				if err != nil {
					return err
				}
				v, err := componentWise(n.outType("out"), a, b, op)
				if err != nil {
					return err
				}
				return n.publish(bb, "out", v)
			}), nil
		},
	}
}

// sumNode adds every value connected to its one input.
func sumNode() producer.Definition {
	return producer.Definition{
		Name: "sum",
		Doc:  "adds every connected value",
		Config: producer.Configuration{
			Inputs: []producer.InputDef{{
				ID: "in", Name: "Values", Required: true, Multiple: true, Accepts: producer.AcceptsNumeric,
			}},
			Outputs: []producer.OutputDef{{
				ID: "out", Name: "Result", Types: producer.NumericTypes(),
				Resolve: producer.Arithmetic("in"),
			}},
		},
		Create: func(req producer.Request) (producer.Step, error) {
			n := node{req}
			return StepFunc(func(bb *Blackboard) error {
				in, ok := n.Input("in")
				if !ok {
					return fmt.Errorf("input %q is not wired", "in")
				}
				var total []float64
				for _, src := range in.Sources {
					v, err := bb.Source(src)
					if err != nil {
						return err
					}
					c, err := components(v)
					if err != nil {
						return err
					}
					if total == nil {
						total = slices.Clone(c)
						continue
					}
					size := max(len(total), len(c))
					total, c = broadcast(total, size), broadcast(c, size)
					if len(total) != len(c) {
						return fmt.Errorf("cannot add %d components to %d", len(c), len(total))
					}
					for i := range total {
						total[i] += c[i]
					}
				}
				v, err := fromComponents(n.outType("out"), total)
				if err != nil {
					return err
				}
				return n.publish(bb, "out", v)
			}), nil
		},
	}
}

func unary(name, doc string, op func(float64) float64) producer.Definition {
	return producer.Definition{
		Name: name,
		Doc:  doc,
		Config: producer.Configuration{
			Inputs: []producer.InputDef{numericIn("in", "Input")},
			Outputs: []producer.OutputDef{{
				ID: "out", Name: "Result", Types: producer.NumericTypes(),
				Resolve: producer.SameAs("in", field.Float),
			}},
		},
		Create: func(req producer.Request) (producer.Step, error) {
			n := node{req}
			return StepFunc(func(bb *Blackboard) error {
				a, err := n.in(bb, "in")
				if err != nil {
					return err
				}
				v, err := mapComponents(n.outType("out"), a, op)
				if err != nil {
					return err
				}
				return n.publish(bb, "out", v)
			}), nil
		},
	}
}

// reduce builds a node computing a value from its inputs with a fixed output
// type.
func reduce(name, doc string, inputs []producer.InputDef, o producer.OutputDef, fn func(vals []any) (any, error)) producer.Definition {
	return producer.Definition{
		Name:   name,
		Doc:    doc,
		Config: producer.Configuration{Inputs: inputs, Outputs: []producer.OutputDef{o}},
		Create: func(req producer.Request) (producer.Step, error) {
			n := node{req}
			return StepFunc(func(bb *Blackboard) error {
				vals := make([]any, len(inputs))
				for i, def := range inputs {
					v, err := n.in(bb, def.ID)
					if err != nil {
						return err
					}
					vals[i] = v
				}
				v, err := fn(vals)
				if err != nil {
					return err
				}
				return n.publish(bb, o.ID, v)
			}), nil
		},
	}
}

func lengthNode() producer.Definition {
	return reduce("length", "euclidean length of a vector",
		[]producer.InputDef{numericIn("in", "Vector")},
		producer.OutputDef{ID: "out", Name: "Length", Types: []field.FieldType{field.Float}},
		func(v []any) (any, error) { return length(v[0]) })
}

func dotNode() producer.Definition {
	return reduce("dot", "dot product of two vectors of the same size",
		[]producer.InputDef{numericIn("in1", "A"), numericIn("in2", "B")},
		producer.OutputDef{ID: "out", Name: "Dot", Types: []field.FieldType{field.Float}, Resolve: producer.SameSize(field.Float, "in1", "in2")},
		func(v []any) (any, error) { return dot(v[0], v[1]) })
}

func normalizeNode() producer.Definition {
	return reduce("normalize", "unit vector in the same direction",
		[]producer.InputDef{numericIn("in", "Vector")},
		producer.OutputDef{ID: "out", Name: "Result", Types: producer.NumericTypes(), Resolve: producer.SameAs("in", field.Float)},
		func(v []any) (any, error) { return normalize(v[0]) })
}

func vec3In(id graph.FieldID, name string) producer.InputDef {
	return producer.InputDef{ID: id, Name: name, Required: true, Accepts: producer.AcceptsTypes(field.Vector3)}
}

func crossNode() producer.Definition {
	return reduce("cross", "cross product of two 3-vectors",
		[]producer.InputDef{vec3In("in1", "A"), vec3In("in2", "B")},
		producer.OutputDef{ID: "out", Name: "Cross", Types: []field.FieldType{field.Vector3}},
		func(v []any) (any, error) { return v[0].(v3.Vec).Cross(v[1].(v3.Vec)), nil })
}

func matrixNode(name, doc string, build func(v3.Vec) sdf.M44) producer.Definition {
	return reduce(name, doc,
		[]producer.InputDef{vec3In("in", "Vector")},
		producer.OutputDef{ID: "out", Name: "Matrix", Types: []field.FieldType{field.Matrix4}},
		func(v []any) (any, error) { return build(v[0].(v3.Vec)), nil })
}

func transformNode() producer.Definition {
	return reduce("transform", "applies a matrix to a position",
		[]producer.InputDef{
			{ID: "matrix", Name: "Matrix", Required: true, Accepts: producer.AcceptsTypes(field.Matrix4)},
			vec3In("in", "Position"),
		},
		producer.OutputDef{ID: "out", Name: "Result", Types: []field.FieldType{field.Vector3}},
		func(v []any) (any, error) { return v[0].(sdf.M44).MulPosition(v[1].(v3.Vec)), nil })
}

// ---------------------------------------------------------------------------
// Structural nodes
// ---------------------------------------------------------------------------

var mergeFields = []graph.FieldID{"x", "y", "z", "w"}

func mergeNode() producer.Definition {
	inputs := make([]producer.InputDef, len(mergeFields))
	for i, id := range mergeFields {
		inputs[i] = producer.InputDef{
			ID: id, Name: string(id), Required: i < 2,
			Accepts: producer.AcceptsTypes(field.Float),
		}
	}
	return producer.Definition{
		Name: "merge",
		Doc:  "builds a vector from float components",
		Config: producer.Configuration{
			Inputs: inputs,
			Outputs: []producer.OutputDef{{
				ID: "out", Name: "Vector",
				Types: []field.FieldType{field.Vector2, field.Vector3, field.Vector4},
				Resolve: func(in map[graph.FieldID][]field.FieldType) (field.FieldType, error) {
					switch {
					case len(in["w"]) > 0:
						return field.Vector4, nil
					case len(in["z"]) > 0:
						return field.Vector3, nil
					}
					return field.Vector2, nil
				},
			}},
		},
		Create: func(req producer.Request) (producer.Step, error) {
			n := node{req}
			return StepFunc(func(bb *Blackboard) error {
				t := n.outType("out")
				c := make([]float64, field.Size(t))
				for i := range c {
					v, err := n.inOr(bb, mergeFields[i], 0.0)
					if err != nil {
						return err
					}
					c[i] = v.(float64)
				}
				v, err := fromComponents(t, c)
				if err != nil {
					return err
				}
				return n.publish(bb, "out", v)
			}), nil
		},
	}
}

func splitNode() producer.Definition {
	outputs := make([]producer.OutputDef, len(mergeFields))
	for i, id := range mergeFields {
		outputs[i] = producer.OutputDef{ID: id, Name: string(id), Types: []field.FieldType{field.Float}}
	}
	return producer.Definition{
		Name: "split",
		Doc:  "splits a vector into float components; missing components are 0",
		Config: producer.Configuration{
			Inputs:  []producer.InputDef{numericIn("in", "Vector")},
			Outputs: outputs,
		},
		Create: func(req producer.Request) (producer.Step, error) {
			n := node{req}
			return StepFunc(func(bb *Blackboard) error {
				v, err := n.in(bb, "in")
				if err != nil {
					return err
				}
				c, err := components(v)
				if err != nil {
					return err
				}
				for i, id := range mergeFields {
					x := 0.0
					if i < len(c) {
						x = c[i]
					}
					if err := n.publish(bb, id, x); err != nil {
						return err
					}
				}
				return nil
			}), nil
		},
	}
}

func outputNode() producer.Definition {
	return producer.Definition{
		Name: "output",
		Doc:  "end of a graph; republishes its input",
		Config: producer.Configuration{
			Inputs: []producer.InputDef{{ID: "in", Name: "Value", Required: true, Accepts: producer.AcceptsAny}},
			Outputs: []producer.OutputDef{{
				ID: "out", Name: "Value", Types: allTypes(),
				Resolve: producer.SameAs("in", field.Float),
			}},
		},
		Create: func(req producer.Request) (producer.Step, error) {
			n := node{req}
			return StepFunc(func(bb *Blackboard) error {
				v, err := n.in(bb, "in")
				if err != nil {
					return err
				}
				return n.publish(bb, "out", v)
			}), nil
		},
	}
}
