package shader

import (
	"fmt"

	"github.com/chazu/shadegraph/pkg/field"
	"github.com/chazu/shadegraph/pkg/graph"
	"github.com/chazu/shadegraph/pkg/producer"
	"github.com/chazu/shadegraph/pkg/shader/ast"
)

// Register adds every shader producer to r, lowering values with the
// graph type's field type mapping.
func Register(r *producer.Registry, gt *GraphType) {
	r.Register(Kind, Producers(gt.FieldTypes())...)
}

// Producers returns the shader node library.
func Producers(types *FieldTypes) []producer.Producer {
	lib := library{types}
	return []producer.Producer{
		lib.constant(), lib.vector(), lib.color(), lib.boolean(), lib.time(),
		lib.binary("add", "adds two values", ast.OpAdd),
		lib.binary("subtract", "subtracts the second value from the first", ast.OpSub),
		lib.binary("multiply", "multiplies two values component-wise", ast.OpMul),
		lib.binary("divide", "divides the first value by the second", ast.OpDiv),
		lib.sum(),
		lib.unary("sin", "sine of each component"),
		lib.unary("cos", "cosine of each component"),
		lib.unary("abs", "absolute value of each component"),
		lib.unary("sqrt", "square root of each component"),
		lib.unary("fract", "fractional part of each component"),
		lib.unary("floor", "each component rounded down"),
		lib.unary("normalize", "unit vector in the same direction"),
		lib.call("length", "euclidean length of a vector",
			[]producer.InputDef{numericIn("in", "Vector")}, fixedOut(field.Float)),
		lib.call("dot", "dot product of two vectors of the same size",
			[]producer.InputDef{numericIn("in1", "A"), numericIn("in2", "B")},
			producer.OutputDef{ID: "out", Name: "Dot", Types: []field.FieldType{field.Float}, Resolve: producer.SameSize(field.Float, "in1", "in2")}),
		lib.call("distance", "distance between two points",
			[]producer.InputDef{numericIn("in1", "A"), numericIn("in2", "B")},
			producer.OutputDef{ID: "out", Name: "Distance", Types: []field.FieldType{field.Float}, Resolve: producer.SameSize(field.Float, "in1", "in2")}),
		lib.call("cross", "cross product of two 3-vectors",
			[]producer.InputDef{vec3In("in1", "A"), vec3In("in2", "B")}, fixedOut(field.Vector3)),
		lib.widened("mix", "linear blend of two values by t", "in1", "in2", "t"),
		lib.widened("pow", "first value raised to the second", "in1", "in2"),
		lib.widened("min", "component-wise minimum", "in1", "in2"),
		lib.widened("max", "component-wise maximum", "in1", "in2"),
		lib.widened("step", "0 below the edge, 1 at or above it", "edge", "in"),
		lib.widened("smoothstep", "hermite interpolation between two edges", "edge0", "edge1", "in"),
		lib.clamp(),
		lib.merge(), lib.split(), lib.swizzle(),
		lib.translate(), lib.scale(), lib.transform(),
		lib.compare(), lib.conditional(),
		lib.property(), lib.texture(),
		lib.meshValue("uv", "texture coordinates of the mesh", AttrUV, VaryingUV, field.Vector2),
		lib.meshValue("position", "model-space position of the mesh", AttrPosition, VaryingPosition, field.Vector3),
		lib.meshValue("normal", "model-space normal of the mesh", AttrNormal, VaryingNormal, field.Vector3),
		lib.cameraPosition(),
		lib.output(),
	}
}

// library builds producers over one field type mapping.
type library struct {
	types *FieldTypes
}

// ---------------------------------------------------------------------------
// Step helpers
// ---------------------------------------------------------------------------

// node wraps a request with builder accessors.
type node struct {
	producer.Request
	types *FieldTypes
}

func (l library) node(req producer.Request) node { return node{req, l.types} }

// in reads the first operand supplied to input id.
func (n node) in(b *Builder, id graph.FieldID) (ast.Operand, error) {
	in, ok := n.Input(id)
	if !ok {
		return nil, fmt.Errorf("input %q is not wired", id)
	}
	return b.Blackboard().Source(in.Sources[0])
}

// outVar is the shader type of output id.
func (n node) outVar(id graph.FieldID) (ast.VarType, error) {
	out, ok := n.Outputs[id]
	if !ok {
		return ast.VarType{}, fmt.Errorf("output %q was not resolved", id)
	}
	ft, err := n.types.Resolve(out.Type)
	if err != nil {
		return ast.VarType{}, err
	}
	return ft.Var, nil
}

// publish writes output id, checking the operand against its resolved type.
func (n node) publish(b *Builder, id graph.FieldID, op ast.Operand) error {
	want, err := n.outVar(id)
	if err != nil {
		return err
	}
	if op.Type() != want {
		return fmt.Errorf("output %q: operand is %s, want %s", id, op.Type(), want)
	}
	return b.Blackboard().Set(n.Node.ID, id, n.Outputs[id].Type, op)
}

// bind declares a temporary holding op and publishes it as output id.
func (n node) bind(b *Builder, id graph.FieldID, op ast.Operand, err error) error {
	if err != nil {
		return err
	}
	v, err := b.Temp(op)
	if err != nil {
		return err
	}
	return n.publish(b, id, v)
}

// widen splats a scalar to the vector type t.
func widen(op ast.Operand, t ast.VarType) (ast.Operand, error) {
	switch {
	case op.Type() == t:
		return op, nil
	case op.Type().IsScalar() && t.IsVector():
		return ast.NewConstruct(t, op)
	}
	return nil, fmt.Errorf("cannot widen %s to %s", op.Type(), t)
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

func fixedOut(t field.FieldType) producer.OutputDef {
	return producer.OutputDef{ID: "out", Name: "Result", Types: []field.FieldType{t}}
}

func numericIn(id graph.FieldID, name string) producer.InputDef {
	return producer.InputDef{ID: id, Name: name, Required: true, Accepts: producer.AcceptsNumeric}
}

func vec3In(id graph.FieldID, name string) producer.InputDef {
	return producer.InputDef{ID: id, Name: name, Required: true, Accepts: producer.AcceptsTypes(field.Vector3)}
}

func floatIn(id graph.FieldID, name string, required bool) producer.InputDef {
	return producer.InputDef{ID: id, Name: name, Required: required, Accepts: producer.AcceptsTypes(field.Float)}
}

// ---------------------------------------------------------------------------
// Literal and uniform nodes
// ---------------------------------------------------------------------------

func (l library) literal(name, doc string, t field.FieldType, value func(graph.Node) (any, error)) producer.Definition {
	return producer.Definition{
		Name:   name,
		Doc:    doc,
		Config: producer.Configuration{Outputs: out(t)},
		Create: func(req producer.Request) (producer.Step, error) {
			v, err := value(req.Node)
			if err != nil {
				return nil, err
			}
			ft, err := l.types.Resolve(t)
			if err != nil {
				return nil, err
			}
			lit, err := ft.Literal(v)
			if err != nil {
				return nil, err
			}
			n := l.node(req)
			return StepFunc(func(b *Builder) error { return n.publish(b, "out", lit) }), nil
		},
	}
}

func (l library) constant() producer.Definition {
	return l.literal("constant", "a float constant", field.Float, func(gn graph.Node) (any, error) {
		d, err := dataAs[graph.FloatData](gn)
		return d.Value, err
	})
}

func (l library) color() producer.Definition {
	return l.literal("color", "an RGBA colour constant", field.Color, func(gn graph.Node) (any, error) {
		d, err := dataAs[graph.ColorData](gn)
		return field.Vec4{X: d.R, Y: d.G, Z: d.B, W: d.A}, err
	})
}

func (l library) boolean() producer.Definition {
	return l.literal("boolean", "a boolean constant", field.Boolean, func(gn graph.Node) (any, error) {
		d, err := dataAs[graph.BoolData](gn)
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

func (l library) vector() producer.Definition {
	return producer.Definition{
		Name:   "vector",
		Doc:    "a 2-, 3- or 4-component vector constant",
		Config: producer.Configuration{Outputs: out(field.Vector2, field.Vector3, field.Vector4)},
		Configure: func(gn graph.Node) (producer.Configuration, error) {
			_, t, err := vectorType(gn)
			return producer.Configuration{Outputs: out(t)}, err
		},
		Create: func(req producer.Request) (producer.Step, error) {
			vd, _, err := vectorType(req.Node)
			if err != nil {
				return nil, err
			}
			args, err := floatLiterals(vd.Components[:vd.Size])
			if err != nil {
				return nil, err
			}
			lit, err := ast.NewConstruct(ast.Vec(vd.Size), args...)
			if err != nil {
				return nil, err
			}
			n := l.node(req)
			return StepFunc(func(b *Builder) error { return n.publish(b, "out", lit) }), nil
		},
	}
}

func (l library) time() producer.Definition {
	return producer.Definition{
		Name:   "time",
		Doc:    "seconds since start, read from the time uniform",
		Config: producer.Configuration{Outputs: out(field.Float)},
		Create: func(req producer.Request) (producer.Step, error) {
			n := l.node(req)
			return StepFunc(func(b *Builder) error {
				v, err := b.Uniform(TimeUniform, ast.Float)
				if err != nil {
					return err
				}
				return n.publish(b, "out", v)
			}), nil
		},
	}
}

func propertyType(types *FieldTypes, gn graph.Node) (graph.PropertyData, FieldType, error) {
	d, err := dataAs[graph.PropertyData](gn)
	if err != nil {
		return d, FieldType{}, err
	}
	if d.Name == "" {
		return d, FieldType{}, fmt.Errorf("property has no name")
	}
	ft, err := types.ByName(d.Type)
	return d, ft, err
}

func (l library) property() producer.Definition {
	all := make([]field.FieldType, 0)
	for _, ft := range l.types.Types() {
		all = append(all, ft.Field)
	}
	return producer.Definition{
		Name:   "property",
		Doc:    "a named material value bound as a uniform",
		Config: producer.Configuration{Outputs: out(all...)},
		Configure: func(gn graph.Node) (producer.Configuration, error) {
			_, ft, err := propertyType(l.types, gn)
			if err != nil {
				return producer.Configuration{}, err
			}
			return producer.Configuration{Outputs: out(ft.Field)}, nil
		},
		Create: func(req producer.Request) (producer.Step, error) {
			d, ft, err := propertyType(l.types, req.Node)
			if err != nil {
				return nil, err
			}
			n := l.node(req)
			return StepFunc(func(b *Builder) error {
				v, err := b.Uniform(UniformName(d.Name), ft.Var)
				if err != nil {
					return err
				}
				return n.publish(b, "out", v)
			}), nil
		},
	}
}

// ---------------------------------------------------------------------------
// Math nodes
// ---------------------------------------------------------------------------

func (l library) binary(name, doc string, op ast.BinaryOp) producer.Definition {
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
			n := l.node(req)
			return StepFunc(func(b *Builder) error {
				x, err := n.in(b, "in1")
				if err != nil {
					return err
				}
				y, err := n.in(b, "in2")
				if err != nil {
					return err
				}
				v, err := ast.NewBinary(op, x, y)
				return n.bind(b, "out", v, err)
			}), nil
		},
	}
}

// sum chains every value connected to its one input with +.
func (l library) sum() producer.Definition {
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
			n := l.node(req)
			return StepFunc(func(b *Builder) error {
				in, ok := n.Input("in")
				if !ok {
					return fmt.Errorf("input %q is not wired", "in")
				}
				var total ast.Operand
				for _, src := range in.Sources {
					v, err := b.Blackboard().Source(src)
					if err != nil {
						return err
					}
					if total == nil {
						total = v
						continue
					}
					if total, err = ast.NewBinary(ast.OpAdd, total, v); err != nil {
						return err
					}
				}
				return n.bind(b, "out", total, nil)
			}), nil
		},
	}
}

func (l library) unary(fn, doc string) producer.Definition {
	return l.call(fn, doc, []producer.InputDef{numericIn("in", "Input")}, producer.OutputDef{
		ID: "out", Name: "Result", Types: producer.NumericTypes(),
		Resolve: producer.SameAs("in", field.Float),
	})
}

// call builds a node applying the built-in function fn to its inputs in
// declaration order.
func (l library) call(fn, doc string, inputs []producer.InputDef, o producer.OutputDef) producer.Definition {
	return producer.Definition{
		Name:   fn,
		Doc:    doc,
		Config: producer.Configuration{Inputs: inputs, Outputs: []producer.OutputDef{o}},
		Create: func(req producer.Request) (producer.Step, error) {
			n := l.node(req)
			return StepFunc(func(b *Builder) error {
				args := make([]ast.Operand, len(inputs))
				for i, def := range inputs {
					v, err := n.in(b, def.ID)
					if err != nil {
						return err
					}
					args[i] = v
				}
				v, err := ast.NewCall(fn, args...)
				return n.bind(b, o.ID, v, err)
			}), nil
		},
	}
}

// widened builds a component-wise function node. Scalar inputs are splatted
// to the result type so every argument has the same type.
func (l library) widened(fn, doc string, ids ...graph.FieldID) producer.Definition {
	inputs := make([]producer.InputDef, len(ids))
	for i, id := range ids {
		inputs[i] = numericIn(id, string(id))
	}
	return l.widenedWith(fn, doc, inputs, producer.Arithmetic(ids...))
}

func (l library) clamp() producer.Definition {
	return l.widenedWith("clamp", "value limited to a range",
		[]producer.InputDef{numericIn("in", "Input"), numericIn("min", "Min"), numericIn("max", "Max")},
		producer.Arithmetic("in", "min", "max"))
}

func (l library) widenedWith(fn, doc string, inputs []producer.InputDef, resolve producer.ResolveFunc) producer.Definition {
	return producer.Definition{
		Name: fn,
		Doc:  doc,
		Config: producer.Configuration{
			Inputs: inputs,
			Outputs: []producer.OutputDef{{
				ID: "out", Name: "Result", Types: producer.NumericTypes(), Resolve: resolve,
			}},
		},
		Create: func(req producer.Request) (producer.Step, error) {
			n := l.node(req)
			return StepFunc(func(b *Builder) error {
				t, err := n.outVar("out")
				if err != nil {
					return err
				}
				args := make([]ast.Operand, len(inputs))
				for i, def := range inputs {
					v, err := n.in(b, def.ID)
					if err != nil {
						return err
					}
					if args[i], err = widen(v, t); err != nil {
						return fmt.Errorf("input %q: %w", def.ID, err)
					}
				}
				v, err := ast.NewCall(fn, args...)
				return n.bind(b, "out", v, err)
			}), nil
		},
	}
}

// ---------------------------------------------------------------------------
// Structural nodes
// ---------------------------------------------------------------------------

var mergeFields = []graph.FieldID{"x", "y", "z", "w"}

func (l library) merge() producer.Definition {
	inputs := make([]producer.InputDef, len(mergeFields))
	for i, id := range mergeFields {
		inputs[i] = floatIn(id, string(id), i < 2)
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
			n := l.node(req)
			return StepFunc(func(b *Builder) error {
				t, err := n.outVar("out")
				if err != nil {
					return err
				}
				args := make([]ast.Operand, t.Size)
				for i := range args {
					args[i] = ast.LitFloat(0)
					if _, ok := n.Input(mergeFields[i]); !ok {
						continue
					}
					if args[i], err = n.in(b, mergeFields[i]); err != nil {
						return err
					}
				}
				v, err := ast.NewConstruct(t, args...)
				return n.bind(b, "out", v, err)
			}), nil
		},
	}
}

func (l library) split() producer.Definition {
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
			n := l.node(req)
			return StepFunc(func(b *Builder) error {
				v, err := n.in(b, "in")
				if err != nil {
					return err
				}
				size := v.Type().Components()
				for i, id := range mergeFields {
					var c ast.Operand = ast.LitFloat(0)
					switch {
					case size == 1 && i == 0:
						c = v
					case i < size:
						if c, err = ast.NewSwizzle(v, string("xyzw"[i])); err != nil {
							return err
						}
					}
					if err := n.publish(b, id, c); err != nil {
						return err
					}
				}
				return nil
			}), nil
		},
	}
}

func swizzleType(gn graph.Node) (string, field.FieldType, error) {
	d, err := dataAs[graph.SwizzleData](gn)
	if err != nil {
		return "", nil, err
	}
	t, ok := field.VectorOfSize(len(d.Components))
	if !ok {
		return "", nil, fmt.Errorf("swizzle %q selects %d components", d.Components, len(d.Components))
	}
	return d.Components, t, nil
}

func (l library) swizzle() producer.Definition {
	outputs := func(t field.FieldType) []producer.OutputDef {
		return []producer.OutputDef{{ID: "out", Name: "Result", Types: []field.FieldType{t}}}
	}
	vectors := producer.AcceptsTypes(field.Vector2, field.Vector3, field.Vector4, field.Color)
	return producer.Definition{
		Name: "swizzle",
		Doc:  "selects and reorders vector components",
		Config: producer.Configuration{
			Inputs:  []producer.InputDef{{ID: "in", Name: "Vector", Required: true, Accepts: vectors}},
			Outputs: out(field.Float, field.Vector2, field.Vector3, field.Vector4),
		},
		Configure: func(gn graph.Node) (producer.Configuration, error) {
			_, t, err := swizzleType(gn)
			if err != nil {
				return producer.Configuration{}, err
			}
			return producer.Configuration{
				Inputs:  []producer.InputDef{{ID: "in", Name: "Vector", Required: true, Accepts: vectors}},
				Outputs: outputs(t),
			}, nil
		},
		Create: func(req producer.Request) (producer.Step, error) {
			comps, _, err := swizzleType(req.Node)
			if err != nil {
				return nil, err
			}
			n := l.node(req)
			return StepFunc(func(b *Builder) error {
				v, err := n.in(b, "in")
				if err != nil {
					return err
				}
				s, err := ast.NewSwizzle(v, comps)
				if err != nil {
					return err
				}
				return n.publish(b, "out", s)
			}), nil
		},
	}
}

// ---------------------------------------------------------------------------
// Transform nodes
// ---------------------------------------------------------------------------

func (l library) matrix(name, doc string, columns func(v ast.Operand) ([4][4]ast.Operand, error)) producer.Definition {
	return producer.Definition{
		Name: name,
		Doc:  doc,
		Config: producer.Configuration{
			Inputs:  []producer.InputDef{vec3In("in", "Vector")},
			Outputs: []producer.OutputDef{fixedOut(field.Matrix4)},
		},
		Create: func(req producer.Request) (producer.Step, error) {
			n := l.node(req)
			return StepFunc(func(b *Builder) error {
				v, err := n.in(b, "in")
				if err != nil {
					return err
				}
				cols, err := columns(v)
				if err != nil {
					return err
				}
				args := make([]ast.Operand, 4)
				for i, c := range cols {
					if args[i], err = ast.NewConstruct(ast.Vec4, c[:]...); err != nil {
						return err
					}
				}
				m, err := ast.NewConstruct(ast.Mat4, args...)
				return n.bind(b, "out", m, err)
			}), nil
		},
	}
}

func (l library) translate() producer.Definition {
	zero, one := ast.LitFloat(0), ast.LitFloat(1)
	return l.matrix("translate", "translation matrix from an offset", func(v ast.Operand) ([4][4]ast.Operand, error) {
		cols := [4][4]ast.Operand{
			{one, zero, zero, zero},
			{zero, one, zero, zero},
			{zero, zero, one, zero},
		}
		for i := range 3 {
			c, err := ast.NewSwizzle(v, string("xyz"[i]))
			if err != nil {
				return cols, err
			}
			cols[3][i] = c
		}
		cols[3][3] = one
		return cols, nil
	})
}

func (l library) scale() producer.Definition {
	zero, one := ast.LitFloat(0), ast.LitFloat(1)
	return l.matrix("scale", "scale matrix from per-axis factors", func(v ast.Operand) ([4][4]ast.Operand, error) {
		var cols [4][4]ast.Operand
		for i := range 4 {
			for j := range 4 {
				cols[i][j] = zero
			}
		}
		for i := range 3 {
			c, err := ast.NewSwizzle(v, string("xyz"[i]))
			if err != nil {
				return cols, err
			}
			cols[i][i] = c
		}
		cols[3][3] = one
		return cols, nil
	})
}

func (l library) transform() producer.Definition {
	return producer.Definition{
		Name: "transform",
		Doc:  "applies a matrix to a position",
		Config: producer.Configuration{
			Inputs: []producer.InputDef{
				{ID: "matrix", Name: "Matrix", Required: true, Accepts: producer.AcceptsTypes(field.Matrix4)},
				vec3In("in", "Position"),
			},
			Outputs: []producer.OutputDef{fixedOut(field.Vector3)},
		},
		Create: func(req producer.Request) (producer.Step, error) {
			n := l.node(req)
			return StepFunc(func(b *Builder) error {
				m, err := n.in(b, "matrix")
				if err != nil {
					return err
				}
				p, err := n.in(b, "in")
				if err != nil {
					return err
				}
				p4, err := ast.NewConstruct(ast.Vec4, p, ast.LitFloat(1))
				if err != nil {
					return err
				}
				moved, err := ast.NewBinary(ast.OpMul, m, p4)
				if err != nil {
					return err
				}
				v, err := ast.NewSwizzle(moved, "xyz")
				return n.bind(b, "out", v, err)
			}), nil
		},
	}
}

// ---------------------------------------------------------------------------
// Logic nodes
// ---------------------------------------------------------------------------

var compareOps = map[graph.CompareOp]ast.BinaryOp{
	graph.CompareLess:         ast.OpLess,
	graph.CompareLessEqual:    ast.OpLessEqual,
	graph.CompareGreater:      ast.OpGreater,
	graph.CompareGreaterEqual: ast.OpGreaterEqual,
	graph.CompareEqual:        ast.OpEqual,
	graph.CompareNotEqual:     ast.OpNotEqual,
}

func (l library) compare() producer.Definition {
	return producer.Definition{
		Name: "compare",
		Doc:  "compares two floats",
		Config: producer.Configuration{
			Inputs:  []producer.InputDef{floatIn("in1", "A", true), floatIn("in2", "B", true)},
			Outputs: []producer.OutputDef{fixedOut(field.Boolean)},
		},
		Create: func(req producer.Request) (producer.Step, error) {
			d, err := dataAs[graph.CompareData](req.Node)
			if err != nil {
				return nil, err
			}
			op, ok := compareOps[d.Op]
			if !ok {
				return nil, fmt.Errorf("unknown comparison %q", d.Op)
			}
			n := l.node(req)
			return StepFunc(func(b *Builder) error {
				x, err := n.in(b, "in1")
				if err != nil {
					return err
				}
				y, err := n.in(b, "in2")
				if err != nil {
					return err
				}
				v, err := ast.NewBinary(op, x, y)
				return n.bind(b, "out", v, err)
			}), nil
		},
	}
}

func (l library) conditional() producer.Definition {
	return producer.Definition{
		Name: "conditional",
		Doc:  "picks the first value when the condition holds, else the second",
		Config: producer.Configuration{
			Inputs: []producer.InputDef{
				{ID: "cond", Name: "Condition", Required: true, Accepts: producer.AcceptsTypes(field.Boolean)},
				numericIn("in1", "Then"), numericIn("in2", "Else"),
			},
			Outputs: []producer.OutputDef{{
				ID: "out", Name: "Result", Types: producer.NumericTypes(),
				Resolve: func(in map[graph.FieldID][]field.FieldType) (field.FieldType, error) {
					then, els := in["in1"], in["in2"]
					if len(then) == 0 || len(els) == 0 {
						return field.Float, nil
					}
					if !field.Same(then[0], els[0]) {
						return nil, fmt.Errorf("branches differ: %s and %s", then[0].Name(), els[0].Name())
					}
					return then[0], nil
				},
			}},
		},
		Create: func(req producer.Request) (producer.Step, error) {
			n := l.node(req)
			return StepFunc(func(b *Builder) error {
				c, err := n.in(b, "cond")
				if err != nil {
					return err
				}
				x, err := n.in(b, "in1")
				if err != nil {
					return err
				}
				y, err := n.in(b, "in2")
				if err != nil {
					return err
				}
				v, err := ast.NewTernary(c, x, y)
				return n.bind(b, "out", v, err)
			}), nil
		},
	}
}

// ---------------------------------------------------------------------------
// Mesh, material and camera nodes
// ---------------------------------------------------------------------------

// meshStep reads a mesh attribute in the vertex stage, forwarding it to the
// fragment stage through a varying.
type meshStep struct {
	n       node
	attr    string
	varying string
	typ     ast.VarType
}

func (s meshStep) BuildVertex(b *Builder) error {
	a, err := b.Attribute(s.attr, s.typ)
	if err != nil {
		return err
	}
	v, err := b.Varying(s.varying, s.typ)
	if err != nil {
		return err
	}
	if !b.Assigned(s.varying) {
		if err := b.Assign(v, a); err != nil {
			return err
		}
	}
	return s.n.publish(b, "out", a)
}

func (s meshStep) BuildFragment(b *Builder) error {
	v, err := b.Varying(s.varying, s.typ)
	if err != nil {
		return err
	}
	return s.n.publish(b, "out", v)
}

func (l library) meshValue(name, doc, attr, varying string, t field.FieldType) producer.Definition {
	return producer.Definition{
		Name:   name,
		Doc:    doc,
		Config: producer.Configuration{Outputs: out(t)},
		Create: func(req producer.Request) (producer.Step, error) {
			ft, err := l.types.Resolve(t)
			if err != nil {
				return nil, err
			}
			return meshStep{n: l.node(req), attr: attr, varying: varying, typ: ft.Var}, nil
		},
	}
}

// uv returns the mesh texture coordinates for the builder's stage.
func uv(b *Builder) (ast.Operand, error) {
	if b.Stage() == StageVertex {
		return b.Attribute(AttrUV, ast.Vec2)
	}
	return b.Varying(VaryingUV, ast.Vec2)
}

func (l library) texture() producer.Definition {
	return producer.Definition{
		Name: "texture",
		Doc:  "samples a named texture; uv defaults to the mesh coordinates",
		Config: producer.Configuration{
			Inputs: []producer.InputDef{{
				ID: "uv", Name: "UV", Accepts: producer.AcceptsTypes(field.Vector2),
			}},
			Outputs: out(field.Color),
		},
		Create: func(req producer.Request) (producer.Step, error) {
			d, err := dataAs[graph.NameData](req.Node)
			if err != nil {
				return nil, err
			}
			if d.Name == "" {
				return nil, fmt.Errorf("texture has no name")
			}
			n := l.node(req)
			step := func(b *Builder) error {
				tex, err := b.Texture(UniformName(d.Name))
				if err != nil {
					return err
				}
				var coord ast.Operand
				if _, ok := n.Input("uv"); ok {
					coord, err = n.in(b, "uv")
				} else {
					coord, err = uv(b)
				}
				if err != nil {
					return err
				}
				if b.Stage() == StageVertex && !b.Assigned(VaryingUV) {
					if _, ok := n.Input("uv"); !ok {
						// The fragment stage reads the same coordinates.
						vary, err := b.Varying(VaryingUV, ast.Vec2)
						if err != nil {
							return err
						}
						if err := b.Assign(vary, coord); err != nil {
							return err
						}
					}
				}
				v, err := b.Sample(tex, coord)
				return n.bind(b, "out", v, err)
			}
			return StepFunc(step), nil
		},
	}
}

func (l library) cameraPosition() producer.Definition {
	return producer.Definition{
		Name:   "camera-position",
		Doc:    "world-space position of the camera",
		Config: producer.Configuration{Outputs: out(field.Vector3)},
		Create: func(req producer.Request) (producer.Step, error) {
			n := l.node(req)
			return StepFunc(func(b *Builder) error {
				cam, err := b.Uniform(CameraUniform, CameraType)
				if err != nil {
					return err
				}
				p, err := ast.NewProperty(cam, "position")
				if err != nil {
					return err
				}
				return n.publish(b, "out", p)
			}), nil
		},
	}
}

// outputStep writes the program outputs: the projected position in the
// vertex stage and the colour in the fragment stage.
type outputStep struct {
	n node
}

func (s outputStep) BuildVertex(b *Builder) error {
	var pos ast.Operand
	var err error
	if _, ok := s.n.Input("position"); ok {
		pos, err = s.n.in(b, "position")
	} else {
		pos, err = b.Attribute(AttrPosition, ast.Vec3)
	}
	if err != nil {
		return err
	}
	return b.Project(pos)
}

func (s outputStep) BuildFragment(b *Builder) error {
	c, err := s.n.in(b, "color")
	if err != nil {
		return err
	}
	return b.WriteColor(c)
}

func (l library) output() producer.Definition {
	colors := producer.AcceptsTypes(field.Float, field.Vector2, field.Vector3, field.Vector4, field.Color, field.Boolean)
	return producer.Definition{
		Name: "output",
		Doc:  "end of a shader graph; writes the surface colour and optionally a displaced position",
		Config: producer.Configuration{
			Inputs: []producer.InputDef{
				{ID: "color", Name: "Color", Required: true, Accepts: colors},
				{ID: "position", Name: "Position", Accepts: producer.AcceptsTypes(field.Vector3)},
			},
		},
		Create: func(req producer.Request) (producer.Step, error) {
			return outputStep{n: l.node(req)}, nil
		},
	}
}
