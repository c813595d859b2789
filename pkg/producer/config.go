package producer

import (
	"fmt"
	"slices"

	"github.com/chazu/shadegraph/pkg/field"
	"github.com/chazu/shadegraph/pkg/graph"
)

// Side is where an input connector is drawn by editors.
type Side uint8

const (
	SideLeft Side = iota
	SideTop
	SideRight
	SideBottom
)

// AcceptFunc reports whether an input accepts values of a field type.
type AcceptFunc func(field.FieldType) bool

// ResolveFunc computes the concrete type of an output from the types
// currently connected to the node's inputs.
type ResolveFunc func(inputs map[graph.FieldID][]field.FieldType) (field.FieldType, error)

// InputDef declares one input slot.
type InputDef struct {
	ID       graph.FieldID
	Name     string
	Required bool
	Side     Side
	Accepts  AcceptFunc
	Multiple bool // accepts more than one connection
}

// OutputDef declares one output slot. Types lists every type the output may
// produce; the resolved type is always one of them.
type OutputDef struct {
	ID      graph.FieldID
	Name    string
	Types   []field.FieldType
	Resolve ResolveFunc // nil means Types[0]
}

// Configuration is the static descriptor of a node type.
type Configuration struct {
	Inputs  []InputDef
	Outputs []OutputDef
}

// Input returns the input with the given ID.
func (c Configuration) Input(id graph.FieldID) (InputDef, bool) {
	i := slices.IndexFunc(c.Inputs, func(d InputDef) bool { return d.ID == id })
	if i < 0 {
		return InputDef{}, false
	}
	return c.Inputs[i], true
}

// Output returns the output with the given ID.
func (c Configuration) Output(id graph.FieldID) (OutputDef, bool) {
	i := slices.IndexFunc(c.Outputs, func(d OutputDef) bool { return d.ID == id })
	if i < 0 {
		return OutputDef{}, false
	}
	return c.Outputs[i], true
}

// ResolveOutputs resolves every output against the given input types and
// checks that each result is one of the output's declared types.
func (c Configuration) ResolveOutputs(inputs map[graph.FieldID][]field.FieldType) (map[graph.FieldID]field.FieldType, error) {
	out := make(map[graph.FieldID]field.FieldType, len(c.Outputs))
	for _, o := range c.Outputs {
		t, err := o.resolve(inputs)
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", o.ID, err)
		}
		out[o.ID] = t
	}
	return out, nil
}

func (o OutputDef) resolve(inputs map[graph.FieldID][]field.FieldType) (field.FieldType, error) {
	if len(o.Types) == 0 {
		return nil, fmt.Errorf("declares no types")
	}
	if o.Resolve == nil {
		return o.Types[0], nil
	}
	t, err := o.Resolve(inputs)
	if err != nil {
		return nil, err
	}
	if !slices.ContainsFunc(o.Types, func(d field.FieldType) bool { return field.Same(d, t) }) {
		return nil, fmt.Errorf("resolved type %s is not one of its declared types", t.Name())
	}
	return t, nil
}

// ---------------------------------------------------------------------------
// Acceptance and resolution helpers
// ---------------------------------------------------------------------------

// AcceptsTypes accepts exactly the listed types.
func AcceptsTypes(types ...field.FieldType) AcceptFunc {
	return func(t field.FieldType) bool {
		return slices.ContainsFunc(types, func(d field.FieldType) bool { return field.Same(d, t) })
	}
}

// AcceptsNumeric accepts floats, vectors and colours.
func AcceptsNumeric(t field.FieldType) bool { return field.Numeric(t) }

// AcceptsAny accepts every type.
func AcceptsAny(field.FieldType) bool { return true }

// Fixed always resolves to t.
func Fixed(t field.FieldType) ResolveFunc {
	return func(map[graph.FieldID][]field.FieldType) (field.FieldType, error) { return t, nil }
}

// SameAs resolves to the type connected to input id, or fallback when the
// input is not connected.
func SameAs(id graph.FieldID, fallback field.FieldType) ResolveFunc {
	return func(inputs map[graph.FieldID][]field.FieldType) (field.FieldType, error) {
		if ts := inputs[id]; len(ts) > 0 {
			return ts[0], nil
		}
		return fallback, nil
	}
}

// Arithmetic resolves component-wise operations over the given inputs. A
// float combines with anything; two vectors must have the same size. A colour
// mixed with a plain 4-vector yields a Vector4. With nothing connected the
// result is Float.
func Arithmetic(ids ...graph.FieldID) ResolveFunc {
	return func(inputs map[graph.FieldID][]field.FieldType) (field.FieldType, error) {
		var result field.FieldType
		for _, id := range ids {
			for _, t := range inputs[id] {
				switch {
				case !field.Numeric(t):
					return nil, fmt.Errorf("input %q: %s is not numeric", id, t.Name())
				case result == nil || field.Size(result) == 1:
					result = t
				case field.Size(t) == 1:
				case field.Size(t) != field.Size(result):
					return nil, fmt.Errorf("cannot combine %s with %s", result.Name(), t.Name())
				case !field.Same(t, result):
					result = field.Vector4
				}
			}
		}
		if result == nil {
			return field.Float, nil
		}
		return result, nil
	}
}

// SameSize resolves to result once every connected type on ids has the same
// number of components.
func SameSize(result field.FieldType, ids ...graph.FieldID) ResolveFunc {
	return func(inputs map[graph.FieldID][]field.FieldType) (field.FieldType, error) {
		size := 0
		for _, id := range ids {
			for _, t := range inputs[id] {
				switch {
				case size == 0:
					size = field.Size(t)
				case field.Size(t) != size:
					return nil, fmt.Errorf("inputs differ in size")
				}
			}
		}
		return result, nil
	}
}

// NumericTypes lists the types a component-wise output may take.
func NumericTypes() []field.FieldType {
	return []field.FieldType{field.Float, field.Vector2, field.Vector3, field.Vector4, field.Color}
}
