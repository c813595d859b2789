package shader

import (
	"fmt"
	"sync"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/shadegraph/pkg/field"
	"github.com/chazu/shadegraph/pkg/shader/ast"
)

// FieldType pairs a graph field type with the shader type it lowers to.
type FieldType struct {
	Field field.FieldType
	Var   ast.VarType
}

// Literal converts a numeric payload of the field type into a constant
// operand.
func (t FieldType) Literal(v any) (ast.Operand, error) {
	if !t.Field.Accepts(v) {
		return nil, fmt.Errorf("%T is not a %s", v, t.Field.Name())
	}
	vec := func(xs ...float64) (ast.Operand, error) {
		args, err := floatLiterals(xs)
		if err != nil {
			return nil, err
		}
		return ast.NewConstruct(t.Var, args...)
	}
	switch v := v.(type) {
	case float64:
		return ast.NewLitFloat(v)
	case bool:
		return ast.LitBool(v), nil
	case v2.Vec:
		return vec(v.X, v.Y)
	case v3.Vec:
		return vec(v.X, v.Y, v.Z)
	case field.Vec4:
		return vec(v.X, v.Y, v.Z, v.W)
	}
	return nil, fmt.Errorf("%s has no literal form", t.Field.Name())
}

func floatLiterals(xs []float64) ([]ast.Operand, error) {
	out := make([]ast.Operand, len(xs))
	for i, x := range xs {
		lit, err := ast.NewLitFloat(x)
		if err != nil {
			return nil, err
		}
		out[i] = lit
	}
	return out, nil
}

// Zero returns the zero value of the type as an operand.
func (t FieldType) Zero() (ast.Operand, error) {
	switch {
	case t.Var == ast.Float:
		return ast.LitFloat(0), nil
	case t.Var == ast.Bool:
		return ast.LitBool(false), nil
	case t.Var.IsVector():
		return ast.NewConstruct(t.Var, ast.LitFloat(0))
	}
	return nil, fmt.Errorf("%s has no zero value", t.Field.Name())
}

// FieldTypes maps graph field types to shader types.
type FieldTypes struct {
	mu    sync.RWMutex
	types map[string]FieldType
	order []string
}

// NewFieldTypes returns an empty mapping.
func NewFieldTypes() *FieldTypes {
	return &FieldTypes{types: map[string]FieldType{}}
}

// DefaultFieldTypes maps every built-in field type.
func DefaultFieldTypes() *FieldTypes {
	ft := NewFieldTypes()
	ft.Register(
		FieldType{field.Float, ast.Float},
		FieldType{field.Vector2, ast.Vec2},
		FieldType{field.Vector3, ast.Vec3},
		FieldType{field.Vector4, ast.Vec4},
		FieldType{field.Color, ast.Vec4},
		FieldType{field.Boolean, ast.Bool},
		FieldType{field.Matrix4, ast.Mat4},
		FieldType{field.Texture, ast.Sampler2D},
	)
	return ft
}

// Register adds mappings; a later mapping for the same field type replaces
// the earlier one.
func (r *FieldTypes) Register(types ...FieldType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range types {
		name := t.Field.Name()
		if _, ok := r.types[name]; !ok {
			r.order = append(r.order, name)
		}
		r.types[name] = t
	}
}

// Resolve returns the shader mapping of a field type.
func (r *FieldTypes) Resolve(t field.FieldType) (FieldType, error) {
	if t == nil {
		return FieldType{}, &field.ResolutionError{Registry: "shader field type", Key: "<nil>"}
	}
	return r.ByName(t.Name())
}

// ByName returns the mapping of the field type called name.
func (r *FieldTypes) ByName(name string) (FieldType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ft, ok := r.types[name]
	if !ok {
		return FieldType{}, &field.ResolutionError{Registry: "shader field type", Key: name}
	}
	return ft, nil
}

// Types lists the mapped field types in registration order.
func (r *FieldTypes) Types() []FieldType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]FieldType, len(r.order))
	for i, name := range r.order {
		out[i] = r.types[name]
	}
	return out
}
