// Package field defines the semantic value types that flow through a graph
// and the registry that resolves them by name.
//
// A FieldType says what a value means (a float, a colour, a texture). How the
// value is represented in generated code is decided elsewhere: package shader
// decorates field types with shader-side variable types.
package field

import (
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// FieldType identifies the semantic kind of a value by a stable name.
type FieldType interface {
	// Name returns the registry key of the type.
	Name() string
	// Accepts reports whether value is a valid payload of this type when
	// evaluated by the numeric back end.
	Accepts(value any) bool
}

// Kind enumerates the built-in field types.
type Kind uint8

const (
	KindFloat Kind = iota
	KindVector2
	KindVector3
	KindVector4
	KindColor
	KindBoolean
	KindMatrix4
	KindTexture
)

var kindNames = [...]string{
	KindFloat:   "Float",
	KindVector2: "Vector2",
	KindVector3: "Vector3",
	KindVector4: "Vector4",
	KindColor:   "Color",
	KindBoolean: "Boolean",
	KindMatrix4: "Matrix4",
	KindTexture: "Texture",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Vec4 is a four-component value. sdfx only provides 2- and 3-component
// vectors, so colours and 4-vectors use this type.
type Vec4 struct {
	X, Y, Z, W float64
}

// Add returns a + b.
func (a Vec4) Add(b Vec4) Vec4 { return Vec4{a.X + b.X, a.Y + b.Y, a.Z + b.Z, a.W + b.W} }

// Sub returns a - b.
func (a Vec4) Sub(b Vec4) Vec4 { return Vec4{a.X - b.X, a.Y - b.Y, a.Z - b.Z, a.W - b.W} }

// Mul returns the component-wise product.
func (a Vec4) Mul(b Vec4) Vec4 { return Vec4{a.X * b.X, a.Y * b.Y, a.Z * b.Z, a.W * b.W} }

// Div returns the component-wise quotient.
func (a Vec4) Div(b Vec4) Vec4 { return Vec4{a.X / b.X, a.Y / b.Y, a.Z / b.Z, a.W / b.W} }

// MulScalar scales every component by k.
func (a Vec4) MulScalar(k float64) Vec4 { return Vec4{a.X * k, a.Y * k, a.Z * k, a.W * k} }

// Dot returns the dot product.
func (a Vec4) Dot(b Vec4) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z + a.W*b.W }

// Basic is one of the built-in field types.
type Basic struct {
	kind Kind
}

// Built-in field types.
var (
	Float   FieldType = Basic{KindFloat}
	Vector2 FieldType = Basic{KindVector2}
	Vector3 FieldType = Basic{KindVector3}
	Vector4 FieldType = Basic{KindVector4}
	Color   FieldType = Basic{KindColor}
	Boolean FieldType = Basic{KindBoolean}
	Matrix4 FieldType = Basic{KindMatrix4}
	Texture FieldType = Basic{KindTexture}
)

// Builtins returns every built-in field type.
func Builtins() []FieldType {
	return []FieldType{Float, Vector2, Vector3, Vector4, Color, Boolean, Matrix4, Texture}
}

// Kind returns the built-in kind.
func (b Basic) Kind() Kind { return b.kind }

// Name implements FieldType.
func (b Basic) Name() string { return b.kind.String() }

func (b Basic) String() string { return b.Name() }

// Accepts implements FieldType.
func (b Basic) Accepts(value any) bool {
	switch b.kind {
	case KindFloat:
		_, ok := value.(float64)
		return ok
	case KindVector2:
		_, ok := value.(v2.Vec)
		return ok
	case KindVector3:
		_, ok := value.(v3.Vec)
		return ok
	case KindVector4, KindColor:
		_, ok := value.(Vec4)
		return ok
	case KindBoolean:
		_, ok := value.(bool)
		return ok
	case KindMatrix4:
		_, ok := value.(sdf.M44)
		return ok
	case KindTexture:
		s, ok := value.(string)
		return ok && s != ""
	}
	return false
}

// Size returns the number of float components of a built-in numeric type:
// 1 for Float, N for VectorN, 4 for Color. Other types return 0.
func Size(t FieldType) int {
	b, ok := t.(Basic)
	if !ok {
		return 0
	}
	switch b.kind {
	case KindFloat:
		return 1
	case KindVector2:
		return 2
	case KindVector3:
		return 3
	case KindVector4, KindColor:
		return 4
	}
	return 0
}

// VectorOfSize returns the float or vector type with n components.
func VectorOfSize(n int) (FieldType, bool) {
	switch n {
	case 1:
		return Float, true
	case 2:
		return Vector2, true
	case 3:
		return Vector3, true
	case 4:
		return Vector4, true
	}
	return nil, false
}

// Same reports whether two field types are the same type.
func Same(a, b FieldType) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Name() == b.Name()
}

// Numeric reports whether t is Float, a vector or Color.
func Numeric(t FieldType) bool {
	return Size(t) > 0
}
