// Package ast is a typed expression tree for shader code.
//
// Every Operand carries its VarType. Constructors check that the type of a
// composed operand follows from the types of its parts and fail with a
// ConstructionError otherwise; there is no implicit widening beyond scalar
// broadcast in arithmetic. Conversions are explicit Construct operands.
package ast

import (
	"fmt"
	"slices"
)

// TypeKind is the shape of a VarType.
type TypeKind uint8

const (
	KindVoid TypeKind = iota
	KindScalar
	KindVector
	KindMatrix
	KindSampler
	KindStruct
)

// ScalarKind is the element type of scalars, vectors and matrices.
type ScalarKind uint8

const (
	ScalarFloat ScalarKind = iota
	ScalarInt
	ScalarUint
	ScalarBool
)

func (s ScalarKind) String() string {
	switch s {
	case ScalarFloat:
		return "float"
	case ScalarInt:
		return "int"
	case ScalarUint:
		return "uint"
	case ScalarBool:
		return "bool"
	}
	return fmt.Sprintf("ScalarKind(%d)", s)
}

// VarType is the type of an operand. VarTypes are comparable; two struct
// types are equal only when they share the same *StructDef.
type VarType struct {
	Kind   TypeKind
	Scalar ScalarKind
	Size   int // components of a vector, columns of a square matrix
	Struct *StructDef
}

// Built-in types.
var (
	Void      = VarType{Kind: KindVoid}
	Float     = VarType{Kind: KindScalar, Scalar: ScalarFloat, Size: 1}
	Int       = VarType{Kind: KindScalar, Scalar: ScalarInt, Size: 1}
	Uint      = VarType{Kind: KindScalar, Scalar: ScalarUint, Size: 1}
	Bool      = VarType{Kind: KindScalar, Scalar: ScalarBool, Size: 1}
	Vec2      = Vec(2)
	Vec3      = Vec(3)
	Vec4      = Vec(4)
	Mat3      = VarType{Kind: KindMatrix, Scalar: ScalarFloat, Size: 3}
	Mat4      = VarType{Kind: KindMatrix, Scalar: ScalarFloat, Size: 4}
	Sampler2D = VarType{Kind: KindSampler}
)

// Vec returns the float vector type with n components; Vec(1) is Float.
func Vec(n int) VarType {
	if n == 1 {
		return Float
	}
	return VarType{Kind: KindVector, Scalar: ScalarFloat, Size: n}
}

// IsScalar reports whether t is a scalar.
func (t VarType) IsScalar() bool { return t.Kind == KindScalar }

// IsVector reports whether t is a vector.
func (t VarType) IsVector() bool { return t.Kind == KindVector }

// IsNumeric reports whether t is a non-bool scalar, vector or matrix.
func (t VarType) IsNumeric() bool {
	switch t.Kind {
	case KindScalar, KindVector, KindMatrix:
		return t.Scalar != ScalarBool
	}
	return false
}

// IsFloating reports whether t is a float scalar or vector.
func (t VarType) IsFloating() bool {
	return (t.Kind == KindScalar || t.Kind == KindVector) && t.Scalar == ScalarFloat
}

// Components returns the number of scalar components of a scalar or vector,
// and 0 for everything else.
func (t VarType) Components() int {
	switch t.Kind {
	case KindScalar:
		return 1
	case KindVector:
		return t.Size
	}
	return 0
}

// String returns the GLSL spelling of the type.
func (t VarType) String() string {
	switch t.Kind {
	case KindVoid:
		return "void"
	case KindScalar:
		return t.Scalar.String()
	case KindVector:
		switch t.Scalar {
		case ScalarInt:
			return fmt.Sprintf("ivec%d", t.Size)
		case ScalarUint:
			return fmt.Sprintf("uvec%d", t.Size)
		case ScalarBool:
			return fmt.Sprintf("bvec%d", t.Size)
		}
		return fmt.Sprintf("vec%d", t.Size)
	case KindMatrix:
		return fmt.Sprintf("mat%d", t.Size)
	case KindSampler:
		return "sampler2D"
	case KindStruct:
		if t.Struct != nil {
			return t.Struct.Name
		}
	}
	return "<invalid>"
}

// StructField is one member of a struct type.
type StructField struct {
	Name string
	Type VarType
}

// StructDef declares a struct type.
type StructDef struct {
	Name   string
	Fields []StructField
}

// NewStruct declares a struct type and returns its VarType.
func NewStruct(name string, fields ...StructField) VarType {
	return VarType{Kind: KindStruct, Struct: &StructDef{Name: name, Fields: fields}}
}

// Field returns the type of the named member.
func (s *StructDef) Field(name string) (VarType, bool) {
	i := slices.IndexFunc(s.Fields, func(f StructField) bool { return f.Name == name })
	if i < 0 {
		return VarType{}, false
	}
	return s.Fields[i].Type, true
}
