package ast

import (
	"fmt"
	"math"
	"strings"
)

// ConstructionError reports an operation that cannot be represented for
// the types of its operands.
type ConstructionError struct {
	Op     string
	Reason string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("cannot build %s: %s", e.Op, e.Reason)
}

func constructionErr(op, format string, args ...any) error {
	return &ConstructionError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// Operand is a typed expression.
type Operand interface {
	Type() VarType
	operand()
}

// ---------------------------------------------------------------------------
// Leaves
// ---------------------------------------------------------------------------

// Literal is a scalar constant. Value is a float64, int64, uint64 or bool
// matching the type.
type Literal struct {
	Value any
	typ   VarType
}

func (l Literal) Type() VarType { return l.typ }
func (Literal) operand()        {}

// LitFloat returns a float literal. v must be finite, see NewLitFloat.
func LitFloat(v float64) Literal { return Literal{Value: v, typ: Float} }

// NewLitFloat returns a float literal, failing for infinities and NaN,
// which neither GLSL nor WGSL can spell.
func NewLitFloat(v float64) (Literal, error) {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return Literal{}, constructionErr("float literal", "%g is not finite", v)
	}
	return LitFloat(v), nil
}

// LitInt returns an int literal.
func LitInt(v int64) Literal { return Literal{Value: v, typ: Int} }

// LitUint returns a uint literal.
func LitUint(v uint64) Literal { return Literal{Value: v, typ: Uint} }

// LitBool returns a bool literal.
func LitBool(v bool) Literal { return Literal{Value: v, typ: Bool} }

// Variable is a named value: a temporary, a uniform, an attribute, a
// varying or a language builtin such as gl_Position.
type Variable struct {
	Name string
	typ  VarType
}

func (v Variable) Type() VarType { return v.typ }
func (Variable) operand()        {}

// Var returns a variable reference.
func Var(name string, t VarType) Variable { return Variable{Name: name, typ: t} }

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Property selects a struct member.
type Property struct {
	Of   Operand
	Name string
	typ  VarType
}

func (p Property) Type() VarType { return p.typ }
func (Property) operand()        {}

// NewProperty selects member name of a struct operand.
func NewProperty(of Operand, name string) (Property, error) {
	t := of.Type()
	if t.Kind != KindStruct || t.Struct == nil {
		return Property{}, constructionErr("property ."+name, "%s is not a struct", t)
	}
	ft, ok := t.Struct.Field(name)
	if !ok {
		return Property{}, constructionErr("property ."+name, "struct %s has no member %q", t, name)
	}
	return Property{Of: of, Name: name, typ: ft}, nil
}

// Swizzle selects vector components.
type Swizzle struct {
	Of         Operand
	Components string
	typ        VarType
}

func (s Swizzle) Type() VarType { return s.typ }
func (Swizzle) operand()        {}

var swizzleSets = []string{"xyzw", "rgba", "stpq"}

// NewSwizzle selects one to four components of a vector operand, using one
// of the letter sets xyzw, rgba or stpq.
func NewSwizzle(of Operand, components string) (Swizzle, error) {
	op := "swizzle ." + components
	t := of.Type()
	if !t.IsVector() {
		return Swizzle{}, constructionErr(op, "%s is not a vector", t)
	}
	if n := len(components); n < 1 || n > 4 {
		return Swizzle{}, constructionErr(op, "selects %d components", n)
	}
	set := ""
	for _, s := range swizzleSets {
		if strings.IndexByte(s, components[0]) >= 0 {
			set = s
		}
	}
	if set == "" {
		return Swizzle{}, constructionErr(op, "unknown component %q", components[0])
	}
	for i := 0; i < len(components); i++ {
		idx := strings.IndexByte(set, components[i])
		if idx < 0 {
			return Swizzle{}, constructionErr(op, "component %q mixes letter sets", components[i])
		}
		if idx >= t.Size {
			return Swizzle{}, constructionErr(op, "component %q is out of range for %s", components[i], t)
		}
	}
	rt := VarType{Kind: KindVector, Scalar: t.Scalar, Size: len(components)}
	if len(components) == 1 {
		rt = VarType{Kind: KindScalar, Scalar: t.Scalar, Size: 1}
	}
	return Swizzle{Of: of, Components: components, typ: rt}, nil
}

// ---------------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------------

// UnaryOp is a prefix operator.
type UnaryOp string

const (
	OpNeg UnaryOp = "-"
	OpNot UnaryOp = "!"
)

// Unary applies a prefix operator.
type Unary struct {
	Op  UnaryOp
	X   Operand
	typ VarType
}

func (u Unary) Type() VarType { return u.typ }
func (Unary) operand()        {}

// NewUnary applies op to x. Negation needs a numeric operand, logical not
// a bool scalar.
func NewUnary(op UnaryOp, x Operand) (Unary, error) {
	t := x.Type()
	switch op {
	case OpNeg:
		if !t.IsNumeric() {
			return Unary{}, constructionErr("unary -", "%s is not numeric", t)
		}
	case OpNot:
		if t != Bool {
			return Unary{}, constructionErr("unary !", "%s is not bool", t)
		}
	default:
		return Unary{}, constructionErr("unary "+string(op), "unknown operator")
	}
	return Unary{Op: op, X: x, typ: t}, nil
}

// BinaryOp is an infix operator.
type BinaryOp string

const (
	OpAdd          BinaryOp = "+"
	OpSub          BinaryOp = "-"
	OpMul          BinaryOp = "*"
	OpDiv          BinaryOp = "/"
	OpLess         BinaryOp = "<"
	OpLessEqual    BinaryOp = "<="
	OpGreater      BinaryOp = ">"
	OpGreaterEqual BinaryOp = ">="
	OpEqual        BinaryOp = "=="
	OpNotEqual     BinaryOp = "!="
	OpAnd          BinaryOp = "&&"
	OpOr           BinaryOp = "||"
)

// Binary applies an infix operator.
type Binary struct {
	Op   BinaryOp
	X, Y Operand
	typ  VarType
}

func (b Binary) Type() VarType { return b.typ }
func (Binary) operand()        {}

// NewBinary applies op to x and y.
//
// Arithmetic needs numeric operands of the same element type: equal types,
// a scalar with a vector or matrix (broadcast), or a linear algebra product
// (matrix*vector, vector*matrix, matrix*matrix) for *. Ordering comparisons
// need equal numeric scalars; equality needs equal types. Both yield bool.
// && and || need bool scalars.
func NewBinary(op BinaryOp, x, y Operand) (Binary, error) {
	tx, ty := x.Type(), y.Type()
	name := "binary " + string(op)
	mismatch := func() (Binary, error) {
		return Binary{}, constructionErr(name, "operands %s and %s", tx, ty)
	}
	var rt VarType
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv:
		if !tx.IsNumeric() || !ty.IsNumeric() || tx.Scalar != ty.Scalar {
			return mismatch()
		}
		switch {
		case tx == ty:
			rt = tx
		case tx.IsScalar():
			rt = ty
		case ty.IsScalar():
			rt = tx
		case op == OpMul && tx.Kind == KindMatrix && ty.IsVector() && tx.Size == ty.Size:
			rt = ty
		case op == OpMul && tx.IsVector() && ty.Kind == KindMatrix && tx.Size == ty.Size:
			rt = tx
		default:
			return mismatch()
		}
	case OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		if !tx.IsScalar() || !tx.IsNumeric() || tx != ty {
			return mismatch()
		}
		rt = Bool
	case OpEqual, OpNotEqual:
		if tx != ty || tx.Kind == KindSampler || tx.Kind == KindVoid {
			return mismatch()
		}
		rt = Bool
	case OpAnd, OpOr:
		if tx != Bool || ty != Bool {
			return mismatch()
		}
		rt = Bool
	default:
		return Binary{}, constructionErr(name, "unknown operator")
	}
	return Binary{Op: op, X: x, Y: y, typ: rt}, nil
}

// Ternary selects between two operands of the same type.
type Ternary struct {
	Cond, Then, Else Operand
	typ              VarType
}

func (t Ternary) Type() VarType { return t.typ }
func (Ternary) operand()        {}

// NewTernary builds cond ? then : els.
func NewTernary(cond, then, els Operand) (Ternary, error) {
	if cond.Type() != Bool {
		return Ternary{}, constructionErr("ternary", "condition is %s, not bool", cond.Type())
	}
	if then.Type() != els.Type() {
		return Ternary{}, constructionErr("ternary", "branches are %s and %s", then.Type(), els.Type())
	}
	return Ternary{Cond: cond, Then: then, Else: els, typ: then.Type()}, nil
}

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

// Call invokes a function. Built-in functions are created with NewCall,
// which derives the result type; other functions with NewCallTyped.
type Call struct {
	Func string
	Args []Operand
	typ  VarType
}

func (c Call) Type() VarType { return c.typ }
func (Call) operand()        {}

// NewCallTyped calls a function whose signature is not known to this
// package. The caller asserts the result type.
func NewCallTyped(fn string, result VarType, args ...Operand) Call {
	return Call{Func: fn, Args: args, typ: result}
}

// Construct builds a value of a vector, matrix, scalar or struct type from
// its parts, e.g. vec4(rgb, 1.0). It is the only way to convert between
// types.
type Construct struct {
	Args []Operand
	typ  VarType
}

func (c Construct) Type() VarType { return c.typ }
func (Construct) operand()        {}

// NewConstruct builds t from args.
//
// A vector takes either one scalar (splat) or operands whose components
// add up to its size. A scalar takes one numeric scalar (conversion). A
// matrix takes one float (diagonal) or Size vectors of Size components. A
// struct takes one operand per member, in order, with matching types.
func NewConstruct(t VarType, args ...Operand) (Construct, error) {
	op := "constructor " + t.String()
	if len(args) == 0 {
		return Construct{}, constructionErr(op, "no arguments")
	}
	switch t.Kind {
	case KindScalar:
		if len(args) != 1 || !args[0].Type().IsScalar() {
			return Construct{}, constructionErr(op, "needs one scalar")
		}
	case KindVector:
		if len(args) == 1 && args[0].Type().IsScalar() {
			break
		}
		n := 0
		for _, a := range args {
			at := a.Type()
			if at.Components() == 0 || at.Scalar != t.Scalar {
				return Construct{}, constructionErr(op, "argument of type %s", at)
			}
			n += at.Components()
		}
		if n != t.Size {
			return Construct{}, constructionErr(op, "%d components given, need %d", n, t.Size)
		}
	case KindMatrix:
		if len(args) == 1 && args[0].Type() == Float {
			break
		}
		if len(args) != t.Size {
			return Construct{}, constructionErr(op, "needs %d columns", t.Size)
		}
		for _, a := range args {
			if a.Type() != Vec(t.Size) {
				return Construct{}, constructionErr(op, "column of type %s", a.Type())
			}
		}
	case KindStruct:
		fields := t.Struct.Fields
		if len(args) != len(fields) {
			return Construct{}, constructionErr(op, "%d arguments for %d members", len(args), len(fields))
		}
		for i, f := range fields {
			if args[i].Type() != f.Type {
				return Construct{}, constructionErr(op, "member %s is %s, got %s", f.Name, f.Type, args[i].Type())
			}
		}
	default:
		return Construct{}, constructionErr(op, "type cannot be constructed")
	}
	return Construct{Args: args, typ: t}, nil
}
