// Package codegen renders shader AST statements as source text.
//
// Expressions are rendered recursively with the fewest parentheses the
// operator precedence allows. GLSL is the primary dialect; WGSL spells
// types, declarations, ternaries and texture sampling its own way.
package codegen

import (
	"fmt"
	"strings"

	"github.com/chazu/shadegraph/pkg/shader/ast"
)

// wgslSwizzle respells the stpq letter set, which WGSL lacks.
var wgslSwizzle = strings.NewReplacer("s", "x", "t", "y", "p", "z", "q", "w")

// Dialect selects the target shading language.
type Dialect uint8

const (
	GLSL Dialect = iota
	WGSL
)

func (d Dialect) String() string {
	switch d {
	case GLSL:
		return "glsl"
	case WGSL:
		return "wgsl"
	}
	return fmt.Sprintf("Dialect(%d)", d)
}

// ParseDialect parses "glsl" or "wgsl".
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "glsl":
		return GLSL, nil
	case "wgsl":
		return WGSL, nil
	}
	return 0, fmt.Errorf("unknown shader dialect %q", s)
}

// Emit renders one statement per line.
func Emit(stmts []ast.Statement, d Dialect) string {
	w := NewWriter(d)
	w.Statements(stmts)
	return w.String()
}

// Writer accumulates indented source text.
type Writer struct {
	out     strings.Builder
	indent  int
	dialect Dialect
}

// NewWriter creates a writer for d.
func NewWriter(d Dialect) *Writer {
	return &Writer{dialect: d}
}

// Dialect returns the writer's dialect.
func (w *Writer) Dialect() Dialect { return w.dialect }

// Line writes one indented line.
//
//nolint:goprintffuncname
func (w *Writer) Line(format string, args ...any) {
	for i := 0; i < w.indent; i++ {
		w.out.WriteString("    ")
	}
	if len(args) == 0 {
		w.out.WriteString(format)
	} else {
		fmt.Fprintf(&w.out, format, args...)
	}
	w.out.WriteByte('\n')
}

// Blank writes an empty line.
func (w *Writer) Blank() { w.out.WriteByte('\n') }

// Push increases indentation.
func (w *Writer) Push() { w.indent++ }

// Pop decreases indentation.
func (w *Writer) Pop() {
	if w.indent > 0 {
		w.indent--
	}
}

// Statements writes each statement on its own line.
func (w *Writer) Statements(stmts []ast.Statement) {
	for _, s := range stmts {
		w.Statement(s)
	}
}

// Statement writes one statement.
func (w *Writer) Statement(s ast.Statement) {
	switch s := s.(type) {
	case ast.Declare:
		if w.dialect == WGSL {
			w.Line("let %s: %s = %s;", s.Var.Name, TypeName(s.Var.Type(), WGSL), Expr(s.Value, WGSL))
			return
		}
		w.Line("%s %s = %s;", TypeName(s.Var.Type(), GLSL), s.Var.Name, Expr(s.Value, GLSL))
	case ast.Assign:
		w.Line("%s = %s;", Expr(s.Target, w.dialect), Expr(s.Value, w.dialect))
	default:
		panic(fmt.Sprintf("codegen: unknown statement %T", s))
	}
}

// String returns the text written so far.
func (w *Writer) String() string { return w.out.String() }

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// TypeName spells t in dialect d.
func TypeName(t ast.VarType, d Dialect) string {
	if d == GLSL {
		return t.String()
	}
	switch t.Kind {
	case ast.KindVoid:
		return ""
	case ast.KindScalar:
		return wgslScalar(t.Scalar)
	case ast.KindVector:
		return fmt.Sprintf("vec%d<%s>", t.Size, wgslScalar(t.Scalar))
	case ast.KindMatrix:
		return fmt.Sprintf("mat%dx%d<%s>", t.Size, t.Size, wgslScalar(t.Scalar))
	case ast.KindSampler:
		return "texture_2d<f32>"
	}
	return t.String()
}

func wgslScalar(s ast.ScalarKind) string {
	switch s {
	case ast.ScalarInt:
		return "i32"
	case ast.ScalarUint:
		return "u32"
	case ast.ScalarBool:
		return "bool"
	}
	return "f32"
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// Operator precedences, higher binds tighter.
const (
	precTernary  = 3
	precOr       = 4
	precAnd      = 6
	precEquality = 10
	precRelation = 11
	precAdditive = 13
	precMultiply = 14
	precUnary    = 15
	precPostfix  = 17
)

func binaryPrec(op ast.BinaryOp) int {
	switch op {
	case ast.OpMul, ast.OpDiv:
		return precMultiply
	case ast.OpAdd, ast.OpSub:
		return precAdditive
	case ast.OpLess, ast.OpLessEqual, ast.OpGreater, ast.OpGreaterEqual:
		return precRelation
	case ast.OpEqual, ast.OpNotEqual:
		return precEquality
	case ast.OpAnd:
		return precAnd
	case ast.OpOr:
		return precOr
	}
	return precTernary
}

func precedence(op ast.Operand, d Dialect) int {
	switch op := op.(type) {
	case ast.Literal:
		if f, ok := op.Value.(float64); ok && f < 0 {
			return precUnary
		}
		if i, ok := op.Value.(int64); ok && i < 0 {
			return precUnary
		}
	case ast.Unary:
		return precUnary
	case ast.Binary:
		return binaryPrec(op.Op)
	case ast.Ternary:
		if d == WGSL {
			return precPostfix // select(...)
		}
		return precTernary
	}
	return precPostfix
}

// Expr renders an operand.
func Expr(op ast.Operand, d Dialect) string {
	var b strings.Builder
	writeExpr(&b, op, d)
	return b.String()
}

func writeExpr(b *strings.Builder, op ast.Operand, d Dialect) {
	switch op := op.(type) {
	case ast.Literal:
		b.WriteString(literal(op, d))
	case ast.Variable:
		b.WriteString(op.Name)
	case ast.Property:
		writeOperand(b, op.Of, d, precPostfix)
		b.WriteByte('.')
		b.WriteString(op.Name)
	case ast.Swizzle:
		writeOperand(b, op.Of, d, precPostfix)
		b.WriteByte('.')
		if d == WGSL {
			b.WriteString(wgslSwizzle.Replace(op.Components))
		} else {
			b.WriteString(op.Components)
		}
	case ast.Unary:
		b.WriteString(string(op.Op))
		// "- -x" would lex as a decrement, so nested prefixes get parentheses.
		writeOperand(b, op.X, d, precUnary+1)
	case ast.Binary:
		p := binaryPrec(op.Op)
		writeOperand(b, op.X, d, operandMin(op, op.X, p, d))
		fmt.Fprintf(b, " %s ", op.Op)
		writeOperand(b, op.Y, d, operandMin(op, op.Y, p+1, d))
	case ast.Ternary:
		if d == WGSL {
			writeCall(b, "select", []ast.Operand{op.Else, op.Then, op.Cond}, d)
			return
		}
		writeOperand(b, op.Cond, d, precTernary+1)
		b.WriteString(" ? ")
		writeOperand(b, op.Then, d, precTernary)
		b.WriteString(" : ")
		writeOperand(b, op.Else, d, precTernary)
	case ast.Call:
		writeBuiltinCall(b, op, d)
	case ast.Construct:
		writeCall(b, TypeName(op.Type(), d), op.Args, d)
	default:
		panic(fmt.Sprintf("codegen: unknown operand %T", op))
	}
}

// operandMin returns the lowest precedence an operand of a binary
// expression may have without parentheses. WGSL does not let && and || be
// mixed without parentheses.
func operandMin(parent ast.Binary, child ast.Operand, least int, d Dialect) int {
	if d != WGSL || !isLogical(parent.Op) {
		return least
	}
	if c, ok := child.(ast.Binary); ok && isLogical(c.Op) && c.Op != parent.Op {
		return precPostfix
	}
	return least
}

func isLogical(op ast.BinaryOp) bool { return op == ast.OpAnd || op == ast.OpOr }

// writeOperand writes op, parenthesized when it binds looser than least.
func writeOperand(b *strings.Builder, op ast.Operand, d Dialect, least int) {
	if precedence(op, d) < least {
		b.WriteByte('(')
		writeExpr(b, op, d)
		b.WriteByte(')')
		return
	}
	writeExpr(b, op, d)
}

func writeCall(b *strings.Builder, fn string, args []ast.Operand, d Dialect) {
	b.WriteString(fn)
	b.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		writeExpr(b, a, d)
	}
	b.WriteByte(')')
}

// SamplerSuffix names the WGSL sampler paired with a texture variable.
const SamplerSuffix = "_sampler"

func writeBuiltinCall(b *strings.Builder, c ast.Call, d Dialect) {
	if d == GLSL {
		writeCall(b, c.Func, c.Args, d)
		return
	}
	switch c.Func {
	case "texture", "textureLod":
		// WGSL samples a texture through a separate sampler binding.
		fn := "textureSample"
		if c.Func == "textureLod" {
			fn = "textureSampleLevel"
		}
		args := append([]ast.Operand{c.Args[0], samplerOf(c.Args[0])}, c.Args[1:]...)
		writeCall(b, fn, args, d)
	case "inversesqrt":
		writeCall(b, "inverseSqrt", c.Args, d)
	default:
		writeCall(b, c.Func, c.Args, d)
	}
}

func samplerOf(tex ast.Operand) ast.Operand {
	if v, ok := tex.(ast.Variable); ok {
		return ast.Var(v.Name+SamplerSuffix, ast.Sampler2D)
	}
	return ast.Var(Expr(tex, WGSL)+SamplerSuffix, ast.Sampler2D)
}

func literal(l ast.Literal, d Dialect) string {
	switch v := l.Value.(type) {
	case float64:
		return formatFloat(v)
	case int64:
		if d == WGSL {
			return fmt.Sprintf("%di", v)
		}
		return fmt.Sprintf("%d", v)
	case uint64:
		return fmt.Sprintf("%du", v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	}
	panic(fmt.Sprintf("codegen: literal of type %T", l.Value))
}

// formatFloat formats a float so that it always reads as a float literal.
func formatFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
