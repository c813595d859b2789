package ast

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarTypeStrings(t *testing.T) {
	cam := NewStruct("Camera", StructField{Name: "position", Type: Vec3})
	tests := map[string]VarType{
		"void": Void, "float": Float, "int": Int, "bool": Bool,
		"vec2": Vec2, "vec4": Vec(4), "mat4": Mat4, "sampler2D": Sampler2D,
		"ivec3":  {Kind: KindVector, Scalar: ScalarInt, Size: 3},
		"Camera": cam,
	}
	for want, typ := range tests {
		assert.Equal(t, want, typ.String())
	}
	assert.Equal(t, Float, Vec(1))
	assert.Equal(t, 3, Vec3.Components())
	assert.Equal(t, 0, Mat4.Components())
	assert.True(t, Mat4.IsNumeric())
	assert.False(t, Bool.IsNumeric())
}

func TestSwizzle(t *testing.T) {
	v := Var("v", Vec3)
	s, err := NewSwizzle(v, "zx")
	require.NoError(t, err)
	assert.Equal(t, Vec2, s.Type())

	s, err = NewSwizzle(v, "g")
	require.NoError(t, err)
	assert.Equal(t, Float, s.Type())

	for _, bad := range []string{"w", "xg", "", "xyzxy", "q1"} {
		_, err := NewSwizzle(v, bad)
		assert.Error(t, err, bad)
	}

	_, err = NewSwizzle(LitFloat(1), "x")
	var ce *ConstructionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "swizzle .x", ce.Op)
}

func TestNewLitFloat(t *testing.T) {
	lit, err := NewLitFloat(0.5)
	require.NoError(t, err)
	assert.Equal(t, Float, lit.Type())

	for _, bad := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		_, err := NewLitFloat(bad)
		var ce *ConstructionError
		require.True(t, errors.As(err, &ce), "%g", bad)
		assert.Equal(t, "float literal", ce.Op)
	}
}

func TestProperty(t *testing.T) {
	cam := NewStruct("Camera",
		StructField{Name: "position", Type: Vec3},
		StructField{Name: "viewProjection", Type: Mat4},
	)
	p, err := NewProperty(Var("u_camera", cam), "viewProjection")
	require.NoError(t, err)
	assert.Equal(t, Mat4, p.Type())

	_, err = NewProperty(Var("u_camera", cam), "fov")
	assert.ErrorContains(t, err, `no member "fov"`)
	_, err = NewProperty(Var("v", Vec3), "x")
	assert.ErrorContains(t, err, "not a struct")
}

func TestBinaryTyping(t *testing.T) {
	f, v3, v4, m := Var("f", Float), Var("a", Vec3), Var("b", Vec4), Var("m", Mat4)
	tests := []struct {
		op   BinaryOp
		x, y Operand
		want VarType
		err  bool
	}{
		{OpAdd, f, f, Float, false},
		{OpMul, f, v3, Vec3, false},
		{OpSub, v3, f, Vec3, false},
		{OpMul, m, v4, Vec4, false},
		{OpMul, v4, m, Vec4, false},
		{OpMul, m, m, Mat4, false},
		{OpAdd, v3, v4, VarType{}, true},
		{OpMul, m, v3, VarType{}, true},
		{OpAdd, f, LitInt(1), VarType{}, true},
		{OpLess, f, f, Bool, false},
		{OpLess, v3, v3, VarType{}, true},
		{OpEqual, v3, v3, Bool, false},
		{OpAnd, LitBool(true), LitBool(false), Bool, false},
		{OpAnd, f, f, VarType{}, true},
		{OpAdd, LitBool(true), LitBool(true), VarType{}, true},
	}
	for _, tt := range tests {
		b, err := NewBinary(tt.op, tt.x, tt.y)
		if tt.err {
			assert.Error(t, err, "%s %s %s", tt.x.Type(), tt.op, tt.y.Type())
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, b.Type())
	}
}

func TestUnaryAndTernary(t *testing.T) {
	u, err := NewUnary(OpNeg, Var("v", Vec2))
	require.NoError(t, err)
	assert.Equal(t, Vec2, u.Type())
	_, err = NewUnary(OpNeg, LitBool(true))
	assert.Error(t, err)
	_, err = NewUnary(OpNot, LitFloat(1))
	assert.Error(t, err)

	tern, err := NewTernary(LitBool(true), Var("a", Vec3), Var("b", Vec3))
	require.NoError(t, err)
	assert.Equal(t, Vec3, tern.Type())
	_, err = NewTernary(LitFloat(1), LitFloat(1), LitFloat(2))
	assert.Error(t, err)
	_, err = NewTernary(LitBool(true), LitFloat(1), Var("b", Vec3))
	assert.Error(t, err)
}

func TestBuiltinCalls(t *testing.T) {
	v3 := Var("v", Vec3)
	tests := []struct {
		fn   string
		args []Operand
		want VarType
	}{
		{"sin", []Operand{LitFloat(0.5)}, Float},
		{"normalize", []Operand{v3}, Vec3},
		{"length", []Operand{v3}, Float},
		{"dot", []Operand{v3, v3}, Float},
		{"cross", []Operand{v3, v3}, Vec3},
		{"mix", []Operand{v3, v3, LitFloat(0.5)}, Vec3},
		{"clamp", []Operand{v3, LitFloat(0), LitFloat(1)}, Vec3},
		{"step", []Operand{LitFloat(0.5), v3}, Vec3},
		{"smoothstep", []Operand{LitFloat(0), LitFloat(1), v3}, Vec3},
		{"texture", []Operand{Var("tex", Sampler2D), Var("uv", Vec2)}, Vec4},
	}
	for _, tt := range tests {
		c, err := NewCall(tt.fn, tt.args...)
		require.NoError(t, err, tt.fn)
		assert.Equal(t, tt.want, c.Type(), tt.fn)
	}

	bad := map[string][]Operand{
		"sin":     {LitBool(true)},
		"dot":     {v3, Var("w", Vec2)},
		"cross":   {Var("w", Vec2), Var("w", Vec2)},
		"mix":     {v3, LitFloat(0), LitFloat(0)},
		"pow":     {v3},
		"texture": {Var("uv", Vec2)},
		"nope":    {v3},
	}
	for fn, args := range bad {
		_, err := NewCall(fn, args...)
		assert.Error(t, err, fn)
	}
	assert.Contains(t, Builtins(), "smoothstep")
}

func TestConstruct(t *testing.T) {
	c, err := NewConstruct(Vec4, Var("rgb", Vec3), LitFloat(1))
	require.NoError(t, err)
	assert.Equal(t, Vec4, c.Type())

	_, err = NewConstruct(Vec3, LitFloat(1))
	assert.NoError(t, err, "splat")
	_, err = NewConstruct(Vec4, Var("rgb", Vec3))
	assert.Error(t, err)
	_, err = NewConstruct(Float, LitInt(2))
	assert.NoError(t, err, "conversion")
	_, err = NewConstruct(Mat4, LitFloat(1))
	assert.NoError(t, err)
	_, err = NewConstruct(Sampler2D, LitFloat(1))
	assert.Error(t, err)

	light := NewStruct("Light", StructField{Name: "color", Type: Vec3}, StructField{Name: "power", Type: Float})
	_, err = NewConstruct(light, Var("c", Vec3), LitFloat(2))
	assert.NoError(t, err)
	_, err = NewConstruct(light, LitFloat(2), Var("c", Vec3))
	assert.Error(t, err)
}

func TestStatements(t *testing.T) {
	d, err := NewDeclare(Var("t0", Float), LitFloat(1))
	require.NoError(t, err)
	assert.Equal(t, "t0", d.Var.Name)
	_, err = NewDeclare(Var("t0", Vec2), LitFloat(1))
	assert.Error(t, err)

	_, err = NewAssign(Var("fragColor", Vec4), Var("c", Vec4))
	assert.NoError(t, err)
	_, err = NewAssign(LitFloat(1), LitFloat(2))
	assert.Error(t, err)
}
