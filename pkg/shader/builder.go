package shader

import (
	"fmt"

	"github.com/chazu/shadegraph/pkg/pipeline"
	"github.com/chazu/shadegraph/pkg/shader/ast"
)

// Well-known names of the generated programs.
const (
	AttrPosition = "a_position"
	AttrNormal   = "a_normal"
	AttrUV       = "a_uv"

	VaryingPosition = "v_position"
	VaryingNormal   = "v_normal"
	VaryingUV       = "v_uv"

	CameraUniform = "u_camera"
	TimeUniform   = "u_time"

	PositionOutput = "gl_Position"
	ColorOutput    = "fragColor"
)

// CameraType is the uniform struct describing the viewer.
var CameraType = ast.NewStruct("Camera",
	ast.StructField{Name: "position", Type: ast.Vec3},
	ast.StructField{Name: "viewProjection", Type: ast.Mat4},
)

// UniformName is the uniform backing a named property or external input.
func UniformName(name string) string { return "u_" + name }

// BindingKind says how a binding reaches the shader.
type BindingKind uint8

const (
	BindUniform BindingKind = iota
	BindTexture
	BindAttribute
	BindVarying
	BindPosition
	BindColor
)

func (k BindingKind) String() string {
	switch k {
	case BindUniform:
		return "uniform"
	case BindTexture:
		return "texture"
	case BindAttribute:
		return "attribute"
	case BindVarying:
		return "varying"
	case BindPosition:
		return "position"
	case BindColor:
		return "color"
	}
	return fmt.Sprintf("BindingKind(%d)", uint8(k))
}

// Binding is a named value crossing the program boundary. Location and Slot
// are assigned when a Program is assembled.
type Binding struct {
	Name     string
	Type     ast.VarType
	Kind     BindingKind
	Stages   Stage
	Location int
	Slot     int
}

// Builder accumulates the statements and bindings of one stage.
type Builder struct {
	stage    Stage
	types    *FieldTypes
	bb       *Blackboard
	stmts    []ast.Statement
	temps    int
	bindings []Binding
	assigned map[string]bool
}

func newBuilder(stage Stage, types *FieldTypes) *Builder {
	return &Builder{
		stage:    stage,
		types:    types,
		bb:       pipeline.NewBlackboard[ast.Operand](),
		assigned: map[string]bool{},
	}
}

// Stage returns the stage being built.
func (b *Builder) Stage() Stage { return b.stage }

// Blackboard returns the operands published so far.
func (b *Builder) Blackboard() *Blackboard { return b.bb }

// FieldTypes returns the field type mapping of the pass.
func (b *Builder) FieldTypes() *FieldTypes { return b.types }

// Statements returns the statements appended so far.
func (b *Builder) Statements() []ast.Statement { return b.stmts }

// Temp declares a fresh temporary holding value.
func (b *Builder) Temp(value ast.Operand) (ast.Variable, error) {
	v := ast.Var(fmt.Sprintf("t%d", b.temps), value.Type())
	d, err := ast.NewDeclare(v, value)
	if err != nil {
		return ast.Variable{}, err
	}
	b.temps++
	b.stmts = append(b.stmts, d)
	return v, nil
}

// Assign stores value into target.
func (b *Builder) Assign(target, value ast.Operand) error {
	a, err := ast.NewAssign(target, value)
	if err != nil {
		return err
	}
	if v, ok := target.(ast.Variable); ok {
		if b.assigned[v.Name] {
			return fmt.Errorf("%s is assigned twice", v.Name)
		}
		b.assigned[v.Name] = true
	}
	b.stmts = append(b.stmts, a)
	return nil
}

// Assigned reports whether the variable called name has been assigned.
func (b *Builder) Assigned(name string) bool { return b.assigned[name] }

func (b *Builder) bind(bd Binding) (ast.Variable, error) {
	bd.Stages = b.stage
	for _, have := range b.bindings {
		if have.Name != bd.Name {
			continue
		}
		if have.Type != bd.Type || have.Kind != bd.Kind {
			return ast.Variable{}, fmt.Errorf("%s %s is already bound as %s %s", bd.Kind, bd.Name, have.Kind, have.Type)
		}
		return ast.Var(bd.Name, bd.Type), nil
	}
	b.bindings = append(b.bindings, bd)
	return ast.Var(bd.Name, bd.Type), nil
}

// Uniform binds a uniform of type t. Sampler types bind as textures.
func (b *Builder) Uniform(name string, t ast.VarType) (ast.Variable, error) {
	if t.Kind == ast.KindSampler {
		return b.Texture(name)
	}
	return b.bind(Binding{Name: name, Type: t, Kind: BindUniform})
}

// Texture binds a 2D texture with its sampler.
func (b *Builder) Texture(name string) (ast.Variable, error) {
	return b.bind(Binding{Name: name, Type: ast.Sampler2D, Kind: BindTexture})
}

// Attribute binds a per-vertex input. Attributes exist only in the vertex
// stage.
func (b *Builder) Attribute(name string, t ast.VarType) (ast.Variable, error) {
	if b.stage != StageVertex {
		return ast.Variable{}, fmt.Errorf("attribute %s read in the %s stage", name, b.stage)
	}
	return b.bind(Binding{Name: name, Type: t, Kind: BindAttribute})
}

// Varying binds a value written by the vertex stage and read, interpolated,
// by the fragment stage.
func (b *Builder) Varying(name string, t ast.VarType) (ast.Variable, error) {
	return b.bind(Binding{Name: name, Type: t, Kind: BindVarying})
}

// Sample reads a texture at uv. The vertex stage samples the base level.
func (b *Builder) Sample(tex, uv ast.Operand) (ast.Operand, error) {
	if b.stage == StageVertex {
		return ast.NewCall("textureLod", tex, uv, ast.LitFloat(0))
	}
	return ast.NewCall("texture", tex, uv)
}

// Project writes the clip-space position of a model-space point through
// the camera uniform.
func (b *Builder) Project(pos ast.Operand) error {
	if b.stage != StageVertex {
		return fmt.Errorf("position written in the %s stage", b.stage)
	}
	cam, err := b.Uniform(CameraUniform, CameraType)
	if err != nil {
		return err
	}
	vp, err := ast.NewProperty(cam, "viewProjection")
	if err != nil {
		return err
	}
	p4, err := ast.NewConstruct(ast.Vec4, pos, ast.LitFloat(1))
	if err != nil {
		return err
	}
	clip, err := ast.NewBinary(ast.OpMul, vp, p4)
	if err != nil {
		return err
	}
	out, err := b.bind(Binding{Name: PositionOutput, Type: ast.Vec4, Kind: BindPosition})
	if err != nil {
		return err
	}
	return b.Assign(out, clip)
}

// WriteColor writes the fragment colour. Floats become grey, 2- and
// 3-vectors are padded, and alpha defaults to one.
func (b *Builder) WriteColor(v ast.Operand) error {
	if b.stage != StageFragment {
		return fmt.Errorf("colour written in the %s stage", b.stage)
	}
	c, err := toVec4(v)
	if err != nil {
		return err
	}
	out, err := b.bind(Binding{Name: ColorOutput, Type: ast.Vec4, Kind: BindColor})
	if err != nil {
		return err
	}
	return b.Assign(out, c)
}

func toVec4(v ast.Operand) (ast.Operand, error) {
	one := ast.LitFloat(1)
	switch t := v.Type(); {
	case t == ast.Vec4:
		return v, nil
	case t == ast.Vec3:
		return ast.NewConstruct(ast.Vec4, v, one)
	case t == ast.Vec2:
		return ast.NewConstruct(ast.Vec4, v, ast.LitFloat(0), one)
	case t == ast.Float:
		grey, err := ast.NewConstruct(ast.Vec3, v)
		if err != nil {
			return nil, err
		}
		return ast.NewConstruct(ast.Vec4, grey, one)
	case t == ast.Bool:
		f, err := ast.NewConstruct(ast.Float, v)
		if err != nil {
			return nil, err
		}
		return toVec4(f)
	default:
		return nil, fmt.Errorf("%s cannot be shown as a colour", t)
	}
}
