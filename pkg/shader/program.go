package shader

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/chazu/shadegraph/pkg/pipeline"
	"github.com/chazu/shadegraph/pkg/shader/ast"
	"github.com/chazu/shadegraph/pkg/shader/codegen"
)

// Options configures program assembly.
type Options struct {
	// Dialect is the shading language to emit.
	Dialect codegen.Dialect

	// GLSLVersion is the #version directive value, e.g. "330 core" or
	// "300 es".
	GLSLVersion string

	// Precision is the default float precision of GLSL ES programs.
	Precision string

	// VertexEntry and FragmentEntry name the WGSL entry points.
	VertexEntry   string
	FragmentEntry string
}

// DefaultOptions returns options for desktop GLSL 3.30.
func DefaultOptions() Options {
	return Options{
		Dialect:       codegen.GLSL,
		GLSLVersion:   "330 core",
		Precision:     "highp",
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.GLSLVersion == "" {
		o.GLSLVersion = d.GLSLVersion
	}
	if o.Precision == "" {
		o.Precision = d.Precision
	}
	if o.VertexEntry == "" {
		o.VertexEntry = d.VertexEntry
	}
	if o.FragmentEntry == "" {
		o.FragmentEntry = d.FragmentEntry
	}
	return o
}

// Program is a complete vertex and fragment shader pair.
type Program struct {
	Dialect       codegen.Dialect
	Vertex        string
	Fragment      string
	VertexEntry   string
	FragmentEntry string

	// Bindings lists every uniform, texture, attribute, varying and output
	// of the program with its location or binding slot.
	Bindings []Binding
}

// Binding returns the program binding called name.
func (p *Program) Binding(name string) (Binding, bool) {
	i := slices.IndexFunc(p.Bindings, func(b Binding) bool { return b.Name == name })
	if i < 0 {
		return Binding{}, false
	}
	return p.Bindings[i], true
}

// Varying reports whether the binding passes from the vertex to the
// fragment stage.
func (b Binding) Varying() bool { return b.Kind == BindVarying }

// Generate runs both stages of p and assembles the program source.
func Generate(p *pipeline.Pipeline, opts Options) (*Program, error) {
	opts = opts.withDefaults()
	vertex, err := Run(p, StageVertex)
	if err != nil {
		return nil, fmt.Errorf("vertex stage: %w", err)
	}
	fragment, err := Run(p, StageFragment)
	if err != nil {
		return nil, fmt.Errorf("fragment stage: %w", err)
	}

	prog := &Program{
		Dialect:       opts.Dialect,
		Bindings:      mergeBindings(vertex.Bindings, fragment.Bindings),
		VertexEntry:   opts.VertexEntry,
		FragmentEntry: opts.FragmentEntry,
	}
	switch opts.Dialect {
	case codegen.GLSL:
		prog.Vertex = glslStage(vertex, prog.Bindings, opts)
		prog.Fragment = glslStage(fragment, prog.Bindings, opts)
	case codegen.WGSL:
		for _, b := range prog.Bindings {
			if b.Kind == BindUniform && b.Type == ast.Bool {
				return nil, fmt.Errorf("uniform %s: WGSL has no host-shareable bool", b.Name)
			}
		}
		prog.Vertex = wgslVertex(vertex, prog.Bindings, opts)
		prog.Fragment = wgslFragment(fragment, prog.Bindings, opts)
	default:
		return nil, fmt.Errorf("unknown dialect %s", opts.Dialect)
	}
	return prog, nil
}

var attributeOrder = []string{AttrPosition, AttrNormal, AttrUV}

func attributeRank(name string) int {
	if i := slices.Index(attributeOrder, name); i >= 0 {
		return i
	}
	return len(attributeOrder)
}

// mergeBindings unions the bindings of both stages and assigns locations
// and slots. Resources are ordered by name; attributes keep position,
// normal and uv first. A texture takes two slots, the second for its
// sampler.
func mergeBindings(stages ...[]Binding) []Binding {
	var out []Binding
	for _, bs := range stages {
		for _, b := range bs {
			i := slices.IndexFunc(out, func(o Binding) bool { return o.Name == b.Name })
			if i < 0 {
				out = append(out, b)
				continue
			}
			out[i].Stages |= b.Stages
		}
	}
	slices.SortStableFunc(out, func(a, b Binding) int {
		ka, kb := resourceGroup(a.Kind), resourceGroup(b.Kind)
		if c := cmp.Compare(ka, kb); c != 0 {
			return c
		}
		if a.Kind == BindAttribute && b.Kind == BindAttribute {
			if c := cmp.Compare(attributeRank(a.Name), attributeRank(b.Name)); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.Name, b.Name)
	})

	slot, attr, vary := 0, 0, 0
	for i := range out {
		b := &out[i]
		b.Location, b.Slot = -1, -1
		switch b.Kind {
		case BindUniform:
			b.Slot = slot
			slot++
		case BindTexture:
			b.Slot = slot
			slot += 2
		case BindAttribute:
			b.Location = attr
			attr++
		case BindVarying:
			b.Location = vary
			vary++
		case BindColor:
			b.Location = 0
		}
	}
	return out
}

func resourceGroup(k BindingKind) int {
	switch k {
	case BindUniform, BindTexture:
		return 0
	case BindAttribute:
		return 1
	case BindVarying:
		return 2
	}
	return 3
}

func structsOf(bindings []Binding) []*ast.StructDef {
	var out []*ast.StructDef
	for _, b := range bindings {
		if b.Type.Kind == ast.KindStruct && !slices.Contains(out, b.Type.Struct) {
			out = append(out, b.Type.Struct)
		}
	}
	return out
}

func ofKind(bindings []Binding, kinds ...BindingKind) []Binding {
	var out []Binding
	for _, b := range bindings {
		if slices.Contains(kinds, b.Kind) {
			out = append(out, b)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// GLSL
// ---------------------------------------------------------------------------

func glslStage(pass *Pass, bindings []Binding, opts Options) string {
	w := codegen.NewWriter(codegen.GLSL)
	w.Line("#version %s", opts.GLSLVersion)
	if strings.HasSuffix(opts.GLSLVersion, " es") {
		w.Line("precision %s float;", opts.Precision)
	}
	w.Blank()

	for _, s := range structsOf(bindings) {
		w.Line("struct %s {", s.Name)
		w.Push()
		for _, f := range s.Fields {
			w.Line("%s %s;", codegen.TypeName(f.Type, codegen.GLSL), f.Name)
		}
		w.Pop()
		w.Line("};")
		w.Blank()
	}

	if res := ofKind(bindings, BindUniform, BindTexture); len(res) > 0 {
		for _, b := range res {
			w.Line("uniform %s %s;", codegen.TypeName(b.Type, codegen.GLSL), b.Name)
		}
		w.Blank()
	}

	varyings := ofKind(bindings, BindVarying)
	if pass.Stage == StageVertex {
		for _, b := range ofKind(bindings, BindAttribute) {
			w.Line("layout(location = %d) in %s %s;", b.Location, codegen.TypeName(b.Type, codegen.GLSL), b.Name)
		}
		for _, b := range varyings {
			w.Line("out %s %s;", codegen.TypeName(b.Type, codegen.GLSL), b.Name)
		}
	} else {
		for _, b := range varyings {
			w.Line("in %s %s;", codegen.TypeName(b.Type, codegen.GLSL), b.Name)
		}
		w.Line("layout(location = 0) out vec4 %s;", ColorOutput)
	}
	w.Blank()

	w.Line("void main() {")
	w.Push()
	w.Statements(pass.Statements)
	w.Pop()
	w.Line("}")
	return w.String()
}

// ---------------------------------------------------------------------------
// WGSL
// ---------------------------------------------------------------------------

func wgslType(t ast.VarType) string { return codegen.TypeName(t, codegen.WGSL) }

// wgslModule writes the declarations shared by both stages.
func wgslModule(w *codegen.Writer, bindings []Binding) {
	for _, s := range structsOf(bindings) {
		w.Line("struct %s {", s.Name)
		w.Push()
		for _, f := range s.Fields {
			w.Line("%s: %s,", f.Name, wgslType(f.Type))
		}
		w.Pop()
		w.Line("}")
		w.Blank()
	}
	res := ofKind(bindings, BindUniform, BindTexture)
	for _, b := range res {
		if b.Kind == BindTexture {
			w.Line("@group(0) @binding(%d) var %s: %s;", b.Slot, b.Name, wgslType(b.Type))
			w.Line("@group(0) @binding(%d) var %s%s: sampler;", b.Slot+1, b.Name, codegen.SamplerSuffix)
			continue
		}
		w.Line("@group(0) @binding(%d) var<uniform> %s: %s;", b.Slot, b.Name, wgslType(b.Type))
	}
	if len(res) > 0 {
		w.Blank()
	}
}

func wgslVertex(pass *Pass, bindings []Binding, opts Options) string {
	w := codegen.NewWriter(codegen.WGSL)
	wgslModule(w, bindings)

	attrs := ofKind(bindings, BindAttribute)
	varyings := ofKind(bindings, BindVarying)
	if len(attrs) > 0 {
		w.Line("struct VertexInput {")
		w.Push()
		for _, b := range attrs {
			w.Line("@location(%d) %s: %s,", b.Location, b.Name, wgslType(b.Type))
		}
		w.Pop()
		w.Line("}")
		w.Blank()
	}
	w.Line("struct VertexOutput {")
	w.Push()
	w.Line("@builtin(position) %s: vec4<f32>,", PositionOutput)
	for _, b := range varyings {
		w.Line("@location(%d) %s: %s,", b.Location, b.Name, wgslType(b.Type))
	}
	w.Pop()
	w.Line("}")
	w.Blank()

	w.Line("@vertex")
	if len(attrs) > 0 {
		w.Line("fn %s(vin: VertexInput) -> VertexOutput {", opts.VertexEntry)
	} else {
		w.Line("fn %s() -> VertexOutput {", opts.VertexEntry)
	}
	w.Push()
	for _, b := range attrs {
		w.Line("let %s = vin.%s;", b.Name, b.Name)
	}
	w.Line("var %s: vec4<f32>;", PositionOutput)
	for _, b := range varyings {
		w.Line("var %s: %s;", b.Name, wgslType(b.Type))
	}
	w.Statements(pass.Statements)
	w.Line("var vout: VertexOutput;")
	w.Line("vout.%s = %s;", PositionOutput, PositionOutput)
	for _, b := range varyings {
		w.Line("vout.%s = %s;", b.Name, b.Name)
	}
	w.Line("return vout;")
	w.Pop()
	w.Line("}")
	return w.String()
}

func wgslFragment(pass *Pass, bindings []Binding, opts Options) string {
	w := codegen.NewWriter(codegen.WGSL)
	wgslModule(w, bindings)

	varyings := ofKind(bindings, BindVarying)
	if len(varyings) > 0 {
		w.Line("struct FragmentInput {")
		w.Push()
		for _, b := range varyings {
			w.Line("@location(%d) %s: %s,", b.Location, b.Name, wgslType(b.Type))
		}
		w.Pop()
		w.Line("}")
		w.Blank()
	}

	w.Line("@fragment")
	if len(varyings) > 0 {
		w.Line("fn %s(fin: FragmentInput) -> @location(0) vec4<f32> {", opts.FragmentEntry)
	} else {
		w.Line("fn %s() -> @location(0) vec4<f32> {", opts.FragmentEntry)
	}
	w.Push()
	for _, b := range varyings {
		w.Line("let %s = fin.%s;", b.Name, b.Name)
	}
	w.Line("var %s: vec4<f32>;", ColorOutput)
	w.Statements(pass.Statements)
	w.Line("return %s;", ColorOutput)
	w.Pop()
	w.Line("}")
	return w.String()
}
