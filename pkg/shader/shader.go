// Package shader is the back end that lowers graphs to shader programs.
//
// Every compiled step is run once per stage against a Builder. Steps read
// their inputs as operands from the builder's blackboard, append statements
// and publish their outputs as operands. Leaf values (literals, uniforms,
// attributes, varyings, member and swizzle reads) are published as they are;
// computed values are bound to temporaries t0, t1, ... so later nodes can
// reuse them.
package shader

import (
	"fmt"
	"log/slog"

	"github.com/chazu/shadegraph/internal/logging"
	"github.com/chazu/shadegraph/pkg/graph"
	"github.com/chazu/shadegraph/pkg/pipeline"
	"github.com/chazu/shadegraph/pkg/producer"
	"github.com/chazu/shadegraph/pkg/shader/ast"
)

// Kind is the graph kind served by shader producers.
var Kind = producer.NewKind("shader graph", nil)

// GraphTypeName is the registry name of the shader graph type.
const GraphTypeName = "shader"

// GraphType is the shader graph type. It carries the field type mapping its
// producers lower values with.
type GraphType struct {
	producer.BasicGraphType
	types *FieldTypes
}

// NewGraphType returns the shader graph type over types. A nil mapping
// means DefaultFieldTypes.
func NewGraphType(types *FieldTypes) *GraphType {
	if types == nil {
		types = DefaultFieldTypes()
	}
	return &GraphType{
		BasicGraphType: producer.BasicGraphType{TypeName: GraphTypeName, GraphKind: Kind},
		types:          types,
	}
}

// FieldTypes returns the graph type's field type mapping.
func (g *GraphType) FieldTypes() *FieldTypes { return g.types }

// Stage is a shader stage. Stages combine as a bit set.
type Stage uint8

const (
	StageVertex Stage = 1 << iota
	StageFragment
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageVertex | StageFragment:
		return "vertex|fragment"
	}
	return fmt.Sprintf("Stage(%d)", uint8(s))
}

// Blackboard holds the operands published during one pass.
type Blackboard = pipeline.Blackboard[ast.Operand]

// Step builds the statements of one node for each stage.
type Step interface {
	BuildVertex(b *Builder) error
	BuildFragment(b *Builder) error
}

// StepFunc is a Step doing the same work in both stages; the builder tells
// it which stage it is in.
type StepFunc func(b *Builder) error

// BuildVertex implements Step.
func (f StepFunc) BuildVertex(b *Builder) error { return f(b) }

// BuildFragment implements Step.
func (f StepFunc) BuildFragment(b *Builder) error { return f(b) }

// Pass is the output of running a pipeline for one stage.
type Pass struct {
	Stage      Stage
	Statements []ast.Statement
	Bindings   []Binding
	Values     *Blackboard
}

// Binding returns the pass binding called name.
func (p *Pass) Binding(name string) (Binding, bool) {
	for _, b := range p.Bindings {
		if b.Name == name {
			return b, true
		}
	}
	return Binding{}, false
}

type fieldTyped interface {
	FieldTypes() *FieldTypes
}

func fieldTypesOf(p *pipeline.Pipeline) *FieldTypes {
	if ft, ok := p.GraphType.(fieldTyped); ok {
		return ft.FieldTypes()
	}
	return DefaultFieldTypes()
}

// Run builds one stage of a compiled pipeline. Externals become uniforms
// named after the external with a "u_" prefix. When no node wrote the
// stage's output, Run completes it: the vertex stage projects the mesh
// position through the camera, and the fragment stage shows the end node's
// "out" value as a colour.
func Run(p *pipeline.Pipeline, stage Stage) (*Pass, error) {
	if stage != StageVertex && stage != StageFragment {
		return nil, fmt.Errorf("run: %s is not a single stage", stage)
	}
	b := newBuilder(stage, fieldTypesOf(p))

	for _, ext := range p.Externals {
		ft, err := b.types.Resolve(ext.Type)
		if err != nil {
			return nil, fmt.Errorf("external input %q: %w", ext.Name, err)
		}
		v, err := b.Uniform(UniformName(string(ext.Name)), ft.Var)
		if err != nil {
			return nil, fmt.Errorf("external input %q: %w", ext.Name, err)
		}
		if err := b.bb.Set(producer.ExternalNode, ext.Name, ext.Type, v); err != nil {
			return nil, err
		}
	}

	for _, e := range p.Entries {
		step, ok := e.Step.(Step)
		if !ok {
			return nil, fmt.Errorf("node %s: step %T is not a shader step", e.Node.ID, e.Step)
		}
		build := step.BuildFragment
		if stage == StageVertex {
			build = step.BuildVertex
		}
		if err := build(b); err != nil {
			return nil, fmt.Errorf("node %s: %w", e.Node.ID, err)
		}
	}

	if err := b.finish(p.End); err != nil {
		return nil, err
	}
	logging.Logger().Debug("shader pass built",
		slog.String("stage", stage.String()),
		slog.String("end", string(p.End)),
		slog.Int("statements", len(b.stmts)),
		slog.Int("bindings", len(b.bindings)))
	return &Pass{Stage: stage, Statements: b.stmts, Bindings: b.bindings, Values: b.bb}, nil
}

func (b *Builder) finish(end graph.NodeID) error {
	switch b.stage {
	case StageVertex:
		if b.Assigned(PositionOutput) {
			return nil
		}
		pos, err := b.Attribute(AttrPosition, ast.Vec3)
		if err != nil {
			return err
		}
		return b.Project(pos)
	default:
		if b.Assigned(ColorOutput) {
			return nil
		}
		v, err := b.bb.Get(end, "out", nil)
		if err != nil {
			return fmt.Errorf("node %s has no colour to show: %w", end, err)
		}
		return b.WriteColor(v)
	}
}
