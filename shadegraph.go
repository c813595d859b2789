// Package shadegraph compiles node graphs into values or shader programs.
//
// A System bundles the registries every compile needs: field types, the
// shader type mapping, graph types and the node producers of both back
// ends. Graphs come from the Lisp DSL (pkg/engine) or from YAML and JSON
// documents (pkg/loader):
//
//	sys := shadegraph.New()
//	src, _, err := sys.Evaluate(`
//	  (def c (node "c" "constant" :value 0.5))
//	  (def s (node "s" "sin"))
//	  (connect c :out s :in)
//	  (end s)`)
//	prog, err := sys.Generate(src, shadegraph.DefaultOptions())
package shadegraph

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/chazu/shadegraph/internal/logging"
	"github.com/chazu/shadegraph/pkg/engine"
	"github.com/chazu/shadegraph/pkg/field"
	"github.com/chazu/shadegraph/pkg/graph"
	"github.com/chazu/shadegraph/pkg/loader"
	"github.com/chazu/shadegraph/pkg/numeric"
	"github.com/chazu/shadegraph/pkg/pipeline"
	"github.com/chazu/shadegraph/pkg/producer"
	"github.com/chazu/shadegraph/pkg/shader"
	"github.com/chazu/shadegraph/pkg/shader/codegen"
	"github.com/chazu/shadegraph/pkg/shader/verify"
)

// SetLogger configures the logger shared by every shadegraph package. By
// default nothing is logged. Pass nil to disable logging again.
//
// Levels used:
//   - [slog.LevelDebug]: compilation and stage-pass diagnostics
//   - [slog.LevelInfo]: CLI lifecycle events
//   - [slog.LevelWarn]: validation warnings surfaced by the CLI
//
// SetLogger is safe for concurrent use.
func SetLogger(l *slog.Logger) { logging.Set(l) }

// Logger returns the current shared logger.
func Logger() *slog.Logger { return logging.Logger() }

// Source is a graph ready to compile: the graph, its end node and the
// external inputs it declares.
type Source struct {
	// GraphType names the graph type to compile as. Empty means the
	// caller's choice, see Options.GraphType.
	GraphType string
	Graph     *graph.Graph
	End       graph.NodeID
	Externals []producer.External
}

// System is a configured compiler. The registries are read-only after New
// returns, so compiles may run concurrently. Evaluate is the exception: see
// engine.Engine for how overlapping programs are treated.
type System struct {
	Fields      *field.Registry
	ShaderTypes *shader.FieldTypes
	GraphTypes  *producer.GraphTypes
	Producers   *producer.Registry
	Compiler    *pipeline.Compiler
	Engine      *engine.Engine
}

// New creates a System with the default field types and both node
// libraries registered.
func New(opts ...Option) *System {
	o := defaultSystemOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger != nil {
		SetLogger(o.logger)
	}

	services := producer.Services{}
	for k, v := range o.services {
		services[k] = v
	}
	if _, ok := services[producer.ClockService]; !ok {
		services[producer.ClockService] = o.clock
	}

	shaderType := shader.NewGraphType(o.shaderTypes)
	s := &System{
		Fields:      o.fields,
		ShaderTypes: shaderType.FieldTypes(),
		GraphTypes:  producer.NewGraphTypes(),
		Producers:   producer.NewRegistry(),
		Engine:      engine.NewEngine(o.fields),
	}
	s.GraphTypes.Register(numeric.GraphType(), shaderType)
	numeric.Register(s.Producers)
	shader.Register(s.Producers, shaderType)
	s.Compiler = pipeline.NewCompiler(s.GraphTypes, s.Producers, services)
	return s
}

// Evaluate runs a DSL program. Eval errors are returned separately from
// fatal errors, as engine.Engine.Evaluate does.
func (s *System) Evaluate(program string) (*Source, []engine.EvalError, error) {
	res, evalErrs, err := s.Engine.Evaluate(program)
	if err != nil || len(evalErrs) > 0 {
		return nil, evalErrs, err
	}
	for _, w := range res.Warnings {
		Logger().Warn(w.Message, slog.String("node", string(w.NodeID)))
	}
	return &Source{Graph: res.Graph, End: res.End, Externals: res.Externals}, nil, nil
}

// Document turns a loaded document into a Source.
func (s *System) Document(doc *loader.Document) (*Source, error) {
	g, err := doc.Graph()
	if err != nil {
		return nil, err
	}
	ext, err := doc.ExternalInputs(s.Fields)
	if err != nil {
		return nil, err
	}
	return &Source{GraphType: doc.GraphType, Graph: g, End: doc.End, Externals: ext}, nil
}

func (s *System) graphType(src *Source, fallback string) string {
	if src.GraphType != "" {
		return src.GraphType
	}
	return fallback
}

// ErrNoEnd is returned when a source names no end node.
var ErrNoEnd = errors.New("graph has no end node")

// ErrVerifyNeedsWGSL is returned by Generate when verification is requested
// for a dialect naga does not parse.
var ErrVerifyNeedsWGSL = errors.New("verification needs wgsl output")

// Validate checks the part of src that reaches its end node without
// compiling it.
func (s *System) Validate(src *Source, graphType string) (*graph.ValidationResult, error) {
	if src.End.IsZero() {
		return nil, ErrNoEnd
	}
	gt, err := s.GraphTypes.Resolve(s.graphType(src, graphType))
	if err != nil {
		return nil, err
	}
	scope := producer.Scope{Producers: s.Producers, Kind: gt.Kind(), Externals: src.Externals}
	return gt.Validator(scope).ValidateSubGraph(src.Graph, src.End), nil
}

// Compile compiles src as graphType unless src names its own.
func (s *System) Compile(src *Source, graphType string) (*pipeline.Pipeline, error) {
	if src.End.IsZero() {
		return nil, ErrNoEnd
	}
	return s.Compiler.Compile(s.graphType(src, graphType), src.Graph, src.End, src.Externals...)
}

// Run compiles src as a numeric graph and returns the value of its end
// node. params supplies the external inputs.
func (s *System) Run(src *Source, params map[graph.FieldID]any) (any, error) {
	p, err := s.Compile(src, numeric.GraphTypeName)
	if err != nil {
		return nil, err
	}
	bb, err := numeric.Run(p, params)
	if err != nil {
		return nil, err
	}
	return numeric.Result(p, bb)
}

// Generate compiles src as a shader graph and assembles its program. With
// opts.Verify set, the output must be WGSL and is checked by naga before it
// is returned.
func (s *System) Generate(src *Source, opts Options) (*shader.Program, error) {
	if opts.Verify && opts.Shader.Dialect != codegen.WGSL {
		return nil, ErrVerifyNeedsWGSL
	}
	p, err := s.Compile(src, opts.GraphType)
	if err != nil {
		return nil, err
	}
	if !p.GraphType.Kind().Is(shader.Kind) {
		return nil, fmt.Errorf("graph type %s does not produce shaders", p.GraphType.Name())
	}
	prog, err := shader.Generate(p, opts.Shader)
	if err != nil {
		return nil, err
	}
	if opts.Verify {
		if _, err := verify.Program(prog); err != nil {
			return nil, fmt.Errorf("generated program failed verification: %w", err)
		}
	}
	return prog, nil
}

// NodeType describes one registered node type.
type NodeType struct {
	Name        string
	Description string
	Inputs      []producer.InputDef
	Outputs     []producer.OutputDef
}

// NodeTypes lists the node types available to graphType in registration
// order.
func (s *System) NodeTypes(graphType string) (iter.Seq[NodeType], error) {
	gt, err := s.GraphTypes.Resolve(graphType)
	if err != nil {
		return nil, err
	}
	return func(yield func(NodeType) bool) {
		for p := range s.Producers.Producers(gt.Kind()) {
			cfg := p.Configuration()
			nt := NodeType{Name: p.Type(), Inputs: cfg.Inputs, Outputs: cfg.Outputs}
			if d, ok := p.(producer.Describer); ok {
				nt.Description = d.Description()
			}
			if !yield(nt) {
				return
			}
		}
	}, nil
}
