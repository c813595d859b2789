// Package pipeline compiles a validated graph into an ordered list of build
// steps and provides the blackboard those steps communicate through.
package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/chazu/shadegraph/internal/logging"
	"github.com/chazu/shadegraph/pkg/field"
	"github.com/chazu/shadegraph/pkg/graph"
	"github.com/chazu/shadegraph/pkg/producer"
)

// External is an input value supplied from outside the graph.
type External = producer.External

// Entry is one compiled node: its step and the wiring it was created with.
type Entry struct {
	Node    graph.Node
	Step    producer.Step
	Inputs  map[graph.FieldID]producer.Input
	Outputs map[graph.FieldID]producer.Output
}

// Pipeline is a compiled graph. Entries are ordered so that every entry
// comes after the entries of all nodes it reads from.
type Pipeline struct {
	GraphType producer.GraphType
	End       graph.NodeID
	Externals []External
	Entries   []Entry
}

// Nodes returns the node IDs in execution order.
func (p *Pipeline) Nodes() []graph.NodeID {
	ids := make([]graph.NodeID, len(p.Entries))
	for i, e := range p.Entries {
		ids[i] = e.Node.ID
	}
	return ids
}

// Steps returns the build steps in execution order.
func (p *Pipeline) Steps() []producer.Step {
	steps := make([]producer.Step, len(p.Entries))
	for i, e := range p.Entries {
		steps[i] = e.Step
	}
	return steps
}

// Entry returns the compiled entry of a node.
func (p *Pipeline) Entry(id graph.NodeID) (Entry, bool) {
	for _, e := range p.Entries {
		if e.Node.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Compiler turns graphs into pipelines.
type Compiler struct {
	GraphTypes *producer.GraphTypes
	Producers  *producer.Registry
	Env        producer.Env
}

// NewCompiler creates a compiler over the given registries. env is handed to
// every producer and may be nil.
func NewCompiler(types *producer.GraphTypes, producers *producer.Registry, env producer.Env) *Compiler {
	return &Compiler{GraphTypes: types, Producers: producers, Env: env}
}

// Compile validates the part of g that reaches end and compiles it into a
// pipeline for the named graph type. Nodes with no path to end are left out.
// Any fault aborts the compile; no partial pipeline is returned. A graph
// refused by validation yields a *ValidationFailedError.
func (c *Compiler) Compile(graphType string, g *graph.Graph, end graph.NodeID, externals ...External) (*Pipeline, error) {
	log := logging.Logger().With(slog.String("graph_type", graphType), slog.String("end", string(end)))

	gt, err := c.GraphTypes.Resolve(graphType)
	if err != nil {
		return nil, err
	}
	scope := producer.Scope{Producers: c.Producers, Kind: gt.Kind(), Externals: externals}
	result := gt.Validator(scope).ValidateSubGraph(g, end)
	if result.HasErrors() {
		log.Debug("graph refused", slog.Int("errors", len(result.Errors())))
		return nil, &ValidationFailedError{Result: result}
	}

	p := &Pipeline{GraphType: gt, End: end, Externals: externals}
	resolved := make(map[graph.Connector]field.FieldType)
	for _, id := range g.OrderedFrom(end) {
		node, _ := g.Node(id)
		entry, err := c.compileNode(gt, scope, g, node, resolved)
		if err != nil {
			return nil, err
		}
		for fid, out := range entry.Outputs {
			resolved[graph.Connector{Node: id, Field: fid}] = out.Type
		}
		p.Entries = append(p.Entries, entry)
		log.Debug("node compiled", slog.String("node", string(id)), slog.String("type", node.Type))
	}
	log.Debug("pipeline compiled", slog.Int("steps", len(p.Entries)), slog.Int("nodes", g.NodeCount()))
	return p, nil
}

func (c *Compiler) compileNode(gt producer.GraphType, scope producer.Scope, g *graph.Graph, node graph.Node, resolved map[graph.Connector]field.FieldType) (Entry, error) {
	prod, err := c.Producers.Resolve(gt.Kind(), node.Type)
	if err != nil {
		return Entry{}, err
	}
	cfg, err := producer.ConfigurationOf(prod, node)
	if err != nil {
		return Entry{}, fmt.Errorf("node %s: %w", node.ID, err)
	}
	incoming := g.Incoming(node.ID)

	inputs := make(map[graph.FieldID]producer.Input, len(cfg.Inputs))
	inTypes := make(map[graph.FieldID][]field.FieldType, len(cfg.Inputs))
	for _, def := range cfg.Inputs {
		in := producer.Input{ID: def.ID}
		for _, conn := range incoming {
			if conn.ToField != def.ID {
				continue
			}
			t, ok := resolved[conn.Source()]
			if !ok {
				return Entry{}, fmt.Errorf("node %s: source %s was not compiled", node.ID, conn.Source())
			}
			in.Sources = append(in.Sources, producer.Source{Node: conn.From, Field: conn.FromField, Type: t})
		}
		if len(in.Sources) == 0 {
			if ext, ok := externalFor(scope.Externals, def.ID); ok {
				in.External = true
				in.Sources = []producer.Source{{Node: producer.ExternalNode, Field: ext.Name, Type: ext.Type}}
			} else if def.Required {
				return Entry{}, &MissingInputError{Node: node.ID, Field: def.ID}
			}
		}
		for _, src := range in.Sources {
			if def.Accepts != nil && !def.Accepts(src.Type) {
				return Entry{}, &TypeMismatchError{Node: node.ID, Field: def.ID, Got: src.Type}
			}
		}
		if len(in.Sources) > 0 {
			inputs[def.ID] = in
			inTypes[def.ID] = in.Types()
		}
	}

	outTypes, err := cfg.ResolveOutputs(inTypes)
	if err != nil {
		return Entry{}, fmt.Errorf("node %s: %w", node.ID, err)
	}
	outputs := make(map[graph.FieldID]producer.Output, len(outTypes))
	for fid, t := range outTypes {
		outputs[fid] = producer.Output{ID: fid, Type: t}
	}

	step, err := prod.CreateStep(producer.Request{
		Env:       c.Env,
		Graph:     g,
		GraphType: gt,
		Node:      node,
		Inputs:    inputs,
		Outputs:   outputs,
	})
	if err != nil {
		return Entry{}, fmt.Errorf("node %s: %w", node.ID, err)
	}
	return Entry{Node: node, Step: step, Inputs: inputs, Outputs: outputs}, nil
}

func externalFor(externals []External, id graph.FieldID) (External, bool) {
	for _, e := range externals {
		if e.Name == id {
			return e, true
		}
	}
	return External{}, false
}
