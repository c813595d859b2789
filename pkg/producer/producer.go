package producer

import (
	"fmt"
	"iter"
	"sync"

	"github.com/chazu/shadegraph/pkg/field"
	"github.com/chazu/shadegraph/pkg/graph"
)

// Step is an executable unit created for one node. Its contract is defined
// by the back end that runs it (numeric.Step, shader.Step).
type Step any

// Producer creates build steps for one node type.
// CreateStep must not mutate the graph; only running the step may have
// effects, and only on the pass it is run in.
type Producer interface {
	Type() string
	Configuration() Configuration
	CreateStep(req Request) (Step, error)
}

// Describer is implemented by producers that carry a short description for
// listings.
type Describer interface {
	Description() string
}

// NodeConfigurer is implemented by producers whose slots depend on the
// node's data, e.g. a vector constant whose output size is configured.
type NodeConfigurer interface {
	NodeConfiguration(n graph.Node) (Configuration, error)
}

// ConfigurationOf returns the configuration p uses for node n.
func ConfigurationOf(p Producer, n graph.Node) (Configuration, error) {
	if nc, ok := p.(NodeConfigurer); ok {
		return nc.NodeConfiguration(n)
	}
	return p.Configuration(), nil
}

// Definition is a Producer assembled from plain values. When Configure is
// set it overrides Config for individual nodes.
type Definition struct {
	Name      string
	Doc       string
	Config    Configuration
	Configure func(n graph.Node) (Configuration, error)
	Create    func(req Request) (Step, error)
}

// Type implements Producer.
func (d Definition) Type() string { return d.Name }

// Configuration implements Producer.
func (d Definition) Configuration() Configuration { return d.Config }

// NodeConfiguration implements NodeConfigurer.
func (d Definition) NodeConfiguration(n graph.Node) (Configuration, error) {
	if d.Configure == nil {
		return d.Config, nil
	}
	return d.Configure(n)
}

// CreateStep implements Producer.
func (d Definition) CreateStep(req Request) (Step, error) { return d.Create(req) }

// Description implements Describer.
func (d Definition) Description() string { return d.Doc }

// ExternalNode is the pseudo node ID under which external input values are
// published.
const ExternalNode graph.NodeID = "@external"

// External is a value supplied from outside the graph. It satisfies every
// unconnected input whose field ID equals Name.
type External struct {
	Name graph.FieldID
	Type field.FieldType
}

// Source is the output supplying an input.
type Source struct {
	Node  graph.NodeID
	Field graph.FieldID
	Type  field.FieldType
}

// Connector returns the blackboard address of the source.
func (s Source) Connector() graph.Connector { return graph.Connector{Node: s.Node, Field: s.Field} }

// Input is a resolved input slot. External inputs have a single source on
// ExternalNode.
type Input struct {
	ID       graph.FieldID
	Sources  []Source
	External bool
}

// Types returns the types of every source, in connection order.
func (in Input) Types() []field.FieldType {
	ts := make([]field.FieldType, len(in.Sources))
	for i, s := range in.Sources {
		ts[i] = s.Type
	}
	return ts
}

// Type returns the type of the first source.
func (in Input) Type() field.FieldType {
	if len(in.Sources) == 0 {
		return nil
	}
	return in.Sources[0].Type
}

// Output is a resolved output slot.
type Output struct {
	ID   graph.FieldID
	Type field.FieldType
}

// Request carries everything a producer may read to create a step.
type Request struct {
	Env       Env
	Graph     *graph.Graph
	GraphType GraphType
	Node      graph.Node
	Inputs    map[graph.FieldID]Input
	Outputs   map[graph.FieldID]Output
}

// Input returns the resolved input id and whether it is wired.
func (r Request) Input(id graph.FieldID) (Input, bool) {
	in, ok := r.Inputs[id]
	return in, ok && len(in.Sources) > 0
}

// NotFoundError reports a node type without a producer for the graph kind.
type NotFoundError struct {
	Kind *Kind
	Type string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no producer for node type %q in %s", e.Type, e.Kind)
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

type registration struct {
	kind     *Kind
	producer Producer
}

// Registry holds producers by graph kind. Registration happens during setup;
// lookups are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries []registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds producers for kind. Earlier registrations win on lookup.
func (r *Registry) Register(kind *Kind, producers ...Producer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range producers {
		r.entries = append(r.entries, registration{kind: kind, producer: p})
	}
}

// Resolve returns the first producer for nodeType registered for kind or one
// of its ancestors.
func (r *Registry) Resolve(kind *Kind, nodeType string) (Producer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.producer.Type() == nodeType && kind.Is(e.kind) {
			return e.producer, nil
		}
	}
	return nil, &NotFoundError{Kind: kind, Type: nodeType}
}

// Producers yields every producer usable in graphs of the given kind, in
// registration order. A type shadowed by an earlier registration is skipped.
func (r *Registry) Producers(kind *Kind) iter.Seq[Producer] {
	return func(yield func(Producer) bool) {
		r.mu.RLock()
		entries := r.entries
		r.mu.RUnlock()
		seen := make(map[string]bool)
		for _, e := range entries {
			name := e.producer.Type()
			if seen[name] || !kind.Is(e.kind) {
				continue
			}
			seen[name] = true
			if !yield(e.producer) {
				return
			}
		}
	}
}
