package producer

import (
	"sync"

	"github.com/chazu/shadegraph/pkg/field"
	"github.com/chazu/shadegraph/pkg/graph"
)

// GraphType describes a kind of graph: its producer kind and how graphs of
// that kind are validated.
type GraphType interface {
	Name() string
	Kind() *Kind
	Validator(scope Scope) graph.Validator
}

// Scope is what typed validation needs besides the graph.
type Scope struct {
	Producers *Registry
	Kind      *Kind
	Externals []External
}

func (s Scope) external(id graph.FieldID) (External, bool) {
	for _, e := range s.Externals {
		if e.Name == id {
			return e, true
		}
	}
	return External{}, false
}

// BasicGraphType is a GraphType validated by DefaultValidator.
type BasicGraphType struct {
	TypeName  string
	GraphKind *Kind
}

// Name implements GraphType.
func (t BasicGraphType) Name() string { return t.TypeName }

// Kind implements GraphType.
func (t BasicGraphType) Kind() *Kind { return t.GraphKind }

// Validator implements GraphType.
func (t BasicGraphType) Validator(scope Scope) graph.Validator { return DefaultValidator(scope) }

// GraphTypes maps graph type names to graph types.
type GraphTypes struct {
	mu    sync.RWMutex
	types map[string]GraphType
}

// NewGraphTypes creates an empty registry.
func NewGraphTypes() *GraphTypes {
	return &GraphTypes{types: make(map[string]GraphType)}
}

// Register adds graph types, replacing any with the same name.
func (r *GraphTypes) Register(types ...GraphType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range types {
		r.types[t.Name()] = t
	}
}

// Resolve returns the graph type registered under name.
func (r *GraphTypes) Resolve(name string) (GraphType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	if !ok {
		return nil, &field.ResolutionError{Registry: "graph type", Key: name}
	}
	return t, nil
}
