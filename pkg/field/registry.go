package field

import (
	"fmt"
	"sync"
)

// ResolutionError reports a lookup of a key that was never registered. It is
// a setup error: registries must be populated before the first compile.
type ResolutionError struct {
	Registry string // which registry was searched, e.g. "field type"
	Key      string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s %q is not registered", e.Registry, e.Key)
}

// Registry maps field type names to field types.
// Registration is expected to finish before compilation starts; lookups are
// safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	types map[string]FieldType
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]FieldType)}
}

// DefaultRegistry creates a registry holding the built-in types.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Builtins()...)
	return r
}

// Register adds field types. A type registered under an existing name
// replaces the previous one.
func (r *Registry) Register(types ...FieldType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range types {
		if _, ok := r.types[t.Name()]; !ok {
			r.order = append(r.order, t.Name())
		}
		r.types[t.Name()] = t
	}
}

// Resolve returns the field type registered under name.
func (r *Registry) Resolve(name string) (FieldType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	if !ok {
		return nil, &ResolutionError{Registry: "field type", Key: name}
	}
	return t, nil
}

// MustResolve returns the field type registered under name, or panics.
func (r *Registry) MustResolve(name string) FieldType {
	t, err := r.Resolve(name)
	if err != nil {
		panic(err)
	}
	return t
}

// Types returns all registered types in registration order.
func (r *Registry) Types() []FieldType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]FieldType, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.types[name])
	}
	return out
}
