package pipeline

import (
	"github.com/chazu/shadegraph/pkg/field"
	"github.com/chazu/shadegraph/pkg/graph"
	"github.com/chazu/shadegraph/pkg/producer"
)

// Key returns the blackboard key of a node output.
func Key(node graph.NodeID, f graph.FieldID) string {
	return string(node) + "-" + string(f)
}

type entry[V any] struct {
	typ   field.FieldType
	value V
}

// Blackboard memoizes the value of every node output for one execution pass.
// Each key is written once; reads see values of steps that already ran.
// A Blackboard is not safe for concurrent use and is never reused across
// passes.
type Blackboard[V any] struct {
	entries map[string]entry[V]
	order   []string
}

// NewBlackboard creates an empty blackboard.
func NewBlackboard[V any]() *Blackboard[V] {
	return &Blackboard[V]{entries: make(map[string]entry[V])}
}

// Set publishes the value of a node output. Writing a key twice fails with
// a RewriteError and leaves the first value in place.
func (b *Blackboard[V]) Set(node graph.NodeID, f graph.FieldID, t field.FieldType, value V) error {
	key := Key(node, f)
	if _, ok := b.entries[key]; ok {
		return &RewriteError{Key: key}
	}
	b.entries[key] = entry[V]{typ: t, value: value}
	b.order = append(b.order, key)
	return nil
}

// Get reads a node output. A non-nil expected type must match the type the
// value was published with.
func (b *Blackboard[V]) Get(node graph.NodeID, f graph.FieldID, expected field.FieldType) (V, error) {
	var zero V
	e, ok := b.entries[Key(node, f)]
	if !ok {
		return zero, &MissingValueError{Key: Key(node, f)}
	}
	if expected != nil && !field.Same(expected, e.typ) {
		return zero, &TypeMismatchError{Node: node, Field: f, Got: e.typ, Want: expected}
	}
	return e.value, nil
}

// Source reads the value supplied by src.
func (b *Blackboard[V]) Source(src producer.Source) (V, error) {
	return b.Get(src.Node, src.Field, src.Type)
}

// Type returns the type a node output was published with.
func (b *Blackboard[V]) Type(node graph.NodeID, f graph.FieldID) (field.FieldType, bool) {
	e, ok := b.entries[Key(node, f)]
	return e.typ, ok
}

// Keys returns every written key in write order.
func (b *Blackboard[V]) Keys() []string {
	return append([]string(nil), b.order...)
}

// Len returns the number of written keys.
func (b *Blackboard[V]) Len() int {
	return len(b.order)
}
