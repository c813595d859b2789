package pipeline

import (
	"fmt"
	"strings"

	"github.com/chazu/shadegraph/pkg/field"
	"github.com/chazu/shadegraph/pkg/graph"
)

// MissingInputError reports a required input with no connection and no
// external value.
type MissingInputError struct {
	Node  graph.NodeID
	Field graph.FieldID
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("node %s: required input %q is not connected", e.Node, e.Field)
}

// TypeMismatchError reports a value whose type is not the one expected. When
// Want is nil the type was rejected by an input's acceptance rule.
type TypeMismatchError struct {
	Node  graph.NodeID
	Field graph.FieldID
	Got   field.FieldType
	Want  field.FieldType
}

func (e *TypeMismatchError) Error() string {
	if e.Want == nil {
		return fmt.Sprintf("node %s: input %q does not accept %s", e.Node, e.Field, typeName(e.Got))
	}
	return fmt.Sprintf("node %s: field %q has type %s, want %s", e.Node, e.Field, typeName(e.Got), typeName(e.Want))
}

func typeName(t field.FieldType) string {
	if t == nil {
		return "<none>"
	}
	return t.Name()
}

// ValidationFailedError carries the validation report of a graph that was
// refused for compilation.
type ValidationFailedError struct {
	Result *graph.ValidationResult
}

func (e *ValidationFailedError) Error() string {
	errs := e.Result.Errors()
	if len(errs) == 0 {
		return "graph validation failed"
	}
	msgs := make([]string, len(errs))
	for i, f := range errs {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("graph validation failed with %d error(s): %s", len(errs), strings.Join(msgs, "; "))
}

// RewriteError reports a second write to a blackboard key.
type RewriteError struct {
	Key string
}

func (e *RewriteError) Error() string {
	return fmt.Sprintf("blackboard key %q written twice", e.Key)
}

// MissingValueError reports a read of a blackboard key that was never
// written.
type MissingValueError struct {
	Key string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("blackboard key %q has no value", e.Key)
}
