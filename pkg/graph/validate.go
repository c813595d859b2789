package graph

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// ValidationSeverity indicates whether a validation finding blocks compilation
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks compilation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if graph-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID, e.Message)
}

// ValidationResult accumulates the nodes, connections and connectors flagged by
// one or more validators. All collections are sets, so flagging the same item
// twice is harmless.
type ValidationResult struct {
	errorNodes         map[NodeID]struct{}
	warningNodes       map[NodeID]struct{}
	errorConnections   map[ConnectionID]struct{}
	warningConnections map[ConnectionID]struct{}
	errorConnectors    map[Connector]struct{}
	warningConnectors  map[Connector]struct{}

	// Findings keeps the human-readable messages in the order they were
	// reported.
	Findings []ValidationError
}

// NewValidationResult returns an empty result.
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		errorNodes:         make(map[NodeID]struct{}),
		warningNodes:       make(map[NodeID]struct{}),
		errorConnections:   make(map[ConnectionID]struct{}),
		warningConnections: make(map[ConnectionID]struct{}),
		errorConnectors:    make(map[Connector]struct{}),
		warningConnectors:  make(map[Connector]struct{}),
	}
}

// ErrorNode flags a node as erroneous.
func (r *ValidationResult) ErrorNode(id NodeID, format string, args ...any) {
	r.errorNodes[id] = struct{}{}
	r.report(id, SeverityError, format, args...)
}

// WarningNode flags a node with a warning.
func (r *ValidationResult) WarningNode(id NodeID, format string, args ...any) {
	r.warningNodes[id] = struct{}{}
	r.report(id, SeverityWarning, format, args...)
}

// ErrorConnection flags a connection as erroneous.
func (r *ValidationResult) ErrorConnection(c Connection, format string, args ...any) {
	r.errorConnections[c.ID()] = struct{}{}
	r.report(c.To, SeverityError, format, args...)
}

// WarningConnection flags a connection with a warning.
func (r *ValidationResult) WarningConnection(c Connection, format string, args ...any) {
	r.warningConnections[c.ID()] = struct{}{}
	r.report(c.To, SeverityWarning, format, args...)
}

// ErrorConnector flags a node field as erroneous. The owning node is flagged
// too.
func (r *ValidationResult) ErrorConnector(c Connector, format string, args ...any) {
	r.errorConnectors[c] = struct{}{}
	r.errorNodes[c.Node] = struct{}{}
	r.report(c.Node, SeverityError, format, args...)
}

// WarningConnector flags a node field with a warning.
func (r *ValidationResult) WarningConnector(c Connector, format string, args ...any) {
	r.warningConnectors[c] = struct{}{}
	r.report(c.Node, SeverityWarning, format, args...)
}

func (r *ValidationResult) report(id NodeID, sev ValidationSeverity, format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	r.Findings = append(r.Findings, ValidationError{NodeID: id, Message: msg, Severity: sev})
}

// HasErrors reports whether any error was flagged.
func (r *ValidationResult) HasErrors() bool {
	return len(r.errorNodes) > 0 || len(r.errorConnections) > 0 || len(r.errorConnectors) > 0
}

// HasWarnings reports whether any warning was flagged.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.warningNodes) > 0 || len(r.warningConnections) > 0 || len(r.warningConnectors) > 0
}

// ErrorNodes returns the flagged node IDs, sorted.
func (r *ValidationResult) ErrorNodes() []NodeID { return sortedKeys(r.errorNodes) }

// WarningNodes returns the node IDs flagged with warnings, sorted.
func (r *ValidationResult) WarningNodes() []NodeID { return sortedKeys(r.warningNodes) }

// ErrorConnections returns the flagged connection IDs, sorted.
func (r *ValidationResult) ErrorConnections() []ConnectionID {
	return sortedKeys(r.errorConnections)
}

// WarningConnections returns the connection IDs flagged with warnings, sorted.
func (r *ValidationResult) WarningConnections() []ConnectionID {
	return sortedKeys(r.warningConnections)
}

// ErrorConnectors returns the flagged connectors, sorted by node then field.
func (r *ValidationResult) ErrorConnectors() []Connector {
	return sortedConnectors(r.errorConnectors)
}

// WarningConnectors returns the connectors flagged with warnings.
func (r *ValidationResult) WarningConnectors() []Connector {
	return sortedConnectors(r.warningConnectors)
}

// IsErrorNode reports whether id was flagged as an error.
func (r *ValidationResult) IsErrorNode(id NodeID) bool {
	_, ok := r.errorNodes[id]
	return ok
}

// Errors returns the error findings only.
func (r *ValidationResult) Errors() []ValidationError {
	return lo.Filter(r.Findings, func(f ValidationError, _ int) bool { return f.Severity == SeverityError })
}

// Warnings returns the warning findings only.
func (r *ValidationResult) Warnings() []ValidationError {
	return lo.Filter(r.Findings, func(f ValidationError, _ int) bool { return f.Severity == SeverityWarning })
}

// Merge adds every item of other to r.
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	for k := range other.errorNodes {
		r.errorNodes[k] = struct{}{}
	}
	for k := range other.warningNodes {
		r.warningNodes[k] = struct{}{}
	}
	for k := range other.errorConnections {
		r.errorConnections[k] = struct{}{}
	}
	for k := range other.warningConnections {
		r.warningConnections[k] = struct{}{}
	}
	for k := range other.errorConnectors {
		r.errorConnectors[k] = struct{}{}
	}
	for k := range other.warningConnectors {
		r.warningConnectors[k] = struct{}{}
	}
	r.Findings = append(r.Findings, other.Findings...)
}

// Sum returns the union of the given results.
func Sum(results ...*ValidationResult) *ValidationResult {
	sum := NewValidationResult()
	for _, r := range results {
		sum.Merge(r)
	}
	return sum
}

func sortedKeys[K cmp.Ordered](m map[K]struct{}) []K {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}

func sortedConnectors(m map[Connector]struct{}) []Connector {
	keys := lo.Keys(m)
	slices.SortFunc(keys, func(a, b Connector) int {
		return cmp.Or(cmp.Compare(a.Node, b.Node), cmp.Compare(a.Field, b.Field))
	})
	return keys
}

// ---------------------------------------------------------------------------
// Validators
// ---------------------------------------------------------------------------

// Validator checks a graph. Validators are read-only and never mutate the
// graph. Findings are collected in the result rather than returned as errors.
type Validator interface {
	Validate(g *Graph) *ValidationResult
	// ValidateSubGraph validates only the nodes that reach start.
	ValidateSubGraph(g *Graph, start NodeID) *ValidationResult
}

// ValidatorFunc adapts a whole-graph check into a Validator. Sub-graph
// validation runs the check on the graph restricted to the nodes that reach
// the start node.
type ValidatorFunc func(g *Graph, r *ValidationResult)

// Validate implements Validator.
func (f ValidatorFunc) Validate(g *Graph) *ValidationResult {
	r := NewValidationResult()
	f(g, r)
	return r
}

// ValidateSubGraph implements Validator.
func (f ValidatorFunc) ValidateSubGraph(g *Graph, start NodeID) *ValidationResult {
	r := NewValidationResult()
	if !g.Has(start) {
		r.ErrorNode(start, "start node %s does not exist", start)
		return r
	}
	f(g.SubGraph(g.Upstream(start)), r)
	return r
}

// Serial runs validators in order and stops at the first one whose result
// contains errors; later validators never see a graph already known to be
// broken. The returned result is the sum of every result produced so far.
type Serial []Validator

// Validate implements Validator.
func (s Serial) Validate(g *Graph) *ValidationResult {
	return s.run(func(v Validator) *ValidationResult { return v.Validate(g) })
}

// ValidateSubGraph implements Validator.
func (s Serial) ValidateSubGraph(g *Graph, start NodeID) *ValidationResult {
	return s.run(func(v Validator) *ValidationResult { return v.ValidateSubGraph(g, start) })
}

func (s Serial) run(validate func(Validator) *ValidationResult) *ValidationResult {
	sum := NewValidationResult()
	for _, v := range s {
		r := validate(v)
		sum.Merge(r)
		if r.HasErrors() {
			return sum
		}
	}
	return sum
}

// StructureValidator returns the structural checks that need no type
// knowledge: dangling references and cycles.
func StructureValidator() Validator {
	return Serial{ValidatorFunc(ValidateReferences), ValidatorFunc(ValidateAcyclic)}
}

// ValidateReferences checks that every connection endpoint references an
// existing node, and warns about groups that reference unknown nodes.
func ValidateReferences(g *Graph, r *ValidationResult) {
	for _, c := range g.Connections() {
		if !g.Has(c.From) {
			r.ErrorConnection(c, "connection %s references non-existent node %s", c.ID(), c.From)
		}
		if !g.Has(c.To) {
			r.ErrorConnection(c, "connection %s references non-existent node %s", c.ID(), c.To)
		}
	}
	for _, grp := range g.Groups() {
		for _, id := range grp.Nodes {
			if !g.Has(id) {
				r.report("", SeverityWarning, "group %q references non-existent node %s", grp.Name, id)
			}
		}
	}
}

// ValidateAcyclic checks for cycles using DFS with 3-color marking.
// White (0) = unvisited, gray (1) = in current DFS path, black (2) = fully explored.
// Every node and connection on a detected cycle is flagged.
func ValidateAcyclic(g *Graph, r *ValidationResult) {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int)
	var path []Connection

	var visit func(id NodeID)
	visit = func(id NodeID) {
		color[id] = gray
		for _, c := range g.Outgoing(id) {
			if !g.Has(c.To) {
				continue // dangling; handled by ValidateReferences
			}
			switch color[c.To] {
			case gray:
				// Walk back along the current path to the start of the cycle.
				r.ErrorConnection(c, "connection %s closes a cycle", c.ID())
				r.ErrorNode(c.To, "node %s is part of a cycle", c.To)
				for i := len(path) - 1; i >= 0 && path[i].To != c.To; i-- {
					r.ErrorConnection(path[i], "connection %s is part of a cycle", path[i].ID())
					r.ErrorNode(path[i].To, "node %s is part of a cycle", path[i].To)
				}
			case white:
				path = append(path, c)
				visit(c.To)
				path = path[:len(path)-1]
			}
		}
		color[id] = black
	}

	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			visit(n.ID)
		}
	}
}
