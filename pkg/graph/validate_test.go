package graph

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// buildChain creates a -> b -> c.
func buildChain() *Graph {
	g := New()
	g.AddNode(NewNode("a", "constant", FloatData{Value: 1}))
	g.AddNode(NewNode("b", "sin", nil))
	g.AddNode(NewNode("c", "output", nil))
	g.AddConnection(Connect("a", "out", "b", "in"))
	g.AddConnection(Connect("b", "out", "c", "value"))
	return g
}

// hasFinding returns true if r contains a finding of the given severity
// whose message contains substr.
func hasFinding(r *ValidationResult, sev ValidationSeverity, substr string) bool {
	for _, f := range r.Findings {
		if f.Severity == sev && strings.Contains(f.Message, substr) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestStructure_ValidGraph(t *testing.T) {
	r := StructureValidator().Validate(buildChain())
	if r.HasErrors() || r.HasWarnings() {
		for _, f := range r.Findings {
			t.Errorf("unexpected finding: %s", f)
		}
	}
}

func TestStructure_EmptyGraph(t *testing.T) {
	r := StructureValidator().Validate(New())
	if r.HasErrors() {
		t.Errorf("unexpected errors on empty graph: %v", r.Findings)
	}
}

func TestStructure_DanglingConnection(t *testing.T) {
	g := buildChain()
	dangling := Connect("ghost", "out", "b", "in")
	g.AddConnection(dangling)

	r := StructureValidator().Validate(g)
	if !r.HasErrors() {
		t.Fatal("expected errors")
	}
	if ids := r.ErrorConnections(); len(ids) != 1 || ids[0] != dangling.ID() {
		t.Errorf("error connections = %v", ids)
	}
	if !hasFinding(r, SeverityError, "non-existent node ghost") {
		t.Errorf("missing finding: %v", r.Findings)
	}
}

func TestStructure_CycleDetection(t *testing.T) {
	g := New()
	g.AddNode(NewNode("A", "x", nil))
	g.AddNode(NewNode("B", "x", nil))
	g.AddConnection(Connect("A", "out", "B", "in"))
	g.AddConnection(Connect("B", "out", "A", "in"))

	r := StructureValidator().Validate(g)
	if !r.HasErrors() {
		t.Fatal("expected cycle error")
	}
	for _, id := range []NodeID{"A", "B"} {
		if !r.IsErrorNode(id) {
			t.Errorf("node %s should be flagged", id)
		}
	}
	if len(r.ErrorConnections()) != 2 {
		t.Errorf("error connections = %v, want both", r.ErrorConnections())
	}
}

func TestStructure_SelfLoop(t *testing.T) {
	g := New()
	g.AddNode(NewNode("A", "x", nil))
	g.AddConnection(Connect("A", "out", "A", "in"))

	r := StructureValidator().Validate(g)
	if !r.IsErrorNode("A") {
		t.Error("self loop should be flagged")
	}
}

func TestStructure_GroupWarning(t *testing.T) {
	g := buildChain()
	g.AddGroup(Group{Name: "g", Nodes: []NodeID{"a", "zzz"}})
	r := StructureValidator().Validate(g)
	if r.HasErrors() {
		t.Errorf("unexpected errors: %v", r.Findings)
	}
	if !hasFinding(r, SeverityWarning, `group "g"`) {
		t.Errorf("expected group warning, got %v", r.Findings)
	}
}

func TestValidateSubGraph_IgnoresUnreachableCycle(t *testing.T) {
	g := buildChain()
	g.AddNode(NewNode("x", "x", nil))
	g.AddNode(NewNode("y", "x", nil))
	g.AddConnection(Connect("x", "out", "y", "in"))
	g.AddConnection(Connect("y", "out", "x", "in"))

	if r := StructureValidator().Validate(g); !r.HasErrors() {
		t.Error("whole-graph validation should see the cycle")
	}
	if r := StructureValidator().ValidateSubGraph(g, "c"); r.HasErrors() {
		t.Errorf("sub-graph validation should not see the cycle: %v", r.Findings)
	}
	if r := StructureValidator().ValidateSubGraph(g, "missing"); !r.IsErrorNode("missing") {
		t.Error("unknown start node should be an error")
	}
}

func TestSerialShortCircuits(t *testing.T) {
	var calls []string
	mk := func(name string, fail bool) Validator {
		return ValidatorFunc(func(g *Graph, r *ValidationResult) {
			calls = append(calls, name)
			if fail {
				r.ErrorNode("a", "%s failed", name)
			} else {
				r.WarningNode("b", "%s warned", name)
			}
		})
	}

	r := Serial{mk("first", false), mk("second", true), mk("third", false)}.Validate(buildChain())
	if strings.Join(calls, ",") != "first,second" {
		t.Errorf("calls = %v, third validator must not run", calls)
	}
	if !r.HasErrors() || !r.HasWarnings() {
		t.Error("result should carry the error and the earlier warning")
	}
}

func TestSumIsIdempotentUnion(t *testing.T) {
	a := NewValidationResult()
	a.ErrorNode("n1", "boom")
	a.ErrorConnector(Connector{Node: "n1", Field: "in"}, "missing")
	b := NewValidationResult()
	b.ErrorNode("n1", "boom again")
	b.WarningConnection(Connect("n0", "out", "n1", "in"), "odd")

	sum := Sum(a, b, nil)
	if got := sum.ErrorNodes(); len(got) != 1 || got[0] != "n1" {
		t.Errorf("error nodes = %v", got)
	}
	if len(sum.ErrorConnectors()) != 1 || len(sum.WarningConnections()) != 1 {
		t.Error("union lost items")
	}
	if len(sum.Errors()) != 3 || len(sum.Warnings()) != 1 {
		t.Errorf("findings = %v", sum.Findings)
	}
}

func TestSeverityString(t *testing.T) {
	if SeverityError.String() != "error" || SeverityWarning.String() != "warning" {
		t.Error("unexpected severity names")
	}
	if ValidationSeverity(7).String() != "ValidationSeverity(7)" {
		t.Error("unexpected fallback")
	}
	e := ValidationError{NodeID: "n", Message: "bad", Severity: SeverityError}
	if e.Error() != "[error] node n: bad" {
		t.Errorf("Error() = %q", e.Error())
	}
}
