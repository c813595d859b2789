// Package producer maps graph nodes to build steps.
//
// A Producer is registered for a graph Kind and a node type. When a graph is
// compiled, every node is resolved to the first producer whose kind is the
// graph's kind or one of its ancestors, and the producer turns the node and
// its resolved wiring into a Step. The concrete Step contract belongs to the
// back end that runs it.
package producer

// Kind is a graph kind. Kinds form a tree: a producer registered for a kind
// also serves every kind descending from it.
type Kind struct {
	Name   string
	Parent *Kind
}

// Root is the ancestor of every graph kind. Producers registered for Root
// are available to all graphs.
var Root = &Kind{Name: "graph"}

// NewKind returns a kind descending from parent. A nil parent means Root.
func NewKind(name string, parent *Kind) *Kind {
	if parent == nil {
		parent = Root
	}
	return &Kind{Name: name, Parent: parent}
}

// Is reports whether k is other or descends from it.
func (k *Kind) Is(other *Kind) bool {
	for cur := k; cur != nil; cur = cur.Parent {
		if cur == other {
			return true
		}
	}
	return false
}

func (k *Kind) String() string {
	if k == nil {
		return "<nil>"
	}
	return k.Name
}
