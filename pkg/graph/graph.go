package graph

import "slices"

// Graph is a mutable container of nodes, connections and groups.
// It performs no validation beyond node identity: adding a node whose ID is
// already present replaces it in place (last writer wins). Iteration order is
// insertion order, which keeps compilation deterministic.
type Graph struct {
	nodes       map[NodeID]Node
	order       []NodeID
	connections []Connection
	groups      []Group
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[NodeID]Node),
	}
}

// AddNode adds n, replacing any node with the same ID.
func (g *Graph) AddNode(n Node) {
	if _, ok := g.nodes[n.ID]; !ok {
		g.order = append(g.order, n.ID)
	}
	g.nodes[n.ID] = n
}

// RemoveNode removes the node with the given ID. Connections and groups that
// reference it are left untouched; the validator reports them as dangling.
func (g *Graph) RemoveNode(id NodeID) {
	if _, ok := g.nodes[id]; !ok {
		return
	}
	delete(g.nodes, id)
	g.order = slices.DeleteFunc(g.order, func(o NodeID) bool { return o == id })
}

// AddConnection appends a connection. Duplicates are not filtered.
func (g *Graph) AddConnection(c Connection) {
	g.connections = append(g.connections, c)
}

// RemoveConnection removes the first connection equal to c and reports
// whether one was found.
func (g *Graph) RemoveConnection(c Connection) bool {
	i := slices.Index(g.connections, c)
	if i < 0 {
		return false
	}
	g.connections = slices.Delete(g.connections, i, i+1)
	return true
}

// AddGroup appends a group.
func (g *Graph) AddGroup(grp Group) {
	g.groups = append(g.groups, grp)
}

// RemoveGroup removes every group with the given name.
func (g *Graph) RemoveGroup(name string) {
	g.groups = slices.DeleteFunc(g.groups, func(grp Group) bool { return grp.Name == name })
}

// Node returns the node with the given ID.
func (g *Graph) Node(id NodeID) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Has reports whether a node with the given ID exists.
func (g *Graph) Has(id NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Connections returns a copy of all connections in insertion order.
func (g *Graph) Connections() []Connection {
	return slices.Clone(g.connections)
}

// Groups returns a copy of all groups.
func (g *Graph) Groups() []Group {
	return slices.Clone(g.groups)
}

// Incoming returns the connections ending at the given node.
func (g *Graph) Incoming(id NodeID) []Connection {
	var in []Connection
	for _, c := range g.connections {
		if c.To == id {
			in = append(in, c)
		}
	}
	return in
}

// Outgoing returns the connections starting at the given node.
func (g *Graph) Outgoing(id NodeID) []Connection {
	var out []Connection
	for _, c := range g.connections {
		if c.From == id {
			out = append(out, c)
		}
	}
	return out
}

// NodeCount returns the total number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// Upstream returns the IDs of every node that reaches start through
// connections, start included, in breadth-first order. Unknown IDs that are
// referenced by connections are included so that validators can report them.
func (g *Graph) Upstream(start NodeID) []NodeID {
	seen := map[NodeID]bool{start: true}
	queue := []NodeID{start}
	var out []NodeID
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		out = append(out, current)
		for _, c := range g.connections {
			if c.To == current && !seen[c.From] {
				seen[c.From] = true
				queue = append(queue, c.From)
			}
		}
	}
	return out
}

// SubGraph returns a new graph holding only the given nodes and the
// connections whose endpoints are both among them. Groups are not copied.
func (g *Graph) SubGraph(ids []NodeID) *Graph {
	keep := make(map[NodeID]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	sub := New()
	for _, id := range g.order {
		if keep[id] {
			sub.AddNode(g.nodes[id])
		}
	}
	for _, c := range g.connections {
		if keep[c.To] && (keep[c.From] || !g.Has(c.From)) {
			sub.AddConnection(c)
		}
	}
	return sub
}

// Ordered returns every node ID such that each node comes after all of its
// known upstream nodes. Ties keep insertion order. Nodes on a cycle are
// emitted once, in discovery order.
func (g *Graph) Ordered() []NodeID {
	visited := make(map[NodeID]bool, len(g.nodes))
	out := make([]NodeID, 0, len(g.nodes))
	for _, id := range g.order {
		out = g.postOrder(id, visited, out)
	}
	return out
}

// OrderedFrom returns the known nodes that reach end, end included, upstream
// first. Nodes with no path to end are left out.
func (g *Graph) OrderedFrom(end NodeID) []NodeID {
	if !g.Has(end) {
		return nil
	}
	return g.postOrder(end, make(map[NodeID]bool), nil)
}

func (g *Graph) postOrder(id NodeID, visited map[NodeID]bool, out []NodeID) []NodeID {
	if visited[id] || !g.Has(id) {
		return out
	}
	visited[id] = true
	for _, c := range g.Incoming(id) {
		out = g.postOrder(c.From, visited, out)
	}
	return append(out, id)
}
