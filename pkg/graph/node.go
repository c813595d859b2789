package graph

import "fmt"

// NodeID identifies a node. It is unique within a graph.
type NodeID string

// IsZero reports whether the ID is empty.
func (id NodeID) IsZero() bool { return id == "" }

// FieldID names an input or output slot of a node.
type FieldID string

// Node is the fundamental element of the graph. Nodes are values: editing a
// node means replacing it wholesale with AddNode.
type Node struct {
	ID   NodeID   `json:"id"`
	Type string   `json:"type"`           // selects the producer
	Data NodeData `json:"data,omitempty"` // type-specific configuration, may be nil
}

// NewNode returns a node with the given identity, type and configuration.
func NewNode(id NodeID, typ string, data NodeData) Node {
	return Node{ID: id, Type: typ, Data: data}
}

func (n Node) String() string {
	return fmt.Sprintf("%s(%s)", n.ID, n.Type)
}

// Connector addresses one field of one node.
type Connector struct {
	Node  NodeID  `json:"node"`
	Field FieldID `json:"field"`
}

func (c Connector) String() string {
	return fmt.Sprintf("%s.%s", c.Node, c.Field)
}

// ConnectionID is the stable identity of a connection, derived from its
// endpoints.
type ConnectionID string

// Connection is a directed edge from an output field to an input field.
type Connection struct {
	From      NodeID  `json:"from"`
	FromField FieldID `json:"from_field"`
	To        NodeID  `json:"to"`
	ToField   FieldID `json:"to_field"`
}

// Connect is shorthand for building a Connection.
func Connect(from NodeID, fromField FieldID, to NodeID, toField FieldID) Connection {
	return Connection{From: from, FromField: fromField, To: to, ToField: toField}
}

// ID returns the connection identity "from.field->to.field".
func (c Connection) ID() ConnectionID {
	return ConnectionID(c.Source().String() + "->" + c.Target().String())
}

// Source returns the output end of the connection.
func (c Connection) Source() Connector { return Connector{Node: c.From, Field: c.FromField} }

// Target returns the input end of the connection.
func (c Connection) Target() Connector { return Connector{Node: c.To, Field: c.ToField} }

// Group is a named set of nodes. Groups are purely organisational.
type Group struct {
	Name  string   `json:"name"`
	Nodes []NodeID `json:"nodes"`
}
