// Package graph defines the node graph types for shadegraph.
// A graph is a mutable container of typed nodes, directed connections between
// node fields, and organisational groups. It carries no type knowledge; the
// validators in this package and in package producer decide whether a graph
// can be compiled.
package graph
