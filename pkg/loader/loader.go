// Package loader reads graph documents written in YAML or JSON.
//
//	graphType: shader
//	nodes:
//	  - {id: c, type: constant, value: 0.5}
//	  - {id: s, type: sin}
//	connections:
//	  - {from: c.out, to: s.in}
//	end: s
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/chazu/shadegraph/pkg/field"
	"github.com/chazu/shadegraph/pkg/graph"
	"github.com/chazu/shadegraph/pkg/producer"
)

// Document is the serialised form of a graph.
type Document struct {
	// GraphType names the graph type the document compiles as, e.g.
	// "render-pipeline" or "shader". Empty leaves the choice to the caller.
	GraphType   string           `json:"graphType,omitempty"`
	Nodes       []NodeSpec       `json:"nodes"`
	Connections []ConnectionSpec `json:"connections,omitempty"`
	Groups      []graph.Group    `json:"groups,omitempty"`
	End         graph.NodeID     `json:"end,omitempty"`
	Externals   []ExternalSpec   `json:"externals,omitempty"`
}

// NodeSpec is one node. At most one payload field may be set.
type NodeSpec struct {
	ID   graph.NodeID `json:"id"`
	Type string       `json:"type"`

	// Value is a number, a boolean, or a list of 2 to 4 numbers. Lists
	// become colours on color nodes and vectors elsewhere.
	Value any `json:"value,omitempty"`

	Name         string `json:"name,omitempty"`
	Property     string `json:"property,omitempty"`
	PropertyType string `json:"propertyType,omitempty"`
	Components   string `json:"components,omitempty"`
	Expr         string `json:"expr,omitempty"`
	Op           string `json:"op,omitempty"`
}

// ConnectionSpec links an output to an input, both written "node.field".
type ConnectionSpec struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ExternalSpec declares an input satisfied at run time.
type ExternalSpec struct {
	Name graph.FieldID `json:"name"`
	Type string        `json:"type"`
}

// LoadResult is the outcome of loading one file.
type LoadResult struct {
	Path     string
	Document *Document
	Err      error
}

// Extensions lists the file extensions read as documents.
var Extensions = []string{".yaml", ".yml", ".json"}

func isDocument(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// collectFiles returns the document paths under path. A file is returned
// as is; a directory yields its documents, non-recursively and sorted.
func collectFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	if !info.IsDir() {
		if !isDocument(path) {
			return nil, fmt.Errorf("file %q must have a .yaml, .yml or .json extension", path)
		}
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isDocument(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(path, entry.Name()))
	}

	sort.Strings(files)
	return files, nil
}

// LoadDetailed loads every document under path, returning per-file results
// so callers can continue past a bad file. Only errors accessing path itself
// are returned directly.
func LoadDetailed(path string) ([]LoadResult, error) {
	files, err := collectFiles(path)
	if err != nil {
		return nil, err
	}

	results := make([]LoadResult, 0, len(files))
	for _, file := range files {
		doc, loadErr := LoadFile(file)
		results = append(results, LoadResult{Path: file, Document: doc, Err: loadErr})
	}
	return results, nil
}

// LoadFile reads and parses a single document.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML or JSON document. Unknown keys are rejected.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph document: %w", err)
	}
	if len(doc.Nodes) == 0 {
		return nil, fmt.Errorf("graph document declares no nodes")
	}
	return &doc, nil
}

// Marshal encodes d as YAML.
func Marshal(d *Document) ([]byte, error) {
	return yaml.Marshal(d)
}

// ---------------------------------------------------------------------------
// Document -> graph
// ---------------------------------------------------------------------------

// Graph builds the node graph described by d.
func (d *Document) Graph() (*graph.Graph, error) {
	g := graph.New()
	for _, n := range d.Nodes {
		if n.ID.IsZero() {
			return nil, fmt.Errorf("node of type %q has no id", n.Type)
		}
		if g.Has(n.ID) {
			return nil, fmt.Errorf("node %s is already defined", n.ID)
		}
		data, err := n.data()
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
		g.AddNode(graph.NewNode(n.ID, n.Type, data))
	}

	for i, c := range d.Connections {
		from, err := parseConnector(c.From)
		if err != nil {
			return nil, fmt.Errorf("connection %d: from: %w", i, err)
		}
		to, err := parseConnector(c.To)
		if err != nil {
			return nil, fmt.Errorf("connection %d: to: %w", i, err)
		}
		g.AddConnection(graph.Connect(from.Node, from.Field, to.Node, to.Field))
	}

	for _, grp := range d.Groups {
		g.AddGroup(grp)
	}
	return g, nil
}

// ExternalInputs resolves the declared externals against fields.
func (d *Document) ExternalInputs(fields *field.Registry) ([]producer.External, error) {
	out := make([]producer.External, 0, len(d.Externals))
	for _, e := range d.Externals {
		t, err := fields.Resolve(e.Type)
		if err != nil {
			return nil, fmt.Errorf("external %s: %w", e.Name, err)
		}
		out = append(out, producer.External{Name: e.Name, Type: t})
	}
	return out, nil
}

func parseConnector(s string) (graph.Connector, error) {
	i := strings.LastIndexByte(s, '.')
	if i <= 0 || i == len(s)-1 {
		return graph.Connector{}, fmt.Errorf("%q is not of the form node.field", s)
	}
	return graph.Connector{Node: graph.NodeID(s[:i]), Field: graph.FieldID(s[i+1:])}, nil
}

func (n NodeSpec) data() (graph.NodeData, error) {
	var data graph.NodeData
	set := func(d graph.NodeData) error {
		if data != nil {
			return fmt.Errorf("conflicting node data %T and %T", data, d)
		}
		data = d
		return nil
	}

	if n.Value != nil {
		d, err := n.value()
		if err != nil {
			return nil, fmt.Errorf("value: %w", err)
		}
		if err := set(d); err != nil {
			return nil, err
		}
	}
	if n.Name != "" {
		if err := set(graph.NameData{Name: n.Name}); err != nil {
			return nil, err
		}
	}
	if n.Property != "" {
		if err := set(graph.PropertyData{Name: n.Property, Type: n.PropertyType}); err != nil {
			return nil, err
		}
	} else if n.PropertyType != "" {
		return nil, fmt.Errorf("propertyType without property")
	}
	if n.Components != "" {
		if err := set(graph.SwizzleData{Components: n.Components}); err != nil {
			return nil, err
		}
	}
	if n.Expr != "" {
		if err := set(graph.ExpressionData{Expr: n.Expr}); err != nil {
			return nil, err
		}
	}
	if n.Op != "" {
		if err := set(graph.CompareData{Op: graph.CompareOp(n.Op)}); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// value decodes Value. JSON numbers arrive as float64.
func (n NodeSpec) value() (graph.NodeData, error) {
	switch v := n.Value.(type) {
	case float64:
		return graph.FloatData{Value: v}, nil
	case bool:
		return graph.BoolData{Value: v}, nil
	case []any:
		if len(v) < 2 || len(v) > 4 {
			return nil, fmt.Errorf("expected 2 to 4 components, got %d", len(v))
		}
		c := make([]float64, len(v))
		for i, x := range v {
			f, ok := x.(float64)
			if !ok {
				return nil, fmt.Errorf("component %d: expected number, got %T", i, x)
			}
			c[i] = f
		}
		if n.Type == "color" {
			if len(c) < 3 {
				return nil, fmt.Errorf("colour needs 3 or 4 components, got %d", len(c))
			}
			cd := graph.ColorData{R: c[0], G: c[1], B: c[2], A: 1}
			if len(c) == 4 {
				cd.A = c[3]
			}
			return cd, nil
		}
		return graph.Vector(c...), nil
	}
	return nil, fmt.Errorf("expected number, boolean or list, got %T", n.Value)
}

// ---------------------------------------------------------------------------
// Graph -> document
// ---------------------------------------------------------------------------

// FromGraph describes g as a document.
func FromGraph(graphType string, g *graph.Graph, end graph.NodeID, externals []producer.External) (*Document, error) {
	d := &Document{GraphType: graphType, End: end, Groups: g.Groups()}
	for _, n := range g.Nodes() {
		spec := NodeSpec{ID: n.ID, Type: n.Type}
		switch v := n.Data.(type) {
		case nil:
		case graph.FloatData:
			spec.Value = v.Value
		case graph.BoolData:
			spec.Value = v.Value
		case graph.VectorData:
			spec.Value = v.Components[:v.Size]
		case graph.ColorData:
			spec.Value = []float64{v.R, v.G, v.B, v.A}
		case graph.NameData:
			spec.Name = v.Name
		case graph.PropertyData:
			spec.Property, spec.PropertyType = v.Name, v.Type
		case graph.SwizzleData:
			spec.Components = v.Components
		case graph.ExpressionData:
			spec.Expr = v.Expr
		case graph.CompareData:
			spec.Op = string(v.Op)
		default:
			return nil, fmt.Errorf("node %s: cannot serialise %T", n.ID, n.Data)
		}
		d.Nodes = append(d.Nodes, spec)
	}
	for _, c := range g.Connections() {
		d.Connections = append(d.Connections, ConnectionSpec{From: c.Source().String(), To: c.Target().String()})
	}
	for _, e := range externals {
		d.Externals = append(d.Externals, ExternalSpec{Name: e.Name, Type: e.Type.Name()})
	}
	return d, nil
}
