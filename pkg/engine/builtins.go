package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/shadegraph/pkg/field"
	"github.com/chazu/shadegraph/pkg/graph"
	"github.com/chazu/shadegraph/pkg/producer"
)

// sexpNodeRef wraps a graph.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id graph.NodeID
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(noderef %q)", n.id)
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// sexpData wraps a node payload built by vec or color.
type sexpData struct {
	data graph.NodeData
}

func (d *sexpData) SexpString(ps *zygo.PrintState) string {
	switch v := d.data.(type) {
	case graph.VectorData:
		parts := make([]string, v.Size)
		for i := range parts {
			parts[i] = fmt.Sprintf("%g", v.Components[i])
		}
		return "(vec " + strings.Join(parts, " ") + ")"
	case graph.ColorData:
		return fmt.Sprintf("(color %g %g %g %g)", v.R, v.G, v.B, v.A)
	}
	return fmt.Sprintf("(data %T)", d.data)
}
func (d *sexpData) Type() *zygo.RegisteredType { return nil }

// toFloats extracts count numbers from args.
func toFloats(what string, args []zygo.Sexp) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := asNumber(a)
		if err != nil {
			return nil, fmt.Errorf("%s: component %d: %w", what, i, err)
		}
		out[i] = f
	}
	return out, nil
}

// toValue converts the :value of a literal node into its payload.
func toValue(s zygo.Sexp) (graph.NodeData, error) {
	switch v := s.(type) {
	case *sexpData:
		return v.data, nil
	case *zygo.SexpBool:
		return graph.BoolData{Value: v.Val}, nil
	case *zygo.SexpStr:
		switch name, _ := asName(v); name {
		case "true":
			return graph.BoolData{Value: true}, nil
		case "false":
			return graph.BoolData{}, nil
		}
	}
	f, err := asNumber(s)
	if err != nil {
		return nil, fmt.Errorf("expected number, boolean, vec or color: %w", err)
	}
	return graph.FloatData{Value: f}, nil
}

// nodeData builds the payload of a node from its keyword arguments. At most
// one payload may be given.
func nodeData(kw map[string]zygo.Sexp) (graph.NodeData, error) {
	var data graph.NodeData
	set := func(d graph.NodeData) error {
		if data != nil {
			return fmt.Errorf("conflicting node data %T and %T", data, d)
		}
		data = d
		return nil
	}
	str := func(key string) (string, bool, error) {
		v, ok := kw[key]
		if !ok {
			return "", false, nil
		}
		s, err := asName(v)
		if err != nil {
			return "", true, fmt.Errorf("%s: %w", key, err)
		}
		return s, true, nil
	}

	if v, ok := kw["value"]; ok {
		d, err := toValue(v)
		if err != nil {
			return nil, fmt.Errorf("value: %w", err)
		}
		if err := set(d); err != nil {
			return nil, err
		}
	}
	if s, ok, err := str("name"); err != nil {
		return nil, err
	} else if ok {
		if err := set(graph.NameData{Name: s}); err != nil {
			return nil, err
		}
	}
	if s, ok, err := str("property"); err != nil {
		return nil, err
	} else if ok {
		typ, _, err := str("type")
		if err != nil {
			return nil, err
		}
		if err := set(graph.PropertyData{Name: s, Type: typ}); err != nil {
			return nil, err
		}
	}
	if s, ok, err := str("components"); err != nil {
		return nil, err
	} else if ok {
		if err := set(graph.SwizzleData{Components: s}); err != nil {
			return nil, err
		}
	}
	if s, ok, err := str("expr"); err != nil {
		return nil, err
	} else if ok {
		if err := set(graph.ExpressionData{Expr: s}); err != nil {
			return nil, err
		}
	}
	if s, ok, err := str("op"); err != nil {
		return nil, err
	} else if ok {
		if err := set(graph.CompareData{Op: graph.CompareOp(s)}); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// registerBuiltins installs the graph DSL builtins into a zygomys
// environment. The builtins populate res during evaluation and expect source
// that went through preprocessSource.
func registerBuiltins(env *zygo.Zlisp, res *Result, fields *field.Registry) {
	g := res.Graph

	// (node "id" "type" :value 0.5)
	env.AddFunction("node", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := splitArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("node requires an id and a type")
		}
		id, err := asString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("node: id: %w", err)
		}
		typ, err := asString(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("node %s: type: %w", id, err)
		}
		if id == "" {
			return zygo.SexpNull, fmt.Errorf("node: id is empty")
		}
		if g.Has(graph.NodeID(id)) {
			return zygo.SexpNull, fmt.Errorf("node %s is already defined", id)
		}
		data, err := nodeData(pa.named)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("node %s: %w", id, err)
		}

		g.AddNode(graph.NewNode(graph.NodeID(id), typ, data))
		return &sexpNodeRef{id: graph.NodeID(id)}, nil
	})

	// (ref "id")
	env.AddFunction("ref", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("ref requires a node id")
		}
		id, err := asString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ref: %w", err)
		}
		if !g.Has(graph.NodeID(id)) {
			return zygo.SexpNull, fmt.Errorf("ref: no node named %q", id)
		}
		return &sexpNodeRef{id: graph.NodeID(id)}, nil
	})

	// (connect from :out to :in)
	env.AddFunction("connect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("connect requires source, field, target and field, got %d arguments", len(args))
		}
		from, err := asNode(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("connect: source: %w", err)
		}
		fromField, err := asName(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("connect: source field: %w", err)
		}
		to, err := asNode(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("connect: target: %w", err)
		}
		toField, err := asName(args[3])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("connect: target field: %w", err)
		}

		g.AddConnection(graph.Connect(from, graph.FieldID(fromField), to, graph.FieldID(toField)))
		return &sexpNodeRef{id: to}, nil
	})

	// (group "name" a b c)
	env.AddFunction("group", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("group requires a name argument")
		}
		grpName, err := asString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("group: name: %w", err)
		}
		grp := graph.Group{Name: grpName}
		for i := 1; i < len(args); i++ {
			id, err := asNode(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("group %s: member %d: %w", grpName, i, err)
			}
			grp.Nodes = append(grp.Nodes, id)
		}
		g.AddGroup(grp)
		return zygo.SexpNull, nil
	})

	// (end s)
	env.AddFunction("end", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("end requires a node reference")
		}
		id, err := asNode(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("end: %w", err)
		}
		if !res.End.IsZero() && res.End != id {
			return zygo.SexpNull, fmt.Errorf("end: already set to %s", res.End)
		}
		res.End = id
		return args[0], nil
	})

	// (external :in "Float")
	env.AddFunction("external", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("external requires a field and a type")
		}
		fid, err := asName(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("external: field: %w", err)
		}
		typeName, err := asName(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("external %s: type: %w", fid, err)
		}
		t, err := fields.Resolve(typeName)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("external %s: %w", fid, err)
		}
		res.Externals = append(res.Externals, producer.External{Name: graph.FieldID(fid), Type: t})
		return zygo.SexpNull, nil
	})

	// (vec 1 2 3)
	env.AddFunction("vec", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 || len(args) > 4 {
			return zygo.SexpNull, fmt.Errorf("vec requires 2 to 4 components, got %d", len(args))
		}
		c, err := toFloats("vec", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpData{data: graph.Vector(c...)}, nil
	})

	// (color 1 0.5 0) or (color 1 0.5 0 0.8)
	env.AddFunction("color", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 && len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("color requires 3 or 4 components, got %d", len(args))
		}
		c, err := toFloats("color", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		cd := graph.ColorData{R: c[0], G: c[1], B: c[2], A: 1}
		if len(c) == 4 {
			cd.A = c[3]
		}
		return &sexpData{data: cd}, nil
	})
}
