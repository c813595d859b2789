package producer

import (
	"github.com/chazu/shadegraph/pkg/field"
	"github.com/chazu/shadegraph/pkg/graph"
)

// DefaultValidator returns the checks every graph kind runs before it is
// compiled. Structural problems stop validation before producers are
// consulted, and wiring problems stop it before types are resolved.
func DefaultValidator(s Scope) graph.Validator {
	return graph.Serial{
		graph.StructureValidator(),
		graph.ValidatorFunc(s.ValidateWiring),
		graph.ValidatorFunc(s.ValidateTypes),
		graph.ValidatorFunc(ValidateOrphans),
	}
}

func (s Scope) configurations(g *graph.Graph, r *graph.ValidationResult) map[graph.NodeID]Configuration {
	configs := make(map[graph.NodeID]Configuration)
	for _, n := range g.Nodes() {
		p, err := s.Producers.Resolve(s.Kind, n.Type)
		if err == nil {
			var cfg Configuration
			if cfg, err = ConfigurationOf(p, n); err == nil {
				configs[n.ID] = cfg
				continue
			}
		}
		if r != nil {
			r.ErrorNode(n.ID, "%v", err)
		}
	}
	return configs
}

// ValidateWiring checks that every node has a producer, that connections use
// fields the producers declare, that required inputs are connected (or
// supplied externally) and that single inputs have at most one connection.
func (s Scope) ValidateWiring(g *graph.Graph, r *graph.ValidationResult) {
	configs := s.configurations(g, r)

	for _, c := range g.Connections() {
		if cfg, ok := configs[c.From]; ok {
			if _, ok := cfg.Output(c.FromField); !ok {
				r.ErrorConnection(c, "node %s has no output %q", c.From, c.FromField)
			}
		}
		if cfg, ok := configs[c.To]; ok {
			if _, ok := cfg.Input(c.ToField); !ok {
				r.ErrorConnection(c, "node %s has no input %q", c.To, c.ToField)
			}
		}
	}

	for _, n := range g.Nodes() {
		cfg, ok := configs[n.ID]
		if !ok {
			continue
		}
		incoming := g.Incoming(n.ID)
		for _, in := range cfg.Inputs {
			count := 0
			for _, c := range incoming {
				if c.ToField == in.ID {
					count++
				}
			}
			conn := graph.Connector{Node: n.ID, Field: in.ID}
			switch {
			case count == 0 && in.Required:
				if _, ok := s.external(in.ID); !ok {
					r.ErrorConnector(conn, "required input %q is not connected", in.ID)
				}
			case count > 1 && !in.Multiple:
				r.ErrorConnector(conn, "input %q accepts one connection, got %d", in.ID, count)
			}
		}
	}
}

// ValidateTypes resolves output types upstream first and checks that every
// input accepts the type supplied to it. It assumes the graph is acyclic and
// correctly wired.
func (s Scope) ValidateTypes(g *graph.Graph, r *graph.ValidationResult) {
	configs := s.configurations(g, nil)
	resolved := make(map[graph.Connector]field.FieldType)

	for _, id := range g.Ordered() {
		cfg, ok := configs[id]
		if !ok {
			continue
		}
		inTypes := make(map[graph.FieldID][]field.FieldType)
		complete := true
		for _, c := range g.Incoming(id) {
			t, ok := resolved[c.Source()]
			if !ok {
				complete = false
				continue
			}
			def, _ := cfg.Input(c.ToField)
			if def.Accepts != nil && !def.Accepts(t) {
				r.ErrorConnection(c, "input %q of node %s does not accept %s", c.ToField, id, t.Name())
				complete = false
				continue
			}
			inTypes[c.ToField] = append(inTypes[c.ToField], t)
		}
		for _, def := range cfg.Inputs {
			if len(inTypes[def.ID]) > 0 {
				continue
			}
			ext, ok := s.external(def.ID)
			if !ok {
				continue
			}
			if def.Accepts != nil && !def.Accepts(ext.Type) {
				r.ErrorConnector(graph.Connector{Node: id, Field: def.ID},
					"external input %q of type %s is not accepted", ext.Name, ext.Type.Name())
				complete = false
				continue
			}
			inTypes[def.ID] = []field.FieldType{ext.Type}
		}
		if !complete {
			continue
		}
		outs, err := cfg.ResolveOutputs(inTypes)
		if err != nil {
			r.ErrorNode(id, "%v", err)
			continue
		}
		for fid, t := range outs {
			resolved[graph.Connector{Node: id, Field: fid}] = t
		}
	}
}

// ValidateOrphans warns about nodes that have no connection at all in a
// graph of more than one node.
func ValidateOrphans(g *graph.Graph, r *graph.ValidationResult) {
	if g.NodeCount() < 2 {
		return
	}
	linked := make(map[graph.NodeID]bool)
	for _, c := range g.Connections() {
		linked[c.From] = true
		linked[c.To] = true
	}
	for _, n := range g.Nodes() {
		if !linked[n.ID] {
			r.WarningNode(n.ID, "node is not connected to anything")
		}
	}
}
