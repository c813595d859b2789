// Package numeric is the back end that evaluates graphs to plain values.
//
// Values are float64, sdfx vectors (v2.Vec, v3.Vec), field.Vec4 for
// colours and 4-vectors, bool, and sdf.M44 for transforms.
package numeric

import (
	"fmt"
	"log/slog"

	"github.com/chazu/shadegraph/internal/logging"
	"github.com/chazu/shadegraph/pkg/graph"
	"github.com/chazu/shadegraph/pkg/pipeline"
	"github.com/chazu/shadegraph/pkg/producer"
)

// Kind is the graph kind served by numeric producers.
var Kind = producer.NewKind("render-pipeline graph", nil)

// GraphTypeName is the registry name of the numeric graph type.
const GraphTypeName = "render-pipeline"

// GraphType returns the numeric graph type.
func GraphType() producer.GraphType {
	return producer.BasicGraphType{TypeName: GraphTypeName, GraphKind: Kind}
}

// Blackboard holds the values computed during one run.
type Blackboard = pipeline.Blackboard[any]

// Step computes the outputs of one node.
type Step interface {
	Run(bb *Blackboard) error
}

// StepFunc adapts a function into a Step.
type StepFunc func(bb *Blackboard) error

// Run implements Step.
func (f StepFunc) Run(bb *Blackboard) error { return f(bb) }

// Run executes a compiled pipeline on a fresh blackboard. params supplies a
// value for every external input the pipeline was compiled with.
func Run(p *pipeline.Pipeline, params map[graph.FieldID]any) (*Blackboard, error) {
	log := logging.Logger()
	bb := pipeline.NewBlackboard[any]()

	for _, ext := range p.Externals {
		v, ok := params[ext.Name]
		if !ok {
			return nil, fmt.Errorf("external input %q has no value", ext.Name)
		}
		if !ext.Type.Accepts(v) {
			return nil, fmt.Errorf("external input %q: %T is not a %s", ext.Name, v, ext.Type.Name())
		}
		if err := bb.Set(producer.ExternalNode, ext.Name, ext.Type, v); err != nil {
			return nil, err
		}
	}

	for _, e := range p.Entries {
		step, ok := e.Step.(Step)
		if !ok {
			return nil, fmt.Errorf("node %s: step %T is not a numeric step", e.Node.ID, e.Step)
		}
		if err := step.Run(bb); err != nil {
			return nil, fmt.Errorf("node %s: %w", e.Node.ID, err)
		}
	}
	log.Debug("numeric pipeline run", slog.String("end", string(p.End)), slog.Int("values", bb.Len()))
	return bb, nil
}

// Result returns the value published by the pipeline's end node on its
// "out" field.
func Result(p *pipeline.Pipeline, bb *Blackboard) (any, error) {
	return bb.Get(p.End, "out", nil)
}
