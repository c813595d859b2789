package numeric

import (
	"fmt"

	"github.com/chazu/shadegraph/pkg/field"
	"github.com/chazu/shadegraph/pkg/graph"
	"github.com/chazu/shadegraph/pkg/producer"
	"github.com/google/cel-go/cel"
)

var expressionVars = []graph.FieldID{"a", "b", "c", "d"}

// compileExpression type-checks a CEL expression over the float variables
// a..d. The expression must yield a double or an int.
func compileExpression(expr string) (cel.Program, error) {
	opts := make([]cel.EnvOption, len(expressionVars))
	for i, id := range expressionVars {
		opts[i] = cel.Variable(string(id), cel.DoubleType)
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("failed to parse expression %q: %w", expr, iss.Err())
	}
	if t := ast.OutputType(); !t.IsExactType(cel.DoubleType) && !t.IsExactType(cel.IntType) {
		return nil, fmt.Errorf("expression %q yields %s, want double", expr, t)
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}
	return prg, nil
}

func expressionNode() producer.Definition {
	inputs := make([]producer.InputDef, len(expressionVars))
	for i, id := range expressionVars {
		inputs[i] = producer.InputDef{ID: id, Name: string(id), Accepts: producer.AcceptsTypes(field.Float)}
	}
	return producer.Definition{
		Name: "expression",
		Doc:  "evaluates a CEL expression over the float inputs a, b, c and d",
		Config: producer.Configuration{
			Inputs:  inputs,
			Outputs: out(field.Float),
		},
		Create: func(req producer.Request) (producer.Step, error) {
			d, err := dataAs[graph.ExpressionData](req.Node)
			if err != nil {
				return nil, err
			}
			prg, err := compileExpression(d.Expr)
			if err != nil {
				return nil, err
			}
			n := node{req}
			return StepFunc(func(bb *Blackboard) error {
				vars := make(map[string]any, len(expressionVars))
				for _, id := range expressionVars {
					v, err := n.inOr(bb, id, 0.0)
					if err != nil {
						return err
					}
					vars[string(id)] = v
				}
				res, _, err := prg.Eval(vars)
				if err != nil {
					return fmt.Errorf("evaluating %q: %w", d.Expr, err)
				}
				switch v := res.Value().(type) {
				case float64:
					return n.publish(bb, "out", v)
				case int64:
					return n.publish(bb, "out", float64(v))
				default:
					return fmt.Errorf("expression %q yielded %T", d.Expr, v)
				}
			}), nil
		},
	}
}
