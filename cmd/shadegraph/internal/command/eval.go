package command

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/spf13/cobra"

	"github.com/chazu/shadegraph/pkg/field"
	"github.com/chazu/shadegraph/pkg/graph"
	"github.com/chazu/shadegraph/pkg/producer"
)

type EvalOptions struct {
	Params map[string]string
}

func NewEvalCommand(cli *CLI) *cobra.Command {
	var opts EvalOptions

	cmd := &cobra.Command{
		Use:   "eval <path>",
		Short: "Evaluate a render-pipeline graph to a value",
		Long: Highlight("shadegraph eval [options] <path>") + "\n\n" +
			"Compile a graph as a render-pipeline graph and print the value of its\n" +
			"end node. External inputs are supplied with --param; vectors and\n" +
			"colours are written as comma separated components.\n\n" +
			"Examples:\n" +
			"  shadegraph eval --param in=0.5 graph.sg\n" +
			"  shadegraph eval --param tint=1,0.5,0 graph.yaml\n",
		Args: ExactArgsWithUsage(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunEval(cmd.OutOrStdout(), cli, opts, args[0])
		},
	}

	cmd.Flags().StringToStringVarP(&opts.Params, "param", "p", nil, "External input values, name=value")
	return cmd
}

func RunEval(w io.Writer, cli *CLI, opts EvalOptions, path string) error {
	src, err := cli.App.Load(path)
	if err != nil {
		return err
	}
	params, err := parseParams(src.Externals, opts.Params)
	if err != nil {
		return err
	}
	v, err := cli.App.System().Run(src, params)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, formatValue(v))
	return nil
}

func parseParams(externals []producer.External, raw map[string]string) (map[graph.FieldID]any, error) {
	params := make(map[graph.FieldID]any, len(raw))
	for _, name := range slices.Sorted(maps.Keys(raw)) {
		i := slices.IndexFunc(externals, func(e producer.External) bool { return string(e.Name) == name })
		if i < 0 {
			return nil, fmt.Errorf("param %s: graph declares no such external input", name)
		}
		v, err := parseValue(externals[i].Type, raw[name])
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", name, err)
		}
		params[graph.FieldID(name)] = v
	}
	return params, nil
}

// parseValue parses s as a value of type t.
func parseValue(t field.FieldType, s string) (any, error) {
	switch t.Name() {
	case field.Boolean.Name():
		return strconv.ParseBool(s)
	case field.Texture.Name():
		if s == "" {
			return nil, fmt.Errorf("empty texture name")
		}
		return s, nil
	}

	want := field.Size(t)
	if want == 0 {
		return nil, fmt.Errorf("cannot parse a %s value", t.Name())
	}
	parts := strings.Split(s, ",")
	c := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		c[i] = f
	}

	if t.Name() == field.Color.Name() && len(c) == 3 {
		c = append(c, 1)
	}
	if len(c) != want {
		return nil, fmt.Errorf("%s needs %d component(s), got %d", t.Name(), want, len(c))
	}
	switch want {
	case 1:
		return c[0], nil
	case 2:
		return v2.Vec{X: c[0], Y: c[1]}, nil
	case 3:
		return v3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
	default:
		return field.Vec4{X: c[0], Y: c[1], Z: c[2], W: c[3]}, nil
	}
}

func formatValue(v any) string {
	f := func(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }
	switch v := v.(type) {
	case float64:
		return f(v)
	case v2.Vec:
		return fmt.Sprintf("(%s, %s)", f(v.X), f(v.Y))
	case v3.Vec:
		return fmt.Sprintf("(%s, %s, %s)", f(v.X), f(v.Y), f(v.Z))
	case field.Vec4:
		return fmt.Sprintf("(%s, %s, %s, %s)", f(v.X), f(v.Y), f(v.Z), f(v.W))
	}
	return fmt.Sprint(v)
}
