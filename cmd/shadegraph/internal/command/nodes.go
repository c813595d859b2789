package command

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/chazu/shadegraph/pkg/field"
	"github.com/chazu/shadegraph/pkg/producer"
)

type NodesOptions struct {
	GraphType string
}

func NewNodesCommand(cli *CLI) *cobra.Command {
	var opts NodesOptions

	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "List the node types of a graph type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunNodes(cmd.OutOrStdout(), cli, opts)
		},
	}

	cmd.Flags().StringVar(&opts.GraphType, "graph-type", "", "Graph type to list (default: the configured one)")
	return cmd
}

func RunNodes(w io.Writer, cli *CLI, opts NodesOptions) error {
	graphType := cli.Config.GraphType
	if opts.GraphType != "" {
		graphType = opts.GraphType
	}
	types, err := cli.App.System().NodeTypes(graphType)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, Highlight("Node types of %s:", graphType))
	for nt := range types {
		fmt.Fprintf(w, "\n  %s  %s\n", color.New(color.Bold).Sprint(nt.Name), nt.Description)
		for _, in := range nt.Inputs {
			req := ""
			if in.Required {
				req = " (required)"
			}
			fmt.Fprintf(w, "    in  %s%s\n", in.ID, req)
		}
		for _, out := range nt.Outputs {
			fmt.Fprintf(w, "    out %s: %s\n", out.ID, outputTypes(out))
		}
	}
	return nil
}

func outputTypes(out producer.OutputDef) string {
	if len(out.Types) == 0 {
		return "any"
	}
	return strings.Join(lo.Map(out.Types, func(t field.FieldType, _ int) string { return t.Name() }), " | ")
}
