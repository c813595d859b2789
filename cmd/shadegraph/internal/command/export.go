package command

import (
	"io"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/chazu/shadegraph/pkg/loader"
)

type ExportOptions struct {
	GraphType string
	JSON      bool
}

func NewExportCommand(cli *CLI) *cobra.Command {
	var opts ExportOptions

	cmd := &cobra.Command{
		Use:   "export <path>",
		Short: "Print a graph as a YAML or JSON document",
		Long: Highlight("shadegraph export [options] <path>") + "\n\n" +
			"Print the graph built by a program, or read from a document, in the\n" +
			"document format accepted by every other command.\n\n" +
			"Examples:\n" +
			"  shadegraph export --graph-type shader graph.sg > graph.yaml\n",
		Args: ExactArgsWithUsage(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunExport(cmd.OutOrStdout(), cli, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.GraphType, "graph-type", "", "Graph type recorded in the document")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print JSON instead of YAML")
	return cmd
}

func RunExport(w io.Writer, cli *CLI, opts ExportOptions, path string) error {
	src, err := cli.App.Load(path)
	if err != nil {
		return err
	}
	graphType := src.GraphType
	if opts.GraphType != "" {
		graphType = opts.GraphType
	}
	doc, err := loader.FromGraph(graphType, src.Graph, src.End, src.Externals)
	if err != nil {
		return err
	}
	out, err := loader.Marshal(doc)
	if err != nil {
		return err
	}
	if opts.JSON {
		if out, err = yaml.YAMLToJSON(out); err != nil {
			return err
		}
		out = append(out, '\n')
	}
	_, err = w.Write(out)
	return err
}
