package command

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

type PreviewOptions struct {
	Shape string
}

func NewPreviewCommand(cli *CLI) *cobra.Command {
	var opts PreviewOptions

	cmd := &cobra.Command{
		Use:   "preview [path]",
		Short: "Compile a program for an editor and print the result as JSON",
		Long: Highlight("shadegraph preview [options] [path]") + "\n\n" +
			"Evaluate a graph program, read from path or standard input, and print\n" +
			"the generated program, its bindings, an optional preview mesh and\n" +
			"every error and warning as one JSON object. Editors run this on each\n" +
			"change of the buffer.\n\n" +
			"Examples:\n" +
			"  shadegraph preview --shape sphere < graph.sg\n",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return RunPreview(in, cmd.OutOrStdout(), cli, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Shape, "shape", "", "Preview solid to tessellate")
	return cmd
}

func RunPreview(r io.Reader, w io.Writer, cli *CLI, opts PreviewOptions) error {
	app := cli.App
	if opts.Shape != "" {
		cfg := cli.Config
		cfg.Preview.Shape = opts.Shape
		var err error
		if app, err = app.Reconfigure(cfg); err != nil {
			return err
		}
	}

	source, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	result := app.Evaluate(string(source))

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("program has %d error(s)", len(result.Errors))
	}
	return nil
}
