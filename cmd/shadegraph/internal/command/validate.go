package command

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chazu/shadegraph/pkg/graph"
)

type ValidateOptions struct {
	GraphType string
}

func NewValidateCommand(cli *CLI) *cobra.Command {
	var opts ValidateOptions

	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: "Validate graphs without generating code",
		Long: Highlight("shadegraph validate [options] <path>...") + "\n\n" +
			"Check that every node reachable from a graph's end node is known,\n" +
			"has its required inputs connected and receives values of the types\n" +
			"it accepts.\n\n" +
			"Examples:\n" +
			"  # Validate every graph in a directory\n" +
			"  shadegraph validate graphs/\n",
		Args: MinArgsWithUsage(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunValidate(cmd.OutOrStdout(), cli, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.GraphType, "graph-type", "", "Graph type for sources that name none")
	return cmd
}

func RunValidate(w io.Writer, cli *CLI, opts ValidateOptions, paths []string) error {
	graphType := cli.Config.GraphType
	if opts.GraphType != "" {
		graphType = opts.GraphType
	}

	files, err := collectSources(paths)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no graph sources found")
	}

	failed := 0
	for _, file := range files {
		findings, err := validateFile(cli.App, file, graphType)
		if err != nil {
			failed++
			fmt.Fprintf(w, "%s %s: %v\n", color.RedString("✗"), file, err)
			continue
		}
		if !findings.HasErrors() && !findings.HasWarnings() {
			fmt.Fprintf(w, "%s %s\n", color.GreenString("✓"), file)
			continue
		}

		mark := color.YellowString("!")
		if findings.HasErrors() {
			failed++
			mark = color.RedString("✗")
		}
		fmt.Fprintf(w, "%s %s\n", mark, file)
		for _, f := range findings.Findings {
			fmt.Fprintf(w, "    %s\n", finding(f))
		}
	}

	fmt.Fprintf(w, "\nValidated %d file(s), %d with errors\n", len(files), failed)
	if failed > 0 {
		return fmt.Errorf("validation failed for %d file(s)", failed)
	}
	return nil
}

func validateFile(app *App, path, graphType string) (*graph.ValidationResult, error) {
	src, err := app.Load(path)
	if err != nil {
		return nil, err
	}
	return app.System().Validate(src, graphType)
}

func finding(f graph.ValidationError) string {
	sev := color.YellowString(f.Severity.String())
	if f.Severity == graph.SeverityError {
		sev = color.RedString(f.Severity.String())
	}
	if f.NodeID.IsZero() {
		return fmt.Sprintf("%s: %s", sev, f.Message)
	}
	return fmt.Sprintf("%s: node %s: %s", sev, f.NodeID, f.Message)
}
