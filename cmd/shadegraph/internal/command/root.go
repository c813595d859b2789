package command

import (
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewRootCommand returns the shadegraph command with every subcommand
// attached.
func NewRootCommand(cli *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shadegraph",
		Short: "Compile shader node graphs to GLSL and WGSL",
		Long: Highlight("Usage: shadegraph [global options] <subcommand> [args]") + "\n\n" +
			"shadegraph compiles node graphs, written in a small Lisp or as YAML and\n" +
			"JSON documents, into vertex and fragment shader programs. Graphs of the\n" +
			"render-pipeline type are evaluated to values instead.\n",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.setup(cmd)
		},
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				_ = cmd.Help()
			}
		},
	}

	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.PersistentFlags().StringVarP(&cli.configPath, "config", "c", "", "Path to a YAML or JSON config file")
	cmd.PersistentFlags().BoolVar(&cli.debug, "debug", false, "Set log level to debug")
	cmd.PersistentFlags().BoolVar(&cli.noColor, "no-color", false, "Disable coloured output")

	cmd.AddCommand(
		NewCompileCommand(cli),
		NewValidateCommand(cli),
		NewEvalCommand(cli),
		NewExportCommand(cli),
		NewNodesCommand(cli),
		NewPreviewCommand(cli),
	)
	setUsageTemplate(cmd)
	return cmd
}

func setUsageTemplate(cmd *cobra.Command) {
	cobra.AddTemplateFunc("StyleHeading", color.RGB(50, 108, 229).SprintFunc())
	usageTemplate := strings.NewReplacer(
		`Usage:`, `{{StyleHeading "Usage:"}}`,
		`Examples:`, `{{StyleHeading "Examples:"}}`,
		`Available Commands:`, `{{StyleHeading "Available Commands:"}}`,
		`Additional Commands:`, `{{StyleHeading "Additional Commands:"}}`,
		`Flags:`, `{{StyleHeading "Options:"}}`,
		`Global Flags:`, `{{StyleHeading "Global Options:"}}`,
	).Replace(cmd.UsageTemplate())
	cmd.SetUsageTemplate(usageTemplate)
}
