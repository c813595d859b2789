package command

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chazu/shadegraph"
)

// CLI holds the state shared by every subcommand. The root command fills in
// Config and App before a subcommand runs.
type CLI struct {
	Config Config
	App    *App

	configPath string
	debug      bool
	noColor    bool
}

// NewCLI returns an unconfigured CLI.
func NewCLI() *CLI {
	return &CLI{Config: DefaultConfig()}
}

// setup configures logging and builds the App from the config file.
func (c *CLI) setup(cmd *cobra.Command) error {
	if c.noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	level := slog.LevelWarn
	if c.debug {
		level = slog.LevelDebug
	}
	logger := NewLogger(cmd.ErrOrStderr(), level)

	cfg := DefaultConfig()
	if c.configPath != "" {
		var err error
		if cfg, err = LoadConfig(c.configPath); err != nil {
			return err
		}
	}
	c.Config = cfg

	app, err := NewApp(cfg, shadegraph.WithLogger(logger))
	if err != nil {
		return err
	}
	c.App = app
	logger.Debug("configured", "config", c.configPath, "dialect", cfg.Dialect, "graphType", cfg.GraphType)
	return nil
}

// Highlight applies the heading colour to the formatted text.
func Highlight(format string, a ...any) string {
	return color.RGB(50, 108, 229).Sprintf(format, a...)
}

// ExactArgsWithUsage returns an error if there is not the exact number of
// args, and shows usage information.
func ExactArgsWithUsage(number int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == number {
			return nil
		}
		_ = cmd.Usage()
		if number == 1 {
			return fmt.Errorf("requires exactly 1 argument")
		}
		return fmt.Errorf("requires exactly %d arguments", number)
	}
}

// MinArgsWithUsage returns an error if there are fewer than min args, and
// shows usage information.
func MinArgsWithUsage(minArgs int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) >= minArgs {
			return nil
		}
		_ = cmd.Usage()
		if minArgs == 1 {
			return fmt.Errorf("requires at least 1 argument")
		}
		return fmt.Errorf("requires at least %d arguments", minArgs)
	}
}
