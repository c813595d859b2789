package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/chazu/shadegraph/cmd/shadegraph/internal/command"
)

func main() {
	root := command.NewRootCommand(command.NewCLI())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
		os.Exit(1)
	}
}
