package main

import (
	"fmt"
	"os"

	"github.com/metalheadbang/unleash/internal/cli"
	"github.com/metalheadbang/unleash/pkg/ui"
)

func main() {
	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderError(err))
		os.Exit(1)
	}
}
