package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "gosh",
	Short: "gosh - a sandboxed shell interpreter for scripted agents",
	Long: `gosh parses and runs a POSIX-ish/bash-flavored shell language against an
in-memory virtual filesystem: no real process is ever spawned, and every
command a script runs resolves to an in-process Go function.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		color.NoColor = noColor
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the gosh command tree.
func Execute() error {
	return rootCmd.Execute()
}
