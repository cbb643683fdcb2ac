package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/chadparker/just-bash/shell"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive read-eval-print loop",
	RunE:  runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) error {
	sh, err := shell.NewShell(shell.Options{Cwd: "/", Env: hostEnviron()})
	if err != nil {
		return err
	}
	sess := sh.NewSession()

	prompt := color.New(color.FgCyan, color.Bold)
	errColor := color.New(color.FgRed)

	scanner := bufio.NewScanner(os.Stdin)
	ctx := context.Background()
	for {
		prompt.Fprintf(os.Stdout, "%s $ ", sess.Cwd())
		if !scanner.Scan() {
			fmt.Fprintln(os.Stdout)
			return nil
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		res, err := sess.Exec(ctx, line)
		if err != nil {
			errColor.Fprintf(os.Stderr, "gosh: %v\n", err)
			continue
		}
		fmt.Fprint(os.Stdout, res.Stdout)
		if res.Stderr != "" {
			errColor.Fprint(os.Stderr, res.Stderr)
		}
	}
}
