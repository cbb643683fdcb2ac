package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/chadparker/just-bash/shell"
	"github.com/chadparker/just-bash/vfs"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <script> [args...]",
	Short: "Run a script file against the sandboxed interpreter",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runScript(cmd *cobra.Command, args []string) error {
	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	sh, err := shell.NewShell(shell.Options{
		Files: map[string]vfs.Seed{"/script.sh": {Content: content}},
		Cwd:   "/",
		Env:   hostEnviron(),
	})
	if err != nil {
		return err
	}

	script := string(content)
	if len(args) > 1 {
		script = "set -- " + quoteArgs(args[1:]) + "\n" + script
	}

	res, err := sh.Exec(context.Background(), script)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, res.Stdout)
	fmt.Fprint(os.Stderr, res.Stderr)
	if res.ExitCode != 0 {
		os.Exit(res.ExitCode)
	}
	return nil
}

func quoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}

func hostEnviron() map[string]string {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		if name, val, ok := strings.Cut(kv, "="); ok {
			env[name] = val
		}
	}
	return env
}
