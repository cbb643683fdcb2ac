package main

import (
	"fmt"
	"os"

	"github.com/chadparker/just-bash/syntax"
	"github.com/spf13/cobra"
)

var fmtWrite bool

var fmtCmd = &cobra.Command{
	Use:   "fmt <script>",
	Short: "Reformat a script by parsing and re-printing its tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runFmt,
}

func init() {
	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "write result back to the file instead of stdout")
	rootCmd.AddCommand(fmtCmd)
}

func runFmt(cmd *cobra.Command, args []string) error {
	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := syntax.Parse(content, path)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	out := syntax.Print(f)
	if fmtWrite {
		return os.WriteFile(path, []byte(out), 0o644)
	}
	fmt.Fprint(os.Stdout, out)
	return nil
}
