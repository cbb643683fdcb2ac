// Command gosh is the interactive front-end over the shell package: run a
// script file, drop into a REPL, or reformat a script, all against the
// sandboxed interpreter rather than a real shell.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("gosh: %v", err))
		os.Exit(1)
	}
}
