package registry

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chadparker/just-bash/interp"
	"github.com/chadparker/just-bash/vfs"
)

func registerMisc(r *Registry) {
	r.Register("xargs", cmdXargs)
	r.Register("sleep", cmdSleep)
	r.Register("test", cmdTest)
	r.Register("[", cmdTest)
}

// cmdXargs reads whitespace-separated arguments from stdin, appends them to
// the given command line, and runs the result as a nested script so the
// invoked command sees the same filesystem and environment.
func cmdXargs(ctx context.Context, args []string, st *interp.State) (int, error) {
	if len(args) == 0 {
		fmt.Fprintln(st.Stderr, "xargs: missing command")
		return 1, nil
	}
	data, err := io.ReadAll(st.Stdin)
	if err != nil {
		fmt.Fprintf(st.Stderr, "xargs: %v\n", err)
		return 1, nil
	}
	extra := strings.Fields(string(data))
	line := strings.Join(args, " ")
	if len(extra) > 0 {
		line = line + " " + strings.Join(extra, " ")
	}
	code, err := st.RunSub(ctx, line)
	if err != nil {
		fmt.Fprintf(st.Stderr, "xargs: %v\n", err)
		return 1, nil
	}
	return code, nil
}

func cmdSleep(ctx context.Context, args []string, _ *interp.State) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	secs, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 1, nil
	}
	t := time.NewTimer(time.Duration(secs * float64(time.Second)))
	defer t.Stop()
	select {
	case <-t.C:
		return 0, nil
	case <-ctx.Done():
		return 130, ctx.Err()
	}
}

// cmdTest implements the classic POSIX test/[ grammar: 0, 1, 2, and
// 3-argument forms only, no -a/-o combinators.
func cmdTest(_ context.Context, args []string, st *interp.State) (int, error) {
	if len(args) > 0 && args[len(args)-1] == "]" {
		args = args[:len(args)-1]
	}
	return boolStatus(evalPosixTest(st, args)), nil
}

func boolStatus(b bool) int {
	if b {
		return 0
	}
	return 1
}

func evalPosixTest(st *interp.State, args []string) bool {
	switch len(args) {
	case 0:
		return false
	case 1:
		return args[0] != ""
	case 2:
		return evalUnaryPosixTest(st, args[0], args[1])
	case 3:
		return evalBinaryPosixTest(st, args[0], args[1], args[2])
	}
	return false
}

func evalUnaryPosixTest(st *interp.State, op, operand string) bool {
	switch op {
	case "-z":
		return operand == ""
	case "-n":
		return operand != ""
	case "-e":
		return st.FS.Exists(st.ResolvePath(operand))
	case "-f":
		info, err := st.FS.Stat(st.ResolvePath(operand))
		return err == nil && info.Type == vfs.TypeFile
	case "-d":
		info, err := st.FS.Stat(st.ResolvePath(operand))
		return err == nil && info.Type == vfs.TypeDir
	case "-L", "-h":
		info, err := st.FS.Lstat(st.ResolvePath(operand))
		return err == nil && info.Type == vfs.TypeSymlink
	case "-s":
		info, err := st.FS.Stat(st.ResolvePath(operand))
		return err == nil && info.Size > 0
	}
	return false
}

func evalBinaryPosixTest(st *interp.State, l, op, r string) bool {
	switch op {
	case "=", "==":
		return l == r
	case "!=":
		return l != r
	case "-eq", "-ne", "-lt", "-le", "-gt", "-ge":
		li, err1 := strconv.ParseInt(strings.TrimSpace(l), 10, 64)
		ri, err2 := strconv.ParseInt(strings.TrimSpace(r), 10, 64)
		if err1 != nil || err2 != nil {
			return false
		}
		switch op {
		case "-eq":
			return li == ri
		case "-ne":
			return li != ri
		case "-lt":
			return li < ri
		case "-le":
			return li <= ri
		case "-gt":
			return li > ri
		case "-ge":
			return li >= ri
		}
	}
	return false
}
