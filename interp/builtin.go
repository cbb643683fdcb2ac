package interp

import (
	"bufio"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/chadparker/just-bash/ast"
	"github.com/chadparker/just-bash/expand"
	"github.com/chadparker/just-bash/syntax"
	"github.com/chadparker/just-bash/vfs"
)

// builtin is the shape every builtin below implements: identical to
// CommandFunc, but resolved after functions and before the registry, so a
// registered external command can never shadow cd or exit.
type builtin func(ctx context.Context, args []string, st *State) (int, error)

var builtins = map[string]builtin{
	"cd":       biCd,
	"pwd":      biPwd,
	"export":   biExport,
	"unset":    biUnset,
	"declare":  biDeclare,
	"typeset":  biDeclare,
	"local":    biLocal,
	"readonly": biReadonly,
	"set":      biSet,
	"shopt":    biShopt,
	"trap":     biTrap,
	"exit":     biExit,
	"return":   biReturn,
	"break":    biBreak,
	"continue": biContinue,
	"shift":    biShift,
	"eval":     biEval,
	"source":   biSource,
	".":        biSource,
	"read":     biRead,
	"type":     biType,
	"command":  biCommand,
	"wait":     biWait,
	"jobs":     biJobs,
	"alias":    biAlias,
	"unalias":  biUnalias,
	":":        biTrue,
	"true":     biTrue,
	"false":    biFalse,
}

func biCd(_ context.Context, args []string, st *State) (int, error) {
	dir := "/root"
	if v := st.Get("HOME"); !v.Unset {
		dir = v.Str
	}
	if len(args) > 0 {
		dir = args[0]
	}
	abs := st.ResolvePath(dir)
	info, err := st.FS.Stat(abs)
	if err != nil || info.Type != vfs.TypeDir {
		fmt.Fprintf(st.Stderr, "cd: %s: No such file or directory\n", dir)
		return 1, nil
	}
	st.Set("OLDPWD", expand.Variable{Str: st.Cwd})
	st.Cwd = abs
	st.Set("PWD", expand.Variable{Str: abs})
	return 0, nil
}

func biPwd(_ context.Context, _ []string, st *State) (int, error) {
	fmt.Fprintln(st.Stdout, st.Cwd)
	return 0, nil
}

func biExport(_ context.Context, args []string, st *State) (int, error) {
	if len(args) == 0 {
		for _, name := range expand.Sorted(st.Environ()) {
			v := st.Get(name)
			if v.Exported {
				fmt.Fprintf(st.Stdout, "declare -x %s=%q\n", name, v.Str)
			}
		}
		return 0, nil
	}
	for _, a := range args {
		name, val, hasVal := strings.Cut(a, "=")
		v := st.Get(name)
		if hasVal {
			v.Str = val
		}
		v.Exported = true
		v.Unset = false
		if err := st.Set(name, v); err != nil {
			return 1, err
		}
	}
	return 0, nil
}

func biUnset(_ context.Context, args []string, st *State) (int, error) {
	for _, name := range args {
		name = strings.TrimPrefix(name, "-v")
		name = strings.TrimSpace(name)
		st.Unset(name)
	}
	return 0, nil
}

func biDeclare(_ context.Context, args []string, st *State) (int, error) {
	exported, readonly := false, false
	var names []string
	for _, a := range args {
		switch a {
		case "-x":
			exported = true
		case "-r":
			readonly = true
		case "-p":
			for _, name := range expand.Sorted(st.Environ()) {
				fmt.Fprintf(st.Stdout, "%s=%q\n", name, st.Get(name).Str)
			}
			return 0, nil
		case "-g", "-l", "-u", "-i", "-a", "-A":
			// attribute accepted but not separately tracked
		default:
			names = append(names, a)
		}
	}
	for _, a := range names {
		name, val, hasVal := strings.Cut(a, "=")
		v := st.Get(name)
		if hasVal {
			v.Str = val
			v.Unset = false
		} else if v.Unset {
			v.Unset = false
		}
		v.Exported = v.Exported || exported
		v.ReadOnly = v.ReadOnly || readonly
		if err := st.Set(name, v); err != nil {
			return 1, err
		}
	}
	return 0, nil
}

func biLocal(_ context.Context, args []string, st *State) (int, error) {
	for _, a := range args {
		name, val, hasVal := strings.Cut(a, "=")
		v := expand.Variable{Local: true}
		if hasVal {
			v.Str = val
		}
		if err := st.SetLocal(name, v); err != nil {
			return 1, err
		}
	}
	return 0, nil
}

func biReadonly(_ context.Context, args []string, st *State) (int, error) {
	for _, a := range args {
		name, val, hasVal := strings.Cut(a, "=")
		v := st.Get(name)
		if hasVal {
			v.Str = val
			v.Unset = false
		}
		v.ReadOnly = true
		if err := st.Set(name, v); err != nil {
			return 1, err
		}
	}
	return 0, nil
}

// biSet handles `set [-euvxfo] [--] [arg...]`. A "--" terminator, or the
// first argument that isn't an option flag, ends option processing and
// replaces the positional parameters with everything that follows.
func biSet(_ context.Context, args []string, st *State) (int, error) {
	i := 0
	for ; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			i++
			break
		}
		on := strings.HasPrefix(a, "-")
		off := strings.HasPrefix(a, "+")
		if !on && !off {
			break
		}
		flag := a[1:]
		switch flag {
		case "e":
			st.Opts.ErrExit = on
		case "u":
			st.Opts.NoUnset = on
		case "v":
			st.Opts.Verbose = on
		case "x":
			st.Opts.XTrace = on
		case "f":
			st.Opts.NoGlob = on
		case "o":
			// "-o name" takes the option name from the next argument; the
			// joined "-opipefail" form is caught just below.
			if i+1 < len(args) {
				i++
				switch args[i] {
				case "pipefail":
					st.Opts.PipeFail = on
				case "errexit":
					st.Opts.ErrExit = on
				case "nounset":
					st.Opts.NoUnset = on
				}
			}
		}
		if strings.Contains(a, "pipefail") {
			st.Opts.PipeFail = on
		}
	}
	if i < len(args) || (i > 0 && args[i-1] == "--") {
		st.Positional = append([]string{}, args[i:]...)
	}
	return 0, nil
}

func biShopt(_ context.Context, args []string, st *State) (int, error) {
	setTo := true
	var names []string
	for _, a := range args {
		switch a {
		case "-s":
			setTo = true
		case "-u":
			setTo = false
		default:
			names = append(names, a)
		}
	}
	for _, n := range names {
		switch n {
		case "nullglob":
			st.Opts.NullGlob = setTo
		case "extglob":
			st.Opts.ExtGlob = setTo
		}
	}
	return 0, nil
}

// biTrap only supports registering (or clearing) the EXIT trap; other
// signals are accepted syntactically but never actually fire, since the
// interpreter has no real process to deliver a signal to.
func biTrap(_ context.Context, args []string, st *State) (int, error) {
	if len(args) == 0 {
		if st.Trap.Exit != nil {
			fmt.Fprintln(st.Stdout, "trap -- 'EXIT'")
		}
		return 0, nil
	}
	if len(args) != 2 || args[1] != "EXIT" {
		return 0, nil
	}
	if args[0] == "-" || args[0] == "" {
		st.Trap.Exit = nil
		return 0, nil
	}
	f, err := syntax.Parse([]byte(args[0]), "trap")
	if err != nil {
		fmt.Fprintf(st.Stderr, "trap: %v\n", err)
		return 1, nil
	}
	st.Trap.Exit = &ast.Stmt{Cmd: &ast.Group{Stmts: f.Stmts}}
	return 0, nil
}

func biExit(_ context.Context, args []string, st *State) (int, error) {
	code := st.LastStatus
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			code = n
		}
	}
	st.exiting = true
	st.exitCode = code
	return code, nil
}

func biReturn(_ context.Context, args []string, st *State) (int, error) {
	code := st.LastStatus
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			code = n
		}
	}
	st.returning = true
	st.returnCode = code
	return code, nil
}

func biBreak(_ context.Context, args []string, st *State) (int, error) {
	n := 1
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			n = v
		}
	}
	st.breakLevel = n
	return 0, nil
}

func biContinue(_ context.Context, args []string, st *State) (int, error) {
	n := 1
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			n = v
		}
	}
	st.continueLevel = n
	return 0, nil
}

func biShift(_ context.Context, args []string, st *State) (int, error) {
	n := 1
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil {
			n = v
		}
	}
	if n > len(st.Positional) {
		return 1, nil
	}
	st.Positional = st.Positional[n:]
	return 0, nil
}

func biEval(ctx context.Context, args []string, st *State) (int, error) {
	src := strings.Join(args, " ")
	return st.evalSource(ctx, src)
}

func biSource(ctx context.Context, args []string, st *State) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	path := st.ResolvePath(args[0])
	data, err := st.FS.ReadFile(path)
	if err != nil {
		fmt.Fprintf(st.Stderr, "source: %s: No such file or directory\n", args[0])
		return 1, nil
	}
	return st.evalSource(ctx, string(data))
}

func biRead(_ context.Context, args []string, st *State) (int, error) {
	var names []string
	for _, a := range args {
		if !strings.HasPrefix(a, "-") {
			names = append(names, a)
		}
	}
	if len(names) == 0 {
		names = []string{"REPLY"}
	}
	reader := bufio.NewReader(st.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return 1, nil
	}
	line = strings.TrimSuffix(line, "\n")
	fields := strings.Fields(line)
	for i, name := range names {
		val := ""
		if i < len(names)-1 {
			if i < len(fields) {
				val = fields[i]
			}
		} else if i < len(fields) {
			val = strings.Join(fields[i:], " ")
		}
		if err := st.Set(name, expand.Variable{Str: val}); err != nil {
			return 1, err
		}
	}
	return 0, nil
}

func biType(_ context.Context, args []string, st *State) (int, error) {
	status := 0
	for _, name := range args {
		switch {
		case st.Functions[name] != nil:
			fmt.Fprintf(st.Stdout, "%s is a function\n", name)
		case builtins[name] != nil:
			fmt.Fprintf(st.Stdout, "%s is a shell builtin\n", name)
		default:
			if st.Commands != nil {
				if _, ok := st.Commands.Lookup(name); ok {
					fmt.Fprintf(st.Stdout, "%s is %s\n", name, name)
					continue
				}
			}
			fmt.Fprintf(st.Stderr, "type: %s: not found\n", name)
			status = 1
		}
	}
	return status, nil
}

func biCommand(ctx context.Context, args []string, st *State) (int, error) {
	for len(args) > 0 && strings.HasPrefix(args[0], "-") {
		args = args[1:]
	}
	if len(args) == 0 {
		return 0, nil
	}
	name := args[0]
	if st.Commands != nil {
		if handler, ok := st.Commands.Lookup(name); ok {
			return handler(ctx, args[1:], st)
		}
	}
	fmt.Fprintf(st.Stderr, "%s: command not found\n", name)
	return 127, nil
}

func biWait(_ context.Context, _ []string, st *State) (int, error) {
	return 0, nil
}

func biJobs(_ context.Context, _ []string, st *State) (int, error) {
	return 0, nil
}

func biAlias(_ context.Context, args []string, st *State) (int, error) {
	if len(args) == 0 {
		names := make([]string, 0, len(st.Aliases))
		for name := range st.Aliases {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(st.Stdout, "alias %s='%s'\n", name, st.Aliases[name])
		}
		return 0, nil
	}
	for _, a := range args {
		name, val, ok := strings.Cut(a, "=")
		if !ok {
			if v, ok := st.Aliases[name]; ok {
				fmt.Fprintf(st.Stdout, "alias %s='%s'\n", name, v)
			}
			continue
		}
		st.Aliases[name] = val
	}
	return 0, nil
}

func biUnalias(_ context.Context, args []string, st *State) (int, error) {
	for _, a := range args {
		delete(st.Aliases, a)
	}
	return 0, nil
}

func biTrue(_ context.Context, _ []string, _ *State) (int, error)  { return 0, nil }
func biFalse(_ context.Context, _ []string, _ *State) (int, error) { return 1, nil }
