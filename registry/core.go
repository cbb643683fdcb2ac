package registry

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/chadparker/just-bash/expand"
	"github.com/chadparker/just-bash/interp"
)

func registerCore(r *Registry) {
	r.Register("echo", cmdEcho)
	r.Register("printf", cmdPrintf)
	r.Register("true", cmdTrue)
	r.Register("false", cmdFalse)
	r.Register("env", cmdEnv)
	r.Register("seq", cmdSeq)
	r.Register("basename", cmdBasename)
	r.Register("dirname", cmdDirname)
}

func cmdTrue(_ context.Context, _ []string, _ *interp.State) (int, error)  { return 0, nil }
func cmdFalse(_ context.Context, _ []string, _ *interp.State) (int, error) { return 1, nil }

func cmdEcho(_ context.Context, args []string, st *interp.State) (int, error) {
	newline, escapes := true, false
	for len(args) > 0 {
		switch args[0] {
		case "-n":
			newline = false
		case "-e":
			escapes = true
		case "-E":
			escapes = false
		default:
			return echoWrite(st, args, newline, escapes)
		}
		args = args[1:]
	}
	return echoWrite(st, args, newline, escapes)
}

func echoWrite(st *interp.State, args []string, newline, escapes bool) (int, error) {
	out := strings.Join(args, " ")
	if escapes {
		out = expandBackslashEscapes(out)
	}
	fmt.Fprint(st.Stdout, out)
	if newline {
		fmt.Fprintln(st.Stdout)
	}
	return 0, nil
}

func expandBackslashEscapes(s string) string {
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			out.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			out.WriteByte('\n')
		case 't':
			out.WriteByte('\t')
		case 'r':
			out.WriteByte('\r')
		case 'a':
			out.WriteByte('\a')
		case 'b':
			out.WriteByte('\b')
		case 'f':
			out.WriteByte('\f')
		case 'v':
			out.WriteByte('\v')
		case '\\':
			out.WriteByte('\\')
		case '0':
			j := i + 1
			for j < len(s) && j < i+4 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			if j > i+1 {
				n, _ := strconv.ParseInt(s[i+1:j], 8, 32)
				out.WriteByte(byte(n))
				i = j - 1
			} else {
				out.WriteByte(0)
			}
		default:
			out.WriteByte('\\')
			out.WriteByte(s[i])
		}
	}
	return out.String()
}

var printfSpec = regexp.MustCompile(`%[-+ 0#]*[0-9]*(\.[0-9]+)?[diouxXeEfFgGaAcsb%]`)

func cmdPrintf(_ context.Context, args []string, st *interp.State) (int, error) {
	if len(args) == 0 {
		fmt.Fprintln(st.Stderr, "printf: usage: printf format [arguments]")
		return 1, nil
	}
	format := expandBackslashEscapes(args[0])
	rest := args[1:]
	if !strings.Contains(format, "%") {
		fmt.Fprint(st.Stdout, format)
		return 0, nil
	}
	for {
		consumed, out := applyPrintfFormat(format, rest)
		fmt.Fprint(st.Stdout, out)
		rest = rest[consumed:]
		if len(rest) == 0 || consumed == 0 {
			break
		}
	}
	return 0, nil
}

func applyPrintfFormat(format string, args []string) (int, string) {
	var out strings.Builder
	argi := 0
	i := 0
	for i < len(format) {
		if format[i] != '%' {
			out.WriteByte(format[i])
			i++
			continue
		}
		loc := printfSpec.FindStringIndex(format[i:])
		if loc == nil || loc[0] != 0 {
			out.WriteByte(format[i])
			i++
			continue
		}
		spec := format[i : i+loc[1]]
		i += loc[1]
		verb := spec[len(spec)-1]
		if verb == '%' {
			out.WriteByte('%')
			continue
		}
		var arg string
		if argi < len(args) {
			arg = args[argi]
			argi++
		}
		switch verb {
		case 's':
			fmt.Fprintf(&out, spec, arg)
		case 'b':
			out.WriteString(expandBackslashEscapes(arg))
		case 'c':
			if arg != "" {
				out.WriteByte(arg[0])
			}
		case 'd', 'i', 'u':
			n, err := strconv.ParseInt(strings.TrimSpace(arg), 0, 64)
			if err != nil {
				n = 0
			}
			fmt.Fprintf(&out, spec[:len(spec)-1]+"d", n)
		case 'o', 'x', 'X':
			n, err := strconv.ParseInt(strings.TrimSpace(arg), 0, 64)
			if err != nil {
				n = 0
			}
			fmt.Fprintf(&out, spec, n)
		case 'e', 'E', 'f', 'F', 'g', 'G':
			f, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
			if err != nil {
				f = 0
			}
			fmt.Fprintf(&out, spec, f)
		}
	}
	return argi, out.String()
}

func cmdEnv(_ context.Context, _ []string, st *interp.State) (int, error) {
	for _, name := range expand.Sorted(st.Environ()) {
		v := st.Get(name)
		if v.Exported {
			fmt.Fprintf(st.Stdout, "%s=%s\n", name, v.Str)
		}
	}
	return 0, nil
}

func cmdSeq(_ context.Context, args []string, st *interp.State) (int, error) {
	var first, incr, last int64 = 1, 1, 0
	parse := func(s string) (int64, bool) {
		n, err := strconv.ParseInt(s, 10, 64)
		return n, err == nil
	}
	switch len(args) {
	case 1:
		n, ok := parse(args[0])
		if !ok {
			fmt.Fprintf(st.Stderr, "seq: invalid number: %q\n", args[0])
			return 1, nil
		}
		last = n
	case 2:
		f, ok1 := parse(args[0])
		l, ok2 := parse(args[1])
		if !ok1 || !ok2 {
			fmt.Fprintln(st.Stderr, "seq: invalid number")
			return 1, nil
		}
		first, last = f, l
	case 3:
		f, ok1 := parse(args[0])
		s, ok2 := parse(args[1])
		l, ok3 := parse(args[2])
		if !ok1 || !ok2 || !ok3 {
			fmt.Fprintln(st.Stderr, "seq: invalid number")
			return 1, nil
		}
		first, incr, last = f, s, l
	default:
		fmt.Fprintln(st.Stderr, "seq: usage: seq [first [incr]] last")
		return 1, nil
	}
	if incr == 0 {
		fmt.Fprintln(st.Stderr, "seq: zero increment")
		return 1, nil
	}
	if incr > 0 {
		for n := first; n <= last; n += incr {
			fmt.Fprintln(st.Stdout, n)
		}
	} else {
		for n := first; n >= last; n += incr {
			fmt.Fprintln(st.Stdout, n)
		}
	}
	return 0, nil
}

func cmdBasename(_ context.Context, args []string, st *interp.State) (int, error) {
	if len(args) == 0 {
		fmt.Fprintln(st.Stderr, "basename: missing operand")
		return 1, nil
	}
	b := path.Base(args[0])
	if len(args) > 1 {
		b = strings.TrimSuffix(b, args[1])
	}
	fmt.Fprintln(st.Stdout, b)
	return 0, nil
}

func cmdDirname(_ context.Context, args []string, st *interp.State) (int, error) {
	if len(args) == 0 {
		fmt.Fprintln(st.Stderr, "dirname: missing operand")
		return 1, nil
	}
	fmt.Fprintln(st.Stdout, path.Dir(args[0]))
	return 0, nil
}
