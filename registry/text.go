package registry

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/chadparker/just-bash/interp"
)

func registerText(r *Registry) {
	r.Register("cat", cmdCat)
	r.Register("head", cmdHead)
	r.Register("tail", cmdTail)
	r.Register("wc", cmdWc)
	r.Register("sort", cmdSort)
	r.Register("uniq", cmdUniq)
	r.Register("cut", cmdCut)
	r.Register("tr", cmdTr)
	r.Register("grep", cmdGrep)
	r.Register("sed", cmdSed)
}

// readInput concatenates stdin (when files is empty, or "-" appears) and
// named files in argument order, the way cat/sort/cut and friends do.
func readInput(st *interp.State, files []string) (string, error) {
	if len(files) == 0 {
		data, err := io.ReadAll(st.Stdin)
		return string(data), err
	}
	var out strings.Builder
	for _, f := range files {
		if f == "-" {
			data, err := io.ReadAll(st.Stdin)
			if err != nil {
				return "", err
			}
			out.Write(data)
			continue
		}
		data, err := st.FS.ReadFile(st.ResolvePath(f))
		if err != nil {
			return "", fmt.Errorf("%s: No such file or directory", f)
		}
		out.Write(data)
	}
	return out.String(), nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func cmdCat(_ context.Context, args []string, st *interp.State) (int, error) {
	var files []string
	for _, a := range args {
		if !strings.HasPrefix(a, "-") || a == "-" {
			files = append(files, a)
		}
	}
	data, err := readInput(st, files)
	if err != nil {
		fmt.Fprintf(st.Stderr, "cat: %v\n", err)
		return 1, nil
	}
	fmt.Fprint(st.Stdout, data)
	return 0, nil
}

func parseLineCountFlag(args []string) (int, []string) {
	n := 10
	var rest []string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-n" && i+1 < len(args):
			if v, err := strconv.Atoi(args[i+1]); err == nil {
				n = v
			}
			i++
		case strings.HasPrefix(args[i], "-n"):
			if v, err := strconv.Atoi(strings.TrimPrefix(args[i], "-n")); err == nil {
				n = v
			}
		default:
			rest = append(rest, args[i])
		}
	}
	return n, rest
}

func cmdHead(_ context.Context, args []string, st *interp.State) (int, error) {
	n, files := parseLineCountFlag(args)
	data, err := readInput(st, files)
	if err != nil {
		fmt.Fprintf(st.Stderr, "head: %v\n", err)
		return 1, nil
	}
	lines := splitLines(data)
	if n > len(lines) {
		n = len(lines)
	}
	for _, l := range lines[:n] {
		fmt.Fprintln(st.Stdout, l)
	}
	return 0, nil
}

func cmdTail(_ context.Context, args []string, st *interp.State) (int, error) {
	n, files := parseLineCountFlag(args)
	data, err := readInput(st, files)
	if err != nil {
		fmt.Fprintf(st.Stderr, "tail: %v\n", err)
		return 1, nil
	}
	lines := splitLines(data)
	start := len(lines) - n
	if start < 0 {
		start = 0
	}
	for _, l := range lines[start:] {
		fmt.Fprintln(st.Stdout, l)
	}
	return 0, nil
}

func cmdWc(_ context.Context, args []string, st *interp.State) (int, error) {
	showLines, showWords, showBytes := false, false, false
	var files []string
	for _, a := range args {
		switch a {
		case "-l":
			showLines = true
		case "-w":
			showWords = true
		case "-c":
			showBytes = true
		default:
			files = append(files, a)
		}
	}
	if !showLines && !showWords && !showBytes {
		showLines, showWords, showBytes = true, true, true
	}
	print := func(lines, words, bytes int, name string) {
		var parts []string
		if showLines {
			parts = append(parts, fmt.Sprintf("%7d", lines))
		}
		if showWords {
			parts = append(parts, fmt.Sprintf("%7d", words))
		}
		if showBytes {
			parts = append(parts, fmt.Sprintf("%7d", bytes))
		}
		if name != "" {
			parts = append(parts, name)
		}
		fmt.Fprintln(st.Stdout, strings.Join(parts, " "))
	}
	if len(files) == 0 {
		data, err := io.ReadAll(st.Stdin)
		if err != nil {
			fmt.Fprintf(st.Stderr, "wc: %v\n", err)
			return 1, nil
		}
		s := string(data)
		print(strings.Count(s, "\n"), len(strings.Fields(s)), len(s), "")
		return 0, nil
	}
	var totalL, totalW, totalB int
	for _, f := range files {
		data, err := st.FS.ReadFile(st.ResolvePath(f))
		if err != nil {
			fmt.Fprintf(st.Stderr, "wc: %s: No such file or directory\n", f)
			return 1, nil
		}
		s := string(data)
		l, w, b := strings.Count(s, "\n"), len(strings.Fields(s)), len(s)
		print(l, w, b, f)
		totalL += l
		totalW += w
		totalB += b
	}
	if len(files) > 1 {
		print(totalL, totalW, totalB, "total")
	}
	return 0, nil
}

func cmdSort(_ context.Context, args []string, st *interp.State) (int, error) {
	reverse, numeric, unique := false, false, false
	var files []string
	for _, a := range args {
		switch a {
		case "-r":
			reverse = true
		case "-n":
			numeric = true
		case "-u":
			unique = true
		default:
			files = append(files, a)
		}
	}
	data, err := readInput(st, files)
	if err != nil {
		fmt.Fprintf(st.Stderr, "sort: %v\n", err)
		return 1, nil
	}
	lines := splitLines(data)
	sort.SliceStable(lines, func(i, j int) bool {
		if numeric {
			ni, _ := strconv.ParseFloat(strings.TrimSpace(lines[i]), 64)
			nj, _ := strconv.ParseFloat(strings.TrimSpace(lines[j]), 64)
			if reverse {
				return ni > nj
			}
			return ni < nj
		}
		if reverse {
			return lines[i] > lines[j]
		}
		return lines[i] < lines[j]
	})
	if unique {
		lines = dedupeAdjacent(lines)
	}
	for _, l := range lines {
		fmt.Fprintln(st.Stdout, l)
	}
	return 0, nil
}

func dedupeAdjacent(lines []string) []string {
	var out []string
	for i, l := range lines {
		if i == 0 || l != lines[i-1] {
			out = append(out, l)
		}
	}
	return out
}

func cmdUniq(_ context.Context, args []string, st *interp.State) (int, error) {
	count := false
	var files []string
	for _, a := range args {
		switch a {
		case "-c":
			count = true
		default:
			files = append(files, a)
		}
	}
	data, err := readInput(st, files)
	if err != nil {
		fmt.Fprintf(st.Stderr, "uniq: %v\n", err)
		return 1, nil
	}
	lines := splitLines(data)
	i := 0
	for i < len(lines) {
		j := i + 1
		for j < len(lines) && lines[j] == lines[i] {
			j++
		}
		if count {
			fmt.Fprintf(st.Stdout, "%7d %s\n", j-i, lines[i])
		} else {
			fmt.Fprintln(st.Stdout, lines[i])
		}
		i = j
	}
	return 0, nil
}

func parseFieldSpec(spec string) ([]int, error) {
	if spec == "" {
		return nil, fmt.Errorf("you must specify a list of fields")
	}
	var out []int
	for _, part := range strings.Split(spec, ",") {
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			l, err1 := strconv.Atoi(lo)
			h, err2 := strconv.Atoi(hi)
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("invalid field list")
			}
			for n := l; n <= h; n++ {
				out = append(out, n)
			}
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid field list")
		}
		out = append(out, n)
	}
	return out, nil
}

func cmdCut(_ context.Context, args []string, st *interp.State) (int, error) {
	delim := "\t"
	var fieldsSpec string
	var files []string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-d" && i+1 < len(args):
			delim = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-d") && len(args[i]) > 2:
			delim = strings.TrimPrefix(args[i], "-d")
		case args[i] == "-f" && i+1 < len(args):
			fieldsSpec = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-f") && len(args[i]) > 2:
			fieldsSpec = strings.TrimPrefix(args[i], "-f")
		default:
			files = append(files, args[i])
		}
	}
	idxs, err := parseFieldSpec(fieldsSpec)
	if err != nil {
		fmt.Fprintf(st.Stderr, "cut: %v\n", err)
		return 1, nil
	}
	data, err := readInput(st, files)
	if err != nil {
		fmt.Fprintf(st.Stderr, "cut: %v\n", err)
		return 1, nil
	}
	for _, line := range splitLines(data) {
		parts := strings.Split(line, delim)
		var sel []string
		for _, idx := range idxs {
			if idx-1 >= 0 && idx-1 < len(parts) {
				sel = append(sel, parts[idx-1])
			}
		}
		fmt.Fprintln(st.Stdout, strings.Join(sel, delim))
	}
	return 0, nil
}

func expandTrSet(s string) []rune {
	var out []rune
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if i+2 < len(runes) && runes[i+1] == '-' {
			for c := runes[i]; c <= runes[i+2]; c++ {
				out = append(out, c)
			}
			i += 2
			continue
		}
		out = append(out, runes[i])
	}
	return out
}

func cmdTr(_ context.Context, args []string, st *interp.State) (int, error) {
	del := false
	var sets []string
	for _, a := range args {
		if a == "-d" {
			del = true
			continue
		}
		sets = append(sets, a)
	}
	if len(sets) == 0 {
		fmt.Fprintln(st.Stderr, "tr: missing operand")
		return 1, nil
	}
	from := expandTrSet(sets[0])
	data, err := io.ReadAll(st.Stdin)
	if err != nil {
		fmt.Fprintf(st.Stderr, "tr: %v\n", err)
		return 1, nil
	}
	if del {
		drop := map[rune]bool{}
		for _, r := range from {
			drop[r] = true
		}
		var out strings.Builder
		for _, r := range string(data) {
			if !drop[r] {
				out.WriteRune(r)
			}
		}
		fmt.Fprint(st.Stdout, out.String())
		return 0, nil
	}
	if len(sets) < 2 {
		fmt.Fprintln(st.Stderr, "tr: missing operand")
		return 1, nil
	}
	to := expandTrSet(sets[1])
	mapping := map[rune]rune{}
	for i, r := range from {
		if i < len(to) {
			mapping[r] = to[i]
		} else if len(to) > 0 {
			mapping[r] = to[len(to)-1]
		}
	}
	var out strings.Builder
	for _, r := range string(data) {
		if m, ok := mapping[r]; ok {
			out.WriteRune(m)
		} else {
			out.WriteRune(r)
		}
	}
	fmt.Fprint(st.Stdout, out.String())
	return 0, nil
}

func cmdGrep(_ context.Context, args []string, st *interp.State) (int, error) {
	invert, ignoreCase, showLineNo, countOnly := false, false, false, false
	var rest []string
	for _, a := range args {
		switch a {
		case "-v":
			invert = true
		case "-i":
			ignoreCase = true
		case "-n":
			showLineNo = true
		case "-c":
			countOnly = true
		default:
			rest = append(rest, a)
		}
	}
	if len(rest) == 0 {
		fmt.Fprintln(st.Stderr, "grep: missing pattern")
		return 1, nil
	}
	patStr := rest[0]
	files := rest[1:]
	if ignoreCase {
		patStr = "(?i)" + patStr
	}
	re, err := regexp.Compile(patStr)
	if err != nil {
		fmt.Fprintf(st.Stderr, "grep: %v\n", err)
		return 1, nil
	}

	matchAny := false
	printLines := func(name, data string) int {
		count := 0
		for i, line := range splitLines(data) {
			matched := re.MatchString(line)
			keep := matched
			if invert {
				keep = !matched
			}
			if !keep {
				continue
			}
			count++
			if countOnly {
				continue
			}
			prefix := ""
			if name != "" {
				prefix = name + ":"
			}
			if showLineNo {
				fmt.Fprintf(st.Stdout, "%s%d:%s\n", prefix, i+1, line)
			} else {
				fmt.Fprintf(st.Stdout, "%s%s\n", prefix, line)
			}
		}
		return count
	}

	if len(files) == 0 {
		data, err := io.ReadAll(st.Stdin)
		if err != nil {
			fmt.Fprintf(st.Stderr, "grep: %v\n", err)
			return 1, nil
		}
		c := printLines("", string(data))
		if countOnly {
			fmt.Fprintln(st.Stdout, c)
		}
		matchAny = c > 0
	} else {
		for _, f := range files {
			data, err := st.FS.ReadFile(st.ResolvePath(f))
			if err != nil {
				fmt.Fprintf(st.Stderr, "grep: %s: No such file or directory\n", f)
				continue
			}
			name := f
			if len(files) == 1 {
				name = ""
			}
			c := printLines(name, string(data))
			if countOnly {
				prefix := ""
				if name != "" {
					prefix = name + ":"
				}
				fmt.Fprintf(st.Stdout, "%s%d\n", prefix, c)
			}
			if c > 0 {
				matchAny = true
			}
		}
	}
	if !matchAny {
		return 1, nil
	}
	return 0, nil
}

// sedSubst is the s/pattern/replacement/flags form, the only sed script
// shape supported.
type sedSubst struct {
	re      *regexp.Regexp
	repl    string
	global  bool
	printFl bool
}

func parseSedScript(script string) (*sedSubst, error) {
	if len(script) < 2 || script[0] != 's' {
		return nil, fmt.Errorf("unsupported script %q", script)
	}
	delim := script[1]
	parts := strings.Split(script[2:], string(delim))
	if len(parts) < 2 {
		return nil, fmt.Errorf("unterminated substitute command")
	}
	pat, repl := parts[0], parts[1]
	flags := ""
	if len(parts) > 2 {
		flags = parts[2]
	}
	re, err := regexp.Compile(pat)
	if err != nil {
		return nil, err
	}
	return &sedSubst{
		re:      re,
		repl:    sedReplToGo(repl),
		global:  strings.Contains(flags, "g"),
		printFl: strings.Contains(flags, "p"),
	}, nil
}

func sedReplToGo(repl string) string {
	var out strings.Builder
	for i := 0; i < len(repl); i++ {
		if repl[i] == '\\' && i+1 < len(repl) && repl[i+1] >= '0' && repl[i+1] <= '9' {
			out.WriteByte('$')
			out.WriteByte(repl[i+1])
			i++
			continue
		}
		out.WriteByte(repl[i])
	}
	return out.String()
}

func (s *sedSubst) apply(line string) (string, bool) {
	if s.global {
		return s.re.ReplaceAllString(line, s.repl), s.re.MatchString(line)
	}
	loc := s.re.FindStringSubmatchIndex(line)
	if loc == nil {
		return line, false
	}
	var buf []byte
	buf = s.re.ExpandString(buf, s.repl, line, loc)
	return line[:loc[0]] + string(buf) + line[loc[1]:], true
}

func cmdSed(_ context.Context, args []string, st *interp.State) (int, error) {
	var script string
	var files []string
	quiet := false
	for _, a := range args {
		switch {
		case a == "-n":
			quiet = true
		case script == "" && !strings.HasPrefix(a, "-"):
			script = a
		default:
			files = append(files, a)
		}
	}
	if script == "" {
		fmt.Fprintln(st.Stderr, "sed: no script specified")
		return 1, nil
	}
	sub, err := parseSedScript(script)
	if err != nil {
		fmt.Fprintf(st.Stderr, "sed: %v\n", err)
		return 1, nil
	}
	data, err := readInput(st, files)
	if err != nil {
		fmt.Fprintf(st.Stderr, "sed: %v\n", err)
		return 1, nil
	}
	for _, line := range splitLines(data) {
		out, matched := sub.apply(line)
		if quiet && !(matched && sub.printFl) {
			continue
		}
		fmt.Fprintln(st.Stdout, out)
	}
	return 0, nil
}
