package expand

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chadparker/just-bash/ast"
	"github.com/chadparker/just-bash/pattern"
)

// ParamError reports a failure from a ${name:?msg}-style expansion or an
// unset-variable reference under `set -u`.
type ParamError struct {
	Name string
	Text string
}

func (e *ParamError) Error() string { return fmt.Sprintf("%s: %s", e.Name, e.Text) }

// quotedArrayElems reports the per-element values of pe when it is exactly
// a bare "$@"/"${@}" or an array "${name[@]}" reference with no other
// operator applied, so a DoubleQuoted word wrapping only this expansion can
// emit one quoted field per element instead of joining them into one. The
// second return value is false for every other expansion (including "$*"
// and "${name[*]}", which join into a single field by design).
func quotedArrayElems(cfg *Config, pe *ast.ParamExpansion) ([]string, bool) {
	if pe.Op != ast.ParamPlain {
		return nil, false
	}
	if pe.Name == "@" {
		return cfg.Params, true
	}
	if pe.IndexAll {
		vr := cfg.Env.Get(pe.Name)
		switch vr.Kind {
		case KindIndexArray:
			return vr.List, true
		case KindAssocArray:
			var keys []string
			for k := range vr.Map {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			var out []string
			for _, k := range keys {
				out = append(out, vr.Map[k])
			}
			return out, true
		}
	}
	return nil, false
}

// paramValue resolves a ParamExpansion to its (possibly multi-valued, for
// arrays/@/*) string values, applying whichever operator it carries.
func paramValue(cfg *Config, pe *ast.ParamExpansion) ([]string, error) {
	switch pe.Name {
	case "@", "*":
		return cfg.Params, nil
	case "#":
		return []string{fmt.Sprint(len(cfg.Params))}, nil
	case "?", "$", "!", "-":
		return []string{cfg.Special[pe.Name]}, nil
	case "0":
		return []string{cfg.Special["0"]}, nil
	}
	if len(pe.Name) > 0 && pe.Name[0] >= '1' && pe.Name[0] <= '9' {
		idx := 0
		for _, c := range pe.Name {
			idx = idx*10 + int(c-'0')
		}
		if idx >= 1 && idx <= len(cfg.Params) {
			return []string{cfg.Params[idx-1]}, nil
		}
		if cfg.NoUnset {
			return nil, &ParamError{Name: pe.Name, Text: "unbound variable"}
		}
		return []string{""}, nil
	}

	vr := cfg.Env.Get(pe.Name)
	if vr.Unset && cfg.NoUnset && pe.Op == ast.ParamPlain {
		return nil, &ParamError{Name: pe.Name, Text: "unbound variable"}
	}

	switch pe.Op {
	case ast.ParamLength:
		return []string{fmt.Sprint(paramLength(vr))}, nil
	case ast.ParamIndirect:
		target, err := paramSingleValue(cfg, pe)
		if err != nil {
			return nil, err
		}
		return paramValue(cfg, &ast.ParamExpansion{Name: target})
	case ast.ParamKeys:
		return paramKeys(cfg.Env, pe.Name), nil
	}

	if pe.Index != nil || pe.IndexAll || pe.IndexStar {
		return indexedValue(cfg, vr, pe)
	}

	isUnset := vr.Unset
	isEmpty := !isUnset && vr.Str == "" && vr.Kind == KindString

	switch pe.Op {
	case ast.ParamDefault:
		if isUnset || isEmpty {
			s, err := Literal(cfg, pe.Arg)
			if err != nil {
				return nil, err
			}
			return []string{s}, nil
		}
	case ast.ParamAssign:
		if isUnset || isEmpty {
			s, err := Literal(cfg, pe.Arg)
			if err != nil {
				return nil, err
			}
			if we, ok := cfg.Env.(WriteEnviron); ok {
				we.Set(pe.Name, Variable{Str: s})
			}
			return []string{s}, nil
		}
	case ast.ParamAlt:
		if isUnset || isEmpty {
			return []string{""}, nil
		}
		s, err := Literal(cfg, pe.Arg)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	case ast.ParamError:
		if isUnset || isEmpty {
			msg := "parameter null or not set"
			if len(pe.Arg.Parts) > 0 {
				s, err := Literal(cfg, pe.Arg)
				if err != nil {
					return nil, err
				}
				msg = s
			}
			return nil, &ParamError{Name: pe.Name, Text: msg}
		}
	}

	raw := scalarOf(vr)

	switch pe.Op {
	case ast.ParamPlain:
		return []string{raw}, nil
	case ast.ParamSubstr:
		return []string{substrOp(cfg, raw, pe)}, nil
	case ast.ParamRemPrefix, ast.ParamRemPrefixLong:
		return []string{trimOp(cfg, raw, pe, true, pe.Op == ast.ParamRemPrefixLong)}, nil
	case ast.ParamRemSuffix, ast.ParamRemSuffixLong:
		return []string{trimOp(cfg, raw, pe, false, pe.Op == ast.ParamRemSuffixLong)}, nil
	case ast.ParamReplace, ast.ParamReplaceAll, ast.ParamReplaceStart, ast.ParamReplaceEnd:
		return []string{replaceOp(cfg, raw, pe)}, nil
	case ast.ParamCaseUpperFirst:
		return []string{caseConvert(raw, true, false)}, nil
	case ast.ParamCaseUpperAll:
		return []string{caseConvert(raw, true, true)}, nil
	case ast.ParamCaseLowerFirst:
		return []string{caseConvert(raw, false, false)}, nil
	case ast.ParamCaseLowerAll:
		return []string{caseConvert(raw, false, true)}, nil
	}
	return []string{raw}, nil
}

func paramSingleValue(cfg *Config, pe *ast.ParamExpansion) (string, error) {
	vs, err := paramValue(cfg, &ast.ParamExpansion{Name: pe.Name})
	if err != nil {
		return "", err
	}
	if len(vs) == 0 {
		return "", nil
	}
	return vs[0], nil
}

func scalarOf(vr Variable) string {
	switch vr.Kind {
	case KindIndexArray:
		if len(vr.List) > 0 {
			return vr.List[0]
		}
		return ""
	case KindAssocArray:
		return ""
	}
	return vr.Str
}

func paramLength(vr Variable) int {
	switch vr.Kind {
	case KindIndexArray:
		return len(vr.List)
	case KindAssocArray:
		return len(vr.Map)
	}
	return len(vr.Str)
}

// paramKeys lists the names of every variable starting with prefix, sorted.
func paramKeys(env Environ, prefix string) []string {
	var out []string
	for _, name := range Sorted(env) {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}

func indexedValue(cfg *Config, vr Variable, pe *ast.ParamExpansion) ([]string, error) {
	if pe.IndexAll || pe.IndexStar {
		switch vr.Kind {
		case KindIndexArray:
			return append([]string{}, vr.List...), nil
		case KindAssocArray:
			var keys []string
			for k := range vr.Map {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			var out []string
			for _, k := range keys {
				out = append(out, vr.Map[k])
			}
			return out, nil
		}
		return []string{vr.Str}, nil
	}
	idxStr, err := Literal(cfg, *pe.Index)
	if err != nil {
		return nil, err
	}
	if vr.Kind == KindAssocArray {
		return []string{vr.Map[idxStr]}, nil
	}
	n, err := Arith(mustParseIndexExpr(idxStr), cfg)
	if err != nil {
		return []string{""}, nil
	}
	if n >= 0 && int(n) < len(vr.List) {
		return []string{vr.List[n]}, nil
	}
	return []string{""}, nil
}

func mustParseIndexExpr(s string) ast.ArithExpr {
	return &ast.ArithWord{X: ast.Word{Parts: []ast.WordPart{&ast.Literal{Value: s}}}}
}

func substrOp(cfg *Config, s string, pe *ast.ParamExpansion) string {
	off, err := Arith(mustParseArithWord(cfg, pe.Offset), cfg)
	if err != nil {
		return ""
	}
	runes := []rune(s)
	start := int(off)
	if start < 0 {
		start += len(runes)
	}
	if start < 0 {
		start = 0
	}
	if start > len(runes) {
		start = len(runes)
	}
	end := len(runes)
	if pe.HasLength {
		ln, err := Arith(mustParseArithWord(cfg, pe.Length), cfg)
		if err == nil {
			if ln < 0 {
				end = len(runes) + int(ln)
			} else {
				end = start + int(ln)
			}
		}
	}
	if end > len(runes) {
		end = len(runes)
	}
	if end < start {
		return ""
	}
	return string(runes[start:end])
}

func mustParseArithWord(cfg *Config, w ast.Word) ast.ArithExpr {
	if lit, ok := w.Lit(); ok {
		return &ast.ArithWord{X: ast.Word{Parts: []ast.WordPart{&ast.Literal{Value: lit}}}}
	}
	s, _ := Literal(cfg, w)
	return &ast.ArithWord{X: ast.Word{Parts: []ast.WordPart{&ast.Literal{Value: s}}}}
}

func trimOp(cfg *Config, s string, pe *ast.ParamExpansion, prefix, longest bool) string {
	pat, err := Literal(cfg, pe.Arg)
	if err != nil {
		return s
	}
	if prefix {
		return trimMatch(s, pat, longest, true)
	}
	return trimMatch(s, pat, longest, false)
}

func trimMatch(s, pat string, longest, prefix bool) string {
	if prefix {
		best := -1
		for i := 0; i <= len(s); i++ {
			if pattern.Match(s[:i], pat) {
				best = i
				if !longest {
					break
				}
			}
		}
		if best >= 0 {
			return s[best:]
		}
		return s
	}
	best := -1
	for i := len(s); i >= 0; i-- {
		if pattern.Match(s[i:], pat) {
			best = i
			if !longest {
				break
			}
		}
	}
	if best >= 0 {
		return s[:best]
	}
	return s
}

func replaceOp(cfg *Config, s string, pe *ast.ParamExpansion) string {
	pat, err := Literal(cfg, pe.Arg)
	if err != nil {
		return s
	}
	repl := ""
	if pe.HasLength {
		repl, _ = Literal(cfg, pe.Offset)
	}
	switch pe.Op {
	case ast.ParamReplaceStart:
		if len(s) >= 0 {
			for i := 0; i <= len(s); i++ {
				if pattern.Match(s[:i], pat) {
					return repl + s[i:]
				}
			}
		}
		return s
	case ast.ParamReplaceEnd:
		for i := len(s); i >= 0; i-- {
			if pattern.Match(s[i:], pat) {
				return s[:i] + repl
			}
		}
		return s
	case ast.ParamReplaceAll:
		return replaceAllPattern(s, pat, repl)
	default:
		return replaceFirstPattern(s, pat, repl)
	}
}

// replaceFirstPattern and replaceAllPattern do a literal scan for the
// shortest substring matching pat at each position, since glob patterns
// don't translate directly to a single regexp replace without care for
// anchoring semantics already handled by the pattern package per-match.
func replaceFirstPattern(s, pat, repl string) string {
	for i := 0; i < len(s); i++ {
		for j := len(s); j >= i; j-- {
			if pattern.Match(s[i:j], pat) {
				return s[:i] + repl + s[j:]
			}
		}
	}
	return s
}

func replaceAllPattern(s, pat, repl string) string {
	var sb strings.Builder
	i := 0
	for i < len(s) {
		matched := false
		for j := len(s); j >= i; j-- {
			if j == i {
				continue
			}
			if pattern.Match(s[i:j], pat) {
				sb.WriteString(repl)
				i = j
				matched = true
				break
			}
		}
		if !matched {
			sb.WriteByte(s[i])
			i++
		}
	}
	return sb.String()
}

func caseConvert(s string, upper, all bool) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	convert := func(c rune) rune {
		if upper {
			if c >= 'a' && c <= 'z' {
				return c - 32
			}
			return c
		}
		if c >= 'A' && c <= 'Z' {
			return c + 32
		}
		return c
	}
	if all {
		for i := range r {
			r[i] = convert(r[i])
		}
		return string(r)
	}
	r[0] = convert(r[0])
	return string(r)
}
