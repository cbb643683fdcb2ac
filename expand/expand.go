package expand

import (
	"strings"

	"github.com/chadparker/just-bash/ast"
	"github.com/chadparker/just-bash/pattern"
)

// Config carries everything the expansion pipeline needs beyond the AST
// itself: the variable store, the shell's special parameters, and the
// callbacks into the executor for command/process substitution and
// filename globbing, which expand deliberately has no direct dependency on
// (vfs and interp both import expand, not the reverse).
type Config struct {
	Env     WriteEnviron
	IFS     string
	Params  []string          // $1, $2, ... positional parameters
	Special map[string]string // $?, $$, $!, $-, $0

	CmdSubst  func(stmts []*ast.Stmt) (string, error)
	ProcSubst func(dir ast.ProcDir, stmts []*ast.Stmt) (string, error)
	Glob      func(pattern string) ([]string, error)

	NoGlob     bool // set -f
	NullGlob   bool // shopt -s nullglob: unmatched globs vanish instead of passing through literally
	NoUnset    bool // set -u
	ExpandTilde func(user string) (string, bool)
}

func (c *Config) ifs() string {
	if c.IFS == "" && c.Env != nil {
		if vr := c.Env.Get("IFS"); !vr.Unset {
			return vr.Str
		}
		return " \t\n"
	}
	return c.IFS
}

// fieldPart is a single expanded chunk plus whether it came from a quoted
// context, so field-splitting and globbing can skip it.
type fieldPart struct {
	quote bool
	val   string
}

// Literal expands a word to a single string: parameter/command/arithmetic
// expansion and quote removal run, but no field splitting or globbing
// happens. This is the form used for assignment right-hand sides, case
// patterns' subject word, and similar single-value contexts.
func Literal(cfg *Config, w ast.Word) (string, error) {
	parts, err := expandWordParts(cfg, w.Parts)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(p.val)
	}
	return sb.String(), nil
}

// LiteralPattern expands a word the way Literal does but leaves glob
// metacharacters coming from unquoted literal/tilde parts intact, for
// callers (case arms, [[ == ]]) that match the result as a pattern.
func LiteralPattern(cfg *Config, w ast.Word) (string, error) {
	parts, err := expandWordParts(cfg, w.Parts)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, p := range parts {
		if p.quote {
			sb.WriteString(pattern.QuoteMeta(p.val))
		} else {
			sb.WriteString(p.val)
		}
	}
	return sb.String(), nil
}

// Fields expands a list of words into the final argv-like list of fields:
// each word expands, is split on IFS (skipping quoted chunks), then each
// resulting field undergoes pathname expansion if it contains unquoted
// glob metacharacters.
func Fields(cfg *Config, words []ast.Word) ([]string, error) {
	var out []string
	for _, w := range words {
		parts, err := expandWordParts(cfg, w.Parts)
		if err != nil {
			return nil, err
		}
		fields := splitFields(cfg, parts)
		for _, sr := range fields {
			expanded, err := globField(cfg, sr)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
		}
	}
	return out, nil
}

func expandWordParts(cfg *Config, wps []ast.WordPart) ([]fieldPart, error) {
	var out []fieldPart
	for _, wp := range wps {
		ps, err := expandPart(cfg, wp)
		if err != nil {
			return nil, err
		}
		out = append(out, ps...)
	}
	return out, nil
}

func expandPart(cfg *Config, wp ast.WordPart) ([]fieldPart, error) {
	switch x := wp.(type) {
	case *ast.Literal:
		return []fieldPart{{quote: false, val: x.Value}}, nil
	case *ast.SingleQuoted:
		return []fieldPart{{quote: true, val: x.Value}}, nil
	case *ast.DoubleQuoted:
		if len(x.Parts) == 1 {
			if pe, ok := x.Parts[0].(*ast.ParamExpansion); ok {
				if elems, ok := quotedArrayElems(cfg, pe); ok {
					if len(elems) == 0 {
						return nil, nil
					}
					var out []fieldPart
					for i, elem := range elems {
						if i > 0 {
							out = append(out, fieldPart{quote: false, val: "\x00FS\x00"})
						}
						out = append(out, fieldPart{quote: true, val: elem})
					}
					return out, nil
				}
			}
		}
		inner, err := expandWordParts(cfg, x.Parts)
		if err != nil {
			return nil, err
		}
		var sb strings.Builder
		for _, p := range inner {
			if p.val == "\x00FS\x00" {
				if ifs := cfg.ifs(); ifs != "" {
					sb.WriteByte(ifs[0])
				}
				continue
			}
			sb.WriteString(p.val)
		}
		return []fieldPart{{quote: true, val: sb.String()}}, nil
	case *ast.TildeExpansion:
		if cfg.ExpandTilde != nil {
			if home, ok := cfg.ExpandTilde(x.User); ok {
				return []fieldPart{{quote: true, val: home}}, nil
			}
		}
		return []fieldPart{{quote: false, val: "~" + x.User}}, nil
	case *ast.ParamExpansion:
		vals, err := paramValue(cfg, x)
		if err != nil {
			return nil, err
		}
		if len(vals) == 0 {
			return nil, nil
		}
		if len(vals) == 1 {
			return []fieldPart{{quote: false, val: vals[0]}}, nil
		}
		// @ / * / array-all: each element becomes its own field boundary
		// marker, represented here by emitting a split sentinel between
		// elements via the caller's splitFields (handled specially below).
		var out []fieldPart
		for i, v := range vals {
			if i > 0 {
				out = append(out, fieldPart{quote: false, val: "\x00FS\x00"})
			}
			out = append(out, fieldPart{quote: false, val: v})
		}
		return out, nil
	case *ast.CommandSubstitution:
		if cfg.CmdSubst == nil {
			return []fieldPart{{quote: false, val: ""}}, nil
		}
		out, err := cfg.CmdSubst(x.Stmts)
		if err != nil {
			return nil, err
		}
		out = strings.TrimRight(out, "\n")
		return []fieldPart{{quote: false, val: out}}, nil
	case *ast.ArithmeticExpansion:
		n, err := Arith(x.X, cfg)
		if err != nil {
			return nil, err
		}
		return []fieldPart{{quote: false, val: itoa(n)}}, nil
	case *ast.ProcessSubstitution:
		if cfg.ProcSubst == nil {
			return []fieldPart{{quote: true, val: ""}}, nil
		}
		path, err := cfg.ProcSubst(x.Direction, x.Stmts)
		if err != nil {
			return nil, err
		}
		return []fieldPart{{quote: true, val: path}}, nil
	case *ast.BraceExpansion:
		// Reaching expansion time means splitBraces didn't resolve this
		// (e.g. it sits inside a quoted context); treat it literally.
		return []fieldPart{{quote: false, val: "{...}"}}, nil
	}
	return nil, nil
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// splitFields applies IFS word-splitting to a run of expanded parts,
// treating quoted parts as unsplittable and the @/*-array sentinel as a
// forced field boundary regardless of IFS.
type splitResult struct {
	text          string
	unquotedGlob  bool // field contains at least one unquoted glob metachar
}

func splitFields(cfg *Config, parts []fieldPart) []splitResult {
	ifs := cfg.ifs()
	var fields []splitResult
	var cur strings.Builder
	curGlob := false
	hasContent := false
	flush := func() {
		if hasContent || cur.Len() > 0 {
			fields = append(fields, splitResult{text: cur.String(), unquotedGlob: curGlob})
		}
		cur.Reset()
		curGlob = false
		hasContent = false
	}
	for _, p := range parts {
		if p.val == "\x00FS\x00" {
			flush()
			continue
		}
		if p.quote {
			cur.WriteString(p.val)
			hasContent = true
			continue
		}
		if pattern.HasMeta(p.val) {
			curGlob = true
		}
		if ifs == "" {
			cur.WriteString(p.val)
			hasContent = true
			continue
		}
		start := 0
		for i := 0; i < len(p.val); i++ {
			c := p.val[i]
			if strings.IndexByte(ifs, c) >= 0 {
				// a run of IFS whitespace is one separator; any other IFS
				// byte delimits a field even when that field is empty
				if i > start || (c != ' ' && c != '\t' && c != '\n') {
					cur.WriteString(p.val[start:i])
					hasContent = true
				}
				flush()
				start = i + 1
			}
		}
		cur.WriteString(p.val[start:])
		if start < len(p.val) {
			hasContent = true
		}
	}
	flush()
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// globField expands a single field against the pathname-expansion rules if
// it contains an unquoted glob metacharacter; a meta character coming from
// a quoted part was already marked quote-escaped by LiteralPattern's
// caller, so plain Fields() callers rely on the unquotedGlob flag computed
// during splitting instead.
func globField(cfg *Config, sr splitResult) ([]string, error) {
	f := sr.text
	if cfg.NoGlob || cfg.Glob == nil || !sr.unquotedGlob {
		return []string{f}, nil
	}
	matches, err := cfg.Glob(f)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		if cfg.NullGlob {
			return nil, nil
		}
		return []string{f}, nil
	}
	return matches, nil
}
