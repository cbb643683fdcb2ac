package syntax

import (
	"strconv"
	"strings"

	"github.com/chadparker/just-bash/ast"
	"github.com/chadparker/just-bash/token"
)

// splitBraces scans a fully-parsed Word's Literal runs for {a,b,c} and
// {x..y[..z]} brace-expansion syntax and lifts any it finds out into
// *ast.BraceExpansion word parts, leaving everything else untouched. Brace
// expansion is purely lexical and happens before any other expansion, so it
// is modeled as this post-parse rewrite rather than being recognized
// inline while words are first read.
func splitBraces(w ast.Word) ast.Word {
	var out []ast.WordPart
	for _, part := range w.Parts {
		lit, ok := part.(*ast.Literal)
		if !ok {
			out = append(out, part)
			continue
		}
		out = append(out, splitLiteralBraces(lit)...)
	}
	return ast.Word{Parts: out}
}

func splitLiteralBraces(lit *ast.Literal) []ast.WordPart {
	s := lit.Value
	i := strings.IndexByte(s, '{')
	if i < 0 {
		return []ast.WordPart{lit}
	}
	start, end, ok := findBraceSpan(s, i)
	if !ok {
		return []ast.WordPart{lit}
	}
	inner := s[start+1 : end]
	be, ok := parseBraceInner(inner, lit.ValuePos+token.Pos(start))
	if !ok {
		return []ast.WordPart{lit}
	}
	var parts []ast.WordPart
	if start > 0 {
		parts = append(parts, &ast.Literal{ValuePos: lit.ValuePos, Value: s[:start]})
	}
	parts = append(parts, be)
	if end+1 < len(s) {
		rest := &ast.Literal{ValuePos: lit.ValuePos + token.Pos(end+1), Value: s[end+1:]}
		parts = append(parts, splitLiteralBraces(rest)...)
	}
	return parts
}

// findBraceSpan finds the matching '}' for the '{' at index i, respecting
// nested braces. Returns ok=false if unmatched.
func findBraceSpan(s string, i int) (start, end int, ok bool) {
	depth := 0
	for j := i; j < len(s); j++ {
		switch s[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func parseBraceInner(inner string, pos token.Pos) (*ast.BraceExpansion, bool) {
	if from, to, step, chars, ok := parseSequenceSpec(inner); ok {
		return &ast.BraceExpansion{
			Sequence: true, From: from, To: to, Step: step, Chars: chars,
		}, true
	}
	elems, ok := splitTopLevelCommas(inner)
	if !ok || len(elems) < 2 {
		return nil, false
	}
	var words []ast.Word
	for _, e := range elems {
		words = append(words, ast.Word{Parts: []ast.WordPart{&ast.Literal{ValuePos: pos, Value: e}}})
	}
	return &ast.BraceExpansion{Elems: words}, true
}

// parseSequenceSpec recognizes x..y or x..y..z where x,y are both integers
// or both single letters.
func parseSequenceSpec(s string) (from, to, step string, chars, ok bool) {
	parts := strings.Split(s, "..")
	if len(parts) != 2 && len(parts) != 3 {
		return "", "", "", false, false
	}
	from, to = parts[0], parts[1]
	if len(parts) == 3 {
		step = parts[2]
		if _, err := strconv.Atoi(step); err != nil {
			return "", "", "", false, false
		}
	}
	if len(from) == 1 && len(to) == 1 && isAlpha(from[0]) && isAlpha(to[0]) {
		return from, to, step, true, true
	}
	if _, err := strconv.Atoi(from); err != nil {
		return "", "", "", false, false
	}
	if _, err := strconv.Atoi(to); err != nil {
		return "", "", "", false, false
	}
	return from, to, step, false, true
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// splitTopLevelCommas splits on commas not nested inside another {...}.
func splitTopLevelCommas(s string) ([]string, bool) {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return nil, false
			}
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, false
	}
	out = append(out, s[start:])
	return out, true
}
