package syntax

import (
	"strings"

	"github.com/chadparker/just-bash/ast"
	"github.com/chadparker/just-bash/token"
)

// wordStopper decides, for the plain (non-quoted) context, whether the
// current byte ends the word being read.
type wordStopper func(p *Parser, firstByte bool) bool

// stopNormal is used for command words and arguments: word breaks are
// blanks, the operators, and parens.
func stopNormal(p *Parser, first bool) bool {
	c := p.sc.peekByte()
	return isWordBreak(c)
}

// stopCaseArm additionally breaks on ')' so case patterns parse correctly,
// and on '|' to separate alternate patterns.
func stopCaseArm(p *Parser, first bool) bool {
	c := p.sc.peekByte()
	if c == ')' || c == '|' {
		return true
	}
	return isWordBreak(c) && c != '('
}

// parseWord reads one blank-delimited word, or returns ok=false if the
// current position has nothing word-like to read (e.g. straight at an
// operator). stop decides where the word ends; `{`/`}` acting as
// standalone-word group delimiters is checked by callers before calling in.
func (p *Parser) parseWord(stop wordStopper) (ast.Word, bool, error) {
	var w ast.Word
	first := true
	for {
		if p.sc.eof() {
			break
		}
		c := p.sc.peekByte()
		if stop(p, first) {
			break
		}
		switch {
		case c == '\'':
			part, err := p.parseSingleQuoted(false)
			if err != nil {
				return w, false, err
			}
			w.Parts = append(w.Parts, part)
		case c == '"':
			part, err := p.parseDoubleQuoted(false)
			if err != nil {
				return w, false, err
			}
			w.Parts = append(w.Parts, part)
		case c == '\\':
			if p.sc.peekAt(1) == '\n' {
				p.sc.advance()
				p.sc.advance()
				continue
			}
			pos := p.sc.pos()
			p.sc.advance()
			if p.sc.eof() {
				w.Parts = append(w.Parts, &ast.Literal{ValuePos: pos, Value: "\\"})
				break
			}
			esc := p.sc.advance()
			w.Parts = append(w.Parts, &ast.Literal{ValuePos: pos, Value: string(esc)})
		case c == '$':
			part, err := p.parseDollar()
			if err != nil {
				return w, false, err
			}
			if part != nil {
				w.Parts = append(w.Parts, part)
			}
		case c == '`':
			part, err := p.parseBackquoted()
			if err != nil {
				return w, false, err
			}
			w.Parts = append(w.Parts, part)
		case c == '~' && first:
			part := p.parseTilde()
			w.Parts = append(w.Parts, part)
		default:
			p.appendLitByte(&w)
		}
		first = false
	}
	if len(w.Parts) == 0 {
		return w, false, nil
	}
	return splitBraces(w), true, nil
}

// appendLitByte consumes one plain byte, merging it into a trailing
// Literal part when possible.
func (p *Parser) appendLitByte(w *ast.Word) {
	pos := p.sc.pos()
	c := p.sc.advance()
	if n := len(w.Parts); n > 0 {
		if lit, ok := w.Parts[n-1].(*ast.Literal); ok {
			lit.Value += string(c)
			return
		}
	}
	w.Parts = append(w.Parts, &ast.Literal{ValuePos: pos, Value: string(c)})
}

func (p *Parser) parseTilde() *ast.TildeExpansion {
	pos := p.sc.pos()
	p.sc.advance() // ~
	start := p.sc.off
	for !p.sc.eof() {
		c := p.sc.peekByte()
		if c == '/' || isWordBreak(c) || c == ':' {
			break
		}
		p.sc.advance()
	}
	user := string(p.sc.src[start:p.sc.off])
	return &ast.TildeExpansion{Position: pos, User: user}
}

func (p *Parser) parseSingleQuoted(dollar bool) (*ast.SingleQuoted, error) {
	pos := p.sc.pos()
	if dollar {
		pos-- // include the '$'
	}
	p.sc.advance() // opening '
	start := p.sc.off
	for {
		if p.sc.eof() {
			return nil, p.errf(pos, "reached EOF without closing quote '")
		}
		if p.sc.peekByte() == '\'' {
			break
		}
		p.sc.advance()
	}
	raw := string(p.sc.src[start:p.sc.off])
	p.sc.advance() // closing '
	val := raw
	if dollar {
		val = unescapeANSIC(raw)
	}
	return &ast.SingleQuoted{Position: pos, Dollar: dollar, Value: val}, nil
}

func unescapeANSIC(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i == len(s)-1 {
			sb.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '\\':
			sb.WriteByte('\\')
		case '\'':
			sb.WriteByte('\'')
		case 'a':
			sb.WriteByte('\a')
		case 'e', 'E':
			sb.WriteByte(0x1b)
		case '0':
			sb.WriteByte(0)
		default:
			sb.WriteByte('\\')
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

func (p *Parser) parseDoubleQuoted(dollar bool) (*ast.DoubleQuoted, error) {
	pos := p.sc.pos()
	if dollar {
		pos--
	}
	p.sc.advance() // opening "
	q := &ast.DoubleQuoted{Position: pos, Dollar: dollar}
	for {
		if p.sc.eof() {
			return nil, p.errf(pos, `reached EOF without closing quote "`)
		}
		c := p.sc.peekByte()
		if c == '"' {
			break
		}
		switch {
		case c == '\\':
			next := p.sc.peekAt(1)
			if next == '\n' {
				p.sc.advance()
				p.sc.advance()
				continue
			}
			if strings.IndexByte(`$"\`+"`", next) >= 0 {
				litPos := p.sc.pos()
				p.sc.advance()
				esc := p.sc.advance()
				appendLitPart(q, litPos, string(esc))
				continue
			}
			litPos := p.sc.pos()
			p.sc.advance()
			appendLitPart(q, litPos, "\\")
		case c == '$':
			part, err := p.parseDollar()
			if err != nil {
				return nil, err
			}
			if part != nil {
				q.Parts = append(q.Parts, part)
			}
		case c == '`':
			part, err := p.parseBackquoted()
			if err != nil {
				return nil, err
			}
			q.Parts = append(q.Parts, part)
		default:
			litPos := p.sc.pos()
			c = p.sc.advance()
			appendLitPart(q, litPos, string(c))
		}
	}
	p.sc.advance() // closing "
	return q, nil
}

func appendLitPart(q *ast.DoubleQuoted, pos token.Pos, s string) {
	if n := len(q.Parts); n > 0 {
		if lit, ok := q.Parts[n-1].(*ast.Literal); ok {
			lit.Value += s
			return
		}
	}
	q.Parts = append(q.Parts, &ast.Literal{ValuePos: pos, Value: s})
}

// parseDollar dispatches on what follows an unquoted or in-double-quotes
// '$': arithmetic $((...)), command substitution $(...), parameter
// expansion ${...} or bare $name, or a lone '$' literal.
func (p *Parser) parseDollar() (ast.WordPart, error) {
	pos := p.sc.pos()
	if p.sc.hasPrefix("$((") {
		return p.parseArithmExpansion()
	}
	if p.sc.hasPrefix("$(") {
		return p.parseCmdSubst()
	}
	if p.sc.hasPrefix("${") {
		return p.parseParamExpBraced()
	}
	if p.sc.hasPrefix("$'") {
		p.sc.advance()
		return p.parseSingleQuoted(true)
	}
	if p.sc.hasPrefix(`$"`) {
		p.sc.advance()
		return p.parseDoubleQuoted(true)
	}
	// bare $name, $1, $#, $@, $*, $?, $$, $!, $-, $0
	nc := p.sc.peekAt(1)
	switch {
	case isNameStart(nc):
		p.sc.advance()
		start := p.sc.off
		for !p.sc.eof() && isNameByte(p.sc.peekByte()) {
			p.sc.advance()
		}
		name := string(p.sc.src[start:p.sc.off])
		return &ast.ParamExpansion{Dollar: pos, Short: true, Name: name}, nil
	case nc >= '0' && nc <= '9':
		p.sc.advance()
		start := p.sc.off
		p.sc.advance()
		name := string(p.sc.src[start:p.sc.off])
		return &ast.ParamExpansion{Dollar: pos, Short: true, Name: name}, nil
	case strings.IndexByte("@*#?$!-", nc) >= 0:
		p.sc.advance()
		p.sc.advance()
		return &ast.ParamExpansion{Dollar: pos, Short: true, Name: string(nc)}, nil
	default:
		// lone '$' with nothing special following: literal
		p.sc.advance()
		return &ast.Literal{ValuePos: pos, Value: "$"}, nil
	}
}

func (p *Parser) parseArithmExpansion() (*ast.ArithmeticExpansion, error) {
	left := p.sc.pos()
	p.sc.advance()
	p.sc.advance()
	p.sc.advance() // $((
	x, err := p.parseArithExpr(")")
	if err != nil {
		return nil, err
	}
	if !p.sc.hasPrefix("))") {
		return nil, p.errf(left, `reached end without matching $(( with ))`)
	}
	p.sc.advance()
	p.sc.advance()
	right := p.sc.pos()
	return &ast.ArithmeticExpansion{Left: left, Right: right, X: x}, nil
}

func (p *Parser) parseCmdSubst() (*ast.CommandSubstitution, error) {
	left := p.sc.pos()
	p.sc.advance()
	p.sc.advance() // $(
	stmts, err := p.parseStmtList(stopSet{rparen: true})
	if err != nil {
		return nil, err
	}
	p.skipBlanksNewlinesComments()
	if p.sc.peekByte() != ')' {
		return nil, p.errf(left, "reached EOF without matching $( with )")
	}
	p.sc.advance()
	right := p.sc.pos()
	return &ast.CommandSubstitution{Left: left, Right: right, Stmts: stmts}, nil
}

func (p *Parser) parseBackquoted() (*ast.CommandSubstitution, error) {
	left := p.sc.pos()
	p.sc.advance() // `
	start := p.sc.off
	for {
		if p.sc.eof() {
			return nil, p.errf(left, "reached EOF without closing `")
		}
		if p.sc.peekByte() == '`' {
			break
		}
		if p.sc.peekByte() == '\\' && (p.sc.peekAt(1) == '`' || p.sc.peekAt(1) == '\\') {
			p.sc.advance()
		}
		p.sc.advance()
	}
	body := string(p.sc.src[start:p.sc.off])
	p.sc.advance() // closing `
	right := p.sc.pos()
	sub, err := Parse([]byte(body), p.name)
	if err != nil {
		return nil, err
	}
	return &ast.CommandSubstitution{Left: left, Right: right, Backtick: true, Stmts: sub.Stmts}, nil
}

func (p *Parser) parseProcessSubstitution(dir ast.ProcDir) (*ast.ProcessSubstitution, error) {
	pos := p.sc.pos()
	p.sc.advance()
	p.sc.advance() // <( or >(
	stmts, err := p.parseStmtList(stopSet{rparen: true})
	if err != nil {
		return nil, err
	}
	if p.sc.peekByte() != ')' {
		return nil, p.errf(pos, "reached EOF without matching process substitution with )")
	}
	p.sc.advance()
	return &ast.ProcessSubstitution{OpPos: pos, Rparen: p.sc.pos(), Direction: dir, Stmts: stmts}, nil
}
