// Package syntax turns shell source text into the ast package's tree and
// back again. The parser is a single recursive-descent pass: there is no
// separate tokenizer stage because word boundaries, quoting, and expansion
// syntax are too context-sensitive in this grammar to tokenize ahead of the
// grammar that consumes them.
package syntax

import (
	"fmt"

	"github.com/chadparker/just-bash/ast"
	"github.com/chadparker/just-bash/token"
)

// ParseError is returned for any malformed input; Filename/Pos identify
// where, Text is a human-readable message.
type ParseError struct {
	Filename string
	Pos      token.Position
	Text     string
}

func (e *ParseError) Error() string {
	if e.Filename == "" {
		return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Text)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.Filename, e.Pos.Line, e.Pos.Column, e.Text)
}

// Parser holds the state for one parse of a single source buffer.
type Parser struct {
	sc   *scanner
	name string

	// pendingHeredocs collects <<, <<- redirections seen on the current
	// line; their bodies are read once the line's newline is reached.
	pendingHeredocs []*ast.Redirect
}

// Parse parses src as a complete script.
func Parse(src []byte, name string) (*ast.File, error) {
	p := &Parser{sc: newScanner(src), name: name}
	stmts, err := p.parseStmtList(stopSet{})
	if err != nil {
		return nil, err
	}
	return &ast.File{Name: name, Stmts: stmts, Lines: p.sc.lines}, nil
}

func (p *Parser) errf(pos token.Pos, format string, a ...any) error {
	return &ParseError{
		Filename: p.name,
		Pos:      p.resolvePos(pos),
		Text:     fmt.Sprintf(format, a...),
	}
}

func (p *Parser) resolvePos(pos token.Pos) token.Position {
	offset := int(pos) - 1
	if offset < 0 {
		offset = 0
	}
	line := 1
	for i, lineStart := range p.sc.lines {
		if lineStart > offset {
			break
		}
		line = i + 1
	}
	col := offset - p.sc.lines[line-1] + 1
	return token.Position{Offset: offset, Line: line, Column: col}
}

// stopSet tells parseStmtList which closing delimiter ends the list, beyond
// the always-recognized end of input.
type stopSet struct {
	rparen bool // stop before an unquoted ')'
	rbrace bool // stop before an unquoted '}' (word-boundary '}')
	until  string
	until2 string
}

func (s stopSet) matches(p *Parser) bool {
	if p.sc.eof() {
		return true
	}
	if s.rparen && p.sc.peekByte() == ')' {
		return true
	}
	if s.rbrace && p.sc.peekByte() == '}' && p.atWordBoundaryKeyword("}") {
		return true
	}
	if s.until != "" && p.atReservedWord(s.until) {
		return true
	}
	if s.until2 != "" && p.atReservedWord(s.until2) {
		return true
	}
	return false
}

// skipBlanksNewlinesComments advances over blanks, comments, and newlines,
// running any pending heredoc reads each time a newline is crossed.
func (p *Parser) skipBlanksNewlinesComments() {
	for {
		switch {
		case isBlank(p.sc.peekByte()):
			p.sc.advance()
		case p.sc.peekByte() == '#':
			for !p.sc.eof() && p.sc.peekByte() != '\n' {
				p.sc.advance()
			}
		case p.sc.peekByte() == '\n':
			p.sc.advance()
			p.readPendingHeredocs()
		default:
			return
		}
	}
}

func (p *Parser) skipBlanks() {
	for isBlank(p.sc.peekByte()) {
		p.sc.advance()
	}
}

// atReservedWord reports whether the upcoming bytes are exactly the given
// reserved word followed by a word boundary, without consuming anything.
func (p *Parser) atReservedWord(w string) bool {
	if !p.sc.hasPrefix(w) {
		return false
	}
	after := p.sc.peekAt(len(w))
	return isWordBreak(after) || after == 0
}

func (p *Parser) atWordBoundaryKeyword(w string) bool {
	return p.sc.hasPrefix(w)
}

// parseStmtList parses a sequence of statements separated by ; & newline,
// stopping at the given delimiter set or end of input.
func (p *Parser) parseStmtList(stop stopSet) ([]*ast.Stmt, error) {
	var stmts []*ast.Stmt
	for {
		p.skipBlanksNewlinesComments()
		for p.sc.peekByte() == ';' {
			p.sc.advance()
			p.skipBlanksNewlinesComments()
		}
		if stop.matches(p) {
			break
		}
		stmt, err := p.parseAndOrStmt(stop)
		if err != nil {
			return nil, err
		}
		if stmt == nil {
			break
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// parseAndOrStmt parses one complete list item: a chain of pipelines joined
// by && / ||, wrapped in a single *ast.Stmt whose Cmd is either the lone
// Pipeline or an *ast.AndOr, followed by its terminator (; & or newline).
func (p *Parser) parseAndOrStmt(stop stopSet) (*ast.Stmt, error) {
	startPos := p.sc.pos()
	first, err := p.parsePipelineStmt(stop)
	if err != nil {
		return nil, err
	}
	if first == nil {
		return nil, nil
	}
	stmts := []*ast.Stmt{first}
	var ops []ast.BoolOp
	for {
		p.skipBlanks()
		switch {
		case p.sc.hasPrefix("&&"):
			p.sc.advance()
			p.sc.advance()
			ops = append(ops, ast.OpAndIf)
		case p.sc.hasPrefix("||"):
			p.sc.advance()
			p.sc.advance()
			ops = append(ops, ast.OpOrIf)
		default:
			goto done
		}
		p.skipBlanksNewlinesComments()
		next, err := p.parsePipelineStmt(stop)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, p.errf(p.sc.pos(), "expected a command after %s", "&&/||")
		}
		stmts = append(stmts, next)
	}
done:
	var result *ast.Stmt
	if len(stmts) == 1 {
		result = stmts[0]
	} else {
		result = &ast.Stmt{Position: startPos, Cmd: &ast.AndOr{Stmts: stmts, Ops: ops}}
	}
	p.skipBlanks()
	switch {
	case p.sc.peekByte() == '&':
		p.sc.advance()
		result.Background = true
		result.SemiPos = p.sc.pos()
	case p.sc.peekByte() == ';' && p.sc.peekAt(1) != ';' && p.sc.peekAt(1) != '&':
		p.sc.advance()
		result.SemiPos = p.sc.pos()
	}
	return result, nil
}

// parsePipelineStmt parses one or more commands joined by | or |&, with an
// optional leading ! negation.
func (p *Parser) parsePipelineStmt(stop stopSet) (*ast.Stmt, error) {
	p.skipBlanks()
	negated := false
	var bang token.Pos
	if p.atReservedWord("!") {
		bang = p.sc.pos()
		negated = true
		p.sc.advance()
		p.skipBlanks()
	}
	first, err := p.parseCommandStmt(stop)
	if err != nil {
		return nil, err
	}
	if first == nil {
		if negated {
			return nil, p.errf(p.sc.pos(), "expected a command after !")
		}
		return nil, nil
	}
	stmts := []*ast.Stmt{first}
	var ops []ast.PipeOp
	for {
		p.skipBlanks()
		op := ast.PipeNormal
		switch {
		case p.sc.hasPrefix("|&"):
			p.sc.advance()
			p.sc.advance()
			op = ast.PipeBoth
		case p.sc.peekByte() == '|' && p.sc.peekAt(1) != '|':
			p.sc.advance()
		default:
			goto done
		}
		ops = append(ops, op)
		p.skipBlanksNewlinesComments()
		next, err := p.parseCommandStmt(stop)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, p.errf(p.sc.pos(), "expected a command after |")
		}
		stmts = append(stmts, next)
	}
done:
	if len(stmts) == 1 && !negated {
		return stmts[0], nil
	}
	startPos := stmts[0].Pos()
	if negated {
		startPos = bang
	}
	pipe := &ast.Pipeline{Bang: bang, Negated: negated, Stmts: stmts, Ops: ops}
	return &ast.Stmt{Position: startPos, Cmd: pipe}, nil
}

// parseCommandStmt parses one command: a compound command, function
// definition, or simple command, together with any leading assignments and
// interspersed redirections.
func (p *Parser) parseCommandStmt(stop stopSet) (*ast.Stmt, error) {
	p.skipBlanks()
	if p.sc.eof() || stop.matches(p) {
		return nil, nil
	}
	startPos := p.sc.pos()

	if cmd, err := p.parseCompoundOrNil(); err != nil {
		return nil, err
	} else if cmd != nil {
		stmt := &ast.Stmt{Position: startPos, Cmd: cmd}
		if err := p.parseTrailingRedirs(stmt); err != nil {
			return nil, err
		}
		return stmt, nil
	}

	return p.parseSimpleCommandStmt(startPos)
}

// parseCompoundOrNil attempts each compound-command form in turn, returning
// nil, nil if none match at the current position.
func (p *Parser) parseCompoundOrNil() (ast.Command, error) {
	switch {
	case p.atReservedWord("if"):
		return p.parseIf()
	case p.atReservedWord("while"):
		return p.parseWhile(false)
	case p.atReservedWord("until"):
		return p.parseWhile(true)
	case p.atReservedWord("for"):
		return p.parseFor()
	case p.atReservedWord("case"):
		return p.parseCase()
	case p.atReservedWord("function"):
		return p.parseFunctionKeyword()
	case p.sc.hasPrefix("(("):
		return p.parseArithCommand()
	case p.sc.peekByte() == '(':
		return p.parseSubshell()
	case p.sc.peekByte() == '{' && p.followedByWordBreakAfterBrace():
		return p.parseGroup()
	case p.sc.hasPrefix("[["):
		return p.parseConditionalCommand()
	}
	if name, ok := p.peekFuncDefName(); ok {
		return p.parseFunctionNameDef(name)
	}
	return nil, nil
}

func (p *Parser) followedByWordBreakAfterBrace() bool {
	return isWordBreak(p.sc.peekAt(1))
}

func (p *Parser) expectReserved(w string) error {
	if !p.atReservedWord(w) {
		return p.errf(p.sc.pos(), "expected %q", w)
	}
	for i := 0; i < len(w); i++ {
		p.sc.advance()
	}
	return nil
}

func (p *Parser) parseIf() (*ast.If, error) {
	ifPos := p.sc.pos()
	if err := p.expectReserved("if"); err != nil {
		return nil, err
	}
	cond, err := p.parseStmtList(stopSet{until: "then"})
	if err != nil {
		return nil, err
	}
	if err := p.expectReserved("then"); err != nil {
		return nil, err
	}
	then, err := p.parseStmtList(stopSet{until: "elif", until2: "else"})
	if err != nil {
		return nil, err
	}
	n := &ast.If{IfPos: ifPos, Cond: cond, Then: then}
	for p.atReservedWord("elif") {
		p.sc.advance()
		p.sc.advance()
		p.sc.advance()
		p.sc.advance()
		econd, err := p.parseStmtList(stopSet{until: "then"})
		if err != nil {
			return nil, err
		}
		if err := p.expectReserved("then"); err != nil {
			return nil, err
		}
		ethen, err := p.parseStmtList(stopSet{until: "elif", until2: "else"})
		if err != nil {
			return nil, err
		}
		n.Elifs = append(n.Elifs, &ast.Elif{Cond: econd, Then: ethen})
		if p.atReservedWord("elif") {
			continue
		}
		break
	}
	if p.atReservedWord("else") {
		if err := p.expectReserved("else"); err != nil {
			return nil, err
		}
		els, err := p.parseStmtList(stopSet{until: "fi"})
		if err != nil {
			return nil, err
		}
		n.Else = els
	}
	if err := p.expectReserved("fi"); err != nil {
		return nil, err
	}
	n.FiPos = p.sc.pos()
	return n, nil
}

func (p *Parser) parseWhile(until bool) (*ast.While, error) {
	pos := p.sc.pos()
	word := "while"
	if until {
		word = "until"
	}
	if err := p.expectReserved(word); err != nil {
		return nil, err
	}
	cond, err := p.parseStmtList(stopSet{until: "do"})
	if err != nil {
		return nil, err
	}
	if err := p.expectReserved("do"); err != nil {
		return nil, err
	}
	body, err := p.parseStmtList(stopSet{until: "done"})
	if err != nil {
		return nil, err
	}
	if err := p.expectReserved("done"); err != nil {
		return nil, err
	}
	return &ast.While{Pos_: pos, Until: until, Cond: cond, Body: body, DonePos: p.sc.pos()}, nil
}

func (p *Parser) parseFor() (*ast.For, error) {
	pos := p.sc.pos()
	if err := p.expectReserved("for"); err != nil {
		return nil, err
	}
	p.skipBlanks()
	if p.sc.hasPrefix("((") {
		p.sc.advance()
		p.sc.advance()
		init, err := p.parseArithExpr(";")
		if err != nil {
			return nil, err
		}
		if p.sc.peekByte() != ';' {
			return nil, p.errf(p.sc.pos(), "expected ; in for ((;;))")
		}
		p.sc.advance()
		condExpr, err := p.parseArithExpr(";")
		if err != nil {
			return nil, err
		}
		if p.sc.peekByte() != ';' {
			return nil, p.errf(p.sc.pos(), "expected ; in for ((;;))")
		}
		p.sc.advance()
		post, err := p.parseArithExpr(")")
		if err != nil {
			return nil, err
		}
		if !p.sc.hasPrefix("))") {
			return nil, p.errf(pos, "expected )) to close for ((;;))")
		}
		p.sc.advance()
		p.sc.advance()
		p.skipBlanksNewlinesComments()
		if p.sc.peekByte() == ';' {
			p.sc.advance()
		}
		p.skipBlanksNewlinesComments()
		if err := p.expectReserved("do"); err != nil {
			return nil, err
		}
		body, err := p.parseStmtList(stopSet{until: "done"})
		if err != nil {
			return nil, err
		}
		if err := p.expectReserved("done"); err != nil {
			return nil, err
		}
		return &ast.For{
			ForPos: pos, DonePos: p.sc.pos(),
			CStyle: &ast.CStyleHeader{Init: init, Cond: condExpr, Post: post},
			Body:   body,
		}, nil
	}

	start := p.sc.off
	for !p.sc.eof() && isNameByte(p.sc.peekByte()) {
		p.sc.advance()
	}
	name := string(p.sc.src[start:p.sc.off])
	if name == "" {
		return nil, p.errf(p.sc.pos(), "expected a loop variable name")
	}
	n := &ast.For{ForPos: pos, VarName: name}
	p.skipBlanksNewlinesComments()
	if p.atReservedWord("in") {
		n.HasIn = true
		p.sc.advance()
		p.sc.advance()
		for {
			p.skipBlanks()
			if p.sc.peekByte() == ';' || p.sc.peekByte() == '\n' || p.sc.eof() {
				break
			}
			w, ok, err := p.parseWord(stopNormal)
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			n.Items = append(n.Items, w)
		}
	}
	p.skipBlanksNewlinesComments()
	if p.sc.peekByte() == ';' {
		p.sc.advance()
	}
	p.skipBlanksNewlinesComments()
	if err := p.expectReserved("do"); err != nil {
		return nil, err
	}
	body, err := p.parseStmtList(stopSet{until: "done"})
	if err != nil {
		return nil, err
	}
	if err := p.expectReserved("done"); err != nil {
		return nil, err
	}
	n.Body = body
	n.DonePos = p.sc.pos()
	return n, nil
}

func (p *Parser) parseCase() (*ast.Case, error) {
	pos := p.sc.pos()
	if err := p.expectReserved("case"); err != nil {
		return nil, err
	}
	p.skipBlanksNewlinesComments()
	word, ok, err := p.parseWord(stopNormal)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, p.errf(p.sc.pos(), "expected a word after case")
	}
	p.skipBlanksNewlinesComments()
	if err := p.expectReserved("in"); err != nil {
		return nil, err
	}
	n := &ast.Case{CasePos: pos, Word: word}
	p.skipBlanksNewlinesComments()
	for !p.atReservedWord("esac") && !p.sc.eof() {
		arm := &ast.CaseArm{}
		if p.sc.peekByte() == '(' {
			p.sc.advance()
		}
		for {
			p.skipBlanksNewlinesComments()
			pat, ok, err := p.parseWord(stopCaseArm)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, p.errf(p.sc.pos(), "expected a case pattern")
			}
			arm.Patterns = append(arm.Patterns, pat)
			if p.sc.peekByte() == '|' {
				p.sc.advance()
				continue
			}
			break
		}
		if p.sc.peekByte() != ')' {
			return nil, p.errf(p.sc.pos(), "expected ) after case pattern")
		}
		p.sc.advance()
		body, op, err := p.parseCaseArmBody()
		if err != nil {
			return nil, err
		}
		arm.Body = body
		arm.Op = op
		n.Arms = append(n.Arms, arm)
		p.skipBlanksNewlinesComments()
	}
	if err := p.expectReserved("esac"); err != nil {
		return nil, err
	}
	n.EsacPos = p.sc.pos()
	return n, nil
}

// parseCaseArmBody reads statements up to ;; / ;& / ;;& / esac, recording
// which terminator ended the arm.
func (p *Parser) parseCaseArmBody() ([]*ast.Stmt, ast.CaseOp, error) {
	var stmts []*ast.Stmt
	for {
		p.skipBlanksNewlinesComments()
		if p.atReservedWord("esac") || p.sc.eof() {
			break
		}
		if p.sc.hasPrefix(";;&") || p.sc.hasPrefix(";&") || p.sc.hasPrefix(";;") {
			break
		}
		stmt, err := p.parseAndOrStmt(stopSet{})
		if err != nil {
			return nil, 0, err
		}
		if stmt == nil {
			break
		}
		stmts = append(stmts, stmt)
		p.skipBlanks()
		if p.sc.hasPrefix(";;&") || p.sc.hasPrefix(";&") || p.sc.hasPrefix(";;") {
			break
		}
	}
	op := ast.CaseBreak
	switch {
	case p.sc.hasPrefix(";;&"):
		p.sc.advance()
		p.sc.advance()
		p.sc.advance()
		op = ast.CaseContinue
	case p.sc.hasPrefix(";;"):
		p.sc.advance()
		p.sc.advance()
	case p.sc.hasPrefix(";&"):
		p.sc.advance()
		p.sc.advance()
		op = ast.CaseFallThru
	}
	return stmts, op, nil
}

func (p *Parser) parseSubshell() (*ast.Subshell, error) {
	lparen := p.sc.pos()
	p.sc.advance()
	stmts, err := p.parseStmtList(stopSet{rparen: true})
	if err != nil {
		return nil, err
	}
	if p.sc.peekByte() != ')' {
		return nil, p.errf(lparen, "reached EOF without matching ( with )")
	}
	p.sc.advance()
	return &ast.Subshell{Lparen: lparen, Rparen: p.sc.pos(), Stmts: stmts}, nil
}

func (p *Parser) parseGroup() (*ast.Group, error) {
	lbrace := p.sc.pos()
	p.sc.advance()
	stmts, err := p.parseStmtList(stopSet{rbrace: true})
	if err != nil {
		return nil, err
	}
	if p.sc.peekByte() != '}' {
		return nil, p.errf(lbrace, "reached EOF without matching { with }")
	}
	p.sc.advance()
	return &ast.Group{Lbrace: lbrace, Rbrace: p.sc.pos(), Stmts: stmts}, nil
}

func (p *Parser) parseArithCommand() (*ast.ArithmeticCommand, error) {
	left := p.sc.pos()
	p.sc.advance()
	p.sc.advance()
	x, err := p.parseArithExpr(")")
	if err != nil {
		return nil, err
	}
	if !p.sc.hasPrefix("))") {
		return nil, p.errf(left, "expected )) to close ((")
	}
	p.sc.advance()
	p.sc.advance()
	return &ast.ArithmeticCommand{Left: left, Right: p.sc.pos(), X: x}, nil
}

func (p *Parser) parseConditionalCommand() (*ast.ConditionalCommand, error) {
	left := p.sc.pos()
	p.sc.advance()
	p.sc.advance()
	x, err := p.parseTestExpr()
	if err != nil {
		return nil, err
	}
	p.skipBlanks()
	if !p.sc.hasPrefix("]]") {
		return nil, p.errf(left, "expected ]] to close [[")
	}
	p.sc.advance()
	p.sc.advance()
	return &ast.ConditionalCommand{Left: left, Right: p.sc.pos(), X: x}, nil
}

func (p *Parser) parseFunctionKeyword() (*ast.FunctionDef, error) {
	pos := p.sc.pos()
	p.sc.advance()
	p.sc.advance()
	p.sc.advance()
	p.sc.advance()
	p.sc.advance()
	p.sc.advance()
	p.sc.advance()
	p.sc.advance() // "function"
	p.skipBlanks()
	start := p.sc.off
	for !p.sc.eof() && isNameByte(p.sc.peekByte()) {
		p.sc.advance()
	}
	name := string(p.sc.src[start:p.sc.off])
	p.skipBlanks()
	if p.sc.hasPrefix("()") {
		p.sc.advance()
		p.sc.advance()
	}
	p.skipBlanksNewlinesComments()
	body, err := p.parseCommandStmt(stopSet{})
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, p.errf(pos, "expected a function body")
	}
	return &ast.FunctionDef{Position: pos, Name: name, BashStyle: true, Body: body}, nil
}

// peekFuncDefName reports whether the upcoming text is NAME() with no space
// before the parens, the POSIX function-definition form.
func (p *Parser) peekFuncDefName() (string, bool) {
	if !isNameStart(p.sc.peekByte()) {
		return "", false
	}
	i := 0
	for isNameByte(p.sc.peekAt(i)) {
		i++
	}
	if p.sc.peekAt(i) != '(' || p.sc.peekAt(i+1) != ')' {
		return "", false
	}
	return string(p.sc.src[p.sc.off : p.sc.off+i]), true
}

func (p *Parser) parseFunctionNameDef(name string) (*ast.FunctionDef, error) {
	pos := p.sc.pos()
	for i := 0; i < len(name)+2; i++ {
		p.sc.advance()
	}
	p.skipBlanksNewlinesComments()
	body, err := p.parseCommandStmt(stopSet{})
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, p.errf(pos, "expected a function body")
	}
	return &ast.FunctionDef{Position: pos, Name: name, Body: body}, nil
}

// parseSimpleCommandStmt parses leading NAME=value assignments, the command
// name and arguments, and any interspersed redirections.
func (p *Parser) parseSimpleCommandStmt(startPos token.Pos) (*ast.Stmt, error) {
	stmt := &ast.Stmt{Position: startPos}
	var args []ast.Word
	for {
		p.skipBlanks()
		c := p.sc.peekByte()
		if c == 0 || c == '\n' || c == ';' || c == '&' || c == '|' || c == ')' {
			break
		}
		if c == '}' && len(args) > 0 {
			break
		}
		if (c == '<' || c == '>') && p.sc.peekAt(1) == '(' {
			dir := ast.ProcIn
			if c == '>' {
				dir = ast.ProcOut
			}
			ps, err := p.parseProcessSubstitution(dir)
			if err != nil {
				return nil, err
			}
			args = append(args, ast.Word{Parts: []ast.WordPart{ps}})
			continue
		}
		if isRedirStart(p, c) {
			r, err := p.parseRedirect()
			if err != nil {
				return nil, err
			}
			stmt.Redirs = append(stmt.Redirs, r)
			continue
		}
		if len(args) == 0 {
			if assign, ok, err := p.tryParseAssign(); err != nil {
				return nil, err
			} else if ok {
				stmt.Assigns = append(stmt.Assigns, assign)
				continue
			}
		}
		w, ok, err := p.parseWord(stopNormal)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		args = append(args, w)
	}
	if len(args) == 0 {
		if len(stmt.Assigns) == 0 && len(stmt.Redirs) == 0 {
			return nil, nil
		}
		return stmt, nil
	}
	stmt.Cmd = &ast.SimpleCommand{Args: args}
	return stmt, nil
}

// tryParseAssign speculatively reads a NAME=word or NAME+=word assignment,
// including the NAME=(...) array-literal form; it backtracks (reports
// ok=false) if the text doesn't fit that shape.
func (p *Parser) tryParseAssign() (*ast.Assign, bool, error) {
	save := p.sc.off
	pos := p.sc.pos()
	if !isNameStart(p.sc.peekByte()) {
		return nil, false, nil
	}
	start := p.sc.off
	for isNameByte(p.sc.peekByte()) {
		p.sc.advance()
	}
	name := string(p.sc.src[start:p.sc.off])

	a := &ast.Assign{NamePos: pos, Name: name}

	if p.sc.peekByte() == '[' {
		idxStart := p.sc.off
		p.sc.advance()
		idx, _, err := p.parseWord(stopIndexWord)
		if err != nil {
			p.sc.off = save
			return nil, false, nil
		}
		if p.sc.peekByte() != ']' {
			p.sc.off = save
			return nil, false, nil
		}
		p.sc.advance()
		_ = idxStart
		a.Index = &idx
	}

	appendOp := false
	switch {
	case p.sc.peekByte() == '=':
		p.sc.advance()
	case p.sc.hasPrefix("+="):
		p.sc.advance()
		p.sc.advance()
		appendOp = true
	default:
		p.sc.off = save
		return nil, false, nil
	}
	a.Append = appendOp

	if p.sc.peekByte() == '(' {
		p.sc.advance()
		a.Array = true
		for {
			p.skipBlanksNewlinesComments()
			if p.sc.peekByte() == ')' {
				break
			}
			if p.sc.peekByte() == '[' {
				p.sc.advance()
				idx, _, err := p.parseWord(stopIndexWord)
				if err != nil {
					return nil, false, err
				}
				if p.sc.peekByte() != ']' {
					return nil, false, p.errf(p.sc.pos(), "expected ] in array element")
				}
				p.sc.advance()
				if p.sc.peekByte() != '=' {
					return nil, false, p.errf(p.sc.pos(), "expected = after array index")
				}
				p.sc.advance()
				a.Assoc = true
				val, _, err := p.parseWord(stopNormal)
				if err != nil {
					return nil, false, err
				}
				a.Elems = append(a.Elems, ast.ArrayElem{Index: &idx, Value: val})
				continue
			}
			val, ok, err := p.parseWord(stopNormal)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				break
			}
			a.Elems = append(a.Elems, ast.ArrayElem{Value: val})
		}
		if p.sc.peekByte() != ')' {
			return nil, false, p.errf(p.sc.pos(), "expected ) to close array literal")
		}
		p.sc.advance()
		return a, true, nil
	}

	val, _, err := p.parseWord(stopNormal)
	if err != nil {
		return nil, false, err
	}
	a.Value = val
	return a, true, nil
}

func isRedirStart(p *Parser, c byte) bool {
	if c == '<' || c == '>' {
		return true
	}
	if c >= '0' && c <= '9' {
		i := 0
		for p.sc.peekAt(i) >= '0' && p.sc.peekAt(i) <= '9' {
			i++
		}
		nc := p.sc.peekAt(i)
		return nc == '<' || nc == '>'
	}
	if c == '&' && (p.sc.peekAt(1) == '>' || p.sc.peekAt(1) == '<') {
		return true
	}
	return false
}

func (p *Parser) parseTrailingRedirs(stmt *ast.Stmt) error {
	for {
		p.skipBlanks()
		if !isRedirStart(p, p.sc.peekByte()) {
			return nil
		}
		r, err := p.parseRedirect()
		if err != nil {
			return err
		}
		stmt.Redirs = append(stmt.Redirs, r)
	}
}

// parseRedirect reads one [fd]OP target redirection, including the <<heredoc
// and <<-heredoc forms whose body is deferred until the line ends.
func (p *Parser) parseRedirect() (*ast.Redirect, error) {
	var fd *int
	if c := p.sc.peekByte(); c >= '0' && c <= '9' {
		start := p.sc.off
		for p.sc.peekByte() >= '0' && p.sc.peekByte() <= '9' {
			p.sc.advance()
		}
		n := 0
		for _, d := range p.sc.src[start:p.sc.off] {
			n = n*10 + int(d-'0')
		}
		fd = &n
	}
	opPos := p.sc.pos()
	var op ast.RedirOp
	switch {
	case p.sc.hasPrefix("<<<"):
		p.sc.advance()
		p.sc.advance()
		p.sc.advance()
		op = ast.RedirHeredocStr
	case p.sc.hasPrefix("<<-"):
		p.sc.advance()
		p.sc.advance()
		p.sc.advance()
		op = ast.RedirHeredocTabs
	case p.sc.hasPrefix("<<"):
		p.sc.advance()
		p.sc.advance()
		op = ast.RedirHeredoc
	case p.sc.hasPrefix("<&"):
		p.sc.advance()
		p.sc.advance()
		op = ast.RedirDupIn
	case p.sc.hasPrefix("<>"):
		p.sc.advance()
		p.sc.advance()
		op = ast.RedirReadWrite
	case p.sc.hasPrefix(">>"):
		p.sc.advance()
		p.sc.advance()
		op = ast.RedirAppend
	case p.sc.hasPrefix(">|"):
		p.sc.advance()
		p.sc.advance()
		op = ast.RedirClobber
	case p.sc.hasPrefix(">&"):
		p.sc.advance()
		p.sc.advance()
		op = ast.RedirDupOut
	case p.sc.hasPrefix("&>>"):
		p.sc.advance()
		p.sc.advance()
		p.sc.advance()
		op = ast.RedirBothAppend
	case p.sc.hasPrefix("&>"):
		p.sc.advance()
		p.sc.advance()
		op = ast.RedirBoth
	case p.sc.peekByte() == '<':
		p.sc.advance()
		op = ast.RedirLess
	case p.sc.peekByte() == '>':
		p.sc.advance()
		op = ast.RedirGreat
	default:
		return nil, p.errf(opPos, "expected a redirection operator")
	}

	p.skipBlanks()

	if op == ast.RedirHeredoc || op == ast.RedirHeredocTabs {
		quoted := p.sc.peekByte() == '\'' || p.sc.peekByte() == '"'
		delim, _, err := p.parseWord(stopNormal)
		if err != nil {
			return nil, err
		}
		r := &ast.Redirect{OpPos: opPos, Fd: fd, Op: op, Target: delim, Quoted: quoted, StripTabs: op == ast.RedirHeredocTabs}
		p.pendingHeredocs = append(p.pendingHeredocs, r)
		return r, nil
	}

	target, ok, err := p.parseWord(stopNormal)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, p.errf(p.sc.pos(), "expected a redirection target")
	}
	return &ast.Redirect{OpPos: opPos, Fd: fd, Op: op, Target: target}, nil
}

// heredocDelimText recovers the literal delimiter text of a heredoc word,
// whose quoting (if any) only suppresses body expansion and carries no
// other meaning for matching the terminating line.
func heredocDelimText(w ast.Word) string {
	var sb []byte
	for _, part := range w.Parts {
		switch x := part.(type) {
		case *ast.Literal:
			sb = append(sb, x.Value...)
		case *ast.SingleQuoted:
			sb = append(sb, x.Value...)
		case *ast.DoubleQuoted:
			sb = append(sb, heredocDelimText(ast.Word{Parts: x.Parts})...)
		}
	}
	return string(sb)
}

// readPendingHeredocs reads the raw-text bodies of any heredocs opened on
// the line just ended, each up to a line matching its delimiter exactly.
func (p *Parser) readPendingHeredocs() {
	docs := p.pendingHeredocs
	p.pendingHeredocs = nil
	for _, r := range docs {
		delim := heredocDelimText(r.Target)
		var lines []string
		for {
			lineStart := p.sc.off
			for !p.sc.eof() && p.sc.peekByte() != '\n' {
				p.sc.advance()
			}
			line := string(p.sc.src[lineStart:p.sc.off])
			if !p.sc.eof() {
				p.sc.advance() // consume the newline
			}
			check := line
			if r.StripTabs {
				for len(check) > 0 && check[0] == '\t' {
					check = check[1:]
				}
			}
			if check == delim {
				break
			}
			lines = append(lines, line)
			if p.sc.eof() {
				break
			}
		}
		body := ""
		for _, l := range lines {
			if r.StripTabs {
				for len(l) > 0 && l[0] == '\t' {
					l = l[1:]
				}
			}
			body += l + "\n"
		}
		pos := r.Target.Pos()
		r.Hdoc = ast.Word{Parts: []ast.WordPart{&ast.Literal{ValuePos: pos, Value: body}}}
	}
}
