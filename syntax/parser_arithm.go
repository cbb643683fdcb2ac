package syntax

import "github.com/chadparker/just-bash/ast"

// parseArithExpr parses a $(( )), (( )), or for((;;)) arithmetic expression
// using precedence climbing. stopStr names the byte the caller expects after
// the expression (")" or ";"); it is passed down through every level but
// never examined. The expression ends at the first byte that no operator or
// operand rule accepts, which is what lets the C-style for-loop header reuse
// this parser for each of its three clauses.
func (p *Parser) parseArithExpr(stopStr string) (ast.ArithExpr, error) {
	return p.parseArithAssign(stopStr)
}

// parseArithAssign handles the right-associative assignment operators,
// lowest precedence.
func (p *Parser) parseArithAssign(stopStr string) (ast.ArithExpr, error) {
	x, err := p.parseArithTernary(stopStr)
	if err != nil {
		return nil, err
	}
	p.skipBlanks()
	opPos := p.sc.pos()
	var op ast.ArithOp
	matched := true
	switch {
	case p.sc.hasPrefix("+="):
		op = ast.ArithAddAssign
	case p.sc.hasPrefix("-="):
		op = ast.ArithSubAssign
	case p.sc.hasPrefix("*="):
		op = ast.ArithMulAssign
	case p.sc.hasPrefix("/="):
		op = ast.ArithQuoAssign
	case p.sc.hasPrefix("%="):
		op = ast.ArithRemAssign
	case p.sc.hasPrefix("&="):
		op = ast.ArithAndAssign
	case p.sc.hasPrefix("|="):
		op = ast.ArithOrAssign
	case p.sc.hasPrefix("^="):
		op = ast.ArithXorAssign
	case p.sc.hasPrefix("<<="):
		op = ast.ArithShlAssign
	case p.sc.hasPrefix(">>="):
		op = ast.ArithShrAssign
	case p.sc.peekByte() == '=' && p.sc.peekAt(1) != '=':
		op = ast.ArithAssign
	default:
		matched = false
	}
	if !matched {
		return x, nil
	}
	for i := 0; i < opLen(op); i++ {
		p.sc.advance()
	}
	y, err := p.parseArithAssign(stopStr)
	if err != nil {
		return nil, err
	}
	return &ast.ArithBinary{OpPos: opPos, Op: op, X: x, Y: y}, nil
}

func opLen(op ast.ArithOp) int {
	switch op {
	case ast.ArithShlAssign, ast.ArithShrAssign:
		return 3
	case ast.ArithAssign:
		return 1
	default:
		return 2
	}
}

func (p *Parser) parseArithTernary(stopStr string) (ast.ArithExpr, error) {
	cond, err := p.parseArithBinExpr(stopStr, 0)
	if err != nil {
		return nil, err
	}
	p.skipBlanks()
	if p.sc.peekByte() != '?' {
		return cond, nil
	}
	p.sc.advance()
	then, err := p.parseArithAssign(stopStr)
	if err != nil {
		return nil, err
	}
	p.skipBlanks()
	if p.sc.peekByte() != ':' {
		return nil, p.errf(p.sc.pos(), "expected : in ?: expression")
	}
	p.sc.advance()
	els, err := p.parseArithAssign(stopStr)
	if err != nil {
		return nil, err
	}
	return &ast.ArithTernary{Cond: cond, Then: then, Else: els}, nil
}

func (p *Parser) parseArithBinExpr(stopStr string, level int) (ast.ArithExpr, error) {
	if level >= len(arithLevelFuncs) {
		return p.parseArithUnary(stopStr)
	}
	x, err := p.parseArithBinExpr(stopStr, level+1)
	if err != nil {
		return nil, err
	}
	for {
		p.skipBlanks()
		op, ln, ok := arithLevelFuncs[level](p)
		if !ok {
			return x, nil
		}
		opPos := p.sc.pos()
		for i := 0; i < ln; i++ {
			p.sc.advance()
		}
		y, err := p.parseArithBinExpr(stopStr, level+1)
		if err != nil {
			return nil, err
		}
		x = &ast.ArithBinary{OpPos: opPos, Op: op, X: x, Y: y}
	}
}

// arithLevelFuncs walks from lowest to highest precedence; each function
// peeks (without consuming on a non-match) and reports the operator found.
var arithLevelFuncs = []func(p *Parser) (ast.ArithOp, int, bool){
	func(p *Parser) (ast.ArithOp, int, bool) { // logical or
		if p.sc.hasPrefix("||") {
			return ast.ArithLOr, 2, true
		}
		return 0, 0, false
	},
	func(p *Parser) (ast.ArithOp, int, bool) { // logical and
		if p.sc.hasPrefix("&&") {
			return ast.ArithLAnd, 2, true
		}
		return 0, 0, false
	},
	func(p *Parser) (ast.ArithOp, int, bool) { // bitwise or
		if p.sc.peekByte() == '|' && p.sc.peekAt(1) != '|' && p.sc.peekAt(1) != '=' {
			return ast.ArithOr, 1, true
		}
		return 0, 0, false
	},
	func(p *Parser) (ast.ArithOp, int, bool) { // bitwise xor
		if p.sc.peekByte() == '^' && p.sc.peekAt(1) != '=' {
			return ast.ArithXor, 1, true
		}
		return 0, 0, false
	},
	func(p *Parser) (ast.ArithOp, int, bool) { // bitwise and
		if p.sc.peekByte() == '&' && p.sc.peekAt(1) != '&' && p.sc.peekAt(1) != '=' {
			return ast.ArithAnd, 1, true
		}
		return 0, 0, false
	},
	func(p *Parser) (ast.ArithOp, int, bool) { // equality
		if p.sc.hasPrefix("==") {
			return ast.ArithEql, 2, true
		}
		if p.sc.hasPrefix("!=") {
			return ast.ArithNeq, 2, true
		}
		return 0, 0, false
	},
	func(p *Parser) (ast.ArithOp, int, bool) { // relational
		if p.sc.hasPrefix("<=") {
			return ast.ArithLeq, 2, true
		}
		if p.sc.hasPrefix(">=") {
			return ast.ArithGeq, 2, true
		}
		if p.sc.peekByte() == '<' && p.sc.peekAt(1) != '<' {
			return ast.ArithLss, 1, true
		}
		if p.sc.peekByte() == '>' && p.sc.peekAt(1) != '>' {
			return ast.ArithGtr, 1, true
		}
		return 0, 0, false
	},
	func(p *Parser) (ast.ArithOp, int, bool) { // shift
		if p.sc.hasPrefix("<<") && !p.sc.hasPrefix("<<=") {
			return ast.ArithShl, 2, true
		}
		if p.sc.hasPrefix(">>") && !p.sc.hasPrefix(">>=") {
			return ast.ArithShr, 2, true
		}
		return 0, 0, false
	},
	func(p *Parser) (ast.ArithOp, int, bool) { // additive
		if p.sc.peekByte() == '+' && p.sc.peekAt(1) != '+' && p.sc.peekAt(1) != '=' {
			return ast.ArithAdd, 1, true
		}
		if p.sc.peekByte() == '-' && p.sc.peekAt(1) != '-' && p.sc.peekAt(1) != '=' {
			return ast.ArithSub, 1, true
		}
		return 0, 0, false
	},
	func(p *Parser) (ast.ArithOp, int, bool) { // multiplicative
		if p.sc.peekAt(1) == '=' {
			return 0, 0, false
		}
		switch p.sc.peekByte() {
		case '*':
			if p.sc.peekAt(1) == '*' {
				return 0, 0, false
			}
			return ast.ArithMul, 1, true
		case '/':
			return ast.ArithQuo, 1, true
		case '%':
			return ast.ArithRem, 1, true
		}
		return 0, 0, false
	},
}

func (p *Parser) parseArithPow(stopStr string) (ast.ArithExpr, error) {
	x, err := p.parseArithPostfix(stopStr)
	if err != nil {
		return nil, err
	}
	p.skipBlanks()
	if p.sc.hasPrefix("**") {
		opPos := p.sc.pos()
		p.sc.advance()
		p.sc.advance()
		y, err := p.parseArithPow(stopStr)
		if err != nil {
			return nil, err
		}
		return &ast.ArithBinary{OpPos: opPos, Op: ast.ArithPow, X: x, Y: y}, nil
	}
	return x, nil
}

func (p *Parser) parseArithUnary(stopStr string) (ast.ArithExpr, error) {
	p.skipBlanks()
	opPos := p.sc.pos()
	switch {
	case p.sc.hasPrefix("++"):
		p.sc.advance()
		p.sc.advance()
		x, err := p.parseArithUnary(stopStr)
		if err != nil {
			return nil, err
		}
		return &ast.ArithUnary{OpPos: opPos, Op: ast.ArithInc, X: x}, nil
	case p.sc.hasPrefix("--"):
		p.sc.advance()
		p.sc.advance()
		x, err := p.parseArithUnary(stopStr)
		if err != nil {
			return nil, err
		}
		return &ast.ArithUnary{OpPos: opPos, Op: ast.ArithDec, X: x}, nil
	case p.sc.peekByte() == '!':
		p.sc.advance()
		x, err := p.parseArithUnary(stopStr)
		if err != nil {
			return nil, err
		}
		return &ast.ArithUnary{OpPos: opPos, Op: ast.ArithNot, X: x}, nil
	case p.sc.peekByte() == '~':
		p.sc.advance()
		x, err := p.parseArithUnary(stopStr)
		if err != nil {
			return nil, err
		}
		return &ast.ArithUnary{OpPos: opPos, Op: ast.ArithBitNot, X: x}, nil
	case p.sc.peekByte() == '+':
		p.sc.advance()
		x, err := p.parseArithUnary(stopStr)
		if err != nil {
			return nil, err
		}
		return &ast.ArithUnary{OpPos: opPos, Op: ast.ArithPlus, X: x}, nil
	case p.sc.peekByte() == '-':
		p.sc.advance()
		x, err := p.parseArithUnary(stopStr)
		if err != nil {
			return nil, err
		}
		return &ast.ArithUnary{OpPos: opPos, Op: ast.ArithMinus, X: x}, nil
	}
	return p.parseArithPow(stopStr)
}

func (p *Parser) parseArithPostfix(stopStr string) (ast.ArithExpr, error) {
	x, err := p.parseArithPrimary(stopStr)
	if err != nil {
		return nil, err
	}
	p.skipBlanks()
	opPos := p.sc.pos()
	if p.sc.hasPrefix("++") {
		p.sc.advance()
		p.sc.advance()
		return &ast.ArithUnary{OpPos: opPos, Op: ast.ArithInc, Post: true, X: x}, nil
	}
	if p.sc.hasPrefix("--") {
		p.sc.advance()
		p.sc.advance()
		return &ast.ArithUnary{OpPos: opPos, Op: ast.ArithDec, Post: true, X: x}, nil
	}
	return x, nil
}

func (p *Parser) parseArithPrimary(stopStr string) (ast.ArithExpr, error) {
	p.skipBlanks()
	if p.sc.peekByte() == '(' {
		lparen := p.sc.pos()
		p.sc.advance()
		x, err := p.parseArithExpr(")")
		if err != nil {
			return nil, err
		}
		p.skipBlanks()
		if p.sc.peekByte() != ')' {
			return nil, p.errf(lparen, "expected ) to close arithmetic sub-expression")
		}
		p.sc.advance()
		return &ast.ArithParen{Lparen: lparen, Rparen: p.sc.pos(), X: x}, nil
	}
	if p.sc.peekByte() == '$' {
		part, err := p.parseDollar()
		if err != nil {
			return nil, err
		}
		return &ast.ArithWord{X: ast.Word{Parts: []ast.WordPart{part}}}, nil
	}
	if isNameStart(p.sc.peekByte()) {
		pos := p.sc.pos()
		start := p.sc.off
		for !p.sc.eof() && isNameByte(p.sc.peekByte()) {
			p.sc.advance()
		}
		name := string(p.sc.src[start:p.sc.off])
		return &ast.ArithWord{X: ast.Word{Parts: []ast.WordPart{&ast.Literal{ValuePos: pos, Value: name}}}}, nil
	}
	if isDigit(p.sc.peekByte()) {
		pos := p.sc.pos()
		start := p.sc.off
		for !p.sc.eof() && (isDigit(p.sc.peekByte()) || p.sc.peekByte() == 'x' || p.sc.peekByte() == 'X' ||
			(p.sc.peekByte() >= 'a' && p.sc.peekByte() <= 'f') || (p.sc.peekByte() >= 'A' && p.sc.peekByte() <= 'F') ||
			p.sc.peekByte() == '#') {
			p.sc.advance()
		}
		num := string(p.sc.src[start:p.sc.off])
		return &ast.ArithWord{X: ast.Word{Parts: []ast.WordPart{&ast.Literal{ValuePos: pos, Value: num}}}}, nil
	}
	return nil, p.errf(p.sc.pos(), "expected an arithmetic operand")
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
