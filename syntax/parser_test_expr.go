package syntax

import "github.com/chadparker/just-bash/ast"

// stopTestWord ends a word inside [[ ]] at blanks, the closing ]], a
// parenthesis, or a && / || combinator — but not at a single & or |, which
// can appear unquoted as ordinary characters there.
func stopTestWord(p *Parser, first bool) bool {
	if isBlank(p.sc.peekByte()) || p.sc.peekByte() == 0 {
		return true
	}
	if p.sc.hasPrefix("]]") {
		return true
	}
	if p.sc.peekByte() == '(' || p.sc.peekByte() == ')' {
		return true
	}
	if p.sc.hasPrefix("&&") || p.sc.hasPrefix("||") {
		return true
	}
	return false
}

// parseTestExpr parses the expression inside [[ ]].
func (p *Parser) parseTestExpr() (ast.TestExpr, error) {
	return p.parseTestOr()
}

func (p *Parser) parseTestOr() (ast.TestExpr, error) {
	x, err := p.parseTestAnd()
	if err != nil {
		return nil, err
	}
	for {
		p.skipBlanks()
		if !p.sc.hasPrefix("||") {
			return x, nil
		}
		opPos := p.sc.pos()
		p.sc.advance()
		p.sc.advance()
		p.skipBlanksNewlinesComments()
		y, err := p.parseTestAnd()
		if err != nil {
			return nil, err
		}
		x = &ast.TestBinary{OpPos: opPos, Op: ast.TsOrTest, X: x, Y: y}
	}
}

func (p *Parser) parseTestAnd() (ast.TestExpr, error) {
	x, err := p.parseTestPrimary()
	if err != nil {
		return nil, err
	}
	for {
		p.skipBlanks()
		if !p.sc.hasPrefix("&&") {
			return x, nil
		}
		opPos := p.sc.pos()
		p.sc.advance()
		p.sc.advance()
		p.skipBlanksNewlinesComments()
		y, err := p.parseTestPrimary()
		if err != nil {
			return nil, err
		}
		x = &ast.TestBinary{OpPos: opPos, Op: ast.TsAndTest, X: x, Y: y}
	}
}

var unaryTestOps = map[string]ast.UnTestOp{
	"-e": ast.TsExists, "-f": ast.TsRegular, "-d": ast.TsDir, "-c": ast.TsCharSp,
	"-b": ast.TsBlockSp, "-p": ast.TsNamedPipe, "-S": ast.TsSocket,
	"-L": ast.TsSymlink, "-h": ast.TsSymlink, "-g": ast.TsSGID, "-u": ast.TsSUID,
	"-r": ast.TsRead, "-w": ast.TsWrite, "-x": ast.TsExec, "-s": ast.TsNoEmpty,
	"-t": ast.TsFdTerminal, "-z": ast.TsEmptyStr, "-n": ast.TsNempStr,
	"-o": ast.TsOptSet, "-v": ast.TsVarSet, "-R": ast.TsNameRef,
}

var binaryTestOps = map[string]ast.BinTestOp{
	"==": ast.TsMatch, "=": ast.TsMatch, "!=": ast.TsNoMatch, "=~": ast.TsRegMatch,
	"-nt": ast.TsNewer, "-ot": ast.TsOlder, "-ef": ast.TsDevInode,
	"-eq": ast.TsEql, "-ne": ast.TsNeq, "-le": ast.TsLeq, "-ge": ast.TsGeq,
	"-lt": ast.TsLss, "-gt": ast.TsGtr,
}

func (p *Parser) parseTestPrimary() (ast.TestExpr, error) {
	p.skipBlanks()
	if p.atReservedWord("!") {
		opPos := p.sc.pos()
		p.sc.advance()
		p.skipBlanksNewlinesComments()
		x, err := p.parseTestPrimary()
		if err != nil {
			return nil, err
		}
		return &ast.TestUnary{OpPos: opPos, Op: ast.TestNot, X: x}, nil
	}
	if p.sc.peekByte() == '(' {
		lparen := p.sc.pos()
		p.sc.advance()
		p.skipBlanksNewlinesComments()
		x, err := p.parseTestOr()
		if err != nil {
			return nil, err
		}
		p.skipBlanksNewlinesComments()
		if p.sc.peekByte() != ')' {
			return nil, p.errf(lparen, "expected ) to close ( in [[ ]]")
		}
		p.sc.advance()
		return &ast.TestParen{Lparen: lparen, Rparen: p.sc.pos(), X: x}, nil
	}
	if op, ok := p.matchUnaryOp(); ok {
		opPos := p.sc.pos()
		p.sc.advance()
		p.sc.advance()
		p.skipBlanks()
		operand, ok, err := p.parseWord(stopTestWord)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, p.errf(p.sc.pos(), "expected an operand after a unary test operator")
		}
		return &ast.TestUnary{OpPos: opPos, Op: op, X: &ast.TestWord{X: operand}}, nil
	}

	left, ok, err := p.parseWord(stopTestWord)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, p.errf(p.sc.pos(), "expected a test operand")
	}
	p.skipBlanks()
	if binOp, length, lexico, ok := p.matchBinaryOp(); ok {
		opPos := p.sc.pos()
		for i := 0; i < length; i++ {
			p.sc.advance()
		}
		p.skipBlanks()
		right, ok, err := p.parseWord(stopTestWord)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, p.errf(p.sc.pos(), "expected an operand after a test operator")
		}
		_ = lexico
		return &ast.TestBinary{OpPos: opPos, Op: binOp, X: &ast.TestWord{X: left}, Y: &ast.TestWord{X: right}}, nil
	}
	if p.sc.peekByte() == '<' {
		opPos := p.sc.pos()
		p.sc.advance()
		p.skipBlanks()
		right, _, err := p.parseWord(stopTestWord)
		if err != nil {
			return nil, err
		}
		return &ast.TestBinary{OpPos: opPos, Op: ast.TsLssLex, X: &ast.TestWord{X: left}, Y: &ast.TestWord{X: right}}, nil
	}
	if p.sc.peekByte() == '>' {
		opPos := p.sc.pos()
		p.sc.advance()
		p.skipBlanks()
		right, _, err := p.parseWord(stopTestWord)
		if err != nil {
			return nil, err
		}
		return &ast.TestBinary{OpPos: opPos, Op: ast.TsGtrLex, X: &ast.TestWord{X: left}, Y: &ast.TestWord{X: right}}, nil
	}
	return &ast.TestWord{X: left}, nil
}

// matchUnaryOp recognizes "-x" forms only when followed by a word boundary,
// so a literal word starting with '-' (e.g. a flag argument) isn't misread.
func (p *Parser) matchUnaryOp() (ast.UnTestOp, bool) {
	if p.sc.peekByte() != '-' {
		return 0, false
	}
	key := string([]byte{p.sc.peekByte(), p.sc.peekAt(1)})
	op, ok := unaryTestOps[key]
	if !ok {
		return 0, false
	}
	if !isBlank(p.sc.peekAt(2)) && p.sc.peekAt(2) != 0 {
		return 0, false
	}
	return op, true
}

func (p *Parser) matchBinaryOp() (ast.BinTestOp, int, bool, bool) {
	three := string([]byte{p.sc.peekByte(), p.sc.peekAt(1), p.sc.peekAt(2)})
	if op, ok := binaryTestOps[three]; ok {
		return op, 3, false, true
	}
	two := string([]byte{p.sc.peekByte(), p.sc.peekAt(1)})
	if op, ok := binaryTestOps[two]; ok {
		return op, 2, false, true
	}
	if p.sc.peekByte() == '=' && isBlank(p.sc.peekAt(1)) {
		return ast.TsMatch, 1, false, true
	}
	return 0, 0, false, false
}
