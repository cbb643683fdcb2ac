package syntax

import (
	"strings"

	"github.com/chadparker/just-bash/ast"
)

// parseParamExpBraced parses ${...}, covering the full set of parameter
// expansion operators enumerated in the data model: default, assign,
// alternative, error, substring, length, prefix/suffix trims,
// pattern-replace, case-convert, indirection, and array subscripts.
func (p *Parser) parseParamExpBraced() (*ast.ParamExpansion, error) {
	dollar := p.sc.pos()
	p.sc.advance()
	p.sc.advance() // ${

	pe := &ast.ParamExpansion{Dollar: dollar}

	if p.sc.peekByte() == '#' && p.sc.peekAt(1) != '}' && !(isNameStart(p.sc.peekAt(1)) && p.isLengthForm()) {
		// disambiguated below via isLengthForm; fallback handled there
	}
	if p.sc.peekByte() == '#' && p.isLengthForm() {
		pe.Op = ast.ParamLength
		p.sc.advance()
	} else if p.sc.peekByte() == '!' && p.isIndirectForm() {
		pe.Op = ast.ParamIndirect
		p.sc.advance()
	}

	name, err := p.readParamName()
	if err != nil {
		return nil, err
	}
	pe.Name = name

	if pe.Op == ast.ParamIndirect && (p.sc.peekByte() == '*' || p.sc.peekByte() == '@') {
		pe.Op = ast.ParamKeys
		pe.IndexAll = p.sc.peekByte() == '@'
		p.sc.advance()
	}

	if p.sc.peekByte() == '[' {
		p.sc.advance()
		switch p.sc.peekByte() {
		case '@':
			pe.IndexAll = true
			p.sc.advance()
		case '*':
			pe.IndexStar = true
			p.sc.advance()
		default:
			idx, _, err := p.parseWord(stopIndexWord)
			if err != nil {
				return nil, err
			}
			pe.Index = &idx
		}
		if p.sc.peekByte() != ']' {
			return nil, p.errf(p.sc.pos(), "expected ] to close array subscript")
		}
		p.sc.advance()
	}

	if pe.Op == ast.ParamLength || pe.Op == ast.ParamIndirect || pe.Op == ast.ParamKeys {
		if p.sc.peekByte() != '}' {
			return nil, p.errf(p.sc.pos(), "expected } to close parameter expansion")
		}
		p.sc.advance()
		pe.Rbrace = p.sc.pos()
		return pe, nil
	}

	if p.sc.peekByte() == '}' {
		p.sc.advance()
		pe.Rbrace = p.sc.pos()
		return pe, nil
	}

	if err := p.parseParamOp(pe); err != nil {
		return nil, err
	}

	if p.sc.peekByte() != '}' {
		return nil, p.errf(p.sc.pos(), "expected } to close parameter expansion")
	}
	p.sc.advance()
	pe.Rbrace = p.sc.pos()
	return pe, nil
}

func (p *Parser) isLengthForm() bool {
	// ${#name} / ${#} / ${#*} / ${#@}: a '#' immediately followed by a
	// name-start, '}', or one of the special parameters is a length
	// request, never a prefix-trim (prefix-trim requires the name first).
	c := p.sc.peekAt(1)
	return c == '}' || isNameStart(c) || (c >= '0' && c <= '9') || strings.IndexByte("@*", c) >= 0
}

func (p *Parser) isIndirectForm() bool {
	c := p.sc.peekAt(1)
	return isNameStart(c) || (c >= '0' && c <= '9')
}

func (p *Parser) readParamName() (string, error) {
	start := p.sc.off
	if isNameStart(p.sc.peekByte()) {
		for !p.sc.eof() && isNameByte(p.sc.peekByte()) {
			p.sc.advance()
		}
		return string(p.sc.src[start:p.sc.off]), nil
	}
	if p.sc.peekByte() >= '0' && p.sc.peekByte() <= '9' {
		for !p.sc.eof() && p.sc.peekByte() >= '0' && p.sc.peekByte() <= '9' {
			p.sc.advance()
		}
		return string(p.sc.src[start:p.sc.off]), nil
	}
	if strings.IndexByte("@*#?$!-", p.sc.peekByte()) >= 0 {
		c := p.sc.advance()
		return string(c), nil
	}
	return "", p.errf(p.sc.pos(), "bad substitution: expected a parameter name")
}

func stopIndexWord(p *Parser, first bool) bool {
	return p.sc.peekByte() == ']' || p.sc.peekByte() == 0
}

func stopParamArg(p *Parser, first bool) bool {
	c := p.sc.peekByte()
	return c == '}' || c == 0
}

func stopParamArgSlash(p *Parser, first bool) bool {
	c := p.sc.peekByte()
	return c == '}' || c == '/' || c == 0
}

// parseParamOp reads the operator after a name/subscript and fills in the
// operand word(s).
func (p *Parser) parseParamOp(pe *ast.ParamExpansion) error {
	c := p.sc.peekByte()
	switch c {
	case ':':
		p.sc.advance()
		switch p.sc.peekByte() {
		case '-':
			p.sc.advance()
			pe.Op = ast.ParamDefault
		case '=':
			p.sc.advance()
			pe.Op = ast.ParamAssign
		case '+':
			p.sc.advance()
			pe.Op = ast.ParamAlt
		case '?':
			p.sc.advance()
			pe.Op = ast.ParamError
		default:
			pe.Op = ast.ParamSubstr
			off, _, err := p.parseWord(stopSubstrWord)
			if err != nil {
				return err
			}
			pe.Offset = off
			if p.sc.peekByte() == ':' {
				p.sc.advance()
				length, _, err := p.parseWord(stopParamArg)
				if err != nil {
					return err
				}
				pe.Length = length
				pe.HasLength = true
			}
			return nil
		}
		arg, _, err := p.parseWord(stopParamArg)
		if err != nil {
			return err
		}
		pe.Arg = arg
		return nil
	case '-':
		p.sc.advance()
		pe.Op = ast.ParamDefault // bare ${n-x} parses as ${n:-x}, so it also substitutes when n is set but empty
		arg, _, err := p.parseWord(stopParamArg)
		if err != nil {
			return err
		}
		pe.Arg = arg
		return nil
	case '+':
		p.sc.advance()
		pe.Op = ast.ParamAlt
		arg, _, err := p.parseWord(stopParamArg)
		if err != nil {
			return err
		}
		pe.Arg = arg
		return nil
	case '?':
		p.sc.advance()
		pe.Op = ast.ParamError
		arg, _, err := p.parseWord(stopParamArg)
		if err != nil {
			return err
		}
		pe.Arg = arg
		return nil
	case '#':
		p.sc.advance()
		pe.Op = ast.ParamRemPrefix
		if p.sc.peekByte() == '#' {
			p.sc.advance()
			pe.Op = ast.ParamRemPrefixLong
		}
		arg, _, err := p.parseWord(stopParamArg)
		if err != nil {
			return err
		}
		pe.Arg = arg
		return nil
	case '%':
		p.sc.advance()
		pe.Op = ast.ParamRemSuffix
		if p.sc.peekByte() == '%' {
			p.sc.advance()
			pe.Op = ast.ParamRemSuffixLong
		}
		arg, _, err := p.parseWord(stopParamArg)
		if err != nil {
			return err
		}
		pe.Arg = arg
		return nil
	case '/':
		p.sc.advance()
		pe.Op = ast.ParamReplace
		switch p.sc.peekByte() {
		case '/':
			p.sc.advance()
			pe.Op = ast.ParamReplaceAll
		case '#':
			p.sc.advance()
			pe.Op = ast.ParamReplaceStart
		case '%':
			p.sc.advance()
			pe.Op = ast.ParamReplaceEnd
		}
		orig, _, err := p.parseWord(stopParamArgSlash)
		if err != nil {
			return err
		}
		pe.Arg = orig
		if p.sc.peekByte() == '/' {
			p.sc.advance()
			repl, _, err := p.parseWord(stopParamArg)
			if err != nil {
				return err
			}
			pe.Offset = repl // reuse Offset field to carry the replacement word
			pe.HasLength = true
		}
		return nil
	case '^':
		p.sc.advance()
		pe.Op = ast.ParamCaseUpperFirst
		if p.sc.peekByte() == '^' {
			p.sc.advance()
			pe.Op = ast.ParamCaseUpperAll
		}
		arg, _, err := p.parseWord(stopParamArg)
		if err != nil {
			return err
		}
		pe.Arg = arg
		return nil
	case ',':
		p.sc.advance()
		pe.Op = ast.ParamCaseLowerFirst
		if p.sc.peekByte() == ',' {
			p.sc.advance()
			pe.Op = ast.ParamCaseLowerAll
		}
		arg, _, err := p.parseWord(stopParamArg)
		if err != nil {
			return err
		}
		pe.Arg = arg
		return nil
	}
	return p.errf(p.sc.pos(), "bad substitution")
}

func stopSubstrWord(p *Parser, first bool) bool {
	c := p.sc.peekByte()
	return c == '}' || c == ':' || c == 0
}
