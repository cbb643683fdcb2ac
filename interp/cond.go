package interp

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/chadparker/just-bash/ast"
	"github.com/chadparker/just-bash/expand"
	"github.com/chadparker/just-bash/pattern"
	"github.com/chadparker/just-bash/vfs"
)

// evalTest evaluates a [[ ]] conditional expression, mirroring the
// operators in unaryTestOps/binaryTestOps from the parser: file tests
// against the virtual filesystem, glob and regex matching, numeric and
// lexicographic comparison, and the &&/||/! combinators.
func (st *State) evalTest(x ast.TestExpr) (bool, error) {
	cfg := st.expandConfig()
	switch n := x.(type) {
	case *ast.TestWord:
		s, err := expand.Literal(cfg, n.X)
		if err != nil {
			return false, err
		}
		return s != "", nil

	case *ast.TestParen:
		return st.evalTest(n.X)

	case *ast.TestUnary:
		if n.Op == ast.TestNot {
			v, err := st.evalTest(n.X)
			if err != nil {
				return false, err
			}
			return !v, nil
		}
		return st.evalUnaryTest(cfg, n)

	case *ast.TestBinary:
		if n.Op == ast.TsAndTest {
			l, err := st.evalTest(n.X)
			if err != nil || !l {
				return false, err
			}
			return st.evalTest(n.Y)
		}
		if n.Op == ast.TsOrTest {
			l, err := st.evalTest(n.X)
			if err != nil {
				return false, err
			}
			if l {
				return true, nil
			}
			return st.evalTest(n.Y)
		}
		return st.evalBinaryTest(cfg, n)
	}
	return false, fmt.Errorf("unsupported test expression %T", x)
}

func testOperandLiteral(cfg *expand.Config, x ast.TestExpr) (string, error) {
	tw, ok := x.(*ast.TestWord)
	if !ok {
		return "", fmt.Errorf("expected a plain operand")
	}
	return expand.Literal(cfg, tw.X)
}

func testOperandPattern(cfg *expand.Config, x ast.TestExpr) (string, error) {
	tw, ok := x.(*ast.TestWord)
	if !ok {
		return "", fmt.Errorf("expected a plain operand")
	}
	return expand.LiteralPattern(cfg, tw.X)
}

func (st *State) evalUnaryTest(cfg *expand.Config, n *ast.TestUnary) (bool, error) {
	if n.Op == ast.TsOptSet || n.Op == ast.TsVarSet {
		s, err := testOperandLiteral(cfg, n.X)
		if err != nil {
			return false, err
		}
		if n.Op == ast.TsOptSet {
			return strings.ContainsRune(st.optString(), rune(firstByte(s))), nil
		}
		return !st.Get(s).Unset, nil
	}

	s, err := testOperandLiteral(cfg, n.X)
	if err != nil {
		return false, err
	}

	switch n.Op {
	case ast.TsEmptyStr:
		return s == "", nil
	case ast.TsNempStr:
		return s != "", nil
	case ast.TsNameRef:
		return st.Get(s).NameRef, nil
	}

	path := st.ResolvePath(s)
	info, statErr := st.FS.Stat(path)
	switch n.Op {
	case ast.TsExists:
		return statErr == nil, nil
	case ast.TsRegular:
		return statErr == nil && info.Type == vfs.TypeFile, nil
	case ast.TsDir:
		return statErr == nil && info.Type == vfs.TypeDir, nil
	case ast.TsSymlink:
		linfo, err := st.FS.Lstat(path)
		return err == nil && linfo.Type == vfs.TypeSymlink, nil
	case ast.TsNoEmpty:
		return statErr == nil && info.Size > 0, nil
	case ast.TsRead, ast.TsWrite, ast.TsExec:
		return statErr == nil, nil
	case ast.TsCharSp, ast.TsBlockSp, ast.TsNamedPipe, ast.TsSocket,
		ast.TsSGID, ast.TsSUID, ast.TsFdTerminal:
		return false, nil
	}
	return false, fmt.Errorf("unsupported unary test operator")
}

func firstByte(s string) byte {
	if s == "" {
		return 0
	}
	return s[0]
}

func (st *State) evalBinaryTest(cfg *expand.Config, n *ast.TestBinary) (bool, error) {
	switch n.Op {
	case ast.TsMatch, ast.TsNoMatch:
		l, err := testOperandLiteral(cfg, n.X)
		if err != nil {
			return false, err
		}
		r, err := testOperandPattern(cfg, n.Y)
		if err != nil {
			return false, err
		}
		matched := pattern.Match(l, r)
		if n.Op == ast.TsNoMatch {
			return !matched, nil
		}
		return matched, nil

	case ast.TsRegMatch:
		l, err := testOperandLiteral(cfg, n.X)
		if err != nil {
			return false, err
		}
		r, err := testOperandLiteral(cfg, n.Y)
		if err != nil {
			return false, err
		}
		re, err := regexp.Compile(r)
		if err != nil {
			return false, fmt.Errorf("invalid regex %q: %w", r, err)
		}
		return re.MatchString(l), nil

	case ast.TsLssLex, ast.TsGtrLex:
		l, err := testOperandLiteral(cfg, n.X)
		if err != nil {
			return false, err
		}
		r, err := testOperandLiteral(cfg, n.Y)
		if err != nil {
			return false, err
		}
		if n.Op == ast.TsLssLex {
			return l < r, nil
		}
		return l > r, nil

	case ast.TsNewer, ast.TsOlder, ast.TsDevInode:
		l, err := testOperandLiteral(cfg, n.X)
		if err != nil {
			return false, err
		}
		r, err := testOperandLiteral(cfg, n.Y)
		if err != nil {
			return false, err
		}
		li, lerr := st.FS.Stat(st.ResolvePath(l))
		ri, rerr := st.FS.Stat(st.ResolvePath(r))
		if lerr != nil || rerr != nil {
			return false, nil
		}
		switch n.Op {
		case ast.TsNewer:
			return li.Mtime.After(ri.Mtime), nil
		case ast.TsOlder:
			return li.Mtime.Before(ri.Mtime), nil
		default:
			return li.Size == ri.Size, nil
		}

	case ast.TsEql, ast.TsNeq, ast.TsLeq, ast.TsGeq, ast.TsLss, ast.TsGtr:
		l, err := testOperandLiteral(cfg, n.X)
		if err != nil {
			return false, err
		}
		r, err := testOperandLiteral(cfg, n.Y)
		if err != nil {
			return false, err
		}
		li, err := parseTestInt(l)
		if err != nil {
			return false, err
		}
		ri, err := parseTestInt(r)
		if err != nil {
			return false, err
		}
		switch n.Op {
		case ast.TsEql:
			return li == ri, nil
		case ast.TsNeq:
			return li != ri, nil
		case ast.TsLeq:
			return li <= ri, nil
		case ast.TsGeq:
			return li >= ri, nil
		case ast.TsLss:
			return li < ri, nil
		case ast.TsGtr:
			return li > ri, nil
		}
	}
	return false, fmt.Errorf("unsupported binary test operator")
}

func parseTestInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: not a valid integer", s)
	}
	return n, nil
}
