package expand

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chadparker/just-bash/ast"
)

// ArithError is returned for malformed or unsupported arithmetic, e.g.
// division by zero or an unparseable numeral.
type ArithError struct {
	Text string
}

func (e *ArithError) Error() string { return e.Text }

// Arith evaluates an arithmetic expression against env, applying any
// assignment operators to env as a side effect.
func Arith(x ast.ArithExpr, cfg *Config) (int64, error) {
	switch n := x.(type) {
	case *ast.ArithWord:
		return arithWordValue(n, cfg)
	case *ast.ArithParen:
		return Arith(n.X, cfg)
	case *ast.ArithUnary:
		return arithUnary(n, cfg)
	case *ast.ArithBinary:
		return arithBinary(n, cfg)
	case *ast.ArithTernary:
		c, err := Arith(n.Cond, cfg)
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return Arith(n.Then, cfg)
		}
		return Arith(n.Else, cfg)
	}
	return 0, &ArithError{Text: "unsupported arithmetic node"}
}

// arithWordValue resolves a bare name (variable lookup, recursively
// arithmetic-evaluated if it too holds a numeric string) or a numeral.
func arithWordValue(n *ast.ArithWord, cfg *Config) (int64, error) {
	lit, ok := n.X.Lit()
	if ok && lit != "" && isNumeralStart(lit[0]) {
		return parseNumeral(lit)
	}
	if ok && lit != "" {
		return variableArithValue(lit, cfg)
	}
	s, err := Literal(cfg, n.X)
	if err != nil {
		return 0, err
	}
	if s == "" {
		return 0, nil
	}
	if isNumeralStart(s[0]) {
		return parseNumeral(s)
	}
	return variableArithValue(s, cfg)
}

func isNumeralStart(c byte) bool { return c >= '0' && c <= '9' }

func variableArithValue(name string, cfg *Config) (int64, error) {
	vr := cfg.Env.Get(name)
	if vr.Unset || vr.Str == "" {
		return 0, nil
	}
	return parseNumeral(vr.Str)
}

func parseNumeral(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if strings.Contains(s, "#") {
		parts := strings.SplitN(s, "#", 2)
		base, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, &ArithError{Text: fmt.Sprintf("invalid base in numeral %q", s)}
		}
		n, err := strconv.ParseInt(parts[1], base, 64)
		if err != nil {
			return 0, &ArithError{Text: fmt.Sprintf("invalid numeral %q", s)}
		}
		return n, nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := strconv.ParseInt(s[2:], 16, 64)
		if err != nil {
			return 0, &ArithError{Text: fmt.Sprintf("invalid hex numeral %q", s)}
		}
		return n, nil
	}
	if len(s) > 1 && s[0] == '0' {
		n, err := strconv.ParseInt(s[1:], 8, 64)
		if err != nil {
			return 0, &ArithError{Text: fmt.Sprintf("invalid octal numeral %q", s)}
		}
		return n, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &ArithError{Text: fmt.Sprintf("invalid numeral %q", s)}
	}
	return n, nil
}

func arithUnary(n *ast.ArithUnary, cfg *Config) (int64, error) {
	switch n.Op {
	case ast.ArithInc, ast.ArithDec:
		name, ok := arithLValueName(n.X)
		if !ok {
			return 0, &ArithError{Text: "++/-- requires a variable operand"}
		}
		old, err := variableArithValue(name, cfg)
		if err != nil {
			return 0, err
		}
		delta := int64(1)
		if n.Op == ast.ArithDec {
			delta = -1
		}
		if err := setArithVar(cfg, name, old+delta); err != nil {
			return 0, err
		}
		if n.Post {
			return old, nil
		}
		return old + delta, nil
	}
	x, err := Arith(n.X, cfg)
	if err != nil {
		return 0, err
	}
	switch n.Op {
	case ast.ArithNot:
		if x == 0 {
			return 1, nil
		}
		return 0, nil
	case ast.ArithBitNot:
		return ^x, nil
	case ast.ArithPlus:
		return x, nil
	case ast.ArithMinus:
		return -x, nil
	}
	return 0, &ArithError{Text: "unsupported unary arithmetic operator"}
}

func arithLValueName(x ast.ArithExpr) (string, bool) {
	w, ok := x.(*ast.ArithWord)
	if !ok {
		return "", false
	}
	return w.X.Lit()
}

func setArithVar(cfg *Config, name string, val int64) error {
	if cfg.Env == nil {
		return &ArithError{Text: "no writable environment for arithmetic assignment"}
	}
	we, ok := cfg.Env.(WriteEnviron)
	if !ok {
		return &ArithError{Text: "environment does not support assignment"}
	}
	return we.Set(name, Variable{Str: strconv.FormatInt(val, 10)})
}

func arithBinary(n *ast.ArithBinary, cfg *Config) (int64, error) {
	if isArithAssignOp(n.Op) {
		name, ok := arithLValueName(n.X)
		if !ok {
			return 0, &ArithError{Text: "assignment requires a variable operand"}
		}
		rhs, err := Arith(n.Y, cfg)
		if err != nil {
			return 0, err
		}
		var result int64
		if n.Op == ast.ArithAssign {
			result = rhs
		} else {
			cur, err := variableArithValue(name, cfg)
			if err != nil {
				return 0, err
			}
			result, err = applyCompound(n.Op, cur, rhs)
			if err != nil {
				return 0, err
			}
		}
		if err := setArithVar(cfg, name, result); err != nil {
			return 0, err
		}
		return result, nil
	}

	if n.Op == ast.ArithLAnd {
		x, err := Arith(n.X, cfg)
		if err != nil {
			return 0, err
		}
		if x == 0 {
			return 0, nil
		}
		y, err := Arith(n.Y, cfg)
		if err != nil {
			return 0, err
		}
		return boolToInt(y != 0), nil
	}
	if n.Op == ast.ArithLOr {
		x, err := Arith(n.X, cfg)
		if err != nil {
			return 0, err
		}
		if x != 0 {
			return 1, nil
		}
		y, err := Arith(n.Y, cfg)
		if err != nil {
			return 0, err
		}
		return boolToInt(y != 0), nil
	}

	x, err := Arith(n.X, cfg)
	if err != nil {
		return 0, err
	}
	y, err := Arith(n.Y, cfg)
	if err != nil {
		return 0, err
	}
	switch n.Op {
	case ast.ArithAdd:
		return x + y, nil
	case ast.ArithSub:
		return x - y, nil
	case ast.ArithMul:
		return x * y, nil
	case ast.ArithQuo:
		if y == 0 {
			return 0, &ArithError{Text: "division by 0"}
		}
		return x / y, nil
	case ast.ArithRem:
		if y == 0 {
			return 0, &ArithError{Text: "division by 0"}
		}
		return x % y, nil
	case ast.ArithPow:
		return intPow(x, y), nil
	case ast.ArithAnd:
		return x & y, nil
	case ast.ArithOr:
		return x | y, nil
	case ast.ArithXor:
		return x ^ y, nil
	case ast.ArithShl:
		return x << uint(y), nil
	case ast.ArithShr:
		return x >> uint(y), nil
	case ast.ArithEql:
		return boolToInt(x == y), nil
	case ast.ArithNeq:
		return boolToInt(x != y), nil
	case ast.ArithLss:
		return boolToInt(x < y), nil
	case ast.ArithGtr:
		return boolToInt(x > y), nil
	case ast.ArithLeq:
		return boolToInt(x <= y), nil
	case ast.ArithGeq:
		return boolToInt(x >= y), nil
	}
	return 0, &ArithError{Text: "unsupported binary arithmetic operator"}
}

func isArithAssignOp(op ast.ArithOp) bool {
	switch op {
	case ast.ArithAssign, ast.ArithAddAssign, ast.ArithSubAssign, ast.ArithMulAssign,
		ast.ArithQuoAssign, ast.ArithRemAssign, ast.ArithAndAssign, ast.ArithOrAssign,
		ast.ArithXorAssign, ast.ArithShlAssign, ast.ArithShrAssign:
		return true
	}
	return false
}

func applyCompound(op ast.ArithOp, cur, rhs int64) (int64, error) {
	switch op {
	case ast.ArithAddAssign:
		return cur + rhs, nil
	case ast.ArithSubAssign:
		return cur - rhs, nil
	case ast.ArithMulAssign:
		return cur * rhs, nil
	case ast.ArithQuoAssign:
		if rhs == 0 {
			return 0, &ArithError{Text: "division by 0"}
		}
		return cur / rhs, nil
	case ast.ArithRemAssign:
		if rhs == 0 {
			return 0, &ArithError{Text: "division by 0"}
		}
		return cur % rhs, nil
	case ast.ArithAndAssign:
		return cur & rhs, nil
	case ast.ArithOrAssign:
		return cur | rhs, nil
	case ast.ArithXorAssign:
		return cur ^ rhs, nil
	case ast.ArithShlAssign:
		return cur << uint(rhs), nil
	case ast.ArithShrAssign:
		return cur >> uint(rhs), nil
	}
	return 0, &ArithError{Text: "unsupported compound assignment"}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func intPow(x, y int64) int64 {
	if y < 0 {
		return 0
	}
	var result int64 = 1
	for i := int64(0); i < y; i++ {
		result *= x
	}
	return result
}
