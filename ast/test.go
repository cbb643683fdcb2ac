package ast

import "github.com/chadparker/just-bash/token"

// UnTestOp enumerates the unary operators accepted inside [[ ]].
type UnTestOp int

const (
	TestNot UnTestOp = iota // !
	TsExists     // -e
	TsRegular    // -f
	TsDir        // -d
	TsCharSp     // -c
	TsBlockSp    // -b
	TsNamedPipe  // -p
	TsSocket     // -S
	TsSymlink    // -L / -h
	TsSGID       // -g
	TsSUID       // -u
	TsRead       // -r
	TsWrite      // -w
	TsExec       // -x
	TsNoEmpty    // -s, non-empty file
	TsFdTerminal // -t
	TsEmptyStr   // -z
	TsNempStr    // -n
	TsOptSet     // -o
	TsVarSet     // -v
	TsNameRef    // -R
)

// BinTestOp enumerates the binary operators accepted inside [[ ]].
type BinTestOp int

const (
	TsMatch    BinTestOp = iota // ==, =
	TsNoMatch                   // !=
	TsRegMatch                  // =~
	TsNewer                     // -nt
	TsOlder                     // -ot
	TsDevInode                  // -ef
	TsEql                       // -eq
	TsNeq                       // -ne
	TsLeq                       // -le
	TsGeq                       // -ge
	TsLss                       // -lt
	TsGtr                       // -gt
	TsAndTest                   // &&
	TsOrTest                    // ||
	TsLssLex                    // <  (lexicographic)
	TsGtrLex                    // >  (lexicographic)
)

// TestExpr is implemented by every node that can appear inside [[ ]].
type TestExpr interface {
	Node
	testExprNode()
}

func (*TestWord) testExprNode()   {}
func (*TestBinary) testExprNode() {}
func (*TestUnary) testExprNode()  {}
func (*TestParen) testExprNode()  {}

// TestWord is a leaf operand: a plain word, evaluated for truthiness as
// "non-empty" when it stands alone.
type TestWord struct {
	X Word
}

func (t *TestWord) Pos() token.Pos { return t.X.Pos() }
func (t *TestWord) End() token.Pos { return t.X.End() }

// TestBinary is a binary test, e.g. "$a" == "$b" or -f "$a".
type TestBinary struct {
	OpPos token.Pos
	Op    BinTestOp
	X, Y  TestExpr
}

func (t *TestBinary) Pos() token.Pos { return t.X.Pos() }
func (t *TestBinary) End() token.Pos { return t.Y.End() }

// TestUnary is a unary test, e.g. -f "$a" or ! expr.
type TestUnary struct {
	OpPos token.Pos
	Op    UnTestOp
	X     TestExpr
}

func (t *TestUnary) Pos() token.Pos { return t.OpPos }
func (t *TestUnary) End() token.Pos { return t.X.End() }

// TestParen is a parenthesized sub-expression.
type TestParen struct {
	Lparen, Rparen token.Pos
	X              TestExpr
}

func (t *TestParen) Pos() token.Pos { return t.Lparen }
func (t *TestParen) End() token.Pos { return t.Rparen + 1 }
