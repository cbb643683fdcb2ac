package syntax

import (
	"strconv"
	"strings"

	"github.com/chadparker/just-bash/ast"
)

// Print renders a parsed file back to shell source. It does not attempt to
// reproduce the original formatting byte-for-byte; it reproduces the
// original semantics, which is what the transform pipeline's
// parse-print-parse idempotency relies on.
func Print(f *ast.File) string {
	pr := &printer{}
	pr.stmts(f.Stmts, "")
	return pr.sb.String()
}

type printer struct {
	sb strings.Builder
}

func (p *printer) w(s string) { p.sb.WriteString(s) }

func (p *printer) stmts(stmts []*ast.Stmt, indent string) {
	for _, s := range stmts {
		p.w(indent)
		p.stmt(s, indent)
		p.w("\n")
	}
}

func (p *printer) stmt(s *ast.Stmt, indent string) {
	for _, a := range s.Assigns {
		p.assign(a)
		p.w(" ")
	}
	if s.Cmd != nil {
		p.command(s.Cmd, indent)
	}
	for _, r := range s.Redirs {
		p.w(" ")
		p.redirect(r)
	}
	if s.Background {
		p.w(" &")
	}
}

func (p *printer) assign(a *ast.Assign) {
	p.w(a.Name)
	if a.Index != nil {
		p.w("[")
		p.word(*a.Index)
		p.w("]")
	}
	if a.Append {
		p.w("+=")
	} else {
		p.w("=")
	}
	if a.Array || a.Assoc {
		p.w("(")
		for i, e := range a.Elems {
			if i > 0 {
				p.w(" ")
			}
			if e.Index != nil {
				p.w("[")
				p.word(*e.Index)
				p.w("]=")
			}
			p.word(e.Value)
		}
		p.w(")")
		return
	}
	p.word(a.Value)
}

func (p *printer) redirect(r *ast.Redirect) {
	if r.Fd != nil {
		p.w(strconv.Itoa(*r.Fd))
	}
	switch r.Op {
	case ast.RedirLess:
		p.w("<")
	case ast.RedirGreat:
		p.w(">")
	case ast.RedirAppend:
		p.w(">>")
	case ast.RedirClobber:
		p.w(">|")
	case ast.RedirReadWrite:
		p.w("<>")
	case ast.RedirDupIn:
		p.w("<&")
	case ast.RedirDupOut:
		p.w(">&")
	case ast.RedirHeredoc:
		p.w("<<")
	case ast.RedirHeredocTabs:
		p.w("<<-")
	case ast.RedirHeredocStr:
		p.w("<<<")
	case ast.RedirBoth:
		p.w("&>")
	case ast.RedirBothAppend:
		p.w("&>>")
	}
	p.word(r.Target)
}

func (p *printer) command(c ast.Command, indent string) {
	switch x := c.(type) {
	case *ast.SimpleCommand:
		for i, a := range x.Args {
			if i > 0 {
				p.w(" ")
			}
			p.word(a)
		}
	case *ast.Pipeline:
		if x.Negated {
			p.w("! ")
		}
		for i, s := range x.Stmts {
			if i > 0 {
				if x.Ops[i-1] == ast.PipeBoth {
					p.w(" |& ")
				} else {
					p.w(" | ")
				}
			}
			p.stmt(s, indent)
		}
	case *ast.AndOr:
		for i, s := range x.Stmts {
			if i > 0 {
				if x.Ops[i-1] == ast.OpAndIf {
					p.w(" && ")
				} else {
					p.w(" || ")
				}
			}
			p.stmt(s, indent)
		}
	case *ast.If:
		p.w("if ")
		p.stmtsInline(x.Cond, indent)
		p.w("; then\n")
		p.stmts(x.Then, indent+"\t")
		for _, e := range x.Elifs {
			p.w(indent + "elif ")
			p.stmtsInline(e.Cond, indent)
			p.w("; then\n")
			p.stmts(e.Then, indent+"\t")
		}
		if x.Else != nil {
			p.w(indent + "else\n")
			p.stmts(x.Else, indent+"\t")
		}
		p.w(indent + "fi")
	case *ast.While:
		kw := "while"
		if x.Until {
			kw = "until"
		}
		p.w(kw + " ")
		p.stmtsInline(x.Cond, indent)
		p.w("; do\n")
		p.stmts(x.Body, indent+"\t")
		p.w(indent + "done")
	case *ast.For:
		p.w("for ")
		if x.CStyle != nil {
			p.w("((")
			p.arith(x.CStyle.Init)
			p.w("; ")
			p.arith(x.CStyle.Cond)
			p.w("; ")
			p.arith(x.CStyle.Post)
			p.w("))")
		} else {
			p.w(x.VarName)
			if x.HasIn {
				p.w(" in ")
				for i, it := range x.Items {
					if i > 0 {
						p.w(" ")
					}
					p.word(it)
				}
			}
		}
		p.w("; do\n")
		p.stmts(x.Body, indent+"\t")
		p.w(indent + "done")
	case *ast.Case:
		p.w("case ")
		p.word(x.Word)
		p.w(" in\n")
		for _, arm := range x.Arms {
			p.w(indent + "\t")
			for i, pat := range arm.Patterns {
				if i > 0 {
					p.w("|")
				}
				p.word(pat)
			}
			p.w(")\n")
			p.stmts(arm.Body, indent+"\t\t")
			switch arm.Op {
			case ast.CaseFallThru:
				p.w(indent + "\t;&\n")
			case ast.CaseContinue:
				p.w(indent + "\t;;&\n")
			default:
				p.w(indent + "\t;;\n")
			}
		}
		p.w(indent + "esac")
	case *ast.Subshell:
		p.w("(")
		p.stmtsInline(x.Stmts, indent)
		p.w(")")
	case *ast.Group:
		p.w("{ ")
		p.stmtsInline(x.Stmts, indent)
		p.w("; }")
	case *ast.FunctionDef:
		if x.BashStyle {
			p.w("function " + x.Name + " ")
		} else {
			p.w(x.Name + "() ")
		}
		p.stmt(x.Body, indent)
	case *ast.ArithmeticCommand:
		p.w("((")
		p.arith(x.X)
		p.w("))")
	case *ast.ConditionalCommand:
		p.w("[[ ")
		p.test(x.X)
		p.w(" ]]")
	}
}

func (p *printer) stmtsInline(stmts []*ast.Stmt, indent string) {
	for i, s := range stmts {
		if i > 0 {
			p.w("; ")
		}
		p.stmt(s, indent)
	}
}

func (p *printer) word(w ast.Word) {
	for _, part := range w.Parts {
		p.wordPart(part)
	}
}

func (p *printer) wordPart(part ast.WordPart) {
	switch x := part.(type) {
	case *ast.Literal:
		p.w(x.Value)
	case *ast.SingleQuoted:
		if x.Dollar {
			p.w("$'" + escapeSingle(x.Value) + "'")
		} else {
			p.w("'" + x.Value + "'")
		}
	case *ast.DoubleQuoted:
		if x.Dollar {
			p.w(`$"`)
		} else {
			p.w(`"`)
		}
		for _, inner := range x.Parts {
			p.wordPart(inner)
		}
		p.w(`"`)
	case *ast.ParamExpansion:
		p.paramExp(x)
	case *ast.CommandSubstitution:
		if x.Backtick {
			p.w("`")
			p.stmtsInline(x.Stmts, "")
			p.w("`")
		} else {
			p.w("$(")
			p.stmtsInline(x.Stmts, "")
			p.w(")")
		}
	case *ast.ArithmeticExpansion:
		p.w("$((")
		p.arith(x.X)
		p.w("))")
	case *ast.BraceExpansion:
		p.w("{")
		if x.Sequence {
			p.w(x.From + ".." + x.To)
			if x.Step != "" {
				p.w(".." + x.Step)
			}
		} else {
			for i, e := range x.Elems {
				if i > 0 {
					p.w(",")
				}
				p.word(e)
			}
		}
		p.w("}")
	case *ast.TildeExpansion:
		p.w("~" + x.User)
	case *ast.ProcessSubstitution:
		if x.Direction == ast.ProcIn {
			p.w("<(")
		} else {
			p.w(">(")
		}
		p.stmtsInline(x.Stmts, "")
		p.w(")")
	}
}

func escapeSingle(s string) string {
	r := strings.NewReplacer("\\", `\\`, "'", `\'`, "\n", `\n`, "\t", `\t`)
	return r.Replace(s)
}

func (p *printer) paramExp(x *ast.ParamExpansion) {
	if x.Short {
		p.w("$" + x.Name)
		return
	}
	p.w("${")
	switch x.Op {
	case ast.ParamLength:
		p.w("#")
	case ast.ParamIndirect:
		p.w("!")
	}
	p.w(x.Name)
	if x.Index != nil {
		p.w("[")
		p.word(*x.Index)
		p.w("]")
	} else if x.IndexAll {
		p.w("[@]")
	} else if x.IndexStar {
		p.w("[*]")
	}
	switch x.Op {
	case ast.ParamDefault:
		p.w(":-")
		p.word(x.Arg)
	case ast.ParamAssign:
		p.w(":=")
		p.word(x.Arg)
	case ast.ParamAlt:
		p.w(":+")
		p.word(x.Arg)
	case ast.ParamError:
		p.w(":?")
		p.word(x.Arg)
	case ast.ParamSubstr:
		p.w(":")
		p.word(x.Offset)
		if x.HasLength {
			p.w(":")
			p.word(x.Length)
		}
	case ast.ParamRemPrefix:
		p.w("#")
		p.word(x.Arg)
	case ast.ParamRemPrefixLong:
		p.w("##")
		p.word(x.Arg)
	case ast.ParamRemSuffix:
		p.w("%")
		p.word(x.Arg)
	case ast.ParamRemSuffixLong:
		p.w("%%")
		p.word(x.Arg)
	case ast.ParamReplace, ast.ParamReplaceAll, ast.ParamReplaceStart, ast.ParamReplaceEnd:
		switch x.Op {
		case ast.ParamReplaceAll:
			p.w("//")
		case ast.ParamReplaceStart:
			p.w("/#")
		case ast.ParamReplaceEnd:
			p.w("/%")
		default:
			p.w("/")
		}
		p.word(x.Arg)
		if x.HasLength {
			p.w("/")
			p.word(x.Offset)
		}
	case ast.ParamCaseUpperFirst:
		p.w("^")
		p.word(x.Arg)
	case ast.ParamCaseUpperAll:
		p.w("^^")
		p.word(x.Arg)
	case ast.ParamCaseLowerFirst:
		p.w(",")
		p.word(x.Arg)
	case ast.ParamCaseLowerAll:
		p.w(",,")
		p.word(x.Arg)
	}
	p.w("}")
}

func (p *printer) arith(x ast.ArithExpr) {
	switch n := x.(type) {
	case *ast.ArithWord:
		p.word(n.X)
	case *ast.ArithBinary:
		p.arith(n.X)
		p.w(arithOpStr(n.Op))
		p.arith(n.Y)
	case *ast.ArithUnary:
		if n.Post {
			p.arith(n.X)
			p.w(arithOpStr(n.Op))
		} else {
			p.w(arithOpStr(n.Op))
			p.arith(n.X)
		}
	case *ast.ArithTernary:
		p.arith(n.Cond)
		p.w(" ? ")
		p.arith(n.Then)
		p.w(" : ")
		p.arith(n.Else)
	case *ast.ArithParen:
		p.w("(")
		p.arith(n.X)
		p.w(")")
	}
}

func arithOpStr(op ast.ArithOp) string {
	switch op {
	case ast.ArithAdd:
		return "+"
	case ast.ArithSub:
		return "-"
	case ast.ArithMul:
		return "*"
	case ast.ArithQuo:
		return "/"
	case ast.ArithRem:
		return "%"
	case ast.ArithPow:
		return "**"
	case ast.ArithAnd:
		return "&"
	case ast.ArithOr:
		return "|"
	case ast.ArithXor:
		return "^"
	case ast.ArithShl:
		return "<<"
	case ast.ArithShr:
		return ">>"
	case ast.ArithNot:
		return "!"
	case ast.ArithBitNot:
		return "~"
	case ast.ArithPlus:
		return "+"
	case ast.ArithMinus:
		return "-"
	case ast.ArithInc:
		return "++"
	case ast.ArithDec:
		return "--"
	case ast.ArithEql:
		return "=="
	case ast.ArithNeq:
		return "!="
	case ast.ArithLss:
		return "<"
	case ast.ArithGtr:
		return ">"
	case ast.ArithLeq:
		return "<="
	case ast.ArithGeq:
		return ">="
	case ast.ArithLAnd:
		return "&&"
	case ast.ArithLOr:
		return "||"
	case ast.ArithAssign:
		return "="
	case ast.ArithAddAssign:
		return "+="
	case ast.ArithSubAssign:
		return "-="
	case ast.ArithMulAssign:
		return "*="
	case ast.ArithQuoAssign:
		return "/="
	case ast.ArithRemAssign:
		return "%="
	case ast.ArithAndAssign:
		return "&="
	case ast.ArithOrAssign:
		return "|="
	case ast.ArithXorAssign:
		return "^="
	case ast.ArithShlAssign:
		return "<<="
	case ast.ArithShrAssign:
		return ">>="
	}
	return "?"
}

func (p *printer) test(x ast.TestExpr) {
	switch n := x.(type) {
	case *ast.TestWord:
		p.word(n.X)
	case *ast.TestUnary:
		if n.Op == ast.TestNot {
			p.w("! ")
			p.test(n.X)
			return
		}
		p.w(unTestOpStr(n.Op) + " ")
		p.test(n.X)
	case *ast.TestBinary:
		p.test(n.X)
		p.w(" " + binTestOpStr(n.Op) + " ")
		p.test(n.Y)
	case *ast.TestParen:
		p.w("( ")
		p.test(n.X)
		p.w(" )")
	}
}

func unTestOpStr(op ast.UnTestOp) string {
	for k, v := range unaryTestOps {
		if v == op {
			return k
		}
	}
	return "-e"
}

func binTestOpStr(op ast.BinTestOp) string {
	switch op {
	case ast.TsAndTest:
		return "&&"
	case ast.TsOrTest:
		return "||"
	case ast.TsLssLex:
		return "<"
	case ast.TsGtrLex:
		return ">"
	}
	for k, v := range binaryTestOps {
		if v == op && k != "=" {
			return k
		}
	}
	return "=="
}
