package ast

// Visitor is invoked for each node encountered by Walk. If the Visitor it
// returns is non-nil, Walk recurses into the node's children with it,
// followed by a final call with a nil node.
type Visitor interface {
	Visit(node Node) Visitor
}

func walkStmts(v Visitor, stmts []*Stmt) {
	for _, s := range stmts {
		Walk(v, s)
	}
}

func walkWords(v Visitor, words []Word) {
	for i := range words {
		Walk(v, &words[i])
	}
}

// Walk traverses an AST in depth-first order.
func Walk(v Visitor, node Node) {
	if node == nil {
		return
	}
	if v = v.Visit(node); v == nil {
		return
	}
	defer v.Visit(nil)

	switch x := node.(type) {
	case *File:
		walkStmts(v, x.Stmts)
	case *Stmt:
		for _, a := range x.Assigns {
			Walk(v, a)
		}
		if x.Cmd != nil {
			Walk(v, x.Cmd)
		}
		for _, r := range x.Redirs {
			Walk(v, r)
		}
	case *Assign:
		Walk(v, &x.Value)
		if x.Index != nil {
			Walk(v, x.Index)
		}
		for _, e := range x.Elems {
			Walk(v, &e.Value)
		}
	case *Redirect:
		Walk(v, &x.Target)
	case *SimpleCommand:
		walkWords(v, x.Args)
	case *Pipeline:
		walkStmts(v, x.Stmts)
	case *AndOr:
		walkStmts(v, x.Stmts)
	case *If:
		walkStmts(v, x.Cond)
		walkStmts(v, x.Then)
		for _, e := range x.Elifs {
			walkStmts(v, e.Cond)
			walkStmts(v, e.Then)
		}
		walkStmts(v, x.Else)
	case *While:
		walkStmts(v, x.Cond)
		walkStmts(v, x.Body)
	case *For:
		walkWords(v, x.Items)
		walkStmts(v, x.Body)
	case *Case:
		Walk(v, &x.Word)
		for _, arm := range x.Arms {
			walkWords(v, arm.Patterns)
			walkStmts(v, arm.Body)
		}
	case *Subshell:
		walkStmts(v, x.Stmts)
	case *Group:
		walkStmts(v, x.Stmts)
	case *FunctionDef:
		Walk(v, x.Body)
	case *ArithmeticCommand:
	case *ConditionalCommand:
	case *Word:
		for _, p := range x.Parts {
			Walk(v, p)
		}
	case *DoubleQuoted:
		for _, p := range x.Parts {
			Walk(v, p)
		}
	case *CommandSubstitution:
		walkStmts(v, x.Stmts)
	case *ProcessSubstitution:
		walkStmts(v, x.Stmts)
	case *ParamExpansion:
		if x.Index != nil {
			Walk(v, x.Index)
		}
		Walk(v, &x.Arg)
	case *BraceExpansion:
		for i := range x.Elems {
			Walk(v, &x.Elems[i])
		}
	case *Literal, *SingleQuoted, *TildeExpansion,
		*ArithmeticExpansion, *ArithWord, *ArithBinary, *ArithUnary,
		*ArithTernary, *ArithParen, *TestWord, *TestBinary, *TestUnary,
		*TestParen:
		// leaves for our purposes: callers needing arithmetic/test
		// sub-structure walk those trees directly.
	}
}

// Inspect calls f on each node in depth-first order; if f returns false,
// Inspect skips the node's children.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if node == nil {
		return nil
	}
	if f(node) {
		return f
	}
	return nil
}
