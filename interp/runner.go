package interp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/chadparker/just-bash/ast"
	"github.com/chadparker/just-bash/expand"
	"github.com/chadparker/just-bash/pattern"
	"github.com/chadparker/just-bash/syntax"
)

// ExecFile runs every top-level statement of f against st, returning the
// exit code of the last command executed, mirroring a script's $?. A
// cancelled or expired ctx abandons the current pipeline and reports 130,
// the same surrogate bash uses for a signal-interrupted script.
func ExecFile(ctx context.Context, f *ast.File, st *State) (int, error) {
	err := st.ExecStmts(ctx, f.Stmts)
	if ctx.Err() != nil {
		return 130, err
	}
	if st.Trap.Exit != nil {
		st.ExecStmt(context.Background(), st.Trap.Exit)
	}
	if st.exiting {
		return st.exitCode, err
	}
	return st.LastStatus, err
}

// ExecStmts runs a statement list in order, stopping early on break,
// continue, return, exit, or (with `set -e`) a nonzero status.
func (st *State) ExecStmts(ctx context.Context, stmts []*ast.Stmt) error {
	for _, s := range stmts {
		if err := st.ExecStmt(ctx, s); err != nil {
			return err
		}
		if st.breakLevel > 0 || st.continueLevel > 0 || st.returning || st.exiting {
			return nil
		}
		if st.Opts.ErrExit && st.LastStatus != 0 {
			st.exiting = true
			st.exitCode = st.LastStatus
			return nil
		}
	}
	return nil
}

// ExecStmt runs one statement: its redirections, its leading assignments
// (scoped to this command only, per VAR=val cmd semantics), and its
// command. Background execution runs synchronously, since there is no OS
// process to detach — commands are in-process Go functions.
func (st *State) ExecStmt(ctx context.Context, s *ast.Stmt) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if len(s.Assigns) > 0 && s.Cmd == nil {
		cfg := st.expandConfig()
		for _, a := range s.Assigns {
			if err := st.applyAssign(cfg, a, false); err != nil {
				return err
			}
		}
		st.LastStatus = 0
		return nil
	}
	if s.Cmd == nil {
		return nil
	}

	cfg := st.expandConfig()
	if len(s.Redirs) > 0 {
		restore, err := st.applyRedirs(s.Redirs, cfg)
		if err != nil {
			fmt.Fprintln(st.Stderr, err)
			st.LastStatus = 1
			return nil
		}
		defer restore()
	}

	if len(s.Assigns) > 0 {
		st.pushScope()
		defer st.popScope()
		for _, a := range s.Assigns {
			if err := st.applyAssign(cfg, a, true); err != nil {
				return err
			}
		}
	}

	return st.execCommand(ctx, s.Cmd)
}

func (st *State) execCommand(ctx context.Context, cmd ast.Command) error {
	switch c := cmd.(type) {
	case *ast.SimpleCommand:
		return st.execSimpleCommand(ctx, c)
	case *ast.Pipeline:
		return st.execPipeline(ctx, c)
	case *ast.AndOr:
		return st.execAndOr(ctx, c)
	case *ast.If:
		return st.execIf(ctx, c)
	case *ast.While:
		return st.execWhile(ctx, c)
	case *ast.For:
		return st.execFor(ctx, c)
	case *ast.Case:
		return st.execCase(ctx, c)
	case *ast.Subshell:
		return st.execSubshell(ctx, c)
	case *ast.Group:
		return st.execGroup(ctx, c)
	case *ast.FunctionDef:
		st.Functions[c.Name] = c
		st.LastStatus = 0
		return nil
	case *ast.ArithmeticCommand:
		cfg := st.expandConfig()
		n, err := expand.Arith(c.X, cfg)
		if err != nil {
			fmt.Fprintln(st.Stderr, err)
			st.LastStatus = 1
			return nil
		}
		st.LastStatus = boolStatus(n != 0)
		return nil
	case *ast.ConditionalCommand:
		ok, err := st.evalTest(c.X)
		if err != nil {
			fmt.Fprintln(st.Stderr, err)
			st.LastStatus = 2
			return nil
		}
		st.LastStatus = boolStatus(ok)
		return nil
	}
	return fmt.Errorf("unsupported command node %T", cmd)
}

func boolStatus(b bool) int {
	if b {
		return 0
	}
	return 1
}

func (st *State) execAndOr(ctx context.Context, a *ast.AndOr) error {
	if err := st.ExecStmt(ctx, a.Stmts[0]); err != nil {
		return err
	}
	for i, op := range a.Ops {
		if st.breakLevel > 0 || st.continueLevel > 0 || st.returning || st.exiting {
			return nil
		}
		if op == ast.OpAndIf && st.LastStatus != 0 {
			continue
		}
		if op == ast.OpOrIf && st.LastStatus == 0 {
			continue
		}
		if err := st.ExecStmt(ctx, a.Stmts[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// execCondList runs a statement list used as an if/while/until guard. It
// behaves like ExecStmts except it never triggers errexit: a guard's
// nonzero status is the normal, expected way to choose a branch or end a
// loop, not a script failure (spec: errexit is suppressed in condition
// contexts).
func (st *State) execCondList(ctx context.Context, stmts []*ast.Stmt) error {
	for _, s := range stmts {
		if err := st.ExecStmt(ctx, s); err != nil {
			return err
		}
		if st.breakLevel > 0 || st.continueLevel > 0 || st.returning || st.exiting {
			return nil
		}
	}
	return nil
}

func (st *State) execIf(ctx context.Context, n *ast.If) error {
	if err := st.execCondList(ctx, n.Cond); err != nil {
		return err
	}
	if st.LastStatus == 0 {
		return st.ExecStmts(ctx, n.Then)
	}
	for _, e := range n.Elifs {
		if err := st.execCondList(ctx, e.Cond); err != nil {
			return err
		}
		if st.LastStatus == 0 {
			return st.ExecStmts(ctx, e.Then)
		}
	}
	if n.Else != nil {
		return st.ExecStmts(ctx, n.Else)
	}
	st.LastStatus = 0
	return nil
}

func (st *State) execWhile(ctx context.Context, n *ast.While) error {
	for {
		if err := st.execCondList(ctx, n.Cond); err != nil {
			return err
		}
		cond := st.LastStatus == 0
		if n.Until {
			cond = !cond
		}
		if !cond {
			break
		}
		if err := st.ExecStmts(ctx, n.Body); err != nil {
			return err
		}
		if st.handleLoopSignal() {
			break
		}
	}
	if !st.exiting && !st.returning {
		st.LastStatus = 0
	}
	return nil
}

// handleLoopSignal consumes one level of break/continue targeted at the
// loop currently unwinding; it reports whether the loop should stop.
func (st *State) handleLoopSignal() bool {
	if st.exiting || st.returning {
		return true
	}
	if st.breakLevel > 0 {
		st.breakLevel--
		return true
	}
	if st.continueLevel > 0 {
		st.continueLevel--
		return st.continueLevel > 0
	}
	return false
}

func (st *State) execFor(ctx context.Context, n *ast.For) error {
	cfg := st.expandConfig()
	if n.CStyle != nil {
		if _, err := expand.Arith(n.CStyle.Init, cfg); err != nil {
			return err
		}
		ran := false
		for {
			cond, err := expand.Arith(n.CStyle.Cond, cfg)
			if err != nil {
				return err
			}
			if cond == 0 {
				break
			}
			ran = true
			if err := st.ExecStmts(ctx, n.Body); err != nil {
				return err
			}
			if st.handleLoopSignal() {
				break
			}
			if _, err := expand.Arith(n.CStyle.Post, cfg); err != nil {
				return err
			}
		}
		// the loop's status is the last body command's status; only a
		// zero-iteration run reports success, matching execWhile.
		if !ran && !st.exiting && !st.returning {
			st.LastStatus = 0
		}
		return nil
	}

	var items []string
	if n.HasIn {
		vs, err := expand.Fields(cfg, n.Items)
		if err != nil {
			return err
		}
		items = vs
	} else {
		items = st.Positional
	}
	ran := false
	for _, it := range items {
		ran = true
		st.Set(n.VarName, expand.Variable{Str: it})
		if err := st.ExecStmts(ctx, n.Body); err != nil {
			return err
		}
		if st.handleLoopSignal() {
			break
		}
	}
	if !ran && !st.exiting && !st.returning {
		st.LastStatus = 0
	}
	return nil
}

func (st *State) execCase(ctx context.Context, n *ast.Case) error {
	cfg := st.expandConfig()
	subject, err := expand.Literal(cfg, n.Word)
	if err != nil {
		return err
	}
	st.LastStatus = 0
	forceNext := false // ;& : run the next arm's body without matching its patterns
	for i := 0; i < len(n.Arms); i++ {
		arm := n.Arms[i]
		matched := forceNext
		forceNext = false
		if !matched {
			for _, patWord := range arm.Patterns {
				pat, err := expand.LiteralPattern(cfg, patWord)
				if err != nil {
					return err
				}
				if pattern.Match(subject, pat) {
					matched = true
					break
				}
			}
		}
		if !matched {
			continue
		}
		if err := st.ExecStmts(ctx, arm.Body); err != nil {
			return err
		}
		if st.breakLevel > 0 || st.continueLevel > 0 || st.returning || st.exiting {
			return nil
		}
		switch arm.Op {
		case ast.CaseFallThru:
			forceNext = true
			continue
		case ast.CaseContinue:
			continue
		}
		break
	}
	return nil
}

func (st *State) execSubshell(ctx context.Context, n *ast.Subshell) error {
	sub := st.Clone()
	err := sub.ExecStmts(ctx, n.Stmts)
	st.LastStatus = sub.LastStatus
	if sub.exiting {
		st.exiting = true
		st.exitCode = sub.exitCode
	}
	return err
}

func (st *State) execGroup(ctx context.Context, n *ast.Group) error {
	return st.ExecStmts(ctx, n.Stmts)
}

// execSimpleCommand expands the command name and arguments and dispatches
// to a function, builtin, or registry entry. Leading assignments and
// redirections were already applied by ExecStmt before this runs.
func (st *State) execSimpleCommand(ctx context.Context, c *ast.SimpleCommand) error {
	cfg := st.expandConfig()
	args, err := expand.Fields(cfg, c.Args)
	if err != nil {
		fmt.Fprintln(st.Stderr, err)
		st.LastStatus = 1
		return nil
	}
	if len(args) == 0 {
		st.LastStatus = 0
		return nil
	}
	name := args[0]

	if fn, ok := st.Functions[name]; ok {
		return st.callFunction(ctx, fn, args[1:])
	}

	if bi, ok := builtins[name]; ok {
		code, err := bi(ctx, args[1:], st)
		st.LastStatus = code
		return err
	}

	if st.Commands != nil {
		if handler, ok := st.Commands.Lookup(name); ok {
			code, err := handler(ctx, args[1:], st)
			st.LastStatus = code
			return err
		}
	}

	fmt.Fprintf(st.Stderr, "%s: command not found\n", name)
	st.LastStatus = 127
	return nil
}

func (st *State) callFunction(ctx context.Context, fn *ast.FunctionDef, args []string) error {
	savedPositional := st.Positional
	st.Positional = args
	st.pushScope()
	defer func() {
		st.popScope()
		st.Positional = savedPositional
	}()
	err := st.ExecStmt(ctx, fn.Body)
	if st.returning {
		st.returning = false
		st.LastStatus = st.returnCode
	}
	return err
}

// expandConfig builds an *expand.Config bound to this State's current
// scope, wiring command substitution, process substitution, and globbing
// back into the executor.
func (st *State) expandConfig() *expand.Config {
	cfg := &expand.Config{
		Env:      st.Environ(),
		Params:   st.Positional,
		Special:  st.specialParams(),
		NoGlob:   st.Opts.NoGlob,
		NullGlob: st.Opts.NullGlob,
		NoUnset:  st.Opts.NoUnset,
	}
	cfg.CmdSubst = func(stmts []*ast.Stmt) (string, error) {
		return st.runCaptured(stmts)
	}
	cfg.ProcSubst = func(dir ast.ProcDir, stmts []*ast.Stmt) (string, error) {
		out, err := st.runCaptured(stmts)
		if err != nil {
			return "", err
		}
		path := fmt.Sprintf("/proc/fd/%d", st.nextRand())
		if err := st.FS.WriteFile(path, []byte(out)); err != nil {
			return "", err
		}
		return path, nil
	}
	cfg.Glob = func(pat string) ([]string, error) {
		return st.globPattern(pat)
	}
	cfg.ExpandTilde = func(user string) (string, bool) {
		if user != "" {
			return "", false
		}
		if v := st.Get("HOME"); !v.Unset {
			return v.Str, true
		}
		return "/root", true
	}
	return cfg
}

// RunSub parses and runs src to completion in a snapshot of st — the
// "exec" callback the registry hands to commands like xargs that need to
// recursively invoke the shell with an inherited environment. Output goes
// to st's own stdout/stderr rather than being captured, unlike
// command substitution.
func (st *State) RunSub(ctx context.Context, src string) (int, error) {
	f, err := syntax.Parse([]byte(src), "exec")
	if err != nil {
		fmt.Fprintln(st.Stderr, err)
		return 2, nil
	}
	sub := st.Clone()
	code, err := ExecFile(ctx, f, sub)
	return code, err
}

// evalSource parses src as a script and runs it in the current scope, for
// the eval and source/. builtins; unlike command substitution it executes
// in place rather than in a snapshot, so assignments and function
// definitions are visible to the caller afterward.
func (st *State) evalSource(ctx context.Context, src string) (int, error) {
	f, err := syntax.Parse([]byte(src), "eval")
	if err != nil {
		fmt.Fprintln(st.Stderr, err)
		return 2, nil
	}
	if err := st.ExecStmts(ctx, f.Stmts); err != nil {
		return st.LastStatus, err
	}
	return st.LastStatus, nil
}

// runCaptured executes stmts in a snapshot state with stdout captured to a
// string, used for $(...) and <(...).
func (st *State) runCaptured(stmts []*ast.Stmt) (string, error) {
	sub := st.Clone()
	var buf strings.Builder
	sub.Stdout = &buf
	if err := sub.ExecStmts(context.Background(), stmts); err != nil {
		return buf.String(), err
	}
	st.LastStatus = sub.LastStatus
	return buf.String(), nil
}

// globPattern resolves a possibly-relative glob pattern against the
// virtual filesystem, returning matches sorted for determinism.
func (st *State) globPattern(pat string) ([]string, error) {
	dir := st.Cwd
	rel := pat
	if strings.Contains(pat, "/") {
		idx := strings.LastIndex(pat, "/")
		prefix := pat[:idx]
		if prefix == "" {
			dir = "/"
		} else if strings.HasPrefix(prefix, "/") {
			dir = prefix
		} else {
			dir = st.ResolvePath(prefix)
		}
		rel = pat[idx+1:]
	}
	entries, err := st.FS.ReadDir(dir)
	if err != nil {
		return nil, nil
	}
	var out []string
	for _, e := range entries {
		if pattern.Match(e.Name, rel) {
			if dir == "/" {
				out = append(out, "/"+e.Name)
			} else if dir == st.Cwd {
				out = append(out, e.Name)
			} else {
				out = append(out, dir+"/"+e.Name)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// applyAssign performs one NAME=value / NAME=(...) assignment. When local
// is true (a leading VAR=val on a simple command) it targets the
// temporary scope ExecStmt pushed for the duration of that command rather
// than wherever NAME already lives.
func (st *State) applyAssign(cfg *expand.Config, a *ast.Assign, local bool) error {
	set := st.Set
	if local {
		set = st.SetLocal
	}
	if a.Array || a.Assoc {
		vr := expand.Variable{Kind: expand.KindIndexArray}
		if a.Assoc {
			vr.Kind = expand.KindAssocArray
			vr.Map = map[string]string{}
		}
		for _, e := range a.Elems {
			val, err := expand.Literal(cfg, e.Value)
			if err != nil {
				return err
			}
			if e.Index != nil {
				key, err := expand.Literal(cfg, *e.Index)
				if err != nil {
					return err
				}
				if vr.Kind == expand.KindAssocArray {
					vr.Map[key] = val
				} else {
					vr.List = append(vr.List, val)
				}
				continue
			}
			vr.List = append(vr.List, val)
		}
		return set(a.Name, vr)
	}
	val, err := expand.Literal(cfg, a.Value)
	if err != nil {
		return err
	}
	if a.Append {
		cur := st.Get(a.Name)
		val = cur.Str + val
	}
	return set(a.Name, expand.Variable{Str: val})
}
