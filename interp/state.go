// Package interp executes a parsed ast.File against a virtual filesystem
// and an in-process command registry: the executor component of the data
// model. It owns variable scoping, pipeline orchestration, redirections,
// and the built-in commands that can't be expressed as ordinary registry
// entries (cd, export, trap, and friends mutate execution state directly).
package interp

import (
	"context"
	"fmt"
	"io"
	mathrand "math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/chadparker/just-bash/ast"
	"github.com/chadparker/just-bash/expand"
	"github.com/chadparker/just-bash/vfs"
)

// CommandFunc is the shape every registry entry and builtin implements:
// read args and the current State, write to Stdout/Stderr, return the exit
// code bash would report via $?.
type CommandFunc func(ctx context.Context, args []string, st *State) (int, error)

// Commands resolves external command names to handlers; the registry
// package is the concrete implementation wired in by the shell package.
type Commands interface {
	Lookup(name string) (CommandFunc, bool)
}

// Options holds the subset of `set`/`shopt` flags that change executor
// behavior.
type Options struct {
	ErrExit     bool // set -e
	NoUnset     bool // set -u
	PipeFail    bool // set -o pipefail
	Verbose     bool // set -v
	XTrace      bool // set -x
	NoGlob      bool // set -f
	NullGlob    bool // shopt -s nullglob
	ExtGlob     bool // shopt -s extglob (parsed but not yet matched specially)
}

// Trap holds a registered EXIT handler; other signals are accepted by
// `trap` but only EXIT is actually invoked, since a sandboxed in-process
// shell never receives real signals.
type Trap struct {
	Exit *ast.Stmt
}

// scope is one level of variable/function visibility, pushed on function
// call entry (for `local`) and popped on return.
type scope struct {
	vars *expand.MapEnviron
}

// State is the complete mutable execution context threaded through a run:
// one State per subshell/command-substitution snapshot, since those never
// let mutations escape to the parent.
type State struct {
	FS  vfs.FS
	Cwd string

	scopes []*scope // scopes[0] is global; last is innermost local scope

	Functions map[string]*ast.FunctionDef
	Aliases   map[string]string

	Positional []string
	ScriptName string
	Pid        int // surrogate for $$; defaults to 1 if never set

	LastStatus int
	PipeStatus []int

	Opts Options
	Trap Trap

	Commands Commands

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Rand and Clock back $RANDOM and $SECONDS respectively; both are
	// overridable (via the shell package's Options) so a caller can get
	// deterministic values out of a script under test.
	Rand  *mathrand.Rand
	Clock func() time.Time

	// control-flow signals set by break/continue/return/exit, kept as plain
	// fields that ExecStmts and the loop runners check after each statement
	breakLevel    int
	continueLevel int
	returning     bool
	returnCode    int
	exiting       bool
	exitCode      int

	rngState    uint64
	secondsBase time.Time
}

// NewState builds a fresh top-level execution state over fs rooted at cwd.
func NewState(fs vfs.FS, cwd string, cmds Commands, stdout, stderr io.Writer) *State {
	st := &State{
		FS:        fs,
		Cwd:       cwd,
		scopes:    []*scope{{vars: expand.NewMapEnviron()}},
		Functions: map[string]*ast.FunctionDef{},
		Aliases:   map[string]string{},
		Commands:  cmds,
		Stdout:    stdout,
		Stderr:    stderr,
		Stdin:     strings.NewReader(""),
		Pid:       1,
		Rand:      mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
		Clock:     time.Now,
		rngState:  0x2545F4914F6CDD1D,
	}
	st.secondsBase = st.Clock()
	return st
}

// SetPid overrides the $$ surrogate; callers that need a configured PID
// (e.g. the shell package's Options.Pid) call this right after NewState.
func (st *State) SetPid(pid int) { st.Pid = pid }

// SetClock overrides the live clock backing $SECONDS. NewState already
// stamped secondsBase from the default wall clock, so a later override has
// to rebase it too, or $SECONDS would measure time against a clock it was
// never actually ticking on.
func (st *State) SetClock(clock func() time.Time) {
	st.Clock = clock
	st.secondsBase = clock()
}

// Clone returns a snapshot State for a subshell or command substitution:
// variable and function mutations inside it never propagate back, matching
// the concurrency/resource model's subshell semantics.
func (st *State) Clone() *State {
	cp := &State{
		FS:          st.FS,
		Cwd:         st.Cwd,
		Functions:   cloneFuncs(st.Functions),
		Aliases:     cloneStrMap(st.Aliases),
		Positional:  append([]string{}, st.Positional...),
		ScriptName:  st.ScriptName,
		Pid:         st.Pid,
		LastStatus:  st.LastStatus,
		Opts:        st.Opts,
		Trap:        st.Trap,
		Commands:    st.Commands,
		Stdin:       st.Stdin,
		Stdout:      st.Stdout,
		Stderr:      st.Stderr,
		Rand:        st.Rand,
		Clock:       st.Clock,
		rngState:    st.rngState,
		secondsBase: st.secondsBase,
	}
	for _, sc := range st.scopes {
		cp.scopes = append(cp.scopes, &scope{vars: sc.vars.Clone()})
	}
	return cp
}

func cloneFuncs(m map[string]*ast.FunctionDef) map[string]*ast.FunctionDef {
	cp := make(map[string]*ast.FunctionDef, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

func cloneStrMap(m map[string]string) map[string]string {
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// pushScope enters a new local scope for a function call.
func (st *State) pushScope() {
	st.scopes = append(st.scopes, &scope{vars: expand.NewMapEnviron()})
}

func (st *State) popScope() {
	st.scopes = st.scopes[:len(st.scopes)-1]
}

// Get resolves a variable by walking from the innermost scope outward.
// PIPESTATUS, RANDOM, and SECONDS are synthesized on read from live
// interpreter state rather than stored as ordinary scope bindings.
func (st *State) Get(name string) expand.Variable {
	switch name {
	case "PIPESTATUS":
		list := make([]string, len(st.PipeStatus))
		for i, code := range st.PipeStatus {
			list[i] = strconv.Itoa(code)
		}
		return expand.Variable{Kind: expand.KindIndexArray, List: list}
	case "RANDOM":
		return expand.Variable{Str: strconv.Itoa(st.Rand.Intn(32768))}
	case "SECONDS":
		elapsed := int64(st.Clock().Sub(st.secondsBase).Seconds())
		return expand.Variable{Str: strconv.FormatInt(elapsed, 10)}
	}
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if v, ok := st.scopes[i].vars.Lookup(name); ok {
			return v
		}
	}
	return expand.Variable{Unset: true}
}

// Set assigns into the innermost scope that already declares name, or the
// global scope if no scope declares it (ordinary bash scoping: assignment
// without `local` always reaches the global unless a local shadows it).
// Assigning SECONDS rebases the live elapsed-time clock instead of storing
// an ordinary binding, the way bash lets `SECONDS=0` reset its counter.
func (st *State) Set(name string, v expand.Variable) error {
	if name == "SECONDS" {
		n, err := strconv.ParseInt(v.Str, 10, 64)
		if err != nil {
			n = 0
		}
		st.secondsBase = st.Clock().Add(-time.Duration(n) * time.Second)
		return nil
	}
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if _, ok := st.scopes[i].vars.Lookup(name); ok {
			return st.scopes[i].vars.Set(name, v)
		}
	}
	return st.scopes[0].vars.Set(name, v)
}

// SetLocal declares name in the innermost (current function) scope.
func (st *State) SetLocal(name string, v expand.Variable) error {
	return st.scopes[len(st.scopes)-1].vars.Set(name, v)
}

func (st *State) Unset(name string) {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if _, ok := st.scopes[i].vars.Lookup(name); ok {
			st.scopes[i].vars.Delete(name)
			return
		}
	}
}

// Each walks every visible variable, innermost scope's bindings winning
// over outer ones of the same name.
func (st *State) Each(f func(name string, v expand.Variable) bool) {
	seen := map[string]bool{}
	for i := len(st.scopes) - 1; i >= 0; i-- {
		st.scopes[i].vars.Each(func(name string, v expand.Variable) bool {
			if seen[name] {
				return true
			}
			seen[name] = true
			return f(name, v)
		})
	}
}

// Environ adapts State to expand.WriteEnviron so the expand package can
// resolve and assign parameters without importing interp.
func (st *State) Environ() expand.WriteEnviron { return stateEnviron{st} }

type stateEnviron struct{ st *State }

func (e stateEnviron) Get(name string) expand.Variable { return e.st.Get(name) }
func (e stateEnviron) Set(name string, v expand.Variable) error {
	return e.st.Set(name, v)
}
func (e stateEnviron) Each(f func(string, expand.Variable) bool) { e.st.Each(f) }

func (st *State) nextRand() int {
	st.rngState ^= st.rngState << 13
	st.rngState ^= st.rngState >> 7
	st.rngState ^= st.rngState << 17
	return int(st.rngState % 32768)
}

func (st *State) specialParams() map[string]string {
	return map[string]string{
		"?": fmt.Sprint(st.LastStatus),
		"$": fmt.Sprint(st.Pid),
		"!": "0",
		"-": st.optString(),
		"0": st.ScriptName,
	}
}

func (st *State) optString() string {
	var sb strings.Builder
	if st.Opts.ErrExit {
		sb.WriteByte('e')
	}
	if st.Opts.NoUnset {
		sb.WriteByte('u')
	}
	if st.Opts.XTrace {
		sb.WriteByte('x')
	}
	if st.Opts.Verbose {
		sb.WriteByte('v')
	}
	if st.Opts.NoGlob {
		sb.WriteByte('f')
	}
	return sb.String()
}
