// Package shell is the embeddable library surface: construct a Shell over a
// virtual filesystem, register extra commands or transform plugins, then
// run scripts against it without touching a real process, file descriptor,
// or environment variable on the host.
package shell

import (
	"context"
	mathrand "math/rand"
	"strings"
	"time"

	"github.com/chadparker/just-bash/expand"
	"github.com/chadparker/just-bash/interp"
	"github.com/chadparker/just-bash/registry"
	"github.com/chadparker/just-bash/syntax"
	"github.com/chadparker/just-bash/transform"
	"github.com/chadparker/just-bash/vfs"
)

// Options configures a new Shell. Files and FS are mutually exclusive: pass
// Files for an in-memory tree built from content/providers, or FS to bring
// your own (e.g. a real-filesystem overlay). Rand and Clock let a caller
// make $RANDOM and $SECONDS deterministic under test; both default to real
// sources when left nil.
type Options struct {
	Files map[string]vfs.Seed
	Cwd   string
	Env   map[string]string
	FS    vfs.FS
	Pid   int
	Rand  *mathrand.Rand
	Clock func() time.Time
}

// Shell is a reusable handle over one virtual filesystem: every Exec call
// starts a fresh interpreter state but shares the same FS, registered
// commands, and transform pipeline.
type Shell struct {
	fs       vfs.FS
	cwd      string
	pid      int
	rand     *mathrand.Rand
	clock    func() time.Time
	baseEnv  map[string]string
	reg      *registry.Registry
	pipeline *transform.Pipeline
}

// NewShell builds a Shell from opts, seeding its filesystem and default
// environment.
func NewShell(opts Options) (*Shell, error) {
	fs := opts.FS
	if fs == nil {
		seeded, err := vfs.NewMemFSFromSeed(opts.Files)
		if err != nil {
			return nil, err
		}
		fs = seeded
	}
	cwd := opts.Cwd
	if cwd == "" {
		cwd = "/"
	}
	env := make(map[string]string, len(opts.Env)+2)
	for k, v := range opts.Env {
		env[k] = v
	}
	if _, ok := env["HOME"]; !ok {
		env["HOME"] = "/root"
	}
	if _, ok := env["PWD"]; !ok {
		env["PWD"] = cwd
	}
	return &Shell{
		fs:       fs,
		cwd:      cwd,
		pid:      opts.Pid,
		rand:     opts.Rand,
		clock:    opts.Clock,
		baseEnv:  env,
		reg:      registry.New(),
		pipeline: transform.NewPipeline(),
	}, nil
}

// applyOverrides installs any configured Pid/Rand/Clock onto a freshly built
// interp.State, leaving State's own defaults in place for whichever of the
// three weren't configured.
func (s *Shell) applyOverrides(st *interp.State) {
	if s.pid != 0 {
		st.SetPid(s.pid)
	}
	if s.rand != nil {
		st.Rand = s.rand
	}
	if s.clock != nil {
		st.SetClock(s.clock)
	}
}

// RegisterCommand adds or overrides one external command, visible to every
// subsequent Exec call.
func (s *Shell) RegisterCommand(name string, fn interp.CommandFunc) {
	s.reg.Register(name, fn)
}

// RegisterTransformPlugin appends a plugin to the pipeline Transform runs.
func (s *Shell) RegisterTransformPlugin(name string, fn transform.Plugin) {
	s.pipeline.Register(name, fn)
}

// Transform runs script through the registered plugin pipeline without
// executing it, returning the rewritten script, its tree, and accumulated
// plugin metadata.
func (s *Shell) Transform(script string) (transform.Result, error) {
	return s.pipeline.Run(script)
}

// Result is one script run's outcome.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Env      map[string]string
	Metadata map[string]any
}

// Exec parses and runs script to completion, reading no input from stdin.
func (s *Shell) Exec(ctx context.Context, script string) (Result, error) {
	return s.ExecStdin(ctx, script, "")
}

// ExecStdin is Exec with stdin content supplied up front, the way a script
// piped a fixed block of input would see it.
func (s *Shell) ExecStdin(ctx context.Context, script, stdin string) (Result, error) {
	f, err := syntax.Parse([]byte(script), "gosh")
	if err != nil {
		return Result{ExitCode: 2, Stderr: err.Error() + "\n"}, nil
	}

	var stdout, stderr strings.Builder
	st := interp.NewState(s.fs, s.cwd, s.reg, &stdout, &stderr)
	s.applyOverrides(st)
	st.Stdin = strings.NewReader(stdin)
	for name, val := range s.baseEnv {
		st.Set(name, expand.Variable{Str: val, Exported: true})
	}

	code, err := interp.ExecFile(ctx, f, st)

	env := map[string]string{}
	for _, name := range expand.Sorted(st.Environ()) {
		v := st.Get(name)
		if v.Exported {
			env[name] = v.Str
		}
	}

	return Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: code,
		Env:      env,
	}, err
}

// Session is a persistent interpreter state over the Shell's filesystem:
// unlike Exec, variables, functions, and cwd changes from one Exec call
// survive into the next, the way a REPL's commands build on each other.
type Session struct {
	st *interp.State
}

// NewSession starts a fresh persistent session over the Shell's filesystem.
func (s *Shell) NewSession() *Session {
	st := interp.NewState(s.fs, s.cwd, s.reg, nil, nil)
	s.applyOverrides(st)
	for name, val := range s.baseEnv {
		st.Set(name, expand.Variable{Str: val, Exported: true})
	}
	return &Session{st: st}
}

// Exec runs one line (or block) of script against the session's persistent
// state and returns its output.
func (sess *Session) Exec(ctx context.Context, script string) (Result, error) {
	f, err := syntax.Parse([]byte(script), "gosh")
	if err != nil {
		return Result{ExitCode: 2, Stderr: err.Error() + "\n"}, nil
	}
	var stdout, stderr strings.Builder
	sess.st.Stdout = &stdout
	sess.st.Stderr = &stderr
	code, err := interp.ExecFile(ctx, f, sess.st)
	return Result{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: code}, err
}

// Cwd reports the session's current working directory.
func (sess *Session) Cwd() string { return sess.st.Cwd }
