package shell_test

import (
	"context"
	mathrand "math/rand"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/chadparker/just-bash/ast"
	"github.com/chadparker/just-bash/interp"
	"github.com/chadparker/just-bash/shell"
	"github.com/chadparker/just-bash/vfs"
)

func TestExecReturnsStdoutAndExitCode(t *testing.T) {
	sh, err := shell.NewShell(shell.Options{})
	if err != nil {
		t.Fatalf("NewShell: %v", err)
	}
	res, err := sh.Exec(context.Background(), "echo hello")
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if res.Stdout != "hello\n" {
		t.Fatalf("Stdout = %q, want %q", res.Stdout, "hello\n")
	}
	if res.ExitCode != 0 {
		t.Fatalf("ExitCode = %d, want 0", res.ExitCode)
	}
}

func TestExecSeedsFilesFromOptions(t *testing.T) {
	sh, err := shell.NewShell(shell.Options{
		Files: map[string]vfs.Seed{
			"/greeting.txt": {Content: []byte("hi there\n")},
		},
	})
	if err != nil {
		t.Fatalf("NewShell: %v", err)
	}
	res, err := sh.Exec(context.Background(), "cat /greeting.txt")
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if res.Stdout != "hi there\n" {
		t.Fatalf("Stdout = %q, want %q", res.Stdout, "hi there\n")
	}
}

func TestExecStdinFeedsScript(t *testing.T) {
	sh, err := shell.NewShell(shell.Options{})
	if err != nil {
		t.Fatalf("NewShell: %v", err)
	}
	res, err := sh.ExecStdin(context.Background(), "wc -l", "a\nb\nc\n")
	if err != nil {
		t.Fatalf("ExecStdin: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "3" {
		t.Fatalf("Stdout = %q, want %q", res.Stdout, "3")
	}
}

func TestExecDoesNotPersistStateAcrossCalls(t *testing.T) {
	sh, err := shell.NewShell(shell.Options{})
	if err != nil {
		t.Fatalf("NewShell: %v", err)
	}
	if _, err := sh.Exec(context.Background(), "X=set"); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	res, err := sh.Exec(context.Background(), `echo "[$X]"`)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if res.Stdout != "[]\n" {
		t.Fatalf("Stdout = %q, want %q (no leaked state)", res.Stdout, "[]\n")
	}
}

func TestSessionPersistsStateAcrossCalls(t *testing.T) {
	sh, err := shell.NewShell(shell.Options{})
	if err != nil {
		t.Fatalf("NewShell: %v", err)
	}
	sess := sh.NewSession()
	if _, err := sess.Exec(context.Background(), "X=set"); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	res, err := sess.Exec(context.Background(), `echo "[$X]"`)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if res.Stdout != "[set]\n" {
		t.Fatalf("Stdout = %q, want %q", res.Stdout, "[set]\n")
	}
}

func TestSessionCwdTracksCd(t *testing.T) {
	sh, err := shell.NewShell(shell.Options{Cwd: "/"})
	if err != nil {
		t.Fatalf("NewShell: %v", err)
	}
	sess := sh.NewSession()
	if _, err := sess.Exec(context.Background(), "mkdir /work && cd /work"); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if sess.Cwd() != "/work" {
		t.Fatalf("Cwd() = %q, want %q", sess.Cwd(), "/work")
	}
}

func TestRegisterCommandIsVisibleToExec(t *testing.T) {
	sh, err := shell.NewShell(shell.Options{})
	if err != nil {
		t.Fatalf("NewShell: %v", err)
	}
	sh.RegisterCommand("greet", func(ctx context.Context, args []string, st *interp.State) (int, error) {
		fmtln := "hello, " + args[0]
		_, err := st.Stdout.Write([]byte(fmtln + "\n"))
		return 0, err
	})
	res, err := sh.Exec(context.Background(), "greet world")
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if res.Stdout != "hello, world\n" {
		t.Fatalf("Stdout = %q, want %q", res.Stdout, "hello, world\n")
	}
}

func TestPidOptionIsVisibleAsDollarDollar(t *testing.T) {
	sh, err := shell.NewShell(shell.Options{Pid: 4242})
	if err != nil {
		t.Fatalf("NewShell: %v", err)
	}
	res, err := sh.Exec(context.Background(), `echo $$`)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "4242" {
		t.Fatalf("Stdout = %q, want %q", res.Stdout, "4242\n")
	}
}

func TestPidOptionAppliesToSessionsToo(t *testing.T) {
	sh, err := shell.NewShell(shell.Options{Pid: 99})
	if err != nil {
		t.Fatalf("NewShell: %v", err)
	}
	sess := sh.NewSession()
	res, err := sess.Exec(context.Background(), `echo $$`)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "99" {
		t.Fatalf("Stdout = %q, want %q", res.Stdout, "99\n")
	}
}

func TestRandOptionMakesRandomDeterministic(t *testing.T) {
	want := mathrand.New(mathrand.NewSource(1)).Intn(32768)
	sh, err := shell.NewShell(shell.Options{Rand: mathrand.New(mathrand.NewSource(1))})
	if err != nil {
		t.Fatalf("NewShell: %v", err)
	}
	res, err := sh.Exec(context.Background(), `echo $RANDOM`)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	got := strings.TrimSpace(res.Stdout)
	if got != strconv.Itoa(want) {
		t.Fatalf("$RANDOM = %q, want %q", got, strconv.Itoa(want))
	}
}

func TestClockOptionMakesSecondsDeterministic(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	sh, err := shell.NewShell(shell.Options{Clock: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("NewShell: %v", err)
	}
	sess := sh.NewSession()
	now = start.Add(5 * time.Second)
	res, err := sess.Exec(context.Background(), `echo $SECONDS`)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "5" {
		t.Fatalf("Stdout = %q, want %q", res.Stdout, "5\n")
	}
}

func TestSecondsAssignmentRebasesClock(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	sh, err := shell.NewShell(shell.Options{Clock: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("NewShell: %v", err)
	}
	sess := sh.NewSession()
	if _, err := sess.Exec(context.Background(), `SECONDS=100`); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	now = start.Add(3 * time.Second)
	res, err := sess.Exec(context.Background(), `echo $SECONDS`)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "103" {
		t.Fatalf("Stdout = %q, want %q", res.Stdout, "103\n")
	}
}

func TestTransformRewritesScriptWithoutExecuting(t *testing.T) {
	sh, err := shell.NewShell(shell.Options{})
	if err != nil {
		t.Fatalf("NewShell: %v", err)
	}
	sh.RegisterTransformPlugin("count", func(f *ast.File, acc map[string]any) (*ast.File, map[string]any, error) {
		return nil, map[string]any{"stmts": len(f.Stmts)}, nil
	})
	res, err := sh.Transform("echo a; echo b")
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if res.Metadata["stmts"] != 2 {
		t.Fatalf("Metadata[stmts] = %v, want 2", res.Metadata["stmts"])
	}
}
