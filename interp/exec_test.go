package interp_test

import (
	"context"
	"strings"
	"testing"

	"github.com/chadparker/just-bash/interp"
	"github.com/chadparker/just-bash/registry"
	"github.com/chadparker/just-bash/syntax"
	"github.com/chadparker/just-bash/vfs"
)

func run(t *testing.T, script string) (stdout, stderr string, code int) {
	t.Helper()
	f, err := syntax.Parse([]byte(script), "test")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fs := vfs.NewMemFS()
	var out, errs strings.Builder
	st := interp.NewState(fs, "/", registry.New(), &out, &errs)
	code, err = interp.ExecFile(context.Background(), f, st)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	return out.String(), errs.String(), code
}

func TestPipelineBasic(t *testing.T) {
	out, _, code := run(t, `echo hello | tr a-z A-Z`)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if out != "HELLO\n" {
		t.Fatalf("stdout = %q, want %q", out, "HELLO\n")
	}
}

func TestPipelineWithMissingFileStillRuns(t *testing.T) {
	out, _, code := run(t, `ls /no_such 2>/dev/null | cat; echo done`)
	_ = out
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
}

func TestPipefailPropagatesFailure(t *testing.T) {
	_, _, code := run(t, `set -o pipefail; false | true`)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestPipefailOffUsesLastStatus(t *testing.T) {
	_, _, code := run(t, `false | true`)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
}

func TestStderrMergePipe(t *testing.T) {
	out, _, _ := run(t, `echo oops 1>&2 |& cat`)
	if strings.TrimSpace(out) != "oops" {
		t.Fatalf("stdout = %q, want merged stderr %q", out, "oops")
	}
}

func TestSubshellDoesNotLeakAssignment(t *testing.T) {
	out, _, _ := run(t, `X=outer; (X=inner; echo $X); echo $X`)
	want := "inner\nouter\n"
	if out != want {
		t.Fatalf("stdout = %q, want %q", out, want)
	}
}

func TestForLoopIntoSort(t *testing.T) {
	out, _, _ := run(t, `for i in 3 1 2; do echo $i; done | sort`)
	want := "1\n2\n3\n"
	if out != want {
		t.Fatalf("stdout = %q, want %q", out, want)
	}
}

func TestPipeStatusArray(t *testing.T) {
	out, _, _ := run(t, `false | true | false; echo "${PIPESTATUS[@]}"`)
	if strings.TrimSpace(out) != "1 0 1" {
		t.Fatalf("PIPESTATUS = %q, want %q", strings.TrimSpace(out), "1 0 1")
	}
}

func TestAssociativeArray(t *testing.T) {
	out, _, _ := run(t, `declare -A m; m[a]=1; m[b]=2; echo "${m[a]}-${m[b]}"`)
	if strings.TrimSpace(out) != "1-2" {
		t.Fatalf("stdout = %q, want %q", out, "1-2")
	}
}

func TestNestedCommandSubstitutionWithWc(t *testing.T) {
	out, _, _ := run(t, "echo \"$(printf 'a\\nb\\nc\\n' | wc -l)\"")
	if strings.TrimSpace(out) != "3" {
		t.Fatalf("stdout = %q, want %q", out, "3")
	}
}

func TestCaseFallThrough(t *testing.T) {
	script := `
case x in
x) echo one;;&
x) echo two;;
esac
`
	out, _, _ := run(t, script)
	if out != "one\ntwo\n" {
		t.Fatalf("stdout = %q, want %q", out, "one\ntwo\n")
	}
}

func TestCaseFallThruOperator(t *testing.T) {
	script := `
case x in
x) echo one;&
y) echo two;;
esac
`
	out, _, _ := run(t, script)
	if out != "one\ntwo\n" {
		t.Fatalf("stdout = %q, want %q", out, "one\ntwo\n")
	}
}

func TestNegatedPipeline(t *testing.T) {
	_, _, code := run(t, `! false`)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
}

func TestExitTrapRuns(t *testing.T) {
	out, _, _ := run(t, `trap 'echo bye' EXIT; echo hi`)
	if out != "hi\nbye\n" {
		t.Fatalf("stdout = %q, want %q", out, "hi\nbye\n")
	}
}

func TestConditionalFileTests(t *testing.T) {
	script := `mkdir -p /tmp/d; touch /tmp/d/f; if [[ -f /tmp/d/f ]]; then echo yes; fi`
	out, _, _ := run(t, script)
	if strings.TrimSpace(out) != "yes" {
		t.Fatalf("stdout = %q, want %q", out, "yes")
	}
}

func TestErrExitSuppressedInIfGuard(t *testing.T) {
	out, _, _ := run(t, `set -e; if false; then echo yes; fi; echo after`)
	if strings.TrimSpace(out) != "after" {
		t.Fatalf("stdout = %q, want %q", out, "after")
	}
}

func TestErrExitSuppressedInWhileGuard(t *testing.T) {
	out, _, _ := run(t, `set -e; n=0; while [ "$n" -lt 0 ]; do echo loop; done; echo after`)
	if strings.TrimSpace(out) != "after" {
		t.Fatalf("stdout = %q, want %q", out, "after")
	}
}

func TestErrExitStillFiresInThenBranch(t *testing.T) {
	out, _, code := run(t, `set -e; if true; then false; fi; echo unreachable`)
	if code == 0 {
		t.Fatalf("exit code = %d, want nonzero", code)
	}
	if strings.Contains(out, "unreachable") {
		t.Fatalf("stdout = %q, want errexit to stop before the echo", out)
	}
}

func TestForLoopExitStatusIsLastBodyCommand(t *testing.T) {
	_, _, code := run(t, `for i in 1 2; do false; done`)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestForLoopExitStatusObservedViaStatus(t *testing.T) {
	out, _, _ := run(t, `for i in 1 2; do false; done; echo $?`)
	if strings.TrimSpace(out) != "1" {
		t.Fatalf("stdout = %q, want %q", out, "1")
	}
}

func TestForLoopZeroIterationsReportsSuccess(t *testing.T) {
	out, _, _ := run(t, `for i in; do false; done; echo $?`)
	if strings.TrimSpace(out) != "0" {
		t.Fatalf("stdout = %q, want %q", out, "0")
	}
}

func TestForLoopCStyleExitStatusIsLastBodyCommand(t *testing.T) {
	out, _, _ := run(t, `for ((i=0; i<2; i++)); do false; done; echo $?`)
	if strings.TrimSpace(out) != "1" {
		t.Fatalf("stdout = %q, want %q", out, "1")
	}
}

func TestNoUnsetAbortsOnUnsetVariable(t *testing.T) {
	_, _, code := run(t, `set -u; echo "$missing"`)
	if code == 0 {
		t.Fatalf("exit code = %d, want nonzero under nounset", code)
	}
}

func TestQuotedPositionalAtExpandsToMultipleFields(t *testing.T) {
	out, _, _ := run(t, `set -- "a b" c; printf '%s\n' "$@"`)
	want := "a b\nc\n"
	if out != want {
		t.Fatalf("stdout = %q, want %q", out, want)
	}
}

func TestCancellationReports130(t *testing.T) {
	f, err := syntax.Parse([]byte(`sleep 5`), "test")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fs := vfs.NewMemFS()
	var out, errs strings.Builder
	st := interp.NewState(fs, "/", registry.New(), &out, &errs)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	code, _ := interp.ExecFile(ctx, f, st)
	if code != 130 {
		t.Fatalf("exit code = %d, want 130", code)
	}
}
