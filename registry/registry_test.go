package registry_test

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

func TestGrepFiltersLines(t *testing.T) {
	out, _, _ := run(t, "printf 'foo\\nbar\\nbaz\\n' | grep ba")
	want := "bar\nbaz\n"
	if out != want {
		t.Fatalf("stdout = %q, want %q", out, want)
	}
}

func TestSedSubstitutes(t *testing.T) {
	out, _, _ := run(t, `echo hello world | sed 's/world/there/'`)
	if strings.TrimSpace(out) != "hello there" {
		t.Fatalf("stdout = %q, want %q", out, "hello there")
	}
}

func TestCutFields(t *testing.T) {
	out, _, _ := run(t, `echo "a:b:c" | cut -d: -f2`)
	if strings.TrimSpace(out) != "b" {
		t.Fatalf("stdout = %q, want %q", out, "b")
	}
}

func TestWcLineCount(t *testing.T) {
	out, _, _ := run(t, "printf 'a\\nb\\nc\\n' | wc -l")
	if strings.TrimSpace(out) != "3" {
		t.Fatalf("stdout = %q, want %q", out, "3")
	}
}

func TestFindByName(t *testing.T) {
	out, _, _ := run(t, `mkdir -p /a/b; touch /a/b/c.txt; find /a -name '*.txt'`)
	if strings.TrimSpace(out) != "/a/b/c.txt" {
		t.Fatalf("stdout = %q, want %q", out, "/a/b/c.txt")
	}
}

func TestSeqRange(t *testing.T) {
	out, _, _ := run(t, `seq 1 3`)
	if out != "1\n2\n3\n" {
		t.Fatalf("stdout = %q, want %q", out, "1\n2\n3\n")
	}
}

func TestTestBuiltinFileExists(t *testing.T) {
	_, _, code := run(t, `touch /f.txt; test -f /f.txt`)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
}

func TestXargsRunsRegisteredCommand(t *testing.T) {
	out, _, _ := run(t, `printf 'a\nb\n' | xargs echo`)
	if strings.TrimSpace(out) != "a b" {
		t.Fatalf("stdout = %q, want %q", out, "a b")
	}
}

func TestCpCopiesIntoDirectory(t *testing.T) {
	out, _, code := run(t, `echo hi > /src.txt; mkdir /dst; cp /src.txt /dst; cat /dst/src.txt`)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if strings.TrimSpace(out) != "hi" {
		t.Fatalf("stdout = %q, want %q", out, "hi")
	}
}
