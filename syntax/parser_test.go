package syntax

import "testing"

func mustParse(t *testing.T, src string) {
	t.Helper()
	if _, err := Parse([]byte(src), "test"); err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
}

func TestParseSimpleCommand(t *testing.T) {
	mustParse(t, "echo hello world\n")
}

func TestParseAssignments(t *testing.T) {
	mustParse(t, "FOO=bar BAZ=qux echo $FOO $BAZ\n")
}

func TestParsePipeline(t *testing.T) {
	mustParse(t, "cat f | grep hello | wc -l\n")
}

func TestParseAndOr(t *testing.T) {
	mustParse(t, "true && echo ok || echo fail\n")
}

func TestParseIf(t *testing.T) {
	mustParse(t, "if [ -f foo ]; then echo yes; else echo no; fi\n")
}

func TestParseConditionalCommand(t *testing.T) {
	mustParse(t, `if [[ "$a" == foo* && -n "$b" ]]; then echo match; fi` + "\n")
}

func TestParseWhileUntil(t *testing.T) {
	mustParse(t, "while true; do echo x; done\n")
	mustParse(t, "until false; do echo y; done\n")
}

func TestParseForIn(t *testing.T) {
	mustParse(t, "for x in a b c; do echo $x; done\n")
}

func TestParseForCStyle(t *testing.T) {
	mustParse(t, "for ((i=0; i<10; i++)); do echo $i; done\n")
}

func TestParseCase(t *testing.T) {
	mustParse(t, "case $x in a) echo a;; b|c) echo bc;; *) echo other;; esac\n")
}

func TestParseSubshellAndGroup(t *testing.T) {
	mustParse(t, "(cd /tmp; ls)\n")
	mustParse(t, "{ echo a; echo b; }\n")
}

func TestParseFunctionDef(t *testing.T) {
	mustParse(t, "greet() { echo hello $1; }\n")
	mustParse(t, "function greet { echo hello $1; }\n")
}

func TestParseArithCommand(t *testing.T) {
	mustParse(t, "((x = 1 + 2 * 3))\n")
}

func TestParseParamExpansions(t *testing.T) {
	mustParse(t, `echo ${name:-default} ${#name} ${name#pre} ${name%%suf} ${name/a/b}`+"\n")
}

func TestParseCommandSubstitution(t *testing.T) {
	mustParse(t, "echo $(ls -la) and `pwd`\n")
}

func TestParseArithmeticExpansion(t *testing.T) {
	mustParse(t, "echo $((1 + 2 * (3 - 1)))\n")
}

func TestParseRedirections(t *testing.T) {
	mustParse(t, "cat < in.txt > out.txt 2>&1\n")
	mustParse(t, "cat <<EOF\nhello\nEOF\n")
	mustParse(t, "cat <<-EOF\n\thello\n\tEOF\n")
}

func TestParsePipefailLikeScript(t *testing.T) {
	mustParse(t, "set -o pipefail; false | true\n")
}

func TestParseArrayAssign(t *testing.T) {
	mustParse(t, "declare -A m; m=([a]=1 [b]=2)\n")
	mustParse(t, "arr=(1 2 3)\n")
}

func TestParseBraceExpansionWord(t *testing.T) {
	f, err := Parse([]byte("echo file{1..3}.txt\n"), "test")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(f.Stmts) != 1 {
		t.Fatalf("expected 1 stmt, got %d", len(f.Stmts))
	}
}

func TestParseProcessSubstitution(t *testing.T) {
	mustParse(t, "diff <(sort a) <(sort b)\n")
}

func TestPrintRoundTrips(t *testing.T) {
	srcs := []string{
		"echo hello\n",
		"true && echo ok || echo fail\n",
		"for x in a b c; do echo $x; done\n",
	}
	for _, src := range srcs {
		f, err := Parse([]byte(src), "test")
		if err != nil {
			t.Fatalf("Parse(%q): %v", src, err)
		}
		out := Print(f)
		if _, err := Parse([]byte(out), "test2"); err != nil {
			t.Fatalf("re-parsing printed output of %q failed: %v\noutput: %q", src, err, out)
		}
	}
}

func TestParseErrorUnclosedQuote(t *testing.T) {
	if _, err := Parse([]byte("echo 'unterminated\n"), "test"); err == nil {
		t.Fatalf("expected a parse error for an unterminated quote")
	}
}

func TestParseErrorUnmatchedIf(t *testing.T) {
	if _, err := Parse([]byte("if true; then echo hi\n"), "test"); err == nil {
		t.Fatalf("expected a parse error for an unterminated if")
	}
}
