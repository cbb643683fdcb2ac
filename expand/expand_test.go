package expand

import (
	"errors"
	"testing"

	"github.com/chadparker/just-bash/ast"
)

func litWord(s string) ast.Word {
	return ast.Word{Parts: []ast.WordPart{&ast.Literal{Value: s}}}
}

func paramWord(name string) ast.Word {
	return ast.Word{Parts: []ast.WordPart{&ast.ParamExpansion{Name: name, Short: true}}}
}

func newTestConfig() (*Config, *MapEnviron) {
	env := NewMapEnviron()
	cfg := &Config{
		Env:     env,
		Special: map[string]string{},
	}
	return cfg, env
}

func TestLiteralParamDefault(t *testing.T) {
	cfg, _ := newTestConfig()
	w := ast.Word{Parts: []ast.WordPart{&ast.ParamExpansion{
		Name: "FOO", Op: ast.ParamDefault, Arg: litWord("fallback"),
	}}}
	got, err := Literal(cfg, w)
	if err != nil {
		t.Fatal(err)
	}
	if got != "fallback" {
		t.Fatalf("got %q, want %q", got, "fallback")
	}
}

func TestLiteralParamLength(t *testing.T) {
	cfg, env := newTestConfig()
	env.Set("FOO", Variable{Str: "hello"})
	w := ast.Word{Parts: []ast.WordPart{&ast.ParamExpansion{Name: "FOO", Op: ast.ParamLength}}}
	got, err := Literal(cfg, w)
	if err != nil {
		t.Fatal(err)
	}
	if got != "5" {
		t.Fatalf("got %q, want 5", got)
	}
}

func TestFieldsSplitsOnIFS(t *testing.T) {
	cfg, env := newTestConfig()
	env.Set("FOO", Variable{Str: "a  b   c"})
	out, err := Fields(cfg, []ast.Word{paramWord("FOO")})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "b", "c"}
	if len(out) != len(want) {
		t.Fatalf("got %v, want %v", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("got %v, want %v", out, want)
		}
	}
}

func TestFieldsQuotedNoSplit(t *testing.T) {
	cfg, env := newTestConfig()
	env.Set("FOO", Variable{Str: "a b c"})
	w := ast.Word{Parts: []ast.WordPart{&ast.DoubleQuoted{Parts: []ast.WordPart{
		&ast.ParamExpansion{Name: "FOO", Short: true},
	}}}}
	out, err := Fields(cfg, []ast.Word{w})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0] != "a b c" {
		t.Fatalf("got %v, want one field %q", out, "a b c")
	}
}

func TestArithBasic(t *testing.T) {
	cfg, _ := newTestConfig()
	x := &ast.ArithBinary{
		Op: ast.ArithAdd,
		X:  &ast.ArithWord{X: litWord("2")},
		Y: &ast.ArithBinary{
			Op: ast.ArithMul,
			X:  &ast.ArithWord{X: litWord("3")},
			Y:  &ast.ArithWord{X: litWord("4")},
		},
	}
	got, err := Arith(x, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got != 14 {
		t.Fatalf("got %d, want 14", got)
	}
}

func TestArithAssignment(t *testing.T) {
	cfg, env := newTestConfig()
	x := &ast.ArithBinary{
		Op: ast.ArithAssign,
		X:  &ast.ArithWord{X: litWord("x")},
		Y:  &ast.ArithWord{X: litWord("5")},
	}
	if _, err := Arith(x, cfg); err != nil {
		t.Fatal(err)
	}
	if env.Get("x").Str != "5" {
		t.Fatalf("x = %q, want 5", env.Get("x").Str)
	}
}

func TestFieldsQuotedAtSplitsPerPositionalParam(t *testing.T) {
	cfg, _ := newTestConfig()
	cfg.Params = []string{"a b", "c"}
	w := ast.Word{Parts: []ast.WordPart{&ast.DoubleQuoted{Parts: []ast.WordPart{
		&ast.ParamExpansion{Name: "@", Short: true},
	}}}}
	out, err := Fields(cfg, []ast.Word{w})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a b", "c"}
	if len(out) != len(want) {
		t.Fatalf("got %v, want %v", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("got %v, want %v", out, want)
		}
	}
}

func TestFieldsQuotedStarJoinsIntoOneField(t *testing.T) {
	cfg, _ := newTestConfig()
	cfg.Params = []string{"a", "b"}
	w := ast.Word{Parts: []ast.WordPart{&ast.DoubleQuoted{Parts: []ast.WordPart{
		&ast.ParamExpansion{Name: "*", Short: true},
	}}}}
	out, err := Fields(cfg, []ast.Word{w})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("got %v, want one joined field", out)
	}
}

func TestLiteralNoUnsetVariableErrors(t *testing.T) {
	cfg, _ := newTestConfig()
	cfg.NoUnset = true
	_, err := Literal(cfg, paramWord("MISSING"))
	if err == nil {
		t.Fatal("expected an error for an unset variable under nounset")
	}
	var pe *ParamError
	if !errors.As(err, &pe) {
		t.Fatalf("got %T, want *ParamError", err)
	}
}

func TestLiteralNoUnsetAllowsDefaultOperator(t *testing.T) {
	cfg, _ := newTestConfig()
	cfg.NoUnset = true
	w := ast.Word{Parts: []ast.WordPart{&ast.ParamExpansion{
		Name: "MISSING", Op: ast.ParamDefault, Arg: litWord("fallback"),
	}}}
	got, err := Literal(cfg, w)
	if err != nil {
		t.Fatal(err)
	}
	if got != "fallback" {
		t.Fatalf("got %q, want %q", got, "fallback")
	}
}

func TestParamRemPrefix(t *testing.T) {
	cfg, env := newTestConfig()
	env.Set("FOO", Variable{Str: "foo.bar.baz"})
	w := ast.Word{Parts: []ast.WordPart{&ast.ParamExpansion{
		Name: "FOO", Op: ast.ParamRemPrefixLong, Arg: litWord("*."),
	}}}
	got, err := Literal(cfg, w)
	if err != nil {
		t.Fatal(err)
	}
	if got != "baz" {
		t.Fatalf("got %q, want baz", got)
	}
}
