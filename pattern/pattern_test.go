package pattern

import "testing"

func TestMatchLiteral(t *testing.T) {
	names := []string{"hello", "a/b", "", ".bashrc"}
	for _, name := range names {
		if !Match(name, QuoteMeta(name)) {
			t.Errorf("Match(%q, literal(%q)) = false, want true", name, name)
		}
	}
}

func TestMatchStar(t *testing.T) {
	cases := []struct {
		name, pat string
		want      bool
	}{
		{"foo.txt", "*.txt", true},
		{"foo.txt", "*.go", false},
		{"a/b.txt", "*.txt", false}, // '*' does not cross '/'
		{"b.txt", "a/*.txt", false},
		{".hidden", "*", false},
		{".hidden", ".*", true},
		{"abc", "a?c", true},
		{"abc", "a??", true},
		{"abc", "[ab]*", true},
		{"xbc", "[!ab]*", true},
		{"abc", "[!ab]*", false},
	}
	for _, c := range cases {
		got := Match(c.name, c.pat)
		if got != c.want {
			t.Errorf("Match(%q, %q) = %v, want %v", c.name, c.pat, got, c.want)
		}
	}
}

func TestHasMeta(t *testing.T) {
	if HasMeta(`foo\*bar`) {
		t.Error("HasMeta(foo\\*bar) = true, want false")
	}
	if !HasMeta(`foo*bar`) {
		t.Error("HasMeta(foo*bar) = false, want true")
	}
}
