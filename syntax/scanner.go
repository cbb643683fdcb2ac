package syntax

import "github.com/chadparker/just-bash/token"

// scanner is the byte-level cursor the parser reads from. Unlike the
// teacher's pooled, token-ahead lexer, this walks the source directly from
// parsing methods: bash's grammar is heavily context-sensitive (a "word" is
// read character-by-character, switching sub-modes for quotes and
// expansions inline), so a decoupled token stream buys little here.
type scanner struct {
	src   []byte
	off   int // next unread byte
	lines []int
}

func newScanner(src []byte) *scanner {
	return &scanner{src: src, lines: []int{0}}
}

func (s *scanner) pos() token.Pos { return token.Pos(s.off + 1) }

func (s *scanner) eof() bool { return s.off >= len(s.src) }

func (s *scanner) peekByte() byte {
	if s.eof() {
		return 0
	}
	return s.src[s.off]
}

func (s *scanner) peekAt(n int) byte {
	if s.off+n >= len(s.src) {
		return 0
	}
	return s.src[s.off+n]
}

func (s *scanner) advance() byte {
	c := s.src[s.off]
	s.off++
	if c == '\n' {
		s.lines = append(s.lines, s.off)
	}
	return c
}

func (s *scanner) hasPrefix(p string) bool {
	if s.off+len(p) > len(s.src) {
		return false
	}
	return string(s.src[s.off:s.off+len(p)]) == p
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' }

func isWordBreak(c byte) bool {
	switch c {
	case 0, ' ', '\t', '\n', '|', '&', ';', '<', '>', '(', ')':
		return true
	}
	return false
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameByte(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}
