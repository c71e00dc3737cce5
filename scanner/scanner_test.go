package scanner

import (
	"testing"

	"wisp/token"
)

func collectTypes(src string) []token.Type {
	s := New(src)
	var types []token.Type
	for {
		tok := s.Next()
		types = append(types, tok.Type)
		if tok.Type == token.EOF {
			return types
		}
	}
}

func TestScansPunctuationAndCompoundOperators(t *testing.T) {
	got := collectTypes("+= -= ** ... :")
	want := []token.Type{
		token.PlusEqual, token.MinusEqual, token.StarStar, token.DotDotDot, token.Colon, token.EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSkipsLineComments(t *testing.T) {
	s := New("1 // a comment\n2")
	first := s.Next()
	if first.Type != token.Number || first.Lexeme != "1" {
		t.Fatalf("first token = %+v", first)
	}
	second := s.Next()
	if second.Type != token.Number || second.Lexeme != "2" {
		t.Fatalf("second token = %+v", second)
	}
	if second.Line != 2 {
		t.Fatalf("expected line 2 after newline, got %d", second.Line)
	}
}

func TestIdentifierVsKeyword(t *testing.T) {
	s := New("classy class")
	first := s.Next()
	if first.Type != token.Identifier {
		t.Fatalf("expected identifier, got %v", first.Type)
	}
	second := s.Next()
	if second.Type != token.Class {
		t.Fatalf("expected class keyword, got %v", second.Type)
	}
}

func TestUnterminatedStringProducesErrorToken(t *testing.T) {
	s := New(`"abc`)
	tok := s.Next()
	if tok.Type != token.Error {
		t.Fatalf("expected error token, got %v", tok.Type)
	}
}

func TestRawStringSkipsEscapeProcessing(t *testing.T) {
	s := New(`r"a\nb"`)
	tok := s.Next()
	if tok.Type != token.String {
		t.Fatalf("expected string token, got %v", tok.Type)
	}
	if tok.Lexeme != `r"a\nb"` {
		t.Fatalf("raw string lexeme = %q", tok.Lexeme)
	}
}

func TestNumberWithUnderscoresAndExponent(t *testing.T) {
	s := New("1_000.5e1")
	tok := s.Next()
	if tok.Type != token.Number {
		t.Fatalf("expected number token, got %v", tok.Type)
	}
	if tok.Lexeme != "1_000.5e1" {
		t.Fatalf("number lexeme = %q", tok.Lexeme)
	}
}

func TestBackTrackRewindsOneRune(t *testing.T) {
	s := New("ab")
	r := s.advance()
	if r != 'a' {
		t.Fatalf("advance() = %q", r)
	}
	s.BackTrack()
	r2 := s.advance()
	if r2 != 'a' {
		t.Fatalf("advance() after BackTrack = %q, want 'a'", r2)
	}
}

func TestScansAfterErrorTokenWithoutGettingStuck(t *testing.T) {
	s := New("@ 1")
	first := s.Next()
	if first.Type != token.Error {
		t.Fatalf("expected error token for '@', got %v", first.Type)
	}
	second := s.Next()
	if second.Type != token.Number {
		t.Fatalf("expected scanning to resume at '1', got %v", second.Type)
	}
}
