package lexer

import "testing"

func TestNextTokenBasic(t *testing.T) {
	src := `var x = 1 + 2.5e3 * "hi\n";`
	want := []TokenType{
		TokenVar, TokenIdentifier, TokenAssign, TokenNumber, TokenPlus,
		TokenNumber, TokenStar, TokenString, TokenSemicolon, TokenEOF,
	}
	l := New(src)
	for i, tt := range want {
		tok := l.NextToken()
		if tok.Type != tt {
			t.Fatalf("token %d: got %s, want %s", i, tok.Type, tt)
		}
	}
}

func TestNextTokenOperatorsAndKeywords(t *testing.T) {
	src := `if (a == b && c != d) { return; } else { throw x; }`
	l := New(src)
	var types []TokenType
	for {
		tok := l.NextToken()
		types = append(types, tok.Type)
		if tok.Type == TokenEOF {
			break
		}
	}
	want := []TokenType{
		TokenIf, TokenLParen, TokenIdentifier, TokenEqEq, TokenIdentifier,
		TokenAmpAmp, TokenIdentifier, TokenNotEq, TokenIdentifier, TokenRParen,
		TokenLBrace, TokenReturn, TokenSemicolon, TokenRBrace, TokenElse,
		TokenLBrace, TokenThrow, TokenIdentifier, TokenSemicolon, TokenRBrace,
		TokenEOF,
	}
	if len(types) != len(want) {
		t.Fatalf("got %d tokens, want %d (%v)", len(types), len(want), types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s", i, types[i], want[i])
		}
	}
}

func TestNumberLiteralsWithExponent(t *testing.T) {
	cases := []string{"1", "1.5", "1e10", "1.5e-3", "1E+2"}
	for _, src := range cases {
		l := New(src)
		tok := l.NextToken()
		if tok.Type != TokenNumber || tok.Literal != src {
			t.Fatalf("input %q: got %s %q", src, tok.Type, tok.Literal)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	l := New(`"a\nb\tc"`)
	tok := l.NextToken()
	if tok.Type != TokenString || tok.Literal != "a\nb\tc" {
		t.Fatalf("got %q", tok.Literal)
	}
}

func TestSkipsLineAndBlockComments(t *testing.T) {
	src := "// leading comment\nvar /* inline */ x = 1;"
	l := New(src)
	var types []TokenType
	for {
		tok := l.NextToken()
		types = append(types, tok.Type)
		if tok.Type == TokenEOF {
			break
		}
	}
	want := []TokenType{TokenVar, TokenIdentifier, TokenAssign, TokenNumber, TokenSemicolon, TokenEOF}
	if len(types) != len(want) {
		t.Fatalf("got %v", types)
	}
}
