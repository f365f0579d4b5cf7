package lexer

import (
	"testing"

	"github.com/sald-lang/sald/internal/token"
)

func lexAll(t *testing.T, input string) []token.Token {
	t.Helper()
	l := New(input)
	var toks []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("lex error: %v", err)
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks
}

func TestNextToken_BasicOperators(t *testing.T) {
	input := `+ - * / % == != <= >= && || ?? ?. -> => .. ..< ...`
	expected := []token.Kind{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.EQ, token.NEQ, token.LE, token.GE, token.AND_AND, token.OR_OR,
		token.QUESTION_QUESTION, token.QUESTION_DOT, token.ARROW, token.FATARROW,
		token.DOTDOT, token.DOTDOTLT, token.ELLIPSIS, token.EOF,
	}
	toks := lexAll(t, input)
	if len(toks) != len(expected) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(expected))
	}
	for i, k := range expected {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %v want %v", i, toks[i].Kind, k)
		}
	}
}

func TestNextToken_KeywordsAndIdents(t *testing.T) {
	input := `let fun class extends super self if else foo_bar _`
	toks := lexAll(t, input)
	expected := []token.Kind{
		token.LET, token.FUN, token.CLASS, token.EXTENDS, token.SUPER, token.SELF,
		token.IF, token.ELSE, token.IDENT, token.UNDERSCORE, token.EOF,
	}
	for i, k := range expected {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %v want %v", i, toks[i].Kind, k)
		}
	}
}

func TestNextToken_Number(t *testing.T) {
	toks := lexAll(t, "42 3.14")
	if toks[0].Value.(float64) != 42 {
		t.Errorf("expected 42, got %v", toks[0].Value)
	}
	if toks[1].Value.(float64) != 3.14 {
		t.Errorf("expected 3.14, got %v", toks[1].Value)
	}
}

func TestString_Escapes(t *testing.T) {
	toks := lexAll(t, `"a\nb\tA\x41"`)
	got := toks[0].Value.(string)
	want := "a\nb\tAA"
	if got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestString_InvalidEscape(t *testing.T) {
	l := New(`"bad\q"`)
	for {
		_, err := l.NextToken()
		if err != nil {
			return
		}
	}
}

func TestRawString_NoEscapeProcessing(t *testing.T) {
	toks := lexAll(t, `r"a\nb"`)
	if toks[0].Kind != token.RAW_STRING {
		t.Fatalf("expected RAW_STRING, got %v", toks[0].Kind)
	}
	if toks[0].Value.(string) != `a\nb` {
		t.Errorf("raw string should not process escapes, got %q", toks[0].Value)
	}
}

func TestTripleQuotedString_Multiline(t *testing.T) {
	toks := lexAll(t, "\"\"\"line1\nline2\"\"\"")
	if toks[0].Kind != token.STRING {
		t.Fatalf("expected STRING, got %v", toks[0].Kind)
	}
	if toks[0].Value.(string) != "line1\nline2" {
		t.Errorf("got %q", toks[0].Value)
	}
}

func TestFormatString_NoInterpolationDegradesToString(t *testing.T) {
	toks := lexAll(t, `$"hello world"`)
	if toks[0].Kind != token.STRING {
		t.Fatalf("expected plain STRING for non-interpolating format string, got %v", toks[0].Kind)
	}
}

func TestFormatString_StartPartEnd(t *testing.T) {
	l := New(`$"a{x}b"`)
	tok1, err := l.NextToken()
	if err != nil {
		t.Fatal(err)
	}
	if tok1.Kind != token.FORMAT_START || tok1.Value.(string) != "a" {
		t.Fatalf("got %v %q", tok1.Kind, tok1.Value)
	}
	tok2, err := l.NextToken()
	if err != nil {
		t.Fatal(err)
	}
	if tok2.Kind != token.IDENT || tok2.Lexeme != "x" {
		t.Fatalf("expected ident x, got %v %q", tok2.Kind, tok2.Lexeme)
	}
	tok3, err := l.NextToken()
	if err != nil {
		t.Fatal(err)
	}
	if tok3.Kind != token.FORMAT_END || tok3.Value.(string) != "b" {
		t.Fatalf("got %v %q", tok3.Kind, tok3.Value)
	}
}

func TestFormatString_EscapedBraces(t *testing.T) {
	toks := lexAll(t, `$"{{literal}}"`)
	if toks[0].Kind != token.STRING || toks[0].Value.(string) != "{literal}" {
		t.Fatalf("got %v %q", toks[0].Kind, toks[0].Value)
	}
}

func TestComments(t *testing.T) {
	toks := lexAll(t, "let /* nested /* comment */ still */ x = 1 // trailing\n")
	expected := []token.Kind{token.LET, token.IDENT, token.ASSIGN, token.NUMBER, token.EOF}
	for i, k := range expected {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %v want %v", i, toks[i].Kind, k)
		}
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New(`"abc`)
	_, err := l.NextToken()
	if err == nil {
		t.Fatal("expected error for unterminated string")
	}
}

func TestByteOffsetTracking(t *testing.T) {
	toks := lexAll(t, "let x")
	if toks[0].Span.Start.Offset != 0 {
		t.Errorf("expected offset 0, got %d", toks[0].Span.Start.Offset)
	}
	if toks[1].Span.Start.Offset != 4 {
		t.Errorf("expected offset 4, got %d", toks[1].Span.Start.Offset)
	}
}
