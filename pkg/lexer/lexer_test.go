package lexer

import (
	"ebscript/pkg/token"
	"reflect"
	"testing"
)

func TestNextToken(t *testing.T) {
	input := `function add(x: int, y: int) return int {
	return x + y;
}
var s = str.toUpper("ab"); // trailing comment
if (s.length >= 2) { s += 'c'; }
`

	tests := []struct {
		expectedType    token.TokenType
		expectedLiteral string
	}{
		{token.FUNCTION, "function"},
		{token.IDENT, "add"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.COLON, ":"},
		{token.TYPE, "int"},
		{token.COMMA, ","},
		{token.IDENT, "y"},
		{token.COLON, ":"},
		{token.TYPE, "int"},
		{token.RPAREN, ")"},
		{token.RETURN, "return"},
		{token.TYPE, "int"},
		{token.LBRACE, "{"},
		{token.RETURN, "return"},
		{token.IDENT, "x"},
		{token.PLUS, "+"},
		{token.IDENT, "y"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.VAR, "var"},
		{token.IDENT, "s"},
		{token.ASSIGN, "="},
		{token.IDENT, "str.toupper"},
		{token.LPAREN, "("},
		{token.STRING, "ab"},
		{token.RPAREN, ")"},
		{token.SEMICOLON, ";"},
		{token.IF, "if"},
		{token.LPAREN, "("},
		{token.IDENT, "s"},
		{token.DOT, "."},
		{token.LENGTH, "length"},
		{token.GTE, ">="},
		{token.INT, "2"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.IDENT, "s"},
		{token.PLUS_EQ, "+="},
		{token.STRING, "c"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q, literal=%q",
				i, tt.expectedType, tok.Type, tok.Literal)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
	if len(l.Errors()) != 0 {
		t.Fatalf("unexpected lex errors: %v", l.Errors())
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		input           string
		expectedType    token.TokenType
		expectedLiteral string
	}{
		{"42", token.INT, "42"},
		{"2147483647", token.INT, "2147483647"},
		{"2147483648", token.LONG, "2147483648"},
		{"7l", token.LONG, "7"},
		{"7L", token.LONG, "7"},
		{"3.25", token.DOUBLE, "3.25"},
		{"2d", token.DOUBLE, "2"},
		{"1.5f", token.DOUBLE, "1.5"},
		{"1e3", token.DOUBLE, "1e3"},
	}

	for i, tt := range tests {
		tok := New(tt.input).NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q", i, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestStringsAndDates(t *testing.T) {
	tests := []struct {
		input           string
		expectedType    token.TokenType
		expectedLiteral string
	}{
		{`"a\tb\n"`, token.STRING, "a\tb\n"},
		{`'it\'s'`, token.STRING, "it's"},
		{`"A\x42"`, token.STRING, "AB"},
		{`"2024-03-01"`, token.DATE, "2024-03-01"},
		{`"2024-03-01 10:30"`, token.DATE, "2024-03-01 10:30"},
		{`"2024-03-01T10:30:15"`, token.DATE, "2024-03-01T10:30:15"},
		{`"2024-3-1"`, token.STRING, "2024-3-1"},
	}

	for i, tt := range tests {
		tok := New(tt.input).NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q", i, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestOperators(t *testing.T) {
	input := `a++ b-- c -= 1 d *= 2 e /= 3 f ^ 2 g % 3 x && y || z and w or v =< => <> !`
	want := []token.TokenType{
		token.IDENT, token.PLUS_PLUS, token.IDENT, token.MINUS_MINUS,
		token.IDENT, token.MINUS_EQ, token.INT, token.IDENT, token.STAR_EQ, token.INT,
		token.IDENT, token.SLASH_EQ, token.INT, token.IDENT, token.CARET, token.INT,
		token.IDENT, token.PERCENT, token.INT, token.IDENT, token.AND, token.IDENT,
		token.OR, token.IDENT, token.AND, token.IDENT, token.OR, token.IDENT,
		token.LTE, token.GTE, token.NOT_EQ, token.BANG, token.EOF,
	}
	l := New(input)
	for i, expected := range want {
		tok := l.NextToken()
		if tok.Type != expected {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q", i, expected, tok.Type)
		}
	}
}

func TestKeywordsAreCaseInsensitive(t *testing.T) {
	l := New(`IF Then ELSE While NULL True Str.ToUpper`)
	want := []token.TokenType{token.IF, token.THEN, token.ELSE, token.WHILE, token.NULL, token.TRUE, token.IDENT}
	for i, expected := range want {
		tok := l.NextToken()
		if tok.Type != expected {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q", i, expected, tok.Type)
		}
	}
}

func TestDottedNames(t *testing.T) {
	tests := []struct {
		input    string
		expected []token.Token
	}{
		{"str.length(s)", []token.Token{{Type: token.IDENT, Literal: "str.length"}, {Type: token.LPAREN, Literal: "("}}},
		{"queue.size (q)", []token.Token{{Type: token.IDENT, Literal: "queue.size"}, {Type: token.LPAREN, Literal: "("}}},
		{"q.size;", []token.Token{{Type: token.IDENT, Literal: "q"}, {Type: token.DOT, Literal: "."}, {Type: token.LENGTH, Literal: "size"}}},
		{"j.Name.first", []token.Token{{Type: token.IDENT, Literal: "j.name.first"}, {Type: token.EOF, Literal: ""}}},
		{"j.items.length", []token.Token{{Type: token.IDENT, Literal: "j.items"}, {Type: token.DOT, Literal: "."}, {Type: token.LENGTH, Literal: "length"}}},
	}

	for i, tt := range tests {
		l := New(tt.input)
		for j, want := range tt.expected {
			tok := l.NextToken()
			if tok.Type != want.Type || tok.Literal != want.Literal {
				t.Fatalf("tests[%d][%d] - expected %s %q, got %s %q", i, j, want.Type, want.Literal, tok.Type, tok.Literal)
			}
		}
	}
}

func TestLineTracking(t *testing.T) {
	input := "var a = 1;\n/* block\ncomment */\nvar b = 2;"
	l := New(input)
	var last token.Token
	for tok := l.NextToken(); tok.Type != token.EOF; tok = l.NextToken() {
		if tok.Literal == "b" {
			last = tok
		}
	}
	if last.Line != 4 {
		t.Fatalf("identifier b on wrong line. expected=4, got=%d", last.Line)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		input string
		code  string
	}{
		{`"never closed`, UnterminatedLiteral},
		{`/* never closed`, UnterminatedLiteral},
		{`a @ b`, UnrecognizedCharacter},
		{`a & b`, UnrecognizedCharacter},
	}

	for i, tt := range tests {
		l := New(tt.input)
		l.Tokens()
		errs := l.Errors()
		if len(errs) != 1 {
			t.Fatalf("tests[%d] - expected 1 error, got=%d", i, len(errs))
		}
		if errs[0].Code != tt.code {
			t.Fatalf("tests[%d] - error code wrong. expected=%q, got=%q", i, tt.code, errs[0].Code)
		}
	}
}

func TestDeterministic(t *testing.T) {
	input := `var x: double[*]; foreach v in x { print v * 2.5; }`
	first := New(input).Tokens()
	second := New(input).Tokens()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("lexing is not deterministic:\n%v\n%v", first, second)
	}
}
