package lexer

import (
	"ebscript/pkg/token"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// dateLiteral matches string literals that are promoted to DATE tokens.
var dateLiteral = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}([ T]\d{2}:\d{2}(:\d{2})?)?$`)

// Error is a lexical diagnostic. The lexer keeps going after an error so all
// problems in a unit are reported together.
type Error struct {
	Code    string
	Message string
	Line    int
	Column  int
}

const (
	UnterminatedLiteral   = "UnterminatedLiteral"
	UnrecognizedCharacter = "UnrecognizedCharacter"
)

func (e *Error) Error() string {
	return fmt.Sprintf("[line %d] %s", e.Line, e.Message)
}

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	line         int
	column       int

	errors []*Error
}

func New(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// Errors returns the diagnostics collected so far.
func (l *Lexer) Errors() []*Error {
	return l.errors
}

// Tokens lexes the remaining input, EOF included.
func (l *Lexer) Tokens() []token.Token {
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition += 1
	l.column += 1
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) peekCharAt(n int) byte {
	if l.readPosition+n >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition+n]
}

func (l *Lexer) NextToken() token.Token {
	var tok token.Token

	if !l.skipWhitespaceAndComments() {
		return token.Token{Type: token.ILLEGAL, Literal: "/*", Line: l.line, Column: l.column}
	}

	line, col := l.line, l.column

	switch l.ch {
	case '=':
		switch l.peekChar() {
		case '=':
			tok = l.twoCharToken(token.EQ)
		case '<':
			l.readChar()
			tok = token.Token{Type: token.LTE, Literal: "<=", Line: line, Column: col}
		case '>':
			l.readChar()
			tok = token.Token{Type: token.GTE, Literal: ">=", Line: line, Column: col}
		default:
			tok = newToken(token.ASSIGN, l.ch, line, col)
		}
	case '+':
		switch l.peekChar() {
		case '+':
			tok = l.twoCharToken(token.PLUS_PLUS)
		case '=':
			tok = l.twoCharToken(token.PLUS_EQ)
		default:
			tok = newToken(token.PLUS, l.ch, line, col)
		}
	case '-':
		switch l.peekChar() {
		case '-':
			tok = l.twoCharToken(token.MINUS_MINUS)
		case '=':
			tok = l.twoCharToken(token.MINUS_EQ)
		default:
			tok = newToken(token.MINUS, l.ch, line, col)
		}
	case '*':
		if l.peekChar() == '=' {
			tok = l.twoCharToken(token.STAR_EQ)
		} else {
			tok = newToken(token.ASTERISK, l.ch, line, col)
		}
	case '/':
		if l.peekChar() == '=' {
			tok = l.twoCharToken(token.SLASH_EQ)
		} else {
			tok = newToken(token.SLASH, l.ch, line, col)
		}
	case '!':
		if l.peekChar() == '=' {
			tok = l.twoCharToken(token.NOT_EQ)
		} else {
			tok = newToken(token.BANG, l.ch, line, col)
		}
	case '<':
		if l.peekChar() == '=' {
			tok = l.twoCharToken(token.LTE)
		} else if l.peekChar() == '>' {
			l.readChar()
			tok = token.Token{Type: token.NOT_EQ, Literal: "<>", Line: line, Column: col}
		} else {
			tok = newToken(token.LT, l.ch, line, col)
		}
	case '>':
		if l.peekChar() == '=' {
			tok = l.twoCharToken(token.GTE)
		} else {
			tok = newToken(token.GT, l.ch, line, col)
		}
	case '&':
		if l.peekChar() == '&' {
			tok = l.twoCharToken(token.AND)
		} else {
			tok = l.illegal(line, col)
		}
	case '|':
		if l.peekChar() == '|' {
			tok = l.twoCharToken(token.OR)
		} else {
			tok = l.illegal(line, col)
		}
	case '%':
		tok = newToken(token.PERCENT, l.ch, line, col)
	case '^':
		tok = newToken(token.CARET, l.ch, line, col)
	case ',':
		tok = newToken(token.COMMA, l.ch, line, col)
	case ':':
		tok = newToken(token.COLON, l.ch, line, col)
	case ';':
		tok = newToken(token.SEMICOLON, l.ch, line, col)
	case '(':
		tok = newToken(token.LPAREN, l.ch, line, col)
	case ')':
		tok = newToken(token.RPAREN, l.ch, line, col)
	case '.':
		if isDigit(l.peekChar()) {
			return l.readNumber(line, col)
		}
		tok = newToken(token.DOT, l.ch, line, col)
	case '{':
		tok = newToken(token.LBRACE, l.ch, line, col)
	case '}':
		tok = newToken(token.RBRACE, l.ch, line, col)
	case '[':
		tok = newToken(token.LBRACKET, l.ch, line, col)
	case ']':
		tok = newToken(token.RBRACKET, l.ch, line, col)
	case '#':
		tok = newToken(token.HASH, l.ch, line, col)
	case '"', '\'':
		lit, ok := l.readString(l.ch)
		if !ok {
			l.errorf(UnterminatedLiteral, line, col, "Unterminated literal")
			return token.Token{Type: token.ILLEGAL, Literal: lit, Line: line, Column: col}
		}
		tok = token.Token{Type: token.STRING, Literal: lit, Line: line, Column: col}
		if dateLiteral.MatchString(lit) {
			tok.Type = token.DATE
		}
	case 0:
		tok.Literal = ""
		tok.Type = token.EOF
		tok.Line = line
		tok.Column = col
		return tok
	default:
		if isLetter(l.ch) {
			tok.Literal = l.readIdentifier()
			tok.Type = token.LookupIdent(tok.Literal)
			tok.Line = line
			tok.Column = col
			return tok
		} else if isDigit(l.ch) {
			return l.readNumber(line, col)
		}
		tok = l.illegal(line, col)
	}

	l.readChar()
	return tok
}

func (l *Lexer) twoCharToken(t token.TokenType) token.Token {
	line, col := l.line, l.column
	ch := l.ch
	l.readChar()
	return token.Token{Type: t, Literal: string(ch) + string(l.ch), Line: line, Column: col}
}

func (l *Lexer) illegal(line, col int) token.Token {
	l.errorf(UnrecognizedCharacter, line, col, "Unrecognized character %q", l.ch)
	return newToken(token.ILLEGAL, l.ch, line, col)
}

func (l *Lexer) errorf(code string, line, col int, format string, a ...interface{}) {
	l.errors = append(l.errors, &Error{Code: code, Message: fmt.Sprintf(format, a...), Line: line, Column: col})
}

// skipWhitespaceAndComments returns false on an unterminated block comment.
func (l *Lexer) skipWhitespaceAndComments() bool {
	for {
		switch {
		case l.ch == '\n':
			l.newline()
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			line, col := l.line, l.column
			l.readChar()
			l.readChar()
			for !(l.ch == '*' && l.peekChar() == '/') {
				if l.ch == 0 {
					l.errorf(UnterminatedLiteral, line, col, "Unterminated literal")
					return false
				}
				if l.ch == '\n' {
					l.newline()
					continue
				}
				l.readChar()
			}
			l.readChar()
			l.readChar()
		default:
			return true
		}
	}
}

func (l *Lexer) newline() {
	l.readChar()
	l.line++
	l.column = 1
}

func newToken(tokenType token.TokenType, ch byte, line, col int) token.Token {
	return token.Token{Type: tokenType, Literal: string(ch), Line: line, Column: col}
}

// readIdentifier reads a lowercased identifier. Dotted segments are joined
// into one name, so `str.toUpper` and `j.name` are single tokens. A keyword
// segment is joined only when a call follows: `str.length(s)` names a
// builtin while `s.length` stays a property access.
func (l *Lexer) readIdentifier() string {
	var b strings.Builder
	b.WriteString(l.readSegment())
	for l.ch == '.' && isLetter(l.peekChar()) {
		end := l.readPosition
		for end < len(l.input) && (isLetter(l.input[end]) || isDigit(l.input[end])) {
			end++
		}
		next := l.input[l.readPosition:end]
		if token.IsKeyword(next) && !l.callFollows(end) {
			break
		}
		l.readChar()
		b.WriteByte('.')
		b.WriteString(l.readSegment())
	}
	return strings.ToLower(b.String())
}

// callFollows reports whether the next non-blank character at or after pos
// opens an argument list.
func (l *Lexer) callFollows(pos int) bool {
	for pos < len(l.input) && (l.input[pos] == ' ' || l.input[pos] == '\t') {
		pos++
	}
	return pos < len(l.input) && l.input[pos] == '('
}

func (l *Lexer) readSegment() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

// readNumber decides the literal kind from its form: int32 range integers
// are INT, wider integers or an `l` suffix are LONG, a decimal point or a
// `d`/`f` suffix is DOUBLE.
func (l *Lexer) readNumber(line, col int) token.Token {
	position := l.position
	isDouble := false
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		isDouble = true
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if (l.ch == 'e' || l.ch == 'E') && (isDigit(l.peekChar()) ||
		((l.peekChar() == '-' || l.peekChar() == '+') && isDigit(l.peekCharAt(1)))) {
		isDouble = true
		l.readChar()
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	literal := l.input[position:l.position]
	tok := token.Token{Literal: literal, Line: line, Column: col}

	switch l.ch {
	case 'd', 'D', 'f', 'F':
		l.readChar()
		tok.Type = token.DOUBLE
		return tok
	case 'l', 'L':
		if !isDouble {
			l.readChar()
			tok.Type = token.LONG
			return tok
		}
	}

	if isDouble {
		tok.Type = token.DOUBLE
		return tok
	}
	n, err := strconv.ParseInt(literal, 10, 64)
	switch {
	case err != nil:
		tok.Type = token.DOUBLE
	case n > math.MaxInt32:
		tok.Type = token.LONG
	default:
		tok.Type = token.INT
	}
	return tok
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// readString reads a quoted literal; the current char is the opening quote.
// On return the current char is the closing quote.
func (l *Lexer) readString(quote byte) (string, bool) {
	var result strings.Builder
	l.readChar() // Skip opening quote

	for l.ch != quote {
		switch l.ch {
		case 0:
			return result.String(), false
		case '\n':
			result.WriteByte('\n')
			l.line++
			l.readChar()
			l.column = 1
			continue
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				result.WriteByte('\n')
			case 't':
				result.WriteByte('\t')
			case 'r':
				result.WriteByte('\r')
			case 'b':
				result.WriteByte('\b')
			case 'f':
				result.WriteByte('\f')
			case '\\':
				result.WriteByte('\\')
			case '"':
				result.WriteByte('"')
			case '\'':
				result.WriteByte('\'')
			case 'u':
				result.WriteRune(l.readHex(4))
			case 'x':
				result.WriteRune(l.readHex(2))
			case 0:
				return result.String(), false
			default:
				// Unknown escape, just include the backslash and character
				result.WriteByte('\\')
				result.WriteByte(l.ch)
			}
		default:
			result.WriteByte(l.ch)
		}
		l.readChar()
	}

	return result.String(), true
}

// readHex consumes up to n hex digits after an escape letter. The current
// char is left on the last digit consumed.
func (l *Lexer) readHex(n int) rune {
	var r rune
	for i := 0; i < n && isHex(l.peekChar()); i++ {
		l.readChar()
		v, _ := strconv.ParseUint(string(l.ch), 16, 8)
		r = r<<4 | rune(v)
	}
	return r
}

func isHex(ch byte) bool {
	return isDigit(ch) || 'a' <= ch && ch <= 'f' || 'A' <= ch && ch <= 'F'
}
