package token

import (
	"fmt"
	"strings"
)

type TokenType string

const (
	// Special
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers & Literals
	IDENT  = "IDENT"
	INT    = "INT"
	LONG   = "LONG"
	DOUBLE = "DOUBLE"
	STRING = "STRING"
	DATE   = "DATE"

	// Operators
	ASSIGN      = "="
	PLUS        = "+"
	MINUS       = "-"
	BANG        = "!"
	ASTERISK    = "*"
	SLASH       = "/"
	PERCENT     = "%"
	CARET       = "^"
	PLUS_PLUS   = "++"
	MINUS_MINUS = "--"
	PLUS_EQ     = "+="
	MINUS_EQ    = "-="
	STAR_EQ     = "*="
	SLASH_EQ    = "/="

	LT     = "<"
	GT     = ">"
	EQ     = "=="
	NOT_EQ = "!="
	LTE    = "<="
	GTE    = ">="

	AND = "AND"
	OR  = "OR"

	// Delimiters
	COMMA     = ","
	SEMICOLON = ";"
	COLON     = ":"
	LPAREN    = "("
	RPAREN    = ")"
	LBRACE    = "{"
	RBRACE    = "}"
	LBRACKET  = "["
	RBRACKET  = "]"
	DOT       = "."
	HASH      = "#"

	// Keywords
	VAR        = "VAR"
	CONST      = "CONST"
	FUNCTION   = "FUNCTION"
	RETURN     = "RETURN"
	IF         = "IF"
	THEN       = "THEN"
	ELSE       = "ELSE"
	WHILE      = "WHILE"
	DO         = "DO"
	FOR        = "FOR"
	FOREACH    = "FOREACH"
	IN         = "IN"
	BREAK      = "BREAK"
	CONTINUE   = "CONTINUE"
	PRINT      = "PRINT"
	CALL       = "CALL"
	IMPORT     = "IMPORT"
	TYPEOF     = "TYPEOF"
	TRY        = "TRY"
	EXCEPTIONS = "EXCEPTIONS"
	WHEN       = "WHEN"
	RAISE      = "RAISE"
	EXCEPTION  = "EXCEPTION"
	TRUE       = "TRUE"
	FALSE      = "FALSE"
	NULL       = "NULL"
	LENGTH     = "LENGTH"

	// Type names. The literal keeps the spelling used in source.
	TYPE = "TYPE"
)

type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

func (t Token) String() string {
	return fmt.Sprintf("Token(%s, %q, %d:%d)", t.Type, t.Literal, t.Line, t.Column)
}

var keywords = map[string]TokenType{
	"var":        VAR,
	"const":      CONST,
	"function":   FUNCTION,
	"return":     RETURN,
	"if":         IF,
	"then":       THEN,
	"else":       ELSE,
	"while":      WHILE,
	"do":         DO,
	"for":        FOR,
	"foreach":    FOREACH,
	"in":         IN,
	"break":      BREAK,
	"continue":   CONTINUE,
	"print":      PRINT,
	"call":       CALL,
	"import":     IMPORT,
	"typeof":     TYPEOF,
	"try":        TRY,
	"exceptions": EXCEPTIONS,
	"when":       WHEN,
	"raise":      RAISE,
	"exception":  EXCEPTION,
	"true":       TRUE,
	"false":      FALSE,
	"null":       NULL,
	"and":        AND,
	"or":         OR,
	"length":     LENGTH,
	"size":       LENGTH,
}

// typeNames maps the declarable type spellings onto their canonical name.
var typeNames = map[string]string{
	"byte":         "byte",
	"int":          "int",
	"integer":      "int",
	"long":         "long",
	"float":        "double",
	"double":       "double",
	"string":       "string",
	"date":         "date",
	"bool":         "bool",
	"boolean":      "bool",
	"json":         "json",
	"map":          "map",
	"record":       "record",
	"array":        "array",
	"queue":        "queue",
	"bitmap":       "bitmap",
	"intmap":       "intmap",
	"image":        "image",
	"vector_image": "vectorimage",
	"canvas":       "canvas",
	"any":          "any",
}

// LookupIdent classifies a lowercased identifier.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	if _, ok := typeNames[ident]; ok {
		return TYPE
	}
	return IDENT
}

// IsKeyword reports whether ident is reserved and must not be merged into a
// dotted name.
func IsKeyword(ident string) bool {
	_, ok := keywords[strings.ToLower(ident)]
	return ok
}

// CanonicalType returns the canonical type name for a type keyword.
func CanonicalType(name string) (string, bool) {
	t, ok := typeNames[strings.ToLower(name)]
	return t, ok
}
