// Package token defines the lexical token kinds that the lexer emits and the
// parser consumes.
package token

import "github.com/sald-lang/sald/internal/source"

type Kind int

const (
	EOF Kind = iota
	ILLEGAL

	// Literals
	NUMBER
	STRING
	RAW_STRING
	FORMAT_START // $"...{
	FORMAT_PART  // }...{
	FORMAT_END   // }..."
	IDENT

	// Keywords
	LET
	IF
	ELSE
	WHILE
	DO
	FOR
	IN
	FUN
	RETURN
	CLASS
	EXTENDS
	SUPER
	SELF
	BREAK
	CONTINUE
	IMPORT
	AS
	TRY
	CATCH
	THROW
	SWITCH
	DEFAULT
	ASYNC
	AWAIT
	NAMESPACE
	CONST
	ENUM
	INTERFACE
	IMPLEMENTS
	TRUE
	FALSE
	NULL

	// Operators & delimiters
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	BANG
	TILDE
	AMP
	PIPE
	CARET
	LSHIFT
	RSHIFT
	ASSIGN
	PLUS_ASSIGN
	MINUS_ASSIGN
	STAR_ASSIGN
	SLASH_ASSIGN
	PERCENT_ASSIGN
	EQ
	NEQ
	LT
	LE
	GT
	GE
	AND_AND
	OR_OR
	QUESTION_QUESTION
	QUESTION_DOT
	QUESTION
	ARROW  // ->
	FATARROW // =>
	DOTDOT    // ..
	DOTDOTLT  // ..<
	ELLIPSIS  // ...
	DOT
	COMMA
	COLON
	SEMICOLON
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
	AT // decorator sigil
	UNDERSCORE
)

var names = map[Kind]string{
	EOF: "EOF", ILLEGAL: "ILLEGAL", NUMBER: "NUMBER", STRING: "STRING",
	RAW_STRING: "RAW_STRING", FORMAT_START: "FORMAT_START", FORMAT_PART: "FORMAT_PART",
	FORMAT_END: "FORMAT_END", IDENT: "IDENT",
	LET: "let", IF: "if", ELSE: "else", WHILE: "while", DO: "do", FOR: "for", IN: "in",
	FUN: "fun", RETURN: "return", CLASS: "class", EXTENDS: "extends", SUPER: "super",
	SELF: "self", BREAK: "break", CONTINUE: "continue", IMPORT: "import", AS: "as",
	TRY: "try", CATCH: "catch", THROW: "throw", SWITCH: "switch", DEFAULT: "default",
	ASYNC: "async", AWAIT: "await", NAMESPACE: "namespace", CONST: "const", ENUM: "enum",
	INTERFACE: "interface", IMPLEMENTS: "implements", TRUE: "true", FALSE: "false", NULL: "null",
	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PERCENT: "%", BANG: "!", TILDE: "~",
	AMP: "&", PIPE: "|", CARET: "^", LSHIFT: "<<", RSHIFT: ">>",
	ASSIGN: "=", PLUS_ASSIGN: "+=", MINUS_ASSIGN: "-=", STAR_ASSIGN: "*=", SLASH_ASSIGN: "/=",
	PERCENT_ASSIGN: "%=",
	EQ: "==", NEQ: "!=", LT: "<", LE: "<=", GT: ">", GE: ">=",
	AND_AND: "&&", OR_OR: "||", QUESTION_QUESTION: "??", QUESTION_DOT: "?.", QUESTION: "?",
	ARROW: "->", FATARROW: "=>", DOTDOT: "..", DOTDOTLT: "..<", ELLIPSIS: "...",
	DOT: ".", COMMA: ",", COLON: ":", SEMICOLON: ";",
	LPAREN: "(", RPAREN: ")", LBRACE: "{", RBRACE: "}", LBRACKET: "[", RBRACKET: "]",
	AT: "@", UNDERSCORE: "_",
}

func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	return "UNKNOWN"
}

// Keywords maps reserved identifier text to its keyword Kind.
var Keywords = map[string]Kind{
	"let": LET, "if": IF, "else": ELSE, "while": WHILE, "do": DO, "for": FOR, "in": IN,
	"fun": FUN, "return": RETURN, "class": CLASS, "extends": EXTENDS, "super": SUPER,
	"self": SELF, "break": BREAK, "continue": CONTINUE, "import": IMPORT, "as": AS,
	"try": TRY, "catch": CATCH, "throw": THROW, "switch": SWITCH, "default": DEFAULT,
	"async": ASYNC, "await": AWAIT, "namespace": NAMESPACE, "const": CONST, "enum": ENUM,
	"interface": INTERFACE, "implements": IMPLEMENTS, "true": TRUE, "false": FALSE, "null": NULL,
}

func LookupIdent(ident string) Kind {
	if k, ok := Keywords[ident]; ok {
		return k
	}
	return IDENT
}

// Token is the unit the lexer produces and the parser consumes.
type Token struct {
	Kind   Kind
	Lexeme string      // raw source text
	Value  interface{} // decoded literal: float64 for NUMBER, string for STRING/RAW_STRING/FORMAT_*
	Span   source.Span
}

func (t Token) String() string {
	if t.Lexeme != "" {
		return t.Lexeme
	}
	return t.Kind.String()
}
