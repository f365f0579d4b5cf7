// Package parser turns a token stream into an AST, one *ast.Program per
// source file. Grounded on the teacher's Pratt/recursive-descent hybrid
// (curToken/peekToken lookahead, prefix/infix parse-function tables keyed by
// token kind, precedence climbing via parseExpression(precedence)), adapted
// to Sald's grammar and to internal/source.SaldError instead of the
// teacher's diagnostics package.
package parser

import (
	"github.com/sald-lang/sald/internal/ast"
	"github.com/sald-lang/sald/internal/lexer"
	"github.com/sald-lang/sald/internal/source"
	"github.com/sald-lang/sald/internal/token"
)

const (
	LOWEST int = iota
	ASSIGNMENT
	TERNARY
	NULLCOALESCE
	LOGICAL_OR
	LOGICAL_AND
	EQUALITY
	COMPARISON
	BITOR
	BITXOR
	BITAND
	SHIFT
	ADDITIVE
	MULTIPLICATIVE
	UNARY
	POSTFIX
)

var precedences = map[token.Kind]int{
	token.FATARROW:          ASSIGNMENT,
	token.ASSIGN:            ASSIGNMENT,
	token.PLUS_ASSIGN:       ASSIGNMENT,
	token.MINUS_ASSIGN:      ASSIGNMENT,
	token.STAR_ASSIGN:       ASSIGNMENT,
	token.SLASH_ASSIGN:      ASSIGNMENT,
	token.PERCENT_ASSIGN:    ASSIGNMENT,
	token.QUESTION:          TERNARY,
	token.QUESTION_QUESTION: NULLCOALESCE,
	token.OR_OR:             LOGICAL_OR,
	token.AND_AND:           LOGICAL_AND,
	token.EQ:                EQUALITY,
	token.NEQ:               EQUALITY,
	token.LT:                COMPARISON,
	token.LE:                COMPARISON,
	token.GT:                COMPARISON,
	token.GE:                COMPARISON,
	token.PIPE:              BITOR,
	token.CARET:             BITXOR,
	token.AMP:                BITAND,
	token.LSHIFT:            SHIFT,
	token.RSHIFT:            SHIFT,
	token.DOTDOT:            ADDITIVE,
	token.DOTDOTLT:          ADDITIVE,
	token.PLUS:              ADDITIVE,
	token.MINUS:             ADDITIVE,
	token.STAR:              MULTIPLICATIVE,
	token.SLASH:             MULTIPLICATIVE,
	token.PERCENT:           MULTIPLICATIVE,
	token.LPAREN:            POSTFIX,
	token.LBRACKET:          POSTFIX,
	token.DOT:               POSTFIX,
	token.QUESTION_DOT:      POSTFIX,
}

// Parser consumes tokens from a lexer and produces *ast.Program.
type Parser struct {
	lex *lexer.Lexer
	file string

	curToken  token.Token
	peekToken token.Token

	errors []*source.SaldError

	prefixParseFns map[token.Kind]func() ast.Expr
	infixParseFns  map[token.Kind]func(ast.Expr) ast.Expr
}

// New creates a Parser reading from src, tagging diagnostics with file.
func New(file, src string) *Parser {
	p := &Parser{lex: lexer.New(src), file: file}

	p.prefixParseFns = map[token.Kind]func() ast.Expr{}
	p.infixParseFns = map[token.Kind]func(ast.Expr) ast.Expr{}

	p.registerPrefix(token.NUMBER, p.parseNumberLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.RAW_STRING, p.parseStringLiteral)
	p.registerPrefix(token.FORMAT_START, p.parseFormatString)
	p.registerPrefix(token.TRUE, p.parseBoolLiteral)
	p.registerPrefix(token.FALSE, p.parseBoolLiteral)
	p.registerPrefix(token.NULL, p.parseNullLiteral)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.UNDERSCORE, p.parseIdentifier)
	p.registerPrefix(token.SELF, p.parseSelfExpr)
	p.registerPrefix(token.SUPER, p.parseSuper)
	p.registerPrefix(token.MINUS, p.parseUnary)
	p.registerPrefix(token.BANG, p.parseUnary)
	p.registerPrefix(token.TILDE, p.parseUnary)
	p.registerPrefix(token.LPAREN, p.parseGroupingOrLambda)
	p.registerPrefix(token.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(token.LBRACE, p.parseDictionaryLiteral)
	p.registerPrefix(token.FUN, p.parseLambdaKeywordForm)
	p.registerPrefix(token.ASYNC, p.parseAsyncLambda)
	p.registerPrefix(token.SWITCH, p.parseSwitchExpr)
	p.registerPrefix(token.AWAIT, p.parseAwait)
	p.registerPrefix(token.THROW, p.parseThrowExpr)
	p.registerPrefix(token.RETURN, p.parseReturnExpr)
	p.registerPrefix(token.BREAK, p.parseBreakExpr)
	p.registerPrefix(token.CONTINUE, p.parseContinueExpr)
	p.registerPrefix(token.ELLIPSIS, p.parseSpread)

	p.registerInfix(token.PLUS, p.parseBinary)
	p.registerInfix(token.MINUS, p.parseBinary)
	p.registerInfix(token.STAR, p.parseBinary)
	p.registerInfix(token.SLASH, p.parseBinary)
	p.registerInfix(token.PERCENT, p.parseBinary)
	p.registerInfix(token.EQ, p.parseBinary)
	p.registerInfix(token.NEQ, p.parseBinary)
	p.registerInfix(token.LT, p.parseBinary)
	p.registerInfix(token.LE, p.parseBinary)
	p.registerInfix(token.GT, p.parseBinary)
	p.registerInfix(token.GE, p.parseBinary)
	p.registerInfix(token.AND_AND, p.parseBinary)
	p.registerInfix(token.OR_OR, p.parseBinary)
	p.registerInfix(token.QUESTION_QUESTION, p.parseBinary)
	p.registerInfix(token.PIPE, p.parseBinary)
	p.registerInfix(token.CARET, p.parseBinary)
	p.registerInfix(token.AMP, p.parseBinary)
	p.registerInfix(token.LSHIFT, p.parseBinary)
	p.registerInfix(token.RSHIFT, p.parseBinary)
	p.registerInfix(token.DOTDOT, p.parseRange)
	p.registerInfix(token.DOTDOTLT, p.parseRange)
	p.registerInfix(token.ASSIGN, p.parseAssignment)
	p.registerInfix(token.PLUS_ASSIGN, p.parseAssignment)
	p.registerInfix(token.MINUS_ASSIGN, p.parseAssignment)
	p.registerInfix(token.STAR_ASSIGN, p.parseAssignment)
	p.registerInfix(token.SLASH_ASSIGN, p.parseAssignment)
	p.registerInfix(token.PERCENT_ASSIGN, p.parseAssignment)
	p.registerInfix(token.QUESTION, p.parseTernary)
	p.registerInfix(token.LPAREN, p.parseCall)
	p.registerInfix(token.LBRACKET, p.parseIndex)
	p.registerInfix(token.DOT, p.parseGet)
	p.registerInfix(token.QUESTION_DOT, p.parseOptionalGetOrCall)
	p.registerInfix(token.FATARROW, p.parseBareLambda)

	p.next()
	p.next()
	return p
}

func (p *Parser) registerPrefix(k token.Kind, fn func() ast.Expr)           { p.prefixParseFns[k] = fn }
func (p *Parser) registerInfix(k token.Kind, fn func(ast.Expr) ast.Expr) { p.infixParseFns[k] = fn }

// Errors returns all diagnostics accumulated while parsing.
func (p *Parser) Errors() []*source.SaldError { return p.errors }

func (p *Parser) next() {
	p.curToken = p.peekToken
	tok, err := p.lex.NextToken()
	if err != nil {
		err.File = p.file
		p.errors = append(p.errors, err)
		tok = token.Token{Kind: token.EOF, Span: tok.Span}
	}
	p.peekToken = tok
}

func (p *Parser) curIs(k token.Kind) bool  { return p.curToken.Kind == k }
func (p *Parser) peekIs(k token.Kind) bool { return p.peekToken.Kind == k }

func (p *Parser) expect(k token.Kind) bool {
	if p.peekIs(k) {
		p.next()
		return true
	}
	p.errorf(p.peekToken.Span, "expected %s, got %s", k, p.peekToken.Kind)
	return false
}

func (p *Parser) errorf(sp source.Span, format string, args ...interface{}) {
	p.errors = append(p.errors, source.New(source.SyntaxError, p.file, sp, format, args...))
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekToken.Kind]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curToken.Kind]; ok {
		return pr
	}
	return LOWEST
}

// ParseProgram parses the whole token stream into a *ast.Program. Parse
// errors are recorded via Errors() and parsing continues past a statement
// boundary on failure.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{File: p.file}
	for !p.curIs(token.EOF) {
		before := p.curToken.Span
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Stmts = append(prog.Stmts, stmt)
			p.advancePastStatement()
		} else if p.curToken.Span == before {
			p.synchronize()
		}
	}
	return prog
}

// advancePastStatement moves past a just-parsed statement's optional ';'
// terminator (or, for brace-terminated statements, past the closing brace
// parseStatement left curToken sitting on) so the caller's loop lands on the
// first token of whatever comes next.
func (p *Parser) advancePastStatement() {
	if p.curIs(token.EOF) {
		return
	}
	if p.peekIs(token.SEMICOLON) {
		p.next()
	}
	p.next()
}

func (p *Parser) synchronize() {
	for !p.curIs(token.EOF) {
		if p.curIs(token.SEMICOLON) {
			p.next()
			return
		}
		switch p.peekToken.Kind {
		case token.LET, token.FUN, token.CLASS, token.IF, token.WHILE, token.FOR,
			token.RETURN, token.IMPORT, token.NAMESPACE, token.CONST, token.ENUM,
			token.INTERFACE, token.TRY, token.SWITCH:
			p.next()
			return
		}
		p.next()
	}
}
