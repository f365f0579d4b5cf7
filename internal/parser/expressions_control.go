package parser

import (
	"github.com/sald-lang/sald/internal/ast"
	"github.com/sald-lang/sald/internal/token"
)

// parseBareLambda handles the no-paren single-param lambda form `x => expr`,
// triggered when a plain Identifier is immediately followed by '=>'.
func (p *Parser) parseBareLambda(left ast.Expr) ast.Expr {
	ident, ok := left.(*ast.Identifier)
	if !ok {
		p.errorf(p.curToken.Span, "'=>' may only follow a single parameter name here")
		return left
	}
	start := p.curToken.Span
	p.next()
	body := p.parseExpression(ASSIGNMENT - 1)
	return &ast.Lambda{
		Sp:     start,
		Params: []ast.FunctionParam{{Name: ident.Name, Span: ident.Sp}},
		Body:   body,
	}
}

func (p *Parser) parseSwitchExpr() ast.Expr {
	start := p.curToken.Span
	p.next()
	value := p.parseExpression(LOWEST)
	if !p.expect(token.LBRACE) {
		return nil
	}
	sw := &ast.Switch{Sp: start, Value: value}
	p.next()
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		if p.curIs(token.DEFAULT) {
			if !p.expect(token.FATARROW) {
				return nil
			}
			p.next()
			sw.Default = p.parseExpression(LOWEST)
		} else {
			armStart := p.curToken.Span
			var patterns []ast.Pattern
			patterns = append(patterns, p.parseSwitchPattern())
			for p.peekIs(token.COMMA) {
				p.next()
				p.next()
				patterns = append(patterns, p.parseSwitchPattern())
			}
			if !p.expect(token.FATARROW) {
				return nil
			}
			p.next()
			body := p.parseExpression(LOWEST)
			sw.Arms = append(sw.Arms, ast.SwitchArm{Patterns: patterns, Body: body, Span: armStart})
		}
		if p.peekIs(token.COMMA) {
			p.next()
		}
		p.next()
	}
	if !p.curIs(token.RBRACE) {
		p.errorf(p.curToken.Span, "expected '}'")
	}
	return sw
}

func (p *Parser) parseAwait() ast.Expr {
	start := p.curToken.Span
	p.next()
	val := p.parseExpression(UNARY)
	return &ast.Await{Sp: start, Value: val}
}

func (p *Parser) parseThrowExpr() ast.Expr {
	start := p.curToken.Span
	p.next()
	val := p.parseExpression(LOWEST)
	return &ast.Throw{Sp: start, Value: val}
}

func (p *Parser) parseReturnExpr() ast.Expr {
	start := p.curToken.Span
	if p.peekIs(token.SEMICOLON) || p.peekIs(token.RBRACE) || p.peekIs(token.EOF) {
		return &ast.Return{Sp: start}
	}
	p.next()
	val := p.parseExpression(LOWEST)
	return &ast.Return{Sp: start, Value: val}
}

func (p *Parser) parseBreakExpr() ast.Expr    { return &ast.Break{Sp: p.curToken.Span} }
func (p *Parser) parseContinueExpr() ast.Expr { return &ast.Continue{Sp: p.curToken.Span} }
