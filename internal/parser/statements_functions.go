package parser

import (
	"github.com/sald-lang/sald/internal/ast"
	"github.com/sald-lang/sald/internal/token"
)

// parseDecorated parses one or more leading `@Name(args?)` decorators and
// attaches them to the function or class declaration that follows.
func (p *Parser) parseDecorated() ast.Stmt {
	var decorators []ast.Decorator
	for p.curIs(token.AT) {
		start := p.curToken.Span
		if !p.expect(token.IDENT) {
			return nil
		}
		dec := ast.Decorator{Name: p.curToken.Lexeme, Span: start}
		if p.peekIs(token.LPAREN) {
			p.next()
			p.next()
			for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
				dec.Args = append(dec.Args, p.parseExpression(LOWEST))
				if p.peekIs(token.COMMA) {
					p.next()
					p.next()
				} else {
					p.next()
					break
				}
			}
		}
		decorators = append(decorators, dec)
		p.next()
	}
	switch p.curToken.Kind {
	case token.FUN:
		return p.parseFunctionStatement(decorators, false)
	case token.ASYNC:
		if !p.expect(token.FUN) {
			return nil
		}
		return p.parseFunctionStatement(decorators, true)
	case token.CLASS:
		return p.parseClassStatement(decorators)
	default:
		p.errorf(p.curToken.Span, "decorators may only precede a function or class declaration")
		return nil
	}
}

// parseFunctionStatement parses `fun name(params) { block }`.
func (p *Parser) parseFunctionStatement(decorators []ast.Decorator, isAsync bool) ast.Stmt {
	start := p.curToken.Span
	if !p.expect(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme
	if !p.expect(token.LPAREN) {
		return nil
	}
	params := p.parseParamList()
	if !p.expect(token.LBRACE) {
		return nil
	}
	body := p.parseBlockExpr()
	def := &ast.FunctionDef{
		Name: name, Params: params, Body: body, IsAsync: isAsync,
		Decorators: decorators, Span: start,
	}
	return &ast.Function{Sp: start, Def: def}
}

// parseClassStatement parses `class Name (extends Super)? (implements I, ...)? { members }`.
func (p *Parser) parseClassStatement(decorators []ast.Decorator) ast.Stmt {
	start := p.curToken.Span
	if !p.expect(token.IDENT) {
		return nil
	}
	def := &ast.ClassDef{Name: p.curToken.Lexeme, Decorators: decorators, Span: start}

	if p.peekIs(token.EXTENDS) {
		p.next()
		if !p.expect(token.IDENT) {
			return nil
		}
		def.Extends = p.curToken.Lexeme
	}
	if p.peekIs(token.IMPLEMENTS) {
		p.next()
		if !p.expect(token.IDENT) {
			return nil
		}
		def.Implements = append(def.Implements, p.curToken.Lexeme)
		for p.peekIs(token.COMMA) {
			p.next()
			if !p.expect(token.IDENT) {
				return nil
			}
			def.Implements = append(def.Implements, p.curToken.Lexeme)
		}
	}
	if !p.expect(token.LBRACE) {
		return nil
	}
	p.next()
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		if p.curIs(token.SEMICOLON) {
			p.next()
			continue
		}
		method := p.parseMethodDef()
		if method != nil {
			def.Methods = append(def.Methods, method)
		}
		if p.peekIs(token.SEMICOLON) {
			p.next()
		}
		p.next()
	}
	if !p.curIs(token.RBRACE) {
		p.errorf(p.curToken.Span, "expected '}'")
	}
	return &ast.Class{Sp: start, Def: def}
}

// parseMethodDef parses one class member: `[static] [async] name(params) { block }`.
func (p *Parser) parseMethodDef() *ast.MethodDef {
	start := p.curToken.Span
	isStatic := false
	if p.curIs(token.IDENT) && p.curToken.Lexeme == "static" {
		isStatic = true
		p.next()
	}
	isAsync := false
	if p.curIs(token.ASYNC) {
		isAsync = true
		p.next()
	}
	if !p.curIs(token.IDENT) && !p.curIs(token.SELF) {
		p.errorf(p.curToken.Span, "expected method name")
		return nil
	}
	name := p.curToken.Lexeme
	if !p.expect(token.LPAREN) {
		return nil
	}
	params := p.parseParamList()
	if !p.expect(token.LBRACE) {
		return nil
	}
	body := p.parseBlockExpr()
	def := &ast.FunctionDef{Name: name, Params: params, Body: body, IsAsync: isAsync, Span: start}
	return &ast.MethodDef{Def: def, IsStatic: isStatic}
}
