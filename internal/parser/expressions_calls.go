package parser

import (
	"github.com/sald-lang/sald/internal/ast"
	"github.com/sald-lang/sald/internal/token"
)

// parseArguments parses a comma-separated argument list up to (but not
// consuming) the closing delimiter, handling `name: value` and `...value`.
func (p *Parser) parseArguments(closer token.Kind) []ast.Argument {
	var args []ast.Argument
	p.next()
	for !p.curIs(closer) && !p.curIs(token.EOF) {
		var arg ast.Argument
		if p.curIs(token.ELLIPSIS) {
			p.next()
			arg.Spread = true
			arg.Value = p.parseExpression(LOWEST)
		} else if p.curIs(token.IDENT) && p.peekIs(token.COLON) {
			arg.Name = p.curToken.Lexeme
			p.next() // consume ident, cur = COLON
			p.next() // consume colon, cur = start of value
			arg.Value = p.parseExpression(LOWEST)
		} else {
			arg.Value = p.parseExpression(LOWEST)
		}
		args = append(args, arg)
		if p.peekIs(token.COMMA) {
			p.next()
			p.next()
		} else {
			p.next()
			break
		}
	}
	if !p.curIs(closer) {
		p.errorf(p.curToken.Span, "expected '%s'", closer)
	}
	return args
}

func (p *Parser) parseCall(callee ast.Expr) ast.Expr {
	start := p.curToken.Span
	args := p.parseArguments(token.RPAREN)
	return &ast.Call{Sp: start, Callee: callee, Args: args}
}

func (p *Parser) parseIndex(obj ast.Expr) ast.Expr {
	start := p.curToken.Span
	p.next()
	idx := p.parseExpression(LOWEST)
	if !p.expect(token.RBRACKET) {
		return nil
	}
	return &ast.Index{Sp: start, Object: obj, Index: idx}
}

func (p *Parser) parseGet(obj ast.Expr) ast.Expr {
	start := p.curToken.Span
	if !p.expect(token.IDENT) {
		return nil
	}
	return &ast.Get{Sp: start, Object: obj, Prop: p.curToken.Lexeme}
}

// parseOptionalGetOrCall handles `?.name`, `?.(args)`, `?.[index]` — the
// three optional-chaining postfix forms, distinguished by what follows `?.`.
func (p *Parser) parseOptionalGetOrCall(obj ast.Expr) ast.Expr {
	start := p.curToken.Span
	switch p.peekToken.Kind {
	case token.LPAREN:
		p.next()
		args := p.parseArguments(token.RPAREN)
		return &ast.Call{Sp: start, Callee: obj, Args: args, IsOptional: true}
	case token.LBRACKET:
		p.next()
		p.next()
		idx := p.parseExpression(LOWEST)
		if !p.expect(token.RBRACKET) {
			return nil
		}
		return &ast.Index{Sp: start, Object: obj, Index: idx, IsOptional: true}
	default:
		if !p.expect(token.IDENT) {
			return nil
		}
		return &ast.Get{Sp: start, Object: obj, Prop: p.curToken.Lexeme, IsOptional: true}
	}
}
