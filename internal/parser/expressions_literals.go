package parser

import (
	"github.com/sald-lang/sald/internal/ast"
	"github.com/sald-lang/sald/internal/token"
)

func (p *Parser) parseExpression(precedence int) ast.Expr {
	prefix := p.prefixParseFns[p.curToken.Kind]
	if prefix == nil {
		p.errorf(p.curToken.Span, "unexpected token %s", p.curToken.Kind)
		return nil
	}
	left := prefix()

	for !p.peekIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Kind]
		if infix == nil {
			return left
		}
		p.next()
		left = infix(left)
		if left == nil {
			return nil
		}
	}
	return left
}

func (p *Parser) parseNumberLiteral() ast.Expr {
	tok := p.curToken
	return &ast.Literal{Sp: tok.Span, Kind: ast.LitNumber, Num: tok.Value.(float64)}
}

func (p *Parser) parseStringLiteral() ast.Expr {
	tok := p.curToken
	return &ast.Literal{Sp: tok.Span, Kind: ast.LitString, Str: tok.Value.(string)}
}

func (p *Parser) parseBoolLiteral() ast.Expr {
	tok := p.curToken
	return &ast.Literal{Sp: tok.Span, Kind: ast.LitBool, Bool: tok.Kind == token.TRUE}
}

func (p *Parser) parseNullLiteral() ast.Expr {
	return &ast.Literal{Sp: p.curToken.Span, Kind: ast.LitNull}
}

func (p *Parser) parseIdentifier() ast.Expr {
	return &ast.Identifier{Sp: p.curToken.Span, Name: p.curToken.Lexeme}
}

func (p *Parser) parseSelfExpr() ast.Expr {
	return &ast.SelfExpr{Sp: p.curToken.Span}
}

func (p *Parser) parseSuper() ast.Expr {
	start := p.curToken.Span
	if !p.expect(token.DOT) {
		return nil
	}
	if !p.expect(token.IDENT) {
		return nil
	}
	return &ast.Super{Sp: start, Method: p.curToken.Lexeme}
}

// parseFormatString consumes FORMAT_START (IDENT|expr FORMAT_PART)* FORMAT_END,
// tracking brace nesting on the lexer so embedded `{` `}` don't prematurely
// close the interpolated segment.
func (p *Parser) parseFormatString() ast.Expr {
	start := p.curToken.Span
	fs := &ast.FormatString{Sp: start}
	fs.Parts = append(fs.Parts, p.curToken.Value.(string))

	for {
		p.next() // move onto the start of the embedded expression
		expr := p.parseExpression(LOWEST)
		fs.Exprs = append(fs.Exprs, expr)
		if !p.peekIs(token.FORMAT_PART) && !p.peekIs(token.FORMAT_END) {
			p.errorf(p.peekToken.Span, "expected '}' to close interpolated expression")
			break
		}
		p.next() // consume FORMAT_PART / FORMAT_END
		fs.Parts = append(fs.Parts, p.curToken.Value.(string))
		if p.curIs(token.FORMAT_END) {
			break
		}
	}
	return fs
}

func (p *Parser) parseUnary() ast.Expr {
	tok := p.curToken
	p.next()
	operand := p.parseExpression(UNARY)
	return &ast.Unary{Sp: tok.Span, Op: tok.Kind.String(), Operand: operand}
}

func (p *Parser) parseBinary(left ast.Expr) ast.Expr {
	tok := p.curToken
	precedence := p.curPrecedence()
	p.next()
	right := p.parseExpression(precedence)
	return &ast.Binary{Sp: tok.Span, Op: tok.Kind.String(), Left: left, Right: right}
}

func (p *Parser) parseRange(left ast.Expr) ast.Expr {
	tok := p.curToken
	inclusive := tok.Kind == token.DOTDOT
	p.next()
	right := p.parseExpression(ADDITIVE)
	return &ast.Range{Sp: tok.Span, Start: left, End: right, Inclusive: inclusive}
}

func (p *Parser) parseTernary(cond ast.Expr) ast.Expr {
	tok := p.curToken
	p.next()
	thenExpr := p.parseExpression(TERNARY)
	if !p.expect(token.COLON) {
		return nil
	}
	p.next()
	elseExpr := p.parseExpression(TERNARY)
	return &ast.Ternary{Sp: tok.Span, Cond: cond, Then: thenExpr, Else: elseExpr}
}

func (p *Parser) parseSpread() ast.Expr {
	tok := p.curToken
	p.next()
	val := p.parseExpression(UNARY)
	return &ast.Spread{Sp: tok.Span, Value: val}
}

func (p *Parser) parseAssignment(left ast.Expr) ast.Expr {
	tok := p.curToken
	switch left.(type) {
	case *ast.Identifier, *ast.Get, *ast.Index:
	default:
		p.errorf(tok.Span, "invalid assignment target")
	}
	p.next()
	value := p.parseExpression(ASSIGNMENT - 1)

	if idx, ok := left.(*ast.Index); ok {
		return &ast.IndexSet{Sp: tok.Span, Object: idx.Object, Index: idx.Index, Value: value}
	}
	if get, ok := left.(*ast.Get); ok && tok.Kind == token.ASSIGN {
		return &ast.Set{Sp: tok.Span, Object: get.Object, Prop: get.Prop, Value: value}
	}
	return &ast.Assignment{Sp: tok.Span, Target: left, Op: tok.Kind.String(), Value: value}
}

func (p *Parser) parseArrayLiteral() ast.Expr {
	start := p.curToken.Span
	var elems []ast.Expr
	p.next()
	for !p.curIs(token.RBRACKET) && !p.curIs(token.EOF) {
		elems = append(elems, p.parseExpression(LOWEST))
		if p.peekIs(token.COMMA) {
			p.next()
			p.next()
		} else {
			p.next()
			break
		}
	}
	if !p.curIs(token.RBRACKET) {
		p.errorf(p.curToken.Span, "expected ']'")
	}
	return &ast.Array{Sp: start, Elements: elems}
}

func (p *Parser) parseDictionaryLiteral() ast.Expr {
	start := p.curToken.Span
	var entries []ast.DictEntry
	p.next()
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		var key ast.Expr
		if p.curIs(token.IDENT) && p.peekIs(token.COLON) {
			key = &ast.Literal{Sp: p.curToken.Span, Kind: ast.LitString, Str: p.curToken.Lexeme}
			p.next()
		} else if p.curIs(token.LBRACKET) {
			p.next()
			key = p.parseExpression(LOWEST)
			if !p.expect(token.RBRACKET) {
				return nil
			}
		} else {
			key = p.parseExpression(LOWEST)
		}
		if !p.expect(token.COLON) {
			return nil
		}
		p.next()
		val := p.parseExpression(LOWEST)
		entries = append(entries, ast.DictEntry{Key: key, Value: val})
		if p.peekIs(token.COMMA) {
			p.next()
			p.next()
		} else {
			p.next()
			break
		}
	}
	if !p.curIs(token.RBRACE) {
		p.errorf(p.curToken.Span, "expected '}'")
	}
	return &ast.Dictionary{Sp: start, Entries: entries}
}
