package parser

import (
	"github.com/sald-lang/sald/internal/ast"
	"github.com/sald-lang/sald/internal/token"
)

// parseSwitchPattern parses one pattern of a `switch` arm: a literal, a
// binding (optionally guarded by `if cond`), an array/dict destructuring
// pattern, a range, or a fallback arbitrary expression matched by equality.
func (p *Parser) parseSwitchPattern() ast.Pattern {
	start := p.curToken.Span

	switch p.curToken.Kind {
	case token.NUMBER, token.STRING, token.RAW_STRING, token.TRUE, token.FALSE, token.NULL:
		lit := p.parseLiteralForPattern()
		if p.peekIs(token.DOTDOT) || p.peekIs(token.DOTDOTLT) {
			p.next()
			inclusive := p.curIs(token.DOTDOT)
			p.next()
			end := p.parseExpression(ADDITIVE)
			return &ast.RangePattern{Sp: start, Start: &ast.Literal{Sp: lit.Sp, Kind: lit.Kind, Num: lit.Num, Str: lit.Str, Bool: lit.Bool}, End: end, Inclusive: inclusive}
		}
		return &ast.LiteralPattern{Sp: start, Lit: lit}

	case token.IDENT, token.UNDERSCORE:
		bp := &ast.BindingPattern{Sp: start, Name: p.curToken.Lexeme}
		if p.peekIs(token.IF) {
			p.next()
			p.next()
			bp.Guard = p.parseExpression(LOWEST)
		}
		return bp

	case token.LBRACKET:
		return p.parseArrayPattern()

	case token.LBRACE:
		return p.parseDictPattern()

	default:
		expr := p.parseExpression(TERNARY)
		return &ast.ExpressionPattern{Sp: start, Value: expr}
	}
}

func (p *Parser) parseLiteralForPattern() *ast.Literal {
	tok := p.curToken
	switch tok.Kind {
	case token.NUMBER:
		return &ast.Literal{Sp: tok.Span, Kind: ast.LitNumber, Num: tok.Value.(float64)}
	case token.STRING, token.RAW_STRING:
		return &ast.Literal{Sp: tok.Span, Kind: ast.LitString, Str: tok.Value.(string)}
	case token.TRUE, token.FALSE:
		return &ast.Literal{Sp: tok.Span, Kind: ast.LitBool, Bool: tok.Kind == token.TRUE}
	default:
		return &ast.Literal{Sp: tok.Span, Kind: ast.LitNull}
	}
}

func (p *Parser) parseArrayPattern() ast.Pattern {
	start := p.curToken.Span
	ap := &ast.ArrayPattern{Sp: start}
	p.next()
	for !p.curIs(token.RBRACKET) && !p.curIs(token.EOF) {
		if p.curIs(token.ELLIPSIS) {
			p.next()
			name := ""
			if p.curIs(token.IDENT) {
				name = p.curToken.Lexeme
			}
			ap.Elements = append(ap.Elements, ast.SwitchArrayElement{IsRest: true, Rest: name})
		} else {
			sub := p.parseSwitchPattern()
			ap.Elements = append(ap.Elements, ast.SwitchArrayElement{Single: sub})
		}
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
	return ap
}

func (p *Parser) parseDictPattern() ast.Pattern {
	start := p.curToken.Span
	dp := &ast.DictPattern{Sp: start}
	p.next()
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		if !p.curIs(token.IDENT) {
			p.errorf(p.curToken.Span, "expected key name in dictionary pattern")
			break
		}
		key := p.curToken.Lexeme
		var sub ast.Pattern = &ast.BindingPattern{Sp: p.curToken.Span, Name: key}
		if p.peekIs(token.COLON) {
			p.next()
			p.next()
			sub = p.parseSwitchPattern()
		}
		dp.Entries = append(dp.Entries, ast.DictPatternEntry{Key: key, Pattern: sub})
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
	return dp
}
