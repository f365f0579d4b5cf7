package parser

import (
	"github.com/sald-lang/sald/internal/ast"
	"github.com/sald-lang/sald/internal/token"
)

// parseGroupingOrLambda disambiguates `(expr)` from the two parenthesized
// lambda forms `(params) => expr` / `(params) -> { block }` by parsing the
// parenthesized contents as a generic expression list first, then deciding
// based on what follows the closing paren.
func (p *Parser) parseGroupingOrLambda() ast.Expr {
	start := p.curToken.Span
	var elems []ast.Expr
	p.next()
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		elems = append(elems, p.parseExpression(LOWEST))
		if p.peekIs(token.COMMA) {
			p.next()
			p.next()
		} else {
			p.next()
			break
		}
	}
	if !p.curIs(token.RPAREN) {
		p.errorf(p.curToken.Span, "expected ')'")
		return nil
	}

	if p.peekIs(token.FATARROW) {
		params := toParams(p, elems)
		p.next() // consume =>
		p.next()
		body := p.parseExpression(ASSIGNMENT - 1)
		return &ast.Lambda{Sp: start, Params: params, Body: body}
	}
	if p.peekIs(token.ARROW) {
		params := toParams(p, elems)
		p.next() // consume ->
		if !p.expect(token.LBRACE) {
			return nil
		}
		block := p.parseBlockExpr()
		return &ast.Lambda{Sp: start, Params: params, Body: block}
	}

	switch len(elems) {
	case 0:
		p.errorf(start, "empty parentheses must be followed by '=>' or '->'")
		return nil
	case 1:
		return &ast.Grouping{Sp: start, Inner: elems[0]}
	default:
		p.errorf(start, "unexpected ',' in parenthesized expression")
		return elems[0]
	}
}

// toParams converts a generic expression list parsed inside `( ... )` into
// lambda/function parameters: bare identifiers, `name = default`, or
// `...name` variadic (which must be last).
func toParams(p *Parser, elems []ast.Expr) []ast.FunctionParam {
	params := make([]ast.FunctionParam, 0, len(elems))
	for _, e := range elems {
		switch v := e.(type) {
		case *ast.Identifier:
			params = append(params, ast.FunctionParam{Name: v.Name, Span: v.Sp})
		case *ast.Assignment:
			ident, ok := v.Target.(*ast.Identifier)
			if !ok {
				p.errorf(v.Sp, "invalid parameter")
				continue
			}
			params = append(params, ast.FunctionParam{Name: ident.Name, DefaultValue: v.Value, Span: v.Sp})
		case *ast.Spread:
			ident, ok := v.Value.(*ast.Identifier)
			if !ok {
				p.errorf(v.Sp, "invalid variadic parameter")
				continue
			}
			params = append(params, ast.FunctionParam{Name: ident.Name, IsVariadic: true, Span: v.Sp})
		default:
			p.errorf(e.Span(), "invalid parameter")
		}
	}
	return params
}

// parseLambdaKeywordForm parses the bare `fun (params) { block }` anonymous
// function expression (as opposed to `fun name(...) { ... }` which is only
// valid as a statement and is parsed in statements_functions.go).
func (p *Parser) parseLambdaKeywordForm() ast.Expr {
	start := p.curToken.Span
	if !p.expect(token.LPAREN) {
		return nil
	}
	params := p.parseParamList()
	if !p.expect(token.LBRACE) {
		return nil
	}
	block := p.parseBlockExpr()
	return &ast.Lambda{Sp: start, Params: params, Body: block}
}

func (p *Parser) parseAsyncLambda() ast.Expr {
	start := p.curToken.Span
	p.next()
	var lam *ast.Lambda
	switch e := p.parseExpression(UNARY).(type) {
	case *ast.Lambda:
		lam = e
	default:
		p.errorf(start, "'async' must be followed by a function or lambda")
		return e
	}
	lam.Sp = start
	lam.IsAsync = true
	return lam
}

// parseParamList parses `name, name = default, ...rest` between an already
// consumed '(' and its matching ')'.
func (p *Parser) parseParamList() []ast.FunctionParam {
	var params []ast.FunctionParam
	p.next()
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		variadic := false
		if p.curIs(token.ELLIPSIS) {
			variadic = true
			p.next()
		}
		if !p.curIs(token.IDENT) {
			p.errorf(p.curToken.Span, "expected parameter name")
			break
		}
		param := ast.FunctionParam{Name: p.curToken.Lexeme, IsVariadic: variadic, Span: p.curToken.Span}
		if p.peekIs(token.ASSIGN) {
			p.next()
			p.next()
			param.DefaultValue = p.parseExpression(ASSIGNMENT - 1)
		}
		params = append(params, param)
		if p.peekIs(token.COMMA) {
			p.next()
			p.next()
		} else {
			p.next()
			break
		}
	}
	return params
}

// parseBlockExpr parses statements up to and including the closing '}' of
// an already-opened block (curToken == LBRACE on entry). A block is an
// expression: its value is the trailing bare-expression statement, if any.
func (p *Parser) parseBlockExpr() *ast.Block {
	start := p.curToken.Span
	block := &ast.Block{Sp: start}
	p.next()
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt == nil {
			continue
		}
		// A trailing expression statement with no ';' before '}' becomes the
		// block's tail value instead of a discarded statement.
		if es, ok := stmt.(*ast.ExpressionStmt); ok && p.peekIs(token.RBRACE) {
			block.Tail = es.Expr
			p.next()
			continue
		}
		block.Stmts = append(block.Stmts, stmt)
		p.advancePastStatement()
	}
	if !p.curIs(token.RBRACE) {
		p.errorf(p.curToken.Span, "expected '}'")
	}
	return block
}
