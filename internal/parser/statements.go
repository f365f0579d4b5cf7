package parser

import (
	"github.com/sald-lang/sald/internal/ast"
	"github.com/sald-lang/sald/internal/source"
	"github.com/sald-lang/sald/internal/token"
)

// parseStatement parses one statement. On return, curToken is the last
// token consumed by the statement (its terminating ';' is consumed by the
// caller, ParseProgram/parseBlockExpr, so callers can detect a following
// '}' for block-tail-expression purposes).
func (p *Parser) parseStatement() ast.Stmt {
	switch p.curToken.Kind {
	case token.LET:
		return p.parseLetStatement()
	case token.FUN:
		return p.parseFunctionStatement(nil, false)
	case token.ASYNC:
		if !p.expect(token.FUN) {
			return nil
		}
		return p.parseFunctionStatement(nil, true)
	case token.CLASS:
		return p.parseClassStatement(nil)
	case token.AT:
		return p.parseDecorated()
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.DO:
		return p.parseDoWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.IMPORT:
		return p.parseImportStatement()
	case token.TRY:
		return p.parseTryCatchStatement()
	case token.NAMESPACE:
		return p.parseNamespaceStatement()
	case token.CONST:
		return p.parseConstStatement()
	case token.ENUM:
		return p.parseEnumStatement()
	case token.INTERFACE:
		return p.parseInterfaceStatement()
	case token.RETURN:
		return p.parseReturnExpr().(ast.Stmt)
	case token.THROW:
		return p.parseThrowExpr().(ast.Stmt)
	case token.BREAK:
		return p.parseBreakExpr().(ast.Stmt)
	case token.CONTINUE:
		return p.parseContinueExpr().(ast.Stmt)
	case token.LBRACE:
		return p.parseBlockExpr()
	case token.SEMICOLON:
		p.next()
		return nil
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseExpressionStatement() ast.Stmt {
	start := p.curToken.Span
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		p.synchronize()
		return nil
	}
	return &ast.ExpressionStmt{Sp: start, Expr: expr}
}

func (p *Parser) parseLetStatement() ast.Stmt {
	start := p.curToken.Span

	if p.peekIs(token.LBRACKET) {
		return p.parseArrayDestructureLet(start)
	}
	if p.peekIs(token.LBRACE) {
		return p.parseDictDestructureLet(start)
	}

	if !p.expect(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme
	stmt := &ast.Let{Sp: start, Name: name}
	if p.peekIs(token.ASSIGN) {
		p.next()
		p.next()
		stmt.Init = p.parseExpression(LOWEST)
	}
	return stmt
}

// parseArrayDestructureLet parses `let [a, b, ...rest] = expr`.
func (p *Parser) parseArrayDestructureLet(start source.Span) ast.Stmt {
	p.next() // consume 'let' -> cur = '['
	pattern := ast.DestructurePattern{IsArray: true}
	p.next()
	for !p.curIs(token.RBRACKET) && !p.curIs(token.EOF) {
		if p.curIs(token.ELLIPSIS) {
			p.next()
			if !p.curIs(token.IDENT) {
				p.errorf(p.curToken.Span, "expected identifier after '...'")
				break
			}
			pattern.Rest = p.curToken.Lexeme
		} else if p.curIs(token.IDENT) {
			pattern.Names = append(pattern.Names, p.curToken.Lexeme)
		} else {
			p.errorf(p.curToken.Span, "expected identifier in destructuring pattern")
			break
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
	if !p.expect(token.ASSIGN) {
		return nil
	}
	p.next()
	init := p.parseExpression(LOWEST)
	return &ast.LetDestructure{Sp: start, Pattern: pattern, Init: init}
}

// parseDictDestructureLet parses `let {a, b} = expr`.
func (p *Parser) parseDictDestructureLet(start source.Span) ast.Stmt {
	p.next() // consume 'let' -> cur = '{'
	pattern := ast.DestructurePattern{IsArray: false}
	p.next()
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		if !p.curIs(token.IDENT) {
			p.errorf(p.curToken.Span, "expected identifier in destructuring pattern")
			break
		}
		pattern.Names = append(pattern.Names, p.curToken.Lexeme)
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
	if !p.expect(token.ASSIGN) {
		return nil
	}
	p.next()
	init := p.parseExpression(LOWEST)
	return &ast.LetDestructure{Sp: start, Pattern: pattern, Init: init}
}

func (p *Parser) parseIfStatement() ast.Stmt {
	start := p.curToken.Span
	p.next()
	cond := p.parseExpression(LOWEST)
	if !p.expect(token.LBRACE) {
		return nil
	}
	thenBlock := p.parseBlockExpr()
	stmt := &ast.If{Sp: start, Cond: cond, Then: thenBlock}
	if p.peekIs(token.ELSE) {
		p.next()
		if p.peekIs(token.IF) {
			p.next()
			stmt.Else = p.parseIfStatement()
		} else {
			p.next()
			if !p.curIs(token.LBRACE) {
				p.errorf(p.curToken.Span, "expected '{' after 'else'")
				return stmt
			}
			stmt.Else = p.parseBlockExpr()
		}
	}
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Stmt {
	start := p.curToken.Span
	p.next()
	cond := p.parseExpression(LOWEST)
	if !p.expect(token.LBRACE) {
		return nil
	}
	body := p.parseBlockExpr()
	return &ast.While{Sp: start, Cond: cond, Body: body}
}

func (p *Parser) parseDoWhileStatement() ast.Stmt {
	start := p.curToken.Span
	if !p.expect(token.LBRACE) {
		return nil
	}
	body := p.parseBlockExpr()
	if !p.expect(token.WHILE) {
		return nil
	}
	p.next()
	cond := p.parseExpression(LOWEST)
	return &ast.DoWhile{Sp: start, Body: body, Cond: cond}
}

func (p *Parser) parseForStatement() ast.Stmt {
	start := p.curToken.Span
	if !p.expect(token.IDENT) {
		return nil
	}
	varName := p.curToken.Lexeme
	if !p.expect(token.IN) {
		return nil
	}
	p.next()
	iterable := p.parseExpression(LOWEST)
	if !p.expect(token.LBRACE) {
		return nil
	}
	body := p.parseBlockExpr()
	return &ast.For{Sp: start, Var: varName, Iterable: iterable, Body: body}
}

func (p *Parser) parseImportStatement() ast.Stmt {
	start := p.curToken.Span
	if !p.expect(token.STRING) && !p.expect(token.RAW_STRING) {
		return nil
	}
	path := p.curToken.Value.(string)
	stmt := &ast.Import{Sp: start, Path: path}
	if p.peekIs(token.AS) {
		p.next()
		if !p.expect(token.IDENT) {
			return nil
		}
		stmt.Alias = p.curToken.Lexeme
	}
	return stmt
}

func (p *Parser) parseTryCatchStatement() ast.Stmt {
	start := p.curToken.Span
	if !p.expect(token.LBRACE) {
		return nil
	}
	body := p.parseBlockExpr()
	if !p.expect(token.CATCH) {
		return nil
	}
	if !p.expect(token.LPAREN) {
		return nil
	}
	if !p.expect(token.IDENT) {
		return nil
	}
	catchVar := p.curToken.Lexeme
	if !p.expect(token.RPAREN) {
		return nil
	}
	if !p.expect(token.LBRACE) {
		return nil
	}
	catchBody := p.parseBlockExpr()
	return &ast.TryCatch{Sp: start, Body: body, CatchVar: catchVar, CatchBody: catchBody}
}

func (p *Parser) parseNamespaceStatement() ast.Stmt {
	start := p.curToken.Span
	if !p.expect(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme
	if !p.expect(token.LBRACE) {
		return nil
	}
	p.next()
	var stmts []ast.Stmt
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
			p.advancePastStatement()
		}
	}
	if !p.curIs(token.RBRACE) {
		p.errorf(p.curToken.Span, "expected '}'")
	}
	return &ast.Namespace{Sp: start, Name: name, Body: stmts}
}

func (p *Parser) parseConstStatement() ast.Stmt {
	start := p.curToken.Span
	if !p.expect(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme
	if !p.expect(token.ASSIGN) {
		return nil
	}
	p.next()
	value := p.parseExpression(LOWEST)
	return &ast.Const{Sp: start, Name: name, Value: value}
}

func (p *Parser) parseEnumStatement() ast.Stmt {
	start := p.curToken.Span
	if !p.expect(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme
	if !p.expect(token.LBRACE) {
		return nil
	}
	p.next()
	var variants []ast.EnumVariant
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		if !p.curIs(token.IDENT) {
			p.errorf(p.curToken.Span, "expected enum variant name")
			break
		}
		variants = append(variants, ast.EnumVariant{Name: p.curToken.Lexeme, Span: p.curToken.Span})
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
	return &ast.Enum{Sp: start, Name: name, Variants: variants}
}

func (p *Parser) parseInterfaceStatement() ast.Stmt {
	start := p.curToken.Span
	if !p.expect(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme
	if !p.expect(token.LBRACE) {
		return nil
	}
	p.next()
	def := &ast.InterfaceDef{Name: name}
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		if !p.curIs(token.IDENT) {
			p.errorf(p.curToken.Span, "expected method name")
			break
		}
		methodName := p.curToken.Lexeme
		if !p.expect(token.LPAREN) {
			return nil
		}
		arity := 0
		p.next()
		for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
			arity++
			if p.peekIs(token.COMMA) {
				p.next()
				p.next()
			} else {
				p.next()
			}
		}
		def.Methods = append(def.Methods, ast.InterfaceMethod{Name: methodName, Arity: arity})
		if p.peekIs(token.SEMICOLON) {
			p.next()
		}
		p.next()
	}
	if !p.curIs(token.RBRACE) {
		p.errorf(p.curToken.Span, "expected '}'")
	}
	return &ast.Interface{Sp: start, Def: def}
}
