package parser

import (
	"ember/ast"
	"ember/lexer"
)

func (p *Parser) parseStatement() ast.Stmt {
	switch p.curToken.Type {
	case lexer.TokenVar, lexer.TokenLet, lexer.TokenConst:
		return p.parseVarDecl()
	case lexer.TokenFunction:
		return p.parseFunctionDecl()
	case lexer.TokenIf:
		return p.parseIf()
	case lexer.TokenWhile:
		return p.parseWhile()
	case lexer.TokenReturn:
		return p.parseReturn()
	case lexer.TokenBreak:
		start := p.pos()
		p.nextToken()
		p.consumeSemicolon()
		return &ast.BreakStmt{SpanVal: span(start, p.pos())}
	case lexer.TokenContinue:
		start := p.pos()
		p.nextToken()
		p.consumeSemicolon()
		return &ast.ContinueStmt{SpanVal: span(start, p.pos())}
	case lexer.TokenThrow:
		return p.parseThrow()
	case lexer.TokenTry:
		return p.parseTry()
	case lexer.TokenLBrace:
		return p.parseBlock()
	case lexer.TokenSemicolon:
		p.nextToken()
		return nil
	default:
		return p.parseExprStmt()
	}
}

// consumeSemicolon accepts and discards an optional trailing `;` — Ember
// statements don't require one, matching the embedding use case of
// single-expression snippets evaluated by a host.
func (p *Parser) consumeSemicolon() {
	if p.curIs(lexer.TokenSemicolon) {
		p.nextToken()
	}
}

func (p *Parser) parseBlock() *ast.BlockStmt {
	start := p.pos()
	p.expect(lexer.TokenLBrace)
	blk := &ast.BlockStmt{}
	for !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			blk.Body = append(blk.Body, stmt)
		} else {
			p.nextToken()
		}
	}
	p.expect(lexer.TokenRBrace)
	blk.SpanVal = span(start, p.pos())
	return blk
}

func (p *Parser) parseVarDecl() *ast.VarDeclStmt {
	start := p.pos()
	var kind ast.VarKind
	switch p.curToken.Type {
	case lexer.TokenVar:
		kind = ast.VarDeclVar
	case lexer.TokenLet:
		kind = ast.VarDeclLet
	case lexer.TokenConst:
		kind = ast.VarDeclConst
	}
	p.nextToken()

	decl := &ast.VarDeclStmt{Kind: kind}
	for {
		if !p.curIs(lexer.TokenIdentifier) {
			p.errorf("expected identifier in declaration, got %s", p.curToken.Type)
			break
		}
		name := p.curToken.Literal
		p.nextToken()
		var init ast.Expr
		if p.curIs(lexer.TokenAssign) {
			p.nextToken()
			init = p.parseExpression(precLowest)
		}
		decl.Declarations = append(decl.Declarations, ast.VarDeclarator{Name: name, Init: init})
		if p.curIs(lexer.TokenComma) {
			p.nextToken()
			continue
		}
		break
	}
	p.consumeSemicolon()
	decl.SpanVal = span(start, p.pos())
	return decl
}

func (p *Parser) parseFunctionDecl() *ast.FunctionDeclStmt {
	start := p.pos()
	fn := p.parseFunctionLiteral()
	return &ast.FunctionDeclStmt{SpanVal: span(start, p.pos()), Fn: fn}
}

func (p *Parser) parseFunctionLiteral() *ast.FunctionExpr {
	start := p.pos()
	p.expect(lexer.TokenFunction)
	name := ""
	if p.curIs(lexer.TokenIdentifier) {
		name = p.curToken.Literal
		p.nextToken()
	}
	p.expect(lexer.TokenLParen)
	var params []string
	for !p.curIs(lexer.TokenRParen) && !p.curIs(lexer.TokenEOF) {
		if p.curIs(lexer.TokenIdentifier) {
			params = append(params, p.curToken.Literal)
			p.nextToken()
		}
		if p.curIs(lexer.TokenComma) {
			p.nextToken()
		}
	}
	p.expect(lexer.TokenRParen)
	body := p.parseBlock()
	return &ast.FunctionExpr{SpanVal: span(start, p.pos()), Name: name, Params: params, Body: body}
}

func (p *Parser) parseIf() *ast.IfStmt {
	start := p.pos()
	p.expect(lexer.TokenIf)
	p.expect(lexer.TokenLParen)
	test := p.parseExpression(precLowest)
	p.expect(lexer.TokenRParen)
	consequent := p.parseStatement()
	var alternate ast.Stmt
	if p.curIs(lexer.TokenElse) {
		p.nextToken()
		alternate = p.parseStatement()
	}
	return &ast.IfStmt{SpanVal: span(start, p.pos()), Test: test, Consequent: consequent, Alternate: alternate}
}

func (p *Parser) parseWhile() *ast.WhileStmt {
	start := p.pos()
	p.expect(lexer.TokenWhile)
	p.expect(lexer.TokenLParen)
	test := p.parseExpression(precLowest)
	p.expect(lexer.TokenRParen)
	body := p.parseStatement()
	return &ast.WhileStmt{SpanVal: span(start, p.pos()), Test: test, Body: body}
}

func (p *Parser) parseReturn() *ast.ReturnStmt {
	start := p.pos()
	p.expect(lexer.TokenReturn)
	var arg ast.Expr
	if !p.curIs(lexer.TokenSemicolon) && !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
		arg = p.parseExpression(precLowest)
	}
	p.consumeSemicolon()
	return &ast.ReturnStmt{SpanVal: span(start, p.pos()), Argument: arg}
}

func (p *Parser) parseThrow() *ast.ThrowStmt {
	start := p.pos()
	p.expect(lexer.TokenThrow)
	arg := p.parseExpression(precLowest)
	p.consumeSemicolon()
	return &ast.ThrowStmt{SpanVal: span(start, p.pos()), Argument: arg}
}

func (p *Parser) parseTry() *ast.TryStmt {
	start := p.pos()
	p.expect(lexer.TokenTry)
	block := p.parseBlock()
	stmt := &ast.TryStmt{Block: block}
	if p.curIs(lexer.TokenCatch) {
		p.nextToken()
		stmt.HasCatch = true
		if p.curIs(lexer.TokenLParen) {
			p.nextToken()
			if p.curIs(lexer.TokenIdentifier) {
				stmt.CatchParam = p.curToken.Literal
				p.nextToken()
			}
			p.expect(lexer.TokenRParen)
		}
		stmt.Handler = p.parseBlock()
	}
	if p.curIs(lexer.TokenFinally) {
		p.nextToken()
		stmt.Finalizer = p.parseBlock()
	}
	if !stmt.HasCatch && stmt.Finalizer == nil {
		p.errorf("try statement needs a catch clause, a finally clause, or both")
	}
	stmt.SpanVal = span(start, p.pos())
	return stmt
}

func (p *Parser) parseExprStmt() *ast.ExprStmt {
	start := p.pos()
	expr := p.parseExpression(precLowest)
	p.consumeSemicolon()
	return &ast.ExprStmt{SpanVal: span(start, p.pos()), Expression: expr}
}
