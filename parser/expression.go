package parser

import (
	"strconv"

	"ember/ast"
	"ember/lexer"
)

type precedence int

const (
	precLowest precedence = iota
	precAssign
	precLogicalOr
	precLogicalAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precUnary
	precCall
	precMember
)

var binaryPrecedence = map[lexer.TokenType]precedence{
	lexer.TokenPipePipe: precLogicalOr,
	lexer.TokenAmpAmp:   precLogicalAnd,
	lexer.TokenPipe:     precBitOr,
	lexer.TokenCaret:    precBitXor,
	lexer.TokenAmp:      precBitAnd,
	lexer.TokenEqEq:     precEquality,
	lexer.TokenNotEq:    precEquality,
	lexer.TokenLt:       precRelational,
	lexer.TokenLe:       precRelational,
	lexer.TokenGt:       precRelational,
	lexer.TokenGe:       precRelational,
	lexer.TokenInstanceof: precRelational,
	lexer.TokenShl:      precShift,
	lexer.TokenShr:      precShift,
	lexer.TokenPlus:     precAdditive,
	lexer.TokenMinus:    precAdditive,
	lexer.TokenStar:     precMultiplicative,
	lexer.TokenSlash:    precMultiplicative,
	lexer.TokenPercent:  precMultiplicative,
}

// parseExpression implements precedence-climbing: it parses a prefix/unary
// expression, then keeps consuming infix operators whose precedence is
// above minPrec.
func (p *Parser) parseExpression(minPrec precedence) ast.Expr {
	left := p.parseUnary()
	if left == nil {
		return nil
	}

	for {
		if p.curIs(lexer.TokenAssign) && minPrec <= precAssign {
			start := left.Span().Start
			p.nextToken()
			value := p.parseExpression(precAssign)
			left = &ast.AssignExpr{SpanVal: span(start, p.pos()), Target: left, Value: value}
			continue
		}

		prec, ok := binaryPrecedence[p.curToken.Type]
		if !ok || prec <= minPrec {
			break
		}
		op := p.curToken
		p.nextToken()
		right := p.parseExpression(prec)
		start := left.Span().Start

		switch op.Type {
		case lexer.TokenAmpAmp:
			left = &ast.LogicalExpr{SpanVal: span(start, p.pos()), Operator: "&&", Left: left, Right: right}
		case lexer.TokenPipePipe:
			left = &ast.LogicalExpr{SpanVal: span(start, p.pos()), Operator: "||", Left: left, Right: right}
		case lexer.TokenInstanceof:
			left = &ast.InstanceofExpr{SpanVal: span(start, p.pos()), Left: left, Right: right}
		default:
			left = &ast.BinaryExpr{SpanVal: span(start, p.pos()), Operator: op.Type.String(), Left: left, Right: right}
		}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.curToken.Type {
	case lexer.TokenMinus, lexer.TokenPlus, lexer.TokenBang, lexer.TokenTilde, lexer.TokenTypeof, lexer.TokenVoid:
		start := p.pos()
		op := p.curToken.Type.String()
		p.nextToken()
		arg := p.parseExpression(precUnary)
		return &ast.UnaryExpr{SpanVal: span(start, p.pos()), Operator: op, Argument: arg}
	case lexer.TokenNew:
		return p.parseNew()
	default:
		return p.parseCallOrMember()
	}
}

func (p *Parser) parseNew() ast.Expr {
	start := p.pos()
	p.expect(lexer.TokenNew)
	callee := p.parseCallOrMemberNoCall()
	var args []ast.Expr
	if p.curIs(lexer.TokenLParen) {
		args = p.parseArgs()
	}
	return p.parseMemberAndCallTail(&ast.NewExpr{SpanVal: span(start, p.pos()), Callee: callee, Args: args}, start)
}

// parseCallOrMemberNoCall parses a primary expression followed by member
// accesses only (no call), for `new Foo.Bar` style callee resolution.
func (p *Parser) parseCallOrMemberNoCall() ast.Expr {
	expr := p.parsePrimary()
	for {
		start := expr.Span().Start
		switch {
		case p.curIs(lexer.TokenDot):
			p.nextToken()
			if !p.curIs(lexer.TokenIdentifier) {
				p.errorf("expected property name after '.', got %s", p.curToken.Type)
				return expr
			}
			prop := &ast.Identifier{SpanVal: span(p.pos(), p.pos()), Name: p.curToken.Literal}
			p.nextToken()
			expr = &ast.MemberExpr{SpanVal: span(start, p.pos()), Object: expr, Property: prop, Computed: false}
		case p.curIs(lexer.TokenLBracket):
			p.nextToken()
			index := p.parseExpression(precLowest)
			p.expect(lexer.TokenRBracket)
			expr = &ast.MemberExpr{SpanVal: span(start, p.pos()), Object: expr, Property: index, Computed: true}
		default:
			return expr
		}
	}
}

func (p *Parser) parseCallOrMember() ast.Expr {
	expr := p.parsePrimary()
	if expr == nil {
		return nil
	}
	return p.parseMemberAndCallTail(expr, expr.Span().Start)
}

func (p *Parser) parseMemberAndCallTail(expr ast.Expr, start ast.Position) ast.Expr {
	for {
		switch {
		case p.curIs(lexer.TokenDot):
			p.nextToken()
			if !p.curIs(lexer.TokenIdentifier) {
				p.errorf("expected property name after '.', got %s", p.curToken.Type)
				return expr
			}
			prop := &ast.Identifier{SpanVal: span(p.pos(), p.pos()), Name: p.curToken.Literal}
			p.nextToken()
			expr = &ast.MemberExpr{SpanVal: span(start, p.pos()), Object: expr, Property: prop, Computed: false}
		case p.curIs(lexer.TokenLBracket):
			p.nextToken()
			index := p.parseExpression(precLowest)
			p.expect(lexer.TokenRBracket)
			expr = &ast.MemberExpr{SpanVal: span(start, p.pos()), Object: expr, Property: index, Computed: true}
		case p.curIs(lexer.TokenLParen):
			args := p.parseArgs()
			expr = &ast.CallExpr{SpanVal: span(start, p.pos()), Callee: expr, Args: args}
		default:
			return expr
		}
	}
}

func (p *Parser) parseArgs() []ast.Expr {
	p.expect(lexer.TokenLParen)
	var args []ast.Expr
	for !p.curIs(lexer.TokenRParen) && !p.curIs(lexer.TokenEOF) {
		args = append(args, p.parseExpression(precLowest))
		if p.curIs(lexer.TokenComma) {
			p.nextToken()
		}
	}
	p.expect(lexer.TokenRParen)
	return args
}

func (p *Parser) parsePrimary() ast.Expr {
	start := p.pos()
	switch p.curToken.Type {
	case lexer.TokenNumber:
		lit := p.curToken.Literal
		p.nextToken()
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			p.errorf("invalid number literal %q", lit)
			f = 0
		}
		return &ast.NumberLiteral{SpanVal: span(start, p.pos()), Value: f}
	case lexer.TokenString:
		lit := p.curToken.Literal
		p.nextToken()
		return &ast.StringLiteral{SpanVal: span(start, p.pos()), Value: lit}
	case lexer.TokenTrue, lexer.TokenFalse:
		v := p.curToken.Type == lexer.TokenTrue
		p.nextToken()
		return &ast.BoolLiteral{SpanVal: span(start, p.pos()), Value: v}
	case lexer.TokenNull:
		p.nextToken()
		return &ast.NullLiteral{SpanVal: span(start, p.pos())}
	case lexer.TokenUndefined:
		p.nextToken()
		return &ast.UndefinedLiteral{SpanVal: span(start, p.pos())}
	case lexer.TokenIdentifier:
		name := p.curToken.Literal
		p.nextToken()
		return &ast.Identifier{SpanVal: span(start, p.pos()), Name: name}
	case lexer.TokenFunction:
		return p.parseFunctionLiteral()
	case lexer.TokenLParen:
		p.nextToken()
		expr := p.parseExpression(precLowest)
		p.expect(lexer.TokenRParen)
		return expr
	case lexer.TokenLBracket:
		return p.parseArrayLiteral()
	case lexer.TokenLBrace:
		return p.parseObjectLiteral()
	default:
		p.errorf("unexpected token %s in expression", p.curToken.Type)
		p.nextToken()
		return nil
	}
}

func (p *Parser) parseArrayLiteral() *ast.ArrayLiteral {
	start := p.pos()
	p.expect(lexer.TokenLBracket)
	lit := &ast.ArrayLiteral{}
	for !p.curIs(lexer.TokenRBracket) && !p.curIs(lexer.TokenEOF) {
		lit.Elements = append(lit.Elements, p.parseExpression(precLowest))
		if p.curIs(lexer.TokenComma) {
			p.nextToken()
		}
	}
	p.expect(lexer.TokenRBracket)
	lit.SpanVal = span(start, p.pos())
	return lit
}

func (p *Parser) parseObjectLiteral() *ast.ObjectLiteral {
	start := p.pos()
	p.expect(lexer.TokenLBrace)
	lit := &ast.ObjectLiteral{}
	for !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
		var prop ast.ObjectProperty
		if p.curIs(lexer.TokenLBracket) {
			p.nextToken()
			prop.Computed = p.parseExpression(precLowest)
			p.expect(lexer.TokenRBracket)
		} else if p.curIs(lexer.TokenIdentifier) || p.curIs(lexer.TokenString) {
			prop.Key = p.curToken.Literal
			p.nextToken()
		} else {
			p.errorf("expected property key, got %s", p.curToken.Type)
			p.nextToken()
			continue
		}
		p.expect(lexer.TokenColon)
		prop.Value = p.parseExpression(precLowest)
		lit.Properties = append(lit.Properties, prop)
		if p.curIs(lexer.TokenComma) {
			p.nextToken()
		}
	}
	p.expect(lexer.TokenRBrace)
	lit.SpanVal = span(start, p.pos())
	return lit
}
