// Package parser implements a recursive-descent parser producing an
// ast.Program from Ember source text.
package parser

import (
	"fmt"

	"ember/ast"
	"ember/lexer"
)

// Parser parses Ember source code into an AST.
type Parser struct {
	lex       *lexer.Lexer
	curToken  lexer.Token
	peekToken lexer.Token
	errors    []string
}

// New creates a parser over input.
func New(input string) *Parser {
	p := &Parser{lex: lexer.New(input)}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lex.NextToken()
}

func (p *Parser) curIs(t lexer.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekIs(t lexer.TokenType) bool { return p.peekToken.Type == t }

// expect advances past the current token if it matches t, otherwise records
// an error and leaves the cursor where it is.
func (p *Parser) expect(t lexer.TokenType) bool {
	if p.curIs(t) {
		p.nextToken()
		return true
	}
	p.errorf("expected %s, got %s", t, p.curToken.Type)
	return false
}

func (p *Parser) errorf(format string, args ...any) {
	msg := fmt.Sprintf("line %d: %s", p.curToken.Pos.Line, fmt.Sprintf(format, args...))
	p.errors = append(p.errors, msg)
}

// Errors returns every parse error accumulated so far.
func (p *Parser) Errors() []string { return p.errors }

func (p *Parser) pos() ast.Position {
	return ast.Position{Offset: p.curToken.Pos.Offset, Line: p.curToken.Pos.Line, Column: p.curToken.Pos.Column}
}

func span(start ast.Position, end ast.Position) ast.Span {
	return ast.Span{Start: start, End: end}
}

// ParseProgram parses the whole input as a top-level program. Errors() must
// be checked afterward — ParseProgram always returns a (possibly partial)
// tree so the caller can decide how to report failures.
func (p *Parser) ParseProgram() *ast.Program {
	start := p.pos()
	prog := &ast.Program{}
	for !p.curIs(lexer.TokenEOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Body = append(prog.Body, stmt)
		} else {
			p.nextToken() // avoid an infinite loop on an unparseable token
		}
	}
	prog.SpanVal = span(start, p.pos())
	return prog
}
