// Package parser implements Metorex's recursive-descent, precedence-climbing
// parser (spec.md §4.2).
package parser

import (
	"fmt"

	"github.com/metorex-lang/metorex/internal/ast"
	"github.com/metorex-lang/metorex/internal/lexer"
	"github.com/metorex-lang/metorex/internal/token"
)

// Error is a single syntax error: an offending token's position plus a
// human-readable description, per spec.md §4.2's error contract.
type Error struct {
	Pos     token.Position
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("syntax error at %s: %s", e.Pos, e.Message)
}

// statementStarters are the keywords §4.2 names as synchronization points
// after a parse error.
var statementStarters = map[token.Kind]bool{
	token.CLASS: true, token.DEF: true, token.IF: true, token.WHILE: true,
	token.DO: true, token.END: true,
}

// Parser consumes a pre-lexed token slice and produces top-level statements.
type Parser struct {
	tokens          []token.Token
	pos             int
	errors          []*Error
	panic           bool
	classDepth      int  // >0 while parsing a class body, so 'def' yields a MethodDef
	noParenlessCall bool // true while parsing a dict-literal key (spec.md §4.2)
}

// New lexes src fully (skipping Comments) and returns a ready Parser.
func New(src string) (*Parser, error) {
	toks, err := lexer.New(src).AllTokens()
	if err != nil {
		return nil, err
	}
	filtered := toks[:0:0]
	for _, t := range toks {
		if t.Kind == token.COMMENT {
			continue
		}
		filtered = append(filtered, t)
	}
	return &Parser{tokens: filtered}, nil
}

// NewFromTokens builds a Parser directly from an already-lexed token slice.
// Interpolation segments do not use it: they are re-parsed from their raw
// source text with New.
func NewFromTokens(toks []token.Token) *Parser {
	return &Parser{tokens: toks}
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek() token.Token {
	if p.pos+1 >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos+1]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *Parser) curIs(k token.Kind) bool  { return p.cur().Kind == k }
func (p *Parser) peekIs(k token.Kind) bool { return p.peek().Kind == k }

func (p *Parser) errorf(pos token.Position, format string, args ...any) {
	if p.panic {
		return
	}
	p.errors = append(p.errors, &Error{Pos: pos, Message: fmt.Sprintf(format, args...)})
	p.panic = true
}

// expect consumes the current token if it matches k, else records an error
// and returns false without advancing.
func (p *Parser) expect(k token.Kind, context string) (token.Token, bool) {
	if p.curIs(k) {
		return p.advance(), true
	}
	p.errorf(p.cur().Pos, "expected %s %s, got %s", k, context, p.cur().Kind)
	return token.Token{}, false
}

// synchronize skips tokens until a statement boundary (Newline/Semicolon) or
// a statement-starting keyword, then clears panic mode.
func (p *Parser) synchronize() {
	for !p.curIs(token.EOF) {
		if p.curIs(token.NEWLINE) || p.curIs(token.SEMICOLON) {
			p.advance()
			break
		}
		if statementStarters[p.cur().Kind] {
			break
		}
		p.advance()
	}
	p.panic = false
}

func (p *Parser) skipTerminators() {
	for p.curIs(token.NEWLINE) || p.curIs(token.SEMICOLON) {
		p.advance()
	}
}

// Errors returns every syntax error accumulated while parsing.
func (p *Parser) Errors() []*Error { return p.errors }

// ParseProgram parses the whole token stream into top-level statements. It
// always returns whatever statements it could recover; check Errors() for
// failures accumulated along the way.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	p.skipTerminators()
	for !p.curIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		if p.panic {
			p.synchronize()
		}
		p.skipTerminators()
	}
	return prog
}

var blockEnders = map[token.Kind]bool{
	token.END: true, token.ELSE: true, token.ELSIF: true, token.WHEN: true,
	token.RESCUE: true, token.ENSURE: true, token.EOF: true,
}

// parseStatements parses statements until a blockEnders token (not
// consumed) or EOF, skipping terminators between statements.
func (p *Parser) parseStatements() []ast.Statement {
	return p.parseStatementsUntil(blockEnders)
}

// parseStatementsUntil parses statements until a token in enders is reached
// (not consumed) or EOF.
func (p *Parser) parseStatementsUntil(enders map[token.Kind]bool) []ast.Statement {
	var stmts []ast.Statement
	p.skipTerminators()
	for !enders[p.cur().Kind] && !p.curIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.panic {
			p.synchronize()
		}
		p.skipTerminators()
	}
	return stmts
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur().Kind {
	case token.CLASS:
		return p.parseClassDef()
	case token.DEF:
		return p.parseFunctionOrMethodDef()
	case token.IF:
		return p.parseIf()
	case token.UNLESS:
		return p.parseUnless()
	case token.WHILE:
		return p.parseWhile()
	case token.FOR:
		return p.parseFor()
	case token.BEGIN:
		return p.parseBegin()
	case token.RAISE:
		return p.parseRaise()
	case token.BREAK:
		pos := p.advance().Pos
		return &ast.BreakStmt{Base: ast.Base{Position: pos}}
	case token.CONTINUE:
		pos := p.advance().Pos
		return &ast.ContinueStmt{Base: ast.Base{Position: pos}}
	case token.RETURN:
		return p.parseReturn()
	case token.CASE:
		return p.parseMatch()
	case token.ATTR_READER:
		return p.parseAttr(token.ATTR_READER)
	case token.ATTR_WRITER:
		return p.parseAttr(token.ATTR_WRITER)
	case token.ATTR_ACCESSOR:
		return p.parseAttr(token.ATTR_ACCESSOR)
	case token.DO:
		return p.parseDoBlockStatement()
	}
	return p.parseExpressionOrAssignmentStatement()
}
