package parser

import (
	"github.com/metorex-lang/metorex/internal/ast"
	"github.com/metorex-lang/metorex/internal/token"
)

func basePos(pos token.Position) ast.Base { return ast.Base{Position: pos} }

// parseBlockBody parses a sequence of statements ended by `end`, consuming
// the `end` keyword itself.
func (p *Parser) parseBlockBody() []ast.Statement {
	stmts := p.parseStatements()
	p.expect(token.END, "to close block")
	return stmts
}

func (p *Parser) parseClassDef() ast.Statement {
	pos := p.advance().Pos // 'class'
	nameTok, ok := p.expect(token.IDENT, "as class name")
	if !ok {
		return nil
	}
	superclass := ""
	if p.curIs(token.LT) {
		p.advance()
		superTok, ok := p.expect(token.IDENT, "as superclass name")
		if ok {
			superclass = superTok.Lexeme
		}
	}
	p.skipTerminators()
	p.classDepth++
	body := p.parseBlockBody()
	p.classDepth--
	return &ast.ClassDef{Name: nameTok.Lexeme, Superclass: superclass, Body: body, Base: basePos(pos)}
}

// parseFunctionOrMethodDef handles `def name(params) ... end`. Inside a
// class body it yields a MethodDef, at top level a FunctionDef (spec.md
// §3.3 treats these as distinct statement variants with identical shape).
func (p *Parser) parseFunctionOrMethodDef() ast.Statement {
	pos := p.advance().Pos // 'def'
	nameTok, ok := p.expectMethodName()
	if !ok {
		return nil
	}
	params := p.parseParameterList()
	p.skipTerminators()
	body := p.parseBlockBody()
	if p.classDepth > 0 {
		return &ast.MethodDef{Name: nameTok, Parameters: params, Body: body, Base: basePos(pos)}
	}
	return &ast.FunctionDef{Name: nameTok, Parameters: params, Body: body, Base: basePos(pos)}
}

// expectMethodName accepts an identifier, optionally suffixed with `=` to
// name a setter method (e.g. `def name=(v)`).
func (p *Parser) expectMethodName() (string, bool) {
	tok, ok := p.expect(token.IDENT, "as method name")
	if !ok {
		return "", false
	}
	name := tok.Lexeme
	if p.curIs(token.ASSIGN) && tok.Pos.Offset+len(tok.Lexeme) == p.cur().Pos.Offset {
		p.advance()
		name += "="
	}
	return name, true
}

// parseParameterList parses an optional parenthesized parameter list. Bare
// `def name` (no parens) is also legal and yields no parameters.
func (p *Parser) parseParameterList() []*ast.Parameter {
	if !p.curIs(token.LPAREN) {
		return nil
	}
	p.advance()
	var params []*ast.Parameter
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		params = append(params, p.parseOneParameter())
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RPAREN, "to close parameter list")
	return params
}

// parseBlockParamList parses `|a, b, *rest|` block/lambda parameters.
func (p *Parser) parseBlockParamList() []*ast.Parameter {
	if !p.curIs(token.PIPE) {
		return nil
	}
	p.advance()
	var params []*ast.Parameter
	for !p.curIs(token.PIPE) && !p.curIs(token.EOF) {
		params = append(params, p.parseOneParameter())
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.PIPE, "to close block parameters")
	return params
}

func (p *Parser) parseOneParameter() *ast.Parameter {
	pos := p.cur().Pos
	if p.curIs(token.STAR) {
		p.advance()
		nameTok, _ := p.expect(token.IDENT, "after '*' in parameter list")
		return &ast.Parameter{Name: nameTok.Lexeme, Kind: ast.ParamVariadic, Base: basePos(pos)}
	}
	nameTok, ok := p.expect(token.IDENT, "as parameter name")
	if !ok {
		return &ast.Parameter{Base: basePos(pos)}
	}
	if p.curIs(token.COLON) {
		p.advance()
		if p.curIs(token.COMMA) || p.curIs(token.RPAREN) || p.curIs(token.PIPE) {
			return &ast.Parameter{Name: nameTok.Lexeme, Kind: ast.ParamKeyword, Base: basePos(pos)}
		}
		def := p.parseExpression()
		return &ast.Parameter{Name: nameTok.Lexeme, Kind: ast.ParamKeyword, Default: def, Base: basePos(pos)}
	}
	if p.curIs(token.ASSIGN) {
		p.advance()
		def := p.parseExpression()
		return &ast.Parameter{Name: nameTok.Lexeme, Kind: ast.ParamDefault, Default: def, Base: basePos(pos)}
	}
	return &ast.Parameter{Name: nameTok.Lexeme, Kind: ast.ParamPositional, Base: basePos(pos)}
}

func (p *Parser) parseIf() ast.Statement {
	pos := p.advance().Pos // 'if'
	cond := p.parseExpression()
	p.skipTerminators()
	then := p.parseStatements()
	var elsifs []ast.ElsifBranch
	for p.curIs(token.ELSIF) {
		p.advance()
		econd := p.parseExpression()
		p.skipTerminators()
		ebody := p.parseStatements()
		elsifs = append(elsifs, ast.ElsifBranch{Cond: econd, Body: ebody})
	}
	var elseBody []ast.Statement
	if p.curIs(token.ELSE) {
		p.advance()
		p.skipTerminators()
		elseBody = p.parseStatements()
	}
	p.expect(token.END, "to close 'if'")
	return &ast.IfStmt{Cond: cond, Then: then, Elsifs: elsifs, Else: elseBody, Base: basePos(pos)}
}

func (p *Parser) parseUnless() ast.Statement {
	pos := p.advance().Pos // 'unless'
	cond := p.parseExpression()
	p.skipTerminators()
	then := p.parseStatements()
	var elseBody []ast.Statement
	if p.curIs(token.ELSE) {
		p.advance()
		p.skipTerminators()
		elseBody = p.parseStatements()
	}
	p.expect(token.END, "to close 'unless'")
	return &ast.UnlessStmt{Cond: cond, Then: then, Else: elseBody, Base: basePos(pos)}
}

func (p *Parser) parseWhile() ast.Statement {
	pos := p.advance().Pos // 'while'
	cond := p.parseExpression()
	p.skipTerminators()
	body := p.parseBlockBody()
	return &ast.WhileStmt{Cond: cond, Body: body, Base: basePos(pos)}
}

func (p *Parser) parseFor() ast.Statement {
	pos := p.advance().Pos // 'for'
	varTok, _ := p.expect(token.IDENT, "as loop variable")
	p.expect(token.IN, "after loop variable")
	iterable := p.parseExpression()
	p.skipTerminators()
	body := p.parseBlockBody()
	return &ast.ForStmt{Var: varTok.Lexeme, Iterable: iterable, Body: body, Base: basePos(pos)}
}

var rescueEnders = map[token.Kind]bool{
	token.RESCUE: true, token.ELSE: true, token.ENSURE: true, token.END: true, token.EOF: true,
}

func (p *Parser) parseBegin() ast.Statement {
	pos := p.advance().Pos // 'begin'
	p.skipTerminators()
	body := p.parseStatementsUntil(rescueEnders)
	var rescues []*ast.RescueClause
	for p.curIs(token.RESCUE) {
		rescues = append(rescues, p.parseRescueClause())
	}
	var elseBody, ensureBody []ast.Statement
	if p.curIs(token.ELSE) {
		p.advance()
		p.skipTerminators()
		elseBody = p.parseStatementsUntil(rescueEnders)
	}
	if p.curIs(token.ENSURE) {
		p.advance()
		p.skipTerminators()
		ensureBody = p.parseStatementsUntil(rescueEnders)
	}
	p.expect(token.END, "to close 'begin'")
	return &ast.BeginStmt{Body: body, Rescues: rescues, Else: elseBody, Ensure: ensureBody, Base: basePos(pos)}
}

func (p *Parser) parseRescueClause() *ast.RescueClause {
	pos := p.advance().Pos // 'rescue'
	var types []string
	if p.curIs(token.IDENT) {
		t, _ := p.expect(token.IDENT, "as exception type")
		types = append(types, t.Lexeme)
		for p.curIs(token.COMMA) {
			p.advance()
			t, _ := p.expect(token.IDENT, "as exception type")
			types = append(types, t.Lexeme)
		}
	}
	boundVar := ""
	if p.curIs(token.FATARROW) {
		p.advance()
		v, _ := p.expect(token.IDENT, "after '=>' in rescue clause")
		boundVar = v.Lexeme
	}
	p.skipTerminators()
	body := p.parseStatementsUntil(rescueEnders)
	return &ast.RescueClause{ExceptionTypeNames: types, BoundVarName: boundVar, Body: body, Base: basePos(pos)}
}

func (p *Parser) parseRaise() ast.Statement {
	pos := p.advance().Pos // 'raise'
	if p.curIs(token.NEWLINE) || p.curIs(token.SEMICOLON) || p.curIs(token.EOF) || blockEnders[p.cur().Kind] {
		return &ast.RaiseStmt{Base: basePos(pos)}
	}
	expr := p.parseExpression()
	return &ast.RaiseStmt{Expr: expr, Base: basePos(pos)}
}

func (p *Parser) parseReturn() ast.Statement {
	pos := p.advance().Pos // 'return'
	if p.curIs(token.NEWLINE) || p.curIs(token.SEMICOLON) || p.curIs(token.EOF) || blockEnders[p.cur().Kind] {
		return &ast.ReturnStmt{Base: basePos(pos)}
	}
	expr := p.parseExpression()
	return &ast.ReturnStmt{Value: expr, Base: basePos(pos)}
}

var matchEnders = map[token.Kind]bool{token.WHEN: true, token.ELSE: true, token.END: true, token.EOF: true}

// parseMatch desugars `case ... when ... end` into a MatchStmt (spec.md §4.2
// "case/when").
func (p *Parser) parseMatch() ast.Statement {
	pos := p.advance().Pos // 'case'
	subject := p.parseExpression()
	p.skipTerminators()
	var cases []*ast.MatchCase
	for p.curIs(token.WHEN) {
		wpos := p.advance().Pos
		pattern := p.parsePattern()
		var guard ast.Expression
		if p.curIs(token.IF) {
			p.advance()
			guard = p.parseExpression()
		}
		p.skipTerminators()
		body := p.parseStatementsUntil(matchEnders)
		cases = append(cases, &ast.MatchCase{Pattern: pattern, Guard: guard, Body: body, Base: basePos(wpos)})
	}
	if p.curIs(token.ELSE) {
		epos := p.advance().Pos
		p.skipTerminators()
		body := p.parseStatementsUntil(matchEnders)
		cases = append(cases, &ast.MatchCase{Pattern: ast.WildcardPattern{}, Body: body, Base: basePos(epos)})
	}
	p.expect(token.END, "to close 'case'")
	return &ast.MatchStmt{Subject: subject, Cases: cases, Base: basePos(pos)}
}

// parsePattern parses a single `when` pattern (spec.md §3.3's closed pattern
// set).
func (p *Parser) parsePattern() ast.MatchPattern {
	switch p.cur().Kind {
	case token.INT:
		t := p.advance()
		return ast.IntPattern{Value: t.IntVal}
	case token.FLOAT:
		t := p.advance()
		return ast.FloatPattern{Value: t.FloatVal}
	case token.STRING:
		t := p.advance()
		return ast.StringPattern{Value: t.Lexeme}
	case token.TRUE:
		p.advance()
		return ast.BoolPattern{Value: true}
	case token.FALSE:
		p.advance()
		return ast.BoolPattern{Value: false}
	case token.NIL:
		p.advance()
		return ast.NilPattern{}
	case token.STAR:
		p.advance()
		name := ""
		if p.curIs(token.IDENT) {
			name = p.advance().Lexeme
		}
		return ast.RestPattern{Name: name}
	case token.IDENT:
		if p.cur().Lexeme == "_" {
			p.advance()
			return ast.WildcardPattern{}
		}
		// A capitalized bare identifier followed by '(' is a not-yet-supported
		// type pattern (spec.md §9 resolution: parses, errors at eval time).
		if isCapitalized(p.cur().Lexeme) && p.peekIs(token.LPAREN) {
			t := p.advance()
			p.advance() // '('
			for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
				p.advance()
			}
			p.expect(token.RPAREN, "to close type pattern")
			return ast.TypePattern{TypeName: t.Lexeme}
		}
		t := p.advance()
		return ast.IdentifierPattern{Name: t.Lexeme}
	case token.LBRACKET:
		p.advance()
		var elems []ast.MatchPattern
		for !p.curIs(token.RBRACKET) && !p.curIs(token.EOF) {
			elems = append(elems, p.parsePattern())
			if p.curIs(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		p.expect(token.RBRACKET, "to close array pattern")
		return ast.ArrayPattern{Elements: elems}
	case token.LBRACE:
		p.advance()
		var fields []ast.ObjectPatternField
		for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
			keyTok, _ := p.expect(token.IDENT, "as object pattern field")
			p.expect(token.COLON, "after object pattern field name")
			fields = append(fields, ast.ObjectPatternField{Key: keyTok.Lexeme, Pattern: p.parsePattern()})
			if p.curIs(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		p.expect(token.RBRACE, "to close object pattern")
		return ast.ObjectPattern{Fields: fields}
	}
	p.errorf(p.cur().Pos, "unexpected %s in pattern", p.cur().Kind)
	p.advance()
	return ast.WildcardPattern{}
}

func isCapitalized(s string) bool {
	return len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z'
}

func (p *Parser) parseAttr(kind token.Kind) ast.Statement {
	pos := p.advance().Pos
	var names []string
	for {
		t, ok := p.expect(token.SYMBOL, "in attr declaration")
		if !ok {
			break
		}
		names = append(names, t.Lexeme)
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	switch kind {
	case token.ATTR_READER:
		return &ast.AttrReaderStmt{Names: names, Base: basePos(pos)}
	case token.ATTR_WRITER:
		return &ast.AttrWriterStmt{Names: names, Base: basePos(pos)}
	default:
		return &ast.AttrAccessorStmt{Names: names, Base: basePos(pos)}
	}
}

// parseDoBlockStatement handles a bare `do ... end` appearing in statement
// position, distinct from a trailing block attached to a call.
func (p *Parser) parseDoBlockStatement() ast.Statement {
	pos := p.advance().Pos // 'do'
	p.parseBlockParamList()
	p.skipTerminators()
	body := p.parseBlockBody()
	return &ast.BlockStmt{Body: body, Base: basePos(pos)}
}

var assignOps = map[token.Kind]string{
	token.ASSIGN: "=", token.PLUS_ASSIGN: "+=", token.MINUS_ASSIGN: "-=",
	token.STAR_ASSIGN: "*=", token.SLASH_ASSIGN: "/=",
}

func (p *Parser) parseExpressionOrAssignmentStatement() ast.Statement {
	pos := p.cur().Pos
	expr := p.parseExpression()
	if expr == nil {
		return nil
	}
	if op, ok := assignOps[p.cur().Kind]; ok {
		if !isAssignable(expr) {
			p.errorf(p.cur().Pos, "invalid assignment target")
			return &ast.ExpressionStatement{Expr: expr, Base: basePos(pos)}
		}
		p.advance()
		value := p.parseExpression()
		return &ast.Assignment{Target: expr, Operator: op, Value: value, Base: basePos(pos)}
	}
	return &ast.ExpressionStatement{Expr: expr, Base: basePos(pos)}
}

// isAssignable reports whether e can appear on the left of an assignment.
// A bare `receiver.attr` (no args, no trailing block) is allowed: it
// desugars at evaluation time into a call to the `attr=` setter synthesized
// by attr_writer/attr_accessor (spec.md §4.4).
func isAssignable(e ast.Expression) bool {
	switch t := e.(type) {
	case *ast.Identifier, *ast.InstanceVariable, *ast.ClassVariable, *ast.IndexExpr:
		return true
	case *ast.MethodCall:
		return len(t.Args) == 0 && t.TrailingBlock == nil
	}
	return false
}
