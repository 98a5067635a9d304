package parser

import (
	"github.com/metorex-lang/metorex/internal/ast"
	"github.com/metorex-lang/metorex/internal/token"
)

// parseExpression is the entry point of the precedence-climbing chain,
// lowest precedence first (spec.md §4.2's table).
func (p *Parser) parseExpression() ast.Expression {
	return p.parseEquality()
}

func (p *Parser) parseEquality() ast.Expression {
	left := p.parseComparison()
	for p.curIs(token.EQ) || p.curIs(token.NOT_EQ) {
		op := p.advance()
		right := p.parseComparison()
		left = &ast.BinaryOp{Op: op.Lexeme, Left: left, Right: right, Base: basePos(op.Pos)}
	}
	return left
}

func (p *Parser) parseComparison() ast.Expression {
	left := p.parseRange()
	for p.curIs(token.LT) || p.curIs(token.GT) || p.curIs(token.LE) || p.curIs(token.GE) {
		op := p.advance()
		right := p.parseRange()
		left = &ast.BinaryOp{Op: op.Lexeme, Left: left, Right: right, Base: basePos(op.Pos)}
	}
	return left
}

// parseRange handles '..'/'...'. Non-associative: at most one range operator
// per expression (spec.md §4.2).
func (p *Parser) parseRange() ast.Expression {
	left := p.parseAdditive()
	if p.curIs(token.DOTDOT) || p.curIs(token.DOTDOTDOT) {
		op := p.advance()
		right := p.parseAdditive()
		return &ast.RangeExpr{Start: left, End: right, Exclusive: op.Kind == token.DOTDOTDOT, Base: basePos(op.Pos)}
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expression {
	left := p.parseMultiplicative()
	for p.curIs(token.PLUS) || p.curIs(token.MINUS) {
		op := p.advance()
		right := p.parseMultiplicative()
		left = &ast.BinaryOp{Op: op.Lexeme, Left: left, Right: right, Base: basePos(op.Pos)}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expression {
	left := p.parseUnary()
	for p.curIs(token.STAR) || p.curIs(token.SLASH) || p.curIs(token.PERCENT) {
		op := p.advance()
		right := p.parseUnary()
		left = &ast.BinaryOp{Op: op.Lexeme, Left: left, Right: right, Base: basePos(op.Pos)}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expression {
	if p.curIs(token.PLUS) || p.curIs(token.MINUS) {
		op := p.advance()
		operand := p.parseUnary()
		return &ast.UnaryOp{Op: op.Lexeme, Operand: operand, Base: basePos(op.Pos)}
	}
	return p.parsePostfix()
}

// parsePostfix handles the call/index/dot level: method calls, indexing,
// paren-less calls off a bare identifier head, and trailing blocks.
func (p *Parser) parsePostfix() ast.Expression {
	expr := p.parsePrimary()
	if expr == nil {
		return nil
	}

	// Paren-less call: bare Identifier head followed (same line, no
	// intervening operator) by something that can start an argument. A '['
	// written directly after the name (`a[0]`) is indexing, not an argument.
	if ident, ok := expr.(*ast.Identifier); ok && !p.noParenlessCall && p.canStartParenlessArgs() &&
		!(p.curIs(token.LBRACKET) && ident.Position.Offset+len(ident.Name) == p.cur().Pos.Offset) {
		expr = p.parseParenlessCall(ident)
	}

	for {
		switch p.cur().Kind {
		case token.DOT:
			p.advance()
			nameTok, ok := p.expect(token.IDENT, "after '.'")
			if !ok {
				return expr
			}
			name := nameTok.Lexeme
			args := p.parseCallArgs()
			mc := &ast.MethodCall{Receiver: expr, Method: name, Args: args, Base: basePos(nameTok.Pos)}
			mc.TrailingBlock = p.tryParseTrailingBlock()
			expr = mc
		case token.LBRACKET:
			pos := p.advance().Pos
			idx := p.parseExpression()
			p.expect(token.RBRACKET, "to close index expression")
			expr = &ast.IndexExpr{Receiver: expr, Index: idx, Base: basePos(pos)}
		default:
			return expr
		}
	}
}

// canStartParenlessArgs reports whether the current token could begin a
// paren-less call argument list (spec.md §4.2 "Paren-less calls").
func (p *Parser) canStartParenlessArgs() bool {
	// Identifier, literal (including symbols), self, '[', '@', '@@'.
	// Operators (including '-') are deliberately excluded so `a - 1` parses
	// as subtraction, not as the paren-less call `a(-1)`.
	switch p.cur().Kind {
	case token.IDENT, token.INT, token.FLOAT, token.STRING, token.INTERPOLATED_STRING,
		token.TRUE, token.FALSE, token.NIL, token.INSTANCE_VAR, token.CLASS_VAR,
		token.SYMBOL, token.SELF, token.LBRACKET:
		return true
	}
	return false
}

// parseParenlessCall consumes a comma-separated argument list with no
// enclosing parens, e.g. `puts a, b`. If, after the first argument, the
// lookahead is ':' (a `key: value` shape), the call is aborted and the bare
// identifier is returned unchanged; a ',' continues the argument list and a
// '}' simply ends it. Dict-literal keys are parsed with paren-less calls
// disabled (noParenlessCall), so `{x 1}` never reaches this function.
func (p *Parser) parseParenlessCall(head *ast.Identifier) ast.Expression {
	save := p.pos
	first := p.parseExpression()
	if first == nil {
		p.pos = save
		return head
	}
	if p.curIs(token.COLON) {
		// Looks like `key: value` inside a dict context; this is not a call.
		p.pos = save
		return head
	}
	args := []ast.Expression{first}
	for p.curIs(token.COMMA) {
		p.advance()
		args = append(args, p.parseExpression())
	}
	call := &ast.Call{Callee: head, Args: args, Base: head.Base}
	call.TrailingBlock = p.tryParseTrailingBlock()
	return call
}

// parseCallArgs parses an optional parenthesized argument list for a
// MethodCall (`.name(args)` / `.name` with no parens at all, a bare getter).
func (p *Parser) parseCallArgs() []ast.Expression {
	if !p.curIs(token.LPAREN) {
		return nil
	}
	p.advance()
	var args []ast.Expression
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		args = append(args, p.parseExpression())
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RPAREN, "to close argument list")
	return args
}

// tryParseTrailingBlock consumes a trailing `do |params| ... end` or
// `{ |params| ... }` block immediately following a completed call
// (spec.md §4.2 "Trailing blocks").
func (p *Parser) tryParseTrailingBlock() *ast.Lambda {
	switch p.cur().Kind {
	case token.DO:
		pos := p.advance().Pos
		params := p.parseBlockParamList()
		p.skipTerminators()
		body := p.parseStatementsUntil(blockEnders)
		p.expect(token.END, "to close block")
		return &ast.Lambda{Parameters: params, Body: body, Base: basePos(pos)}
	case token.LBRACE:
		pos := p.advance().Pos
		params := p.parseBlockParamList()
		p.skipTerminators()
		body := p.parseStatementsUntil(map[token.Kind]bool{token.RBRACE: true, token.EOF: true})
		p.expect(token.RBRACE, "to close block")
		return &ast.Lambda{Parameters: params, Body: body, Base: basePos(pos)}
	}
	return nil
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.cur()
	switch tok.Kind {
	case token.INT:
		p.advance()
		return &ast.IntLiteral{Value: tok.IntVal, Base: basePos(tok.Pos)}
	case token.FLOAT:
		p.advance()
		return &ast.FloatLiteral{Value: tok.FloatVal, Base: basePos(tok.Pos)}
	case token.STRING:
		p.advance()
		return &ast.StringLiteral{Value: tok.Lexeme, Base: basePos(tok.Pos)}
	case token.INTERPOLATED_STRING:
		p.advance()
		return p.buildInterpolatedString(tok)
	case token.TRUE:
		p.advance()
		return &ast.BoolLiteral{Value: true, Base: basePos(tok.Pos)}
	case token.FALSE:
		p.advance()
		return &ast.BoolLiteral{Value: false, Base: basePos(tok.Pos)}
	case token.NIL:
		p.advance()
		return &ast.NilLiteral{Base: basePos(tok.Pos)}
	case token.SYMBOL:
		p.advance()
		return &ast.SymbolLiteral{Name: tok.Lexeme, Base: basePos(tok.Pos)}
	case token.SELF:
		p.advance()
		return &ast.SelfExpr{Base: basePos(tok.Pos)}
	case token.INSTANCE_VAR:
		p.advance()
		return &ast.InstanceVariable{Name: tok.Lexeme, Base: basePos(tok.Pos)}
	case token.CLASS_VAR:
		p.advance()
		return &ast.ClassVariable{Name: tok.Lexeme, Base: basePos(tok.Pos)}
	case token.IDENT:
		p.advance()
		ident := &ast.Identifier{Name: tok.Lexeme, Base: basePos(tok.Pos)}
		if p.curIs(token.LPAREN) {
			args := p.parseCallArgs()
			call := &ast.Call{Callee: ident, Args: args, Base: basePos(tok.Pos)}
			call.TrailingBlock = p.tryParseTrailingBlock()
			return call
		}
		return ident
	case token.LPAREN:
		p.advance()
		inner := p.parseExpression()
		p.expect(token.RPAREN, "to close grouped expression")
		return &ast.Grouped{Inner: inner, Base: basePos(tok.Pos)}
	case token.LBRACKET:
		return p.parseArrayLiteral()
	case token.LBRACE:
		return p.parseDictLiteral()
	case token.LAMBDA:
		return p.parseLambdaExpr()
	case token.DO:
		p.advance()
		params := p.parseBlockParamList()
		p.skipTerminators()
		body := p.parseStatementsUntil(blockEnders)
		p.expect(token.END, "to close 'do' block")
		return &ast.Lambda{Parameters: params, Body: body, Base: basePos(tok.Pos)}
	case token.SUPER:
		return p.parseSuperExpr()
	}
	p.errorf(tok.Pos, "unexpected %s", tok.Kind)
	// A terminator is left in place so synchronize stops at it rather than
	// skipping the statement that follows.
	if !p.curIs(token.NEWLINE) && !p.curIs(token.SEMICOLON) {
		p.advance()
	}
	return nil
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	pos := p.advance().Pos // '['
	var elems []ast.Expression
	for !p.curIs(token.RBRACKET) && !p.curIs(token.EOF) {
		elems = append(elems, p.parseExpression())
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RBRACKET, "to close array literal")
	return &ast.ArrayLiteral{Elements: elems, Base: basePos(pos)}
}

// parseDictLiteral parses `{ key (: | =>) value, ... }`. Keys are parsed
// without paren-less-call expansion, matching spec.md §4.2's lookahead rule:
// an ambiguous `{x 1}` fails here with a clear dict error rather than being
// silently reinterpreted as a call.
func (p *Parser) parseDictLiteral() ast.Expression {
	pos := p.advance().Pos // '{'
	var entries []ast.DictEntry
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		key := p.parseDictKey()
		if p.curIs(token.COLON) || p.curIs(token.FATARROW) {
			p.advance()
		} else {
			p.errorf(p.cur().Pos, "expected ':' or '=>' in dict literal")
			break
		}
		value := p.parseExpression()
		entries = append(entries, ast.DictEntry{Key: key, Value: value})
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RBRACE, "to close dict literal")
	return &ast.DictLiteral{Entries: entries, Base: basePos(pos)}
}

// parseDictKey parses a single dict key expression with paren-less call
// expansion suppressed, so `{x 1}` surfaces as a missing colon rather than
// being reinterpreted as the call `x(1)` (spec.md §4.2's lookahead rule).
func (p *Parser) parseDictKey() ast.Expression {
	prev := p.noParenlessCall
	p.noParenlessCall = true
	key := p.parseRange()
	p.noParenlessCall = prev
	return key
}

func (p *Parser) parseLambdaExpr() ast.Expression {
	pos := p.advance().Pos // 'lambda'
	params := p.parseBlockParamList()
	p.skipTerminators()
	body := p.parseStatementsUntil(blockEnders)
	p.expect(token.END, "to close lambda")
	return &ast.Lambda{Parameters: params, Body: body, Base: basePos(pos)}
}

func (p *Parser) parseSuperExpr() ast.Expression {
	pos := p.advance().Pos // 'super'
	if p.curIs(token.LPAREN) {
		args := p.parseCallArgs()
		se := &ast.SuperExpr{Args: args, HasParens: true, Base: basePos(pos)}
		se.TrailingBlock = p.tryParseTrailingBlock()
		return se
	}
	se := &ast.SuperExpr{HasParens: false, Base: basePos(pos)}
	se.TrailingBlock = p.tryParseTrailingBlock()
	return se
}

// buildInterpolatedString re-parses each #{...} segment's captured raw
// source into an Expression (spec.md §4.5 "Interpolated string" — each part
// is lazily re-lexed/re-parsed as its own mini-program).
func (p *Parser) buildInterpolatedString(tok token.Token) ast.Expression {
	lit := &ast.InterpolatedString{Base: basePos(tok.Pos)}
	for _, part := range tok.Parts {
		if !part.IsExpr {
			lit.Parts = append(lit.Parts, ast.InterpolatedStringPart{Text: part.Text})
			continue
		}
		sub, err := New(part.Text)
		if err != nil {
			p.errorf(tok.Pos, "invalid interpolation: %v", err)
			lit.Parts = append(lit.Parts, ast.InterpolatedStringPart{Text: ""})
			continue
		}
		expr := sub.parseExpression()
		for _, e := range sub.Errors() {
			p.errors = append(p.errors, e)
		}
		lit.Parts = append(lit.Parts, ast.InterpolatedStringPart{Expr: expr})
	}
	return lit
}
