package sqlparse

import (
	"fmt"
	"strings"
)

// niladicFunctions are SQL value functions written without parentheses.
var niladicFunctions = map[string]bool{
	"current_date":      true,
	"current_time":      true,
	"current_timestamp": true,
	"localtime":         true,
	"localtimestamp":    true,
}

var intervalUnits = map[string]bool{
	"year": true, "years": true, "month": true, "months": true,
	"week": true, "weeks": true, "day": true, "days": true,
	"hour": true, "hours": true, "minute": true, "minutes": true,
	"second": true, "seconds": true, "millisecond": true, "milliseconds": true,
	"microsecond": true, "microseconds": true,
}

// parsePrimary parses literals, column references, function calls, CASE,
// CAST, EXISTS and parenthesized expressions or subqueries.
func (p *Parser) parsePrimary() Expr {
	tok := p.token
	switch tok.Type {
	case TOKEN_NUMBER:
		p.nextToken()
		return &Literal{Type: LiteralNumber, Value: tok.Literal}
	case TOKEN_STRING:
		p.nextToken()
		return &Literal{Type: LiteralString, Value: tok.Literal}
	case TOKEN_TRUE:
		p.nextToken()
		return &Literal{Type: LiteralBoolean, Value: "TRUE"}
	case TOKEN_FALSE:
		p.nextToken()
		return &Literal{Type: LiteralBoolean, Value: "FALSE"}
	case TOKEN_NULL:
		p.nextToken()
		return &Literal{Type: LiteralNull, Value: "NULL"}
	case TOKEN_PARAM:
		p.nextToken()
		return &Param{Text: tok.Literal}
	case TOKEN_CASE:
		return p.parseCaseExpr()
	case TOKEN_CAST:
		return p.parseCastExpr()
	case TOKEN_EXISTS:
		p.nextToken()
		p.expect(TOKEN_LPAREN)
		q := p.parseSelectStatement()
		p.expect(TOKEN_RPAREN)
		return &ExistsExpr{Query: q}
	case TOKEN_LPAREN:
		p.nextToken()
		if p.check(TOKEN_SELECT) || p.check(TOKEN_WITH) {
			q := p.parseSelectStatement()
			p.expect(TOKEN_RPAREN)
			return &SubqueryExpr{Query: q}
		}
		inner := p.parseExpression()
		if p.check(TOKEN_COMMA) {
			p.addError("row constructors are not supported")
		}
		p.expect(TOKEN_RPAREN)
		return &ParenExpr{Expr: inner}
	case TOKEN_LEFT, TOKEN_RIGHT:
		if p.checkPeek(TOKEN_LPAREN) {
			return p.parseFuncCall()
		}
	case TOKEN_IDENT:
		return p.parseIdentifierExpr()
	}

	p.addError(fmt.Sprintf("unexpected %s in expression", describe(tok)))
	return nil
}

// parseIdentifierExpr parses an identifier-led expression: a column
// reference, a function call, or one of the keyword-like forms.
func (p *Parser) parseIdentifierExpr() Expr {
	tok := p.token
	if !tok.Quoted {
		switch {
		case tok.Literal == "interval" && p.checkPeek(TOKEN_STRING):
			return p.parseIntervalExpr()
		case tok.Literal == "extract" && p.checkPeek(TOKEN_LPAREN):
			return p.parseExtractExpr()
		case niladicFunctions[tok.Literal] && !p.checkPeek(TOKEN_LPAREN) && !p.checkPeek(TOKEN_DOT):
			p.nextToken()
			return &FuncCall{Name: tok.Literal, Niladic: true}
		}
	}

	if p.checkPeek(TOKEN_LPAREN) {
		return p.parseFuncCall()
	}

	parts := []string{tok.Literal}
	p.nextToken()
	for p.match(TOKEN_DOT) {
		if p.check(TOKEN_STAR) {
			p.addError("qualified * is only allowed in the select list")
		}
		parts = append(parts, p.parseIdent("column name"))
	}
	if p.check(TOKEN_LPAREN) {
		p.addError("qualified function names are not supported")
	}

	switch len(parts) {
	case 1:
		return &ColumnRef{Column: parts[0]}
	case 2:
		return &ColumnRef{Table: parts[0], Column: parts[1]}
	case 3:
		return &ColumnRef{Schema: parts[0], Table: parts[1], Column: parts[2]}
	}
	p.addError("column references may have at most three parts")
	return nil
}

// parseFuncCall parses name(args) [FILTER (WHERE expr)] [OVER window].
func (p *Parser) parseFuncCall() *FuncCall {
	fc := &FuncCall{Name: p.token.Literal, Quoted: p.token.Quoted}
	p.nextToken()

	p.enter()
	defer p.leave()

	p.expect(TOKEN_LPAREN)
	switch {
	case p.match(TOKEN_STAR):
		fc.Star = true
	case p.check(TOKEN_RPAREN):
	default:
		if p.match(TOKEN_DISTINCT) {
			fc.Distinct = true
		} else {
			p.match(TOKEN_ALL)
		}
		fc.Args = p.parseExpressionList()
		if p.match(TOKEN_ORDER) {
			p.expect(TOKEN_BY)
			fc.OrderBy = p.parseOrderByList()
		}
	}
	p.expect(TOKEN_RPAREN)

	if p.checkSoft("filter") && p.checkPeek(TOKEN_LPAREN) {
		p.nextToken()
		p.nextToken()
		p.expect(TOKEN_WHERE)
		fc.Filter = p.parseExpression()
		p.expect(TOKEN_RPAREN)
	}

	if p.match(TOKEN_OVER) {
		if p.check(TOKEN_IDENT) {
			fc.Window = &WindowSpec{Name: p.token.Literal}
			p.nextToken()
		} else {
			p.expect(TOKEN_LPAREN)
			fc.Window = p.parseWindowSpecBody()
			p.expect(TOKEN_RPAREN)
		}
	}
	return fc
}

// parseWindowSpecBody parses the inside of OVER (...) or WINDOW w AS (...).
func (p *Parser) parseWindowSpecBody() *WindowSpec {
	spec := &WindowSpec{}

	if p.matchSoft("partition") {
		p.expect(TOKEN_BY)
		spec.PartitionBy = p.parseExpressionList()
	}

	if p.match(TOKEN_ORDER) {
		p.expect(TOKEN_BY)
		spec.OrderBy = p.parseOrderByList()
	}

	switch {
	case p.matchSoft("rows"):
		spec.Frame = p.parseFrameSpec(FrameRows)
	case p.matchSoft("range"):
		spec.Frame = p.parseFrameSpec(FrameRange)
	case p.matchSoft("groups"):
		spec.Frame = p.parseFrameSpec(FrameGroups)
	}

	return spec
}

// parseFrameSpec parses the bounds after ROWS, RANGE or GROUPS.
func (p *Parser) parseFrameSpec(t FrameType) *FrameSpec {
	frame := &FrameSpec{Type: t}
	if p.match(TOKEN_BETWEEN) {
		frame.Start = p.parseFrameBound()
		p.expect(TOKEN_AND)
		frame.End = p.parseFrameBound()
	} else {
		frame.Start = p.parseFrameBound()
	}
	return frame
}

// parseFrameBound parses one frame bound.
func (p *Parser) parseFrameBound() *FrameBound {
	bound := &FrameBound{}

	switch {
	case p.matchSoft("unbounded"):
		switch {
		case p.matchSoft("preceding"):
			bound.Type = FrameUnboundedPreceding
		case p.matchSoft("following"):
			bound.Type = FrameUnboundedFollowing
		default:
			p.addError(fmt.Sprintf("expected PRECEDING or FOLLOWING, found %s", describe(p.token)))
		}
	case p.matchSoft("current"):
		p.expectSoft("row")
		bound.Type = FrameCurrentRow
	default:
		bound.Offset = p.parseExpressionWithPrecedence(PrecedenceAnd)
		switch {
		case p.matchSoft("preceding"):
			bound.Type = FrameExprPreceding
		case p.matchSoft("following"):
			bound.Type = FrameExprFollowing
		default:
			p.addError(fmt.Sprintf("expected PRECEDING or FOLLOWING, found %s", describe(p.token)))
		}
	}

	return bound
}

// parseCaseExpr parses CASE [operand] WHEN ... THEN ... [ELSE ...] END.
func (p *Parser) parseCaseExpr() Expr {
	p.expect(TOKEN_CASE)
	caseExpr := &CaseExpr{}

	if !p.check(TOKEN_WHEN) {
		caseExpr.Operand = p.parseExpression()
	}

	for p.match(TOKEN_WHEN) {
		when := &WhenClause{Condition: p.parseExpression()}
		p.expect(TOKEN_THEN)
		when.Result = p.parseExpression()
		caseExpr.Whens = append(caseExpr.Whens, when)
	}
	if len(caseExpr.Whens) == 0 {
		p.addError(fmt.Sprintf("expected WHEN in CASE, found %s", describe(p.token)))
	}

	if p.match(TOKEN_ELSE) {
		caseExpr.Else = p.parseExpression()
	}

	p.expect(TOKEN_END)
	return caseExpr
}

// parseCastExpr parses CAST(expr AS type).
func (p *Parser) parseCastExpr() Expr {
	p.expect(TOKEN_CAST)
	p.expect(TOKEN_LPAREN)
	expr := p.parseExpression()
	p.expect(TOKEN_AS)
	typ := p.parseTypeName()
	p.expect(TOKEN_RPAREN)
	return &CastExpr{Expr: expr, TypeName: typ}
}

// parseTypeName parses a cast target. Only plain words and integer
// modifiers are accepted so that nothing user-quoted reaches the output
// unquoted.
func (p *Parser) parseTypeName() *TypeName {
	typ := &TypeName{Words: []string{p.parseTypeWord()}}

	switch typ.Words[0] {
	case "double":
		if p.checkSoft("precision") {
			typ.Words = append(typ.Words, p.parseTypeWord())
		}
	case "character", "char", "bit":
		if p.checkSoft("varying") {
			typ.Words = append(typ.Words, p.parseTypeWord())
		}
	case "timestamp", "time":
		if p.check(TOKEN_WITH) || p.checkSoft("without") {
			word := p.token.Literal
			p.nextToken()
			p.expectSoft("time")
			p.expectSoft("zone")
			typ.Words = append(typ.Words, word, "time", "zone")
		}
	}

	if p.match(TOKEN_LPAREN) {
		for {
			if !p.check(TOKEN_NUMBER) || strings.ContainsAny(p.token.Literal, ".eE") {
				p.addError(fmt.Sprintf("expected integer type modifier, found %s", describe(p.token)))
			}
			typ.Modifiers = append(typ.Modifiers, p.token.Literal)
			p.nextToken()
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
		p.expect(TOKEN_RPAREN)
	}
	return typ
}

func (p *Parser) parseTypeWord() string {
	if !p.check(TOKEN_IDENT) || p.token.Quoted || !isPlainIdent(p.token.Literal) {
		p.addError(fmt.Sprintf("expected type name, found %s", describe(p.token)))
	}
	word := p.token.Literal
	p.nextToken()
	return word
}

// parseIntervalExpr parses INTERVAL 'text' [unit].
func (p *Parser) parseIntervalExpr() Expr {
	p.nextToken() // INTERVAL
	expr := &IntervalExpr{Value: p.token.Literal}
	p.nextToken()
	if p.check(TOKEN_IDENT) && !p.token.Quoted && intervalUnits[p.token.Literal] {
		expr.Unit = p.token.Literal
		p.nextToken()
	}
	return expr
}

// parseExtractExpr parses EXTRACT(field FROM expr).
func (p *Parser) parseExtractExpr() Expr {
	p.nextToken() // EXTRACT
	p.expect(TOKEN_LPAREN)
	if !(p.check(TOKEN_IDENT) || p.check(TOKEN_STRING)) || !isPlainIdent(p.token.Literal) {
		p.addError(fmt.Sprintf("expected EXTRACT field, found %s", describe(p.token)))
	}
	expr := &ExtractExpr{Field: strings.ToLower(p.token.Literal)}
	p.nextToken()
	p.expect(TOKEN_FROM)
	expr.From = p.parseExpression()
	p.expect(TOKEN_RPAREN)
	return expr
}

// isPlainIdent reports whether s is an ASCII identifier that needs no
// quoting to be read back as the same word.
func isPlainIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c == '_':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
