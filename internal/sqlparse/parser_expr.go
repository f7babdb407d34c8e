package sqlparse

import "fmt"

// parseExpression parses a full expression.
func (p *Parser) parseExpression() Expr {
	return p.parseExpressionWithPrecedence(PrecedenceNone)
}

// parseExpressionWithPrecedence is the Pratt loop: it keeps folding infix
// operators that bind tighter than prec into the left operand.
func (p *Parser) parseExpressionWithPrecedence(prec int) Expr {
	p.enter()
	defer p.leave()

	left := p.parsePrefixExpr()
	for {
		next := p.infixPrecedence()
		if next <= prec {
			return left
		}
		left = p.parseInfixExpr(left, next)
	}
}

// parsePrefixExpr handles NOT and unary sign before a primary.
func (p *Parser) parsePrefixExpr() Expr {
	switch p.token.Type {
	case TOKEN_NOT:
		p.nextToken()
		return &UnaryExpr{Op: TOKEN_NOT, Expr: p.parseExpressionWithPrecedence(PrecedenceNot)}
	case TOKEN_MINUS, TOKEN_PLUS:
		op := p.token.Type
		p.nextToken()
		return &UnaryExpr{Op: op, Expr: p.parseExpressionWithPrecedence(PrecedenceUnary)}
	}
	return p.parsePrimary()
}

// infixPrecedence returns the binding power of the current token as an
// infix operator, or PrecedenceNone.
func (p *Parser) infixPrecedence() int {
	switch p.token.Type {
	case TOKEN_OR:
		return PrecedenceOr
	case TOKEN_AND:
		return PrecedenceAnd
	case TOKEN_EQ, TOKEN_NE, TOKEN_LT, TOKEN_GT, TOKEN_LE, TOKEN_GE,
		TOKEN_IS, TOKEN_IN, TOKEN_LIKE, TOKEN_ILIKE, TOKEN_BETWEEN:
		return PrecedenceComparison
	case TOKEN_NOT:
		switch p.peek.Type {
		case TOKEN_IN, TOKEN_LIKE, TOKEN_ILIKE, TOKEN_BETWEEN:
			return PrecedenceComparison
		}
	case TOKEN_DPIPE:
		return PrecedenceConcat
	case TOKEN_PLUS, TOKEN_MINUS:
		return PrecedenceAddition
	case TOKEN_STAR, TOKEN_SLASH, TOKEN_MOD:
		return PrecedenceMultiply
	case TOKEN_DCOLON:
		return PrecedencePostfix
	}
	return PrecedenceNone
}

// binaryPrecedence returns the binding power of a BinaryExpr operator.
func binaryPrecedence(op TokenType) int {
	switch op {
	case TOKEN_OR:
		return PrecedenceOr
	case TOKEN_AND:
		return PrecedenceAnd
	case TOKEN_EQ, TOKEN_NE, TOKEN_LT, TOKEN_GT, TOKEN_LE, TOKEN_GE:
		return PrecedenceComparison
	case TOKEN_DPIPE:
		return PrecedenceConcat
	case TOKEN_PLUS, TOKEN_MINUS:
		return PrecedenceAddition
	case TOKEN_STAR, TOKEN_SLASH, TOKEN_MOD:
		return PrecedenceMultiply
	}
	return PrecedenceNone
}

// parseInfixExpr parses the operator at the current token applied to left.
func (p *Parser) parseInfixExpr(left Expr, prec int) Expr {
	switch p.token.Type {
	case TOKEN_DCOLON:
		p.nextToken()
		return &CastExpr{Expr: left, TypeName: p.parseTypeName(), Postfix: true}
	case TOKEN_IS:
		return p.parseIsExpr(left)
	case TOKEN_IN:
		p.nextToken()
		return p.parseInExpr(left, false)
	case TOKEN_BETWEEN:
		p.nextToken()
		return p.parseBetweenExpr(left, false)
	case TOKEN_LIKE, TOKEN_ILIKE:
		return p.parseLikeExpr(left, false)
	case TOKEN_NOT:
		p.nextToken()
		switch p.token.Type {
		case TOKEN_IN:
			p.nextToken()
			return p.parseInExpr(left, true)
		case TOKEN_BETWEEN:
			p.nextToken()
			return p.parseBetweenExpr(left, true)
		default:
			return p.parseLikeExpr(left, true)
		}
	}

	op := p.token.Type
	p.nextToken()
	return &BinaryExpr{Left: left, Op: op, Right: p.parseExpressionWithPrecedence(prec)}
}

// parseIsExpr parses IS [NOT] NULL|TRUE|FALSE|DISTINCT FROM expr.
func (p *Parser) parseIsExpr(left Expr) Expr {
	p.expect(TOKEN_IS)
	expr := &IsExpr{Expr: left, Not: p.match(TOKEN_NOT)}
	switch {
	case p.match(TOKEN_NULL):
		expr.Kind = IsNull
	case p.match(TOKEN_TRUE):
		expr.Kind = IsTrue
	case p.match(TOKEN_FALSE):
		expr.Kind = IsFalse
	case p.match(TOKEN_DISTINCT):
		p.expect(TOKEN_FROM)
		expr.Kind = IsDistinctFrom
		expr.Right = p.parseExpressionWithPrecedence(PrecedenceComparison)
	default:
		p.addError(fmt.Sprintf("expected NULL, TRUE, FALSE or DISTINCT FROM after IS, found %s", describe(p.token)))
	}
	return expr
}

// parseInExpr parses the parenthesized list or subquery after IN.
func (p *Parser) parseInExpr(left Expr, not bool) Expr {
	p.enter()
	defer p.leave()

	expr := &InExpr{Expr: left, Not: not}
	p.expect(TOKEN_LPAREN)
	if p.check(TOKEN_SELECT) || p.check(TOKEN_WITH) {
		expr.Query = p.parseSelectStatement()
	} else {
		expr.Values = p.parseExpressionList()
	}
	p.expect(TOKEN_RPAREN)
	return expr
}

// parseBetweenExpr parses low AND high after BETWEEN.
func (p *Parser) parseBetweenExpr(left Expr, not bool) Expr {
	expr := &BetweenExpr{Expr: left, Not: not}
	expr.Low = p.parseExpressionWithPrecedence(PrecedenceComparison)
	p.expect(TOKEN_AND)
	expr.High = p.parseExpressionWithPrecedence(PrecedenceComparison)
	return expr
}

// parseLikeExpr parses LIKE|ILIKE pattern [ESCAPE char].
func (p *Parser) parseLikeExpr(left Expr, not bool) Expr {
	expr := &LikeExpr{Expr: left, Not: not, CaseInsensitive: p.check(TOKEN_ILIKE)}
	if !p.match(TOKEN_LIKE) && !p.match(TOKEN_ILIKE) {
		p.addError(fmt.Sprintf("expected LIKE or ILIKE, found %s", describe(p.token)))
	}
	expr.Pattern = p.parseExpressionWithPrecedence(PrecedenceComparison)
	if p.matchSoft("escape") {
		expr.Escape = p.parseExpressionWithPrecedence(PrecedenceComparison)
	}
	return expr
}

// parseExpressionList parses expr [, expr ...].
func (p *Parser) parseExpressionList() []Expr {
	list := []Expr{p.parseExpression()}
	for p.match(TOKEN_COMMA) {
		list = append(list, p.parseExpression())
	}
	return list
}
