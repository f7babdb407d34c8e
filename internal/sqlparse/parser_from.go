package sqlparse

import "fmt"

// parseFromClause parses a FROM source followed by comma and JOIN steps.
func (p *Parser) parseFromClause() *FromClause {
	from := &FromClause{Source: p.parseTableRef()}
	for {
		switch {
		case p.match(TOKEN_COMMA):
			from.Joins = append(from.Joins, &Join{Type: JoinComma, Right: p.parseTableRef()})
		case p.isJoinStart():
			from.Joins = append(from.Joins, p.parseJoin())
		default:
			return from
		}
	}
}

func (p *Parser) isJoinStart() bool {
	switch p.token.Type {
	case TOKEN_JOIN, TOKEN_INNER, TOKEN_LEFT, TOKEN_RIGHT, TOKEN_FULL, TOKEN_CROSS, TOKEN_NATURAL:
		return true
	}
	return false
}

// parseJoin parses [NATURAL] [INNER|LEFT|RIGHT|FULL [OUTER]|CROSS] JOIN ref
// [ON expr | USING (cols)].
func (p *Parser) parseJoin() *Join {
	join := &Join{Type: JoinInner, Natural: p.match(TOKEN_NATURAL)}

	switch {
	case p.match(TOKEN_CROSS):
		join.Type = JoinCross
	case p.match(TOKEN_INNER):
	case p.match(TOKEN_LEFT):
		join.Type = JoinLeft
		p.match(TOKEN_OUTER)
	case p.match(TOKEN_RIGHT):
		join.Type = JoinRight
		p.match(TOKEN_OUTER)
	case p.match(TOKEN_FULL):
		join.Type = JoinFull
		p.match(TOKEN_OUTER)
	}
	p.expect(TOKEN_JOIN)

	join.Right = p.parseTableRef()

	if join.Type == JoinCross || join.Natural {
		return join
	}
	switch {
	case p.match(TOKEN_ON):
		join.Condition = p.parseExpression()
	case p.check(TOKEN_USING):
		p.nextToken()
		join.Using = p.parseIdentList("column name")
	default:
		p.addError(fmt.Sprintf("expected ON or USING after %s, found %s", join.Type, describe(p.token)))
	}
	return join
}

// parseTableRef parses a table name, table function, string source or
// parenthesized subquery, with an optional alias.
func (p *Parser) parseTableRef() TableRef {
	lateral := p.match(TOKEN_LATERAL)

	switch {
	case p.check(TOKEN_LPAREN):
		p.nextToken()
		if p.check(TOKEN_IDENT) && !p.isStatementKeyword() {
			p.addError("parenthesized join expressions are not supported")
		}
		dt := &DerivedTable{Lateral: lateral, Query: p.parseNestedStatement()}
		p.expect(TOKEN_RPAREN)
		dt.Alias, dt.ColumnAliases = p.parseTableAlias()
		return dt

	case lateral:
		p.addError(fmt.Sprintf("expected subquery after LATERAL, found %s", describe(p.token)))

	case p.check(TOKEN_STRING):
		lt := &LiteralTable{Path: p.token.Literal}
		p.nextToken()
		lt.Alias = p.parseSimpleAlias()
		return lt

	case p.check(TOKEN_IDENT):
		if p.checkPeek(TOKEN_LPAREN) {
			ft := &FuncTable{Func: p.parseFuncCall()}
			ft.Alias = p.parseSimpleAlias()
			return ft
		}
		tn := p.parseTableName()
		tn.Alias = p.parseSimpleAlias()
		return tn
	}

	p.addError(fmt.Sprintf("expected table name or subquery, found %s", describe(p.token)))
	return nil
}

// parseTableName parses name or schema.name.
func (p *Parser) parseTableName() *TableName {
	tn := &TableName{Name: p.parseIdent("table name")}
	if p.match(TOKEN_DOT) {
		tn.Schema, tn.Name = tn.Name, p.parseIdent("table name")
	}
	if p.check(TOKEN_DOT) {
		p.addError("table names may have at most two parts (schema.table)")
	}
	if p.check(TOKEN_LPAREN) {
		p.addError("qualified table functions are not supported")
	}
	return tn
}

// parseTableAlias parses [AS] alias [(col, ...)].
func (p *Parser) parseTableAlias() (string, []string) {
	var alias string
	switch {
	case p.match(TOKEN_AS):
		alias = p.parseIdent("alias")
	case p.check(TOKEN_IDENT):
		alias = p.token.Literal
		p.nextToken()
	default:
		return "", nil
	}
	var cols []string
	if p.check(TOKEN_LPAREN) {
		cols = p.parseIdentList("column alias")
	}
	return alias, cols
}

// parseSimpleAlias parses an alias that may not carry a column list.
func (p *Parser) parseSimpleAlias() string {
	alias, cols := p.parseTableAlias()
	if cols != nil {
		p.addError("column alias lists are only supported on subqueries")
	}
	return alias
}
