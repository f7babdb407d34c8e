package sqlparse

import (
	"fmt"
	"strconv"
	"strings"
)

// parseSelectStatement parses [WITH ...] body [ORDER BY] [LIMIT] [OFFSET].
func (p *Parser) parseSelectStatement() *SelectStmt {
	p.enter()
	defer p.leave()

	stmt := &SelectStmt{}
	if p.check(TOKEN_WITH) {
		stmt.With = p.parseWithClause()
	}
	stmt.Body = p.parseSelectBody()

	if p.match(TOKEN_ORDER) {
		p.expect(TOKEN_BY)
		stmt.OrderBy = p.parseOrderByList()
	}

	seenLimit := false
	for {
		if p.check(TOKEN_LIMIT) && !seenLimit {
			p.nextToken()
			stmt.Limit = p.parseLimitCount()
			seenLimit = true
			continue
		}
		if p.check(TOKEN_OFFSET) && stmt.Offset == nil {
			p.nextToken()
			stmt.Offset = p.parseExpression()
			if !p.matchSoft("rows") {
				p.matchSoft("row")
			}
			continue
		}
		break
	}

	if p.check(TOKEN_FETCH) {
		p.addError("FETCH is not supported, use LIMIT")
	}
	if p.check(TOKEN_FOR) {
		stmt.Locking = p.parseLockingClause()
	}
	return stmt
}

// parseLimitCount parses the LIMIT operand. LIMIT ALL yields nil.
func (p *Parser) parseLimitCount() *uint64 {
	if p.match(TOKEN_ALL) {
		return nil
	}
	if !p.check(TOKEN_NUMBER) {
		p.addError(fmt.Sprintf("LIMIT must be a non-negative integer literal, found %s", describe(p.token)))
	}
	n, err := strconv.ParseUint(p.token.Literal, 10, 64)
	if err != nil {
		p.addError(fmt.Sprintf("LIMIT must be a non-negative integer literal, found %s", p.token.Literal))
	}
	p.nextToken()
	return &n
}

// parseLockingClause consumes FOR UPDATE / FOR SHARE and their options.
func (p *Parser) parseLockingClause() string {
	p.expect(TOKEN_FOR)
	words := []string{"FOR"}
	for p.check(TOKEN_IDENT) || p.check(TOKEN_COMMA) {
		if p.check(TOKEN_IDENT) {
			words = append(words, strings.ToUpper(p.token.Literal))
		}
		p.nextToken()
	}
	if len(words) == 1 {
		p.addError(fmt.Sprintf("expected UPDATE or SHARE after FOR, found %s", describe(p.token)))
	}
	return strings.Join(words, " ")
}

// parseWithClause parses WITH [RECURSIVE] cte [, ...].
func (p *Parser) parseWithClause() *WithClause {
	p.expect(TOKEN_WITH)
	with := &WithClause{Recursive: p.match(TOKEN_RECURSIVE)}
	with.CTEs = append(with.CTEs, p.parseCTE())
	for p.match(TOKEN_COMMA) {
		with.CTEs = append(with.CTEs, p.parseCTE())
	}
	return with
}

// parseCTE parses name [(cols)] AS [[NOT] MATERIALIZED] (query).
func (p *Parser) parseCTE() *CTE {
	cte := &CTE{Name: p.parseIdent("CTE name")}
	if p.check(TOKEN_LPAREN) {
		cte.Columns = p.parseIdentList("column name")
	}
	p.expect(TOKEN_AS)
	if p.check(TOKEN_NOT) && p.peek.Type == TOKEN_IDENT && p.peek.Literal == "materialized" {
		p.nextToken()
	}
	p.matchSoft("materialized")

	p.expect(TOKEN_LPAREN)
	cte.Query = p.parseNestedStatement()
	p.expect(TOKEN_RPAREN)
	return cte
}

// parseSelectBody parses query terms chained by set operators.
func (p *Parser) parseSelectBody() *SelectBody {
	head := &SelectBody{Left: p.parseQueryTerm()}
	cur := head
	for {
		switch {
		case p.check(TOKEN_UNION):
			cur.Op = SetOpUnion
		case p.check(TOKEN_INTERSECT):
			cur.Op = SetOpIntersect
		case p.check(TOKEN_EXCEPT):
			cur.Op = SetOpExcept
		default:
			return head
		}
		p.nextToken()
		if p.match(TOKEN_ALL) {
			cur.All = true
		} else {
			p.match(TOKEN_DISTINCT)
		}
		cur.Right = &SelectBody{Left: p.parseQueryTerm()}
		cur = cur.Right
	}
}

// parseQueryTerm parses a SELECT core or a parenthesized query.
func (p *Parser) parseQueryTerm() QueryTerm {
	if p.match(TOKEN_LPAREN) {
		q := p.parseSelectStatement()
		p.expect(TOKEN_RPAREN)
		return &ParenQuery{Query: q}
	}
	if !p.check(TOKEN_SELECT) {
		p.addError(fmt.Sprintf("expected SELECT, found %s", describe(p.token)))
	}
	return p.parseSelectCore()
}

// parseSelectCore parses one SELECT block up to, but excluding, ORDER BY.
func (p *Parser) parseSelectCore() *SelectCore {
	p.expect(TOKEN_SELECT)
	core := &SelectCore{}

	if p.match(TOKEN_DISTINCT) {
		core.Distinct = true
		if p.check(TOKEN_ON) {
			p.addError("DISTINCT ON is not supported")
		}
	} else {
		p.match(TOKEN_ALL)
	}

	core.Columns = p.parseSelectList()

	if p.match(TOKEN_INTO) {
		if !p.matchSoft("temporary") && !p.matchSoft("temp") {
			p.matchSoft("unlogged")
		}
		p.matchSoft("table")
		core.Into = p.parseTableName()
	}

	if p.match(TOKEN_FROM) {
		core.From = p.parseFromClause()
	}

	if p.match(TOKEN_WHERE) {
		core.Where = p.parseExpression()
	}

	if p.match(TOKEN_GROUP) {
		p.expect(TOKEN_BY)
		core.GroupBy = p.parseExpressionList()
	}

	if p.match(TOKEN_HAVING) {
		core.Having = p.parseExpression()
	}

	if p.match(TOKEN_WINDOW) {
		core.Windows = append(core.Windows, p.parseWindowDef())
		for p.match(TOKEN_COMMA) {
			core.Windows = append(core.Windows, p.parseWindowDef())
		}
	}

	return core
}

func (p *Parser) parseWindowDef() *WindowDef {
	def := &WindowDef{Name: p.parseIdent("window name")}
	p.expect(TOKEN_AS)
	p.expect(TOKEN_LPAREN)
	def.Spec = p.parseWindowSpecBody()
	p.expect(TOKEN_RPAREN)
	return def
}

// parseSelectList parses the projection list.
func (p *Parser) parseSelectList() []*SelectItem {
	items := []*SelectItem{p.parseSelectItem()}
	for p.match(TOKEN_COMMA) {
		items = append(items, p.parseSelectItem())
	}
	return items
}

// parseSelectItem parses *, t.*, or expr [[AS] alias].
func (p *Parser) parseSelectItem() *SelectItem {
	if p.match(TOKEN_STAR) {
		return &SelectItem{Star: true}
	}
	if p.check(TOKEN_IDENT) && p.checkPeek(TOKEN_DOT) && p.peek2.Type == TOKEN_STAR {
		item := &SelectItem{TableStar: p.token.Literal}
		p.nextToken()
		p.nextToken()
		p.nextToken()
		return item
	}

	item := &SelectItem{Expr: p.parseExpression()}
	if p.match(TOKEN_AS) {
		item.Alias = p.parseIdent("alias")
	} else if p.check(TOKEN_IDENT) {
		item.Alias = p.token.Literal
		p.nextToken()
	}
	return item
}

// parseOrderByList parses expr [ASC|DESC] [NULLS FIRST|LAST], ...
func (p *Parser) parseOrderByList() []*OrderByItem {
	var items []*OrderByItem
	for {
		item := &OrderByItem{Expr: p.parseExpression()}
		if p.match(TOKEN_DESC) {
			item.Desc = true
		} else {
			p.match(TOKEN_ASC)
		}
		if p.matchSoft("nulls") {
			first := true
			switch {
			case p.matchSoft("first"):
			case p.matchSoft("last"):
				first = false
			default:
				p.addError(fmt.Sprintf("expected FIRST or LAST after NULLS, found %s", describe(p.token)))
			}
			item.NullsFirst = &first
		}
		items = append(items, item)
		if !p.match(TOKEN_COMMA) {
			return items
		}
	}
}
