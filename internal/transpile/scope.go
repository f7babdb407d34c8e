package transpile

import (
	"sqlscope/internal/sqlparse"
)

// whereClause marks a table whose tenant predicate belongs in WHERE.
const whereClause = -1

// ScopeToTenant returns a copy of q in which every base-table occurrence,
// at every nesting level, carries "<alias>.<tenant column> = <tenantID>".
// User predicates are kept intact and parenthesized before the tenant
// conjuncts are ANDed on. q itself is not modified.
//
// It also returns the distinct bind arguments introduced, in the order
// they were first used, and the base tables referenced.
func ScopeToTenant(q *sqlparse.SelectStmt, catalog TableCatalog, tenantID string) (*sqlparse.SelectStmt, []BindArgument, []string, error) {
	r := &rewriter{
		catalog:  catalog,
		tenantID: tenantID,
		seenArg:  make(map[BindArgument]bool),
		seenName: make(map[string]bool),
	}
	out := r.stmt(q, nil)
	if r.err != nil {
		return nil, nil, nil, r.err
	}
	return out, r.args, r.tables, nil
}

type rewriter struct {
	catalog  TableCatalog
	tenantID string

	args     []BindArgument
	seenArg  map[BindArgument]bool
	tables   []string
	seenName map[string]bool
	err      error
}

func (r *rewriter) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *rewriter) stmt(q *sqlparse.SelectStmt, scope *cteScope) *sqlparse.SelectStmt {
	cp := *q
	if q.With != nil {
		with := *q.With
		with.CTEs = make([]*sqlparse.CTE, len(q.With.CTEs))
		for i, cte := range q.With.CTEs {
			c := *cte
			c.Query = r.nested(cte.Query, bodyScope(scope, q.With, i))
			with.CTEs[i] = &c
		}
		cp.With = &with
		scope = scope.push(q.With.CTEs)
	}
	cp.Body = r.body(q.Body, scope)

	mapper := r.mapper(scope)
	var err error
	if cp.OrderBy, err = sqlparse.MapOrderByQueries(q.OrderBy, mapper); err != nil {
		r.fail(err)
	}
	if cp.Offset, err = sqlparse.MapExprQueries(q.Offset, mapper); err != nil {
		r.fail(err)
	}
	return &cp
}

func (r *rewriter) nested(s sqlparse.Stmt, scope *cteScope) sqlparse.Stmt {
	q, ok := s.(*sqlparse.SelectStmt)
	if !ok {
		r.fail(internalError(nil, "unexpected %T in query", s))
		return s
	}
	return r.stmt(q, scope)
}

func (r *rewriter) body(b *sqlparse.SelectBody, scope *cteScope) *sqlparse.SelectBody {
	if b == nil {
		return nil
	}
	cp := *b
	switch term := b.Left.(type) {
	case *sqlparse.SelectCore:
		cp.Left = r.core(term, scope)
	case *sqlparse.ParenQuery:
		cp.Left = &sqlparse.ParenQuery{Query: r.stmt(term.Query, scope)}
	default:
		r.fail(internalError(nil, "unexpected %T in set operation", term))
	}
	cp.Right = r.body(b.Right, scope)
	return &cp
}

// mapper rewrites expression subqueries in the given scope.
func (r *rewriter) mapper(scope *cteScope) sqlparse.QueryMapper {
	return func(q *sqlparse.SelectStmt) (*sqlparse.SelectStmt, error) {
		out := r.stmt(q, scope)
		return out, r.err
	}
}

func (r *rewriter) expr(e sqlparse.Expr, scope *cteScope) sqlparse.Expr {
	out, err := sqlparse.MapExprQueries(e, r.mapper(scope))
	if err != nil {
		r.fail(err)
	}
	return out
}

func (r *rewriter) core(c *sqlparse.SelectCore, scope *cteScope) *sqlparse.SelectCore {
	cp := *c

	cp.Columns = make([]*sqlparse.SelectItem, len(c.Columns))
	for i, item := range c.Columns {
		it := *item
		it.Expr = r.expr(item.Expr, scope)
		cp.Columns[i] = &it
	}

	var wherePreds []sqlparse.Expr
	if c.From != nil {
		from := *c.From
		from.Source = r.tableRef(c.From.Source, scope)
		from.Joins = make([]*sqlparse.Join, len(c.From.Joins))
		for i, j := range c.From.Joins {
			jc := *j
			jc.Right = r.tableRef(j.Right, scope)
			jc.Condition = r.expr(j.Condition, scope)
			from.Joins[i] = &jc
		}
		wherePreds = r.placePredicates(&from, scope)
		cp.From = &from
	}

	cp.Where = conjoin(r.expr(c.Where, scope), wherePreds)

	if c.GroupBy != nil {
		cp.GroupBy = make([]sqlparse.Expr, len(c.GroupBy))
		for i, e := range c.GroupBy {
			cp.GroupBy[i] = r.expr(e, scope)
		}
	}
	cp.Having = r.expr(c.Having, scope)

	if c.Windows != nil {
		cp.Windows = make([]*sqlparse.WindowDef, len(c.Windows))
		for i, w := range c.Windows {
			spec, err := sqlparse.MapWindowQueries(w.Spec, r.mapper(scope))
			if err != nil {
				r.fail(err)
			}
			cp.Windows[i] = &sqlparse.WindowDef{Name: w.Name, Spec: spec}
		}
	}
	return &cp
}

func (r *rewriter) tableRef(ref sqlparse.TableRef, scope *cteScope) sqlparse.TableRef {
	switch ref := ref.(type) {
	case *sqlparse.TableName:
		return ref
	case *sqlparse.DerivedTable:
		cp := *ref
		cp.Query = r.nested(ref.Query, scope)
		return &cp
	}
	r.fail(internalError(nil, "unexpected %T in FROM", ref))
	return ref
}

// placePredicates decides, for each base table in from, which clause
// receives its tenant predicate, ANDs the join-level ones into their ON
// conditions, and returns the ones that belong in WHERE.
//
// A table on the null-supplying side of an outer join is filtered in that
// join's ON so the join keeps its outer semantics; the last join that
// makes a table null-supplying wins. FULL joins, preserved sides and
// joins without an ON condition filter in WHERE.
func (r *rewriter) placePredicates(from *sqlparse.FromClause, scope *cteScope) []sqlparse.Expr {
	refs := make([]sqlparse.TableRef, 0, len(from.Joins)+1)
	refs = append(refs, from.Source)
	for _, j := range from.Joins {
		refs = append(refs, j.Right)
	}

	target := make([]int, len(refs))
	for i := range target {
		target[i] = whereClause
	}
	for i, j := range from.Joins {
		right := i + 1
		switch j.Type {
		case sqlparse.JoinLeft:
			target[right] = i
		case sqlparse.JoinRight:
			for k := 0; k < right; k++ {
				target[k] = i
			}
			target[right] = whereClause
		case sqlparse.JoinFull:
			for k := 0; k <= right; k++ {
				target[k] = whereClause
			}
		default:
			target[right] = whereClause
		}
	}

	var wherePreds []sqlparse.Expr
	onPreds := make(map[int][]sqlparse.Expr)
	for i, ref := range refs {
		t, ok := ref.(*sqlparse.TableName)
		if !ok || isCTERef(t, scope) {
			continue
		}
		pred := r.predicate(t)
		if pred == nil {
			continue
		}
		at := target[i]
		if at != whereClause && (from.Joins[at].Natural || from.Joins[at].Condition == nil) {
			at = whereClause
		}
		if at == whereClause {
			wherePreds = append(wherePreds, pred)
		} else {
			onPreds[at] = append(onPreds[at], pred)
		}
	}

	for at, preds := range onPreds {
		j := *from.Joins[at]
		j.Condition = conjoin(j.Condition, preds)
		from.Joins[at] = &j
	}
	return wherePreds
}

// predicate builds the tenant equality for one base-table occurrence.
func (r *rewriter) predicate(t *sqlparse.TableName) sqlparse.Expr {
	info, err := lookupTable(r.catalog, t)
	if err != nil {
		r.fail(err)
		return nil
	}
	name := t.Qualified()
	if !r.seenName[name] {
		r.seenName[name] = true
		r.tables = append(r.tables, name)
	}

	col := &sqlparse.ColumnRef{Schema: t.Schema, Table: t.Name, Column: info.TenantColumn}
	if t.Alias != "" {
		col = &sqlparse.ColumnRef{Table: t.Alias, Column: info.TenantColumn}
	}
	arg := BindArgument{Name: info.TenantColumn, Value: r.tenantID}
	if !r.seenArg[arg] {
		r.seenArg[arg] = true
		r.args = append(r.args, arg)
	}
	return &sqlparse.BinaryExpr{
		Left:  col,
		Op:    sqlparse.TOKEN_EQ,
		Right: &sqlparse.BindParam{Name: arg.Name, Value: arg.Value},
	}
}

// conjoin ANDs preds onto existing, which is parenthesized first so that
// none of its operators can bind to a tenant conjunct.
func conjoin(existing sqlparse.Expr, preds []sqlparse.Expr) sqlparse.Expr {
	if len(preds) == 0 {
		return existing
	}
	if existing != nil {
		if _, ok := existing.(*sqlparse.ParenExpr); !ok {
			existing = &sqlparse.ParenExpr{Expr: existing}
		}
	}
	return sqlparse.And(append([]sqlparse.Expr{existing}, preds...)...)
}
