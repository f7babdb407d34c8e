package transpile

import (
	"fmt"

	"sqlscope/internal/sqlparse"
)

// cteScope is the chain of CTE names visible at a point in the query.
type cteScope struct {
	names  map[string]bool
	parent *cteScope
}

func (s *cteScope) push(ctes []*sqlparse.CTE) *cteScope {
	if len(ctes) == 0 {
		return s
	}
	names := make(map[string]bool, len(ctes))
	for _, c := range ctes {
		names[c.Name] = true
	}
	return &cteScope{names: names, parent: s}
}

func (s *cteScope) has(name string) bool {
	for ; s != nil; s = s.parent {
		if s.names[name] {
			return true
		}
	}
	return false
}

// bodyScope returns the scope for the i-th CTE body. A CTE sees the ones
// declared before it; under RECURSIVE it also sees itself.
func bodyScope(outer *cteScope, with *sqlparse.WithClause, i int) *cteScope {
	n := i
	if with.Recursive {
		n = i + 1
	}
	return outer.push(with.CTEs[:n])
}

// isCTERef reports whether t names a CTE rather than a base table.
func isCTERef(t *sqlparse.TableName, scope *cteScope) bool {
	return t.Schema == "" && scope.has(t.Name)
}

// CheckCatalog confirms that every base table reachable from q, including
// those in subqueries, CTE bodies and set-operation branches, is in the
// catalog and queryable. References to CTEs in scope are not base tables.
func CheckCatalog(q *sqlparse.SelectStmt, catalog TableCatalog) error {
	g := &guard{catalog: catalog}
	g.stmt(q, nil)
	return g.err
}

type guard struct {
	catalog TableCatalog
	err     error
}

func (g *guard) stmt(q *sqlparse.SelectStmt, scope *cteScope) {
	if q.With != nil {
		for i, cte := range q.With.CTEs {
			g.nested(cte.Query, bodyScope(scope, q.With, i))
		}
		scope = scope.push(q.With.CTEs)
	}
	for body := q.Body; body != nil; body = body.Right {
		switch term := body.Left.(type) {
		case *sqlparse.SelectCore:
			g.core(term, scope)
		case *sqlparse.ParenQuery:
			g.stmt(term.Query, scope)
		}
	}
	for _, item := range q.OrderBy {
		g.expr(item.Expr, scope)
	}
	g.expr(q.Offset, scope)
}

func (g *guard) nested(s sqlparse.Stmt, scope *cteScope) {
	q, ok := s.(*sqlparse.SelectStmt)
	if !ok {
		g.fail(internalError(nil, "unexpected %T in query", s))
		return
	}
	g.stmt(q, scope)
}

func (g *guard) core(c *sqlparse.SelectCore, scope *cteScope) {
	for _, item := range c.Columns {
		g.expr(item.Expr, scope)
	}
	if c.From != nil {
		g.tableRef(c.From.Source, scope)
		for _, j := range c.From.Joins {
			g.tableRef(j.Right, scope)
			g.expr(j.Condition, scope)
		}
	}
	g.expr(c.Where, scope)
	for _, e := range c.GroupBy {
		g.expr(e, scope)
	}
	g.expr(c.Having, scope)
	for _, w := range c.Windows {
		g.window(w.Spec, scope)
	}
}

func (g *guard) tableRef(ref sqlparse.TableRef, scope *cteScope) {
	switch ref := ref.(type) {
	case *sqlparse.TableName:
		if isCTERef(ref, scope) {
			return
		}
		if _, err := lookupTable(g.catalog, ref); err != nil {
			g.fail(err)
		}
	case *sqlparse.DerivedTable:
		g.nested(ref.Query, scope)
	default:
		g.fail(internalError(nil, "unexpected %T in FROM", ref))
	}
}

func (g *guard) window(spec *sqlparse.WindowSpec, scope *cteScope) {
	sqlparse.Inspect(&sqlparse.FuncCall{Window: spec}, func(n sqlparse.Node) bool {
		return g.visit(n, scope)
	})
}

// expr checks subqueries nested anywhere inside e.
func (g *guard) expr(e sqlparse.Expr, scope *cteScope) {
	if e == nil {
		return
	}
	sqlparse.Inspect(e, func(n sqlparse.Node) bool {
		return g.visit(n, scope)
	})
}

func (g *guard) visit(n sqlparse.Node, scope *cteScope) bool {
	if g.err != nil {
		return false
	}
	if q, ok := n.(*sqlparse.SelectStmt); ok {
		g.stmt(q, scope)
		return false
	}
	return true
}

func (g *guard) fail(err error) {
	if g.err == nil {
		g.err = err
	}
}

// lookupTable resolves t in the catalog. A missing entry, a table that is
// not queryable and a table without a tenant column are all rejected.
func lookupTable(catalog TableCatalog, t *sqlparse.TableName) (TableInfo, error) {
	name := t.Qualified()
	info, ok := catalog.Lookup(name)
	if !ok || !info.Queryable {
		return TableInfo{}, &CatalogError{
			Message: fmt.Sprintf("table %q does not exist or is not queryable", name),
			Table:   name,
		}
	}
	if info.TenantColumn == "" {
		return TableInfo{}, internalError(nil, "table %q has no tenant column configured", name)
	}
	return info, nil
}
