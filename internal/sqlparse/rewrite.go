package sqlparse

// QueryMapper transforms a nested query.
type QueryMapper func(*SelectStmt) (*SelectStmt, error)

// MapExprQueries returns a copy of e in which every subquery reachable
// through expression nodes (IN, EXISTS, scalar subqueries, and anything
// nested inside function calls, CASE or operators) is replaced by fn's
// result. Interior nodes are copied and leaves are shared; e is not
// modified. Subqueries inside the replaced queries are fn's concern.
func MapExprQueries(e Expr, fn QueryMapper) (Expr, error) {
	if e == nil {
		return nil, nil
	}
	m := exprMapper{fn: fn}
	out := m.expr(e)
	return out, m.err
}

type exprMapper struct {
	fn  QueryMapper
	err error
}

func (m *exprMapper) query(q *SelectStmt) *SelectStmt {
	if q == nil || m.err != nil {
		return q
	}
	out, err := m.fn(q)
	if err != nil {
		m.err = err
		return q
	}
	return out
}

func (m *exprMapper) exprs(list []Expr) []Expr {
	if list == nil {
		return nil
	}
	out := make([]Expr, len(list))
	for i, e := range list {
		out[i] = m.expr(e)
	}
	return out
}

func (m *exprMapper) orderBy(items []*OrderByItem) []*OrderByItem {
	if items == nil {
		return nil
	}
	out := make([]*OrderByItem, len(items))
	for i, item := range items {
		cp := *item
		cp.Expr = m.expr(item.Expr)
		out[i] = &cp
	}
	return out
}

func (m *exprMapper) window(spec *WindowSpec) *WindowSpec {
	if spec == nil {
		return nil
	}
	cp := *spec
	cp.PartitionBy = m.exprs(spec.PartitionBy)
	cp.OrderBy = m.orderBy(spec.OrderBy)
	if spec.Frame != nil {
		frame := *spec.Frame
		frame.Start = m.bound(spec.Frame.Start)
		frame.End = m.bound(spec.Frame.End)
		cp.Frame = &frame
	}
	return &cp
}

func (m *exprMapper) bound(b *FrameBound) *FrameBound {
	if b == nil {
		return nil
	}
	cp := *b
	cp.Offset = m.expr(b.Offset)
	return &cp
}

func (m *exprMapper) expr(e Expr) Expr {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *BinaryExpr:
		cp := *n
		cp.Left = m.expr(n.Left)
		cp.Right = m.expr(n.Right)
		return &cp
	case *UnaryExpr:
		cp := *n
		cp.Expr = m.expr(n.Expr)
		return &cp
	case *ParenExpr:
		return &ParenExpr{Expr: m.expr(n.Expr)}
	case *FuncCall:
		cp := *n
		cp.Args = m.exprs(n.Args)
		cp.OrderBy = m.orderBy(n.OrderBy)
		cp.Filter = m.expr(n.Filter)
		cp.Window = m.window(n.Window)
		return &cp
	case *CaseExpr:
		cp := *n
		cp.Operand = m.expr(n.Operand)
		cp.Whens = make([]*WhenClause, len(n.Whens))
		for i, w := range n.Whens {
			cp.Whens[i] = &WhenClause{Condition: m.expr(w.Condition), Result: m.expr(w.Result)}
		}
		cp.Else = m.expr(n.Else)
		return &cp
	case *CastExpr:
		cp := *n
		cp.Expr = m.expr(n.Expr)
		return &cp
	case *InExpr:
		cp := *n
		cp.Expr = m.expr(n.Expr)
		cp.Values = m.exprs(n.Values)
		cp.Query = m.query(n.Query)
		return &cp
	case *BetweenExpr:
		cp := *n
		cp.Expr = m.expr(n.Expr)
		cp.Low = m.expr(n.Low)
		cp.High = m.expr(n.High)
		return &cp
	case *IsExpr:
		cp := *n
		cp.Expr = m.expr(n.Expr)
		cp.Right = m.expr(n.Right)
		return &cp
	case *LikeExpr:
		cp := *n
		cp.Expr = m.expr(n.Expr)
		cp.Pattern = m.expr(n.Pattern)
		cp.Escape = m.expr(n.Escape)
		return &cp
	case *ExistsExpr:
		return &ExistsExpr{Query: m.query(n.Query)}
	case *SubqueryExpr:
		return &SubqueryExpr{Query: m.query(n.Query)}
	case *ExtractExpr:
		cp := *n
		cp.From = m.expr(n.From)
		return &cp
	}
	// Leaves: ColumnRef, Literal, Param, BindParam, IntervalExpr.
	return e
}

// And joins conjuncts left to right with AND. Operands that bind looser
// than AND are wrapped in ParenExpr so the tree reads the same as its
// formatted text.
func And(conjuncts ...Expr) Expr {
	var out Expr
	for _, c := range conjuncts {
		if c == nil {
			continue
		}
		if exprPrecedence(c) <= PrecedenceAnd {
			if _, ok := c.(*ParenExpr); !ok {
				c = &ParenExpr{Expr: c}
			}
		}
		if out == nil {
			out = c
			continue
		}
		out = &BinaryExpr{Left: out, Op: TOKEN_AND, Right: c}
	}
	return out
}

// MapOrderByQueries is MapExprQueries for an ORDER BY list.
func MapOrderByQueries(items []*OrderByItem, fn QueryMapper) ([]*OrderByItem, error) {
	m := exprMapper{fn: fn}
	out := m.orderBy(items)
	return out, m.err
}

// MapWindowQueries is MapExprQueries for a window specification.
func MapWindowQueries(spec *WindowSpec, fn QueryMapper) (*WindowSpec, error) {
	m := exprMapper{fn: fn}
	out := m.window(spec)
	return out, m.err
}
