package sqlparse

// Inspect traverses the tree rooted at n in depth-first source order,
// calling fn for every statement, query term, table reference and
// expression. When fn returns false the children of that node are skipped.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *SelectStmt:
		if n.With != nil {
			for _, cte := range n.With.CTEs {
				Inspect(cte.Query, fn)
			}
		}
		for body := n.Body; body != nil; body = body.Right {
			Inspect(body.Left, fn)
		}
		inspectOrderBy(n.OrderBy, fn)
		inspectExpr(n.Offset, fn)

	case *SelectCore:
		for _, item := range n.Columns {
			inspectExpr(item.Expr, fn)
		}
		if n.Into != nil {
			Inspect(n.Into, fn)
		}
		if n.From != nil {
			Inspect(n.From.Source, fn)
			for _, j := range n.From.Joins {
				Inspect(j.Right, fn)
				inspectExpr(j.Condition, fn)
			}
		}
		inspectExpr(n.Where, fn)
		inspectExprs(n.GroupBy, fn)
		inspectExpr(n.Having, fn)
		for _, w := range n.Windows {
			inspectWindow(w.Spec, fn)
		}

	case *ParenQuery:
		Inspect(n.Query, fn)

	case *DerivedTable:
		Inspect(n.Query, fn)

	case *FuncTable:
		Inspect(n.Func, fn)

	case *BinaryExpr:
		inspectExpr(n.Left, fn)
		inspectExpr(n.Right, fn)

	case *UnaryExpr:
		inspectExpr(n.Expr, fn)

	case *ParenExpr:
		inspectExpr(n.Expr, fn)

	case *FuncCall:
		inspectExprs(n.Args, fn)
		inspectOrderBy(n.OrderBy, fn)
		inspectExpr(n.Filter, fn)
		inspectWindow(n.Window, fn)

	case *CaseExpr:
		inspectExpr(n.Operand, fn)
		for _, w := range n.Whens {
			inspectExpr(w.Condition, fn)
			inspectExpr(w.Result, fn)
		}
		inspectExpr(n.Else, fn)

	case *CastExpr:
		inspectExpr(n.Expr, fn)

	case *InExpr:
		inspectExpr(n.Expr, fn)
		inspectExprs(n.Values, fn)
		if n.Query != nil {
			Inspect(n.Query, fn)
		}

	case *BetweenExpr:
		inspectExpr(n.Expr, fn)
		inspectExpr(n.Low, fn)
		inspectExpr(n.High, fn)

	case *IsExpr:
		inspectExpr(n.Expr, fn)
		inspectExpr(n.Right, fn)

	case *LikeExpr:
		inspectExpr(n.Expr, fn)
		inspectExpr(n.Pattern, fn)
		inspectExpr(n.Escape, fn)

	case *ExistsExpr:
		Inspect(n.Query, fn)

	case *SubqueryExpr:
		Inspect(n.Query, fn)

	case *ExtractExpr:
		inspectExpr(n.From, fn)
	}
}

// inspectExpr guards against typed-nil interfaces for optional clauses.
func inspectExpr(e Expr, fn func(Node) bool) {
	if e != nil {
		Inspect(e, fn)
	}
}

func inspectExprs(list []Expr, fn func(Node) bool) {
	for _, e := range list {
		inspectExpr(e, fn)
	}
}

func inspectOrderBy(items []*OrderByItem, fn func(Node) bool) {
	for _, item := range items {
		inspectExpr(item.Expr, fn)
	}
}

func inspectWindow(spec *WindowSpec, fn func(Node) bool) {
	if spec == nil {
		return
	}
	inspectExprs(spec.PartitionBy, fn)
	inspectOrderBy(spec.OrderBy, fn)
	if spec.Frame != nil {
		for _, b := range []*FrameBound{spec.Frame.Start, spec.Frame.End} {
			if b != nil {
				inspectExpr(b.Offset, fn)
			}
		}
	}
}
