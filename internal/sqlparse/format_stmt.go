package sqlparse

import (
	"strconv"
	"strings"
)

func (f *formatter) formatStmt(s Stmt) {
	switch s := s.(type) {
	case *SelectStmt:
		f.formatSelectStmt(s)
	case *UnsupportedStmt:
		f.fail("cannot format %s statement", s.Keyword)
	default:
		f.fail("unknown statement %T", s)
	}
}

func (f *formatter) formatSelectStmt(s *SelectStmt) {
	if s.Locking != "" {
		f.fail("cannot format locking clause %s", s.Locking)
		return
	}
	if s.With != nil {
		f.formatWith(s.With)
		f.write(" ")
	}
	for body := s.Body; body != nil; body = body.Right {
		f.formatQueryTerm(body.Left)
		if body.Right == nil {
			break
		}
		f.write(" ")
		f.write(body.Op.String())
		if body.All {
			f.write(" ALL")
		}
		f.write(" ")
	}
	if len(s.OrderBy) > 0 {
		f.write(" ORDER BY ")
		f.formatOrderBy(s.OrderBy)
	}
	if s.Limit != nil {
		f.write(" LIMIT ")
		f.write(strconv.FormatUint(*s.Limit, 10))
	}
	if s.Offset != nil {
		f.write(" OFFSET ")
		f.formatExpr(s.Offset)
	}
}

func (f *formatter) formatWith(w *WithClause) {
	f.write("WITH ")
	if w.Recursive {
		f.write("RECURSIVE ")
	}
	f.commaSep(len(w.CTEs), func(i int) {
		cte := w.CTEs[i]
		f.writeIdent(cte.Name)
		if len(cte.Columns) > 0 {
			f.write(" ")
			f.writeIdentList(cte.Columns)
		}
		f.write(" AS (")
		f.formatStmt(cte.Query)
		f.write(")")
	})
}

func (f *formatter) formatQueryTerm(t QueryTerm) {
	switch t := t.(type) {
	case *SelectCore:
		f.formatSelectCore(t)
	case *ParenQuery:
		f.write("(")
		f.formatSelectStmt(t.Query)
		f.write(")")
	default:
		f.fail("unknown query term %T", t)
	}
}

func (f *formatter) formatSelectCore(c *SelectCore) {
	if c.Into != nil {
		f.fail("cannot format SELECT INTO")
		return
	}
	f.write("SELECT ")
	if c.Distinct {
		f.write("DISTINCT ")
	}
	f.commaSep(len(c.Columns), func(i int) {
		f.formatSelectItem(c.Columns[i])
	})
	if c.From != nil {
		f.write(" FROM ")
		f.formatFrom(c.From)
	}
	if c.Where != nil {
		f.write(" WHERE ")
		f.formatExpr(c.Where)
	}
	if len(c.GroupBy) > 0 {
		f.write(" GROUP BY ")
		f.formatExprList(c.GroupBy)
	}
	if c.Having != nil {
		f.write(" HAVING ")
		f.formatExpr(c.Having)
	}
	if len(c.Windows) > 0 {
		f.write(" WINDOW ")
		f.commaSep(len(c.Windows), func(i int) {
			f.writeIdent(c.Windows[i].Name)
			f.write(" AS (")
			f.formatWindowSpecBody(c.Windows[i].Spec)
			f.write(")")
		})
	}
}

func (f *formatter) formatSelectItem(item *SelectItem) {
	switch {
	case item.Star:
		f.write("*")
	case item.TableStar != "":
		f.writeIdent(item.TableStar)
		f.write(".*")
	default:
		f.formatExpr(item.Expr)
		if item.Alias != "" {
			f.write(" AS ")
			f.writeIdent(item.Alias)
		}
	}
}

func (f *formatter) formatOrderBy(items []*OrderByItem) {
	f.commaSep(len(items), func(i int) {
		item := items[i]
		f.formatExpr(item.Expr)
		if item.Desc {
			f.write(" DESC")
		}
		if item.NullsFirst != nil {
			if *item.NullsFirst {
				f.write(" NULLS FIRST")
			} else {
				f.write(" NULLS LAST")
			}
		}
	})
}

func (f *formatter) formatFrom(from *FromClause) {
	f.formatTableRef(from.Source)
	for _, j := range from.Joins {
		if j.Type == JoinComma {
			f.write(", ")
			f.formatTableRef(j.Right)
			continue
		}
		f.write(" ")
		if j.Natural {
			f.write("NATURAL ")
		}
		f.write(j.Type.String())
		f.write(" ")
		f.formatTableRef(j.Right)
		switch {
		case j.Condition != nil:
			f.write(" ON ")
			f.formatExpr(j.Condition)
		case len(j.Using) > 0:
			f.write(" USING ")
			f.writeIdentList(j.Using)
		}
	}
}

func (f *formatter) formatTableRef(ref TableRef) {
	switch t := ref.(type) {
	case *TableName:
		if t.Schema != "" {
			f.writeIdent(t.Schema)
			f.write(".")
		}
		f.writeIdent(t.Name)
		f.writeAlias(t.Alias)
	case *DerivedTable:
		if t.Lateral {
			f.write("LATERAL ")
		}
		f.write("(")
		f.formatStmt(t.Query)
		f.write(")")
		f.writeAlias(t.Alias)
		if len(t.ColumnAliases) > 0 {
			f.write(" ")
			f.writeIdentList(t.ColumnAliases)
		}
	case *FuncTable:
		f.fail("cannot format table function %s", strings.ToUpper(t.Func.Name))
	case *LiteralTable:
		f.fail("cannot format string table source")
	default:
		f.fail("unknown table reference %T", ref)
	}
}

func (f *formatter) writeAlias(alias string) {
	if alias != "" {
		f.write(" AS ")
		f.writeIdent(alias)
	}
}
