package sqlparse

import "strings"

// primaryPrecedence is the binding power of atoms that never need
// parentheses around them.
const primaryPrecedence = 10

// exprPrecedence returns how tightly e binds as an operand.
func exprPrecedence(e Expr) int {
	switch e := e.(type) {
	case *BinaryExpr:
		return binaryPrecedence(e.Op)
	case *UnaryExpr:
		if e.Op == TOKEN_NOT {
			return PrecedenceNot
		}
		return PrecedenceUnary
	case *IsExpr, *InExpr, *BetweenExpr, *LikeExpr:
		return PrecedenceComparison
	case *CastExpr:
		if e.Postfix {
			return PrecedencePostfix
		}
	}
	return primaryPrecedence
}

// formatOperand writes e, parenthesized when it binds looser than minPrec.
func (f *formatter) formatOperand(e Expr, minPrec int) {
	if exprPrecedence(e) < minPrec {
		f.write("(")
		f.formatExpr(e)
		f.write(")")
		return
	}
	f.formatExpr(e)
}

func (f *formatter) formatExprList(list []Expr) {
	f.commaSep(len(list), func(i int) {
		f.formatExpr(list[i])
	})
}

func (f *formatter) formatExpr(e Expr) {
	switch e := e.(type) {
	case *ColumnRef:
		if e.Schema != "" {
			f.writeIdent(e.Schema)
			f.write(".")
		}
		if e.Table != "" {
			f.writeIdent(e.Table)
			f.write(".")
		}
		f.writeIdent(e.Column)

	case *Literal:
		f.formatLiteral(e)

	case *Param:
		f.fail("unexpected parameter %s in query", e.Text)

	case *BindParam:
		f.write(f.placeholder(Binding{Name: e.Name, Value: e.Value}))

	case *BinaryExpr:
		prec := binaryPrecedence(e.Op)
		f.formatOperand(e.Left, prec)
		f.write(" ")
		f.write(operatorText(e.Op))
		f.write(" ")
		// Left-associative: an equal-precedence right operand keeps its
		// grouping only with parentheses, except for AND / OR / ||.
		right := prec + 1
		if e.Op == TOKEN_AND || e.Op == TOKEN_OR || e.Op == TOKEN_DPIPE {
			right = prec
		}
		f.formatOperand(e.Right, right)

	case *UnaryExpr:
		if e.Op == TOKEN_NOT {
			f.write("NOT ")
			f.formatOperand(e.Expr, PrecedenceNot)
			return
		}
		f.write(operatorText(e.Op))
		// "- -1" must not collapse into a "--" line comment.
		if _, nested := e.Expr.(*UnaryExpr); nested {
			f.write(" ")
		}
		f.formatOperand(e.Expr, PrecedenceUnary)

	case *ParenExpr:
		f.write("(")
		f.formatExpr(e.Expr)
		f.write(")")

	case *FuncCall:
		f.formatFuncCall(e)

	case *CaseExpr:
		f.write("CASE")
		if e.Operand != nil {
			f.write(" ")
			f.formatExpr(e.Operand)
		}
		for _, w := range e.Whens {
			f.write(" WHEN ")
			f.formatExpr(w.Condition)
			f.write(" THEN ")
			f.formatExpr(w.Result)
		}
		if e.Else != nil {
			f.write(" ELSE ")
			f.formatExpr(e.Else)
		}
		f.write(" END")

	case *CastExpr:
		if e.Postfix {
			f.formatOperand(e.Expr, PrecedencePostfix)
			f.write("::")
			f.formatTypeName(e.TypeName)
			return
		}
		f.write("CAST(")
		f.formatExpr(e.Expr)
		f.write(" AS ")
		f.formatTypeName(e.TypeName)
		f.write(")")

	case *InExpr:
		f.formatOperand(e.Expr, PrecedenceComparison+1)
		if e.Not {
			f.write(" NOT")
		}
		f.write(" IN (")
		if e.Query != nil {
			f.formatSelectStmt(e.Query)
		} else {
			f.formatExprList(e.Values)
		}
		f.write(")")

	case *BetweenExpr:
		f.formatOperand(e.Expr, PrecedenceComparison+1)
		if e.Not {
			f.write(" NOT")
		}
		f.write(" BETWEEN ")
		f.formatOperand(e.Low, PrecedenceComparison+1)
		f.write(" AND ")
		f.formatOperand(e.High, PrecedenceComparison+1)

	case *IsExpr:
		f.formatOperand(e.Expr, PrecedenceComparison+1)
		f.write(" IS ")
		if e.Not {
			f.write("NOT ")
		}
		switch e.Kind {
		case IsNull:
			f.write("NULL")
		case IsTrue:
			f.write("TRUE")
		case IsFalse:
			f.write("FALSE")
		case IsDistinctFrom:
			f.write("DISTINCT FROM ")
			f.formatOperand(e.Right, PrecedenceComparison+1)
		}

	case *LikeExpr:
		f.formatOperand(e.Expr, PrecedenceComparison+1)
		if e.Not {
			f.write(" NOT")
		}
		if e.CaseInsensitive {
			f.write(" ILIKE ")
		} else {
			f.write(" LIKE ")
		}
		f.formatOperand(e.Pattern, PrecedenceComparison+1)
		if e.Escape != nil {
			f.write(" ESCAPE ")
			f.formatOperand(e.Escape, PrecedenceComparison+1)
		}

	case *ExistsExpr:
		f.write("EXISTS (")
		f.formatSelectStmt(e.Query)
		f.write(")")

	case *SubqueryExpr:
		f.write("(")
		f.formatSelectStmt(e.Query)
		f.write(")")

	case *IntervalExpr:
		f.write("INTERVAL ")
		f.write(QuoteString(e.Value))
		if e.Unit != "" {
			f.write(" ")
			f.write(strings.ToUpper(e.Unit))
		}

	case *ExtractExpr:
		f.write("EXTRACT(")
		f.write(strings.ToUpper(e.Field))
		f.write(" FROM ")
		f.formatExpr(e.From)
		f.write(")")

	default:
		f.fail("unknown expression %T", e)
	}
}

func (f *formatter) formatLiteral(lit *Literal) {
	switch lit.Type {
	case LiteralString:
		f.write(QuoteString(lit.Value))
	case LiteralNumber, LiteralBoolean, LiteralNull:
		f.write(lit.Value)
	}
}

func (f *formatter) formatFuncCall(fc *FuncCall) {
	if fc.Niladic {
		f.write(strings.ToUpper(fc.Name))
		return
	}
	if !fc.Quoted && isPlainIdent(fc.Name) {
		f.write(fc.Name)
	} else {
		f.writeIdent(fc.Name)
	}
	f.write("(")
	switch {
	case fc.Star:
		f.write("*")
	default:
		if fc.Distinct {
			f.write("DISTINCT ")
		}
		f.formatExprList(fc.Args)
		if len(fc.OrderBy) > 0 {
			f.write(" ORDER BY ")
			f.formatOrderBy(fc.OrderBy)
		}
	}
	f.write(")")
	if fc.Filter != nil {
		f.write(" FILTER (WHERE ")
		f.formatExpr(fc.Filter)
		f.write(")")
	}
	if fc.Window != nil {
		f.write(" OVER ")
		if fc.Window.Name != "" {
			f.writeIdent(fc.Window.Name)
			return
		}
		f.write("(")
		f.formatWindowSpecBody(fc.Window)
		f.write(")")
	}
}

func (f *formatter) formatWindowSpecBody(spec *WindowSpec) {
	var parts int
	sep := func() {
		if parts > 0 {
			f.write(" ")
		}
		parts++
	}
	if len(spec.PartitionBy) > 0 {
		sep()
		f.write("PARTITION BY ")
		f.formatExprList(spec.PartitionBy)
	}
	if len(spec.OrderBy) > 0 {
		sep()
		f.write("ORDER BY ")
		f.formatOrderBy(spec.OrderBy)
	}
	if spec.Frame != nil {
		sep()
		f.write(string(spec.Frame.Type))
		if spec.Frame.End != nil {
			f.write(" BETWEEN ")
			f.formatFrameBound(spec.Frame.Start)
			f.write(" AND ")
			f.formatFrameBound(spec.Frame.End)
		} else {
			f.write(" ")
			f.formatFrameBound(spec.Frame.Start)
		}
	}
}

func (f *formatter) formatFrameBound(b *FrameBound) {
	switch b.Type {
	case FrameExprPreceding, FrameExprFollowing:
		f.formatOperand(b.Offset, PrecedenceAnd+1)
		f.write(" ")
		f.write(string(b.Type))
	default:
		f.write(string(b.Type))
	}
}

func (f *formatter) formatTypeName(t *TypeName) {
	f.write(strings.ToUpper(strings.Join(t.Words, " ")))
	if len(t.Modifiers) > 0 {
		f.write("(")
		f.write(strings.Join(t.Modifiers, ", "))
		f.write(")")
	}
}

// operatorText returns the SQL spelling of a binary or unary operator.
func operatorText(op TokenType) string {
	switch op {
	case TOKEN_AND:
		return "AND"
	case TOKEN_OR:
		return "OR"
	case TOKEN_NOT:
		return "NOT"
	}
	return op.String()
}
