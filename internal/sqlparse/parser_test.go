package sqlparse

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, sql string) Stmt {
	t.Helper()
	stmts, err := Parse(sql)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	return stmts[0]
}

func parseSelect(t *testing.T, sql string) *SelectStmt {
	t.Helper()
	sel, ok := parseOne(t, sql).(*SelectStmt)
	require.True(t, ok, "expected *SelectStmt")
	return sel
}

func firstCore(t *testing.T, sel *SelectStmt) *SelectCore {
	t.Helper()
	core, ok := sel.Body.Left.(*SelectCore)
	require.True(t, ok, "expected *SelectCore")
	return core
}

func TestParse_SimpleSelect(t *testing.T) {
	sel := parseSelect(t, "SELECT a, b AS c FROM spans WHERE a = 1")
	core := firstCore(t, sel)

	require.Len(t, core.Columns, 2)
	assert.Equal(t, &ColumnRef{Column: "a"}, core.Columns[0].Expr)
	assert.Equal(t, "c", core.Columns[1].Alias)

	tn, ok := core.From.Source.(*TableName)
	require.True(t, ok)
	assert.Equal(t, "spans", tn.Name)
	assert.Empty(t, tn.Alias)

	where, ok := core.Where.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, TOKEN_EQ, where.Op)
	assert.Nil(t, sel.Limit)
}

func TestParse_TableNames(t *testing.T) {
	tests := []struct {
		name       string
		sql        string
		wantSchema string
		wantName   string
		wantAlias  string
	}{
		{"bare", "SELECT * FROM spans", "", "spans", ""},
		{"alias", "SELECT * FROM spans s", "", "spans", "s"},
		{"as_alias", "SELECT * FROM spans AS s", "", "spans", "s"},
		{"schema", "SELECT * FROM public.spans", "public", "spans", ""},
		{"folded", "SELECT * FROM Public.Spans X", "public", "spans", "x"},
		{"quoted", `SELECT * FROM "Public"."Spans"`, "Public", "Spans", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			core := firstCore(t, parseSelect(t, tc.sql))
			tn, ok := core.From.Source.(*TableName)
			require.True(t, ok)
			assert.Equal(t, tc.wantSchema, tn.Schema)
			assert.Equal(t, tc.wantName, tn.Name)
			assert.Equal(t, tc.wantAlias, tn.Alias)
		})
	}
}

func TestParse_Limit(t *testing.T) {
	sel := parseSelect(t, "SELECT * FROM spans LIMIT 10 OFFSET 5")
	require.NotNil(t, sel.Limit)
	assert.Equal(t, uint64(10), *sel.Limit)
	assert.Equal(t, &Literal{Type: LiteralNumber, Value: "5"}, sel.Offset)

	sel = parseSelect(t, "SELECT * FROM spans OFFSET 5 LIMIT 10")
	require.NotNil(t, sel.Limit)
	assert.Equal(t, uint64(10), *sel.Limit)

	sel = parseSelect(t, "SELECT * FROM spans LIMIT ALL")
	assert.Nil(t, sel.Limit)
}

func TestParse_LimitErrors(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"expression", "SELECT * FROM spans LIMIT 1 + 1"},
		{"negative", "SELECT * FROM spans LIMIT -1"},
		{"decimal", "SELECT * FROM spans LIMIT 1.5"},
		{"subquery", "SELECT * FROM spans LIMIT (SELECT 1)"},
		{"overflow", "SELECT * FROM spans LIMIT 99999999999999999999999"},
		{"twice", "SELECT * FROM spans LIMIT 1 LIMIT 2"},
		{"fetch", "SELECT * FROM spans FETCH FIRST 10 ROWS ONLY"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.sql)
			require.Error(t, err)
			var syntaxErr *Error
			assert.True(t, errors.As(err, &syntaxErr))
		})
	}
}

func TestParse_SetOperations(t *testing.T) {
	sel := parseSelect(t, "SELECT a FROM t UNION ALL SELECT b FROM u EXCEPT (SELECT c FROM v LIMIT 1) ORDER BY 1 LIMIT 3")

	body := sel.Body
	assert.Equal(t, SetOpUnion, body.Op)
	assert.True(t, body.All)
	require.NotNil(t, body.Right)
	assert.Equal(t, SetOpExcept, body.Right.Op)
	assert.False(t, body.Right.All)

	paren, ok := body.Right.Right.Left.(*ParenQuery)
	require.True(t, ok)
	require.NotNil(t, paren.Query.Limit)
	assert.Equal(t, uint64(1), *paren.Query.Limit)

	require.Len(t, sel.OrderBy, 1)
	require.NotNil(t, sel.Limit)
	assert.Equal(t, uint64(3), *sel.Limit)
}

func TestParse_WithClause(t *testing.T) {
	sel := parseSelect(t, "WITH RECURSIVE a (x) AS (SELECT 1), b AS MATERIALIZED (SELECT * FROM a) SELECT * FROM b")
	require.NotNil(t, sel.With)
	assert.True(t, sel.With.Recursive)
	require.Len(t, sel.With.CTEs, 2)
	assert.Equal(t, "a", sel.With.CTEs[0].Name)
	assert.Equal(t, []string{"x"}, sel.With.CTEs[0].Columns)
	_, ok := sel.With.CTEs[1].Query.(*SelectStmt)
	assert.True(t, ok)
}

func TestParse_NestedUnsupportedStatements(t *testing.T) {
	sel := parseSelect(t, "WITH d AS (DELETE FROM spans RETURNING *) SELECT * FROM d")
	unsupported, ok := sel.With.CTEs[0].Query.(*UnsupportedStmt)
	require.True(t, ok)
	assert.Equal(t, "DELETE", unsupported.Keyword)

	sel = parseSelect(t, "SELECT * FROM (INSERT INTO t VALUES (1) RETURNING id) x")
	dt, ok := firstCore(t, sel).From.Source.(*DerivedTable)
	require.True(t, ok)
	unsupported, ok = dt.Query.(*UnsupportedStmt)
	require.True(t, ok)
	assert.Equal(t, "INSERT", unsupported.Keyword)
	assert.Equal(t, "x", dt.Alias)
}

func TestParse_UnsupportedStatements(t *testing.T) {
	tests := []struct {
		sql     string
		keyword string
	}{
		{"DELETE FROM spans", "DELETE"},
		{"insert into spans values (1, 'a')", "INSERT"},
		{"UPDATE spans SET a = 1", "UPDATE"},
		{"CREATE TABLE t (id int)", "CREATE"},
		{"DROP TABLE spans", "DROP"},
		{"ALTER TABLE spans ADD COLUMN x int", "ALTER"},
		{"COPY spans TO '/tmp/out.csv'", "COPY"},
		{"ATTACH 'other.db'", "ATTACH"},
		{"PRAGMA database_list", "PRAGMA"},
		{"SET search_path = public", "SET"},
		{"BEGIN", "BEGIN"},
		{"END", "END"},
	}

	for _, tc := range tests {
		t.Run(tc.keyword, func(t *testing.T) {
			stmt := parseOne(t, tc.sql)
			unsupported, ok := stmt.(*UnsupportedStmt)
			require.True(t, ok)
			assert.Equal(t, tc.keyword, unsupported.Keyword)
		})
	}
}

func TestParse_MultipleStatements(t *testing.T) {
	stmts, err := Parse("SELECT * FROM spans; DROP TABLE spans;")
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	_, ok := stmts[0].(*SelectStmt)
	assert.True(t, ok)
	_, ok = stmts[1].(*UnsupportedStmt)
	assert.True(t, ok)

	stmts, err = Parse("SELECT 1;;")
	require.NoError(t, err)
	assert.Len(t, stmts, 1)
}

func TestParse_Empty(t *testing.T) {
	for _, sql := range []string{"", "   ", ";", "-- only a comment", "/* c */ ;"} {
		_, err := Parse(sql)
		assert.ErrorIs(t, err, ErrEmpty, "input %q", sql)
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		wantMsg string
	}{
		{"garbage", "HELLO WORLD", "unexpected identifier"},
		{"missing_from_table", "SELECT * FROM", "expected table name"},
		{"unclosed_paren", "SELECT (1 FROM t", "expected )"},
		{"trailing_tokens", "SELECT 1 2", "after end of statement"},
		{"unterminated_string", "SELECT 'abc", "unterminated string literal"},
		{"illegal_char", "SELECT 1 # 2", "unexpected character"},
		{"nul_byte", "SELECT * FROM spans\x00; DROP TABLE spans", "unexpected character"},
		{"join_without_on", "SELECT * FROM a JOIN b", "expected ON or USING"},
		{"three_part_table", "SELECT * FROM a.b.c", "at most two parts"},
		{"distinct_on", "SELECT DISTINCT ON (a) a FROM t", "DISTINCT ON"},
		{"qualified_func", "SELECT pg_catalog.pg_sleep(1)", "qualified function"},
		{"string_type_modifier", "SELECT CAST(a AS varchar('x'))", "integer type modifier"},
		{"quoted_type", `SELECT a::"int"`, "expected type name"},
		{"row_constructor", "SELECT * FROM t WHERE (a, b) = (1, 2)", "row constructors"},
		{"paren_join", "SELECT * FROM (a JOIN b ON true)", "parenthesized join"},
		{"table_column_aliases", "SELECT * FROM t AS x (a, b)", "column alias lists"},
		{"dml_in_expression", "SELECT * FROM t WHERE a IN (DELETE FROM t)", "expected ), found FROM"},
		{"unbalanced_unsupported", "DELETE FROM t WHERE a = (1))", "unbalanced parenthesis"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.sql)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestParse_DepthCap(t *testing.T) {
	deep := "SELECT " + strings.Repeat("(", 200) + "1" + strings.Repeat(")", 200)
	_, err := Parse(deep)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum nesting depth of 64")

	shallow := "SELECT " + strings.Repeat("(", 10) + "1" + strings.Repeat(")", 10)
	_, err = Parse(shallow)
	require.NoError(t, err)

	_, err = ParseWithDepth("SELECT ((1))", 3)
	require.Error(t, err)
	_, err = ParseWithDepth("SELECT (1)", 3)
	require.NoError(t, err)

	nots := "SELECT * FROM t WHERE " + strings.Repeat("NOT ", 500) + "true"
	_, err = Parse(nots)
	require.Error(t, err)

	subqueries := "SELECT * FROM " + strings.Repeat("(SELECT * FROM ", 100) + "t" + strings.Repeat(") x", 100)
	_, err = Parse(subqueries)
	require.Error(t, err)
}

func TestParse_Expressions(t *testing.T) {
	core := firstCore(t, parseSelect(t, "SELECT * FROM t WHERE a = 1 OR b = 2 AND NOT c"))

	or, ok := core.Where.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, TOKEN_OR, or.Op)

	and, ok := or.Right.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, TOKEN_AND, and.Op)

	not, ok := and.Right.(*UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, TOKEN_NOT, not.Op)
}

func TestParse_Predicates(t *testing.T) {
	tests := []struct {
		name  string
		where string
		check func(t *testing.T, e Expr)
	}{
		{"in_list", "a IN (1, 2, 3)", func(t *testing.T, e Expr) {
			in := e.(*InExpr)
			assert.Len(t, in.Values, 3)
			assert.False(t, in.Not)
		}},
		{"not_in_subquery", "a NOT IN (SELECT b FROM u)", func(t *testing.T, e Expr) {
			in := e.(*InExpr)
			assert.True(t, in.Not)
			assert.NotNil(t, in.Query)
		}},
		{"between", "a BETWEEN 1 AND 10", func(t *testing.T, e Expr) {
			b := e.(*BetweenExpr)
			assert.Equal(t, &Literal{Type: LiteralNumber, Value: "10"}, b.High)
		}},
		{"is_not_null", "a IS NOT NULL", func(t *testing.T, e Expr) {
			is := e.(*IsExpr)
			assert.True(t, is.Not)
			assert.Equal(t, IsNull, is.Kind)
		}},
		{"is_distinct_from", "a IS DISTINCT FROM b", func(t *testing.T, e Expr) {
			is := e.(*IsExpr)
			assert.Equal(t, IsDistinctFrom, is.Kind)
			assert.Equal(t, &ColumnRef{Column: "b"}, is.Right)
		}},
		{"ilike_escape", "a NOT ILIKE 'x!%' ESCAPE '!'", func(t *testing.T, e Expr) {
			like := e.(*LikeExpr)
			assert.True(t, like.Not)
			assert.True(t, like.CaseInsensitive)
			assert.NotNil(t, like.Escape)
		}},
		{"exists", "EXISTS (SELECT 1 FROM u WHERE u.id = t.id)", func(t *testing.T, e Expr) {
			_, ok := e.(*ExistsExpr)
			assert.True(t, ok)
		}},
		{"scalar_subquery", "a = (SELECT max(b) FROM u)", func(t *testing.T, e Expr) {
			_, ok := e.(*BinaryExpr).Right.(*SubqueryExpr)
			assert.True(t, ok)
		}},
		{"user_param", "a = $1", func(t *testing.T, e Expr) {
			assert.Equal(t, &Param{Text: "$1"}, e.(*BinaryExpr).Right)
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			core := firstCore(t, parseSelect(t, "SELECT * FROM t WHERE "+tc.where))
			tc.check(t, core.Where)
		})
	}
}

func TestParse_FunctionCalls(t *testing.T) {
	core := firstCore(t, parseSelect(t,
		"SELECT count(*), count(DISTINCT a) FILTER (WHERE b > 0), string_agg(c, ',' ORDER BY c), "+
			"row_number() OVER (PARTITION BY a ORDER BY b DESC ROWS BETWEEN 1 PRECEDING AND CURRENT ROW), "+
			"sum(d) OVER w, current_date FROM t WINDOW w AS (ORDER BY a)"))

	require.Len(t, core.Columns, 6)

	countStar := core.Columns[0].Expr.(*FuncCall)
	assert.True(t, countStar.Star)

	countDistinct := core.Columns[1].Expr.(*FuncCall)
	assert.True(t, countDistinct.Distinct)
	assert.NotNil(t, countDistinct.Filter)

	agg := core.Columns[2].Expr.(*FuncCall)
	assert.Len(t, agg.OrderBy, 1)

	win := core.Columns[3].Expr.(*FuncCall)
	require.NotNil(t, win.Window)
	assert.Len(t, win.Window.PartitionBy, 1)
	require.NotNil(t, win.Window.Frame)
	assert.Equal(t, FrameRows, win.Window.Frame.Type)
	assert.Equal(t, FrameExprPreceding, win.Window.Frame.Start.Type)
	assert.Equal(t, FrameCurrentRow, win.Window.Frame.End.Type)

	named := core.Columns[4].Expr.(*FuncCall)
	assert.Equal(t, "w", named.Window.Name)

	niladic := core.Columns[5].Expr.(*FuncCall)
	assert.True(t, niladic.Niladic)

	require.Len(t, core.Windows, 1)
	assert.Equal(t, "w", core.Windows[0].Name)
}

func TestParse_Joins(t *testing.T) {
	core := firstCore(t, parseSelect(t,
		"SELECT * FROM a LEFT OUTER JOIN b ON a.id = b.id RIGHT JOIN c USING (id) FULL JOIN d ON true "+
			"CROSS JOIN e NATURAL JOIN f, g INNER JOIN LATERAL (SELECT 1) h ON true"))

	require.Len(t, core.From.Joins, 7)
	want := []JoinType{JoinLeft, JoinRight, JoinFull, JoinCross, JoinInner, JoinComma, JoinInner}
	for i, j := range core.From.Joins {
		assert.Equal(t, want[i], j.Type, "join %d", i)
	}
	assert.Equal(t, []string{"id"}, core.From.Joins[1].Using)
	assert.True(t, core.From.Joins[4].Natural)

	lateral, ok := core.From.Joins[6].Right.(*DerivedTable)
	require.True(t, ok)
	assert.True(t, lateral.Lateral)
}

func TestParse_RejectedShapesStillParse(t *testing.T) {
	core := firstCore(t, parseSelect(t, "SELECT * INTO TEMP copy FROM spans"))
	require.NotNil(t, core.Into)
	assert.Equal(t, "copy", core.Into.Name)

	sel := parseSelect(t, "SELECT * FROM spans FOR UPDATE OF spans NOWAIT")
	assert.Equal(t, "FOR UPDATE OF SPANS NOWAIT", sel.Locking)

	core = firstCore(t, parseSelect(t, "SELECT * FROM read_csv('/etc/passwd')"))
	_, ok := core.From.Source.(*FuncTable)
	assert.True(t, ok)

	core = firstCore(t, parseSelect(t, "SELECT * FROM 'data.parquet'"))
	_, ok = core.From.Source.(*LiteralTable)
	assert.True(t, ok)
}
