package sqlparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{"star", "SELECT * FROM spans", `SELECT * FROM "spans"`},
		{"folding", "SELECT A FROM Spans", `SELECT "a" FROM "spans"`},
		{"columns_and_alias",
			"select a, b as c from s.t x where a = 1 and b <> 'it''s'",
			`SELECT "a", "b" AS "c" FROM "s"."t" AS "x" WHERE "a" = 1 AND "b" <> 'it''s'`},
		{"quoted_ident", `SELECT "Weird""Name" FROM t`, `SELECT "Weird""Name" FROM "t"`},
		{"keyword_ident", `SELECT "select" FROM "from"`, `SELECT "select" FROM "from"`},
		{"table_star", "SELECT t.* FROM t", `SELECT "t".* FROM "t"`},
		{"aggregates",
			"SELECT count(*), COUNT(DISTINCT a) FILTER (WHERE b > 0) FROM t GROUP BY c HAVING count(*) > 1 ORDER BY 1 DESC NULLS LAST LIMIT 5 OFFSET 10",
			`SELECT count(*), count(DISTINCT "a") FILTER (WHERE "b" > 0) FROM "t" GROUP BY "c" HAVING count(*) > 1 ORDER BY 1 DESC NULLS LAST LIMIT 5 OFFSET 10`},
		{"window",
			"SELECT row_number() OVER (PARTITION BY a ORDER BY b ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW) FROM t",
			`SELECT row_number() OVER (PARTITION BY "a" ORDER BY "b" ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW) FROM "t"`},
		{"named_window",
			"SELECT sum(x) OVER w FROM t WINDOW w AS (PARTITION BY y)",
			`SELECT sum("x") OVER "w" FROM "t" WINDOW "w" AS (PARTITION BY "y")`},
		{"set_operation",
			"SELECT a FROM t UNION ALL SELECT b FROM u ORDER BY 1 LIMIT 3",
			`SELECT "a" FROM "t" UNION ALL SELECT "b" FROM "u" ORDER BY 1 LIMIT 3`},
		{"paren_set_operand",
			"(SELECT a FROM t LIMIT 1) INTERSECT SELECT a FROM u",
			`(SELECT "a" FROM "t" LIMIT 1) INTERSECT SELECT "a" FROM "u"`},
		{"cte",
			"WITH x (n) AS (SELECT 1) SELECT * FROM x",
			`WITH "x" ("n") AS (SELECT 1) SELECT * FROM "x"`},
		{"joins",
			"SELECT * FROM a LEFT OUTER JOIN b ON a.id = b.id JOIN c USING (id) CROSS JOIN d, e",
			`SELECT * FROM "a" LEFT JOIN "b" ON "a"."id" = "b"."id" JOIN "c" USING ("id") CROSS JOIN "d", "e"`},
		{"casts_and_case",
			"SELECT CAST(a AS double precision), b::varchar(10), CASE WHEN a IS NOT NULL THEN 1 ELSE 0 END FROM t",
			`SELECT CAST("a" AS DOUBLE PRECISION), "b"::VARCHAR(10), CASE WHEN "a" IS NOT NULL THEN 1 ELSE 0 END FROM "t"`},
		{"timestamp_tz",
			"SELECT ts::timestamp with time zone FROM t",
			`SELECT "ts"::TIMESTAMP WITH TIME ZONE FROM "t"`},
		{"predicates",
			"SELECT * FROM t WHERE a IN (1, 2) AND b NOT BETWEEN 1 AND 2 AND c ILIKE 'x%' AND NOT EXISTS (SELECT 1 FROM u WHERE u.id = t.id)",
			`SELECT * FROM "t" WHERE "a" IN (1, 2) AND "b" NOT BETWEEN 1 AND 2 AND "c" ILIKE 'x%' AND NOT EXISTS (SELECT 1 FROM "u" WHERE "u"."id" = "t"."id")`},
		{"or_keeps_parens",
			"SELECT * FROM t WHERE (a = 1 OR b = 2) AND c = 3",
			`SELECT * FROM "t" WHERE ("a" = 1 OR "b" = 2) AND "c" = 3`},
		{"unary",
			"SELECT - -1, -a, 2 * (3 + 4), a || b || c",
			`SELECT - -1, -"a", 2 * (3 + 4), "a" || "b" || "c"`},
		{"keyword_forms",
			"SELECT extract(year from ts), interval '1 day', current_date FROM t",
			`SELECT EXTRACT(YEAR FROM "ts"), INTERVAL '1 day', CURRENT_DATE FROM "t"`},
		{"derived_table",
			"SELECT * FROM (SELECT 1) AS s (x)",
			`SELECT * FROM (SELECT 1) AS "s" ("x")`},
		{"lateral",
			"SELECT * FROM t, LATERAL (SELECT t.a) l",
			`SELECT * FROM "t", LATERAL (SELECT "t"."a") AS "l"`},
		{"quoted_function_name",
			`SELECT "My Func"(1)`,
			`SELECT "My Func"(1)`},
		{"scalar_subquery",
			"SELECT (SELECT max(v) FROM u) AS m FROM t",
			`SELECT (SELECT max("v") FROM "u") AS "m" FROM "t"`},
		{"is_distinct",
			"SELECT * FROM t WHERE a IS DISTINCT FROM b",
			`SELECT * FROM "t" WHERE "a" IS DISTINCT FROM "b"`},
		{"left_function",
			"SELECT left(name, 3) FROM t",
			`SELECT left("name", 3) FROM "t"`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sel := parseSelect(t, tc.sql)
			got, bindings, err := Format(sel)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Empty(t, bindings)

			// Formatted output parses back to the same text.
			again, _, err := Format(parseSelect(t, got))
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestFormat_ParenthesizesByPrecedence(t *testing.T) {
	a := &ColumnRef{Column: "a"}
	b := &ColumnRef{Column: "b"}
	c := &ColumnRef{Column: "c"}

	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"or_under_and",
			&BinaryExpr{Left: &BinaryExpr{Left: a, Op: TOKEN_OR, Right: b}, Op: TOKEN_AND, Right: c},
			`("a" OR "b") AND "c"`},
		{"right_nested_minus",
			&BinaryExpr{Left: a, Op: TOKEN_MINUS, Right: &BinaryExpr{Left: b, Op: TOKEN_MINUS, Right: c}},
			`"a" - ("b" - "c")`},
		{"left_nested_minus",
			&BinaryExpr{Left: &BinaryExpr{Left: a, Op: TOKEN_MINUS, Right: b}, Op: TOKEN_MINUS, Right: c},
			`"a" - "b" - "c"`},
		{"not_over_or",
			&UnaryExpr{Op: TOKEN_NOT, Expr: &BinaryExpr{Left: a, Op: TOKEN_OR, Right: b}},
			`NOT ("a" OR "b")`},
		{"negated_sum",
			&UnaryExpr{Op: TOKEN_MINUS, Expr: &BinaryExpr{Left: a, Op: TOKEN_PLUS, Right: b}},
			`-("a" + "b")`},
		{"cast_of_sum",
			&CastExpr{Expr: &BinaryExpr{Left: a, Op: TOKEN_PLUS, Right: b}, TypeName: &TypeName{Words: []string{"int"}}, Postfix: true},
			`("a" + "b")::INT`},
		{"in_of_or",
			&InExpr{Expr: &BinaryExpr{Left: a, Op: TOKEN_OR, Right: b}, Values: []Expr{c}},
			`("a" OR "b") IN ("c")`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := &formatter{index: make(map[Binding]int)}
			f.formatExpr(tc.expr)
			require.NoError(t, f.err)
			assert.Equal(t, tc.want, f.buf.String())
		})
	}
}

func TestFormat_BindParams(t *testing.T) {
	sel := parseSelect(t, "SELECT * FROM a JOIN b ON a.id = b.id")
	core := firstCore(t, sel)
	core.Where = And(
		&BinaryExpr{Left: &ColumnRef{Table: "a", Column: "project_id"}, Op: TOKEN_EQ, Right: &BindParam{Name: "project_id", Value: "7"}},
		&BinaryExpr{Left: &ColumnRef{Table: "b", Column: "org_id"}, Op: TOKEN_EQ, Right: &BindParam{Name: "org_id", Value: "7"}},
		&BinaryExpr{Left: &ColumnRef{Table: "b", Column: "project_id"}, Op: TOKEN_EQ, Right: &BindParam{Name: "project_id", Value: "7"}},
	)

	got, bindings, err := Format(sel)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT * FROM "a" JOIN "b" ON "a"."id" = "b"."id" WHERE "a"."project_id" = $1 AND "b"."org_id" = $2 AND "b"."project_id" = $1`,
		got)
	assert.Equal(t, []Binding{{Name: "project_id", Value: "7"}, {Name: "org_id", Value: "7"}}, bindings)
}

func TestFormat_RefusesUnemittableNodes(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"user_param", "SELECT * FROM t WHERE a = $1"},
		{"nested_dml", "SELECT * FROM (DELETE FROM t RETURNING *) x"},
		{"cte_dml", "WITH x AS (UPDATE t SET a = 1 RETURNING *) SELECT * FROM x"},
		{"select_into", "SELECT * INTO copy FROM t"},
		{"locking", "SELECT * FROM t FOR UPDATE"},
		{"table_function", "SELECT * FROM read_parquet('s3://bucket/x')"},
		{"string_source", "SELECT * FROM 'file.csv'"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, bindings, err := Format(parseSelect(t, tc.sql))
			require.Error(t, err)
			assert.Empty(t, got)
			assert.Nil(t, bindings)
		})
	}
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"spans"`, QuoteIdent("spans"))
	assert.Equal(t, `"a""b"`, QuoteIdent(`a"b`))
	assert.Equal(t, `'it''s'`, QuoteString("it's"))
}
