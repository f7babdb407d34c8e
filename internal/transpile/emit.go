package transpile

import (
	"strconv"

	"sqlscope/internal/sqlparse"
)

// Emit serializes q and returns the SQL with the bind arguments ordered to
// match its placeholders. args is the set of arguments the rewriter
// introduced; any difference between it and what the SQL references is an
// internal error. The emitted text is re-lexed and re-parsed before it is
// returned, and maxDepth bounds the re-parse.
func Emit(q *sqlparse.SelectStmt, args []BindArgument, maxDepth int) (string, []BindArgument, error) {
	sql, bindings, err := sqlparse.Format(q)
	if err != nil {
		return "", nil, internalError(err, "emit")
	}

	ordered := make([]BindArgument, len(bindings))
	for i, b := range bindings {
		ordered[i] = BindArgument{Name: b.Name, Value: b.Value}
	}
	if err := sameArguments(args, ordered); err != nil {
		return "", nil, err
	}
	if err := verifyPlaceholders(sql, len(ordered)); err != nil {
		return "", nil, err
	}

	if maxDepth <= 0 {
		maxDepth = sqlparse.DefaultMaxDepth
	}
	stmts, err := sqlparse.ParseWithDepth(sql, maxDepth*2+8)
	if err != nil {
		return "", nil, internalError(err, "emitted SQL does not parse")
	}
	if len(stmts) != 1 {
		return "", nil, internalError(nil, "emitted SQL holds %d statements", len(stmts))
	}
	if _, ok := stmts[0].(*sqlparse.SelectStmt); !ok {
		return "", nil, internalError(nil, "emitted SQL is not a query")
	}
	return sql, ordered, nil
}

// sameArguments checks that want and got hold the same distinct arguments.
func sameArguments(want, got []BindArgument) error {
	set := make(map[BindArgument]bool, len(want))
	for _, a := range want {
		set[a] = true
	}
	if len(set) != len(got) {
		return internalError(nil, "placeholder count %d does not match argument count %d", len(got), len(set))
	}
	for _, a := range got {
		if !set[a] {
			return internalError(nil, "placeholder bound to unknown argument %q", a.Name)
		}
	}
	return nil
}

// verifyPlaceholders lexes sql and checks that its placeholders are
// exactly $1..$n, each first appearing in increasing order.
func verifyPlaceholders(sql string, n int) error {
	lex := sqlparse.NewLexer(sql)
	next := 1
	for {
		tok := lex.NextToken()
		switch tok.Type {
		case sqlparse.TOKEN_EOF:
			if next != n+1 {
				return internalError(nil, "emitted SQL has %d placeholders, want %d", next-1, n)
			}
			return nil
		case sqlparse.TOKEN_ILLEGAL:
			return internalError(nil, "emitted SQL does not lex at position %d: %s", tok.Pos, tok.Literal)
		case sqlparse.TOKEN_PARAM:
			k, err := strconv.Atoi(tok.Literal[1:])
			if tok.Literal[0] != '$' || err != nil {
				return internalError(err, "unexpected placeholder %s", tok.Literal)
			}
			switch {
			case k == next:
				next++
			case k < 1 || k > next:
				return internalError(nil, "placeholder %s out of order", tok.Literal)
			}
		}
	}
}
