package transpile

import (
	"fmt"

	"sqlscope/internal/sqlparse"
)

// DefaultLimit is the row cap applied when Options.DefaultLimit is zero.
const DefaultLimit uint64 = 100

// EnforceLimit caps the outermost query at defaultLimit rows. A missing
// LIMIT is set and a larger one is clamped; each case returns a warning.
// An existing LIMIT at or below the cap is kept with no warning. Nested
// queries are never limited. q itself is not modified.
func EnforceLimit(q *sqlparse.SelectStmt, defaultLimit uint64) (*sqlparse.SelectStmt, string) {
	if defaultLimit == 0 {
		defaultLimit = DefaultLimit
	}
	switch {
	case q.Limit == nil:
		cp := *q
		cp.Limit = &defaultLimit
		return &cp, fmt.Sprintf(
			"A limit of %d was applied to the query for performance reasons. Add an explicit limit to see more results.",
			defaultLimit)
	case *q.Limit > defaultLimit:
		requested := *q.Limit
		cp := *q
		cp.Limit = &defaultLimit
		return &cp, fmt.Sprintf(
			"The requested limit of %d exceeds the maximum of %d and was reduced to %d for performance reasons.",
			requested, defaultLimit, defaultLimit)
	}
	return q, ""
}
