package transpile

import (
	"strings"

	"sqlscope/internal/sqlparse"
)

// DefaultDeniedFunctions are functions that read files, reach other
// databases, sleep, or expose server settings and internals.
var DefaultDeniedFunctions = []string{
	// file and remote readers
	"read_csv", "read_csv_auto", "read_parquet", "parquet_scan",
	"parquet_metadata", "parquet_schema", "read_json", "read_json_auto",
	"read_json_objects", "read_ndjson", "read_ndjson_auto", "read_text",
	"read_blob", "read_xlsx", "sniff_csv", "glob", "iceberg_scan",
	"delta_scan",
	// other databases
	"sqlite_scan", "sqlite_attach", "postgres_scan", "postgres_query",
	"mysql_query", "query", "query_table", "dblink",
	// server state
	"duckdb_extensions", "duckdb_settings", "duckdb_databases",
	"duckdb_secrets", "duckdb_functions", "duckdb_tables", "duckdb_columns",
	"duckdb_views", "duckdb_schemas", "duckdb_memory",
	"duckdb_temporary_files", "which_secret", "pragma_database_list",
	"getenv", "current_setting", "set_config",
	// postgres compatible side effects
	"pg_sleep", "pg_read_file", "pg_read_binary_file", "pg_ls_dir",
	"lo_import", "lo_export",
}

// denySet builds a lookup set from function names.
func denySet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = true
	}
	return set
}

// ValidateShape accepts exactly one read-only query and returns it. Every
// nested statement, clause and call is checked; denied holds lower-case
// function names that may not be called anywhere in the query.
func ValidateShape(stmts []sqlparse.Stmt, denied map[string]bool) (*sqlparse.SelectStmt, error) {
	switch {
	case len(stmts) == 0:
		return nil, &SyntaxError{Message: ErrEmptyQuery.Error(), Pos: -1, Err: ErrEmptyQuery}
	case len(stmts) > 1:
		return nil, shapeError(ErrMultiStatement, "")
	}

	var q *sqlparse.SelectStmt
	switch s := stmts[0].(type) {
	case *sqlparse.SelectStmt:
		q = s
	case *sqlparse.UnsupportedStmt:
		return nil, shapeError(ErrNotSelect, "%s statements are not allowed", s.Keyword)
	default:
		return nil, shapeError(ErrNotSelect, "")
	}

	var err error
	sqlparse.Inspect(q, func(n sqlparse.Node) bool {
		if err != nil {
			return false
		}
		err = checkNode(n, denied)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

func checkNode(n sqlparse.Node, denied map[string]bool) error {
	switch n := n.(type) {
	case *sqlparse.UnsupportedStmt:
		return shapeError(ErrNestedStatement, "%s is not allowed inside a query", n.Keyword)
	case *sqlparse.SelectStmt:
		if n.Locking != "" {
			return shapeError(ErrLockingClause, "%s", n.Locking)
		}
	case *sqlparse.SelectCore:
		if n.Into != nil {
			return shapeError(ErrSelectInto, "")
		}
	case *sqlparse.Param:
		return shapeError(ErrParameterInInput, "%s", n.Text)
	case *sqlparse.FuncTable:
		return shapeError(ErrTableFunction, "%s", n.Func.Name)
	case *sqlparse.LiteralTable:
		return shapeError(ErrTableFunction, "%s", sqlparse.QuoteString(n.Path))
	case *sqlparse.FuncCall:
		if denied[strings.ToLower(n.Name)] {
			return shapeError(ErrFunctionNotAllowed, "%s", n.Name)
		}
	}
	return nil
}
