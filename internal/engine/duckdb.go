// Package engine executes scoped queries on DuckDB.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver
)

// Result holds the structured output of a query.
type Result struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// DuckDB runs parameterized SELECT statements against a DuckDB database.
type DuckDB struct {
	db      *sql.DB
	timeout time.Duration
}

// Open opens the DuckDB database at path. An empty path opens an in-memory
// database. A positive timeout bounds each query.
func Open(path string, timeout time.Duration) (*DuckDB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	return &DuckDB{db: db, timeout: timeout}, nil
}

// NewDuckDB wraps an already opened connection pool.
func NewDuckDB(db *sql.DB, timeout time.Duration) *DuckDB {
	return &DuckDB{db: db, timeout: timeout}
}

// Query runs query with args bound to $1..$n in order.
func (d *DuckDB) Query(ctx context.Context, query string, args []any) (*Result, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	result, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("scan results: %w", err)
	}
	return result, nil
}

// Exec runs a statement outside the query pipeline, for seeding and setup.
func (d *DuckDB) Exec(ctx context.Context, stmt string) error {
	if _, err := d.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (d *DuckDB) Close() error {
	return d.db.Close()
}

func scanRows(rows *sql.Rows) (*Result, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([][]any, 0)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		// Byte slices become strings for JSON.
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &Result{Columns: cols, Rows: out}, nil
}
