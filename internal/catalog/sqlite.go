package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLiteRepo stores the catalog in the metastore's queryable_tables table.
type SQLiteRepo struct {
	db *sql.DB
}

// NewSQLiteRepo creates a new SQLiteRepo.
func NewSQLiteRepo(db *sql.DB) *SQLiteRepo {
	return &SQLiteRepo{db: db}
}

// Load implements Source.
func (r *SQLiteRepo) Load(ctx context.Context) (*Catalog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT schema_name, table_name, tenant_column, queryable, description
		 FROM queryable_tables ORDER BY schema_name, table_name`)
	if err != nil {
		return nil, fmt.Errorf("list queryable tables: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var tables []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Schema, &t.Name, &t.TenantColumn, &t.Queryable, &t.Description); err != nil {
			return nil, fmt.Errorf("scan queryable table: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list queryable tables: %w", err)
	}
	return New(tables)
}

// Upsert inserts or replaces one entry.
func (r *SQLiteRepo) Upsert(ctx context.Context, t Table) error {
	return upsert(ctx, r.db, t)
}

// ReplaceAll swaps the whole catalog in one transaction.
func (r *SQLiteRepo) ReplaceAll(ctx context.Context, tables []Table) error {
	if _, err := New(tables); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM queryable_tables`); err != nil {
		return fmt.Errorf("clear queryable tables: %w", err)
	}
	for _, t := range tables {
		if err := upsert(ctx, tx, t); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Delete removes one entry. Deleting a missing entry is not an error.
func (r *SQLiteRepo) Delete(ctx context.Context, schema, name string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM queryable_tables WHERE schema_name = ? AND table_name = ?`, schema, name)
	if err != nil {
		return fmt.Errorf("delete queryable table: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, t Table) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO queryable_tables (schema_name, table_name, tenant_column, queryable, description)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (schema_name, table_name) DO UPDATE SET
		   tenant_column = excluded.tenant_column,
		   queryable = excluded.queryable,
		   description = excluded.description,
		   updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		t.Schema, t.Name, t.TenantColumn, t.Queryable, t.Description)
	if err != nil {
		return fmt.Errorf("upsert queryable table %q: %w", t.Key(), err)
	}
	return nil
}
