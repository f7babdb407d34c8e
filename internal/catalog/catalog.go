// Package catalog provides the allow-list of queryable tables as immutable
// snapshots, loaded from YAML files or the SQLite metastore and refreshed
// on a schedule.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"sqlscope/internal/transpile"
)

// Table is one catalog entry.
type Table struct {
	Schema       string
	Name         string
	TenantColumn string
	Queryable    bool
	Description  string
}

// Key returns the name a query must use to reference the table.
func (t Table) Key() string {
	if t.Schema == "" {
		return strings.ToLower(t.Name)
	}
	return strings.ToLower(t.Schema) + "." + strings.ToLower(t.Name)
}

// Source loads a fresh catalog.
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
}

// Provider hands out the current catalog snapshot.
type Provider interface {
	Snapshot() *Catalog
}

// Catalog is an immutable snapshot of the allow-list. It implements
// transpile.TableCatalog.
type Catalog struct {
	byKey  map[string]Table
	tables []Table
}

var _ transpile.TableCatalog = (*Catalog)(nil)

// New builds a snapshot. Table names are matched case-insensitively against
// the folded identifiers of a query. Duplicate keys and queryable tables
// without a tenant column are rejected.
func New(tables []Table) (*Catalog, error) {
	c := &Catalog{byKey: make(map[string]Table, len(tables))}
	for _, t := range tables {
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("catalog: table name is required")
		}
		key := t.Key()
		if _, dup := c.byKey[key]; dup {
			return nil, fmt.Errorf("catalog: duplicate table %q", key)
		}
		if t.Queryable && t.TenantColumn == "" {
			return nil, fmt.Errorf("catalog: table %q has no tenant column", key)
		}
		c.byKey[key] = t
		c.tables = append(c.tables, t)
	}
	sort.Slice(c.tables, func(i, j int) bool { return c.tables[i].Key() < c.tables[j].Key() })
	return c, nil
}

// Empty returns a snapshot that admits no table.
func Empty() *Catalog {
	return &Catalog{byKey: map[string]Table{}}
}

// Lookup implements transpile.TableCatalog.
func (c *Catalog) Lookup(name string) (transpile.TableInfo, bool) {
	if c == nil {
		return transpile.TableInfo{}, false
	}
	t, ok := c.byKey[name]
	if !ok {
		return transpile.TableInfo{}, false
	}
	return transpile.TableInfo{Queryable: t.Queryable, TenantColumn: t.TenantColumn}, true
}

// Tables returns the entries ordered by key.
func (c *Catalog) Tables() []Table {
	out := make([]Table, len(c.tables))
	copy(out, c.tables)
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.tables) }

// StaticSource always loads the same tables.
type StaticSource []Table

// Load implements Source.
func (s StaticSource) Load(context.Context) (*Catalog, error) {
	return New(s)
}
