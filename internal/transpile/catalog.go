package transpile

// TableInfo is the catalog entry for one table.
type TableInfo struct {
	Queryable    bool
	TenantColumn string
}

// TableCatalog resolves a table name, as written in the query after
// identifier folding, to its catalog entry. Schema-qualified references
// are looked up as "schema.table".
type TableCatalog interface {
	Lookup(name string) (TableInfo, bool)
}

// MapCatalog is a TableCatalog backed by a map.
type MapCatalog map[string]TableInfo

// Lookup implements TableCatalog.
func (m MapCatalog) Lookup(name string) (TableInfo, bool) {
	info, ok := m[name]
	return info, ok
}
