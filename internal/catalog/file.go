package catalog

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileDocument is the YAML layout of a catalog file.
type fileDocument struct {
	Version             int         `yaml:"version"`
	DefaultTenantColumn string      `yaml:"default_tenant_column"`
	Tables              []fileTable `yaml:"tables"`
}

type fileTable struct {
	Schema       string `yaml:"schema"`
	Name         string `yaml:"name"`
	TenantColumn string `yaml:"tenant_column"`
	Queryable    *bool  `yaml:"queryable"`
	Description  string `yaml:"description"`
}

// FileSource loads a catalog from a YAML file. Tables without a
// tenant_column use the document default, then DefaultTenantColumn;
// tables are queryable unless they say otherwise.
type FileSource struct {
	Path                string
	DefaultTenantColumn string
}

// Load implements Source.
func (s FileSource) Load(context.Context) (*Catalog, error) {
	tables, err := ParseFile(s.Path, s.DefaultTenantColumn)
	if err != nil {
		return nil, err
	}
	return New(tables)
}

// ParseFile reads the tables of a YAML catalog file.
func ParseFile(path, defaultTenantColumn string) ([]Table, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-controlled
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(data, defaultTenantColumn)
}

// Parse decodes YAML catalog data. Unknown fields are an error.
func Parse(data []byte, defaultTenantColumn string) ([]Table, error) {
	var doc fileDocument
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	if doc.Version != 0 && doc.Version != 1 {
		return nil, fmt.Errorf("parse catalog file: unsupported version %d", doc.Version)
	}

	fallback := doc.DefaultTenantColumn
	if fallback == "" {
		fallback = defaultTenantColumn
	}
	tables := make([]Table, 0, len(doc.Tables))
	for _, ft := range doc.Tables {
		t := Table{
			Schema:       ft.Schema,
			Name:         ft.Name,
			TenantColumn: ft.TenantColumn,
			Queryable:    ft.Queryable == nil || *ft.Queryable,
			Description:  ft.Description,
		}
		if t.TenantColumn == "" {
			t.TenantColumn = fallback
		}
		tables = append(tables, t)
	}
	return tables, nil
}
