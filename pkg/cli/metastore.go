package cli

import (
	"context"
	"database/sql"

	"sqlscope/internal/config"
	"sqlscope/internal/db"
	"sqlscope/internal/transpile"
)

// metastore is the migrated SQLite pool pair.
type metastore struct {
	write *sql.DB
	read  *sql.DB
}

func openMetastore(ctx context.Context, cfg *config.Config) (*metastore, error) {
	writeDB, readDB, err := db.OpenSQLitePair(cfg.MetaDBPath, 0)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, writeDB); err != nil {
		_ = readDB.Close()
		_ = writeDB.Close()
		return nil, err
	}
	return &metastore{write: writeDB, read: readDB}, nil
}

func (m *metastore) Close() error {
	_ = m.read.Close()
	return m.write.Close()
}

func newTranspiler(a *app) *transpile.Transpiler {
	return transpile.New(transpile.Options{
		DefaultLimit:    a.cfg.DefaultLimit,
		MaxDepth:        a.cfg.MaxNestingDepth,
		MaxQueryBytes:   a.cfg.MaxQueryBytes,
		Logger:          a.logger,
		PanicOnInternal: a.cfg.StrictInternalErrors,
	})
}
