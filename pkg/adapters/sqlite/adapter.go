// Package sqlite provides a SQLite database adapter for leapdb.
package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"net/url"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
)

// MemoryPath selects an in-memory database.
const MemoryPath = ":memory:"

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.Base
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{Base: adapter.NewBase("sqlite", logger)}
}

// Dialect returns the grammar name for this adapter.
func (a *Adapter) Dialect() string {
	return "sqlite"
}

// Open establishes a connection to SQLite. An in-memory database lives in
// a single connection, so the pool is capped at one.
func (a *Adapter) Open(ctx context.Context, cfg core.ConnectionConfig) (*sql.DB, error) {
	path := databasePath(cfg.Database)
	db, err := a.Connect(ctx, buildSQLiteDSN(path, cfg.Options), cfg)
	if err != nil {
		return nil, err
	}
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// databasePath defaults to memory and adds a .sqlite extension to bare
// file names.
func databasePath(database string) string {
	if database == "" || database == MemoryPath {
		return MemoryPath
	}
	if filepath.Ext(database) == "" {
		return database + ".sqlite"
	}
	return database
}

// buildSQLiteDSN appends options as _pragma parameters in a stable order.
func buildSQLiteDSN(path string, options map[string]string) string {
	if len(options) == 0 {
		return path
	}
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := url.Values{}
	for _, k := range keys {
		q.Add("_pragma", k+"("+options[k]+")")
	}
	return path + "?" + q.Encode()
}
