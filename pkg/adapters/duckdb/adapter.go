// Package duckdb provides a DuckDB database adapter for leapdb.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.Base
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{Base: adapter.NewBase("duckdb", logger)}
}

// Dialect returns the grammar name for this adapter. DuckDB speaks the
// ANSI grammar.
func (a *Adapter) Dialect() string {
	return "duckdb"
}

// Open establishes a connection to DuckDB, then loads configured
// extensions and applies session settings.
// Use ":memory:" (or an empty database) for an in-memory database.
func (a *Adapter) Open(ctx context.Context, cfg core.ConnectionConfig) (*sql.DB, error) {
	params, err := ParseParams(cfg.Params)
	if err != nil {
		return nil, err
	}

	path := cfg.Database
	if path == "" {
		path = ":memory:"
	}

	db, err := a.Connect(ctx, path, cfg)
	if err != nil {
		return nil, err
	}

	for _, stmt := range setupStatements(params) {
		a.Logger.Debug("duckdb setup", slog.String("sql", stmt))
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("duckdb setup %q: %w", stmt, err)
		}
	}
	return db, nil
}

// setupStatements returns INSTALL/LOAD for each extension followed by SET
// for each setting (sorted by name).
func setupStatements(p *Params) []string {
	var stmts []string
	for _, ext := range p.Extensions {
		stmts = append(stmts, "INSTALL "+ext, "LOAD "+ext)
	}
	keys := make([]string, 0, len(p.Settings))
	for k := range p.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		stmts = append(stmts, fmt.Sprintf("SET %s = '%s'", k, strings.ReplaceAll(p.Settings[k], "'", "''")))
	}
	return stmts
}
