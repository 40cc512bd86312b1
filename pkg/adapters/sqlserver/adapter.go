// Package sqlserver provides a Microsoft SQL Server database adapter for leapdb.
package sqlserver

import (
	"context"
	"database/sql"
	"log/slog"
	"net"
	"net/url"
	"strconv"

	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" driver

	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Adapter implements the adapter.Adapter interface for SQL Server.
type Adapter struct {
	adapter.Base
}

// New creates a new SQL Server adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{Base: adapter.NewBase("sqlserver", logger)}
}

// Dialect returns the grammar name for this adapter.
func (a *Adapter) Dialect() string {
	return "sqlserver"
}

// Open establishes a connection to SQL Server.
func (a *Adapter) Open(ctx context.Context, cfg core.ConnectionConfig) (*sql.DB, error) {
	return a.Connect(ctx, buildSQLServerDSN(cfg), cfg)
}

// buildSQLServerDSN constructs a sqlserver:// URL.
func buildSQLServerDSN(cfg core.ConnectionConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 1433
	}

	q := url.Values{}
	if cfg.Database != "" {
		q.Set("database", cfg.Database)
	}
	for k, v := range cfg.Options {
		q.Set(k, v)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		RawQuery: q.Encode(),
	}
	if cfg.Username != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}
	return u.String()
}
