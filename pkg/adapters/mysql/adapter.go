// Package mysql provides a MySQL database adapter for leapdb.
package mysql

import (
	"context"
	"database/sql"
	"log/slog"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Adapter implements the adapter.Adapter interface for MySQL.
type Adapter struct {
	adapter.Base
}

// New creates a new MySQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{Base: adapter.NewBase("mysql", logger)}
}

// Dialect returns the grammar name for this adapter.
func (a *Adapter) Dialect() string {
	return "mysql"
}

// Open establishes a connection to MySQL.
func (a *Adapter) Open(ctx context.Context, cfg core.ConnectionConfig) (*sql.DB, error) {
	return a.Connect(ctx, buildMySQLDSN(cfg), cfg)
}

// buildMySQLDSN constructs a go-sql-driver DSN.
func buildMySQLDSN(cfg core.ConnectionConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	mc.DBName = cfg.Database
	mc.ParseTime = true
	if len(cfg.Options) > 0 || cfg.Charset != "" {
		mc.Params = make(map[string]string, len(cfg.Options)+1)
	}
	if cfg.Charset != "" {
		mc.Params["charset"] = cfg.Charset
	}
	for k, v := range cfg.Options {
		mc.Params[k] = v
	}
	return mc.FormatDSN()
}
