// Package postgres provides a PostgreSQL database adapter for leapdb.
package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
)

const (
	defaultHost    = "localhost"
	defaultPort    = 5432
	defaultSSLMode = "disable"
)

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.Base
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{Base: adapter.NewBase("pgx", logger)}
}

// Dialect returns the grammar name for this adapter.
func (a *Adapter) Dialect() string {
	return "postgres"
}

// Open establishes a connection to PostgreSQL. A database given as a
// postgres:// URL is handed to the driver unchanged.
func (a *Adapter) Open(ctx context.Context, cfg core.ConnectionConfig) (*sql.DB, error) {
	return a.Connect(ctx, buildPostgresDSN(cfg), cfg)
}

func buildPostgresDSN(cfg core.ConnectionConfig) string {
	if isURL(cfg.Database) {
		return cfg.Database
	}

	host := cfg.Host
	if host == "" {
		host = defaultHost
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	sslmode := defaultSSLMode
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	var b dsnBuilder
	b.add("host", host)
	b.add("port", strconv.Itoa(port))
	b.add("dbname", cfg.Database)
	b.add("sslmode", sslmode)
	b.add("user", cfg.Username)
	b.add("password", cfg.Password)
	b.add("client_encoding", cfg.Charset)

	keys := make([]string, 0, len(cfg.Options))
	for k := range cfg.Options {
		if k != "sslmode" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.add(k, cfg.Options[k])
	}
	return b.String()
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://")
}

// dsnBuilder writes libpq keyword/value pairs, skipping empty values.
type dsnBuilder struct {
	strings.Builder
}

func (b *dsnBuilder) add(key, value string) {
	if value == "" {
		return
	}
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(quoteValue(value))
}

// quoteValue single-quotes values containing spaces or quotes, escaping
// backslashes and quotes as libpq expects.
func quoteValue(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
