package core

import "strings"

// ConnectionConfig holds configuration for one named database connection.
type ConnectionConfig struct {
	// Driver selects the adapter (mysql, pgsql, sqlite, sqlsrv, duckdb).
	Driver string `koanf:"driver"`

	// Grammar overrides the grammar resolved from the driver's dialect.
	Grammar string `koanf:"grammar"`

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Charset  string `koanf:"charset"`

	// Database is the database name, or a file path for SQLite and DuckDB.
	Database string `koanf:"database"`

	// Prefix is prepended to every wrapped table name.
	Prefix string `koanf:"prefix"`

	// FetchType controls the shape of fetched rows.
	FetchType FetchType `koanf:"fetch_type"`

	// Profile reports every executed statement to the connection's profiler.
	Profile bool `koanf:"profile"`

	// Options holds driver DSN options (e.g., sslmode for postgres).
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific settings decoded with mapstructure (pool tuning).
	Params map[string]any `koanf:"params"`
}

// FetchType defines how fetched column values are materialized into rows.
type FetchType string

const (
	// FetchMap converts driver byte slices to strings (default).
	FetchMap FetchType = "map"
	// FetchRaw keeps driver values untouched.
	FetchRaw FetchType = "raw"
)

// Normalize returns the canonical FetchType, defaulting to FetchMap.
func (f FetchType) Normalize() FetchType {
	switch FetchType(strings.ToLower(string(f))) {
	case FetchRaw:
		return FetchRaw
	default:
		return FetchMap
	}
}

// IsValid reports whether f names a known fetch type (empty means default).
func (f FetchType) IsValid() bool {
	switch FetchType(strings.ToLower(string(f))) {
	case "", FetchMap, FetchRaw:
		return true
	default:
		return false
	}
}

// Date layouts used to serialize time values for a driver.
const (
	DateLayoutDefault   = "2006-01-02 15:04:05"
	DateLayoutMySQL     = "2006-01-02 15:04:05"
	DateLayoutPostgres  = "2006-01-02 15:04:05.999999-07:00"
	DateLayoutSQLServer = "2006-01-02T15:04:05.000"
	DateLayoutSQLite    = "2006-01-02 15:04:05"
)

// DateLayout returns the time layout used when binding dates for the given driver.
func DateLayout(driver string) string {
	switch strings.ToLower(driver) {
	case "mysql":
		return DateLayoutMySQL
	case "pgsql", "postgres":
		return DateLayoutPostgres
	case "sqlsrv", "sqlserver":
		return DateLayoutSQLServer
	case "sqlite":
		return DateLayoutSQLite
	default:
		return DateLayoutDefault
	}
}
