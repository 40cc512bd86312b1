package config

import (
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Default configuration values.
const (
	DefaultConnection = "default"
	DefaultHost       = "localhost"
	DefaultCharset    = "utf8"
)

// DefaultPort returns the conventional port for driver, or 0 for file
// based engines.
func DefaultPort(driver string) int {
	switch strings.ToLower(driver) {
	case "mysql", "mariadb":
		return 3306
	case "pgsql", "postgres", "postgresql", "pgx":
		return 5432
	case "sqlsrv", "sqlserver", "mssql":
		return 1433
	default:
		return 0
	}
}

// ApplyConnectionDefaults fills unset fields from the driver's
// conventions.
func ApplyConnectionDefaults(c *core.ConnectionConfig) {
	if c == nil {
		return
	}
	port := DefaultPort(c.Driver)
	if port == 0 {
		return
	}
	if c.Port == 0 {
		c.Port = port
	}
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Charset == "" && port == 3306 {
		c.Charset = DefaultCharset
	}
}

// MergeConnectionConfig merges two connection configs, with override
// taking precedence for every field it sets.
func MergeConnectionConfig(base, override core.ConnectionConfig) core.ConnectionConfig {
	merged := base
	merged.Options = make(map[string]string, len(base.Options)+len(override.Options))
	merged.Params = make(map[string]any, len(base.Params)+len(override.Params))
	for k, v := range base.Options {
		merged.Options[k] = v
	}
	for k, v := range base.Params {
		merged.Params[k] = v
	}

	if override.Driver != "" {
		merged.Driver = override.Driver
	}
	if override.Grammar != "" {
		merged.Grammar = override.Grammar
	}
	if override.Host != "" {
		merged.Host = override.Host
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	if override.Username != "" {
		merged.Username = override.Username
	}
	if override.Password != "" {
		merged.Password = override.Password
	}
	if override.Charset != "" {
		merged.Charset = override.Charset
	}
	if override.Database != "" {
		merged.Database = override.Database
	}
	if override.Prefix != "" {
		merged.Prefix = override.Prefix
	}
	if override.FetchType != "" {
		merged.FetchType = override.FetchType
	}
	if override.Profile {
		merged.Profile = true
	}

	for k, v := range override.Options {
		merged.Options[k] = v
	}
	for k, v := range override.Params {
		merged.Params[k] = v
	}
	return merged
}
