// Package config provides configuration management for the leapdb CLI.
//
// This package extends the shared configuration types from internal/config
// with CLI-specific fields and the layered koanf loader. The shared types
// are re-exported here via type aliases for convenience.
package config

import (
	sharedcfg "github.com/leapstack-labs/leapdb/internal/config"
	"github.com/leapstack-labs/leapdb/pkg/core"
)

// ConnectionConfig is an alias for the shared connection configuration.
// This allows CLI code to use config.ConnectionConfig without importing pkg/core.
type ConnectionConfig = core.ConnectionConfig

// EnvConfig is an alias for the shared environment overrides.
type EnvConfig = sharedcfg.EnvConfig

// Config holds all CLI configuration options.
type Config struct {
	Default      string                      `koanf:"default"`
	Connections  map[string]ConnectionConfig `koanf:"connections"`
	Environment  string                      `koanf:"environment"`
	Environments map[string]EnvConfig        `koanf:"environments"`
	Verbose      bool                        `koanf:"verbose"`
	OutputFormat string                      `koanf:"output"`
	HistoryFile  string                      `koanf:"history_file"`
	ProjectRoot  string                      `koanf:"-"`
}

// Project returns the shared view of the configured connections.
func (c *Config) Project() *sharedcfg.ProjectConfig {
	return &sharedcfg.ProjectConfig{
		Default:     c.Default,
		Connections: c.Connections,
	}
}

// Default configuration values.
const (
	DefaultOutput   = "table"
	DefaultDatabase = ":memory:"
	DefaultDriver   = "sqlite"
	// DefaultHistoryFile is relative to the user's home directory.
	DefaultHistoryFile = ".leapdb_history"
)

// OutputFormats lists the supported --output values.
var OutputFormats = []string{"table", "json", "csv", "md", "yaml"}
