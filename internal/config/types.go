// Package config provides shared configuration types for leapdb.
// It is decoupled from CLI concerns so library users can load the same
// leapdb.yaml the CLI reads.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/grammar"
)

// ProjectConfig holds the named connections of a project.
type ProjectConfig struct {
	Default     string                           `koanf:"default"`
	Connections map[string]core.ConnectionConfig `koanf:"connections"`
}

// EnvConfig holds environment-specific overrides.
type EnvConfig struct {
	Default     string                           `koanf:"default"`
	Connections map[string]core.ConnectionConfig `koanf:"connections"`
}

// Names returns the connection names, sorted.
func (p *ProjectConfig) Names() []string {
	names := make([]string, 0, len(p.Connections))
	for name := range p.Connections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that the default connection exists and that every
// connection is usable.
func (p *ProjectConfig) Validate() error {
	if len(p.Connections) == 0 {
		return fmt.Errorf("no connections configured\nHint: add a connections section to %s", ConfigFileName)
	}
	if p.Default == "" {
		return fmt.Errorf("default connection is required")
	}
	if _, ok := p.Connections[p.Default]; !ok {
		return fmt.Errorf("default connection %q is not defined (available: %s)",
			p.Default, strings.Join(p.Names(), ", "))
	}
	for _, name := range p.Names() {
		if err := ValidateConnection(name, p.Connections[name]); err != nil {
			return err
		}
	}
	return nil
}

// ValidateConnection checks a single connection against the adapter and
// grammar registries.
func ValidateConnection(name string, c core.ConnectionConfig) error {
	if c.Driver == "" {
		return fmt.Errorf("connection %s: driver is required", name)
	}
	if !adapter.IsRegistered(strings.ToLower(c.Driver)) {
		return fmt.Errorf("connection %s: %w", name, &adapter.UnknownAdapterError{
			Type:      c.Driver,
			Available: adapter.ListAdapters(),
		})
	}
	if c.Grammar != "" && !grammar.IsRegistered(c.Grammar) {
		return fmt.Errorf("connection %s: %w", name, &grammar.UnknownGrammarError{
			Name:      c.Grammar,
			Available: grammar.List(),
		})
	}
	if c.FetchType != "" && !c.FetchType.IsValid() {
		return fmt.Errorf("connection %s: unsupported fetch_type %q (expected map or raw)", name, c.FetchType)
	}
	return nil
}
