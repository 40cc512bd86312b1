package adapter

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Factory builds an Adapter. A nil logger means discard.
type Factory func(*slog.Logger) Adapter

type registration struct {
	name    string
	factory Factory
}

var (
	registryMu sync.RWMutex
	// registry is keyed by lower-cased driver name and alias.
	registry = make(map[string]registration)
)

// Register adds an adapter factory under name and its aliases. Names are
// case-insensitive. Called by adapter implementations in their init()
// functions.
func Register(name string, factory Factory, aliases ...string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	reg := registration{name: strings.ToLower(name), factory: factory}
	registry[reg.name] = reg
	for _, alias := range aliases {
		registry[strings.ToLower(alias)] = reg
	}
}

// Get retrieves an adapter factory by driver name or alias.
func Get(driver string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	reg, ok := registry[strings.ToLower(driver)]
	return reg.factory, ok
}

// Canonical returns the registered name for a driver name or alias, or ""
// when the driver is unknown.
func Canonical(driver string) string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[strings.ToLower(driver)].name
}

// NewAdapter creates a new adapter instance based on the configured driver.
// The logger parameter is passed to the adapter constructor (nil uses discard logger).
func NewAdapter(cfg core.ConnectionConfig, logger *slog.Logger) (Adapter, error) {
	if cfg.Driver == "" {
		return nil, fmt.Errorf("database driver not specified")
	}

	factory, ok := Get(cfg.Driver)
	if !ok {
		return nil, &UnknownAdapterError{
			Type:      cfg.Driver,
			Available: ListAdapters(),
		}
	}
	return factory(logger), nil
}

// ListAdapters returns the registered driver names without aliases, sorted.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for key, reg := range registry {
		if key == reg.name {
			names = append(names, key)
		}
	}
	sort.Strings(names)
	return names
}

// Aliases returns the alternative names accepted for driver, sorted.
func Aliases(driver string) []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	name := registry[strings.ToLower(driver)].name
	if name == "" {
		return nil
	}
	var aliases []string
	for key, reg := range registry {
		if reg.name == name && key != name {
			aliases = append(aliases, key)
		}
	}
	sort.Strings(aliases)
	return aliases
}

// IsRegistered reports whether driver names a registered adapter or alias.
func IsRegistered(driver string) bool {
	return Canonical(driver) != ""
}

// UnknownAdapterError is returned when an unknown driver is requested.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unsupported database driver %q\nAvailable drivers: %v\nHint: Check connections.<name>.driver in leapdb.yaml", e.Type, e.Available)
}
