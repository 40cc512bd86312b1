package grammar

import (
	"sort"
	"strings"
	"sync"
)

// Factory creates a Dialect.
type Factory func() Dialect

// Options configures a Grammar built by New.
type Options struct {
	// Prefix is prepended to every wrapped table name.
	Prefix string
}

// Dialect registry
var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// aliases maps driver identifiers to grammar names.
var aliases = map[string]string{
	"sqlsrv":     "sqlserver",
	"mssql":      "sqlserver",
	"pgsql":      "postgres",
	"postgresql": "postgres",
	"pgx":        "postgres",
	"sqlite3":    "sqlite",
	"mariadb":    "mysql",
	"duckdb":     "ansi",
}

// Register makes a dialect available under name.
// Called by dialect implementations in their init() functions.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[strings.ToLower(name)] = f
}

// Canonical resolves driver aliases to a grammar name. An empty name
// resolves to "ansi".
func Canonical(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "ansi"
	}
	if alias, ok := aliases[name]; ok {
		return alias
	}
	return name
}

// IsRegistered reports whether a grammar is available under name or one
// of its aliases.
func IsRegistered(name string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := factories[Canonical(name)]
	return ok
}

// New builds the Grammar registered under name (or an alias of it).
func New(name string, opts Options) (*Grammar, error) {
	canonical := Canonical(name)
	mu.RLock()
	f, ok := factories[canonical]
	mu.RUnlock()
	if !ok {
		return nil, &UnknownGrammarError{Name: name, Available: List()}
	}
	return NewWithDialect(f(), opts.Prefix), nil
}

// List returns all registered grammar names (sorted).
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
