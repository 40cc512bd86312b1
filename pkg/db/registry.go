package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/profiler"
	"github.com/leapstack-labs/leapdb/pkg/query"
)

// Opener opens the handle for a connection configuration and reports the
// grammar hint of the driver that opened it.
type Opener func(ctx context.Context, cfg core.ConnectionConfig, logger *slog.Logger) (*sql.DB, string, error)

// AdapterOpener opens handles through the adapter registry.
func AdapterOpener(ctx context.Context, cfg core.ConnectionConfig, logger *slog.Logger) (*sql.DB, string, error) {
	a, err := adapter.NewAdapter(cfg, logger)
	if err != nil {
		return nil, "", err
	}
	sqlDB, err := a.Open(ctx, cfg)
	if err != nil {
		return nil, "", err
	}
	return sqlDB, a.Dialect(), nil
}

// Registry maps connection names to Connections. Connections are created
// on first lookup, reused afterwards and closed together by Close.
type Registry struct {
	defaultName string
	configs     map[string]core.ConnectionConfig
	logger      *slog.Logger
	profiler    profiler.Profiler
	open        Opener

	mu     sync.Mutex
	conns  map[string]*Connection
	closed bool
	group  singleflight.Group
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger handed to adapters and Connections.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRegistryProfiler sets the profiler shared by all Connections.
func WithRegistryProfiler(p profiler.Profiler) RegistryOption {
	return func(r *Registry) {
		r.profiler = p
	}
}

// WithOpener replaces AdapterOpener.
func WithOpener(open Opener) RegistryOption {
	return func(r *Registry) {
		if open != nil {
			r.open = open
		}
	}
}

// NewRegistry returns a Registry over conns. An empty name in lookups
// refers to defaultName.
func NewRegistry(defaultName string, conns map[string]core.ConnectionConfig, opts ...RegistryOption) *Registry {
	r := &Registry{
		defaultName: defaultName,
		configs:     make(map[string]core.ConnectionConfig, len(conns)),
		logger:      slog.New(slog.DiscardHandler),
		open:        AdapterOpener,
		conns:       make(map[string]*Connection),
	}
	for name, cfg := range conns {
		r.configs[name] = cfg
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultName returns the name used for empty lookups.
func (r *Registry) DefaultName() string { return r.defaultName }

// Names returns the configured connection names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Config returns the configuration registered under name.
func (r *Registry) Config(name string) (core.ConnectionConfig, bool) {
	if name == "" {
		name = r.defaultName
	}
	cfg, ok := r.configs[name]
	return cfg, ok
}

// Connection returns the Connection for name, opening it on first use.
// Concurrent first lookups of the same name open a single handle.
func (r *Registry) Connection(ctx context.Context, name string) (*Connection, error) {
	if name == "" {
		name = r.defaultName
	}
	if c, err := r.cached(name); c != nil || err != nil {
		return c, err
	}
	cfg, ok := r.configs[name]
	if !ok {
		return nil, &ConfigError{Name: name}
	}

	v, err, _ := r.group.Do(name, func() (any, error) {
		if c, err := r.cached(name); c != nil || err != nil {
			return c, err
		}
		sqlDB, dialect, err := r.open(ctx, cfg, r.logger)
		if err != nil {
			return nil, &ConfigError{Name: name, Err: err}
		}
		c := New(sqlDB, name, cfg,
			WithLogger(r.logger),
			WithDialect(dialect),
			WithProfiler(r.profiler))
		if _, err := c.Grammar(); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed {
			_ = sqlDB.Close()
			return nil, ErrRegistryClosed
		}
		r.conns[name] = c
		r.logger.InfoContext(ctx, "connection opened",
			"connection", name,
			"driver", cfg.Driver,
			"database", cfg.Database)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Connection), nil
}

func (r *Registry) cached(name string) (*Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRegistryClosed
	}
	return r.conns[name], nil
}

// Table starts a query on the default connection.
func (r *Registry) Table(ctx context.Context, table any) (*query.Query, error) {
	c, err := r.Connection(ctx, "")
	if err != nil {
		return nil, err
	}
	return c.Table(table), nil
}

// Opened returns the names of the connections opened so far, sorted.
func (r *Registry) Opened() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.conns))
	for name := range r.conns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes every opened Connection. Later lookups fail with
// ErrRegistryClosed. Close is idempotent.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	for name, c := range r.conns {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
			continue
		}
		r.logger.Info("connection closed", "connection", name)
	}
	r.conns = nil
	return errors.Join(errs...)
}
