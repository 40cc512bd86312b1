// Package db executes compiled queries against a live database handle.
//
// A Connection owns one *sql.DB and the Grammar resolved for it. Table
// returns a query.Query bound to both; the Query compiles through the
// Grammar and executes through the Connection. A Registry creates
// Connections lazily from named configuration and closes them on shutdown.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/grammar"
	"github.com/leapstack-labs/leapdb/pkg/profiler"
	"github.com/leapstack-labs/leapdb/pkg/query"
	"github.com/leapstack-labs/leapdb/pkg/result"
)

// ExecQuerier wraps the standard Exec and Query methods. Both *sql.DB and
// *sql.Tx satisfy it.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Connection is a named database handle with its resolved Grammar.
// It is safe for concurrent use as long as the underlying *sql.DB is; a
// Connection handed to a Transaction callback belongs to that callback.
type Connection struct {
	name     string
	cfg      core.ConnectionConfig
	db       *sql.DB
	conn     ExecQuerier
	tx       *sql.Tx
	dialect  string
	logger   *slog.Logger
	profiler profiler.Profiler

	grammarOnce sync.Once
	grammar     *grammar.Grammar
	grammarErr  error
}

// Option configures a Connection.
type Option func(*Connection)

// WithLogger sets the logger used for statement logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Connection) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithProfiler sets the profiler notified when the configuration enables
// profiling.
func WithProfiler(p profiler.Profiler) Option {
	return func(c *Connection) {
		c.profiler = p
	}
}

// WithDialect sets the grammar hint reported by the adapter that opened
// the handle. An explicit grammar in the configuration still wins.
func WithDialect(name string) Option {
	return func(c *Connection) {
		c.dialect = name
	}
}

// New wraps sqlDB as the Connection called name.
func New(sqlDB *sql.DB, name string, cfg core.ConnectionConfig, opts ...Option) *Connection {
	c := &Connection{
		name:   name,
		cfg:    cfg,
		db:     sqlDB,
		conn:   sqlDB,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("connection", name)
	if c.cfg.Profile && c.profiler == nil {
		c.profiler = profiler.NewLogger(c.logger, slog.LevelDebug)
	}
	return c
}

// Name returns the configured connection name.
func (c *Connection) Name() string { return c.name }

// Config returns the connection configuration.
func (c *Connection) Config() core.ConnectionConfig { return c.cfg }

// DB returns the underlying handle.
func (c *Connection) DB() *sql.DB { return c.db }

// InTransaction reports whether c is bound to an open transaction.
func (c *Connection) InTransaction() bool { return c.tx != nil }

// Grammar resolves the connection's grammar on first use and returns the
// cached instance afterwards. Resolution order is the configured grammar,
// then the adapter's dialect, then the driver name.
func (c *Connection) Grammar() (*grammar.Grammar, error) {
	c.grammarOnce.Do(func() {
		name := c.cfg.Grammar
		if name == "" {
			name = c.dialect
		}
		if name == "" {
			name = c.cfg.Driver
		}
		g, err := grammar.New(name, grammar.Options{Prefix: c.cfg.Prefix})
		if err != nil {
			c.grammarErr = &ConfigError{Name: c.name, Err: err}
			return
		}
		c.grammar = g
	})
	return c.grammar, c.grammarErr
}

// Table starts a query against table. Configuration problems surface from
// the Query's terminal operations.
func (c *Connection) Table(table any) *query.Query {
	g, err := c.Grammar()
	if err != nil {
		return query.Failed(err)
	}
	return query.New(g, c, table).FetchType(c.cfg.FetchType)
}

// Ping verifies the handle is reachable.
func (c *Connection) Ping(ctx context.Context) error {
	if c.db == nil {
		return &ConfigError{Name: c.name, Err: errors.New("no database handle")}
	}
	return c.db.PingContext(ctx)
}

// Close closes the underlying handle. Connections bound to a transaction
// cannot be closed.
func (c *Connection) Close() error {
	if c.tx != nil {
		return fmt.Errorf("db: close %s: connection is bound to a transaction", c.name)
	}
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Select implements query.Executor.
func (c *Connection) Select(ctx context.Context, stmt query.Statement, opts query.FetchOptions) (*result.Result, error) {
	return c.query(ctx, stmt.SQL, stmt.Bindings, opts)
}

// Affect implements query.Executor.
func (c *Connection) Affect(ctx context.Context, stmt query.Statement) (int64, error) {
	res, sqlText, args, err := c.exec(ctx, stmt.SQL, stmt.Bindings)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &DatabaseError{SQL: sqlText, Bindings: args, Err: err}
	}
	return n, nil
}

// InsertGetID implements query.Executor. Statements that return the id
// as a row are queried; the rest rely on the driver's last insert id.
func (c *Connection) InsertGetID(ctx context.Context, stmt query.Statement) (int64, error) {
	if stmt.Returning {
		res, err := c.query(ctx, stmt.SQL, stmt.Bindings, query.FetchOptions{FetchType: core.FetchMap})
		if err != nil {
			return 0, err
		}
		defer func() { _ = res.Close() }()
		v, err := res.GetSingle()
		if err != nil {
			return 0, err
		}
		if v == nil {
			return 0, errors.New("db: no generated id returned")
		}
		id, err := query.ToInt64(v)
		if err != nil {
			return 0, fmt.Errorf("db: generated id: %w", err)
		}
		return id, nil
	}

	res, sqlText, args, err := c.exec(ctx, stmt.SQL, stmt.Bindings)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &DatabaseError{SQL: sqlText, Bindings: args, Err: err}
	}
	return id, nil
}
