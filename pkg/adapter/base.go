package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/leapstack-labs/leapdb/pkg/core"
)

// PoolParams tunes the database/sql connection pool.
// Parsed from core.ConnectionConfig.Params using mapstructure.
type PoolParams struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// ParsePoolParams decodes pool settings from adapter params. Unknown keys
// are ignored so adapters can keep their own settings in the same map.
func ParsePoolParams(params map[string]any) (PoolParams, error) {
	var p PoolParams
	if len(params) == 0 {
		return p, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &p,
	})
	if err != nil {
		return p, err
	}
	if err := dec.Decode(params); err != nil {
		return p, fmt.Errorf("invalid pool params: %w", err)
	}
	return p, nil
}

// Apply sets the pool limits on db. Zero values keep the driver defaults.
func (p PoolParams) Apply(db *sql.DB) {
	if p.MaxOpenConns > 0 {
		db.SetMaxOpenConns(p.MaxOpenConns)
	}
	if p.MaxIdleConns > 0 {
		db.SetMaxIdleConns(p.MaxIdleConns)
	}
	if p.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(p.ConnMaxLifetime)
	}
	if p.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(p.ConnMaxIdleTime)
	}
}

// Base provides the common database/sql opening logic for adapters.
// Embed it in concrete adapter implementations.
type Base struct {
	DriverName string
	Logger     *slog.Logger
}

// NewBase returns a Base for driverName. A nil logger discards output.
func NewBase(driverName string, logger *slog.Logger) Base {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return Base{DriverName: driverName, Logger: logger}
}

// Connect opens dsn with the base driver, applies pool params from cfg
// and pings the database.
func (b Base) Connect(ctx context.Context, dsn string, cfg core.ConnectionConfig) (*sql.DB, error) {
	logger := b.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	pool, err := ParsePoolParams(cfg.Params)
	if err != nil {
		return nil, err
	}

	logger.Debug("connecting to database",
		slog.String("driver", b.DriverName),
		slog.String("host", cfg.Host),
		slog.String("database", cfg.Database))

	db, err := sql.Open(b.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", b.DriverName, err)
	}
	pool.Apply(db)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", b.DriverName, err)
	}
	return db, nil
}
