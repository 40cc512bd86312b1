package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdb/internal/cli/config"
	"github.com/leapstack-labs/leapdb/pkg/db"
	"github.com/leapstack-labs/leapdb/pkg/profiler"
)

// profileHistory caps the entries kept for the REPL's .profile command.
const profileHistory = 100

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Registry *db.Registry
	Profiler *profiler.Recorder
	Out      io.Writer
	ErrOut   io.Writer
}

// NewCommandContext creates a CommandContext with a connection registry.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := config.GetLogger(cmd.Context())

	rec := profiler.NewRecorder(profileHistory)
	reg := db.NewRegistry(cfg.Default, cfg.Connections,
		db.WithRegistryLogger(logger),
		db.WithRegistryProfiler(profiler.Multi{rec, profiler.NewLogger(logger, slog.LevelInfo)}))

	cleanup := func() {
		if err := reg.Close(); err != nil {
			logger.Warn("failed to close connections", "error", err)
		}
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Registry: reg,
		Profiler: rec,
		Out:      cmd.OutOrStdout(),
		ErrOut:   cmd.ErrOrStderr(),
	}, cleanup, nil
}

// Connection returns the named connection, or the default one for "".
func (c *CommandContext) Connection(cmd *cobra.Command, name string) (*db.Connection, error) {
	conn, err := c.Registry.Connection(cmd.Context(), name)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	return conn, nil
}

// Helper functions shared across commands

// getConfig returns the current configuration, loading it from the working
// directory when the root command has not done so.
func getConfig() (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	return config.LoadConfig("", nil)
}
