package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdb/pkg/core"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/leapstack-labs/leapdb/pkg/adapters/mysql"
	_ "github.com/leapstack-labs/leapdb/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapdb/pkg/adapters/sqlite"
)

const testdataDir = "testdata"

// TestExpandEnvVars tests the expandEnvVars function.
func TestExpandEnvVars(t *testing.T) {
	t.Setenv("LEAPDB_TEST_VAR", "hello")
	t.Setenv("LEAPDB_TEST_OTHER", "world")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "no vars", input: "plain", expected: "plain"},
		{name: "single var", input: "${LEAPDB_TEST_VAR}", expected: "hello"},
		{name: "embedded", input: "x-${LEAPDB_TEST_VAR}-y", expected: "x-hello-y"},
		{name: "two vars", input: "${LEAPDB_TEST_VAR} ${LEAPDB_TEST_OTHER}", expected: "hello world"},
		{name: "missing var kept", input: "${LEAPDB_TEST_MISSING}", expected: "${LEAPDB_TEST_MISSING}"},
		{name: "bare dollar untouched", input: "$LEAPDB_TEST_VAR", expected: "$LEAPDB_TEST_VAR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

// TestLoadConfig_Fixtures tests LoadConfig using fixture files.
func TestLoadConfig_Fixtures(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		ResetConfig()
		cfgPath := filepath.Join(testdataDir, "valid.yaml")
		cfg, err := LoadConfig(cfgPath, nil)
		require.NoError(t, err)

		assert.Equal(t, "app", cfg.Default)
		assert.Equal(t, "json", cfg.OutputFormat)
		assert.Equal(t, cfgPath, GetConfigFileUsed())
		assert.Same(t, cfg, GetCurrentConfig())

		app := cfg.Connections["app"]
		assert.Equal(t, "sqlite", app.Driver)
		assert.Equal(t, "app_", app.Prefix)
		assert.True(t, app.Profile)

		wh := cfg.Connections["warehouse"]
		assert.Equal(t, "db.internal", wh.Host)
		assert.Equal(t, 5432, wh.Port)
		assert.Equal(t, "require", wh.Options["sslmode"])
		assert.Equal(t, "5m", wh.Params["conn_max_lifetime"])

		abs, err := filepath.Abs(testdataDir)
		require.NoError(t, err)
		assert.Equal(t, abs, cfg.ProjectRoot)
	})

	t.Run("env vars expanded", func(t *testing.T) {
		ResetConfig()
		t.Setenv("TEST_DB_HOST", "db.test")
		t.Setenv("TEST_DB_NAME", "shop")
		t.Setenv("TEST_DB_USER", "testuser")
		t.Setenv("TEST_DB_PASSWORD", "secret123")
		t.Setenv("TEST_DB_TLS", "skip-verify")

		cfg, err := LoadConfig(filepath.Join(testdataDir, "valid_env_vars.yaml"), nil)
		require.NoError(t, err)

		app := cfg.Connections["app"]
		assert.Equal(t, "db.test", app.Host)
		assert.Equal(t, "shop", app.Database)
		assert.Equal(t, "testuser", app.Username)
		assert.Equal(t, "secret123", app.Password)
		assert.Equal(t, "skip-verify", app.Options["tls"])
		assert.Equal(t, 3306, app.Port)
		assert.Equal(t, "utf8", app.Charset)
	})

	invalid := []struct {
		name      string
		file      string
		errSubstr string
	}{
		{name: "unknown driver", file: "invalid_unknown_driver.yaml", errSubstr: "oracle"},
		{name: "missing default", file: "invalid_missing_default.yaml", errSubstr: `default connection "main" is not defined`},
		{name: "bad output", file: "invalid_output.yaml", errSubstr: "unsupported output format"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			_, err := LoadConfig(filepath.Join(testdataDir, tt.file), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

// TestLoadConfigWithEnv tests environment overrides.
func TestLoadConfigWithEnv(t *testing.T) {
	cfgPath := filepath.Join(testdataDir, "valid_with_envs.yaml")

	tests := []struct {
		name            string
		env             string
		expectedDefault string
		check           func(t *testing.T, cfg *Config)
	}{
		{
			name:            "configured environment without overrides",
			expectedDefault: "app",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "dev.db", cfg.Connections["app"].Database)
			},
		},
		{
			name:            "staging merges into base connection",
			env:             "staging",
			expectedDefault: "app",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "staging.db", cfg.Connections["app"].Database)
				assert.Equal(t, "sqlite", cfg.Connections["app"].Driver)
			},
		},
		{
			name:            "prod adds a connection and switches default",
			env:             "prod",
			expectedDefault: "primary",
			check: func(t *testing.T, cfg *Config) {
				primary := cfg.Connections["primary"]
				assert.Equal(t, "mysql", primary.Driver)
				assert.Equal(t, "mysql.prod", primary.Host)
				assert.Equal(t, 3306, primary.Port)
			},
		},
		{
			name:            "unknown environment falls back to base",
			env:             "nonexistent",
			expectedDefault: "app",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "dev.db", cfg.Connections["app"].Database)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			cfg, err := LoadConfigWithEnv(cfgPath, tt.env, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedDefault, cfg.Default)
			tt.check(t, cfg)
		})
	}
}

// TestLoadConfig_Precedence checks env vars over file and flags over env vars.
func TestLoadConfig_Precedence(t *testing.T) {
	cfgPath := filepath.Join(testdataDir, "valid.yaml")

	t.Run("env var overrides file", func(t *testing.T) {
		ResetConfig()
		t.Setenv("LEAPDB_CONNECTIONS__APP__DATABASE", "from-env.db")
		t.Setenv("LEAPDB_OUTPUT", "csv")

		cfg, err := LoadConfig(cfgPath, nil)
		require.NoError(t, err)
		assert.Equal(t, "from-env.db", cfg.Connections["app"].Database)
		assert.Equal(t, "csv", cfg.OutputFormat)
	})

	t.Run("changed flags override env vars", func(t *testing.T) {
		ResetConfig()
		t.Setenv("LEAPDB_OUTPUT", "csv")

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.StringP("output", "o", "", "")
		flags.StringP("connection", "c", "", "")
		flags.BoolP("verbose", "v", false, "")
		require.NoError(t, flags.Parse([]string{"--output", "yaml", "-c", "warehouse"}))

		cfg, err := LoadConfig(cfgPath, flags)
		require.NoError(t, err)
		assert.Equal(t, "yaml", cfg.OutputFormat)
		assert.Equal(t, "warehouse", cfg.Default)
		assert.False(t, cfg.Verbose)
	})
}

// TestLoadConfig_DotEnv tests that .env files feed ${VAR} expansion.
func TestLoadConfig_DotEnv(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Cleanup(func() {
		_ = os.Unsetenv("LEAPDB_DOTENV_PASSWORD")
		_ = os.Unsetenv("LEAPDB_DOTENV_USER")
	})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "leapdb.yaml"), []byte(`default: app
connections:
  app:
    driver: mysql
    username: ${LEAPDB_DOTENV_USER}
    password: ${LEAPDB_DOTENV_PASSWORD}
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("LEAPDB_DOTENV_USER=root\nLEAPDB_DOTENV_PASSWORD=from-dotenv\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"),
		[]byte("LEAPDB_DOTENV_PASSWORD=from-local\n"), 0o600))

	cfg, err := LoadConfig(filepath.Join(dir, "leapdb.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, "root", cfg.Connections["app"].Username)
	assert.Equal(t, "from-local", cfg.Connections["app"].Password)
}

// TestLoadConfig_NoConfigFile tests the in-memory fallback.
func TestLoadConfig_NoConfigFile(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Empty(t, GetConfigFileUsed())
	assert.Equal(t, "default", cfg.Default)
	assert.Equal(t, ConnectionConfig{Driver: "sqlite", Database: ":memory:"}, cfg.Connections["default"])
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, core.FetchType(""), cfg.Connections["default"].FetchType)
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := slog.New(slog.DiscardHandler)
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}
