package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	sharedcfg "github.com/leapstack-labs/leapdb/internal/config"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// EnvPrefix is the prefix of environment variables read by the loader.
// Nesting uses a double underscore: LEAPDB_CONNECTIONS__MAIN__HOST.
const EnvPrefix = "LEAPDB_"

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// flagKeys maps CLI flag names onto config keys where they differ.
var flagKeys = map[string]string{
	"connection": "default",
	"env":        "environment",
	"history":    "history_file",
}

// inferProjectRoot determines the project root.
// Priority:
//  1. Directory of an explicit --config file
//  2. Search upward from CWD for leapdb.yaml
//  3. Current working directory
func inferProjectRoot(cfgFile string) string {
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
		return filepath.Dir(cfgFile)
	}
	cwd, err := os.Getwd()
	if err != nil || cwd == "" {
		return "."
	}
	if root := sharedcfg.FindProjectRoot(cwd); root != "" {
		return root
	}
	return cwd
}

// loadDotEnv loads .env and then .env.local from dir into the process
// environment. Variables already set in the environment win over .env;
// .env.local overrides both.
func loadDotEnv(dir string) error {
	dotenv := filepath.Join(dir, ".env")
	if _, err := os.Stat(dotenv); err == nil {
		if err := godotenv.Load(dotenv); err != nil {
			return fmt.Errorf("failed to load %s: %w", dotenv, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	local := filepath.Join(dir, ".env.local")
	if _, err := os.Stat(local); err == nil {
		if err := godotenv.Overload(local); err != nil {
			return fmt.Errorf("failed to load %s: %w", local, err)
		}
	}
	return nil
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from defaults, .env files, the config
// file, environment variables and flags.
// Precedence (highest to lowest): flags > env vars > config file > .env > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	return LoadConfigWithEnv(cfgFile, "", flags)
}

// LoadConfigWithEnv loads configuration and applies the overrides of the
// named environment. An empty envOverride uses the configured environment.
func LoadConfigWithEnv(cfgFile, envOverride string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")
	configFileUsed = ""

	projectRoot := inferProjectRoot(cfgFile)

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"default":      sharedcfg.DefaultConnection,
		"verbose":      false,
		"output":       DefaultOutput,
		"history_file": DefaultHistoryFile,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load .env files so ${VAR} references and LEAPDB_ variables see them
	if err := loadDotEnv(projectRoot); err != nil {
		return nil, err
	}

	// 3. Find and load config file
	if cfgFile == "" {
		cfgFile = sharedcfg.FindConfigFile(projectRoot)
	}
	configFileUsed = cfgFile
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 4. Load environment variables (LEAPDB_ prefix)
	// Transform: LEAPDB_CONNECTIONS__MAIN__HOST -> connections.main.host
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 5. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if mapped, ok := flagKeys[f.Name]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 6. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot

	envName := cfg.Environment
	if envOverride != "" {
		envName = envOverride
		cfg.Environment = envOverride
	}
	applyEnvironment(&cfg, envName)

	// Without any configured connection, fall back to an in-memory SQLite
	if len(cfg.Connections) == 0 {
		cfg.Connections = map[string]ConnectionConfig{
			sharedcfg.DefaultConnection: {Driver: DefaultDriver, Database: DefaultDatabase},
		}
		if cfg.Default == "" {
			cfg.Default = sharedcfg.DefaultConnection
		}
	}

	for name, conn := range cfg.Connections {
		expandConnectionEnvVars(&conn)
		sharedcfg.ApplyConnectionDefaults(&conn)
		cfg.Connections[name] = conn
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// applyEnvironment merges the overrides of the named environment into cfg.
// Unknown environments leave cfg unchanged.
func applyEnvironment(cfg *Config, name string) {
	if name == "" || cfg.Environments == nil {
		return
	}
	envCfg, ok := cfg.Environments[name]
	if !ok {
		return
	}
	if envCfg.Default != "" {
		cfg.Default = envCfg.Default
	}
	if cfg.Connections == nil {
		cfg.Connections = make(map[string]ConnectionConfig, len(envCfg.Connections))
	}
	for connName, override := range envCfg.Connections {
		cfg.Connections[connName] = sharedcfg.MergeConnectionConfig(cfg.Connections[connName], override)
	}
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig or LoadConfigWithEnv is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// expandConnectionEnvVars expands environment variables in the fields that
// commonly carry secrets or per-host values.
func expandConnectionEnvVars(c *ConnectionConfig) {
	c.Host = expandEnvVars(c.Host)
	c.Username = expandEnvVars(c.Username)
	c.Password = expandEnvVars(c.Password)
	c.Database = expandEnvVars(c.Database)
	for key, val := range c.Options {
		c.Options[key] = expandEnvVars(val)
	}
}
