package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/code-fixer/internal/logger"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the engine's tunables and ambient settings.
type Config struct {
	BatchSize           int
	AcceptanceThreshold float64
	AttemptTimeout      time.Duration
	UseRetry            bool
	AgentsFile          string
	Logging             logger.Config
	Server              ServerConfig
	Database            DBConfig
}

// DBConfig points at the optional Postgres run history. An empty Host
// disables history.
type DBConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	SSLMode         string
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Enabled reports whether run history should be recorded.
func (c DBConfig) Enabled() bool {
	return c.Host != ""
}

// ServerConfig applies to the HTTP front end only.
type ServerConfig struct {
	Port string
	// Root is where relative target paths of submitted plans resolve.
	Root       string
	RunTimeout time.Duration
}

// LoadConfig reads configuration from environment variables (prefix FIXER_)
// and an optional .env file, applies defaults and validates the result.
// Flags bound to the global viper instance by the CLI take precedence.
func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetEnvPrefix("FIXER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("BATCH_SIZE", 10)
	viper.SetDefault("ACCEPTANCE_THRESHOLD", 0.7)
	viper.SetDefault("ATTEMPT_TIMEOUT", "0s")
	viper.SetDefault("USE_RETRY", true)
	viper.SetDefault("AGENTS_FILE", DefaultAgentsFileName)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("LOG_OUTPUT", "stderr")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ROOT", ".")
	viper.SetDefault("SERVER_RUN_TIMEOUT", "10m")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_USER", "fixer")
	viper.SetDefault("DB_NAME", "fixer")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	viper.SetDefault("DB_CONN_MAX_IDLE_TIME", "5m")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			slog.Error("failed to read config file", "error", err)
		}
	}

	cfg := &Config{
		BatchSize:           viper.GetInt("BATCH_SIZE"),
		AcceptanceThreshold: viper.GetFloat64("ACCEPTANCE_THRESHOLD"),
		AttemptTimeout:      viper.GetDuration("ATTEMPT_TIMEOUT"),
		UseRetry:            viper.GetBool("USE_RETRY"),
		AgentsFile:          viper.GetString("AGENTS_FILE"),
		Logging: logger.Config{
			Level:  strings.ToLower(viper.GetString("LOG_LEVEL")),
			Format: viper.GetString("LOG_FORMAT"),
			Output: viper.GetString("LOG_OUTPUT"),
		},
		Server: ServerConfig{
			Port:       viper.GetString("SERVER_PORT"),
			Root:       viper.GetString("SERVER_ROOT"),
			RunTimeout: viper.GetDuration("SERVER_RUN_TIMEOUT"),
		},
		Database: DBConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			Username:        viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Database:        viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			ConnMaxLifetime: viper.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: viper.GetDuration("DB_CONN_MAX_IDLE_TIME"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: BATCH_SIZE must be positive, got %d", ErrInvalidConfig, c.BatchSize)
	}
	if c.AcceptanceThreshold < 0 || c.AcceptanceThreshold > 1 {
		return fmt.Errorf("%w: ACCEPTANCE_THRESHOLD must be within [0,1], got %v", ErrInvalidConfig, c.AcceptanceThreshold)
	}
	if c.AttemptTimeout < 0 {
		return fmt.Errorf("%w: ATTEMPT_TIMEOUT must not be negative, got %s", ErrInvalidConfig, c.AttemptTimeout)
	}
	if c.Server.RunTimeout < 0 {
		return fmt.Errorf("%w: SERVER_RUN_TIMEOUT must not be negative, got %s", ErrInvalidConfig, c.Server.RunTimeout)
	}
	if c.Database.Enabled() && (c.Database.Port <= 0 || c.Database.Database == "") {
		return fmt.Errorf("%w: DB_PORT and DB_NAME are required when DB_HOST is set", ErrInvalidConfig)
	}
	if c.AgentsFile == "" {
		return fmt.Errorf("%w: AGENTS_FILE must be set", ErrInvalidConfig)
	}
	return nil
}

// isMissingFile covers viper returning a raw fs error for an explicit SetConfigFile path.
func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file") || strings.Contains(err.Error(), "cannot find the file")
}
