package wire

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/wire"

	"github.com/sevigo/code-fixer/internal/app"
	"github.com/sevigo/code-fixer/internal/config"
	"github.com/sevigo/code-fixer/internal/core"
	"github.com/sevigo/code-fixer/internal/db"
	"github.com/sevigo/code-fixer/internal/gitutil"
	"github.com/sevigo/code-fixer/internal/logger"
	"github.com/sevigo/code-fixer/internal/storage"
)

var AppSet = wire.NewSet(
	app.NewApp,
	app.NewRegistry,
	app.NewCoordinator,
	config.LoadConfig,
	logger.NewLogger,
	gitutil.NewClient,
	db.NewDatabase,
	provideDBConfig,
	provideStore,
	provideLoggerConfig,
	provideLogWriter,
	provideAgentsFile,
	provideLadders,
)

func provideLoggerConfig(cfg *config.Config) logger.Config {
	return cfg.Logging
}

func provideLogWriter(cfg logger.Config) (io.Writer, func(), error) {
	return logger.Writer(cfg)
}

// provideAgentsFile treats a missing agents file as "no agents" rather than
// a startup failure, so `agents` and `ladders` still work in a bare checkout.
func provideAgentsFile(cfg *config.Config, log *slog.Logger) (*config.AgentsFile, error) {
	file, err := config.LoadAgentsFile(cfg.AgentsFile)
	if err != nil {
		if errors.Is(err, config.ErrAgentsFileNotFound) {
			log.Warn("agents file not found, no agents registered", "path", cfg.AgentsFile)
			return file, nil
		}
		return nil, fmt.Errorf("failed to load agents file: %w", err)
	}
	return file, nil
}

func provideLadders(file *config.AgentsFile) (core.Ladders, error) {
	return file.StrategyLadders()
}

func provideDBConfig(cfg *config.Config) *config.DBConfig {
	return &cfg.Database
}

// provideStore falls back to a store that records nothing when history is disabled.
func provideStore(conn *db.DB) storage.Store {
	if conn == nil {
		return storage.NopStore{}
	}
	return storage.NewStore(conn.DB)
}
