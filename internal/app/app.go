// Package app initializes and holds the long-lived application services,
// acting as a small dependency injection container.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Aurelien-L/bookcrawler/internal/config"
	"github.com/Aurelien-L/bookcrawler/internal/logging"
	"github.com/Aurelien-L/bookcrawler/internal/store"
)

// App holds the shared services for the application: configuration, the
// logger, and the persistence writer. It is initialized once at startup and
// passed to the components that need it.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	writer *store.Writer
}

// New loads configuration and initializes every service, failing fast when
// a critical dependency (such as the database) is unreachable.
func New(ctx context.Context, cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	logger.Info("connecting to postgres")
	writer, err := store.NewWriter(ctx, store.Config{
		DSN:             cfg.DB.DSN,
		MaxConns:        cfg.DB.MaxConns,
		MinConns:        cfg.DB.MinConns,
		MaxConnLifetime: cfg.DB.ConnLifetime(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init store writer: %w", err)
	}

	logger.Info("application services initialized")
	return &App{cfg: cfg, logger: logger, writer: writer}, nil
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the shared zap logger instance.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Writer returns the persistence writer.
func (a *App) Writer() *store.Writer {
	return a.writer
}

// Close shuts the services down in reverse initialization order.
func (a *App) Close() {
	if a.writer != nil {
		a.writer.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
