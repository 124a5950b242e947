// Package app initializes and holds long-lived application services, acting
// as a dependency injection container for the CLI commands.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/quakewatch-crawler/internal/config"
	"github.com/JakeFAU/quakewatch-crawler/internal/dataset"
	"github.com/JakeFAU/quakewatch-crawler/internal/logging"
	"github.com/JakeFAU/quakewatch-crawler/internal/usgs"
)

// App holds the shared services every command needs: configuration, the
// logger, the provider client, and the on-disk dataset store. It is built
// once at startup and handed to subcommands through the command context.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	client *usgs.Client
	store  *dataset.Store
}

// GetConfig returns the loaded configuration.
func (a *App) GetConfig() config.Config {
	return a.cfg
}

// GetLogger returns the shared zap logger instance.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetClient returns the provider catalog client.
func (a *App) GetClient() *usgs.Client {
	return a.client
}

// GetStore returns the dataset store.
func (a *App) GetStore() *dataset.Store {
	return a.store
}

// Close flushes buffered log entries. Sync errors on stderr are expected on
// some platforms and ignored.
func (a *App) Close() {
	_ = a.logger.Sync()
}

// NewApp builds the service container from a config file path. A non-empty
// outputDir overrides the configured dataset root. It fails fast if any
// service cannot be initialized.
func NewApp(cfgPath, outputDir string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if outputDir != "" {
		cfg.Dataset.OutputDir = outputDir
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	store, err := dataset.NewStore(cfg.Dataset.OutputDir, logger)
	if err != nil {
		return nil, fmt.Errorf("init dataset store: %w", err)
	}

	client := usgs.NewClient(usgs.ClientConfig{
		BaseURL:           cfg.Provider.BaseURL,
		UserAgent:         cfg.Provider.UserAgent,
		Timeout:           cfg.Timeout(),
		InterRequestDelay: cfg.InterRequestDelay(),
		Policy:            usgs.NewRetryPolicy(cfg.HTTP.MaxRetries, cfg.BackoffInitial(), cfg.RateLimitWaits()),
	}, logger)

	logger.Info("application services initialized",
		zap.String("provider", cfg.Provider.BaseURL),
		zap.String("output_dir", cfg.Dataset.OutputDir),
	)
	return &App{cfg: cfg, logger: logger, client: client, store: store}, nil
}
