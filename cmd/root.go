// Package cmd defines and implements the CLI commands for the quakewatch
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/quakewatch-crawler/internal/app"
	"github.com/JakeFAU/quakewatch-crawler/internal/config"
	"github.com/JakeFAU/quakewatch-crawler/internal/dataset"
	"github.com/JakeFAU/quakewatch-crawler/internal/usgs"
)

var (
	cfgFile   string
	outputDir string
)

// appKeyType keys the App in the command context.
type appKeyType string

const appKey appKeyType = "app"

// App is the slice of the service container the commands use. Keeping it an
// interface lets tests inject a mock container.
type App interface {
	Close()
	GetConfig() config.Config
	GetLogger() *zap.Logger
	GetClient() *usgs.Client
	GetStore() *dataset.Store
}

// newApp is the application factory, a variable so tests can swap in a mock.
var newApp = func(cfgPath, outputDir string) (App, error) {
	return app.NewApp(cfgPath, outputDir)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quakewatch",
		Short: "Crawls the USGS earthquake catalog into a local dataset.",
		Long: `quakewatch fetches earthquake events from the USGS FDSN event service,
persists each event's raw GeoJSON exactly once, and maintains per-year CSV
rollups derived purely from the persisted files.`,

		SilenceUsage: true,

		// Runs before every subcommand's RunE; builds and injects services.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cfgFile, outputDir)
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults plus QUAKEWATCH_* env vars)")
	cmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "dataset root directory, overrides dataset.output_dir from the config")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newReconcileCmd())
	cmd.AddCommand(newRetryCmd())
	cmd.AddCommand(newRebuildCSVCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
