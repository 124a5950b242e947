package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/quakewatch-crawler/internal/dataset"
	"github.com/JakeFAU/quakewatch-crawler/internal/reconcile"
)

type reconcileFlags struct {
	all    bool
	fill   bool
	minMag float64
	maxMag float64
}

func newReconcileCmd() *cobra.Command {
	flags := &reconcileFlags{}
	cmd := &cobra.Command{
		Use:   "reconcile [year]...",
		Short: "Diffs years of the catalog against the local dataset",
		Long: `Lists the provider's catalog for each given year and reports every event
id the provider knows about that is missing from the local dataset. Pass one
or more years, or --all to reconcile every year directory on disk. With
--fill, the missing events are fetched, persisted, and each touched year's
rollup is rebuilt.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcileCommand(cmd, args, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.all, "all", false, "reconcile every year present in the dataset")
	cmd.Flags().BoolVar(&flags.fill, "fill", false, "fetch and persist the missing events")
	cmd.Flags().Float64Var(&flags.minMag, "min-mag", 0, "minimum magnitude filter applied by the provider")
	cmd.Flags().Float64Var(&flags.maxMag, "max-mag", 0, "maximum magnitude filter applied by the provider")

	return cmd
}

func runReconcileCommand(cmd *cobra.Command, args []string, flags *reconcileFlags) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.GetLogger()
	cfg := appInstance.GetConfig()

	years, err := resolveReconcileYears(appInstance, args, flags.all)
	if err != nil {
		return err
	}

	var minPtr, maxPtr *float64
	if cmd.Flags().Changed("min-mag") {
		minPtr = &flags.minMag
	}
	if cmd.Flags().Changed("max-mag") {
		maxPtr = &flags.maxMag
	}

	tool := reconcile.New(
		appInstance.GetClient(),
		appInstance.GetClient(),
		appInstance.GetStore(),
		cfg.Crawl.MonthSplitThreshold,
		logger,
	)

	totalMissing, totalFailed := 0, 0
	for _, year := range years {
		report, err := tool.Compare(cmd.Context(), year, minPtr, maxPtr)
		if err != nil {
			return fmt.Errorf("reconcile %d: %w", year, err)
		}
		if report.InSync() {
			logger.Info("dataset is in sync", zap.Int("year", year), zap.Int("events", report.Local))
			continue
		}

		totalMissing += len(report.MissingIDs)
		logger.Info("dataset is missing events",
			zap.Int("year", year),
			zap.Int("missing", len(report.MissingIDs)),
			zap.Strings("missing_ids", report.MissingIDs),
		)
		if !flags.fill {
			continue
		}

		result, err := tool.Fill(cmd.Context(), year, report.MissingIDs, dataset.CSVSuffix(minPtr))
		if err != nil {
			return fmt.Errorf("backfill %d: %w", year, err)
		}
		totalFailed += result.Failed
		logger.Info("backfill finished",
			zap.Int("year", year),
			zap.Int("fetched", result.Fetched),
			zap.Int("failed", result.Failed),
			zap.Int("csv_rows", result.CSVRows),
		)
	}

	if totalFailed > 0 {
		return fmt.Errorf("%d events failed to backfill", totalFailed)
	}
	return nil
}

func resolveReconcileYears(appInstance App, args []string, all bool) ([]int, error) {
	if all {
		if len(args) != 0 {
			return nil, fmt.Errorf("--all takes no year arguments")
		}
		years, err := appInstance.GetStore().Years()
		if err != nil {
			return nil, fmt.Errorf("scan dataset years: %w", err)
		}
		if len(years) == 0 {
			return nil, fmt.Errorf("dataset has no year directories to reconcile")
		}
		return years, nil
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one year argument or --all is required")
	}
	years := make([]int, 0, len(args))
	for _, arg := range args {
		year, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("year must be an integer: %q", arg)
		}
		years = append(years, year)
	}
	return years, nil
}
