package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/quakewatch-crawler/internal/crawl"
	"github.com/JakeFAU/quakewatch-crawler/internal/dataset"
)

func newRetryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retry <year> <id>...",
		Short: "Refetches specific events that failed during a crawl",
		Long: `Fetches and persists an explicit list of event ids for a year, skipping
any that already exist on disk, then rebuilds the year's rollup. Use this
with the failed ids a crawl reports.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			logger := appInstance.GetLogger()

			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("year must be an integer: %q", args[0])
			}
			ids := args[1:]

			orchestrator := crawl.New(appInstance.GetClient(), appInstance.GetClient(), appInstance.GetStore(), logger)
			result := orchestrator.FetchIDs(cmd.Context(), year, ids)
			if result.Err != nil {
				return fmt.Errorf("retry %d: %w", year, result.Err)
			}

			rows := 0
			if result.Fetched > 0 {
				rows, err = appInstance.GetStore().RebuildCSV(year, dataset.CSVSuffix(nil))
				if err != nil {
					return fmt.Errorf("rebuild rollup for %d: %w", year, err)
				}
			}

			logger.Info("retry finished",
				zap.Int("year", year),
				zap.Int("fetched", result.Fetched),
				zap.Int("skipped", result.Skipped),
				zap.Int("failed", result.Failed),
				zap.Int("csv_rows", rows),
			)
			if result.Failed > 0 {
				return fmt.Errorf("%d events still failing", result.Failed)
			}
			return nil
		},
	}
	return cmd
}
