package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/quakewatch-crawler/internal/dataset"
)

func newRebuildCSVCmd() *cobra.Command {
	var repairAll bool
	cmd := &cobra.Command{
		Use:   "rebuild-csv [year]",
		Short: "Regenerates CSV rollups from the JSON files on disk",
		Long: `Rebuilds a year's CSV rollup purely from its persisted JSON files; no
network requests are made. With --all, every year directory is checked and
any rollup that is missing or out of sync with its JSON files is rebuilt.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			logger := appInstance.GetLogger()
			store := appInstance.GetStore()

			if repairAll {
				if len(args) != 0 {
					return fmt.Errorf("--all takes no year argument")
				}
				repaired, err := store.RepairCSVs()
				if err != nil {
					return fmt.Errorf("repair rollups: %w", err)
				}
				logger.Info("rollup repair finished", zap.Ints("repaired_years", repaired))
				return nil
			}

			if len(args) != 1 {
				return fmt.Errorf("a year argument or --all is required")
			}
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("year must be an integer: %q", args[0])
			}
			rows, err := store.RebuildCSV(year, dataset.CSVSuffix(nil))
			if err != nil {
				return fmt.Errorf("rebuild rollup for %d: %w", year, err)
			}
			logger.Info("rollup rebuilt", zap.Int("year", year), zap.Int("rows", rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&repairAll, "all", false, "check and repair every year's rollup")
	return cmd
}
