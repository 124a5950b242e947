package cmd

import (
	"fmt"
	"strconv"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/quakewatch-crawler/internal/crawl"
)

type crawlFlags struct {
	startYear int
	endYear   int
	limit     int
	noJSON    bool
	minMag    float64
	maxMag    float64
}

func newCrawlCmd() *cobra.Command {
	flags := &crawlFlags{}
	cmd := &cobra.Command{
		Use:   "crawl [year]",
		Short: "Crawls one or more years of the earthquake catalog",
		Long: `Lists the catalog for each requested year, fetches the detail record for
every event not already on disk, and rebuilds the per-year and combined CSV
rollups. Pass a single year, or use --start-year (with an optional
--end-year) to crawl a range; --end-year defaults to the current year.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawlCommand(cmd, args, flags)
		},
	}

	cmd.Flags().IntVar(&flags.startYear, "start-year", 0, "first year of the range to crawl")
	cmd.Flags().IntVar(&flags.endYear, "end-year", 0, "last year of the range (default: current year)")
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "cap the number of events fetched per year (0 = no cap)")
	cmd.Flags().BoolVar(&flags.noJSON, "no-json", false, "fetch without persisting JSON or rebuilding rollups")
	cmd.Flags().Float64Var(&flags.minMag, "min-mag", 0, "minimum magnitude filter applied by the provider")
	cmd.Flags().Float64Var(&flags.maxMag, "max-mag", 0, "maximum magnitude filter applied by the provider")

	return cmd
}

func runCrawlCommand(cmd *cobra.Command, args []string, flags *crawlFlags) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.GetLogger()
	cfg := appInstance.GetConfig()

	years, err := resolveYears(cmd, args, flags)
	if err != nil {
		return err
	}

	opts := crawl.Options{
		Limit:               flags.limit,
		SaveJSON:            !flags.noJSON,
		MonthSplitThreshold: cfg.Crawl.MonthSplitThreshold,
	}
	opts.MinMag, opts.MaxMag = magnitudeBounds(cmd, flags)

	orchestrator := crawl.New(appInstance.GetClient(), appInstance.GetClient(), appInstance.GetStore(), logger)
	result, err := orchestrator.Run(cmd.Context(), years, opts)
	if err != nil {
		return fmt.Errorf("run crawl: %w", err)
	}

	logger.Info("crawl finished",
		zap.Int("years", len(result.Years)),
		zap.Int("failed", result.TotalFailed()),
		zap.String("combined_csv", result.CombinedPath),
		zap.Int("combined_rows", result.CombinedRows),
	)
	if result.TotalFailed() > 0 {
		return fmt.Errorf("%d events failed; rerun or use the retry command", result.TotalFailed())
	}
	return nil
}

func resolveYears(cmd *cobra.Command, args []string, flags *crawlFlags) ([]int, error) {
	if len(args) == 1 {
		if cmd.Flags().Changed("start-year") || cmd.Flags().Changed("end-year") {
			return nil, fmt.Errorf("pass either a year argument or --start-year, not both")
		}
		year, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("year must be an integer: %q", args[0])
		}
		return crawl.YearRange(clockwork.NewRealClock(), year, year)
	}
	if flags.startYear == 0 {
		return nil, fmt.Errorf("a year argument or --start-year is required")
	}
	return crawl.YearRange(clockwork.NewRealClock(), flags.startYear, flags.endYear)
}

// magnitudeBounds turns the magnitude flags into optional bounds. A flag
// left unset means no bound, so zero is still a usable filter value.
func magnitudeBounds(cmd *cobra.Command, flags *crawlFlags) (minMag, maxMag *float64) {
	if cmd.Flags().Changed("min-mag") {
		v := flags.minMag
		minMag = &v
	}
	if cmd.Flags().Changed("max-mag") {
		v := flags.maxMag
		maxMag = &v
	}
	return minMag, maxMag
}
