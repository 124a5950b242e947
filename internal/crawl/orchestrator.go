// Package crawl drives the fetch-and-persist pipeline: resolve years, list
// each year's catalog, fetch details for unseen identifiers one at a time,
// and regenerate CSV rollups from the resulting on-disk dataset.
package crawl

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/quakewatch-crawler/internal/dataset"
	"github.com/JakeFAU/quakewatch-crawler/internal/metrics"
)

// Orchestrator sequences the crawl. Execution is deliberately sequential:
// one identifier in flight at a time, so the provider's rate limits are
// respected by construction.
type Orchestrator struct {
	catalog Catalog
	detail  Detail
	store   Store
	logger  *zap.Logger
}

// New constructs an Orchestrator.
func New(catalog Catalog, detail Detail, store Store, logger *zap.Logger) *Orchestrator {
	metrics.Init()
	return &Orchestrator{
		catalog: catalog,
		detail:  detail,
		store:   store,
		logger:  logger,
	}
}

// Run crawls the given years strictly in order. A year whose listing fails
// is recorded and skipped; per-identifier failures never abort a year. After
// all years, the multi-year combined rollup is regenerated.
func (o *Orchestrator) Run(ctx context.Context, years []int, opts Options) (RunResult, error) {
	if len(years) == 0 {
		return RunResult{}, fmt.Errorf("no years to crawl")
	}

	var result RunResult
	for _, year := range years {
		yr := o.runYear(ctx, year, opts)
		result.Years = append(result.Years, yr)
		if ctx.Err() != nil {
			return result, fmt.Errorf("crawl interrupted: %w", ctx.Err())
		}
		o.logYearSummary(yr)
	}

	if opts.SaveJSON {
		path, rows, err := o.store.RebuildCombinedCSV(years, dataset.CSVSuffix(opts.MinMag))
		if err != nil {
			return result, fmt.Errorf("rebuild combined rollup: %w", err)
		}
		result.CombinedPath = path
		result.CombinedRows = rows
	}
	return result, nil
}

func (o *Orchestrator) runYear(ctx context.Context, year int, opts Options) YearResult {
	result := YearResult{Year: year, State: StatePending}

	result.State = StateListing
	o.logger.Info("listing year catalog", zap.Int("year", year))
	summaries, err := o.catalog.ListYear(ctx, year, opts.MinMag, opts.MaxMag, opts.MonthSplitThreshold)
	if err != nil {
		result.State = StateFailed
		result.Err = fmt.Errorf("list year %d: %w", year, err)
		o.logger.Error("year listing failed, moving on", zap.Int("year", year), zap.Error(err))
		return result
	}

	// The limit applies to the identifier list before any fetching, never
	// as an early exit mid-fetch.
	if opts.Limit > 0 && len(summaries) > opts.Limit {
		summaries = summaries[:opts.Limit]
	}
	result.Listed = len(summaries)

	// One directory scan up front; probing the disk per identifier would
	// make large years quadratic.
	seen, err := o.store.IDs(year)
	if err != nil {
		result.State = StateFailed
		result.Err = fmt.Errorf("scan year %d: %w", year, err)
		return result
	}

	result.State = StateFetching
	for _, summary := range summaries {
		if ctx.Err() != nil {
			result.Err = ctx.Err()
			return result
		}
		o.fetchOne(ctx, year, summary.ID, opts.SaveJSON, seen, &result)
	}

	if opts.SaveJSON {
		result.State = StateWritingCSV
		rows, err := o.store.RebuildCSV(year, dataset.CSVSuffix(opts.MinMag))
		if err != nil {
			result.State = StateFailed
			result.Err = fmt.Errorf("rebuild rollup for %d: %w", year, err)
			return result
		}
		result.CSVRows = rows
	}

	result.State = StateDone
	return result
}

// fetchOne processes a single identifier: skip if it is already in the seen
// set, otherwise fetch and persist. Failures are tallied and the crawl moves
// on.
func (o *Orchestrator) fetchOne(ctx context.Context, year int, id string, save bool, seen map[string]struct{}, result *YearResult) {
	if _, ok := seen[id]; ok {
		result.Skipped++
		metrics.ObserveEvent("skipped")
		return
	}

	ev, err := o.detail.Get(ctx, id)
	if err != nil {
		result.Failed++
		result.FailedIDs = append(result.FailedIDs, id)
		metrics.ObserveEvent("failed")
		o.logger.Warn("event fetch failed", zap.Int("year", year), zap.String("id", id), zap.Error(err))
		return
	}

	if save {
		if err := o.store.WriteEvent(year, ev); err != nil {
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, id)
			metrics.ObserveEvent("failed")
			o.logger.Warn("event write failed", zap.Int("year", year), zap.String("id", id), zap.Error(err))
			return
		}
	}
	seen[id] = struct{}{}
	result.Fetched++
	metrics.ObserveEvent("fetched")
}

// FetchIDs runs the per-identifier loop over an explicit id list, used by
// the retry tool and reconciliation auto-fill.
func (o *Orchestrator) FetchIDs(ctx context.Context, year int, ids []string) YearResult {
	result := YearResult{Year: year, State: StateFetching, Listed: len(ids)}
	seen, err := o.store.IDs(year)
	if err != nil {
		result.State = StateFailed
		result.Err = fmt.Errorf("scan year %d: %w", year, err)
		return result
	}
	for _, id := range ids {
		if ctx.Err() != nil {
			result.Err = ctx.Err()
			return result
		}
		o.fetchOne(ctx, year, id, true, seen, &result)
	}
	result.State = StateDone
	return result
}

func (o *Orchestrator) logYearSummary(yr YearResult) {
	fields := []zap.Field{
		zap.Int("year", yr.Year),
		zap.Int("listed", yr.Listed),
		zap.Int("fetched", yr.Fetched),
		zap.Int("skipped", yr.Skipped),
		zap.Int("failed", yr.Failed),
	}
	if len(yr.FailedIDs) > 0 {
		fields = append(fields, zap.Strings("failed_ids", yr.FailedIDs))
	}
	if yr.Err != nil {
		fields = append(fields, zap.Error(yr.Err))
		o.logger.Warn("year finished with errors", fields...)
		return
	}
	o.logger.Info("year finished", fields...)
}
