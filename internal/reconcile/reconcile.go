// Package reconcile compares the provider's authoritative catalog for a
// year against the local dataset and optionally backfills whatever the
// provider has that the disk does not.
package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/quakewatch-crawler/internal/metrics"
	"github.com/JakeFAU/quakewatch-crawler/internal/usgs"
)

// Catalog lists a year's worth of event summaries.
type Catalog interface {
	ListYear(ctx context.Context, year int, minMag, maxMag *float64, threshold int) ([]usgs.Summary, error)
}

// Detail fetches one event by identifier.
type Detail interface {
	Get(ctx context.Context, id string) (usgs.Event, error)
}

// Store is the slice of the dataset layer reconciliation needs.
type Store interface {
	IDs(year int) (map[string]struct{}, error)
	WriteEvent(year int, ev usgs.Event) error
	RebuildCSV(year int, suffix string) (int, error)
}

// Report describes the gap between provider and disk for one year.
type Report struct {
	Year       int
	Listed     int
	Local      int
	MissingIDs []string
}

// InSync reports whether the local dataset holds every listed identifier.
func (r Report) InSync() bool {
	return len(r.MissingIDs) == 0
}

// FillResult tallies a backfill pass.
type FillResult struct {
	Year      int
	Fetched   int
	Failed    int
	FailedIDs []string
	CSVRows   int
}

// Tool runs reconciliation for one or more years.
type Tool struct {
	catalog Catalog
	detail  Detail
	store   Store
	logger  *zap.Logger

	// threshold is the per-query result cap that triggers month splitting.
	threshold int
}

// New constructs a Tool.
func New(catalog Catalog, detail Detail, store Store, threshold int, logger *zap.Logger) *Tool {
	metrics.Init()
	return &Tool{
		catalog:   catalog,
		detail:    detail,
		store:     store,
		logger:    logger,
		threshold: threshold,
	}
}

// Compare lists the provider's catalog for year and diffs it against the
// identifiers already on disk. Missing identifiers keep the provider's
// listing order.
func (t *Tool) Compare(ctx context.Context, year int, minMag, maxMag *float64) (Report, error) {
	summaries, err := t.catalog.ListYear(ctx, year, minMag, maxMag, t.threshold)
	if err != nil {
		return Report{}, fmt.Errorf("list year %d: %w", year, err)
	}
	local, err := t.store.IDs(year)
	if err != nil {
		return Report{}, fmt.Errorf("scan local year %d: %w", year, err)
	}

	report := Report{Year: year, Listed: len(summaries), Local: len(local)}
	for _, s := range summaries {
		if _, ok := local[s.ID]; !ok {
			report.MissingIDs = append(report.MissingIDs, s.ID)
		}
	}

	t.logger.Info("reconciliation compared",
		zap.Int("year", year),
		zap.Int("listed", report.Listed),
		zap.Int("local", report.Local),
		zap.Int("missing", len(report.MissingIDs)))
	return report, nil
}

// Fill fetches and persists every identifier in missing. Individual fetch
// failures are recorded and the pass continues; the year's rollup is
// regenerated afterwards when anything new landed.
func (t *Tool) Fill(ctx context.Context, year int, missing []string, suffix string) (FillResult, error) {
	result := FillResult{Year: year}
	for _, id := range missing {
		if ctx.Err() != nil {
			return result, fmt.Errorf("fill interrupted: %w", ctx.Err())
		}
		ev, err := t.detail.Get(ctx, id)
		if err != nil {
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, id)
			metrics.ObserveEvent("failed")
			t.logger.Warn("backfill fetch failed", zap.Int("year", year), zap.String("id", id), zap.Error(err))
			continue
		}
		if err := t.store.WriteEvent(year, ev); err != nil {
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, id)
			metrics.ObserveEvent("failed")
			t.logger.Warn("backfill write failed", zap.Int("year", year), zap.String("id", id), zap.Error(err))
			continue
		}
		result.Fetched++
		metrics.ObserveEvent("fetched")
	}

	if result.Fetched > 0 {
		rows, err := t.store.RebuildCSV(year, suffix)
		if err != nil {
			return result, fmt.Errorf("rebuild rollup for %d: %w", year, err)
		}
		result.CSVRows = rows
	}
	return result, nil
}
