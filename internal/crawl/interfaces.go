package crawl

import (
	"context"

	"github.com/JakeFAU/quakewatch-crawler/internal/usgs"
)

// Catalog lists the events for a year, month-splitting above threshold.
type Catalog interface {
	ListYear(ctx context.Context, year int, minMag, maxMag *float64, threshold int) ([]usgs.Summary, error)
}

// Detail fetches the full record for one event id.
type Detail interface {
	Get(ctx context.Context, id string) (usgs.Event, error)
}

// Store persists events and regenerates CSV rollups.
type Store interface {
	IDs(year int) (map[string]struct{}, error)
	WriteEvent(year int, ev usgs.Event) error
	RebuildCSV(year int, suffix string) (int, error)
	RebuildCombinedCSV(years []int, suffix string) (string, int, error)
}
