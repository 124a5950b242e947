package usgs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// List retrieves the events matching one window, in the order the provider
// returns them (orderby=time-asc, never re-sorted).
func (c *Client) List(ctx context.Context, w Window) ([]Summary, error) {
	params := w.Values()
	params.Set("format", "geojson")
	params.Set("orderby", "time-asc")

	body, err := c.get(ctx, "query", params)
	if err != nil {
		return nil, fmt.Errorf("list window %s: %w", w, err)
	}

	var fc featureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, fmt.Errorf("decode listing for %s: %w", w, err)
	}

	summaries := make([]Summary, 0, len(fc.Features))
	for _, f := range fc.Features {
		summaries = append(summaries, f.summary())
	}
	return summaries, nil
}

// Count asks the provider how many events match the window without fetching
// them. Used to decide whether a full-year listing must be month-split.
func (c *Client) Count(ctx context.Context, w Window) (int, error) {
	params := w.Values()
	params.Set("format", "geojson")

	body, err := c.get(ctx, "count", params)
	if err != nil {
		return 0, fmt.Errorf("count window %s: %w", w, err)
	}

	var cr countResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return 0, fmt.Errorf("decode count for %s: %w", w, err)
	}
	return cr.Count, nil
}

// ListYear lists a whole year. When the provider reports more matches than
// threshold, the year is fetched one calendar month at a time and the results
// concatenated in chronological order, sidestepping the provider's result cap.
func (c *Client) ListYear(ctx context.Context, year int, minMag, maxMag *float64, threshold int) ([]Summary, error) {
	yearWindow := YearWindow(year, minMag, maxMag)

	count, err := c.Count(ctx, yearWindow)
	if err != nil {
		return nil, err
	}
	if count <= threshold {
		return c.List(ctx, yearWindow)
	}

	c.logger.Info("year exceeds listing threshold, splitting by month",
		zap.Int("year", year),
		zap.Int("count", count),
		zap.Int("threshold", threshold),
	)
	var all []Summary
	for month := time.January; month <= time.December; month++ {
		summaries, err := c.List(ctx, MonthWindow(year, month, minMag, maxMag))
		if err != nil {
			return nil, fmt.Errorf("month %s: %w", month, err)
		}
		all = append(all, summaries...)
	}
	return all, nil
}
