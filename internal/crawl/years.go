package crawl

import (
	"fmt"

	"github.com/jonboulle/clockwork"
)

// earliestYear is the first year the provider has catalog data worth
// crawling in bulk.
const earliestYear = 1900

// YearRange expands a start/end pair into an inclusive ascending slice of
// years. An end of zero means "through the current year".
func YearRange(clock clockwork.Clock, start, end int) ([]int, error) {
	current := clock.Now().Year()
	if end == 0 {
		end = current
	}
	if start < earliestYear {
		return nil, fmt.Errorf("start year %d is before %d", start, earliestYear)
	}
	if end > current {
		return nil, fmt.Errorf("end year %d is in the future", end)
	}
	if start > end {
		return nil, fmt.Errorf("start year %d is after end year %d", start, end)
	}
	years := make([]int, 0, end-start+1)
	for y := start; y <= end; y++ {
		years = append(years, y)
	}
	return years, nil
}
