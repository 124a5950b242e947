package crawl

// YearState is the lifecycle state of one year's crawl.
type YearState string

// Year states, advanced strictly in order. A failed per-identifier fetch
// never moves the year backwards; listing failure parks it in FAILED.
const (
	StatePending    YearState = "pending"
	StateListing    YearState = "listing"
	StateFetching   YearState = "fetching"
	StateWritingCSV YearState = "writing_csv"
	StateDone       YearState = "done"
	StateFailed     YearState = "failed"
)

// Options are the caller-supplied crawl parameters.
type Options struct {
	// MinMag and MaxMag are passed through to the provider as query
	// filters; events outside the range are never fetched or stored.
	MinMag *float64
	MaxMag *float64

	// Limit truncates each year's identifier list before fetching
	// begins. Zero means no limit.
	Limit int

	// SaveJSON toggles per-event JSON persistence. When off, events are
	// fetched and counted but rollups are left untouched, since CSVs are
	// derived exclusively from the JSON files on disk.
	SaveJSON bool

	// MonthSplitThreshold is the year event count above which catalog
	// listing falls back to one query per calendar month.
	MonthSplitThreshold int
}

// YearResult tallies one year's crawl. It is returned by value so repeated
// or concurrent runs in tests stay isolated; there is no module-level state.
type YearResult struct {
	Year      int
	State     YearState
	Listed    int
	Fetched   int
	Skipped   int
	Failed    int
	FailedIDs []string
	CSVRows   int
	Err       error
}

// RunResult aggregates a whole multi-year run.
type RunResult struct {
	Years        []YearResult
	CombinedPath string
	CombinedRows int
}

// TotalFailed counts per-identifier failures across all years.
func (r RunResult) TotalFailed() int {
	n := 0
	for _, yr := range r.Years {
		n += yr.Failed
	}
	return n
}
