// Package usgs implements the client for the USGS FDSN event web service.
package usgs

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Summary is the lightweight per-event record returned by catalog listings.
type Summary struct {
	ID        string
	Magnitude *float64
	Time      time.Time
	Place     string
}

// Event is the full detail record for one event. Payload holds the provider's
// GeoJSON document verbatim for persistence; the remaining fields are the
// flattened values used for CSV rows.
type Event struct {
	ID        string
	Magnitude *float64
	Time      time.Time
	Place     string
	Depth     float64
	Latitude  float64
	Longitude float64
	Payload   json.RawMessage
}

// Window bounds one catalog query: a date range plus optional magnitude
// bounds passed through as provider-side filters.
type Window struct {
	Start  time.Time
	End    time.Time
	MinMag *float64
	MaxMag *float64
}

// YearWindow covers a whole calendar year.
func YearWindow(year int, minMag, maxMag *float64) Window {
	return Window{
		Start:  time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:    time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
		MinMag: minMag,
		MaxMag: maxMag,
	}
}

// MonthWindow covers one calendar month of a year.
func MonthWindow(year int, month time.Month, minMag, maxMag *float64) Window {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Window{
		Start:  start,
		End:    start.AddDate(0, 1, -1),
		MinMag: minMag,
		MaxMag: maxMag,
	}
}

// Values renders the window as provider query parameters. endtime carries
// the last second of its day: the provider reads a bare date as midnight,
// which would drop the end day's events and leave a one-day gap between
// consecutive windows.
func (w Window) Values() url.Values {
	v := url.Values{}
	v.Set("starttime", w.Start.Format("2006-01-02"))
	v.Set("endtime", w.End.Format("2006-01-02")+"T23:59:59")
	if w.MinMag != nil {
		v.Set("minmagnitude", strconv.FormatFloat(*w.MinMag, 'f', -1, 64))
	}
	if w.MaxMag != nil {
		v.Set("maxmagnitude", strconv.FormatFloat(*w.MaxMag, 'f', -1, 64))
	}
	return v
}

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
}

// GeoJSON shapes returned by the provider. The detail endpoint answers with
// either a FeatureCollection holding one feature or a bare Feature; the
// listing endpoint always answers with a FeatureCollection.

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string     `json:"type"`
	ID         string     `json:"id"`
	Properties properties `json:"properties"`
	Geometry   geometry   `json:"geometry"`
}

type properties struct {
	Mag   *float64 `json:"mag"`
	Place string   `json:"place"`
	Time  int64    `json:"time"`
}

type geometry struct {
	// Coordinates are [longitude, latitude, depth-km].
	Coordinates []float64 `json:"coordinates"`
}

type countResponse struct {
	Count int `json:"count"`
}

func (f feature) summary() Summary {
	return Summary{
		ID:        f.ID,
		Magnitude: f.Properties.Mag,
		Time:      time.UnixMilli(f.Properties.Time).UTC(),
		Place:     f.Properties.Place,
	}
}

func (f feature) event(raw json.RawMessage) (Event, error) {
	if len(f.Geometry.Coordinates) < 3 {
		return Event{}, fmt.Errorf("event %s: malformed geometry coordinates", f.ID)
	}
	return Event{
		ID:        f.ID,
		Magnitude: f.Properties.Mag,
		Time:      time.UnixMilli(f.Properties.Time).UTC(),
		Place:     f.Properties.Place,
		Depth:     f.Geometry.Coordinates[2],
		Latitude:  f.Geometry.Coordinates[1],
		Longitude: f.Geometry.Coordinates[0],
		Payload:   raw,
	}, nil
}
