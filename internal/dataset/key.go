package dataset

import (
	"strconv"
	"strings"
)

const (
	filePrefix = "event_"
	fileSuffix = ".json"

	// magnitudeNA is the filename token for an unknown magnitude.
	magnitudeNA = "na"
)

// EventKey is the two-field key encoded in a persisted event filename:
// `event_<magnitude-or-na>_<id>.json`. Magnitude tokens never contain an
// underscore; event ids may, so parsing splits on the first underscore only.
type EventKey struct {
	ID        string
	Magnitude *float64
}

// Filename renders the key as its on-disk name.
func (k EventKey) Filename() string {
	return filePrefix + k.magnitudeToken() + "_" + k.ID + fileSuffix
}

func (k EventKey) magnitudeToken() string {
	if k.Magnitude == nil {
		return magnitudeNA
	}
	return strconv.FormatFloat(*k.Magnitude, 'f', 1, 64)
}

// ParseFilename recovers the key from an on-disk name. ok is false for names
// that are not event files. A magnitude token that does not parse as a float
// (including the `na` sentinel) yields a nil Magnitude; the id is still
// recovered, which is all the skip-if-exists check needs.
func ParseFilename(name string) (key EventKey, ok bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return EventKey{}, false
	}
	trimmed := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)

	parts := strings.SplitN(trimmed, "_", 2)
	if len(parts) != 2 || parts[1] == "" {
		return EventKey{}, false
	}
	key = EventKey{ID: parts[1]}
	if mag, err := strconv.ParseFloat(parts[0], 64); err == nil {
		key.Magnitude = &mag
	}
	return key, true
}
