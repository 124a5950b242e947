// Package dataset maps event records to the on-disk dataset: one directory
// per year holding write-once JSON files and a disposable CSV rollup. The
// presence of a JSON file is the sole source of truth for "already crawled";
// every CSV can be regenerated from the JSON files alone.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/quakewatch-crawler/internal/usgs"
)

// Store is rooted at the dataset directory.
type Store struct {
	root   string
	logger *zap.Logger
}

// NewStore creates the dataset root if absent and returns a Store.
func NewStore(root string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create dataset root %s: %w", root, err)
	}
	return &Store{root: root, logger: logger}, nil
}

// Root returns the dataset root directory.
func (s *Store) Root() string {
	return s.root
}

// YearDir returns the directory for one year's data.
func (s *Store) YearDir(year int) string {
	return filepath.Join(s.root, strconv.Itoa(year))
}

// Exists reports whether a JSON file for the id is already present under the
// year directory. The magnitude in the filename is unknown before fetching,
// so the check scans by id suffix rather than probing an exact path.
func (s *Store) Exists(year int, id string) (bool, error) {
	entries, err := os.ReadDir(s.YearDir(year))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read year dir %d: %w", year, err)
	}
	for _, entry := range entries {
		if key, ok := ParseFilename(entry.Name()); ok && key.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// WriteEvent persists the event's provider payload as a write-once JSON
// file. A pre-existing file for the same id is never overwritten; the write
// degrades to a no-op.
func (s *Store) WriteEvent(year int, ev usgs.Event) error {
	exists, err := s.Exists(year, ev.ID)
	if err != nil {
		return err
	}
	if exists {
		s.logger.Debug("event already persisted, skipping write",
			zap.Int("year", year),
			zap.String("id", ev.ID),
		)
		return nil
	}

	dir := s.YearDir(year)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create year dir %s: %w", dir, err)
	}

	key := EventKey{ID: ev.ID, Magnitude: ev.Magnitude}
	target := filepath.Join(dir, key.Filename())
	if err := os.WriteFile(target, ev.Payload, 0o600); err != nil {
		return fmt.Errorf("write event %s: %w", target, err)
	}
	return nil
}

// Keys lists the event keys persisted for a year, sorted by id. A missing
// year directory yields an empty list.
func (s *Store) Keys(year int) ([]EventKey, error) {
	entries, err := os.ReadDir(s.YearDir(year))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read year dir %d: %w", year, err)
	}
	var keys []EventKey
	for _, entry := range entries {
		if key, ok := ParseFilename(entry.Name()); ok {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].ID < keys[j].ID })
	return keys, nil
}

// IDs returns the set of persisted event ids for a year.
func (s *Store) IDs(year int) (map[string]struct{}, error) {
	keys, err := s.Keys(year)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		ids[key.ID] = struct{}{}
	}
	return ids, nil
}

// YearModTime returns the year directory's last modification time, which
// moves whenever an event file or rollup lands. ok is false when the year
// has no directory yet.
func (s *Store) YearModTime(year int) (time.Time, bool) {
	info, err := os.Stat(s.YearDir(year))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Years lists every year that has a data directory, ascending.
func (s *Store) Years() ([]int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read dataset root %s: %w", s.root, err)
	}
	var years []int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		year, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		years = append(years, year)
	}
	sort.Ints(years)
	return years, nil
}

// Events loads every persisted event for a year, ordered by event time then
// id. A missing year directory yields an empty list.
func (s *Store) Events(year int) ([]usgs.Event, error) {
	events, err := s.readEvents(year)
	if err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Time.Equal(events[j].Time) {
			return events[i].Time.Before(events[j].Time)
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}

// readEvents loads and parses every persisted JSON payload for a year.
// Unparseable files are logged and skipped so one corrupt payload cannot
// block a rebuild.
func (s *Store) readEvents(year int) ([]usgs.Event, error) {
	dir := s.YearDir(year)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read year dir %d: %w", year, err)
	}

	var events []usgs.Event
	for _, entry := range entries {
		key, ok := ParseFilename(entry.Name())
		if !ok {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read event file %s: %w", path, err)
		}
		ev, err := usgs.ParseDetail(body)
		if err != nil {
			s.logger.Warn("skipping unparseable event file",
				zap.String("path", path),
				zap.Error(err),
			)
			continue
		}
		if ev.ID == "" {
			ev.ID = key.ID
		}
		events = append(events, ev)
	}
	return events, nil
}

// CSVSuffix names the rollup variant: "all" without a magnitude floor,
// "M<min>+" with one.
func CSVSuffix(minMag *float64) string {
	if minMag == nil {
		return "all"
	}
	return "M" + strconv.FormatFloat(*minMag, 'f', -1, 64) + "+"
}
