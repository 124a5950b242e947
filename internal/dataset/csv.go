package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/quakewatch-crawler/internal/usgs"
)

// csvHeader is the fixed rollup column order.
var csvHeader = []string{"time", "place", "magnitude", "depth", "latitude", "longitude", "id"}

func csvRecord(ev usgs.Event) []string {
	mag := ""
	if ev.Magnitude != nil {
		mag = strconv.FormatFloat(*ev.Magnitude, 'f', -1, 64)
	}
	return []string{
		ev.Time.UTC().Format(time.RFC3339),
		ev.Place,
		mag,
		strconv.FormatFloat(ev.Depth, 'f', -1, 64),
		strconv.FormatFloat(ev.Latitude, 'f', -1, 64),
		strconv.FormatFloat(ev.Longitude, 'f', -1, 64),
		ev.ID,
	}
}

// RebuildCSV regenerates a year's rollup purely from the JSON files in its
// directory. Any previous rollup for the year is removed first, so the
// directory never holds stale or duplicate CSVs. Rows are ordered by event
// time (the order catalog listings arrive in), then id. Returns the number
// of data rows written; a year with no JSON files produces no CSV.
func (s *Store) RebuildCSV(year int, suffix string) (int, error) {
	events, err := s.Events(year)
	if err != nil {
		return 0, err
	}
	if err := s.removeCSVs(year); err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	path := filepath.Join(s.YearDir(year), fmt.Sprintf("earthquakes_%d_%s.csv", year, suffix))
	if err := writeCSV(path, events); err != nil {
		return 0, err
	}
	s.logger.Info("rebuilt year rollup",
		zap.Int("year", year),
		zap.Int("rows", len(events)),
		zap.String("path", path),
	)
	return len(events), nil
}

// RebuildCombinedCSV regenerates the multi-year rollup at the dataset root
// by concatenating each listed year's CSV in order. Years without a CSV are
// skipped. Returns the combined path and total row count.
func (s *Store) RebuildCombinedCSV(years []int, suffix string) (string, int, error) {
	if len(years) == 0 {
		return "", 0, fmt.Errorf("no years to combine")
	}

	name := fmt.Sprintf("earthquakes_%d-%d_%s.csv", years[0], years[len(years)-1], suffix)
	path := filepath.Join(s.root, name)

	out, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create combined csv %s: %w", path, err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return "", 0, fmt.Errorf("write combined csv header: %w", err)
	}

	total := 0
	for _, year := range years {
		yearPath, ok := s.CSVPath(year)
		if !ok {
			continue
		}
		rows, err := readCSVRows(yearPath)
		if err != nil {
			return "", 0, err
		}
		for _, row := range rows {
			if err := w.Write(row); err != nil {
				return "", 0, fmt.Errorf("write combined csv row: %w", err)
			}
		}
		total += len(rows)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", 0, fmt.Errorf("flush combined csv: %w", err)
	}
	return path, total, nil
}

// CSVPath returns the year's current rollup file, if one exists.
func (s *Store) CSVPath(year int) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(s.YearDir(year), "earthquakes_*.csv"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	sort.Strings(matches)
	return matches[0], true
}

// CSVRowCount counts the data rows (excluding the header) in a year's
// rollup. A missing rollup counts as zero rows.
func (s *Store) CSVRowCount(year int) (int, error) {
	path, ok := s.CSVPath(year)
	if !ok {
		return 0, nil
	}
	rows, err := readCSVRows(path)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// RepairCSVs rebuilds the rollup for every year whose CSV is missing or
// whose row count disagrees with the JSON file count. Local-only repairs
// cannot know the crawl's magnitude bounds, so rebuilt rollups use the
// "all" suffix. Returns the years repaired.
func (s *Store) RepairCSVs() ([]int, error) {
	years, err := s.Years()
	if err != nil {
		return nil, err
	}

	var repaired []int
	for _, year := range years {
		keys, err := s.Keys(year)
		if err != nil {
			return repaired, err
		}
		rows, err := s.CSVRowCount(year)
		if err != nil {
			return repaired, err
		}
		if rows == len(keys) {
			continue
		}
		if _, err := s.RebuildCSV(year, "all"); err != nil {
			return repaired, err
		}
		repaired = append(repaired, year)
	}
	return repaired, nil
}

func (s *Store) removeCSVs(year int) error {
	matches, err := filepath.Glob(filepath.Join(s.YearDir(year), "earthquakes_*.csv"))
	if err != nil {
		return fmt.Errorf("glob year csvs: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			return fmt.Errorf("remove stale csv %s: %w", m, err)
		}
	}
	return nil
}

func writeCSV(path string, events []usgs.Event) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, ev := range events {
		if err := w.Write(csvRecord(ev)); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv %s: %w", path, err)
	}
	return nil
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	if len(all) <= 1 {
		return nil, nil
	}
	return all[1:], nil
}
