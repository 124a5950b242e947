package dataset

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func readAllRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRebuildCSVOneRowPerJSONFile(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)

	// Written out of chronological order on purpose.
	require.NoError(t, store.WriteEvent(2023, testEvent("late", fptr(5.5), base.Add(48*time.Hour))))
	require.NoError(t, store.WriteEvent(2023, testEvent("early", fptr(6.1), base)))
	require.NoError(t, store.WriteEvent(2023, testEvent("mid", nil, base.Add(24*time.Hour))))

	n, err := store.RebuildCSV(2023, "all")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	path, ok := store.CSVPath(2023)
	require.True(t, ok)
	require.Equal(t, "earthquakes_2023_all.csv", filepath.Base(path))

	rows := readAllRows(t, path)
	require.Equal(t, []string{"time", "place", "magnitude", "depth", "latitude", "longitude", "id"}, rows[0])
	require.Len(t, rows, 4, "header plus one row per JSON file")

	// Rows come out in event-time order; null magnitude renders empty.
	require.Equal(t, "early", rows[1][6])
	require.Equal(t, "mid", rows[2][6])
	require.Equal(t, "late", rows[3][6])
	require.Equal(t, "", rows[2][2])
}

func TestRebuildCSVReplacesStaleRollup(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.WriteEvent(2023, testEvent("a", fptr(6.5), time.Now())))

	_, err := store.RebuildCSV(2023, "all")
	require.NoError(t, err)

	// A later crawl with a magnitude floor renames the rollup; only one
	// CSV may remain.
	_, err = store.RebuildCSV(2023, "M6.5+")
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(store.YearDir(2023), "*.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "earthquakes_2023_M6.5+.csv", filepath.Base(matches[0]))
}

func TestRebuildCSVEmptyYear(t *testing.T) {
	store := newTestStore(t)
	n, err := store.RebuildCSV(1900, "all")
	require.NoError(t, err)
	require.Zero(t, n)

	_, ok := store.CSVPath(1900)
	require.False(t, ok, "no rollup is written for an empty year")
}

func TestRebuildCombinedCSV(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.WriteEvent(2022, testEvent("x", fptr(5.0), time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, store.WriteEvent(2023, testEvent("y", fptr(6.0), time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, store.WriteEvent(2023, testEvent("z", fptr(7.0), time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC))))

	for _, year := range []int{2022, 2023} {
		_, err := store.RebuildCSV(year, "all")
		require.NoError(t, err)
	}

	path, total, err := store.RebuildCombinedCSV([]int{2022, 2023}, "all")
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Equal(t, "earthquakes_2022-2023_all.csv", filepath.Base(path))

	rows := readAllRows(t, path)
	require.Len(t, rows, 4)
	require.Equal(t, "x", rows[1][6])
	require.Equal(t, "y", rows[2][6])
	require.Equal(t, "z", rows[3][6])
}

func TestRepairCSVs(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	// 2020: JSON files but no CSV.
	require.NoError(t, store.WriteEvent(2020, testEvent("a", fptr(5.0), now)))

	// 2021: CSV in sync.
	require.NoError(t, store.WriteEvent(2021, testEvent("b", fptr(5.0), now)))
	_, err := store.RebuildCSV(2021, "all")
	require.NoError(t, err)

	// 2022: CSV stale (a JSON file landed after the rollup).
	require.NoError(t, store.WriteEvent(2022, testEvent("c", fptr(5.0), now)))
	_, err = store.RebuildCSV(2022, "all")
	require.NoError(t, err)
	require.NoError(t, store.WriteEvent(2022, testEvent("d", fptr(6.0), now.Add(time.Hour))))

	repaired, err := store.RepairCSVs()
	require.NoError(t, err)
	require.Equal(t, []int{2020, 2022}, repaired)

	for _, year := range []int{2020, 2021, 2022} {
		keys, err := store.Keys(year)
		require.NoError(t, err)
		rows, err := store.CSVRowCount(year)
		require.NoError(t, err)
		require.Equal(t, len(keys), rows, "year %d rollup must match its JSON inventory", year)
	}
}
