package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/quakewatch-crawler/internal/usgs"
)

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) ListYear(ctx context.Context, year int, minMag, maxMag *float64, threshold int) ([]usgs.Summary, error) {
	args := m.Called(ctx, year, minMag, maxMag, threshold)
	return args.Get(0).([]usgs.Summary), args.Error(1)
}

type MockDetail struct {
	mock.Mock
}

func (m *MockDetail) Get(ctx context.Context, id string) (usgs.Event, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(usgs.Event), args.Error(1)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) IDs(year int) (map[string]struct{}, error) {
	args := m.Called(year)
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func (m *MockStore) WriteEvent(year int, ev usgs.Event) error {
	args := m.Called(year, ev)
	return args.Error(0)
}

func (m *MockStore) RebuildCSV(year int, suffix string) (int, error) {
	args := m.Called(year, suffix)
	return args.Int(0), args.Error(1)
}

func listing(ids ...string) []usgs.Summary {
	out := make([]usgs.Summary, 0, len(ids))
	for _, id := range ids {
		out = append(out, usgs.Summary{ID: id})
	}
	return out
}

func eventFor(id string) usgs.Event {
	return usgs.Event{ID: id, Time: time.Date(2021, 7, 4, 0, 0, 0, 0, time.UTC)}
}

func idSet(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func TestCompareReportsMissingInListingOrder(t *testing.T) {
	catalog := new(MockCatalog)
	store := new(MockStore)

	catalog.On("ListYear", mock.Anything, 2021, (*float64)(nil), (*float64)(nil), 20000).
		Return(listing("us001", "us002", "us003", "us004"), nil)
	store.On("IDs", 2021).Return(idSet("us002", "us004"), nil)

	tool := New(catalog, new(MockDetail), store, 20000, zap.NewNop())
	report, err := tool.Compare(context.Background(), 2021, nil, nil)
	require.NoError(t, err)

	require.Equal(t, 4, report.Listed)
	require.Equal(t, 2, report.Local)
	require.Equal(t, []string{"us001", "us003"}, report.MissingIDs)
	require.False(t, report.InSync())
}

func TestCompareInSync(t *testing.T) {
	catalog := new(MockCatalog)
	store := new(MockStore)

	catalog.On("ListYear", mock.Anything, 2021, (*float64)(nil), (*float64)(nil), 20000).
		Return(listing("us001", "us002"), nil)
	// Extra local files beyond the listing do not count as a gap.
	store.On("IDs", 2021).Return(idSet("us001", "us002", "us999"), nil)

	tool := New(catalog, new(MockDetail), store, 20000, zap.NewNop())
	report, err := tool.Compare(context.Background(), 2021, nil, nil)
	require.NoError(t, err)
	require.True(t, report.InSync())
	require.Empty(t, report.MissingIDs)
}

func TestFillPersistsMissingAndRebuildsRollup(t *testing.T) {
	detail := new(MockDetail)
	store := new(MockStore)

	detail.On("Get", mock.Anything, "us001").Return(eventFor("us001"), nil)
	detail.On("Get", mock.Anything, "us003").Return(eventFor("us003"), nil)
	store.On("WriteEvent", 2021, eventFor("us001")).Return(nil)
	store.On("WriteEvent", 2021, eventFor("us003")).Return(nil)
	store.On("RebuildCSV", 2021, "all").Return(5, nil)

	tool := New(new(MockCatalog), detail, store, 20000, zap.NewNop())
	result, err := tool.Fill(context.Background(), 2021, []string{"us001", "us003"}, "all")
	require.NoError(t, err)

	require.Equal(t, 2, result.Fetched)
	require.Zero(t, result.Failed)
	require.Equal(t, 5, result.CSVRows)
	store.AssertExpectations(t)
}

func TestFillToleratesFetchFailures(t *testing.T) {
	detail := new(MockDetail)
	store := new(MockStore)

	detail.On("Get", mock.Anything, "us001").Return(usgs.Event{}, errors.New("boom"))
	detail.On("Get", mock.Anything, "us002").Return(eventFor("us002"), nil)
	store.On("WriteEvent", 2021, eventFor("us002")).Return(nil)
	store.On("RebuildCSV", 2021, "all").Return(1, nil)

	tool := New(new(MockCatalog), detail, store, 20000, zap.NewNop())
	result, err := tool.Fill(context.Background(), 2021, []string{"us001", "us002"}, "all")
	require.NoError(t, err)

	require.Equal(t, 1, result.Fetched)
	require.Equal(t, 1, result.Failed)
	require.Equal(t, []string{"us001"}, result.FailedIDs)
}

func TestFillWithNothingMissingSkipsRollup(t *testing.T) {
	store := new(MockStore)

	tool := New(new(MockCatalog), new(MockDetail), store, 20000, zap.NewNop())
	result, err := tool.Fill(context.Background(), 2021, nil, "all")
	require.NoError(t, err)

	require.Zero(t, result.Fetched)
	store.AssertNotCalled(t, "RebuildCSV", mock.Anything, mock.Anything)
}
