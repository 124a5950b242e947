package dataset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func TestEventKeyFilename(t *testing.T) {
	tests := []struct {
		name string
		key  EventKey
		want string
	}{
		{"typical", EventKey{ID: "us70006vkq", Magnitude: fptr(6.3)}, "event_6.3_us70006vkq.json"},
		{"unknown magnitude", EventKey{ID: "ak0219neiszm"}, "event_na_ak0219neiszm.json"},
		{"negative magnitude", EventKey{ID: "nc73654060", Magnitude: fptr(-0.5)}, "event_-0.5_nc73654060.json"},
		{"id with underscores", EventKey{ID: "official_1900_abc", Magnitude: fptr(8.0)}, "event_8.0_official_1900_abc.json"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.key.Filename())
		})
	}
}

func TestParseFilenameRoundTrip(t *testing.T) {
	keys := []EventKey{
		{ID: "us70006vkq", Magnitude: fptr(6.3)},
		{ID: "ak0219neiszm"},
		{ID: "official_1900_abc", Magnitude: fptr(8.0)},
		{ID: "nc73654060", Magnitude: fptr(-0.5)},
	}
	for _, key := range keys {
		got, ok := ParseFilename(key.Filename())
		require.True(t, ok, "filename %s must parse", key.Filename())
		require.Equal(t, key.ID, got.ID, "id always recovered regardless of magnitude")
		if key.Magnitude == nil {
			require.Nil(t, got.Magnitude)
		} else {
			require.NotNil(t, got.Magnitude)
			require.InDelta(t, *key.Magnitude, *got.Magnitude, 1e-9)
		}
	}
}

func TestParseFilenameRejectsForeignFiles(t *testing.T) {
	for _, name := range []string{
		"earthquakes_2023_all.csv",
		"event_6.3.json",
		"notes.txt",
		"event_.json",
		"event_na_.json",
	} {
		_, ok := ParseFilename(name)
		require.False(t, ok, "%s must not parse as an event file", name)
	}
}

func TestParseFilenameLegacyMagnitudeToken(t *testing.T) {
	// Files written by older tooling used "unknown" instead of "na".
	key, ok := ParseFilename("event_unknown_iscgem812345.json")
	require.True(t, ok)
	require.Equal(t, "iscgem812345", key.ID)
	require.Nil(t, key.Magnitude)
}
