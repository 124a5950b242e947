package usgs

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
)

func TestGetParsesFeatureCollection(t *testing.T) {
	client := newTestClient(t, DefaultRetryPolicy())

	httpmock.RegisterResponder("GET", testBaseURL+"/query",
		httpmock.NewStringResponder(http.StatusOK, detailBody))

	ev, err := client.Get(context.Background(), "us7000abcd")
	require.NoError(t, err)
	require.Equal(t, "us7000abcd", ev.ID)
	require.NotNil(t, ev.Magnitude)
	require.InDelta(t, 6.3, *ev.Magnitude, 1e-9)
	require.Equal(t, "100km S of Somewhere", ev.Place)
	require.InDelta(t, 35.0, ev.Depth, 1e-9)
	require.InDelta(t, -8.2, ev.Latitude, 1e-9)
	require.InDelta(t, 120.5, ev.Longitude, 1e-9)
	require.JSONEq(t, detailBody, string(ev.Payload), "payload preserved verbatim")
}

func TestGetParsesBareFeature(t *testing.T) {
	client := newTestClient(t, DefaultRetryPolicy())

	body := `{
		"type": "Feature",
		"id": "iscgem610326299",
		"properties": {"mag": null, "place": "off coast", "time": 31536000000},
		"geometry": {"coordinates": [100.0, 5.0, 10.0]}
	}`
	httpmock.RegisterResponder("GET", testBaseURL+"/query",
		httpmock.NewStringResponder(http.StatusOK, body))

	ev, err := client.Get(context.Background(), "iscgem610326299")
	require.NoError(t, err)
	require.Equal(t, "iscgem610326299", ev.ID)
	require.Nil(t, ev.Magnitude, "null magnitude stays nil")
}

func TestGetFallsBackToRequestedID(t *testing.T) {
	client := newTestClient(t, DefaultRetryPolicy())

	// Historical records sometimes omit the feature-level id.
	body := `{
		"type": "Feature",
		"properties": {"mag": 7.1, "place": "somewhere old", "time": 0},
		"geometry": {"coordinates": [1.0, 2.0, 3.0]}
	}`
	httpmock.RegisterResponder("GET", testBaseURL+"/query",
		httpmock.NewStringResponder(http.StatusOK, body))

	ev, err := client.Get(context.Background(), "iscgem811607")
	require.NoError(t, err)
	require.Equal(t, "iscgem811607", ev.ID)
}

func TestGetNotFound(t *testing.T) {
	client := newTestClient(t, DefaultRetryPolicy())

	httpmock.RegisterResponder("GET", testBaseURL+"/query",
		httpmock.NewStringResponder(http.StatusOK, `{"type":"FeatureCollection","features":[]}`))

	_, err := client.Get(context.Background(), "nosuchevent")
	require.ErrorIs(t, err, ErrNotFound)
}
