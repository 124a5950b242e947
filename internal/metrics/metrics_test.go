package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	require.NotPanics(t, Init)

	// Observations after Init must not panic either.
	require.NotPanics(t, func() {
		ObserveEvent("fetched")
		ObserveEvent("skipped")
		ObserveProviderRequest("query", "ok", 120*time.Millisecond)
		ObserveRetryWait("network", 2*time.Second)
		ObserveHTTPRequest("GET", "/api/years", 200, 5*time.Millisecond)
	})
}

func TestHandlerServesMetrics(t *testing.T) {
	Init()
	ObserveEvent("fetched")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), "quakewatch_events_total")
}
