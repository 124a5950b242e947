// Package api exposes a small read-only HTTP interface over the local
// earthquake dataset.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/quakewatch-crawler/internal/dataset"
	"github.com/JakeFAU/quakewatch-crawler/internal/metrics"
	"github.com/JakeFAU/quakewatch-crawler/internal/usgs"
)

// Dataset is the read surface the server needs from the dataset layer.
type Dataset interface {
	Years() ([]int, error)
	Keys(year int) ([]dataset.EventKey, error)
	Events(year int) ([]usgs.Event, error)
	CSVPath(year int) (string, bool)
	CSVRowCount(year int) (int, error)
	YearModTime(year int) (time.Time, bool)
}

// eventCacheKey folds the year directory's modification time and event file
// count into the cache key, so a backfill or repair run by another process
// is picked up on the next request without any cross-process invalidation.
// The count guards against filesystems whose mtime granularity is coarser
// than two consecutive writes.
type eventCacheKey struct {
	year  int
	mod   int64
	files int
}

// Server serves the dataset over HTTP. Rendered year listings are cached in
// a small LRU; writes go through the crawler, not this server.
type Server struct {
	router chi.Router
	data   Dataset
	cache  *lru.Cache[eventCacheKey, []eventResponse]
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes. cacheSize bounds
// the number of year datasets held in memory.
func NewServer(data Dataset, cacheSize int, logger *zap.Logger) (*Server, error) {
	if cacheSize <= 0 {
		cacheSize = 16
	}
	cache, err := lru.New[eventCacheKey, []eventResponse](cacheSize)
	if err != nil {
		return nil, err
	}
	metrics.Init()

	s := &Server{data: data, cache: cache, logger: logger}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(30 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/years", s.getYears)
		r.Get("/events/{year}", s.getEvents)
		r.Get("/stats", s.getStats)
	})

	s.router = r
	return s, nil
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

type yearResponse struct {
	Year    int  `json:"year"`
	Events  int  `json:"events"`
	CSVRows int  `json:"csv_rows"`
	HasCSV  bool `json:"has_csv"`
}

type eventResponse struct {
	ID        string   `json:"id"`
	Time      string   `json:"time"`
	Place     string   `json:"place"`
	Magnitude *float64 `json:"magnitude"`
	Depth     float64  `json:"depth"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
}

type yearStats struct {
	Year     int      `json:"year"`
	Count    int      `json:"count"`
	AvgMag   *float64 `json:"avg_mag"`
	MaxMag   *float64 `json:"max_mag"`
	AvgDepth *float64 `json:"avg_depth"`
}

type statsResponse struct {
	Years        []yearStats `json:"years"`
	TotalEvents  int         `json:"total_events"`
	FirstYear    int         `json:"first_year,omitempty"`
	LastYear     int         `json:"last_year,omitempty"`
	MinMagnitude *float64    `json:"min_magnitude"`
	MaxMagnitude *float64    `json:"max_magnitude"`
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getYears(w http.ResponseWriter, _ *http.Request) {
	years, err := s.data.Years()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to scan dataset")
		return
	}
	out := make([]yearResponse, 0, len(years))
	for _, year := range years {
		keys, err := s.data.Keys(year)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "failed to scan dataset")
			return
		}
		rows, err := s.data.CSVRowCount(year)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "failed to read rollup")
			return
		}
		_, hasCSV := s.data.CSVPath(year)
		out = append(out, yearResponse{Year: year, Events: len(keys), CSVRows: rows, HasCSV: hasCSV})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"years": out})
}

func (s *Server) getEvents(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "year must be an integer")
		return
	}

	mod, haveDir := s.data.YearModTime(year)
	var key eventCacheKey
	if haveDir {
		keys, err := s.data.Keys(year)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "failed to scan dataset")
			return
		}
		key = eventCacheKey{year: year, mod: mod.UnixNano(), files: len(keys)}
		if cached, ok := s.cache.Get(key); ok {
			s.writeJSON(w, http.StatusOK, map[string]any{"year": year, "count": len(cached), "events": cached})
			return
		}
	}

	events, err := s.data.Events(year)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to read dataset")
		return
	}

	// A year with nothing on disk is an empty listing, not an error.
	out := make([]eventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, eventResponse{
			ID:        ev.ID,
			Time:      ev.Time.UTC().Format(time.RFC3339),
			Place:     ev.Place,
			Magnitude: ev.Magnitude,
			Depth:     ev.Depth,
			Latitude:  ev.Latitude,
			Longitude: ev.Longitude,
		})
	}
	if haveDir {
		s.cache.Add(key, out)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"year": year, "count": len(out), "events": out})
}

func (s *Server) getStats(w http.ResponseWriter, _ *http.Request) {
	years, err := s.data.Years()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to scan dataset")
		return
	}

	stats := statsResponse{Years: make([]yearStats, 0, len(years))}
	if len(years) > 0 {
		stats.FirstYear = years[0]
		stats.LastYear = years[len(years)-1]
	}
	for _, year := range years {
		events, err := s.data.Events(year)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "failed to read dataset")
			return
		}
		ys := summarizeYear(year, events)
		stats.Years = append(stats.Years, ys)
		stats.TotalEvents += ys.Count

		for _, ev := range events {
			if ev.Magnitude == nil {
				continue
			}
			m := *ev.Magnitude
			if stats.MinMagnitude == nil || m < *stats.MinMagnitude {
				v := m
				stats.MinMagnitude = &v
			}
			if stats.MaxMagnitude == nil || m > *stats.MaxMagnitude {
				v := m
				stats.MaxMagnitude = &v
			}
		}
	}
	s.writeJSON(w, http.StatusOK, stats)
}

// summarizeYear computes one year's statistics block. Magnitude averages
// only cover events whose magnitude is known.
func summarizeYear(year int, events []usgs.Event) yearStats {
	ys := yearStats{Year: year, Count: len(events)}
	if len(events) == 0 {
		return ys
	}

	var magSum, depthSum float64
	magCount := 0
	for _, ev := range events {
		depthSum += ev.Depth
		if ev.Magnitude == nil {
			continue
		}
		magSum += *ev.Magnitude
		magCount++
		if ys.MaxMag == nil || *ev.Magnitude > *ys.MaxMag {
			v := *ev.Magnitude
			ys.MaxMag = &v
		}
	}
	if magCount > 0 {
		avg := magSum / float64(magCount)
		ys.AvgMag = &avg
	}
	avgDepth := depthSum / float64(len(events))
	ys.AvgDepth = &avgDepth
	return ys
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
