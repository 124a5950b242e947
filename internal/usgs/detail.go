package usgs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Get fetches the full detail record for one event id. The returned Event
// carries the provider's GeoJSON document verbatim in Payload.
//
// The detail endpoint answers with either a FeatureCollection holding one
// feature or a bare Feature depending on catalog vintage; both are handled.
func (c *Client) Get(ctx context.Context, id string) (Event, error) {
	params := url.Values{}
	params.Set("eventid", id)
	params.Set("format", "geojson")

	body, err := c.get(ctx, "query", params)
	if err != nil {
		return Event{}, fmt.Errorf("get event %s: %w", id, err)
	}

	ev, err := ParseDetail(body)
	if err != nil {
		return Event{}, fmt.Errorf("event %s: %w", id, err)
	}
	if ev.ID == "" {
		// Some historical records omit the feature-level id; fall back to
		// the id we asked for so the filename key stays stable.
		ev.ID = id
	}
	return ev, nil
}

// ParseDetail decodes a stored or freshly fetched GeoJSON detail document
// into its flattened Event. Used by the CSV rebuilder, which re-reads
// persisted payloads with no network access.
func ParseDetail(body []byte) (Event, error) {
	f, err := decodeDetail(body)
	if err != nil {
		return Event{}, err
	}
	return f.event(body)
}

func decodeDetail(body []byte) (feature, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return feature{}, fmt.Errorf("decode detail response: %w", err)
	}

	switch probe.Type {
	case "FeatureCollection":
		var fc featureCollection
		if err := json.Unmarshal(body, &fc); err != nil {
			return feature{}, fmt.Errorf("decode feature collection: %w", err)
		}
		if len(fc.Features) == 0 {
			return feature{}, ErrNotFound
		}
		return fc.Features[0], nil
	case "Feature":
		var f feature
		if err := json.Unmarshal(body, &f); err != nil {
			return feature{}, fmt.Errorf("decode feature: %w", err)
		}
		return f, nil
	default:
		return feature{}, ErrNotFound
	}
}
