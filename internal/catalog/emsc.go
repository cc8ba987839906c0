package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	emscBase = "https://www.seismicportal.eu/fdsnws/event/1/query"

	// km per degree of arc, for converting the search radius to the
	// degrees the FDSN event service expects.
	kmPerDegree = 111.1191
)

// EMSC queries the EMSC seismic portal FDSN event service for European
// events.  EMSC reports depths negative down, they are negated to the
// positive down convention here.  IDs sourced from the EMSC catalog itself
// are prefixed "emsc" to qualify them.
type EMSC struct {
	URL    string
	Client *http.Client
	Limit  int // maximum candidates per query, defaults to 10.
}

// emscFeatures is the subset of the service's GeoJSON that is used.
type emscFeatures struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // lon, lat, depth
		} `json:"geometry"`
		Properties struct {
			Time          string  `json:"time"`
			Magnitude     float64 `json:"mag"`
			SourceID      string  `json:"source_id"`
			SourceCatalog string  `json:"source_catalog"`
		} `json:"properties"`
	} `json:"features"`
}

func (e *EMSC) Source() string {
	return "emsc"
}

func (e *EMSC) Query(ctx context.Context, start, end time.Time, lat, lon, radiusKm float64) ([]Event, error) {
	base := e.URL
	if base == "" {
		base = emscBase
	}
	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	limit := e.Limit
	if limit == 0 {
		limit = 10
	}

	v := url.Values{}
	v.Set("format", "json")
	v.Set("limit", strconv.Itoa(limit))
	v.Set("start", start.UTC().Format(geonetTimeFormat))
	v.Set("end", end.UTC().Format(geonetTimeFormat))
	v.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	v.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	v.Set("maxradius", strconv.FormatFloat(radiusKm/kmPerDegree, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, "GET", base+"?"+v.Encode(), nil)
	if err != nil {
		return nil, err
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, UnreachableError{Source: e.Source(), Err: err}
	}
	defer res.Body.Close()

	// the service sends 204 for an empty result set.
	if res.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if res.StatusCode != http.StatusOK {
		return nil, UnreachableError{Source: e.Source(), Err: fmt.Errorf("response code %d", res.StatusCode)}
	}

	var f emscFeatures
	if err := json.NewDecoder(res.Body).Decode(&f); err != nil {
		return nil, UnreachableError{Source: e.Source(), Err: err}
	}

	var events []Event

	for _, feat := range f.Features {
		if len(feat.Geometry.Coordinates) < 3 {
			return nil, UnreachableError{Source: e.Source(),
				Err: fmt.Errorf("expected 3 coordinates, got %d", len(feat.Geometry.Coordinates))}
		}

		var ev Event
		ev.Longitude = feat.Geometry.Coordinates[0]
		ev.Latitude = feat.Geometry.Coordinates[1]
		ev.Depth = -feat.Geometry.Coordinates[2] // negative down upstream
		ev.Magnitude = feat.Properties.Magnitude

		ev.ID = feat.Properties.SourceID
		if strings.Contains(strings.ToLower(feat.Properties.SourceCatalog), "emsc") {
			ev.ID = "emsc" + ev.ID
		}

		ts := feat.Properties.Time
		if len(ts) > 19 {
			ts = ts[0:19]
		}
		if ev.Time, err = time.Parse(geonetTimeFormat, ts); err != nil {
			return nil, UnreachableError{Source: e.Source(),
				Err: fmt.Errorf("parsing time for %s: %w", ev.ID, err)}
		}

		events = append(events, ev)
	}

	return events, nil
}
