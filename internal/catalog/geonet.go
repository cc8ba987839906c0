package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	geonetBase = "https://quakesearch.geonet.org.nz/csv"

	// quakesearch date format, second resolution UTC.
	geonetTimeFormat = "2006-01-02T15:04:05"
)

// GeoNet queries the GeoNet quake search service.  The service returns CSV
// and has no radius parameter so the search envelope is applied here after
// the time window query.  GeoNet depths are already positive down.
type GeoNet struct {
	URL    string       // endpoint override, defaults to the public service.
	Client *http.Client // defaults to http.DefaultClient.
}

func (g *GeoNet) Source() string {
	return "geonet"
}

func (g *GeoNet) Query(ctx context.Context, start, end time.Time, lat, lon, radiusKm float64) ([]Event, error) {
	base := g.URL
	if base == "" {
		base = geonetBase
	}
	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}

	v := url.Values{}
	v.Set("startdate", start.UTC().Format(geonetTimeFormat))
	v.Set("enddate", end.UTC().Format(geonetTimeFormat))

	req, err := http.NewRequestWithContext(ctx, "GET", base+"?"+v.Encode(), nil)
	if err != nil {
		return nil, err
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, UnreachableError{Source: g.Source(), Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, UnreachableError{Source: g.Source(), Err: fmt.Errorf("response code %d", res.StatusCode)}
	}

	events, err := parseQuakeCSV(res.Body)
	if err != nil {
		return nil, UnreachableError{Source: g.Source(), Err: err}
	}

	// apply the search radius, quakesearch can't.
	var out []Event
	for _, e := range events {
		if Distance(lat, lon, e.Latitude, e.Longitude) <= radiusKm {
			out = append(out, e)
		}
	}

	return out, nil
}

// parseQuakeCSV reads quakesearch CSV.  Columns are located from the header
// line so reordering upstream is harmless.
func parseQuakeCSV(r io.Reader) ([]Event, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	for _, h := range []string{"publicid", "origintime", "longitude", "latitude", "magnitude", "depth"} {
		if _, ok := col[h]; !ok {
			return nil, fmt.Errorf("quake CSV missing column %s", h)
		}
	}

	var events []Event

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		var e Event
		e.ID = rec[col["publicid"]]

		// origintime can carry sub-second precision, keep the first
		// 19 characters for the second resolution format.
		ts := rec[col["origintime"]]
		if len(ts) > 19 {
			ts = ts[0:19]
		}
		if e.Time, err = time.Parse(geonetTimeFormat, ts); err != nil {
			return nil, fmt.Errorf("parsing origintime for %s: %w", e.ID, err)
		}

		if e.Longitude, err = strconv.ParseFloat(rec[col["longitude"]], 64); err != nil {
			return nil, fmt.Errorf("parsing longitude for %s: %w", e.ID, err)
		}
		if e.Latitude, err = strconv.ParseFloat(rec[col["latitude"]], 64); err != nil {
			return nil, fmt.Errorf("parsing latitude for %s: %w", e.ID, err)
		}
		if e.Magnitude, err = strconv.ParseFloat(rec[col["magnitude"]], 64); err != nil {
			return nil, fmt.Errorf("parsing magnitude for %s: %w", e.ID, err)
		}
		if e.Depth, err = strconv.ParseFloat(rec[col["depth"]], 64); err != nil {
			return nil, fmt.Errorf("parsing depth for %s: %w", e.ID, err)
		}

		events = append(events, e)
	}

	return events, nil
}
