// Package catalog matches hypocenter reports against remote earthquake
// catalogs.  A report from an alerting feed rarely carries the catalog's
// identifier for the event, so candidates are fetched for a time window and
// search radius around the report and the closest candidate in joint
// normalized time-distance space is selected.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/GeoNet/kit/wgs84"
)

// ErrNotFound is returned by Match when the catalog has no candidate for
// the report.  It is terminal for the report, retrying will not help
// without changing the search parameters.
var ErrNotFound = errors.New("event not found in catalog")

// UnreachableError wraps a transport failure talking to a catalog.  It is
// transient and distinct from ErrNotFound, callers may retry.
type UnreachableError struct {
	Source string
	Err    error
}

func (e UnreachableError) Error() string {
	return fmt.Sprintf("catalog %s unreachable: %s", e.Source, e.Err)
}

func (e UnreachableError) Unwrap() error {
	return e.Err
}

// Report is a hypocenter report from an external feed.  Depth is km
// positive down.
type Report struct {
	Time      time.Time
	Latitude  float64
	Longitude float64
	Depth     float64
	Magnitude float64
}

// Event is one cataloged earthquake.  ID is provider qualified.  Depth is
// km positive down, clients normalize catalogs with other sign conventions
// before returning events.
type Event struct {
	ID        string
	Time      time.Time
	Latitude  float64
	Longitude float64
	Depth     float64
	Magnitude float64
}

// Client queries a remote event catalog.  Query returns all events with an
// origin time in [start, end] within radiusKm of lat/lon.  An empty slice
// means the catalog holds no matching event.  Transport failures are
// returned as UnreachableError.
type Client interface {
	Query(ctx context.Context, start, end time.Time, lat, lon, radiusKm float64) ([]Event, error)
	Source() string
}

/*
Match resolves report to a cataloged event using c.  Candidates are fetched
for report.Time +/- window within radiusKm.  A single candidate is accepted
unconditionally.  With several candidates the one minimizing

	sqrt(ndt^2 + ndd^2)

wins, where ndt and ndd are the time difference and ellipsoidal surface
distance to the report, each normalized by the maximum over all candidates.
Ties go to the candidate earliest in catalog list order.
*/
func Match(ctx context.Context, c Client, report Report, window time.Duration, radiusKm float64) (Event, error) {
	events, err := c.Query(ctx, report.Time.Add(-window), report.Time.Add(window),
		report.Latitude, report.Longitude, radiusKm)
	if err != nil {
		return Event{}, err
	}

	switch len(events) {
	case 0:
		return Event{}, ErrNotFound
	case 1:
		return events[0], nil
	}

	dt := make([]float64, len(events))
	dd := make([]float64, len(events))
	var maxDt, maxDd float64

	for i, e := range events {
		dt[i] = math.Abs(e.Time.Sub(report.Time).Seconds())
		dd[i] = Distance(report.Latitude, report.Longitude, e.Latitude, e.Longitude)

		if dt[i] > maxDt {
			maxDt = dt[i]
		}
		if dd[i] > maxDd {
			maxDd = dd[i]
		}
	}

	best := 0
	bestScore := math.MaxFloat64

	for i := range events {
		// all candidates identical in one dimension carry no
		// information, the normalized value is zero.
		var ndt, ndd float64
		if maxDt > 0 {
			ndt = dt[i] / maxDt
		}
		if maxDd > 0 {
			ndd = dd[i] / maxDd
		}

		if score := math.Sqrt(ndt*ndt + ndd*ndd); score < bestScore {
			best = i
			bestScore = score
		}
	}

	return events[best], nil
}

// Distance returns the surface distance in km between two points on the
// WGS84 ellipsoid.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	d, _, err := wgs84.DistanceBearing(lat1, lon1, lat2, lon2)
	if err != nil {
		// only possible at the poles.
		return 0.0
	}
	return d
}
