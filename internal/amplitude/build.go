package amplitude

import (
	"sync"
	"time"

	"github.com/GeoNet/strongmotion/internal/catalog"
	"github.com/GeoNet/strongmotion/internal/spectral"
	"github.com/GeoNet/strongmotion/internal/waveform"
)

// DefaultPeriods are the spectral periods reduced when none are configured.
var DefaultPeriods = []float64{0.3, 1.0, 3.0}

// Inventory resolves station information that raw files do not carry.  It
// is optional, traces with full metadata never consult it.
type Inventory interface {
	Coordinates(channelID string) (lat, lon, elevation float64, err error)
	StationName(channelID string) (string, error)
	Instrument(channelID string) (string, error)
	NetworkName(code string) (string, error)
}

// Options control table assembly.
type Options struct {
	Periods   []float64 // spectral periods, DefaultPeriods when nil.
	Inventory Inventory // optional metadata resolver.
	Workers   int       // concurrent trace reductions, serial when < 2.
}

/*
Build reduces traces to a Table for the event described by origin.  Each
trace yields one record: site metadata is resolved, the distance to the
origin computed, and the waveform reduced to pga/pgv and spectral peaks
for acceleration, or pgv alone for velocity.

Records keep the order of the input traces.  Traces are independent so
reduction runs across Options.Workers goroutines, the table order stays
deterministic regardless.

A failed trace is isolated: its error is collected and returned with the
partial table, the remaining traces still reduce.
*/
func Build(origin Origin, traces []waveform.Trace, opts Options) (Table, []TraceError) {
	t := Table{
		Origin:  origin,
		Created: time.Now().Unix(),
	}

	periods := opts.Periods
	if periods == nil {
		periods = DefaultPeriods
	}

	recs := make([]*Record, len(traces))
	errs := make([]*TraceError, len(traces))

	workers := opts.Workers
	if workers > len(traces) {
		workers = len(traces)
	}
	if workers < 1 {
		workers = 1
	}

	idx := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range idx {
				r, err := reduce(origin, traces[i], periods, opts.Inventory)
				if err != nil {
					errs[i] = &TraceError{ChannelID: traces[i].Metadata.ChannelID(), Err: err}
					continue
				}
				recs[i] = &r
			}
		}()
	}

	for i := range traces {
		idx <- i
	}
	close(idx)
	wg.Wait()

	var failed []TraceError
	for i := range traces {
		if errs[i] != nil {
			failed = append(failed, *errs[i])
			continue
		}
		t.Records = append(t.Records, *recs[i])
	}

	return t, failed
}

// reduce turns one trace into one record.
func reduce(origin Origin, tr waveform.Trace, periods []float64, inv Inventory) (Record, error) {
	m, name, err := resolveMetadata(tr.Metadata, inv)
	if err != nil {
		return Record{}, err
	}

	r := Record{
		NetID:     m.Network,
		Code:      m.Code(),
		Name:      name,
		Loc:       m.Location,
		Channel:   m.Channel,
		Latitude:  m.Latitude,
		Longitude: m.Longitude,
		Distance:  catalog.Distance(origin.Latitude, origin.Longitude, m.Latitude, m.Longitude),
		Source:    m.Source,
		InstType:  m.Instrument,
		CommType:  "DIG",
		Measures:  make(map[string]float64),
	}

	switch tr.Units {
	case waveform.UnitAcc:
		c, err := waveform.ReduceAcceleration(tr)
		if err != nil {
			return Record{}, err
		}

		peaks, err := spectral.Peaks(c.Trace, periods)
		if err != nil {
			return Record{}, err
		}

		r.Measures["pga"] = c.PGA
		r.Measures["pgv"] = c.PGV
		for p, v := range peaks {
			r.Measures[spectral.PeriodLabel(p)] = v
		}
	case waveform.UnitVel:
		// broadband data carries no acceleration derived measures,
		// pga and the spectral peaks stay unavailable.
		pgv, err := waveform.ReduceVelocity(tr)
		if err != nil {
			return Record{}, err
		}
		r.Measures["pgv"] = pgv
	default:
		return Record{}, waveform.ErrUnsupportedUnits
	}

	return r, nil
}

// resolveMetadata fills gaps in m from inv and resolves the descriptive
// station name.  Unresolvable site coordinates are a hard failure for the
// record.
func resolveMetadata(m waveform.Metadata, inv Inventory) (waveform.Metadata, string, error) {
	name := m.Station

	if inv != nil {
		id := m.ChannelID()

		if !m.Sited() {
			lat, lon, elev, err := inv.Coordinates(id)
			if err != nil {
				return m, name, ErrMissingMetadata
			}
			m.Latitude, m.Longitude, m.Elevation = lat, lon, elev
		}

		if n, err := inv.StationName(id); err == nil && n != "" {
			name = n
		}
		if inst, err := inv.Instrument(id); err == nil && inst != "" {
			m.Instrument = inst
		}
		if net, err := inv.NetworkName(m.Network); err == nil && net != "" {
			m.Source = net
		}
	}

	if !m.Sited() {
		return m, name, ErrMissingMetadata
	}

	if m.Instrument == "" {
		m.Instrument = "UNK"
	}

	return m, name, nil
}
