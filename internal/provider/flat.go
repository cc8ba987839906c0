package provider

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/GeoNet/strongmotion/internal/catalog"
	"github.com/GeoNet/strongmotion/internal/waveform"
)

func init() {
	Register("flat", &Flat{})
}

/*
Flat reads the plain text single-channel exchange format used for
pre-retrieved data, one trace per file:

	network NZ
	station WEL
	location 20
	channel HNZ
	latitude -41.284
	longitude 174.768
	units acc
	samplerate 200
	starttime 2016-11-13T11:02:56Z
	data
	0.00125
	-0.00287
	...

Header keys before the data line are one per line, unknown keys are
ignored.  Per network binary formats (V1A, K-NET, miniSEED) are handled by
external collaborators that emit this format.
*/
type Flat struct{}

// Fetch lists the flat files already present in rawDir.  The flat provider
// never talks to the network, retrieval is the collaborator's job.
func (f *Flat) Fetch(ctx context.Context, ev catalog.Event, rawDir string) ([]string, error) {
	return filepath.Glob(filepath.Join(rawDir, "*.flat"))
}

func (f *Flat) Parse(path string) ([]waveform.Trace, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	t := waveform.Trace{
		Metadata: waveform.Metadata{
			Latitude:    math.NaN(),
			Longitude:   math.NaN(),
			Elevation:   math.NaN(),
			Calibration: 1.0,
		},
	}

	s := bufio.NewScanner(file)
	line := 0
	data := false

	for s.Scan() {
		line++
		l := strings.TrimSpace(s.Text())
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}

		if data {
			v, err := strconv.ParseFloat(l, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: bad sample %q: %w", path, line, l, err)
			}
			t.Samples = append(t.Samples, v)
			continue
		}

		if l == "data" {
			data = true
			continue
		}

		key, val, ok := strings.Cut(l, " ")
		if !ok {
			return nil, fmt.Errorf("%s:%d: bad header line %q", path, line, l)
		}
		val = strings.TrimSpace(val)

		switch key {
		case "network":
			t.Metadata.Network = val
		case "station":
			t.Metadata.Station = val
		case "location":
			t.Metadata.Location = val
		case "channel":
			t.Metadata.Channel = val
		case "instrument":
			t.Metadata.Instrument = val
		case "source":
			t.Metadata.Source = val
		case "units":
			t.Units = val
		case "latitude":
			if t.Metadata.Latitude, err = strconv.ParseFloat(val, 64); err != nil {
				return nil, fmt.Errorf("%s:%d: bad latitude: %w", path, line, err)
			}
		case "longitude":
			if t.Metadata.Longitude, err = strconv.ParseFloat(val, 64); err != nil {
				return nil, fmt.Errorf("%s:%d: bad longitude: %w", path, line, err)
			}
		case "elevation":
			if t.Metadata.Elevation, err = strconv.ParseFloat(val, 64); err != nil {
				return nil, fmt.Errorf("%s:%d: bad elevation: %w", path, line, err)
			}
		case "calibration":
			if t.Metadata.Calibration, err = strconv.ParseFloat(val, 64); err != nil {
				return nil, fmt.Errorf("%s:%d: bad calibration: %w", path, line, err)
			}
		case "samplerate":
			if t.SampleRate, err = strconv.ParseFloat(val, 64); err != nil {
				return nil, fmt.Errorf("%s:%d: bad samplerate: %w", path, line, err)
			}
		case "starttime":
			if t.Start, err = time.Parse(time.RFC3339, val); err != nil {
				return nil, fmt.Errorf("%s:%d: bad starttime: %w", path, line, err)
			}
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}

	if !data {
		return nil, fmt.Errorf("%s: no data section", path)
	}
	if t.SampleRate <= 0 {
		return nil, fmt.Errorf("%s: missing or invalid samplerate", path)
	}
	if t.Units != waveform.UnitAcc && t.Units != waveform.UnitVel {
		return nil, fmt.Errorf("%s: units %q: %w", path, t.Units, waveform.ErrUnsupportedUnits)
	}

	// apply the calibration factor so samples are physical units.
	if t.Metadata.Calibration != 1.0 && t.Metadata.Calibration != 0 {
		for i := range t.Samples {
			t.Samples[i] *= t.Metadata.Calibration
		}
	}

	return []waveform.Trace{t}, nil
}
