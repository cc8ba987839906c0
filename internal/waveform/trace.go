// Package waveform holds single channel strong-motion time series and the
// signal corrections applied to them before peak amplitudes are measured.
package waveform

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Units of the samples in a Trace.
const (
	UnitAcc = "acc" // acceleration, m/s/s
	UnitVel = "vel" // velocity, m/s
)

// ErrUnsupportedUnits is returned for traces that are neither acceleration
// nor velocity.  These are caller errors and are rejected eagerly.
var ErrUnsupportedUnits = errors.New("unsupported trace units")

// Metadata is the station information carried with a Trace.  Latitude,
// Longitude, and Elevation are NaN when the source file carries no site
// coordinates and they must be resolved from an inventory.
type Metadata struct {
	Network     string
	Station     string
	Location    string
	Channel     string
	Latitude    float64
	Longitude   float64
	Elevation   float64
	Instrument  string
	Source      string // descriptive network name e.g., "New Zealand National Seismograph Network"
	Calibration float64
}

// ChannelID returns the dotted channel identifier e.g., NZ.WEL.20.HNZ
func (m Metadata) ChannelID() string {
	return fmt.Sprintf("%s.%s.%s.%s", m.Network, m.Station, m.Location, m.Channel)
}

// Code returns the station code used to group records e.g., NZ.WEL
func (m Metadata) Code() string {
	return fmt.Sprintf("%s.%s", m.Network, m.Station)
}

// Sited returns true if m carries usable site coordinates.
func (m Metadata) Sited() bool {
	return !math.IsNaN(m.Latitude) && !math.IsNaN(m.Longitude)
}

// Trace is a single channel time series.  Traces are value types: the
// correction functions return new traces and never modify the samples of
// their receiver, the uncorrected input stays available for diagnostics.
type Trace struct {
	Samples    []float64
	SampleRate float64 // samples per second
	Start      time.Time
	Units      string // UnitAcc or UnitVel
	Metadata   Metadata
}

// clone returns a copy of t with its own sample slice.
func (t Trace) clone() Trace {
	s := make([]float64, len(t.Samples))
	copy(s, t.Samples)
	t.Samples = s
	return t
}

// MaxAbs returns the largest absolute sample value in t.
func (t Trace) MaxAbs() float64 {
	var max float64
	for _, v := range t.Samples {
		if a := math.Abs(v); a > max {
			max = a
		}
	}
	return max
}
