// Package spectral computes damped single degree of freedom oscillator
// response peaks (pseudo-spectral acceleration) from corrected acceleration
// traces.
package spectral

import (
	"math"
	"strconv"
	"strings"

	"github.com/GeoNet/strongmotion/internal/waveform"
)

const (
	damping       = 0.05 // 5% of critical
	taperFraction = 0.05

	// 1 %g in m/s/s, the same conversion applied to PGA.
	percentG = 0.0981
)

/*
Peaks computes 5% damped pseudo-spectral acceleration at each of the natural
periods (seconds) for a corrected acceleration trace.  A 5% cosine taper is
applied before simulation.  Per period the oscillator response is evaluated
with the exact piecewise linear (Nigam-Jennings) recursion and scaled by
omega squared, equivalent to simulating poles of the damped pendulum with a
sensitivity of (2 pi f)^2 and no zeros.  Peaks are returned in %g keyed by
period.

The trace is expected to have been corrected with
waveform.ReduceAcceleration first.
*/
func Peaks(t waveform.Trace, periods []float64) (map[float64]float64, error) {
	if t.Units != waveform.UnitAcc {
		return nil, waveform.ErrUnsupportedUnits
	}

	d := waveform.Taper(t, taperFraction)

	peaks := make(map[float64]float64, len(periods))
	for _, p := range periods {
		peaks[p] = responsePeak(d.Samples, d.SampleRate, p) / percentG
	}

	return peaks, nil
}

// PeriodLabel turns a spectral period into the stable external measure name,
// the period with its decimal point removed e.g., 0.3 -> psa03, 1.0 -> psa10,
// 3.0 -> psa30.
func PeriodLabel(period float64) string {
	s := strconv.FormatFloat(period, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return "psa" + strings.ReplaceAll(s, ".", "")
}

// responsePeak runs the exact recursive solution for a linearly interpolated
// forcing function (Nigam and Jennings, 1969) and returns the largest
// magnitude excursion, positive or negative, of the pseudo-acceleration
// response.
func responsePeak(a []float64, sampleRate, period float64) float64 {
	if len(a) < 2 || sampleRate <= 0 || period <= 0 {
		return 0
	}

	dt := 1.0 / sampleRate
	w := 2.0 * math.Pi / period
	z := damping
	sq := math.Sqrt(1.0 - z*z)
	wd := w * sq

	e := math.Exp(-z * w * dt)
	s := math.Sin(wd * dt)
	c := math.Cos(wd * dt)

	w2 := w * w
	w3 := w2 * w

	a11 := e * (z/sq*s + c)
	a12 := e * s / wd
	a21 := -e * w2 / wd * s
	a22 := e * (c - z/sq*s)

	t1 := (2.0*z*z - 1.0) / (w2 * dt)
	t2 := 2.0 * z / (w3 * dt)

	b11 := e*((t1+z/w)*s/wd+(t2+1.0/w2)*c) - t2
	b12 := -e*(t1*s/wd+t2*c) - 1.0/w2 + t2
	b21 := e*((t1+z/w)*(c-z/sq*s)-(t2+1.0/w2)*(wd*s+z*w*c)) + 1.0/(w2*dt)
	b22 := -e*(t1*(c-z/sq*s)-t2*(wd*s+z*w*c)) - 1.0/(w2*dt)

	var u, v float64 // relative displacement and velocity
	var rMax, rMin float64

	for i := 1; i < len(a); i++ {
		u, v = a11*u+a12*v+b11*a[i-1]+b12*a[i],
			a21*u+a22*v+b21*a[i-1]+b22*a[i]

		r := w2 * u
		if r > rMax {
			rMax = r
		}
		if r < rMin {
			rMin = r
		}
	}

	return largerExcursion(rMax, rMin)
}

// largerExcursion returns the absolute value of whichever excursion is
// larger in magnitude.
func largerExcursion(max, min float64) float64 {
	if math.Abs(max) >= math.Abs(min) {
		return math.Abs(max)
	}
	return math.Abs(min)
}
