package waveform

import (
	"math"
)

const (
	filterFreq    = 0.02 // high-pass corner, Hz
	filterCorners = 4
	taperFraction = 0.05

	// 1 %g in m/s/s.  Peak accelerations are reported in %g.
	percentG = 0.0981
)

// Corrected is the result of reducing an acceleration trace.
type Corrected struct {
	PGA   float64 // peak ground acceleration, %g
	PGV   float64 // peak ground velocity, m/s
	Trace Trace   // the corrected acceleration trace, for spectral processing
}

/*
ReduceAcceleration applies the standard correction chain to an acceleration
trace and measures its peaks:

	linear detrend -> demean -> 5% cosine taper ->
	zero-phase 4 pole 0.02 Hz high-pass -> linear detrend -> demean

PGA is the maximum absolute value of the corrected series converted to %g.
PGV is measured on a velocity series integrated from the uncorrected input,
independent of the tapered and filtered series used for PGA.
*/
func ReduceAcceleration(t Trace) (Corrected, error) {
	if t.Units != UnitAcc {
		return Corrected{}, ErrUnsupportedUnits
	}

	c := Demean(DetrendLinear(t))
	c = Taper(c, taperFraction)
	c = HighPass(c, filterFreq, filterCorners)
	c = Demean(DetrendLinear(c))

	v := Integrate(t)

	return Corrected{
		PGA:   c.MaxAbs() / percentG,
		PGV:   v.MaxAbs(),
		Trace: c,
	}, nil
}

// ReduceVelocity measures PGV on a trace that is already velocity.  The
// broadband series is not integrated and no correction is applied.
func ReduceVelocity(t Trace) (float64, error) {
	if t.Units != UnitVel {
		return 0, ErrUnsupportedUnits
	}

	return t.MaxAbs(), nil
}

// DetrendLinear returns a copy of t with the least squares straight line
// removed from its samples.
func DetrendLinear(t Trace) Trace {
	o := t.clone()
	n := len(o.Samples)
	if n < 2 {
		return o
	}

	// least squares fit of y = a + b*i
	var sy, sxy float64
	for i, v := range o.Samples {
		sy += v
		sxy += float64(i) * v
	}
	fn := float64(n)
	sx := fn * (fn - 1) / 2.0
	sxx := fn * (fn - 1) * (2*fn - 1) / 6.0

	d := fn*sxx - sx*sx
	if d == 0 {
		return o
	}
	b := (fn*sxy - sx*sy) / d
	a := (sy - b*sx) / fn

	for i := range o.Samples {
		o.Samples[i] -= a + b*float64(i)
	}

	return o
}

// Demean returns a copy of t with the mean removed from its samples.
func Demean(t Trace) Trace {
	o := t.clone()
	if len(o.Samples) == 0 {
		return o
	}

	var sum float64
	for _, v := range o.Samples {
		sum += v
	}
	mean := sum / float64(len(o.Samples))

	for i := range o.Samples {
		o.Samples[i] -= mean
	}

	return o
}

// Taper returns a copy of t with a cosine ramp applied over fraction of the
// series length at each end.
func Taper(t Trace, fraction float64) Trace {
	o := t.clone()
	n := len(o.Samples)
	w := int(fraction * float64(n))
	if w < 1 {
		return o
	}

	for i := 0; i < w; i++ {
		f := 0.5 * (1.0 - math.Cos(math.Pi*float64(i)/float64(w)))
		o.Samples[i] *= f
		o.Samples[n-1-i] *= f
	}

	return o
}

// HighPass returns a copy of t filtered with a zero-phase Butterworth
// high-pass of the given corner frequency (Hz) and number of poles.  The
// filter is run forward and then backward over the series so no phase
// shift is introduced.  An odd pole count is rounded up.
func HighPass(t Trace, freq float64, poles int) Trace {
	o := t.clone()
	if len(o.Samples) == 0 || o.SampleRate <= 0 {
		return o
	}

	sos := highPassSections(freq, o.SampleRate, poles)

	for _, s := range sos {
		s.apply(o.Samples)
	}
	reverse(o.Samples)
	for _, s := range sos {
		s.apply(o.Samples)
	}
	reverse(o.Samples)

	return o
}

// Integrate returns the cumulative trapezoidal integration of t.  An
// acceleration trace integrates to velocity.
func Integrate(t Trace) Trace {
	o := t.clone()
	if len(o.Samples) == 0 || o.SampleRate <= 0 {
		return o
	}

	dt := 1.0 / o.SampleRate
	var sum float64
	prev := o.Samples[0]
	o.Samples[0] = 0.0
	for i := 1; i < len(o.Samples); i++ {
		cur := o.Samples[i]
		sum += dt * (prev + cur) / 2.0
		prev = cur
		o.Samples[i] = sum
	}

	if o.Units == UnitAcc {
		o.Units = UnitVel
	}

	return o
}

// biquad is one direct form I second order filter section.
type biquad struct {
	b0, b1, b2, a1, a2 float64
}

func (s biquad) apply(x []float64) {
	var x1, x2, y1, y2 float64
	for i, v := range x {
		y := s.b0*v + s.b1*x1 + s.b2*x2 - s.a1*y1 - s.a2*y2
		x2, x1 = x1, v
		y2, y1 = y1, y
		x[i] = y
	}
}

// highPassSections designs a Butterworth high-pass as cascaded second order
// sections via the bilinear transform with a prewarped corner.
func highPassSections(freq, sampleRate float64, poles int) []biquad {
	n := poles / 2
	if poles%2 != 0 {
		n++
	}

	k := math.Tan(math.Pi * freq / sampleRate)
	k2 := k * k

	sos := make([]biquad, 0, n)
	for i := 0; i < n; i++ {
		// quality factor of the i-th Butterworth pole pair.
		q := 1.0 / (2.0 * math.Cos(math.Pi*float64(2*i+1)/float64(4*n)))

		norm := 1.0 / (1.0 + k/q + k2)
		sos = append(sos, biquad{
			b0: norm,
			b1: -2.0 * norm,
			b2: norm,
			a1: 2.0 * (k2 - 1.0) * norm,
			a2: (1.0 - k/q + k2) * norm,
		})
	}

	return sos
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
