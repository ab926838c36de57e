// Package dsp implements the zero-phase Butterworth filtering C4 needs:
// a low-pass noise-reduction stage and an optional ISO 10816-3 band-pass
// used to recompute vibration RMS over the standard 10-1000 Hz band.
//
// No library in the retrieved example pack implements IIR filter design
// (there is no scipy.signal equivalent among the Go dependencies used
// elsewhere in this repository); this package is hand-written against
// the standard bilinear-transform construction, documented in DESIGN.md
// as the one standard-library-adjacent component. Reversal and scaling
// use gonum/floats; the difference-equation sums in lfilter are plain
// loops.
package dsp

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
)

// Coefficients holds a digital IIR filter's transfer function, b (feed-
// forward) over a (feedback), with a[0] normalized to 1.
type Coefficients struct {
	B []float64
	A []float64
}

// ButterLowPass designs a digital Butterworth low-pass filter of the given
// order with normalized cutoff wn in (0, 1), where 1.0 is the Nyquist
// frequency.
func ButterLowPass(order int, wn float64) (Coefficients, error) {
	if wn <= 0 || wn >= 1 {
		return Coefficients{}, fmt.Errorf("dsp: low-pass cutoff must be in (0, 1), got %v", wn)
	}
	proto := butterworthPrototype(order)
	warped := prewarp(wn)
	poles := make([]complex128, len(proto))
	for i, p := range proto {
		poles[i] = p * complex(warped, 0)
	}
	gain := math.Pow(warped, float64(order))
	return zpkToDigital(nil, poles, gain)
}

// ButterBandPass designs a digital Butterworth band-pass filter of the
// given order (the order of the lowpass prototype; the resulting filter
// has 2*order poles) between normalized edges wLow and wHigh, 0 < wLow <
// wHigh < 1.
func ButterBandPass(order int, wLow, wHigh float64) (Coefficients, error) {
	if !(0 < wLow && wLow < wHigh && wHigh < 1) {
		return Coefficients{}, fmt.Errorf("dsp: band-pass edges must satisfy 0 < low < high < 1, got [%v, %v]", wLow, wHigh)
	}
	proto := butterworthPrototype(order)

	waLow := prewarp(wLow)
	waHigh := prewarp(wHigh)
	bw := waHigh - waLow
	wo := math.Sqrt(waLow * waHigh)

	poles := make([]complex128, 0, 2*order)
	for _, p := range proto {
		lp := p * complex(bw/2, 0)
		disc := cmplx.Sqrt(lp*lp - complex(wo*wo, 0))
		poles = append(poles, lp+disc, lp-disc)
	}
	zeros := make([]complex128, order) // N zeros at the origin
	gain := math.Pow(bw, float64(order))

	return zpkToDigital(zeros, poles, gain)
}

// butterworthPrototype returns the N normalized (unity cutoff) analog
// Butterworth low-pass poles, evenly spaced on the left half of the unit
// circle.
func butterworthPrototype(order int) []complex128 {
	poles := make([]complex128, order)
	for k := 0; k < order; k++ {
		theta := math.Pi * (2*float64(k) + 1) / (2 * float64(order))
		poles[k] = complex(-math.Sin(theta), math.Cos(theta))
	}
	return poles
}

// prewarp maps a normalized digital cutoff (0,1] onto the analog frequency
// that the bilinear transform below (s = 2*(z-1)/(z+1), i.e. fs2 = 2) will
// map back onto the same digital cutoff.
func prewarp(wn float64) float64 {
	return 2 * math.Tan(math.Pi*wn/2)
}

// zpkToDigital bilinear-transforms an analog filter given by zeros, poles
// and gain into digital b/a coefficients, padding missing zeros (zeros at
// infinity) to z = -1 as the transform requires.
func zpkToDigital(zeros, poles []complex128, gain float64) (Coefficients, error) {
	const fs2 = 2.0
	degree := len(poles) - len(zeros)
	if degree < 0 {
		return Coefficients{}, fmt.Errorf("dsp: filter has more zeros than poles")
	}

	zd := make([]complex128, 0, len(poles))
	for _, z := range zeros {
		zd = append(zd, (fs2+z)/(fs2-z))
	}
	for i := 0; i < degree; i++ {
		zd = append(zd, -1)
	}

	pd := make([]complex128, len(poles))
	for i, p := range poles {
		pd[i] = (fs2 + p) / (fs2 - p)
	}

	numProd := complex(1, 0)
	for _, z := range zeros {
		numProd *= fs2 - z
	}
	denProd := complex(1, 0)
	for _, p := range poles {
		denProd *= fs2 - p
	}
	kd := gain * real(numProd/denProd)

	b := realPoly(zd)
	a := realPoly(pd)
	floats.Scale(kd, b)

	a0 := a[0]
	floats.Scale(1/a0, a)
	floats.Scale(1/a0, b)

	return Coefficients{B: b, A: a}, nil
}

// realPoly expands prod(x - root_i) into coefficients, highest degree
// first, and drops residual imaginary error (roots occur in conjugate
// pairs for a real filter, so the true result is real).
func realPoly(roots []complex128) []float64 {
	coeffs := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(coeffs)+1)
		for i, c := range coeffs {
			next[i] += c
			next[i+1] -= c * r
		}
		coeffs = next
	}
	out := make([]float64, len(coeffs))
	for i, c := range coeffs {
		out[i] = real(c)
	}
	return out
}
