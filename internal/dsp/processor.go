package dsp

import "math"

// Zone is an ISO 10816-3 vibration severity band for industrial machinery
// on rigid support.
type Zone string

const (
	ZoneAB Zone = "A/B"
	ZoneBC Zone = "B/C"
	ZoneCD Zone = "C/D"
	ZoneD  Zone = "D"
)

// Classify reports the ISO 10816-3 zone for a vibration RMS value in mm/s.
func Classify(vibRMS float64) Zone {
	switch {
	case vibRMS <= 2.8:
		return ZoneAB
	case vibRMS <= 4.5:
		return ZoneBC
	case vibRMS <= 7.1:
		return ZoneCD
	default:
		return ZoneD
	}
}

// Processor holds the two filters C4 needs: the always-on low-pass noise
// reducer and the optional ISO band RMS recomputation.
type Processor struct {
	lowPass Coefficients
	isoBand Coefficients
	haveISO bool
}

// NewProcessor designs the low-pass filter (order, cutoff normalized to
// Nyquist) and, when enabled, the ISO 10816-3 band-pass filter over
// [lowHz, min(highHz, 0.99*Nyquist)] at the given sample rate.
func NewProcessor(order int, cutoff float64, sampleRateHz float64, useISOBand bool, isoOrder int, isoLowHz, isoHighHz float64) (*Processor, error) {
	lp, err := ButterLowPass(order, cutoff)
	if err != nil {
		return nil, err
	}
	p := &Processor{lowPass: lp}
	if !useISOBand {
		return p, nil
	}

	nyquist := sampleRateHz / 2
	highHz := math.Min(isoHighHz, 0.99*nyquist)
	if highHz <= isoLowHz {
		return p, nil // invalid band: leave ISO disabled, low-pass path still usable
	}
	wLow := isoLowHz / nyquist
	wHigh := highHz / nyquist
	iso, err := ButterBandPass(isoOrder, wLow, wHigh)
	if err != nil {
		return nil, err
	}
	p.isoBand = iso
	p.haveISO = true
	return p, nil
}

// Denoise runs the zero-phase low-pass over a vibration window and returns
// its RMS and crest factor.
func (p *Processor) Denoise(x []float64) (rms, crest float64) {
	clean := FiltFilt(p.lowPass, x)
	return rmsOf(clean), crestOf(clean)
}

// ISOBandRMS recomputes vibration RMS over the ISO 10816-3 band, returning
// (rms, true) when the ISO band is configured and the window is long
// enough (at least 8 samples), or (0, false) otherwise — callers fall back
// to the low-pass RMS in that case.
func (p *Processor) ISOBandRMS(x []float64) (float64, bool) {
	if !p.haveISO || len(x) < 8 {
		return 0, false
	}
	filtered := FiltFilt(p.isoBand, x)
	return rmsOf(filtered), true
}

func rmsOf(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sumSq float64
	for _, v := range x {
		sumSq += v * v
	}
	return math.Sqrt(sumSq / float64(len(x)))
}

func crestOf(x []float64) float64 {
	r := rmsOf(x)
	if r == 0 {
		return 0
	}
	peak := 0.0
	for _, v := range x {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak / r
}
