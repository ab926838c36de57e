// Package features computes the fixed 8-scalar feature vector from a
// window of telemetry samples: vibration statistics, process means,
// a synthetic cavitation index, and the temperature trend.
package features

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/rotem-industrial/pump-pdm/domain/telemetry"
)

const cavitationIndexCap = 50.0

// Extractor turns a window of samples into a FeatureVector. It carries the
// previous batch's mean temperature so temp_delta can be computed across
// calls; it is owned by a single predictor instance, never shared.
type Extractor struct {
	prevTempMean   float64
	havePrevTemp   bool
}

// NewExtractor returns an Extractor with no prior temperature baseline;
// the first call therefore reports temp_delta = 0.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract computes the feature vector over the given window, in the fixed
// order documented by telemetry.FeatureNames.
func (e *Extractor) Extract(samples []telemetry.Sample) telemetry.FeatureVector {
	vib := make([]float64, len(samples))
	current := make([]float64, len(samples))
	pressure := make([]float64, len(samples))
	temp := make([]float64, len(samples))

	for i, s := range samples {
		vib[i] = s.VibRMS
		current[i] = s.Current
		pressure[i] = s.Pressure
		temp[i] = s.Temp
	}

	vibRMS := rms(vib)
	vibCrest := crestFactor(vib, vibRMS)
	vibKurtosis := sampleKurtosis(vib)

	currentMean := stat.Mean(current, nil)
	pressureMean := stat.Mean(pressure, nil)
	tempMean := stat.Mean(temp, nil)

	cavitationIndex := 0.0
	if pressureMean > 0 {
		cavitationIndex = math.Min(vibRMS/pressureMean, cavitationIndexCap)
	}

	tempDelta := 0.0
	if e.havePrevTemp {
		tempDelta = tempMean - e.prevTempMean
	}
	e.prevTempMean = tempMean
	e.havePrevTemp = true

	return telemetry.FeatureVector{
		vibRMS, vibCrest, vibKurtosis, currentMean,
		pressureMean, cavitationIndex, tempMean, tempDelta,
	}
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sumSq float64
	for _, v := range x {
		sumSq += v * v
	}
	return math.Sqrt(sumSq / float64(len(x)))
}

func crestFactor(x []float64, rmsValue float64) float64 {
	if rmsValue == 0 {
		return 0
	}
	peak := 0.0
	for _, v := range x {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak / rmsValue
}

// sampleKurtosis computes sample excess kurtosis via gonum/stat, folding
// non-finite results (constant signal, zero variance) to 0.
func sampleKurtosis(x []float64) float64 {
	if len(x) < 2 || stat.StdDev(x, nil) == 0 {
		return 0
	}
	k := stat.ExKurtosis(x, nil)
	if math.IsNaN(k) || math.IsInf(k, 0) {
		return 0
	}
	return k
}
