// Package telemetry defines the raw wire-level pump reading and the
// sliding window of readings the feature extractor consumes.
package telemetry

import "github.com/rotem-industrial/pump-pdm/domain/core"

// Sample is one raw telemetry reading decoded off the wire.
type Sample struct {
	VibRMS          float64 `json:"vib_rms"`
	VibCrest        float64 `json:"vib_crest"`
	VibKurtosis     float64 `json:"vib_kurtosis"`
	Current         float64 `json:"current"`
	Pressure        float64 `json:"pressure"`
	Temp            float64 `json:"temp"`
	CavitationIndex float64 `json:"cavitation_index"`
	DebrisImpact    bool    `json:"debris_impact,omitempty"`
	At              core.Timestamp `json:"-"`
}

// FeatureNames is the fixed column order every FeatureVector and every
// trained artifact agree on. Never reorder: it is part of the contract
// between the feature extractor and the scaler/classifier.
var FeatureNames = [8]string{
	"vib_rms", "vib_crest", "vib_kurtosis", "current",
	"pressure", "cavitation_index", "temp", "temp_delta",
}

// FeatureVector is the fixed 8-scalar feature row computed over one window.
type FeatureVector [8]float64

func (f FeatureVector) VibRMS() float64          { return f[0] }
func (f FeatureVector) VibCrest() float64        { return f[1] }
func (f FeatureVector) VibKurtosis() float64     { return f[2] }
func (f FeatureVector) Current() float64         { return f[3] }
func (f FeatureVector) Pressure() float64        { return f[4] }
func (f FeatureVector) CavitationIndex() float64 { return f[5] }
func (f FeatureVector) Temp() float64            { return f[6] }
func (f FeatureVector) TempDelta() float64       { return f[7] }

// Slice returns the vector as a plain slice, for handing to gonum/mat and
// the scaler without re-copying field by field.
func (f FeatureVector) Slice() []float64 {
	out := make([]float64, len(f))
	copy(out, f[:])
	return out
}
