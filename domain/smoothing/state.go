// Package smoothing holds the predictor's per-instance state: the bounded
// feature-vector and risk-history ring buffers, the asymmetric EMA state,
// and the hysteresis counters the rule engine reads back every cycle.
// State is owned by exactly one predictor/activity  — no locking.
package smoothing

import (
	"encoding/json"

	"github.com/rotem-industrial/pump-pdm/domain/telemetry"
)

// State is the per-predictor smoothing state: the feature-window ring buffer
// and the risk-history EMA.
type State struct {
	featureWindow []telemetry.FeatureVector
	featureCap    int

	riskHistory []float64
	riskCap     int

	smoothedRisk float64
	haveSmoothed bool

	criticalLowVibSteps int
}

// New returns a fresh State sized to the configured window/history
// capacities.
func New(featureWindowCap, riskHistoryCap int) *State {
	return &State{
		featureWindow: make([]telemetry.FeatureVector, 0, featureWindowCap),
		featureCap:    featureWindowCap,
		riskHistory:   make([]float64, 0, riskHistoryCap),
		riskCap:       riskHistoryCap,
	}
}

// Reset clears all smoothing state — called on the "healthy nominal"
// recovery predicate  and by the digital twin after a
// simulated shutdown.
func (s *State) Reset() {
	s.featureWindow = s.featureWindow[:0]
	s.riskHistory = s.riskHistory[:0]
	s.smoothedRisk = 0
	s.haveSmoothed = false
	s.criticalLowVibSteps = 0
}

// PushFeatures appends a feature vector to the bounded smoothing window,
// dropping the oldest entry once at capacity, and returns the arithmetic
// mean row (the smoothed feature vector fed to the classifier).
func (s *State) PushFeatures(fv telemetry.FeatureVector) telemetry.FeatureVector {
	if len(s.featureWindow) >= s.featureCap {
		copy(s.featureWindow, s.featureWindow[1:])
		s.featureWindow = s.featureWindow[:len(s.featureWindow)-1]
	}
	s.featureWindow = append(s.featureWindow, fv)

	var mean telemetry.FeatureVector
	n := float64(len(s.featureWindow))
	for _, row := range s.featureWindow {
		for i := range mean {
			mean[i] += row[i]
		}
	}
	for i := range mean {
		mean[i] /= n
	}
	return mean
}

// UpdateRisk applies the asymmetric EMA  and appends the
// result to the bounded risk history, returning the mean of that history
// (the smoothed anomaly probability).
func (s *State) UpdateRisk(instantProb, alphaRising, alphaFalling, alphaVeryHigh, highRiskThreshold float64) float64 {
	if !s.haveSmoothed {
		s.smoothedRisk = instantProb
		s.haveSmoothed = true
	} else {
		rising := instantProb >= s.smoothedRisk
		var alpha float64
		switch {
		case rising && instantProb >= highRiskThreshold:
			alpha = alphaVeryHigh
		case rising:
			alpha = alphaRising
		default:
			alpha = alphaFalling
		}
		s.smoothedRisk = alpha*instantProb + (1-alpha)*s.smoothedRisk
	}

	if len(s.riskHistory) >= s.riskCap {
		copy(s.riskHistory, s.riskHistory[1:])
		s.riskHistory = s.riskHistory[:len(s.riskHistory)-1]
	}
	s.riskHistory = append(s.riskHistory, s.smoothedRisk)

	var sum float64
	for _, r := range s.riskHistory {
		sum += r
	}
	return sum / float64(len(s.riskHistory))
}

// CriticalLowVibSteps reports the current consecutive-low-vibration
// counter the vibration hysteresis rule is tracking.
func (s *State) CriticalLowVibSteps() int { return s.criticalLowVibSteps }

// SetCriticalLowVibSteps persists the counter the rule pipeline computed
// this cycle, for the next cycle to read back.
func (s *State) SetCriticalLowVibSteps(n int) { s.criticalLowVibSteps = n }

// SmoothedRisk returns the current EMA value (not the risk-history mean).
func (s *State) SmoothedRisk() float64 { return s.smoothedRisk }

// snapshot is the JSON wire format persisted to an optional StateStore so
// a restarted engine doesn't have to re-run STARTUP_ITERATIONS cold.
type snapshot struct {
	FeatureWindow       []telemetry.FeatureVector `json:"feature_window"`
	RiskHistory         []float64                 `json:"risk_history"`
	SmoothedRisk        float64                   `json:"smoothed_risk"`
	HaveSmoothed        bool                      `json:"have_smoothed"`
	CriticalLowVibSteps int                       `json:"critical_low_vib_steps"`
}

// Marshal serializes the state for persistence.
func (s *State) Marshal() ([]byte, error) {
	return json.Marshal(snapshot{
		FeatureWindow:       s.featureWindow,
		RiskHistory:         s.riskHistory,
		SmoothedRisk:        s.smoothedRisk,
		HaveSmoothed:        s.haveSmoothed,
		CriticalLowVibSteps: s.criticalLowVibSteps,
	})
}

// Unmarshal restores a previously persisted state, respecting the current
// window/history capacities (a config change after a restart truncates
// rather than panics).
func (s *State) Unmarshal(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	if len(snap.FeatureWindow) > s.featureCap {
		snap.FeatureWindow = snap.FeatureWindow[len(snap.FeatureWindow)-s.featureCap:]
	}
	if len(snap.RiskHistory) > s.riskCap {
		snap.RiskHistory = snap.RiskHistory[len(snap.RiskHistory)-s.riskCap:]
	}
	s.featureWindow = append(s.featureWindow[:0], snap.FeatureWindow...)
	s.riskHistory = append(s.riskHistory[:0], snap.RiskHistory...)
	s.smoothedRisk = snap.SmoothedRisk
	s.haveSmoothed = snap.HaveSmoothed
	s.criticalLowVibSteps = snap.CriticalLowVibSteps
	return nil
}
