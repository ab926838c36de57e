// Package diagnosis defines RuleContext, the single mutable record the
// ordered rule engine (internal/rules) folds its decisions into.
package diagnosis

import "github.com/rotem-industrial/pump-pdm/domain/verdict"

// Context carries the smoothed and latest sensor values a rule cycle
// reasons over, plus the mutable status/reason/cause outputs the rule
// pipeline accumulates. It is created fresh every pipeline step and
// discarded after rule evaluation — never retained across cycles.
type Context struct {
	// Smoothed (window-mean) values.
	VibRMS   float64
	VibCrest float64
	Current  float64
	Pressure float64
	Temp     float64

	// Latest single-sample values (overridden by the newest telemetry
	// record, and by the ISO-band RMS when that filter is enabled).
	LatestVib      float64
	LatestCrest    float64
	LatestCurrent  float64
	LatestPressure float64
	LatestTemp     float64

	SmoothedProb float64
	PrevReason   string
	LastStatus   verdict.Status
	DebrisFlag   bool

	// Mutable outputs.
	Status               verdict.Status
	Reason               string
	DisplayProb          float64
	CriticalLowVibSteps  int
	TripCause            verdict.TripCause
	AlarmCauses          []verdict.AlarmCause
}

// New returns a Context seeded to HEALTHY with no reason, ready for the
// rule pipeline to run over.
func New() *Context {
	return &Context{Status: verdict.StatusHealthy}
}

// HasReason reports whether an earlier rule already set a reason string —
// most rules in the pipeline only act on the first one that applies.
func (c *Context) HasReason() bool {
	return c.Reason != ""
}

// AddAlarmCause appends a cause if it is not already present.
func (c *Context) AddAlarmCause(cause verdict.AlarmCause) {
	for _, existing := range c.AlarmCauses {
		if existing == cause {
			return
		}
	}
	c.AlarmCauses = append(c.AlarmCauses, cause)
}

// SetTripCause sets the trip cause only if one is not already set —
// first-writer-wins, per the rule engine's priority contract.
func (c *Context) SetTripCause(cause verdict.TripCause) {
	if c.TripCause == verdict.TripNone {
		c.TripCause = cause
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// RaiseDisplayProb raises DisplayProb to at least floor.
func (c *Context) RaiseDisplayProb(floor float64) {
	c.DisplayProb = maxFloat(c.DisplayProb, floor)
}
