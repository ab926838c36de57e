// Package twin defines the digital-twin's pure value types: the health
// scalar, the mutually-exclusive failure scenarios it can drive, and the
// piecewise-linear mapping from health to sensor means. The stochastic
// drift and scenario-selection logic that mutates these values lives in
// internal/simulator, which owns the random source.
package twin

// Scenario identifies which of the six mutually-exclusive failure modes
// is currently driving sensor synthesis, if any.
type Scenario string

const (
	ScenarioNone         Scenario = ""
	ScenarioDebrisImpact Scenario = "DEBRIS_IMPACT"
	ScenarioDegradation  Scenario = "DEGRADATION"
	ScenarioChoked       Scenario = "CHOKED"
	ScenarioAirIngestion Scenario = "AIR_INGESTION"
	ScenarioCavitation   Scenario = "CAVITATION"
	ScenarioInterlock    Scenario = "VIB_INTERLOCK"
)

// Means is the set of per-channel Gaussian centers the twin draws 30
// synthetic samples around for one tick.
type Means struct {
	VibRMS      float64
	VibCrest    float64
	VibKurtosis float64
	Current     float64
	Pressure    float64
	Temp        float64
}

// anchor is one (health, Means) control point for the piecewise-linear
// piecewise-linear interpolation between control points.
type anchor struct {
	health float64
	means  Means
}

// healthCurve is the three control points for the health-to-readings mapping: HEALTHY at
// health=0, WARNING at health=0.5, CRITICAL at health=1.0. Current and
// crest/kurtosis baselines are a reasonable physically-plausible
// supplement the distillation left unspecified.
var healthCurve = []anchor{
	{health: 0.0, means: Means{VibRMS: 2.8, VibCrest: 3.0, VibKurtosis: 3.0, Current: 45, Pressure: 6.0, Temp: 42}},
	{health: 0.5, means: Means{VibRMS: 5.8, VibCrest: 3.6, VibKurtosis: 3.2, Current: 48, Pressure: 5.2, Temp: 68}},
	{health: 1.0, means: Means{VibRMS: 12.5, VibCrest: 4.5, VibKurtosis: 3.6, Current: 52, Pressure: 2.5, Temp: 88}},
}

// BaselineMeans interpolates the nominal (no-scenario) sensor means for
// the given health in [0,1].
func BaselineMeans(health float64) Means {
	if health <= healthCurve[0].health {
		return healthCurve[0].means
	}
	if health >= healthCurve[len(healthCurve)-1].health {
		return healthCurve[len(healthCurve)-1].means
	}
	for i := 1; i < len(healthCurve); i++ {
		lo, hi := healthCurve[i-1], healthCurve[i]
		if health <= hi.health {
			frac := (health - lo.health) / (hi.health - lo.health)
			return lerpMeans(lo.means, hi.means, frac)
		}
	}
	return healthCurve[len(healthCurve)-1].means
}

func lerpMeans(a, b Means, frac float64) Means {
	return Means{
		VibRMS:      a.VibRMS + frac*(b.VibRMS-a.VibRMS),
		VibCrest:    a.VibCrest + frac*(b.VibCrest-a.VibCrest),
		VibKurtosis: a.VibKurtosis + frac*(b.VibKurtosis-a.VibKurtosis),
		Current:     a.Current + frac*(b.Current-a.Current),
		Pressure:    a.Pressure + frac*(b.Pressure-a.Pressure),
		Temp:        a.Temp + frac*(b.Temp-a.Temp),
	}
}

// Clamp01 restricts a health value to [0,1].
func Clamp01(h float64) float64 {
	switch {
	case h < 0:
		return 0
	case h > 1:
		return 1
	default:
		return h
	}
}
