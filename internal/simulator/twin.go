// Package simulator implements C8: the digital twin that drives the
// production decision pipeline (features, DSP, predictor, rules) through
// physically plausible failure scenarios, including automatic
// shutdown/cooldown, without a live pump or broker.
package simulator

import (
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rotem-industrial/pump-pdm/domain/core"
	"github.com/rotem-industrial/pump-pdm/domain/telemetry"
	"github.com/rotem-industrial/pump-pdm/domain/twin"
	"github.com/rotem-industrial/pump-pdm/internal/config"
)

// scenarioSpec describes one of the six mutually-exclusive failure modes:
// its per-tick trigger probability, hold duration in ticks, and the
// sensor means it substitutes while active.
type scenarioSpec struct {
	kind        twin.Scenario
	probability float64
	holdTicks   int
	means       func(rng *rand.Rand) twin.Means
}

// scenarios is evaluated in this fixed priority order every tick a new
// scenario may start ; the first one whose coin flip succeeds wins
// for that tick.
func scenarioTable() []scenarioSpec {
	return []scenarioSpec{
		{kind: twin.ScenarioDebrisImpact, probability: 0.002, holdTicks: 999, means: debrisMeans},
		{kind: twin.ScenarioDegradation, probability: 0.008, holdTicks: 3, means: degradationMeans},
		{kind: twin.ScenarioChoked, probability: 0.003, holdTicks: 3, means: chokedMeans},
		{kind: twin.ScenarioAirIngestion, probability: 0.008, holdTicks: 3, means: airIngestionMeans},
		{kind: twin.ScenarioCavitation, probability: 0.022, holdTicks: 5, means: cavitationMeans},
		{kind: twin.ScenarioInterlock, probability: 0.0012, holdTicks: 3, means: interlockMeans},
	}
}

func degradationMeans(rng *rand.Rand) twin.Means {
	return twin.Means{Current: uniform(rng, 38, 42), Pressure: uniform(rng, 4.2, 4.8)}
}

func chokedMeans(rng *rand.Rand) twin.Means {
	return twin.Means{
		Current: uniform(rng, 36, 40), Pressure: uniform(rng, 7.0, 8.5),
		Temp: uniform(rng, 72, 82), VibRMS: uniform(rng, 2.0, 4.0),
	}
}

func airIngestionMeans(_ *rand.Rand) twin.Means {
	return twin.Means{VibRMS: 5.2, VibCrest: 6.2, VibKurtosis: 5.0}
}

func cavitationMeans(rng *rand.Rand) twin.Means {
	return twin.Means{
		Current: uniform(rng, 54.5, 58), Pressure: uniform(rng, 3.0, 3.8),
		VibRMS: uniform(rng, 7.2, 8.6),
	}
}

func interlockMeans(rng *rand.Rand) twin.Means {
	return twin.Means{VibRMS: uniform(rng, 9.2, 11.0)}
}

func debrisMeans(_ *rand.Rand) twin.Means {
	// Debris overrides vibration/crest only; process values stay nominal
	// (the jump happens to the health scalar, driving v/p/t via the base
	// curve, and debris_impact=true on the sample carries the rest).
	return twin.Means{}
}

// Twin holds the stochastic digital-twin state: health with drift and
// jumps, the currently active scenario (if any) and its remaining hold,
// and the choked-exit blend countdown.
type Twin struct {
	rng        *rand.Rand
	health     float64
	scenario   twin.Scenario
	ticksLeft  int
	debrisFlag bool

	chokedExitBlend int
	chokedFrom      twin.Means

	cooldownTicksLeft int

	rules   config.RuleConfig
	forced  twin.Scenario
	isForced bool
}

// ForceScenario pins the twin to continuously re-trigger one named
// scenario (cmd/simulator's --scenario flag), bypassing the per-tick
// probability roll — useful for demoing a single failure mode, as
// simulate_failure.py's fixed NORMAL/FAILURE blocks did.
func (t *Twin) ForceScenario(kind twin.Scenario) {
	t.forced = kind
	t.isForced = kind != twin.ScenarioNone
}

// NewTwin constructs a twin seeded from seed, with health starting at 0
// (fully healthy).
func NewTwin(seed int64, rules config.RuleConfig) *Twin {
	return &Twin{rng: rand.New(rand.NewSource(seed)), rules: rules}
}

// InCooldown reports whether the twin is in a post-shutdown cooldown
// window and should not run the pipeline this tick.
func (t *Twin) InCooldown() bool { return t.cooldownTicksLeft > 0 }

// TickCooldown advances the cooldown counter by one tick.
func (t *Twin) TickCooldown() { t.cooldownTicksLeft-- }

// Shutdown resets health to 0 and arms a cooldown of n ticks (0 for
// scenarios that restart immediately, e.g. debris/cavitation/interlock;
// the shutdown tracker only forces a cooldown for overtemp and choked).
func (t *Twin) Shutdown(cooldownTicks int) {
	t.health = 0
	t.scenario = twin.ScenarioNone
	t.ticksLeft = 0
	t.debrisFlag = false
	t.cooldownTicksLeft = cooldownTicks
}

// driftStep advances health by slow Gaussian drift (std 0.01) plus a rare
// additive jump (prob 0.01, magnitude 0.1-0.3), then clamps to [0,1].
func (t *Twin) driftStep() {
	drift := distuv.Normal{Mu: 0, Sigma: 0.01, Src: t.rng}.Rand()
	t.health = twin.Clamp01(t.health + drift)
	if t.rng.Float64() < 0.01 {
		jump := uniform(t.rng, 0.1, 0.3)
		t.health = twin.Clamp01(t.health + jump)
	}
}

// maybeStartScenario rolls each scenario's trigger probability in
// priority order and starts the first one that fires, when none is
// already active.
func (t *Twin) maybeStartScenario() {
	if t.scenario != twin.ScenarioNone {
		return
	}
	if t.isForced {
		for _, s := range scenarioTable() {
			if s.kind == t.forced {
				t.scenario = s.kind
				t.ticksLeft = s.holdTicks
				if s.kind == twin.ScenarioDebrisImpact {
					t.health = twin.Clamp01(t.health + uniform(t.rng, 0.25, 0.45))
					t.debrisFlag = true
				}
				return
			}
		}
		return
	}
	for _, s := range scenarioTable() {
		if t.rng.Float64() < s.probability {
			t.scenario = s.kind
			t.ticksLeft = s.holdTicks
			if s.kind == twin.ScenarioDebrisImpact {
				t.health = twin.Clamp01(t.health + uniform(t.rng, 0.25, 0.45))
				t.debrisFlag = true
			}
			return
		}
	}
}

// advanceScenario decrements the active scenario's hold counter, ending
// it (and, for CHOKED, starting the 3-step blend back to nominal) once
// it expires.
func (t *Twin) advanceScenario() {
	if t.scenario == twin.ScenarioNone {
		return
	}
	t.ticksLeft--
	if t.ticksLeft > 0 {
		return
	}
	if t.scenario == twin.ScenarioChoked {
		t.chokedExitBlend = 3
		t.chokedFrom = chokedMeans(t.rng)
	}
	if t.scenario == twin.ScenarioDebrisImpact {
		// Debris persists up to 999 ticks or until a shutdown clears it
		// explicitly; here it simply times out like any other scenario.
		t.debrisFlag = false
	}
	t.scenario = twin.ScenarioNone
}

// currentMeans computes this tick's sensor means: the active scenario's
// override, the choked-exit blend back to the health baseline, or the
// plain health-driven baseline.
func (t *Twin) currentMeans() twin.Means {
	base := twin.BaselineMeans(t.health)

	if t.chokedExitBlend > 0 {
		frac := float64(4-t.chokedExitBlend) / 3.0
		blended := blendMeans(t.chokedFrom, base, frac)
		t.chokedExitBlend--
		return blended
	}

	if t.scenario == twin.ScenarioNone {
		return base
	}

	for _, s := range scenarioTable() {
		if s.kind != t.scenario {
			continue
		}
		override := s.means(t.rng)
		return overlayMeans(base, override)
	}
	return base
}

// overlayMeans replaces any non-zero field of override onto base,
// leaving the health-driven baseline for fields the scenario doesn't
// touch (e.g. debris impact only overrides vibration via debris_flag,
// not process values).
func overlayMeans(base, override twin.Means) twin.Means {
	out := base
	if override.VibRMS != 0 {
		out.VibRMS = override.VibRMS
	}
	if override.VibCrest != 0 {
		out.VibCrest = override.VibCrest
	}
	if override.VibKurtosis != 0 {
		out.VibKurtosis = override.VibKurtosis
	}
	if override.Current != 0 {
		out.Current = override.Current
	}
	if override.Pressure != 0 {
		out.Pressure = override.Pressure
	}
	if override.Temp != 0 {
		out.Temp = override.Temp
	}
	return out
}

func blendMeans(from, to twin.Means, frac float64) twin.Means {
	return twin.Means{
		VibRMS:      from.VibRMS + frac*(to.VibRMS-from.VibRMS),
		VibCrest:    from.VibCrest + frac*(to.VibCrest-from.VibCrest),
		VibKurtosis: from.VibKurtosis + frac*(to.VibKurtosis-from.VibKurtosis),
		Current:     from.Current + frac*(to.Current-from.Current),
		Pressure:    from.Pressure + frac*(to.Pressure-from.Pressure),
		Temp:        from.Temp + frac*(to.Temp-from.Temp),
	}
}

// Tick advances one 3-second cycle: health drift/jump, scenario
// selection/expiry, then synthesizes a fresh 30-sample window around the
// resulting means. Returns the window and the scenario active for it.
func (t *Twin) Tick(windowSize int, now core.Timestamp) ([]telemetry.Sample, twin.Scenario) {
	t.driftStep()
	t.maybeStartScenario()
	means := t.currentMeans()
	active := t.scenario
	t.advanceScenario()

	samples := make([]telemetry.Sample, windowSize)
	for i := range samples {
		samples[i] = telemetry.Sample{
			VibRMS:          clampNonNeg(gauss(t.rng, means.VibRMS, 0.3)),
			VibCrest:        clampNonNeg(gauss(t.rng, means.VibCrest, 0.2)),
			VibKurtosis:     gauss(t.rng, means.VibKurtosis, 0.5),
			Current:         clampNonNeg(gauss(t.rng, means.Current, 1.0)),
			Pressure:        clampNonNeg(gauss(t.rng, means.Pressure, 0.15)),
			Temp:            gauss(t.rng, means.Temp, 1.0),
			CavitationIndex: 0, // recomputed by the feature extractor, not synthesized
			DebrisImpact:    t.debrisFlag,
			At:              now,
		}
	}
	return samples, active
}

// Health reports the current health scalar, for incident reports and
// metrics.
func (t *Twin) Health() float64 { return t.health }

func gauss(rng *rand.Rand, mean, sigma float64) float64 {
	return distuv.Normal{Mu: mean, Sigma: sigma, Src: rng}.Rand()
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func clampNonNeg(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
