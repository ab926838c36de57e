// Package predictor implements C5: it owns one pump's smoothing state,
// loads the classifier/scaler artifacts, applies the asymmetric EMA and
// hysteretic thresholding, and hands the result to the ordered rule
// engine (internal/rules) to produce the final verdict.
package predictor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/sony/gobreaker"

	"github.com/rotem-industrial/pump-pdm/domain/core"
	"github.com/rotem-industrial/pump-pdm/domain/diagnosis"
	"github.com/rotem-industrial/pump-pdm/domain/smoothing"
	"github.com/rotem-industrial/pump-pdm/domain/telemetry"
	"github.com/rotem-industrial/pump-pdm/domain/verdict"
	"github.com/rotem-industrial/pump-pdm/internal/config"
	apperrors "github.com/rotem-industrial/pump-pdm/internal/errors"
	"github.com/rotem-industrial/pump-pdm/internal/model"
	"github.com/rotem-industrial/pump-pdm/internal/rules"
	"github.com/rotem-industrial/pump-pdm/ports"
)

// healthyNominal is the recovery predicate checked before smoothing. It is
// deliberately a different band than the WARNING thresholds (see the design
// note b) — preserve the asymmetry verbatim.
type healthyNominalBand struct {
	VibMax                         float64
	PressureMin, PressureMax       float64
	TempMin, TempMax               float64
	CurrentMin, CurrentMax         float64
}

var defaultHealthyNominal = healthyNominalBand{
	VibMax:      4.5,
	PressureMin: 5.2, PressureMax: 7.0,
	TempMin: 35, TempMax: 60,
	CurrentMin: 40, CurrentMax: 50,
}

func (b healthyNominalBand) Matches(s telemetry.Sample) bool {
	return s.VibRMS < b.VibMax &&
		s.Pressure >= b.PressureMin && s.Pressure < b.PressureMax &&
		s.Temp >= b.TempMin && s.Temp < b.TempMax &&
		s.Current > b.CurrentMin && s.Current < b.CurrentMax
}

// Input is everything one pipeline step needs beyond the predictor's own
// persisted state.
type Input struct {
	// Window is the batch of validated samples the feature vector was
	// computed over; Window[len(Window)-1] is "latest_telemetry".
	Window []telemetry.Sample
	// Features is the output of internal/features.Extractor.Extract,
	// in the fixed 8-scalar order.
	Features telemetry.FeatureVector
	// ISOVibRMS, when non-nil, replaces the latest-sample vibration value
	// the rule engine reads (internal/dsp ISO-band RMS); the smoothed
	// vibration feature, which the interlock rule reads, is unchanged.
	ISOVibRMS *float64
	// IsStartup raises the CRITICAL threshold  during the
	// engine's first few cycles, before smoothing has converged.
	IsStartup bool
}

// Result is everything the caller needs to emit an audit row and publish
// a report, beyond the verdict itself.
type Result struct {
	Verdict     verdict.Verdict
	SmoothedRow telemetry.FeatureVector
	InstantProb float64
}

// Predictor owns one pump's artifacts, smoothing state and rule-pipeline
// invocation. It is not safe for concurrent use — the ingest loop and the
// digital twin each own exactly one instance, called from a single
// activity .
type Predictor struct {
	pumpID core.PumpID
	cfg    *config.Config

	artifacts *model.Artifacts // nil => UNKNOWN mode
	breaker   *gobreaker.CircuitBreaker
	state     *smoothing.State
	store     ports.StateStore // nil => no persistence (REDIS_ADDR unset)

	lastStatus verdict.Status
	lastReason string
}

// persistedState is the JSON wire format saved to an optional StateStore,
// wrapping the smoothing state with the hysteresis fields the rule engine
// reads back that smoothing.State doesn't itself own.
type persistedState struct {
	Smoothing  json.RawMessage `json:"smoothing"`
	LastStatus verdict.Status  `json:"last_status"`
	LastReason string          `json:"last_reason"`
}

// New constructs a predictor for pumpID. Artifact load failure is only
// fatal when STRICT_ARTIFACT_CHECK is set; otherwise the predictor runs
// in UNKNOWN mode forever .
func New(cfg *config.Config, pumpID core.PumpID) (*Predictor, error) {
	artifacts, err := model.Load(cfg.Paths.ScalerPath, cfg.Paths.ModelPath)
	if err != nil {
		if cfg.StrictArtifactCheck {
			return nil, err
		}
		artifacts = nil
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        fmt.Sprintf("predictor-inference-%s", pumpID),
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.Smoothing.InferenceRetryAttempts)
		},
	})

	return &Predictor{
		pumpID:     pumpID,
		cfg:        cfg,
		artifacts:  artifacts,
		breaker:    breaker,
		state:      smoothing.New(cfg.Window.SmoothingWindowSize, cfg.Window.RiskHistorySize),
		lastStatus: verdict.StatusHealthy,
	}, nil
}

// WithStateStore attaches an optional persistence backend (REDIS_ADDR) and
// restores any previously saved state for pumpID, so a restarted engine
// resumes its hysteresis instead of re-running STARTUP_ITERATIONS cold.
// Restore failures are logged by the caller and otherwise ignored — a
// missing or corrupt snapshot just means a cold start.
func (p *Predictor) WithStateStore(ctx context.Context, store ports.StateStore) error {
	p.store = store
	data, found, err := store.LoadState(ctx, p.pumpID.String())
	if err != nil || !found {
		return err
	}
	var snap persistedState
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	if err := p.state.Unmarshal(snap.Smoothing); err != nil {
		return err
	}
	p.lastStatus = snap.LastStatus
	p.lastReason = snap.LastReason
	return nil
}

// saveState persists the current smoothing/hysteresis state, best-effort:
// a save failure never fails the pipeline cycle, it only means the next
// restart starts cold.
func (p *Predictor) saveState(ctx context.Context) {
	if p.store == nil {
		return
	}
	smoothingData, err := p.state.Marshal()
	if err != nil {
		return
	}
	data, err := json.Marshal(persistedState{
		Smoothing:  smoothingData,
		LastStatus: p.lastStatus,
		LastReason: p.lastReason,
	})
	if err != nil {
		return
	}
	_ = p.store.SaveState(ctx, p.pumpID.String(), data)
}

// Reset clears the predictor's smoothing state (used on recovery and by
// the digital twin after a simulated shutdown).
func (p *Predictor) Reset() {
	p.state.Reset()
	p.lastStatus = verdict.StatusHealthy
	p.lastReason = ""
}

// Step runs one full pipeline cycle and returns the
// resulting verdict.
func (p *Predictor) Step(ctx context.Context, in Input) Result {
	if len(in.Window) == 0 {
		return p.errorResult()
	}
	latest := in.Window[len(in.Window)-1]

	if p.artifacts == nil {
		return Result{Verdict: p.baseVerdict(verdict.StatusUnknown, 0, 0)}
	}

	if (p.lastStatus == verdict.StatusWarning || p.lastStatus == verdict.StatusCritical) &&
		defaultHealthyNominal.Matches(latest) {
		p.Reset()
	}

	smoothedRow := p.state.PushFeatures(in.Features)

	instantProb, err := p.callModel(smoothedRow)
	if err != nil {
		return Result{Verdict: p.errorVerdict()}
	}

	smoothedProb := p.state.UpdateRisk(
		instantProb,
		p.cfg.Smoothing.AlphaRising,
		p.cfg.Smoothing.AlphaFalling,
		p.cfg.Smoothing.AlphaVeryHigh,
		p.cfg.Smoothing.HighRiskThreshold,
	)
	displayProb := mapDisplay(smoothedProb)
	baseStatus := p.baseStatus(smoothedProb, in.IsStartup)

	rc := diagnosis.New()
	rc.Status = baseStatus
	rc.DisplayProb = displayProb
	rc.VibRMS = smoothedRow.VibRMS()
	rc.VibCrest = smoothedRow.VibCrest()
	rc.Current = smoothedRow.Current()
	rc.Pressure = smoothedRow.Pressure()
	rc.Temp = smoothedRow.Temp()

	rc.LatestVib = latest.VibRMS
	if in.ISOVibRMS != nil {
		rc.LatestVib = *in.ISOVibRMS
	}
	rc.LatestCrest = latest.VibCrest
	rc.LatestCurrent = latest.Current
	rc.LatestPressure = latest.Pressure
	rc.LatestTemp = latest.Temp

	rc.SmoothedProb = smoothedProb
	rc.PrevReason = p.lastReason
	rc.LastStatus = p.lastStatus
	rc.DebrisFlag = latest.DebrisImpact
	rc.CriticalLowVibSteps = p.state.CriticalLowVibSteps()

	rules.Run(rc, p.cfg.Rules, p.cfg.Thresholds, p.cfg.Messages)

	p.lastStatus = rc.Status
	p.lastReason = rc.Reason
	p.state.SetCriticalLowVibSteps(rc.CriticalLowVibSteps)
	p.saveState(ctx)

	v := verdict.Verdict{
		RunID:        core.NewRunID(),
		PumpID:       p.pumpID,
		At:           latest.At,
		Status:       rc.Status,
		RawProb:      instantProb,
		SmoothedProb: rc.DisplayProb,
		TripCause:    rc.TripCause,
		AlarmCauses:  rc.AlarmCauses,
		SensorHealth: "OK",
	}
	if rc.Reason != "" {
		v.Messages = []string{rc.Reason}
	}
	return Result{Verdict: v, SmoothedRow: smoothedRow, InstantProb: instantProb}
}

// callModel scales smoothedRow and runs the classifier, making up to
// InferenceRetryAttempts attempts with exponential backoff (base
// InferenceRetryBaseSec) and returning an InferenceError when all fail.
// Every attempt runs through the circuit breaker, which counts each
// failed attempt and, while open, fails an attempt without calling the
// model. A panic inside the model call (mismatched artifact
// dimensions, corrupt weights) is treated the same as a classifier
// exception in the original.
func (p *Predictor) callModel(row telemetry.FeatureVector) (float64, error) {
	run := func() (interface{}, error) {
		return p.predictOnce(row)
	}

	var lastErr error
	for attempt := 0; attempt < p.cfg.Smoothing.InferenceRetryAttempts; attempt++ {
		out, err := p.breaker.Execute(run)
		if err == nil {
			return out.(float64), nil
		}
		lastErr = err
		if attempt < p.cfg.Smoothing.InferenceRetryAttempts-1 {
			backoff := p.cfg.Smoothing.InferenceRetryBaseSec * math.Pow(2, float64(attempt))
			time.Sleep(time.Duration(backoff * float64(time.Second)))
		}
	}
	return 0, apperrors.InferenceError("inference failed after retries", lastErr)
}

func (p *Predictor) predictOnce(row telemetry.FeatureVector) (prob float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()
	scaled := p.artifacts.Scaler.Transform(row.Slice())
	probs := p.artifacts.Classifier.Predict(scaled)
	return p.artifacts.Classifier.InstantProb(probs), nil
}

// mapDisplay linearly maps from [0.65,1.00] onto
// [0.85,1.00], pass-through below 0.65. Monotone and within [0.85,1.00]
// for all inputs >= 0.65.
func mapDisplay(smoothedProb float64) float64 {
	const lo, hi = 0.65, 1.00
	const outLo, outHi = 0.85, 1.00
	if smoothedProb < lo {
		return smoothedProb
	}
	frac := (smoothedProb - lo) / (hi - lo)
	return outLo + frac*(outHi-outLo)
}

// baseStatus derives the unsmoothed status from the smoothed probability.
func (p *Predictor) baseStatus(smoothedProb float64, isStartup bool) verdict.Status {
	critical := p.cfg.Thresholds.ProbCritical
	if isStartup {
		critical = p.cfg.Thresholds.ProbCriticalStartup
	}
	switch {
	case smoothedProb >= critical:
		return verdict.StatusCritical
	case smoothedProb >= p.cfg.Thresholds.ProbWarning:
		return verdict.StatusWarning
	default:
		return verdict.StatusHealthy
	}
}

func (p *Predictor) errorResult() Result {
	return Result{Verdict: p.errorVerdict()}
}

func (p *Predictor) errorVerdict() verdict.Verdict {
	return verdict.Verdict{
		RunID:        core.NewRunID(),
		PumpID:       p.pumpID,
		At:           core.Now(),
		Status:       verdict.StatusError,
		SensorHealth: "ERROR",
	}
}

func (p *Predictor) baseVerdict(status verdict.Status, rawProb, displayProb float64) verdict.Verdict {
	return verdict.Verdict{
		RunID:        core.NewRunID(),
		PumpID:       p.pumpID,
		At:           core.Now(),
		Status:       status,
		RawProb:      rawProb,
		SmoothedProb: displayProb,
		SensorHealth: "UNKNOWN",
	}
}

// LastStatus reports the status persisted after the most recent Step
// call, for callers that need to inspect hysteresis state (the digital
// twin's shutdown policy).
func (p *Predictor) LastStatus() verdict.Status { return p.lastStatus }
