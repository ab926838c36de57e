package predictor

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotem-industrial/pump-pdm/domain/core"
	"github.com/rotem-industrial/pump-pdm/domain/telemetry"
	"github.com/rotem-industrial/pump-pdm/domain/verdict"
	"github.com/rotem-industrial/pump-pdm/internal/config"
	"github.com/rotem-industrial/pump-pdm/internal/model"
)

func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	return &config.Config{
		Identity: config.IdentityConfig{PumpID: "PUMP_TEST"},
		Paths: config.PathConfig{
			ScalerPath: filepath.Join(dir, "scaler.json"),
			ModelPath:  filepath.Join(dir, "classifier.json"),
		},
		Window: config.WindowConfig{
			FeatureWindowSize: 3, SmoothingWindowSize: 1, RiskHistorySize: 1,
			StartupIterations: 0, CriticalExitMinLowVibSteps: 5,
		},
		Smoothing: config.SmoothingConfig{
			AlphaRising: 0.70, AlphaFalling: 0.65, AlphaVeryHigh: 0.92,
			HighRiskThreshold: 0.70, InferenceRetryAttempts: 1, InferenceRetryBaseSec: 0,
		},
		Thresholds: config.ThresholdConfig{
			ProbCritical: 0.85, ProbCriticalStartup: 0.90, ProbWarning: 0.60,
			ProbHysteresisExitWarning: 0.25, ProbMinForVibrationWarning: 0.15,
		},
		Rules: config.RuleConfig{
			DebrisImpactCrestMin: 6.0,

			CavitationCurrentMinAmp:             54,
			CavitationPressureMaxBar:            4.0,
			CavitationVibrationMinMMPS:          9.0,
			CavitationHysteresisExitPressureBar: 4.5,

			ChokedCurrentMaxAmp:  38,
			ChokedPressureMinBar: 7.0,
			ChokedTempMinC:       70,

			DegradationCurrentMaxAmp:         40,
			DegradationPressureMaxBar:        5.2,
			DegradationHysteresisCurrentAmp:  2,
			DegradationHysteresisPressureBar: 0.3,

			TempCriticalC: 75,
			TempWarningC:  60,

			OverloadCurrentMinAmp: 50,

			PressureHighWarningBar: 7.0,

			AirIngestionVibCrestMin:   5.5,
			AirIngestionVibRMSMinMMPS: 4.5,

			VibrationWarningEntryMMPS:           5.5,
			VibrationCriticalMMPS:               7.1,
			VibrationInterlockMMPS:              9.0,
			VibrationHysteresisExitWarningMMPS:  4.5,
			VibrationHysteresisExitCriticalMMPS: 6.0,
		},
		Messages: config.MessageConfig{},
	}
}

func writeArtifacts(t *testing.T, cfg *config.Config, intercepts []float64) {
	t.Helper()
	scaler := &model.Scaler{Mean: make([]float64, 8), Std: []float64{1, 1, 1, 1, 1, 1, 1, 1}}
	classifier := &model.Classifier{
		Classes:    []string{model.ClassHealthy, model.ClassAnomaly},
		Weights:    [][]float64{make([]float64, 8), make([]float64, 8)},
		Intercepts: intercepts,
	}
	if err := model.Save(cfg.Paths.ScalerPath, scaler, cfg.Paths.ModelPath, classifier); err != nil {
		t.Fatalf("model.Save: %v", err)
	}
}

func sampleInput(vib float64) Input {
	return Input{
		Window: []telemetry.Sample{{VibRMS: vib, Current: 45, Pressure: 6, Temp: 50}},
		Features: telemetry.FeatureVector{vib, 2.5, 3.0, 45, 6, 0.4, 50, 0},
	}
}

func TestNewWithoutArtifactsRunsUnknown(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.StrictArtifactCheck = false

	p, err := New(cfg, core.PumpID("PUMP_TEST"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result := p.Step(context.Background(), sampleInput(2.0))
	if result.Verdict.Status != verdict.StatusUnknown {
		t.Errorf("Status = %v, want UNKNOWN when no artifacts are loaded", result.Verdict.Status)
	}
}

func TestStepHighAnomalyIntercept(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	writeArtifacts(t, cfg, []float64{0, 5}) // P(anomaly) ~= 0.993

	p, err := New(cfg, core.PumpID("PUMP_TEST"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var result Result
	for i := 0; i < 3; i++ {
		result = p.Step(context.Background(), sampleInput(2.0))
	}
	if result.Verdict.Status != verdict.StatusCritical {
		t.Errorf("Status = %v, want CRITICAL once the smoothed risk has converged high", result.Verdict.Status)
	}
	if result.Verdict.SmoothedProb < 0.85 {
		t.Errorf("SmoothedProb (display) = %v, want >= 0.85 per the CRITICAL display floor", result.Verdict.SmoothedProb)
	}
}

func TestStepLowAnomalyInterceptStaysHealthy(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	writeArtifacts(t, cfg, []float64{5, 0}) // P(anomaly) ~= 0.007

	p, err := New(cfg, core.PumpID("PUMP_TEST"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var result Result
	for i := 0; i < 3; i++ {
		result = p.Step(context.Background(), sampleInput(2.0))
	}
	if result.Verdict.Status != verdict.StatusHealthy {
		t.Errorf("Status = %v, want HEALTHY for a consistently low anomaly probability", result.Verdict.Status)
	}
}

func TestMapDisplayMonotonicAndBounded(t *testing.T) {
	if got := mapDisplay(0.5); got != 0.5 {
		t.Errorf("mapDisplay(0.5) = %v, want pass-through 0.5 (below the 0.65 mapping floor)", got)
	}
	if got := mapDisplay(0.65); got != 0.85 {
		t.Errorf("mapDisplay(0.65) = %v, want 0.85", got)
	}
	if got := mapDisplay(1.0); got != 1.0 {
		t.Errorf("mapDisplay(1.0) = %v, want 1.0", got)
	}
	prev := mapDisplay(0.65)
	for p := 0.66; p <= 1.0; p += 0.05 {
		cur := mapDisplay(p)
		if cur < prev {
			t.Fatalf("mapDisplay is not monotone: mapDisplay(%v)=%v < previous %v", p, cur, prev)
		}
		if cur < 0.85 || cur > 1.0 {
			t.Fatalf("mapDisplay(%v) = %v, out of [0.85, 1.0]", p, cur)
		}
		prev = cur
	}
}

func TestHealthyNominalBandMatches(t *testing.T) {
	in := telemetry.Sample{VibRMS: 4.0, Pressure: 6.0, Temp: 45, Current: 45}
	if !defaultHealthyNominal.Matches(in) {
		t.Error("expected a sample well inside the recovery band to match")
	}
	out := telemetry.Sample{VibRMS: 4.0, Pressure: 6.0, Temp: 45, Current: 40}
	if defaultHealthyNominal.Matches(out) {
		t.Error("expected current == CurrentMin (not strictly greater) to NOT match, per the asymmetric band")
	}
}
