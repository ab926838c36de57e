package config

import "testing"

func baseConfig() *Config {
	return &Config{
		Identity: IdentityConfig{PumpID: "PUMP_01", SectionID: "SECTION_01"},
		Window: WindowConfig{
			FeatureWindowSize:          30,
			SmoothingWindowSize:        3,
			RiskHistorySize:            3,
			StartupIterations:          5,
			CriticalExitMinLowVibSteps: 5,
		},
		MQTT: MQTTConfig{BatchSize: 5},
		Smoothing: SmoothingConfig{
			AlphaRising: 0.70, AlphaFalling: 0.65, AlphaVeryHigh: 0.92,
			HighRiskThreshold: 0.70, InferenceRetryAttempts: 3,
		},
		Thresholds: ThresholdConfig{
			ProbCritical: 0.85, ProbCriticalStartup: 0.90, ProbWarning: 0.60,
			ProbHysteresisExitWarning: 0.25, ProbMinForVibrationWarning: 0.15,
		},
		Rules: RuleConfig{
			VibrationWarningEntryMMPS:           5.5,
			VibrationCriticalMMPS:               7.1,
			VibrationInterlockMMPS:              9.0,
			VibrationHysteresisExitWarningMMPS:  4.5,
			VibrationHysteresisExitCriticalMMPS: 6.0,
		},
		Telemetry: TelemetryRanges{
			VibRMSMin: 0, VibRMSMax: 25,
			PressureMin: 0, PressureMax: 15,
			TempMin: -20, TempMax: 120,
			CurrentMin: 0, CurrentMax: 80,
			CavitationIndexMin: 0, CavitationIndexMax: 50,
		},
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	if err := Validate(baseConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsMissingPumpID(t *testing.T) {
	cfg := baseConfig()
	cfg.Identity.PumpID = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected an error for a missing PUMP_ID")
	}
}

func TestValidateRejectsOutOfRangeProbability(t *testing.T) {
	cfg := baseConfig()
	cfg.Thresholds.ProbCritical = 1.5
	if err := Validate(cfg); err == nil {
		t.Fatal("expected an error for PROB_CRITICAL outside [0, 1]")
	}
}

func TestValidateRejectsNonPositiveWindowSize(t *testing.T) {
	cfg := baseConfig()
	cfg.Window.FeatureWindowSize = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected an error for FEATURE_WINDOW_SIZE <= 0")
	}
}

func TestValidateRejectsVibrationHysteresisOrdering(t *testing.T) {
	cfg := baseConfig()
	cfg.Rules.VibrationHysteresisExitWarningMMPS = cfg.Rules.VibrationWarningEntryMMPS
	if err := Validate(cfg); err == nil {
		t.Fatal("expected an error when the warning hysteresis exit is not strictly below the entry threshold")
	}
}

func TestValidateRejectsInterlockBelowCritical(t *testing.T) {
	cfg := baseConfig()
	cfg.Rules.VibrationInterlockMMPS = cfg.Rules.VibrationCriticalMMPS - 0.1
	if err := Validate(cfg); err == nil {
		t.Fatal("expected an error when VIBRATION_INTERLOCK_MMPS is below VIBRATION_CRITICAL_MMPS")
	}
}

func TestValidateRejectsInvertedTelemetryRange(t *testing.T) {
	cfg := baseConfig()
	cfg.Telemetry.VibRMSMin = 30
	cfg.Telemetry.VibRMSMax = 10
	if err := Validate(cfg); err == nil {
		t.Fatal("expected an error for an inverted telemetry range")
	}
}
