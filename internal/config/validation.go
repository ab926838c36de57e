package config

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rotem-industrial/pump-pdm/internal/errors"
)

var structValidator = validator.New()

// Validate checks the critical thresholds for range and ordering invariants,
// returning a ConfigInvalid error on the first violation found. It does not
// check artifact presence; call ValidateArtifacts separately once the
// caller has decided whether a missing model is fatal (STRICT_ARTIFACT_CHECK).
func Validate(cfg *Config) error {
	if err := structValidator.Struct(cfg); err != nil {
		return errors.ConfigInvalid(strings.TrimSpace(err.Error()))
	}

	probabilities := map[string]float64{
		"PROB_CRITICAL":                   cfg.Thresholds.ProbCritical,
		"PROB_WARNING":                     cfg.Thresholds.ProbWarning,
		"PROB_HYSTERESIS_EXIT_WARNING":     cfg.Thresholds.ProbHysteresisExitWarning,
		"PROB_CRITICAL_STARTUP":           cfg.Thresholds.ProbCriticalStartup,
		"SMOOTH_ALPHA_RISING":              cfg.Smoothing.AlphaRising,
		"SMOOTH_ALPHA_FALLING":             cfg.Smoothing.AlphaFalling,
		"SMOOTH_ALPHA_VERY_HIGH":           cfg.Smoothing.AlphaVeryHigh,
		"SMOOTH_HIGH_RISK_THRESHOLD":       cfg.Smoothing.HighRiskThreshold,
		"PROB_MIN_FOR_VIBRATION_WARNING":   cfg.Thresholds.ProbMinForVibrationWarning,
	}
	for key, v := range probabilities {
		if v < 0 || v > 1 {
			return errors.ConfigInvalid(key + " must be in [0, 1]")
		}
	}

	positiveInts := map[string]int{
		"FEATURE_WINDOW_SIZE":              cfg.Window.FeatureWindowSize,
		"SMOOTHING_WINDOW_SIZE":            cfg.Window.SmoothingWindowSize,
		"RISK_HISTORY_SIZE":                cfg.Window.RiskHistorySize,
		"STARTUP_ITERATIONS":               cfg.Window.StartupIterations,
		"MQTT_BATCH_SIZE":                  cfg.MQTT.BatchSize,
		"INFERENCE_RETRY_ATTEMPTS":         cfg.Smoothing.InferenceRetryAttempts,
		"CRITICAL_EXIT_MIN_LOW_VIB_STEPS":  cfg.Window.CriticalExitMinLowVibSteps,
	}
	for key, v := range positiveInts {
		if v < 1 {
			return errors.ConfigInvalid(key + " must be a positive integer")
		}
	}

	r := cfg.Rules
	if r.VibrationHysteresisExitWarningMMPS >= r.VibrationWarningEntryMMPS {
		return errors.ConfigInvalid("VIBRATION_HYSTERESIS_EXIT_WARNING_MMPS must be < VIBRATION_WARNING_ENTRY_MMPS")
	}
	if r.VibrationHysteresisExitCriticalMMPS >= r.VibrationCriticalMMPS {
		return errors.ConfigInvalid("VIBRATION_HYSTERESIS_EXIT_CRITICAL_MMPS must be < VIBRATION_CRITICAL_MMPS")
	}
	if r.VibrationCriticalMMPS > r.VibrationInterlockMMPS {
		return errors.ConfigInvalid("VIBRATION_CRITICAL_MMPS must be <= VIBRATION_INTERLOCK_MMPS")
	}

	t := cfg.Telemetry
	ranges := [][3]interface{}{
		{"TELEMETRY_VIB_RMS", t.VibRMSMin, t.VibRMSMax},
		{"TELEMETRY_PRESSURE", t.PressureMin, t.PressureMax},
		{"TELEMETRY_TEMP", t.TempMin, t.TempMax},
		{"TELEMETRY_CURRENT", t.CurrentMin, t.CurrentMax},
		{"TELEMETRY_CAVITATION_INDEX", t.CavitationIndexMin, t.CavitationIndexMax},
	}
	for _, r := range ranges {
		name := r[0].(string)
		lo := r[1].(float64)
		hi := r[2].(float64)
		if lo >= hi {
			return errors.ConfigInvalid(name + "_MIN must be < " + name + "_MAX")
		}
	}

	if cfg.Identity.PumpID == "" {
		return errors.ConfigInvalid("PUMP_ID is required")
	}

	return nil
}

// ValidateArtifacts ensures the model and scaler files exist on disk. When
// STRICT_ARTIFACT_CHECK is false the caller is expected to swallow this error
// and run the predictor in UNKNOWN mode instead of failing startup.
func ValidateArtifacts(cfg *Config) error {
	for _, p := range []string{cfg.Paths.ModelPath, cfg.Paths.ScalerPath} {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err != nil || info.IsDir() {
			return errors.ArtifactError("artifact does not exist or is not a file: "+p, err)
		}
	}
	return nil
}
