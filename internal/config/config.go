// Package config centralizes the immutable parameter table for the
// predictive-maintenance engine: zone limits, smoothing coefficients,
// alert message templates, topic names, and storage paths. Config is
// loaded once at process start from environment variables (.env supported
// via godotenv) into a typed struct tree; callers receive values, never a
// dynamic env lookup, so the rule layer never has to tolerate a missing key.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the complete, validated application configuration.
type Config struct {
	Identity            IdentityConfig
	MQTT                MQTTConfig
	TLS                 TLSConfig
	Paths               PathConfig
	Telemetry           TelemetryRanges
	Window              WindowConfig
	DSP                 DSPConfig
	Smoothing           SmoothingConfig
	Thresholds          ThresholdConfig
	Rules               RuleConfig
	Messages            MessageConfig
	Telegram            TelegramConfig
	Database            DatabaseConfig
	Redis               RedisConfig
	Metrics             MetricsConfig
	StrictArtifactCheck bool
	ModelVersion        string
}

// IdentityConfig names the asset this engine instance monitors.
type IdentityConfig struct {
	PumpID    string `validate:"required"`
	SectionID string `validate:"required"`
}

// MQTTConfig holds broker connection settings.
type MQTTConfig struct {
	Broker             string
	Port               int
	UseTLS             bool
	TLSInsecure        bool
	Keepalive          int
	BatchSize          int
	DisconnectAlertSec int
	TopicTelemetry     string
	TopicAlerts        string
	TopicStatus        string
}

// TLSConfig holds TLS client material for the broker connection.
type TLSConfig struct {
	CertDir    string
	CACert     string
	ClientCert string
	ClientKey  string
}

// PathConfig holds filesystem locations for logs, models and audit data.
type PathConfig struct {
	LogDir                string
	ModelPath             string
	ScalerPath            string
	TelemetryAuditCSVPath string
	AlertsAuditCSVPath    string
	AppStatusLogPath      string
	IncidentReportDir     string
}

// TelemetryRanges are the valid sensor ranges enforced by the validator (C2).
type TelemetryRanges struct {
	VibRMSMin, VibRMSMax                   float64
	PressureMin, PressureMax               float64
	TempMin, TempMax                       float64
	CurrentMin, CurrentMax                 float64
	CavitationIndexMin, CavitationIndexMax float64
}

// WindowConfig sizes the sliding buffer and smoothing history.
type WindowConfig struct {
	FeatureWindowSize          int `validate:"gte=1"`
	SmoothingWindowSize        int `validate:"gte=1"`
	RiskHistorySize            int `validate:"gte=1"`
	StartupIterations          int `validate:"gte=1"`
	CriticalExitMinLowVibSteps int `validate:"gte=1"`
}

// DSPConfig parameterizes the Butterworth low-pass and optional ISO band.
type DSPConfig struct {
	SampleRateHz       float64
	ButterOrder        int
	ButterCutoff       float64
	UseISOBandForZones bool
	ISOBandOrder       int
	ISOBandLowHz       float64
	ISOBandHighHz      float64
}

// SmoothingConfig parameterizes the predictor's asymmetric EMA.
type SmoothingConfig struct {
	AlphaRising            float64
	AlphaFalling           float64
	AlphaVeryHigh          float64
	HighRiskThreshold      float64
	InferenceRetryAttempts int
	InferenceRetryBaseSec  float64
}

// ThresholdConfig parameterizes status thresholds on smoothed probability.
type ThresholdConfig struct {
	ProbCritical               float64 `validate:"gte=0,lte=1"`
	ProbCriticalStartup        float64 `validate:"gte=0,lte=1"`
	ProbWarning                float64 `validate:"gte=0,lte=1"`
	ProbHysteresisExitWarning  float64 `validate:"gte=0,lte=1"`
	ProbMinForVibrationWarning float64 `validate:"gte=0,lte=1"`
}

// RuleConfig parameterizes every threshold consumed by the rule engine (C6)
// and the digital-twin shutdown policy (C8).
type RuleConfig struct {
	DebrisImpactCrestMin float64

	CavitationCurrentMinAmp             float64
	CavitationPressureMaxBar            float64
	CavitationVibrationMinMMPS          float64
	CavitationHysteresisExitPressureBar float64

	ChokedCurrentMaxAmp  float64
	ChokedPressureMinBar float64
	ChokedTempMinC       float64

	DegradationCurrentMaxAmp         float64
	DegradationPressureMaxBar        float64
	DegradationHysteresisCurrentAmp  float64
	DegradationHysteresisPressureBar float64

	TempCriticalC float64
	TempWarningC  float64

	OverloadCurrentMinAmp float64

	PressureHighWarningBar float64

	AirIngestionVibCrestMin   float64
	AirIngestionVibRMSMinMMPS float64

	VibrationWarningEntryMMPS           float64
	VibrationCriticalMMPS               float64
	VibrationInterlockMMPS              float64
	VibrationHysteresisExitWarningMMPS  float64
	VibrationHysteresisExitCriticalMMPS float64

	CavitationSustainSec float64
	OvertempSustainTicks int
	OvertempSustainSec   float64
	CooldownTicks        int
	SimulatorTickSec     float64
}

// MessageConfig holds human-readable alert text templates. Templates carry
// {pressure}/{temp}/{current} placeholders substituted with latest values.
type MessageConfig struct {
	MechanicalDamageAlert   string
	CavitationAlert         string
	ChokedAlert             string
	DegradationAlert        string
	TempAlert               string
	TempWarningAlert        string
	OverloadAlert           string
	PressureHighAlert       string
	AirIngestionAlert       string
	VibrationZoneDAlert     string
	VibrationZoneCAlert     string
	VibrationInterlockAlert string
	HighRiskCriticalAlert   string
	ElevatedRiskAlert       string
}

// TelegramConfig holds notifier credentials.
type TelegramConfig struct {
	Token  string
	ChatID string
}

// DatabaseConfig holds the optional Postgres audit mirror DSN.
type DatabaseConfig struct {
	URL     string
	Enabled bool
}

// RedisConfig holds the optional predictor-state persistence address.
type RedisConfig struct {
	Addr    string
	Enabled bool
}

// MetricsConfig holds the HTTP status/metrics server bind address.
type MetricsConfig struct {
	Addr string
}

// Load reads configuration from the environment (and .env, if present) and
// validates it. Returns a ConfigError (via internal/errors) on the first
// failure, per the fail-fast startup contract.
func Load() (*Config, error) {
	_ = godotenv.Load()

	pumpID := getEnvOrDefault("PUMP_ID", "PUMP_01")
	baseDir := getEnvOrDefault("BASE_DIR", ".")
	logDir := getEnvOrDefault("LOG_DIR", filepath.Join(baseDir, "logs"))
	certDir := getEnvOrDefault("CERT_DIR", filepath.Join(baseDir, "certs"))
	modelVersion := getEnvOrDefault("MODEL_VERSION", "v1")

	cfg := &Config{
		ModelVersion:        modelVersion,
		StrictArtifactCheck: getEnvBoolOrDefault("STRICT_ARTIFACT_CHECK", false),
		Identity: IdentityConfig{
			PumpID:    pumpID,
			SectionID: getEnvOrDefault("SECTION_ID", "SECTION_01"),
		},
		MQTT: MQTTConfig{
			Broker:             getEnvOrDefault("MQTT_BROKER", "localhost"),
			Port:               getEnvIntOrDefault("MQTT_PORT", 8883),
			UseTLS:             getEnvBoolOrDefault("MQTT_USE_TLS", true),
			TLSInsecure:        getEnvBoolOrDefault("MQTT_TLS_INSECURE", false),
			Keepalive:          60,
			BatchSize:          getEnvIntOrDefault("MQTT_BATCH_SIZE", 5),
			DisconnectAlertSec: getEnvIntOrDefault("MQTT_DISCONNECT_ALERT_SEC", 90),
			TopicTelemetry:     fmt.Sprintf("pump/monitor/%s/telemetry", pumpID),
			TopicAlerts:        fmt.Sprintf("pump/monitor/%s/alerts", pumpID),
			TopicStatus:        fmt.Sprintf("pump/monitor/%s/status", pumpID),
		},
		TLS: TLSConfig{
			CertDir:    certDir,
			CACert:     filepath.Join(certDir, "ca.crt"),
			ClientCert: filepath.Join(certDir, "client.crt"),
			ClientKey:  filepath.Join(certDir, "client.key"),
		},
		Paths: PathConfig{
			LogDir:                logDir,
			ModelPath:             filepath.Join(baseDir, "models", fmt.Sprintf("classifier_%s.json", modelVersion)),
			ScalerPath:            filepath.Join(baseDir, "models", fmt.Sprintf("scaler_%s.json", modelVersion)),
			TelemetryAuditCSVPath: filepath.Join(logDir, "telemetry_history.csv"),
			AlertsAuditCSVPath:    filepath.Join(logDir, "alerts_history.csv"),
			AppStatusLogPath:      filepath.Join(logDir, "app_status.log"),
			IncidentReportDir:     filepath.Join(logDir, "incidents"),
		},
		Telemetry: TelemetryRanges{
			VibRMSMin: 0, VibRMSMax: 25,
			PressureMin: 0, PressureMax: 15,
			TempMin: -20, TempMax: 120,
			CurrentMin: 0, CurrentMax: 80,
			CavitationIndexMin: 0, CavitationIndexMax: 50,
		},
		Window: WindowConfig{
			FeatureWindowSize:          getEnvIntOrDefault("FEATURE_WINDOW_SIZE", 30),
			SmoothingWindowSize:        getEnvIntOrDefault("SMOOTHING_WINDOW_SIZE", 3),
			RiskHistorySize:            getEnvIntOrDefault("RISK_HISTORY_SIZE", 3),
			StartupIterations:          getEnvIntOrDefault("STARTUP_ITERATIONS", 5),
			CriticalExitMinLowVibSteps: getEnvIntOrDefault("CRITICAL_EXIT_MIN_LOW_VIB_STEPS", 5),
		},
		DSP: DSPConfig{
			SampleRateHz:       1000,
			ButterOrder:        3,
			ButterCutoff:       0.1,
			UseISOBandForZones: getEnvBoolOrDefault("USE_ISO_BAND_FOR_ZONES", false),
			ISOBandOrder:       4,
			ISOBandLowHz:       10,
			ISOBandHighHz:      1000,
		},
		Smoothing: SmoothingConfig{
			AlphaRising:            0.70,
			AlphaFalling:           0.65,
			AlphaVeryHigh:          0.92,
			HighRiskThreshold:      getEnvFloatOrDefault("SMOOTH_HIGH_RISK_THRESHOLD", 0.70),
			InferenceRetryAttempts: getEnvIntOrDefault("INFERENCE_RETRY_ATTEMPTS", 3),
			InferenceRetryBaseSec:  0.5,
		},
		Thresholds: ThresholdConfig{
			ProbCritical:               0.85,
			ProbCriticalStartup:        0.90,
			ProbWarning:                0.60,
			ProbHysteresisExitWarning:  0.25,
			ProbMinForVibrationWarning: 0.15,
		},
		Rules: RuleConfig{
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

			CavitationSustainSec: 10,
			OvertempSustainTicks: 2,
			OvertempSustainSec:   6,
			CooldownTicks:        3,
			SimulatorTickSec:     3,
		},
		Messages: defaultMessages(),
		Telegram: TelegramConfig{
			Token:  os.Getenv("TG_TOKEN"),
			ChatID: os.Getenv("TG_CHAT_ID"),
		},
		Database: DatabaseConfig{
			URL:     os.Getenv("DATABASE_URL"),
			Enabled: os.Getenv("DATABASE_URL") != "",
		},
		Redis: RedisConfig{
			Addr:    os.Getenv("REDIS_ADDR"),
			Enabled: os.Getenv("REDIS_ADDR") != "",
		},
		Metrics: MetricsConfig{
			Addr: getEnvOrDefault("METRICS_ADDR", ":9090"),
		},
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultMessages() MessageConfig {
	return MessageConfig{
		MechanicalDamageAlert:   "MECHANICAL DAMAGE: debris impact or bearing fault suspected - stop and inspect impeller/bearings.",
		CavitationAlert:         "CAVITATION: high current, low suction pressure, elevated vibration - check suction line and NPSH.",
		ChokedAlert:             "CHOKED DISCHARGE: current={current:.1f}A, pressure={pressure:.1f}bar, temp={temp:.1f}C - check downstream valve/blockage.",
		DegradationAlert:        "MAINTENANCE (Zone C): current={current:.1f}A, pressure={pressure:.1f}bar - impeller wear suspected, schedule inspection.",
		TempAlert:               "HIGH TEMPERATURE (Zone D): {temp:.1f}C - inspect cooling and flow rate.",
		TempWarningAlert:        "HIGH TEMPERATURE (Zone C): {temp:.1f}C - inspect cooling and flow rate.",
		OverloadAlert:           "Motor overload: inspect for motor strain.",
		PressureHighAlert:       "High discharge pressure with normal flow - check downstream restriction.",
		AirIngestionAlert:       "AIR INGESTION suspected: elevated crest factor with Zone C vibration - inspect suction seal.",
		VibrationZoneDAlert:     "ISO 10816-3 Zone D vibration - unacceptable, risk of imminent failure.",
		VibrationZoneCAlert:     "ISO 10816-3 Zone C vibration - unsatisfactory for long-term operation.",
		VibrationInterlockAlert: "VIBRATION INTERLOCK: hard protective threshold breached - shutdown required.",
		HighRiskCriticalAlert:   "HIGH RISK: model and rule engine agree on an elevated failure probability.",
		ElevatedRiskAlert:       "Elevated anomaly risk persists - monitor closely before declaring recovery.",
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
