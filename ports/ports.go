// Package ports declares the interfaces the decision pipeline depends on
// but never implements itself: durable audit sinks, the telemetry broker,
// and the alert notifier. Concrete implementations live under adapters/.
package ports

import (
	"context"

	"github.com/rotem-industrial/pump-pdm/domain/telemetry"
	"github.com/rotem-industrial/pump-pdm/domain/verdict"
)

// TelemetryAuditRow is one row of the telemetry audit CSV/Postgres mirror.
type TelemetryAuditRow struct {
	Timestamp       string
	RiskScore       float64
	Status          verdict.Status
	VibRMS          float64
	VibCrest        float64
	VibKurtosis     float64
	Current         float64
	Pressure        float64
	CavitationIndex float64
	Temp            float64
	TempDelta       float64
}

// AlertAuditRow is one row of the alerts audit CSV/Postgres mirror.
type AlertAuditRow struct {
	Timestamp          string
	PumpID             string
	Status             verdict.Status
	AnomalyProbability float64
	SensorStatus       string
}

// AuditSink persists telemetry and alert rows durably. Implementations
// must never block the pipeline: adapters/csvaudit, for one, queues rows
// in a bounded channel that its own goroutine drains.
type AuditSink interface {
	WriteTelemetry(ctx context.Context, row TelemetryAuditRow) error
	WriteAlert(ctx context.Context, row AlertAuditRow) error
	Close() error
}

// Broker is the telemetry transport abstraction: subscribe to the raw
// telemetry topic, publish reports and alerts. Both the MQTT adapter and
// the in-process loopback the simulator uses satisfy this.
type Broker interface {
	Subscribe(ctx context.Context, topic string, handler func(payload []byte)) error
	Publish(ctx context.Context, topic string, payload []byte) error
	Connected() bool
	Close() error
}

// Notifier dispatches a human-facing alert (Telegram, etc.) for a
// WARNING/CRITICAL verdict or a "no telemetry" liveness gap. Calls must
// carry their own timeout and never block the pipeline .
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// StateStore optionally persists predictor SmoothingState/last_status
// across restarts, so a restarted engine doesn't lose hysteresis state
// mid-incident (REDIS_ADDR).
type StateStore interface {
	SaveState(ctx context.Context, pumpID string, state []byte) error
	LoadState(ctx context.Context, pumpID string) ([]byte, bool, error)
}

// FeatureSource is implemented by anything that can hand the pipeline a
// ready window of telemetry, such as the live sliding buffer (C7). The
// digital twin (C8) does not implement it; it returns each synthesized
// window from Twin.Tick.
type FeatureSource interface {
	Samples() []telemetry.Sample
}
