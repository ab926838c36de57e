// Package pgaudit is an optional long-term Postgres mirror of the audit
// CSV stream, enabled by DATABASE_URL. The CSV sink remains the primary
// durable sink; this adapter fans out the same rows to
// Postgres for trend queries the CSV format doesn't serve well.
package pgaudit

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/rotem-industrial/pump-pdm/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS telemetry_audit (
	id SERIAL PRIMARY KEY,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	timestamp TEXT NOT NULL,
	risk_score DOUBLE PRECISION NOT NULL,
	status TEXT NOT NULL,
	vib_rms DOUBLE PRECISION NOT NULL,
	vib_crest DOUBLE PRECISION NOT NULL,
	vib_kurtosis DOUBLE PRECISION NOT NULL,
	current DOUBLE PRECISION NOT NULL,
	pressure DOUBLE PRECISION NOT NULL,
	cavitation_index DOUBLE PRECISION NOT NULL,
	temp DOUBLE PRECISION NOT NULL,
	temp_delta DOUBLE PRECISION NOT NULL
);
CREATE TABLE IF NOT EXISTS alerts_audit (
	id SERIAL PRIMARY KEY,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	timestamp TEXT NOT NULL,
	pump_id TEXT NOT NULL,
	status TEXT NOT NULL,
	anomaly_probability DOUBLE PRECISION NOT NULL,
	sensor_status TEXT NOT NULL
);`

// Mirror writes telemetry/alert rows to Postgres in addition to whatever
// the caller's primary sink does. It does not implement retry/backoff
// itself — callers wrap it the same way csvaudit wraps its file writes,
// or simply tolerate a dropped mirror row since CSV remains authoritative.
type Mirror struct {
	db *sqlx.DB
}

// Open connects to dsn, runs the mirror schema migration, and returns a
// ready Mirror.
func Open(dsn string) (*Mirror, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres audit mirror: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate postgres audit mirror: %w", err)
	}
	return &Mirror{db: db}, nil
}

// WriteTelemetry implements ports.AuditSink.
func (m *Mirror) WriteTelemetry(ctx context.Context, row ports.TelemetryAuditRow) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO telemetry_audit
			(timestamp, risk_score, status, vib_rms, vib_crest, vib_kurtosis,
			 current, pressure, cavitation_index, temp, temp_delta)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		row.Timestamp, row.RiskScore, row.Status, row.VibRMS, row.VibCrest, row.VibKurtosis,
		row.Current, row.Pressure, row.CavitationIndex, row.Temp, row.TempDelta,
	)
	if err != nil {
		return fmt.Errorf("insert telemetry audit row: %w", err)
	}
	return nil
}

// WriteAlert implements ports.AuditSink.
func (m *Mirror) WriteAlert(ctx context.Context, row ports.AlertAuditRow) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO alerts_audit (timestamp, pump_id, status, anomaly_probability, sensor_status)
		VALUES ($1,$2,$3,$4,$5)`,
		row.Timestamp, row.PumpID, row.Status, row.AnomalyProbability, row.SensorStatus,
	)
	if err != nil {
		return fmt.Errorf("insert alert audit row: %w", err)
	}
	return nil
}

// Close implements ports.AuditSink.
func (m *Mirror) Close() error {
	return m.db.Close()
}

// FanOut combines a primary sink (the CSV writer) with an optional
// Postgres mirror: writes go to both, but only the primary's error is
// returned (the mirror's ordering relative to the primary is not
// guaranteed).
type FanOut struct {
	Primary ports.AuditSink
	Mirror  *Mirror
}

func (f FanOut) WriteTelemetry(ctx context.Context, row ports.TelemetryAuditRow) error {
	if f.Mirror != nil {
		_ = f.Mirror.WriteTelemetry(ctx, row)
	}
	return f.Primary.WriteTelemetry(ctx, row)
}

func (f FanOut) WriteAlert(ctx context.Context, row ports.AlertAuditRow) error {
	if f.Mirror != nil {
		_ = f.Mirror.WriteAlert(ctx, row)
	}
	return f.Primary.WriteAlert(ctx, row)
}

func (f FanOut) Close() error {
	if f.Mirror != nil {
		_ = f.Mirror.Close()
	}
	return f.Primary.Close()
}
