// Package csvaudit implements the durable-logging activity:
// a bounded in-memory queue drained by a single background goroutine
// that appends rows to the telemetry and alerts audit CSVs, retrying
// failed writes with exponential backoff before dropping them.
package csvaudit

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rotem-industrial/pump-pdm/internal/metrics"
	"github.com/rotem-industrial/pump-pdm/ports"
)

const queueCapacity = 1000

var telemetryHeader = []string{
	"timestamp", "risk_score", "status", "vib_rms", "vib_crest", "vib_kurtosis",
	"current", "pressure", "cavitation_index", "temp", "temp_delta",
}

var alertsHeader = []string{
	"timestamp", "pump_id", "status", "anomaly_probability", "sensor_status",
}

type job struct {
	telemetry *ports.TelemetryAuditRow
	alert     *ports.AlertAuditRow
}

// Sink is the CSV-backed ports.AuditSink. It owns the two audit files
// exclusively  and is constructed once at startup.
type Sink struct {
	telemetryPath string
	alertsPath    string
	logger        *zap.Logger
	metrics       *metrics.Metrics

	queue  chan job
	done   chan struct{}
	wg     sync.WaitGroup
	closed sync.Once
}

// New starts the background drain goroutine and returns a Sink ready to
// accept writes. Call Close to drain and stop on process exit.
func New(telemetryPath, alertsPath string, logger *zap.Logger, m *metrics.Metrics) (*Sink, error) {
	if err := ensureHeader(telemetryPath, telemetryHeader); err != nil {
		return nil, err
	}
	if err := ensureHeader(alertsPath, alertsHeader); err != nil {
		return nil, err
	}

	s := &Sink{
		telemetryPath: telemetryPath,
		alertsPath:    alertsPath,
		logger:        logger,
		metrics:       m,
		queue:         make(chan job, queueCapacity),
		done:          make(chan struct{}),
	}
	s.wg.Add(1)
	go s.drain()
	return s, nil
}

func ensureHeader(path string, header []string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create audit csv %s: %w", path, err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	return w.Write(header)
}

// WriteTelemetry enqueues a telemetry row. Queue-full is a non-fatal
// drop with a warning — the core prioritizes liveness over audit
// completeness .
func (s *Sink) WriteTelemetry(ctx context.Context, row ports.TelemetryAuditRow) error {
	return s.enqueue(job{telemetry: &row})
}

// WriteAlert enqueues an alert row.
func (s *Sink) WriteAlert(ctx context.Context, row ports.AlertAuditRow) error {
	return s.enqueue(job{alert: &row})
}

func (s *Sink) enqueue(j job) error {
	select {
	case s.queue <- j:
		return nil
	default:
		s.logger.Warn("durable audit queue full, dropping row")
		if s.metrics != nil {
			s.metrics.DurableDropped.Inc()
		}
		return nil
	}
}

// Close signals the background goroutine to stop, lets it write what is
// already queued, and waits for it to exit. Later enqueues are not
// refused; rows queued after the goroutine exits are never written.
func (s *Sink) Close() error {
	s.closed.Do(func() { close(s.done) })
	s.wg.Wait()
	return nil
}

func (s *Sink) drain() {
	defer s.wg.Done()
	for {
		select {
		case j := <-s.queue:
			s.writeWithRetry(j)
		case <-s.done:
			// Drain whatever is left before exiting: the
			// durable-logger suspends on its queue with a timeout so it
			// can observe shutdown, then drains on the next wakeup.
			for {
				select {
				case j := <-s.queue:
					s.writeWithRetry(j)
				default:
					return
				}
			}
		case <-time.After(500 * time.Millisecond):
			// Periodic wakeup to observe shutdown even when idle.
		}
	}
}

func (s *Sink) writeWithRetry(j job) {
	const maxAttempts = 3
	const baseSec = 0.5

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if j.telemetry != nil {
			err = appendRow(s.telemetryPath, telemetryRowValues(*j.telemetry))
		} else {
			err = appendRow(s.alertsPath, alertRowValues(*j.alert))
		}
		if err == nil {
			return
		}
		if attempt < maxAttempts-1 {
			time.Sleep(time.Duration(baseSec * math.Pow(2, float64(attempt)) * float64(time.Second)))
		}
	}
	s.logger.Warn("durable write failed after retries, dropping row", zap.Error(err))
	if s.metrics != nil {
		s.metrics.DurableDropped.Inc()
	}
}

func appendRow(path string, row []string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit csv %s: %w", path, err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("write audit row: %w", err)
	}
	w.Flush()
	return w.Error()
}

func telemetryRowValues(r ports.TelemetryAuditRow) []string {
	return []string{
		r.Timestamp,
		f4(r.RiskScore), string(r.Status),
		f4(r.VibRMS), f4(r.VibCrest), f4(r.VibKurtosis),
		f4(r.Current), f4(r.Pressure), f4(r.CavitationIndex),
		f4(r.Temp), f4(r.TempDelta),
	}
}

func alertRowValues(r ports.AlertAuditRow) []string {
	return []string{r.Timestamp, r.PumpID, string(r.Status), f4(r.AnomalyProbability), r.SensorStatus}
}

// f4 formats a float to 4 decimal places, matching the round-trip
// precision guarantee for the audit trail
func f4(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
