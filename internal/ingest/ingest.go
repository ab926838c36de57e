// Package ingest implements C7: the live telemetry loop. It subscribes
// to the broker, decodes and validates each message into the sliding
// buffer, runs the decision pipeline once per batch cadence, and fans
// the result out to the audit sink, the metrics registry and the
// notifier — all from a single activity, matching the no-internal-parallelism pipeline runner
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rotem-industrial/pump-pdm/domain/core"
	"github.com/rotem-industrial/pump-pdm/domain/telemetry"
	"github.com/rotem-industrial/pump-pdm/domain/verdict"
	"github.com/rotem-industrial/pump-pdm/internal/config"
	"github.com/rotem-industrial/pump-pdm/internal/dsp"
	"github.com/rotem-industrial/pump-pdm/internal/features"
	"github.com/rotem-industrial/pump-pdm/internal/metrics"
	"github.com/rotem-industrial/pump-pdm/internal/predictor"
	"github.com/rotem-industrial/pump-pdm/internal/validation"
	"github.com/rotem-industrial/pump-pdm/ports"
)

// Loop wires the sliding buffer, validator, feature extractor, DSP
// processor and predictor to one pump's broker subscription. It is not
// safe for concurrent use — the broker's message callback and the
// pipeline run both execute on the subscription's single delivery
// goroutine .
type Loop struct {
	cfg    *config.Config
	pumpID core.PumpID

	buffer    *telemetry.SlidingBuffer
	extractor *features.Extractor
	dspProc   *dsp.Processor
	predictor *predictor.Predictor

	broker   ports.Broker
	audit    ports.AuditSink
	notifier ports.Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger

	runsSinceStart int
}

// New constructs a Loop. dspProc and pred are built by the caller so
// cmd/engine and internal/simulator can share the exact same
// construction path for the DSP/predictor stack.
func New(cfg *config.Config, pumpID core.PumpID, dspProc *dsp.Processor, pred *predictor.Predictor,
	broker ports.Broker, audit ports.AuditSink, notifier ports.Notifier, m *metrics.Metrics, logger *zap.Logger) *Loop {
	return &Loop{
		cfg: cfg, pumpID: pumpID,
		buffer:    telemetry.NewSlidingBuffer(cfg.Window.FeatureWindowSize),
		extractor: features.NewExtractor(),
		dspProc:   dspProc,
		predictor: pred,
		broker:    broker, audit: audit, notifier: notifier, metrics: m, logger: logger,
	}
}

// Run subscribes to the telemetry topic and blocks until ctx is
// cancelled, periodically checking for a telemetry silence gap.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.broker.Subscribe(ctx, l.cfg.MQTT.TopicTelemetry, l.onMessage); err != nil {
		return fmt.Errorf("subscribe to telemetry topic: %w", err)
	}

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.checkSilence(ctx)
		}
	}
}

// onMessage is the broker delivery callback: decode, validate, buffer,
// and run the pipeline once the batch cadence is met.
func (l *Loop) onMessage(payload []byte) {
	sample, err := validation.DecodeSample(payload)
	if err != nil {
		l.logger.Warn("telemetry decode rejected", zap.Error(err))
		return
	}

	l.buffer.Push(sample)
	if l.metrics != nil {
		l.metrics.BufferDepth.Set(float64(l.buffer.Len()))
		l.metrics.LastTelemetryAge.Set(0)
	}

	if !l.buffer.Ready(l.cfg.MQTT.BatchSize) {
		return
	}
	l.buffer.ResetCounter()
	l.runPipeline(context.Background())
}

// runPipeline executes C3-C6 once over the current window and
// publishes the resulting verdict. A validation failure here surfaces
// as an OFFLINE/sensor_health report rather than crashing the loop.
func (l *Loop) runPipeline(ctx context.Context) {
	start := time.Now()
	defer func() {
		if l.metrics != nil {
			l.metrics.PipelineRuns.Inc()
			l.metrics.PipelineDuration.Observe(time.Since(start).Seconds())
		}
	}()

	window := append([]telemetry.Sample(nil), l.buffer.Samples()...)
	samples, err := validation.Batch(l.cfg.Telemetry, window)
	if err != nil {
		l.logger.Warn("batch validation rejected", zap.Error(err))
		l.publishOffline(ctx, err.Error())
		return
	}

	fv := l.extractor.Extract(samples)

	vibWindow := make([]float64, len(samples))
	for i, s := range samples {
		vibWindow[i] = s.VibRMS
	}
	denoisedRMS, _ := l.dspProc.Denoise(vibWindow)
	_ = denoisedRMS // low-pass RMS is computed but not passed on; the rules read the feature-window and latest-sample vibration (or the ISO-band RMS)

	var isoVibRMS *float64
	if rms, ok := l.dspProc.ISOBandRMS(vibWindow); ok {
		isoVibRMS = &rms
	}

	isStartup := l.runsSinceStart < l.cfg.Window.StartupIterations
	l.runsSinceStart++

	result := l.predictor.Step(ctx, predictor.Input{
		Window: samples, Features: fv, ISOVibRMS: isoVibRMS, IsStartup: isStartup,
	})

	l.publish(ctx, result)
}

func (l *Loop) publish(ctx context.Context, result predictor.Result) {
	v := result.Verdict
	if l.metrics != nil {
		l.metrics.SetStatus(string(v.Status))
	}
	l.logger.Info("pipeline run",
		zap.String("status", string(v.Status)),
		zap.Float64("display_prob", v.SmoothedProb),
		zap.String("trip_cause", string(v.TripCause)),
	)

	l.publishReport(ctx, v)

	if l.audit != nil {
		_ = l.audit.WriteTelemetry(ctx, ports.TelemetryAuditRow{
			Timestamp: v.At.String(), RiskScore: v.SmoothedProb, Status: v.Status,
			VibRMS: result.SmoothedRow.VibRMS(), VibCrest: result.SmoothedRow.VibCrest(),
			VibKurtosis: result.SmoothedRow.VibKurtosis(), Current: result.SmoothedRow.Current(),
			Pressure: result.SmoothedRow.Pressure(), CavitationIndex: result.SmoothedRow.CavitationIndex(),
			Temp: result.SmoothedRow.Temp(), TempDelta: result.SmoothedRow.TempDelta(),
		})
	}

	isAlert := v.Status == verdict.StatusWarning || v.Status == verdict.StatusCritical
	if isAlert {
		if l.audit != nil {
			_ = l.audit.WriteAlert(ctx, ports.AlertAuditRow{
				Timestamp: v.At.String(), PumpID: l.pumpID.String(), Status: v.Status,
				AnomalyProbability: v.SmoothedProb, SensorStatus: v.SensorHealth,
			})
		}
		if l.notifier != nil {
			msg := fmt.Sprintf("[%s] pump=%s status=%s prob=%.2f", v.At.String(), l.pumpID.String(), v.Status, v.SmoothedProb)
			if len(v.Messages) > 0 {
				msg += " - " + v.Messages[0]
			}
			_ = l.notifier.Notify(ctx, msg)
		}
	}
}

// publishOffline fires when batch validation rejects the window
// (§7 ValidationError, scenario 6): it publishes an OFFLINE report
// carrying the rejection detail as sensor_health, same as a normal
// cycle's report but with no predictor verdict behind it.
func (l *Loop) publishOffline(ctx context.Context, detail string) {
	l.logger.Warn("publishing OFFLINE report", zap.String("detail", detail))
	l.publishReportPayload(ctx, offlineStatus, 0, detail, core.Now())
	if l.notifier != nil {
		_ = l.notifier.Notify(ctx, fmt.Sprintf("pump=%s sensor offline: %s", l.pumpID.String(), detail))
	}
}

// offlineStatus is the report-level status string scenario 6 requires.
// It is not a verdict.Status — the predictor never produces it, only a
// rejected batch that never reaches the predictor does.
const offlineStatus = "OFFLINE"

// publishReport publishes the per-cycle report to the alerts topic,
// in the wire shape {pump_id, status, anomaly_probability, sensor_health,
// timestamp}, regardless of status — the durable alert row and
// notification below are the only things gated on WARNING/CRITICAL.
func (l *Loop) publishReport(ctx context.Context, v verdict.Verdict) {
	l.publishReportPayload(ctx, string(v.Status), v.SmoothedProb, v.SensorHealth, v.At)
}

// publishReportPayload marshals and publishes the {pump_id, status,
// anomaly_probability, sensor_health, timestamp} report shape §6 names,
// shared by the predictor-backed path and the OFFLINE rejection path.
func (l *Loop) publishReportPayload(ctx context.Context, status string, anomalyProbability float64, sensorHealth string, at core.Timestamp) {
	if l.broker == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"pump_id":             l.pumpID.String(),
		"status":              status,
		"anomaly_probability": anomalyProbability,
		"sensor_health":       sensorHealth,
		"timestamp":           at.String(),
	})
	if err != nil {
		return
	}
	_ = l.broker.Publish(ctx, l.cfg.MQTT.TopicAlerts, payload)
	_ = l.broker.Publish(ctx, l.cfg.MQTT.TopicStatus, payload)
}

// checkSilence notifies once per silence gap when no telemetry has
// arrived for MQTT_DISCONNECT_ALERT_SEC, re-arming after the broker
// reconnects (the broker adapter owns the re-arm flag internally).
func (l *Loop) checkSilence(ctx context.Context) {
	type ageReporter interface {
		LastMessageAge() (age time.Duration, ok bool)
	}
	if l.metrics != nil {
		if ar, ok := l.broker.(ageReporter); ok {
			if age, ok := ar.LastMessageAge(); ok {
				l.metrics.LastTelemetryAge.Set(age.Seconds())
			}
		}
	}

	type silenceReporter interface {
		SilentFor() (silent bool, shouldNotify bool)
	}
	sr, ok := l.broker.(silenceReporter)
	if !ok {
		return
	}
	silent, shouldNotify := sr.SilentFor()
	if !silent {
		return
	}
	l.logger.Warn("no telemetry received", zap.Int("disconnect_alert_sec", l.cfg.MQTT.DisconnectAlertSec))
	if shouldNotify && l.notifier != nil {
		_ = l.notifier.Notify(ctx, fmt.Sprintf("pump=%s: no telemetry for %ds", l.pumpID.String(), l.cfg.MQTT.DisconnectAlertSec))
	}
}
