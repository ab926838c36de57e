package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rotem-industrial/pump-pdm/domain/core"
	"github.com/rotem-industrial/pump-pdm/domain/telemetry"
	"github.com/rotem-industrial/pump-pdm/domain/twin"
	"github.com/rotem-industrial/pump-pdm/domain/verdict"
	"github.com/rotem-industrial/pump-pdm/internal/config"
	"github.com/rotem-industrial/pump-pdm/internal/dsp"
	"github.com/rotem-industrial/pump-pdm/internal/features"
	"github.com/rotem-industrial/pump-pdm/internal/predictor"
	"github.com/rotem-industrial/pump-pdm/internal/validation"
	"github.com/rotem-industrial/pump-pdm/ports"
)

// Options configures one simulator run (cmd/simulator's flags).
type Options struct {
	Mode     string // "normal" or "failure"
	Interval time.Duration
	Count    int // 0 = infinite
	Scenario twin.Scenario
	Seed     int64
}

// Simulator drives the production pipeline end-to-end through the
// digital twin, exercising shutdown/cooldown exactly as a live pump would.
type Simulator struct {
	cfg       *config.Config
	twin      *Twin
	predictor *predictor.Predictor
	dspProc   *dsp.Processor
	extractor *features.Extractor
	shutdown  *ShutdownTracker
	broker    ports.Broker
	audit     ports.AuditSink
	notifier  ports.Notifier
	logger    *zap.Logger
}

// New constructs a Simulator for the given pump, wiring the same
// predictor/feature/DSP stack the production ingest loop uses.
func New(cfg *config.Config, pumpID core.PumpID, broker ports.Broker, audit ports.AuditSink, notifier ports.Notifier, logger *zap.Logger, opts Options) (*Simulator, error) {
	pred, err := predictor.New(cfg, pumpID)
	if err != nil {
		return nil, err
	}
	proc, err := dsp.NewProcessor(cfg.DSP.ButterOrder, cfg.DSP.ButterCutoff, cfg.DSP.SampleRateHz,
		cfg.DSP.UseISOBandForZones, cfg.DSP.ISOBandOrder, cfg.DSP.ISOBandLowHz, cfg.DSP.ISOBandHighHz)
	if err != nil {
		return nil, err
	}

	tw := NewTwin(opts.Seed, cfg.Rules)
	if opts.Scenario != twin.ScenarioNone {
		tw.ForceScenario(opts.Scenario)
	}
	if opts.Mode == "failure" && opts.Scenario == twin.ScenarioNone {
		tw.ForceScenario(twin.ScenarioCavitation)
	}

	return &Simulator{
		cfg: cfg, twin: tw, predictor: pred, dspProc: proc,
		extractor: features.NewExtractor(), shutdown: NewShutdownTracker(cfg.Rules),
		broker: broker, audit: audit, notifier: notifier, logger: logger,
	}, nil
}

// Run drives ticks until ctx is cancelled or opts.Count ticks have run
// (0 means infinite), sleeping opts.Interval (default SimulatorTickSec)
// between ticks.
func (s *Simulator) Run(ctx context.Context, pumpID core.PumpID, opts Options) error {
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Duration(s.cfg.Rules.SimulatorTickSec * float64(time.Second))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ticks := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.step(ctx, pumpID)
			ticks++
			if opts.Count > 0 && ticks >= opts.Count {
				return nil
			}
		}
	}
}

func (s *Simulator) step(ctx context.Context, pumpID core.PumpID) {
	now := core.Now()

	if s.twin.InCooldown() {
		s.twin.TickCooldown()
		s.logger.Info("cooldown tick, pipeline skipped")
		return
	}

	window, _ := s.twin.Tick(s.cfg.Window.FeatureWindowSize, now)

	samples, err := validation.Batch(s.cfg.Telemetry, window)
	if err != nil {
		s.logger.Warn("simulated batch failed validation", zap.Error(err))
		return
	}

	vibWindow := make([]float64, len(samples))
	for i, smp := range samples {
		vibWindow[i] = smp.VibRMS
	}
	var isoVibRMS *float64
	if rms, ok := s.dspProc.ISOBandRMS(vibWindow); ok {
		isoVibRMS = &rms
	}

	fv := s.extractor.Extract(samples)
	result := s.predictor.Step(ctx, predictor.Input{Window: samples, Features: fv, ISOVibRMS: isoVibRMS})

	s.publish(ctx, pumpID, result)

	fire, cause := s.shutdown.Evaluate(result.Verdict, now.Time())
	if fire {
		s.fireShutdown(pumpID, samples, cause, result)
	}
}

func (s *Simulator) publish(ctx context.Context, pumpID core.PumpID, result predictor.Result) {
	v := result.Verdict
	s.logger.Info("simulated tick",
		zap.String("status", string(v.Status)),
		zap.Float64("display_prob", v.SmoothedProb),
		zap.String("trip_cause", string(v.TripCause)),
		zap.Float64("health", s.twin.Health()),
	)

	payload, _ := json.Marshal(map[string]interface{}{
		"pump_id":             pumpID.String(),
		"status":              v.Status,
		"anomaly_probability": v.SmoothedProb,
		"sensor_health":       v.SensorHealth,
		"timestamp":           v.At.String(),
	})
	_ = s.broker.Publish(ctx, s.cfg.MQTT.TopicAlerts, payload)

	isAlert := v.Status == verdict.StatusWarning || v.Status == verdict.StatusCritical

	if s.audit != nil {
		_ = s.audit.WriteTelemetry(ctx, ports.TelemetryAuditRow{
			Timestamp: v.At.String(), RiskScore: v.SmoothedProb, Status: v.Status,
			VibRMS: result.SmoothedRow.VibRMS(), VibCrest: result.SmoothedRow.VibCrest(),
			VibKurtosis: result.SmoothedRow.VibKurtosis(), Current: result.SmoothedRow.Current(),
			Pressure: result.SmoothedRow.Pressure(), CavitationIndex: result.SmoothedRow.CavitationIndex(),
			Temp: result.SmoothedRow.Temp(), TempDelta: result.SmoothedRow.TempDelta(),
		})
		if isAlert {
			_ = s.audit.WriteAlert(ctx, ports.AlertAuditRow{
				Timestamp: v.At.String(), PumpID: pumpID.String(), Status: v.Status,
				AnomalyProbability: v.SmoothedProb, SensorStatus: v.SensorHealth,
			})
		}
	}

	if s.notifier != nil && isAlert {
		msg := fmt.Sprintf("[%s] pump=%s status=%s prob=%.2f", v.At.String(), pumpID.String(), v.Status, v.SmoothedProb)
		_ = s.notifier.Notify(ctx, msg)
	}
}

// fireShutdown logs the shutdown banner, writes the incident report with
// real sensor means (never zeros), resets the twin and predictor, and
// arms any required cooldown .
func (s *Simulator) fireShutdown(pumpID core.PumpID, window []telemetry.Sample, cause verdict.TripCause, result predictor.Result) {
	mean := MeanSample(window)
	cooldown := s.shutdown.CooldownFor(cause)

	s.logger.Warn("=== SHUTDOWN ===",
		zap.String("pump_id", pumpID.String()),
		zap.String("trip_cause", string(cause)),
		zap.Int("cooldown_ticks", cooldown),
	)

	inc := Incident{
		ID: core.NewIncidentID(), PumpID: pumpID, At: time.Now(),
		TripCause: cause, Reason: firstOrEmpty(result.Verdict.Messages),
		SensorMean: mean, Health: s.twin.Health(), CooldownTicks: cooldown,
	}
	if path, err := WriteReport(s.cfg.Paths.IncidentReportDir, inc); err != nil {
		s.logger.Warn("failed to write incident report", zap.Error(err))
	} else {
		s.logger.Info("incident report written", zap.String("path", path))
	}

	s.predictor.Reset()
	s.twin.Shutdown(cooldown)
}

func firstOrEmpty(msgs []string) string {
	if len(msgs) == 0 {
		return ""
	}
	return msgs[0]
}
