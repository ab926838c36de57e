// Command engine runs the live predictive-maintenance pipeline: it
// connects to the MQTT broker, validates and buffers telemetry, runs
// the decision pipeline on every batch, and serves health/metrics over
// HTTP. The ingest loop (which also runs the silence check), the HTTP
// server and the shutdown watcher run under a shared errgroup; the
// durable-audit writer drains its queue on its own goroutine.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rotem-industrial/pump-pdm/adapters/csvaudit"
	"github.com/rotem-industrial/pump-pdm/adapters/mqttbroker"
	"github.com/rotem-industrial/pump-pdm/adapters/notify"
	"github.com/rotem-industrial/pump-pdm/adapters/pgaudit"
	"github.com/rotem-industrial/pump-pdm/adapters/redisstate"
	"github.com/rotem-industrial/pump-pdm/domain/core"
	"github.com/rotem-industrial/pump-pdm/internal/config"
	"github.com/rotem-industrial/pump-pdm/internal/dsp"
	"github.com/rotem-industrial/pump-pdm/internal/ingest"
	"github.com/rotem-industrial/pump-pdm/internal/logging"
	"github.com/rotem-industrial/pump-pdm/internal/metrics"
	"github.com/rotem-industrial/pump-pdm/internal/predictor"
	"github.com/rotem-industrial/pump-pdm/internal/rules"
	"github.com/rotem-industrial/pump-pdm/ports"
)

func main() {
	cmd := &cobra.Command{
		Use:   "engine",
		Short: "Run the pump predictive-maintenance engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(parentCtx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	rules.Bind(cfg.Window.CriticalExitMinLowVibSteps)

	logger, err := logging.New("engine", cfg.Paths.AppStatusLogPath)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	if err := config.ValidateArtifacts(cfg); err != nil {
		if cfg.StrictArtifactCheck {
			return fmt.Errorf("artifact validation: %w", err)
		}
		logger.Warn("artifacts missing, running in UNKNOWN mode", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(parentCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pumpID, err := core.ParsePumpID(cfg.Identity.PumpID)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry, pumpID.String())

	audit, err := csvaudit.New(cfg.Paths.TelemetryAuditCSVPath, cfg.Paths.AlertsAuditCSVPath, logger, m)
	if err != nil {
		return fmt.Errorf("build audit sink: %w", err)
	}
	defer audit.Close()

	var auditSink ports.AuditSink = audit
	if cfg.Database.Enabled {
		mirror, err := pgaudit.Open(cfg.Database.URL)
		if err != nil {
			logger.Warn("postgres audit mirror unavailable, continuing with CSV only", zap.Error(err))
		} else {
			defer mirror.Close()
			auditSink = pgaudit.FanOut{Primary: audit, Mirror: mirror}
		}
	}

	var store ports.StateStore
	if cfg.Redis.Enabled {
		s, err := redisstate.New(ctx, cfg.Redis.Addr)
		if err != nil {
			logger.Warn("redis state store unavailable, predictor state will not survive restarts", zap.Error(err))
		} else {
			store = s
		}
	}

	notifier := notify.New(cfg.Telegram)

	broker, err := mqttbroker.New(ctx, cfg, fmt.Sprintf("pump-pdm-engine-%s", pumpID.String()), logger, m)
	if err != nil {
		return fmt.Errorf("connect broker: %w", err)
	}
	defer broker.Close()

	dspProc, err := dsp.NewProcessor(cfg.DSP.ButterOrder, cfg.DSP.ButterCutoff, cfg.DSP.SampleRateHz,
		cfg.DSP.UseISOBandForZones, cfg.DSP.ISOBandOrder, cfg.DSP.ISOBandLowHz, cfg.DSP.ISOBandHighHz)
	if err != nil {
		return fmt.Errorf("build dsp processor: %w", err)
	}

	pred, err := predictor.New(cfg, pumpID)
	if err != nil {
		return fmt.Errorf("build predictor: %w", err)
	}
	if store != nil {
		if err := pred.WithStateStore(ctx, store); err != nil {
			logger.Warn("predictor state restore failed, starting cold", zap.Error(err))
		}
	}

	loop := ingest.New(cfg, pumpID, dspProc, pred, broker, auditSink, notifier, m, logger)

	mux := chi.NewRouter()
	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if broker.Connected() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("broker disconnected"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("metrics server listening", zap.String("addr", cfg.Metrics.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return server.Shutdown(context.Background())
	})

	logger.Info("engine started", zap.String("pump_id", pumpID.String()))
	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("engine stopped with error", zap.Error(err))
		return err
	}
	logger.Info("engine stopped")
	return nil
}
