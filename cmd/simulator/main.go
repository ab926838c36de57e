// Command simulator drives the digital twin (C8) through the production
// decision pipeline without a live pump, supporting a forced single
// scenario for demoing one failure mode at a time.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rotem-industrial/pump-pdm/adapters/csvaudit"
	"github.com/rotem-industrial/pump-pdm/adapters/notify"
	"github.com/rotem-industrial/pump-pdm/domain/core"
	"github.com/rotem-industrial/pump-pdm/domain/twin"
	"github.com/rotem-industrial/pump-pdm/internal/config"
	"github.com/rotem-industrial/pump-pdm/internal/logging"
	"github.com/rotem-industrial/pump-pdm/internal/rules"
	"github.com/rotem-industrial/pump-pdm/internal/simulator"
	"github.com/rotem-industrial/pump-pdm/ports"
)

// loopbackBroker satisfies ports.Broker without any network transport,
// so the simulator can run without a broker connection; published
// payloads are discarded.
type loopbackBroker struct{}

func (loopbackBroker) Subscribe(context.Context, string, func([]byte)) error { return nil }
func (loopbackBroker) Publish(context.Context, string, []byte) error         { return nil }
func (loopbackBroker) Connected() bool                                      { return true }
func (loopbackBroker) Close() error                                         { return nil }

var _ ports.Broker = loopbackBroker{}

func main() {
	var mode, scenarioName string
	var interval time.Duration
	var count int
	var seed int64

	cmd := &cobra.Command{
		Use:   "simulator",
		Short: "Drive the digital twin through the production decision pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), mode, scenarioName, interval, count, seed)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "normal", "normal|failure")
	cmd.Flags().StringVar(&scenarioName, "scenario", "", "force a single scenario: DEBRIS_IMPACT|DEGRADATION|CHOKED|AIR_INGESTION|CAVITATION|VIB_INTERLOCK")
	cmd.Flags().DurationVar(&interval, "interval", 0, "tick interval, default SIMULATOR_TICK_SEC")
	cmd.Flags().IntVar(&count, "count", 0, "number of ticks to run, 0 = infinite")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(parentCtx context.Context, mode, scenarioName string, interval time.Duration, count int, seed int64) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	rules.Bind(cfg.Window.CriticalExitMinLowVibSteps)

	logger, err := logging.New("simulator", cfg.Paths.AppStatusLogPath)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(parentCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pumpID, err := core.ParsePumpID(cfg.Identity.PumpID)
	if err != nil {
		return err
	}

	audit, err := csvaudit.New(cfg.Paths.TelemetryAuditCSVPath, cfg.Paths.AlertsAuditCSVPath, logger, nil)
	if err != nil {
		return fmt.Errorf("build audit sink: %w", err)
	}
	defer audit.Close()

	notifier := notify.New(cfg.Telegram)

	opts := simulator.Options{
		Mode:     mode,
		Interval: interval,
		Count:    count,
		Scenario: twin.Scenario(scenarioName),
		Seed:     seed,
	}

	sim, err := simulator.New(cfg, pumpID, loopbackBroker{}, audit, notifier, logger, opts)
	if err != nil {
		return fmt.Errorf("build simulator: %w", err)
	}

	logger.Info("simulator started", zap.String("mode", mode), zap.String("scenario", scenarioName))
	return sim.Run(ctx, pumpID, opts)
}
