// Command healthcheck validates configuration and model artifacts
// without starting the engine, exiting 0 when everything required to
// run is in place and 1 otherwise — for container/orchestrator probes.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rotem-industrial/pump-pdm/internal/config"
)

func main() {
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Validate configuration and artifacts, exit 0/1",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config invalid: %v\n", err)
		os.Exit(1)
	}

	if err := config.ValidateArtifacts(cfg); err != nil {
		if cfg.StrictArtifactCheck {
			fmt.Fprintf(os.Stderr, "artifacts invalid: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("warning: artifacts missing, engine would run in UNKNOWN mode: %v\n", err)
	}

	fmt.Println("ok")
	return nil
}
