// Command scheduler polls the control plane for pending backup jobs and
// dispatches each to its vendor adapter, once or in a loop depending on
// SCHEDULER_MODE.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/celebigilfatih/netdevworker/internal/config"
	"github.com/celebigilfatih/netdevworker/internal/controlplane"
	"github.com/celebigilfatih/netdevworker/internal/scheduler"
	"github.com/celebigilfatih/netdevworker/pkg/util"
	"github.com/celebigilfatih/netdevworker/pkg/version"
)

var jsonLogs bool

var rootCmd = &cobra.Command{
	Use:     "scheduler",
	Short:   "Dispatch pending backup jobs from the control plane",
	Version: version.Info(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonLogs {
			util.SetJSONFormat()
		}

		cfg, err := config.LoadSchedulerConfig()
		if err != nil {
			return err
		}

		cp := controlplane.New(cfg.APIBaseURL, cfg.APIToken)
		s := scheduler.New(cp, cfg.BackupRootDir)

		if cfg.Mode == "loop" {
			util.Info("scheduler starting in loop mode")
			scheduler.Loop(s, cfg, nil)
			return nil
		}

		util.Info("scheduler running one tick")
		s.RunOnce(cfg.DeviceTimeoutSec)
		return nil
	},
}

func main() {
	rootCmd.Flags().BoolVar(&jsonLogs, "json-logs", false, "emit logs as JSON")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
