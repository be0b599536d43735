// Command snmp-poller polls every active device's SNMP agent for a
// liveness/resource heartbeat and inventory, once or in a loop depending on
// SNMP_POLLER_MODE.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/celebigilfatih/netdevworker/internal/config"
	"github.com/celebigilfatih/netdevworker/internal/controlplane"
	"github.com/celebigilfatih/netdevworker/internal/snmp"
	"github.com/celebigilfatih/netdevworker/pkg/util"
	"github.com/celebigilfatih/netdevworker/pkg/version"
)

var jsonLogs bool

var rootCmd = &cobra.Command{
	Use:     "snmp-poller",
	Short:   "Poll active devices over SNMP for heartbeat and inventory",
	Version: version.Info(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonLogs {
			util.SetJSONFormat()
		}

		cfg, err := config.LoadPollerConfig()
		if err != nil {
			return err
		}

		cp := controlplane.New(cfg.APIBaseURL, cfg.APIToken)
		poller := snmp.New(cp, cfg.TimeoutSeconds, cfg.Retries, cfg.BatchLimit)

		if cfg.Mode == "loop" {
			util.Info("snmp poller starting in loop mode")
			for {
				poller.RunOnce()
				time.Sleep(time.Duration(cfg.IntervalSeconds) * time.Second)
			}
		}

		util.Info("snmp poller running one tick")
		poller.RunOnce()
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
