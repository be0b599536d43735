// Command backup-worker runs a single backup attempt for one device and
// exits. All configuration is read from the environment (see
// internal/config); there are no command-line flags for device targeting.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/celebigilfatih/netdevworker/internal/adapter"
	"github.com/celebigilfatih/netdevworker/internal/config"
	"github.com/celebigilfatih/netdevworker/internal/controlplane"
	"github.com/celebigilfatih/netdevworker/internal/model"
	"github.com/celebigilfatih/netdevworker/internal/runner"
	"github.com/celebigilfatih/netdevworker/pkg/util"
	"github.com/celebigilfatih/netdevworker/pkg/version"
)

var jsonLogs bool

var rootCmd = &cobra.Command{
	Use:     "backup-worker",
	Short:   "Fetch and store one device's running configuration",
	Version: version.Info(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonLogs {
			util.SetJSONFormat()
		}

		cfg, err := config.LoadBackupWorkerConfig()
		if err != nil {
			return err
		}

		device := model.DeviceConnectionInfo{
			DeviceID:  cfg.Device.DeviceID,
			TenantID:  cfg.Device.TenantID,
			Hostname:  cfg.Device.Hostname,
			IPAddress: cfg.Device.IP,
			Port:      cfg.Device.SSHPort,
			Username:  cfg.Device.Username,
			Password:  cfg.Device.Password,
			Timeout:   cfg.DeviceTimeoutSec,
		}

		vendor := cfg.Device.Vendor
		a, ok := adapter.ByVendor(vendor)
		if !ok {
			a, _ = adapter.ByVendor("fortigate")
		}

		cp := controlplane.New(cfg.APIBaseURL, cfg.APIToken)
		result := runner.Run(cp, a, device, cfg.BackupRootDir, "", cfg.ExecutionID)
		if !result.Success {
			util.WithDevice(device.DeviceID, device.TenantID).WithField("error", result.ErrorMessage).Error("backup failed")
		}
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
