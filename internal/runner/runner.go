// Package runner drives one backup attempt end to end: fetch the running
// configuration through a vendor adapter, persist it to the config store,
// and report the outcome to the control plane.
package runner

import (
	"time"

	"github.com/celebigilfatih/netdevworker/internal/adapter"
	"github.com/celebigilfatih/netdevworker/internal/controlplane"
	"github.com/celebigilfatih/netdevworker/internal/model"
	"github.com/celebigilfatih/netdevworker/internal/store"
	"github.com/celebigilfatih/netdevworker/pkg/util"
)

// Run executes one backup attempt for device against the given adapter,
// persisting the result under rootDir and reporting every step plus the
// final BackupResult to cp. It always returns a BackupResult — success or
// failure — and reports it exactly once.
func Run(cp *controlplane.Client, a adapter.Adapter, device model.DeviceConnectionInfo, rootDir, jobID, executionID string) model.BackupResult {
	log := util.WithExecution(executionID)
	ts := time.Now().UTC()

	report := func(stepKey, status, detail string, meta map[string]interface{}) {
		if err := cp.ReportStep(device.DeviceID, executionID, stepKey, status, detail, meta); err != nil {
			log.WithField("step", stepKey).WithField("error", err).Debug("step report failed")
		}
	}

	fail := func(err error) model.BackupResult {
		report("error", "failed", err.Error(), nil)
		result := model.BackupResult{
			DeviceID:        device.DeviceID,
			TenantID:        device.TenantID,
			JobID:           jobID,
			ExecutionID:     executionID,
			Vendor:          a.Vendor(),
			BackupTimestamp: ts,
			Success:         false,
			ErrorMessage:    err.Error(),
		}
		if rerr := cp.ReportBackupResult(result); rerr != nil {
			log.WithField("error", rerr).Warn("failed to report backup result")
		}
		return result
	}

	report("start_automation", "ok", "", map[string]interface{}{"vendor": a.Vendor()})

	config, err := a.FetchRunningConfig(device)
	if err != nil {
		return fail(err)
	}

	report("config_read", "ok", "", map[string]interface{}{"length": len(config)})

	path, sha256Hex, size, err := store.Save(rootDir, device.TenantID, device.DeviceID, ts, config)
	if err != nil {
		return fail(err)
	}
	report("file_write", "ok", "", map[string]interface{}{"path": path, "size": size, "sha256": sha256Hex})

	report("report_ready", "ok", "", map[string]interface{}{"sha256": sha256Hex})

	result := model.BackupResult{
		DeviceID:        device.DeviceID,
		TenantID:        device.TenantID,
		JobID:           jobID,
		ExecutionID:     executionID,
		Vendor:          a.Vendor(),
		BackupTimestamp: ts,
		ConfigPath:      path,
		ConfigSHA256:    sha256Hex,
		ConfigSizeBytes: size,
		Success:         true,
	}
	if err := cp.ReportBackupResult(result); err != nil {
		log.WithField("error", err).Warn("failed to report backup result")
	}
	return result
}
