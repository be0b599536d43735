// Package scheduler polls the control plane for pending backup jobs,
// dispatches each to its vendor adapter on a deadline-bounded worker, and
// synthesizes a failure report when a worker overruns or crashes before it
// can report for itself.
package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/celebigilfatih/netdevworker/internal/adapter"
	"github.com/celebigilfatih/netdevworker/internal/config"
	"github.com/celebigilfatih/netdevworker/internal/controlplane"
	"github.com/celebigilfatih/netdevworker/internal/model"
	"github.com/celebigilfatih/netdevworker/internal/runner"
	"github.com/celebigilfatih/netdevworker/pkg/util"
)

// Scheduler runs one job-processing tick against a control plane.
type Scheduler struct {
	CP      *controlplane.Client
	RootDir string

	// AdapterLookup resolves a vendor tag to an Adapter. Defaults to
	// adapter.ByVendor; overridable in tests.
	AdapterLookup func(vendor string) (adapter.Adapter, bool)
}

func New(cp *controlplane.Client, rootDir string) *Scheduler {
	return &Scheduler{CP: cp, RootDir: rootDir, AdapterLookup: adapter.ByVendor}
}

// RunOnce fetches pending jobs, dedups by deviceId, and dispatches each
// retained job to its vendor adapter under a per-job deadline.
func (s *Scheduler) RunOnce(defaultTimeoutSec int) {
	jobs, err := s.CP.FetchPendingJobs()
	if err != nil {
		util.WithField("error", err).Warn("failed to fetch pending jobs, treating tick as empty")
		jobs = nil
	}

	retained := dedupByDeviceID(jobs)
	for _, job := range retained {
		s.dispatch(job, defaultTimeoutSec)
	}
}

// dedupByDeviceID retains the first job per deviceId in response order and
// drops any job missing a deviceId.
func dedupByDeviceID(jobs []model.Job) []model.Job {
	seen := make(map[string]bool, len(jobs))
	out := make([]model.Job, 0, len(jobs))
	for _, j := range jobs {
		if j.DeviceID == "" || seen[j.DeviceID] {
			continue
		}
		seen[j.DeviceID] = true
		out = append(out, j)
	}
	return out
}

func (s *Scheduler) dispatch(job model.Job, defaultTimeoutSec int) {
	log := util.WithExecution(job.ExecutionID).WithField("device_id", job.DeviceID)

	if err := s.CP.SetJobStatus(job.ExecutionID, "running"); err != nil {
		log.WithField("error", err).Warn("failed to mark job running")
		s.synthesizeFailure(job, job.Vendor, err.Error())
		return
	}

	a, ok := s.AdapterLookup(job.Vendor)
	if !ok {
		if err := s.CP.SetJobStatus(job.ExecutionID, "skipped"); err != nil {
			log.WithField("error", err).Warn("failed to mark job skipped")
		}
		return
	}

	_ = s.CP.ReportStep(job.DeviceID, job.ExecutionID, "automation_dispatch", "ok", "", map[string]interface{}{"vendor": job.Vendor})

	device := model.DeviceConnectionInfo{
		DeviceID:  job.DeviceID,
		TenantID:  job.TenantID,
		Hostname:  job.Hostname,
		IPAddress: stripMask(job.MgmtIP),
		Port:      job.SSHPort,
		Username:  job.Username,
		Password:  job.Password,
		Secret:    job.Secret,
		Timeout:   defaultTimeoutSec,
	}

	deadline := time.Duration(device.Timeout)*time.Second + 5*time.Second
	done := make(chan struct{})

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.synthesizeFailure(job, a.Vendor(), fmt.Sprintf("%v", r))
			}
			close(done)
		}()
		runner.Run(s.CP, a, device, s.RootDir, "", job.ExecutionID)
	}()

	select {
	case <-done:
	case <-time.After(deadline):
		s.synthesizeFailure(job, a.Vendor(), "Backup timed out")
	}
}

// synthesizeFailure posts the scheduler's own error step + failure result
// for a job whose worker overran its deadline or crashed before reporting
// for itself. The worker's own late completion may still race this report;
// the control plane is expected to be idempotent over executionId.
func (s *Scheduler) synthesizeFailure(job model.Job, vendor, detail string) {
	_ = s.CP.ReportStep(job.DeviceID, job.ExecutionID, "error", "failed", detail, nil)
	result := model.BackupResult{
		DeviceID:     job.DeviceID,
		TenantID:     job.TenantID,
		ExecutionID:  job.ExecutionID,
		Vendor:       vendor,
		Success:      false,
		ErrorMessage: detail,
	}
	result.BackupTimestamp = timeNowUTC()
	_ = s.CP.ReportBackupResult(result)
}

func timeNowUTC() time.Time { return time.Now().UTC() }

// stripMask trims a "/mask" CIDR suffix, if present, leaving the bare host.
func stripMask(mgmtIP string) string {
	if idx := strings.IndexByte(mgmtIP, '/'); idx >= 0 {
		return mgmtIP[:idx]
	}
	return mgmtIP
}

// Loop runs RunOnce every interval until stopCh is closed, backing off 5s
// on any panic surfaced from a tick.
func Loop(s *Scheduler, cfg config.SchedulerConfig, stopCh <-chan struct{}) {
	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					util.WithField("error", r).Error("unhandled error in scheduler tick")
					time.Sleep(5 * time.Second)
				}
			}()
			s.RunOnce(cfg.DeviceTimeoutSec)
		}()

		select {
		case <-stopCh:
			return
		case <-time.After(time.Duration(cfg.IntervalSeconds) * time.Second):
		}
	}
}
