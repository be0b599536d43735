// Package config loads process configuration from environment variables per
// the worker's external interface contract. A missing required variable is a
// fatal *Error — the process has no other configuration surface.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// ErrConfig is the sentinel a config.Error wraps.
var ErrConfig = errors.New("configuration error")

// Error reports a fatal configuration problem detected at process start.
type Error struct {
	Var    string
	Reason string
}

func (e *Error) Error() string {
	if e.Var == "" {
		return fmt.Sprintf("config: %s", e.Reason)
	}
	return fmt.Sprintf("config: %s: %s", e.Var, e.Reason)
}

func (e *Error) Unwrap() error { return ErrConfig }

func newErr(v, reason string) error { return &Error{Var: v, Reason: reason} }

func requireEnv(name string) (string, error) {
	v := os.Getenv(name)
	if v == "" {
		return "", newErr(name, "required environment variable is not set")
	}
	return v, nil
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func envIntOr(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, newErr(name, fmt.Sprintf("expected an integer, got %q", v))
	}
	return n, nil
}

// Common holds the control-plane connection settings shared by every process.
type Common struct {
	APIBaseURL       string
	APIToken         string
	BackupRootDir    string
	DeviceTimeoutSec int
	SimulateBackup   bool
}

func loadCommon() (Common, error) {
	c := Common{}
	c.APIBaseURL = envOr("API_BASE_URL", "http://127.0.0.1:3001")

	token, err := requireEnv("AUTOMATION_SERVICE_TOKEN")
	if err != nil {
		return c, err
	}
	c.APIToken = token

	c.BackupRootDir = envOr("BACKUP_ROOT_DIR", "/data/backups")

	timeout, err := envIntOr("DEVICE_TIMEOUT_SECONDS", 30)
	if err != nil {
		return c, err
	}
	c.DeviceTimeoutSec = timeout

	c.SimulateBackup = os.Getenv("SIMULATE_BACKUP") == "1"
	return c, nil
}

// BackupWorkerConfig configures the single-shot backup-worker process.
type BackupWorkerConfig struct {
	Common
	ExecutionID string
	Device      struct {
		DeviceID string
		TenantID string
		IP       string
		SSHPort  int
		Username string
		Password string
		Hostname string
		Vendor   string
	}
}

// LoadBackupWorkerConfig reads the single-shot runner's env vars (§6).
func LoadBackupWorkerConfig() (BackupWorkerConfig, error) {
	cfg := BackupWorkerConfig{}
	common, err := loadCommon()
	if err != nil {
		return cfg, err
	}
	cfg.Common = common
	cfg.ExecutionID = os.Getenv("EXECUTION_ID")

	deviceID, err := requireEnv("DEVICE_ID")
	if err != nil {
		return cfg, err
	}
	cfg.Device.DeviceID = deviceID

	tenantID, err := requireEnv("TENANT_ID")
	if err != nil {
		return cfg, err
	}
	cfg.Device.TenantID = tenantID

	ip, err := requireEnv("DEVICE_IP")
	if err != nil {
		return cfg, err
	}
	cfg.Device.IP = ip

	port, err := envIntOr("DEVICE_SSH_PORT", 22)
	if err != nil {
		return cfg, err
	}
	cfg.Device.SSHPort = port

	username, err := requireEnv("DEVICE_USERNAME")
	if err != nil {
		return cfg, err
	}
	cfg.Device.Username = username

	password, err := requireEnv("DEVICE_PASSWORD")
	if err != nil {
		return cfg, err
	}
	cfg.Device.Password = password

	cfg.Device.Hostname = os.Getenv("DEVICE_HOSTNAME")
	cfg.Device.Vendor = envOr("DEVICE_VENDOR", "fortigate")
	return cfg, nil
}

// SchedulerConfig configures the Job Scheduler process.
type SchedulerConfig struct {
	Common
	Mode            string // "once" or "loop"
	IntervalSeconds int
}

// LoadSchedulerConfig reads the scheduler's env vars.
func LoadSchedulerConfig() (SchedulerConfig, error) {
	cfg := SchedulerConfig{}
	common, err := loadCommon()
	if err != nil {
		return cfg, err
	}
	cfg.Common = common
	cfg.Mode = envOr("SCHEDULER_MODE", "once")
	interval, err := envIntOr("SCHEDULER_INTERVAL_SECONDS", 30)
	if err != nil {
		return cfg, err
	}
	cfg.IntervalSeconds = interval
	return cfg, nil
}

// PollerConfig configures the SNMP Poller process.
type PollerConfig struct {
	Common
	Mode            string // "once" or "loop"
	IntervalSeconds int
	TimeoutSeconds  int
	Retries         int
	BatchLimit      int
}

// LoadPollerConfig reads the SNMP poller's env vars.
func LoadPollerConfig() (PollerConfig, error) {
	cfg := PollerConfig{}
	common, err := loadCommon()
	if err != nil {
		return cfg, err
	}
	cfg.Common = common
	cfg.Mode = envOr("SNMP_POLLER_MODE", "once")

	interval, err := envIntOr("SNMP_POLL_INTERVAL_SECONDS", 300)
	if err != nil {
		return cfg, err
	}
	cfg.IntervalSeconds = interval

	timeout, err := envIntOr("SNMP_TIMEOUT_SECONDS", 2)
	if err != nil {
		return cfg, err
	}
	cfg.TimeoutSeconds = timeout

	retries, err := envIntOr("SNMP_RETRIES", 1)
	if err != nil {
		return cfg, err
	}
	cfg.Retries = retries

	batch, err := envIntOr("SNMP_POLL_BATCH_LIMIT", 50)
	if err != nil {
		return cfg, err
	}
	cfg.BatchLimit = batch
	return cfg, nil
}
