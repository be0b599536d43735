// Package model holds the plain value types passed between the scheduler,
// vendor adapters, config store, and control-plane client.
package model

import "time"

// DeviceConnectionInfo is a single job's target, built fresh per dispatch.
type DeviceConnectionInfo struct {
	DeviceID  string
	TenantID  string
	Hostname  string
	IPAddress string
	Port      int
	Username  string
	Password  string
	Secret    string // optional enable password
	Timeout   int    // seconds, bounded [1, 300]
}

// TimeoutDuration is the connection/command timeout as a time.Duration.
func (d DeviceConnectionInfo) TimeoutDuration() time.Duration {
	return time.Duration(d.Timeout) * time.Second
}

// Host returns the preferred connect address given a vendor's host
// preference order (hostname-first or ip-first).
func (d DeviceConnectionInfo) Host(hostnameFirst bool) string {
	if hostnameFirst {
		if d.Hostname != "" {
			return d.Hostname
		}
		return d.IPAddress
	}
	if d.IPAddress != "" {
		return d.IPAddress
	}
	return d.Hostname
}

// BackupResult is the unit reported to the control plane for one backup
// attempt. It is created fresh per attempt and discarded once reported.
type BackupResult struct {
	DeviceID        string
	TenantID        string
	JobID           string
	ExecutionID     string
	Vendor          string
	BackupTimestamp time.Time
	ConfigPath      string
	ConfigSHA256    string
	ConfigSizeBytes int
	Success         bool
	ErrorMessage    string
}

// Job is a pending backup job as returned by the control plane.
type Job struct {
	ExecutionID string
	DeviceID    string
	TenantID    string
	Vendor      string
	Hostname    string
	MgmtIP      string // may carry a "/mask" suffix
	SSHPort     int
	Username    string
	Password    string
	Secret      string
}

// SnmpV3 carries USM security parameters for SNMPv3 polling.
type SnmpV3 struct {
	Username     string
	AuthKey      string
	AuthProtocol string // "sha" (default) or "md5"
	PrivKey      string
	PrivProtocol string // "aes" (default) or "des"
}

// SnmpConfig is the per-device SNMP security configuration. Exactly one of
// Community or V3 is expected to be meaningfully populated.
type SnmpConfig struct {
	Community string
	V3        *SnmpV3
}

// Device is a monitored device returned by the active-devices listing.
type Device struct {
	ID       string
	TenantID string
	MgmtIP   string
	Vendor   string
}
