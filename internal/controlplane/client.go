// Package controlplane is a stateless HTTP client for the control-plane's
// internal API: reporting backup steps/results, fetching/updating jobs, and
// the monitoring endpoints used by the SNMP poller.
package controlplane

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/celebigilfatih/netdevworker/internal/model"
)

// ErrControlPlane is the sentinel a controlplane.Error wraps.
var ErrControlPlane = errors.New("control plane request failed")

// Error carries enough context about a failed call to classify and log it.
type Error struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Body)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Status, e.Body)
}

func (e *Error) Unwrap() error { return ErrControlPlane }

const defaultTimeout = 10 * time.Second
const maxErrorBodyBytes = 2048

// Client is a stateless, bearer-authenticated HTTP client.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New constructs a Client. baseURL's trailing slash, if any, is stripped.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

func (c *Client) headers(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// do performs method+path with an optional JSON body, decoding a 2xx JSON
// response into out (if non-nil). Non-2xx responses and transport failures
// are returned as *Error.
func (c *Client) do(method, path string, body, out interface{}) error {
	url := c.baseURL + path

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.headers(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Method: method, URL: url, Body: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		limited := io.LimitReader(resp.Body, maxErrorBodyBytes)
		raw, _ := io.ReadAll(limited)
		return &Error{Method: method, URL: url, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &Error{Method: method, URL: url, Status: resp.StatusCode, Body: fmt.Sprintf("decode response: %v", err)}
		}
	}
	return nil
}

// backupResultPayload is the camelCase wire shape for BackupResult.
type backupResultPayload struct {
	DeviceID        string  `json:"deviceId"`
	TenantID        string  `json:"tenantId"`
	Vendor          string  `json:"vendor"`
	BackupTimestamp string  `json:"backupTimestamp"`
	ConfigPath      *string `json:"configPath"`
	ConfigSHA256    string  `json:"configSha256"`
	ConfigSizeBytes int     `json:"configSizeBytes"`
	Success         bool    `json:"success"`
	ErrorMessage    *string `json:"errorMessage"`
	JobID           *string `json:"jobId"`
	ExecutionID     *string `json:"executionId"`
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// formatTimestamp renders t as UTC RFC 3339 with microseconds stripped and a
// trailing "Z" (never a "+00:00" offset).
func formatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z")
}

// ReportBackupResult POSTs a full BackupResult to /internal/backups/report.
func (c *Client) ReportBackupResult(r model.BackupResult) error {
	payload := backupResultPayload{
		DeviceID:        r.DeviceID,
		TenantID:        r.TenantID,
		Vendor:          r.Vendor,
		BackupTimestamp: formatTimestamp(r.BackupTimestamp),
		ConfigPath:      optionalString(r.ConfigPath),
		ConfigSHA256:    r.ConfigSHA256,
		ConfigSizeBytes: r.ConfigSizeBytes,
		Success:         r.Success,
		ErrorMessage:    optionalString(r.ErrorMessage),
		JobID:           optionalString(r.JobID),
		ExecutionID:     optionalString(r.ExecutionID),
	}
	return c.do(http.MethodPost, "/internal/backups/report", payload, nil)
}

type stepPayload struct {
	DeviceID    string                 `json:"deviceId"`
	ExecutionID *string                `json:"executionId"`
	StepKey     string                 `json:"stepKey"`
	Status      string                 `json:"status"`
	Detail      *string                `json:"detail"`
	Meta        map[string]interface{} `json:"meta"`
}

// ReportStep POSTs a step checkpoint to /internal/backups/step. Callers
// should treat a returned error as best-effort/non-fatal per §4.2.
func (c *Client) ReportStep(deviceID, executionID, stepKey, status, detail string, meta map[string]interface{}) error {
	if meta == nil {
		meta = map[string]interface{}{}
	}
	payload := stepPayload{
		DeviceID:    deviceID,
		ExecutionID: optionalString(executionID),
		StepKey:     stepKey,
		Status:      status,
		Detail:      optionalString(detail),
		Meta:        meta,
	}
	return c.do(http.MethodPost, "/internal/backups/step", payload, nil)
}

type jobsPendingResponse struct {
	Items []jobPayload `json:"items"`
}

type jobPayload struct {
	ExecutionID string `json:"executionId"`
	DeviceID    string `json:"deviceId"`
	TenantID    string `json:"tenantId"`
	// TenantIDAlt covers the upstream casing inconsistency noted in spec §9
	// ("TenantId" vs "tenantId"); both keys are accepted on ingest.
	TenantIDAlt string `json:"TenantId"`
	Vendor      string `json:"vendor"`
	Hostname    string `json:"hostname"`
	MgmtIP      string `json:"mgmtIp"`
	SSHPort     int    `json:"sshPort"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	Secret      string `json:"secret"`
}

func (j jobPayload) tenantID() string {
	if j.TenantID != "" {
		return j.TenantID
	}
	return j.TenantIDAlt
}

// FetchPendingJobs GETs /internal/jobs/pending.
func (c *Client) FetchPendingJobs() ([]model.Job, error) {
	var resp jobsPendingResponse
	if err := c.do(http.MethodGet, "/internal/jobs/pending", nil, &resp); err != nil {
		return nil, err
	}
	jobs := make([]model.Job, 0, len(resp.Items))
	for _, j := range resp.Items {
		jobs = append(jobs, model.Job{
			ExecutionID: j.ExecutionID,
			DeviceID:    j.DeviceID,
			TenantID:    j.tenantID(),
			Vendor:      j.Vendor,
			Hostname:    j.Hostname,
			MgmtIP:      j.MgmtIP,
			SSHPort:     j.SSHPort,
			Username:    j.Username,
			Password:    j.Password,
			Secret:      j.Secret,
		})
	}
	return jobs, nil
}

type setStatusPayload struct {
	Status string `json:"status"`
}

// SetJobStatus PATCHes /internal/jobs/{id}/status.
func (c *Client) SetJobStatus(executionID, status string) error {
	path := fmt.Sprintf("/internal/jobs/%s/status", executionID)
	return c.do(http.MethodPatch, path, setStatusPayload{Status: status}, nil)
}

type devicesResponse struct {
	Items []devicePayload `json:"items"`
}

type devicePayload struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	MgmtIP   string `json:"mgmt_ip"`
	Vendor   string `json:"vendor"`
}

// ListActiveDevices GETs /internal/monitoring/devices with paging.
func (c *Client) ListActiveDevices(limit, offset int) ([]model.Device, error) {
	path := fmt.Sprintf("/internal/monitoring/devices?limit=%d&offset=%d", limit, offset)
	var resp devicesResponse
	if err := c.do(http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	devices := make([]model.Device, 0, len(resp.Items))
	for _, d := range resp.Items {
		devices = append(devices, model.Device{ID: d.ID, TenantID: d.TenantID, MgmtIP: d.MgmtIP, Vendor: d.Vendor})
	}
	return devices, nil
}

type snmpV3Payload struct {
	Username     string `json:"username"`
	AuthKey      string `json:"authKey"`
	AuthProtocol string `json:"authProtocol"`
	PrivKey      string `json:"privKey"`
	PrivProtocol string `json:"privProtocol"`
}

type snmpConfigPayload struct {
	Community string         `json:"community"`
	V3        *snmpV3Payload `json:"v3"`
}

// GetSnmpConfig GETs /internal/monitoring/devices/{id}/snmp_config.
func (c *Client) GetSnmpConfig(deviceID string) (model.SnmpConfig, error) {
	path := fmt.Sprintf("/internal/monitoring/devices/%s/snmp_config", deviceID)
	var resp snmpConfigPayload
	if err := c.do(http.MethodGet, path, nil, &resp); err != nil {
		return model.SnmpConfig{}, err
	}
	cfg := model.SnmpConfig{Community: resp.Community}
	if resp.V3 != nil && resp.V3.Username != "" {
		cfg.V3 = &model.SnmpV3{
			Username:     resp.V3.Username,
			AuthKey:      resp.V3.AuthKey,
			AuthProtocol: resp.V3.AuthProtocol,
			PrivKey:      resp.V3.PrivKey,
			PrivProtocol: resp.V3.PrivProtocol,
		}
	}
	return cfg, nil
}

type metricsPayload struct {
	TenantID    string `json:"tenantId"`
	DeviceID    string `json:"deviceId"`
	UptimeTicks *int   `json:"uptimeTicks"`
	CPUPercent  *int   `json:"cpuPercent"`
	MemUsedPerc *int   `json:"memUsedPercent"`
}

// ReportMetrics POSTs /internal/monitoring/metrics. Any of the three values
// may be nil (absent).
func (c *Client) ReportMetrics(tenantID, deviceID string, uptimeTicks, cpuPercent, memUsedPercent *int) error {
	payload := metricsPayload{
		TenantID:    tenantID,
		DeviceID:    deviceID,
		UptimeTicks: uptimeTicks,
		CPUPercent:  cpuPercent,
		MemUsedPerc: memUsedPercent,
	}
	return c.do(http.MethodPost, "/internal/monitoring/metrics", payload, nil)
}

type inventoryPayload struct {
	TenantID string  `json:"tenantId"`
	DeviceID string  `json:"deviceId"`
	Model    *string `json:"model"`
	Firmware *string `json:"firmware"`
	Serial   *string `json:"serial"`
}

// ReportInventory POSTs /internal/monitoring/inventory.
func (c *Client) ReportInventory(tenantID, deviceID, model_, firmware, serial string) error {
	payload := inventoryPayload{
		TenantID: tenantID,
		DeviceID: deviceID,
		Model:    optionalString(model_),
		Firmware: optionalString(firmware),
		Serial:   optionalString(serial),
	}
	return c.do(http.MethodPost, "/internal/monitoring/inventory", payload, nil)
}
