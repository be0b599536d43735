package scheduler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/celebigilfatih/netdevworker/internal/adapter"
	"github.com/celebigilfatih/netdevworker/internal/controlplane"
	"github.com/celebigilfatih/netdevworker/internal/model"
)

type fakeAdapter struct {
	vendor string
	delay  time.Duration
	err    error
}

func (f fakeAdapter) Vendor() string { return f.vendor }
func (f fakeAdapter) FetchRunningConfig(model.DeviceConnectionInfo) (string, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return "", f.err
	}
	return "hostname foo\n", nil
}

type capture struct {
	mu      sync.Mutex
	steps   []map[string]interface{}
	results []map[string]interface{}
	stati   []string
}

func newCaptureServer(cap *capture) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/internal/backups/step", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		cap.mu.Lock()
		cap.steps = append(cap.steps, body)
		cap.mu.Unlock()
	})
	mux.HandleFunc("/internal/backups/report", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		cap.mu.Lock()
		cap.results = append(cap.results, body)
		cap.mu.Unlock()
	})
	mux.HandleFunc("/internal/jobs/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		cap.mu.Lock()
		if s, ok := body["status"].(string); ok {
			cap.stati = append(cap.stati, s)
		}
		cap.mu.Unlock()
	})
	return httptest.NewServer(mux)
}

func TestDispatchUnknownVendorSkips(t *testing.T) {
	cap := &capture{}
	srv := newCaptureServer(cap)
	defer srv.Close()

	s := New(controlplane.New(srv.URL, "tok"), t.TempDir())
	s.dispatch(model.Job{ExecutionID: "e1", DeviceID: "d1", Vendor: "unknown_vendor"}, 5)

	cap.mu.Lock()
	defer cap.mu.Unlock()
	if len(cap.stati) != 2 || cap.stati[0] != "running" || cap.stati[1] != "skipped" {
		t.Errorf("expected status sequence [running skipped], got %v", cap.stati)
	}
}

func TestDispatchTimeoutSynthesizesFailure(t *testing.T) {
	cap := &capture{}
	srv := newCaptureServer(cap)
	defer srv.Close()

	s := New(controlplane.New(srv.URL, "tok"), t.TempDir())
	s.AdapterLookup = func(vendor string) (adapter.Adapter, bool) {
		return fakeAdapter{vendor: vendor, delay: 6 * time.Second}, true
	}
	// device.Timeout=0 => deadline is 0+5s; the fake adapter sleeps 6s, so
	// the deadline fires first and the scheduler synthesizes the failure.
	s.dispatch(model.Job{ExecutionID: "e2", DeviceID: "d2", Vendor: "fortigate"}, 0)

	time.Sleep(5300 * time.Millisecond)

	cap.mu.Lock()
	defer cap.mu.Unlock()
	foundTimeout := false
	for _, r := range cap.results {
		if msg, _ := r["errorMessage"].(string); msg == "Backup timed out" {
			foundTimeout = true
		}
	}
	if !foundTimeout {
		t.Errorf("expected a synthesized timeout result, got %v", cap.results)
	}
}

func TestDedupByDeviceIDRetainsFirstAndDropsMissing(t *testing.T) {
	jobs := []model.Job{
		{ExecutionID: "e1", DeviceID: "d1"},
		{ExecutionID: "e2", DeviceID: "d2"},
		{ExecutionID: "e3", DeviceID: "d1"}, // duplicate, dropped
		{ExecutionID: "e4", DeviceID: ""},   // missing deviceId, dropped
		{ExecutionID: "e5", DeviceID: "d3"},
	}
	got := dedupByDeviceID(jobs)

	wantExecIDs := []string{"e1", "e2", "e5"}
	if len(got) != len(wantExecIDs) {
		t.Fatalf("got %d retained jobs, want %d: %+v", len(got), len(wantExecIDs), got)
	}
	for i, id := range wantExecIDs {
		if got[i].ExecutionID != id {
			t.Errorf("retained[%d].ExecutionID = %q, want %q", i, got[i].ExecutionID, id)
		}
	}
}

func TestStripMaskRemovesCIDRSuffix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.0.0.1/24", "10.0.0.1"},
		{"10.0.0.1", "10.0.0.1"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := stripMask(tt.in); got != tt.want {
			t.Errorf("stripMask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
