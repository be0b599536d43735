package adapter

import "testing"

func TestFortigateSimulatedFetch(t *testing.T) {
	t.Setenv("SIMULATE_BACKUP", "1")

	f := Fortigate{}
	got, err := f.FetchRunningConfig(modelDeviceStub())
	if err != nil {
		t.Fatalf("FetchRunningConfig: %v", err)
	}
	want := "config-version=simulated\nconfig system global\nset hostname FortiGate-Sim\nend\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
