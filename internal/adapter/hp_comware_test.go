package adapter

import "testing"

func TestHPComwareSimulatedFetch(t *testing.T) {
	t.Setenv("SIMULATE_BACKUP", "1")

	h := HPComware{}
	got, err := h.FetchRunningConfig(modelDeviceStub())
	if err != nil {
		t.Fatalf("FetchRunningConfig: %v", err)
	}
	if got != hpComwareSimulatedConfig {
		t.Errorf("got %q, want %q", got, hpComwareSimulatedConfig)
	}
}

func TestLooksLikeComware(t *testing.T) {
	tests := []struct {
		banner string
		want   bool
	}{
		{"H3C Comware Software, Version 7.1.045", true},
		{"H3C", true},
		{"Cisco IOS Software", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := looksLikeComware(tt.banner); got != tt.want {
			t.Errorf("looksLikeComware(%q) = %v, want %v", tt.banner, got, tt.want)
		}
	}
}
