// Package adapter defines the vendor adapter framework: a single-method
// interface plus the three concrete device dialogues (Fortigate, Cisco IOS,
// HP Comware). The closed vendor set is dispatched by tag rather than by an
// inheritance hierarchy — an abstract base class would add no behavior here
// (spec §9 "Polymorphism without inheritance").
package adapter

import (
	"os"

	"github.com/celebigilfatih/netdevworker/internal/model"
)

// Adapter captures one running configuration from a device over SSH.
type Adapter interface {
	// Vendor returns this adapter's lowercase vendor tag.
	Vendor() string
	// FetchRunningConfig drives the device's CLI to capture its full running
	// configuration. Errors are always a *ConnectionError or *ExecutionError.
	FetchRunningConfig(device model.DeviceConnectionInfo) (string, error)
}

// ByVendor returns the adapter registered for a vendor tag, or (nil, false)
// if the tag is not in the closed set.
func ByVendor(vendor string) (Adapter, bool) {
	switch vendor {
	case "fortigate":
		return Fortigate{}, true
	case "cisco_ios":
		return CiscoIOS{}, true
	case "hp_comware":
		return HPComware{}, true
	default:
		return nil, false
	}
}

// simulateBackup reports whether SIMULATE_BACKUP=1 is set, short-circuiting
// every adapter's fetch with a fixed fake config string.
func simulateBackup() bool {
	return os.Getenv("SIMULATE_BACKUP") == "1"
}

// emptyConfig reports whether a captured config is empty or whitespace-only,
// which every adapter treats as an *ExecutionError.
func emptyConfig(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			continue
		default:
			return false
		}
	}
	return true
}
