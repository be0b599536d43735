package adapter

import (
	"regexp"
	"time"

	"github.com/celebigilfatih/netdevworker/internal/model"
	"github.com/celebigilfatih/netdevworker/internal/sshkex"
)

const ciscoIOSSimulatedConfig = "version 15.2\nhostname CiscoSim\n!\nend\n"

var ciscoIOSPrompt = regexp.MustCompile(`[>#]\s*$`)

// CiscoIOS drives the IOS CLI: best-effort disable paging, then capture the
// running configuration.
type CiscoIOS struct{}

func (CiscoIOS) Vendor() string { return "cisco_ios" }

func (CiscoIOS) FetchRunningConfig(device model.DeviceConnectionInfo) (string, error) {
	if simulateBackup() {
		return ciscoIOSSimulatedConfig, nil
	}

	host := device.Host(false)
	sess, err := sshkex.Dial(host, device.Port, device.Username, device.Password, device.TimeoutDuration())
	if err != nil {
		if sshkex.IsKexFailure(err) {
			return "", connErrorf("Unable to negotiate a key exchange algorithm with %s", host)
		}
		return "", classifyConnectError(host, err)
	}
	defer sess.Close()

	shell, err := openShell(sess.Client)
	if err != nil {
		return "", execErrorf("Unexpected error fetching config from %s: %v", host, err)
	}
	defer shell.close()

	_, _ = readUntil(shell.stdout, nil, 2*time.Second)

	// Best-effort: some IOS variants reject this in certain exec modes.
	shell.send("terminal length 0")
	_, _ = readUntil(shell.stdout, ciscoIOSPrompt, 3*time.Second)

	shell.send("show running-config")
	out, err := readUntil(shell.stdout, ciscoIOSPrompt, device.TimeoutDuration())
	if err != nil {
		return "", execErrorf("Unexpected error fetching config from %s: %v", host, err)
	}
	if emptyConfig(out) {
		return "", execErrorf("Empty configuration received from %s", host)
	}
	return out, nil
}
