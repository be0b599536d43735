package adapter

import (
	"regexp"
	"time"

	"github.com/celebigilfatih/netdevworker/internal/model"
	"github.com/celebigilfatih/netdevworker/internal/sshkex"
)

const fortigateSimulatedConfig = "config-version=simulated\nconfig system global\nset hostname FortiGate-Sim\nend\n"

var fortigatePrompt = regexp.MustCompile(`#\s*$`)

// Fortigate drives the FortiOS CLI: disable the interactive pager for this
// session, then capture the full configuration in one shot.
type Fortigate struct{}

func (Fortigate) Vendor() string { return "fortigate" }

func (Fortigate) FetchRunningConfig(device model.DeviceConnectionInfo) (string, error) {
	if simulateBackup() {
		return fortigateSimulatedConfig, nil
	}

	host := device.Host(true)
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

	// Drain the initial banner/MOTD before driving the console profile.
	_, _ = readUntil(shell.stdout, nil, 2*time.Second)

	for _, cmd := range []string{"config global", "config system console", "set output standard", "end"} {
		shell.send(cmd)
		_, _ = readUntil(shell.stdout, fortigatePrompt, device.TimeoutDuration())
	}

	shell.send("show full-configuration")
	out, err := readUntil(shell.stdout, fortigatePrompt, device.TimeoutDuration())
	if err != nil {
		return "", execErrorf("Unexpected error fetching config from %s: %v", host, err)
	}
	if emptyConfig(out) {
		return "", execErrorf("Empty configuration received from %s", host)
	}
	return out, nil
}

func classifyConnectError(host string, err error) error {
	msg := err.Error()
	switch {
	case isTimeoutErr(err):
		return connErrorf("Timeout connecting to %s", host)
	case isAuthErr(msg):
		return connErrorf("Authentication failed for %s", host)
	default:
		return connErrorf("Unable to connect to %s: %s", host, msg)
	}
}

func isTimeoutErr(err error) bool {
	type timeouter interface{ Timeout() bool }
	if te, ok := err.(timeouter); ok {
		return te.Timeout()
	}
	return false
}

func isAuthErr(msg string) bool {
	authRe := regexp.MustCompile(`(?i)unable to authenticate|authentication failed|permission denied`)
	return authRe.MatchString(msg)
}
