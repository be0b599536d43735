package adapter

import (
	"regexp"
	"strings"
	"time"

	"github.com/celebigilfatih/netdevworker/internal/model"
	"github.com/celebigilfatih/netdevworker/internal/sshkex"
)

const hpComwareSimulatedConfig = "sysname HP-Comware-Sim\n#\nsysname HP-Comware\n#\nreturn\n"

var (
	pressAnyKeyRe  = regexp.MustCompile(`(?i)press any key`)
	moreRe         = regexp.MustCompile(`(?i)\s*---+\s*more\s*---+`)
	returnTailRe   = regexp.MustCompile(`(?m)(^|\n)\s*return\s*$`)
	invalidInputRe = regexp.MustCompile(`(?i)invalid input|unknown command`)
)

// HPComware drives the Comware/H3C interactive shell over the same raw SSH
// shell helper as the other adapters, but handles the banner dialogue,
// dialect detection, and paging by hand instead of waiting on a fixed
// prompt pattern.
type HPComware struct{}

func (HPComware) Vendor() string { return "hp_comware" }

func (HPComware) FetchRunningConfig(device model.DeviceConnectionInfo) (string, error) {
	if simulateBackup() {
		return hpComwareSimulatedConfig, nil
	}

	host := device.Host(true)
	timeout := device.TimeoutDuration()
	if timeout < 45*time.Second {
		timeout = 45 * time.Second
	}

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

	shell.send("")
	banner, _ := readChunk(shell.stdout, maxReadChunk, 2*time.Second)
	text := string(banner)
	if pressAnyKeyRe.MatchString(text) {
		shell.send(" ")
		more, _ := readChunk(shell.stdout, maxReadChunk, 2*time.Second)
		text += string(more)
	}

	comware := looksLikeComware(text)

	if comware {
		shell.send("screen-length disable")
	} else {
		shell.send("no page")
	}
	_, _ = readUntil(shell.stdout, nil, 2*time.Second)

	var out string
	if comware {
		out, err = shell.collect("display current-configuration", timeout)
	} else {
		out, err = shell.collect("show run", timeout)
		if err == nil && (emptyConfig(out) || invalidInputRe.MatchString(out)) {
			time.Sleep(300 * time.Millisecond)
			out, err = shell.collect("show running-config", timeout)
		}
	}
	if err != nil {
		return "", execErrorf("Unexpected error fetching config from %s: %v", host, err)
	}
	if emptyConfig(out) {
		return "", execErrorf("Empty configuration received from %s", host)
	}
	return out, nil
}

func looksLikeComware(banner string) bool {
	lower := strings.ToLower(banner)
	return strings.Contains(lower, "comware") || strings.Contains(lower, "h3c")
}

// collect sends cmd and accumulates output until the "return" sentinel
// terminates it, handling intervening "Press any key"/"More" prompts, or
// until the overall deadline elapses.
func (s *shellSession) collect(cmd string, overall time.Duration) (string, error) {
	s.send(cmd)

	var out strings.Builder
	deadline := time.Now().Add(overall)
	for time.Now().Before(deadline) {
		remaining := time.Until(deadline)
		readTimeout := 500 * time.Millisecond
		if remaining < readTimeout {
			readTimeout = remaining
		}
		chunk, err := readChunk(s.stdout, maxReadChunk, readTimeout)
		if len(chunk) == 0 {
			if err != nil {
				break
			}
			continue
		}
		text := string(chunk)
		switch {
		case pressAnyKeyRe.MatchString(text):
			s.send(" ")
		case moreRe.MatchString(text):
			s.send(" ")
		}
		out.WriteString(text)
		if returnTailRe.MatchString(out.String()) {
			return out.String(), nil
		}
		if err != nil {
			break
		}
	}
	return out.String(), nil
}
