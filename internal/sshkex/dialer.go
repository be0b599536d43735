// Package sshkex establishes SSH client sessions that interoperate with
// legacy devices without permanently weakening the process-wide security
// posture. Go's x/crypto/ssh exposes key-exchange algorithms as a per-Config
// field, so — unlike the Python original, which monkey-patches Paramiko's
// Transport class under a lock — the fallback here is simply a second Dial
// with an extended ssh.Config.KeyExchanges. No global mutex or scope-exit
// restoration is needed; each *ssh.ClientConfig is independent.
package sshkex

import (
	"fmt"
	"regexp"
	"time"

	"golang.org/x/crypto/ssh"
)

// LegacyKEX is the ordered list of legacy key-exchange algorithms appended
// (never substituted) to the library's secure defaults on fallback.
var LegacyKEX = []string{"diffie-hellman-group14-sha1", "diffie-hellman-group1-sha1"}

// kexFailurePatterns matches the classifier from spec §4.3: case-insensitive
// substrings/regexes that indicate a KEX negotiation mismatch, as opposed to
// an unrelated connection or auth failure.
var kexFailurePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)no matching key exchange method found`),
	regexp.MustCompile(`(?i)unable to negotiate.*key exchange`),
	regexp.MustCompile(`(?i)kex negotiation failed`),
	regexp.MustCompile(`(?i)key exchange negotiation failed`),
	regexp.MustCompile(`(?i)no matching kex`),
}

// IsKexFailure reports whether err looks like a KEX negotiation mismatch
// rather than some other connection or auth failure.
func IsKexFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, p := range kexFailurePatterns {
		if p.MatchString(msg) {
			return true
		}
	}
	return false
}

// Session wraps the live SSH client; its transport-level connection is the
// ssh.Conn embedded in Client, from which adapters open their shell
// channels.
type Session struct {
	Client *ssh.Client
}

// Dial establishes an SSH connection to host:port, trying the library's
// secure default key-exchange proposal first (Phase 1) and, only if that
// attempt fails with a KEX-classified error, retrying once with the legacy
// KEX algorithms appended to the proposal (Phase 2). Any other Phase 1
// error is returned immediately without a retry. Host keys are always
// auto-accepted; host-key pinning is out of scope for this operational tool.
func Dial(host string, port int, username, password string, timeout time.Duration) (*Session, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	base := &ssh.ClientConfig{
		User:            username,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	client, err := ssh.Dial("tcp", addr, base)
	if err == nil {
		return &Session{Client: client}, nil
	}
	if !IsKexFailure(err) {
		return nil, err
	}

	legacy := *base
	legacy.Config = ssh.Config{KeyExchanges: append(defaultKexOrder(), LegacyKEX...)}

	client, err = ssh.Dial("tcp", addr, &legacy)
	if err != nil {
		return nil, err
	}
	return &Session{Client: client}, nil
}

// defaultKexOrder returns a zero-valued ssh.Config's SetDefaults() key
// exchange list, so the legacy algorithms are appended after — never in
// place of — the library's own secure defaults.
func defaultKexOrder() []string {
	var c ssh.Config
	c.SetDefaults()
	out := make([]string, len(c.KeyExchanges))
	copy(out, c.KeyExchanges)
	return out
}

// Close closes the underlying SSH client.
func (s *Session) Close() error {
	if s == nil || s.Client == nil {
		return nil
	}
	return s.Client.Close()
}
