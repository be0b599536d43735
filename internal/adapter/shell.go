package adapter

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// shellSession is a minimal interactive-shell driver over an SSH session,
// standing in for the device-type profiles a library like Netmiko provides
// in the Python original: request a PTY (best effort), invoke a shell, and
// expose line-oriented send/read helpers with timeouts.
type shellSession struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	stdout  io.Reader
}

func openShell(client *ssh.Client) (*shellSession, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("open ssh session: %w", err)
	}

	// PTY is requested best-effort; some devices refuse it but still accept
	// an interactive shell.
	_ = session.RequestPty("vt100", 80, 200, ssh.TerminalModes{})

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	if err := session.Shell(); err != nil {
		session.Close()
		return nil, fmt.Errorf("invoke shell: %w", err)
	}

	return &shellSession{client: client, session: session, stdin: stdin, stdout: stdout}, nil
}

func (s *shellSession) close() {
	s.session.Close()
	s.client.Close()
}

// send writes cmd followed by a newline.
func (s *shellSession) send(cmd string) {
	_, _ = io.WriteString(s.stdin, cmd+"\n")
}

// readChunk attempts a single bounded read, returning (nil, nil) if the
// read does not complete before timeout elapses. This is the building block
// both the simple profile-driven adapters and the HP Comware state machine
// use to emulate a per-channel read timeout, which x/crypto/ssh does not
// expose natively.
func readChunk(r io.Reader, max int, timeout time.Duration) ([]byte, error) {
	type result struct {
		buf []byte
		n   int
		err error
	}
	ch := make(chan result, 1)
	go func() {
		buf := make([]byte, max)
		n, err := r.Read(buf)
		ch <- result{buf: buf, n: n, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil && res.n == 0 {
			return nil, res.err
		}
		return res.buf[:res.n], nil
	case <-time.After(timeout):
		return nil, nil
	}
}

const maxReadChunk = 64 * 1024

// readUntil accumulates output until promptRe matches the accumulated text,
// an overall deadline elapses, or the reader reaches EOF. It tolerates
// quiet periods (no bytes for up to readTimeout) by simply retrying, so a
// slow device does not abort the capture early — only the overall deadline
// does.
func readUntil(r io.Reader, promptRe *regexp.Regexp, overall time.Duration) (string, error) {
	var out strings.Builder
	deadline := time.Now().Add(overall)

	for time.Now().Before(deadline) {
		remaining := time.Until(deadline)
		readTimeout := 500 * time.Millisecond
		if remaining < readTimeout {
			readTimeout = remaining
		}
		chunk, err := readChunk(r, maxReadChunk, readTimeout)
		if len(chunk) > 0 {
			out.Write(chunk)
			if promptRe != nil && promptRe.MatchString(out.String()) {
				return out.String(), nil
			}
		}
		if err != nil {
			if err == io.EOF {
				return out.String(), nil
			}
			return out.String(), err
		}
	}
	return out.String(), nil
}
