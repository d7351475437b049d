package tshark

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"sharkpipe/internal/log"
	"sharkpipe/pkg/pdml"
)

// Exit polling at ambiguous end-of-stream: a handful of short waits. The
// budget trades spurious empty reads on live sources against missing a
// short-lived process exit; there is no strictly correct value without a
// push-based exit notification.
const (
	exitPollAttempts = 3
	exitPollInterval = 100 * time.Millisecond
)

// Session wraps one running tshark process: the PDML decoder on its stdout,
// the diagnostic channel on its stderr, and the process handle. Read is
// single-reader by design, pulling bytes on the caller's goroutine so the
// pipe provides backpressure; Kill and Pid may be called from other
// goroutines, typically a signal handler tearing the capture down.
type Session struct {
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	stderr  *bufio.Reader
	stderrC io.Closer
	dec     *pdml.Decoder
	logger  log.Logger

	mu     sync.Mutex
	exited bool
	closed bool
}

func newSession(cmd *exec.Cmd, stdout, stderr io.ReadCloser, blacklist []string) *Session {
	s := &Session{
		cmd:     cmd,
		stdout:  stdout,
		stderr:  bufio.NewReader(stderr),
		stderrC: stderr,
		dec:     pdml.NewDecoder(bufio.NewReader(stdout), pdml.WithBlacklist(blacklist...)),
		logger:  log.GetLogger().WithField("pid", cmd.Process.Pid),
	}
	// A dropped session must never leak its child. Close clears this.
	runtime.SetFinalizer(s, (*Session).Kill)
	return s
}

// Read returns the next decoded packet, or io.EOF when no more packets are
// available. io.EOF is terminal once the process has exited; on a live
// source whose process is still running it only means "no packet right
// now" and the caller may Read again.
//
// When the report stream ends, the end is ambiguous: the process may still
// be flushing, or it may have died. Read resolves this by polling the exit
// status a few times; if the process is gone it drains one line from the
// diagnostic channel and surfaces it as an ErrProcessFailed, so a tshark
// that died of a bad filter expression does not masquerade as an empty
// capture.
func (s *Session) Read() (*pdml.Packet, error) {
	pkt, err := s.dec.Next()
	if err == nil {
		return pkt, nil
	}
	if !errors.Is(err, io.EOF) {
		return nil, err
	}
	s.mu.Lock()
	exited := s.exited
	s.mu.Unlock()
	if exited {
		return nil, io.EOF
	}
	if !s.pollExited() {
		return nil, io.EOF
	}
	s.mu.Lock()
	s.exited = true
	s.mu.Unlock()

	line, rerr := s.stderr.ReadString('\n')
	if rerr != nil && rerr != io.EOF {
		return nil, fmt.Errorf("tshark: reading diagnostic channel: %w", rerr)
	}
	if line = strings.TrimSpace(line); line != "" {
		return nil, fmt.Errorf("%w: %s", ErrProcessFailed, line)
	}
	return nil, io.EOF
}

// pollExited reaps the child with WNOHANG, retrying on the fixed budget.
// Returns true once the process is confirmed gone.
func (s *Session) pollExited() bool {
	for attempt := 0; ; attempt++ {
		var status unix.WaitStatus
		pid, err := unix.Wait4(s.cmd.Process.Pid, &status, unix.WNOHANG, nil)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.ECHILD):
			// Reaped elsewhere; gone either way.
			return true
		case err == nil && pid == s.cmd.Process.Pid && (status.Exited() || status.Signaled()):
			return true
		}
		if attempt >= exitPollAttempts-1 {
			return false
		}
		time.Sleep(exitPollInterval)
	}
}

// Pid returns the process id of the underlying tshark, and false once the
// process is known to have terminated.
func (s *Session) Pid() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exited {
		return 0, false
	}
	return s.cmd.Process.Pid, true
}

// Kill terminates the tshark process and reaps it. It is idempotent and
// best-effort: failures are logged, never returned, since the caller is
// abandoning the session regardless. Kill may race a Read in flight; the
// interrupted Read then reports end of stream or the closed pipe. After
// Kill the session cannot be read.
func (s *Session) Kill() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exited {
		var status unix.WaitStatus
		pid, err := unix.Wait4(s.cmd.Process.Pid, &status, unix.WNOHANG, nil)
		alreadyGone := errors.Is(err, unix.ECHILD) ||
			(err == nil && pid == s.cmd.Process.Pid && (status.Exited() || status.Signaled()))

		if !alreadyGone {
			if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				s.logger.WithError(err).Warn("failed to signal tshark")
			}
			if _, err := s.cmd.Process.Wait(); err != nil {
				s.logger.WithError(err).Warn("failed to reap tshark")
			}
		}
		s.exited = true
	}

	if !s.closed {
		s.closed = true
		if err := s.stdout.Close(); err != nil {
			s.logger.WithError(err).Debug("failed to close report stream")
		}
		if err := s.stderrC.Close(); err != nil {
			s.logger.WithError(err).Debug("failed to close diagnostic stream")
		}
	}
	runtime.SetFinalizer(s, nil)
}

// Close implements io.Closer over Kill so sessions work with defer and
// resource-scoping helpers. The error is always nil.
func (s *Session) Close() error {
	s.Kill()
	return nil
}
