package tshark

import (
	"io"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalReport = `<pdml><packet><proto name="frame"><field name="frame.time" show="t"/></proto></packet></pdml>`

// spawnScript runs a shell script as a stand-in for tshark so session
// lifecycle is testable without a Wireshark installation.
func spawnScript(t *testing.T, script string, blacklist ...string) *Session {
	t.Helper()
	cmd := exec.Command("/bin/sh", "-c", script)
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	stderr, err := cmd.StderrPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())
	s := newSession(cmd, stdout, stderr, blacklist)
	t.Cleanup(s.Kill)
	return s
}

func TestSessionReadsPacketsThenCleanEOF(t *testing.T) {
	s := spawnScript(t, `printf '%s' '`+minimalReport+`'`)

	pkt, err := s.Read()
	require.NoError(t, err)
	require.Equal(t, 1, pkt.NumLayers())
	assert.Equal(t, "frame", pkt.LayerAt(0).Name())

	_, err = s.Read()
	require.ErrorIs(t, err, io.EOF)

	// Terminal after the process is gone.
	_, err = s.Read()
	require.ErrorIs(t, err, io.EOF)
	_, running := s.Pid()
	assert.False(t, running)
}

func TestSessionBlacklistReachesDecoder(t *testing.T) {
	s := spawnScript(t, `printf '%s' '`+minimalReport+`'`, "frame.time")

	pkt, err := s.Read()
	require.NoError(t, err)
	_, ok := pkt.LayerAt(0).Metadata("frame.time")
	assert.False(t, ok)
}

func TestSessionSurfacesDiagnosticOnFailure(t *testing.T) {
	// The process dies with a diagnostic, the way tshark does on a bad
	// display filter. The ambiguous end must resolve to an error, not EOF.
	s := spawnScript(t, `echo 'tshark: "bogus" is not a valid display filter' >&2; exit 2`)

	_, err := s.Read()
	require.ErrorIs(t, err, ErrProcessFailed)
	assert.Contains(t, err.Error(), "not a valid display filter")
}

func TestSessionSurfacesDiagnosticOnTruncatedReport(t *testing.T) {
	// The process dies mid-capture: the report stops without its closing
	// pdml tag. The diagnostic must still surface instead of the cut-off
	// markup masquerading as a decode error.
	truncated := `<pdml><packet><proto name="frame"><field name="frame.time" show="t"/></proto></packet>`
	s := spawnScript(t, `printf '%s' '`+truncated+`'; echo 'tshark: capture device disappeared' >&2; exit 2`)

	pkt, err := s.Read()
	require.NoError(t, err)
	require.Equal(t, 1, pkt.NumLayers())

	_, err = s.Read()
	require.ErrorIs(t, err, ErrProcessFailed)
	assert.Contains(t, err.Error(), "capture device disappeared")
}

func TestSessionSilentExitIsCleanEOF(t *testing.T) {
	s := spawnScript(t, `exit 0`)

	_, err := s.Read()
	require.ErrorIs(t, err, io.EOF)
}

func TestSessionPidWhileRunning(t *testing.T) {
	s := spawnScript(t, `sleep 30`)

	pid, running := s.Pid()
	require.True(t, running)
	assert.Greater(t, pid, 0)
}

func TestSessionKillIsIdempotent(t *testing.T) {
	s := spawnScript(t, `sleep 30`)

	s.Kill()
	_, running := s.Pid()
	assert.False(t, running)

	// Second and third kills are no-ops.
	s.Kill()
	require.NoError(t, s.Close())
}

func TestSessionKillDuringRead(t *testing.T) {
	// A signal handler kills the session from another goroutine while Read
	// is resolving an ambiguous end of stream. The child closes its stdout
	// but keeps running, which parks Read in the exit-status polling.
	s := spawnScript(t, `exec 1>&-; sleep 30`)

	done := make(chan error, 1)
	go func() {
		_, err := s.Read()
		done <- err
	}()
	time.Sleep(120 * time.Millisecond)
	s.Kill()

	// Either outcome is fine: end of stream, or the pipe Kill closed under
	// the read. It must not be a decode error.
	if err := <-done; err != nil && err != io.EOF {
		assert.NotContains(t, err.Error(), "syntax error")
	}
	_, running := s.Pid()
	assert.False(t, running)
	s.Kill()
}

func TestSessionKillAfterExit(t *testing.T) {
	s := spawnScript(t, `exit 0`)

	_, err := s.Read()
	require.ErrorIs(t, err, io.EOF)
	s.Kill()
	_, running := s.Pid()
	assert.False(t, running)
}
