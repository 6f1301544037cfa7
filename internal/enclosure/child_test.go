package enclosure

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestExitCodeFromWaitStatusNormalExit(t *testing.T) {
	// WaitStatus encodes a normal exit as exitcode<<8 with the low 7 bits
	// zero, per the unix package's own WaitStatus.ExitStatus doc comment.
	ws := unix.WaitStatus(42 << 8)
	require.True(t, ws.Exited())
	require.Equal(t, 42, exitCodeFromWaitStatus(ws))
}

func TestExitCodeFromWaitStatusSignalled(t *testing.T) {
	ws := unix.WaitStatus(uint32(unix.SIGKILL))
	require.True(t, ws.Signaled())
	require.Equal(t, 128+int(unix.SIGKILL), exitCodeFromWaitStatus(ws))
}
