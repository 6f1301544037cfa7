package enclosure

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/queer/boxxy/internal/config"
)

func TestRunDaemonizesWhenConfigured(t *testing.T) {
	t.Setenv(daemonizedEnv, "")

	called := false
	orig := daemonizeFunc
	daemonizeFunc = func() error {
		called = true
		return nil
	}
	defer func() { daemonizeFunc = orig }()

	cfg := &config.Config{Daemon: true}
	enc := New(cfg, newFakeDriver(), nil)

	result, err := enc.Run()
	require.NoError(t, err)
	require.True(t, called, "daemonizeFunc should run when cfg.Daemon is set and not already daemonized")
	require.True(t, result.Daemonized)
}

func TestRunSkipsDaemonizeWhenAlreadyDaemonized(t *testing.T) {
	t.Setenv(daemonizedEnv, "1")

	called := false
	orig := daemonizeFunc
	daemonizeFunc = func() error {
		called = true
		return nil
	}
	defer func() { daemonizeFunc = orig }()

	cfg := &config.Config{
		Command: config.Command{Program: "/nonexistent-boxxy-test-binary"},
		Daemon:  true,
	}
	enc := New(cfg, newFakeDriver(), nil)

	_, err := enc.Run()
	require.Error(t, err)
	require.False(t, called, "an already-daemonized process must not re-daemonize")
}
