package enclosure

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestCleanupRemovesDirectoriesInReverseOrder(t *testing.T) {
	base := t.TempDir()
	parent := filepath.Join(base, "a")
	child := filepath.Join(parent, "b")
	require.NoError(t, os.MkdirAll(child, 0o755))

	fs := newFakeDriver()
	log := logrus.NewEntry(logrus.New())

	// Insertion order is parent-then-child; cleanup must remove child
	// first or the parent's rmdir would fail on a non-empty directory.
	cleanup(fs, log, "", nil, []string{parent, child})

	_, err := os.Stat(child)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(parent)
	require.True(t, os.IsNotExist(err))
}

func TestCleanupToleratesAlreadyRemovedPaths(t *testing.T) {
	fs := newFakeDriver()
	log := logrus.NewEntry(logrus.New())

	require.NotPanics(t, func() {
		cleanup(fs, log, "some-name", []string{"/nonexistent/file"}, []string{"/nonexistent/dir"})
	})
}
