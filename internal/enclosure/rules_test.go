package enclosure

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/queer/boxxy/internal/rule"
)

func TestPrepareRulesRecordsCreatedDirectories(t *testing.T) {
	fs := newFakeDriver()

	prepared, err := prepareRules(fs, []rule.Rule{
		{Name: "cfg", Target: "/home/u/.config/foo", Rewrite: "/tmp/foo-cfg", Mode: rule.Directory},
	})
	require.NoError(t, err)
	require.Len(t, prepared.rules, 1)
	require.Contains(t, prepared.createdDirectories, "/home/u/.config/foo")
	require.Contains(t, prepared.createdDirectories, "/tmp/foo-cfg")
	require.Empty(t, prepared.createdFiles)
}

func TestPrepareRulesRecordsCreatedFiles(t *testing.T) {
	fs := newFakeDriver("/tmp/fakehost")

	prepared, err := prepareRules(fs, []rule.Rule{
		{Name: "host", Target: "/etc/hostname", Rewrite: "/tmp/fakehost", Mode: rule.File},
	})
	require.NoError(t, err)
	require.Contains(t, prepared.createdFiles, "/etc/hostname")
	require.NotContains(t, prepared.createdFiles, "/tmp/fakehost")
}

func TestPrepareRulesDoesNotRecordPreexistingPaths(t *testing.T) {
	fs := newFakeDriver("/home/u/.config/foo", "/tmp/foo-cfg")

	prepared, err := prepareRules(fs, []rule.Rule{
		{Name: "cfg", Target: "/home/u/.config/foo", Rewrite: "/tmp/foo-cfg", Mode: rule.Directory},
	})
	require.NoError(t, err)
	require.Empty(t, prepared.createdDirectories)
	require.Empty(t, prepared.createdFiles)
}

func TestPrepareRulesExpandsPaths(t *testing.T) {
	fs := newFakeDriver()

	prepared, err := prepareRules(fs, []rule.Rule{
		{Name: "cfg", Target: "~/.config/foo", Rewrite: "/tmp/foo-cfg", Mode: rule.Directory},
	})
	require.NoError(t, err)
	// fakeDriver's FullyExpandPath is an identity function, so this test
	// only confirms the prepared rule carries the driver's result for
	// Target; it cannot tell a call through the driver from a bypass.
	// Expansion itself is covered by fsdriver_test.go against the real
	// implementation.
	require.Equal(t, "~/.config/foo", prepared.rules[0].Target)
}
