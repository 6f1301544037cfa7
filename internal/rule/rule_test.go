package rule

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppliesToProgramEmptyMatchesAll(t *testing.T) {
	r := Rule{}
	require.True(t, r.AppliesToProgram("anything"))
}

func TestAppliesToProgramGlobMatchesBaseName(t *testing.T) {
	r := Rule{Programs: []string{"*.AppImage"}}
	require.True(t, r.AppliesToProgram("/home/u/Apps/game.AppImage"))
	require.False(t, r.AppliesToProgram("/usr/bin/steam"))
}

func TestActivatesWithNilOnlyIf(t *testing.T) {
	r := Rule{}
	require.True(t, r.activates())
}

func TestActivatesConsultsOnlyIf(t *testing.T) {
	r := Rule{OnlyIf: func() bool { return false }}
	require.False(t, r.activates())

	r.OnlyIf = func() bool { return true }
	require.True(t, r.activates())
}

func TestValidateRequiresBothPaths(t *testing.T) {
	r := Rule{Name: "bad", Mode: File}
	require.Error(t, r.Validate())
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	r := Rule{Name: "bad", Target: "/a", Rewrite: "/b", Mode: Mode(99)}
	require.Error(t, r.Validate())
}

func TestValidateAcceptsWellFormedRule(t *testing.T) {
	r := Rule{Name: "ok", Target: "/a", Rewrite: "/b", Mode: Directory}
	require.NoError(t, r.Validate())
}
