package rule

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticGetAllApplicableRulesFiltersByOnlyIf(t *testing.T) {
	rules := Static{
		{Name: "always", Target: "/a", Rewrite: "/b", Mode: File},
		{Name: "never", Target: "/a", Rewrite: "/b", Mode: File, OnlyIf: func() bool { return false }},
	}

	out, err := rules.GetAllApplicableRules("anything", nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "always", out[0].Name)
}

func TestStaticGetAllApplicableRulesFiltersByProgram(t *testing.T) {
	rules := Static{
		{Name: "steam-only", Target: "/a", Rewrite: "/b", Mode: File, Programs: []string{"steam"}},
	}

	out, err := rules.GetAllApplicableRules("other", nil)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestFileSourceLoadFileAndFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	contents := `
rules:
  - name: steam-config
    target: ~/.config/steam
    rewrite: /mnt/games/steam-config
    mode: directory
    programs: ["steam"]
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	src, err := LoadFile(path)
	require.NoError(t, err)

	out, err := src.GetAllApplicableRules("steam", nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "steam-config", out[0].Name)

	out, err = src.GetAllApplicableRules("other", nil)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestFileSourceRulesAlwaysActivateSinceOnlyIfIsNotYAMLEncodable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	contents := `
rules:
  - name: unconditional
    target: /a
    rewrite: /b
    mode: file
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	src, err := LoadFile(path)
	require.NoError(t, err)
	require.Nil(t, src.rules[0].OnlyIf)

	out, err := src.GetAllApplicableRules("anything", nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
}
