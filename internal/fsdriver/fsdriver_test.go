package fsdriver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFullyExpandPathHome(t *testing.T) {
	l := New()

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := l.FullyExpandPath("~/.config/foo")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config/foo"), got)
}

func TestFullyExpandPathMissingEnv(t *testing.T) {
	l := New()

	_, err := l.FullyExpandPath("$BOXXY_DOES_NOT_EXIST/foo")
	require.Error(t, err)
}

func TestEnsureFileIsIdempotent(t *testing.T) {
	l := New()
	dir := t.TempDir()
	target := filepath.Join(dir, "a", "b", "file")

	created, err := l.EnsureFile(target)
	require.NoError(t, err)
	require.True(t, created)

	created, err = l.EnsureFile(target)
	require.NoError(t, err)
	require.False(t, created)
}

func TestEnsureDirectory(t *testing.T) {
	l := New()
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "dir")

	created, err := l.EnsureDirectory(target)
	require.NoError(t, err)
	require.True(t, created)

	info, err := os.Stat(target)
	require.NoError(t, err)
	require.True(t, info.IsDir())

	created, err = l.EnsureDirectory(target)
	require.NoError(t, err)
	require.False(t, created)
}

func TestContainerRootIsPure(t *testing.T) {
	l := &Linux{RuntimeDir: "/run/user/1000"}
	require.Equal(t, "/run/user/1000/boxxy/happy-cat-ab12", l.ContainerRoot("happy-cat-ab12"))
	require.Equal(t, l.ContainerRoot("x"), l.ContainerRoot("x"))
}

func TestAppendAllTreatsLeadingSlashAsRelative(t *testing.T) {
	got := AppendAll("/run/user/1000/boxxy/name", "/home/user/.config/foo")
	require.Equal(t, "/run/user/1000/boxxy/name/home/user/.config/foo", got)
}

func TestMaybeResolveSymlinkNonExistentIsNotError(t *testing.T) {
	l := New()
	got, err := l.MaybeResolveSymlink("/does/not/exist/at/all")
	require.NoError(t, err)
	require.Equal(t, "/does/not/exist/at/all", got)
}

func TestMaybeResolveSymlinkFollowsLink(t *testing.T) {
	l := New()
	dir := t.TempDir()
	target := filepath.Join(dir, "real")
	require.NoError(t, os.WriteFile(target, []byte("hi"), 0o644))

	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(target, link))

	got, err := l.MaybeResolveSymlink(link)
	require.NoError(t, err)
	require.Equal(t, target, got)
}
