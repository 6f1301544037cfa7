// Package fsdriver implements the filesystem-side primitives an Enclosure
// needs: path expansion, placeholder creation, bind mounts, and the
// per-run enclosure root directory. It is deliberately kept as a thin,
// fakeable capability set (see Driver) rather than a concrete struct the
// rest of the package reaches into, so tests can swap in a memory-backed
// implementation instead of touching the real filesystem.
package fsdriver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Driver is the capability set the enclosure and rule packages depend on.
// Real runs use *Linux; tests can fake it.
type Driver interface {
	FullyExpandPath(p string) (string, error)
	MaybeResolveSymlink(p string) (string, error)
	Touch(p string) error
	TouchDir(p string) error
	EnsureFile(p string) (created bool, err error)
	EnsureDirectory(p string) (created bool, err error)
	ContainerRoot(name string) string
	SetupRoot(name string) error
	CleanupRoot(name string) error
	BindMountRW(src, dst string) error
	RemountRO(p string) error
}

// Linux is the real, syscall-backed Driver.
type Linux struct {
	// RuntimeDir overrides ${XDG_RUNTIME_DIR:-/tmp}; empty uses the
	// environment.
	RuntimeDir string
}

// New returns a Linux driver using the process's real runtime directory.
func New() *Linux {
	return &Linux{}
}

func (l *Linux) runtimeDir() string {
	if l.RuntimeDir != "" {
		return l.RuntimeDir
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	return "/tmp"
}

// FullyExpandPath expands a leading "~" to the invoking user's home
// directory and any "$VAR"/"${VAR}" references, then makes the result
// absolute. It fails with a PathExpansion-flavoured error if an env
// reference can't be resolved.
func (l *Linux) FullyExpandPath(p string) (string, error) {
	expanded := p

	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding %q: resolving home directory: %w", p, err)
		}
		expanded = filepath.Join(home, strings.TrimPrefix(expanded, "~"))
	}

	if strings.Contains(expanded, "$") {
		var missing string
		expanded = os.Expand(expanded, func(name string) string {
			v, ok := os.LookupEnv(name)
			if !ok {
				missing = name
			}
			return v
		})
		if missing != "" {
			return "", fmt.Errorf("expanding %q: environment variable %q is not set", p, missing)
		}
	}

	if !filepath.IsAbs(expanded) {
		abs, err := filepath.Abs(expanded)
		if err != nil {
			return "", fmt.Errorf("expanding %q: %w", p, err)
		}
		expanded = abs
	}

	return filepath.Clean(expanded), nil
}

// MaybeResolveSymlink returns the link target if p is a symlink, else p
// unchanged. A non-existent path is not an error — it simply isn't a
// symlink yet.
func (l *Linux) MaybeResolveSymlink(p string) (string, error) {
	fi, err := os.Lstat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return "", fmt.Errorf("lstat %s: %w", p, err)
	}

	if fi.Mode()&os.ModeSymlink == 0 {
		return p, nil
	}

	target, err := os.Readlink(p)
	if err != nil {
		return "", fmt.Errorf("readlink %s: %w", p, err)
	}

	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(p), target)
	}

	return target, nil
}

// Touch creates an empty file, creating missing parent directories as
// directories first. Not idempotent: callers that only want "create if
// absent" semantics should use EnsureFile.
func (l *Linux) Touch(p string) error {
	if err := l.TouchDir(filepath.Dir(p)); err != nil {
		return err
	}

	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("touch %s: %w", p, err)
	}
	return f.Close()
}

// TouchDir creates a directory tree, idempotently.
func (l *Linux) TouchDir(p string) error {
	if err := os.MkdirAll(p, 0o755); err != nil {
		return fmt.Errorf("mkdir -p %s: %w", p, err)
	}
	return nil
}

// EnsureFile creates an empty file if absent and reports whether it did so.
func (l *Linux) EnsureFile(p string) (bool, error) {
	if _, err := os.Stat(p); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat %s: %w", p, err)
	}

	if err := l.Touch(p); err != nil {
		return false, err
	}
	return true, nil
}

// EnsureDirectory creates a directory if absent and reports whether it did
// so.
func (l *Linux) EnsureDirectory(p string) (bool, error) {
	if _, err := os.Stat(p); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat %s: %w", p, err)
	}

	if err := l.TouchDir(p); err != nil {
		return false, err
	}
	return true, nil
}

// ContainerRoot is the deterministic per-enclosure root directory: a pure
// function of name.
func (l *Linux) ContainerRoot(name string) string {
	return filepath.Join(l.runtimeDir(), "boxxy", name)
}

// SetupRoot creates the enclosure root with mode 0700.
func (l *Linux) SetupRoot(name string) error {
	root := l.ContainerRoot(name)
	if err := os.MkdirAll(root, 0o700); err != nil {
		return fmt.Errorf("creating enclosure root %s: %w", root, err)
	}
	return os.Chmod(root, 0o700)
}

// CleanupRoot lazily/detach-unmounts and removes the enclosure root. It
// tolerates partial-setup states (root never mounted, already removed) and
// repeated invocation, since both the normal exit path and the SIGINT
// handler may call it.
func (l *Linux) CleanupRoot(name string) error {
	root := l.ContainerRoot(name)

	if err := unix.Unmount(root, unix.MNT_DETACH); err != nil && err != unix.EINVAL && err != unix.ENOENT {
		// EINVAL (not a mountpoint: setup never bind-mounted the root, or
		// it was already pivoted away from under us) and ENOENT skip this
		// branch; any other unmount error is not fatal either — fall
		// through to removal, which reports its own failure.
	}

	if err := os.RemoveAll(root); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing enclosure root %s: %w", root, err)
	}

	return nil
}

// BindMountRW bind mounts src onto dst recursively, then rebinds dropping
// MS_RDONLY so writes through dst succeed even if src's mount happened to
// be read-only. Mirrors lxd-migrate/utils.go's setupSource, minus the
// read-only remount it applies unconditionally.
func (l *Linux) BindMountRW(src, dst string) error {
	if err := unix.Mount(src, dst, "", unix.MS_BIND|unix.MS_REC, ""); err != nil {
		return fmt.Errorf("bind mounting %s onto %s: %w", src, dst, err)
	}

	if err := unix.Mount("", dst, "", unix.MS_REMOUNT|unix.MS_BIND, ""); err != nil {
		return fmt.Errorf("remounting %s read-write: %w", dst, err)
	}

	return nil
}

// RemountRO remounts an existing bind mount read-only in place.
func (l *Linux) RemountRO(p string) error {
	if err := unix.Mount("", p, "", unix.MS_REMOUNT|unix.MS_BIND|unix.MS_RDONLY, ""); err != nil {
		return fmt.Errorf("remounting %s read-only: %w", p, err)
	}
	return nil
}

// AppendAll concatenates path segments under base, treating a leading "/"
// on each segment as relative rather than a reset to the filesystem root
// (the behaviour filepath.Join would give you, and which would silently
// discard base). This is how a rule's absolute Target is projected into
// the enclosure root.
func AppendAll(base string, segs ...string) string {
	out := base
	for _, seg := range segs {
		out = filepath.Join(out, strings.TrimPrefix(seg, "/"))
	}
	return out
}
