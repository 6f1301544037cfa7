package enclosure

import (
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"

	"github.com/queer/boxxy/internal/fsdriver"
	"github.com/queer/boxxy/internal/rule"
)

// runChild assembles the mount view and launches the target command. It
// is called after the parent has mapped ids and either detached or
// attached the tracer —
// the child itself doesn't know or care which, except to choose chroot
// (tracing) vs pivot_root (not tracing).
func runChild(state *childState) int {
	driver := fsdriver.New()

	if err := driver.SetupRoot(state.Name); err != nil {
		return fail(&ErrFsSetup{Path: state.Name, Cause: err})
	}
	root := driver.ContainerRoot(state.Name)

	if err := driver.BindMountRW("/", root); err != nil {
		return fail(&ErrMount{Path: root, Cause: err})
	}

	for _, r := range state.Rules {
		joined := fsdriver.AppendAll(root, r.Target)

		if r.Mode == rule.Directory {
			if _, err := driver.EnsureDirectory(joined); err != nil {
				return fail(&ErrFsSetup{Path: joined, Cause: err})
			}
		} else {
			if _, err := driver.EnsureFile(joined); err != nil {
				return fail(&ErrFsSetup{Path: joined, Cause: err})
			}
		}

		if err := driver.BindMountRW(r.Rewrite, joined); err != nil {
			return fail(&ErrMount{Path: joined, Cause: err})
		}
	}

	pwd, err := os.Getwd()
	if err != nil {
		pwd = "/"
	}

	if state.Trace {
		// pivot_root confuses the parent's ability to resolve paths it
		// reads out of our address space via ptrace, since the root
		// mount table changes underneath it; chroot leaves the mount
		// namespace's root mount itself untouched.
		if err := unix.Chroot(root); err != nil {
			return fail(&ErrChroot{Cause: err})
		}
	} else {
		if err := os.Chdir(root); err != nil {
			return fail(&ErrPivotRoot{Cause: err})
		}
		if err := unix.PivotRoot(".", "."); err != nil {
			return fail(&ErrPivotRoot{Cause: err})
		}
		if err := unix.Unmount(".", unix.MNT_DETACH); err != nil {
			return fail(&ErrPivotRoot{Cause: err})
		}
	}

	if err := os.Chdir(pwd); err != nil {
		_ = os.Chdir("/")
	}

	if state.ImmutableRoot {
		if err := driver.RemountRO("/"); err != nil {
			return fail(&ErrMount{Path: "/", Cause: err})
		}
	}

	if err := unix.Prctl(unix.PR_SET_CHILD_SUBREAPER, 1, 0, 0, 0); err != nil {
		return fail(fmt.Errorf("prctl(PR_SET_CHILD_SUBREAPER): %w", err))
	}

	cmd := exec.Command(state.Program, state.Args...)
	cmd.Env = state.Env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if state.Cwd != "" {
		cmd.Dir = state.Cwd
	}

	if err := cmd.Start(); err != nil {
		return fail(&ErrClone{Cause: err})
	}

	return reapUntilPrimaryExits(cmd.Process.Pid)
}

// reapUntilPrimaryExits acts as subreaper: it waits
// on every descendant (not just the primary) so workers forked by the
// target command don't accumulate as zombies, but track and return only
// the primary's own termination status.
func reapUntilPrimaryExits(primary int) int {
	status := -1

	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, 0, nil)
		if err != nil {
			if err == unix.ECHILD {
				break
			}
			continue
		}

		if pid == primary && (ws.Exited() || ws.Signaled()) {
			status = exitCodeFromWaitStatus(ws)
		}
	}

	if status == -1 {
		status = 1
	}
	return status
}

// exitCodeFromWaitStatus renders a wait status the way a shell would: the
// exit code if the process exited normally, or 128+signal if it was killed
// by a signal.
func exitCodeFromWaitStatus(ws unix.WaitStatus) int {
	if ws.Exited() {
		return ws.ExitStatus()
	}
	if ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return 1
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "boxxy: %v\n", err)
	return 1
}
