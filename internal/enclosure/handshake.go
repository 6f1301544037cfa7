package enclosure

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/queer/boxxy/internal/tracer"
	"github.com/queer/boxxy/internal/userns"
)

// spawnAndRun performs CHILD_CLONED through CHILD_EXITED: self-reexec the
// child into a new mount+user namespace, map its ids once it has stopped
// at the post-exec ptrace trap, then either drive the tracer or detach,
// and finally wait for it to exit. It must run with the calling goroutine
// locked to its OS thread for its entire duration, since every ptrace call
// issued here must come from the exact thread that performed the clone.
func (e *Enclosure) spawnAndRun(state *childState, handler *sigintHandler) (exitStatus int, reportPaths []string, err error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	self, err := os.Executable()
	if err != nil {
		return 1, nil, fmt.Errorf("resolving own executable path: %w", err)
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return 1, nil, fmt.Errorf("encoding child state: %w", err)
	}

	rpipe, wpipe, err := os.Pipe()
	if err != nil {
		return 1, nil, fmt.Errorf("creating state pipe: %w", err)
	}
	defer rpipe.Close()

	cmd := exec.Command(self, childArg)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{rpipe}
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags: unix.CLONE_NEWNS | unix.CLONE_NEWUSER,
		Ptrace:     true,
	}

	if err := cmd.Start(); err != nil {
		wpipe.Close()
		return 1, nil, &ErrClone{Cause: err}
	}

	// The child is stopped at its post-exec ptrace trap right now and
	// won't read this pipe until we resume it below (detach or trace), so
	// the write happens on its own goroutine rather than blocking this
	// one on the pipe's buffer draining.
	go func() {
		defer wpipe.Close()
		_, _ = wpipe.Write(payload)
	}()

	pid := cmd.Process.Pid
	handler.setPID(pid)

	// Wait for the child's post-exec ptrace trap (PTRACE_TRACEME delivers
	// SIGTRAP right as its exec completes) before touching its id maps, so
	// id mapping strictly follows the child reaching a known, stopped
	// state rather than racing cmd.Start()'s own exec-succeeded signal.
	var stopStatus unix.WaitStatus
	if _, err := unix.Wait4(pid, &stopStatus, 0, nil); err != nil {
		_ = syscall.Kill(pid, syscall.SIGKILL)
		return 1, nil, fmt.Errorf("waiting for child's post-exec stop: %w", err)
	}
	if !stopStatus.Stopped() {
		return 1, nil, fmt.Errorf("child exited before reaching its post-exec stop (status %v)", stopStatus)
	}

	mapper := userns.New(e.log)
	if err := mapper.MapCurrentUser(pid); err != nil {
		_ = syscall.Kill(pid, syscall.SIGKILL)
		return 1, nil, &ErrIDMapping{Cause: err}
	}

	if state.Trace {
		events := make(chan tracer.Event, 256)
		t := tracer.New(pid, e.log)

		done := make(chan []string, 1)
		go func() {
			done <- collectReportPaths(events, state.ContainerRoot)
		}()

		if err := t.Run(events); err != nil {
			return 1, nil, &ErrTracerFailure{Cause: err}
		}

		reportPaths = <-done
		exitStatus = exitCodeFromWaitStatus(t.PrimaryStatus())
		return exitStatus, reportPaths, nil
	}

	if err := unix.PtraceDetach(pid); err != nil && err != unix.ESRCH {
		return 1, nil, fmt.Errorf("ptrace detach: %w", err)
	}

	return waitForChild(pid), nil, nil
}

// waitForChild reaps descendants until the direct child pid has exited,
// via a subreaper-style wait loop at the parent layer too, rather than a
// fixed sleep-then-break.
func waitForChild(pid int) int {
	return reapUntilPrimaryExits(pid)
}
