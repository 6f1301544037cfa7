// Package tracer drives a stopped tracee through PTRACE_SYSCALL stops,
// decoding path arguments via internal/syscalltable and emitting them on
// a channel.
package tracer

import (
	"runtime"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/queer/boxxy/internal/syscalltable"
)

// Event is one syscall-entry observation, optionally carrying a resolved
// path argument.
type Event struct {
	// ID correlates interleaved events from multiple tracees in logs.
	ID      string
	PID     int
	Syscall string
	Path    string
	HasPath bool
}

// stopSignal is the wait4 status signal ptrace uses to mark a
// PTRACE_SYSCALL stop: SIGTRAP with the high bit set (0x80) when
// PTRACE_O_TRACESYSGOOD is active.
const stopSignal = unix.SIGTRAP | 0x80

const traceOptions = unix.PTRACE_O_TRACESYSGOOD |
	unix.PTRACE_O_TRACECLONE |
	unix.PTRACE_O_TRACEFORK |
	unix.PTRACE_O_TRACEVFORK

// Tracer tracks one or more tracee PIDs (the primary child plus any
// attached via clone/fork/vfork events) and emits Events until the primary
// exits.
type Tracer struct {
	primary int
	table   syscalltable.Table
	log     *logrus.Entry

	// entered tracks, per PID, whether the next stop for that PID is a
	// syscall-exit (true) or syscall-entry (false) stop — ptrace delivers
	// one PTRACE_SYSCALL stop per entry AND per exit, and only entry stops
	// produce events.
	entered map[int]bool

	primaryStatus unix.WaitStatus
}

// PrimaryStatus returns the wait status observed when the primary tracee
// exited. Valid only after Run has returned.
func (t *Tracer) PrimaryStatus() unix.WaitStatus {
	return t.primaryStatus
}

// New returns a Tracer for primary, which must already be ptrace-stopped
// (e.g. via the PTRACE_TRACEME + exec handshake internal/enclosure
// performs before resuming it).
func New(primary int, log *logrus.Entry) *Tracer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Tracer{
		primary: primary,
		table:   syscalltable.ForArch(runtime.GOARCH),
		log:     log,
		entered: map[int]bool{},
	}
}

// Run resumes the primary tracee and steps it (and any descendants it
// clones) through syscall stops, sending an Event for every traced
// syscall-entry that names a path, until the primary exits, then closes
// events. The caller must have locked the current goroutine to its OS
// thread before calling Run, since all of these ptrace calls must come
// from the same thread that is the tracee's tracer.
func (t *Tracer) Run(events chan<- Event) error {
	defer close(events)

	if err := unix.PtraceSetOptions(t.primary, traceOptions); err != nil {
		return err
	}
	if err := unix.PtraceSyscall(t.primary, 0); err != nil {
		return err
	}

	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, 0, nil)
		if err != nil {
			if err == unix.ECHILD {
				return nil
			}
			return err
		}

		if ws.Exited() || ws.Signaled() {
			delete(t.entered, pid)
			if pid == t.primary {
				t.primaryStatus = ws
				return nil
			}
			continue
		}

		if !ws.Stopped() {
			continue
		}

		stopSig := ws.StopSignal()

		if code := ws.TrapCause(); code == unix.PTRACE_EVENT_CLONE ||
			code == unix.PTRACE_EVENT_FORK ||
			code == unix.PTRACE_EVENT_VFORK {
			if newPID, err := unix.PtraceGetEventMsg(pid); err == nil {
				t.entered[int(newPID)] = false
			}
		}

		if stopSig != stopSignal {
			// Not a syscall stop: forward the signal (e.g. a real
			// SIGSEGV the tracee raised) on resume instead of
			// swallowing it.
			_ = unix.PtraceSyscall(pid, int(stopSig))
			continue
		}

		isExit := t.entered[pid]
		t.entered[pid] = !isExit

		if isExit {
			t.logReturnValue(pid)
		} else {
			for _, ev := range t.decode(pid) {
				t.log.WithField("id", ev.ID).WithField("pid", ev.PID).
					WithField("syscall", ev.Syscall).WithField("path", ev.Path).
					Debug("syscall entry")
				select {
				case events <- ev:
				default:
					// Bounded channel and a slow consumer: drop rather
					// than stall the tracee indefinitely.
					t.log.Warn("tracer event channel full, dropping event")
				}
			}
		}

		if err := unix.PtraceSyscall(pid, 0); err != nil && err != unix.ESRCH {
			t.log.WithError(err).WithField("pid", pid).Warn("failed to resume tracee")
		}
	}
}

// logReturnValue emits a trace-level log of a syscall's return value at
// its exit stop, handy when diagnosing why a rule's rewrite didn't take
// effect (e.g. openat returning -EROFS under an immutable root).
func (t *Tracer) logReturnValue(pid int) {
	if !t.log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		return
	}

	var regs unix.PtraceRegs
	if err := unix.PtraceGetRegs(pid, &regs); err != nil {
		return
	}

	t.log.WithField("pid", pid).WithField("ret", returnValue(&regs)).Trace("syscall exit")
}

func (t *Tracer) decode(pid int) []Event {
	var regs unix.PtraceRegs
	if err := unix.PtraceGetRegs(pid, &regs); err != nil {
		return nil
	}

	entry, ok := t.table[syscallNumber(&regs)]
	if !ok || entry.Kind == syscalltable.NoPath {
		return nil
	}

	var events []Event
	if path, ok := t.readPath(pid, arg(&regs, entry.PathArg)); ok {
		events = append(events, Event{ID: ulid.Make().String(), PID: pid, Syscall: entry.Name, Path: path, HasPath: true})
	}

	if entry.Kind == syscalltable.DualPath {
		if path, ok := t.readPath(pid, arg(&regs, entry.SecondPathArg)); ok {
			events = append(events, Event{ID: ulid.Make().String(), PID: pid, Syscall: entry.Name, Path: path, HasPath: true})
		}
	}

	return events
}

// readPath reads a NUL-terminated string out of the tracee's address
// space at addr, one word at a time via PTRACE_PEEKDATA.
func (t *Tracer) readPath(pid int, addr uint64) (string, bool) {
	if addr == 0 {
		return "", false
	}

	const maxLen = 4096
	buf := make([]byte, 0, 256)
	word := make([]byte, 8)

	for len(buf) < maxLen {
		n, err := unix.PtracePeekData(pid, uintptr(addr)+uintptr(len(buf)), word)
		if err != nil || n == 0 {
			return "", false
		}

		for _, b := range word[:n] {
			if b == 0 {
				return string(buf), true
			}
			buf = append(buf, b)
		}
	}

	return string(buf), true
}
