// Package syscalltable maps syscall numbers to the register holding a path
// argument, per architecture. It is a pure lookup table — a tagged
// variant and a static map, not a class hierarchy — modeled on the
// arch-dispatch idiom seccomp default profiles use (switch on
// runtime.GOARCH, return a static table) rather than on any kind of
// syscall-object hierarchy.
package syscalltable

import (
	"golang.org/x/sys/unix"
)

// ArgKind says which argument(s) of a traced syscall carry a path, since
// rename-family calls carry two.
type ArgKind int

const (
	// NoPath marks syscalls the tracer observes for bookkeeping only.
	NoPath ArgKind = iota
	// SinglePath says argument PathArg carries the only path.
	SinglePath
	// DualPath says arguments PathArg and SecondPathArg both carry paths
	// (rename, renameat, renameat2).
	DualPath
)

// Entry describes one syscall's path-bearing arguments.
type Entry struct {
	Name          string
	Kind          ArgKind
	PathArg       int
	SecondPathArg int
}

// Table maps a syscall number to its Entry for one architecture.
type Table map[uint64]Entry

// ForArch returns the syscall table for the given runtime.GOARCH value.
// Unsupported architectures return an empty table rather than an error —
// the tracer simply won't decode paths on them, but entry/exit stepping
// still works.
func ForArch(goarch string) Table {
	switch goarch {
	case "amd64":
		return amd64Table
	case "arm64":
		return arm64Table
	default:
		return Table{}
	}
}

// pathSyscalls is the architecture-independent list of syscalls the
// tracer cares about, with the x86-64 argument-index convention; per-arch
// tables translate names to numbers below.
var pathSyscalls = []Entry{
	{Name: "open", Kind: SinglePath, PathArg: 0},
	{Name: "openat", Kind: SinglePath, PathArg: 1},
	{Name: "stat", Kind: SinglePath, PathArg: 0},
	{Name: "lstat", Kind: SinglePath, PathArg: 0},
	{Name: "newfstatat", Kind: SinglePath, PathArg: 1},
	{Name: "access", Kind: SinglePath, PathArg: 0},
	{Name: "faccessat", Kind: SinglePath, PathArg: 1},
	{Name: "faccessat2", Kind: SinglePath, PathArg: 1},
	{Name: "readlink", Kind: SinglePath, PathArg: 0},
	{Name: "readlinkat", Kind: SinglePath, PathArg: 1},
	{Name: "unlink", Kind: SinglePath, PathArg: 0},
	{Name: "unlinkat", Kind: SinglePath, PathArg: 1},
	{Name: "rename", Kind: DualPath, PathArg: 0, SecondPathArg: 1},
	{Name: "renameat", Kind: DualPath, PathArg: 1, SecondPathArg: 3},
	{Name: "renameat2", Kind: DualPath, PathArg: 1, SecondPathArg: 3},
	{Name: "chdir", Kind: SinglePath, PathArg: 0},
	{Name: "execve", Kind: SinglePath, PathArg: 0},
	{Name: "execveat", Kind: SinglePath, PathArg: 1},
}

var amd64Table = buildTable(map[string]uint64{
	"open":       unix.SYS_OPEN,
	"openat":     unix.SYS_OPENAT,
	"stat":       unix.SYS_STAT,
	"lstat":      unix.SYS_LSTAT,
	"newfstatat": unix.SYS_NEWFSTATAT,
	"access":     unix.SYS_ACCESS,
	"faccessat":  unix.SYS_FACCESSAT,
	"faccessat2": unix.SYS_FACCESSAT2,
	"readlink":   unix.SYS_READLINK,
	"readlinkat": unix.SYS_READLINKAT,
	"unlink":     unix.SYS_UNLINK,
	"unlinkat":   unix.SYS_UNLINKAT,
	"rename":     unix.SYS_RENAME,
	"renameat":   unix.SYS_RENAMEAT,
	"renameat2":  unix.SYS_RENAMEAT2,
	"chdir":      unix.SYS_CHDIR,
	"execve":     unix.SYS_EXECVE,
	"execveat":   unix.SYS_EXECVEAT,
})

// arm64 dropped the non-`at` legacy syscalls (open, stat, lstat, access,
// readlink, unlink, rename all vanished in favour of their *at relatives),
// so only the survivors are registered for this architecture.
var arm64Table = buildTable(map[string]uint64{
	"openat":     unix.SYS_OPENAT,
	"newfstatat": unix.SYS_NEWFSTATAT,
	"faccessat":  unix.SYS_FACCESSAT,
	"faccessat2": unix.SYS_FACCESSAT2,
	"readlinkat": unix.SYS_READLINKAT,
	"unlinkat":   unix.SYS_UNLINKAT,
	"renameat":   unix.SYS_RENAMEAT,
	"renameat2":  unix.SYS_RENAMEAT2,
	"chdir":      unix.SYS_CHDIR,
	"execve":     unix.SYS_EXECVE,
	"execveat":   unix.SYS_EXECVEAT,
})

func buildTable(numbers map[string]uint64) Table {
	t := make(Table, len(numbers))
	for _, e := range pathSyscalls {
		nr, ok := numbers[e.Name]
		if !ok {
			continue
		}
		t[nr] = e
	}
	return t
}
