//go:build arm64

package tracer

import "golang.org/x/sys/unix"

// On arm64 the syscall number lives in X8 and arguments in X0-X5; there is
// no Orig_rax-style dedicated field the way amd64's user_regs_struct has.
func syscallNumber(regs *unix.PtraceRegs) uint64 {
	return regs.Regs[8]
}

func arg(regs *unix.PtraceRegs, index int) uint64 {
	if index < 0 || index > 5 {
		return 0
	}
	return regs.Regs[index]
}

func returnValue(regs *unix.PtraceRegs) int64 {
	return int64(regs.Regs[0])
}
