//go:build amd64

package tracer

import "golang.org/x/sys/unix"

// syscallNumber and arg below isolate the one part of the tracer that's
// genuinely architecture-specific — which register holds the syscall
// number and which hold its arguments — the same split PazerOP's
// zsysnum_cosmo_arm64.go / zerrors_cosmo_amd64.go pairing uses for
// per-arch syscall tables upstream in the Go toolchain itself.
func syscallNumber(regs *unix.PtraceRegs) uint64 {
	return regs.Orig_rax
}

func arg(regs *unix.PtraceRegs, index int) uint64 {
	switch index {
	case 0:
		return regs.Rdi
	case 1:
		return regs.Rsi
	case 2:
		return regs.Rdx
	case 3:
		return regs.R10
	case 4:
		return regs.R8
	case 5:
		return regs.R9
	default:
		return 0
	}
}

func returnValue(regs *unix.PtraceRegs) int64 {
	return int64(regs.Rax)
}
