package plat

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// CPU returns the hardware core the calling goroutine is currently
// scheduled on, sampled via a raw getcpu(2) syscall. The result is only a
// sample: the goroutine (and the OS thread under it) may migrate the
// instant after this returns. The engine uses successive samples only to
// detect that a migration happened, never to pin anything.
func CPU() uint32 {
	var cpu, node int
	_, _, errno := unix.Syscall(unix.SYS_GETCPU, uintptr(unsafe.Pointer(&cpu)), uintptr(unsafe.Pointer(&node)), 0)
	if errno != 0 {
		return 0
	}
	return uint32(cpu)
}
