package plat

import "golang.org/x/sys/windows"

// CPU returns the hardware core the calling goroutine is currently
// scheduled on. See the Linux implementation for the caveats on how stable
// this value is expected to be.
func CPU() uint32 {
	return uint32(windows.GetCurrentProcessorNumber())
}
