// Package plat isolates the handful of host-platform queries the profiling
// engine needs but does not itself define: the hardware core a goroutine is
// currently running on. Everything else the engine needs (ticks, thread
// identity) comes from the standard library or from the caller.
package plat
