//go:build !linux && !windows

package plat

// CPU reports core 0 on platforms we have no syscall for. Thread-migration
// splitting (engine.Thread's End and Update) becomes a no-op as a consequence,
// which is safe: the tree is still correct, just less precisely attributed.
func CPU() uint32 {
	return 0
}
