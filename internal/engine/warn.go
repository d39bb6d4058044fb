package engine

import (
	"fmt"
	"os"
)

// warn reports a survivable-but-notable condition with a bare line to
// stderr; no logging framework. None of these conditions are ever
// propagated to producers.
func warn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "hiprof: "+format+"\n", args...)
}
