package engine

import "time"

// resettableTimer wraps time.Timer with the drain-then-reset dance the
// standard library documents as necessary to reuse a timer safely: without
// draining a timer that already fired, a subsequent Reset can observe a
// stale tick.
type resettableTimer struct {
	t *time.Timer
}

func newResettableTimer(d time.Duration) *resettableTimer {
	return &resettableTimer{t: time.NewTimer(d)}
}

func (r *resettableTimer) C() <-chan time.Time { return r.t.C }

func (r *resettableTimer) Stop() {
	if !r.t.Stop() {
		select {
		case <-r.t.C:
		default:
		}
	}
}

func (r *resettableTimer) Reset(d time.Duration) {
	r.Stop()
	r.t.Reset(d)
}
