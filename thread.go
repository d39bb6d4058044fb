package hiprof

import "github.com/scopeline/hiprof/internal/engine"

// Thread is one producer's handle onto a Profiler: the currently-open
// deepest scope on this logical thread, plus the id stamped into every
// record it produces. See the package doc for why this is an explicit
// handle rather than implicit per-goroutine state.
type Thread struct {
	t *engine.Thread
}

// ID returns the producer id this handle stamps into every record it emits.
func (t *Thread) ID() uint32 { return t.t.ID() }

// Begin opens a new scope named name as a child of whatever is currently
// open on this handle, or as a new thread-local root if nothing is open.
func (t *Thread) Begin(name string) { t.t.Begin(name) }

// End closes the current scope. A no-op if nothing is open.
func (t *Thread) End() { t.t.End() }

// Update re-samples the hardware core under the current scope; if it
// changed since Begin (or the last Update), the scope is split into two
// adjacent segments so each can be attributed to one core. Call this
// periodically from long-running loops you want migration-aware.
func (t *Thread) Update() { t.t.Update() }

// EndFrame inserts a single frame-boundary marker record carrying counter,
// typically a monotonically increasing frame number.
func (t *Thread) EndFrame(counter int64) { t.t.EndFrame(counter) }

// Log inserts a log message record, split across continuation records if
// msg does not fit in one record's 25-byte name budget.
func (t *Thread) Log(msg string) { t.t.Log(msg) }

// TryLock, Lock, Unlock, Wait, and Signal insert the matching reserved
// message-class record named name.
func (t *Thread) TryLock(name string) { t.t.TryLock(name) }
func (t *Thread) Lock(name string)    { t.t.Lock(name) }
func (t *Thread) Unlock(name string)  { t.t.Unlock(name) }
func (t *Thread) Wait(name string)    { t.t.Wait(name) }
func (t *Thread) Signal(name string)  { t.t.Signal(name) }

// Detach flushes any scopes still open on this handle (deepest first) into
// the stream. Call this before discarding a handle whose owning goroutine
// is exiting with open scopes.
func (t *Thread) Detach() { t.t.Detach() }
