// Package engine implements the concurrent block-profiling core: a
// fixed-capacity block pool, a lock-free freelist, per-thread hierarchical
// scope accumulation, a lock-free root chain handing completed trees to a
// background drain goroutine, and the drain's tree-to-stream flattening.
// Everything here is safe to call from any goroutine except where noted;
// none of it ever blocks except the drain goroutine itself.
package engine

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const (
	minWait     = time.Millisecond
	defaultWait = 100 * time.Millisecond
	sysInfoEach = 11
)

// Engine is the whole profiler: the pool, the root chain, the id and
// sequence counters, and the drain goroutine's lifecycle. A zero Engine is
// not usable; build one with New.
type Engine struct {
	Pool  *Pool
	roots rootChain

	scopeID  int32 // atomic, pre-incremented so the first id is FirstScopeID
	sequence int64 // atomic, shared by message/continuation blocks
	ground   time.Time

	enabled uint32 // atomic bool

	writerMu sync.RWMutex
	writer   Writer

	waitNanos int64 // atomic

	drainMu     sync.Mutex
	drainExit   chan struct{}
	drainDone   chan struct{}
	drainThread *Thread
	wakes       uint64 // drain-goroutine-only, no sync needed

	finalizeMu sync.Mutex
}

// New builds an Engine with the given pool capacity. identifier is carried
// only for the caller's own bookkeeping; the core never inspects it, and it
// is accepted here only to keep call sites self-documenting about which
// profiler instance they mean.
func New(identifier string, capacity int) *Engine {
	_ = identifier
	e := &Engine{
		Pool:      NewPool(capacity),
		ground:    time.Now(),
		waitNanos: int64(defaultWait),
	}
	atomic.StoreInt32(&e.scopeID, FirstScopeID-1)
	e.drainThread = e.newThread(0)
	return e
}

// Enabled reports whether the engine is currently accepting events.
func (e *Engine) Enabled() bool {
	return atomic.LoadUint32(&e.enabled) != 0
}

// now returns the current tick relative to ground time.
func (e *Engine) now() int64 {
	return int64(time.Since(e.ground))
}

func (e *Engine) nextScopeID() int32 {
	return atomic.AddInt32(&e.scopeID, 1)
}

func (e *Engine) nextSequence() int64 {
	return atomic.AddInt64(&e.sequence, 1)
}

// SetOutput installs the writer callback. A nil writer means records are
// still produced, flattened, and freed, just never emitted.
func (e *Engine) SetOutput(w Writer) {
	e.writerMu.Lock()
	e.writer = w
	e.writerMu.Unlock()
}

func (e *Engine) emit(r Record) {
	e.writerMu.RLock()
	w := e.writer
	e.writerMu.RUnlock()
	if w != nil {
		w.WriteRecord(r)
	}
}

// SetOutputWait sets the drain period, clamped to a 1ms minimum.
func (e *Engine) SetOutputWait(d time.Duration) {
	if d < minWait {
		d = minWait
	}
	atomic.StoreInt64(&e.waitNanos, int64(d))
}

func (e *Engine) wait() time.Duration {
	return time.Duration(atomic.LoadInt64(&e.waitNanos))
}

// Enable starts or stops the drain goroutine. It is idempotent: enabling an
// already-enabled engine, or disabling an already-disabled one, does
// nothing.
func (e *Engine) Enable(on bool) {
	e.drainMu.Lock()
	defer e.drainMu.Unlock()
	if on {
		if atomic.LoadUint32(&e.enabled) != 0 {
			return
		}
		atomic.StoreUint32(&e.enabled, 1)
		e.drainExit = make(chan struct{})
		e.drainDone = make(chan struct{})
		go e.runDrain(e.drainExit, e.drainDone)
		return
	}
	if atomic.LoadUint32(&e.enabled) == 0 {
		return
	}
	atomic.StoreUint32(&e.enabled, 0)
	close(e.drainExit)
	<-e.drainDone
}

// Finalize disables the engine, drains any remaining root chain on the
// calling goroutine, and asserts pool accounting. It does not panic on a
// mismatch, only warns. Producers with their own open blocks should call
// Thread.Detach before Finalize so those blocks are flushed into the
// stream rather than counted as a quiescence mismatch.
func (e *Engine) Finalize() {
	e.finalizeMu.Lock()
	defer e.finalizeMu.Unlock()
	e.Enable(false)
	e.drainAllOnCallingGoroutine()
	free := e.Pool.Free()
	total := e.Pool.Cap()
	if free+1 != total || !e.roots.peekEmpty() {
		fmt.Fprintf(os.Stderr, "hiprof: finalize accounting mismatch: free=%d sentinel=1 want=%d rootEmpty=%v\n", free, total, e.roots.peekEmpty())
	}
}

func (e *Engine) drainAllOnCallingGoroutine() {
	for !e.roots.peekEmpty() {
		drainRootChainOnce(e)
	}
}
