package hiprof

import (
	"time"

	"github.com/scopeline/hiprof/internal/engine"
)

// Reserved record ids, exported so a Writer can switch on Record.ID without
// importing anything else.
const (
	IDEndOfStream = engine.IDEndOfStream
	IDSysInfo     = engine.IDSysInfo
	IDLog         = engine.IDLog
	IDLogCont     = engine.IDLogCont
	IDEndFrame    = engine.IDEndFrame
	IDTryLock     = engine.IDTryLock
	IDLock        = engine.IDLock
	IDUnlock      = engine.IDUnlock
	IDWait        = engine.IDWait
	IDSignal      = engine.IDSignal
	FirstScopeID  = engine.FirstScopeID
)

// Record, Writer, and WriterFunc are the wire format and sink contract;
// they live in internal/engine and are aliased here so the engine package
// never needs to import this one back.
type (
	Record     = engine.Record
	Writer     = engine.Writer
	WriterFunc = engine.WriterFunc
)

// DecodeRecord parses a 64-byte wire record, for tools consuming a
// previously captured stream.
func DecodeRecord(b [64]byte) Record { return engine.DecodeRecord(b) }

// Profiler owns one block pool, its root chain, and the drain goroutine
// that empties it. Programs typically create exactly one.
type Profiler struct {
	eng *engine.Engine
}

// New builds a Profiler with room for roughly capacity blocks. identifier
// is free-form caller bookkeeping, not interpreted by the profiler.
func New(identifier string, capacity int) *Profiler {
	return &Profiler{eng: engine.New(identifier, capacity)}
}

// SetOutput installs the writer callback. A nil writer is valid: records
// are still produced, flattened, and freed, just never emitted.
func (p *Profiler) SetOutput(w Writer) { p.eng.SetOutput(w) }

// SetOutputWait sets how often the drain goroutine wakes, clamped to a
// 1ms minimum.
func (p *Profiler) SetOutputWait(d time.Duration) { p.eng.SetOutputWait(d) }

// Enable starts or stops the drain goroutine. Idempotent.
func (p *Profiler) Enable(on bool) { p.eng.Enable(on) }

// Finalize disables the profiler, drains whatever remains on the root
// chain, and asserts pool accounting (warning rather than failing on a
// mismatch). Call Thread.Detach on any still-open handles first so their
// open scopes are flushed into the stream instead of counted as a
// quiescence mismatch.
func (p *Profiler) Finalize() {
	p.eng.Finalize()
}

// AttachThread returns a new Thread handle bound to this Profiler. id is
// stamped into every record the handle produces; callers typically use a
// small per-goroutine counter or a worker index.
func (p *Profiler) AttachThread(id uint32) *Thread {
	return &Thread{t: p.eng.AttachThread(id)}
}

// Stats is a snapshot of pool bookkeeping, useful for diagnostics and
// tests. It costs nothing the engine was not already tracking for its own
// conservation accounting.
type Stats struct {
	Capacity  int
	Free      int
	Allocated int64
}

// Stats reports current pool occupancy.
func (p *Profiler) Stats() Stats {
	return Stats{
		Capacity:  p.eng.Pool.Cap(),
		Free:      p.eng.Pool.Free(),
		Allocated: p.eng.Pool.Allocated(),
	}
}
