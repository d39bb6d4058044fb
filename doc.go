/*
Package hiprof is a low-overhead, in-process hierarchical block profiler.

It records timed, nested scopes ("blocks") from many goroutines concurrently
and streams a serialized record sequence to a caller-supplied Writer for
later analysis. Instrumentation is cheap enough to leave enabled in
production-shaped builds: Begin and End cost a handful of atomic operations
and a couple of stores, never a lock, never a syscall beyond sampling the
current hardware core.

Basic use

Create a Profiler once, install a Writer, enable it, and hand out Thread
handles to whatever goroutines need to record scopes:

	p := hiprof.New("myapp", 1<<16)
	p.SetOutput(hiprof.WriterFunc(func(r hiprof.Record) {
		// persist r.Bytes() somewhere
	}))
	p.Enable(true)
	defer p.Finalize()

	th := p.AttachThread(1)
	th.Begin("handleRequest")
	defer th.End()

A Thread is an explicit handle, not hidden goroutine-local state: Go
goroutines have no durable OS-thread identity, so the caller is expected to
carry the handle across the logical unit of work it wants attributed to one
producer, the same way one passes a context.Context down a call chain.

Record stream

Every emitted record is exactly 64 bytes: a documented 58-byte prefix (id,
parentid, processor, thread, start, end, name) plus 6 reserved bytes a
Writer should not assume carry anything meaningful. Reserved low ids (0
through 12) mark system events; anything at or above 128 is a user scope id
assigned from a shared monotonic counter. The stream always ends, on a
clean Finalize, with a single id-0 end-of-stream record.

What this package does not do

It does not resolve symbols, aggregate call graphs, or compute statistical
summaries; it does not grow the pool once created; and under pool
exhaustion it drops events rather than block a producer.
*/
package hiprof
