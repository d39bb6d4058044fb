package engine

import "github.com/scopeline/hiprof/internal/plat"

// cpuFunc samples the hardware core the calling goroutine is currently
// running on. It is a variable, not a direct call to plat.CPU, purely so
// tests can substitute a controlled sequence of values to exercise the
// migration-split logic deterministically.
var cpuFunc = plat.CPU

// Thread is one producer's handle: the currently-open deepest block on this
// logical thread, plus the stable id stamped into every record it produces.
// Go goroutines have no durable OS-thread identity (the runtime may move a
// goroutine between OS threads at any preemption point), so a Thread is an
// explicit handle the caller keeps across a logical sequence of work
// rather than reaching for goroutine-local storage. The hardware core
// sampled into each block's Processor field is real, which is what the
// migration checks in End and Update actually key off of.
type Thread struct {
	eng     *Engine
	id      uint32
	current uint16
}

func (e *Engine) newThread(id uint32) *Thread {
	return &Thread{eng: e, id: id}
}

// AttachThread issues a new Thread handle bound to this engine.
func (e *Engine) AttachThread(id uint32) *Thread {
	return e.newThread(id)
}

// ID returns the producer id this handle stamps into every record it emits.
func (t *Thread) ID() uint32 { return t.id }

// Begin opens a new scope as a child of whatever is currently open on this
// thread (or as a new thread-local root if nothing is open).
func (t *Thread) Begin(name string) {
	if !t.eng.Enabled() {
		return
	}
	slot, ok := t.eng.Pool.allocate()
	if !ok {
		return
	}
	b := &t.eng.Pool.blocks[slot]
	b.id = t.eng.nextScopeID()
	b.processor = cpuFunc()
	b.thread = t.id
	b.start = t.eng.now()
	b.setName(name)
	t.insertAsCurrent(slot)
}

// insertAsCurrent links slot into the tree as the new deepest open block on
// this thread and makes it current.
func (t *Thread) insertAsCurrent(slot uint16) {
	pool := t.eng.Pool
	if t.current == 0 {
		t.current = slot
		return
	}
	p := t.current
	parent := &pool.blocks[p]
	b := &pool.blocks[slot]
	b.parentid = parent.id
	b.previous = p
	b.sibling = parent.child
	if parent.child != 0 {
		pool.blocks[parent.child].previous = slot
	}
	parent.child = slot
	t.current = slot
}

// End closes the current block, computing its duration and its parent via
// a back-link walk, and splits the now-reopened parent in two if the
// hardware core differs from the one the parent was begun on.
func (t *Thread) End() {
	if !t.eng.Enabled() || t.current == 0 {
		return
	}
	t.endSlot(t.current)
}

func (t *Thread) endSlot(slot uint16) {
	pool := t.eng.Pool
	b := &pool.blocks[slot]
	b.end = t.eng.now()

	// previousField is never mutated after slot's own insertion: it is the
	// parent slot whenever slot is (as it must be, being the block we are
	// closing) still the front of its parent's child list. We walk rather
	// than trusting that directly.
	previousField := b.previous
	parent := previousField
	for parent != 0 && pool.blocks[parent].child != slot {
		parent = pool.blocks[parent].previous
	}

	if previousField == 0 {
		// slot was a thread-local root: hand the whole tree to the drain.
		pool.blocks[slot].sibling = 0
		t.eng.roots.publish(pool, slot)
		t.current = 0
		return
	}

	t.current = parent
	if pool.blocks[parent].processor != cpuFunc() {
		name := pool.blocks[parent].name
		t.endSlot(parent)
		t.beginBytes(name)
	}
}

func (t *Thread) beginBytes(name [nameLen]byte) {
	slot, ok := t.eng.Pool.allocate()
	if !ok {
		return
	}
	b := &t.eng.Pool.blocks[slot]
	b.id = t.eng.nextScopeID()
	b.processor = cpuFunc()
	b.thread = t.id
	b.start = t.eng.now()
	b.name = name
	t.insertAsCurrent(slot)
}

// Update checks the current block's captured core against the live one; if
// they differ, it splits the block into two adjacent segments. Meant to be
// called periodically from long-running hot loops.
func (t *Thread) Update() {
	if !t.eng.Enabled() || t.current == 0 {
		return
	}
	b := &t.eng.Pool.blocks[t.current]
	if b.processor != cpuFunc() {
		name := b.name
		t.endSlot(t.current)
		t.beginBytes(name)
	}
}

// attachComplete inserts an already-finished block (end_frame, a message
// head, or a continuation head) as a child of whatever is currently open,
// or publishes it directly as a new root if nothing is open. Unlike Begin,
// this never moves t.current: the block has no further lifecycle.
func (t *Thread) attachComplete(slot uint16) {
	pool := t.eng.Pool
	if t.current == 0 {
		pool.blocks[slot].previous = 0
		pool.blocks[slot].sibling = 0
		t.eng.roots.publish(pool, slot)
		return
	}
	p := t.current
	parent := &pool.blocks[p]
	b := &pool.blocks[slot]
	b.parentid = parent.id
	b.previous = p
	b.sibling = parent.child
	if parent.child != 0 {
		pool.blocks[parent.child].previous = slot
	}
	parent.child = slot
}

// EndFrame inserts a single end-of-frame marker record carrying counter.
func (t *Thread) EndFrame(counter int64) {
	if !t.eng.Enabled() {
		return
	}
	slot, ok := t.eng.Pool.allocate()
	if !ok {
		return
	}
	b := &t.eng.Pool.blocks[slot]
	b.id = IDEndFrame
	b.processor = cpuFunc()
	b.thread = t.id
	b.start = t.eng.now()
	b.end = counter
	t.attachComplete(slot)
}

// Message builds and attaches a message-class record (log/trylock/lock/
// unlock/wait/signal): a head block with the given reserved id, split
// across continuation blocks (id+1, chained through child) if name does
// not fit in one record's name field. The head is attached under whatever
// scope is currently open using the same child-insertion rule Begin uses,
// but it is a peer entry: it never becomes the thread's current block, so
// it has no effect on what a later End closes.
func (t *Thread) Message(id int32, name string) {
	if !t.eng.Enabled() {
		return
	}
	chunks := splitMessage(name)
	pool := t.eng.Pool

	head, ok := pool.allocate()
	if !ok {
		return
	}
	allocatedTail := head
	allocatedCount := 1
	kind := id
	t.fillMessageBlock(head, kind, chunks[0])

	for _, chunk := range chunks[1:] {
		kind = id + continuation
		slot, ok := pool.allocate()
		if !ok {
			// Drop the whole message rather than emit a truncated one;
			// return what we already allocated.
			pool.free(head, allocatedTail, allocatedCount)
			return
		}
		t.fillMessageBlock(slot, kind, chunk)
		pool.blocks[slot].parentid = pool.blocks[allocatedTail].end
		pool.blocks[allocatedTail].child = slot
		allocatedTail = slot
		allocatedCount++
	}
	t.attachComplete(head)
}

func (t *Thread) fillMessageBlock(slot uint16, id int32, name string) {
	b := &t.eng.Pool.blocks[slot]
	b.id = id
	b.processor = cpuFunc()
	b.thread = t.id
	b.start = t.eng.now()
	b.end = t.eng.nextSequence()
	b.setName(name)
}

// Log, TryLock, Lock, Unlock, Wait, and Signal are the reserved message
// classes.
func (t *Thread) Log(msg string)      { t.Message(IDLog, msg) }
func (t *Thread) TryLock(name string) { t.Message(IDTryLock, name) }
func (t *Thread) Lock(name string)    { t.Message(IDLock, name) }
func (t *Thread) Unlock(name string)  { t.Message(IDUnlock, name) }
func (t *Thread) Wait(name string)    { t.Message(IDWait, name) }
func (t *Thread) Signal(name string)  { t.Message(IDSignal, name) }

// Detach walks a thread's open chain from deepest to root, ending each,
// for a thread that is going away with open scopes still on it. If two
// consecutive iterations observe the same current slot, the walk is
// abandoned with a warning: that should never happen given the engine's
// own invariants, and continuing would spin forever.
func (t *Thread) Detach() {
	last := uint16(0)
	for t.current != 0 {
		if t.current == last {
			warn("thread %d: self-referential open block %d during cleanup, abandoning walk", t.id, t.current)
			return
		}
		last = t.current
		t.End()
	}
}
