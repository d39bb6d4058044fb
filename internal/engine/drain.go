package engine

// runDrain is the body of the dedicated drain goroutine. It wakes on a
// timer, processes whatever is on the root chain, and exits (after one
// last drain and an end-of-stream record) when exit is closed.
func (e *Engine) runDrain(exit <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	timer := newResettableTimer(e.wait())
	defer timer.Stop()
	for {
		select {
		case <-exit:
			e.drainAllOnCallingGoroutine()
			e.emit(Record{ID: IDEndOfStream})
			return
		case <-timer.C():
			e.drainWake()
			timer.Reset(e.wait())
		}
	}
}

// drainWake handles one wake of the drain goroutine. A wake with an empty
// root chain does nothing at all, including not advancing the sysinfo
// cadence counter: that counter is scoped to wakes that found real work.
func (e *Engine) drainWake() {
	if e.roots.peekEmpty() {
		return
	}
	e.drainThread.Begin("profile_io")
	e.drainThread.Begin("process")
	drainRootChainOnce(e)
	e.drainThread.End() // process
	e.wakes++
	if e.wakes%sysInfoEach == 0 {
		e.emit(Record{ID: IDSysInfo, Start: int64(tickHz), Name: sysinfoName})
	}
	e.drainThread.End() // profile_io
}

var sysinfoName = func() (n [nameLen]byte) {
	copy(n[:], "sysinfo")
	return
}()

// tickHz is the tick unit used by now(): one tick is one nanosecond, so
// there are 1e9 ticks per second. The sysinfo record's Start field reports
// this.
const tickHz = 1_000_000_000

// drainRootChainOnce detaches the entire root chain and flattens+emits+
// frees every tree in it. It is also reused, unmodified, by Finalize to
// perform the remaining-chain drain on the caller's own goroutine: nothing
// here depends on running specifically on the drain goroutine, only on
// having exclusive ownership of whatever it detaches, which detach()
// guarantees by construction.
func drainRootChainOnce(e *Engine) {
	root := e.roots.detach()
	for root != 0 {
		next := e.Pool.blocks[root].sibling
		e.Pool.blocks[root].sibling = 0
		tail, count := processTree(e, root)
		e.Pool.free(root, tail, count)
		root = next
	}
}

// processTree emits b's subtree preorder (children before siblings), and
// while doing so rewrites the tree's own child/sibling links in place so
// that by the time it returns, every node visited is reachable from b
// solely through child — a single chain the freelist can reclaim in one
// free() call. Returns the tail of that chain and how many slots are in
// it.
//
// This recurses rather than using an explicit stack: Go goroutine stacks
// grow on demand, so even a thread-local tree many thousands of scopes deep
// does not risk overflowing a fixed-size stack the way it would in a
// language with a bounded native stack.
func processTree(e *Engine, b uint16) (uint16, int) {
	pool := e.Pool
	blk := &pool.blocks[b]
	e.emit(blk.record())
	count := 1

	if blk.child != 0 {
		l1, c1 := processTree(e, blk.child)
		count += c1
		if blk.sibling != 0 {
			l2, c2 := processTree(e, blk.sibling)
			count += c2
			pool.blocks[l2].child = blk.child
			blk.child = blk.sibling
			blk.sibling = 0
			return l1, count
		}
		return l1, count
	}
	if blk.sibling != 0 {
		l1, c1 := processTree(e, blk.sibling)
		count += c1
		blk.child = blk.sibling
		blk.sibling = 0
		return l1, count
	}
	return b, count
}
