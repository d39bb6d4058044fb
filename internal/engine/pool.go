package engine

import (
	"fmt"
	"os"
	"sync/atomic"
)

// maxSlots is the largest pool size this package supports: indices are
// 16-bit, and slot 0 is reserved as the null sentinel.
const maxSlots = 65535

// Pool is the fixed-capacity, pre-allocated array of block records and the
// lock-free freelist threaded through it. It never grows after NewPool.
type Pool struct {
	blocks []block

	// head packs the freelist head as tag:16 | index:16. index 0 means the
	// freelist is empty.
	head uint32
	// tag is a shared counter incremented on every freelist CAS attempt
	// (successful or not) so a stale head value almost never compares equal
	// to a current one, defeating ABA.
	tag uint32

	warnedExhausted uint32 // one-shot flag, atomic

	allocated int64 // atomic: slots currently outside the freelist
}

// NewPool builds a pool of capacity slots (clamped to 2..65535; slot 0 is reserved, so
// a request for n usable slots needs capacity n+1). Go gives no safe way to
// reinterpret an arbitrary byte slice as a slice of structs containing no
// pointers without unsafe tricks the garbage collector cannot be told
// about, so NewPool instead allocates its own backing array sized by the
// caller's capacity request rather than taking caller-owned memory.
func NewPool(capacity int) *Pool {
	if capacity > maxSlots {
		capacity = maxSlots
	}
	if capacity < 2 {
		capacity = 2
	}
	p := &Pool{blocks: make([]block, capacity)}
	// Thread every slot i to i+1, last slot to 0. Slot 0 stays the sentinel.
	for i := 1; i < len(p.blocks)-1; i++ {
		p.blocks[i].child = uint16(i + 1)
	}
	p.head = uint32(1)
	return p
}

// Cap returns the total slot count, including the reserved sentinel.
func (p *Pool) Cap() int { return len(p.blocks) }

// Free reports the number of slots currently on the freelist.
func (p *Pool) Free() int {
	n := 0
	for s := uint16(atomic.LoadUint32(&p.head)); s != 0; s = p.blocks[s].child {
		n++
	}
	return n
}

// Allocated reports the number of slots currently allocated (outside the
// freelist), a running counter rather than a freelist walk.
func (p *Pool) Allocated() int64 { return atomic.LoadInt64(&p.allocated) }

// allocate pops one slot from the freelist, zeroing its contents. It
// returns (0, false) on exhaustion, logging a one-shot warning.
func (p *Pool) allocate() (uint16, bool) {
	for {
		old := atomic.LoadUint32(&p.head)
		idx := uint16(old)
		if idx == 0 {
			p.warnExhaustedOnce()
			return 0, false
		}
		next := p.blocks[idx].child
		tag := atomic.AddUint32(&p.tag, 1)
		newHead := uint32(next) | tag<<16
		if atomic.CompareAndSwapUint32(&p.head, old, newHead) {
			p.blocks[idx] = block{}
			atomic.AddInt64(&p.allocated, 1)
			return idx, true
		}
	}
}

// free returns the chain of slots from head to tail (inclusive, linked by
// child) to the freelist as a single unit.
func (p *Pool) free(head, tail uint16, count int) {
	if head == 0 {
		return
	}
	for {
		old := atomic.LoadUint32(&p.head)
		p.blocks[tail].child = uint16(old)
		tag := atomic.AddUint32(&p.tag, 1)
		newHead := uint32(head) | tag<<16
		if atomic.CompareAndSwapUint32(&p.head, old, newHead) {
			atomic.AddInt64(&p.allocated, -int64(count))
			return
		}
	}
}

func (p *Pool) warnExhaustedOnce() {
	if atomic.CompareAndSwapUint32(&p.warnedExhausted, 0, 1) {
		fmt.Fprintf(os.Stderr, "hiprof: block pool exhausted (%d slots); dropping events until the drain catches up; increase pool capacity or decrease the drain interval\n", len(p.blocks)-1)
	}
}
