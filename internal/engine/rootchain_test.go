package engine

import "testing"

func TestRootChainPublishSingle(t *testing.T) {
	p := NewPool(4)
	slot, _ := p.allocate()
	var r rootChain
	if !r.peekEmpty() {
		t.Fatal("new rootChain should be empty")
	}
	r.publish(p, slot)
	if r.peekEmpty() {
		t.Fatal("rootChain should not be empty after publish")
	}
	got := r.detach()
	if got != slot {
		t.Fatalf("detach() = %d, want %d", got, slot)
	}
	if !r.peekEmpty() {
		t.Fatal("rootChain should be empty after detach")
	}
}

func TestRootChainPublishMerges(t *testing.T) {
	p := NewPool(8)
	a, _ := p.allocate()
	b, _ := p.allocate()
	c, _ := p.allocate()

	var r rootChain
	r.publish(p, a)
	r.publish(p, b)
	r.publish(p, c)

	head := r.detach()
	count := 0
	seen := map[uint16]bool{}
	for s := head; s != 0; s = p.blocks[s].sibling {
		if seen[s] {
			t.Fatalf("sibling chain cycles back to slot %d", s)
		}
		seen[s] = true
		count++
	}
	if count != 3 {
		t.Fatalf("merged chain has %d entries, want 3", count)
	}
	for _, slot := range []uint16{a, b, c} {
		if !seen[slot] {
			t.Errorf("slot %d missing from merged chain", slot)
		}
	}
}

func TestRootChainPublishPreservesSiblingOrder(t *testing.T) {
	// Publishing a pre-linked sibling chain (as end_block does for a
	// thread-local root whose own children were already siblings) must
	// keep those children's relative order intact.
	p := NewPool(8)
	a, _ := p.allocate()
	b, _ := p.allocate()
	p.blocks[a].sibling = b

	var r rootChain
	r.publish(p, a)

	head := r.detach()
	if head != a {
		t.Fatalf("detach() = %d, want %d", head, a)
	}
	if p.blocks[a].sibling != b {
		t.Fatalf("sibling order not preserved: blocks[a].sibling = %d, want %d", p.blocks[a].sibling, b)
	}
}
