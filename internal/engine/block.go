package engine

import "golang.org/x/text/unicode/norm"

// block is one entry in the pool. previous, sibling, and child are its
// in-pool links: previous is the parent for the block currently at the
// front of its sibling list (and an earlier sibling for anything displaced
// from the front), sibling chains forward through a parent's children, and
// child is both "first child" while the block is live and the freelist's
// next-free link while the block is free.
type block struct {
	id        int32
	parentid  int32
	processor uint32
	thread    uint32
	start     int64
	end       int64
	name      [nameLen]byte

	previous uint16
	sibling  uint16
	child    uint16
}

func (b *block) record() Record {
	return Record{
		ID:        b.id,
		ParentID:  b.parentid,
		Processor: b.processor,
		Thread:    b.thread,
		Start:     b.start,
		End:       b.end,
		Name:      b.name,
	}
}

// setName copies up to nameLen-1 significant bytes of s into the block's
// name field, normalizing to NFC first (which folds a base character and
// its combining marks into one rune wherever a precomposed form exists),
// and then backing off from any byte that would split a UTF-8 rune. A
// combining sequence with no precomposed form can still be cut between
// its runes.
func (b *block) setName(s string) {
	b.name = [nameLen]byte{}
	n := copy(b.name[:nameLen-1], truncateText(s, nameLen-1))
	_ = n
}

// truncateText returns the longest prefix of norm.NFC.String(s) that fits
// within max bytes without splitting a UTF-8 rune.
func truncateText(s string, max int) string {
	s = norm.NFC.String(s)
	if len(s) <= max {
		return s
	}
	n := max
	for n > 0 && isUTF8Continuation(s[n]) {
		n--
	}
	return s[:n]
}

func isUTF8Continuation(c byte) bool {
	return c&0xC0 == 0x80
}

// splitMessage breaks s into chunks of at most nameLen-1 bytes each,
// normalizing first exactly as setName does, so that a message longer than
// the name field is split across continuation blocks. Always returns at
// least one chunk, possibly empty.
func splitMessage(s string) []string {
	s = norm.NFC.String(s)
	if s == "" {
		return []string{""}
	}
	var chunks []string
	for len(s) > 0 {
		n := nameLen - 1
		if n > len(s) {
			n = len(s)
		}
		for n > 0 && n < len(s) && isUTF8Continuation(s[n]) {
			n--
		}
		if n == 0 {
			n = nameLen - 1
		}
		chunks = append(chunks, s[:n])
		s = s[n:]
	}
	return chunks
}
