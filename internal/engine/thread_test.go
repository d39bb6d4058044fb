package engine

import "testing"

// withFixedCPU pins cpuFunc to a constant value for the duration of a test,
// then restores it. Several tests instead swap in a sequence-driven fake to
// deterministically trigger the migration-split path.
func withFixedCPU(t *testing.T, cpu uint32) {
	t.Helper()
	old := cpuFunc
	cpuFunc = func() uint32 { return cpu }
	t.Cleanup(func() { cpuFunc = old })
}

func withCPUSequence(t *testing.T, seq []uint32) {
	t.Helper()
	old := cpuFunc
	i := 0
	cpuFunc = func() uint32 {
		v := seq[i]
		if i < len(seq)-1 {
			i++
		}
		return v
	}
	t.Cleanup(func() { cpuFunc = old })
}

func collectRecords(e *Engine) *[]Record {
	var got []Record
	e.SetOutput(WriterFunc(func(r Record) { got = append(got, r) }))
	return &got
}

func TestBeginEndSingleScope(t *testing.T) {
	withFixedCPU(t, 1)
	e := New("test", 16)
	e.Enable(true)
	got := collectRecords(e)

	th := e.AttachThread(5)
	th.Begin("outer")
	th.End()
	e.Finalize()

	if len(*got) != 2 { // scope + end-of-stream
		t.Fatalf("want 2 records, got %d: %+v", len(*got), *got)
	}
	r := (*got)[0]
	if r.ID != FirstScopeID {
		t.Errorf("ID = %d, want %d", r.ID, FirstScopeID)
	}
	if r.ParentID != 0 {
		t.Errorf("ParentID = %d, want 0 for a top-level scope", r.ParentID)
	}
	if r.Thread != 5 {
		t.Errorf("Thread = %d, want 5", r.Thread)
	}
	if r.End < r.Start {
		t.Errorf("End (%d) < Start (%d)", r.End, r.Start)
	}
}

func TestBeginEndNesting(t *testing.T) {
	withFixedCPU(t, 1)
	e := New("test", 16)
	e.Enable(true)
	got := collectRecords(e)

	th := e.AttachThread(1)
	th.Begin("outer")
	th.Begin("inner")
	th.End() // inner
	th.End() // outer
	e.Finalize()

	var outer, inner Record
	for _, r := range *got {
		switch trimmed(r.Name) {
		case "outer":
			outer = r
		case "inner":
			inner = r
		}
	}
	if inner.ParentID != outer.ID {
		t.Errorf("inner.ParentID = %d, want outer.ID = %d", inner.ParentID, outer.ID)
	}
	// Preorder: parent must be emitted before its child.
	parentIdx, childIdx := -1, -1
	for i, r := range *got {
		if r.ID == outer.ID {
			parentIdx = i
		}
		if r.ID == inner.ID {
			childIdx = i
		}
	}
	if parentIdx < 0 || childIdx < 0 || parentIdx > childIdx {
		t.Errorf("expected outer before inner in the emitted stream, got indices %d, %d", parentIdx, childIdx)
	}
}

func TestBeginEndSiblings(t *testing.T) {
	withFixedCPU(t, 1)
	e := New("test", 16)
	e.Enable(true)
	got := collectRecords(e)

	th := e.AttachThread(1)
	th.Begin("root")
	th.Begin("childA")
	th.End()
	th.Begin("childB")
	th.End()
	th.End() // root
	e.Finalize()

	var root Record
	count := 0
	for _, r := range *got {
		name := trimmed(r.Name)
		if name == "root" {
			root = r
		}
		if name == "childA" || name == "childB" {
			if r.ParentID != root.ID {
				t.Errorf("%s.ParentID = %d, want root.ID = %d", name, r.ParentID, root.ID)
			}
			count++
		}
	}
	if count != 2 {
		t.Fatalf("expected both children in the stream, found %d", count)
	}
}

func TestEndSplitsOnCoreMigration(t *testing.T) {
	// Begin "outer" and "inner" on core 1, then end "inner" while cpuFunc
	// reports core 2: reopening "outer" on a different core must split it
	// into two adjacent segments, one per core, rather than silently keeping
	// the stale core 1 in its Processor field.
	withCPUSequence(t, []uint32{1, 1, 2})
	e := New("test", 16)
	e.Enable(true)
	got := collectRecords(e)

	th := e.AttachThread(1)
	th.Begin("outer") // core 1
	th.Begin("inner") // core 1
	th.End()          // inner: reopened outer observes core 2, must split
	th.End()          // close the second segment of outer (core 2)
	th.End()          // nothing open any more: no-op
	e.Finalize()

	var outerSegments []Record
	for _, r := range *got {
		if trimmed(r.Name) == "outer" {
			outerSegments = append(outerSegments, r)
		}
	}
	if len(outerSegments) != 2 {
		t.Fatalf("expected outer to split into 2 segments, got %d: %+v", len(outerSegments), outerSegments)
	}
	if outerSegments[0].Processor == outerSegments[1].Processor {
		t.Errorf("split segments report the same processor (%d), want different cores", outerSegments[0].Processor)
	}
}

func TestUpdateSplitsOnCoreMigration(t *testing.T) {
	withCPUSequence(t, []uint32{1, 1, 2})
	e := New("test", 16)
	e.Enable(true)
	got := collectRecords(e)

	th := e.AttachThread(1)
	th.Begin("loop") // core 1
	th.Update()      // still core 1, no split
	th.Update()      // core 2, splits
	th.End()
	e.Finalize()

	var segments []Record
	for _, r := range *got {
		if trimmed(r.Name) == "loop" {
			segments = append(segments, r)
		}
	}
	if len(segments) != 2 {
		t.Fatalf("expected loop to split into 2 segments, got %d: %+v", len(segments), segments)
	}
}

func TestEndFrameEmitsMarker(t *testing.T) {
	withFixedCPU(t, 1)
	e := New("test", 16)
	e.Enable(true)
	got := collectRecords(e)

	th := e.AttachThread(9)
	th.EndFrame(42)
	e.Finalize()

	if (*got)[0].ID != IDEndFrame || (*got)[0].End != 42 {
		t.Errorf("end-frame record = %+v, want ID=%d End=42", (*got)[0], IDEndFrame)
	}
}

func TestMessageShortFitsOneRecord(t *testing.T) {
	withFixedCPU(t, 1)
	e := New("test", 16)
	e.Enable(true)
	got := collectRecords(e)

	th := e.AttachThread(1)
	th.Log("hello")
	e.Finalize()

	if (*got)[0].ID != IDLog {
		t.Errorf("ID = %d, want IDLog", (*got)[0].ID)
	}
	if trimmed((*got)[0].Name) != "hello" {
		t.Errorf("Name = %q, want hello", trimmed((*got)[0].Name))
	}
}

func TestMessageLongChainsContinuations(t *testing.T) {
	withFixedCPU(t, 1)
	e := New("test", 32)
	e.Enable(true)
	got := collectRecords(e)

	long := ""
	for i := 0; i < 60; i++ {
		long += "x"
	}
	th := e.AttachThread(1)
	th.Log(long)
	e.Finalize()

	var parts []Record
	for _, r := range *got {
		if r.ID == IDLog || r.ID == IDLogCont {
			parts = append(parts, r)
		}
	}
	if len(parts) < 2 {
		t.Fatalf("expected a log message of 60 bytes to split into continuations, got %d parts", len(parts))
	}
	if parts[0].ID != IDLog {
		t.Errorf("first part ID = %d, want IDLog", parts[0].ID)
	}
	for _, p := range parts[1:] {
		if p.ID != IDLogCont {
			t.Errorf("continuation part ID = %d, want IDLogCont", p.ID)
		}
	}
	// Each continuation's ParentID is its predecessor's End (a sequence
	// number), not a scope id.
	for i := 1; i < len(parts); i++ {
		if parts[i].ParentID != parts[i-1].End {
			t.Errorf("part %d ParentID = %d, want predecessor End = %d", i, parts[i].ParentID, parts[i-1].End)
		}
	}
}

func TestMessageAttachesUnderOpenScopeWithoutBecomingCurrent(t *testing.T) {
	// A message is inserted using the normal child-attachment rule (it
	// becomes a child of whatever scope is open), but it is a peer entry:
	// it never becomes the thread's current open block, so the subsequent
	// End still closes "outer" rather than the message.
	withFixedCPU(t, 1)
	e := New("test", 16)
	e.Enable(true)
	got := collectRecords(e)

	th := e.AttachThread(1)
	th.Begin("outer")
	th.Log("note")
	th.End() // must close "outer", not error or close the log entry
	e.Finalize()

	var outer, log Record
	for _, r := range *got {
		switch r.ID {
		case IDLog:
			log = r
		default:
			if trimmed(r.Name) == "outer" {
				outer = r
			}
		}
	}
	if log.ParentID != outer.ID {
		t.Errorf("log.ParentID = %d, want outer.ID = %d", log.ParentID, outer.ID)
	}
	if outer.End < outer.Start {
		t.Errorf("outer did not close cleanly: End (%d) < Start (%d)", outer.End, outer.Start)
	}
}

func TestDetachFlushesOpenScopes(t *testing.T) {
	withFixedCPU(t, 1)
	e := New("test", 16)
	e.Enable(true)
	got := collectRecords(e)

	th := e.AttachThread(1)
	th.Begin("outer")
	th.Begin("inner")
	th.Detach()
	e.Finalize()

	names := map[string]bool{}
	for _, r := range *got {
		names[trimmed(r.Name)] = true
	}
	if !names["outer"] || !names["inner"] {
		t.Errorf("expected Detach to flush both open scopes, got names %v", names)
	}
}

func TestEndOnEmptyThreadIsNoop(t *testing.T) {
	e := New("test", 16)
	e.Enable(true)
	th := e.AttachThread(1)
	th.End() // nothing open: must not panic or underflow
	e.Finalize()
}
