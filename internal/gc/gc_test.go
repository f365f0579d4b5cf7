package gc

import "testing"

// fakeObj is a minimal Trackable used to exercise the collector without
// depending on internal/value's container types.
type fakeObj struct {
	id       ObjectID
	rc       int32
	children []*fakeObj
	cleared  bool
}

func (f *fakeObj) GCObjectID() ObjectID { return f.id }
func (f *fakeObj) GCStrongCount() int32 { return f.rc }
func (f *fakeObj) GCMarkChildren(mark func(Trackable)) {
	for _, c := range f.children {
		mark(c)
	}
}
func (f *fakeObj) GCClear() {
	f.cleared = true
	f.children = nil
}

func newTracked(c *Collector) *fakeObj {
	o := &fakeObj{id: c.NextID(), rc: 1}
	c.Track(o)
	return o
}

// TestCollector_BreaksUnreachableCycle exercises §4.9's core guarantee: two
// objects holding only each other, with no external root, form a cycle that
// reference counting alone can never free, but a Collect pass reclaims.
func TestCollector_BreaksUnreachableCycle(t *testing.T) {
	c := New(Config{})
	a := newTracked(c)
	b := newTracked(c)
	a.children = []*fakeObj{b}
	b.children = []*fakeObj{a}

	c.Collect(func(yield func(Trackable)) {})

	if !a.cleared || !b.cleared {
		t.Fatalf("expected both cycle members cleared, got a.cleared=%v b.cleared=%v", a.cleared, b.cleared)
	}
	stats := c.Stats()
	if stats.CyclesBroken != 2 {
		t.Errorf("CyclesBroken = %d, want 2", stats.CyclesBroken)
	}
}

// TestCollector_PreservesReachableThroughRoot ensures an object is never
// cleared while some root still reaches it, even transitively through
// another tracked object — the invariant spec.md §4.9 states explicitly:
// "no live root can observe the cleared objects".
func TestCollector_PreservesReachableThroughRoot(t *testing.T) {
	c := New(Config{})
	root := newTracked(c)
	reachable := newTracked(c)
	unreachable := newTracked(c)
	root.children = []*fakeObj{reachable}
	reachable.children = []*fakeObj{root} // cycle, but root is rooted

	c.Collect(func(yield func(Trackable)) {
		yield(root)
	})

	if root.cleared || reachable.cleared {
		t.Fatalf("root-reachable objects were cleared: root=%v reachable=%v", root.cleared, reachable.cleared)
	}
	if !unreachable.cleared {
		t.Error("expected the object with no root path to be cleared")
	}
}

// TestCollector_CleanupSkipsAlreadyFreed verifies cleanupLocked drops
// entries whose reference count already hit zero via ordinary refcounting,
// without counting them as broken cycles.
func TestCollector_CleanupSkipsAlreadyFreed(t *testing.T) {
	c := New(Config{})
	dead := newTracked(c)
	dead.rc = 0

	c.Collect(func(yield func(Trackable)) {})

	if dead.cleared {
		t.Error("an already-freed object should not go through GCClear")
	}
	if stats := c.Stats(); stats.CyclesBroken != 0 {
		t.Errorf("CyclesBroken = %d, want 0 for a non-cycle collection", stats.CyclesBroken)
	}
}

func TestStats_String(t *testing.T) {
	s := Stats{CurrentTracked: 1234, CompletedCollections: 2, CyclesBroken: 5}
	got := s.String()
	want := "1,234 tracked, 2 collections, 5 cycles broken"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
