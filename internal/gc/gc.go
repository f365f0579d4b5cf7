// Package gc implements the incremental cycle collector of §4.9: a
// mark-and-sweep pass that runs atop reference-counted container values to
// break reference cycles that counting alone can never reclaim. It has no
// funxy analogue (Funxy values are ordinary Go pointers under the host GC,
// per DESIGN.md) and is newly authored, grounded on the *shape* of the
// teacher's other incrementally-stepped registries: a population tracked
// behind a lock, processed in bounded steps that persist a cursor across
// calls (the same idiom the teacher's step-debugger uses for "do bounded
// work, resume next time").
//
// The collector only knows about objects through the Trackable interface;
// it has no notion of arrays, dictionaries, or instances. internal/value
// supplies the concrete Trackable implementations and calls Track;
// internal/vm calls Collect with its own roots.
package gc

import (
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// ObjectID is a monotonic identifier assigned to every tracked object at
// allocation time.
type ObjectID uint64

// Trackable is implemented by every container value eligible to participate
// in a reference cycle: arrays, dictionaries, and instances. Strings,
// functions, and primitives never implement it (§4.9 "Tracked set").
type Trackable interface {
	GCObjectID() ObjectID
	// GCStrongCount reports the live reference count. Zero means the normal
	// reference-counting path has already logically freed the object.
	GCStrongCount() int32
	// GCMarkChildren invokes mark for every Trackable this object directly
	// holds a strong reference to (array elements, dict values, instance
	// fields, closed upvalue contents).
	GCMarkChildren(mark func(Trackable))
	// GCClear empties the object's contents, breaking any cycle it
	// participates in. Must be idempotent.
	GCClear()
}

// Phase is the incremental collector's persisted state between calls.
type Phase int

const (
	Idle Phase = iota
	Sweeping
)

// Config tunes the collector's trigger threshold and incremental step
// budget.
type Config struct {
	InitialThreshold int
	GrowFactor       float64
	StepBudget       time.Duration
	MinStepObjects   int
}

// DefaultConfig matches the "initial threshold is a configured constant"
// language of §4.9.
func DefaultConfig() Config {
	return Config{
		InitialThreshold: 256,
		GrowFactor:       1.5,
		StepBudget:       500 * time.Microsecond,
		MinStepObjects:   8,
	}
}

// Stats are the running totals §4.9 requires the collector to report.
type Stats struct {
	EverTracked        uint64
	CurrentTracked      int
	CompletedCollections uint64
	IncrementalSteps    uint64
	CyclesBroken        uint64
}

// String renders a human-readable one-liner for log output, e.g.
// "12,480 tracked, 3 collections, 40 cycles broken".
func (s Stats) String() string {
	return fmt.Sprintf("%s tracked, %s collections, %s cycles broken",
		humanize.Comma(int64(s.CurrentTracked)),
		humanize.Comma(int64(s.CompletedCollections)),
		humanize.Comma(int64(s.CyclesBroken)))
}

// Collector is the VM-owned incremental mark-and-sweep cycle breaker.
// Roots are supplied by the caller at Collect time (the VM knows its own
// stack/frames/globals/try-frames; the collector knows nothing about them).
type Collector struct {
	cfg Config

	mu       sync.Mutex
	tracked  map[ObjectID]Trackable
	nextID   uint64
	threshold int

	phase  Phase
	queue  []Trackable
	cursor int
	marked map[ObjectID]bool

	stats Stats
}

// New creates a Collector with cfg (zero value selects DefaultConfig).
func New(cfg Config) *Collector {
	if cfg.InitialThreshold == 0 {
		cfg = DefaultConfig()
	}
	c := &Collector{
		cfg:       cfg,
		tracked:   make(map[ObjectID]Trackable),
		threshold: cfg.InitialThreshold,
	}
	return c
}

// NextID allocates a fresh ObjectID for a newly constructed container.
func (c *Collector) NextID() ObjectID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	return ObjectID(c.nextID)
}

// Track registers t with the collector. Called once at allocation time.
func (c *Collector) Track(t Trackable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tracked[t.GCObjectID()] = t
	c.stats.EverTracked++
	c.stats.CurrentTracked = len(c.tracked)
}

// ShouldCollect reports whether the tracked population has crossed the
// current threshold, the condition the VM checks at safe points (between
// instructions) before calling Collect.
func (c *Collector) ShouldCollect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tracked) > c.threshold
}

// Stats returns a snapshot of the running totals.
func (c *Collector) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.CurrentTracked = len(c.tracked)
	return s
}

// Collect runs one incremental step: cleanup of dead weak refs, a full mark
// from roots (fast relative to sweep, §4.9), and a bounded slice of sweep
// work. roots yields every Trackable directly reachable from a GC root (the
// VM's stack, frame locals, globals, module cache, try-frame stack); GC
// itself walks the transitive closure via GCMarkChildren.
func (c *Collector) Collect(roots func(yield func(Trackable))) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()

	if c.phase == Idle {
		c.markLocked(roots)
	}
	c.sweepStepLocked()

	if c.phase == Idle {
		c.stats.CompletedCollections++
		c.threshold = growThreshold(c.cfg, len(c.tracked))
	}
}

func growThreshold(cfg Config, trackedCount int) int {
	grown := int(float64(trackedCount) * cfg.GrowFactor)
	if grown < cfg.InitialThreshold {
		return cfg.InitialThreshold
	}
	return grown
}

// cleanupLocked removes tracked entries whose strong count already hit
// zero — they were reclaimed by ordinary reference counting and no longer
// need tracking (§4.9 phase 1, "Cleanup").
func (c *Collector) cleanupLocked() {
	for id, t := range c.tracked {
		if t.GCStrongCount() <= 0 {
			delete(c.tracked, id)
		}
	}
	c.stats.CurrentTracked = len(c.tracked)
}

// markLocked computes the reachable set from roots and queues every
// unreached-but-alive object for sweep.
func (c *Collector) markLocked(roots func(yield func(Trackable))) {
	marked := make(map[ObjectID]bool, len(c.tracked))
	var stack []Trackable

	visit := func(t Trackable) {
		if t == nil {
			return
		}
		if marked[t.GCObjectID()] {
			return
		}
		marked[t.GCObjectID()] = true
		stack = append(stack, t)
	}

	roots(visit)
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		t.GCMarkChildren(visit)
	}

	c.marked = marked
	var queue []Trackable
	for id, t := range c.tracked {
		if !marked[id] {
			queue = append(queue, t)
		}
	}
	c.queue = queue
	c.cursor = 0
	c.phase = Sweeping
}

// sweepStepLocked clears the contents of queued unreachable-but-live
// objects. Each call processes at least MinStepObjects of them, then stops
// as soon as the wall-clock budget has also passed, or when the queue
// drains (§4.9 "Incremental budget").
func (c *Collector) sweepStepLocked() {
	if c.phase != Sweeping {
		return
	}
	deadline := time.Now().Add(c.cfg.StepBudget)
	processed := 0
	for c.cursor < len(c.queue) {
		if processed >= c.cfg.MinStepObjects && time.Now().After(deadline) {
			c.stats.IncrementalSteps++
			return
		}
		obj := c.queue[c.cursor]
		c.cursor++
		processed++
		if obj.GCStrongCount() > 0 {
			obj.GCClear()
			c.stats.CyclesBroken++
		}
	}
	c.stats.IncrementalSteps++
	c.phase = Idle
	c.queue = nil
	c.marked = nil
	c.cursor = 0
}
