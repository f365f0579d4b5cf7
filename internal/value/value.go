// Package value defines the runtime value representation of §3: a tagged
// variant over primitives and shared, reference-counted container handles.
// Scalars (Null, Bool, Number) are Go value types so copying them is
// copying by value, matching the spec's "scalars live by value". Array,
// Dictionary, and Instance are pointer types with an atomic reference count
// and a gc.ObjectID, so they can be registered with internal/gc's cycle
// collector and their identity compared by pointer equality.
//
// Grounded on the teacher's internal/vm/objects.go tagged-object story
// (ObjString/ObjClosure/ObjUpvalue as distinct Go types satisfying one
// Value-ish interface) generalized to Sald's own value set; no funxy
// analogue exists for reference counting itself since Funxy runs under the
// host Go GC directly. Pure stdlib: a value representation is an ambient
// concern the whole retrieval pack implements by hand (tagged struct or
// interface), never via a third-party "value" library.
package value

import (
	"sync/atomic"

	"github.com/sald-lang/sald/internal/gc"
)

// Value is satisfied by every runtime value kind of §3.
type Value interface {
	Type() string
}

// Null is Sald's `null`.
type Null struct{}

func (Null) Type() string { return "Null" }

// Bool is a boolean scalar.
type Bool bool

func (Bool) Type() string { return "Bool" }

// Number is Sald's only numeric type, a float64 per §4.1 (no int/hex
// literals).
type Number float64

func (Number) Type() string { return "Number" }

// Str is a string value. It is a shared handle (§3 lists it among the
// container row) but compares by content, not identity (§4.5: "== / !=
// compare by value for primitives and interned strings"). Constant-pool
// strings are interned through Interner so lexically identical constants
// become pointer-equal (§8 "String interning"); strings produced at
// runtime (concatenation, slicing) are plain un-interned allocations.
type Str struct {
	S string
}

func (*Str) Type() string { return "String" }

func NewStr(s string) *Str { return &Str{S: s} }

// Interner deduplicates string constants by content so that two constants
// lexed from identical source text become the same *Str, giving pointer
// equality as a fast path (and the only path the spec actually requires,
// since Str equality is defined by content anyway).
type Interner struct {
	table map[string]*Str
}

func NewInterner() *Interner { return &Interner{table: make(map[string]*Str)} }

func (in *Interner) Intern(s string) *Str {
	if v, ok := in.table[s]; ok {
		return v
	}
	v := &Str{S: s}
	in.table[s] = v
	return v
}

// Array is a shared, ordered, reference-counted sequence (§3).
type Array struct {
	id  gc.ObjectID
	rc  int32
	Elems []Value
}

// NewArray allocates a tracked Array with an initial strong count of 1 (the
// reference the caller is about to store somewhere) and registers it with
// collector.
func NewArray(collector *gc.Collector, elems []Value) *Array {
	a := &Array{id: collector.NextID(), rc: 1, Elems: elems}
	collector.Track(a)
	return a
}

func (*Array) Type() string { return "Array" }

func (a *Array) GCObjectID() gc.ObjectID  { return a.id }
func (a *Array) GCStrongCount() int32     { return atomic.LoadInt32(&a.rc) }
func (a *Array) Retain() int32            { return atomic.AddInt32(&a.rc, 1) }
func (a *Array) release() int32           { return atomic.AddInt32(&a.rc, -1) }

func (a *Array) GCMarkChildren(mark func(gc.Trackable)) {
	for _, v := range a.Elems {
		markValue(v, mark)
	}
}

func (a *Array) GCClear() {
	old := a.Elems
	a.Elems = nil
	for _, v := range old {
		Release(v)
	}
}

// Dictionary is a shared mapping String -> Value (§3). Keys are plain Go
// strings (the dictionary owns the key text; lookups don't need interning).
type Dictionary struct {
	id   gc.ObjectID
	rc   int32
	Keys []string
	Vals map[string]Value
}

func NewDictionary(collector *gc.Collector) *Dictionary {
	d := &Dictionary{id: collector.NextID(), rc: 1, Vals: make(map[string]Value)}
	collector.Track(d)
	return d
}

func (*Dictionary) Type() string { return "Dictionary" }

func (d *Dictionary) GCObjectID() gc.ObjectID { return d.id }
func (d *Dictionary) GCStrongCount() int32    { return atomic.LoadInt32(&d.rc) }
func (d *Dictionary) Retain() int32           { return atomic.AddInt32(&d.rc, 1) }
func (d *Dictionary) release() int32          { return atomic.AddInt32(&d.rc, -1) }

func (d *Dictionary) GCMarkChildren(mark func(gc.Trackable)) {
	for _, v := range d.Vals {
		markValue(v, mark)
	}
}

func (d *Dictionary) GCClear() {
	old := d.Vals
	oldKeys := d.Keys
	d.Vals = make(map[string]Value)
	d.Keys = nil
	for _, k := range oldKeys {
		Release(old[k])
	}
}

// Set inserts or overwrites key, preserving first-insertion order in Keys.
func (d *Dictionary) Set(key string, v Value) {
	if _, exists := d.Vals[key]; !exists {
		d.Keys = append(d.Keys, key)
	}
	d.Vals[key] = v
}

func (d *Dictionary) Get(key string) (Value, bool) {
	v, ok := d.Vals[key]
	return v, ok
}

func (d *Dictionary) Delete(key string) {
	if _, ok := d.Vals[key]; ok {
		delete(d.Vals, key)
		for i, k := range d.Keys {
			if k == key {
				d.Keys = append(d.Keys[:i], d.Keys[i+1:]...)
				break
			}
		}
	}
}

// Iterator is the VM-internal cursor OP_ITER_INIT produces over a built-in
// iterable (§4.5 "Iteration protocol"). It is a pointer type so that copying
// it out of a stack slot (an ordinary OP_GET_LOCAL) still shares the same
// cursor state a sibling OP_ITER_HAS_NEXT/OP_ITER_NEXT advances — the for-in
// loop re-reads the same local every iteration rather than threading the
// iterator through dedicated opcodes. It never escapes to user code.
type Iterator struct {
	Source Value
	Index  int64
}

func (*Iterator) Type() string { return "Iterator" }

// MarkRoot is markValue's exported door for internal/vm, which supplies GC
// roots (its stack, globals, upvalue list) from outside this package.
func MarkRoot(v Value, mark func(gc.Trackable)) { markValue(v, mark) }

// markValue forwards v to mark only if it is itself a gc.Trackable
// container; scalars, strings, and functions are never tracked (§4.9).
func markValue(v Value, mark func(gc.Trackable)) {
	if t, ok := v.(gc.Trackable); ok {
		mark(t)
	}
	switch t := v.(type) {
	case *Upvalue:
		markValue(t.Value(), mark)
	case *Closure:
		for _, up := range t.Upvalues {
			markValue(up.Value(), mark)
		}
	case *BoundMethod:
		markValue(t.Recv, mark)
	case *Namespace:
		for _, member := range t.Members {
			markValue(member, mark)
		}
	case *Class:
		for _, f := range t.StaticFields {
			markValue(f, mark)
		}
		for _, m := range t.Methods {
			markValue(m, mark)
		}
		for _, m := range t.StaticMethods {
			markValue(m, mark)
		}
		if t.Super != nil {
			markValue(t.Super, mark)
		}
	}
}

// Retain increments v's reference count if v is a tracked container.
// Non-container values are no-ops (scalars/strings/functions aren't
// counted).
func Retain(v Value) {
	switch t := v.(type) {
	case *Array:
		t.Retain()
	case *Dictionary:
		t.Retain()
	case *Instance:
		t.Retain()
	}
}

// Release decrements v's reference count if v is a tracked container,
// cascading into its own Release of children once the count reaches zero
// (ordinary reference-counted teardown; cycles are left for the collector
// to break per §4.9).
func Release(v Value) {
	switch t := v.(type) {
	case *Array:
		if t.release() <= 0 {
			t.GCClear()
		}
	case *Dictionary:
		if t.release() <= 0 {
			t.GCClear()
		}
	case *Instance:
		if t.release() <= 0 {
			t.GCClear()
		}
	}
}
