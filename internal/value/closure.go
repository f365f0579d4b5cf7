package value

import (
	"sync/atomic"

	"github.com/sald-lang/sald/internal/bytecode"
	"github.com/sald-lang/sald/internal/gc"
)

// Upvalue is the closure capture cell of §3.4 / §4.7. Open when Closed is
// nil and Location names a stack slot of some live frame; closed when
// Closed is non-nil, at which point Location is meaningless. The
// conversion happens at most once and never reverses.
type Upvalue struct {
	Location int
	Closed   *Value
}

func (u *Upvalue) IsOpen() bool { return u.Closed == nil }

// Value satisfies the markValue hook so the collector's mark phase can
// follow a closed upvalue's contents (§4.9 "Traversal follows ... the
// closed value in each closed upvalue").
func (u *Upvalue) Value() Value {
	if u.Closed != nil {
		return *u.Closed
	}
	return nil
}

// Closure is a first-class function value (§3 `Function` row): compiled
// code plus the upvalue slots captured at creation time.
type Closure struct {
	Template  *bytecode.FunctionTemplate
	Upvalues  []*Upvalue
	Class     *Class // non-nil for a bound method's originating class (super resolution)
	Decorated Value  // set when a decorator rewrites the binding; nil otherwise
}

func (*Closure) Type() string { return "Function" }

// StaticNativeFunc is the "Static native method" shape of §6.2.
type StaticNativeFunc func(args []Value) (Value, error)

// InstanceNativeFunc is the "Instance native method" shape of §6.2.
type InstanceNativeFunc func(recv Value, args []Value) (Value, error)

// VMCallback lets a callable native instance method re-enter the VM to
// invoke a user closure (map/filter/timer callbacks etc, §6.2).
type VMCallback func(callee Value, args []Value) (Value, error)

// CallableInstanceNativeFunc is the "Callable native instance method"
// shape of §6.2: a native that can itself invoke user closures re-entrantly.
type CallableInstanceNativeFunc func(recv Value, args []Value, call VMCallback) (Value, error)

// NativeFunction is a static native callable (§3 `NativeFunction` row).
type NativeFunction struct {
	Name      string
	ClassName string
	Fn        StaticNativeFunc
}

func (*NativeFunction) Type() string { return "NativeFunction" }

// InstanceMethod is a primitive value (string/number/array/...) bound to a
// native receiver method (§3 `InstanceMethod` row).
type InstanceMethod struct {
	Recv     Value
	Name     string
	Fn       InstanceNativeFunc
	Callable CallableInstanceNativeFunc // non-nil for the callable-native shape
}

func (*InstanceMethod) Type() string { return "InstanceMethod" }

// BoundMethod is a user-defined method bound to an instance (§3
// `BoundMethod` row), produced by property lookup on an Instance or by
// `super.m`.
type BoundMethod struct {
	Recv   Value
	Method *Closure
}

func (*BoundMethod) Type() string { return "BoundMethod" }

// Class is a shared class descriptor (§3 `Class` row, §4.6 four method
// tables).
type Class struct {
	Name            string
	Methods         map[string]*Closure          // user instance methods
	StaticMethods   map[string]*Closure          // user static methods
	NativeMethods   map[string]InstanceNativeFunc // native instance methods
	NativeCallable  map[string]CallableInstanceNativeFunc
	NativeStatics   map[string]StaticNativeFunc
	StaticFields    map[string]Value
	Super           *Class
	Interfaces      []string
}

func NewClass(name string) *Class {
	return &Class{
		Name:          name,
		Methods:       make(map[string]*Closure),
		StaticMethods: make(map[string]*Closure),
		StaticFields:  make(map[string]Value),
	}
}

func (*Class) Type() string { return "Class" }

// ResolveMethod walks c then its superclass chain looking for a user
// instance method (§4.6 "Method resolution at call time walks
// class.methods then class.superclass chain").
func (c *Class) ResolveMethod(name string) (*Closure, *Class) {
	for cur := c; cur != nil; cur = cur.Super {
		if m, ok := cur.Methods[name]; ok {
			return m, cur
		}
	}
	return nil, nil
}

// Instance is a shared handle `{class, fields}` (§3 `Instance` row).
type Instance struct {
	id     gc.ObjectID
	rc     int32
	Class  *Class
	Fields map[string]Value
}

func NewInstance(collector *gc.Collector, class *Class) *Instance {
	inst := &Instance{id: collector.NextID(), rc: 1, Class: class, Fields: make(map[string]Value)}
	collector.Track(inst)
	return inst
}

func (*Instance) Type() string { return "Instance" }

func (i *Instance) GCObjectID() gc.ObjectID { return i.id }
func (i *Instance) GCStrongCount() int32    { return atomic.LoadInt32(&i.rc) }
func (i *Instance) Retain() int32           { return atomic.AddInt32(&i.rc, 1) }
func (i *Instance) release() int32          { return atomic.AddInt32(&i.rc, -1) }

func (i *Instance) GCMarkChildren(mark func(gc.Trackable)) {
	for _, v := range i.Fields {
		markValue(v, mark)
	}
}

func (i *Instance) GCClear() {
	old := i.Fields
	i.Fields = make(map[string]Value)
	for _, v := range old {
		Release(v)
	}
}

// Future is the one-shot async result channel of §3 / §4.10. Taken is set
// once the value has been consumed by an Await so a second await can be
// distinguished from the first: a second await silently yields null rather
// than returning the stored result again or raising.
type Future struct {
	Done    chan struct{}
	Result  Value
	Err     string
	Taken   bool
	resolved bool
}

func NewFuture() *Future {
	return &Future{Done: make(chan struct{})}
}

func (*Future) Type() string { return "Future" }

func (f *Future) Resolve(v Value) {
	if f.resolved {
		return
	}
	f.resolved = true
	f.Result = v
	close(f.Done)
}

func (f *Future) Reject(msg string) {
	if f.resolved {
		return
	}
	f.resolved = true
	f.Err = msg
	close(f.Done)
}

// Namespace is a named set of bindings (§3 `Namespace` row) produced by a
// `namespace` declaration or module import.
type Namespace struct {
	Name    string
	Members map[string]Value
}

func NewNamespace(name string) *Namespace {
	return &Namespace{Name: name, Members: make(map[string]Value)}
}

func (*Namespace) Type() string { return "Namespace" }

// Enum is an immutable variant map (§3 `Enum` row).
type Enum struct {
	Name     string
	Variants map[string]Value
}

func (*Enum) Type() string { return "Enum" }

// EnumVariant is the value produced by referencing `Enum.Variant`.
type EnumVariant struct {
	EnumName string
	Name     string
}

func (*EnumVariant) Type() string { return "EnumVariant" }

// SpreadMarker wraps `...expr` in call args (§3). It only ever exists on
// the evaluation stack between the spread expression and argument
// flattening at the call site — never as a stored value.
type SpreadMarker struct {
	Inner Value
}

func (*SpreadMarker) Type() string { return "SpreadMarker" }

// NamedArgMarker wraps `name: value` call arguments so OP_CALL can resolve
// them against a function's param_names at the call site (§4.5 "Named
// arguments"). Like SpreadMarker this is a transient evaluation-stack
// wrapper, never a value a user program can observe or store.
type NamedArgMarker struct {
	Name  string
	Inner Value
}

func (*NamedArgMarker) Type() string { return "NamedArgMarker" }

// Range is the lowered form of `a..b` / `a..<b` (§3, §4.2). Iteration and
// switch range-patterns both consume it.
type Range struct {
	Start, End int64
	Inclusive  bool
}

func (*Range) Type() string { return "Range" }

// Len reports the number of integers the range yields.
func (r *Range) Len() int64 {
	if r.Inclusive {
		if r.End < r.Start {
			return 0
		}
		return r.End - r.Start + 1
	}
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}
