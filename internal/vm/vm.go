// Package vm executes compiled bytecode: a stack machine with call frames,
// an open-upvalue list, a try-frame stack for exception unwinding, and a
// reference-counted heap backed by internal/gc's cycle collector.
//
// Grounded on the teacher's internal/vm/vm.go (CallFrame{closure,chunk,ip,
// base}, stack/frame growth constants, globals-as-shared-scope) and
// vm_exec.go's opcode dispatch loop, despite the teacher's own VM being a
// tree-walker layered atop this shape (funxy's Compiler/Chunk/CallFrame
// types exist to feed a bytecode *disassembler* and a step-debugger, not a
// bytecode interpreter) — the call-frame and dispatch-loop shape is reused
// here as an actual interpreter loop.
package vm

import (
	"fmt"

	"github.com/sald-lang/sald/internal/async"
	"github.com/sald-lang/sald/internal/bytecode"
	"github.com/sald-lang/sald/internal/gc"
	"github.com/sald-lang/sald/internal/natives"
	"github.com/sald-lang/sald/internal/source"
	"github.com/sald-lang/sald/internal/value"
)

const (
	initialStackSize = 2048
	initialFrameCount = 256
	maxFrameCount      = 4096
)

// callFrame is one ongoing call's activation record.
type callFrame struct {
	closure *value.Closure
	chunk   *bytecode.Chunk
	ip      int
	base    int // stack index where this frame's locals/params begin

	self        value.Value // receiver bound for GetSelf inside a method body
	methodClass *value.Class // class the executing closure was defined in, for GetSuper
}

// tryFrame records an active try/catch's unwind target (§4.8).
type tryFrame struct {
	frameDepth int // len(vm.frames) at TRY_START time
	catchPC    int // absolute ip into frames[frameDepth-1].chunk
	stackBase  int // vm.sp to restore before pushing the thrown value
}

// Modules lets internal/module supply the Import/ImportAs behavior without
// internal/vm importing internal/module (which itself needs to re-enter the
// VM to run a module body, an import cycle this interface avoids).
type Modules interface {
	Load(path, fromFile string, run func(resolvedPath string, tmpl *bytecode.FunctionTemplate) (value.Value, error)) (value.Value, error)
}

// VM executes one program's compiled bytecode.
type VM struct {
	stack []value.Value
	sp    int

	frames []callFrame

	globals   map[string]value.Value
	openUps   []*value.Upvalue // open upvalues, unsorted; linear-scanned (teaching-scale VM)
	tryFrames []tryFrame

	GC       *gc.Collector
	Natives  *natives.Registry
	Modules  Modules
	File     string
	Async    *async.Runtime

	Stdout func(string)
}

// New creates a VM with fresh globals, a tracked collector, and the
// standard native library wired in. The returned VM owns its own async
// runtime (for Timer.sleep and other Future-producing natives); call
// vm.Async.Cancel() followed by vm.Async.Wait() to tear it down cleanly.
func New(file string, collector *gc.Collector) *VM {
	if collector == nil {
		collector = gc.New(gc.Config{})
	}
	rt := async.New(nil)
	vm := &VM{
		stack:   make([]value.Value, initialStackSize),
		frames:  make([]callFrame, 0, initialFrameCount),
		globals: make(map[string]value.Value),
		GC:      collector,
		Natives: natives.NewRegistry(collector),
		File:    file,
		Async:   rt,
		Stdout:  func(s string) { fmt.Print(s) },
	}
	natives.SeedGlobals(vm.DefineGlobal, func(s string) { vm.Stdout(s) }, rt)
	return vm
}

// DefineGlobal seeds a global binding before running (used for natives'
// top-level entries: console, Timer, print, typeOf, ...).
func (vm *VM) DefineGlobal(name string, v value.Value) { vm.globals[name] = v }

// Run executes tmpl as the program's top-level script body.
func (vm *VM) Run(tmpl *bytecode.FunctionTemplate) (value.Value, error) {
	closure := &value.Closure{Template: tmpl}
	if err := vm.pushClosureFrame(closure, nil, nil); err != nil {
		return nil, err
	}
	return vm.callAndRun(closure, 0)
}

// ---- stack primitives ----

func (vm *VM) push(v value.Value) {
	if vm.sp >= len(vm.stack) {
		vm.stack = append(vm.stack, make([]value.Value, initialStackSize)...)
	}
	vm.stack[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() value.Value {
	vm.sp--
	v := vm.stack[vm.sp]
	vm.stack[vm.sp] = nil
	return v
}

func (vm *VM) peek(distFromTop int) value.Value { return vm.stack[vm.sp-1-distFromTop] }

func (vm *VM) runtimeErr(kind source.Kind, format string, args ...interface{}) error {
	f := vm.currentFrame()
	sp := source.Span{}
	var fn string
	if f != nil {
		line, col := f.chunk.PositionAt(f.ip - 1)
		sp = source.Span{Start: source.Position{Line: line, Column: col}}
		if f.closure != nil && f.closure.Template != nil {
			fn = f.closure.Template.Name
		}
	}
	err := source.New(kind, vm.File, sp, format, args...)
	if fn != "" {
		err = err.WithFrame(source.Frame{FuncName: fn, File: vm.File, Span: sp})
	}
	return err
}

func (vm *VM) currentFrame() *callFrame {
	if len(vm.frames) == 0 {
		return nil
	}
	return &vm.frames[len(vm.frames)-1]
}

// maybeCollect checks the collector's threshold at a safe point (between
// top-level instructions) and runs one incremental step if crossed (§4.9
// "safe points").
func (vm *VM) maybeCollect() {
	if !vm.GC.ShouldCollect() {
		return
	}
	vm.GC.Collect(func(yield func(gc.Trackable)) {
		for i := 0; i < vm.sp; i++ {
			value.MarkRoot(vm.stack[i], yield)
		}
		for _, g := range vm.globals {
			value.MarkRoot(g, yield)
		}
		for _, up := range vm.openUps {
			if up.Closed != nil {
				value.MarkRoot(*up.Closed, yield)
			}
		}
	})
}
