// Throw/catch unwind (§4.8). A thrown value propagates as a Go error up
// through however many nested callAndRun levels separate the throw site
// from its nearest enclosing try, each level simply re-returning the error
// until the loop that owns the frame the try was established in sees it.
package vm

import (
	"github.com/sald-lang/sald/internal/source"
	"github.com/sald-lang/sald/internal/value"
)

// handleThrow checks whether the innermost active try belongs to the frame
// this callAndRun loop (running at targetDepth) owns — i.e. it was
// established while exactly targetDepth+1 frames existed, meaning it lives
// in vm.frames[targetDepth], this loop's own frame. If so it unwinds any
// frames pushed since (nested calls this loop made), restores the stack,
// and reports the catch PC to resume at. Otherwise it declines, letting the
// error keep propagating to whichever outer loop does own the matching try.
func (vm *VM) handleThrow(err error, targetDepth int) (value.Value, bool) {
	if len(vm.tryFrames) == 0 {
		return nil, false
	}
	top := vm.tryFrames[len(vm.tryFrames)-1]
	if top.frameDepth != targetDepth+1 {
		return nil, false
	}
	vm.tryFrames = vm.tryFrames[:len(vm.tryFrames)-1]
	vm.closeUpvalues(top.stackBase)
	vm.frames = vm.frames[:top.frameDepth]
	vm.sp = top.stackBase
	vm.currentFrame().ip = top.catchPC
	return errorToValue(err), true
}

// thrownValue wraps a value raised by an explicit `throw expr` (§4.8); it
// already carries the user's value, unlike a runtime-fault SaldError.
type thrownValue struct{ v value.Value }

func (t thrownValue) Error() string { return value.Stringify(t.v) }

// errorToValue converts whatever failed a VM operation into the value a
// catch clause binds: an explicit throw's own value passes through
// unchanged; a runtime fault (TypeError, IndexError, ...) becomes a string
// message, since Sald has no exception-object hierarchy of its own (§4.8
// "catch binds whatever was thrown").
func errorToValue(err error) value.Value {
	switch e := err.(type) {
	case thrownValue:
		return e.v
	case *source.SaldError:
		return value.NewStr(string(e.Kind) + ": " + e.Message)
	default:
		return value.NewStr(err.Error())
	}
}
