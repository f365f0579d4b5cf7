// Await of §4.10 "Async/await". Grounded on the teacher's context.Context-
// threaded VM entry points, retargeted from cancellation plumbing to
// blocking on a *value.Future's one-shot channel.
package vm

import (
	"github.com/sald-lang/sald/internal/source"
	"github.com/sald-lang/sald/internal/value"
)

// await is identity on a non-Future value (§4.10 "Awaiting a non-Future
// value yields that value unchanged"). Awaiting a Future blocks until it
// resolves or rejects; a second await on an already-taken Future silently
// yields null rather than erroring or re-blocking (§9 open question,
// resolved per spec.md's chosen default).
func (vm *VM) await(v value.Value) (value.Value, error) {
	fut, ok := v.(*value.Future)
	if !ok {
		return v, nil
	}
	if fut.Taken {
		return value.Null{}, nil
	}
	<-fut.Done
	fut.Taken = true
	if fut.Err != "" {
		return nil, vm.runtimeErr(source.RuntimeError, "%s", fut.Err)
	}
	return fut.Result, nil
}
