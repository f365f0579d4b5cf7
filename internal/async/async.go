// Package async manages the goroutines spawned for Future-returning natives
// (Timer.sleep and friends, §4.10 / §6.2), so a cancelled or torn-down VM
// doesn't leak them. Grounded on the teacher's vm.go Context field threaded
// through VM entry points for cancellation; Sald has no equivalent of
// Funxy's debugger/typechecker context consumers, so the runtime here is
// narrower, just a cancellation scope plus a WaitGroup for graceful
// shutdown.
package async

import (
	"context"
	"sync"

	"github.com/sald-lang/sald/internal/value"
)

// Runtime owns the cancellation context and in-flight goroutine count for
// one VM's async work.
type Runtime struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Runtime whose cancellation scope is a child of parent (or
// context.Background() if parent is nil).
func New(parent context.Context) *Runtime {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Runtime{ctx: ctx, cancel: cancel}
}

// Context returns the runtime's cancellation context, for natives that want
// to select on r.Context().Done() alongside their own timers.
func (r *Runtime) Context() context.Context { return r.ctx }

// Spawn runs fn in its own goroutine, tracked by the runtime's WaitGroup so
// Wait can block for outstanding work at shutdown. fn should itself observe
// r.Context().Done() where it can be cancelled mid-flight (e.g. a sleep).
func (r *Runtime) Spawn(fn func(ctx context.Context)) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		fn(r.ctx)
	}()
}

// Cancel signals every spawned goroutine's context as done. It does not
// block; call Wait afterward to join.
func (r *Runtime) Cancel() { r.cancel() }

// Wait blocks until every goroutine started via Spawn has returned.
func (r *Runtime) Wait() { r.wg.Wait() }

// SpawnFuture is the Timer.sleep/async-call shape: fn computes a result (or
// an error message) off the VM goroutine and resolves fut with it. If the
// runtime is cancelled before fn finishes, fut is rejected instead so any
// `await` on it unblocks rather than hanging forever.
func (r *Runtime) SpawnFuture(fut *value.Future, fn func(ctx context.Context) (value.Value, string)) {
	r.Spawn(func(ctx context.Context) {
		result, errMsg := fn(ctx)
		select {
		case <-ctx.Done():
			fut.Reject("cancelled")
		default:
			if errMsg != "" {
				fut.Reject(errMsg)
			} else {
				fut.Resolve(result)
			}
		}
	})
}
