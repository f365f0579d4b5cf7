package vm

import "testing"

// TestClosureCapturesAndMutatesOuterLocal exercises §4.3's upvalue capture:
// the returned lambda keeps its own binding to the enclosing call's `n`
// local via OP_SET_UPVALUE/OP_GET_UPVALUE even after makeCounter's own
// frame has returned.
func TestClosureCapturesAndMutatesOuterLocal(t *testing.T) {
	v := run(t, `
		fun makeCounter() {
			let n = 0;
			return fun() {
				n = n + 1;
				return n;
			};
		}
		let counter = makeCounter();
		counter();
		counter();
		return counter();
	`)
	number(t, v, 3)
}

// TestClosuresFromDistinctCallsDoNotShareState verifies each invocation of
// makeCounter closes over a fresh `n`, not a single shared upvalue slot.
func TestClosuresFromDistinctCallsDoNotShareState(t *testing.T) {
	v := run(t, `
		fun makeCounter() {
			let n = 0;
			return fun() {
				n = n + 1;
				return n;
			};
		}
		let a = makeCounter();
		let b = makeCounter();
		a();
		a();
		b();
		return [a(), b()];
	`)
	arr := array(t, v)
	if len(arr.Elems) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(arr.Elems))
	}
	number(t, arr.Elems[0], 3)
	number(t, arr.Elems[1], 2)
}
