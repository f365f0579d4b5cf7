package vm

import "testing"

func TestAwaitOnNonFutureIsIdentity(t *testing.T) {
	number(t, run(t, "return await 5;"), 5)
}

func TestAsyncFunctionReturnsAwaitableFuture(t *testing.T) {
	number(t, run(t, `
		async fun double(n) {
			return n * 2;
		}
		return await double(21);
	`), 42)
}

func TestAwaitTwiceYieldsNull(t *testing.T) {
	isNull(t, run(t, `
		async fun identity(n) {
			return n;
		}
		let f = identity(7);
		let first = await f;
		return await f;
	`))
}

func TestUnawaitedAsyncCallYieldsFuture(t *testing.T) {
	v := run(t, `
		async fun identity(n) {
			return n;
		}
		return identity(9);
	`)
	if v.Type() != "Future" {
		t.Fatalf("expected a Future, got %s", v.Type())
	}
}
