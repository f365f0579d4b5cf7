package vm

import "testing"

func TestSwitchLiteralAndDefault(t *testing.T) {
	v := run(t, `
		fun describe(n) {
			return switch n {
				0 => "zero",
				1, 2, 3 => "small",
				default => "big",
			};
		}
		return [describe(0), describe(2), describe(9)];
	`)
	arr := array(t, v)
	str(t, arr.Elems[0], "zero")
	str(t, arr.Elems[1], "small")
	str(t, arr.Elems[2], "big")
}

func TestSwitchRangePattern(t *testing.T) {
	v := run(t, `
		return switch 7 {
			0..3 => "low",
			4..<10 => "mid",
			default => "high",
		};
	`)
	str(t, v, "mid")
}

// TestSwitchArrayRestPattern exercises the array-destructuring rest pattern
// (§4.3 switch arm), which bindPattern lowers via OP_ARRAY_REST.
func TestSwitchArrayRestPattern(t *testing.T) {
	v := run(t, `
		return switch [1, 2, 3, 4] {
			[first, ...rest] => rest,
			default => null,
		};
	`)
	arr := array(t, v)
	if len(arr.Elems) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(arr.Elems))
	}
	number(t, arr.Elems[0], 2)
	number(t, arr.Elems[1], 3)
	number(t, arr.Elems[2], 4)
}

func TestSwitchBindingGuard(t *testing.T) {
	v := run(t, `
		return switch 12 {
			n if n > 10 => "big",
			n => "small",
		};
	`)
	str(t, v, "big")
}
