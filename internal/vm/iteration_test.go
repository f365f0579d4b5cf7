package vm

import "testing"

func TestForInArray(t *testing.T) {
	number(t, run(t, `
		let sum = 0;
		for x in [1, 2, 3, 4] {
			sum = sum + x;
		}
		return sum;
	`), 10)
}

func TestForInString(t *testing.T) {
	str(t, run(t, `
		let out = "";
		for c in "abc" {
			out = out + c + "-";
		}
		return out;
	`), "a-b-c-")
}

func TestForInRangeInclusive(t *testing.T) {
	number(t, run(t, `
		let sum = 0;
		for i in 1..3 {
			sum = sum + i;
		}
		return sum;
	`), 6)
}

func TestForInRangeExclusive(t *testing.T) {
	number(t, run(t, `
		let sum = 0;
		for i in 1..<3 {
			sum = sum + i;
		}
		return sum;
	`), 3)
}

func TestForInDictionaryYieldsPairs(t *testing.T) {
	a := array(t, run(t, `
		let pairs = [];
		for entry in {a: 1, b: 2} {
			pairs = pairs + [entry];
		}
		return pairs;
	`))
	if len(a.Elems) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(a.Elems))
	}
	first := array(t, a.Elems[0])
	str(t, first.Elems[0], "a")
	number(t, first.Elems[1], 1)
}

func TestForInNonIterable(t *testing.T) {
	runErr(t, "for x in 5 { return x; }")
}
