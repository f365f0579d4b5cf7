package vm

import "testing"

func TestArrayIndexing(t *testing.T) {
	number(t, run(t, "return [10, 20, 30][1];"), 20)
	number(t, run(t, "return [10, 20, 30][-1];"), 30)
}

func TestArrayIndexOutOfRange(t *testing.T) {
	runErr(t, "return [1, 2][5];")
}

func TestArrayIndexAssignment(t *testing.T) {
	a := array(t, run(t, `
		let xs = [1, 2, 3];
		xs[1] = 99;
		return xs;
	`))
	number(t, a.Elems[1], 99)
}

func TestStringIndexing(t *testing.T) {
	str(t, run(t, `return "hello"[1];`), "e")
	str(t, run(t, `return "hello"[-1];`), "o")
}

func TestDictionaryIndexing(t *testing.T) {
	number(t, run(t, `
		let d = {a: 1, b: 2};
		return d["b"];
	`), 2)
}

func TestDictionaryIndexAssignment(t *testing.T) {
	number(t, run(t, `
		let d = {a: 1};
		d["a"] = 42;
		return d["a"];
	`), 42)
}

func TestDictionaryMissingKey(t *testing.T) {
	runErr(t, `
		let d = {a: 1};
		return d["nope"];
	`)
}

func TestIndexNonIndexableType(t *testing.T) {
	runErr(t, "return 5[0];")
}
