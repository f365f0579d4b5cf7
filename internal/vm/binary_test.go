package vm

import "testing"

func TestNumericArithmetic(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"return 1 + 2;", 3},
		{"return 10 - 4;", 6},
		{"return 3 * 4;", 12},
		{"return 10 / 4;", 2.5},
		{"return 10 % 3;", 1},
		{"return 2 + 3 * 4;", 14},
		{"return (2 + 3) * 4;", 20},
		{"return -5 + 10;", 5},
		{"return 6 & 3;", 2},
		{"return 6 | 1;", 7},
		{"return 5 ^ 1;", 4},
		{"return 1 << 4;", 16},
		{"return 256 >> 4;", 16},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			number(t, run(t, tt.src), tt.want)
		})
	}
}

func TestComparisons(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"return 1 < 2;", true},
		{"return 2 < 1;", false},
		{"return 2 <= 2;", true},
		{"return 2 >= 3;", false},
		{"return 1 == 1;", true},
		{"return 1 != 2;", true},
		{"return \"a\" == \"a\";", true},
		{"return \"a\" == \"b\";", false},
		{"return [1, 2] == [1, 2];", false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			boolean(t, run(t, tt.src), tt.want)
		})
	}
}

func TestStringConcat(t *testing.T) {
	str(t, run(t, `return "foo" + "bar";`), "foobar")
}

func TestArrayConcat(t *testing.T) {
	a := array(t, run(t, "return [1, 2] + [3];"))
	if len(a.Elems) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(a.Elems))
	}
	number(t, a.Elems[2], 3)
}

func TestDivisionByZero(t *testing.T) {
	err := runErr(t, "return 1 / 0;")
	if err == nil {
		t.Fatal("expected division by zero error")
	}
}

func TestModuloByZero(t *testing.T) {
	runErr(t, "return 1 % 0;")
}
