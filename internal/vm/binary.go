// Binary operators of §4.5 "Operators": arithmetic, bitwise, and comparison.
// Grounded on the teacher's vm_exec.go binary-op dispatch (pop two, switch on
// opcode, push one), retargeted to Sald's float64-only Number and the
// spec's `+` overload for strings and arrays.
package vm

import (
	"github.com/sald-lang/sald/internal/bytecode"
	"github.com/sald-lang/sald/internal/source"
	"github.com/sald-lang/sald/internal/value"
)

func (vm *VM) binaryOp(op bytecode.Opcode, a, b value.Value) (value.Value, error) {
	switch op {
	case bytecode.OP_ADD:
		return vm.add(a, b)
	case bytecode.OP_EQ:
		return value.Bool(value.Equal(a, b)), nil
	case bytecode.OP_NEQ:
		return value.Bool(!value.Equal(a, b)), nil
	}

	switch op {
	case bytecode.OP_LT, bytecode.OP_LE, bytecode.OP_GT, bytecode.OP_GE:
		return vm.compare(op, a, b)
	}

	an, aok := a.(value.Number)
	bn, bok := b.(value.Number)
	if !aok || !bok {
		return nil, vm.runtimeErr(source.TypeError, "cannot apply %s to %s and %s", op, value.TypeName(a), value.TypeName(b))
	}

	switch op {
	case bytecode.OP_SUB:
		return an - bn, nil
	case bytecode.OP_MUL:
		return an * bn, nil
	case bytecode.OP_DIV:
		if bn == 0 {
			return nil, vm.runtimeErr(source.DivisionByZero, "division by zero")
		}
		return an / bn, nil
	case bytecode.OP_MOD:
		if bn == 0 {
			return nil, vm.runtimeErr(source.DivisionByZero, "modulo by zero")
		}
		ai, bi := int64(an), int64(bn)
		return value.Number(ai % bi), nil
	case bytecode.OP_BAND:
		return value.Number(int64(an) & int64(bn)), nil
	case bytecode.OP_BOR:
		return value.Number(int64(an) | int64(bn)), nil
	case bytecode.OP_BXOR:
		return value.Number(int64(an) ^ int64(bn)), nil
	case bytecode.OP_SHL:
		return value.Number(int64(an) << uint(int64(bn))), nil
	case bytecode.OP_SHR:
		return value.Number(int64(an) >> uint(int64(bn))), nil
	}
	return nil, vm.runtimeErr(source.RuntimeError, "unimplemented binary op %s", op)
}

// add implements §4.5's three-way `+` overload: numeric addition, string
// concatenation, and array concatenation (a new array, the operands
// untouched).
func (vm *VM) add(a, b value.Value) (value.Value, error) {
	switch x := a.(type) {
	case value.Number:
		y, ok := b.(value.Number)
		if !ok {
			return nil, vm.runtimeErr(source.TypeError, "cannot add %s to Number", value.TypeName(b))
		}
		return x + y, nil
	case *value.Str:
		y, ok := b.(*value.Str)
		if !ok {
			return nil, vm.runtimeErr(source.TypeError, "cannot add %s to String", value.TypeName(b))
		}
		return value.NewStr(x.S + y.S), nil
	case *value.Array:
		y, ok := b.(*value.Array)
		if !ok {
			return nil, vm.runtimeErr(source.TypeError, "cannot add %s to Array", value.TypeName(b))
		}
		elems := make([]value.Value, 0, len(x.Elems)+len(y.Elems))
		elems = append(elems, x.Elems...)
		elems = append(elems, y.Elems...)
		return value.NewArray(vm.GC, elems), nil
	default:
		return nil, vm.runtimeErr(source.TypeError, "cannot add %s and %s", value.TypeName(a), value.TypeName(b))
	}
}

// compare implements the ordering operators, numeric for Number and
// lexicographic for String (§4.5 "Comparisons").
func (vm *VM) compare(op bytecode.Opcode, a, b value.Value) (value.Value, error) {
	switch x := a.(type) {
	case value.Number:
		y, ok := b.(value.Number)
		if !ok {
			return nil, vm.runtimeErr(source.TypeError, "cannot compare Number and %s", value.TypeName(b))
		}
		return boolFromOrdering(op, compareFloat(float64(x), float64(y))), nil
	case *value.Str:
		y, ok := b.(*value.Str)
		if !ok {
			return nil, vm.runtimeErr(source.TypeError, "cannot compare String and %s", value.TypeName(b))
		}
		return boolFromOrdering(op, compareStr(x.S, y.S)), nil
	default:
		return nil, vm.runtimeErr(source.TypeError, "cannot compare %s and %s", value.TypeName(a), value.TypeName(b))
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareStr(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolFromOrdering(op bytecode.Opcode, cmp int) value.Bool {
	switch op {
	case bytecode.OP_LT:
		return cmp < 0
	case bytecode.OP_LE:
		return cmp <= 0
	case bytecode.OP_GT:
		return cmp > 0
	case bytecode.OP_GE:
		return cmp >= 0
	}
	return false
}
