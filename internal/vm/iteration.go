// Iteration protocol of §4.5 / §6.4. Built-in iterables (Array, String,
// Dictionary, Range) are walked through a VM-internal *value.Iterator
// cursor; user-defined Instance iterables dispatch to their own hasNext/next
// methods through ordinary method invocation. Grounded on the teacher's
// for-in lowering (HAS_NEXT/NEXT opcode pair reading a cursor held in a
// dedicated local slot).
package vm

import (
	"github.com/sald-lang/sald/internal/source"
	"github.com/sald-lang/sald/internal/value"
)

// iterInit produces the cursor OP_ITER_INIT leaves in the loop's dedicated
// local slot. For an Instance with user-defined hasNext/next it is the
// instance itself, since the protocol dispatches back into user code each
// step rather than maintaining cursor state here.
func (vm *VM) iterInit(v value.Value) (value.Value, error) {
	switch v.(type) {
	case *value.Array, *value.Str, *value.Dictionary, *value.Range:
		return &value.Iterator{Source: v, Index: 0}, nil
	case *value.Instance:
		return v, nil
	default:
		return nil, vm.runtimeErr(source.TypeError, "%s is not iterable", value.TypeName(v))
	}
}

func (vm *VM) iterHasNext(v value.Value) (bool, error) {
	switch it := v.(type) {
	case *value.Iterator:
		return it.Index < iterableLen(it.Source), nil
	case *value.Instance:
		r, err := vm.invoke(it, "hasNext", nil, nil)
		if err != nil {
			return false, err
		}
		return value.Truthy(r), nil
	default:
		return false, vm.runtimeErr(source.TypeError, "%s is not an iterator", value.TypeName(v))
	}
}

func (vm *VM) iterNext(v value.Value) (value.Value, error) {
	switch it := v.(type) {
	case *value.Iterator:
		val, err := iterableAt(vm, it.Source, it.Index)
		if err != nil {
			return nil, err
		}
		it.Index++
		return val, nil
	case *value.Instance:
		return vm.invoke(it, "next", nil, nil)
	default:
		return nil, vm.runtimeErr(source.TypeError, "%s is not an iterator", value.TypeName(v))
	}
}

func iterableLen(src value.Value) int64 {
	switch s := src.(type) {
	case *value.Array:
		return int64(len(s.Elems))
	case *value.Str:
		return int64(len([]rune(s.S)))
	case *value.Dictionary:
		return int64(len(s.Keys))
	case *value.Range:
		return s.Len()
	default:
		return 0
	}
}

// iterableAt yields the i'th element of a built-in iterable: array elements
// in order, string characters in order, dictionary entries as `[key, value]`
// pairs in insertion order, and range integers in sequence.
func iterableAt(vm *VM, src value.Value, i int64) (value.Value, error) {
	switch s := src.(type) {
	case *value.Array:
		return s.Elems[i], nil
	case *value.Str:
		runes := []rune(s.S)
		return value.NewStr(string(runes[i])), nil
	case *value.Dictionary:
		key := s.Keys[i]
		pair := value.NewArray(vm.GC, []value.Value{value.NewStr(key), s.Vals[key]})
		return pair, nil
	case *value.Range:
		return value.Number(float64(s.Start + i)), nil
	default:
		return nil, vm.runtimeErr(source.RuntimeError, "not iterable")
	}
}
