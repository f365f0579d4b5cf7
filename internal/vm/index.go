// Indexing of §4.5 "Indexing": Array/String by signed integer (negative
// counts from the end), Dictionary by string key. Grounded on the teacher's
// vm_exec.go OP_INDEX handling, retargeted to Sald's container set.
package vm

import (
	"github.com/sald-lang/sald/internal/source"
	"github.com/sald-lang/sald/internal/value"
)

func (vm *VM) getIndex(obj, idx value.Value) (value.Value, error) {
	switch o := obj.(type) {
	case *value.Array:
		i, err := vm.normalizeIndex(idx, len(o.Elems))
		if err != nil {
			return nil, err
		}
		return o.Elems[i], nil
	case *value.Str:
		runes := []rune(o.S)
		i, err := vm.normalizeIndex(idx, len(runes))
		if err != nil {
			return nil, err
		}
		return value.NewStr(string(runes[i])), nil
	case *value.Dictionary:
		key, ok := idx.(*value.Str)
		if !ok {
			return nil, vm.runtimeErr(source.TypeError, "dictionary keys must be strings, got %s", value.TypeName(idx))
		}
		v, ok := o.Get(key.S)
		if !ok {
			return nil, vm.runtimeErr(source.IndexError, "no such key %q", key.S)
		}
		return v, nil
	default:
		return nil, vm.runtimeErr(source.TypeError, "%s is not indexable", value.TypeName(obj))
	}
}

func (vm *VM) setIndex(obj, idx, v value.Value) error {
	switch o := obj.(type) {
	case *value.Array:
		i, err := vm.normalizeIndex(idx, len(o.Elems))
		if err != nil {
			return err
		}
		value.Retain(v)
		value.Release(o.Elems[i])
		o.Elems[i] = v
		return nil
	case *value.Dictionary:
		key, ok := idx.(*value.Str)
		if !ok {
			return vm.runtimeErr(source.TypeError, "dictionary keys must be strings, got %s", value.TypeName(idx))
		}
		value.Retain(v)
		if old, ok := o.Get(key.S); ok {
			value.Release(old)
		}
		o.Set(key.S, v)
		return nil
	default:
		return vm.runtimeErr(source.TypeError, "%s does not support index assignment", value.TypeName(obj))
	}
}

// normalizeIndex converts idx (a Number, possibly negative) into an
// in-bounds slice index against a collection of the given length.
func (vm *VM) normalizeIndex(idx value.Value, length int) (int, error) {
	n, ok := idx.(value.Number)
	if !ok {
		return 0, vm.runtimeErr(source.TypeError, "index must be a Number, got %s", value.TypeName(idx))
	}
	i := int(n)
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, vm.runtimeErr(source.IndexError, "index %d out of range for length %d", int(n), length)
	}
	return i, nil
}
