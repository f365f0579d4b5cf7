// Property access and dispatch across every receiver kind of §4.5
// "Property access" / §4.6 "Classes, methods, inheritance". Grounded on the
// teacher's internal/evaluator trait-method-table lookup shape, retargeted
// from Funxy's static trait resolution to Sald's per-class method tables
// plus the natives registry's built-in classes.
package vm

import (
	"github.com/sald-lang/sald/internal/source"
	"github.com/sald-lang/sald/internal/value"
)

// getProperty implements §4.5's per-receiver-kind property lookup.
func (vm *VM) getProperty(recv value.Value, name string) (value.Value, error) {
	switch r := recv.(type) {
	case *value.Instance:
		if v, ok := r.Fields[name]; ok {
			return v, nil
		}
		if m, _ := r.Class.ResolveMethod(name); m != nil {
			return &value.BoundMethod{Recv: r, Method: m}, nil
		}
		return nil, vm.runtimeErr(source.AttributeError, "%q object has no attribute %q", r.Class.Name, name)

	case *value.Class:
		if fn, ok := r.NativeStatics[name]; ok {
			return &value.NativeFunction{Name: name, ClassName: r.Name, Fn: fn}, nil
		}
		if v, ok := r.StaticFields[name]; ok {
			return v, nil
		}
		if m, ok := r.StaticMethods[name]; ok {
			return m, nil
		}
		return nil, vm.runtimeErr(source.AttributeError, "class %q has no static member %q", r.Name, name)

	case *value.Namespace:
		if isPrivateName(name) && !vm.inNamespace(r.Name) {
			return nil, vm.runtimeErr(source.AccessError, "%q is private to namespace %q", name, r.Name)
		}
		v, ok := r.Members[name]
		if !ok {
			return nil, vm.runtimeErr(source.AttributeError, "namespace %q has no member %q", r.Name, name)
		}
		return v, nil

	case *value.Enum:
		v, ok := r.Variants[name]
		if !ok {
			return nil, vm.runtimeErr(source.AttributeError, "enum %q has no variant %q", r.Name, name)
		}
		return v, nil

	case value.Null, nil:
		return nil, vm.runtimeErr(source.AttributeError, "cannot read %q of null", name)

	default:
		cls := vm.Natives.ClassFor(recv)
		if cls == nil {
			return nil, vm.runtimeErr(source.AttributeError, "%s has no attribute %q", value.TypeName(recv), name)
		}
		if fn, ok := cls.NativeMethods[name]; ok {
			return &value.InstanceMethod{Recv: recv, Name: name, Fn: fn}, nil
		}
		if fn, ok := cls.NativeCallable[name]; ok {
			return &value.InstanceMethod{Recv: recv, Name: name, Callable: fn}, nil
		}
		return nil, vm.runtimeErr(source.AttributeError, "%s has no attribute %q", value.TypeName(recv), name)
	}
}

// setProperty implements §4.5's "only meaningful on Instance ... and
// Dictionary (via property-form sugar)".
func (vm *VM) setProperty(recv value.Value, name string, v value.Value) error {
	switch r := recv.(type) {
	case *value.Instance:
		value.Retain(v)
		if old, ok := r.Fields[name]; ok {
			value.Release(old)
		}
		r.Fields[name] = v
		return nil
	case *value.Dictionary:
		value.Retain(v)
		if old, ok := r.Get(name); ok {
			value.Release(old)
		}
		r.Set(name, v)
		return nil
	default:
		return vm.runtimeErr(source.TypeError, "cannot set property %q on %s", name, value.TypeName(recv))
	}
}

// invoke calls method name on recv with args. OP_INVOKE, which the compiler
// emits for a call whose callee is a property access (§4.4), runs through
// it, as does the user-defined half of the iteration protocol (hasNext/next,
// §6.4).
func (vm *VM) invoke(recv value.Value, name string, positional []value.Value, named map[string]value.Value) (value.Value, error) {
	callee, err := vm.getProperty(recv, name)
	if err != nil {
		return nil, err
	}
	return vm.callValue(callee, positional, named)
}

// isPrivateName reports whether name is a namespace-private member (§4.3
// "Private declarations are those prefixed by _").
func isPrivateName(name string) bool {
	return len(name) > 0 && name[0] == '_'
}

// inNamespace reports whether the currently executing closure was itself
// compiled inside namespace ns, letting its own code reach underscore-
// prefixed siblings (§4.3 "Functions compiled inside a namespace carry
// namespace_context").
func (vm *VM) inNamespace(ns string) bool {
	f := vm.currentFrame()
	if f == nil || f.closure == nil || f.closure.Template == nil {
		return false
	}
	return f.closure.Template.NamespaceCtx == ns
}
