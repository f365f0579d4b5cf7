// Call protocol: argument flattening (spread/named), arity/default binding,
// and dispatch across every callable value kind (§4.5, §4.6, §6.2).
package vm

import (
	"github.com/sald-lang/sald/internal/bytecode"
	"github.com/sald-lang/sald/internal/source"
	"github.com/sald-lang/sald/internal/value"
)

// flattenArgs pops argc raw call-site values off the stack (in source
// order) and expands SpreadMarker/NamedArgMarker wrappers into a plain
// positional slice plus a name->value map.
func (vm *VM) flattenArgs(argc int) ([]value.Value, map[string]value.Value) {
	raw := make([]value.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		raw[i] = vm.pop()
	}
	var positional []value.Value
	var named map[string]value.Value
	for _, v := range raw {
		switch t := v.(type) {
		case *value.SpreadMarker:
			if arr, ok := t.Inner.(*value.Array); ok {
				positional = append(positional, arr.Elems...)
			}
		case *value.NamedArgMarker:
			if named == nil {
				named = make(map[string]value.Value)
			}
			named[t.Name] = t.Inner
		default:
			positional = append(positional, v)
		}
	}
	return positional, named
}

// bindParams lays positional/named arguments into a template's parameter
// slots, filling unsupplied slots with Null so the callee's own
// default-value prologue (compiled inline, §4.3) can detect and fill them.
func (vm *VM) bindParams(tmpl *bytecode.FunctionTemplate, positional []value.Value, named map[string]value.Value) ([]value.Value, error) {
	arity := tmpl.Arity
	bound := make([]value.Value, arity)
	for i := range bound {
		bound[i] = value.Null{}
	}
	filled := make([]bool, arity)

	fixedCount := arity
	if tmpl.IsVariadic && arity > 0 {
		fixedCount = arity - 1
	}

	for i, v := range positional {
		if i < fixedCount {
			bound[i] = v
			filled[i] = true
			continue
		}
		if tmpl.IsVariadic {
			rest, _ := bound[arity-1].(*value.Array)
			if rest == nil {
				rest = value.NewArray(vm.GC, nil)
				bound[arity-1] = rest
				filled[arity-1] = true
			}
			rest.Elems = append(rest.Elems, v)
		}
	}
	for name, v := range named {
		idx := -1
		for i, p := range tmpl.ParamNames {
			if p == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, vm.runtimeErr(source.ArgumentError, "%s() got an unexpected keyword argument %q", tmpl.Name, name)
		}
		bound[idx] = v
		filled[idx] = true
	}
	for i := 0; i < tmpl.RequiredArity; i++ {
		if !filled[i] && (!tmpl.IsVariadic || i < fixedCount) {
			if i < len(tmpl.Defaults) && tmpl.Defaults[i] {
				continue
			}
			return nil, vm.runtimeErr(source.ArgumentError, "%s() missing required argument %q", tmpl.Name, paramNameAt(tmpl, i))
		}
	}
	return bound, nil
}

func paramNameAt(tmpl *bytecode.FunctionTemplate, i int) string {
	if i < len(tmpl.ParamNames) {
		return tmpl.ParamNames[i]
	}
	return "?"
}

// pushClosureFrame starts a new call frame for closure with bound
// positional args as its initial locals.
func (vm *VM) pushClosureFrame(closure *value.Closure, bound []value.Value, self value.Value) error {
	if len(vm.frames) >= maxFrameCount {
		return vm.runtimeErr(source.RuntimeError, "stack overflow")
	}
	base := vm.sp
	for _, v := range bound {
		vm.push(v)
	}
	extra := closure.Template.LocalCount - len(bound)
	for i := 0; i < extra; i++ {
		vm.push(value.Null{})
	}
	vm.frames = append(vm.frames, callFrame{
		closure: closure,
		chunk:   closure.Template.Chunk,
		ip:      0,
		base:    base,
	})
	vm.currentFrame().self = self
	if closure.Class != nil {
		vm.currentFrame().methodClass = closure.Class
	}
	return nil
}

// callClosure fully binds arguments and dispatches into a new frame,
// re-entering the dispatch loop (callAndRun) until that frame returns. An
// `async fun` closure (§4.10) runs to completion synchronously like any
// other — this VM has no coroutine scheduler — but its result is wrapped in
// an already-resolved Future so `await` on the call result observes the
// same one-shot-channel shape a genuinely suspended call would produce.
func (vm *VM) callClosure(closure *value.Closure, positional []value.Value, named map[string]value.Value, self value.Value) (value.Value, error) {
	bound, err := vm.bindParams(closure.Template, positional, named)
	if err != nil {
		return nil, err
	}
	if err := vm.pushClosureFrame(closure, bound, self); err != nil {
		return nil, err
	}
	result, err := vm.callAndRun(closure, len(vm.frames)-1)
	if err != nil {
		return nil, err
	}
	if closure.Template.IsAsync {
		fut := value.NewFuture()
		fut.Resolve(result)
		return fut, nil
	}
	return result, nil
}

// callValue dispatches a call to whatever kind of callable v is,
// implementing §4.6's "call protocol": Closure, NativeFunction,
// InstanceMethod (incl. callable-native), BoundMethod, or a Class used as a
// constructor.
func (vm *VM) callValue(callee value.Value, positional []value.Value, named map[string]value.Value) (value.Value, error) {
	switch fn := callee.(type) {
	case *value.Closure:
		return vm.callClosure(fn, positional, named, nil)
	case *value.BoundMethod:
		return vm.callClosure(fn.Method, positional, named, fn.Recv)
	case *value.NativeFunction:
		if named != nil {
			return nil, vm.runtimeErr(source.ArgumentError, "%s() does not accept named arguments", fn.Name)
		}
		return fn.Fn(positional)
	case *value.InstanceMethod:
		if fn.Callable != nil {
			return fn.Callable(fn.Recv, positional, vm.invokeCallback)
		}
		return fn.Fn(fn.Recv, positional)
	case *value.Class:
		return vm.instantiate(fn, positional, named)
	default:
		return nil, vm.runtimeErr(source.TypeError, "%s is not callable", value.TypeName(callee))
	}
}

// invokeCallback lets a native (map/filter/forEach) re-enter the VM to call
// a user closure (§6.2's callable-native shape).
func (vm *VM) invokeCallback(callee value.Value, args []value.Value) (value.Value, error) {
	return vm.callValue(callee, args, nil)
}

// instantiate builds a new Instance and, if the class (or an ancestor)
// defines `init`, calls it for side effects before returning the instance
// (§4.6 "Instance construction").
func (vm *VM) instantiate(class *value.Class, positional []value.Value, named map[string]value.Value) (value.Value, error) {
	inst := value.NewInstance(vm.GC, class)
	if init, _ := class.ResolveMethod("init"); init != nil {
		if _, err := vm.callClosure(init, positional, named, inst); err != nil {
			return nil, err
		}
	}
	return inst, nil
}
