// Main dispatch loop. Grounded on the teacher's vm_exec.go instruction
// switch shape (fetch-decode-execute over a flat byte stream with a u16
// operand reader), retargeted to Sald's own opcode set and call protocol.
package vm

import (
	"github.com/sald-lang/sald/internal/bytecode"
	"github.com/sald-lang/sald/internal/source"
	"github.com/sald-lang/sald/internal/value"
)

func (f *callFrame) readByte() byte {
	b := f.chunk.Code[f.ip]
	f.ip++
	return b
}

func (f *callFrame) readOp() bytecode.Opcode { return bytecode.Opcode(f.readByte()) }

func (f *callFrame) readU16() uint16 {
	v := f.chunk.ReadU16(f.ip)
	f.ip += 2
	return v
}

func (f *callFrame) readConstant() bytecode.Constant {
	return f.chunk.Constants[f.readU16()]
}

// callAndRun executes instructions until the frame stack unwinds back to
// targetDepth (the depth recorded before the frame being entered was
// pushed), returning that frame's return value. Nested calls (ordinary
// bytecode calls and native re-entrant callbacks alike) recurse through
// this same loop at a deeper targetDepth, so a native's callback invocation
// only drives its own frame to completion before returning control.
func (vm *VM) callAndRun(entry *value.Closure, targetDepth int) (value.Value, error) {
	for {
		f := vm.currentFrame()
		if f == nil || len(vm.frames) <= targetDepth {
			// Shouldn't happen in well-formed bytecode; treat as done.
			return value.Null{}, nil
		}
		op := f.readOp()
		switch op {
		case bytecode.OP_CONSTANT:
			c := f.readConstant()
			vm.push(constantToValue(c))

		case bytecode.OP_TRUE:
			vm.push(value.Bool(true))
		case bytecode.OP_FALSE:
			vm.push(value.Bool(false))
		case bytecode.OP_NULL:
			vm.push(value.Null{})
		case bytecode.OP_DUP:
			vm.push(vm.peek(0))
		case bytecode.OP_DUP_TWO:
			a, b := vm.peek(1), vm.peek(0)
			vm.push(a)
			vm.push(b)
		case bytecode.OP_SWAP:
			a, b := vm.pop(), vm.pop()
			vm.push(a)
			vm.push(b)
		case bytecode.OP_POP:
			vm.pop()

		case bytecode.OP_DEFINE_GLOBAL:
			name := f.readConstant().Str
			vm.globals[name] = vm.pop()
		case bytecode.OP_GET_GLOBAL:
			name := f.readConstant().Str
			v, ok := vm.globals[name]
			if !ok {
				err := vm.runtimeErr(source.NameError, "undefined name %q", name)
				if hv, ok2 := vm.handleThrow(err, targetDepth); ok2 {
					vm.push(hv)
					continue
				}
				return nil, err
			}
			vm.push(v)
		case bytecode.OP_SET_GLOBAL:
			name := f.readConstant().Str
			if _, ok := vm.globals[name]; !ok {
				err := vm.runtimeErr(source.NameError, "undefined name %q", name)
				if hv, ok2 := vm.handleThrow(err, targetDepth); ok2 {
					vm.push(hv)
					continue
				}
				return nil, err
			}
			vm.globals[name] = vm.peek(0)
		case bytecode.OP_GET_LOCAL:
			slot := int(f.readU16())
			vm.push(vm.stack[f.base+slot])
		case bytecode.OP_SET_LOCAL:
			slot := int(f.readU16())
			vm.stack[f.base+slot] = vm.peek(0)
		case bytecode.OP_GET_UPVALUE:
			idx := int(f.readU16())
			up := f.closure.Upvalues[idx]
			if up.IsOpen() {
				vm.push(vm.stack[up.Location])
			} else {
				vm.push(*up.Closed)
			}
		case bytecode.OP_SET_UPVALUE:
			idx := int(f.readU16())
			up := f.closure.Upvalues[idx]
			v := vm.peek(0)
			if up.IsOpen() {
				vm.stack[up.Location] = v
			} else {
				*up.Closed = v
			}
		case bytecode.OP_CLOSE_UPVALUE:
			vm.closeUpvalues(vm.sp - 1)
			vm.pop()

		case bytecode.OP_ADD, bytecode.OP_SUB, bytecode.OP_MUL, bytecode.OP_DIV, bytecode.OP_MOD,
			bytecode.OP_BAND, bytecode.OP_BOR, bytecode.OP_BXOR, bytecode.OP_SHL, bytecode.OP_SHR,
			bytecode.OP_EQ, bytecode.OP_NEQ, bytecode.OP_LT, bytecode.OP_LE, bytecode.OP_GT, bytecode.OP_GE:
			b := vm.pop()
			a := vm.pop()
			r, err := vm.binaryOp(op, a, b)
			if err != nil {
				if hv, ok := vm.handleThrow(err, targetDepth); ok {
					vm.push(hv)
					continue
				}
				return nil, err
			}
			vm.push(r)
		case bytecode.OP_NEG:
			a := vm.pop()
			n, ok := a.(value.Number)
			if !ok {
				err := vm.runtimeErr(source.TypeError, "cannot negate %s", value.TypeName(a))
				if hv, ok2 := vm.handleThrow(err, targetDepth); ok2 {
					vm.push(hv)
					continue
				}
				return nil, err
			}
			vm.push(-n)
		case bytecode.OP_NOT:
			vm.push(value.Bool(!value.Truthy(vm.pop())))
		case bytecode.OP_BNOT:
			a := vm.pop()
			n, ok := a.(value.Number)
			if !ok {
				err := vm.runtimeErr(source.TypeError, "cannot bitwise-negate %s", value.TypeName(a))
				if hv, ok2 := vm.handleThrow(err, targetDepth); ok2 {
					vm.push(hv)
					continue
				}
				return nil, err
			}
			vm.push(value.Number(^int64(n)))

		case bytecode.OP_JUMP:
			dist := f.readU16()
			f.ip += int(dist)
		case bytecode.OP_JUMP_IF_FALSE:
			dist := f.readU16()
			if !value.Truthy(vm.peek(0)) {
				f.ip += int(dist)
			}
		case bytecode.OP_JUMP_IF_TRUE:
			dist := f.readU16()
			if value.Truthy(vm.peek(0)) {
				f.ip += int(dist)
			}
		case bytecode.OP_JUMP_IF_NOT_NULL:
			dist := f.readU16()
			if _, isNull := vm.peek(0).(value.Null); !isNull {
				f.ip += int(dist)
			}
		case bytecode.OP_LOOP:
			dist := f.readU16()
			f.ip -= int(dist)

		case bytecode.OP_CALL:
			argc := int(f.readU16())
			positional, named := vm.flattenArgs(argc)
			callee := vm.pop()
			result, err := vm.callValue(callee, positional, named)
			if err != nil {
				if hv, ok := vm.handleThrow(err, targetDepth); ok {
					vm.push(hv)
					continue
				}
				return nil, err
			}
			vm.push(result)
		case bytecode.OP_RECURSIVE_CALL:
			argc := int(f.readU16())
			positional, named := vm.flattenArgs(argc)
			result, err := vm.callClosure(f.closure, positional, named, f.self)
			if err != nil {
				if hv, ok := vm.handleThrow(err, targetDepth); ok {
					vm.push(hv)
					continue
				}
				return nil, err
			}
			vm.push(result)
		case bytecode.OP_RETURN:
			retval := vm.pop()
			done := vm.popFrame()
			vm.sp = done.base
			if len(vm.frames) == targetDepth {
				return retval, nil
			}
			vm.push(retval)

		case bytecode.OP_CLOSURE:
			c := f.readConstant()
			clo := vm.makeClosure(f, c.Fn)
			vm.push(clo)

		case bytecode.OP_CLASS:
			name := f.readConstant().Str
			vm.push(value.NewClass(name))
		case bytecode.OP_INHERIT:
			superName := f.readConstant().Str
			superVal, ok := vm.globals[superName]
			if !ok {
				err := vm.runtimeErr(source.NameError, "undefined class %q", superName)
				if hv, ok2 := vm.handleThrow(err, targetDepth); ok2 {
					vm.push(hv)
					continue
				}
				return nil, err
			}
			super, ok := superVal.(*value.Class)
			if !ok {
				err := vm.runtimeErr(source.TypeError, "%q is not a class", superName)
				if hv, ok2 := vm.handleThrow(err, targetDepth); ok2 {
					vm.push(hv)
					continue
				}
				return nil, err
			}
			cls := vm.peek(0).(*value.Class)
			cls.Super = super
		case bytecode.OP_METHOD:
			name := f.readConstant().Str
			clo := vm.pop().(*value.Closure)
			cls := vm.peek(0).(*value.Class)
			clo.Class = cls
			cls.Methods[name] = clo
		case bytecode.OP_STATIC_METHOD:
			name := f.readConstant().Str
			clo := vm.pop().(*value.Closure)
			cls := vm.peek(0).(*value.Class)
			clo.Class = cls
			cls.StaticMethods[name] = clo
		case bytecode.OP_GET_SELF:
			vm.push(f.self)
		case bytecode.OP_GET_SUPER:
			name := f.readConstant().Str
			if f.methodClass == nil || f.methodClass.Super == nil {
				err := vm.runtimeErr(source.NameError, "no superclass for %q", name)
				if hv, ok2 := vm.handleThrow(err, targetDepth); ok2 {
					vm.push(hv)
					continue
				}
				return nil, err
			}
			m, _ := f.methodClass.Super.ResolveMethod(name)
			if m == nil {
				err := vm.runtimeErr(source.AttributeError, "superclass has no method %q", name)
				if hv, ok2 := vm.handleThrow(err, targetDepth); ok2 {
					vm.push(hv)
					continue
				}
				return nil, err
			}
			vm.push(&value.BoundMethod{Recv: f.self, Method: m})
		case bytecode.OP_GET_PROPERTY:
			name := f.readConstant().Str
			recv := vm.pop()
			v, err := vm.getProperty(recv, name)
			if err != nil {
				if hv, ok := vm.handleThrow(err, targetDepth); ok {
					vm.push(hv)
					continue
				}
				return nil, err
			}
			vm.push(v)
		case bytecode.OP_SET_PROPERTY:
			name := f.readConstant().Str
			v := vm.pop()
			recv := vm.pop()
			if err := vm.setProperty(recv, name, v); err != nil {
				if hv, ok := vm.handleThrow(err, targetDepth); ok {
					vm.push(hv)
					continue
				}
				return nil, err
			}
			vm.push(v)
		case bytecode.OP_INVOKE:
			name := f.readConstant().Str
			argc := int(f.readU16())
			positional, named := vm.flattenArgs(argc)
			recv := vm.pop()
			v, err := vm.invoke(recv, name, positional, named)
			if err != nil {
				if hv, ok := vm.handleThrow(err, targetDepth); ok {
					vm.push(hv)
					continue
				}
				return nil, err
			}
			vm.push(v)

		case bytecode.OP_BUILD_ARRAY:
			n := int(f.readU16())
			elems := make([]value.Value, n)
			copy(elems, vm.stack[vm.sp-n:vm.sp])
			vm.sp -= n
			vm.push(value.NewArray(vm.GC, elems))
		case bytecode.OP_BUILD_DICT:
			n := int(f.readU16())
			d := value.NewDictionary(vm.GC)
			pairs := vm.stack[vm.sp-2*n : vm.sp]
			vm.sp -= 2 * n
			for i := 0; i < n; i++ {
				k := pairs[2*i]
				v := pairs[2*i+1]
				ks, _ := k.(*value.Str)
				if ks != nil {
					d.Set(ks.S, v)
				}
			}
			vm.push(d)
		case bytecode.OP_GET_INDEX:
			idx := vm.pop()
			obj := vm.pop()
			v, err := vm.getIndex(obj, idx)
			if err != nil {
				if hv, ok := vm.handleThrow(err, targetDepth); ok {
					vm.push(hv)
					continue
				}
				return nil, err
			}
			vm.push(v)
		case bytecode.OP_SET_INDEX:
			v := vm.pop()
			idx := vm.pop()
			obj := vm.pop()
			if err := vm.setIndex(obj, idx, v); err != nil {
				if hv, ok := vm.handleThrow(err, targetDepth); ok {
					vm.push(hv)
					continue
				}
				return nil, err
			}
			vm.push(v)
		case bytecode.OP_SPREAD_ARRAY:
			v := vm.pop()
			vm.push(&value.SpreadMarker{Inner: v})
		case bytecode.OP_ARRAY_REST:
			start := int(f.readU16())
			v := vm.pop()
			arr, ok := v.(*value.Array)
			if !ok {
				err := vm.runtimeErr(source.TypeError, "cannot rest-slice %s", value.TypeName(v))
				if hv, ok2 := vm.handleThrow(err, targetDepth); ok2 {
					vm.push(hv)
					continue
				}
				return nil, err
			}
			var rest []value.Value
			if start < len(arr.Elems) {
				rest = append(rest, arr.Elems[start:]...)
			}
			vm.push(value.NewArray(vm.GC, rest))
		case bytecode.OP_NAMED_ARG:
			name := f.readConstant().Str
			v := vm.pop()
			vm.push(&value.NamedArgMarker{Name: name, Inner: v})

		case bytecode.OP_IMPORT:
			path := f.readConstant().Str
			v, err := vm.doImport(path, true)
			if err != nil {
				if hv, ok := vm.handleThrow(err, targetDepth); ok {
					vm.push(hv)
					continue
				}
				return nil, err
			}
			vm.push(v)
		case bytecode.OP_IMPORT_AS:
			path := f.readConstant().Str
			_ = f.readU16() // alias constant index: resolved by the compiler's defineVariable, not needed at runtime
			v, err := vm.doImport(path, false)
			if err != nil {
				if hv, ok := vm.handleThrow(err, targetDepth); ok {
					vm.push(hv)
					continue
				}
				return nil, err
			}
			vm.push(v)

		case bytecode.OP_BUILD_NAMESPACE:
			n := int(f.readU16())
			pairs := vm.stack[vm.sp-2*n : vm.sp]
			vm.sp -= 2 * n
			name := vm.pop().(*value.Str).S
			ns := value.NewNamespace(name)
			for i := 0; i < n; i++ {
				memberName := pairs[2*i].(*value.Str).S
				ns.Members[memberName] = pairs[2*i+1]
			}
			vm.push(ns)
		case bytecode.OP_BUILD_ENUM:
			n := int(f.readU16())
			variantNames := make([]string, n)
			for i := n - 1; i >= 0; i-- {
				variantNames[i] = vm.pop().(*value.Str).S
			}
			name := vm.pop().(*value.Str).S
			en := &value.Enum{Name: name, Variants: make(map[string]value.Value, n)}
			for _, vn := range variantNames {
				en.Variants[vn] = &value.EnumVariant{EnumName: name, Name: vn}
			}
			vm.push(en)

		case bytecode.OP_TRY_START:
			dist := f.readU16()
			vm.tryFrames = append(vm.tryFrames, tryFrame{
				frameDepth: len(vm.frames),
				catchPC:    f.ip + int(dist),
				stackBase:  vm.sp,
			})
		case bytecode.OP_TRY_END:
			vm.tryFrames = vm.tryFrames[:len(vm.tryFrames)-1]
		case bytecode.OP_THROW:
			v := vm.pop()
			if hv, ok := vm.handleThrow(thrownValue{v}, targetDepth); ok {
				vm.push(hv)
				continue
			}
			return nil, thrownValue{v}

		case bytecode.OP_AWAIT:
			v := vm.pop()
			r, err := vm.await(v)
			if err != nil {
				if hv, ok := vm.handleThrow(err, targetDepth); ok {
					vm.push(hv)
					continue
				}
				return nil, err
			}
			vm.push(r)

		case bytecode.OP_BUILD_RANGE_INCLUSIVE, bytecode.OP_BUILD_RANGE_EXCLUSIVE:
			end := vm.pop()
			start := vm.pop()
			sn, _ := start.(value.Number)
			en, _ := end.(value.Number)
			vm.push(&value.Range{Start: int64(sn), End: int64(en), Inclusive: op == bytecode.OP_BUILD_RANGE_INCLUSIVE})

		case bytecode.OP_FORMAT_CONCAT:
			right := vm.pop()
			left := vm.pop()
			leftStr, _ := left.(*value.Str)
			l := ""
			if leftStr != nil {
				l = leftStr.S
			}
			vm.push(value.NewStr(l + value.Stringify(right)))

		case bytecode.OP_ITER_INIT:
			v := vm.pop()
			it, err := vm.iterInit(v)
			if err != nil {
				if hv, ok := vm.handleThrow(err, targetDepth); ok {
					vm.push(hv)
					continue
				}
				return nil, err
			}
			vm.push(it)
		case bytecode.OP_ITER_HAS_NEXT:
			v := vm.pop()
			ok, err := vm.iterHasNext(v)
			if err != nil {
				if hv, ok2 := vm.handleThrow(err, targetDepth); ok2 {
					vm.push(hv)
					continue
				}
				return nil, err
			}
			vm.push(value.Bool(ok))
		case bytecode.OP_ITER_NEXT:
			v := vm.pop()
			nv, err := vm.iterNext(v)
			if err != nil {
				if hv, ok := vm.handleThrow(err, targetDepth); ok {
					vm.push(hv)
					continue
				}
				return nil, err
			}
			vm.push(nv)

		default:
			return nil, vm.runtimeErr(source.RuntimeError, "unimplemented opcode %s", op)
		}

		vm.maybeCollect()
	}
}

func (vm *VM) popFrame() callFrame {
	last := vm.frames[len(vm.frames)-1]
	vm.closeUpvalues(last.base)
	vm.frames = vm.frames[:len(vm.frames)-1]
	return last
}

func constantToValue(c bytecode.Constant) value.Value {
	switch c.Kind {
	case bytecode.ConstNumber:
		return value.Number(c.Num)
	case bytecode.ConstString:
		return value.NewStr(c.Str)
	default:
		return value.Null{}
	}
}
