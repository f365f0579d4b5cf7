package bytecode

// Constant is a pool entry: a literal number/string/function template that
// lives in the chunk's constant pool rather than being inlined into the
// instruction stream. Grounded on the teacher's chunk.go AddConstant/
// ReadConstantIndex split between "instruction operand" and "pool value".
type Constant struct {
	Kind ConstantKind
	Num  float64
	Str  string
	Fn   *FunctionTemplate
}

type ConstantKind byte

const (
	ConstNumber ConstantKind = iota
	ConstString
	ConstFunction
)

// Equal reports whether two constants should be interned to the same pool
// slot. Function templates are never deduped (each closure literal compiles
// to its own template even if byte-identical).
func (c Constant) Equal(o Constant) bool {
	if c.Kind != o.Kind {
		return false
	}
	switch c.Kind {
	case ConstNumber:
		return c.Num == o.Num
	case ConstString:
		return c.Str == o.Str
	default:
		return false
	}
}

// FunctionTemplate is the compile-time shape of a function: its own chunk
// plus arity/upvalue metadata the VM uses to build an ObjClosure at
// OP_CLOSURE time. Grounded on the teacher's objects.go CompiledFunction.
type FunctionTemplate struct {
	Name          string
	Arity         int
	RequiredArity int
	IsVariadic    bool
	Defaults      []bool
	// ParamNames lets OP_CALL resolve NamedArgMarker arguments (§4.5 "Named
	// arguments") against the matching positional slot.
	ParamNames    []string
	Chunk         *Chunk
	UpvalueCount  int
	UpvalueInfo   []UpvalueInfo
	LocalCount    int
	IsMethod      bool
	// NamespaceCtx is the enclosing `namespace` block's name, or "" outside
	// any namespace (§4.3 "Functions compiled inside a namespace carry
	// namespace_context"). Privacy checks on GetProperty compare against
	// this string rather than holding a pointer to the runtime Namespace
	// value, which does not exist yet while its own members are compiling.
	NamespaceCtx string
	// IsAsync marks a function declared with `async fun` (§4.10). The
	// function body compiles identically either way; OP_CALL consults this
	// flag to wrap the closure's return value in an already-resolved
	// Future instead of pushing it directly.
	IsAsync bool
}

// UpvalueInfo tells the VM, at OP_CLOSURE time, whether upvalue i should be
// captured from the enclosing frame's locals (IsLocal) or from the
// enclosing closure's own upvalues. Grounded on the teacher's
// compiler_scope.go Upvalue{Index,IsLocal}.
type UpvalueInfo struct {
	Index   uint8
	IsLocal bool
}
