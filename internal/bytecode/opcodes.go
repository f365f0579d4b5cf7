// Package bytecode defines the instruction set, constant pool, and chunk
// container the compiler emits into and the VM executes. Grounded on the
// teacher's internal/vm/opcodes.go (byte-sized Opcode enum, OP_ prefix,
// phase-grouped const block) and chunk.go (Code/Constants/Lines slices),
// retargeted from Funxy's tree-walk-assisting opcode set to Sald's own.
package bytecode

// Opcode is a single VM instruction.
type Opcode byte

const (
	// Constants & stack shape
	OP_CONSTANT Opcode = iota
	OP_TRUE
	OP_FALSE
	OP_NULL
	OP_DUP
	OP_DUP_TWO
	OP_SWAP
	OP_POP

	// Variables
	OP_DEFINE_GLOBAL
	OP_GET_GLOBAL
	OP_SET_GLOBAL
	OP_GET_LOCAL
	OP_SET_LOCAL
	OP_GET_UPVALUE
	OP_SET_UPVALUE
	OP_CLOSE_UPVALUE

	// Arithmetic / bitwise / compare / logic
	OP_ADD
	OP_SUB
	OP_MUL
	OP_DIV
	OP_MOD
	OP_NEG
	OP_BAND
	OP_BOR
	OP_BXOR
	OP_BNOT
	OP_SHL
	OP_SHR
	OP_EQ
	OP_NEQ
	OP_LT
	OP_LE
	OP_GT
	OP_GE
	OP_NOT

	// Jumps
	OP_JUMP
	OP_JUMP_IF_FALSE
	OP_JUMP_IF_TRUE
	OP_JUMP_IF_NOT_NULL
	OP_LOOP

	// Calls
	OP_CALL
	OP_RETURN
	OP_CLOSURE
	OP_RECURSIVE_CALL

	// OO
	OP_CLASS
	OP_METHOD
	OP_STATIC_METHOD
	OP_GET_PROPERTY
	OP_SET_PROPERTY
	OP_GET_SELF
	OP_INVOKE
	OP_INHERIT
	OP_GET_SUPER

	// Data
	OP_BUILD_ARRAY
	OP_BUILD_DICT
	OP_GET_INDEX
	OP_SET_INDEX
	OP_SPREAD_ARRAY
	// OP_ARRAY_REST(startIdx) pops an array and pushes a new array holding
	// elements from startIdx onward. Not in spec.md's opcode table verbatim;
	// it is the compiler-internal mechanism for the `[...rest]` switch
	// array-pattern rest binding (§4.2/§8 scenario 4), the same way
	// SpreadMarker is a transient mechanism never exposed as a value.
	OP_ARRAY_REST
	// OP_NAMED_ARG(nameConstIdx) pops the top of stack and pushes it back
	// wrapped in a value.NamedArgMarker, mirroring OP_SPREAD_ARRAY's
	// SpreadMarker wrapping — the compiler's mechanism for encoding `name:
	// value` call arguments (§4.5 "Named arguments") so OP_CALL can resolve
	// them against the callee's param names.
	OP_NAMED_ARG

	// Modules
	OP_IMPORT
	OP_IMPORT_AS

	// Namespaces / enums
	OP_BUILD_NAMESPACE
	OP_BUILD_ENUM

	// Exceptions
	OP_TRY_START
	OP_TRY_END
	OP_THROW

	// Async
	OP_AWAIT

	// Ranges
	OP_BUILD_RANGE_INCLUSIVE
	OP_BUILD_RANGE_EXCLUSIVE

	// Format strings
	OP_FORMAT_CONCAT

	// Iteration protocol (§4.5 "Iteration protocol", §6.4): for-in lowers to
	// this triple rather than bytecode-visible method calls, since built-in
	// Array/String/Dictionary/Range iteration needs a cursor the VM
	// maintains internally (the value itself carries no iteration state),
	// while user hasNext/next instances dispatch through the ordinary call
	// path. Not in spec.md's literal opcode table; it is the mechanism
	// behind the "evaluate iterable, initialize iterator state" compiler
	// step it describes in prose.
	OP_ITER_INIT
	OP_ITER_HAS_NEXT
	OP_ITER_NEXT

	opcodeCount
)

var names = [opcodeCount]string{
	OP_CONSTANT: "CONSTANT", OP_TRUE: "TRUE", OP_FALSE: "FALSE", OP_NULL: "NULL",
	OP_DUP: "DUP", OP_DUP_TWO: "DUP_TWO", OP_SWAP: "SWAP", OP_POP: "POP",
	OP_DEFINE_GLOBAL: "DEFINE_GLOBAL", OP_GET_GLOBAL: "GET_GLOBAL", OP_SET_GLOBAL: "SET_GLOBAL",
	OP_GET_LOCAL: "GET_LOCAL", OP_SET_LOCAL: "SET_LOCAL",
	OP_GET_UPVALUE: "GET_UPVALUE", OP_SET_UPVALUE: "SET_UPVALUE", OP_CLOSE_UPVALUE: "CLOSE_UPVALUE",
	OP_ADD: "ADD", OP_SUB: "SUB", OP_MUL: "MUL", OP_DIV: "DIV", OP_MOD: "MOD", OP_NEG: "NEG",
	OP_BAND: "BAND", OP_BOR: "BOR", OP_BXOR: "BXOR", OP_BNOT: "BNOT", OP_SHL: "SHL", OP_SHR: "SHR",
	OP_EQ: "EQ", OP_NEQ: "NEQ", OP_LT: "LT", OP_LE: "LE", OP_GT: "GT", OP_GE: "GE", OP_NOT: "NOT",
	OP_JUMP: "JUMP", OP_JUMP_IF_FALSE: "JUMP_IF_FALSE", OP_JUMP_IF_TRUE: "JUMP_IF_TRUE",
	OP_JUMP_IF_NOT_NULL: "JUMP_IF_NOT_NULL", OP_LOOP: "LOOP",
	OP_CALL: "CALL", OP_RETURN: "RETURN", OP_CLOSURE: "CLOSURE", OP_RECURSIVE_CALL: "RECURSIVE_CALL",
	OP_CLASS: "CLASS", OP_METHOD: "METHOD", OP_STATIC_METHOD: "STATIC_METHOD",
	OP_GET_PROPERTY: "GET_PROPERTY", OP_SET_PROPERTY: "SET_PROPERTY", OP_GET_SELF: "GET_SELF",
	OP_INVOKE: "INVOKE", OP_INHERIT: "INHERIT", OP_GET_SUPER: "GET_SUPER",
	OP_BUILD_ARRAY: "BUILD_ARRAY", OP_BUILD_DICT: "BUILD_DICT",
	OP_GET_INDEX: "GET_INDEX", OP_SET_INDEX: "SET_INDEX", OP_SPREAD_ARRAY: "SPREAD_ARRAY",
	OP_ARRAY_REST: "ARRAY_REST", OP_NAMED_ARG: "NAMED_ARG",
	OP_IMPORT: "IMPORT", OP_IMPORT_AS: "IMPORT_AS",
	OP_BUILD_NAMESPACE: "BUILD_NAMESPACE", OP_BUILD_ENUM: "BUILD_ENUM",
	OP_TRY_START: "TRY_START", OP_TRY_END: "TRY_END", OP_THROW: "THROW",
	OP_AWAIT: "AWAIT",
	OP_BUILD_RANGE_INCLUSIVE: "BUILD_RANGE_INCLUSIVE", OP_BUILD_RANGE_EXCLUSIVE: "BUILD_RANGE_EXCLUSIVE",
	OP_FORMAT_CONCAT: "FORMAT_CONCAT",
	OP_ITER_INIT: "ITER_INIT", OP_ITER_HAS_NEXT: "ITER_HAS_NEXT", OP_ITER_NEXT: "ITER_NEXT",
}

func (op Opcode) String() string {
	if int(op) < len(names) && names[op] != "" {
		return names[op]
	}
	return "UNKNOWN"
}
