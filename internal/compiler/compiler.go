// Package compiler performs the single-pass AST -> bytecode lowering of
// §4.3: one compiler frame per function being compiled, three-case
// variable resolution (local / upvalue / global), jump patching for
// control flow, and constant-pool deduplication. Grounded on the teacher's
// internal/vm/compiler.go Compiler/Local/Upvalue/LoopContext shape (kept
// close to verbatim in structure, since the teacher already implements
// exactly the three-case resolution algorithm this spec describes),
// retargeted to Sald's own AST and opcode set.
package compiler

import (
	"github.com/sald-lang/sald/internal/ast"
	"github.com/sald-lang/sald/internal/bytecode"
	"github.com/sald-lang/sald/internal/source"
)

// local is a compile-time binding slot. Grounded on the teacher's
// compiler_scope.go Local{Name,Depth,IsCaptured}.
type local struct {
	name       string
	depth      int
	isCaptured bool
}

// upvalueDesc tells the VM, at OP_CLOSURE time, whether upvalue i should be
// captured from the enclosing frame's locals or relayed from the enclosing
// closure's own upvalues (§4.3 step 2).
type upvalueDesc struct {
	index   uint8
	isLocal bool
}

// loopCtx tracks the innermost loop's continue target and pending break
// jump sites (§4.3 "Control flow lowering").
type loopCtx struct {
	continueTarget int
	breakJumps     []int
}

// frame is one compiler activation, one per function body being compiled
// (the top-level script is frame zero).
type frame struct {
	enclosing *frame

	chunk        *bytecode.Chunk
	functionName string
	isMethod     bool
	className    string // non-"" while compiling a method body, for super resolution
	namespaceCtx string // non-"" while compiling inside a namespace block

	locals     []local
	scopeDepth int
	upvalues   []upvalueDesc

	loops   []*loopCtx
	tryDepth int

	maxLocals int
}

func newFrame(enclosing *frame, name, file string) *frame {
	return &frame{
		enclosing:    enclosing,
		chunk:        &bytecode.Chunk{File: file},
		functionName: name,
	}
}

func (f *frame) pushLoop() *loopCtx {
	lc := &loopCtx{continueTarget: -1}
	f.loops = append(f.loops, lc)
	return lc
}

func (f *frame) popLoop() { f.loops = f.loops[:len(f.loops)-1] }

func (f *frame) currentLoop() *loopCtx {
	if len(f.loops) == 0 {
		return nil
	}
	return f.loops[len(f.loops)-1]
}

// Compiler lowers one *ast.Program (or nested function bodies) into
// bytecode.FunctionTemplate chunks.
type Compiler struct {
	file   string
	cur    *frame
	errors []*source.SaldError

	// interfaces collects `interface` declarations seen so far (single-pass:
	// an interface must be declared before a class `implements` it),
	// keyed by name, for the conformance check of §4.3/§4.6.
	interfaces map[string]*ast.InterfaceDef
}

// New creates a Compiler for a program read from file.
func New(file string) *Compiler {
	return &Compiler{file: file, interfaces: make(map[string]*ast.InterfaceDef)}
}

// Errors returns every diagnostic accumulated while compiling.
func (c *Compiler) Errors() []*source.SaldError { return c.errors }

func (c *Compiler) errorAt(kind source.Kind, sp source.Span, format string, args ...interface{}) {
	c.errors = append(c.errors, source.New(kind, c.file, sp, format, args...))
}

// Compile lowers prog into a top-level FunctionTemplate (arity 0, no
// params) representing the script body, the way the teacher's top-level
// compile entry wraps the whole file as an implicit main function.
func (c *Compiler) Compile(prog *ast.Program) *bytecode.FunctionTemplate {
	c.cur = newFrame(nil, "<script>", c.file)

	for _, stmt := range prog.Stmts {
		c.compileStmt(stmt)
	}

	c.emitOp(bytecode.OP_NULL, source.Span{})
	c.emitOp(bytecode.OP_RETURN, source.Span{})

	return &bytecode.FunctionTemplate{
		Name:         "<script>",
		Chunk:        c.cur.chunk,
		UpvalueCount: len(c.cur.upvalues),
		UpvalueInfo:  toUpvalueInfo(c.cur.upvalues),
		LocalCount:   c.cur.maxLocals,
	}
}

func toUpvalueInfo(ups []upvalueDesc) []bytecode.UpvalueInfo {
	out := make([]bytecode.UpvalueInfo, len(ups))
	for i, u := range ups {
		out[i] = bytecode.UpvalueInfo{Index: u.index, IsLocal: u.isLocal}
	}
	return out
}

// ---- emission helpers ----

func (c *Compiler) emitOp(op bytecode.Opcode, sp source.Span) { c.cur.chunk.WriteOp(op, sp) }

func (c *Compiler) emitByte(b byte, sp source.Span) { c.cur.chunk.Write(b, sp) }

func (c *Compiler) emitU16(v uint16, sp source.Span) { c.cur.chunk.WriteU16(v, sp) }

func (c *Compiler) emitOpU16(op bytecode.Opcode, v uint16, sp source.Span) {
	c.emitOp(op, sp)
	c.emitU16(v, sp)
}

func (c *Compiler) constString(s string, sp source.Span) uint16 {
	return c.cur.chunk.AddConstant(bytecode.Constant{Kind: bytecode.ConstString, Str: s})
}

func (c *Compiler) constNumber(n float64) uint16 {
	return c.cur.chunk.AddConstant(bytecode.Constant{Kind: bytecode.ConstNumber, Num: n})
}

func (c *Compiler) emitConstString(s string, sp source.Span) {
	c.emitOpU16(bytecode.OP_CONSTANT, c.constString(s, sp), sp)
}

// emitJump emits op followed by a placeholder u16 operand and returns the
// offset of that operand for later patching.
func (c *Compiler) emitJump(op bytecode.Opcode, sp source.Span) int {
	c.emitOp(op, sp)
	pos := c.cur.chunk.Len()
	c.emitU16(0xFFFF, sp)
	return pos
}

// patchJump backfills the jump operand at pos with the forward distance
// from just-after-the-operand to the current code length.
func (c *Compiler) patchJump(pos int) {
	dist := c.cur.chunk.Len() - (pos + 2)
	c.cur.chunk.Code[pos] = byte(dist >> 8)
	c.cur.chunk.Code[pos+1] = byte(dist)
}

// emitLoop emits OP_LOOP with a backward displacement to target.
func (c *Compiler) emitLoop(target int, sp source.Span) {
	c.emitOp(bytecode.OP_LOOP, sp)
	dist := c.cur.chunk.Len() + 2 - target
	c.emitU16(uint16(dist), sp)
}
