package compiler

import (
	"github.com/sald-lang/sald/internal/ast"
	"github.com/sald-lang/sald/internal/bytecode"
	"github.com/sald-lang/sald/internal/source"
)

// compileFunctionBody lowers one function/lambda body into its own frame and
// chunk, then emits OP_CLOSURE in the *enclosing* frame so the resulting
// value lands on the enclosing frame's stack (§4.3 "Function compilation").
// isMethod/className let the VM attach super-resolution context to the
// produced Closure at OP_METHOD time.
func (c *Compiler) compileFunctionBody(name string, params []ast.FunctionParam, body ast.Expr, isMethod bool, className string, isAsync bool, sp source.Span) *bytecode.FunctionTemplate {
	enclosing := c.cur
	c.cur = newFrame(enclosing, name, c.file)
	c.cur.isMethod = isMethod
	c.cur.className = className
	c.cur.namespaceCtx = enclosing.namespaceCtx

	requiredArity := 0
	isVariadic := false
	defaults := make([]bool, len(params))
	paramNames := make([]string, len(params))
	for i, p := range params {
		paramNames[i] = p.Name
		c.declareLocal(p.Name)
		switch {
		case p.IsVariadic:
			isVariadic = true
		case p.DefaultValue == nil:
			requiredArity++
		default:
			defaults[i] = true
		}
	}

	// Default-value prologue (§4.3): for each defaulted param, if the
	// argument slot holds null (caller omitted it), evaluate and store the
	// default. JUMP_IF_NOT_NULL/JUMP_IF_FALSE never pop their tested value,
	// so both branches below POP it explicitly.
	for i, p := range params {
		if !defaults[i] {
			continue
		}
		c.emitOpU16(bytecode.OP_GET_LOCAL, uint16(i), p.Span)
		jNotNull := c.emitJump(bytecode.OP_JUMP_IF_NOT_NULL, p.Span)
		c.emitOp(bytecode.OP_POP, p.Span)
		c.compileExpr(p.DefaultValue)
		c.emitOpU16(bytecode.OP_SET_LOCAL, uint16(i), p.Span)
		c.emitOp(bytecode.OP_POP, p.Span)
		jEnd := c.emitJump(bytecode.OP_JUMP, p.Span)
		c.patchJump(jNotNull)
		c.emitOp(bytecode.OP_POP, p.Span)
		c.patchJump(jEnd)
	}

	switch b := body.(type) {
	case *ast.Block:
		for _, stmt := range b.Stmts {
			c.compileStmt(stmt)
		}
		if b.Tail != nil {
			c.compileExpr(b.Tail)
			c.emitOp(bytecode.OP_RETURN, sp)
		}
	default:
		c.compileExpr(body)
		c.emitOp(bytecode.OP_RETURN, sp)
	}
	// Implicit `return null` safety net; unreachable if every path above
	// already returned, harmless otherwise.
	c.emitOp(bytecode.OP_NULL, sp)
	c.emitOp(bytecode.OP_RETURN, sp)

	fn := &bytecode.FunctionTemplate{
		Name:          name,
		Arity:         len(params),
		RequiredArity: requiredArity,
		IsVariadic:    isVariadic,
		Defaults:      defaults,
		ParamNames:    paramNames,
		Chunk:         c.cur.chunk,
		UpvalueCount:  len(c.cur.upvalues),
		UpvalueInfo:   toUpvalueInfo(c.cur.upvalues),
		LocalCount:    c.cur.maxLocals,
		IsMethod:      isMethod,
		NamespaceCtx:  c.cur.namespaceCtx,
		IsAsync:       isAsync,
	}
	c.cur = enclosing

	// The constant pool carries fn.UpvalueInfo directly (§3's constant-pool
	// table), so OP_CLOSURE's only operand is the constant index — the VM
	// reads the capture table from the FunctionTemplate itself rather than
	// from trailing bytecode operands.
	idx := c.cur.chunk.AddConstant(bytecode.Constant{Kind: bytecode.ConstFunction, Fn: fn})
	c.emitOpU16(bytecode.OP_CLOSURE, idx, sp)
	return fn
}

// compileLambda compiles an anonymous function literal, leaving the closure
// value on the stack (used from expression context).
func (c *Compiler) compileLambda(l *ast.Lambda) {
	c.compileFunctionBody("", l.Params, l.Body, false, "", l.IsAsync, l.Sp)
}

// compileFunctionStmt compiles a named function declaration. Outside global
// scope the name is declared as a local *before* compiling the body so a
// recursive self-call resolves through resolveUpvalue/resolveLocal instead
// of incorrectly falling back to a global lookup (§4.3 step 1-3).
func (c *Compiler) compileFunctionStmt(stmt *ast.Function) {
	def := stmt.Def
	if !c.isGlobalScope() {
		c.declareLocal(def.Name)
	}
	c.compileFunctionBody(def.Name, def.Params, def.Body, false, "", def.IsAsync, stmt.Sp)
	c.applyDecorators(def.Decorators, stmt.Sp)
	if c.isGlobalScope() {
		c.emitOpU16(bytecode.OP_DEFINE_GLOBAL, c.constString(def.Name, stmt.Sp), stmt.Sp)
	}
}

// applyDecorators wraps the value currently on top of the stack with each
// decorator in reverse source order, so the first-written decorator ends up
// the outermost call (§4.3 "Decorator application").
func (c *Compiler) applyDecorators(decs []ast.Decorator, sp source.Span) {
	for i := len(decs) - 1; i >= 0; i-- {
		d := decs[i]
		c.resolveVariable(d.Name, d.Span, false)
		c.emitOp(bytecode.OP_SWAP, d.Span)
		for _, a := range d.Args {
			c.compileExpr(a)
		}
		c.emitOpU16(bytecode.OP_CALL, uint16(1+len(d.Args)), d.Span)
	}
}
