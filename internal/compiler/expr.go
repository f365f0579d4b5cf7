// Expression compilation: literal/identifier/operator lowering, the
// short-circuit encodings for &&, ||, and ??, optional-chaining guards, and
// call-argument packing for named/spread arguments (§4.3, §4.5).
package compiler

import (
	"github.com/sald-lang/sald/internal/ast"
	"github.com/sald-lang/sald/internal/bytecode"
	"github.com/sald-lang/sald/internal/source"
)

func (c *Compiler) compileExpr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.Literal:
		c.compileLiteral(n)
	case *ast.FormatString:
		c.compileFormatString(n)
	case *ast.Identifier:
		c.resolveVariable(n.Name, n.Sp, false)
	case *ast.Binary:
		c.compileBinary(n)
	case *ast.Unary:
		c.compileUnary(n)
	case *ast.Grouping:
		c.compileExpr(n.Inner)
	case *ast.Assignment:
		c.compileAssignment(n)
	case *ast.Call:
		c.compileCall(n)
	case *ast.Get:
		if n.IsOptional {
			c.compileOptionalGuard(n.Object, n.Sp, func() {
				c.emitOpU16(bytecode.OP_GET_PROPERTY, c.constString(n.Prop, n.Sp), n.Sp)
			})
			return
		}
		c.compileExpr(n.Object)
		c.emitOpU16(bytecode.OP_GET_PROPERTY, c.constString(n.Prop, n.Sp), n.Sp)
	case *ast.Set:
		c.compileExpr(n.Object)
		c.compileExpr(n.Value)
		c.emitOpU16(bytecode.OP_SET_PROPERTY, c.constString(n.Prop, n.Sp), n.Sp)
	case *ast.SelfExpr:
		c.emitOp(bytecode.OP_GET_SELF, n.Sp)
	case *ast.Super:
		c.emitOp(bytecode.OP_GET_SELF, n.Sp)
		c.emitOpU16(bytecode.OP_GET_SUPER, c.constString(n.Method, n.Sp), n.Sp)
	case *ast.Array:
		c.compileArrayLiteral(n)
	case *ast.Index:
		if n.IsOptional {
			c.compileOptionalGuard(n.Object, n.Sp, func() {
				c.compileExpr(n.Index)
				c.emitOp(bytecode.OP_GET_INDEX, n.Sp)
			})
			return
		}
		c.compileExpr(n.Object)
		c.compileExpr(n.Index)
		c.emitOp(bytecode.OP_GET_INDEX, n.Sp)
	case *ast.IndexSet:
		c.compileExpr(n.Object)
		c.compileExpr(n.Index)
		c.compileExpr(n.Value)
		c.emitOp(bytecode.OP_SET_INDEX, n.Sp)
	case *ast.Ternary:
		c.compileExpr(n.Cond)
		jElse := c.emitJump(bytecode.OP_JUMP_IF_FALSE, n.Sp)
		c.emitOp(bytecode.OP_POP, n.Sp)
		c.compileExpr(n.Then)
		jEnd := c.emitJump(bytecode.OP_JUMP, n.Sp)
		c.patchJump(jElse)
		c.emitOp(bytecode.OP_POP, n.Sp)
		c.compileExpr(n.Else)
		c.patchJump(jEnd)
	case *ast.Lambda:
		c.compileLambda(n)
	case *ast.Switch:
		c.compileSwitchExpr(n)
	case *ast.Block:
		c.compileBlockExpr(n)
	case *ast.Dictionary:
		c.compileDictLiteral(n)
	case *ast.Await:
		c.compileExpr(n.Value)
		c.emitOp(bytecode.OP_AWAIT, n.Sp)
	case *ast.Return:
		if n.Value != nil {
			c.compileExpr(n.Value)
		} else {
			c.emitOp(bytecode.OP_NULL, n.Sp)
		}
		c.emitOp(bytecode.OP_RETURN, n.Sp)
	case *ast.Throw:
		c.compileExpr(n.Value)
		c.emitOp(bytecode.OP_THROW, n.Sp)
	case *ast.Break:
		c.compileBreak(n.Sp)
	case *ast.Continue:
		c.compileContinue(n.Sp)
	case *ast.Range:
		c.compileExpr(n.Start)
		c.compileExpr(n.End)
		if n.Inclusive {
			c.emitOp(bytecode.OP_BUILD_RANGE_INCLUSIVE, n.Sp)
		} else {
			c.emitOp(bytecode.OP_BUILD_RANGE_EXCLUSIVE, n.Sp)
		}
	case *ast.Spread:
		c.compileExpr(n.Value)
		c.emitOp(bytecode.OP_SPREAD_ARRAY, n.Sp)
	default:
		c.errorAt(source.RuntimeError, e.Span(), "compiler: unhandled expression %T", e)
	}
}

func (c *Compiler) compileLiteral(n *ast.Literal) {
	switch n.Kind {
	case ast.LitNumber:
		c.emitOpU16(bytecode.OP_CONSTANT, c.constNumber(n.Num), n.Sp)
	case ast.LitString:
		c.emitConstString(n.Str, n.Sp)
	case ast.LitBool:
		if n.Bool {
			c.emitOp(bytecode.OP_TRUE, n.Sp)
		} else {
			c.emitOp(bytecode.OP_FALSE, n.Sp)
		}
	case ast.LitNull:
		c.emitOp(bytecode.OP_NULL, n.Sp)
	}
}

// compileFormatString lowers `$"a{x}b{y}"` into a left fold of
// OP_FORMAT_CONCAT over the interleaved literal parts and expressions, each
// pairwise concat stringifying its right-hand operand (§4.1 interpolation).
func (c *Compiler) compileFormatString(n *ast.FormatString) {
	c.emitConstString(n.Parts[0], n.Sp)
	for i, expr := range n.Exprs {
		c.compileExpr(expr)
		c.emitOp(bytecode.OP_FORMAT_CONCAT, n.Sp)
		c.emitConstString(n.Parts[i+1], n.Sp)
		c.emitOp(bytecode.OP_FORMAT_CONCAT, n.Sp)
	}
}

var binaryOps = map[string]bytecode.Opcode{
	"+": bytecode.OP_ADD, "-": bytecode.OP_SUB, "*": bytecode.OP_MUL,
	"/": bytecode.OP_DIV, "%": bytecode.OP_MOD,
	"==": bytecode.OP_EQ, "!=": bytecode.OP_NEQ,
	"<": bytecode.OP_LT, "<=": bytecode.OP_LE, ">": bytecode.OP_GT, ">=": bytecode.OP_GE,
	"&": bytecode.OP_BAND, "|": bytecode.OP_BOR, "^": bytecode.OP_BXOR,
	"<<": bytecode.OP_SHL, ">>": bytecode.OP_SHR,
}

func (c *Compiler) compileBinary(n *ast.Binary) {
	switch n.Op {
	case "&&":
		c.compileExpr(n.Left)
		j := c.emitJump(bytecode.OP_JUMP_IF_FALSE, n.Sp)
		c.emitOp(bytecode.OP_POP, n.Sp)
		c.compileExpr(n.Right)
		c.patchJump(j)
		return
	case "||":
		c.compileExpr(n.Left)
		j := c.emitJump(bytecode.OP_JUMP_IF_TRUE, n.Sp)
		c.emitOp(bytecode.OP_POP, n.Sp)
		c.compileExpr(n.Right)
		c.patchJump(j)
		return
	case "??":
		c.compileExpr(n.Left)
		c.emitOp(bytecode.OP_DUP, n.Sp)
		jNotNull := c.emitJump(bytecode.OP_JUMP_IF_NOT_NULL, n.Sp)
		c.emitOp(bytecode.OP_POP, n.Sp)
		c.emitOp(bytecode.OP_POP, n.Sp)
		c.compileExpr(n.Right)
		jEnd := c.emitJump(bytecode.OP_JUMP, n.Sp)
		c.patchJump(jNotNull)
		c.emitOp(bytecode.OP_POP, n.Sp)
		c.patchJump(jEnd)
		return
	}
	op, ok := binaryOps[n.Op]
	if !ok {
		c.errorAt(source.RuntimeError, n.Sp, "compiler: unknown binary operator %q", n.Op)
		return
	}
	c.compileExpr(n.Left)
	c.compileExpr(n.Right)
	c.emitOp(op, n.Sp)
}

func (c *Compiler) compileUnary(n *ast.Unary) {
	c.compileExpr(n.Operand)
	switch n.Op {
	case "-":
		c.emitOp(bytecode.OP_NEG, n.Sp)
	case "!":
		c.emitOp(bytecode.OP_NOT, n.Sp)
	case "~":
		c.emitOp(bytecode.OP_BNOT, n.Sp)
	default:
		c.errorAt(source.RuntimeError, n.Sp, "compiler: unknown unary operator %q", n.Op)
	}
}

// compileOptionalGuard wraps a `?.`/`?.()`/`?.[` access: obj is evaluated
// once; if it is null the whole access short-circuits to null without
// running body (so call arguments and index expressions inside body are
// never evaluated); otherwise body runs with obj sitting on top of stack.
func (c *Compiler) compileOptionalGuard(obj ast.Expr, sp source.Span, body func()) {
	c.compileExpr(obj)
	c.emitOp(bytecode.OP_DUP, sp)
	jNotNull := c.emitJump(bytecode.OP_JUMP_IF_NOT_NULL, sp)
	c.emitOp(bytecode.OP_POP, sp)
	c.emitOp(bytecode.OP_POP, sp)
	c.emitOp(bytecode.OP_NULL, sp)
	jEnd := c.emitJump(bytecode.OP_JUMP, sp)
	c.patchJump(jNotNull)
	c.emitOp(bytecode.OP_POP, sp)
	body()
	c.patchJump(jEnd)
}

func (c *Compiler) compileAssignment(n *ast.Assignment) {
	switch target := n.Target.(type) {
	case *ast.Identifier:
		if n.Op == "=" {
			c.compileExpr(n.Value)
			c.resolveVariable(target.Name, n.Sp, true)
			return
		}
		c.resolveVariable(target.Name, n.Sp, false)
		c.compileExpr(n.Value)
		c.emitOp(compoundOp(n.Op), n.Sp)
		c.resolveVariable(target.Name, n.Sp, true)
	case *ast.Get:
		c.compileExpr(target.Object)
		c.emitOp(bytecode.OP_DUP, n.Sp)
		c.emitOpU16(bytecode.OP_GET_PROPERTY, c.constString(target.Prop, n.Sp), n.Sp)
		c.compileExpr(n.Value)
		c.emitOp(compoundOp(n.Op), n.Sp)
		c.emitOpU16(bytecode.OP_SET_PROPERTY, c.constString(target.Prop, n.Sp), n.Sp)
	case *ast.Index:
		c.compileExpr(target.Object)
		c.compileExpr(target.Index)
		c.emitOp(bytecode.OP_DUP_TWO, n.Sp)
		c.emitOp(bytecode.OP_GET_INDEX, n.Sp)
		c.compileExpr(n.Value)
		c.emitOp(compoundOp(n.Op), n.Sp)
		c.emitOp(bytecode.OP_SET_INDEX, n.Sp)
	default:
		c.errorAt(source.RuntimeError, n.Sp, "compiler: invalid assignment target %T", n.Target)
	}
}

func compoundOp(op string) bytecode.Opcode {
	base := op[:len(op)-1] // strip trailing "="
	return binaryOps[base]
}

func (c *Compiler) compileCall(n *ast.Call) {
	emitArgs := func() {
		for _, arg := range n.Args {
			c.compileExpr(arg.Value)
			switch {
			case arg.Spread:
				c.emitOp(bytecode.OP_SPREAD_ARRAY, n.Sp)
			case arg.Name != "":
				c.emitOpU16(bytecode.OP_NAMED_ARG, c.constString(arg.Name, n.Sp), n.Sp)
			}
		}
	}
	// `obj.method(args)` fuses the property lookup and the call into a
	// single OP_INVOKE, skipping the intermediate BoundMethod allocation
	// OP_GET_PROPERTY + OP_CALL would otherwise need (§4.4, §4.6).
	if get, ok := n.Callee.(*ast.Get); ok && !get.IsOptional && !n.IsOptional {
		c.compileExpr(get.Object)
		emitArgs()
		c.emitOp(bytecode.OP_INVOKE, n.Sp)
		c.emitU16(c.constString(get.Prop, n.Sp), n.Sp)
		c.emitU16(uint16(len(n.Args)), n.Sp)
		return
	}
	emitArgsAndCall := func() {
		emitArgs()
		c.emitOpU16(bytecode.OP_CALL, uint16(len(n.Args)), n.Sp)
	}
	if n.IsOptional {
		c.compileOptionalGuard(n.Callee, n.Sp, emitArgsAndCall)
		return
	}
	c.compileExpr(n.Callee)
	emitArgsAndCall()
}

func (c *Compiler) compileArrayLiteral(n *ast.Array) {
	for _, el := range n.Elements {
		if sp, ok := el.(*ast.Spread); ok {
			c.compileExpr(sp.Value)
			c.emitOp(bytecode.OP_SPREAD_ARRAY, sp.Sp)
			continue
		}
		c.compileExpr(el)
	}
	c.emitOpU16(bytecode.OP_BUILD_ARRAY, uint16(len(n.Elements)), n.Sp)
}

func (c *Compiler) compileDictLiteral(n *ast.Dictionary) {
	for _, entry := range n.Entries {
		c.compileDictKey(entry.Key)
		c.compileExpr(entry.Value)
	}
	c.emitOpU16(bytecode.OP_BUILD_DICT, uint16(len(n.Entries)), n.Sp)
}

// compileDictKey treats a bare identifier key (`{ name: v }`) as the string
// "name" per object-literal shorthand, same as a string literal key.
func (c *Compiler) compileDictKey(key ast.Expr) {
	if id, ok := key.(*ast.Identifier); ok {
		c.emitConstString(id.Name, id.Sp)
		return
	}
	c.compileExpr(key)
}

func (c *Compiler) compileBreak(sp source.Span) {
	loop := c.cur.currentLoop()
	if loop == nil {
		c.errorAt(source.SyntaxError, sp, "break outside loop")
		return
	}
	j := c.emitJump(bytecode.OP_JUMP, sp)
	loop.breakJumps = append(loop.breakJumps, j)
}

func (c *Compiler) compileContinue(sp source.Span) {
	loop := c.cur.currentLoop()
	if loop == nil {
		c.errorAt(source.SyntaxError, sp, "continue outside loop")
		return
	}
	c.emitLoop(loop.continueTarget, sp)
}

// compileBlockExpr evaluates a block in expression position (§4.3): block
// locals live in a dedicated placeholder scope so the tail value survives
// scope cleanup without relocating any physical stack slot (which would
// break live upvalue.location bookkeeping).
func (c *Compiler) compileBlockExpr(b *ast.Block) {
	c.beginScope()
	resultSlot := c.declareLocal("")
	c.emitOp(bytecode.OP_NULL, b.Sp)
	for _, stmt := range b.Stmts {
		c.compileStmt(stmt)
	}
	if b.Tail != nil {
		c.compileExpr(b.Tail)
		c.emitOpU16(bytecode.OP_SET_LOCAL, uint16(resultSlot), b.Sp)
		c.emitOp(bytecode.OP_POP, b.Sp)
	}
	c.endScopeKeepTop(b.Sp, resultSlot)
}

// endScopeKeepTop closes every local declared after keepSlot (top-down, the
// same order endScope uses) but leaves keepSlot's value physically on the
// stack as the scope's result, dropping it from locals bookkeeping without
// emitting a pop for it.
func (c *Compiler) endScopeKeepTop(sp source.Span, keepSlot int) {
	f := c.cur
	f.scopeDepth--
	for len(f.locals)-1 > keepSlot {
		last := f.locals[len(f.locals)-1]
		if last.isCaptured {
			c.emitOp(bytecode.OP_CLOSE_UPVALUE, sp)
		} else {
			c.emitOp(bytecode.OP_POP, sp)
		}
		f.locals = f.locals[:len(f.locals)-1]
	}
	f.locals = f.locals[:keepSlot]
}
