// Statement compilation: bindings (incl. destructuring), control flow
// (if/while/do-while/for-in lowering through the iteration protocol),
// declarations (function/class/namespace/const/enum/interface), try/catch,
// and imports (§4.3).
package compiler

import (
	"github.com/sald-lang/sald/internal/ast"
	"github.com/sald-lang/sald/internal/bytecode"
	"github.com/sald-lang/sald/internal/source"
)

func (c *Compiler) compileStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Let:
		c.compileLet(n)
	case *ast.LetDestructure:
		c.compileLetDestructure(n)
	case *ast.ExpressionStmt:
		c.compileExpr(n.Expr)
		c.emitOp(bytecode.OP_POP, n.Sp)
	case *ast.If:
		c.compileIf(n)
	case *ast.While:
		c.compileWhile(n)
	case *ast.DoWhile:
		c.compileDoWhile(n)
	case *ast.For:
		c.compileFor(n)
	case *ast.Function:
		c.compileFunctionStmt(n)
	case *ast.Class:
		c.compileClassStmt(n)
	case *ast.Import:
		c.compileImport(n)
	case *ast.TryCatch:
		c.compileTryCatch(n)
	case *ast.Namespace:
		c.compileNamespaceStmt(n)
	case *ast.Const:
		c.compileExpr(n.Value)
		c.defineVariable(n.Name, n.Sp)
	case *ast.Enum:
		c.compileEnumStmt(n)
	case *ast.Interface:
		c.interfaces[n.Def.Name] = n.Def
	case *ast.Block:
		c.compileBlockExpr(n)
		c.emitOp(bytecode.OP_POP, n.Sp)
	case *ast.Return, *ast.Throw, *ast.Break, *ast.Continue:
		c.compileExpr(s.(ast.Expr))
	default:
		c.errorAt(source.RuntimeError, s.Span(), "compiler: unhandled statement %T", s)
	}
}

func (c *Compiler) compileLet(n *ast.Let) {
	if n.Init != nil {
		c.compileExpr(n.Init)
	} else {
		c.emitOp(bytecode.OP_NULL, n.Sp)
	}
	c.defineVariable(n.Name, n.Sp)
}

// compileLetDestructure lowers `let [a, b, ...rest] = v` / `let {a, b} = v`
// by evaluating the initializer once into a hidden local, then binding each
// named piece from it via GET_INDEX/GET_PROPERTY/OP_ARRAY_REST.
func (c *Compiler) compileLetDestructure(n *ast.LetDestructure) {
	c.compileExpr(n.Init)
	srcSlot := c.declareLocal("")
	pat := n.Pattern
	if pat.IsArray {
		for i, name := range pat.Names {
			c.emitOpU16(bytecode.OP_GET_LOCAL, uint16(srcSlot), n.Sp)
			c.emitOpU16(bytecode.OP_CONSTANT, c.constNumber(float64(i)), n.Sp)
			c.emitOp(bytecode.OP_GET_INDEX, n.Sp)
			c.defineVariable(name, n.Sp)
		}
		if pat.Rest != "" {
			c.emitOpU16(bytecode.OP_GET_LOCAL, uint16(srcSlot), n.Sp)
			c.emitOpU16(bytecode.OP_ARRAY_REST, uint16(len(pat.Names)), n.Sp)
			c.defineVariable(pat.Rest, n.Sp)
		}
	} else {
		for _, name := range pat.Names {
			c.emitOpU16(bytecode.OP_GET_LOCAL, uint16(srcSlot), n.Sp)
			c.emitOpU16(bytecode.OP_GET_PROPERTY, c.constString(name, n.Sp), n.Sp)
			c.defineVariable(name, n.Sp)
		}
	}
}

func (c *Compiler) compileIf(n *ast.If) {
	c.compileExpr(n.Cond)
	jElse := c.emitJump(bytecode.OP_JUMP_IF_FALSE, n.Sp)
	c.emitOp(bytecode.OP_POP, n.Sp)
	c.compileStmt(n.Then)
	if n.Else == nil {
		c.patchJump(jElse)
		return
	}
	jEnd := c.emitJump(bytecode.OP_JUMP, n.Sp)
	c.patchJump(jElse)
	c.emitOp(bytecode.OP_POP, n.Sp)
	c.compileStmt(n.Else)
	c.patchJump(jEnd)
}

func (c *Compiler) compileWhile(n *ast.While) {
	loopStart := c.cur.chunk.Len()
	c.compileExpr(n.Cond)
	jEnd := c.emitJump(bytecode.OP_JUMP_IF_FALSE, n.Sp)
	c.emitOp(bytecode.OP_POP, n.Sp)

	loop := c.cur.pushLoop()
	loop.continueTarget = loopStart
	c.compileStmt(n.Body)
	c.emitLoop(loopStart, n.Sp)

	c.patchJump(jEnd)
	c.emitOp(bytecode.OP_POP, n.Sp)
	for _, j := range loop.breakJumps {
		c.patchJump(j)
	}
	c.cur.popLoop()
}

func (c *Compiler) compileDoWhile(n *ast.DoWhile) {
	bodyStart := c.cur.chunk.Len()
	loop := c.cur.pushLoop()

	c.compileStmt(n.Body)

	continueTarget := c.cur.chunk.Len()
	loop.continueTarget = continueTarget
	c.compileExpr(n.Cond)
	jEnd := c.emitJump(bytecode.OP_JUMP_IF_FALSE, n.Sp)
	c.emitOp(bytecode.OP_POP, n.Sp)
	c.emitLoop(bodyStart, n.Sp)
	c.patchJump(jEnd)
	c.emitOp(bytecode.OP_POP, n.Sp)

	for _, j := range loop.breakJumps {
		c.patchJump(j)
	}
	c.cur.popLoop()
}

// compileFor lowers `for x in iterable { body }` through the ITER_INIT /
// ITER_HAS_NEXT / ITER_NEXT triple (§4.5 "Iteration protocol"): the VM
// decides internally whether iterable is a built-in (index-based cursor) or
// a user instance exposing hasNext/next (method-call based).
func (c *Compiler) compileFor(n *ast.For) {
	c.beginScope()
	c.compileExpr(n.Iterable)
	c.emitOp(bytecode.OP_ITER_INIT, n.Sp)
	iterSlot := c.declareLocal("")

	loopStart := c.cur.chunk.Len()
	c.emitOpU16(bytecode.OP_GET_LOCAL, uint16(iterSlot), n.Sp)
	c.emitOp(bytecode.OP_ITER_HAS_NEXT, n.Sp)
	jEnd := c.emitJump(bytecode.OP_JUMP_IF_FALSE, n.Sp)
	c.emitOp(bytecode.OP_POP, n.Sp)

	loop := c.cur.pushLoop()
	loop.continueTarget = loopStart

	c.beginScope()
	c.emitOpU16(bytecode.OP_GET_LOCAL, uint16(iterSlot), n.Sp)
	c.emitOp(bytecode.OP_ITER_NEXT, n.Sp)
	c.declareLocal(n.Var)
	c.compileStmt(n.Body)
	c.endScope(n.Sp)

	c.emitLoop(loopStart, n.Sp)
	c.patchJump(jEnd)
	c.emitOp(bytecode.OP_POP, n.Sp)
	for _, j := range loop.breakJumps {
		c.patchJump(j)
	}
	c.cur.popLoop()
	c.endScope(n.Sp)
}

func (c *Compiler) compileImport(n *ast.Import) {
	if n.Alias != "" {
		c.emitOpU16(bytecode.OP_IMPORT_AS, c.constString(n.Path, n.Sp), n.Sp)
		c.emitU16(c.constString(n.Alias, n.Sp), n.Sp)
		c.defineVariable(n.Alias, n.Sp)
		return
	}
	c.emitOpU16(bytecode.OP_IMPORT, c.constString(n.Path, n.Sp), n.Sp)
	c.emitOp(bytecode.OP_POP, n.Sp)
}

// compileTryCatch lowers try/catch via TryStart/TryEnd bracketing the
// protected block; the VM's Throw unwind jumps to the catch PC recorded by
// TryStart on a throw, restoring stack/frame depth to the point of the try
// (§4.8).
func (c *Compiler) compileTryCatch(n *ast.TryCatch) {
	c.cur.tryDepth++
	jCatch := c.emitJump(bytecode.OP_TRY_START, n.Sp)

	c.beginScope()
	for _, stmt := range n.Body.Stmts {
		c.compileStmt(stmt)
	}
	if n.Body.Tail != nil {
		c.compileExpr(n.Body.Tail)
		c.emitOp(bytecode.OP_POP, n.Sp)
	}
	c.endScope(n.Sp)
	c.emitOp(bytecode.OP_TRY_END, n.Sp)
	jEnd := c.emitJump(bytecode.OP_JUMP, n.Sp)

	c.patchJump(jCatch)
	c.cur.tryDepth--
	c.beginScope()
	if n.CatchVar != "" {
		c.declareLocal(n.CatchVar)
	} else {
		c.emitOp(bytecode.OP_POP, n.Sp)
	}
	for _, stmt := range n.CatchBody.Stmts {
		c.compileStmt(stmt)
	}
	if n.CatchBody.Tail != nil {
		c.compileExpr(n.CatchBody.Tail)
		c.emitOp(bytecode.OP_POP, n.Sp)
	}
	c.endScope(n.Sp)

	c.patchJump(jEnd)
}

func (c *Compiler) compileEnumStmt(n *ast.Enum) {
	c.emitConstString(n.Name, n.Sp)
	for _, v := range n.Variants {
		c.emitConstString(v.Name, v.Span)
	}
	c.emitOpU16(bytecode.OP_BUILD_ENUM, uint16(len(n.Variants)), n.Sp)
	c.defineVariable(n.Name, n.Sp)
}

// declName reports the name a statement introduces, for namespace member
// collection (§4.3 namespace compilation).
func declName(s ast.Stmt) (string, bool) {
	switch n := s.(type) {
	case *ast.Let:
		return n.Name, true
	case *ast.Function:
		return n.Def.Name, true
	case *ast.Class:
		return n.Def.Name, true
	case *ast.Const:
		return n.Name, true
	case *ast.Enum:
		return n.Name, true
	case *ast.Namespace:
		return n.Name, true
	}
	return "", false
}

// compileNamespaceStmt builds a runtime Namespace from every top-level
// declaration in the block (§3 `Namespace` row, §4.3). Member values are
// collected via the same placeholder-slot trick compileBlockExpr uses, so
// the scope's internal locals never leak while the built Namespace survives
// scope cleanup as the statement's net effect.
func (c *Compiler) compileNamespaceStmt(n *ast.Namespace) {
	if !c.isGlobalScope() {
		c.declareLocal(n.Name)
	}
	c.beginScope()
	resultSlot := c.declareLocal("")
	c.emitOp(bytecode.OP_NULL, n.Sp)

	savedNs := c.cur.namespaceCtx
	c.cur.namespaceCtx = n.Name
	var members []string
	for _, inner := range n.Body {
		if name, ok := declName(inner); ok {
			members = append(members, name)
		}
		c.compileStmt(inner)
	}
	// Namespace's own name goes first so the VM can pop it after popping the
	// member name/value pairs (mirrors compileEnumStmt's layout).
	c.emitConstString(n.Name, n.Sp)
	for _, name := range members {
		c.emitConstString(name, n.Sp)
		c.resolveVariable(name, n.Sp, false)
	}
	c.emitOpU16(bytecode.OP_BUILD_NAMESPACE, uint16(len(members)), n.Sp)
	c.emitOpU16(bytecode.OP_SET_LOCAL, uint16(resultSlot), n.Sp)
	c.emitOp(bytecode.OP_POP, n.Sp)
	c.cur.namespaceCtx = savedNs

	c.endScopeKeepTop(n.Sp, resultSlot)
	if c.isGlobalScope() {
		c.emitOpU16(bytecode.OP_DEFINE_GLOBAL, c.constString(n.Name, n.Sp), n.Sp)
	}
}
