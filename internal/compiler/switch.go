// Switch-pattern compilation (§3, §4.3 switch-arm lowering). Patterns are
// compiled in two passes per arm: matchTest emits a single boolean with no
// side-effect locals, and on success bindPattern re-derives and declares the
// named bindings — avoiding any need to unwind partially-bound locals on a
// failed match.
package compiler

import (
	"github.com/sald-lang/sald/internal/ast"
	"github.com/sald-lang/sald/internal/bytecode"
	"github.com/sald-lang/sald/internal/source"
)

// accessor emits code to push the current sub-value onto the stack. Reused
// (re-emitted) any number of times, so it must have no side effects beyond
// reading.
type accessor func()

func (c *Compiler) compileSwitchExpr(sw *ast.Switch) {
	sp := sw.Sp
	c.compileExpr(sw.Value)
	scrutineeSlot := c.declareLocal("")
	resultSlot := c.declareLocal("")
	c.emitOp(bytecode.OP_NULL, sp)

	scrutineeAccess := func() { c.emitOpU16(bytecode.OP_GET_LOCAL, uint16(scrutineeSlot), sp) }

	// Arms with multiple comma-separated patterns try each independently:
	// a failed pattern just falls through to the next one (or the next arm),
	// so no bookkeeping is shared across alternatives.
	var endJumps []int
	for _, arm := range sw.Arms {
		for _, pat := range arm.Patterns {
			c.beginScope()
			c.matchTest(pat, scrutineeAccess, sp)
			fail := c.emitJump(bytecode.OP_JUMP_IF_FALSE, sp)
			c.emitOp(bytecode.OP_POP, sp)
			c.bindPattern(pat, scrutineeAccess, sp)
			c.compileExpr(arm.Body)
			c.emitOpU16(bytecode.OP_SET_LOCAL, uint16(resultSlot), sp)
			c.emitOp(bytecode.OP_POP, sp)
			c.endScope(sp)
			endJumps = append(endJumps, c.emitJump(bytecode.OP_JUMP, sp))

			c.patchJump(fail)
			c.emitOp(bytecode.OP_POP, sp)
			// Bindings never committed on the fail path: drop the scope's
			// compiler-side bookkeeping without emitting cleanup bytecode,
			// since matchTest/bindPattern never leave extra runtime values
			// behind when the match fails.
			c.cur.scopeDepth--
			c.trimLocalsToScopeDepth()
		}
	}
	if sw.Default != nil {
		c.compileExpr(sw.Default)
		c.emitOpU16(bytecode.OP_SET_LOCAL, uint16(resultSlot), sp)
		c.emitOp(bytecode.OP_POP, sp)
	}
	for _, j := range endJumps {
		c.patchJump(j)
	}
	// Stack: [scrutinee, result]. Discard the scrutinee, keep the result —
	// safe because neither slot is ever captured by a user closure (pattern
	// bindings are separate locals that copy out of the scrutinee, never
	// alias its slot).
	c.emitOp(bytecode.OP_SWAP, sp)
	c.emitOp(bytecode.OP_POP, sp)
	c.cur.locals = c.cur.locals[:scrutineeSlot]
}

func (c *Compiler) trimLocalsToScopeDepth() {
	f := c.cur
	for len(f.locals) > 0 && f.locals[len(f.locals)-1].depth > f.scopeDepth {
		f.locals = f.locals[:len(f.locals)-1]
	}
}

// compileAndThen short-circuits: if first leaves false, second never runs.
func (c *Compiler) compileAndThen(sp source.Span, first, second func()) {
	first()
	j := c.emitJump(bytecode.OP_JUMP_IF_FALSE, sp)
	c.emitOp(bytecode.OP_POP, sp)
	second()
	c.patchJump(j)
}

// matchTest emits a single boolean: whether the value access() produces
// matches pat. Declares no permanent locals.
func (c *Compiler) matchTest(pat ast.Pattern, access accessor, sp source.Span) {
	switch p := pat.(type) {
	case *ast.LiteralPattern:
		access()
		c.compileLiteral(p.Lit)
		c.emitOp(bytecode.OP_EQ, sp)
	case *ast.BindingPattern:
		if p.Guard == nil {
			c.emitOp(bytecode.OP_TRUE, sp)
			return
		}
		access()
		slot := c.declareLocal(p.Name)
		c.compileExpr(p.Guard)
		c.cur.locals = c.cur.locals[:slot]
		c.emitOp(bytecode.OP_SWAP, sp)
		c.emitOp(bytecode.OP_POP, sp)
	case *ast.RangePattern:
		c.compileAndThen(sp,
			func() { access(); c.compileExpr(p.Start); c.emitOp(bytecode.OP_GE, sp) },
			func() {
				access()
				c.compileExpr(p.End)
				if p.Inclusive {
					c.emitOp(bytecode.OP_LE, sp)
				} else {
					c.emitOp(bytecode.OP_LT, sp)
				}
			})
	case *ast.ExpressionPattern:
		access()
		c.compileExpr(p.Value)
		c.emitOp(bytecode.OP_EQ, sp)
	case *ast.ArrayPattern:
		c.matchArrayTest(p, access, sp)
	case *ast.DictPattern:
		c.matchDictTest(p, access, sp)
	default:
		c.emitOp(bytecode.OP_FALSE, sp)
	}
}

func (c *Compiler) matchArrayTest(p *ast.ArrayPattern, access accessor, sp source.Span) {
	hasRest := false
	fixedCount := 0
	for _, el := range p.Elements {
		if el.IsRest {
			hasRest = true
		} else {
			fixedCount++
		}
	}
	combined := func() {
		access()
		c.emitOpU16(bytecode.OP_GET_PROPERTY, c.constString("length", sp), sp)
		c.emitOpU16(bytecode.OP_CALL, 0, sp)
		c.emitOpU16(bytecode.OP_CONSTANT, c.constNumber(float64(fixedCount)), sp)
		if hasRest {
			c.emitOp(bytecode.OP_GE, sp)
		} else {
			c.emitOp(bytecode.OP_EQ, sp)
		}
	}
	idx := 0
	for _, el := range p.Elements {
		if el.IsRest {
			continue
		}
		i := idx
		elAccess := func() {
			access()
			c.emitOpU16(bytecode.OP_CONSTANT, c.constNumber(float64(i)), sp)
			c.emitOp(bytecode.OP_GET_INDEX, sp)
		}
		prev := combined
		sub := el.Single
		combined = func() {
			c.compileAndThen(sp, prev, func() { c.matchTest(sub, elAccess, sp) })
		}
		idx++
	}
	combined()
}

func (c *Compiler) matchDictTest(p *ast.DictPattern, access accessor, sp source.Span) {
	if len(p.Entries) == 0 {
		c.emitOp(bytecode.OP_TRUE, sp)
		return
	}
	var combined func()
	for _, entry := range p.Entries {
		key := entry.Key
		sub := entry.Pattern
		entryAccess := func() {
			access()
			c.emitOpU16(bytecode.OP_GET_PROPERTY, c.constString(key, sp), sp)
		}
		test := func() { c.matchTest(sub, entryAccess, sp) }
		if combined == nil {
			combined = test
			continue
		}
		prev := combined
		combined = func() { c.compileAndThen(sp, prev, test) }
	}
	combined()
}

// bindPattern assumes the match already succeeded and declares every named
// binding the pattern introduces, re-deriving each sub-value via access().
func (c *Compiler) bindPattern(pat ast.Pattern, access accessor, sp source.Span) {
	switch p := pat.(type) {
	case *ast.BindingPattern:
		if p.Name == "" || p.Name == "_" {
			return
		}
		access()
		c.declareLocal(p.Name)
	case *ast.ArrayPattern:
		idx := 0
		for _, el := range p.Elements {
			if el.IsRest {
				if el.Rest != "" {
					access()
					c.emitOpU16(bytecode.OP_ARRAY_REST, uint16(idx), sp)
					c.declareLocal(el.Rest)
				}
				continue
			}
			i := idx
			elAccess := func() {
				access()
				c.emitOpU16(bytecode.OP_CONSTANT, c.constNumber(float64(i)), sp)
				c.emitOp(bytecode.OP_GET_INDEX, sp)
			}
			c.bindPattern(el.Single, elAccess, sp)
			idx++
		}
	case *ast.DictPattern:
		for _, entry := range p.Entries {
			key := entry.Key
			entryAccess := func() {
				access()
				c.emitOpU16(bytecode.OP_GET_PROPERTY, c.constString(key, sp), sp)
			}
			c.bindPattern(entry.Pattern, entryAccess, sp)
		}
	default:
		// Literal/Range/Expression patterns bind nothing.
	}
}
