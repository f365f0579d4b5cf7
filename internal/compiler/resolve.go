package compiler

import "github.com/sald-lang/sald/internal/bytecode"
import "github.com/sald-lang/sald/internal/source"

// beginScope/endScope delimit a lexical block. Grounded on §4.3 "Scope
// exit": on leaving a block, captured locals emit CloseUpvalue, uncaptured
// ones emit Pop.
func (c *Compiler) beginScope() { c.cur.scopeDepth++ }

func (c *Compiler) endScope(sp source.Span) {
	c.cur.scopeDepth--
	f := c.cur
	for len(f.locals) > 0 && f.locals[len(f.locals)-1].depth > f.scopeDepth {
		last := f.locals[len(f.locals)-1]
		if last.isCaptured {
			c.emitOp(bytecode.OP_CLOSE_UPVALUE, sp)
		} else {
			c.emitOp(bytecode.OP_POP, sp)
		}
		f.locals = f.locals[:len(f.locals)-1]
	}
}

// declareLocal adds name as a new local in the current scope, returning its
// slot index.
func (c *Compiler) declareLocal(name string) int {
	f := c.cur
	f.locals = append(f.locals, local{name: name, depth: f.scopeDepth})
	slot := len(f.locals) - 1
	if len(f.locals) > f.maxLocals {
		f.maxLocals = len(f.locals)
	}
	return slot
}

// resolveLocal finds name among f's own locals, searching top-down so
// shadowing resolves to the innermost binding.
func resolveLocal(f *frame, name string) int {
	for i := len(f.locals) - 1; i >= 0; i-- {
		if f.locals[i].name == name {
			return i
		}
	}
	return -1
}

// addUpvalue records (or reuses) an upvalue entry in f pointing at index,
// deduplicated by (index, isLocal).
func addUpvalue(f *frame, index uint8, isLocal bool) int {
	for i, u := range f.upvalues {
		if u.index == index && u.isLocal == isLocal {
			return i
		}
	}
	f.upvalues = append(f.upvalues, upvalueDesc{index: index, isLocal: isLocal})
	return len(f.upvalues) - 1
}

// resolveUpvalue implements §4.3 step 2: walk enclosing frames; when name
// is found as a local in some ancestor, mark it captured and chain an
// upvalue entry through every intermediate frame so each level knows how
// to relay the capture.
func resolveUpvalue(f *frame, name string) int {
	if f.enclosing == nil {
		return -1
	}
	if slot := resolveLocal(f.enclosing, name); slot >= 0 {
		f.enclosing.locals[slot].isCaptured = true
		return addUpvalue(f, uint8(slot), true)
	}
	if up := resolveUpvalue(f.enclosing, name); up >= 0 {
		return addUpvalue(f, uint8(up), false)
	}
	return -1
}

// resolveVariable implements the three-case lookup of §4.3 step 1-3 and
// emits the matching Get opcode, or with forSet=true the matching Set
// opcode (the operand slot/index is identical either way).
func (c *Compiler) resolveVariable(name string, sp source.Span, forSet bool) {
	if slot := resolveLocal(c.cur, name); slot >= 0 {
		op := bytecode.OP_GET_LOCAL
		if forSet {
			op = bytecode.OP_SET_LOCAL
		}
		c.emitOpU16(op, uint16(slot), sp)
		return
	}
	if up := resolveUpvalue(c.cur, name); up >= 0 {
		op := bytecode.OP_GET_UPVALUE
		if forSet {
			op = bytecode.OP_SET_UPVALUE
		}
		c.emitOpU16(op, uint16(up), sp)
		return
	}
	op := bytecode.OP_GET_GLOBAL
	if forSet {
		op = bytecode.OP_SET_GLOBAL
	}
	c.emitOpU16(op, c.constString(name, sp), sp)
}

// isGlobalScope reports whether the current position is the script's own
// top level (no enclosing frame, no open block scope) — the only place
// bindings resolve as globals rather than locals.
func (c *Compiler) isGlobalScope() bool {
	return c.cur.enclosing == nil && c.cur.scopeDepth == 0
}

// defineVariable binds name in whatever scope is current: a local slot when
// inside a block/function, a global when at the top level. Locals need no
// extra bytecode — the value is already sitting in the slot the compiler
// just reserved; globals need an explicit DefineGlobal.
func (c *Compiler) defineVariable(name string, sp source.Span) {
	if c.isGlobalScope() {
		c.emitOpU16(bytecode.OP_DEFINE_GLOBAL, c.constString(name, sp), sp)
		return
	}
	c.declareLocal(name)
}
