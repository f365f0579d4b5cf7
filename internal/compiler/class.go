// Class compilation: Class/Method/StaticMethod/Inherit emission and the
// compile-time interface-conformance check (§4.3, §4.6).
package compiler

import (
	"github.com/sald-lang/sald/internal/ast"
	"github.com/sald-lang/sald/internal/bytecode"
	"github.com/sald-lang/sald/internal/source"
)

func (c *Compiler) compileClassStmt(stmt *ast.Class) {
	def := stmt.Def
	if !c.isGlobalScope() {
		c.declareLocal(def.Name)
	}

	c.emitOpU16(bytecode.OP_CLASS, c.constString(def.Name, stmt.Sp), stmt.Sp)
	if def.Extends != "" {
		c.emitOpU16(bytecode.OP_INHERIT, c.constString(def.Extends, stmt.Sp), stmt.Sp)
	}
	for _, m := range def.Methods {
		c.compileMethod(m, def.Name, stmt.Sp)
	}
	for _, iface := range def.Implements {
		c.checkInterfaceConformance(def, iface, stmt.Sp)
	}
	c.applyDecorators(def.Decorators, stmt.Sp)

	if c.isGlobalScope() {
		c.emitOpU16(bytecode.OP_DEFINE_GLOBAL, c.constString(def.Name, stmt.Sp), stmt.Sp)
	}
}

// compileMethod compiles one method body, leaving the class on the stack
// and the closure pushed above it; OP_METHOD/OP_STATIC_METHOD pops the
// closure and leaves the class for the next method (§4.6).
func (c *Compiler) compileMethod(m *ast.MethodDef, className string, sp source.Span) {
	c.compileFunctionBody(m.Def.Name, m.Def.Params, m.Def.Body, true, className, m.Def.IsAsync, m.Def.Span)
	nameIdx := c.constString(m.Def.Name, m.Def.Span)
	if m.IsStatic {
		c.emitOpU16(bytecode.OP_STATIC_METHOD, nameIdx, m.Def.Span)
	} else {
		c.emitOpU16(bytecode.OP_METHOD, nameIdx, m.Def.Span)
	}
}

// checkInterfaceConformance raises InterfaceError at compile time when def
// is missing a method the named interface declares, or declares it with the
// wrong arity (§4.3 "synthesize a compile-time check").
func (c *Compiler) checkInterfaceConformance(def *ast.ClassDef, ifaceName string, sp source.Span) {
	iface, ok := c.interfaces[ifaceName]
	if !ok {
		c.errorAt(source.InterfaceError, sp, "unknown interface %q", ifaceName)
		return
	}
	have := make(map[string]int, len(def.Methods))
	for _, m := range def.Methods {
		have[m.Def.Name] = len(m.Def.Params)
	}
	for _, want := range iface.Methods {
		arity, ok := have[want.Name]
		if !ok {
			c.errorAt(source.InterfaceError, sp, "class %q does not implement %q.%s required by interface %q", def.Name, def.Name, want.Name, ifaceName)
			continue
		}
		if arity != want.Arity {
			c.errorAt(source.InterfaceError, sp, "class %q method %q has arity %d, interface %q requires %d", def.Name, want.Name, arity, ifaceName, want.Arity)
		}
	}
}
