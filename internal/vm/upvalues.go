// Closure creation and the open/closed upvalue lifecycle (§4.7). Grounded on
// the teacher's vm.go upvalue-chain walk (find-or-create by stack location,
// sorted close-from-the-top sweep), retargeted from Funxy's capture-by-copy
// tree-walk closures to Sald's open/closed upvalue cells.
package vm

import (
	"github.com/sald-lang/sald/internal/bytecode"
	"github.com/sald-lang/sald/internal/value"
)

// findOrCreateUpvalue returns the open upvalue for stack slot location,
// reusing one already tracked in vm.openUps so sibling closures that
// capture the same local share one cell (§4.7 invariant: "multiple closures
// sharing a capture share the same upvalue object").
func (vm *VM) findOrCreateUpvalue(location int) *value.Upvalue {
	for _, up := range vm.openUps {
		if up.IsOpen() && up.Location == location {
			return up
		}
	}
	up := &value.Upvalue{Location: location}
	vm.openUps = append(vm.openUps, up)
	return up
}

// makeClosure builds a Function value for the OP_CLOSURE operand, walking
// tmpl's upvalue table and binding each entry against the enclosing frame's
// locals (IsLocal) or the enclosing closure's own already-bound upvalues
// (relay, §4.3 step 2 / §4.7 step 2).
func (vm *VM) makeClosure(enclosing *callFrame, tmpl *bytecode.FunctionTemplate) *value.Closure {
	ups := make([]*value.Upvalue, len(tmpl.UpvalueInfo))
	for i, info := range tmpl.UpvalueInfo {
		if info.IsLocal {
			ups[i] = vm.findOrCreateUpvalue(enclosing.base + int(info.Index))
		} else {
			ups[i] = enclosing.closure.Upvalues[info.Index]
		}
	}
	return &value.Closure{Template: tmpl, Upvalues: ups}
}

// closeUpvalues closes every open upvalue whose Location is at or above
// fromSlot — emitted at OP_CLOSE_UPVALUE (a captured local leaving scope)
// and at frame return (§4.7 "Conversion happens at most once, never
// reverses"). vm.openUps is unsorted (linear scan, teaching-scale VM) rather
// than the descending-sorted list §4.7 describes as an implementation
// optimization; the observable result — open above fromSlot become closed,
// others untouched — is identical.
func (vm *VM) closeUpvalues(fromSlot int) {
	kept := vm.openUps[:0]
	for _, up := range vm.openUps {
		if up.IsOpen() && up.Location >= fromSlot {
			v := vm.stack[up.Location]
			up.Closed = &v
		} else {
			kept = append(kept, up)
		}
	}
	vm.openUps = kept
}
