package ast

import "github.com/sald-lang/sald/internal/source"

// Pattern is matched against a switch scrutinee (§3, §4.3).
type Pattern interface {
	Node
	patternNode()
}

type LiteralPattern struct {
	Sp  source.Span
	Lit *Literal
}

func (n *LiteralPattern) Span() source.Span { return n.Sp }
func (*LiteralPattern) patternNode()        {}

// BindingPattern binds the scrutinee (or sub-element) to Name, optionally
// guarded by a boolean expression evaluated with Name already bound.
type BindingPattern struct {
	Sp    source.Span
	Name  string // "_" binds nothing
	Guard Expr   // nil if unguarded
}

func (n *BindingPattern) Span() source.Span { return n.Sp }
func (*BindingPattern) patternNode()        {}

// SwitchArrayElement is one element of an ArrayPattern: either a nested
// pattern or a `...name` rest binding (must be last if present).
type SwitchArrayElement struct {
	Single Pattern // nil if this element is a Rest
	IsRest bool
	Rest   string
}

type ArrayPattern struct {
	Sp       source.Span
	Elements []SwitchArrayElement
}

func (n *ArrayPattern) Span() source.Span { return n.Sp }
func (*ArrayPattern) patternNode()        {}

type DictPatternEntry struct {
	Key     string
	Pattern Pattern
}

type DictPattern struct {
	Sp      source.Span
	Entries []DictPatternEntry
}

func (n *DictPattern) Span() source.Span { return n.Sp }
func (*DictPattern) patternNode()        {}

type RangePattern struct {
	Sp        source.Span
	Start, End Expr
	Inclusive bool
}

func (n *RangePattern) Span() source.Span { return n.Sp }
func (*RangePattern) patternNode()        {}

// ExpressionPattern matches when the scrutinee equals the evaluated
// expression (e.g. a bound const, or a computed value).
type ExpressionPattern struct {
	Sp    source.Span
	Value Expr
}

func (n *ExpressionPattern) Span() source.Span { return n.Sp }
func (*ExpressionPattern) patternNode()        {}
