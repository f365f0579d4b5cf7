// Package source carries source positions and formatted diagnostics through
// every layer of the pipeline: lexer, parser, compiler and VM all tag their
// output with a Span so error reports can point at exact source text.
package source

import "fmt"

// Position is a single point in a source file.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column, counted in runes
	Offset int // 0-based byte offset into the source
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is an immutable half-open range between two Positions.
type Span struct {
	Start Position
	End   Position
}

// Join returns the smallest span covering both a and b.
func Join(a, b Span) Span {
	start := a.Start
	if b.Start.Offset < start.Offset {
		start = b.Start
	}
	end := a.End
	if b.End.Offset > end.Offset {
		end = b.End
	}
	return Span{Start: start, End: end}
}

func (s Span) String() string {
	if s.Start.Line == s.End.Line {
		return fmt.Sprintf("%d:%d-%d", s.Start.Line, s.Start.Column, s.End.Column)
	}
	return fmt.Sprintf("%s-%s", s.Start, s.End)
}
