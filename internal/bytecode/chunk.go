package bytecode

import "github.com/sald-lang/sald/internal/source"

// Chunk is a unit of compiled code: one per function (the top-level script
// is itself a zero-arity function's chunk). Grounded on the teacher's
// internal/vm/chunk.go (Code/Constants/Lines parallel slices, Write/
// WriteOp/AddConstant/ReadConstantIndex), extended with a Columns slice
// (source.Span needs both) and a File field for error reporting.
type Chunk struct {
	Code      []byte
	Constants []Constant
	Lines     []int
	Columns   []int
	File      string
}

// Write appends a raw byte, recording its source position.
func (c *Chunk) Write(b byte, sp source.Span) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, sp.Start.Line)
	c.Columns = append(c.Columns, sp.Start.Column)
}

// WriteOp appends an opcode byte.
func (c *Chunk) WriteOp(op Opcode, sp source.Span) {
	c.Write(byte(op), sp)
}

// WriteU16 appends a big-endian 2-byte operand (jump offsets, constant
// indices, argument counts).
func (c *Chunk) WriteU16(v uint16, sp source.Span) {
	c.Write(byte(v>>8), sp)
	c.Write(byte(v), sp)
}

// AddConstant interns a constant and returns its pool index, reusing an
// existing entry when the value already appears in the pool (string/number
// literal dedup, as the teacher's chunk.go does).
func (c *Chunk) AddConstant(v Constant) uint16 {
	for i, existing := range c.Constants {
		if existing.Equal(v) {
			return uint16(i)
		}
	}
	c.Constants = append(c.Constants, v)
	return uint16(len(c.Constants) - 1)
}

// WriteConstant emits OP_CONSTANT followed by the constant's pool index.
func (c *Chunk) WriteConstant(v Constant, sp source.Span) {
	idx := c.AddConstant(v)
	c.WriteOp(OP_CONSTANT, sp)
	c.WriteU16(idx, sp)
}

// ReadU16 reads a big-endian 2-byte operand at offset.
func (c *Chunk) ReadU16(offset int) uint16 {
	return uint16(c.Code[offset])<<8 | uint16(c.Code[offset+1])
}

// Len returns the number of bytes emitted so far, used by the compiler to
// compute jump-patch targets.
func (c *Chunk) Len() int { return len(c.Code) }

// PositionAt returns the source line/column an instruction at ip was
// compiled from, for stack-trace frames.
func (c *Chunk) PositionAt(ip int) (line, col int) {
	if ip < 0 || ip >= len(c.Lines) {
		return 0, 0
	}
	return c.Lines[ip], c.Columns[ip]
}
