package bytecode

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Serialized bytecode format: a hand-rolled tagged binary layout (not gob,
// not a generic serialization library) per the versioned-chunk-file
// requirement. Grounded on the teacher's chunk.go byte-oriented
// Write/ReadConstantIndex style, extended to a whole-file container.
const (
	magic        = "SALD"
	formatVersion = byte(1)
)

// WriteProgram serializes a whole compiled module (its top-level
// FunctionTemplate) to w, for the precompiled module format of §4.12. It
// reuses the same constant-pool function encoding writeConstant already
// applies to nested closures, just rooted at the top-level template instead
// of a chunk's constant slot.
func WriteProgram(w io.Writer, tmpl *FunctionTemplate) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	if err := writeByte(w, formatVersion); err != nil {
		return err
	}
	return writeConstant(w, Constant{Kind: ConstFunction, Fn: tmpl})
}

// ReadProgram deserializes a module previously written by WriteProgram.
func ReadProgram(r io.Reader) (*FunctionTemplate, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	if string(hdr[:]) != magic {
		return nil, fmt.Errorf("bytecode: bad magic %q", hdr)
	}
	version, err := readByte(r)
	if err != nil {
		return nil, err
	}
	if version != formatVersion {
		return nil, fmt.Errorf("bytecode: unsupported format version %d", version)
	}
	c, err := readConstant(r)
	if err != nil {
		return nil, err
	}
	if c.Kind != ConstFunction {
		return nil, fmt.Errorf("bytecode: program root is not a function template")
	}
	return c.Fn, nil
}

// WriteChunk serializes chunk (and, recursively, any function constants it
// references) to w in the versioned binary format.
func WriteChunk(w io.Writer, c *Chunk) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	if err := writeByte(w, formatVersion); err != nil {
		return err
	}
	return writeChunkBody(w, c)
}

func writeChunkBody(w io.Writer, c *Chunk) error {
	if err := writeString(w, c.File); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(c.Code))); err != nil {
		return err
	}
	if _, err := w.Write(c.Code); err != nil {
		return err
	}
	for _, line := range c.Lines {
		if err := writeU32(w, uint32(line)); err != nil {
			return err
		}
	}
	for _, col := range c.Columns {
		if err := writeU32(w, uint32(col)); err != nil {
			return err
		}
	}
	if err := writeU32(w, uint32(len(c.Constants))); err != nil {
		return err
	}
	for _, k := range c.Constants {
		if err := writeConstant(w, k); err != nil {
			return err
		}
	}
	return nil
}

func writeConstant(w io.Writer, k Constant) error {
	if err := writeByte(w, byte(k.Kind)); err != nil {
		return err
	}
	switch k.Kind {
	case ConstNumber:
		return writeU64(w, math.Float64bits(k.Num))
	case ConstString:
		return writeString(w, k.Str)
	case ConstFunction:
		fn := k.Fn
		if err := writeString(w, fn.Name); err != nil {
			return err
		}
		if err := writeU32(w, uint32(fn.Arity)); err != nil {
			return err
		}
		if err := writeU32(w, uint32(fn.RequiredArity)); err != nil {
			return err
		}
		if err := writeBool(w, fn.IsVariadic); err != nil {
			return err
		}
		if err := writeU32(w, uint32(len(fn.Defaults))); err != nil {
			return err
		}
		for _, d := range fn.Defaults {
			if err := writeBool(w, d); err != nil {
				return err
			}
		}
		if err := writeU32(w, uint32(len(fn.ParamNames))); err != nil {
			return err
		}
		for _, n := range fn.ParamNames {
			if err := writeString(w, n); err != nil {
				return err
			}
		}
		if err := writeU32(w, uint32(fn.UpvalueCount)); err != nil {
			return err
		}
		for _, u := range fn.UpvalueInfo {
			if err := writeByte(w, u.Index); err != nil {
				return err
			}
			if err := writeBool(w, u.IsLocal); err != nil {
				return err
			}
		}
		if err := writeU32(w, uint32(fn.LocalCount)); err != nil {
			return err
		}
		if err := writeBool(w, fn.IsMethod); err != nil {
			return err
		}
		if err := writeString(w, fn.NamespaceCtx); err != nil {
			return err
		}
		if err := writeBool(w, fn.IsAsync); err != nil {
			return err
		}
		return writeChunkBody(w, fn.Chunk)
	}
	return fmt.Errorf("bytecode: unknown constant kind %d", k.Kind)
}

// ReadChunk deserializes a chunk previously written by WriteChunk.
func ReadChunk(r io.Reader) (*Chunk, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	if string(hdr[:]) != magic {
		return nil, fmt.Errorf("bytecode: bad magic %q", hdr)
	}
	version, err := readByte(r)
	if err != nil {
		return nil, err
	}
	if version != formatVersion {
		return nil, fmt.Errorf("bytecode: unsupported format version %d", version)
	}
	return readChunkBody(r)
}

func readChunkBody(r io.Reader) (*Chunk, error) {
	file, err := readString(r)
	if err != nil {
		return nil, err
	}
	codeLen, err := readU32(r)
	if err != nil {
		return nil, err
	}
	code := make([]byte, codeLen)
	if _, err := io.ReadFull(r, code); err != nil {
		return nil, err
	}
	lines := make([]int, codeLen)
	for i := range lines {
		v, err := readU32(r)
		if err != nil {
			return nil, err
		}
		lines[i] = int(v)
	}
	cols := make([]int, codeLen)
	for i := range cols {
		v, err := readU32(r)
		if err != nil {
			return nil, err
		}
		cols[i] = int(v)
	}
	numConsts, err := readU32(r)
	if err != nil {
		return nil, err
	}
	consts := make([]Constant, numConsts)
	for i := range consts {
		k, err := readConstant(r)
		if err != nil {
			return nil, err
		}
		consts[i] = k
	}
	return &Chunk{Code: code, Lines: lines, Columns: cols, Constants: consts, File: file}, nil
}

func readConstant(r io.Reader) (Constant, error) {
	kindByte, err := readByte(r)
	if err != nil {
		return Constant{}, err
	}
	kind := ConstantKind(kindByte)
	switch kind {
	case ConstNumber:
		bits, err := readU64(r)
		if err != nil {
			return Constant{}, err
		}
		return Constant{Kind: kind, Num: math.Float64frombits(bits)}, nil
	case ConstString:
		s, err := readString(r)
		if err != nil {
			return Constant{}, err
		}
		return Constant{Kind: kind, Str: s}, nil
	case ConstFunction:
		fn := &FunctionTemplate{}
		if fn.Name, err = readString(r); err != nil {
			return Constant{}, err
		}
		arity, err := readU32(r)
		if err != nil {
			return Constant{}, err
		}
		fn.Arity = int(arity)
		reqArity, err := readU32(r)
		if err != nil {
			return Constant{}, err
		}
		fn.RequiredArity = int(reqArity)
		if fn.IsVariadic, err = readBool(r); err != nil {
			return Constant{}, err
		}
		numDefaults, err := readU32(r)
		if err != nil {
			return Constant{}, err
		}
		fn.Defaults = make([]bool, numDefaults)
		for i := range fn.Defaults {
			if fn.Defaults[i], err = readBool(r); err != nil {
				return Constant{}, err
			}
		}
		numParamNames, err := readU32(r)
		if err != nil {
			return Constant{}, err
		}
		fn.ParamNames = make([]string, numParamNames)
		for i := range fn.ParamNames {
			if fn.ParamNames[i], err = readString(r); err != nil {
				return Constant{}, err
			}
		}
		upCount, err := readU32(r)
		if err != nil {
			return Constant{}, err
		}
		fn.UpvalueCount = int(upCount)
		fn.UpvalueInfo = make([]UpvalueInfo, upCount)
		for i := range fn.UpvalueInfo {
			idx, err := readByte(r)
			if err != nil {
				return Constant{}, err
			}
			isLocal, err := readBool(r)
			if err != nil {
				return Constant{}, err
			}
			fn.UpvalueInfo[i] = UpvalueInfo{Index: idx, IsLocal: isLocal}
		}
		localCount, err := readU32(r)
		if err != nil {
			return Constant{}, err
		}
		fn.LocalCount = int(localCount)
		if fn.IsMethod, err = readBool(r); err != nil {
			return Constant{}, err
		}
		if fn.NamespaceCtx, err = readString(r); err != nil {
			return Constant{}, err
		}
		if fn.IsAsync, err = readBool(r); err != nil {
			return Constant{}, err
		}
		fn.Chunk, err = readChunkBody(r)
		if err != nil {
			return Constant{}, err
		}
		return Constant{Kind: kind, Fn: fn}, nil
	}
	return Constant{}, fmt.Errorf("bytecode: unknown constant kind %d", kindByte)
}

func writeByte(w io.Writer, b byte) error { _, err := w.Write([]byte{b}); return err }
func writeBool(w io.Writer, b bool) error {
	if b {
		return writeByte(w, 1)
	}
	return writeByte(w, 0)
}
func writeU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}
func writeU64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}
func writeString(w io.Writer, s string) error {
	if err := writeU32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readByte(r io.Reader) (byte, error) {
	var buf [1]byte
	_, err := io.ReadFull(r, buf[:])
	return buf[0], err
}
func readBool(r io.Reader) (bool, error) {
	b, err := readByte(r)
	return b != 0, err
}
func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}
func readU64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}
func readString(r io.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
