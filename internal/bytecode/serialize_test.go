package bytecode

import (
	"bytes"
	"testing"

	"github.com/sald-lang/sald/internal/source"
)

func TestWriteReadChunk_RoundTrip(t *testing.T) {
	sp := source.Span{}
	inner := &Chunk{File: "main.sald"}
	inner.WriteOp(OP_GET_LOCAL, sp)
	inner.WriteU16(0, sp)
	inner.WriteOp(OP_RETURN, sp)

	outer := &Chunk{File: "main.sald"}
	outer.WriteConstant(Constant{Kind: ConstNumber, Num: 3.25}, sp)
	outer.WriteConstant(Constant{Kind: ConstString, Str: "hi"}, sp)
	outer.WriteConstant(Constant{Kind: ConstFunction, Fn: &FunctionTemplate{
		Name: "f", Arity: 1, RequiredArity: 1, Chunk: inner,
		UpvalueInfo: []UpvalueInfo{{Index: 0, IsLocal: true}},
		UpvalueCount: 1, LocalCount: 2,
	}}, sp)
	outer.WriteOp(OP_POP, sp)

	var buf bytes.Buffer
	if err := WriteChunk(&buf, outer); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}

	got, err := ReadChunk(&buf)
	if err != nil {
		t.Fatalf("ReadChunk: %v", err)
	}
	if got.File != outer.File {
		t.Errorf("File = %q, want %q", got.File, outer.File)
	}
	if !bytes.Equal(got.Code, outer.Code) {
		t.Errorf("Code mismatch: got %v want %v", got.Code, outer.Code)
	}
	if len(got.Constants) != 3 {
		t.Fatalf("Constants len = %d, want 3", len(got.Constants))
	}
	if got.Constants[0].Num != 3.25 {
		t.Errorf("Constants[0].Num = %v, want 3.25", got.Constants[0].Num)
	}
	if got.Constants[1].Str != "hi" {
		t.Errorf("Constants[1].Str = %q, want hi", got.Constants[1].Str)
	}
	fnGot := got.Constants[2].Fn
	if fnGot == nil || fnGot.Name != "f" || fnGot.Arity != 1 {
		t.Fatalf("Constants[2].Fn mismatch: %+v", fnGot)
	}
	if len(fnGot.Chunk.Code) != len(inner.Code) {
		t.Errorf("nested chunk code len = %d, want %d", len(fnGot.Chunk.Code), len(inner.Code))
	}
}

func TestWriteReadProgram_RoundTrip(t *testing.T) {
	sp := source.Span{}
	chunk := &Chunk{File: "lib.sald"}
	chunk.WriteOp(OP_NULL, sp)
	chunk.WriteOp(OP_RETURN, sp)

	tmpl := &FunctionTemplate{
		Name:          "<script>",
		Arity:         2,
		RequiredArity: 1,
		IsVariadic:    true,
		Defaults:      []bool{false, true},
		ParamNames:    []string{"a", "b"},
		Chunk:         chunk,
		LocalCount:    2,
		IsMethod:      false,
		NamespaceCtx:  "geometry",
		IsAsync:       true,
	}

	var buf bytes.Buffer
	if err := WriteProgram(&buf, tmpl); err != nil {
		t.Fatalf("WriteProgram: %v", err)
	}

	got, err := ReadProgram(&buf)
	if err != nil {
		t.Fatalf("ReadProgram: %v", err)
	}
	if got.Name != tmpl.Name {
		t.Errorf("Name = %q, want %q", got.Name, tmpl.Name)
	}
	if got.Arity != tmpl.Arity || got.RequiredArity != tmpl.RequiredArity {
		t.Errorf("arity mismatch: got %+v", got)
	}
	if !got.IsVariadic {
		t.Error("IsVariadic lost in round-trip")
	}
	if len(got.Defaults) != 2 || got.Defaults[0] != false || got.Defaults[1] != true {
		t.Errorf("Defaults = %v, want [false true]", got.Defaults)
	}
	if len(got.ParamNames) != 2 || got.ParamNames[0] != "a" || got.ParamNames[1] != "b" {
		t.Errorf("ParamNames = %v, want [a b]", got.ParamNames)
	}
	if got.NamespaceCtx != "geometry" {
		t.Errorf("NamespaceCtx = %q, want geometry", got.NamespaceCtx)
	}
	if !got.IsAsync {
		t.Error("IsAsync lost in round-trip")
	}
}

func TestReadProgram_RejectsBadMagic(t *testing.T) {
	if _, err := ReadProgram(bytes.NewReader([]byte("nope"))); err == nil {
		t.Fatal("expected an error for a bad magic header")
	}
}

func TestAddConstant_DedupesScalars(t *testing.T) {
	sp := source.Span{}
	c := &Chunk{}
	i1 := c.AddConstant(Constant{Kind: ConstNumber, Num: 1})
	i2 := c.AddConstant(Constant{Kind: ConstNumber, Num: 1})
	if i1 != i2 {
		t.Errorf("expected scalar constants to be deduped, got %d and %d", i1, i2)
	}
	c.WriteConstant(Constant{Kind: ConstString, Str: "x"}, sp)
	if len(c.Constants) != 2 {
		t.Errorf("expected 2 distinct constants, got %d", len(c.Constants))
	}
}
