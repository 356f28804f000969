package ir_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bflang/tapec/lang/ir"
	"github.com/bflang/tapec/lang/token"
)

func sampleProgram() *ir.Program {
	var pos token.Position
	fn := &ir.Function{Name: "main", FrameSize: 4}
	fn.Append(pos, &ir.ILoad{Dst: 2, Size: 1, Value: 65})
	fn.Append(pos, &ir.Add{Dst: 0, Src: 2, Size: 1})
	fn.Append(pos, &ir.Test{
		JumpReg: -2, IsTrue: 1, IsFalse: 2,
		Scratch1: 3, Scratch2: 4, Scratch3: 5,
		TrueLabel: 7, FalseLabel: 0,
	})
	fn.Append(pos, &ir.LabelDef{ID: 7})
	fn.Append(pos, &ir.WriteOutput{Src: 0, Size: 1})
	fn.Append(pos, &ir.Ret{RetAddr: 0, IsMain: true})
	return &ir.Program{Name: "t", Functions: []*ir.Function{fn}}
}

func TestDisassembleThenAssembleRoundTrips(t *testing.T) {
	prog := sampleProgram()

	var buf bytes.Buffer
	require.NoError(t, ir.Disassemble(&buf, prog))

	assert.True(t, strings.HasPrefix(buf.String(), "program: t\n"))
	assert.Contains(t, buf.String(), "function: main 4\n")
	assert.Contains(t, buf.String(), "code:\n")
	assert.Contains(t, buf.String(), "ILOAD dst=2 size=1 value=65")
	assert.Contains(t, buf.String(), "truelabel=.L7 falselabel=.L0")

	back, err := ir.Assemble(&buf)
	require.NoError(t, err)
	require.Len(t, back.Functions, 1)
	assert.Equal(t, "main", back.Functions[0].Name)
	assert.Equal(t, 4, back.Functions[0].FrameSize)
	require.Len(t, back.Functions[0].Entries, len(prog.Functions[0].Entries))

	for i, e := range prog.Functions[0].Entries {
		got := back.Functions[0].Entries[i].Inst
		assert.Equal(t, e.Inst.Mnemonic(), got.Mnemonic())
		assert.Equal(t, e.Inst.Comment(), got.Comment())
	}
}

func TestAssembleRejectsCodeOutsideFunction(t *testing.T) {
	_, err := ir.Assemble(strings.NewReader("program: t\ncode:\n\tILOAD dst=0 size=1 value=1\n"))
	require.Error(t, err)
}

func TestAssembleRejectsMalformedFunctionHeader(t *testing.T) {
	_, err := ir.Assemble(strings.NewReader("program: t\nfunction: main\ncode:\n"))
	require.Error(t, err)
}

func TestAssembleRejectsUnknownMnemonic(t *testing.T) {
	_, err := ir.Assemble(strings.NewReader("program: t\nfunction: f 0\ncode:\n\tBOGUS x=1\n"))
	require.Error(t, err)
}

func TestFunctionAppendTracksPosition(t *testing.T) {
	fn := &ir.Function{Name: "f"}
	pos := token.Position{Filename: "t.tape", Line: 3}
	fn.Append(pos, &ir.Nop{})
	require.Len(t, fn.Entries, 1)
	assert.Equal(t, pos, fn.Entries[0].Pos)
}
