// Package emit translates a lowered IR program into a tape-machine
// program: a byte sequence over the eight primitives `+ - < > . , [ ]`
// plus the `@` halt extension, following the memory layout and dispatcher
// design of the tape machine's label-based control flow.
package emit

import (
	"bytes"
	"fmt"
	"os"

	"github.com/bflang/tapec/lang/ir"
)

// Fixed absolute cells reserved ahead of the data stack. Cells 0 and 1 are
// the dispatcher's own continue-flag and jump-target registers; 2-4 are
// bookkeeping scratch the dispatcher needs to test a label's id against
// the jump-target without disturbing it, kept out of any function's
// frame so the lowerer never has to reason about them.
const (
	absContinueFlag = 0
	absJumpTarget   = 1
	absLabelTest    = 2
	absLabelAux     = 3
	absLabelMatch   = 4

	// DataStackBase is the absolute cell where the first function's
	// stackframe (cell 0, its return-address slot) begins.
	DataStackBase = 5
)

// Emitter walks an ir.Program and writes its tape-machine translation. It
// tracks the compile-time head position so every pattern's internal head
// motion is expressed as a fixed, deterministic sequence of `>`/`<`.
type Emitter struct {
	out  bytes.Buffer
	head int  // current absolute cell the head occupies
	base int  // absolute cell corresponding to address 0 of the current function
	open bool // a label's gating bracket is currently open

	// Debug enables the head-underflow assertion in moveHeadTo: walking
	// below cell 0 means a PUSH_STACK/POP_STACK pair or an address
	// computation went wrong upstream. Off by default since the check
	// costs a branch per head move in a routine called once per cell of
	// every pattern emitted.
	Debug bool
}

// NewEmitter creates an Emitter whose data stack starts right after the
// dispatcher's fixed registers and bookkeeping cells.
func NewEmitter() *Emitter {
	return &Emitter{base: DataStackBase}
}

func (e *Emitter) addr(a ir.Addr) int {
	switch a {
	case ir.ContinueFlag:
		return absContinueFlag
	case ir.JumpTarget:
		return absJumpTarget
	default:
		return e.base + int(a)
	}
}

func (e *Emitter) moveHeadTo(abs int) {
	if e.Debug && abs < 0 {
		fmt.Fprintf(os.Stderr, "emit: head underflow: target cell %d\n", abs)
		panic("emit: head underflow")
	}
	for e.head < abs {
		e.out.WriteByte('>')
		e.head++
	}
	for e.head > abs {
		e.out.WriteByte('<')
		e.head--
	}
}

func (e *Emitter) write(s string) { e.out.WriteString(s) }

func (e *Emitter) repeat(b byte, n int) {
	for i := 0; i < n; i++ {
		e.out.WriteByte(b)
	}
}

// Program emits prog with a fresh Emitter, seeding the dispatcher's
// jump-target register so the first pass lands on mainEntryLabel.
func Program(prog *ir.Program, mainEntryLabel int) ([]byte, error) {
	return NewEmitter().Emit(prog, mainEntryLabel)
}

// Emit translates prog into a tape-machine program. mainEntryLabel seeds
// the dispatcher's jump-target register so execution begins at main.
func (e *Emitter) Emit(prog *ir.Program, mainEntryLabel int) ([]byte, error) {
	e.moveHeadTo(absContinueFlag)
	e.write("[-]+") // continueFlag = 1

	e.moveHeadTo(absJumpTarget)
	e.write("[-]")
	e.repeat('+', mainEntryLabel)

	e.moveHeadTo(absContinueFlag)
	e.out.WriteByte('[')

	for _, fn := range prog.Functions {
		for _, entry := range fn.Entries {
			if err := e.emitInstr(entry.Inst); err != nil {
				return nil, fmt.Errorf("%s: %w", entry.Pos, err)
			}
		}
	}

	if e.open {
		e.moveHeadTo(absLabelMatch)
		e.out.WriteByte(']')
		e.open = false
	}

	e.moveHeadTo(absContinueFlag)
	e.out.WriteByte(']')

	return e.out.Bytes(), nil
}

func (e *Emitter) emitInstr(inst ir.Instr) error {
	switch i := inst.(type) {
	case *ir.Nop:
		// nothing emitted
	case *ir.ILoad:
		e.iload(e.addr(i.Dst), i.Size, i.Value)
	case *ir.IAdd:
		e.iadd(e.addr(i.Dst), i.Size, i.Value, false)
	case *ir.ISub:
		e.iadd(e.addr(i.Dst), i.Size, i.Value, true)
	case *ir.Move:
		e.transfer(e.addr(i.Dst), e.addr(i.Src), i.Size, false, true)
	case *ir.Add:
		e.transfer(e.addr(i.Dst), e.addr(i.Src), i.Size, false, false)
	case *ir.Sub:
		e.transfer(e.addr(i.Dst), e.addr(i.Src), i.Size, true, false)
	case *ir.Copy:
		e.copyPattern(e.addr(i.Dst), e.addr(i.Src), e.addr(i.Aux), i.Size, false, true)
	case *ir.AddCopy:
		e.copyPattern(e.addr(i.Dst), e.addr(i.Src), e.addr(i.Aux), i.Size, false, false)
	case *ir.SubCopy:
		e.copyPattern(e.addr(i.Dst), e.addr(i.Src), e.addr(i.Aux), i.Size, true, false)
	case *ir.Compare:
		e.comparePattern(e.addr(i.Cond), e.addr(i.IsZero), e.addr(i.IsNonZero))
	case *ir.Test:
		e.testPattern(e.addr(i.IsTrue), e.addr(i.IsFalse), int(i.TrueLabel), int(i.FalseLabel))
	case *ir.PushStack:
		e.base += i.Offset
	case *ir.PopStack:
		e.base -= i.Offset
	case *ir.WriteInput:
		e.ioPattern(e.addr(i.Src), i.Size, true)
	case *ir.WriteOutput:
		e.ioPattern(e.addr(i.Src), i.Size, false)
	case *ir.Call:
		e.iload(e.addr(i.RetAddr), 1, int64(i.ReturnLabel))
	case *ir.Ret:
		if i.IsMain {
			e.moveHeadTo(absContinueFlag)
			e.write("[-]")
		} else {
			e.copyPattern(absJumpTarget, e.addr(i.RetAddr), absLabelAux, 1, false, true)
		}
	case *ir.Jump:
		e.moveHeadTo(absJumpTarget)
		e.write("[-]")
		e.repeat('+', int(i.Target))
	case *ir.LabelDef:
		e.labelDef(int(i.ID))
	case *ir.WriteInline:
		e.write(i.Text)
	case *ir.Exit:
		e.moveHeadTo(e.base) // zero the current cell, then raise it to the exit code
		e.write("[-]")
		e.repeat('+', i.Code)
		e.out.WriteByte('@')
	default:
		return fmt.Errorf("emit: unhandled instruction %T", inst)
	}

	// Every pattern above leaves the head wherever its own last cell access
	// did; returning it to the current frame origin here, rather than
	// asserting it got there on its own, is what actually realizes
	// PUSH_STACK/POP_STACK's head motion (e.base already reflects the new
	// offset by this point) and keeps every other instruction's start
	// position predictable.
	e.moveHeadTo(e.base)
	return nil
}
