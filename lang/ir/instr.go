// Package ir defines the typed intermediate instruction set emitted by the
// lowerer and consumed by the emitter: one small record type per
// instruction shape, all cell-reference fields expressed as offsets
// relative to the current function's stackframe.
package ir

import "fmt"

// Instr is implemented by every IR instruction. Mnemonic returns the
// listing token from the external interface's mnemonic table; Comment
// renders the operand detail appended to a listing line.
type Instr interface {
	instrNode()
	Mnemonic() string
	Comment() string
}

// Addr is a cell offset relative to the current function's stackframe.
// PushStack/PopStack instead carry a signed displacement of the same
// underlying type. Negative values are reserved for the two fixed
// dispatcher registers, which live outside every function's frame.
type Addr int

const (
	// ContinueFlag is the dispatcher's fixed cell 0: nonzero keeps the
	// outer dispatch loop running, zero halts it.
	ContinueFlag Addr = -1
	// JumpTarget is the dispatcher's fixed cell 1: holds the label the
	// dispatcher is currently scanning for.
	JumpTarget Addr = -2
)

// Label identifies a branch target. Label 0 is the reserved halt sentinel.
type Label int

func (*Nop) instrNode()         {}
func (*ILoad) instrNode()       {}
func (*IAdd) instrNode()        {}
func (*ISub) instrNode()        {}
func (*Move) instrNode()        {}
func (*Add) instrNode()         {}
func (*Sub) instrNode()         {}
func (*Copy) instrNode()        {}
func (*AddCopy) instrNode()     {}
func (*SubCopy) instrNode()     {}
func (*Compare) instrNode()     {}
func (*Test) instrNode()        {}
func (*PushStack) instrNode()   {}
func (*PopStack) instrNode()    {}
func (*WriteInput) instrNode()  {}
func (*WriteOutput) instrNode() {}
func (*Call) instrNode()        {}
func (*Ret) instrNode()         {}
func (*Jump) instrNode()        {}
func (*LabelDef) instrNode()    {}
func (*WriteInline) instrNode() {}
func (*Exit) instrNode()        {}

// Nop does nothing; the assembler round-trips it but the lowerer never
// emits one.
type Nop struct{}

func (*Nop) Mnemonic() string { return "NOP" }
func (*Nop) Comment() string  { return "" }

// ILoad sets dst (Size cells) to the fixed Value, most significant cell
// first.
type ILoad struct {
	Dst   Addr
	Size  int
	Value int64
}

func (i *ILoad) Mnemonic() string { return "ILOAD" }
func (i *ILoad) Comment() string {
	return fmt.Sprintf("dst=%d size=%d value=%d", i.Dst, i.Size, i.Value)
}

// IAdd adds the immediate Value into dst in place.
type IAdd struct {
	Dst   Addr
	Size  int
	Value int64
}

func (i *IAdd) Mnemonic() string { return "IADD" }
func (i *IAdd) Comment() string {
	return fmt.Sprintf("dst=%d size=%d value=%d", i.Dst, i.Size, i.Value)
}

// ISub subtracts the immediate Value from dst in place.
type ISub struct {
	Dst   Addr
	Size  int
	Value int64
}

func (i *ISub) Mnemonic() string { return "ISUB" }
func (i *ISub) Comment() string {
	return fmt.Sprintf("dst=%d size=%d value=%d", i.Dst, i.Size, i.Value)
}

// Move transfers Size cells from Src to Dst, destructively: Src reads as
// zero afterward.
type Move struct {
	Dst, Src Addr
	Size     int
}

func (i *Move) Mnemonic() string { return "MOVE" }
func (i *Move) Comment() string  { return fmt.Sprintf("dst=%d src=%d size=%d", i.Dst, i.Src, i.Size) }

// Add adds Src into Dst, destructively draining Src to zero.
type Add struct {
	Dst, Src Addr
	Size     int
}

func (i *Add) Mnemonic() string { return "ADD" }
func (i *Add) Comment() string  { return fmt.Sprintf("dst=%d src=%d size=%d", i.Dst, i.Src, i.Size) }

// Sub subtracts Src from Dst, destructively draining Src to zero.
type Sub struct {
	Dst, Src Addr
	Size     int
}

func (i *Sub) Mnemonic() string { return "SUB" }
func (i *Sub) Comment() string  { return fmt.Sprintf("dst=%d src=%d size=%d", i.Dst, i.Src, i.Size) }

// Copy transfers Size cells from Src to Dst non-destructively, using Aux
// (AuxSize cells, zero on entry and on exit) as scratch space.
type Copy struct {
	Dst, Src, Aux    Addr
	Size, AuxSize    int
}

func (i *Copy) Mnemonic() string { return "COPY" }
func (i *Copy) Comment() string {
	return fmt.Sprintf("dst=%d src=%d aux=%d size=%d auxsize=%d", i.Dst, i.Src, i.Aux, i.Size, i.AuxSize)
}

// AddCopy adds Src into Dst non-destructively, same shape as Copy.
type AddCopy struct {
	Dst, Src, Aux Addr
	Size, AuxSize int
}

func (i *AddCopy) Mnemonic() string { return "ADD_COPY" }
func (i *AddCopy) Comment() string {
	return fmt.Sprintf("dst=%d src=%d aux=%d size=%d auxsize=%d", i.Dst, i.Src, i.Aux, i.Size, i.AuxSize)
}

// SubCopy subtracts Src from Dst non-destructively, same shape as Copy.
type SubCopy struct {
	Dst, Src, Aux Addr
	Size, AuxSize int
}

func (i *SubCopy) Mnemonic() string { return "SUB_COPY" }
func (i *SubCopy) Comment() string {
	return fmt.Sprintf("dst=%d src=%d aux=%d size=%d auxsize=%d", i.Dst, i.Src, i.Aux, i.Size, i.AuxSize)
}

// Compare reads Cond and sets exactly one of IsZero/IsNonZero to 1 and the
// other to 0, leaving Cond at zero.
type Compare struct {
	Cond, IsZero, IsNonZero Addr
}

func (i *Compare) Mnemonic() string { return "COMPARE" }
func (i *Compare) Comment() string {
	return fmt.Sprintf("cond=%d zero=%d nonzero=%d", i.Cond, i.IsZero, i.IsNonZero)
}

// Test reads the IsTrue/IsFalse flag pair produced by a prior Compare and
// leaves JumpReg holding whichever of TrueLabel/FalseLabel corresponds to
// the set flag. Scratch1-3 are zero-on-entry working cells.
type Test struct {
	JumpReg            Addr
	IsTrue, IsFalse    Addr
	Scratch1, Scratch2, Scratch3 Addr
	TrueLabel, FalseLabel Label
}

func (i *Test) Mnemonic() string { return "TEST" }
func (i *Test) Comment() string {
	return fmt.Sprintf("jumpreg=%d true=%d false=%d s1=%d s2=%d s3=%d truelabel=.L%d falselabel=.L%d",
		i.JumpReg, i.IsTrue, i.IsFalse, i.Scratch1, i.Scratch2, i.Scratch3, i.TrueLabel, i.FalseLabel)
}

// PushStack moves the head forward by Offset cells, entering a callee or
// scratch frame.
type PushStack struct {
	Offset int
}

func (i *PushStack) Mnemonic() string { return "PUSH_STACK" }
func (i *PushStack) Comment() string  { return fmt.Sprintf("offset=%d", i.Offset) }

// PopStack moves the head back by Offset cells, returning to the caller's
// or enclosing frame's head position.
type PopStack struct {
	Offset int
}

func (i *PopStack) Mnemonic() string { return "POP_STACK" }
func (i *PopStack) Comment() string  { return fmt.Sprintf("offset=%d", i.Offset) }

// WriteInput reads Size bytes from the interpreter's input stream into Src.
type WriteInput struct {
	Src  Addr
	Size int
}

func (i *WriteInput) Mnemonic() string { return "INPUT" }
func (i *WriteInput) Comment() string  { return fmt.Sprintf("src=%d size=%d", i.Src, i.Size) }

// WriteOutput writes Size bytes from Src to the interpreter's output stream.
type WriteOutput struct {
	Src  Addr
	Size int
}

func (i *WriteOutput) Mnemonic() string { return "OUTPUT" }
func (i *WriteOutput) Comment() string  { return fmt.Sprintf("src=%d size=%d", i.Src, i.Size) }

// Call writes ReturnLabel, the caller's chosen return site, into the
// callee's return-address cell RetAddr. The actual transfer of control to
// the callee's entry label is a separate Jump emitted immediately after.
type Call struct {
	RetAddr     Addr
	ReturnLabel Label
}

func (i *Call) Mnemonic() string { return "CALL" }
func (i *Call) Comment() string {
	return fmt.Sprintf("retaddr=%d retlabel=.L%d", i.RetAddr, i.ReturnLabel)
}

// Ret jumps to the label stored in the current frame's return-address cell
// RetAddr; if IsMain, it instead halts the dispatcher.
type Ret struct {
	RetAddr Addr
	IsMain  bool
}

func (i *Ret) Mnemonic() string { return "RETURN" }
func (i *Ret) Comment() string  { return fmt.Sprintf("retaddr=%d main=%t", i.RetAddr, i.IsMain) }

// Jump transfers control to Target via the dispatcher.
type Jump struct {
	Target Label
}

func (i *Jump) Mnemonic() string { return "JUMP" }
func (i *Jump) Comment() string  { return fmt.Sprintf(".L%d", i.Target) }

// LabelDef marks a dispatcher-reachable branch target.
type LabelDef struct {
	ID Label
}

func (i *LabelDef) Mnemonic() string { return ".L" }
func (i *LabelDef) Comment() string  { return fmt.Sprintf("%d", i.ID) }

// WriteInline carries raw, verbatim tape-machine text supplied by an
// inline statement.
type WriteInline struct {
	Text string
}

func (i *WriteInline) Mnemonic() string { return "INLINE" }
func (i *WriteInline) Comment() string  { return i.Text }

// Exit halts the tape program with the given exit code.
type Exit struct {
	Code int
}

func (i *Exit) Mnemonic() string { return "EXIT" }
func (i *Exit) Comment() string  { return fmt.Sprintf("%d", i.Code) }
