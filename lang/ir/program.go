package ir

import "github.com/bflang/tapec/lang/token"

// Entry pairs one instruction with the source position it was lowered
// from, for the human-readable listing described by the external
// interface: file, line, mnemonic, and a comment.
type Entry struct {
	Pos  token.Position
	Inst Instr
}

// Function is one function's instruction stream together with the layout
// detail a listing or symbol-table dump wants alongside it.
type Function struct {
	Name       string
	FrameSize  int
	Entries    []Entry
}

// Program is a whole compilation unit's IR: the module name and its
// functions in declaration order, main (if present) listed like any other.
type Program struct {
	Name      string
	Functions []*Function
}

// Append adds one instruction to fn's entry list.
func (fn *Function) Append(pos token.Position, inst Instr) {
	fn.Entries = append(fn.Entries, Entry{Pos: pos, Inst: inst})
}
