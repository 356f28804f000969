// Package lower implements the lowerer: the second AST walk that emits IR
// instructions into a function's sink, and the monotonic label allocator
// the registrar and lowerer share.
package lower

import "fmt"

// LabelAllocator hands out unique dispatcher label ids starting at 1; 0 is
// reserved as the halt sentinel. Width bounds how large a
// label id may grow before Next panics with an internal-consistency
// error, matching the cell-size ceiling the emitted tape program must
// respect.
type LabelAllocator struct {
	next  int
	width int // max representable value, e.g. 255 for an 8-bit cell
}

// NewLabelAllocator creates an allocator whose labels must fit in a cell
// of the given bit width (8 by default via CompilerOptions.LabelCellBits).
func NewLabelAllocator(cellBits int) *LabelAllocator {
	if cellBits <= 0 {
		cellBits = 8
	}
	width := (1 << uint(cellBits)) - 1
	return &LabelAllocator{next: 1, width: width}
}

// Next returns a fresh label id.
func (a *LabelAllocator) Next() int {
	if a.next > a.width {
		panic(fmt.Sprintf("lower: label count exceeds %d-value cell ceiling", a.width))
	}
	id := a.next
	a.next++
	return id
}

// Count reports how many labels have been allocated so far.
func (a *LabelAllocator) Count() int { return a.next - 1 }
