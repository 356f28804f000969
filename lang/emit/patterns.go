package emit

// decomposeBytes splits value into size big-endian bytes, most significant
// cell first, matching ILoad/IAdd/ISub's documented cell order.
func decomposeBytes(value int64, size int) []byte {
	out := make([]byte, size)
	v := value
	for i := size - 1; i >= 0; i-- {
		out[i] = byte(v & 0xff)
		v >>= 8
	}
	return out
}

// iload zeroes dst's size cells and sets them to value.
func (e *Emitter) iload(dst, size int, value int64) {
	for k, b := range decomposeBytes(value, size) {
		e.moveHeadTo(dst + k)
		e.write("[-]")
		e.repeat('+', int(b))
	}
}

// iadd adds (or, if sub, subtracts) the immediate value into dst in place.
func (e *Emitter) iadd(dst, size int, value int64, sub bool) {
	op := byte('+')
	if sub {
		op = '-'
	}
	for k, b := range decomposeBytes(value, size) {
		e.moveHeadTo(dst + k)
		e.repeat(op, int(b))
	}
}

// transfer drains size cells of src into dst (adding, or subtracting if
// sub), leaving src at zero. Shared by MOVE, ADD, and SUB: MOVE zeroes dst
// first (it replaces whatever dst held), while ADD/SUB accumulate into
// dst's existing value, so zeroDst distinguishes the two.
func (e *Emitter) transfer(dst, src, size int, sub, zeroDst bool) {
	op := byte('+')
	if sub {
		op = '-'
	}
	if zeroDst {
		for k := 0; k < size; k++ {
			e.moveHeadTo(dst + k)
			e.write("[-]")
		}
	}
	for k := 0; k < size; k++ {
		e.moveHeadTo(src + k)
		e.out.WriteByte('[')
		e.out.WriteByte('-')
		e.moveHeadTo(dst + k)
		e.out.WriteByte(op)
		e.moveHeadTo(src + k)
		e.out.WriteByte(']')
	}
}

// copyPattern transfers size cells of src into dst (adding, or subtracting
// if sub) without disturbing src, draining src into aux and restoring it
// from aux afterward. Shared by COPY, ADD_COPY, and SUB_COPY: COPY zeroes
// dst first (it replaces whatever dst held), while ADD_COPY/SUB_COPY
// accumulate into dst's existing value, so zeroDst distinguishes the two.
func (e *Emitter) copyPattern(dst, src, aux, size int, sub, zeroDst bool) {
	op := byte('+')
	if sub {
		op = '-'
	}
	if zeroDst {
		for k := 0; k < size; k++ {
			e.moveHeadTo(dst + k)
			e.write("[-]")
		}
	}
	for k := 0; k < size; k++ {
		e.moveHeadTo(src + k)
		e.out.WriteByte('[')
		e.out.WriteByte('-')
		e.moveHeadTo(dst + k)
		e.out.WriteByte(op)
		e.moveHeadTo(aux + k)
		e.out.WriteByte('+')
		e.moveHeadTo(src + k)
		e.out.WriteByte(']')

		e.moveHeadTo(aux + k)
		e.out.WriteByte('[')
		e.out.WriteByte('-')
		e.moveHeadTo(src + k)
		e.out.WriteByte('+')
		e.moveHeadTo(aux + k)
		e.out.WriteByte(']')
	}
}

// comparePattern reads cond and, if it is nonzero, flips isZero/isNonZero
// from their caller-supplied 1/0 initial values to 0/1, draining cond to
// zero either way.
func (e *Emitter) comparePattern(cond, isZero, isNonZero int) {
	e.moveHeadTo(cond)
	e.out.WriteByte('[')
	e.moveHeadTo(isNonZero)
	e.out.WriteByte('+')
	e.moveHeadTo(isZero)
	e.out.WriteByte('-')
	e.moveHeadTo(cond)
	e.write("[-]")
	e.moveHeadTo(cond)
	e.out.WriteByte(']')
}

// testPattern reads the isTrue/isFalse flag pair a comparePattern produced
// and writes whichever of trueLabel/falseLabel corresponds to the set flag
// into the dispatcher's jump-target register, draining both flags.
func (e *Emitter) testPattern(isTrue, isFalse, trueLabel, falseLabel int) {
	e.moveHeadTo(absJumpTarget)
	e.write("[-]")

	e.moveHeadTo(isTrue)
	e.out.WriteByte('[')
	e.write("[-]")
	e.moveHeadTo(absJumpTarget)
	e.repeat('+', trueLabel)
	e.moveHeadTo(isTrue)
	e.out.WriteByte(']')

	e.moveHeadTo(isFalse)
	e.out.WriteByte('[')
	e.write("[-]")
	e.moveHeadTo(absJumpTarget)
	e.repeat('+', falseLabel)
	e.moveHeadTo(isFalse)
	e.out.WriteByte(']')
}

// ioPattern reads (isInput) or writes size cells one at a time starting at
// addr, in ascending cell order.
func (e *Emitter) ioPattern(addr, size int, isInput bool) {
	op := byte('.')
	if isInput {
		op = ','
	}
	for k := 0; k < size; k++ {
		e.moveHeadTo(addr + k)
		e.out.WriteByte(op)
	}
}

// labelDef closes the previous label's gating bracket, if any, then opens
// this label's: a fresh non-destructive copy of the jump-target register
// is decremented by id and turned into a single-shot match flag, which
// gates execution of everything up to the next LabelDef (or the end of the
// program). Every LABEL in the emitted stream is therefore a flat sibling
// inside the dispatcher's single outer continue-flag loop, independently
// re-evaluated on every pass.
func (e *Emitter) labelDef(id int) {
	if e.open {
		e.moveHeadTo(absLabelMatch)
		e.out.WriteByte(']')
		e.open = false
	}

	// absLabelTest is always zero on entry here (the bracket below drains
	// it back to zero as its last act), so no extra zeroing pass is needed.
	e.copyPattern(absLabelTest, absJumpTarget, absLabelAux, 1, false, false)

	e.moveHeadTo(absLabelTest)
	e.repeat('-', id)

	e.moveHeadTo(absLabelMatch)
	e.write("[-]+")

	e.moveHeadTo(absLabelTest)
	e.out.WriteByte('[')
	e.write("[-]")
	e.moveHeadTo(absLabelMatch)
	e.out.WriteByte('-')
	e.moveHeadTo(absLabelTest)
	e.out.WriteByte(']')

	e.moveHeadTo(absLabelMatch)
	e.out.WriteByte('[')
	e.write("[-]")
	e.open = true
}
