package ir

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bflang/tapec/lang/token"
)

var positionZero token.Position

// Disassemble writes prog's textual assembly form: a "program:" header
// followed by one "function:" section per function, each with a "code:"
// list of one instruction per line carrying its source position, mnemonic,
// and comment. The format mirrors the section layout of a traditional
// bytecode assembler dump and round-trips through Assemble.
func Disassemble(w io.Writer, prog *Program) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "program: %s\n", prog.Name)
	for _, fn := range prog.Functions {
		fmt.Fprintf(bw, "\nfunction: %s %d\n", fn.Name, fn.FrameSize)
		fmt.Fprintln(bw, "code:")
		for _, e := range fn.Entries {
			fmt.Fprintf(bw, "\t%s %s %s\n", e.Pos, e.Inst.Mnemonic(), e.Inst.Comment())
		}
	}
	return bw.Flush()
}

// Assemble parses the textual form produced by Disassemble back into a
// Program. Source positions are not reconstructed (the assembly form is a
// debugging and testing aid, not a source-position carrier); every
// resulting Entry has a zero-valued Pos.
func Assemble(r io.Reader) (*Program, error) {
	sc := bufio.NewScanner(r)
	prog := &Program{}
	var fn *Function
	inCode := false

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch {
		case fields[0] == "program:":
			if len(fields) < 2 {
				return nil, fmt.Errorf("ir: malformed program header: %q", line)
			}
			prog.Name = fields[1]
			inCode = false

		case fields[0] == "function:":
			if len(fields) < 3 {
				return nil, fmt.Errorf("ir: malformed function header: %q", line)
			}
			size, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("ir: bad frame size in %q: %w", line, err)
			}
			fn = &Function{Name: fields[1], FrameSize: size}
			prog.Functions = append(prog.Functions, fn)
			inCode = false

		case fields[0] == "code:":
			if fn == nil {
				return nil, fmt.Errorf("ir: code: section outside of a function")
			}
			inCode = true

		case inCode:
			// fields[0] is the source position Disassemble writes first; it
			// is not reconstructed.
			if len(fields) < 2 {
				return nil, fmt.Errorf("ir: missing mnemonic: %q", line)
			}
			inst, err := parseInstr(fields[1], fields[2:])
			if err != nil {
				return nil, fmt.Errorf("ir: %q: %w", line, err)
			}
			fn.Append(positionZero, inst)

		default:
			return nil, fmt.Errorf("ir: unexpected line outside any section: %q", line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return prog, nil
}

func parseInstr(mnemonic string, operands []string) (Instr, error) {
	kv := parseKV(operands)

	switch mnemonic {
	case "NOP":
		return &Nop{}, nil
	case "ILOAD":
		return &ILoad{Dst: Addr(kv.int("dst")), Size: kv.int("size"), Value: kv.int64("value")}, nil
	case "IADD":
		return &IAdd{Dst: Addr(kv.int("dst")), Size: kv.int("size"), Value: kv.int64("value")}, nil
	case "ISUB":
		return &ISub{Dst: Addr(kv.int("dst")), Size: kv.int("size"), Value: kv.int64("value")}, nil
	case "MOVE":
		return &Move{Dst: Addr(kv.int("dst")), Src: Addr(kv.int("src")), Size: kv.int("size")}, nil
	case "ADD":
		return &Add{Dst: Addr(kv.int("dst")), Src: Addr(kv.int("src")), Size: kv.int("size")}, nil
	case "SUB":
		return &Sub{Dst: Addr(kv.int("dst")), Src: Addr(kv.int("src")), Size: kv.int("size")}, nil
	case "COPY":
		return &Copy{Dst: Addr(kv.int("dst")), Src: Addr(kv.int("src")), Aux: Addr(kv.int("aux")), Size: kv.int("size"), AuxSize: kv.int("auxsize")}, nil
	case "ADD_COPY":
		return &AddCopy{Dst: Addr(kv.int("dst")), Src: Addr(kv.int("src")), Aux: Addr(kv.int("aux")), Size: kv.int("size"), AuxSize: kv.int("auxsize")}, nil
	case "SUB_COPY":
		return &SubCopy{Dst: Addr(kv.int("dst")), Src: Addr(kv.int("src")), Aux: Addr(kv.int("aux")), Size: kv.int("size"), AuxSize: kv.int("auxsize")}, nil
	case "COMPARE":
		return &Compare{Cond: Addr(kv.int("cond")), IsZero: Addr(kv.int("zero")), IsNonZero: Addr(kv.int("nonzero"))}, nil
	case "TEST":
		return &Test{
			JumpReg:    Addr(kv.int("jumpreg")),
			IsTrue:     Addr(kv.int("true")),
			IsFalse:    Addr(kv.int("false")),
			Scratch1:   Addr(kv.int("s1")),
			Scratch2:   Addr(kv.int("s2")),
			Scratch3:   Addr(kv.int("s3")),
			TrueLabel:  Label(kv.label("truelabel")),
			FalseLabel: Label(kv.label("falselabel")),
		}, nil
	case "PUSH_STACK":
		return &PushStack{Offset: kv.int("offset")}, nil
	case "POP_STACK":
		return &PopStack{Offset: kv.int("offset")}, nil
	case "INPUT":
		return &WriteInput{Src: Addr(kv.int("src")), Size: kv.int("size")}, nil
	case "OUTPUT":
		return &WriteOutput{Src: Addr(kv.int("src")), Size: kv.int("size")}, nil
	case "CALL":
		return &Call{RetAddr: Addr(kv.int("retaddr")), ReturnLabel: Label(kv.label("retlabel"))}, nil
	case "RETURN":
		return &Ret{RetAddr: Addr(kv.int("retaddr")), IsMain: kv.raw["main"] == "true"}, nil
	case "JUMP":
		if len(operands) != 1 {
			return nil, fmt.Errorf("JUMP wants exactly one .L operand")
		}
		return &Jump{Target: Label(parseLabel(operands[0]))}, nil
	case ".L":
		if len(operands) != 1 {
			return nil, fmt.Errorf(".L wants exactly one operand")
		}
		n, err := strconv.Atoi(operands[0])
		if err != nil {
			return nil, err
		}
		return &LabelDef{ID: Label(n)}, nil
	case "INLINE":
		return &WriteInline{Text: strings.Join(operands, " ")}, nil
	case "EXIT":
		if len(operands) != 1 {
			return nil, fmt.Errorf("EXIT wants exactly one operand")
		}
		n, err := strconv.Atoi(operands[0])
		if err != nil {
			return nil, err
		}
		return &Exit{Code: n}, nil
	default:
		return nil, fmt.Errorf("unknown mnemonic %q", mnemonic)
	}
}

// kvMap is a parsed "key=value" operand list.
type kvMap struct {
	raw map[string]string
}

func parseKV(fields []string) kvMap {
	m := kvMap{raw: make(map[string]string, len(fields))}
	for _, f := range fields {
		if eq := strings.IndexByte(f, '='); eq >= 0 {
			m.raw[f[:eq]] = f[eq+1:]
		}
	}
	return m
}

func (m kvMap) int(key string) int {
	n, _ := strconv.Atoi(m.raw[key])
	return n
}

func (m kvMap) int64(key string) int64 {
	n, _ := strconv.ParseInt(m.raw[key], 10, 64)
	return n
}

func (m kvMap) label(key string) int {
	return parseLabel(m.raw[key])
}

func parseLabel(s string) int {
	s = strings.TrimPrefix(s, ".L")
	// Drop any parenthesized suffix; keep only the leading numeric run.
	if i := strings.IndexAny(s, "("); i >= 0 {
		s = s[:i]
	}
	n, _ := strconv.Atoi(s)
	return n
}
