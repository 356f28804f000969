package emit_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bflang/tapec/compiler"
	"github.com/bflang/tapec/internal/fixtures"
	"github.com/bflang/tapec/lang/token"
)

// tapeStepper is a minimal interpreter for the eight primitives plus the
// `@` halt extension: just enough to confirm a compiled fixture's output
// bytes. It is not a substitute for the standalone interpreter the
// emitted programs actually run on.
type tapeStepper struct {
	cells  []byte
	head   int
	input  []byte
	inPos  int
	output []byte
}

func (s *tapeStepper) ensure(i int) {
	for i >= len(s.cells) {
		s.cells = append(s.cells, 0)
	}
}

func (s *tapeStepper) run(t *testing.T, prog []byte) {
	t.Helper()
	jumps := matchBrackets(t, prog)
	pc := 0
	steps := 0
	for pc < len(prog) {
		steps++
		require.Lessf(t, steps, 2_000_000, "tape program did not halt")
		switch prog[pc] {
		case '>':
			s.head++
			require.GreaterOrEqual(t, s.head, 0, "head underflow")
			s.ensure(s.head)
		case '<':
			s.head--
			require.GreaterOrEqual(t, s.head, 0, "head underflow")
		case '+':
			s.ensure(s.head)
			s.cells[s.head]++
		case '-':
			s.ensure(s.head)
			s.cells[s.head]--
		case '.':
			s.ensure(s.head)
			s.output = append(s.output, s.cells[s.head])
		case ',':
			s.ensure(s.head)
			if s.inPos < len(s.input) {
				s.cells[s.head] = s.input[s.inPos]
				s.inPos++
			} else {
				s.cells[s.head] = 0
			}
		case '[':
			s.ensure(s.head)
			if s.cells[s.head] == 0 {
				pc = jumps[pc]
			}
		case ']':
			s.ensure(s.head)
			if s.cells[s.head] != 0 {
				pc = jumps[pc]
			}
		case '@':
			return
		default:
			// whitespace or any other byte produced by WRITE_INLINE text
			// that isn't one of the eight primitives is not executable;
			// fixtures never emit any, so there is nothing to skip here.
		}
		pc++
	}
}

func matchBrackets(t *testing.T, prog []byte) map[int]int {
	t.Helper()
	jumps := make(map[int]int)
	var stack []int
	for i, b := range prog {
		switch b {
		case '[':
			stack = append(stack, i)
		case ']':
			require.NotEmptyf(t, stack, "unmatched ] at %d", i)
			j := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			jumps[i] = j
			jumps[j] = i
		}
	}
	require.Emptyf(t, stack, "unmatched [ remaining")
	return jumps
}

func TestFixturesProduceExpectedOutput(t *testing.T) {
	for _, f := range fixtures.All() {
		f := f
		t.Run(f.Name, func(t *testing.T) {
			var tape bytes.Buffer
			file := token.NewFile(f.Chunk.Name)
			err := compiler.CompileChunk(context.Background(), file, f.Chunk, compiler.CompilerOptions{}, compiler.Sinks{Tape: &tape})
			require.NoError(t, err)

			stepper := &tapeStepper{cells: make([]byte, 16)}
			stepper.run(t, tape.Bytes())
			assert.Equal(t, f.Output, stepper.output)
		})
	}
}
