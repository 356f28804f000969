package symbols_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bflang/tapec/lang/symbols"
	"github.com/bflang/tapec/lang/token"
)

func TestTableRedefinitionFails(t *testing.T) {
	table := symbols.NewTable()
	file := token.NewFile("t.tape")

	require.NoError(t, table.Add(file, &symbols.Symbol{Kind: symbols.KindVariable, Name: "x"}, false))
	err := table.Add(file, &symbols.Symbol{Kind: symbols.KindVariable, Name: "x"}, false)
	require.Error(t, err)

	var symErr *symbols.Error
	require.ErrorAs(t, err, &symErr)
	assert.Equal(t, symbols.CodeSemantic, symErr.Code)
}

func TestResolveWalksOuterScopes(t *testing.T) {
	table := symbols.NewTable()
	file := token.NewFile("t.tape")

	outer := &symbols.Symbol{Kind: symbols.KindVariable, Name: "outer", ElementType: table.CellType, Length: 1}
	require.NoError(t, table.Add(file, outer, false))

	frame := table.NewTemporaryStackframe()
	table.Push(frame)
	defer table.Pop()

	res := table.Resolve([]string{"outer"})
	require.True(t, res.Found())
	assert.Same(t, outer, res.Resolved)
}

func TestResolveMissingNameNotFound(t *testing.T) {
	table := symbols.NewTable()
	res := table.Resolve([]string{"nope"})
	assert.False(t, res.Found())
}

func TestStackAddressAccumulatesAcrossScratchFrames(t *testing.T) {
	table := symbols.NewTable()
	file := token.NewFile("t.tape")

	fn := &symbols.Symbol{Kind: symbols.KindFunction, Name: "f"}
	require.NoError(t, table.Add(file, fn, false))
	table.Push(fn)
	defer table.Pop()

	a := &symbols.Symbol{Kind: symbols.KindVariable, Name: "a", ElementType: table.CellType, Length: 1}
	require.NoError(t, table.Add(file, a, false))

	frame := table.NewTemporaryStackframe()
	table.Push(frame)
	b := table.NewTemporaryVariable(table.CellType, 2)
	table.Pop()

	// a occupies cell 0 of fn's frame; the scratch frame starts right
	// after it, so b's address is 1.
	assert.Equal(t, 0, a.StackAddress())
	assert.Equal(t, 1, b.StackAddress())
	assert.Equal(t, 2, b.StackSize())
}

func TestTypeSizeSumsFieldSizes(t *testing.T) {
	table := symbols.NewTable()
	file := token.NewFile("t.tape")

	pair := &symbols.Symbol{Kind: symbols.KindType, Name: "Pair"}
	require.NoError(t, table.Add(file, pair, false))
	table.Push(pair)
	a := &symbols.Symbol{Kind: symbols.KindVariable, Name: "a", ElementType: table.CellType, Length: 1}
	b := &symbols.Symbol{Kind: symbols.KindVariable, Name: "b", ElementType: table.CellType, Length: 1}
	require.NoError(t, table.Add(file, a, false))
	require.NoError(t, table.Add(file, b, false))
	table.Pop()

	assert.Equal(t, 2, pair.TypeSize())
}

func TestPopRootPanics(t *testing.T) {
	table := symbols.NewTable()
	assert.Panics(t, func() { table.Pop() })
}

func TestErrorFormat(t *testing.T) {
	err := &symbols.Error{
		Pos:     token.Position{Filename: "t.tape", Line: 3},
		Code:    symbols.CodeType,
		Message: "type mismatch in assignment",
	}
	assert.Equal(t, "t.tape:3 Error type: type mismatch in assignment", err.Error())
}
