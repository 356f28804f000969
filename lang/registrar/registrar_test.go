package registrar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bflang/tapec/lang/ast"
	"github.com/bflang/tapec/lang/lower"
	"github.com/bflang/tapec/lang/registrar"
	"github.com/bflang/tapec/lang/symbols"
	"github.com/bflang/tapec/lang/token"
)

func newRegistrar(t *testing.T) (*registrar.Registrar, *token.File) {
	t.Helper()
	file := token.NewFile("t.tape")
	table := symbols.NewTable()
	labels := lower.NewLabelAllocator(0)
	return registrar.New(file, table, labels), file
}

func block(stmts ...ast.Stmt) *ast.BlockStmt {
	return &ast.BlockStmt{Block: &ast.Block{Stmts: stmts}}
}

func TestRegisterSetsMain(t *testing.T) {
	r, _ := newRegistrar(t)
	chunk := &ast.Chunk{Decls: []ast.Stmt{
		&ast.FuncDeclStmt{Qualified: []string{"main"}, Body: block()},
	}}
	require.NoError(t, r.Register(chunk))
	require.NotNil(t, r.Main)
	assert.Equal(t, "main", r.Main.Name)
}

func TestRegisterDuplicateMainFails(t *testing.T) {
	r, _ := newRegistrar(t)
	chunk := &ast.Chunk{Decls: []ast.Stmt{
		&ast.FuncDeclStmt{Qualified: []string{"main"}, Body: block()},
		&ast.FuncDeclStmt{Qualified: []string{"main"}, Body: block()},
	}}
	err := r.Register(chunk)
	require.Error(t, err)

	var symErr *symbols.Error
	require.ErrorAs(t, err, &symErr)
	assert.Equal(t, symbols.CodeSemantic, symErr.Code)
}

func TestRegisterFunctionsForwardReferenceEachOther(t *testing.T) {
	r, _ := newRegistrar(t)
	// "main" is declared before "helper" but may still call it once lowered,
	// since every function gets its entry label during this same pass.
	chunk := &ast.Chunk{Decls: []ast.Stmt{
		&ast.FuncDeclStmt{Qualified: []string{"main"}, Body: block()},
		&ast.FuncDeclStmt{Qualified: []string{"helper"}, Body: block()},
	}}
	require.NoError(t, r.Register(chunk))

	res := r.Table.Resolve([]string{"helper"})
	require.True(t, res.Found())
	assert.Equal(t, symbols.KindFunction, res.Resolved.Kind)
	assert.NotEqual(t, r.Main.EntryLabel, res.Resolved.EntryLabel)
}

func TestRegisterMemberFunctionUnresolvedReceiverFails(t *testing.T) {
	r, _ := newRegistrar(t)
	chunk := &ast.Chunk{Decls: []ast.Stmt{
		&ast.FuncDeclStmt{Qualified: []string{"Missing", "method"}, Body: block()},
	}}
	err := r.Register(chunk)
	require.Error(t, err)

	var symErr *symbols.Error
	require.ErrorAs(t, err, &symErr)
	assert.Equal(t, symbols.CodeResolution, symErr.Code)
}

func TestRegisterMemberFunctionNestsUnderReceiverType(t *testing.T) {
	r, _ := newRegistrar(t)
	chunk := &ast.Chunk{Decls: []ast.Stmt{
		&ast.TypeDeclStmt{Name: "Counter", Fields: []*ast.VarSpec{{Name: "n"}}},
		&ast.FuncDeclStmt{Qualified: []string{"Counter", "bump"}, Body: block()},
		&ast.FuncDeclStmt{Qualified: []string{"main"}, Body: block()},
	}}
	require.NoError(t, r.Register(chunk))

	res := r.Table.Resolve([]string{"Counter"})
	require.True(t, res.Found())
	method, ok := res.Resolved.LookupChild("bump")
	require.True(t, ok)
	assert.Same(t, res.Resolved, method.MemberOf)

	// A bare, unqualified lookup must not also find the method: member
	// functions live only under their receiver's scope.
	bare := r.Table.Resolve([]string{"bump"})
	assert.False(t, bare.Found())
}

func TestRegisterFunctionGetsHiddenReturnAddressSlot(t *testing.T) {
	r, _ := newRegistrar(t)
	chunk := &ast.Chunk{Decls: []ast.Stmt{
		&ast.FuncDeclStmt{Qualified: []string{"main"}, Body: block()},
	}}
	require.NoError(t, r.Register(chunk))

	retAddr, ok := r.Main.LookupChild("$retaddr")
	require.True(t, ok)
	assert.True(t, retAddr.Hidden)
	assert.Equal(t, 0, retAddr.StackAddress())
}

func TestRegisterParamsAndResultsFollowReturnSlot(t *testing.T) {
	r, _ := newRegistrar(t)
	chunk := &ast.Chunk{Decls: []ast.Stmt{
		&ast.FuncDeclStmt{
			Qualified: []string{"add"},
			Params:    []*ast.VarSpec{{Name: "a"}, {Name: "b"}},
			Results:   []*ast.VarSpec{{Name: "sum"}},
			Body:      block(),
		},
		&ast.FuncDeclStmt{Qualified: []string{"main"}, Body: block()},
	}}
	require.NoError(t, r.Register(chunk))

	res := r.Table.Resolve([]string{"add"})
	require.True(t, res.Found())
	fn := res.Resolved
	require.Len(t, fn.Results, 1)
	require.Len(t, fn.Params, 2)

	sum, ok := fn.LookupChild("sum")
	require.True(t, ok)
	a, ok := fn.LookupChild("a")
	require.True(t, ok)
	b, ok := fn.LookupChild("b")
	require.True(t, ok)

	// Layout order is fixed: $retaddr, then results, then params.
	assert.Equal(t, 1, sum.StackAddress())
	assert.Equal(t, 2, a.StackAddress())
	assert.Equal(t, 3, b.StackAddress())
}

func TestRegisterSignedTypeRejected(t *testing.T) {
	r, _ := newRegistrar(t)
	// resolveVarSpecType is shared by params, results, and module vars;
	// a module var is the simplest path that reaches it directly from
	// Register.
	chunk := &ast.Chunk{Decls: []ast.Stmt{
		&ast.VarDeclStmt{Vars: []*ast.VarSpec{{Name: "g", Type: &ast.TypeRef{Signed: true}}}},
	}}
	err := r.Register(chunk)
	require.Error(t, err)

	var symErr *symbols.Error
	require.ErrorAs(t, err, &symErr)
	assert.Equal(t, symbols.CodeSemantic, symErr.Code)
}

func TestRegisterModuleVarUnresolvedTypeFails(t *testing.T) {
	r, _ := newRegistrar(t)
	chunk := &ast.Chunk{Decls: []ast.Stmt{
		&ast.VarDeclStmt{Vars: []*ast.VarSpec{{Name: "g", Type: &ast.TypeRef{Qualified: []string{"Missing"}}}}},
	}}
	err := r.Register(chunk)
	require.Error(t, err)

	var symErr *symbols.Error
	require.ErrorAs(t, err, &symErr)
	assert.Equal(t, symbols.CodeResolution, symErr.Code)
}
