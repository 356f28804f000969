package compiler_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bflang/tapec/compiler"
	"github.com/bflang/tapec/internal/fixtures"
	"github.com/bflang/tapec/lang/ast"
	"github.com/bflang/tapec/lang/symbols"
	"github.com/bflang/tapec/lang/token"
)

func TestCompileChunkWritesAllThreeSinks(t *testing.T) {
	f := fixtures.OutputLiteral()
	file := token.NewFile(f.Chunk.Name)

	var ir, tape, symtab bytes.Buffer
	err := compiler.CompileChunk(context.Background(), file, f.Chunk, compiler.CompilerOptions{},
		compiler.Sinks{IRListing: &ir, Tape: &tape, SymbolTable: &symtab})
	require.NoError(t, err)

	assert.NotEmpty(t, ir.Bytes())
	assert.NotEmpty(t, tape.Bytes())
	assert.Contains(t, symtab.String(), "Function main")
}

func TestCompileChunkMissingMainFails(t *testing.T) {
	chunk := &ast.Chunk{Name: "empty"}
	file := token.NewFile(chunk.Name)

	err := compiler.CompileChunk(context.Background(), file, chunk, compiler.CompilerOptions{}, compiler.Sinks{})
	require.Error(t, err)

	var symErr *symbols.Error
	require.ErrorAs(t, err, &symErr)
	assert.Equal(t, symbols.CodeSemantic, symErr.Code)
}

func TestStreamModeWritesListingPerFunctionEvenOnLaterFailure(t *testing.T) {
	square := &ast.FuncDeclStmt{
		Qualified: []string{"square"},
		Params:    []*ast.VarSpec{{Name: "x"}},
		Results:   []*ast.VarSpec{{Name: "r"}},
		Body: &ast.BlockStmt{Block: &ast.Block{Stmts: []ast.Stmt{
			&ast.ExprStmt{X: &ast.AssignExpr{
				Left:  &ast.Ident{Name: "r"},
				Right: &ast.BinaryExpr{Op: ast.OpAdd, X: &ast.Ident{Name: "x"}, Y: &ast.Ident{Name: "x"}},
			}},
		}}},
	}
	// main references an undeclared name, so lowering main fails after
	// square has already lowered successfully.
	main := &ast.FuncDeclStmt{
		Qualified: []string{"main"},
		Body: &ast.BlockStmt{Block: &ast.Block{Stmts: []ast.Stmt{
			&ast.IOStmt{Dir: ast.Output, X: &ast.Ident{Name: "undeclared"}},
		}}},
	}
	chunk := &ast.Chunk{Name: "t", Decls: []ast.Stmt{square, main}}
	file := token.NewFile(chunk.Name)

	var ir bytes.Buffer
	err := compiler.CompileChunk(context.Background(), file, chunk, compiler.CompilerOptions{Stream: true},
		compiler.Sinks{IRListing: &ir})
	require.Error(t, err)
	assert.Contains(t, ir.String(), "function: square")
}

func TestAllFixturesCompileSuccessfully(t *testing.T) {
	for _, f := range fixtures.All() {
		f := f
		t.Run(f.Name, func(t *testing.T) {
			file := token.NewFile(f.Chunk.Name)
			var tape bytes.Buffer
			err := compiler.CompileChunk(context.Background(), file, f.Chunk, compiler.CompilerOptions{}, compiler.Sinks{Tape: &tape})
			require.NoError(t, err)
			assert.NotEmpty(t, tape.Bytes())
		})
	}
}
