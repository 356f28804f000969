// Package fixtures hand-builds the AST for a handful of small, complete
// programs, standing in for what a parser would otherwise hand the
// registrar. Each fixture is paired with the expected output bytes its
// tape program produces against an empty input stream.
package fixtures

import "github.com/bflang/tapec/lang/ast"

// Fixture is a named program together with the expected output of running
// its compiled tape program against an empty input stream.
type Fixture struct {
	Name   string
	Chunk  *ast.Chunk
	Output []byte
}

func block(stmts ...ast.Stmt) *ast.BlockStmt {
	return &ast.BlockStmt{Block: &ast.Block{Stmts: stmts}}
}

func ident(name string) *ast.Ident { return &ast.Ident{Name: name} }

func intLit(v int64) *ast.IntLit { return &ast.IntLit{Value: v} }

func assign(left, right ast.Expr) *ast.ExprStmt {
	return &ast.ExprStmt{X: &ast.AssignExpr{Left: left, Right: right}}
}

func output(x ast.Expr) *ast.IOStmt { return &ast.IOStmt{Dir: ast.Output, X: x} }

func cellVar(name string) *ast.VarDeclStmt {
	return &ast.VarDeclStmt{Vars: []*ast.VarSpec{{Name: name}}}
}

func mainFunc(body ...ast.Stmt) *ast.FuncDeclStmt {
	return &ast.FuncDeclStmt{Qualified: []string{"main"}, Body: block(body...)}
}

// All returns the six scenarios in declaration order.
func All() []Fixture {
	return []Fixture{
		OutputLiteral(),
		ArithmeticAssign(),
		WhileLoop(),
		StructFields(),
		FunctionCall(),
		StringLiteral(),
	}
}

// OutputLiteral is "main() { output 65; }" -> "A".
func OutputLiteral() Fixture {
	return Fixture{
		Name: "output-literal",
		Chunk: &ast.Chunk{
			Name:  "output_literal",
			Decls: []ast.Stmt{mainFunc(output(intLit(65)))},
		},
		Output: []byte{65},
	}
}

// ArithmeticAssign is "main() { cell x; x = 3; x = x + 2; output x; }" -> 5.
func ArithmeticAssign() Fixture {
	return Fixture{
		Name: "arithmetic-assign",
		Chunk: &ast.Chunk{
			Name: "arithmetic_assign",
			Decls: []ast.Stmt{mainFunc(
				cellVar("x"),
				assign(ident("x"), intLit(3)),
				assign(ident("x"), &ast.BinaryExpr{Op: ast.OpAdd, X: ident("x"), Y: intLit(2)}),
				output(ident("x")),
			)},
		},
		Output: []byte{5},
	}
}

// WhileLoop is "main() { cell x; x = 0; while x - 3 { x = x + 1; output x; } }"
// -> \x01\x02\x03. The loop exits when x-3 underflows to 0 (a deliberate
// wrap-around, not a bug: the language has no comparison operator other
// than "is this cell zero").
func WhileLoop() Fixture {
	return Fixture{
		Name: "while-loop",
		Chunk: &ast.Chunk{
			Name: "while_loop",
			Decls: []ast.Stmt{mainFunc(
				cellVar("x"),
				assign(ident("x"), intLit(0)),
				&ast.WhileStmt{
					Cond: &ast.BinaryExpr{Op: ast.OpSub, X: ident("x"), Y: intLit(3)},
					Body: block(
						assign(ident("x"), &ast.BinaryExpr{Op: ast.OpAdd, X: ident("x"), Y: intLit(1)}),
						output(ident("x")),
					),
				},
			)},
		},
		Output: []byte{1, 2, 3},
	}
}

// StructFields is
// "type Pair { cell a; cell b; } main() { Pair p; p.a = 7; p.b = p.a + 1; output p.b; }"
// -> 8.
func StructFields() Fixture {
	pairType := &ast.TypeDeclStmt{
		Name: "Pair",
		Fields: []*ast.VarSpec{
			{Name: "a"},
			{Name: "b"},
		},
	}
	pDotA := &ast.DotExpr{X: ident("p"), Sel: &ast.Ident{Name: "a"}}
	pDotB := &ast.DotExpr{X: ident("p"), Sel: &ast.Ident{Name: "b"}}
	main := mainFunc(
		&ast.VarDeclStmt{Vars: []*ast.VarSpec{{Name: "p", Type: &ast.TypeRef{Qualified: []string{"Pair"}}}}},
		assign(pDotA, intLit(7)),
		assign(pDotB, &ast.BinaryExpr{Op: ast.OpAdd, X: pDotA, Y: intLit(1)}),
		output(pDotB),
	)
	return Fixture{
		Name:   "struct-fields",
		Chunk:  &ast.Chunk{Name: "struct_fields", Decls: []ast.Stmt{pairType, main}},
		Output: []byte{8},
	}
}

// FunctionCall is
// "square(cell x) -> (cell r) { r = x + x; } main() { cell y; y = square(3); output y; }"
// -> 6.
func FunctionCall() Fixture {
	square := &ast.FuncDeclStmt{
		Qualified: []string{"square"},
		Params:    []*ast.VarSpec{{Name: "x"}},
		Results:   []*ast.VarSpec{{Name: "r"}},
		Body: block(
			assign(ident("r"), &ast.BinaryExpr{Op: ast.OpAdd, X: ident("x"), Y: ident("x")}),
		),
	}
	main := mainFunc(
		cellVar("y"),
		assign(ident("y"), &ast.CallExpr{Fun: ident("square"), Args: intLit(3)}),
		output(ident("y")),
	)
	return Fixture{
		Name:   "function-call",
		Chunk:  &ast.Chunk{Name: "function_call", Decls: []ast.Stmt{square, main}},
		Output: []byte{6},
	}
}

// StringLiteral is `main() { output "Hi"; }` -> "Hi".
func StringLiteral() Fixture {
	return Fixture{
		Name: "string-literal",
		Chunk: &ast.Chunk{
			Name:  "string_literal",
			Decls: []ast.Stmt{mainFunc(output(&ast.StringLit{Value: "Hi"}))},
		},
		Output: []byte("Hi"),
	}
}
