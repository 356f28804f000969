// Package ast defines the node shapes produced by the (external, out of
// scope) grammar subsystem for the tape-machine compiler's source
// language: variables, typed records, functions, if/while, tuple return,
// dotted member access, integer and string literals, and inline escape
// hatches.
package ast

import "github.com/bflang/tapec/lang/token"

// Node is implemented by every AST node. Pos reports the node's starting
// source position; it is token.NoPos for synthetic nodes.
type Node interface {
	Pos() token.Pos
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// Chunk is a whole compilation unit: a single source file's top-level
// declarations.
type Chunk struct {
	Name  string // filename, echoed into IR listings and diagnostics
	Decls []Stmt // TypeDeclStmt, FuncDeclStmt, and top-level VarDeclStmt
}

func (c *Chunk) Pos() token.Pos {
	if len(c.Decls) == 0 {
		return token.NoPos
	}
	return c.Decls[0].Pos()
}

// Block is a sequence of statements sharing one lexical scope.
type Block struct {
	Start token.Pos
	Stmts []Stmt
}

func (b *Block) Pos() token.Pos { return b.Start }

// VarSpec names a single variable or field and its optional declared type.
// A nil Type means "native cell", the language's default element type.
type VarSpec struct {
	NamePos token.Pos
	Name    string
	Type    *TypeRef // nil => native cell, length 1, non-pointer
}

func (v *VarSpec) Pos() token.Pos { return v.NamePos }

// TypeRef names a declared type with an optional array length and pointer
// modifier, as written in a variable or parameter declaration.
type TypeRef struct {
	TypePos token.Pos
	// Qualified is the dotted type name, e.g. ["Pair"] or ["mod", "Pair"].
	Qualified []string
	// Length is the declared array length; 0 means "scalar" (length 1).
	Length int
	// Pointer marks the declaration as a pointer/array type rather than a
	// plain scalar of the element type.
	Pointer bool
	// Signed marks the (reserved, unimplemented) signed-arithmetic modifier.
	// The registrar rejects any VarSpec whose Type has Signed set.
	Signed bool
}

func (t *TypeRef) Pos() token.Pos { return t.TypePos }
