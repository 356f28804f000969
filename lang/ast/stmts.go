package ast

import "github.com/bflang/tapec/lang/token"

func (*VarDeclStmt) stmtNode()  {}
func (*TypeDeclStmt) stmtNode() {}
func (*FuncDeclStmt) stmtNode() {}
func (*ExprStmt) stmtNode()     {}
func (*IfStmt) stmtNode()       {}
func (*WhileStmt) stmtNode()    {}
func (*ReturnStmt) stmtNode()   {}
func (*IOStmt) stmtNode()       {}
func (*InlineStmt) stmtNode()   {}
func (*BlockStmt) stmtNode()    {}

// VarDeclStmt declares one or more variables (or, nested inside a
// TypeDeclStmt, fields) in the current scope.
type VarDeclStmt struct {
	StmtPos token.Pos
	Vars    []*VarSpec
}

func (s *VarDeclStmt) Pos() token.Pos { return s.StmtPos }

// TypeDeclStmt declares a new record type; Fields fixes the layout order.
type TypeDeclStmt struct {
	StmtPos token.Pos
	Name    string
	Fields  []*VarSpec
}

func (s *TypeDeclStmt) Pos() token.Pos { return s.StmtPos }

// FuncDeclStmt declares a function, optionally a member function when
// Qualified has more than one component (the receiver type name(s) prefix
// the function name).
type FuncDeclStmt struct {
	StmtPos   token.Pos
	Qualified []string // e.g. ["square"] or ["Pair", "sum"]
	Params    []*VarSpec
	Results   []*VarSpec
	Body      *BlockStmt
}

func (s *FuncDeclStmt) Pos() token.Pos { return s.StmtPos }

// Name returns the function's own (unqualified) name.
func (s *FuncDeclStmt) Name() string { return s.Qualified[len(s.Qualified)-1] }

// Receiver returns the dotted receiver type name and true if this is a
// member function declaration.
func (s *FuncDeclStmt) Receiver() ([]string, bool) {
	if len(s.Qualified) < 2 {
		return nil, false
	}
	return s.Qualified[:len(s.Qualified)-1], true
}

// ExprStmt lowers an expression purely for its side effects, discarding
// any output temporary.
type ExprStmt struct {
	X Expr
}

func (s *ExprStmt) Pos() token.Pos { return s.X.Pos() }

// IfStmt is an if, or if/else, statement. Else is nil when there is no
// else clause.
type IfStmt struct {
	StmtPos token.Pos
	Cond    Expr
	Then    *BlockStmt
	Else    *BlockStmt
}

func (s *IfStmt) Pos() token.Pos { return s.StmtPos }

// WhileStmt is a while-loop.
type WhileStmt struct {
	StmtPos token.Pos
	Cond    Expr
	Body    *BlockStmt
}

func (s *WhileStmt) Pos() token.Pos { return s.StmtPos }

// ReturnStmt returns zero, one, or (via a TupleExpr X) many values from the
// enclosing function.
type ReturnStmt struct {
	StmtPos token.Pos
	X       Expr // nil, a scalar Expr, or a *TupleExpr
}

func (s *ReturnStmt) Pos() token.Pos { return s.StmtPos }

// IODirection distinguishes "input" from "output" statements.
type IODirection uint8

const (
	Input IODirection = iota
	Output
)

// IOStmt reads into, or writes from, one expression or a tuple of them.
type IOStmt struct {
	StmtPos token.Pos
	Dir     IODirection
	X       Expr // a scalar Expr or a *TupleExpr
}

func (s *IOStmt) Pos() token.Pos { return s.StmtPos }

// InlineStmt carries raw, verbatim tape-machine text supplied by the
// programmer as an escape hatch.
type InlineStmt struct {
	StmtPos token.Pos
	Text    string
}

func (s *InlineStmt) Pos() token.Pos { return s.StmtPos }

// BlockStmt is a Block used in statement position (bodies of if/while/func).
type BlockStmt struct {
	*Block
}
