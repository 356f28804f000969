package lower

import (
	"fmt"

	"github.com/bflang/tapec/lang/ast"
	"github.com/bflang/tapec/lang/ir"
	"github.com/bflang/tapec/lang/symbols"
	"github.com/bflang/tapec/lang/token"
)

// Value is the output of lowering an expression: a reference to the
// symbol holding the result, its stackframe-relative address, its size in
// cells, and whether it is an anonymous temporary (and therefore may be
// destructively drained).
type Value struct {
	Sym       *symbols.Symbol
	Addr      ir.Addr
	Size      int
	Temporary bool
}

// Lowerer walks one function body, writing IR into Fn.
type Lowerer struct {
	File  *token.File
	Table *symbols.Table
	Labels *LabelAllocator
	Main  *symbols.Symbol

	Fn        *ir.Function
	fnSym     *symbols.Symbol
	exitLabel int
}

// New creates a Lowerer sharing table and labels with the registrar.
func New(file *token.File, table *symbols.Table, labels *LabelAllocator, main *symbols.Symbol) *Lowerer {
	return &Lowerer{File: file, Table: table, Labels: labels, Main: main}
}

func (l *Lowerer) errorf(pos token.Pos, code string, format string, args ...interface{}) error {
	return &symbols.Error{Pos: l.File.Position(pos), Code: code, Message: fmt.Sprintf(format, args...)}
}

func (l *Lowerer) pos(p token.Pos) token.Position { return l.File.Position(p) }

func (l *Lowerer) emit(pos token.Pos, inst ir.Instr) {
	l.Fn.Append(l.pos(pos), inst)
}

// LowerFunction lowers one already-registered function's body, re-opening
// the scope the registrar created for its signature.
func (l *Lowerer) LowerFunction(fnSym *symbols.Symbol, body *ast.BlockStmt) (*ir.Function, error) {
	l.fnSym = fnSym
	l.Fn = &ir.Function{Name: fnSym.QualifiedName()}
	l.exitLabel = l.Labels.Next()
	l.Table.Push(fnSym)
	defer l.Table.Pop()

	l.emit(body.Pos(), &ir.LabelDef{ID: ir.Label(fnSym.EntryLabel)})

	bodyReturns := false
	for _, stmt := range body.Stmts {
		if err := l.lowerStmt(stmt); err != nil {
			return nil, err
		}
		if _, ok := stmt.(*ast.ReturnStmt); ok {
			// Nothing after a return in the same straight-line block can
			// execute: its Jump must be the last instruction before the
			// next LABEL, so anything textually following it is dropped
			// rather than emitted as dead code the dispatcher would still
			// run unconditionally.
			bodyReturns = true
			break
		}
	}

	// Every explicit return jumps here; falling off the end of the body
	// does too, so there is exactly one RET per function. Skip the
	// fallthrough Jump when the body's last statement already emitted one
	// to this same label: a second unconditional Jump right behind it,
	// with no LABEL between them, would be redundant but harmless since
	// both write the same target, not a real bug, but there's no reason
	// to emit it.
	if !bodyReturns {
		l.emit(body.Pos(), &ir.Jump{Target: ir.Label(l.exitLabel)})
	}
	l.emit(body.Pos(), &ir.LabelDef{ID: ir.Label(l.exitLabel)})

	retAddr := fnSym.Children[0]
	l.emit(body.Pos(), &ir.Ret{RetAddr: ir.Addr(retAddr.StackAddress()), IsMain: fnSym == l.Main})

	l.Fn.FrameSize = fnSym.FrameSize()
	return l.Fn, nil
}

// lowerBlock opens a fresh scratch stackframe for a compound statement's
// own locals (if/while bodies), lowers its statements, then closes it.
// endsInReturn reports whether the block's last instruction is already a
// Jump (emitted by a direct, un-nested return statement): callers must not
// follow such a block with their own unconditional Jump, since with no
// LABEL between the two the second would silently overwrite the return's
// jump target before the dispatcher ever acts on it.
func (l *Lowerer) lowerBlock(block *ast.BlockStmt) (endsInReturn bool, err error) {
	frame := l.Table.NewTemporaryStackframe()
	l.Table.Push(frame)
	defer l.Table.Pop()
	for _, stmt := range block.Stmts {
		if err := l.lowerStmt(stmt); err != nil {
			return false, err
		}
		if _, ok := stmt.(*ast.ReturnStmt); ok {
			return true, nil
		}
	}
	return false, nil
}

func (l *Lowerer) lowerStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.VarDeclStmt:
		return l.lowerVarDecl(s)
	case *ast.ExprStmt:
		frame := l.Table.NewTemporaryStackframe()
		l.Table.Push(frame)
		_, err := l.lowerExpr(s.X)
		l.Table.Pop()
		return err
	case *ast.IfStmt:
		return l.lowerIf(s)
	case *ast.WhileStmt:
		return l.lowerWhile(s)
	case *ast.ReturnStmt:
		return l.lowerReturn(s)
	case *ast.IOStmt:
		return l.lowerIO(s)
	case *ast.InlineStmt:
		l.emit(s.Pos(), &ir.WriteInline{Text: s.Text})
		return nil
	case *ast.BlockStmt:
		_, err := l.lowerBlock(s)
		return err
	default:
		return l.errorf(stmt.Pos(), symbols.CodeSemantic, "lower: unhandled statement %T", stmt)
	}
}

func (l *Lowerer) lowerVarDecl(s *ast.VarDeclStmt) error {
	for _, v := range s.Vars {
		elemType, length, pointer, err := l.resolveVarSpecType(v)
		if err != nil {
			return err
		}
		sym := &symbols.Symbol{Kind: symbols.KindVariable, Name: v.Name, Pos: v.Pos(), ElementType: elemType, Length: length, Pointer: pointer}
		if err := l.Table.Add(l.File, sym, false); err != nil {
			return err
		}
	}
	return nil
}

func (l *Lowerer) resolveVarSpecType(v *ast.VarSpec) (elemType *symbols.Symbol, length int, pointer bool, err error) {
	if v.Type == nil {
		return l.Table.CellType, 1, false, nil
	}
	if v.Type.Signed {
		return nil, 0, false, l.errorf(v.Type.Pos(), symbols.CodeSemantic, "signed arithmetic is reserved but unimplemented")
	}
	res := l.Table.Resolve(v.Type.Qualified)
	if !res.Found() || res.Resolved.Kind != symbols.KindType {
		return nil, 0, false, l.errorf(v.Type.Pos(), symbols.CodeResolution, "unresolved type %v", v.Type.Qualified)
	}
	length = v.Type.Length
	if length < 1 {
		length = 1
	}
	return res.Resolved, length, v.Type.Pointer, nil
}
