package lower

import (
	"github.com/bflang/tapec/lang/ast"
	"github.com/bflang/tapec/lang/ir"
	"github.com/bflang/tapec/lang/symbols"
)

// emitBranch lowers cond in its own scratch frame and emits the
// COMPARE/TEST pair that leaves the dispatcher's jump-target register
// holding trueLabel or falseLabel.
func (l *Lowerer) emitBranch(cond ast.Expr, trueLabel, falseLabel int) error {
	frame := l.Table.NewTemporaryStackframe()
	l.Table.Push(frame)
	defer l.Table.Pop()

	condVal, err := l.lowerExpr(cond)
	if err != nil {
		return err
	}
	if err := l.requireScalarCell(cond.Pos(), condVal); err != nil {
		return err
	}

	isZero := l.Table.NewTemporaryVariable(l.Table.CellType, 1)
	isNonZero := l.Table.NewTemporaryVariable(l.Table.CellType, 1)
	l.emit(cond.Pos(), &ir.ILoad{Dst: ir.Addr(isZero.StackAddress()), Size: 1, Value: 1})
	l.emit(cond.Pos(), &ir.ILoad{Dst: ir.Addr(isNonZero.StackAddress()), Size: 1, Value: 0})
	l.emit(cond.Pos(), &ir.Compare{
		Cond:      condVal.Addr,
		IsZero:    ir.Addr(isZero.StackAddress()),
		IsNonZero: ir.Addr(isNonZero.StackAddress()),
	})

	s1 := l.Table.NewTemporaryVariable(l.Table.CellType, 1)
	s2 := l.Table.NewTemporaryVariable(l.Table.CellType, 1)
	s3 := l.Table.NewTemporaryVariable(l.Table.CellType, 1)
	l.emit(cond.Pos(), &ir.Test{
		JumpReg:    ir.JumpTarget,
		IsTrue:     ir.Addr(isNonZero.StackAddress()),
		IsFalse:    ir.Addr(isZero.StackAddress()),
		Scratch1:   ir.Addr(s1.StackAddress()),
		Scratch2:   ir.Addr(s2.StackAddress()),
		Scratch3:   ir.Addr(s3.StackAddress()),
		TrueLabel:  ir.Label(trueLabel),
		FalseLabel: ir.Label(falseLabel),
	})
	return nil
}

func (l *Lowerer) lowerIf(s *ast.IfStmt) error {
	trueLabel := l.Labels.Next()
	endLabel := l.Labels.Next()
	falseLabel := endLabel
	if s.Else != nil {
		falseLabel = l.Labels.Next()
	}

	if err := l.emitBranch(s.Cond, trueLabel, falseLabel); err != nil {
		return err
	}

	l.emit(s.Pos(), &ir.LabelDef{ID: ir.Label(trueLabel)})
	thenReturns, err := l.lowerBlock(s.Then)
	if err != nil {
		return err
	}
	if !thenReturns {
		l.emit(s.Pos(), &ir.Jump{Target: ir.Label(endLabel)})
	}

	if s.Else != nil {
		l.emit(s.Pos(), &ir.LabelDef{ID: ir.Label(falseLabel)})
		elseReturns, err := l.lowerBlock(s.Else)
		if err != nil {
			return err
		}
		if !elseReturns {
			l.emit(s.Pos(), &ir.Jump{Target: ir.Label(endLabel)})
		}
	}

	l.emit(s.Pos(), &ir.LabelDef{ID: ir.Label(endLabel)})
	return nil
}

func (l *Lowerer) lowerWhile(s *ast.WhileStmt) error {
	condLabel := l.Labels.Next()
	bodyLabel := l.Labels.Next()
	exitLabel := l.Labels.Next()

	l.emit(s.Pos(), &ir.Jump{Target: ir.Label(condLabel)})
	l.emit(s.Pos(), &ir.LabelDef{ID: ir.Label(condLabel)})

	if err := l.emitBranch(s.Cond, bodyLabel, exitLabel); err != nil {
		return err
	}

	l.emit(s.Pos(), &ir.LabelDef{ID: ir.Label(bodyLabel)})
	bodyReturns, err := l.lowerBlock(s.Body)
	if err != nil {
		return err
	}
	if !bodyReturns {
		l.emit(s.Pos(), &ir.Jump{Target: ir.Label(condLabel)})
	}
	l.emit(s.Pos(), &ir.LabelDef{ID: ir.Label(exitLabel)})
	return nil
}

func (l *Lowerer) lowerReturn(s *ast.ReturnStmt) error {
	if l.fnSym == nil {
		return l.errorf(s.Pos(), symbols.CodeSemantic, "return outside of a function")
	}

	var exprs []ast.Expr
	switch x := s.X.(type) {
	case nil:
	case *ast.TupleExpr:
		exprs = x.Elems
	default:
		exprs = []ast.Expr{x}
	}
	if len(exprs) != len(l.fnSym.Results) {
		return l.errorf(s.Pos(), symbols.CodeArity, "return arity mismatch: function has %d result(s), got %d", len(l.fnSym.Results), len(exprs))
	}

	frame := l.Table.NewTemporaryStackframe()
	l.Table.Push(frame)
	for i, e := range exprs {
		val, err := l.lowerExpr(e)
		if err != nil {
			l.Table.Pop()
			return err
		}
		result := l.fnSym.Results[i]
		if val.Sym.ElementType != result.ElementType || val.Sym.Length != result.Length || val.Sym.Pointer != result.Pointer {
			l.Table.Pop()
			return l.errorf(e.Pos(), symbols.CodeType, "return value %d: type mismatch", i+1)
		}
		l.loadInto(e.Pos(), ir.Addr(result.StackAddress()), result.StackSize(), val)
	}
	l.Table.Pop()

	l.emit(s.Pos(), &ir.Jump{Target: ir.Label(l.exitLabel)})
	return nil
}

func (l *Lowerer) lowerIO(s *ast.IOStmt) error {
	var exprs []ast.Expr
	if tup, ok := s.X.(*ast.TupleExpr); ok {
		exprs = tup.Elems
	} else {
		exprs = []ast.Expr{s.X}
	}

	frame := l.Table.NewTemporaryStackframe()
	l.Table.Push(frame)
	defer l.Table.Pop()

	for _, e := range exprs {
		if s.Dir == ast.Input {
			dst, err := l.lowerNameRef(e)
			if err != nil {
				return err
			}
			if dst.Temporary {
				return l.errorf(e.Pos(), symbols.CodeSemantic, "cannot read input into a temporary")
			}
			l.emit(e.Pos(), &ir.WriteInput{Src: dst.Addr, Size: dst.Size})
			continue
		}
		val, err := l.lowerExpr(e)
		if err != nil {
			return err
		}
		l.emit(e.Pos(), &ir.WriteOutput{Src: val.Addr, Size: val.Size})
	}
	return nil
}
