package lower

import (
	"github.com/bflang/tapec/lang/ast"
	"github.com/bflang/tapec/lang/ir"
	"github.com/bflang/tapec/lang/symbols"
)

// resolveCallee finds the function symbol e.Fun names and, for a member
// call (a dotted form whose final component resolves among the
// receiver's type's children), the receiver value that becomes an
// implicit leading argument.
func (l *Lowerer) resolveCallee(fun ast.Expr) (fn *symbols.Symbol, receiver *Value, err error) {
	if ident, ok := fun.(*ast.Ident); ok {
		res := l.Table.Resolve([]string{ident.Name})
		if !res.Found() || res.Resolved.Kind != symbols.KindFunction {
			return nil, nil, l.errorf(fun.Pos(), symbols.CodeResolution, "unresolved function %s", ident.Name)
		}
		return res.Resolved, nil, nil
	}

	dot, ok := fun.(*ast.DotExpr)
	if !ok {
		return nil, nil, l.errorf(fun.Pos(), symbols.CodeSemantic, "call target must be an identifier or dotted member reference")
	}

	recvVal, err := l.lowerNameRef(dot.X)
	if err != nil {
		return nil, nil, err
	}
	method, ok := recvVal.Sym.ElementType.LookupChild(dot.Sel.Name)
	if !ok || method.Kind != symbols.KindFunction {
		return nil, nil, l.errorf(fun.Pos(), symbols.CodeResolution, "unresolved method %s on type %s", dot.Sel.Name, recvVal.Sym.ElementType.Name)
	}
	return method, &recvVal, nil
}

// lowerCall implements the four-step call lowering: resolve the
// callee, open a scratch frame holding the return-address slot, the
// return-value slots, and one argument slot per parameter (each loaded
// inside its own nested scratch frame), then CALL/JUMP to the callee and
// LABEL the return site.
func (l *Lowerer) lowerCall(e *ast.CallExpr) ([]Value, error) {
	fn, receiver, err := l.resolveCallee(e.Fun)
	if err != nil {
		return nil, err
	}

	var argExprs []ast.Expr
	if receiver != nil {
		// The receiver chain becomes an implicit leading argument; the
		// Value resolveCallee already produced for it is reused as-is
		// inside the call frame below rather than lowered again.
		argExprs = append(argExprs, nil)
	}
	switch args := e.Args.(type) {
	case nil:
	case *ast.TupleExpr:
		argExprs = append(argExprs, args.Elems...)
	default:
		argExprs = append(argExprs, args)
	}
	if len(argExprs) != len(fn.Params) {
		return nil, l.errorf(e.Pos(), symbols.CodeArity, "call to %s wants %d arguments, got %d", fn.QualifiedName(), len(fn.Params), len(argExprs))
	}

	frame := l.Table.NewTemporaryStackframe()
	l.Table.Push(frame)

	// Reserve cell 0 of the call frame as the callee's return-address
	// slot; its value is never referenced from here since every
	// function's own return-address cell is, by construction, address 0
	// relative to itself.
	l.Table.NewTemporaryVariable(l.Table.CellType, 1)

	var results []Value
	for _, r := range fn.Results {
		slot := l.Table.NewTemporaryVariable(r.ElementType, r.Length)
		results = append(results, Value{Sym: slot, Addr: ir.Addr(slot.StackAddress()), Size: slot.StackSize(), Temporary: true})
	}

	for i, param := range fn.Params {
		slot := l.Table.NewTemporaryVariable(param.ElementType, param.Length)
		slotAddr := ir.Addr(slot.StackAddress())

		nested := l.Table.NewTemporaryStackframe()
		l.Table.Push(nested)

		var argVal Value
		var argErr error
		if receiver != nil && i == 0 {
			argVal, argErr = *receiver, nil
		} else {
			argVal, argErr = l.lowerExpr(argExprs[i])
		}
		if argErr != nil {
			l.Table.Pop()
			l.Table.Pop()
			return nil, argErr
		}
		if argVal.Sym.ElementType != param.ElementType || argVal.Sym.Length != param.Length || argVal.Sym.Pointer != param.Pointer {
			l.Table.Pop()
			l.Table.Pop()
			return nil, l.errorf(e.Pos(), symbols.CodeType, "argument %d to %s: type mismatch", i+1, fn.QualifiedName())
		}
		l.loadInto(e.Pos(), slotAddr, slot.StackSize(), argVal)

		l.Table.Pop() // nested
	}

	calleeOffset := frame.StackAddress()
	returnLabel := l.Labels.Next()

	l.emit(e.Pos(), &ir.PushStack{Offset: calleeOffset})
	l.emit(e.Pos(), &ir.Call{RetAddr: 0, ReturnLabel: ir.Label(returnLabel)})
	l.emit(e.Pos(), &ir.Jump{Target: ir.Label(fn.EntryLabel)})
	l.emit(e.Pos(), &ir.LabelDef{ID: ir.Label(returnLabel)})
	l.emit(e.Pos(), &ir.PopStack{Offset: calleeOffset})

	l.Table.Pop() // frame

	return results, nil
}
