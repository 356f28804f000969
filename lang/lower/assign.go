package lower

import (
	"github.com/bflang/tapec/lang/ast"
	"github.com/bflang/tapec/lang/symbols"
)

// sameType reports whether two resolved values agree in element type,
// length, and pointer-flag, the check every move/copy/add/sub requires
// before touching the tape.
func sameType(a, b Value) bool {
	return a.Sym.ElementType == b.Sym.ElementType && a.Sym.Length == b.Sym.Length && a.Sym.Pointer == b.Sym.Pointer
}

// lowerAssign lowers "=" in its three legal shapes: scalar (an identifier
// or dotted reference, possibly fed by a call whose first return slot is
// used), tuple<-tuple, and tuple<-call. A call on the left is rejected.
func (l *Lowerer) lowerAssign(e *ast.AssignExpr) (Value, error) {
	if _, ok := e.Left.(*ast.CallExpr); ok {
		return Value{}, l.errorf(e.Pos(), symbols.CodeSemantic, "cannot assign to a call expression")
	}

	leftTuple, leftIsTuple := e.Left.(*ast.TupleExpr)
	rightTuple, rightIsTuple := e.Right.(*ast.TupleExpr)

	switch {
	case leftIsTuple && rightIsTuple:
		if len(leftTuple.Elems) != len(rightTuple.Elems) {
			return Value{}, l.errorf(e.Pos(), symbols.CodeArity, "tuple assignment arity mismatch: %d vs %d", len(leftTuple.Elems), len(rightTuple.Elems))
		}
		for i := range leftTuple.Elems {
			if err := l.assignScalar(leftTuple.Elems[i], rightTuple.Elems[i]); err != nil {
				return Value{}, err
			}
		}
		return Value{}, nil

	case leftIsTuple && !rightIsTuple:
		call, ok := e.Right.(*ast.CallExpr)
		if !ok {
			return Value{}, l.errorf(e.Pos(), symbols.CodeSemantic, "tuple assignment requires a tuple or call on the right")
		}
		results, err := l.lowerCall(call)
		if err != nil {
			return Value{}, err
		}
		if len(results) != len(leftTuple.Elems) {
			return Value{}, l.errorf(e.Pos(), symbols.CodeArity, "call returns %d values, tuple assignment wants %d", len(results), len(leftTuple.Elems))
		}
		for i, dstExpr := range leftTuple.Elems {
			if err := l.assignValue(dstExpr, results[i]); err != nil {
				return Value{}, err
			}
		}
		return Value{}, nil

	case !leftIsTuple && rightIsTuple:
		return Value{}, l.errorf(e.Pos(), symbols.CodeSemantic, "cannot assign a tuple to a single destination")

	default:
		if err := l.assignScalar(e.Left, e.Right); err != nil {
			return Value{}, err
		}
		return l.lowerNameRef(e.Left)
	}
}

// assignScalar lowers `dstExpr = srcExpr`, rejecting assignment to a
// temporary and skipping emission entirely for a literal self-assign.
func (l *Lowerer) assignScalar(dstExpr, srcExpr ast.Expr) error {
	dst, err := l.lowerNameRef(dstExpr)
	if err != nil {
		return err
	}
	if dst.Temporary {
		return l.errorf(dstExpr.Pos(), symbols.CodeSemantic, "cannot assign to a temporary")
	}

	if srcIdent, ok := flattenDotted(srcExpr); ok {
		if dstIdent, ok := flattenDotted(dstExpr); ok && pathsEqual(srcIdent, dstIdent) {
			return nil // x = x: no instruction emitted
		}
	}

	src, err := l.lowerExpr(srcExpr)
	if err != nil {
		return err
	}
	return l.assignValue(dstExpr, src)
}

// assignValue lowers `dstExpr = src` once src has already been lowered
// (used both by the scalar path and by tuple<-call/tuple<-tuple element
// assignment).
func (l *Lowerer) assignValue(dstExpr ast.Expr, src Value) error {
	dst, err := l.lowerNameRef(dstExpr)
	if err != nil {
		return err
	}
	if dst.Temporary {
		return l.errorf(dstExpr.Pos(), symbols.CodeSemantic, "cannot assign to a temporary")
	}
	if !sameType(dst, src) {
		return l.errorf(dstExpr.Pos(), symbols.CodeType, "type mismatch in assignment")
	}
	l.loadInto(dstExpr.Pos(), dst.Addr, dst.Size, src)
	return nil
}

func pathsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
