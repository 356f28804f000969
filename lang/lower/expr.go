package lower

import (
	"github.com/bflang/tapec/lang/ast"
	"github.com/bflang/tapec/lang/ir"
	"github.com/bflang/tapec/lang/symbols"
	"github.com/bflang/tapec/lang/token"
)

func (l *Lowerer) lowerExpr(e ast.Expr) (Value, error) {
	switch x := e.(type) {
	case *ast.IntLit:
		return l.lowerIntLit(x)
	case *ast.StringLit:
		return l.lowerStringLit(x)
	case *ast.Ident:
		return l.lowerNameRef(x)
	case *ast.DotExpr:
		return l.lowerNameRef(x)
	case *ast.BinaryExpr:
		return l.lowerBinary(x)
	case *ast.AssignExpr:
		return l.lowerAssign(x)
	case *ast.CallExpr:
		vals, err := l.lowerCall(x)
		if err != nil {
			return Value{}, err
		}
		if len(vals) == 0 {
			return Value{}, nil
		}
		return vals[0], nil
	case *ast.TupleExpr:
		return Value{}, l.errorf(x.Pos(), symbols.CodeSemantic, "tuple expression not valid standalone")
	default:
		return Value{}, l.errorf(e.Pos(), symbols.CodeSemantic, "lower: unhandled expression %T", e)
	}
}

func (l *Lowerer) lowerIntLit(x *ast.IntLit) (Value, error) {
	tmp := l.Table.NewTemporaryVariable(l.Table.CellType, 1)
	addr := ir.Addr(tmp.StackAddress())
	l.emit(x.Pos(), &ir.ILoad{Dst: addr, Size: 1, Value: x.Value})
	return Value{Sym: tmp, Addr: addr, Size: 1, Temporary: true}, nil
}

func (l *Lowerer) lowerStringLit(x *ast.StringLit) (Value, error) {
	bytes, err := unescapeString(x.Value)
	if err != nil {
		return Value{}, l.errorf(x.Pos(), symbols.CodeSemantic, "%s", err)
	}
	length := len(bytes)
	if length < 1 {
		length = 1
	}
	tmp := l.Table.NewTemporaryVariable(l.Table.CellType, length)
	base := ir.Addr(tmp.StackAddress())
	for i, b := range bytes {
		l.emit(x.Pos(), &ir.ILoad{Dst: base + ir.Addr(i), Size: 1, Value: int64(b)})
	}
	return Value{Sym: tmp, Addr: base, Size: length, Temporary: true}, nil
}

// unescapeString processes the literal escape set \n \r \t \\; an
// unrecognized escape reproduces the following character verbatim.
func unescapeString(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i == len(s)-1 {
			out = append(out, c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case '\\':
			out = append(out, '\\')
		default:
			out = append(out, s[i])
		}
	}
	return out, nil
}

// flattenDotted collects a chain of Ident/DotExpr nodes into a dotted
// qualified-name path, as required by the scope-chain-only resolution
// rule for dot expressions.
func flattenDotted(e ast.Expr) ([]string, bool) {
	switch x := e.(type) {
	case *ast.Ident:
		return []string{x.Name}, true
	case *ast.DotExpr:
		base, ok := flattenDotted(x.X)
		if !ok {
			return nil, false
		}
		return append(base, x.Sel.Name), true
	default:
		return nil, false
	}
}

func (l *Lowerer) lowerNameRef(e ast.Expr) (Value, error) {
	path, ok := flattenDotted(e)
	if !ok {
		return Value{}, l.errorf(e.Pos(), symbols.CodeSemantic, "dot expression requires an identifier chain")
	}
	res := l.Table.Resolve(path)
	if !res.Found() {
		return Value{}, l.errorf(e.Pos(), symbols.CodeResolution, "unresolved name %v", path)
	}
	if res.Resolved.Kind != symbols.KindVariable {
		return Value{}, l.errorf(e.Pos(), symbols.CodeResolution, "%v does not refer to a variable", path)
	}
	return Value{
		Sym:       res.Resolved,
		Addr:      ir.Addr(res.Dereference()),
		Size:      res.Resolved.StackSize(),
		Temporary: res.Resolved.Temporary,
	}, nil
}

// loadInto emits the instruction that overwrites dst (Size cells, whatever
// they currently hold, zero or not) with src's value: a destructive MOVE
// if src is a temporary (its cells are never read again), or a
// non-destructive COPY through a fresh zero aux region otherwise. MOVE and
// COPY both zero dst themselves before transferring, so dst need not be
// pre-zeroed by the caller.
func (l *Lowerer) loadInto(pos token.Pos, dst ir.Addr, size int, src Value) {
	if src.Size != size {
		// Caller already type-checked; defensive clamp never triggers in
		// practice but keeps emitted sizes self-consistent.
		size = src.Size
	}
	if src.Temporary {
		l.emit(pos, &ir.Move{Dst: dst, Src: src.Addr, Size: size})
		return
	}
	aux := l.Table.NewTemporaryVariable(l.Table.CellType, size)
	l.emit(pos, &ir.Copy{Dst: dst, Src: src.Addr, Aux: ir.Addr(aux.StackAddress()), Size: size, AuxSize: size})
}

// combineInto adds or subtracts src into the value already held at dst,
// using the same temporary-vs-named dichotomy as loadInto.
func (l *Lowerer) combineInto(pos token.Pos, dst ir.Addr, size int, src Value, sub bool) {
	if src.Temporary {
		if sub {
			l.emit(pos, &ir.Sub{Dst: dst, Src: src.Addr, Size: size})
		} else {
			l.emit(pos, &ir.Add{Dst: dst, Src: src.Addr, Size: size})
		}
		return
	}
	aux := l.Table.NewTemporaryVariable(l.Table.CellType, size)
	auxAddr := ir.Addr(aux.StackAddress())
	if sub {
		l.emit(pos, &ir.SubCopy{Dst: dst, Src: src.Addr, Aux: auxAddr, Size: size, AuxSize: size})
	} else {
		l.emit(pos, &ir.AddCopy{Dst: dst, Src: src.Addr, Aux: auxAddr, Size: size, AuxSize: size})
	}
}

func (l *Lowerer) lowerBinary(x *ast.BinaryExpr) (Value, error) {
	if _, ok := x.X.(*ast.TupleExpr); ok {
		return Value{}, l.errorf(x.Pos(), symbols.CodeSemantic, "tuple operand to arithmetic")
	}
	if _, ok := x.Y.(*ast.TupleExpr); ok {
		return Value{}, l.errorf(x.Pos(), symbols.CodeSemantic, "tuple operand to arithmetic")
	}

	tmp := l.Table.NewTemporaryVariable(l.Table.CellType, 1)
	dst := ir.Addr(tmp.StackAddress())

	lhs, err := l.lowerExpr(x.X)
	if err != nil {
		return Value{}, err
	}
	if err := l.requireScalarCell(x.Pos(), lhs); err != nil {
		return Value{}, err
	}
	l.loadInto(x.Pos(), dst, 1, lhs)

	rhs, err := l.lowerExpr(x.Y)
	if err != nil {
		return Value{}, err
	}
	if err := l.requireScalarCell(x.Pos(), rhs); err != nil {
		return Value{}, err
	}
	l.combineInto(x.Pos(), dst, 1, rhs, x.Op == ast.OpSub)

	return Value{Sym: tmp, Addr: dst, Size: 1, Temporary: true}, nil
}

// requireScalarCell rejects any operand to "+"/"-" that is not a single
// native cell (structs, arrays, and tuples do not implement arithmetic).
func (l *Lowerer) requireScalarCell(pos token.Pos, v Value) error {
	if v.Sym.ElementType != l.Table.CellType || v.Sym.Length != 1 || v.Sym.Pointer {
		return l.errorf(pos, symbols.CodeType, "arithmetic operand must be a single cell")
	}
	return nil
}
