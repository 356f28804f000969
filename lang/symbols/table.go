package symbols

import (
	"fmt"

	"github.com/bflang/tapec/lang/token"
)

// Error categories, per the taxonomy every user-facing diagnostic falls
// into: resolution failures, type mismatches, arity mismatches, and
// semantic misuse (assigning to a temporary, multiple main, and so on).
// Syntax errors pass through from an external grammar subsystem and
// internal-consistency violations panic rather than returning an Error.
const (
	CodeResolution = "resolution"
	CodeType       = "type"
	CodeArity      = "arity"
	CodeSemantic   = "semantic"
)

// Error is a positioned, categorized compilation failure raised by the
// symbol table, registrar, or lowerer.
type Error struct {
	Pos     token.Position
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s Error %s: %s", e.Pos, e.Code, e.Message)
}

// Resolution is the result of a name lookup: the ordered chain of symbols
// traversed from the outermost containing scope down to the resolved leaf,
// together with the resolved symbol itself (nil on failure).
type Resolution struct {
	Path     []*Symbol
	Resolved *Symbol
}

// Found reports whether the resolution succeeded.
func (r Resolution) Found() bool { return r.Resolved != nil }

// Dereference computes the absolute offset, relative to the current
// function's stackframe, that this resolution path refers to: the first
// path element contributes its full recursive StackAddress (it may have
// been found several scratch stackframes away from the use site), and
// every subsequent, dotted element contributes only its OffsetInParent
// (a field's position within the type it was found in).
func (r Resolution) Dereference() int {
	if len(r.Path) == 0 {
		return 0
	}
	addr := r.Path[0].StackAddress()
	for _, s := range r.Path[1:] {
		addr += s.OffsetInParent()
	}
	return addr
}

// Table is the compiler's symbol table: a scope stack rooted at a singleton
// root stackframe holding the built-in "cell" type.
type Table struct {
	stack    []*Symbol // outermost (root) first, current scope last
	CellType *Symbol   // the built-in native "cell" type

	tmpVars    int
	tmpFrames  int
}

// NewTable creates a Table with its root scope and built-in cell type
// already installed.
func NewTable() *Table {
	root := &Symbol{Kind: KindStackframe, Name: "__root__"}
	t := &Table{stack: []*Symbol{root}}
	t.CellType = &Symbol{Kind: KindType, Name: "cell", Native: true}
	root.addChild(t.CellType)
	return t
}

// Current returns the innermost open scope.
func (t *Table) Current() *Symbol {
	return t.stack[len(t.stack)-1]
}

// Push opens scope as the new innermost scope.
func (t *Table) Push(scope *Symbol) {
	t.stack = append(t.stack, scope)
}

// Pop closes the innermost scope. Popping the root (the last remaining
// entry) is an internal-consistency violation and panics.
func (t *Table) Pop() {
	if len(t.stack) <= 1 {
		panic("symbols: cannot pop the root scope")
	}
	t.stack = t.stack[:len(t.stack)-1]
}

// AtRoot reports whether only the root scope remains open; callers check
// this at the end of compilation, to confirm every scope it opened was closed.
func (t *Table) AtRoot() bool {
	return len(t.stack) == 1
}

// Add inserts symbol into the current scope. Adding a name that already
// exists in that same immediate scope fails with a redefinition Error.
func (t *Table) Add(file *token.File, symbol *Symbol, temporary bool) error {
	cur := t.Current()
	if symbol.Name != "" {
		if existing, ok := cur.lookupChild(symbol.Name); ok {
			return &Error{
				Pos:     file.Position(symbol.Pos),
				Code:    CodeSemantic,
				Message: fmt.Sprintf("redefinition of %s, first declared at %s", symbol.Name, file.Position(existing.Pos)),
			}
		}
	}
	symbol.Temporary = temporary
	cur.addChild(symbol)
	return nil
}

// NewTemporaryVariable allocates and adds a fresh, anonymous Variable of
// the given element type and length (default 1) to the current scope.
func (t *Table) NewTemporaryVariable(elemType *Symbol, length int) *Symbol {
	if length < 1 {
		length = 1
	}
	t.tmpVars++
	v := &Symbol{
		Kind:        KindVariable,
		Name:        fmt.Sprintf("__tmp%d", t.tmpVars),
		ElementType: elemType,
		Length:      length,
	}
	_ = t.Add(nil, v, true) // temporaries never collide: names are unique by construction
	return v
}

// NewTemporaryStackframe allocates and adds a fresh, anonymous Stackframe
// scope to the current scope, but does not push it.
func (t *Table) NewTemporaryStackframe() *Symbol {
	t.tmpFrames++
	f := &Symbol{Kind: KindStackframe, Name: fmt.Sprintf("__frame%d", t.tmpFrames)}
	_ = t.Add(nil, f, true)
	return f
}

// Resolve looks up a dotted qualified name. The first component is
// resolved by retreating outward from the current scope through each
// parent until a match is found or the root is exhausted; each subsequent
// component is then resolved strictly among the children of the previously
// resolved symbol, or, when that symbol is a Variable, among the children
// (fields) of its element type.
func (t *Table) Resolve(qualified []string) Resolution {
	if len(qualified) == 0 {
		return Resolution{}
	}

	var first *Symbol
	for scope := t.Current(); scope != nil; scope = scope.Parent {
		if sym, ok := scope.lookupChild(qualified[0]); ok {
			first = sym
			break
		}
	}
	if first == nil {
		return Resolution{}
	}

	path := []*Symbol{first}
	cur := first
	for _, name := range qualified[1:] {
		scope := cur
		if cur.Kind == KindVariable && cur.ElementType != nil {
			scope = cur.ElementType
		}
		next, ok := scope.lookupChild(name)
		if !ok {
			return Resolution{Path: path}
		}
		path = append(path, next)
		cur = next
	}
	return Resolution{Path: path, Resolved: cur}
}
