// Package symbols implements the symbol tree and scope stack of the
// tape-machine compiler: four node kinds (Type, Variable, Function,
// Stackframe) sharing a common header, scoped name resolution, and the
// stackframe-relative addressing rules the emitter depends on.
package symbols

import (
	"fmt"

	"github.com/bflang/tapec/lang/token"
	"github.com/dolthub/swiss"
	"golang.org/x/exp/slices"
)

// Kind discriminates the four symbol node shapes.
type Kind uint8

const (
	KindType Kind = iota
	KindVariable
	KindFunction
	KindStackframe
)

func (k Kind) String() string {
	switch k {
	case KindType:
		return "Type"
	case KindVariable:
		return "Variable"
	case KindFunction:
		return "Function"
	case KindStackframe:
		return "Stackframe"
	default:
		return "Unknown"
	}
}

// Symbol is a node in the symbol tree. The fields used depend on Kind; see
// the per-kind constructors below.
type Symbol struct {
	Kind      Kind
	Name      string
	Pos       token.Pos
	Parent    *Symbol
	Children  []*Symbol
	Temporary bool // anonymous, lowerer-introduced symbol
	Hidden    bool // excluded from non-verbose symbol table dumps

	// Type fields.
	Native bool // true only for the built-in "cell" type: size fixed at 1

	// Variable fields.
	ElementType *Symbol // the Type this variable holds
	Length      int     // array length, >= 1
	Pointer     bool    // declared with a pointer/array modifier

	// Function fields.
	EntryLabel int
	MemberOf   *Symbol   // enclosing type, for member functions
	Params     []*Symbol // ordered parameter Variables
	Results    []*Symbol // ordered return-slot Variables

	byName *swiss.Map[string, *Symbol] // scope index, lazily built
}

// String renders a one-line description used by diagnostics and the symbol
// table dump, matching the column layout the symbol table dump uses.
func (s *Symbol) String() string {
	switch s.Kind {
	case KindFunction:
		return fmt.Sprintf("Function %s address=%d", s.QualifiedName(), s.EntryLabel)
	case KindVariable:
		return fmt.Sprintf("Variable %s address=%d size=%d length=%d type=%s",
			s.QualifiedName(), s.StackAddress(), s.StackSize(), s.Length, s.ElementType.Name)
	case KindType:
		return fmt.Sprintf("Type %s size=%d", s.QualifiedName(), s.TypeSize())
	default:
		return fmt.Sprintf("Stackframe %s", s.QualifiedName())
	}
}

// QualifiedName joins this symbol's name with all of its named ancestors',
// skipping the root stackframe.
func (s *Symbol) QualifiedName() string {
	if s.Parent == nil || s.Parent.Parent == nil {
		return s.Name
	}
	return s.Parent.QualifiedName() + "." + s.Name
}

// scopeIndex returns (lazily creating) the name->child lookup map for a
// symbol used as a scope.
func (s *Symbol) scopeIndex() *swiss.Map[string, *Symbol] {
	if s.byName == nil {
		s.byName = swiss.NewMap[string, *Symbol](8)
	}
	return s.byName
}

// addChild appends child to s's ordered children and indexes it by name,
// without any redefinition checking (the caller, Table.Add, does that).
func (s *Symbol) addChild(child *Symbol) {
	child.Parent = s
	s.Children = append(s.Children, child)
	if child.Name != "" {
		s.scopeIndex().Put(child.Name, child)
	}
}

// lookupChild finds a direct, named child of s.
func (s *Symbol) lookupChild(name string) (*Symbol, bool) {
	if s.byName == nil {
		return nil, false
	}
	return s.byName.Get(name)
}

// LookupChild finds a direct, named child of s: a type's field, or a
// type's member function.
func (s *Symbol) LookupChild(name string) (*Symbol, bool) {
	return s.lookupChild(name)
}

// TypeSize returns a Type symbol's size in cells: the built-in native cell
// is fixed at 1; every other type's size is the sum of its fields' sizes
// on the stack.
func (s *Symbol) TypeSize() int {
	if s.Kind != KindType {
		panic("symbols: TypeSize on non-Type symbol " + s.Kind.String())
	}
	if s.Native {
		return 1
	}
	total := 0
	for _, f := range s.Children {
		if f.Kind != KindVariable {
			continue // member functions are children too but hold no cells
		}
		total += f.StackSize()
	}
	return total
}

// StackSize returns the number of cells a Variable occupies: its element
// type's size times its length.
func (s *Symbol) StackSize() int {
	if s.Kind != KindVariable {
		panic("symbols: StackSize on non-Variable symbol " + s.Kind.String())
	}
	return s.ElementType.TypeSize() * s.Length
}

// ownSize returns how many cells this symbol contributes when it appears
// as an entry in its parent's ordered children: a Variable's StackSize, a
// nested Stackframe or Function's own total, or zero for a Type (type
// declarations do not occupy stack space in the scope they're declared in).
func (s *Symbol) ownSize() int {
	switch s.Kind {
	case KindVariable:
		return s.StackSize()
	case KindStackframe, KindFunction:
		total := 0
		for _, c := range s.Children {
			total += c.ownSize()
		}
		return total
	default:
		return 0
	}
}

// OffsetInParent returns the sum of the stack sizes of every symbol listed
// before this one in its parent's ordered children (the building block
// for StackAddress, and the sole addressing rule for a dotted field's
// position within its declaring type).
func (s *Symbol) OffsetInParent() int {
	if s.Parent == nil {
		return 0
	}
	idx := slices.Index(s.Parent.Children, s)
	if idx < 0 {
		panic("symbols: symbol " + s.Name + " not found among its parent's children")
	}
	addr := 0
	for _, sib := range s.Parent.Children[:idx] {
		addr += sib.ownSize()
	}
	return addr
}

// StackAddress returns a Variable's or Stackframe's address relative to its
// enclosing function's stackframe: the recursive sum of OffsetInParent
// along the chain of enclosing scratch stackframes, stopping at (and not
// including) the enclosing Function.
func (s *Symbol) StackAddress() int {
	if s.Kind == KindFunction {
		return 0
	}
	if s.Parent == nil {
		return 0
	}
	return s.Parent.StackAddress() + s.OffsetInParent()
}

// FrameSize returns the total number of cells a Function or Stackframe
// symbol's children currently occupy, including every scratch stackframe
// and temporary the lowerer has added to it so far.
func (s *Symbol) FrameSize() int { return s.ownSize() }

// EnclosingFunction walks up the symbol tree to find the nearest Function
// ancestor (or itself if s is a Function), returning nil at the root.
func (s *Symbol) EnclosingFunction() *Symbol {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Kind == KindFunction {
			return cur
		}
	}
	return nil
}
