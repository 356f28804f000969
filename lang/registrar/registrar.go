// Package registrar implements the symbol registrar: the first AST walk
// that pre-declares types, functions (with forward references permitted,
// each given a fresh entry label up front), and module-level variables,
// laying out every function's stackframe header before the lowerer visits
// any body.
package registrar

import (
	"fmt"

	"github.com/bflang/tapec/lang/ast"
	"github.com/bflang/tapec/lang/lower"
	"github.com/bflang/tapec/lang/symbols"
	"github.com/bflang/tapec/lang/token"
)

// Registrar owns the label allocator shared with the lowerer and the
// symbol table being populated.
type Registrar struct {
	File   *token.File
	Table  *symbols.Table
	Labels *lower.LabelAllocator

	Main *symbols.Symbol // set once "main" is registered
}

// New creates a Registrar over an already-initialized symbol table.
func New(file *token.File, table *symbols.Table, labels *lower.LabelAllocator) *Registrar {
	return &Registrar{File: file, Table: table, Labels: labels}
}

// Register runs the three declaration passes over chunk's top-level
// declarations: types first (so member functions can resolve their
// receiver), then functions (forward-declarable among themselves), then
// module-level variables.
func (r *Registrar) Register(chunk *ast.Chunk) error {
	for _, decl := range chunk.Decls {
		if td, ok := decl.(*ast.TypeDeclStmt); ok {
			if err := r.registerType(td); err != nil {
				return err
			}
		}
	}
	for _, decl := range chunk.Decls {
		if fd, ok := decl.(*ast.FuncDeclStmt); ok {
			if err := r.registerFunc(fd); err != nil {
				return err
			}
		}
	}
	for _, decl := range chunk.Decls {
		if vd, ok := decl.(*ast.VarDeclStmt); ok {
			if err := r.registerModuleVars(vd); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Registrar) registerType(td *ast.TypeDeclStmt) error {
	sym := &symbols.Symbol{Kind: symbols.KindType, Name: td.Name, Pos: td.Pos()}
	if err := r.Table.Add(r.File, sym, false); err != nil {
		return err
	}
	r.Table.Push(sym)
	defer r.Table.Pop()

	for _, field := range td.Fields {
		elemType, length, pointer, err := r.resolveVarSpecType(field)
		if err != nil {
			return err
		}
		fieldSym := &symbols.Symbol{
			Kind:        symbols.KindVariable,
			Name:        field.Name,
			Pos:         field.Pos(),
			ElementType: elemType,
			Length:      length,
			Pointer:     pointer,
		}
		if err := r.Table.Add(r.File, fieldSym, false); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registrar) registerFunc(fd *ast.FuncDeclStmt) error {
	var memberOf *symbols.Symbol
	if receiver, ok := fd.Receiver(); ok {
		res := r.Table.Resolve(receiver)
		if !res.Found() || res.Resolved.Kind != symbols.KindType {
			return &symbols.Error{
				Pos:     r.File.Position(fd.Pos()),
				Code:    symbols.CodeResolution,
				Message: fmt.Sprintf("unresolved receiver type %v", receiver),
			}
		}
		memberOf = res.Resolved
	}

	name := fd.Name()
	fn := &symbols.Symbol{
		Kind:       symbols.KindFunction,
		Name:       name,
		Pos:        fd.Pos(),
		EntryLabel: r.Labels.Next(),
		MemberOf:   memberOf,
	}

	if memberOf != nil {
		r.Table.Push(memberOf)
		err := r.Table.Add(r.File, fn, false)
		r.Table.Pop()
		if err != nil {
			return err
		}
	} else {
		if name == "main" {
			if r.Main != nil {
				return &symbols.Error{
					Pos:     r.File.Position(fd.Pos()),
					Code:    symbols.CodeSemantic,
					Message: "multiple definitions of main",
				}
			}
			r.Main = fn
		}
		if err := r.Table.Add(r.File, fn, false); err != nil {
			return err
		}
	}

	r.Table.Push(fn)
	defer r.Table.Pop()

	// Cell 0 of every function's stackframe is its return-address slot.
	retAddr := &symbols.Symbol{Kind: symbols.KindVariable, Name: "$retaddr", ElementType: r.Table.CellType, Length: 1, Hidden: true}
	if err := r.Table.Add(r.File, retAddr, true); err != nil {
		return err
	}

	for _, result := range fd.Results {
		elemType, length, pointer, err := r.resolveVarSpecType(result)
		if err != nil {
			return err
		}
		sym := &symbols.Symbol{Kind: symbols.KindVariable, Name: result.Name, Pos: result.Pos(), ElementType: elemType, Length: length, Pointer: pointer}
		if err := r.Table.Add(r.File, sym, false); err != nil {
			return err
		}
		fn.Results = append(fn.Results, sym)
	}

	for _, param := range fd.Params {
		elemType, length, pointer, err := r.resolveVarSpecType(param)
		if err != nil {
			return err
		}
		sym := &symbols.Symbol{Kind: symbols.KindVariable, Name: param.Name, Pos: param.Pos(), ElementType: elemType, Length: length, Pointer: pointer}
		if err := r.Table.Add(r.File, sym, false); err != nil {
			return err
		}
		fn.Params = append(fn.Params, sym)
	}

	return nil
}

func (r *Registrar) registerModuleVars(vd *ast.VarDeclStmt) error {
	for _, v := range vd.Vars {
		elemType, length, pointer, err := r.resolveVarSpecType(v)
		if err != nil {
			return err
		}
		sym := &symbols.Symbol{Kind: symbols.KindVariable, Name: v.Name, Pos: v.Pos(), ElementType: elemType, Length: length, Pointer: pointer}
		if err := r.Table.Add(r.File, sym, false); err != nil {
			return err
		}
	}
	return nil
}

// resolveVarSpecType resolves a VarSpec's declared type, defaulting to the
// native cell, and rejects the reserved-but-unimplemented signed modifier.
func (r *Registrar) resolveVarSpecType(v *ast.VarSpec) (elemType *symbols.Symbol, length int, pointer bool, err error) {
	if v.Type == nil {
		return r.Table.CellType, 1, false, nil
	}
	if v.Type.Signed {
		return nil, 0, false, &symbols.Error{
			Pos:     r.File.Position(v.Type.Pos()),
			Code:    symbols.CodeSemantic,
			Message: "signed arithmetic is reserved but unimplemented",
		}
	}
	res := r.Table.Resolve(v.Type.Qualified)
	if !res.Found() || res.Resolved.Kind != symbols.KindType {
		return nil, 0, false, &symbols.Error{
			Pos:     r.File.Position(v.Type.Pos()),
			Code:    symbols.CodeResolution,
			Message: fmt.Sprintf("unresolved type %v", v.Type.Qualified),
		}
	}
	length = v.Type.Length
	if length < 1 {
		length = 1
	}
	return res.Resolved, length, v.Type.Pointer, nil
}
