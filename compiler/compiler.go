// Package compiler drives the four-stage pipeline — registrar, lowerer,
// label allocator, emitter — over one chunk, and writes the resulting
// artifacts to a caller-supplied set of sinks.
package compiler

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/bflang/tapec/lang/ast"
	"github.com/bflang/tapec/lang/emit"
	"github.com/bflang/tapec/lang/ir"
	"github.com/bflang/tapec/lang/lower"
	"github.com/bflang/tapec/lang/registrar"
	"github.com/bflang/tapec/lang/symbols"
	"github.com/bflang/tapec/lang/token"
)

// CompilerOptions configures one CompileChunk call.
type CompilerOptions struct {
	// Debug enables the emitter's head-underflow assertion, a check made
	// while emitting that leaves the tape program itself unchanged; off by
	// default, the way a release build of an assembler disables its own
	// bounds checks.
	Debug bool

	// Stream writes each function's IR listing as soon as it is lowered
	// rather than buffering the whole listing until the chunk compiles
	// successfully. The tape program and the symbol table dump are always
	// written as a single unit on success: the tape's dispatcher loop is
	// one bracket wrapped around the entire instruction stream, and the
	// symbol table keeps gaining temporaries until the last function is
	// lowered, so neither has a meaningful partial form.
	Stream bool

	// Verbose includes Temporary and Hidden symbols in the symbol table
	// dump; by default they are omitted as noise.
	Verbose bool

	// LabelCellBits bounds how many labels the label allocator may hand
	// out before panicking, matching the cell width the emitted tape
	// program assumes. Zero defaults to 8.
	LabelCellBits int

	// Warnings receives non-fatal diagnostics. Defaults to io.Discard;
	// nothing currently writes to it, but symbol-table or lowering
	// advisories land here once they exist rather than on the error path.
	Warnings io.Writer
}

// Sinks are the three independent output streams a successful compilation
// produces: the human-readable IR listing, the tape-machine program bytes,
// and the symbol table dump. Any of the three may be nil to suppress it.
type Sinks struct {
	IRListing   io.Writer
	Tape        io.Writer
	SymbolTable io.Writer
}

// CompileChunk registers, lowers, and emits chunk, writing its artifacts to
// sinks. ctx is checked between functions so a caller can cancel a
// compilation of an unusually large chunk; nothing here blocks on I/O or a
// network, so in practice every compilation runs to completion or returns
// ctx.Err() at the next function boundary.
func CompileChunk(ctx context.Context, file *token.File, chunk *ast.Chunk, opts CompilerOptions, sinks Sinks) error {
	if opts.Warnings == nil {
		opts.Warnings = io.Discard
	}

	table := symbols.NewTable()
	labels := lower.NewLabelAllocator(opts.LabelCellBits)

	reg := registrar.New(file, table, labels)
	if err := reg.Register(chunk); err != nil {
		return err
	}
	if reg.Main == nil {
		return &symbols.Error{
			Pos:     file.Position(chunk.Pos()),
			Code:    symbols.CodeSemantic,
			Message: "no main function declared",
		}
	}

	var irListing bytes.Buffer
	listingSink := &irListing
	if opts.Stream {
		// Nothing is buffered: each function's block goes straight to the
		// real sink as soon as it lowers, so a later failure still leaves
		// everything lowered so far on the page.
		listingSink = nil
	}

	prog := &ir.Program{Name: chunk.Name}
	lw := lower.New(file, table, labels, reg.Main)

	for _, decl := range chunk.Decls {
		fd, ok := decl.(*ast.FuncDeclStmt)
		if !ok {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fnSym := lookupFuncSymbol(table, fd)
		fn, err := lw.LowerFunction(fnSym, fd.Body)
		if err != nil {
			// In stream mode every function lowered before this one has
			// already been written to sinks.IRListing as it completed;
			// there is nothing further to flush here.
			return err
		}
		prog.Functions = append(prog.Functions, fn)

		if opts.Stream && sinks.IRListing != nil {
			if err := ir.Disassemble(sinks.IRListing, &ir.Program{Name: chunk.Name, Functions: []*ir.Function{fn}}); err != nil {
				return err
			}
		}
	}

	if !table.AtRoot() {
		panic("compiler: scope stack not unwound after compilation")
	}

	if listingSink != nil {
		if err := ir.Disassemble(listingSink, prog); err != nil {
			return err
		}
	}

	emitter := emit.NewEmitter()
	emitter.Debug = opts.Debug
	tape, err := emitter.Emit(prog, reg.Main.EntryLabel)
	if err != nil {
		return err
	}

	if listingSink != nil && sinks.IRListing != nil {
		if _, err := sinks.IRListing.Write(irListing.Bytes()); err != nil {
			return err
		}
	}
	if sinks.Tape != nil {
		if _, err := sinks.Tape.Write(tape); err != nil {
			return err
		}
	}
	if sinks.SymbolTable != nil {
		if err := dumpSymbolTable(sinks.SymbolTable, table, opts.Verbose); err != nil {
			return err
		}
	}
	return nil
}

// lookupFuncSymbol finds the Symbol the registrar already created for fd.
// A miss here means the registrar and this lookup have drifted out of
// sync with each other, an internal-consistency violation rather than a
// user-facing error.
func lookupFuncSymbol(table *symbols.Table, fd *ast.FuncDeclStmt) *symbols.Symbol {
	receiver, isMember := fd.Receiver()
	name := fd.Name()
	if !isMember {
		res := table.Resolve([]string{name})
		if !res.Found() || res.Resolved.Kind != symbols.KindFunction {
			panic(fmt.Sprintf("compiler: registered function %q missing from symbol table", name))
		}
		return res.Resolved
	}
	res := table.Resolve(receiver)
	if !res.Found() || res.Resolved.Kind != symbols.KindType {
		panic(fmt.Sprintf("compiler: registered receiver type %v missing from symbol table", receiver))
	}
	fnSym, ok := res.Resolved.LookupChild(name)
	if !ok {
		panic(fmt.Sprintf("compiler: registered method %s.%s missing from symbol table", receiver, name))
	}
	return fnSym
}
