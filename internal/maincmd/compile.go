package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/bflang/tapec/compiler"
	"github.com/bflang/tapec/internal/fixtures"
	"github.com/bflang/tapec/lang/token"
)

// Compile runs the full pipeline for each named fixture and writes its
// tape-machine program to stdout.
func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return c.runPipeline(ctx, stdio, args, compiler.Sinks{Tape: stdio.Stdout})
}

// Ir runs the full pipeline for each named fixture and writes its IR
// listing to stdout.
func (c *Cmd) Ir(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return c.runPipeline(ctx, stdio, args, compiler.Sinks{IRListing: stdio.Stdout})
}

// Symtab runs the full pipeline for each named fixture and writes its
// symbol table dump to stdout.
func (c *Cmd) Symtab(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return c.runPipeline(ctx, stdio, args, compiler.Sinks{SymbolTable: stdio.Stdout})
}

// List prints the names of the built-in fixtures, standing in for the
// file arguments a real source-file front end would accept. Names come
// back from a map, so the keys are sorted before printing to keep the
// output stable across runs.
func (c *Cmd) List(ctx context.Context, stdio mainer.Stdio, args []string) error {
	names := maps.Keys(fixtureIndex())
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintln(stdio.Stdout, name)
	}
	return nil
}

func fixtureIndex() map[string]fixtures.Fixture {
	byName := make(map[string]fixtures.Fixture)
	for _, f := range fixtures.All() {
		byName[f.Name] = f
	}
	return byName
}

func (c *Cmd) runPipeline(ctx context.Context, stdio mainer.Stdio, names []string, sinks compiler.Sinks) error {
	byName := fixtureIndex()

	opts := compiler.CompilerOptions{
		Debug:   c.Debug,
		Stream:  c.Stream,
		Verbose: c.Verbose,
	}

	for _, name := range names {
		f, ok := byName[name]
		if !ok {
			fmt.Fprintf(stdio.Stderr, "%s: unknown fixture\n", name)
			return fmt.Errorf("unknown fixture: %s", name)
		}
		file := token.NewFile(f.Chunk.Name)
		if err := compiler.CompileChunk(ctx, file, f.Chunk, opts, sinks); err != nil {
			fmt.Fprintf(stdio.Stderr, "%s\n", err)
			return err
		}
	}
	return nil
}
