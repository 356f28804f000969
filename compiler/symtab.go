package compiler

import (
	"fmt"
	"io"

	"github.com/bflang/tapec/lang/symbols"
)

// dumpSymbolTable writes one line per symbol, indented by nesting depth,
// in declaration order starting from root's children (root itself, the
// table's synthetic top stackframe, is never printed). Temporary and
// Hidden symbols — lowerer scratch and the per-function return-address
// slot — are skipped unless verbose is set.
func dumpSymbolTable(w io.Writer, table *symbols.Table, verbose bool) error {
	root := table.Current()
	for root.Parent != nil {
		root = root.Parent
	}
	return dumpSymbol(w, root, 0, verbose)
}

func dumpSymbol(w io.Writer, s *symbols.Symbol, depth int, verbose bool) error {
	for _, child := range s.Children {
		if !verbose && (child.Temporary || child.Hidden) {
			continue
		}
		for i := 0; i < depth; i++ {
			if _, err := io.WriteString(w, "  "); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, child.String()); err != nil {
			return err
		}
		if err := dumpSymbol(w, child, depth+1, verbose); err != nil {
			return err
		}
	}
	return nil
}
