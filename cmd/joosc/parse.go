package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"joosc/internal/ast"
	"joosc/internal/diag"
	"joosc/internal/diagfmt"
	"joosc/internal/lexer"
	"joosc/internal/parser"
	"joosc/internal/source"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse one file and dump its declaration shape",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fset := source.NewFileSet()
		fid, err := fset.Load(args[0], 0)
		if err != nil {
			return err
		}

		bag := diag.NewBag(100)
		reporter := diag.BagReporter{Bag: bag}
		toks := lexer.LexFile(fset.Get(fid), reporter)
		f := parser.ParseFile(fid, toks, reporter)

		if f.Decl != nil {
			fmt.Printf("%s %s\n", f.Decl.Kind, f.Decl.Name)
			for _, fd := range f.Decl.Fields {
				fmt.Printf("  field  %s %s\n", fd.Type.Name(), fd.Name)
			}
			for _, md := range f.Decl.Methods {
				kind := "method"
				if md.IsConstructor() {
					kind = "ctor  "
				}
				fmt.Printf("  %s %s/%d\n", kind, md.Name, len(md.Params))
			}
			stmts := 0
			ast.Walk(f.Decl, ast.Visitor{Pre: func(n ast.Node) ast.VisitResult {
				if _, ok := n.(ast.Stmt); ok {
					stmts++
				}
				return ast.Recurse
			}})
			fmt.Printf("  statements: %d\n", stmts)
		}

		bag.Sort()
		simple, _ := cmd.Flags().GetBool("simple")
		if simple {
			diagfmt.Simple(os.Stderr, bag)
		} else {
			popts := diagfmt.DefaultPrettyOpts()
			popts.Color = useColor(cmd, os.Stderr)
			diagfmt.Pretty(os.Stderr, bag, fset, popts)
		}
		if bag.HasErrors() {
			os.Exit(42)
		}
		return nil
	},
}
