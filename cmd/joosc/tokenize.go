package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"joosc/internal/diag"
	"joosc/internal/diagfmt"
	"joosc/internal/lexer"
	"joosc/internal/source"
	"joosc/internal/token"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize <file>",
	Short: "Dump the token stream of one file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fset := source.NewFileSet()
		fid, err := fset.Load(args[0], 0)
		if err != nil {
			return err
		}

		bag := diag.NewBag(100)
		toks := lexer.LexFile(fset.Get(fid), diag.BagReporter{Bag: bag})
		for _, t := range toks {
			if t.Kind == token.EOF {
				break
			}
			start, _ := fset.Resolve(t.Span)
			fmt.Printf("%4d:%-3d %-18s %q\n", start.Line, start.Col, t.Kind, t.Text)
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
