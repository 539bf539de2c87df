package driver

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"joosc/internal/ast"
	"joosc/internal/buildpipeline"
	"joosc/internal/diag"
	"joosc/internal/lexer"
	"joosc/internal/parser"
	"joosc/internal/source"
)

// parseAll lexes and parses every file in the set concurrently, one bag
// per file so diagnostics stay deterministic after the ordered merge.
func parseAll(ctx context.Context, fset *source.FileSet, jobs int, events buildpipeline.Sink) (*ast.Program, []*diag.Bag) {
	n := fset.Len()
	files := make([]*ast.File, n)
	bags := make([]*diag.Bag, n)

	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			f := fset.Get(source.FileID(i))
			bag := diag.NewBag(50)
			reporter := diag.BagReporter{Bag: bag}

			events.Send(buildpipeline.Event{Stage: buildpipeline.StageLex, Path: f.Path})
			toks := lexer.LexFile(f, reporter)

			events.Send(buildpipeline.Event{Stage: buildpipeline.StageParse, Path: f.Path, Failed: bag.HasErrors()})
			parsed := parser.ParseFile(f.ID, toks, reporter)
			parsed.Stdlib = f.Flags&source.FileStdlib != 0

			files[i] = parsed
			bags[i] = bag
			return nil
		})
	}
	_ = g.Wait()

	return &ast.Program{Files: files}, bags
}
