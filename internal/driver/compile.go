// Package driver orchestrates the compile pipeline: file loading, the
// parallel front end, the sequential analysis phases, and assembly output.
package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"joosc/internal/ast"
	"joosc/internal/backend/x86"
	"joosc/internal/buildpipeline"
	"joosc/internal/diag"
	"joosc/internal/ir"
	"joosc/internal/layout"
	"joosc/internal/linkids"
	"joosc/internal/sema"
	"joosc/internal/source"
	"joosc/internal/symbols"
	"joosc/internal/types"
	"joosc/internal/weeder"
)

// Exit codes follow the Joos convention.
const (
	ExitOK       = 0
	ExitInternal = 1
	ExitCompile  = 42
)

// Options configures one compile.
type Options struct {
	// Paths are the user sources: files or directories walked for .java.
	Paths []string
	// StdlibDir holds the bundled standard library sources.
	StdlibDir string
	// OutDir receives the assembly files.
	OutDir string
	// WriteAsm disables the backend when false (diagnose-only runs).
	WriteAsm bool

	MaxDiagnostics int
	Jobs           int

	Events buildpipeline.Sink
}

// Result is the outcome of one compile.
type Result struct {
	Bag      *diag.Bag
	FileSet  *source.FileSet
	ExitCode int

	// Program and layout survive for tests and tooling.
	Program *ir.Program
	Offsets *layout.OffsetTable
	TypeMap *types.TypeInfoMap
	Strings *sema.ConstStrings

	CacheHit bool
}

// Compile runs the whole pipeline. Phases after parsing are sequential;
// any diagnostics of error severity stop the pipeline at the next stage
// boundary.
func Compile(ctx context.Context, opts Options) (*Result, error) {
	if opts.MaxDiagnostics == 0 {
		opts.MaxDiagnostics = 100
	}
	bag := diag.NewBag(opts.MaxDiagnostics)
	reporter := diag.BagReporter{Bag: bag}
	res := &Result{Bag: bag, ExitCode: ExitOK}

	fset := source.NewFileSet()
	res.FileSet = fset

	userFiles, err := listJavaFiles(opts.Paths)
	if err != nil {
		res.ExitCode = ExitInternal
		return res, err
	}
	var stdlibFiles []string
	if opts.StdlibDir != "" {
		stdlibFiles, err = listJavaFiles([]string{opts.StdlibDir})
		if err != nil {
			res.ExitCode = ExitInternal
			return res, err
		}
	}

	opts.Events.Send(buildpipeline.Event{Stage: buildpipeline.StageLoad})
	for _, path := range userFiles {
		if _, err := fset.Load(path, 0); err != nil {
			res.ExitCode = ExitInternal
			return res, err
		}
	}
	for _, path := range stdlibFiles {
		if _, err := fset.Load(path, source.FileStdlib); err != nil {
			res.ExitCode = ExitInternal
			return res, err
		}
	}

	if cache, err := OpenDiskCache("joosc"); err == nil {
		if payload, ok := cache.Load(digestOf(fset)); ok && payload.Schema == diskCacheSchemaVersion {
			res.CacheHit = true
		}
	}

	// Front end: lex and parse every file concurrently.
	prog, frontBags := parseAll(ctx, fset, opts.Jobs, opts.Events)
	for _, fb := range frontBags {
		bag.Merge(fb)
	}
	if stop(res) {
		return res, nil
	}

	opts.Events.Send(buildpipeline.Event{Stage: buildpipeline.StageWeed})
	for _, f := range prog.Files {
		weeder.WeedFile(f, reporter)
	}
	if stop(res) {
		return res, nil
	}

	opts.Events.Send(buildpipeline.Event{Stage: buildpipeline.StageTypes})
	set := symbols.Collect(prog, reporter)
	if stop(res) {
		return res, nil
	}
	syms := symbols.Resolve(prog, set, reporter)
	if stop(res) {
		return res, nil
	}

	objectBase := uint64(0)
	if tid, ok := set.Get("java.lang.Object"); ok {
		objectBase = tid.Base
	}
	tmap := types.BuildHierarchy(syms.Raw, objectBase, syms.Alloc, reporter)
	res.TypeMap = tmap
	if stop(res) {
		return res, nil
	}

	ids, ok := linkids.Resolve(set, tmap, userTypeOrder(prog), reporter)
	if !ok || stop(res) {
		if res.ExitCode == ExitOK {
			res.ExitCode = ExitCompile
		}
		return res, nil
	}

	opts.Events.Send(buildpipeline.Event{Stage: buildpipeline.StageCheck})
	semaRes := sema.Check(syms, tmap, ids, reporter)
	res.Strings = semaRes.Strings
	if stop(res) {
		return res, nil
	}

	opts.Events.Send(buildpipeline.Event{Stage: buildpipeline.StageLower})
	gen := ir.NewGenerator(syms, tmap, ids, fset, semaRes)
	irProg := gen.Generate()
	res.Program = irProg

	offsets := layout.Build(tmap)
	res.Offsets = offsets

	if opts.WriteAsm {
		opts.Events.Send(buildpipeline.Event{Stage: buildpipeline.StageEmit})
		w := x86.NewWriter(offsets, tmap, ids, semaRes.Strings, fset)
		if err := w.WriteProgram(irProg, opts.OutDir); err != nil {
			res.ExitCode = ExitInternal
			return res, err
		}
	}

	if cache, err := OpenDiskCache("joosc"); err == nil {
		_ = cache.Store(digestOf(fset), DiskPayload{
			Schema:  diskCacheSchemaVersion,
			Files:   len(prog.Files),
			Healthy: true,
		})
	}

	opts.Events.Send(buildpipeline.Event{Stage: buildpipeline.StageDone, Done: true})
	return res, nil
}

func stop(res *Result) bool {
	if res.Bag.HasErrors() {
		res.ExitCode = ExitCompile
		return true
	}
	return false
}

// userTypeOrder lists declared user types in file order, for entry-point
// selection.
func userTypeOrder(prog *ast.Program) []types.TypeId {
	var out []types.TypeId
	for _, f := range prog.Files {
		if f.Decl != nil && f.Decl.Tid.IsUserType() && !f.Stdlib {
			out = append(out, f.Decl.Tid)
		}
	}
	return out
}

// listJavaFiles expands files and directories into a sorted .java list.
func listJavaFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		err := filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ".java") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}
