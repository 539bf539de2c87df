package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"joosc/internal/buildpipeline"
	"joosc/internal/diagfmt"
	"joosc/internal/driver"
	"joosc/internal/project"
	"joosc/internal/ui"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [path...]",
	Short: "Compile Joos sources to x86 assembly",
	Long:  "Compile the given sources (or the joos.toml project in the current directory) together with the bundled standard library.",
	RunE:  buildExecution,
}

func init() {
	buildCmd.Flags().String("out", "", "output directory for assembly files")
	buildCmd.Flags().String("stdlib", "", "standard library source directory")
	buildCmd.Flags().String("ui", "auto", "progress display (auto|plain|fancy)")
	buildCmd.Flags().Int("jobs", 0, "parallel front-end workers (0 = NumCPU)")
	buildCmd.Flags().Bool("timings", false, "report cache status and counts")
}

func buildExecution(cmd *cobra.Command, args []string) error {
	simple, err := cmd.Flags().GetBool("simple")
	if err != nil {
		return err
	}
	maxDiag, err := cmd.Flags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}
	outDir, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	stdlibDir, err := cmd.Flags().GetString("stdlib")
	if err != nil {
		return err
	}
	uiMode, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	timings, err := cmd.Flags().GetBool("timings")
	if err != nil {
		return err
	}

	paths := args
	manifest, merr := project.Load(".")
	switch {
	case merr == nil:
		if len(paths) == 0 {
			paths = manifest.SourceRoots()
		}
		if outDir == "" {
			outDir = filepath.Join(manifest.Root, manifest.Build.Out)
		}
		if stdlibDir == "" && manifest.Build.Stdlib != "" {
			stdlibDir = filepath.Join(manifest.Root, manifest.Build.Stdlib)
		}
	case errors.Is(merr, project.ErrNoManifest):
		// Bare-path compilation.
	default:
		return merr
	}
	if len(paths) == 0 {
		return fmt.Errorf("no sources: pass paths or create joos.toml")
	}
	if outDir == "" {
		outDir = "out"
	}
	if stdlibDir == "" {
		stdlibDir = defaultStdlibDir()
	}

	opts := driver.Options{
		Paths:          paths,
		StdlibDir:      stdlibDir,
		OutDir:         outDir,
		WriteAsm:       true,
		MaxDiagnostics: maxDiag,
		Jobs:           jobs,
	}

	fancy := uiMode == "fancy" || (uiMode == "auto" && isTerminal(os.Stdout) && !simple)
	var events chan buildpipeline.Event
	var uiDone chan struct{}
	if fancy {
		events = make(chan buildpipeline.Event, 64)
		opts.Events = events
		uiDone = make(chan struct{})
		model := ui.NewProgressModel("joosc build", paths, events)
		go func() {
			defer close(uiDone)
			_, _ = tea.NewProgram(model).Run()
		}()
	}

	res, err := driver.Compile(context.Background(), opts)
	if events != nil {
		close(events)
		<-uiDone
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "joosc: %v\n", err)
		os.Exit(driver.ExitInternal)
	}

	res.Bag.Sort()
	if simple {
		diagfmt.Simple(os.Stderr, res.Bag)
	} else {
		popts := diagfmt.DefaultPrettyOpts()
		popts.Color = useColor(cmd, os.Stderr)
		diagfmt.Pretty(os.Stderr, res.Bag, res.FileSet, popts)
	}

	if timings {
		fmt.Fprintf(os.Stderr, "files: %d, diagnostics: %d, cache hit: %v\n",
			res.FileSet.Len(), res.Bag.Len(), res.CacheHit)
	}

	if res.ExitCode != driver.ExitOK {
		os.Exit(res.ExitCode)
	}
	return nil
}

// defaultStdlibDir finds the bundled stdlib next to the executable, then
// in the working directory.
func defaultStdlibDir() string {
	if exe, err := os.Executable(); err == nil {
		cand := filepath.Join(filepath.Dir(exe), "stdlib")
		if st, err := os.Stat(cand); err == nil && st.IsDir() {
			return cand
		}
	}
	return "stdlib"
}
