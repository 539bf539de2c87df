package sema_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"joosc/internal/diag"
	"joosc/internal/driver"
)

// checkFiles runs the full pipeline (no assembly) over the given virtual
// files plus the bundled stdlib.
func checkFiles(t *testing.T, files map[string]string) *driver.Result {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	srcDir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(srcDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	res, err := driver.Compile(context.Background(), driver.Options{
		Paths:     []string{srcDir},
		StdlibDir: "../../stdlib",
		WriteAsm:  false,
		Jobs:      2,
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return res
}

// checkMembers wraps extra members into a Main class with an entry point.
func checkMembers(t *testing.T, members string, extra map[string]string) *driver.Result {
	t.Helper()
	files := map[string]string{
		"Main.java": "public class Main {\n" +
			"    public Main() {}\n" +
			"    public static int test() { return 0; }\n" +
			members + "\n}\n",
	}
	for name, content := range extra {
		files[name] = content
	}
	return checkFiles(t, files)
}

// checkBody wraps statements into a method with a boolean parameter, the
// common shape for flow-sensitivity cases.
func checkBody(t *testing.T, stmts string) *driver.Result {
	t.Helper()
	return checkMembers(t, "    public static int run(boolean flag) {\n"+stmts+"\n    }", nil)
}

func bagHas(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func firstError(bag *diag.Bag) diag.Code {
	for _, d := range bag.Items() {
		if d.Severity >= diag.SevError {
			return d.Code
		}
	}
	return diag.UnknownCode
}
