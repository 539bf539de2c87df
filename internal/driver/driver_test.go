package driver_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"joosc/internal/diag"
	"joosc/internal/driver"
	"joosc/internal/ir"
	"joosc/internal/types"
)

// compileSrc writes the given virtual files into a temp tree and runs the
// full pipeline against the bundled stdlib.
func compileSrc(t *testing.T, files map[string]string, writeAsm bool) (*driver.Result, string) {
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

	outDir := t.TempDir()
	res, err := driver.Compile(context.Background(), driver.Options{
		Paths:     []string{srcDir},
		StdlibDir: "../../stdlib",
		OutDir:    outDir,
		WriteAsm:  writeAsm,
		Jobs:      2,
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return res, outDir
}

func bagHas(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

const mainOK = `public class Main {
    public Main() {}
    public static int test() { return 0; }
}
`

func TestCompileHelloWorld(t *testing.T) {
	res, _ := compileSrc(t, map[string]string{
		"Main.java": `public class Main {
    public Main() {}
    public static int test() {
        System.out.println("hello");
        return 0;
    }
}`,
	}, true)
	if res.ExitCode != driver.ExitOK {
		t.Fatalf("exit %d, diagnostics: %+v", res.ExitCode, res.Bag.Items())
	}
}

func TestDuplicateTypeDefinition(t *testing.T) {
	res, _ := compileSrc(t, map[string]string{
		"one/Foo.java": "package foo;\npublic class Foo { public Foo() {} }\n",
		"two/Foo.java": "package foo;\npublic class Foo { public Foo() {} }\n",
		"Main.java":    mainOK,
	}, false)
	if res.ExitCode != driver.ExitCompile {
		t.Fatalf("exit %d", res.ExitCode)
	}
	if !bagHas(res.Bag, diag.SetTypeDuplicateDefinition) {
		t.Fatalf("expected TypeDuplicateDefinition, got %+v", res.Bag.Items())
	}
}

func TestAmbiguousWildcardImport(t *testing.T) {
	res, _ := compileSrc(t, map[string]string{
		"a/bar.java": "package a;\npublic class bar { public bar() {} }\n",
		"b/bar.java": "package b;\npublic class bar { public bar() {} }\n",
		"c/bar.java": "package c;\npublic class bar { public bar() {} }\n",
		"d/Use.java": `package d;
import a.*;
import b.*;
import c.*;
public class Use {
    public Use() {}
    public bar make() { return null; }
}`,
		"Main.java": mainOK,
	}, false)
	if res.ExitCode != driver.ExitCompile {
		t.Fatalf("exit %d, diagnostics: %+v", res.ExitCode, res.Bag.Items())
	}
	if !bagHas(res.Bag, diag.SetAmbiguousType) {
		t.Fatalf("expected AmbiguousType, got %+v", res.Bag.Items())
	}
}

func TestOverrideReturnTypeScenario(t *testing.T) {
	res, _ := compileSrc(t, map[string]string{
		"A.java": `public class A {
    public A() {}
    public int f() { return 0; }
}`,
		"B.java": `public class B extends A {
    public B() {}
    public boolean f() { return true; }
}`,
		"Main.java": mainOK,
	}, false)
	if !bagHas(res.Bag, diag.InhOverrideReturnType) {
		t.Fatalf("expected OverrideReturnType, got %+v", res.Bag.Items())
	}
}

func TestStringConcatFolding(t *testing.T) {
	res, _ := compileSrc(t, map[string]string{
		"Main.java": `public class Main {
    public String x = "a" + "b";
    public String y = "ab";
    public Main() {}
    public static int test() { return 0; }
}`,
	}, false)
	if res.ExitCode != driver.ExitOK {
		t.Fatalf("exit %d, diagnostics: %+v", res.ExitCode, res.Bag.Items())
	}
	count := 0
	for _, entry := range res.Strings.All() {
		if entry.Val == "ab" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("folded and literal \"ab\" must share one StringId, found %d entries", count)
	}
}

func TestUnreachableWhileFalse(t *testing.T) {
	res, _ := compileSrc(t, map[string]string{
		"Main.java": `public class Main {
    public Main() {}
    public static int test() {
        while (false) { int x = 1; }
        return 0;
    }
}`,
	}, false)
	if !bagHas(res.Bag, diag.ChkUnreachable) {
		t.Fatalf("expected Unreachable, got %+v", res.Bag.Items())
	}
}

func TestMissingReturn(t *testing.T) {
	res, _ := compileSrc(t, map[string]string{
		"Main.java": `public class Main {
    public Main() {}
    public static int test() {
        int x = 1;
        if (x > 0) { return 1; }
    }
}`,
	}, false)
	if !bagHas(res.Bag, diag.ChkMissingReturn) {
		t.Fatalf("expected MissingReturn, got %+v", res.Bag.Items())
	}
}

func TestNotDefinitelyAssigned(t *testing.T) {
	res, _ := compileSrc(t, map[string]string{
		"Main.java": `public class Main {
    public Main() {}
    public static int pick(boolean b) {
        int x;
        if (b) { x = 1; }
        return x;
    }
    public static int test() { return 0; }
}`,
	}, false)
	if res.ExitCode != driver.ExitCompile {
		t.Fatalf("exit %d, diagnostics: %+v", res.ExitCode, res.Bag.Items())
	}
	if !bagHas(res.Bag, diag.ChkNotDefinitelyAssigned) {
		t.Fatalf("expected NotDefinitelyAssigned, got %+v", res.Bag.Items())
	}
}

func TestDefiniteAssignmentBothBranches(t *testing.T) {
	res, _ := compileSrc(t, map[string]string{
		"Main.java": `public class Main {
    public Main() {}
    public static int pick(boolean b) {
        int x;
        if (b) { x = 1; } else { x = 2; }
        return x;
    }
    public static int test() { return 0; }
}`,
	}, false)
	if res.ExitCode != driver.ExitOK {
		t.Fatalf("exit %d, diagnostics: %+v", res.ExitCode, res.Bag.Items())
	}
}

func TestExprTypesAllValid(t *testing.T) {
	res, _ := compileSrc(t, map[string]string{
		"Main.java": `public class Main {
    public int field = 41;
    public Main() {}
    public int bump(int by) { return field + by; }
    public static int test() {
        Main m = new Main();
        int[] a = new int[3];
        a[0] = m.bump(1);
        String s = "n=" + a[0];
        if (s.length() > 0 && a[0] % 2 == 0) { return 1; }
        return 0;
    }
}`,
	}, false)
	if res.ExitCode != driver.ExitOK {
		t.Fatalf("exit %d, diagnostics: %+v", res.ExitCode, res.Bag.Items())
	}
}

// Every method stream must keep ALLOC_MEM / DEALLOC_MEM properly nested.
func TestStreamStackDiscipline(t *testing.T) {
	res, _ := compileSrc(t, map[string]string{
		"Main.java": `public class Main {
    public Main() {}
    public static int test() {
        int total = 0;
        for (int i = 0; i < 10; i = i + 1) {
            if (i % 2 == 0) { total = total + i; }
            else { total = total - 1; }
        }
        while (total > 100) { total = total / 2; }
        return total;
    }
}`,
	}, false)
	if res.ExitCode != driver.ExitOK {
		t.Fatalf("exit %d, diagnostics: %+v", res.ExitCode, res.Bag.Items())
	}

	for _, unit := range res.Program.Units {
		for _, typ := range unit.Types {
			for _, s := range typ.Streams {
				var stack []uint64
				for _, op := range s.Ops {
					args := s.ArgsOf(op)
					switch op.Type {
					case ir.OpAllocMem:
						stack = append(stack, args[0])
					case ir.OpDeallocMem:
						if len(stack) == 0 || stack[len(stack)-1] != args[0] {
							t.Fatalf("t%d m%d: DEALLOC %d out of order", s.Tid, s.Mid, args[0])
						}
						stack = stack[:len(stack)-1]
					}
				}
				if len(stack) != 0 {
					t.Fatalf("t%d m%d: %d slots never released", s.Tid, s.Mid, len(stack))
				}
			}
		}
	}
}

// Compiling the same sources twice must produce identical streams.
func TestGeneratorDeterminism(t *testing.T) {
	files := map[string]string{
		"Main.java": `public class Main {
    public int a = 1;
    public static int b = 2;
    public Main() {}
    public int f(int x) { return x * a + Main.b; }
    public static int test() { return new Main().f(3); }
}`,
	}
	first, _ := compileSrc(t, files, false)
	second, _ := compileSrc(t, files, false)
	if first.ExitCode != driver.ExitOK || second.ExitCode != driver.ExitOK {
		t.Fatalf("exits %d/%d", first.ExitCode, second.ExitCode)
	}
	// File ids differ across temp dirs only in paths, not ids, because the
	// load order is sorted; the streams must match exactly.
	if len(first.Program.Units) != len(second.Program.Units) {
		t.Fatalf("unit counts differ")
	}
	for i := range first.Program.Units {
		a, b := first.Program.Units[i], second.Program.Units[i]
		if len(a.Types) != len(b.Types) {
			t.Fatalf("unit %d: type counts differ", i)
		}
		for j := range a.Types {
			if !reflect.DeepEqual(a.Types[j], b.Types[j]) {
				t.Fatalf("unit %d type %d: streams differ", i, j)
			}
		}
	}
}

func TestVtablePrefixProperty(t *testing.T) {
	res, _ := compileSrc(t, map[string]string{
		"A.java": `public class A {
    public A() {}
    public int f() { return 1; }
    public int g() { return 2; }
}`,
		"B.java": `public class B extends A {
    public B() {}
    public int f() { return 10; }
    public int h() { return 3; }
}`,
		"Main.java": mainOK,
	}, false)
	if res.ExitCode != driver.ExitOK {
		t.Fatalf("exit %d, diagnostics: %+v", res.ExitCode, res.Bag.Items())
	}

	for _, ti := range res.TypeMap.Topo() {
		sup, ok := res.TypeMap.Super(ti.Tid)
		if !ok {
			continue
		}
		supVt := res.Offsets.VtableOf(sup)
		vt := res.Offsets.VtableOf(ti.Tid)
		if len(vt) < len(supVt) {
			t.Fatalf("%s: vtable shorter than its superclass's", ti.FQN)
		}
		for i := range supVt {
			if vt[i].Sig != supVt[i].Sig {
				t.Fatalf("%s: vtable slot %d signature diverges", ti.FQN, i)
			}
		}

		// Overriding methods keep the superclass slot.
		supTi := res.TypeMap.MustGet(sup)
		for _, mi := range ti.DeclMethods {
			if mi.IsStatic() {
				continue
			}
			inh, has := supTi.Methods.Get(mi.Sig)
			if !has || inh.IsStatic() {
				continue
			}
			so, ok1 := res.Offsets.OffsetOfMethod(inh.Mid)
			co, ok2 := res.Offsets.OffsetOfMethod(mi.Mid)
			if !ok1 || !ok2 || so.Offset != co.Offset {
				t.Fatalf("%s.%s: override slot %d != inherited slot %d", ti.FQN, mi.Name, co.Offset, so.Offset)
			}
		}
	}
}

func TestAssemblyOutput(t *testing.T) {
	res, outDir := compileSrc(t, map[string]string{
		"Main.java": `public class Main {
    public Main() {}
    public static int test() {
        int[] a = null;
        int x = 1 / 1;
        return x - 1;
    }
}`,
	}, true)
	if res.ExitCode != driver.ExitOK {
		t.Fatalf("exit %d, diagnostics: %+v", res.ExitCode, res.Bag.Items())
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	var sawUnit, sawStart bool
	for _, ent := range entries {
		data, err := os.ReadFile(filepath.Join(outDir, ent.Name()))
		if err != nil {
			t.Fatal(err)
		}
		text := string(data)
		if ent.Name() == "start.s" {
			sawStart = true
			for _, sym := range []string{"_start", "_static_init", "_joos_malloc", "_joos_throw"} {
				if !strings.Contains(text, sym+":") {
					t.Fatalf("start.s missing %s", sym)
				}
			}
			continue
		}
		sawUnit = true
		if !strings.Contains(text, "section .text") {
			t.Fatalf("%s missing .text", ent.Name())
		}
		if !strings.Contains(text, "_t") {
			t.Fatalf("%s missing method labels", ent.Name())
		}
	}
	if !sawUnit || !sawStart {
		t.Fatalf("missing outputs: unit=%v start=%v", sawUnit, sawStart)
	}
}

func TestDivisionEmitsExceptionStub(t *testing.T) {
	res, outDir := compileSrc(t, map[string]string{
		"Main.java": `public class Main {
    public Main() {}
    public static int test(){
        int a = 7;
        int b = 0;
        return a / b;
    }
}`,
	}, true)
	if res.ExitCode != driver.ExitOK {
		t.Fatalf("exit %d, diagnostics: %+v", res.ExitCode, res.Bag.Items())
	}
	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, ent := range entries {
		data, _ := os.ReadFile(filepath.Join(outDir, ent.Name()))
		if strings.Contains(string(data), ".e0:") && strings.Contains(string(data), "_joos_throw") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no exception stub emitted for the division")
	}
}

func TestStaticInitTopologicalOrder(t *testing.T) {
	res, outDir := compileSrc(t, map[string]string{
		"A.java": `public class A {
    public static int x = 1;
    public A() {}
}`,
		"B.java": `public class B extends A {
    public static int y = 2;
    public B() {}
}`,
		"Main.java": mainOK,
	}, true)
	if res.ExitCode != driver.ExitOK {
		t.Fatalf("exit %d, diagnostics: %+v", res.ExitCode, res.Bag.Items())
	}

	data, err := os.ReadFile(filepath.Join(outDir, "start.s"))
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)

	var aTid, bTid uint64
	for _, ti := range res.TypeMap.Topo() {
		if ti.FQN == "A" {
			aTid = ti.Tid.Base
		}
		if ti.FQN == "B" {
			bTid = ti.Tid.Base
		}
	}
	aCall := "call _t" + uitoa(aTid) + "_m" + uitoa(uint64(types.MethodIdStaticInit))
	bCall := "call _t" + uitoa(bTid) + "_m" + uitoa(uint64(types.MethodIdStaticInit))
	ai := strings.Index(text, aCall)
	bi := strings.Index(text, bCall)
	if ai < 0 || bi < 0 || ai > bi {
		t.Fatalf("static init order wrong: A at %d, B at %d", ai, bi)
	}
}

func uitoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var b [20]byte
	i := len(b)
	for v > 0 {
		i--
		b[i] = byte('0' + v%10)
		v /= 10
	}
	return string(b[i:])
}
