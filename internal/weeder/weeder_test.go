package weeder_test

import (
	"testing"

	"joosc/internal/diag"
	"joosc/internal/lexer"
	"joosc/internal/parser"
	"joosc/internal/source"
	"joosc/internal/weeder"
)

func weedString(t *testing.T, src string) *diag.Bag {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.java", []byte(src))
	bag := diag.NewBag(50)
	reporter := diag.BagReporter{Bag: bag}
	toks := lexer.LexFile(fs.Get(id), reporter)
	f := parser.ParseFile(id, toks, reporter)
	weeder.WeedFile(f, reporter)
	return bag
}

func bagHas(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestWeedInstanceOfPrimitive(t *testing.T) {
	bag := weedString(t, `public class A {
  public boolean f(int x) { return x instanceof int; }
}`)
	if !bagHas(bag, diag.WeedInvalidInstanceOfType) {
		t.Fatalf("expected InvalidInstanceOfType, got %+v", bag.Items())
	}
}

func TestWeedAbstractFinalClass(t *testing.T) {
	bag := weedString(t, "public abstract final class A { }")
	if !bagHas(bag, diag.WeedAbstractFinalClass) {
		t.Fatalf("expected AbstractFinalClass, got %+v", bag.Items())
	}
}

func TestWeedInvalidLHS(t *testing.T) {
	bag := weedString(t, `public class A {
  public void f() { 1 = 2; }
}`)
	if !bagHas(bag, diag.WeedInvalidLHS) {
		t.Fatalf("expected InvalidLHS, got %+v", bag.Items())
	}
}

func TestWeedVoidOutsideReturnType(t *testing.T) {
	bag := weedString(t, `public class A {
  public int f(void v) { return 0; }
}`)
	if !bagHas(bag, diag.WeedInvalidVoidType) {
		t.Fatalf("expected InvalidVoidType, got %+v", bag.Items())
	}
}

func TestWeedNewPrimitive(t *testing.T) {
	bag := weedString(t, `public class A {
  public void f() { Object o = new int(); }
}`)
	if !bagHas(bag, diag.WeedNewNonReferenceType) {
		t.Fatalf("expected NewNonReferenceType, got %+v", bag.Items())
	}
}

func TestWeedAbstractMethodWithBody(t *testing.T) {
	bag := weedString(t, `public class A {
  public abstract int f() { return 1; }
}`)
	if !bagHas(bag, diag.WeedClassMethodEmpty) {
		t.Fatalf("expected ClassMethodEmpty, got %+v", bag.Items())
	}
}

func TestWeedConcreteMethodWithoutBody(t *testing.T) {
	bag := weedString(t, `public class A {
  public int f();
}`)
	if !bagHas(bag, diag.WeedClassMethodNotEmpty) {
		t.Fatalf("expected ClassMethodNotEmpty, got %+v", bag.Items())
	}
}

func TestWeedNativeMustBeStatic(t *testing.T) {
	bag := weedString(t, `public class A {
  public native int f();
}`)
	if !bagHas(bag, diag.WeedClassMethodNativeNotStatic) {
		t.Fatalf("expected ClassMethodNativeNotStatic, got %+v", bag.Items())
	}
}

func TestWeedInterfaceRestrictions(t *testing.T) {
	bag := weedString(t, `public interface I {
  public int x = 1;
  public int f() { return 1; }
}`)
	if !bagHas(bag, diag.WeedInterfaceField) {
		t.Fatalf("expected InterfaceField, got %+v", bag.Items())
	}
	if !bagHas(bag, diag.WeedInterfaceMethodImpl) {
		t.Fatalf("expected InterfaceMethodImpl, got %+v", bag.Items())
	}
}

func TestWeedCleanClass(t *testing.T) {
	bag := weedString(t, `public class A {
  public int x = 0;
  public A() {}
  public int get() { return x; }
  public static native int poke(int v);
}`)
	if bag.HasErrors() {
		t.Fatalf("clean class must weed clean: %+v", bag.Items())
	}
}

func TestWeedParseAbstractNoBody(t *testing.T) {
	// Sanity: abstract methods without bodies survive both parse and weed.
	bag := weedString(t, `public abstract class A {
  public abstract int f();
}`)
	if bag.HasErrors() {
		t.Fatalf("abstract method must be accepted: %+v", bag.Items())
	}
}
