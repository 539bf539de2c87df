package sema_test

import (
	"fmt"
	"testing"

	"joosc/internal/diag"
)

// TestAssignability exercises the T ← U matrix: identity, numeric
// widening, reference widening, null, and the rejected directions.
func TestAssignability(t *testing.T) {
	cases := []struct {
		name string
		stmt string
		want diag.Code // UnknownCode means the program must check clean
	}{
		{"identity int", "int i = 1; return i;", diag.UnknownCode},
		{"char widens to int", "int i = 'c'; return i;", diag.UnknownCode},
		{"byte widens to short", "short s = (byte) 1; return s;", diag.UnknownCode},
		{"byte widens to int", "int i = (byte) 7; return i;", diag.UnknownCode},
		{"short widens to int", "int i = (short) 7; return i;", diag.UnknownCode},

		{"int does not narrow to byte", "byte b = 1; return b;", diag.ChkTypeMismatch},
		{"int does not narrow to char", "char c = 65; return 0;", diag.ChkTypeMismatch},
		{"char does not cross to short", "short s = 'c'; return s;", diag.ChkTypeMismatch},
		{"bool is not numeric", "int i = true; return i;", diag.ChkTypeMismatch},

		{"string widens to object", "Object o = \"s\"; return 0;", diag.UnknownCode},
		{"object does not narrow to string", "String s = new Object(); return 0;", diag.ChkTypeMismatch},
		{"null into reference", "Object o = null; String s = null; int[] a = null; return 0;", diag.UnknownCode},
		{"null into primitive", "int i = null; return 0;", diag.ChkTypeMismatch},

		{"array covariance", "Object[] oa = new String[1]; return 0;", diag.UnknownCode},
		{"array widens to object", "Object o = new int[1]; return 0;", diag.UnknownCode},
		{"no primitive array covariance", "Object[] oa = new int[1]; return 0;", diag.ChkTypeMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := checkMembers(t, fmt.Sprintf("    public static int m() { %s }", tc.stmt), nil)
			if tc.want == diag.UnknownCode {
				if res.Bag.HasErrors() {
					t.Fatalf("expected clean, got %+v", res.Bag.Items())
				}
				return
			}
			if !bagHas(res.Bag, tc.want) {
				t.Fatalf("expected %v, got %+v", tc.want, res.Bag.Items())
			}
		})
	}
}

// TestCastability exercises cast legality: same-chain reference casts in
// both directions, numeric cross-casts, interface casts, and the illegal
// combinations.
func TestCastability(t *testing.T) {
	shapes := `public interface Shape {
    public int area();
}`
	box := `public class Box implements Shape {
    public Box() {}
    public int area() { return 1; }
}`
	sealed := `public final class Sealed {
    public Sealed() {}
}`

	cases := []struct {
		name string
		stmt string
		want diag.Code
	}{
		{"upcast", "Object o = (Object) \"x\"; return 0;", diag.UnknownCode},
		{"downcast compiles", "Object o = new Object(); String s = (String) o; return 0;", diag.UnknownCode},
		{"numeric cross-cast", "char c = (char) 65; byte b = (byte) 300; int i = (int) c; return i + b;", diag.UnknownCode},
		{"char short cross-cast", "short s = (short) 'c'; char c = (char) s; return c;", diag.UnknownCode},
		{"interface to class", "Shape sh = new Box(); Box b = (Box) sh; return b.area();", diag.UnknownCode},
		{"class to unimplemented interface", "Object o = new Object(); Shape sh = (Shape) o; return 0;", diag.UnknownCode},
		{"array elementwise cast", "Object[] oa = new String[1]; String[] sa = (String[]) oa; return 0;", diag.UnknownCode},

		{"unrelated classes", "Integer i = (Integer) new Boolean(true); return 0;", diag.ChkIllegalCast},
		{"boolean from int", "boolean b = (boolean) 1; return 0;", diag.ChkIllegalCast},
		{"int from reference", "int i = (int) new Object(); return i;", diag.ChkIllegalCast},
		{"final class to foreign interface", "Shape sh = (Shape) new Sealed(); return 0;", diag.ChkIllegalCast},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := checkMembers(t, fmt.Sprintf("    public static int m() { %s }", tc.stmt), map[string]string{
				"Shape.java":  shapes,
				"Box.java":    box,
				"Sealed.java": sealed,
			})
			if tc.want == diag.UnknownCode {
				if res.Bag.HasErrors() {
					t.Fatalf("expected clean, got %+v", res.Bag.Items())
				}
				return
			}
			if !bagHas(res.Bag, tc.want) {
				t.Fatalf("expected %v, got %+v", tc.want, res.Bag.Items())
			}
		})
	}
}
