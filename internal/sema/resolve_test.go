package sema_test

import (
	"fmt"
	"testing"

	"joosc/internal/diag"
)

const overloads = `public class Over {
    public Over() {}
    public int f(Object o) { return 1; }
    public int f(String s) { return 2; }
    public int g(int x) { return x; }
    public int g(Object o) { return 0; }
}`

// TestMethodResolution exercises invocation resolution: exact signature
// matches win, a single applicable candidate is chosen, and the ambiguous
// and no-match branches are diagnosed.
func TestMethodResolution(t *testing.T) {
	cases := []struct {
		name string
		stmt string
		want diag.Code
	}{
		{"exact match wins", "return new Over().f(\"x\");", diag.UnknownCode},
		{"unique applicable", "return new Over().g('c');", diag.UnknownCode},
		{"null is ambiguous", "return new Over().f(null);", diag.ChkAmbiguousMethod},
		{"no match on arity", "return new Over().f(\"x\", \"y\");", diag.ChkNoMatchingMethod},
		{"no match on types", "return new Over().g(true);", diag.ChkNoMatchingMethod},
		{"no such method", "return new Over().h();", diag.ChkNoMatchingMethod},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := checkMembers(t, fmt.Sprintf("    public static int m() { %s }", tc.stmt), map[string]string{
				"Over.java": overloads,
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

// TestReceiverKinds checks the static/instance receiver rules.
func TestReceiverKinds(t *testing.T) {
	helper := `public class H {
    public H() {}
    public static int s() { return 1; }
    public int i() { return 2; }
}`
	cases := []struct {
		name string
		stmt string
		want diag.Code
	}{
		{"static via type name", "return H.s();", diag.UnknownCode},
		{"instance via receiver", "return new H().i();", diag.UnknownCode},
		{"instance via type name", "return H.i();", diag.ChkInstanceAccess},
		{"static via receiver", "return new H().s();", diag.ChkStaticAccess},
		{"instance call from static context", "return bump();", diag.ChkThisInStaticContext},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			members := "    public int bump() { return 1; }\n" +
				fmt.Sprintf("    public static int m() { %s }", tc.stmt)
			res := checkMembers(t, members, map[string]string{"H.java": helper})
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
