package sema_test

import (
	"testing"

	"joosc/internal/diag"
)

// TestDefiniteAssignment exercises the flow-sensitive assigned-before-read
// analysis: a read is legal only when every path that can reach it
// assigned the variable.
func TestDefiniteAssignment(t *testing.T) {
	cases := []struct {
		name  string
		stmts string
		want  diag.Code
	}{
		{
			"declaration with initializer",
			"int x = 1; return x;",
			diag.UnknownCode,
		},
		{
			"straight-line assignment",
			"int x; x = 3; return x;",
			diag.UnknownCode,
		},
		{
			"read before any assignment",
			"int x; return x;",
			diag.ChkNotDefinitelyAssigned,
		},
		{
			"read in own assignment",
			"int x; x = x + 1; return x;",
			diag.ChkNotDefinitelyAssigned,
		},
		{
			"one branch only",
			"int x; if (flag) { x = 1; } return x;",
			diag.ChkNotDefinitelyAssigned,
		},
		{
			"both branches assign",
			"int x; if (flag) { x = 1; } else { x = 2; } return x;",
			diag.UnknownCode,
		},
		{
			"assigning branch returns",
			"int x; if (flag) { return 0; } else { x = 2; } return x;",
			diag.UnknownCode,
		},
		{
			"loop body may not run",
			"int x; while (flag) { x = 1; } return x;",
			diag.ChkNotDefinitelyAssigned,
		},
		{
			"loop-local use after assignment",
			"int x; while (flag) { x = 1; int y = x + 1; } return 0;",
			diag.UnknownCode,
		},
		{
			"for body may not run",
			"int x; for (int i = 0; i < 3; i = i + 1) { x = i; } return x;",
			diag.ChkNotDefinitelyAssigned,
		},
		{
			"assignment before conditional read",
			"int x; x = 1; if (flag) { return x; } return 0;",
			diag.UnknownCode,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := checkBody(t, "        "+tc.stmts)
			if tc.want == diag.UnknownCode {
				if res.Bag.HasErrors() {
					t.Fatalf("expected clean, got %+v", res.Bag.Items())
				}
				return
			}
			if !bagHas(res.Bag, tc.want) {
				t.Fatalf("expected %v, got %+v", tc.want, res.Bag.Items())
			}
			if got := firstError(res.Bag); got != tc.want {
				t.Fatalf("first error %v, want %v", got, tc.want)
			}
		})
	}
}
