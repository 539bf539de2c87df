package sema_test

import (
	"fmt"
	"testing"

	"joosc/internal/driver"
	"joosc/internal/ir"
)

// entryOps returns the op list of the program's entry-point stream.
func entryOps(t *testing.T, res *driver.Result) []ir.Op {
	t.Helper()
	if res.Program == nil {
		t.Fatalf("no program: %+v", res.Bag.Items())
	}
	for _, unit := range res.Program.Units {
		for _, typ := range unit.Types {
			for _, s := range typ.Streams {
				if s.IsEntryPoint {
					return s.Ops
				}
			}
		}
	}
	t.Fatal("entry stream not found")
	return nil
}

func opCount(ops []ir.Op, kind ir.OpType) int {
	n := 0
	for _, op := range ops {
		if op.Type == kind {
			n++
		}
	}
	return n
}

// TestConstantFolding checks which integer expressions fold at compile
// time. Division and modulo keep their op when the result would trap, so
// the runtime check still fires.
func TestConstantFolding(t *testing.T) {
	cases := []struct {
		name   string
		expr   string
		op     ir.OpType
		folded bool
	}{
		{"addition folds", "1 + 2", ir.OpAdd, true},
		{"nested arithmetic folds", "(3 * 4) - 5", ir.OpSub, true},
		{"division folds", "10 / 2", ir.OpDiv, true},
		{"division by zero stays", "6 / 0", ir.OpDiv, false},
		{"modulo by zero stays", "6 % 0", ir.OpMod, false},
		{"int min by minus one stays", "-2147483648 / -1", ir.OpDiv, false},
		{"negation folds", "-(7)", ir.OpNeg, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := checkFiles(t, map[string]string{
				"Main.java": fmt.Sprintf(`public class Main {
    public Main() {}
    public static int test() { return %s; }
}`, tc.expr),
			})
			if res.ExitCode != driver.ExitOK {
				t.Fatalf("exit %d: %+v", res.ExitCode, res.Bag.Items())
			}
			ops := entryOps(t, res)
			got := opCount(ops, tc.op)
			if tc.folded && got != 0 {
				t.Fatalf("%s must fold away, found %d %v ops", tc.expr, got, tc.op)
			}
			if !tc.folded && got == 0 {
				t.Fatalf("%s must keep its %v op", tc.expr, tc.op)
			}
		})
	}
}

// TestBooleanShortCircuitFolding checks that a constant left operand
// collapses the operator.
func TestBooleanShortCircuitFolding(t *testing.T) {
	res := checkFiles(t, map[string]string{
		"Main.java": `public class Main {
    public Main() {}
    public static boolean noisy() { return true; }
    public static int test() {
        boolean a = true && Main.noisy();
        boolean b = false || Main.noisy();
        if (a == b) { return 1; }
        return 0;
    }
}`,
	})
	if res.ExitCode != driver.ExitOK {
		t.Fatalf("exit %d: %+v", res.ExitCode, res.Bag.Items())
	}
	// true && x and false || x both collapse to x: no JMP_IF remains for
	// the short-circuit itself, only the if statement's.
	ops := entryOps(t, res)
	if got := opCount(ops, ir.OpJmpIf); got != 1 {
		t.Fatalf("expected exactly the if's JMP_IF, found %d", got)
	}
}
