// Package names implements the global type directory and the per-unit
// scoped views that honor package, single-type, and on-demand imports.
package names

import (
	"fmt"
	"sort"
	"strings"

	"joosc/internal/diag"
	"joosc/internal/source"
	"joosc/internal/types"
)

// Decl is one type declaration to register.
type Decl struct {
	Pkg  []string
	Name string
	Pos  source.Span
}

// FQN returns the dotted fully-qualified name.
func (d Decl) FQN() string {
	if len(d.Pkg) == 0 {
		return d.Name
	}
	return strings.Join(d.Pkg, ".") + "." + d.Name
}

// TypeSet is the sealed directory of fully-qualified type names.
type TypeSet struct {
	byFQN    map[string]types.TypeId
	packages map[string][]string // package → sorted simple names
	nextBase uint64
}

// primitives are pre-inserted so unqualified primitive spellings resolve
// through the same table as user types.
var primitives = map[string]types.TypeId{
	"boolean": types.Bool,
	"byte":    types.Byte,
	"char":    types.Char,
	"short":   types.Short,
	"int":     types.Int,
	"void":    types.Void,
	"error":   types.ErrorType,
}

// Build registers every declaration, allocating stable type bases in sorted
// FQN order. Duplicate fully-qualified names and types that shadow a
// package prefix are diagnosed.
func Build(decls []Decl, r diag.Reporter) *TypeSet {
	ts := &TypeSet{
		byFQN:    make(map[string]types.TypeId, len(decls)+8),
		packages: make(map[string][]string),
		nextBase: types.FirstUserBase,
	}
	for name, tid := range primitives {
		ts.byFQN[name] = tid
	}

	// Group declarations by FQN to report duplicates as one diagnostic
	// carrying every declaration site.
	byFQN := make(map[string][]Decl, len(decls))
	fqns := make([]string, 0, len(decls))
	for _, d := range decls {
		fqn := d.FQN()
		if _, seen := byFQN[fqn]; !seen {
			fqns = append(fqns, fqn)
		}
		byFQN[fqn] = append(byFQN[fqn], d)
	}
	sort.Strings(fqns)

	for _, fqn := range fqns {
		group := byFQN[fqn]
		if len(group) > 1 {
			b := diag.ReportError(r, diag.SetTypeDuplicateDefinition, group[0].Pos,
				fmt.Sprintf("type %s declared more than once", fqn))
			for _, d := range group[1:] {
				b = b.WithNote(d.Pos, "also declared here")
			}
			b.Emit()
		}
		d := group[0]
		tid := types.TypeId{Base: ts.nextBase}
		ts.nextBase++
		ts.byFQN[fqn] = tid
		pkg := strings.Join(d.Pkg, ".")
		ts.packages[pkg] = append(ts.packages[pkg], d.Name)
	}
	for pkg := range ts.packages {
		sort.Strings(ts.packages[pkg])
	}

	// A type whose FQN is a proper dotted prefix of another type's FQN
	// shadows that subpackage.
	for _, fqn := range fqns {
		prefix := fqn + "."
		for other := range ts.byFQN {
			if strings.HasPrefix(other, prefix) {
				diag.ReportError(r, diag.SetTypeShadowsPackagePrefix, byFQN[fqn][0].Pos,
					fmt.Sprintf("type %s shadows the package prefix of %s", fqn, other)).Emit()
				break
			}
		}
	}
	return ts
}

// Get resolves a whole fully-qualified (or primitive) name.
func (ts *TypeSet) Get(qualified string) (types.TypeId, bool) {
	tid, ok := ts.byFQN[qualified]
	return tid, ok
}

// GetPrefix finds the longest dotted prefix of qualified that names a
// type. Returns the number of parts consumed, or 0 when none resolves.
func (ts *TypeSet) GetPrefix(parts []string) (types.TypeId, int) {
	for n := len(parts); n >= 1; n-- {
		if tid, ok := ts.byFQN[strings.Join(parts[:n], ".")]; ok {
			return tid, n
		}
	}
	return types.Unassigned, 0
}

// PackageTypes returns the sorted simple names declared in a package.
func (ts *TypeSet) PackageTypes(pkg string) []string {
	return ts.packages[pkg]
}

// HasPackage reports whether any type was declared in pkg.
func (ts *TypeSet) HasPackage(pkg string) bool {
	_, ok := ts.packages[pkg]
	return ok
}
