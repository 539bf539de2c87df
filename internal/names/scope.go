package names

import (
	"fmt"
	"strings"

	"joosc/internal/diag"
	"joosc/internal/source"
	"joosc/internal/types"
)

// Import mirrors an AST import declaration without depending on the ast
// package.
type Import struct {
	Path     string
	Wildcard bool
	Pos      source.Span
}

// Scope is a compilation unit's view of the type set.
type Scope struct {
	set       *TypeSet
	pkg       string
	single    map[string]types.TypeId // declared name + single-type imports
	singlePos map[string]source.Span
	wildcards []string // on-demand packages, declaration order
}

// WithImports builds the scoped view for one compilation unit.
//
// The unit's own package is implicitly imported; java.lang.* is implicitly
// imported last. Single-type import collisions are diagnosed here; wildcard
// ambiguity is deferred to lookup time.
func (ts *TypeSet) WithImports(pkg []string, declared string, declaredPos source.Span, imports []Import, r diag.Reporter) *Scope {
	sc := &Scope{
		set:       ts,
		pkg:       strings.Join(pkg, "."),
		single:    make(map[string]types.TypeId, len(imports)+1),
		singlePos: make(map[string]source.Span, len(imports)+1),
	}

	if declared != "" {
		fqn := declared
		if sc.pkg != "" {
			fqn = sc.pkg + "." + declared
		}
		if tid, ok := ts.Get(fqn); ok {
			sc.single[declared] = tid
			sc.singlePos[declared] = declaredPos
		}
	}

	for _, imp := range imports {
		if imp.Wildcard {
			// A wildcard import of a nonexistent package is not itself an
			// error; unresolved names surface later as UnknownType.
			sc.wildcards = append(sc.wildcards, imp.Path)
			continue
		}
		tid, ok := ts.Get(imp.Path)
		if !ok {
			diag.ReportError(r, diag.SetUnknownImport, imp.Pos,
				fmt.Sprintf("import %s does not name a type", imp.Path)).Emit()
			continue
		}
		simple := imp.Path[strings.LastIndex(imp.Path, ".")+1:]
		if prev, exists := sc.single[simple]; exists {
			if prev != tid {
				diag.ReportError(r, diag.SetDuplicateCompUnitNames, imp.Pos,
					fmt.Sprintf("import %s collides with another declaration of %s", imp.Path, simple)).
					WithNote(sc.singlePos[simple], "conflicting declaration").Emit()
			}
			continue
		}
		sc.single[simple] = tid
		sc.singlePos[simple] = imp.Pos
	}
	return sc
}

// lookupInPackage resolves a simple name inside one package.
func (sc *Scope) lookupInPackage(pkg, name string) (types.TypeId, bool) {
	fqn := name
	if pkg != "" {
		fqn = pkg + "." + name
	}
	return sc.set.Get(fqn)
}

// ResolveSimple resolves an unqualified type name through the scope:
// single imports and the unit's own declaration, then the unit's package,
// then explicit wildcard imports (ambiguity between two wildcard packages
// is an error), then java.lang.
func (sc *Scope) ResolveSimple(name string, pos source.Span, r diag.Reporter) types.TypeId {
	if tid, ok := primitives[name]; ok {
		return tid
	}
	if tid, ok := sc.single[name]; ok {
		return tid
	}
	if tid, ok := sc.lookupInPackage(sc.pkg, name); ok {
		return tid
	}

	var found types.TypeId
	foundCount := 0
	for _, pkg := range sc.wildcards {
		if pkg == sc.pkg {
			continue
		}
		if tid, ok := sc.lookupInPackage(pkg, name); ok {
			if foundCount == 0 || tid != found {
				foundCount++
			}
			if foundCount > 1 {
				diag.ReportError(r, diag.SetAmbiguousType, pos,
					fmt.Sprintf("type %s is visible through more than one wildcard import", name)).Emit()
				return types.ErrorType
			}
			found = tid
		}
	}
	if foundCount == 1 {
		return found
	}

	if tid, ok := sc.lookupInPackage("java.lang", name); ok {
		return tid
	}

	diag.ReportError(r, diag.SetUnknownType, pos,
		fmt.Sprintf("unknown type %s", name)).Emit()
	return types.ErrorType
}

// Resolve resolves a possibly-qualified type reference.
func (sc *Scope) Resolve(parts []string, pos source.Span, r diag.Reporter) types.TypeId {
	if len(parts) == 1 {
		return sc.ResolveSimple(parts[0], pos, r)
	}
	fqn := strings.Join(parts, ".")
	if tid, ok := sc.set.Get(fqn); ok {
		return tid
	}
	diag.ReportError(r, diag.SetUnknownType, pos,
		fmt.Sprintf("unknown type %s", fqn)).Emit()
	return types.ErrorType
}

// ResolvePrefix finds the longest prefix of parts that names a type in
// this scope, trying the simple name first, then growing fully-qualified
// prefixes. It never reports; a zero count means no prefix resolves.
func (sc *Scope) ResolvePrefix(parts []string) (types.TypeId, int) {
	if len(parts) == 0 {
		return types.Unassigned, 0
	}
	if tid := sc.resolveSimpleQuiet(parts[0]); tid.IsValid() && !tid.IsError() {
		return tid, 1
	}
	if tid, n := sc.set.GetPrefix(parts); n > 1 {
		return tid, n
	}
	return types.Unassigned, 0
}

// resolveSimpleQuiet is ResolveSimple without diagnostics; ambiguity and
// misses both come back as Unassigned.
func (sc *Scope) resolveSimpleQuiet(name string) types.TypeId {
	if tid, ok := primitives[name]; ok {
		return tid
	}
	if tid, ok := sc.single[name]; ok {
		return tid
	}
	if tid, ok := sc.lookupInPackage(sc.pkg, name); ok {
		return tid
	}
	var found types.TypeId
	count := 0
	for _, pkg := range sc.wildcards {
		if pkg == sc.pkg {
			continue
		}
		if tid, ok := sc.lookupInPackage(pkg, name); ok && tid != found {
			count++
			found = tid
		}
	}
	if count == 1 {
		return found
	}
	if count > 1 {
		return types.Unassigned
	}
	if tid, ok := sc.lookupInPackage("java.lang", name); ok {
		return tid
	}
	return types.Unassigned
}

// Package returns the unit's dotted package name.
func (sc *Scope) Package() string { return sc.pkg }
