// Package symbols walks the parsed declarations, resolves every type
// reference through the scoped type set, and produces the raw TypeInfos
// the hierarchy builder seals.
package symbols

import (
	"strings"

	"joosc/internal/ast"
	"joosc/internal/diag"
	"joosc/internal/names"
	"joosc/internal/source"
	"joosc/internal/token"
	"joosc/internal/types"
)

// Result is the resolved symbol world for the whole program.
type Result struct {
	Set    *names.TypeSet
	Scopes map[source.FileID]*names.Scope
	Raw    []*types.TypeInfo
	Alloc  *types.IdAlloc

	// Decls maps type bases back to their syntax for later phases.
	Decls map[uint64]*ast.TypeDecl
	// Methods maps method ids to their syntax (constructors included).
	Methods map[types.MethodId]*ast.MethodDecl
	// Files maps type bases to the declaring unit.
	Files map[uint64]*ast.File
}

// Collect registers every declared type and builds the global type set.
func Collect(prog *ast.Program, r diag.Reporter) *names.TypeSet {
	decls := make([]names.Decl, 0, len(prog.Files))
	for _, f := range prog.Files {
		if f.Decl == nil {
			continue
		}
		decls = append(decls, names.Decl{
			Pkg:  f.Package,
			Name: f.Decl.Name,
			Pos:  f.Decl.NameSpan,
		})
	}
	return names.Build(decls, r)
}

// Resolve produces the raw TypeInfo for every declared type.
func Resolve(prog *ast.Program, set *names.TypeSet, r diag.Reporter) *Result {
	res := &Result{
		Set:     set,
		Scopes:  make(map[source.FileID]*names.Scope),
		Alloc:   types.NewIdAlloc(),
		Decls:   make(map[uint64]*ast.TypeDecl),
		Methods: make(map[types.MethodId]*ast.MethodDecl),
		Files:   make(map[uint64]*ast.File),
	}

	for _, f := range prog.Files {
		if f.Decl == nil {
			continue
		}
		d := f.Decl

		imports := make([]names.Import, 0, len(f.Imports))
		for _, imp := range f.Imports {
			imports = append(imports, names.Import{
				Path:     imp.Path(),
				Wildcard: imp.Wildcard,
				Pos:      imp.Sp,
			})
		}
		sc := set.WithImports(f.Package, d.Name, d.NameSpan, imports, r)
		res.Scopes[f.FileID] = sc

		fqn := d.Name
		if len(f.Package) > 0 {
			fqn = strings.Join(f.Package, ".") + "." + d.Name
		}
		tid, ok := set.Get(fqn)
		if !ok || !tid.IsUserType() {
			continue
		}
		d.Tid = tid

		ti := &types.TypeInfo{
			Tid:      tid,
			Kind:     d.Kind,
			Mods:     d.Mods,
			Name:     d.Name,
			Package:  strings.Join(f.Package, "."),
			FQN:      fqn,
			Pos:      d.Sp,
			NameSpan: d.NameSpan,
			FileID:   f.FileID,
		}
		if other, dup := res.Decls[tid.Base]; dup {
			// Duplicate FQN was already diagnosed by the type set; keep
			// the first declaration as the canonical one.
			_ = other
			continue
		}
		res.Decls[tid.Base] = d
		res.Files[tid.Base] = f

		for i := range d.Extends {
			ref := &d.Extends[i]
			resolveTypeRef(sc, ref, r)
			if ref.Tid.IsUserType() {
				ti.Extends = append(ti.Extends, ref.Tid)
			}
		}
		for i := range d.Implements {
			ref := &d.Implements[i]
			resolveTypeRef(sc, ref, r)
			if ref.Tid.IsUserType() {
				ti.Implements = append(ti.Implements, ref.Tid)
			}
		}

		for _, fd := range d.Fields {
			resolveTypeRef(sc, &fd.Type, r)
			fd.Fid = res.Alloc.Field()
			ti.DeclFields = append(ti.DeclFields, &types.FieldInfo{
				Fid:   fd.Fid,
				Owner: tid,
				Mods:  fd.Mods,
				Tid:   fd.Type.Tid,
				Name:  fd.Name,
				Pos:   fd.NameSpan,
			})
		}

		for _, md := range d.Methods {
			params := make([]types.TypeId, 0, len(md.Params))
			for _, p := range md.Params {
				resolveTypeRef(sc, &p.Type, r)
				params = append(params, p.Type.Tid)
			}
			ret := types.Void
			if md.RetType != nil {
				resolveTypeRef(sc, md.RetType, r)
				ret = md.RetType.Tid
			}
			md.Mid = res.Alloc.Method()
			res.Methods[md.Mid] = md
			mi := &types.MethodInfo{
				Mid:     md.Mid,
				Owner:   tid,
				Mods:    md.Mods,
				RetTid:  ret,
				Name:    md.Name,
				Params:  params,
				Sig:     types.MakeSignature(md.Name, params),
				IsCtor:  md.IsConstructor(),
				HasBody: md.Body != nil,
				Pos:     md.NameSpan,
			}
			if mi.IsCtor {
				ti.Ctors = append(ti.Ctors, mi)
			} else {
				// Interface methods are implicitly abstract.
				if ti.Kind == types.InterfaceKind {
					mi.Mods |= types.ModAbstract
				}
				ti.DeclMethods = append(ti.DeclMethods, mi)
			}
		}

		res.Raw = append(res.Raw, ti)
	}
	return res
}

// resolveTypeRef decorates one syntactic type reference with its TypeId.
func resolveTypeRef(sc *names.Scope, ref *ast.TypeRef, r diag.Reporter) {
	var base types.TypeId
	if ref.Prim != 0 {
		base = primTid(ref.Prim)
	} else if len(ref.Parts) > 0 {
		base = sc.Resolve(ref.Parts, ref.Sp, r)
	} else {
		base = types.ErrorType
	}
	base.Ndims += uint32(ref.Dims)
	if base.IsError() {
		base = types.ErrorType
	}
	ref.Tid = base
}

func primTid(k token.Kind) types.TypeId {
	switch k {
	case token.KwBoolean:
		return types.Bool
	case token.KwByte:
		return types.Byte
	case token.KwChar:
		return types.Char
	case token.KwShort:
		return types.Short
	case token.KwInt:
		return types.Int
	case token.KwVoid:
		return types.Void
	}
	return types.ErrorType
}
