// Package weeder runs the post-parse syntactic checks that the Joos
// grammar itself cannot express.
package weeder

import (
	"fmt"

	"joosc/internal/ast"
	"joosc/internal/diag"
	"joosc/internal/source"
	"joosc/internal/types"
)

// WeedFile checks one compilation unit.
func WeedFile(f *ast.File, r diag.Reporter) {
	if f.Decl == nil {
		return
	}
	w := &weeder{r: r}
	w.weedTypeDecl(f.Decl)
	w.weedTree(f.Decl)
}

type weeder struct {
	r diag.Reporter
}

func (w *weeder) weedTypeDecl(d *ast.TypeDecl) {
	if d.Mods.Has(types.ModPublic) && d.Mods.Has(types.ModProtected) {
		diag.ReportError(w.r, diag.WeedConflictingAccessMod, d.NameSpan,
			fmt.Sprintf("%s %s cannot be both public and protected", d.Kind, d.Name)).Emit()
	}
	if d.Mods.Has(types.ModAbstract) && d.Mods.Has(types.ModFinal) {
		diag.ReportError(w.r, diag.WeedAbstractFinalClass, d.NameSpan,
			fmt.Sprintf("class %s cannot be both abstract and final", d.Name)).Emit()
	}

	if d.Kind == types.InterfaceKind {
		w.weedInterfaceMembers(d)
	} else {
		w.weedClassMembers(d)
	}
}

func (w *weeder) weedInterfaceMembers(d *ast.TypeDecl) {
	for _, f := range d.Fields {
		diag.ReportError(w.r, diag.WeedInterfaceField, f.NameSpan,
			"interfaces cannot declare fields").Emit()
	}
	for _, m := range d.Methods {
		if m.IsConstructor() {
			diag.ReportError(w.r, diag.WeedInterfaceConstructor, m.NameSpan,
				"interfaces cannot declare constructors").Emit()
			continue
		}
		if m.Body != nil {
			diag.ReportError(w.r, diag.WeedInterfaceMethodImpl, m.NameSpan,
				fmt.Sprintf("interface method %s cannot have a body", m.Name)).Emit()
		}
		if m.Mods.Has(types.ModStatic) || m.Mods.Has(types.ModFinal) || m.Mods.Has(types.ModNative) {
			diag.ReportError(w.r, diag.WeedClassMethodStaticFinal, m.NameSpan,
				fmt.Sprintf("interface method %s cannot be static, final, or native", m.Name)).Emit()
		}
		w.weedAccess(m.Mods, m.NameSpan, "interface method "+m.Name)
	}
}

func (w *weeder) weedClassMembers(d *ast.TypeDecl) {
	for _, f := range d.Fields {
		w.weedAccess(f.Mods, f.NameSpan, "field "+f.Name)
		if f.Mods.Has(types.ModAbstract) || f.Mods.Has(types.ModNative) {
			diag.ReportError(w.r, diag.WeedConflictingAccessMod, f.NameSpan,
				fmt.Sprintf("field %s cannot be abstract or native", f.Name)).Emit()
		}
		if f.Mods.Has(types.ModFinal) && f.Init == nil {
			diag.ReportError(w.r, diag.WeedFinalFieldNoInit, f.NameSpan,
				fmt.Sprintf("final field %s requires an initializer", f.Name)).Emit()
		}
	}

	for _, m := range d.Methods {
		w.weedAccess(m.Mods, m.NameSpan, "method "+m.Name)
		if m.IsConstructor() {
			if m.Mods.Has(types.ModStatic) || m.Mods.Has(types.ModFinal) ||
				m.Mods.Has(types.ModAbstract) || m.Mods.Has(types.ModNative) {
				diag.ReportError(w.r, diag.WeedConflictingAccessMod, m.NameSpan,
					"constructors cannot be static, final, abstract, or native").Emit()
			}
			if m.Body == nil {
				diag.ReportError(w.r, diag.WeedClassMethodNotEmpty, m.NameSpan,
					"constructors require a body").Emit()
			}
			continue
		}

		bodiless := m.Mods.Has(types.ModAbstract) || m.Mods.Has(types.ModNative)
		if bodiless && m.Body != nil {
			diag.ReportError(w.r, diag.WeedClassMethodEmpty, m.NameSpan,
				fmt.Sprintf("method %s cannot have a body", m.Name)).Emit()
		}
		if !bodiless && m.Body == nil {
			diag.ReportError(w.r, diag.WeedClassMethodNotEmpty, m.NameSpan,
				fmt.Sprintf("method %s requires a body", m.Name)).Emit()
		}
		if m.Mods.Has(types.ModStatic) && m.Mods.Has(types.ModFinal) {
			diag.ReportError(w.r, diag.WeedClassMethodStaticFinal, m.NameSpan,
				fmt.Sprintf("method %s cannot be both static and final", m.Name)).Emit()
		}
		if m.Mods.Has(types.ModAbstract) &&
			(m.Mods.Has(types.ModStatic) || m.Mods.Has(types.ModFinal)) {
			diag.ReportError(w.r, diag.WeedClassMethodStaticFinal, m.NameSpan,
				fmt.Sprintf("abstract method %s cannot be static or final", m.Name)).Emit()
		}
		if m.Mods.Has(types.ModNative) && !m.Mods.Has(types.ModStatic) {
			diag.ReportError(w.r, diag.WeedClassMethodNativeNotStatic, m.NameSpan,
				fmt.Sprintf("native method %s must be static", m.Name)).Emit()
		}
	}
}

// weedAccess requires exactly one access modifier; Joos has no package
// private members.
func (w *weeder) weedAccess(mods types.Modifiers, sp source.Span, what string) {
	public := mods.Has(types.ModPublic)
	protected := mods.Has(types.ModProtected)
	if public == protected {
		diag.ReportError(w.r, diag.WeedConflictingAccessMod, sp,
			fmt.Sprintf("%s must be exactly one of public or protected", what)).Emit()
	}
}

// weedTree checks expression and type-reference shapes below declarations.
func (w *weeder) weedTree(d *ast.TypeDecl) {
	for _, f := range d.Fields {
		w.weedTypeRef(f.Type, false)
	}
	for _, m := range d.Methods {
		if m.RetType != nil && !m.RetType.IsVoid() {
			w.weedTypeRef(*m.RetType, false)
		}
		if m.RetType != nil && m.RetType.IsVoid() && m.RetType.Dims > 0 {
			diag.ReportError(w.r, diag.WeedInvalidVoidType, m.RetType.Span(),
				"void cannot have array dimensions").Emit()
		}
		for _, p := range m.Params {
			w.weedTypeRef(p.Type, false)
		}
	}

	ast.Walk(d, ast.Visitor{Pre: func(n ast.Node) ast.VisitResult {
		switch n := n.(type) {
		case *ast.LocalDecl:
			w.weedTypeRef(n.Type, false)
		case *ast.AssignExpr:
			switch n.L.(type) {
			case *ast.NameExpr, *ast.FieldAccess, *ast.ArrayIndex:
			default:
				diag.ReportError(w.r, diag.WeedInvalidLHS, n.L.Span(),
					"left side of assignment must be a variable, field, or array element").Emit()
			}
		case *ast.InstanceOfExpr:
			if n.Target.Prim != 0 && n.Target.Dims == 0 {
				diag.ReportError(w.r, diag.WeedInvalidInstanceOfType, n.Target.Span(),
					"instanceof requires a reference type").Emit()
			}
			w.weedTypeRef(n.Target, false)
		case *ast.NewObject:
			if n.Type.Prim != 0 {
				diag.ReportError(w.r, diag.WeedNewNonReferenceType, n.Type.Span(),
					"cannot instantiate a primitive type").Emit()
			}
			w.weedTypeRef(n.Type, false)
		case *ast.NewArray:
			w.weedTypeRef(n.Elem, false)
		case *ast.CastExpr:
			w.weedTypeRef(n.Target, false)
		}
		return ast.Recurse
	}})
}

func (w *weeder) weedTypeRef(t ast.TypeRef, allowVoid bool) {
	if t.IsVoid() && !allowVoid {
		diag.ReportError(w.r, diag.WeedInvalidVoidType, t.Span(),
			"void is only legal as a method return type").Emit()
	}
}
