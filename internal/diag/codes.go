package diag

// Code identifies a diagnostic kind. Codes are banded by compiler stage:
// 1xxx lexer, 15xx parser, 2xxx weeder, 3xxx type set, 4xxx inheritance,
// 5xxx type checker, 9xxx internal.
type Code uint16

const (
	UnknownCode Code = 0

	// Lexical.
	LexUnexpectedChar        Code = 1001
	LexUnclosedStringLit     Code = 1002
	LexUnclosedCharLit       Code = 1003
	LexUnclosedBlockComment  Code = 1004
	LexInvalidEscape         Code = 1005
	LexEmptyCharLit          Code = 1006
	LexUnsupportedToken      Code = 1007

	// Syntax.
	SynUnexpectedToken Code = 1501
	SynUnexpectedEOF   Code = 1502
	SynTrailingTokens  Code = 1503

	// Weeder.
	WeedIntegerOutOfRange         Code = 2001
	WeedInvalidLHS                Code = 2002
	WeedInvalidVoidType           Code = 2003
	WeedInvalidInstanceOfType     Code = 2004
	WeedNewNonReferenceType       Code = 2005
	WeedClassMethodEmpty          Code = 2006
	WeedClassMethodNotEmpty       Code = 2007
	WeedInterfaceMethodImpl       Code = 2008
	WeedAbstractFinalClass        Code = 2009
	WeedConflictingAccessMod      Code = 2010
	WeedClassMethodStaticFinal    Code = 2011
	WeedClassMethodNativeNotStatic Code = 2012
	WeedInterfaceConstructor      Code = 2013
	WeedInterfaceField            Code = 2014
	WeedAbstractMethodBody        Code = 2015
	WeedFinalFieldNoInit          Code = 2016
	WeedInvalidCast               Code = 2017

	// Type set.
	SetTypeDuplicateDefinition  Code = 3001
	SetTypeShadowsPackagePrefix Code = 3002
	SetUnknownImport            Code = 3003
	SetAmbiguousType            Code = 3004
	SetDuplicateCompUnitNames   Code = 3005
	SetUnknownType              Code = 3006

	// Inheritance and tables.
	InhExtendInterface              Code = 4001
	InhExtendFinal                  Code = 4002
	InhImplementClass               Code = 4003
	InhInheritanceCycle             Code = 4004
	InhOverrideReturnType           Code = 4005
	InhOverrideAccess               Code = 4006
	InhOverrideFinal                Code = 4007
	InhOverrideStatic               Code = 4008
	InhAbstractMethodNotImplemented Code = 4009
	InhDuplicateField               Code = 4010
	InhDuplicateMethod              Code = 4011
	InhDuplicateConstructor         Code = 4012
	InhFieldShadowType              Code = 4013
	InhDuplicateSupertype           Code = 4014

	// Type checking.
	ChkTypeMismatch              Code = 5001
	ChkIndexNonArray             Code = 5002
	ChkUndefinedReference        Code = 5003
	ChkDuplicateVarDecl          Code = 5004
	ChkVarInitSelfReference      Code = 5005
	ChkAmbiguousMethod           Code = 5006
	ChkNoMatchingMethod          Code = 5007
	ChkIllegalCast               Code = 5008
	ChkUnreachable               Code = 5009
	ChkNotDefinitelyAssigned     Code = 5010
	ChkMissingReturn             Code = 5011
	ChkStaticAccess              Code = 5012
	ChkInstanceAccess            Code = 5013
	ChkThisInStaticContext       Code = 5014
	ChkProtectedAccess           Code = 5015
	ChkNoMatchingConstructor     Code = 5016
	ChkAbstractNew               Code = 5017
	ChkVoidValue                 Code = 5018
	ChkAssignToFinal             Code = 5019

	// Internal.
	InternalError Code = 9001
)

// simpleNames maps codes to the stable names used by simple-mode output.
// The names follow the original test harness conventions.
var simpleNames = map[Code]string{
	LexUnexpectedChar:       "UnexpectedCharError",
	LexUnclosedStringLit:    "UnclosedStringLitError",
	LexUnclosedCharLit:      "UnclosedCharLitError",
	LexUnclosedBlockComment: "UnclosedBlockCommentError",
	LexInvalidEscape:        "InvalidEscapeError",
	LexEmptyCharLit:         "EmptyCharLitError",
	LexUnsupportedToken:     "UnsupportedTokenError",

	SynUnexpectedToken: "UnexpectedTokenError",
	SynUnexpectedEOF:   "UnexpectedEOFError",
	SynTrailingTokens:  "TrailingTokensError",

	WeedIntegerOutOfRange:          "IntegerOutOfRangeError",
	WeedInvalidLHS:                 "InvalidLHSError",
	WeedInvalidVoidType:            "InvalidVoidTypeError",
	WeedInvalidInstanceOfType:      "InvalidInstanceOfTypeError",
	WeedNewNonReferenceType:        "NewNonReferenceTypeError",
	WeedClassMethodEmpty:           "ClassMethodEmptyError",
	WeedClassMethodNotEmpty:        "ClassMethodNotEmptyError",
	WeedInterfaceMethodImpl:        "InterfaceMethodImplError",
	WeedAbstractFinalClass:         "AbstractFinalClassError",
	WeedConflictingAccessMod:       "ConflictingAccessModError",
	WeedClassMethodStaticFinal:     "ClassMethodStaticFinalError",
	WeedClassMethodNativeNotStatic: "ClassMethodNativeNotStaticError",
	WeedInterfaceConstructor:       "InterfaceConstructorError",
	WeedInterfaceField:             "InterfaceFieldError",
	WeedAbstractMethodBody:         "AbstractMethodBodyError",
	WeedFinalFieldNoInit:           "FinalFieldNoInitError",
	WeedInvalidCast:                "InvalidCastError",

	SetTypeDuplicateDefinition:  "TypeDuplicateDefinitionError",
	SetTypeShadowsPackagePrefix: "TypeShadowsPackagePrefixError",
	SetUnknownImport:            "UnknownImportError",
	SetAmbiguousType:            "AmbiguousType",
	SetDuplicateCompUnitNames:   "DuplicateCompUnitNames",
	SetUnknownType:              "UnknownTypeError",

	InhExtendInterface:              "ExtendInterface",
	InhExtendFinal:                  "ExtendFinal",
	InhImplementClass:               "ImplementClass",
	InhInheritanceCycle:             "InheritanceCycle",
	InhOverrideReturnType:           "OverrideReturnType",
	InhOverrideAccess:               "OverrideAccess",
	InhOverrideFinal:                "OverrideFinal",
	InhOverrideStatic:               "OverrideStatic",
	InhAbstractMethodNotImplemented: "AbstractMethodNotImplemented",
	InhDuplicateField:               "DuplicateField",
	InhDuplicateMethod:              "DuplicateMethod",
	InhDuplicateConstructor:         "DuplicateConstructor",
	InhFieldShadowType:              "FieldShadowType",
	InhDuplicateSupertype:           "DuplicateSupertype",

	ChkTypeMismatch:          "TypeMismatch",
	ChkIndexNonArray:         "IndexNonArray",
	ChkUndefinedReference:    "UndefinedReference",
	ChkDuplicateVarDecl:      "DuplicateVarDecl",
	ChkVarInitSelfReference:  "VariableInitializerSelfReference",
	ChkAmbiguousMethod:       "AmbiguousMethod",
	ChkNoMatchingMethod:      "NoMatchingMethod",
	ChkIllegalCast:           "IllegalCast",
	ChkUnreachable:           "Unreachable",
	ChkNotDefinitelyAssigned: "NotDefinitelyAssigned",
	ChkMissingReturn:         "MissingReturn",
	ChkStaticAccess:          "StaticAccess",
	ChkInstanceAccess:        "InstanceAccess",
	ChkThisInStaticContext:   "ThisInStaticContext",
	ChkProtectedAccess:       "ProtectedAccess",
	ChkNoMatchingConstructor: "NoMatchingConstructor",
	ChkAbstractNew:           "AbstractNew",
	ChkVoidValue:             "VoidValue",
	ChkAssignToFinal:         "AssignToFinal",

	InternalError: "InternalError",
}

// SimpleName returns the stable simple-mode name for a code.
func SimpleName(c Code) string {
	if name, ok := simpleNames[c]; ok {
		return name
	}
	return "UnknownError"
}
