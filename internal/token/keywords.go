package token

// keywords maps Joos keyword spellings to their kinds.
var keywords = map[string]Kind{
	"abstract":   KwAbstract,
	"boolean":    KwBoolean,
	"byte":       KwByte,
	"char":       KwChar,
	"class":      KwClass,
	"else":       KwElse,
	"extends":    KwExtends,
	"false":      KwFalse,
	"final":      KwFinal,
	"for":        KwFor,
	"if":         KwIf,
	"implements": KwImplements,
	"import":     KwImport,
	"instanceof": KwInstanceof,
	"int":        KwInt,
	"interface":  KwInterface,
	"native":     KwNative,
	"new":        KwNew,
	"null":       KwNull,
	"package":    KwPackage,
	"protected":  KwProtected,
	"public":     KwPublic,
	"return":     KwReturn,
	"short":      KwShort,
	"static":     KwStatic,
	"this":       KwThis,
	"true":       KwTrue,
	"void":       KwVoid,
	"while":      KwWhile,
}

// reserved holds Java keywords Joos does not support. They still lex as
// reserved words so the lexer can reject them with a precise message.
var reserved = map[string]bool{
	"assert": true, "break": true, "case": true, "catch": true,
	"const": true, "continue": true, "default": true, "do": true,
	"double": true, "finally": true, "float": true, "goto": true,
	"long": true, "private": true, "strictfp": true, "super": true,
	"switch": true, "synchronized": true, "throw": true, "throws": true,
	"transient": true, "try": true, "volatile": true,
}

// LookupKeyword resolves an identifier spelling to a keyword kind.
func LookupKeyword(text string) (Kind, bool) {
	k, ok := keywords[text]
	return k, ok
}

// IsReserved reports whether the spelling is a Java keyword outside Joos.
func IsReserved(text string) bool {
	return reserved[text]
}
