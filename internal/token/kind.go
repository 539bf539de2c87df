package token

// Kind enumerates Joos token kinds.
type Kind uint8

const (
	EOF Kind = iota
	Ident

	// Literals.
	IntLit
	CharLit
	StringLit

	// Keywords.
	KwAbstract
	KwBoolean
	KwByte
	KwChar
	KwClass
	KwElse
	KwExtends
	KwFalse
	KwFinal
	KwFor
	KwIf
	KwImplements
	KwImport
	KwInstanceof
	KwInt
	KwInterface
	KwNative
	KwNew
	KwNull
	KwPackage
	KwProtected
	KwPublic
	KwReturn
	KwShort
	KwStatic
	KwThis
	KwTrue
	KwVoid
	KwWhile

	// Operators and punctuation.
	Assign
	EqEq
	BangEq
	Lt
	LtEq
	Gt
	GtEq
	Plus
	Minus
	Star
	Slash
	Percent
	Bang
	AmpAmp
	PipePipe
	Amp
	Pipe
	Caret
	Dot
	Comma
	Semicolon
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
)

var kindNames = map[Kind]string{
	EOF:       "EOF",
	Ident:     "identifier",
	IntLit:    "integer literal",
	CharLit:   "char literal",
	StringLit: "string literal",

	KwAbstract:   "abstract",
	KwBoolean:    "boolean",
	KwByte:       "byte",
	KwChar:       "char",
	KwClass:      "class",
	KwElse:       "else",
	KwExtends:    "extends",
	KwFalse:      "false",
	KwFinal:      "final",
	KwFor:        "for",
	KwIf:         "if",
	KwImplements: "implements",
	KwImport:     "import",
	KwInstanceof: "instanceof",
	KwInt:        "int",
	KwInterface:  "interface",
	KwNative:     "native",
	KwNew:        "new",
	KwNull:       "null",
	KwPackage:    "package",
	KwProtected:  "protected",
	KwPublic:     "public",
	KwReturn:     "return",
	KwShort:      "short",
	KwStatic:     "static",
	KwThis:       "this",
	KwTrue:       "true",
	KwVoid:       "void",
	KwWhile:      "while",

	Assign:    "=",
	EqEq:      "==",
	BangEq:    "!=",
	Lt:        "<",
	LtEq:      "<=",
	Gt:        ">",
	GtEq:      ">=",
	Plus:      "+",
	Minus:     "-",
	Star:      "*",
	Slash:     "/",
	Percent:   "%",
	Bang:      "!",
	AmpAmp:    "&&",
	PipePipe:  "||",
	Amp:       "&",
	Pipe:      "|",
	Caret:     "^",
	Dot:       ".",
	Comma:     ",",
	Semicolon: ";",
	LParen:    "(",
	RParen:    ")",
	LBrace:    "{",
	RBrace:    "}",
	LBracket:  "[",
	RBracket:  "]",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// IsPrimitive reports whether the keyword names a primitive type.
func (k Kind) IsPrimitive() bool {
	switch k {
	case KwBoolean, KwByte, KwChar, KwInt, KwShort:
		return true
	default:
		return false
	}
}

// IsModifier reports whether the keyword is a declaration modifier.
func (k Kind) IsModifier() bool {
	switch k {
	case KwPublic, KwProtected, KwAbstract, KwFinal, KwStatic, KwNative:
		return true
	default:
		return false
	}
}
