package ir

import "joosc/internal/types"

// SizeClass is the width of one typed stack slot.
type SizeClass uint8

const (
	SizeBool SizeClass = iota
	SizeByte
	SizeChar
	SizeShort
	SizeInt
	SizePtr
)

func (s SizeClass) String() string {
	switch s {
	case SizeBool:
		return "bool"
	case SizeByte:
		return "byte"
	case SizeChar:
		return "char"
	case SizeShort:
		return "short"
	case SizeInt:
		return "int"
	case SizePtr:
		return "ptr"
	}
	return "?"
}

// ByteWidth returns the value width in bytes. Every slot still occupies
// four bytes on the stack; this is the significant width for extension
// and truncation.
func (s SizeClass) ByteWidth() int {
	switch s {
	case SizeBool, SizeByte:
		return 1
	case SizeChar, SizeShort:
		return 2
	default:
		return 4
	}
}

// Unsigned reports whether extension from this class zero-extends.
func (s SizeClass) Unsigned() bool {
	return s == SizeChar || s == SizeBool
}

// SizeClassOf maps a type id to its slot width.
func SizeClassOf(tid types.TypeId) SizeClass {
	if tid.Ndims > 0 {
		return SizePtr
	}
	switch tid.Base {
	case types.BoolBase:
		return SizeBool
	case types.ByteBase:
		return SizeByte
	case types.CharBase:
		return SizeChar
	case types.ShortBase:
		return SizeShort
	case types.IntBase:
		return SizeInt
	default:
		return SizePtr
	}
}
