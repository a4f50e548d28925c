package component

// Preamble of every component binary: magic, version 0x0d, layer 1.
var Preamble = []byte{0x00, 0x61, 0x73, 0x6D, 0x0D, 0x00, 0x01, 0x00}

// Section IDs
const (
	SectionCustom       byte = 0
	SectionCoreModule   byte = 1
	SectionCoreInstance byte = 2
	SectionCoreType     byte = 3
	SectionComponent    byte = 4
	SectionInstance     byte = 5
	SectionAlias        byte = 6
	SectionType         byte = 7
	SectionCanon        byte = 8
	SectionStart        byte = 9
	SectionImport       byte = 10
	SectionExport       byte = 11
)

// Sort identifies an index space at component level.
type Sort byte

const (
	SortCore      Sort = 0x00
	SortFunc      Sort = 0x01
	SortValue     Sort = 0x02
	SortType      Sort = 0x03
	SortComponent Sort = 0x04
	SortInstance  Sort = 0x05
)

func (s Sort) String() string {
	switch s {
	case SortCore:
		return "core"
	case SortFunc:
		return "func"
	case SortValue:
		return "value"
	case SortType:
		return "type"
	case SortComponent:
		return "component"
	case SortInstance:
		return "instance"
	default:
		return "unknown"
	}
}

// CoreSort identifies an index space at core level.
type CoreSort byte

const (
	CoreSortFunc     CoreSort = 0x00
	CoreSortTable    CoreSort = 0x01
	CoreSortMemory   CoreSort = 0x02
	CoreSortGlobal   CoreSort = 0x03
	CoreSortType     CoreSort = 0x10
	CoreSortModule   CoreSort = 0x11
	CoreSortInstance CoreSort = 0x12
)

// Alias targets
const (
	aliasInstanceExport     byte = 0x00
	aliasCoreInstanceExport byte = 0x01
	aliasOuter              byte = 0x02
)

// Core instance forms
const (
	coreInstanceInstantiate byte = 0x00
	coreInstanceFromExports byte = 0x01
)

// Canon function kinds
const (
	canonLift         byte = 0x00
	canonLower        byte = 0x01
	canonResourceNew  byte = 0x02
	canonResourceDrop byte = 0x03
	canonResourceRep  byte = 0x04
)

// Canon options
const (
	optUTF8       byte = 0x00
	optUTF16      byte = 0x01
	optLatin1     byte = 0x02
	optMemory     byte = 0x03
	optRealloc    byte = 0x04
	optPostReturn byte = 0x05
	optAsync      byte = 0x06
	optCallback   byte = 0x07
)

// Type definition prefixes
const (
	typeFunc      byte = 0x40
	typeComponent byte = 0x41
	typeInstance  byte = 0x42
	typeResource  byte = 0x3F

	typeRecord  byte = 0x72
	typeVariant byte = 0x71
	typeList    byte = 0x70
	typeTuple   byte = 0x6F
	typeFlags   byte = 0x6E
	typeEnum    byte = 0x6D
	typeOption  byte = 0x6B
	typeResult  byte = 0x6A
	typeOwn     byte = 0x69
	typeBorrow  byte = 0x68
)

// Instance type declaration kinds
const (
	declCoreType byte = 0x00
	declType     byte = 0x01
	declAlias    byte = 0x02
	declExport   byte = 0x04
)

// PrimType is a primitive component value type.
type PrimType byte

const (
	PrimBool   PrimType = 0x7F
	PrimS8     PrimType = 0x7E
	PrimU8     PrimType = 0x7D
	PrimS16    PrimType = 0x7C
	PrimU16    PrimType = 0x7B
	PrimS32    PrimType = 0x7A
	PrimU32    PrimType = 0x79
	PrimS64    PrimType = 0x78
	PrimU64    PrimType = 0x77
	PrimF32    PrimType = 0x76
	PrimF64    PrimType = 0x75
	PrimChar   PrimType = 0x74
	PrimString PrimType = 0x73
)

func (p PrimType) String() string {
	switch p {
	case PrimBool:
		return "bool"
	case PrimS8:
		return "s8"
	case PrimU8:
		return "u8"
	case PrimS16:
		return "s16"
	case PrimU16:
		return "u16"
	case PrimS32:
		return "s32"
	case PrimU32:
		return "u32"
	case PrimS64:
		return "s64"
	case PrimU64:
		return "u64"
	case PrimF32:
		return "f32"
	case PrimF64:
		return "f64"
	case PrimChar:
		return "char"
	case PrimString:
		return "string"
	default:
		return "unknown"
	}
}

func isPrim(b byte) bool {
	return b >= byte(PrimString) && b <= byte(PrimBool)
}
