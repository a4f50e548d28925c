package wasm

import "strings"

// Module represents a core WebAssembly module
type Module struct {
	Types          []FuncType
	Imports        []Import
	Funcs          []uint32 // Type indices for declared functions
	Tables         []TableType
	Memories       []MemoryType
	Globals        []Global
	Exports        []Export
	Start          *uint32
	Elements       []Element
	Code           []FuncBody
	Data           []DataSegment
	CustomSections []CustomSection
}

// FuncType represents a WebAssembly function signature with parameter and result types.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Equal reports whether two signatures are identical.
func (f FuncType) Equal(other FuncType) bool {
	return valTypesEqual(f.Params, other.Params) && valTypesEqual(f.Results, other.Results)
}

// String renders the signature as "(i32, i64) -> i32".
func (f FuncType) String() string {
	var b strings.Builder
	b.WriteByte('(')
	writeValTypes(&b, f.Params)
	b.WriteString(") -> ")
	if len(f.Results) == 1 {
		b.WriteString(f.Results[0].String())
	} else {
		b.WriteByte('(')
		writeValTypes(&b, f.Results)
		b.WriteByte(')')
	}
	return b.String()
}

func writeValTypes(b *strings.Builder, types []ValType) {
	for i, t := range types {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.String())
	}
}

func valTypesEqual(a, b []ValType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ValType represents a WebAssembly value type.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	case ValV128:
		return "v128"
	case ValFuncRef:
		return "funcref"
	case ValExtern:
		return "externref"
	default:
		return "unknown"
	}
}

// Import represents an imported function, table, memory or global.
type Import struct {
	Desc   ImportDesc
	Module string
	Name   string
}

// ImportDesc describes an imported item.
type ImportDesc struct {
	Table   *TableType
	Memory  *MemoryType
	Global  *GlobalType
	TypeIdx uint32
	Kind    byte
}

// Limits describes size constraints for tables and memories.
type Limits struct {
	Max *uint32
	Min uint32
}

// TableType describes a table with element type and size limits.
type TableType struct {
	Limits   Limits
	ElemType ValType
}

// MemoryType describes a linear memory with size limits.
type MemoryType struct {
	Limits Limits
	Shared bool
}

// GlobalType describes a global variable's type and mutability.
type GlobalType struct {
	ValType ValType
	Mutable bool
}

// Global represents a global variable with type and initialization.
type Global struct {
	Type GlobalType
	Init []byte // Raw init expression bytes including end
}

// Export describes an exported item.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// Element is an active element segment for table 0 holding function indices.
type Element struct {
	Offset   []byte // Raw offset expression including end
	FuncIdxs []uint32
}

// FuncBody represents a function's local declarations and bytecode.
type FuncBody struct {
	Locals []LocalEntry
	Code   []byte // Raw code bytes including end opcode
}

// LocalEntry represents a group of local variables with the same type.
type LocalEntry struct {
	Count   uint32
	ValType ValType
}

// DataSegment is an active data segment for memory 0.
type DataSegment struct {
	Offset []byte
	Init   []byte
}

// CustomSection holds a named custom section's data.
type CustomSection struct {
	Name string
	Data []byte
}

// NumImportedFuncs returns the number of imported functions
func (m *Module) NumImportedFuncs() int {
	count := 0
	for _, imp := range m.Imports {
		if imp.Desc.Kind == KindFunc {
			count++
		}
	}
	return count
}

// FuncTypeAt returns the signature of the function at idx in the function
// index space, imports first.
func (m *Module) FuncTypeAt(idx uint32) (FuncType, bool) {
	var typeIdx uint32
	n := uint32(0)
	found := false
	for _, imp := range m.Imports {
		if imp.Desc.Kind != KindFunc {
			continue
		}
		if n == idx {
			typeIdx = imp.Desc.TypeIdx
			found = true
			break
		}
		n++
	}
	if !found {
		local := idx - n
		if idx < n || int(local) >= len(m.Funcs) {
			return FuncType{}, false
		}
		typeIdx = m.Funcs[local]
	}
	if int(typeIdx) >= len(m.Types) {
		return FuncType{}, false
	}
	return m.Types[typeIdx], true
}

// ExportByName looks up an export by name.
func (m *Module) ExportByName(name string) (Export, bool) {
	for _, exp := range m.Exports {
		if exp.Name == name {
			return exp, true
		}
	}
	return Export{}, false
}

// FuncImports returns the function imports from the named module, in order.
func (m *Module) FuncImports(module string) []Import {
	var out []Import
	for _, imp := range m.Imports {
		if imp.Desc.Kind == KindFunc && imp.Module == module {
			out = append(out, imp)
		}
	}
	return out
}

// CustomSectionsWithPrefix returns custom sections whose name starts with prefix.
func (m *Module) CustomSectionsWithPrefix(prefix string) []CustomSection {
	var out []CustomSection
	for _, cs := range m.CustomSections {
		if strings.HasPrefix(cs.Name, prefix) {
			out = append(out, cs)
		}
	}
	return out
}

// AddType appends ft to the type section unless an identical type exists,
// returning its index.
func (m *Module) AddType(ft FuncType) uint32 {
	for i, t := range m.Types {
		if t.Equal(ft) {
			return uint32(i)
		}
	}
	m.Types = append(m.Types, ft)
	return uint32(len(m.Types) - 1)
}
