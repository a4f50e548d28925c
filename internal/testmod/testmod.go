// Package testmod builds small core modules for tests.
package testmod

import (
	"encoding/binary"

	"github.com/wippyai/wasm-test/adapter"
	"github.com/wippyai/wasm-test/wasm"
)

// Common signatures.
var (
	Nullary = wasm.FuncType{}
	FdWrite = wasm.FuncType{
		Params:  []wasm.ValType{wasm.ValI32, wasm.ValI32, wasm.ValI32, wasm.ValI32},
		Results: []wasm.ValType{wasm.ValI32},
	}
	ProcExit = wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}}
	FdClose  = wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}}
	PathOpen = wasm.FuncType{
		Params: []wasm.ValType{
			wasm.ValI32, wasm.ValI32, wasm.ValI32, wasm.ValI32, wasm.ValI32,
			wasm.ValI64, wasm.ValI64, wasm.ValI32, wasm.ValI32,
		},
		Results: []wasm.ValType{wasm.ValI32},
	}
	I32ToI64 = wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}, Results: []wasm.ValType{wasm.ValI64}}
)

// Builder assembles a core module. Imports must be added before functions.
type Builder struct {
	m *wasm.Module
}

// New creates an empty module builder.
func New() *Builder {
	return &Builder{m: &wasm.Module{}}
}

// Import adds a function import and returns its function index.
func (b *Builder) Import(module, name string, ft wasm.FuncType) uint32 {
	idx := uint32(b.m.NumImportedFuncs())
	b.m.Imports = append(b.m.Imports, wasm.Import{
		Module: module,
		Name:   name,
		Desc:   wasm.ImportDesc{Kind: wasm.KindFunc, TypeIdx: b.m.AddType(ft)},
	})
	return idx
}

// Memory adds a one page memory, exported as "memory" when export is set.
func (b *Builder) Memory(export bool) *Builder {
	b.m.Memories = append(b.m.Memories, wasm.MemoryType{Limits: wasm.Limits{Min: 1}})
	if export {
		b.m.Exports = append(b.m.Exports, wasm.Export{Name: "memory", Kind: wasm.KindMemory, Idx: 0})
	}
	return b
}

// Global adds a mutable i32 global initialized to zero and returns its index.
func (b *Builder) Global() uint32 {
	b.m.Globals = append(b.m.Globals, wasm.Global{
		Type: wasm.GlobalType{ValType: wasm.ValI32, Mutable: true},
		Init: wasm.ConstI32(0),
	})
	return uint32(len(b.m.Globals) - 1)
}

// Data places bytes at offset in memory 0.
func (b *Builder) Data(offset int32, data []byte) *Builder {
	b.m.Data = append(b.m.Data, wasm.DataSegment{Offset: wasm.ConstI32(offset), Init: data})
	return b
}

// Export adds an exported function with the given body; the trailing end is
// appended.
func (b *Builder) Export(name string, ft wasm.FuncType, body ...wasm.Instruction) *Builder {
	idx := uint32(b.m.NumImportedFuncs() + len(b.m.Funcs))
	b.m.Funcs = append(b.m.Funcs, b.m.AddType(ft))
	b.m.Code = append(b.m.Code, wasm.FuncBody{Code: wasm.EncodeInstructions(append(body, wasm.End())...)})
	b.m.Exports = append(b.m.Exports, wasm.Export{Name: name, Kind: wasm.KindFunc, Idx: idx})
	return b
}

// ExportGlobal exports a global under name.
func (b *Builder) ExportGlobal(name string, idx uint32) *Builder {
	b.m.Exports = append(b.m.Exports, wasm.Export{Name: name, Kind: wasm.KindGlobal, Idx: idx})
	return b
}

// Custom adds a custom section with placeholder contents.
func (b *Builder) Custom(name string) *Builder {
	b.m.CustomSections = append(b.m.CustomSections, wasm.CustomSection{Name: name, Data: []byte{0}})
	return b
}

// Bytes encodes the module.
func (b *Builder) Bytes() []byte {
	return b.m.Encode()
}

// Trap is a body that traps with unreachable.
func Trap() []wasm.Instruction {
	return []wasm.Instruction{wasm.Unreachable()}
}

// DivideByZero is a body that traps on integer division by zero.
func DivideByZero() []wasm.Instruction {
	return []wasm.Instruction{
		wasm.I32Const(1), wasm.I32Const(0), wasm.Op(wasm.OpI32DivS), wasm.Op(wasm.OpDrop),
	}
}

// CheckAndSet is a body that traps if global idx is already set, then sets it.
func CheckAndSet(idx uint32) []wasm.Instruction {
	return []wasm.Instruction{
		wasm.GlobalGet(idx), wasm.If(), wasm.Unreachable(), wasm.End(),
		wasm.I32Const(1), wasm.GlobalSet(idx),
	}
}

// RequireSet is a body that traps unless global idx is set.
func RequireSet(idx uint32) []wasm.Instruction {
	return []wasm.Instruction{
		wasm.GlobalGet(idx), wasm.Op(wasm.OpI32Eqz), wasm.If(), wasm.Unreachable(), wasm.End(),
	}
}

// Set is a body that sets global idx to one.
func Set(idx uint32) []wasm.Instruction {
	return []wasm.Instruction{wasm.I32Const(1), wasm.GlobalSet(idx)}
}

const (
	iovecOffset = 8
	textOffset  = 16
)

// Printer returns a module whose exports write msg to stdout through the
// adapter's fd_write, one export per name.
func Printer(msg string, names ...string) []byte {
	b := New()
	fdWrite := b.Import(adapter.Name, "fd_write", FdWrite)
	b.Memory(true)

	iov := make([]byte, 8)
	binary.LittleEndian.PutUint32(iov[0:], textOffset)
	binary.LittleEndian.PutUint32(iov[4:], uint32(len(msg)))
	b.Data(iovecOffset, iov)
	b.Data(textOffset, []byte(msg))

	for _, name := range names {
		b.Export(name, Nullary,
			wasm.I32Const(1), wasm.I32Const(iovecOffset), wasm.I32Const(1), wasm.I32Const(0),
			wasm.Call(fdWrite), wasm.Op(wasm.OpDrop))
	}
	return b.Bytes()
}

// Exiter returns a module whose export calls proc_exit(code).
func Exiter(name string, code int32) []byte {
	b := New()
	procExit := b.Import(adapter.Name, "proc_exit", ProcExit)
	b.Memory(true)
	b.Export(name, Nullary, wasm.I32Const(code), wasm.Call(procExit))
	return b.Bytes()
}

const (
	// PreopenFd is the descriptor of the first preopened directory.
	PreopenFd = 3
	// OpenedFd is the descriptor path_open hands out first.
	OpenedFd = 4

	pathOffset   = 64
	openedOffset = 128
)

// FdTable returns a module probing descriptor table isolation. Export open
// opens path under the first preopen, traps unless it got OpenedFd, and
// leaves the descriptor open. Export unused traps if OpenedFd is open.
func FdTable(path, open, unused string) []byte {
	b := New()
	pathOpen := b.Import(adapter.Name, "path_open", PathOpen)
	fdClose := b.Import(adapter.Name, "fd_close", FdClose)
	b.Memory(true)
	b.Data(pathOffset, []byte(path))

	b.Export(open, Nullary,
		wasm.I32Const(PreopenFd), wasm.I32Const(0),
		wasm.I32Const(pathOffset), wasm.I32Const(int32(len(path))),
		wasm.I32Const(0), wasm.I64Const(0), wasm.I64Const(0), wasm.I32Const(0),
		wasm.I32Const(openedOffset),
		wasm.Call(pathOpen),
		wasm.If(), wasm.Unreachable(), wasm.End(),
		wasm.I32Const(0), wasm.I32Load(openedOffset), wasm.I32Const(OpenedFd), wasm.Op(wasm.OpI32Ne),
		wasm.If(), wasm.Unreachable(), wasm.End())

	b.Export(unused, Nullary,
		wasm.I32Const(OpenedFd), wasm.Call(fdClose), wasm.Op(wasm.OpI32Eqz),
		wasm.If(), wasm.Unreachable(), wasm.End())

	return b.Bytes()
}
