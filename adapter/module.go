package adapter

import (
	"bytes"

	"github.com/wippyai/wasm-test/wasm"
)

// MemoryModule and MemoryName locate the linear memory the adapter imports.
const (
	MemoryModule = "env"
	MemoryName   = "memory"
)

// module is built once at package initialization and never mutated.
var module = build()

// Bytes returns the adapter's core module binary.
func Bytes() []byte {
	return bytes.Clone(module)
}

// build lays out the adapter: the memory import, one function import per
// forwarded call, then one exported wrapper per preview1 function. Wrappers
// exist so the host sees the adapter, which owns the imported memory, as the
// caller.
func build() []byte {
	m := &wasm.Module{
		Imports: []wasm.Import{{
			Module: MemoryModule,
			Name:   MemoryName,
			Desc:   wasm.ImportDesc{Kind: wasm.KindMemory, Memory: &wasm.MemoryType{}},
		}},
	}

	importIdx := make(map[string]uint32)
	for _, f := range functions {
		if f.Denied() {
			continue
		}
		importIdx[f.Name] = uint32(m.NumImportedFuncs())
		m.Imports = append(m.Imports, wasm.Import{
			Module: f.Interface,
			Name:   f.Name,
			Desc:   wasm.ImportDesc{Kind: wasm.KindFunc, TypeIdx: m.AddType(f.Type)},
		})
	}

	numImports := uint32(m.NumImportedFuncs())
	for i, f := range functions {
		m.Funcs = append(m.Funcs, m.AddType(f.Type))
		m.Exports = append(m.Exports, wasm.Export{Name: f.Name, Kind: wasm.KindFunc, Idx: numImports + uint32(i)})

		var body []wasm.Instruction
		if f.Denied() {
			body = append(body, wasm.I32Const(ErrnoNosys))
		} else {
			for p := range f.Type.Params {
				body = append(body, wasm.LocalGet(uint32(p)))
			}
			body = append(body, wasm.Call(importIdx[f.Name]))
		}
		body = append(body, wasm.End())
		m.Code = append(m.Code, wasm.FuncBody{Code: wasm.EncodeInstructions(body...)})
	}

	return m.Encode()
}
