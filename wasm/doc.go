// Package wasm reads and writes core WebAssembly module binaries.
//
// ParseModule decodes the sections the harness needs to reason about a module:
// types, imports, functions, tables, memories, globals, exports, the start
// function and custom sections. Element, code and data sections are skipped on
// decode; a parsed module is inspected, never re-encoded.
//
// Module.Encode writes every section, which is how the loader and the tests
// synthesize small helper modules:
//
//	m := &wasm.Module{
//		Types:   []wasm.FuncType{{}},
//		Funcs:   []uint32{0},
//		Exports: []wasm.Export{{Name: "test-nop", Kind: wasm.KindFunc, Idx: 0}},
//		Code:    []wasm.FuncBody{{Code: wasm.EncodeInstructions(wasm.End())}},
//	}
//	bin := m.Encode()
package wasm
