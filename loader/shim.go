package loader

import (
	"github.com/wippyai/wasm-test/adapter"
	"github.com/wippyai/wasm-test/wasm"
)

// shimTable is the export name of the shim's indirect call table.
const shimTable = "$imports"

// buildShim returns a module that stands in for the adapter while the main
// module is instantiated. Each export calls through slot i of an exported
// table, which the fixup module later fills with the adapter's functions.
func buildShim(funcs []adapter.Function) []byte {
	n := uint32(len(funcs))
	m := &wasm.Module{
		Tables: []wasm.TableType{{
			ElemType: wasm.ValFuncRef,
			Limits:   wasm.Limits{Min: n, Max: &n},
		}},
		Exports: []wasm.Export{{Name: shimTable, Kind: wasm.KindTable, Idx: 0}},
	}

	for i, f := range funcs {
		typeIdx := m.AddType(f.Type)
		m.Funcs = append(m.Funcs, typeIdx)
		m.Exports = append(m.Exports, wasm.Export{Name: f.Name, Kind: wasm.KindFunc, Idx: uint32(i)})

		body := make([]wasm.Instruction, 0, len(f.Type.Params)+3)
		for p := range f.Type.Params {
			body = append(body, wasm.LocalGet(uint32(p)))
		}
		body = append(body, wasm.I32Const(int32(i)), wasm.CallIndirect(typeIdx), wasm.End())
		m.Code = append(m.Code, wasm.FuncBody{Code: wasm.EncodeInstructions(body...)})
	}

	return m.Encode()
}

// buildFixup returns a module whose instantiation patches the shim's table
// with the adapter's exports and then runs the main module's initializer.
// Either part may be absent.
func buildFixup(funcs []adapter.Function, initialize bool) []byte {
	m := &wasm.Module{}

	if len(funcs) > 0 {
		n := uint32(len(funcs))
		m.Imports = append(m.Imports, wasm.Import{
			Module: argShim,
			Name:   shimTable,
			Desc: wasm.ImportDesc{
				Kind:  wasm.KindTable,
				Table: &wasm.TableType{ElemType: wasm.ValFuncRef, Limits: wasm.Limits{Min: n, Max: &n}},
			},
		})

		elem := wasm.Element{Offset: wasm.ConstI32(0)}
		for i, f := range funcs {
			m.Imports = append(m.Imports, wasm.Import{
				Module: argAdapter,
				Name:   f.Name,
				Desc:   wasm.ImportDesc{Kind: wasm.KindFunc, TypeIdx: m.AddType(f.Type)},
			})
			elem.FuncIdxs = append(elem.FuncIdxs, uint32(i))
		}
		m.Elements = append(m.Elements, elem)
	}

	if initialize {
		idx := uint32(m.NumImportedFuncs())
		m.Imports = append(m.Imports, wasm.Import{
			Module: argMain,
			Name:   initializeExport,
			Desc:   wasm.ImportDesc{Kind: wasm.KindFunc, TypeIdx: m.AddType(wasm.FuncType{})},
		})
		m.Start = &idx
	}

	return m.Encode()
}
