package loader

import (
	"fmt"

	"github.com/wippyai/wasm-test/adapter"
	"github.com/wippyai/wasm-test/component"
	"github.com/wippyai/wasm-test/wasm"
)

// encoder lays out the component. Core module indices are fixed: the main
// module first, then the adapter and shim when used, then the fixup.
type encoder struct {
	mod            *wasm.Module
	main           []byte
	adapterImports []adapter.Function
	exports        []liftedExport
}

func (e *encoder) hasInitialize() bool {
	exp, ok := e.mod.ExportByName(initializeExport)
	return ok && exp.Kind == wasm.KindFunc
}

func (e *encoder) encode() []byte {
	b := component.NewBuilder()
	useAdapter := len(e.adapterImports) > 0
	initialize := e.hasInitialize()

	mainMod := b.CoreModule(e.main)
	var adapterMod, shimMod, fixupMod uint32
	if useAdapter {
		adapterMod = b.CoreModule(adapter.Bytes())
		shimMod = b.CoreModule(buildShim(e.adapterImports))
	}
	if useAdapter || initialize {
		fixupMod = b.CoreModule(buildFixup(e.adapterImports, initialize))
	}

	var ifaces []uint32
	if useAdapter {
		for _, name := range adapter.Interfaces() {
			typeIdx := b.InstanceType(interfaceType(name))
			ifaces = append(ifaces, b.ImportInstance(name, typeIdx))
		}
	}

	var shimInst, mainInst uint32
	if useAdapter {
		shimInst = b.CoreInstantiate(shimMod)
		mainInst = b.CoreInstantiate(mainMod, component.CoreInstantiateArg{Name: adapter.Name, InstanceIndex: shimInst})
	} else {
		mainInst = b.CoreInstantiate(mainMod)
	}

	if useAdapter {
		args := []component.CoreInstantiateArg{{Name: adapter.MemoryModule, InstanceIndex: mainInst}}
		for i, name := range adapter.Interfaces() {
			var bag []component.CoreInlineExport
			for _, f := range adapter.InterfaceFunctions(name) {
				fn := b.AliasFunc(ifaces[i], f.ImportName())
				bag = append(bag, component.CoreInlineExport{
					Name:  f.Name,
					Sort:  component.CoreSortFunc,
					Index: b.CanonLower(fn),
				})
			}
			args = append(args, component.CoreInstantiateArg{Name: name, InstanceIndex: b.CoreFromExports(bag...)})
		}
		adapterInst := b.CoreInstantiate(adapterMod, args...)

		fixupArgs := []component.CoreInstantiateArg{
			{Name: argShim, InstanceIndex: shimInst},
			{Name: argAdapter, InstanceIndex: adapterInst},
		}
		if initialize {
			fixupArgs = append(fixupArgs, component.CoreInstantiateArg{Name: argMain, InstanceIndex: mainInst})
		}
		b.CoreInstantiate(fixupMod, fixupArgs...)
	} else if initialize {
		b.CoreInstantiate(fixupMod, component.CoreInstantiateArg{Name: argMain, InstanceIndex: mainInst})
	}

	types := make(map[string]uint32)
	for _, exp := range e.exports {
		ft := liftedFuncType(exp.Type)
		key := exp.Type.String()
		typeIdx, ok := types[key]
		if !ok {
			typeIdx = b.FuncType(ft)
			types[key] = typeIdx
		}
		core := b.AliasCoreFunc(mainInst, exp.Name)
		lifted := b.CanonLift(core, typeIdx)
		b.ExportFunc(exp.Name, lifted, &typeIdx)
	}

	return b.Bytes()
}

// interfaceType describes a capability interface as seen by the component.
func interfaceType(name string) []component.NamedFuncType {
	funcs := adapter.InterfaceFunctions(name)
	out := make([]component.NamedFuncType, 0, len(funcs))
	for _, f := range funcs {
		ft := &component.FuncType{}
		for i, p := range f.Type.Params {
			ft.Params = append(ft.Params, component.Param{
				Name: fmt.Sprintf("p%d", i),
				Type: component.PrimValType{Type: loweredType(p)},
			})
		}
		for _, r := range f.Type.Results {
			ft.Results = append(ft.Results, component.PrimValType{Type: loweredType(r)})
		}
		out = append(out, component.NamedFuncType{Name: f.ImportName(), Type: ft})
	}
	return out
}

func liftedFuncType(t wasm.FuncType) *component.FuncType {
	ft := &component.FuncType{}
	for i, p := range t.Params {
		prim, _ := liftedType(p)
		ft.Params = append(ft.Params, component.Param{
			Name: fmt.Sprintf("p%d", i),
			Type: component.PrimValType{Type: prim},
		})
	}
	for _, r := range t.Results {
		prim, _ := liftedType(r)
		ft.Results = append(ft.Results, component.PrimValType{Type: prim})
	}
	return ft
}
