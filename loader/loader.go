package loader

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-test/adapter"
	"github.com/wippyai/wasm-test/component"
	"github.com/wippyai/wasm-test/errors"
	"github.com/wippyai/wasm-test/wasm"
)

// Binary is an encoded component. It is produced once per run and never mutated.
type Binary []byte

const (
	componentTypePrefix = "component-type:"
	componentTypeSuffix = ":encoded world"
	testWorldProducer   = "test_wasm"

	initializeExport = "_initialize"
	memoryExport     = "memory"
)

// Instantiation argument names used inside the generated component.
const (
	argShim    = "shim"
	argAdapter = "adapter"
	argMain    = "main"
)

// LoadFile reads a module from path and encodes it as a component.
func LoadFile(path string) (Binary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Unreadable(path, err)
	}
	return Load(data)
}

// Load encodes a core module, plus the adapter when it is needed, as a component.
func Load(module []byte) (Binary, error) {
	m, err := wasm.ParseModule(module)
	if err != nil {
		return nil, errors.EncodingFailed("failed to decode module", err)
	}

	adapterImports, err := checkImports(m)
	if err != nil {
		return nil, err
	}

	if len(adapterImports) > 0 {
		if exp, ok := m.ExportByName(memoryExport); !ok || exp.Kind != wasm.KindMemory {
			return nil, errors.EncodingFailed(
				fmt.Sprintf("module imports %s but does not export its linear memory as %q", adapter.Name, memoryExport), nil)
		}
	}

	if exp, ok := m.ExportByName(initializeExport); ok && exp.Kind == wasm.KindFunc {
		if ft, ok := m.FuncTypeAt(exp.Idx); !ok || len(ft.Params) != 0 || len(ft.Results) != 0 {
			return nil, errors.EncodingFailed(fmt.Sprintf("export %q must have type () -> ()", initializeExport), nil)
		}
	}

	exports, err := liftedExports(m)
	if err != nil {
		return nil, err
	}

	e := &encoder{
		main:           module,
		mod:            m,
		adapterImports: adapterImports,
		exports:        exports,
	}
	bin := e.encode()

	Logger().Debug("encoded component",
		zap.Int("module_bytes", len(module)),
		zap.Int("component_bytes", len(bin)),
		zap.Bool("adapter", len(adapterImports) > 0),
		zap.Int("exports", len(exports)))

	return Binary(bin), nil
}

// checkImports verifies that every import is an adapter function with the
// adapter's signature, and returns the distinct adapter functions used.
func checkImports(m *wasm.Module) ([]adapter.Function, error) {
	var used []adapter.Function
	seen := make(map[string]bool)

	for _, imp := range m.Imports {
		if imp.Module != adapter.Name {
			return nil, errors.EncodingFailed(
				fmt.Sprintf("import %s.%s: module %q is not provided by the adapter", imp.Module, imp.Name, imp.Module), nil)
		}
		if imp.Desc.Kind != wasm.KindFunc {
			return nil, errors.EncodingFailed(
				fmt.Sprintf("import %s.%s: only functions can be imported from the adapter", imp.Module, imp.Name), nil)
		}
		fn, ok := adapter.Lookup(imp.Name)
		if !ok {
			return nil, errors.EncodingFailed(
				fmt.Sprintf("import %s.%s: adapter does not export this function", imp.Module, imp.Name), nil)
		}
		if int(imp.Desc.TypeIdx) >= len(m.Types) {
			return nil, errors.EncodingFailed(
				fmt.Sprintf("import %s.%s: type index %d out of range", imp.Module, imp.Name, imp.Desc.TypeIdx), nil)
		}
		if got := m.Types[imp.Desc.TypeIdx]; !got.Equal(fn.Type) {
			return nil, errors.EncodingFailed(
				fmt.Sprintf("import %s.%s: ABI mismatch, adapter has %s, module expects %s", imp.Module, imp.Name, fn.Type, got), nil)
		}
		if !seen[fn.Name] {
			seen[fn.Name] = true
			used = append(used, fn)
		}
	}
	return used, nil
}

// liftedExport is a core function export that becomes a component export.
type liftedExport struct {
	Name string
	Type wasm.FuncType
}

// Worlds returns the test world names declared by component-type custom
// sections, sorted and deduplicated. Only sections named
// "component-type:test_wasm:<version>:<world>:encoded world" declare test
// worlds; component types of other producers are ignored.
func Worlds(m *wasm.Module) []string {
	set := make(map[string]bool)
	for _, cs := range m.CustomSectionsWithPrefix(componentTypePrefix) {
		name := strings.TrimSuffix(strings.TrimPrefix(cs.Name, componentTypePrefix), componentTypeSuffix)
		producer, rest, _ := strings.Cut(name, ":")
		if producer != testWorldProducer {
			Logger().Debug("ignoring component type section", zap.String("section", cs.Name))
			continue
		}
		if i := strings.LastIndexByte(rest, ':'); i >= 0 {
			rest = rest[i+1:]
		}
		if rest != "" {
			set[rest] = true
		}
	}
	worlds := make([]string, 0, len(set))
	for w := range set {
		worlds = append(worlds, w)
	}
	sort.Strings(worlds)
	return worlds
}

func liftedExports(m *wasm.Module) ([]liftedExport, error) {
	if worlds := Worlds(m); len(worlds) > 0 {
		out := make([]liftedExport, 0, len(worlds))
		for _, name := range worlds {
			exp, ok := m.ExportByName(name)
			if !ok || exp.Kind != wasm.KindFunc {
				Logger().Debug("world has no matching function export", zap.String("world", name))
				continue
			}
			ft, ok := m.FuncTypeAt(exp.Idx)
			if !ok {
				return nil, errors.EncodingFailed(fmt.Sprintf("export %q: function index %d out of range", name, exp.Idx), nil)
			}
			if len(ft.Params) != 0 || len(ft.Results) != 0 {
				return nil, errors.EncodingFailed(
					fmt.Sprintf("export %q: world declares func() but the module has %s", name, ft), nil)
			}
			out = append(out, liftedExport{Name: name, Type: ft})
		}
		return out, nil
	}

	var out []liftedExport
	for _, exp := range m.Exports {
		if exp.Kind != wasm.KindFunc || reserved(exp.Name) {
			continue
		}
		ft, ok := m.FuncTypeAt(exp.Idx)
		if !ok {
			return nil, errors.EncodingFailed(fmt.Sprintf("export %q: function index %d out of range", exp.Name, exp.Idx), nil)
		}
		if !liftable(ft) {
			Logger().Debug("export not lifted", zap.String("name", exp.Name), zap.Stringer("type", ft))
			continue
		}
		out = append(out, liftedExport{Name: exp.Name, Type: ft})
	}
	return out, nil
}

func reserved(name string) bool {
	return name == initializeExport || name == "_start" ||
		strings.HasPrefix(name, "cabi_") || strings.HasPrefix(name, "__")
}

// liftable reports whether a core signature maps to component types without
// linear memory: numeric parameters and at most one numeric result.
func liftable(ft wasm.FuncType) bool {
	if len(ft.Results) > 1 {
		return false
	}
	for _, t := range append(append([]wasm.ValType{}, ft.Params...), ft.Results...) {
		if _, ok := liftedType(t); !ok {
			return false
		}
	}
	return true
}

func liftedType(t wasm.ValType) (component.PrimType, bool) {
	switch t {
	case wasm.ValI32:
		return component.PrimS32, true
	case wasm.ValI64:
		return component.PrimS64, true
	case wasm.ValF32:
		return component.PrimF32, true
	case wasm.ValF64:
		return component.PrimF64, true
	}
	return 0, false
}

// loweredType maps a preview1 core parameter type to its host interface type.
func loweredType(t wasm.ValType) component.PrimType {
	if t == wasm.ValI64 {
		return component.PrimU64
	}
	return component.PrimU32
}
