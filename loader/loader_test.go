package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-test/adapter"
	"github.com/wippyai/wasm-test/component"
	"github.com/wippyai/wasm-test/errors"
	"github.com/wippyai/wasm-test/internal/testmod"
	"github.com/wippyai/wasm-test/wasm"
)

var (
	nullary  = testmod.Nullary
	fdWrite  = testmod.FdWrite
	i32ToI64 = testmod.I32ToI64
)

func newModule() *testmod.Builder {
	return testmod.New()
}

// importing returns a builder whose module imports the given functions.
func importing(module string, names []string, ft wasm.FuncType) *testmod.Builder {
	b := testmod.New()
	for _, name := range names {
		b.Import(module, name, ft)
	}
	return b
}

func decodeType(t *testing.T, bin Binary) (*component.Component, *component.ComponentType) {
	t.Helper()
	c, err := component.Decode(bin)
	require.NoError(t, err)
	ct, err := c.ComponentType()
	require.NoError(t, err)
	return c, ct
}

func exportNames(ct *component.ComponentType) []string {
	var names []string
	for _, e := range ct.Exports {
		names = append(names, e.Name)
	}
	return names
}

func TestLoadWithoutImports(t *testing.T) {
	mod := newModule().
		Export("test-a", nullary).
		Export("helper", i32ToI64, wasm.I64Const(1)).
		Export("_start", nullary).
		Export("cabi_realloc", nullary).
		Bytes()

	bin, err := Load(mod)
	require.NoError(t, err)

	c, ct := decodeType(t, bin)
	require.Len(t, c.CoreModules, 1, "adapter must be omitted when unused")
	require.Equal(t, mod, c.CoreModules[0])
	require.Empty(t, ct.Imports)
	require.Equal(t, []string{"test-a", "helper"}, exportNames(ct))

	require.True(t, ct.Exports[0].Func.IsNullary())
	require.Equal(t, "func(p0: s32) -> s64", ct.Exports[1].Func.String())
}

func TestLoadWithAdapter(t *testing.T) {
	mod := importing(adapter.Name, []string{"fd_write", "fd_write"}, fdWrite).
		Memory(true).
		Export("test-print", nullary).
		Bytes()

	bin, err := Load(mod)
	require.NoError(t, err)

	c, ct := decodeType(t, bin)
	require.Len(t, c.CoreModules, 4)
	require.Equal(t, adapter.Bytes(), c.CoreModules[1])

	shim, err := wasm.ParseModule(c.CoreModules[2])
	require.NoError(t, err)
	_, ok := shim.ExportByName("fd_write")
	require.True(t, ok)
	require.Len(t, shim.Code, 1, "duplicate imports share one shim slot")

	fixup, err := wasm.ParseModule(c.CoreModules[3])
	require.NoError(t, err)
	require.Nil(t, fixup.Start)
	require.Len(t, fixup.Imports, 2)

	var imported []string
	for _, imp := range ct.Imports {
		imported = append(imported, imp.Name)
	}
	require.Equal(t, adapter.Interfaces(), imported)

	for _, imp := range ct.Imports {
		require.Len(t, imp.Instance, len(adapter.InterfaceFunctions(imp.Name)))
	}
	require.Equal(t, []string{"test-print"}, exportNames(ct))
}

func TestLoadInitializeRunsThroughFixup(t *testing.T) {
	mod := newModule().
		Export("_initialize", nullary).
		Export("test-a", nullary).
		Bytes()

	bin, err := Load(mod)
	require.NoError(t, err)

	c, ct := decodeType(t, bin)
	require.Len(t, c.CoreModules, 2)
	require.Equal(t, []string{"test-a"}, exportNames(ct))

	fixup, err := wasm.ParseModule(c.CoreModules[1])
	require.NoError(t, err)
	require.NotNil(t, fixup.Start)
	require.Equal(t, "main", fixup.Imports[*fixup.Start].Module)
}

func TestLoadWorlds(t *testing.T) {
	mod := newModule().
		Export("test-a", nullary).
		Export("test-b", nullary).
		Custom("component-type:test_wasm:0.1.0:test-b:encoded world").
		Bytes()

	bin, err := Load(mod)
	require.NoError(t, err)
	_, ct := decodeType(t, bin)
	require.Equal(t, []string{"test-b"}, exportNames(ct))
}

func TestWorlds(t *testing.T) {
	m, err := wasm.ParseModule(newModule().
		Custom("component-type:test_wasm:0.1.0:test-z:encoded world").
		Custom("component-type:test_wasm:0.1.0:test-a:encoded world").
		Custom("component-type:test_wasm:0.1.0:test-a:encoded world").
		Custom("component-type:wit-bindgen:0.20.0:imports:encoded world").
		Custom("producers").
		Bytes())
	require.NoError(t, err)
	require.Equal(t, []string{"test-a", "test-z"}, Worlds(m))
}

func TestLoadSkipsUnmatchedWorlds(t *testing.T) {
	mod := newModule().
		Export("test-a", nullary).
		Export("test-b", nullary).
		Custom("component-type:test_wasm:0.1.0:test-b:encoded world").
		Custom("component-type:test_wasm:0.1.0:test-gone:encoded world").
		Custom("component-type:wit-bindgen:0.20.0:bindings:encoded world").
		Bytes()

	bin, err := Load(mod)
	require.NoError(t, err)
	_, ct := decodeType(t, bin)
	require.Equal(t, []string{"test-b"}, exportNames(ct))
}

func TestLoadIgnoresForeignComponentTypes(t *testing.T) {
	mod := newModule().
		Export("test-a", nullary).
		Custom("component-type:wit-bindgen:0.20.0:bindings:encoded world").
		Bytes()

	bin, err := Load(mod)
	require.NoError(t, err)
	_, ct := decodeType(t, bin)
	require.Equal(t, []string{"test-a"}, exportNames(ct))
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		module []byte
	}{
		{"not wasm", []byte("definitely not wasm")},
		{"foreign import module", importing("env", []string{"log"}, nullary).Bytes()},
		{"unknown adapter function", importing(adapter.Name, []string{"fd_frobnicate"}, nullary).Memory(true).Bytes()},
		{"signature mismatch", importing(adapter.Name, []string{"fd_write"}, nullary).Memory(true).Bytes()},
		{"memory not exported", importing(adapter.Name, []string{"fd_write"}, fdWrite).Memory(false).Bytes()},
		{"world export not nullary", newModule().
			Export("test-x", i32ToI64, wasm.I64Const(0)).
			Custom("component-type:test_wasm:0.1.0:test-x:encoded world").
			Bytes()},
		{"initialize with params", newModule().Export("_initialize", i32ToI64, wasm.I64Const(0)).Bytes()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.module)
			require.Error(t, err)
			require.True(t, errors.IsEncodingFailed(err), "got %v", err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.wasm"))
	require.Error(t, err)
	require.True(t, errors.IsUnreadable(err))

	path := filepath.Join(t.TempDir(), "ok.wasm")
	require.NoError(t, os.WriteFile(path, newModule().Export("test-a", nullary).Bytes(), 0o600))
	bin, err := LoadFile(path)
	require.NoError(t, err)
	_, ct := decodeType(t, bin)
	require.Equal(t, []string{"test-a"}, exportNames(ct))
}
