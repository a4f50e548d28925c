package adapter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-test/wasm"
)

func TestAdapterModuleShape(t *testing.T) {
	m, err := wasm.ParseModule(Bytes())
	require.NoError(t, err)

	require.Len(t, m.Exports, 46)
	require.Equal(t, wasm.KindMemory, m.Imports[0].Desc.Kind)
	require.Equal(t, MemoryModule, m.Imports[0].Module)
	require.Equal(t, MemoryName, m.Imports[0].Name)
	require.Equal(t, uint32(0), m.Imports[0].Desc.Memory.Limits.Min)

	forwarded := 0
	for _, f := range functions {
		if !f.Denied() {
			forwarded++
		}
	}
	require.Equal(t, 41, forwarded)
	require.Equal(t, forwarded, m.NumImportedFuncs())

	for _, f := range functions {
		exp, ok := m.ExportByName(f.Name)
		require.True(t, ok, f.Name)
		ft, ok := m.FuncTypeAt(exp.Idx)
		require.True(t, ok, f.Name)
		require.True(t, ft.Equal(f.Type), "%s: %s != %s", f.Name, ft, f.Type)
	}

	for _, imp := range m.Imports[1:] {
		f, ok := Lookup(imp.Name)
		require.True(t, ok, imp.Name)
		require.Equal(t, f.Interface, imp.Module)
	}
}

func TestBytesIsImmutable(t *testing.T) {
	a := Bytes()
	a[0] = 0xFF
	require.Equal(t, byte(0x00), Bytes()[0])
}

func TestInterfaces(t *testing.T) {
	require.Equal(t, []string{Environment, Clocks, Filesystem, Process}, Interfaces())

	clocks := InterfaceFunctions(Clocks)
	require.Len(t, clocks, 2)
	require.Equal(t, "clock-time-get", clocks[1].ImportName())

	for _, f := range InterfaceFunctions(Process) {
		require.NotEqual(t, "proc_raise", f.Name)
	}
}

func TestLookup(t *testing.T) {
	f, ok := Lookup("fd_write")
	require.True(t, ok)
	require.Equal(t, Filesystem, f.Interface)
	require.Equal(t, "(i32, i32, i32, i32) -> i32", f.Type.String())

	exit, ok := Lookup("proc_exit")
	require.True(t, ok)
	require.Empty(t, exit.Type.Results)

	raise, ok := Lookup("proc_raise")
	require.True(t, ok)
	require.True(t, raise.Denied())

	_, ok = Lookup("fd_nonexistent")
	require.False(t, ok)
}

func TestNameConversion(t *testing.T) {
	require.Equal(t, "path-filestat-set-times", KebabName("path_filestat_set_times"))
	require.Equal(t, "path_filestat_set_times", SnakeName("path-filestat-set-times"))
}
