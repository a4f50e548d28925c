package adapter

import (
	"strings"

	"github.com/wippyai/wasm-test/wasm"
)

// Name is the import module name the adapter satisfies.
const Name = "wasi_snapshot_preview1"

// Capability interfaces the adapter imports.
const (
	Environment = "wasmtest:host/environment"
	Clocks      = "wasmtest:host/clocks"
	Filesystem  = "wasmtest:host/filesystem"
	Process     = "wasmtest:host/process"
)

// ErrnoNosys is the preview1 errno returned by calls the adapter denies.
const ErrnoNosys = 52

// Function is one preview1 function provided by the adapter.
type Function struct {
	Name      string
	Interface string // empty when the adapter denies the call locally
	Type      wasm.FuncType
}

// Denied reports whether the adapter answers the call itself with ENOSYS.
func (f Function) Denied() bool {
	return f.Interface == ""
}

// ImportName is the kebab-case name of the function in its capability interface.
func (f Function) ImportName() string {
	return KebabName(f.Name)
}

const (
	i32 = wasm.ValI32
	i64 = wasm.ValI64
)

func errnoFunc(name, iface string, params ...wasm.ValType) Function {
	return Function{
		Name:      name,
		Interface: iface,
		Type:      wasm.FuncType{Params: params, Results: []wasm.ValType{i32}},
	}
}

var functions = []Function{
	errnoFunc("args_get", Environment, i32, i32),
	errnoFunc("args_sizes_get", Environment, i32, i32),
	errnoFunc("environ_get", Environment, i32, i32),
	errnoFunc("environ_sizes_get", Environment, i32, i32),

	errnoFunc("clock_res_get", Clocks, i32, i32),
	errnoFunc("clock_time_get", Clocks, i32, i64, i32),

	errnoFunc("fd_advise", Filesystem, i32, i64, i64, i32),
	errnoFunc("fd_allocate", Filesystem, i32, i64, i64),
	errnoFunc("fd_close", Filesystem, i32),
	errnoFunc("fd_datasync", Filesystem, i32),
	errnoFunc("fd_fdstat_get", Filesystem, i32, i32),
	errnoFunc("fd_fdstat_set_flags", Filesystem, i32, i32),
	errnoFunc("fd_fdstat_set_rights", Filesystem, i32, i64, i64),
	errnoFunc("fd_filestat_get", Filesystem, i32, i32),
	errnoFunc("fd_filestat_set_size", Filesystem, i32, i64),
	errnoFunc("fd_filestat_set_times", Filesystem, i32, i64, i64, i32),
	errnoFunc("fd_pread", Filesystem, i32, i32, i32, i64, i32),
	errnoFunc("fd_prestat_get", Filesystem, i32, i32),
	errnoFunc("fd_prestat_dir_name", Filesystem, i32, i32, i32),
	errnoFunc("fd_pwrite", Filesystem, i32, i32, i32, i64, i32),
	errnoFunc("fd_read", Filesystem, i32, i32, i32, i32),
	errnoFunc("fd_readdir", Filesystem, i32, i32, i32, i64, i32),
	errnoFunc("fd_renumber", Filesystem, i32, i32),
	errnoFunc("fd_seek", Filesystem, i32, i64, i32, i32),
	errnoFunc("fd_sync", Filesystem, i32),
	errnoFunc("fd_tell", Filesystem, i32, i32),
	errnoFunc("fd_write", Filesystem, i32, i32, i32, i32),
	errnoFunc("path_create_directory", Filesystem, i32, i32, i32),
	errnoFunc("path_filestat_get", Filesystem, i32, i32, i32, i32, i32),
	errnoFunc("path_filestat_set_times", Filesystem, i32, i32, i32, i32, i64, i64, i32),
	errnoFunc("path_link", Filesystem, i32, i32, i32, i32, i32, i32, i32),
	errnoFunc("path_open", Filesystem, i32, i32, i32, i32, i32, i64, i64, i32, i32),
	errnoFunc("path_readlink", Filesystem, i32, i32, i32, i32, i32, i32),
	errnoFunc("path_remove_directory", Filesystem, i32, i32, i32),
	errnoFunc("path_rename", Filesystem, i32, i32, i32, i32, i32, i32),
	errnoFunc("path_symlink", Filesystem, i32, i32, i32, i32, i32),
	errnoFunc("path_unlink_file", Filesystem, i32, i32, i32),

	errnoFunc("poll_oneoff", Process, i32, i32, i32, i32),
	{Name: "proc_exit", Interface: Process, Type: wasm.FuncType{Params: []wasm.ValType{i32}}},
	errnoFunc("random_get", Process, i32, i32),
	errnoFunc("sched_yield", Process),

	errnoFunc("proc_raise", "", i32),
	errnoFunc("sock_accept", "", i32, i32, i32),
	errnoFunc("sock_recv", "", i32, i32, i32, i32, i32, i32),
	errnoFunc("sock_send", "", i32, i32, i32, i32, i32),
	errnoFunc("sock_shutdown", "", i32, i32),
}

// Functions returns the adapter's function table in export order.
func Functions() []Function {
	out := make([]Function, len(functions))
	copy(out, functions)
	return out
}

// Lookup finds a preview1 function by name.
func Lookup(name string) (Function, bool) {
	for _, f := range functions {
		if f.Name == name {
			return f, true
		}
	}
	return Function{}, false
}

// Interfaces returns the capability interfaces the adapter imports, in the
// order they first appear in the function table.
func Interfaces() []string {
	var out []string
	seen := make(map[string]bool)
	for _, f := range functions {
		if f.Denied() || seen[f.Interface] {
			continue
		}
		seen[f.Interface] = true
		out = append(out, f.Interface)
	}
	return out
}

// InterfaceFunctions returns the forwarded functions of one interface.
func InterfaceFunctions(iface string) []Function {
	var out []Function
	for _, f := range functions {
		if f.Interface == iface && !f.Denied() {
			out = append(out, f)
		}
	}
	return out
}

// KebabName converts a preview1 snake_case name to its interface spelling.
func KebabName(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

// SnakeName converts an interface function name back to preview1 spelling.
func SnakeName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}
