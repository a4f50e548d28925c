// Package adapter provides the fixed wasi_snapshot_preview1 reactor adapter
// that the loader attaches to every module it turns into a component.
//
// The adapter is a core module generated once, at package initialization,
// from a static table of the preview1 functions. It imports the linear memory
// of the module it serves as env.memory and forwards each preview1 call to a
// function of the same name in one of four host capability interfaces:
//
//	wasmtest:host/environment  args and environment variables
//	wasmtest:host/clocks       wall and monotonic clocks
//	wasmtest:host/filesystem   fd_* and path_* calls
//	wasmtest:host/process      exit, randomness, polling and yielding
//
// proc_raise and the sock_* calls are not forwarded; they return ENOSYS.
package adapter
