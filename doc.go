// Package wasmtest runs the test functions of WebAssembly modules.
//
// A module compiled for wasi_snapshot_preview1 is wrapped into a component,
// instantiated in wazero, and every export named "test-*" is called as an
// isolated test case. The wasm-test command is the usual entry point.
//
// # Architecture Overview
//
//	wasmtest/
//	├── cmd/wasm-test/   Command line entry point
//	├── harness/         Export catalog, test selection, execution and reporting
//	├── linker/          Component instantiation and import resolution
//	├── engine/          wazero runtime, capability host modules, execution state
//	├── loader/          Module plus adapter to component encoding
//	├── adapter/         The preview1 adapter module and its function table
//	├── component/       Component binary encoding, decoding and static types
//	├── wasm/            Core WASM binary encoding and decoding
//	└── errors/          Structured errors for fatal failures
//
// # Quick Start
//
// Run the tests of a module file:
//
//	summary, err := harness.Run(ctx, "tests.wasm", harness.Options{})
//	if err != nil {
//	    log.Fatal(err) // the run could not start
//	}
//	fmt.Println(summary.Passed, summary.Failed)
//
// # Isolation
//
// Every test gets fresh core instances, so globals, linear memory and guest
// file descriptors never leak from one test to the next. The compiled
// component and the capability host modules are shared by the whole run.
//
// # Capabilities
//
// Tests reach the host only through the adapter, which forwards preview1
// calls to four capability interfaces: environment, clocks, filesystem and
// process. Sockets and proc_raise are answered inside the adapter with
// ENOSYS. By default a test sees no arguments, no environment and no
// directories, and writes to the harness's stdout and stderr.
package wasmtest
