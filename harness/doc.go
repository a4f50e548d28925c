// Package harness discovers and runs the tests of a WebAssembly module.
//
// A run loads the module as a component, lists its exports from the static
// component type, selects those named with the "test-" prefix and calls each
// one in a fresh instance. Outcomes stream to a Reporter as they happen:
//
//	addition-works ... OK!
//	error: overflow test failed: wasm error: integer divide by zero
//
// Errors returned by Run are fatal to the whole run. A failing test is never
// an error; it is an Outcome with status Failed.
package harness
