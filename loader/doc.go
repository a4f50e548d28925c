// Package loader turns a core WebAssembly module into a component.
//
// Load attaches the fixed wasi_snapshot_preview1 adapter when the module
// imports from it, wires the two together through generated shim and fixup
// modules, and lifts the module's exported functions into component exports.
// The result is an immutable component binary; the input is only read.
//
// Exports follow the component-type custom sections the module carries:
// when any are present, exactly the worlds they name are exported and each
// must exist in the module. Without them every exported function with a
// liftable signature is exported, except reserved entry points.
//
// Every failure is an encoding failure from the errors package, except a
// file that cannot be read, which LoadFile reports as unreadable.
package loader
