// Package component reads and writes WebAssembly Component Model binaries.
//
// Decode walks a component's sections once and builds the index spaces the
// binary refers to: core modules, core instances, core functions, component
// functions, component instances and types. The result is a plain value that
// later stages query without re-reading the binary.
//
// ComponentType produces the static interface of a decoded component: its
// imports and exports with their signatures, resolved to wit types.
//
// Builder is the inverse: it appends items section by section and tracks the
// same index spaces so callers can refer to what they just defined.
//
// Only the subset of the binary format that flat-typed components use is
// supported. Nested components, component-level instances and the start
// section are rejected as unsupported.
package component
