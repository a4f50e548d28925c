// Package engine compiles components for the wazero runtime and owns the
// host side of a run.
//
// # Architecture
//
//	Engine         - wraps one wazero runtime and the capability host modules
//	Component      - a decoded component with every core module compiled
//	ExecutionState - per-instantiation configuration for system capabilities
//
// An Engine is created once per run. Compile decodes the component binary,
// derives its static type and compiles each embedded core module. Compiled
// modules are immutable and are instantiated afresh for every test by the
// linker package.
//
// # Capabilities
//
// Each granted interface has a host module registered under the interface
// name. It exports the preview1 system functions that the adapter forwards
// to. Host modules are instantiated once; the functions act on the calling
// module's system context, so every ExecutionState gets its own arguments,
// environment, preopened directories and stdio.
//
// Capabilities lists the interfaces the engine grants. Components importing
// anything else fail to link.
//
// # Thread Safety
//
// Engine and Component are safe for concurrent use. An ExecutionState is
// consumed by a single instantiation.
package engine
