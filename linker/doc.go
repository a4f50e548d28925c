// Package linker instantiates compiled components.
//
// # Main Types
//
//   - Linker: the instantiation plan for one component, checked against the
//     engine's capabilities
//   - Instance: a running component with callable exports
//
// # Thread Safety
//
// Linker is safe for concurrent use.
// Instance is NOT safe for concurrent use.
//
// # Import Resolution
//
// Each core instance is created anonymously, with its imports resolved
// against the instantiation arguments the component names for it:
//
//  1. Capability bundles resolve by name to the engine's host module for
//     that interface
//  2. Bundles re-exporting one core instance resolve to that instance
//  3. Anything else resolves to an earlier core instance
//
// Components may import only capability interfaces the engine grants, with
// the exact signatures the engine provides. Violations are reported by New.
//
// # Example
//
//	l, _ := linker.New(ctx, eng, comp)
//	inst, _ := l.Instantiate(ctx, engine.NewExecutionState(engine.StateConfig{}))
//	defer inst.Close(ctx)
//	err := inst.Call(ctx, "test-addition")
package linker
