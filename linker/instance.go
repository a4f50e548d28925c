package linker

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-test/engine"
	"github.com/wippyai/wasm-test/errors"
)

// Instance is a running component. Each Instance owns fresh core instances,
// so no state is shared between two Instances of the same component.
type Instance struct {
	linker  *Linker
	core    []api.Module // resolved module per core instance index
	created []api.Module // modules owned by this instance, in creation order
	closed  bool
}

// Instantiate creates every core instance of the component. The state's
// system configuration applies to the core instances that import
// capabilities. Start sections run as part of instantiation.
func (l *Linker) Instantiate(ctx context.Context, state *engine.ExecutionState) (*Instance, error) {
	inst := &Instance{
		linker: l,
		core:   make([]api.Module, len(l.steps)),
	}

	for i, s := range l.steps {
		switch s.kind {
		case stepCapability:
			// Resolved by name from the runtime when an instance imports it.
		case stepAlias:
			inst.core[i] = inst.core[s.source]
		case stepInstantiate:
			mod, err := inst.instantiate(ctx, i, s, state)
			if err != nil {
				_ = inst.Close(ctx)
				return nil, errors.Instantiation(err)
			}
			inst.core[i] = mod
			inst.created = append(inst.created, mod)
		}
	}

	return inst, nil
}

func (inst *Instance) instantiate(ctx context.Context, idx int, s step, state *engine.ExecutionState) (api.Module, error) {
	compiled, _ := inst.linker.comp.Module(s.module)

	args := make(map[string]api.Module, len(s.args))
	for name, src := range s.args {
		args[name] = inst.core[src]
	}
	// Modules missing from args, the capability host modules, fall back to
	// wazero's lookup by name.
	resolveCtx := experimental.WithImportResolver(ctx, func(name string) api.Module {
		if mod, ok := args[name]; ok {
			return mod
		}
		return nil
	})

	cfg := engine.PlainModuleConfig()
	if s.system {
		cfg = state.ModuleConfig()
	}

	mod, err := inst.linker.engine.Runtime().InstantiateModule(resolveCtx, compiled, cfg)
	if err != nil {
		return nil, instError("module_instantiate", idx, "", "wazero instantiation failed", err)
	}
	Logger().Debug("core instance created", zap.Int("index", idx), zap.Uint32("module", s.module))
	return mod, nil
}

// Call invokes a nullary export. Traps and guest exits are returned as errors.
func (inst *Instance) Call(ctx context.Context, export string) error {
	t, ok := inst.linker.exports[export]
	if !ok {
		return errors.NotFound(errors.PhaseRuntime, "export", export)
	}
	mod := inst.core[t.instance]
	if mod == nil {
		return errors.NotFound(errors.PhaseRuntime, "core instance for export", export)
	}
	fn := mod.ExportedFunction(t.name)
	if fn == nil {
		return errors.NotFound(errors.PhaseRuntime, "core function", t.name)
	}
	_, err := fn.Call(ctx)
	return err
}

// Close tears down the core instances in reverse creation order. It is safe
// to call more than once.
func (inst *Instance) Close(ctx context.Context) error {
	if inst.closed {
		return nil
	}
	inst.closed = true

	var first error
	for i := len(inst.created) - 1; i >= 0; i-- {
		if err := inst.created[i].Close(ctx); err != nil && first == nil {
			first = err
		}
	}
	inst.created = nil
	return first
}
