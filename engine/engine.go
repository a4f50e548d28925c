package engine

import (
	"context"
	"sort"
	"strconv"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-test/adapter"
	"github.com/wippyai/wasm-test/component"
	"github.com/wippyai/wasm-test/errors"
	"github.com/wippyai/wasm-test/loader"
)

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	MemoryLimitPages uint32
}

// Engine wraps a wazero runtime and the capability host modules.
type Engine struct {
	runtime      wazero.Runtime
	capabilities map[string]api.Module
}

// New creates an engine and registers one capability host module per
// granted interface. Each host module is named after its interface, so core
// modules importing the interface resolve it by name.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig().WithCoreFeatures(api.CoreFeaturesV2)
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	capabilities := make(map[string]api.Module)
	for _, iface := range adapter.Interfaces() {
		builder := runtime.NewHostModuleBuilder(iface)
		wasi_snapshot_preview1.NewFunctionExporter().ExportFunctions(builder)
		mod, err := builder.Instantiate(ctx)
		if err != nil {
			_ = runtime.Close(ctx)
			return nil, errors.Wrap(errors.PhaseHost, errors.KindRegistration, err, "instantiate capability host module "+iface)
		}
		capabilities[iface] = mod
	}

	Logger().Debug("engine created",
		zap.Uint32("memory_limit_pages", cfg.MemoryLimitPages),
		zap.Int("capabilities", len(capabilities)))

	return &Engine{runtime: runtime, capabilities: capabilities}, nil
}

// Runtime returns the underlying wazero runtime.
func (e *Engine) Runtime() wazero.Runtime {
	return e.runtime
}

// Capabilities returns the granted interface names, sorted.
func (e *Engine) Capabilities() []string {
	out := make([]string, 0, len(e.capabilities))
	for name := range e.capabilities {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Capability returns the host module providing the named interface, or nil
// when the interface is not granted. The module is registered in the runtime
// under the interface name.
func (e *Engine) Capability(iface string) api.Module {
	return e.capabilities[iface]
}

// Close releases the runtime and everything compiled or instantiated in it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Component is a decoded component whose core modules are compiled.
type Component struct {
	raw     *component.Component
	typ     *component.ComponentType
	modules []wazero.CompiledModule
}

// Compile decodes a component binary and compiles its core modules. A core
// module that fails validation is reported as an encoding failure.
func (e *Engine) Compile(ctx context.Context, bin loader.Binary) (*Component, error) {
	raw, err := component.Decode(bin)
	if err != nil {
		return nil, err
	}
	typ, err := raw.ComponentType()
	if err != nil {
		return nil, err
	}

	modules := make([]wazero.CompiledModule, 0, len(raw.CoreModules))
	for i, data := range raw.CoreModules {
		compiled, err := e.runtime.CompileModule(ctx, data)
		if err != nil {
			for _, m := range modules {
				_ = m.Close(ctx)
			}
			return nil, errors.New(errors.PhaseCompile, errors.KindEncodingFailed).
				Path("core-module", strconv.Itoa(i)).
				Detail("module is not valid WebAssembly").
				Cause(err).
				Build()
		}
		modules = append(modules, compiled)
	}

	Logger().Debug("component compiled",
		zap.Int("core_modules", len(modules)),
		zap.Int("imports", len(typ.Imports)),
		zap.Int("exports", len(typ.Exports)))

	return &Component{raw: raw, typ: typ, modules: modules}, nil
}

// Raw returns the decoded component structure.
func (c *Component) Raw() *component.Component {
	return c.raw
}

// Type returns the component's static imports and exports.
func (c *Component) Type() *component.ComponentType {
	return c.typ
}

// Module returns the compiled core module at idx.
func (c *Component) Module(idx uint32) (wazero.CompiledModule, bool) {
	if int(idx) >= len(c.modules) {
		return nil, false
	}
	return c.modules[idx], true
}

// Close releases the compiled modules.
func (c *Component) Close(ctx context.Context) error {
	var first error
	for _, m := range c.modules {
		if err := m.Close(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
