package linker

import (
	"context"
	"fmt"
	"strings"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-test/adapter"
	"github.com/wippyai/wasm-test/component"
	"github.com/wippyai/wasm-test/engine"
	"github.com/wippyai/wasm-test/errors"
)

// stepKind describes how one core instance is obtained.
type stepKind int

const (
	stepInstantiate stepKind = iota // instantiate a compiled core module
	stepCapability                  // resolved by name to a capability host module
	stepAlias                       // reuse an earlier core instance
)

// step is the resolved plan for one entry of the core instance index space.
type step struct {
	args   map[string]uint32 // import module name to core instance index, capabilities excluded
	iface  string            // capability interface, for stepCapability
	kind   stepKind
	module uint32 // core module index, for stepInstantiate
	source uint32 // aliased core instance, for stepAlias
	system bool   // imports a capability directly
}

// target locates the core function behind a lifted export.
type target struct {
	name     string
	instance uint32
}

// Linker holds the instantiation plan of one compiled component. The plan is
// computed once and reused by every Instantiate call.
type Linker struct {
	engine  *engine.Engine
	comp    *engine.Component
	steps   []step
	exports map[string]target
}

// New checks the component's imports against the engine's capabilities and
// plans its instantiation.
func New(ctx context.Context, eng *engine.Engine, comp *engine.Component) (*Linker, error) {
	if err := checkImports(eng, comp.Type()); err != nil {
		return nil, err
	}

	l := &Linker{
		engine:  eng,
		comp:    comp,
		exports: make(map[string]target),
	}
	raw := comp.Raw()

	for i, ci := range raw.CoreInstances {
		s, err := l.plan(raw, i, ci)
		if err != nil {
			return nil, err
		}
		l.steps = append(l.steps, s)
	}

	for _, exp := range raw.Exports {
		if exp.Sort != component.SortFunc {
			continue
		}
		t, err := l.exportTarget(raw, exp)
		if err != nil {
			return nil, err
		}
		l.exports[exp.Name] = t
	}

	Logger().Debug("component linked",
		zap.Int("core_instances", len(l.steps)),
		zap.Int("exports", len(l.exports)))

	return l, nil
}

func (l *Linker) plan(raw *component.Component, idx int, ci component.CoreInstance) (step, error) {
	if ci.Kind == component.CoreInstanceInstantiate {
		if _, ok := l.comp.Module(ci.ModuleIndex); !ok {
			return step{}, instError("plan", idx, "",
				fmt.Sprintf("module index %d out of range", ci.ModuleIndex), nil)
		}
		s := step{kind: stepInstantiate, module: ci.ModuleIndex, args: make(map[string]uint32)}
		for _, arg := range ci.Args {
			if int(arg.InstanceIndex) >= idx {
				return step{}, instError("plan", idx, arg.Name,
					fmt.Sprintf("argument refers to core instance %d", arg.InstanceIndex), nil)
			}
			src := l.steps[arg.InstanceIndex]
			if src.kind == stepCapability {
				// Capability host modules are resolved by name.
				if arg.Name != src.iface {
					return step{}, instError("plan", idx, arg.Name,
						fmt.Sprintf("capability %s must be imported under its own name", src.iface), nil)
				}
				s.system = true
				continue
			}
			s.args[arg.Name] = arg.InstanceIndex
		}
		return s, nil
	}

	if iface, ok := capabilityBundle(raw, ci.Exports); ok {
		return step{kind: stepCapability, iface: iface}, nil
	}
	if src, ok := passthroughBundle(raw, ci.Exports); ok && int(src) < idx {
		return step{kind: stepAlias, source: src}, nil
	}
	return step{}, instError("plan", idx, "", "unsupported core instance bundle", nil)
}

// capabilityBundle reports whether every export of a bundle lowers a function
// of the same imported interface under its preview1 name.
func capabilityBundle(raw *component.Component, exports []component.CoreInlineExport) (string, bool) {
	iface := ""
	for _, e := range exports {
		if e.Sort != component.CoreSortFunc {
			return "", false
		}
		cf, ok := raw.CoreFunc(e.Index)
		if !ok || cf.Kind != component.CoreFuncCanonLower {
			return "", false
		}
		fn, ok := raw.ResolveFunc(cf.FuncIndex)
		if !ok || fn.Kind != component.FuncAliasExport || adapter.SnakeName(fn.Name) != e.Name {
			return "", false
		}
		if int(fn.InstanceIdx) >= len(raw.Instances) {
			return "", false
		}
		inst := raw.Instances[fn.InstanceIdx]
		if inst.Kind != component.InstanceImport || (iface != "" && inst.Name != iface) {
			return "", false
		}
		iface = inst.Name
	}
	return iface, iface != ""
}

// passthroughBundle reports whether a bundle re-exports functions of a single
// core instance under their own export names.
func passthroughBundle(raw *component.Component, exports []component.CoreInlineExport) (uint32, bool) {
	var src uint32
	for i, e := range exports {
		if e.Sort != component.CoreSortFunc {
			return 0, false
		}
		cf, ok := raw.CoreFunc(e.Index)
		if !ok || cf.Kind != component.CoreFuncAliasExport || cf.ExportName != e.Name {
			return 0, false
		}
		if i > 0 && cf.InstanceIdx != src {
			return 0, false
		}
		src = cf.InstanceIdx
	}
	return src, len(exports) > 0
}

func (l *Linker) exportTarget(raw *component.Component, exp component.Export) (target, error) {
	fn, ok := raw.ResolveFunc(exp.Index)
	if !ok || fn.Kind != component.FuncCanonLift {
		return target{}, errors.New(errors.PhaseLinking, errors.KindUnsupported).
			Path("export", exp.Name).
			Detail("only lifted core functions can be exported").
			Build()
	}
	cf, ok := raw.CoreFunc(fn.CoreFuncIdx)
	if !ok || cf.Kind != component.CoreFuncAliasExport || int(cf.InstanceIdx) >= len(l.steps) {
		return target{}, errors.New(errors.PhaseLinking, errors.KindUnsupported).
			Path("export", exp.Name).
			Detail("lifted function is not a core instance export").
			Build()
	}
	return target{name: cf.ExportName, instance: cf.InstanceIdx}, nil
}

// checkImports verifies every component import against the engine. Missing
// interfaces and functions are collected into a single error.
func checkImports(eng *engine.Engine, ct *component.ComponentType) error {
	var missing []string
	for _, imp := range ct.Imports {
		if imp.Sort != component.SortInstance {
			missing = append(missing, imp.Name)
			continue
		}
		mod := eng.Capability(imp.Name)
		if mod == nil {
			missing = append(missing, imp.Name)
			continue
		}
		defs := mod.ExportedFunctionDefinitions()
		for _, item := range imp.Instance {
			if item.Func == nil {
				missing = append(missing, imp.Name+"#"+item.Name)
				continue
			}
			name := adapter.SnakeName(item.Name)
			def, ok := defs[name]
			if fn, known := adapter.Lookup(name); !known || fn.Interface != imp.Name {
				ok = false
			}
			if !ok {
				missing = append(missing, imp.Name+"#"+item.Name)
				continue
			}
			if err := checkSignature(imp.Name, item, def); err != nil {
				return err
			}
		}
	}
	if len(missing) > 0 {
		return errors.NewMissingImportsError(missing)
	}
	return nil
}

func checkSignature(iface string, item component.ExternItem, def api.FunctionDefinition) error {
	var params, results []api.ValueType
	for _, p := range item.Func.Params {
		vt, ok := coreType(p.Type)
		if !ok {
			return errors.TypeMismatch(errors.PhaseLinking, []string{iface, item.Name}, "flat numeric parameters", item.Func.String())
		}
		params = append(params, vt)
	}
	for _, r := range item.Func.Results {
		vt, ok := coreType(r)
		if !ok {
			return errors.TypeMismatch(errors.PhaseLinking, []string{iface, item.Name}, "flat numeric results", item.Func.String())
		}
		results = append(results, vt)
	}
	if !sameTypes(params, def.ParamTypes()) || !sameTypes(results, def.ResultTypes()) {
		return errors.TypeMismatch(errors.PhaseLinking, []string{iface, item.Name},
			coreSignature(def.ParamTypes(), def.ResultTypes()), coreSignature(params, results))
	}
	return nil
}

// coreType returns the core type a flat component value lowers to.
func coreType(t wit.Type) (api.ValueType, bool) {
	switch t.(type) {
	case wit.Bool, wit.S8, wit.U8, wit.S16, wit.U16, wit.S32, wit.U32, wit.Char:
		return api.ValueTypeI32, true
	case wit.S64, wit.U64:
		return api.ValueTypeI64, true
	case wit.F32:
		return api.ValueTypeF32, true
	case wit.F64:
		return api.ValueTypeF64, true
	}
	return 0, false
}

func sameTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func coreSignature(params, results []api.ValueType) string {
	names := func(types []api.ValueType) string {
		parts := make([]string, len(types))
		for i, t := range types {
			parts[i] = api.ValueTypeName(t)
		}
		return strings.Join(parts, ", ")
	}
	return "(" + names(params) + ") -> (" + names(results) + ")"
}
