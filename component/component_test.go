package component

import (
	"bytes"
	"testing"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-test/errors"
	"github.com/wippyai/wasm-test/wasm"
)

func nopModule(exports ...string) []byte {
	m := &wasm.Module{Types: []wasm.FuncType{{}}}
	for i, name := range exports {
		m.Funcs = append(m.Funcs, 0)
		m.Code = append(m.Code, wasm.FuncBody{Code: wasm.EncodeInstructions(wasm.End())})
		m.Exports = append(m.Exports, wasm.Export{Name: name, Kind: wasm.KindFunc, Idx: uint32(i)})
	}
	return m.Encode()
}

// buildSample produces a component that imports one host instance, lowers
// its function into a bundle and lifts two core exports.
func buildSample(t *testing.T) []byte {
	t.Helper()
	b := NewBuilder()

	mod := b.CoreModule(nopModule("test-a", "helper"))

	clockFn := &FuncType{
		Params:  []Param{{Name: "id", Type: PrimValType{Type: PrimU32}}, {Name: "precision", Type: PrimValType{Type: PrimU64}}},
		Results: []ValType{PrimValType{Type: PrimU32}},
	}
	itype := b.InstanceType([]NamedFuncType{{Name: "clock-time-get", Type: clockFn}})
	host := b.ImportInstance("wasmtest:host/clocks", itype)

	hostFn := b.AliasFunc(host, "clock-time-get")
	lowered := b.CanonLower(hostFn)
	bag := b.CoreFromExports(CoreInlineExport{Name: "clock_time_get", Sort: CoreSortFunc, Index: lowered})

	main := b.CoreInstantiate(mod, CoreInstantiateArg{Name: "wasmtest:host/clocks", InstanceIndex: bag})

	nullary := b.FuncType(&FuncType{})
	withParam := b.FuncType(&FuncType{
		Params:  []Param{{Name: "p0", Type: PrimValType{Type: PrimS32}}},
		Results: []ValType{PrimValType{Type: PrimS64}},
	})

	core := b.AliasCoreFunc(main, "test-a")
	lifted := b.CanonLift(core, nullary)
	b.ExportFunc("test-a", lifted, &nullary)

	core = b.AliasCoreFunc(main, "helper")
	lifted = b.CanonLift(core, withParam)
	b.ExportFunc("helper", lifted, nil)

	b.Custom("producers", []byte{0})
	return b.Bytes()
}

func TestBuilderDecodeRoundTrip(t *testing.T) {
	bin := buildSample(t)

	if !bytes.HasPrefix(bin, Preamble) {
		t.Fatalf("missing preamble: % x", bin[:8])
	}

	c, err := Decode(bin)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(c.CoreModules) != 1 {
		t.Errorf("core modules = %d, want 1", len(c.CoreModules))
	}
	if len(c.CoreInstances) != 2 {
		t.Fatalf("core instances = %d, want 2", len(c.CoreInstances))
	}
	if c.CoreInstances[0].Kind != CoreInstanceFromExports || c.CoreInstances[1].Kind != CoreInstanceInstantiate {
		t.Errorf("unexpected core instance kinds: %+v", c.CoreInstances)
	}
	if arg := c.CoreInstances[1].Args[0]; arg.Name != "wasmtest:host/clocks" || arg.InstanceIndex != 0 {
		t.Errorf("unexpected instantiate arg: %+v", arg)
	}

	// core funcs: lower, alias test-a, alias helper
	if len(c.CoreFuncs) != 3 {
		t.Fatalf("core funcs = %d, want 3", len(c.CoreFuncs))
	}
	if c.CoreFuncs[0].Kind != CoreFuncCanonLower || c.CoreFuncs[1].ExportName != "test-a" {
		t.Errorf("unexpected core funcs: %+v", c.CoreFuncs)
	}

	// funcs: alias, lift, export, lift, export
	if len(c.Funcs) != 5 {
		t.Fatalf("funcs = %d, want 5", len(c.Funcs))
	}
	f, ok := c.ResolveFunc(2)
	if !ok || f.Kind != FuncCanonLift || f.CoreFuncIdx != 1 {
		t.Errorf("ResolveFunc(2) = %+v, %v", f, ok)
	}

	if len(c.Exports) != 2 || c.Exports[0].Desc == nil || c.Exports[1].Desc != nil {
		t.Errorf("unexpected exports: %+v", c.Exports)
	}
	if len(c.CustomSections) != 1 || c.CustomSections[0].Name != "producers" {
		t.Errorf("custom sections not decoded: %+v", c.CustomSections)
	}
}

func TestComponentType(t *testing.T) {
	c, err := Decode(buildSample(t))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	ct, err := c.ComponentType()
	if err != nil {
		t.Fatalf("ComponentType: %v", err)
	}

	if len(ct.Imports) != 1 || ct.Imports[0].Sort != SortInstance {
		t.Fatalf("unexpected imports: %+v", ct.Imports)
	}
	hostFuncs := ct.Imports[0].Instance
	if len(hostFuncs) != 1 || hostFuncs[0].Name != "clock-time-get" {
		t.Fatalf("unexpected instance exports: %+v", hostFuncs)
	}
	sig := hostFuncs[0].Func
	if sig.String() != "func(id: u32, precision: u64) -> u32" {
		t.Errorf("host signature = %s", sig)
	}

	if len(ct.Exports) != 2 {
		t.Fatalf("exports = %d, want 2", len(ct.Exports))
	}
	testA := ct.Exports[0]
	if testA.Name != "test-a" || testA.Func == nil || !testA.Func.IsNullary() {
		t.Errorf("test-a = %+v", testA)
	}
	helper := ct.Exports[1]
	if helper.Func == nil || helper.Func.IsNullary() {
		t.Fatalf("helper = %+v", helper)
	}
	if _, ok := helper.Func.Params[0].Type.(wit.S32); !ok {
		t.Errorf("helper param type = %T, want wit.S32", helper.Func.Params[0].Type)
	}
	if helper.Func.String() != "func(p0: s32) -> s64" {
		t.Errorf("helper signature = %s", helper.Func)
	}
}

func TestDecodeErrors(t *testing.T) {
	valid := buildSample(t)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"core module", nopModule()},
		{"truncated", valid[:len(valid)-3]},
		{"unknown section", append(append([]byte{}, Preamble...), 0x0C, 0x00)},
		{"nested component", append(append([]byte{}, Preamble...), SectionComponent, 0x00)},
		{"dangling lift", append(append([]byte{}, Preamble...), SectionCanon, 0x06, 0x01, 0x00, 0x00, 0x05, 0x00, 0x00)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}

	_, err := Decode(append(append([]byte{}, Preamble...), SectionStart, 0x00))
	var structured *errors.Error
	if !errors.As(err, &structured) || structured.Kind != errors.KindUnsupported {
		t.Errorf("start section should be unsupported, got %v", err)
	}
}

func TestDecodeDefinedValueTypes(t *testing.T) {
	// type section: record {a: u32, b: string}, list<0>, option<u8>, result<_, s8>, enum {x}
	payload := []byte{
		0x05,
		0x72, 0x02, 0x01, 'a', 0x79, 0x01, 'b', 0x73,
		0x70, 0x00,
		0x6B, 0x7D,
		0x6A, 0x00, 0x01, 0x7E,
		0x6D, 0x01, 0x01, 'x',
	}
	data := append(append([]byte{}, Preamble...), SectionType, byte(len(payload)))
	data = append(data, payload...)

	c, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(c.Types) != 5 {
		t.Fatalf("types = %d, want 5", len(c.Types))
	}

	res := NewTypeResolver(c.Types)
	want := []string{"record", "list<record>", "option<u8>", "result<_, s8>", "enum"}
	for i, w := range want {
		wt, err := res.Resolve(TypeIndexRef{Index: uint32(i)})
		if err != nil {
			t.Fatalf("Resolve(%d): %v", i, err)
		}
		if got := TypeName(wt); got != w {
			t.Errorf("type %d = %s, want %s", i, got, w)
		}
	}
}
