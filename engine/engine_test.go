package engine

import (
	"bytes"
	"context"
	"testing"

	"github.com/wippyai/wasm-test/adapter"
	"github.com/wippyai/wasm-test/errors"
	"github.com/wippyai/wasm-test/loader"
	"github.com/wippyai/wasm-test/wasm"
)

func nopComponent(t *testing.T, exports ...string) loader.Binary {
	t.Helper()
	m := &wasm.Module{Types: []wasm.FuncType{{}}}
	for i, name := range exports {
		m.Funcs = append(m.Funcs, 0)
		m.Code = append(m.Code, wasm.FuncBody{Code: wasm.EncodeInstructions(wasm.End())})
		m.Exports = append(m.Exports, wasm.Export{Name: name, Kind: wasm.KindFunc, Idx: uint32(i)})
	}
	bin, err := loader.Load(m.Encode())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return bin
}

func newEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = e.Close(context.Background()) })
	return e
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"default config", Config{}},
		{"16MB limit", Config{MemoryLimitPages: 256}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newEngine(t, tc.cfg)
			if e.Runtime() == nil {
				t.Fatal("engine runtime should not be nil")
			}
			for _, iface := range adapter.Interfaces() {
				if e.Runtime().Module(iface) == nil {
					t.Errorf("capability module %q not registered", iface)
				}
			}
		})
	}
}

func TestCapabilities(t *testing.T) {
	e := newEngine(t, Config{})

	got := e.Capabilities()
	if len(got) != len(adapter.Interfaces()) {
		t.Fatalf("Capabilities() = %v, want %v", got, adapter.Interfaces())
	}
	for _, iface := range adapter.Interfaces() {
		mod := e.Capability(iface)
		if mod == nil {
			t.Fatalf("interface %s not granted", iface)
		}
		for _, f := range adapter.InterfaceFunctions(iface) {
			if _, ok := mod.ExportedFunctionDefinitions()[f.Name]; !ok {
				t.Errorf("%s: capability module does not export %s", iface, f.Name)
			}
		}
	}
	if e.Capability("wasi:http/types@0.2.0") != nil {
		t.Error("unexpected capability for an ungranted interface")
	}
}

func TestCompile(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, Config{})

	c, err := e.Compile(ctx, nopComponent(t, "test-a", "test-b"))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	defer c.Close(ctx)

	if n := len(c.Type().Exports); n != 2 {
		t.Errorf("exports = %d, want 2", n)
	}
	if _, ok := c.Module(0); !ok {
		t.Error("module 0 should be compiled")
	}
	if _, ok := c.Module(1); ok {
		t.Error("module 1 should not exist")
	}
	if c.Raw() == nil {
		t.Error("raw component should be retained")
	}
}

func TestCompileRejectsGarbage(t *testing.T) {
	e := newEngine(t, Config{})
	if _, err := e.Compile(context.Background(), loader.Binary("not a component")); err == nil {
		t.Fatal("expected error")
	}
}

func TestCompileInvalidBodyIsEncodingFailure(t *testing.T) {
	m := &wasm.Module{Types: []wasm.FuncType{{}}}
	m.Funcs = append(m.Funcs, 0)
	m.Code = append(m.Code, wasm.FuncBody{Code: wasm.EncodeInstructions(wasm.I32Const(1), wasm.End())})
	m.Exports = append(m.Exports, wasm.Export{Name: "test-a", Kind: wasm.KindFunc, Idx: 0})
	bin, err := loader.Load(m.Encode())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	e := newEngine(t, Config{})
	_, err = e.Compile(context.Background(), bin)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.IsEncodingFailed(err) {
		t.Errorf("expected an encoding failure, got %v", err)
	}
}

func TestExecutionStateDefaults(t *testing.T) {
	s := NewExecutionState(StateConfig{})
	if s.cfg.Stdout == nil || s.cfg.Stderr == nil {
		t.Fatal("stdout and stderr should default to the host's")
	}

	var out bytes.Buffer
	s = NewExecutionState(StateConfig{Stdout: &out, Env: map[string]string{"B": "2", "A": "1"}})
	if s.cfg.Stdout != &out {
		t.Error("explicit stdout should be kept")
	}
	if s.ModuleConfig() == nil {
		t.Error("ModuleConfig should not be nil")
	}
}
