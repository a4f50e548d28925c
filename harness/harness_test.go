package harness

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-test/engine"
	"github.com/wippyai/wasm-test/errors"
	"github.com/wippyai/wasm-test/internal/testmod"
	"github.com/wippyai/wasm-test/wasm"
)

func runModule(t *testing.T, module []byte) (*Summary, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	summary, err := RunModule(context.Background(), module, Options{Stdout: &stdout, Stderr: &stderr})
	require.NoError(t, err)
	return summary, stdout.String(), stderr.String()
}

func TestRunOnlyPrefixedExports(t *testing.T) {
	mod := testmod.New().
		Export("test-addition-works", testmod.Nullary).
		Export("helper-func", testmod.Nullary, testmod.Trap()...).
		Bytes()

	summary, stdout, stderr := runModule(t, mod)
	require.Equal(t, "addition-works ... OK!\n", stdout)
	require.Empty(t, stderr)
	require.Equal(t, 1, summary.Passed)
	require.Equal(t, 0, summary.Failed)
}

func TestRunTrapDoesNotStopRun(t *testing.T) {
	mod := testmod.New().
		Export("test-a", testmod.Nullary).
		Export("test-divide", testmod.Nullary, testmod.DivideByZero()...).
		Export("test-z", testmod.Nullary).
		Bytes()

	summary, stdout, stderr := runModule(t, mod)
	require.Equal(t, "a ... OK!\nz ... OK!\n", stdout)
	require.Contains(t, stderr, "error: divide test failed: ")
	require.Contains(t, stderr, "divide by zero")
	require.Equal(t, 2, summary.Passed)
	require.Equal(t, 1, summary.Failed)
}

func TestRunUnreadableFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	_, err := Run(context.Background(), filepath.Join(t.TempDir(), "missing.wasm"), Options{Stdout: &stdout, Stderr: &stderr})
	require.Error(t, err)
	require.True(t, errors.IsUnreadable(err))
	require.Empty(t, stdout.String())
	require.Empty(t, stderr.String())
}

func TestRunLexicographicOrder(t *testing.T) {
	mod := testmod.New().
		Export("test-c", testmod.Nullary).
		Export("test-a", testmod.Nullary).
		Export("test-b", testmod.Nullary).
		Bytes()

	path := filepath.Join(t.TempDir(), "order.wasm")
	require.NoError(t, os.WriteFile(path, mod, 0o600))

	var stdout bytes.Buffer
	summary, err := Run(context.Background(), path, Options{Stdout: &stdout, Stderr: &bytes.Buffer{}})
	require.NoError(t, err)
	require.Equal(t, "a ... OK!\nb ... OK!\nc ... OK!\n", stdout.String())
	require.Len(t, summary.Results, 3)
}

func TestRunNoTests(t *testing.T) {
	summary, stdout, stderr := runModule(t, testmod.New().Export("helper", testmod.Nullary).Bytes())
	require.Empty(t, summary.Results)
	require.Empty(t, stdout)
	require.Empty(t, stderr)
}

func TestRunIsolatesTests(t *testing.T) {
	b := testmod.New()
	g := b.Global()
	mod := b.Export("test-first", testmod.Nullary, testmod.CheckAndSet(g)...).
		Export("test-second", testmod.Nullary, testmod.CheckAndSet(g)...).
		Bytes()

	summary, _, stderr := runModule(t, mod)
	require.Empty(t, stderr)
	require.Equal(t, 2, summary.Passed)
}

func TestRunIsRepeatable(t *testing.T) {
	mod := testmod.New().
		Export("test-ok", testmod.Nullary).
		Export("test-trap", testmod.Nullary, testmod.Trap()...).
		Bytes()

	first, out1, err1 := runModule(t, mod)
	second, out2, err2 := runModule(t, mod)
	require.Equal(t, first.Results, second.Results)
	require.Equal(t, out1, out2)
	require.Equal(t, err1, err2)
}

func TestRunGuestOutputAndExit(t *testing.T) {
	summary, stdout, stderr := runModule(t, testmod.Printer("hello\n", "test-hello"))
	require.Equal(t, "hello\nhello ... OK!\n", stdout)
	require.Empty(t, stderr)
	require.Equal(t, 1, summary.Passed)

	summary, _, stderr = runModule(t, testmod.Exiter("test-bye", 0))
	require.Equal(t, "error: bye test failed: exited with code 0\n", stderr)
	require.Equal(t, 1, summary.Failed)
}

func TestRunMalformedTest(t *testing.T) {
	mod := testmod.New().
		Export("test-param", testmod.I32ToI64, wasm.I64Const(0)).
		Bytes()

	summary, _, stderr := runModule(t, mod)
	require.Equal(t, "error: param test failed: malformed test: expected func(), got func(p0: s32) -> s64\n", stderr)
	require.Equal(t, 1, summary.Failed)
}

func TestRunEncodingFailure(t *testing.T) {
	b := testmod.New()
	b.Import("env", "log", testmod.Nullary)
	_, err := RunModule(context.Background(), b.Export("test-a", testmod.Nullary).Bytes(), Options{})
	require.True(t, errors.IsEncodingFailed(err))
}

func TestRunIsolatesDescriptors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.txt"), []byte("x"), 0o644))
	mod := testmod.FdTable("data.txt", "test-a-open", "test-b-unused")

	var stdout, stderr bytes.Buffer
	summary, err := RunModule(context.Background(), mod, Options{
		Stdout: &stdout,
		Stderr: &stderr,
		State:  engine.StateConfig{Preopens: map[string]string{"/": dir}},
	})
	require.NoError(t, err)
	require.Equal(t, "a-open ... OK!\nb-unused ... OK!\n", stdout.String())
	require.Empty(t, stderr.String())
	require.Equal(t, 2, summary.Passed)
}

func TestRunInstantiationFailureIsFatal(t *testing.T) {
	mod := testmod.New().
		Export("_initialize", testmod.Nullary, testmod.Trap()...).
		Export("test-a", testmod.Nullary).
		Export("test-b", testmod.Nullary).
		Bytes()

	var stdout, stderr bytes.Buffer
	summary, err := RunModule(context.Background(), mod, Options{Stdout: &stdout, Stderr: &stderr})
	require.Error(t, err)
	require.Nil(t, summary)
	require.True(t, errors.HasKind(err, errors.KindInstantiation), "got %v", err)
	require.Empty(t, stdout.String())
	require.Empty(t, stderr.String())
}
