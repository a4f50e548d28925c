package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-test/internal/testmod"
)

func TestParseArgs(t *testing.T) {
	p, err := parseArgs([]string{"tests.wasm"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.Equal(t, "tests.wasm", p.Module)
	require.False(t, p.Verbose)

	p, err = parseArgs([]string{"-v", "tests.wasm"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.True(t, p.Verbose)

	_, err = parseArgs(nil, &bytes.Buffer{})
	require.Error(t, err)
}

func TestRunMissingArgument(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.Equal(t, 1, run(nil, &stdout, &stderr))
	require.Empty(t, stdout.String())
	require.True(t, strings.HasPrefix(stderr.String(), "error: "))
}

func TestRunUnreadableFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{filepath.Join(t.TempDir(), "missing.wasm")}, &stdout, &stderr)
	require.Equal(t, 1, code)
	require.Empty(t, stdout.String())
	require.Contains(t, stderr.String(), "error: ")
	require.NotContains(t, stderr.String(), "OK!")
}

func TestRunFailingTestsExitZero(t *testing.T) {
	mod := testmod.New().
		Export("test-addition-works", testmod.Nullary).
		Export("test-overflow", testmod.Nullary, testmod.DivideByZero()...).
		Export("helper-func", testmod.Nullary).
		Bytes()
	path := filepath.Join(t.TempDir(), "tests.wasm")
	require.NoError(t, os.WriteFile(path, mod, 0o600))

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run([]string{path}, &stdout, &stderr))
	require.Equal(t, "addition-works ... OK!\n", stdout.String())
	require.Contains(t, stderr.String(), "error: overflow test failed: ")
}

func TestRunInstantiationFailureExitsOne(t *testing.T) {
	mod := testmod.New().
		Export("_initialize", testmod.Nullary, testmod.Trap()...).
		Export("test-a", testmod.Nullary).
		Export("test-b", testmod.Nullary).
		Bytes()
	path := filepath.Join(t.TempDir(), "init.wasm")
	require.NoError(t, os.WriteFile(path, mod, 0o600))

	var stdout, stderr bytes.Buffer
	require.Equal(t, 1, run([]string{path}, &stdout, &stderr))
	require.Empty(t, stdout.String())
	require.True(t, strings.HasPrefix(stderr.String(), "error: "))
	require.Contains(t, stderr.String(), "instantiation")
	require.NotContains(t, stderr.String(), "test failed")
}
