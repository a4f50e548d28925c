package harness

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/sys"

	"github.com/wippyai/wasm-test/engine"
	wasmerrors "github.com/wippyai/wasm-test/errors"
)

// fakeInstance fails calls listed in failures and records its lifecycle.
type fakeInstance struct {
	owner  *fakeInstantiator
	closed bool
}

func (f *fakeInstance) Call(_ context.Context, export string) error {
	f.owner.calls = append(f.owner.calls, export)
	if f.owner.open != 1 {
		return errors.New("instances overlap")
	}
	return f.owner.failures[export]
}

func (f *fakeInstance) Close(context.Context) error {
	if !f.closed {
		f.closed = true
		f.owner.open--
	}
	return nil
}

type fakeInstantiator struct {
	failures  map[string]error
	instErr   error
	calls     []string
	instances []*fakeInstance
	open      int
}

func (f *fakeInstantiator) Instantiate(_ context.Context, state *engine.ExecutionState) (Instance, error) {
	if state == nil {
		return nil, errors.New("missing execution state")
	}
	if f.instErr != nil {
		return nil, f.instErr
	}
	inst := &fakeInstance{owner: f}
	f.instances = append(f.instances, inst)
	f.open++
	return inst, nil
}

func newTestExecutor(inst Instantiator) (*Executor, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return NewExecutor(inst, engine.StateConfig{}, NewReporter(&stdout, &stderr), nil), &stdout, &stderr
}

func cases(names ...string) []TestCase {
	var exports []Export
	for _, n := range names {
		exports = append(exports, nullaryExport(n))
	}
	return Select(exports)
}

func TestExecutorRunsEveryTestInFreshInstance(t *testing.T) {
	fake := &fakeInstantiator{failures: map[string]error{
		"test-b": errors.New("wasm error: integer divide by zero\nwasm stack trace:\n\t.$1()"),
	}}
	exec, stdout, stderr := newTestExecutor(fake)

	results, err := exec.Run(context.Background(), cases("test-a", "test-b", "test-c"))
	require.NoError(t, err)

	require.Equal(t, []string{"test-a", "test-b", "test-c"}, fake.calls)
	require.Len(t, fake.instances, 3)
	for _, inst := range fake.instances {
		require.True(t, inst.closed)
	}

	require.Equal(t, Passed, results[0].Outcome.Status)
	require.Equal(t, Fail("wasm error: integer divide by zero"), results[1].Outcome)
	require.Equal(t, Passed, results[2].Outcome.Status)

	require.Equal(t, "a ... OK!\nc ... OK!\n", stdout.String())
	require.Equal(t, "error: b test failed: wasm error: integer divide by zero\n", stderr.String())
}

func TestExecutorClassifiesExit(t *testing.T) {
	fake := &fakeInstantiator{failures: map[string]error{"test-exit": sys.NewExitError(7)}}
	exec, _, _ := newTestExecutor(fake)

	outcome, err := exec.Execute(context.Background(), cases("test-exit")[0])
	require.NoError(t, err)
	require.Equal(t, Fail("exited with code 7"), outcome)
}

func TestExecutorInstantiationFailureStopsRun(t *testing.T) {
	fake := &fakeInstantiator{instErr: errors.New("start function trapped")}
	exec, stdout, stderr := newTestExecutor(fake)

	results, err := exec.Run(context.Background(), cases("test-a", "test-b"))
	require.Error(t, err)
	require.True(t, wasmerrors.HasKind(err, wasmerrors.KindInstantiation))
	require.ErrorContains(t, err, "start function trapped")
	require.Empty(t, results)
	require.Empty(t, stdout.String())
	require.Empty(t, stderr.String())
}

func TestExecutorKeepsInstantiationErrors(t *testing.T) {
	cause := wasmerrors.Instantiation(errors.New("module_instantiate failed"))
	exec, _, _ := newTestExecutor(&fakeInstantiator{instErr: cause})

	_, err := exec.Execute(context.Background(), cases("test-a")[0])
	require.Same(t, cause, err)
}

func TestExecutorSkipsMalformedTests(t *testing.T) {
	fake := &fakeInstantiator{}
	exec, _, stderr := newTestExecutor(fake)

	tc := TestCase{Name: "x", Export: Export{Name: "test-x"}}
	results, err := exec.Run(context.Background(), []TestCase{tc})
	require.NoError(t, err)

	require.Equal(t, Failed, results[0].Outcome.Status)
	require.Empty(t, fake.instances, "malformed tests are never instantiated")
	require.Contains(t, stderr.String(), "error: x test failed: malformed test")
}

func TestExecutorEmptyRun(t *testing.T) {
	exec, stdout, stderr := newTestExecutor(&fakeInstantiator{})
	results, err := exec.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, results)
	require.Empty(t, stdout.String())
	require.Empty(t, stderr.String())
}
