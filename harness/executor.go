package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-test/engine"
	"github.com/wippyai/wasm-test/errors"
	"github.com/wippyai/wasm-test/linker"
)

// Instance is a component instance that can run one test.
type Instance interface {
	Call(ctx context.Context, export string) error
	Close(ctx context.Context) error
}

// Instantiator creates a fresh Instance for every test.
type Instantiator interface {
	Instantiate(ctx context.Context, state *engine.ExecutionState) (Instance, error)
}

// FromLinker adapts a linker to an Instantiator.
func FromLinker(l *linker.Linker) Instantiator {
	return linkerInstantiator{l}
}

type linkerInstantiator struct {
	l *linker.Linker
}

func (li linkerInstantiator) Instantiate(ctx context.Context, state *engine.ExecutionState) (Instance, error) {
	inst, err := li.l.Instantiate(ctx, state)
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// Executor runs tests one at a time, each in its own instance.
type Executor struct {
	instantiator Instantiator
	reporter     *Reporter
	logger       *zap.Logger
	state        engine.StateConfig
}

// NewExecutor creates an executor. Every test gets an execution state built
// from state; outcomes go to reporter.
func NewExecutor(instantiator Instantiator, state engine.StateConfig, reporter *Reporter, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		instantiator: instantiator,
		reporter:     reporter,
		logger:       logger,
		state:        state,
	}
}

// Run executes tests in order and reports each outcome as soon as it is
// known. A failing test never stops the run; a component that cannot be
// instantiated does, and Run returns the results so far with the fatal error.
func (e *Executor) Run(ctx context.Context, tests []TestCase) ([]Result, error) {
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		outcome, err := e.Execute(ctx, tc)
		if err != nil {
			return results, err
		}
		e.reporter.Report(tc.Name, outcome)
		results = append(results, Result{Test: tc, Outcome: outcome})
	}
	return results, nil
}

// Execute runs a single test in a fresh instance and classifies the result.
// The error is non-nil only when the component could not be instantiated.
func (e *Executor) Execute(ctx context.Context, tc TestCase) (Outcome, error) {
	if reason, ok := tc.Malformed(); ok {
		e.logger.Debug("skipping malformed test", zap.String("export", tc.Export.Name), zap.String("reason", reason))
		return Fail(reason), nil
	}

	inst, err := e.instantiator.Instantiate(ctx, engine.NewExecutionState(e.state))
	if err != nil {
		e.logger.Debug("instantiation failed", zap.String("export", tc.Export.Name), zap.Error(err))
		if !errors.HasKind(err, errors.KindInstantiation) {
			err = errors.Instantiation(err)
		}
		return Outcome{}, err
	}
	defer func() {
		if err := inst.Close(ctx); err != nil {
			e.logger.Warn("closing test instance", zap.String("export", tc.Export.Name), zap.Error(err))
		}
	}()

	if err := inst.Call(ctx, tc.Export.Name); err != nil {
		e.logger.Debug("test failed", zap.String("export", tc.Export.Name), zap.Error(err))
		return Fail(failureReason(err)), nil
	}
	return Pass(), nil
}

// failureReason renders a test failure on one line. Guest exits are named
// explicitly; traps keep their message and drop the wasm stack trace.
func failureReason(err error) string {
	var exit *sys.ExitError
	if errors.As(err, &exit) {
		return fmt.Sprintf("exited with code %d", exit.ExitCode())
	}
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return msg
}
