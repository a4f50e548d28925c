package harness

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-test/engine"
	"github.com/wippyai/wasm-test/linker"
	"github.com/wippyai/wasm-test/loader"
)

// Options configures a run. The zero value reports to the process's stdout
// and stderr and gives tests the default execution state.
type Options struct {
	// Stdout and Stderr receive the report lines.
	Stdout io.Writer
	Stderr io.Writer

	// State configures every test's execution state. Guest stdout and stderr
	// default to the report streams.
	State engine.StateConfig

	Engine engine.Config

	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.State.Stdout == nil {
		o.State.Stdout = o.Stdout
	}
	if o.State.Stderr == nil {
		o.State.Stderr = o.Stderr
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Summary is the in-memory record of a completed run.
type Summary struct {
	Results []Result
	Passed  int
	Failed  int
}

// Run tests the module at path. The returned error is fatal to the run;
// test failures are only reported and counted. A component that cannot be
// instantiated is fatal, and no further tests run.
func Run(ctx context.Context, path string, opts Options) (*Summary, error) {
	bin, err := loader.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return RunBinary(ctx, bin, opts)
}

// RunModule tests an in-memory core module.
func RunModule(ctx context.Context, module []byte, opts Options) (*Summary, error) {
	bin, err := loader.Load(module)
	if err != nil {
		return nil, err
	}
	return RunBinary(ctx, bin, opts)
}

// RunBinary tests an encoded component.
func RunBinary(ctx context.Context, bin loader.Binary, opts Options) (*Summary, error) {
	opts = opts.withDefaults()

	eng, err := engine.New(ctx, opts.Engine)
	if err != nil {
		return nil, err
	}
	defer eng.Close(ctx)

	comp, err := eng.Compile(ctx, bin)
	if err != nil {
		return nil, err
	}

	l, err := linker.New(ctx, eng, comp)
	if err != nil {
		return nil, err
	}

	tests := Select(ListExports(comp.Type()))
	opts.Logger.Debug("tests selected", zap.Int("count", len(tests)))

	exec := NewExecutor(FromLinker(l), opts.State, NewReporter(opts.Stdout, opts.Stderr), opts.Logger)
	results, err := exec.Run(ctx, tests)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Results: results}
	for _, r := range results {
		if r.Outcome.Status == Passed {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}
	opts.Logger.Debug("run complete", zap.Int("passed", summary.Passed), zap.Int("failed", summary.Failed))
	return summary, nil
}
