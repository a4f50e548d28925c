package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/wippyai/wasm-test/engine"
	"github.com/wippyai/wasm-test/harness"
	"github.com/wippyai/wasm-test/linker"
	"github.com/wippyai/wasm-test/loader"
)

// params represents parsed command-line parameters passed to the program.
type params struct {
	Module  string
	Verbose bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the program and returns its exit status. Failing tests do not
// change the status; only fatal errors do.
func run(args []string, stdout, stderr io.Writer) int {
	p, err := parseArgs(args, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	log := newLogger(stderr, p.Verbose)
	defer func() { _ = log.Sync() }()
	engine.SetLogger(log.Named("engine"))
	linker.SetLogger(log.Named("linker"))
	loader.SetLogger(log.Named("loader"))

	summary, err := harness.Run(context.Background(), p.Module, harness.Options{
		Stdout: stdout,
		Stderr: stderr,
		Logger: log.Named("harness"),
	})
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	log.Debug("done", zap.Int("passed", summary.Passed), zap.Int("failed", summary.Failed))
	return 0
}

// Parses the command-line arguments and returns them in a params struct.
func parseArgs(args []string, usage io.Writer) (*params, error) {
	app := kingpin.New("wasm-test", "Run the test-* exports of a WebAssembly module as isolated tests.")
	app.UsageWriter(usage)
	app.ErrorWriter(usage)
	module := app.Arg("module", "Path to the core WebAssembly module to test.").Required().String()
	verbose := app.Flag("verbose", "Log debug output to stderr.").Short('v').Bool()

	if _, err := app.Parse(args); err != nil {
		return nil, err
	}

	return &params{
		Module:  *module,
		Verbose: *verbose,
	}, nil
}

// newLogger returns a console logger on w. Only warnings and errors are shown
// unless verbose is set.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}
