package engine

import (
	"crypto/rand"
	"io"
	"os"
	"sort"

	"github.com/tetratelabs/wazero"
)

// StateConfig configures the system capabilities seen by one instantiation.
// The zero value grants no arguments, no environment and no directories, and
// inherits the host's stdout and stderr.
type StateConfig struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Env holds environment variables, passed to the guest in key order.
	Env map[string]string

	// Preopens maps guest paths to host directories.
	Preopens map[string]string

	// Args are the guest's command line arguments, program name included.
	Args []string
}

// ExecutionState is the per-instantiation system context. It is created
// fresh for every test and consumed by a single instantiation.
type ExecutionState struct {
	cfg StateConfig
}

// NewExecutionState creates an execution state from cfg.
func NewExecutionState(cfg StateConfig) *ExecutionState {
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	return &ExecutionState{cfg: cfg}
}

// ModuleConfig returns the wazero configuration for the core instance that
// calls into the capability host module. The instance is anonymous and no
// start functions run.
func (s *ExecutionState) ModuleConfig() wazero.ModuleConfig {
	mc := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions().
		WithStdout(s.cfg.Stdout).
		WithStderr(s.cfg.Stderr).
		WithSysWalltime().
		WithSysNanotime().
		WithSysNanosleep().
		WithRandSource(rand.Reader)

	if s.cfg.Stdin != nil {
		mc = mc.WithStdin(s.cfg.Stdin)
	}
	if len(s.cfg.Args) > 0 {
		mc = mc.WithArgs(s.cfg.Args...)
	}

	keys := make([]string, 0, len(s.cfg.Env))
	for k := range s.cfg.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		mc = mc.WithEnv(k, s.cfg.Env[k])
	}

	if len(s.cfg.Preopens) > 0 {
		guests := make([]string, 0, len(s.cfg.Preopens))
		for guest := range s.cfg.Preopens {
			guests = append(guests, guest)
		}
		sort.Strings(guests)
		fs := wazero.NewFSConfig()
		for _, guest := range guests {
			fs = fs.WithDirMount(s.cfg.Preopens[guest], guest)
		}
		mc = mc.WithFSConfig(fs)
	}

	return mc
}

// PlainModuleConfig returns the configuration for core instances that never
// reach the capability host module.
func PlainModuleConfig() wazero.ModuleConfig {
	return wazero.NewModuleConfig().WithName("").WithStartFunctions()
}
