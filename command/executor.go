package command

import (
	"context"
	"os/exec"
)

// Executor creates exec.Cmd instances. Providers and action launches go
// through this seam so tests can substitute command construction (e.g. a
// PATH of stub binaries) without touching the code under test.
type Executor interface {
	// Command creates an exec.Cmd for the given argv.
	Command(name string, args ...string) *exec.Cmd

	// CommandContext creates a context-aware exec.Cmd.
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// RealExecutor is the production Executor backed by os/exec.
type RealExecutor struct{}

// Command creates a standard exec.Cmd.
func (e *RealExecutor) Command(name string, args ...string) *exec.Cmd {
	return exec.Command(name, args...)
}

// CommandContext creates a standard context-aware exec.Cmd.
func (e *RealExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}
