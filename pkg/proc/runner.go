package proc

import (
	"context"
	"os/exec"
	"strings"
)

// Runner executes a local command to completion and returns its combined
// output. It is the local counterpart of remote.Channel and is injected for
// the same reason: tests substitute a fake and script outcomes.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (output string, err error)
}

// ExecRunner runs commands through os/exec, honoring context cancellation
// and deadlines.
type ExecRunner struct{}

// Run executes the command and returns trimmed combined output. On non-zero
// exit the output is still returned alongside the *exec.ExitError so callers
// can log what the command said.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}
