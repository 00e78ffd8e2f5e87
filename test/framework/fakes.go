package framework

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/musterhq/muster/pkg/proc"
	"github.com/musterhq/muster/pkg/remote"
	"github.com/musterhq/muster/pkg/types"
)

// FakeChannel is an in-memory remote.Channel. Every command is recorded,
// including the registry's trust probes; failures are scripted per worker.
type FakeChannel struct {
	mu       sync.Mutex
	commands []RemoteCommand
	fail     map[types.WorkerAddress]error
}

// NewFakeChannel returns a channel where every worker is reachable.
func NewFakeChannel() *FakeChannel {
	return &FakeChannel{fail: make(map[types.WorkerAddress]error)}
}

// FailWith makes every command to addr return err.
func (f *FakeChannel) FailWith(addr types.WorkerAddress, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[addr] = err
}

// Unreachable makes addr fail with a remote.UnreachableError.
func (f *FakeChannel) Unreachable(addr types.WorkerAddress) {
	f.FailWith(addr, &remote.UnreachableError{Addr: addr, Err: fmt.Errorf("connection refused")})
}

// Restore clears any scripted failure for addr.
func (f *FakeChannel) Restore(addr types.WorkerAddress) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.fail, addr)
}

// Execute records the command and returns the scripted outcome.
func (f *FakeChannel) Execute(ctx context.Context, addr types.WorkerAddress, command string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &remote.UnreachableError{Addr: addr, Err: err}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, RemoteCommand{Addr: addr, Command: command})
	if err := f.fail[addr]; err != nil {
		return "", err
	}
	return "", nil
}

// Commands returns every received command in order.
func (f *FakeChannel) Commands() []RemoteCommand {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RemoteCommand, len(f.commands))
	copy(out, f.commands)
	return out
}

// CommandsMatching returns the commands containing substr, in order.
func (f *FakeChannel) CommandsMatching(substr string) []RemoteCommand {
	var out []RemoteCommand
	for _, c := range f.Commands() {
		if strings.Contains(c.Command, substr) {
			out = append(out, c)
		}
	}
	return out
}

// FakeSupervisor hands out fake PIDs instead of spawning processes. Launch
// specs and terminated PIDs are recorded for assertions.
type FakeSupervisor struct {
	mu         sync.Mutex
	nextPID    int
	launched   []proc.LaunchSpec
	terminated []int
	failFor    map[string]error
}

// NewFakeSupervisor returns a supervisor whose launches all succeed.
func NewFakeSupervisor() *FakeSupervisor {
	return &FakeSupervisor{nextPID: 40000, failFor: make(map[string]error)}
}

// FailLaunch makes launching the named command fail with err.
func (f *FakeSupervisor) FailLaunch(command string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failFor[command] = err
}

// Launch records the spec and allocates the next fake PID.
func (f *FakeSupervisor) Launch(spec proc.LaunchSpec) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[filepath.Base(spec.Command)]; err != nil {
		return 0, err
	}
	f.launched = append(f.launched, spec)
	f.nextPID++
	return f.nextPID, nil
}

// Terminate records the PID as killed.
func (f *FakeSupervisor) Terminate(pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terminated = append(f.terminated, pid)
	return nil
}

// Launched returns every launch spec in order.
func (f *FakeSupervisor) Launched() []proc.LaunchSpec {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]proc.LaunchSpec, len(f.launched))
	copy(out, f.launched)
	return out
}

// Terminated returns every killed PID in order.
func (f *FakeSupervisor) Terminated() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.terminated))
	copy(out, f.terminated)
	return out
}

// ExitError is a scripted non-zero command exit for the fake runner.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ExitCode reports the scripted status, matching *exec.ExitError.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// FakeRunner scripts local command execution. Outcomes are keyed by the
// command's base name so tests stay independent of install paths.
type FakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	out   map[string]string
	errs  map[string]error
}

// NewFakeRunner returns a runner where every command succeeds with empty
// output.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		out:  make(map[string]string),
		errs: make(map[string]error),
	}
}

// Script sets the outcome for the named command.
func (f *FakeRunner) Script(base, output string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out[base] = output
	f.errs[base] = err
}

// Run records the call and returns the scripted outcome.
func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	base := filepath.Base(name)
	f.calls = append(f.calls, append([]string{base}, args...))
	return f.out[base], f.errs[base]
}

// Calls returns every call in order, each as {base, args...}.
func (f *FakeRunner) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo returns the argument lists of every call to the named command.
func (f *FakeRunner) CallsTo(base string) [][]string {
	var out [][]string
	for _, call := range f.Calls() {
		if call[0] == base {
			out = append(out, call[1:])
		}
	}
	return out
}

// FakeReloader counts export table reloads instead of running exportfs.
type FakeReloader struct {
	mu      sync.Mutex
	reloads int
}

// Reload records the call.
func (f *FakeReloader) Reload(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
	return nil
}

// Reloads returns how many times the table was reloaded.
func (f *FakeReloader) Reloads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reloads
}

// CreateEngineInstall lays a minimal valid engine install under dir, enough
// to pass install validation. The scripts are never executed; the cell's
// fake runner intercepts them by name.
func CreateEngineInstall(t TestingT, dir string) string {
	t.Helper()

	for _, sub := range []string{"sbin", "bin", "conf"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatalf("Failed to create install dir %s: %v", sub, err)
		}
	}
	scripts := []string{
		"sbin/start-master.sh",
		"sbin/stop-master.sh",
		"sbin/start-slave.sh",
		"sbin/stop-slave.sh",
		"bin/spark-submit",
	}
	for _, script := range scripts {
		path := filepath.Join(dir, script)
		if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
			t.Fatalf("Failed to write install script %s: %v", script, err)
		}
	}
	return dir
}
