package proc

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// LaunchSpec describes one detached background process.
type LaunchSpec struct {
	Command string
	Args    []string
	// LogPath receives the process's combined stdout/stderr, appended so a
	// relaunched collector never destroys an earlier crash trace.
	LogPath string
}

// Supervisor launches and terminates background processes. It is an injected
// capability so tests can substitute a fake and assert on launch/terminate
// calls without spawning anything.
type Supervisor interface {
	Launch(spec LaunchSpec) (pid int, err error)
	Terminate(pid int) error
}

// ExecSupervisor launches real processes, detached into their own process
// group so they outlive the CLI invocation that started them, and terminates
// whole groups so a collector's children die with it.
type ExecSupervisor struct{}

// Launch starts the command with stdout/stderr redirected to the spec's log
// file and returns its PID. The new process leads its own group; killing the
// supervisor's parent later will not reap it.
func (ExecSupervisor) Launch(spec LaunchSpec) (int, error) {
	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if spec.LogPath != "" {
		logFile, err := os.OpenFile(spec.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return 0, fmt.Errorf("open collector log %s: %w", spec.LogPath, err)
		}
		defer logFile.Close()
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start %s: %w", spec.Command, err)
	}

	// Reap the child if it exits while this process is still alive. Once
	// this process exits the collector is reparented to init, which reaps
	// it instead.
	go func() { _ = cmd.Wait() }()

	return cmd.Process.Pid, nil
}

// Terminate kills the process group led by pid with SIGKILL. Collectors are
// periodic samplers with append-only output; there is no shutdown handshake
// worth waiting for. A process that is already gone counts as terminated.
func (ExecSupervisor) Terminate(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	if pgid, err := syscall.Getpgid(pid); err == nil && pgid > 0 {
		// Negative PGID targets the full group (launcher plus children).
		if err := syscall.Kill(-pgid, syscall.SIGKILL); err != nil && err != syscall.ESRCH {
			return err
		}
		return nil
	}
	if err := syscall.Kill(pid, syscall.SIGKILL); err != nil && err != syscall.ESRCH {
		return err
	}
	return nil
}
