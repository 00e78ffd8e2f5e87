/*
Package proc tracks and controls background collector processes.

Telemetry collectors are long-lived processes that outlive the CLI
invocation that started them. This package is everything Muster knows about
them: a durable handle store, a supervisor that launches and kills real
processes, and a manager that makes start/stop idempotent.

# Architecture

	┌──────────────── PROCESS LIFECYCLE ──────────────────────┐
	│                                                          │
	│  ┌────────────────────────────────────────────┐         │
	│  │                 Manager                     │         │
	│  │  - One mutex serializes Start/Stop          │         │
	│  │  - Handle presence is the idempotency gate  │         │
	│  └─────────┬──────────────────────┬───────────┘         │
	│            │                      │                      │
	│  ┌─────────▼──────────┐  ┌────────▼───────────┐         │
	│  │       Store        │  │     Supervisor     │         │
	│  │  <role>.pid files  │  │  - Setpgid launch  │         │
	│  │  bare PID inside   │  │  - SIGKILL group   │         │
	│  └────────────────────┘  └────────────────────┘         │
	└──────────────────────────────────────────────────────────┘

# Invariants

At most one live handle exists per role:

  - Start with an existing handle returns ErrAlreadyRunning and launches
    nothing, so two collectors can never write into the same run directory.
  - Stop without a handle returns ErrNotRunning.
  - A failed termination returns TerminationError and keeps the handle, so
    the operator retries instead of orphaning a live process.
  - A process launched but not persisted is killed immediately; a PID the
    store does not know about is a leak.

# Persistence

One file per role under the PID directory, containing the bare process
identifier:

	/var/run/muster/cpu-sampler.pid   → "31337\n"
	/var/run/muster/disk-sampler.pid  → "31402\n"

# Process Group Discipline

The supervisor starts collectors with Setpgid so each leads its own process
group, and terminates by signalling the whole group. dstat-style samplers
spawn children; killing only the leader would leave those running.

Termination is SIGKILL with no handshake: collectors append complete rows
and hold no state worth flushing. A process that is already gone (ESRCH)
counts as terminated.

# Usage

	mgr := proc.NewManager(proc.NewFileStore(cfg.PIDDir), proc.ExecSupervisor{})

	handle, err := mgr.Start(types.RoleCPUSampler, runDir, func() (int, error) {
		return sup.Launch(proc.LaunchSpec{Command: "dstat", Args: args})
	})
	if errors.Is(err, proc.ErrAlreadyRunning) {
		// a collector is live; stop it explicitly first
	}
*/
package proc
