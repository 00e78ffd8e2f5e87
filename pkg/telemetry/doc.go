/*
Package telemetry starts and stops the per-node collector set and implements
the disk-free sampler.

Every run gets one fresh directory per node, named by the shared run token.
Two collectors write into it for the duration of the run:

	cpu-sampler   dstat: timestamped per-core CPU and memory, CSV, one row
	              per second (cpu-ram.csv)
	disk-sampler  the muster binary re-invoked as `metrics collect-df`:
	              volume usage of the run directory, one row per interval
	              (disk-free.csv)

Each collector's own stdout/stderr lands in <dir>/<role>.log for
post-mortems.

# Architecture

	Controller.Start(ctx, dir)
	    │
	    ├── stat dir        exists ⇒ DirectoryExistsError, nothing launched
	    ├── MkdirAll
	    │
	    ├── proc.Manager.Start("cpu-sampler") ── dstat ──▶ cpu-ram.csv
	    │
	    └── proc.Manager.Start("disk-sampler") ─ muster ─▶ disk-free.csv
	            │                         metrics collect-df
	            └── on failure: unwind the cpu-sampler, return error

Collectors run detached in their own process groups, so they survive the CLI
process that started them. The only record of a running collector is its PID
file; Stop in a later process works entirely from those handles.

# Run isolation

A run directory is never reused. Start refuses an existing directory with
DirectoryExistsError before launching anything, which protects the previous
run's output from being interleaved with a new run's. The token in the
directory name (second-resolution wall clock) makes collisions a sign of a
real operational mistake, not a case to paper over.

# Failure behavior

Start is all-or-nothing per node: when a later collector fails to launch,
the earlier ones are stopped best-effort and the error is returned, so a
retry starts from a clean slate. Stop is tolerant the other way around: a
role without a handle is logged and skipped (stopping twice is not an
error), while a termination failure is returned with the handle retained so
the operator can retry.

# Disk-free sampler

CollectDiskFree appends CSV rows shaped as

	timestamp,used,available,percent_used
	2026-08-25 13:00:00,8388608,41943040,16.7

with used and available in KiB and the percentage at one decimal. The first
row is written immediately, then one per tick. The ticker comes from the
clock in ctx, so tests drive it with a mock clock. Rows are fsynced as they
are written; the sampler is killed with SIGKILL and gets no chance to flush.

# Usage

	ctl := telemetry.NewController(mgr, proc.ExecSupervisor{}, telemetry.Config{
	    CPUInterval:  time.Second,
	    DiskInterval: 5 * time.Second,
	    SelfPath:     self,
	})

	if err := ctl.Start(ctx, types.MasterRunDir(dataRoot, token)); err != nil {
	    return err
	}
	defer ctl.Stop(ctx)

# See Also

  - pkg/proc: handle store, supervisor and the start/stop idempotency gate.
  - pkg/orchestrator: drives Start/Stop locally and fans the same commands
    out to workers over SSH.
*/
package telemetry
