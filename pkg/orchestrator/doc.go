/*
Package orchestrator drives one correlated run: telemetry collectors on the
coordinator and every worker, wrapped around a single job submission, all
stamped with one timestamp token.

The token is the contract. Every node writes its samples into a directory
named after the same token on the shared data root, and the job log carries
it too, so per-node output can be joined into one timeline after the fact
with nothing but filenames.

# State Machine

	         Idle
	          │ Run()
	          ▼
	  TelemetryStarting ── local start fails ──► Failed
	          │
	          │ local collectors up
	          │ (cluster: fan out to workers, failures recorded)
	          ▼
	       Running ── submission cannot launch ──► TelemetryStopping ──► Failed
	          │
	          │ job exits (any status)
	          ▼
	     CoolingDown
	          │ cool-down elapsed (clock)
	          ▼
	  TelemetryStopping
	          │ local stop + per-worker stop (tolerant)
	          ▼
	         Idle

Failed absorbs unrecoverable local errors only: the journal refusing the
start record, local collectors failing to launch, the membership snapshot
failing, the budget being impossible, or the submission binary failing to
launch. A worker that cannot start or stop its collectors is recorded in the
run record and skipped, never fatal; a job that runs and exits non-zero
completes the run with that exit status.

# Sequencing Rules

  - Local collectors start before any worker is contacted. A coordinator
    that cannot observe itself has no business starting a distributed run.
  - The membership registry is snapshotted once per run. Workers added
    mid-run join the next run.
  - Workers are contacted sequentially, starts before the submission and
    stops after the cool-down. Every worker in the snapshot gets a stop,
    including those whose start failed: stop is idempotent on the far side.
  - The cool-down runs only when the job actually ran. A submission that
    never launched has no engine cleanup worth sampling.
  - The job's exit status is surfaced regardless of telemetry-stop failures.

# Observability

Every transition is logged and mirrored into the muster_run_state gauge.
Runs are counted by mode and outcome, remote commands by operation and
outcome (unreachable workers get their own label). The run record is
journaled with status running before anything launches and finalized at the
end, so a crash mid-run leaves a visible running record. Events are
published per step for live CLI progress.

# Usage

	o := orchestrator.New(controller, submitter, registry, channel, journal, broker, orchestrator.Config{
		DataRoot:            cfg.DataRoot,
		RemoteBinary:        cfg.Telemetry.RemoteBinary,
		Cooldown:            cfg.Telemetry.Cooldown.Std(),
		LocalDriverFraction: cfg.Memory.LocalDriverFraction,
		LocalResultFraction: cfg.Memory.LocalResultFraction,
	})

	record, err := o.Run(ctx, orchestrator.Request{
		Mode:      types.RunModeCluster,
		EngineDir: engineDir,
		Job:       job,
	})
	if err != nil {
		return err
	}
	os.Exit(record.ExitCode)

The context's clock drives the token, the cool-down and all timestamps, so
tests run on a mock clock.

# See Also

  - pkg/telemetry: Local collector lifecycle
  - pkg/engine: Job submission and exit status extraction
  - pkg/remote: Worker command channel
  - pkg/journal: Run record persistence
  - pkg/events: Per-step progress events
*/
package orchestrator
