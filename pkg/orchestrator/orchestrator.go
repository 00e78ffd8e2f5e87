package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tilinna/clock"

	"github.com/musterhq/muster/pkg/budget"
	"github.com/musterhq/muster/pkg/engine"
	"github.com/musterhq/muster/pkg/events"
	"github.com/musterhq/muster/pkg/log"
	"github.com/musterhq/muster/pkg/metrics"
	"github.com/musterhq/muster/pkg/remote"
	"github.com/musterhq/muster/pkg/types"
)

// State is the orchestrator's position in the run lifecycle. Failed absorbs
// the run on an unrecoverable local error; per-worker failures never reach
// it.
type State string

const (
	StateIdle              State = "idle"
	StateTelemetryStarting State = "telemetry_starting"
	StateRunning           State = "running"
	StateCoolingDown       State = "cooling_down"
	StateTelemetryStopping State = "telemetry_stopping"
	StateFailed            State = "failed"
)

// States lists every state, for mirroring into the state gauge.
func States() []State {
	return []State{
		StateIdle,
		StateTelemetryStarting,
		StateRunning,
		StateCoolingDown,
		StateTelemetryStopping,
		StateFailed,
	}
}

// TelemetryController starts and stops the local collector set.
type TelemetryController interface {
	Start(ctx context.Context, dir string) error
	Stop(ctx context.Context) error
}

// JobSubmitter runs one job to completion and reports its exit status.
type JobSubmitter interface {
	SubmitLocal(ctx context.Context, job engine.JobSpec, b budget.LocalBudget, logPath string) (int, error)
	SubmitCluster(ctx context.Context, job engine.JobSpec, logPath string) (int, error)
}

// MemberSource lists the registered workers. The orchestrator snapshots it
// once per run; workers added mid-run join the next run.
type MemberSource interface {
	List() ([]types.WorkerAddress, error)
}

// RunJournal records run history. Put is an upsert, so the same record is
// written at start and finalized at the end.
type RunJournal interface {
	Put(record *types.RunRecord) error
}

// Config carries the orchestrator's knobs.
type Config struct {
	// DataRoot is the shared directory run output lives under.
	DataRoot string
	// RemoteBinary is the muster binary path on worker nodes.
	RemoteBinary string
	// Cooldown is observed between job exit and telemetry stop so the
	// engine's own cleanup shows up in the final samples.
	Cooldown time.Duration
	// LocalDriverFraction and LocalResultFraction size the ad-hoc budget
	// for local-mode runs.
	LocalDriverFraction float64
	LocalResultFraction float64
	// HostMemory overrides host RAM discovery. Nil reads /proc/meminfo.
	HostMemory func() (int, error)
}

func (c Config) hostMemory() (int, error) {
	if c.HostMemory != nil {
		return c.HostMemory()
	}
	return budget.HostMemoryMB()
}

// Request describes one run.
type Request struct {
	Mode      types.RunMode
	EngineDir string
	Job       engine.JobSpec
}

// Orchestrator drives one run end to end: local and remote telemetry around
// a job submission, correlated by a shared timestamp token. Not safe for
// concurrent runs; the CLI performs one run per process.
type Orchestrator struct {
	telemetry TelemetryController
	submitter JobSubmitter
	members   MemberSource
	channel   remote.Channel
	journal   RunJournal
	broker    *events.Broker
	cfg       Config
	log       zerolog.Logger
	state     State
}

// New wires an orchestrator. channel and members may be nil when only local
// runs are issued; broker may always be nil.
func New(telemetry TelemetryController, submitter JobSubmitter, members MemberSource,
	channel remote.Channel, journal RunJournal, broker *events.Broker, cfg Config) *Orchestrator {
	o := &Orchestrator{
		telemetry: telemetry,
		submitter: submitter,
		members:   members,
		channel:   channel,
		journal:   journal,
		broker:    broker,
		cfg:       cfg,
		log:       log.WithComponent("orchestrator"),
		state:     StateIdle,
	}
	return o
}

// State reports the current lifecycle state.
func (o *Orchestrator) State() State {
	return o.state
}

// Run executes one full run and returns its finalized record. The returned
// record carries the job's exit status; a non-zero exit is a job outcome,
// not an error. An error means the orchestration itself failed.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*types.RunRecord, error) {
	clck := clock.FromContext(ctx)
	token := clck.Now().Format("20060102-150405")

	record := &types.RunRecord{
		ID:         uuid.New().String(),
		Token:      token,
		Mode:       req.Mode,
		Status:     types.RunStatusRunning,
		EngineDir:  req.EngineDir,
		TrainDir:   req.Job.TrainDir,
		TargetDir:  req.Job.TargetDir,
		Topics:     req.Job.Topics,
		Iterations: req.Job.Iterations,
		Algorithm:  req.Job.Algorithm,
		ExitCode:   -1,
		LogPath:    filepath.Join(o.cfg.DataRoot, "job-"+token+".log"),
		StartedAt:  clck.Now(),
	}

	// A run that cannot be recorded must not start: the journal is how
	// telemetry output gets joined back to a job afterwards.
	if err := o.journal.Put(record); err != nil {
		return nil, fmt.Errorf("journal run start: %w", err)
	}

	o.log.Info().Str("run_id", record.ID).Str("token", token).
		Str("mode", string(req.Mode)).Msg("run started")
	o.publish(&events.Event{Type: events.EventRunStarted, RunID: record.ID,
		Message: fmt.Sprintf("run %s started (%s)", token, req.Mode)})

	o.setState(StateTelemetryStarting)

	masterDir := types.MasterRunDir(o.cfg.DataRoot, token)
	if err := o.telemetry.Start(ctx, masterDir); err != nil {
		metrics.TelemetryStartFailures.WithLabelValues("local").Inc()
		// Nothing was launched remotely, so there is nothing to unwind.
		o.finalize(ctx, record, types.RunStatusFailed, StateFailed)
		return record, fmt.Errorf("start local telemetry: %w", err)
	}
	o.publish(&events.Event{Type: events.EventTelemetryStarted, RunID: record.ID,
		Message: "local collectors started in " + masterDir})

	var workers []types.WorkerAddress
	if req.Mode == types.RunModeCluster {
		var err error
		workers, err = o.members.List()
		if err != nil {
			o.stopTelemetry(ctx, record, nil)
			o.finalize(ctx, record, types.RunStatusFailed, StateFailed)
			return record, fmt.Errorf("snapshot membership: %w", err)
		}
		o.startWorkerTelemetry(ctx, record, workers, token)
		// Per-worker outcomes are part of the run's durable record even if
		// the job later crashes this process.
		if err := o.journal.Put(record); err != nil {
			o.log.Warn().Err(err).Msg("failed to journal worker telemetry outcomes")
		}
	}

	o.setState(StateRunning)

	exitCode, err := o.submitJob(ctx, req, record)
	if err != nil {
		// The job never ran, so there is no engine cleanup to wait out:
		// skip the cool-down but still stop every collector.
		o.stopTelemetry(ctx, record, workers)
		o.finalize(ctx, record, types.RunStatusFailed, StateFailed)
		return record, err
	}
	record.ExitCode = exitCode
	o.log.Info().Int("exit_code", exitCode).Str("token", token).Msg("job exited")
	o.publish(&events.Event{Type: events.EventJobExited, RunID: record.ID,
		Message: fmt.Sprintf("job exited with status %d", exitCode)})

	o.setState(StateCoolingDown)
	o.publish(&events.Event{Type: events.EventCooldown, RunID: record.ID,
		Message: fmt.Sprintf("cooling down for %s", o.cfg.Cooldown)})
	o.cooldown(ctx)

	o.stopTelemetry(ctx, record, workers)

	o.finalize(ctx, record, types.RunStatusCompleted, StateIdle)
	return record, nil
}

// submitJob picks the submission path for the request's mode. Local mode
// derives its budget from host RAM at submission time.
func (o *Orchestrator) submitJob(ctx context.Context, req Request, record *types.RunRecord) (int, error) {
	switch req.Mode {
	case types.RunModeLocal:
		totalMB, err := o.cfg.hostMemory()
		if err != nil {
			return -1, err
		}
		lb, err := budget.ForLocal(budget.LocalProfile{
			TotalMB:        totalMB,
			DriverFraction: o.cfg.LocalDriverFraction,
			ResultFraction: o.cfg.LocalResultFraction,
		})
		if err != nil {
			return -1, err
		}
		o.log.Info().Int("driver_mb", lb.DriverMB).Int("max_result_mb", lb.MaxResultMB).
			Msg("local budget computed")
		return o.submitter.SubmitLocal(ctx, req.Job, lb, record.LogPath)
	case types.RunModeCluster:
		return o.submitter.SubmitCluster(ctx, req.Job, record.LogPath)
	default:
		return -1, fmt.Errorf("unknown run mode %q", req.Mode)
	}
}

// startWorkerTelemetry fans collector starts out to the snapshot, one worker
// at a time. Failures are recorded and logged, never fatal: a run with
// partial telemetry beats no run.
func (o *Orchestrator) startWorkerTelemetry(ctx context.Context, record *types.RunRecord,
	workers []types.WorkerAddress, token string) {
	for _, addr := range workers {
		dir := types.WorkerRunDir(o.cfg.DataRoot, addr, token)
		command := fmt.Sprintf("%s metrics start %s", o.cfg.RemoteBinary, dir)

		entry := workerEntry(record, addr)
		if _, err := o.remoteCommand(ctx, "telemetry_start", addr, command); err != nil {
			entry.StartError = err.Error()
			metrics.TelemetryStartFailures.WithLabelValues("worker").Inc()
			o.log.Warn().Str("worker", addr.String()).Err(err).
				Msg("worker telemetry start failed")
			o.publish(&events.Event{Type: events.EventWorkerTelemetryFailed,
				RunID: record.ID, Worker: addr, Message: "start failed: " + err.Error()})
			continue
		}
		o.log.Info().Str("worker", addr.String()).Str("dir", dir).
			Msg("worker telemetry started")
		o.publish(&events.Event{Type: events.EventWorkerTelemetryStarted,
			RunID: record.ID, Worker: addr, Message: "collectors started in " + dir})
	}
}

// stopTelemetry stops the local collectors and fans stop out to every worker
// in the snapshot. Stop is tolerant end to end: a worker whose start failed
// still gets a stop (its collectors exit 0 on nothing-running), and one
// unreachable worker never blocks the rest.
func (o *Orchestrator) stopTelemetry(ctx context.Context, record *types.RunRecord,
	workers []types.WorkerAddress) {
	o.setState(StateTelemetryStopping)

	if err := o.telemetry.Stop(ctx); err != nil {
		metrics.TelemetryStopFailures.WithLabelValues("local").Inc()
		o.log.Error().Err(err).Msg("local telemetry stop failed")
	} else {
		o.publish(&events.Event{Type: events.EventTelemetryStopped, RunID: record.ID,
			Message: "local collectors stopped"})
	}

	for _, addr := range workers {
		command := fmt.Sprintf("%s metrics stop", o.cfg.RemoteBinary)

		entry := workerEntry(record, addr)
		if _, err := o.remoteCommand(ctx, "telemetry_stop", addr, command); err != nil {
			entry.StopError = err.Error()
			metrics.TelemetryStopFailures.WithLabelValues("worker").Inc()
			o.log.Warn().Str("worker", addr.String()).Err(err).
				Msg("worker telemetry stop failed")
			o.publish(&events.Event{Type: events.EventWorkerTelemetryFailed,
				RunID: record.ID, Worker: addr, Message: "stop failed: " + err.Error()})
			continue
		}
		o.publish(&events.Event{Type: events.EventWorkerTelemetryStopped,
			RunID: record.ID, Worker: addr, Message: "collectors stopped"})
	}
}

// remoteCommand issues one command over the channel, with metrics on the
// side. Unreachable workers get their own outcome label so a dead node is
// distinguishable from a failing command.
func (o *Orchestrator) remoteCommand(ctx context.Context, op string,
	addr types.WorkerAddress, command string) (string, error) {
	clck := clock.FromContext(ctx)
	start := clck.Now()
	out, err := o.channel.Execute(ctx, addr, command)
	metrics.RemoteCommandDuration.WithLabelValues(op).Observe(clck.Now().Sub(start).Seconds())

	outcome := "success"
	if err != nil {
		outcome = "failure"
		var unreachable *remote.UnreachableError
		if errors.As(err, &unreachable) {
			outcome = "unreachable"
		}
	}
	metrics.RemoteCommands.WithLabelValues(op, outcome).Inc()
	return out, err
}

// cooldown waits the configured interval on the context clock. Cancellation
// cuts it short; the telemetry stop still runs.
func (o *Orchestrator) cooldown(ctx context.Context) {
	if o.cfg.Cooldown <= 0 {
		return
	}
	clck := clock.FromContext(ctx)
	timer := clck.NewTimer(o.cfg.Cooldown)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		o.log.Warn().Msg("cool-down interrupted, stopping telemetry early")
	case <-timer.C:
	}
}

// finalize stamps the record, writes it back, counts the run and settles the
// state machine. The exit status already in the record is surfaced no matter
// what happened to telemetry.
func (o *Orchestrator) finalize(ctx context.Context, record *types.RunRecord,
	status types.RunStatus, endState State) {
	clck := clock.FromContext(ctx)
	record.Status = status
	record.FinishedAt = clck.Now()
	if err := o.journal.Put(record); err != nil {
		o.log.Error().Str("run_id", record.ID).Err(err).Msg("failed to finalize run record")
	}

	outcome := "failed"
	if status == types.RunStatusCompleted && record.ExitCode == 0 {
		outcome = "succeeded"
	}
	metrics.RunsTotal.WithLabelValues(string(record.Mode), outcome).Inc()

	o.publish(&events.Event{Type: events.EventRunFinished, RunID: record.ID,
		Message: fmt.Sprintf("run %s finished: %s (exit %d)", record.Token, status, record.ExitCode)})
	o.log.Info().Str("run_id", record.ID).Str("token", record.Token).
		Str("status", string(status)).Int("exit_code", record.ExitCode).Msg("run finished")

	o.setState(endState)
}

func (o *Orchestrator) setState(s State) {
	o.state = s
	for _, st := range States() {
		v := 0.0
		if st == s {
			v = 1
		}
		metrics.RunState.WithLabelValues(string(st)).Set(v)
	}
	o.log.Info().Str("state", string(s)).Msg("state transition")
}

func (o *Orchestrator) publish(event *events.Event) {
	if o.broker == nil {
		return
	}
	o.broker.Publish(event)
}

// workerEntry finds or creates the record's telemetry entry for addr.
func workerEntry(record *types.RunRecord, addr types.WorkerAddress) *types.WorkerTelemetry {
	for i := range record.Workers {
		if record.Workers[i].Address == addr {
			return &record.Workers[i]
		}
	}
	record.Workers = append(record.Workers, types.WorkerTelemetry{Address: addr})
	return &record.Workers[len(record.Workers)-1]
}
