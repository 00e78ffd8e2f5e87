package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/musterhq/muster/pkg/budget"
	"github.com/musterhq/muster/pkg/log"
	"github.com/musterhq/muster/pkg/proc"
	"github.com/rs/zerolog"
)

// JobSpec describes one topic-model job submission. The artifact jar and
// main class come from configuration; the rest from the run request.
type JobSpec struct {
	TrainDir    string
	TargetDir   string
	Topics      int
	Iterations  int
	Algorithm   string
	ArtifactJar string
	MainClass   string
}

// jobArgs are the positional arguments the analytics artifact expects.
func (j JobSpec) jobArgs() []string {
	return []string{
		j.TrainDir,
		j.TargetDir,
		strconv.Itoa(j.Topics),
		strconv.Itoa(j.Iterations),
		j.Algorithm,
	}
}

// Submitter runs jobs through spark-submit and reports their exit status.
type Submitter struct {
	install *Install
	runner  proc.Runner
	cfg     Config
	log     zerolog.Logger
}

// NewSubmitter wires a submitter over a validated install.
func NewSubmitter(install *Install, runner proc.Runner, cfg Config) *Submitter {
	return &Submitter{
		install: install,
		runner:  runner,
		cfg:     cfg,
		log:     log.WithComponent("engine"),
	}
}

// SubmitLocal runs the job on the coordinator only, sized by the ad-hoc
// local budget. The job's combined output is appended to logPath. Returns
// the job's exit status; a non-zero exit is a job outcome, not an error.
func (s *Submitter) SubmitLocal(ctx context.Context, job JobSpec, b budget.LocalBudget, logPath string) (int, error) {
	args := []string{
		"--master", "local[*]",
		"--driver-memory", fmt.Sprintf("%dm", b.DriverMB),
		"--conf", fmt.Sprintf("spark.driver.maxResultSize=%dm", b.MaxResultMB),
		"--class", job.MainClass,
		job.ArtifactJar,
	}
	args = append(args, job.jobArgs()...)
	return s.submit(ctx, args, logPath)
}

// SubmitCluster submits the job to the coordinator's engine endpoint. Memory
// sizing comes from the daemons' spark-env.sh, written by ConfigureMemory
// before the cluster started.
func (s *Submitter) SubmitCluster(ctx context.Context, job JobSpec, logPath string) (int, error) {
	ip, err := s.cfg.resolver()(s.cfg.Interface)
	if err != nil {
		return -1, err
	}
	args := []string{
		"--master", masterURL(ip, s.cfg.ServicePort),
		"--class", job.MainClass,
		job.ArtifactJar,
	}
	args = append(args, job.jobArgs()...)
	return s.submit(ctx, args, logPath)
}

func (s *Submitter) submit(ctx context.Context, args []string, logPath string) (int, error) {
	out, err := s.runner.Run(ctx, s.install.SubmitBinary(), args...)
	if logErr := appendRunLog(logPath, out); logErr != nil {
		// The job already ran; losing the log copy must not change its outcome.
		s.log.Warn().Str("path", logPath).Err(logErr).Msg("failed to append run log")
	}
	if err == nil {
		return 0, nil
	}

	var exitCoder interface{ ExitCode() int }
	if errors.As(err, &exitCoder) && exitCoder.ExitCode() >= 0 {
		return exitCoder.ExitCode(), nil
	}
	return -1, fmt.Errorf("spark-submit: %w", err)
}

// appendRunLog appends output to the run log. The file is opened O_APPEND
// and never truncated, so one log accumulates every attempt for a token.
func appendRunLog(path, output string) error {
	if path == "" || output == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(output + "\n"); err != nil {
		return err
	}
	return nil
}
