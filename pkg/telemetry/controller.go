package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/musterhq/muster/pkg/log"
	"github.com/musterhq/muster/pkg/proc"
	"github.com/musterhq/muster/pkg/types"
	"github.com/rs/zerolog"
)

// Output file names inside a run directory. The names are part of the
// on-disk contract: post-hoc analysis joins these files across nodes by the
// run token in the directory name.
const (
	CPUOutputFile  = "cpu-ram.csv"
	DiskOutputFile = "disk-free.csv"
)

// DirectoryExistsError reports a telemetry start into a run directory that
// already exists. Run directories are never reused or overwritten; the token
// in the name isolates every run's output.
type DirectoryExistsError struct {
	Dir string
}

func (e *DirectoryExistsError) Error() string {
	return fmt.Sprintf("run directory %s already exists", e.Dir)
}

// Config carries the collector launch parameters.
type Config struct {
	// CPUInterval is the cpu-sampler tick. dstat takes whole seconds;
	// sub-second intervals round up to one second.
	CPUInterval time.Duration
	// DiskInterval is the disk-free sampler tick.
	DiskInterval time.Duration
	// SelfPath is the muster binary to re-invoke for the disk sampler.
	SelfPath string
}

// Controller starts and stops the node-local collector set. Both collectors
// run detached under the process manager; Stop works from a fresh process
// using only the persisted handles.
type Controller struct {
	mgr *proc.Manager
	sup proc.Supervisor
	cfg Config
	log zerolog.Logger
}

// NewController wires a controller over the process manager and supervisor.
func NewController(mgr *proc.Manager, sup proc.Supervisor, cfg Config) *Controller {
	return &Controller{
		mgr: mgr,
		sup: sup,
		cfg: cfg,
		log: log.WithComponent("telemetry"),
	}
}

// Start creates the run directory and launches the collector set into it,
// cpu-sampler first. An existing directory fails with DirectoryExistsError
// before anything launches. If a later collector fails to start, the ones
// already running are unwound so a retry begins from a clean slate.
func (c *Controller) Start(ctx context.Context, dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return &DirectoryExistsError{Dir: dir}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat run dir %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create run dir %s: %w", dir, err)
	}

	var started []types.CollectorRole
	for _, role := range types.CollectorRoles() {
		spec := c.launchSpec(role, dir)
		_, err := c.mgr.Start(role, dir, func() (int, error) {
			return c.sup.Launch(spec)
		})
		if err != nil {
			c.unwind(started)
			return err
		}
		started = append(started, role)
	}

	c.log.Info().Str("dir", dir).Msg("telemetry collectors started")
	return nil
}

// unwind stops collectors started earlier in a partially failed Start.
func (c *Controller) unwind(started []types.CollectorRole) {
	for i := len(started) - 1; i >= 0; i-- {
		if err := c.mgr.Stop(started[i]); err != nil {
			c.log.Warn().Str("role", string(started[i])).Err(err).
				Msg("failed to unwind collector after partial start")
		}
	}
}

// Stop terminates every collector, in reverse start order. A role that is
// not running is logged and skipped; real termination failures are joined
// and returned, with the affected handles retained for retry.
func (c *Controller) Stop(ctx context.Context) error {
	roles := types.CollectorRoles()
	var errs []error
	for i := len(roles) - 1; i >= 0; i-- {
		role := roles[i]
		err := c.mgr.Stop(role)
		if errors.Is(err, proc.ErrNotRunning) {
			c.log.Warn().Str("role", string(role)).Msg("collector was not running")
			continue
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	c.log.Info().Msg("telemetry collectors stopped")
	return nil
}

func (c *Controller) launchSpec(role types.CollectorRole, dir string) proc.LaunchSpec {
	logPath := filepath.Join(dir, string(role)+".log")
	switch role {
	case types.RoleCPUSampler:
		return proc.LaunchSpec{
			Command: "dstat",
			Args:    c.cpuArgs(dir),
			LogPath: logPath,
		}
	case types.RoleDiskSampler:
		return proc.LaunchSpec{
			Command: c.cfg.SelfPath,
			Args: []string{
				"metrics", "collect-df",
				filepath.Join(dir, DiskOutputFile),
				c.cfg.DiskInterval.String(),
			},
			LogPath: logPath,
		}
	}
	return proc.LaunchSpec{}
}

// cpuArgs builds the dstat invocation: timestamped per-core CPU plus memory,
// written as CSV into the run directory, one row per interval.
func (c *Controller) cpuArgs(dir string) []string {
	cores := make([]string, 0, runtime.NumCPU()+1)
	for i := 0; i < runtime.NumCPU(); i++ {
		cores = append(cores, strconv.Itoa(i))
	}
	cores = append(cores, "total")

	seconds := int(c.cfg.CPUInterval.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	return []string{
		"-t",
		"-c", "-C", strings.Join(cores, ","),
		"-m",
		"--output", filepath.Join(dir, CPUOutputFile),
		"--noheaders",
		strconv.Itoa(seconds),
	}
}
