package types

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// WorkerAddress identifies one worker node by hostname or IPv4 address.
// Addresses are compared verbatim; normalization is the caller's problem.
type WorkerAddress string

// ParseWorkerAddress validates a raw address string. A valid address is a
// bare hostname or IPv4 literal: no port, no path, no whitespace. It is the
// same token that ends up in the membership file, the export table and the
// telemetry directory names, so it must be safe in all three.
func ParseWorkerAddress(raw string) (WorkerAddress, error) {
	addr := strings.TrimSpace(raw)
	if addr == "" {
		return "", fmt.Errorf("worker address is empty")
	}
	if strings.ContainsAny(addr, " \t/\\:(),") {
		return "", fmt.Errorf("invalid worker address %q: must be a bare hostname or IPv4 address", raw)
	}
	return WorkerAddress(addr), nil
}

func (a WorkerAddress) String() string {
	return string(a)
}

// CollectorRole tags one background telemetry collector process. At most one
// live process exists per role on a node.
type CollectorRole string

const (
	// RoleCPUSampler is the continuous per-core CPU and memory sampler.
	RoleCPUSampler CollectorRole = "cpu-sampler"
	// RoleDiskSampler is the fixed-interval disk-free sampler.
	RoleDiskSampler CollectorRole = "disk-sampler"
)

// CollectorRoles lists every known role, in start order.
func CollectorRoles() []CollectorRole {
	return []CollectorRole{RoleCPUSampler, RoleDiskSampler}
}

// RunMode selects how a job is submitted to the compute engine.
type RunMode string

const (
	// RunModeLocal runs the job on the coordinator only, with an ad-hoc
	// memory budget derived from host RAM.
	RunModeLocal RunMode = "local"
	// RunModeCluster submits the job to the coordinator's engine endpoint
	// and fans telemetry out to every registered worker.
	RunModeCluster RunMode = "cluster"
)

// RunStatus is the lifecycle state of one recorded job run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// WorkerTelemetry records the per-worker outcome of the telemetry fan-out
// for one run. Empty error strings mean the remote call succeeded.
type WorkerTelemetry struct {
	Address    WorkerAddress `json:"address"`
	StartError string        `json:"start_error,omitempty"`
	StopError  string        `json:"stop_error,omitempty"`
}

// RunRecord is the journal entry for one orchestrated job run. Token is the
// timestamp-derived identifier shared by the coordinator and every worker;
// joining per-node telemetry output later means matching on Token.
type RunRecord struct {
	ID         string            `json:"id"`
	Token      string            `json:"token"`
	Mode       RunMode           `json:"mode"`
	Status     RunStatus         `json:"status"`
	EngineDir  string            `json:"engine_dir"`
	TrainDir   string            `json:"train_dir"`
	TargetDir  string            `json:"target_dir"`
	Topics     int               `json:"topics"`
	Iterations int               `json:"iterations"`
	Algorithm  string            `json:"algorithm"`
	ExitCode   int               `json:"exit_code"`
	LogPath    string            `json:"log_path,omitempty"`
	Workers    []WorkerTelemetry `json:"workers,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at,omitempty"`
}

// MasterRunDir names the coordinator's telemetry directory for a run token.
func MasterRunDir(dataRoot, token string) string {
	return filepath.Join(dataRoot, "master-"+token)
}

// WorkerRunDir names a worker's telemetry directory for a run token. The
// address is part of the name so output from all nodes can live on the same
// share without colliding.
func WorkerRunDir(dataRoot string, addr WorkerAddress, token string) string {
	return filepath.Join(dataRoot, "slave-"+addr.String()+"-"+token)
}
