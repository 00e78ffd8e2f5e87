package proc

import (
	"errors"
	"fmt"

	"github.com/musterhq/muster/pkg/types"
)

var (
	// ErrAlreadyRunning means a handle for the role exists. The caller must
	// stop the running process explicitly; there is no silent restart.
	ErrAlreadyRunning = errors.New("process already running")

	// ErrNotRunning means no handle exists for the role.
	ErrNotRunning = errors.New("process not running")
)

// Handle records one live background process. Only the PID is durable; the
// output directory is advisory and known only to the process that started
// the collector (stop needs nothing but the PID).
type Handle struct {
	Role      types.CollectorRole `json:"role"`
	PID       int                 `json:"pid"`
	OutputDir string              `json:"output_dir,omitempty"`
}

// TerminationError means the tracked process could not be killed. The handle
// is deliberately retained so the operator can retry instead of losing track
// of a live process.
type TerminationError struct {
	Role types.CollectorRole
	PID  int
	Err  error
}

func (e *TerminationError) Error() string {
	return fmt.Sprintf("terminate %s (pid %d): %v", e.Role, e.PID, e.Err)
}

func (e *TerminationError) Unwrap() error {
	return e.Err
}
