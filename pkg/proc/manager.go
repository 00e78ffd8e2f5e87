package proc

import (
	"fmt"
	"sync"

	"github.com/musterhq/muster/pkg/log"
	"github.com/musterhq/muster/pkg/types"
	"github.com/rs/zerolog"
)

// LaunchFunc starts a process and returns its PID. The manager invokes it
// only after confirming no handle exists for the role.
type LaunchFunc func() (pid int, err error)

// Manager serializes collector starts and stops around the handle store.
// Handle presence is the sole idempotency gate: a role with a handle cannot
// be started again, and a role without one cannot be stopped.
type Manager struct {
	mu    sync.Mutex
	store Store
	sup   Supervisor
	log   zerolog.Logger
}

// NewManager wires a handle store and a supervisor together.
func NewManager(store Store, sup Supervisor) *Manager {
	return &Manager{
		store: store,
		sup:   sup,
		log:   log.WithComponent("proc"),
	}
}

// Start launches a process for role via launch and persists its handle.
// Returns ErrAlreadyRunning without launching anything if a handle exists.
func (m *Manager) Start(role types.CollectorRole, outputDir string, launch LaunchFunc) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, exists, err := m.store.Get(role)
	if err != nil {
		return Handle{}, err
	}
	if exists {
		return Handle{}, fmt.Errorf("%s: %w", role, ErrAlreadyRunning)
	}

	pid, err := launch()
	if err != nil {
		return Handle{}, fmt.Errorf("launch %s: %w", role, err)
	}

	h := Handle{Role: role, PID: pid, OutputDir: outputDir}
	if err := m.store.Put(h); err != nil {
		// An unrecorded process would be invisible to every later stop, so
		// kill it rather than leak it.
		if termErr := m.sup.Terminate(pid); termErr != nil {
			m.log.Error().Int("pid", pid).Str("role", string(role)).Err(termErr).
				Msg("failed to kill process after handle persist failure")
		}
		return Handle{}, fmt.Errorf("persist handle for %s: %w", role, err)
	}

	m.log.Info().Str("role", string(role)).Int("pid", pid).Str("dir", outputDir).
		Msg("collector started")
	return h, nil
}

// Stop terminates the process tracked for role and deletes its handle.
// Returns ErrNotRunning if no handle exists. On termination failure the
// handle is kept so the operator can retry.
func (m *Manager) Stop(role types.CollectorRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, exists, err := m.store.Get(role)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s: %w", role, ErrNotRunning)
	}

	if err := m.sup.Terminate(h.PID); err != nil {
		return &TerminationError{Role: role, PID: h.PID, Err: err}
	}

	if err := m.store.Delete(role); err != nil {
		return fmt.Errorf("delete handle for %s: %w", role, err)
	}

	m.log.Info().Str("role", string(role)).Int("pid", h.PID).Msg("collector stopped")
	return nil
}

// Running lists the currently tracked handles.
func (m *Manager) Running() ([]Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.List()
}
