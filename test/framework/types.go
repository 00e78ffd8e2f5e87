package framework

import (
	"time"

	"github.com/musterhq/muster/pkg/types"
)

// CellConfig tunes the coordinator cell a test assembles. Zero values give a
// fast, deterministic cell: no cool-down, a fixed fake host RAM, and a job
// that exits zero.
type CellConfig struct {
	// Cooldown is the orchestrator's wait between job exit and telemetry
	// stop. Tests usually leave it zero.
	Cooldown time.Duration
	// HostMemoryMB is the fake host RAM reported to the budget calculator.
	// Zero means 16384.
	HostMemoryMB int
	// ExportOptions is the NFS option string written into export rules.
	// Empty means "rw,sync,no_subtree_check".
	ExportOptions string
}

// RemoteCommand is one command the cell's fake channel received.
type RemoteCommand struct {
	Addr    types.WorkerAddress
	Command string
}

// TestingT is an interface matching testing.T
type TestingT interface {
	Logf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	FailNow()
	Failed() bool
	Name() string
	Helper()
	TempDir() string
	Cleanup(func())
}
