package framework

import (
	"context"
	"strings"
	"time"

	"github.com/musterhq/muster/pkg/journal"
	"github.com/musterhq/muster/pkg/membership"
	"github.com/musterhq/muster/pkg/proc"
	"github.com/musterhq/muster/pkg/types"
)

// Assertions provides test assertion helpers
type Assertions struct {
	t TestingT
}

// NewAssertions creates a new Assertions instance
func NewAssertions(t TestingT) *Assertions {
	return &Assertions{t: t}
}

// MemberListed asserts that the registry lists a worker
func (a *Assertions) MemberListed(addr string, reg *membership.Registry) {
	a.t.Helper()

	members, err := reg.List()
	if err != nil {
		a.t.Fatalf("Failed to list members: %v", err)
	}

	for _, m := range members {
		if m.String() == addr {
			return
		}
	}

	a.t.Fatalf("Worker %s is not a member (members: %v)", addr, members)
}

// MemberAbsent asserts that the registry does not list a worker
func (a *Assertions) MemberAbsent(addr string, reg *membership.Registry) {
	a.t.Helper()

	members, err := reg.List()
	if err != nil {
		a.t.Fatalf("Failed to list members: %v", err)
	}

	for _, m := range members {
		if m.String() == addr {
			a.t.Fatalf("Worker %s is still a member, expected it to be absent", addr)
		}
	}
}

// ExportRulePresent asserts that the export table grants a worker access
func (a *Assertions) ExportRulePresent(addr string, cell *Cell) {
	a.t.Helper()

	present, err := cell.Exports.Present(types.WorkerAddress(addr))
	if err != nil {
		a.t.Fatalf("Failed to check export rule for %s: %v", addr, err)
	}

	if !present {
		a.t.Fatalf("Export rule for %s is missing", addr)
	}
}

// ExportRuleAbsent asserts that the export table has no rule for a worker
func (a *Assertions) ExportRuleAbsent(addr string, cell *Cell) {
	a.t.Helper()

	present, err := cell.Exports.Present(types.WorkerAddress(addr))
	if err != nil {
		a.t.Fatalf("Failed to check export rule for %s: %v", addr, err)
	}

	if present {
		a.t.Fatalf("Export rule for %s still exists, expected it to be revoked", addr)
	}
}

// CollectorTracked asserts that a collector role has a persisted handle
func (a *Assertions) CollectorTracked(role types.CollectorRole, mgr *proc.Manager) {
	a.t.Helper()

	handles, err := mgr.Running()
	if err != nil {
		a.t.Fatalf("Failed to list collector handles: %v", err)
	}

	for _, h := range handles {
		if h.Role == role {
			return
		}
	}

	a.t.Fatalf("Collector %s is not tracked (handles: %v)", role, handles)
}

// NoCollectorsTracked asserts that no collector handles remain
func (a *Assertions) NoCollectorsTracked(mgr *proc.Manager) {
	a.t.Helper()

	handles, err := mgr.Running()
	if err != nil {
		a.t.Fatalf("Failed to list collector handles: %v", err)
	}

	if len(handles) != 0 {
		a.t.Fatalf("Expected no tracked collectors, found %d: %v", len(handles), handles)
	}
}

// RunRecorded asserts that the journal holds a run and returns its record
func (a *Assertions) RunRecorded(jnl *journal.Journal, id string) *types.RunRecord {
	a.t.Helper()

	record, err := jnl.Get(id)
	if err != nil {
		a.t.Fatalf("Run %s is not in the journal: %v", id, err)
	}

	return record
}

// RunStatus asserts that a run record carries a status and exit code
func (a *Assertions) RunStatus(record *types.RunRecord, status types.RunStatus, exitCode int) {
	a.t.Helper()

	if record.Status != status {
		a.t.Fatalf("Run %s has status %s, expected %s", record.ID, record.Status, status)
	}

	if record.ExitCode != exitCode {
		a.t.Fatalf("Run %s has exit code %d, expected %d", record.ID, record.ExitCode, exitCode)
	}
}

// Eventually repeatedly runs a condition until it returns true or timeout occurs
func (a *Assertions) Eventually(condition func() bool, timeout, interval time.Duration, msg string) {
	a.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.t.Fatalf("Timeout waiting for condition: %s (timeout: %v)", msg, timeout)
		case <-ticker.C:
			if condition() {
				return
			}
		}
	}
}

// NoError asserts that the error is nil
func (a *Assertions) NoError(err error, msg string) {
	a.t.Helper()

	if err != nil {
		a.t.Fatalf("%s: %v", msg, err)
	}
}

// Error asserts that the error is not nil
func (a *Assertions) Error(err error, msg string) {
	a.t.Helper()

	if err == nil {
		a.t.Fatalf("%s: expected error but got nil", msg)
	}
}

// Equal asserts that two values are equal
func (a *Assertions) Equal(expected, actual interface{}, msg string) {
	a.t.Helper()

	if expected != actual {
		a.t.Fatalf("%s: expected %v, got %v", msg, expected, actual)
	}
}

// True asserts that a condition is true
func (a *Assertions) True(condition bool, msg string) {
	a.t.Helper()

	if !condition {
		a.t.Fatalf("%s: expected true, got false", msg)
	}
}

// False asserts that a condition is false
func (a *Assertions) False(condition bool, msg string) {
	a.t.Helper()

	if condition {
		a.t.Fatalf("%s: expected false, got true", msg)
	}
}

// Contains asserts that a string contains a substring
func (a *Assertions) Contains(haystack, needle, msg string) {
	a.t.Helper()

	if !strings.Contains(haystack, needle) {
		a.t.Fatalf("%s: expected %q to contain %q", msg, haystack, needle)
	}
}

// NotContains asserts that a string does not contain a substring
func (a *Assertions) NotContains(haystack, needle, msg string) {
	a.t.Helper()

	if strings.Contains(haystack, needle) {
		a.t.Fatalf("%s: expected %q not to contain %q", msg, haystack, needle)
	}
}

// Logf logs a formatted message (non-failing)
func (a *Assertions) Logf(format string, args ...interface{}) {
	a.t.Helper()
	a.t.Logf(format, args...)
}

// Step logs a test step (for visibility in test output)
func (a *Assertions) Step(step string) {
	a.t.Helper()
	a.t.Logf("\n==> %s", step)
}

// Success logs a success message
func (a *Assertions) Success(msg string) {
	a.t.Helper()
	a.t.Logf("✓ %s", msg)
}

// Info logs an informational message
func (a *Assertions) Info(msg string) {
	a.t.Helper()
	a.t.Logf("ℹ %s", msg)
}

// Warning logs a warning message
func (a *Assertions) Warning(msg string) {
	a.t.Helper()
	a.t.Logf("⚠ %s", msg)
}

// Fatalf logs a fatal error and stops the test immediately
func (a *Assertions) Fatalf(format string, args ...interface{}) {
	a.t.Helper()
	a.t.Fatalf(format, args...)
}
