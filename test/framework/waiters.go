package framework

import (
	"context"
	"fmt"
	"time"

	"github.com/musterhq/muster/pkg/types"
)

// Waiter provides utilities for waiting on conditions with timeouts
type Waiter struct {
	timeout  time.Duration
	interval time.Duration
}

// NewWaiter creates a new Waiter with the given timeout and polling interval
func NewWaiter(timeout, interval time.Duration) *Waiter {
	return &Waiter{
		timeout:  timeout,
		interval: interval,
	}
}

// DefaultWaiter returns a waiter with sensible defaults for an in-process
// cell (10s timeout, 100ms interval)
func DefaultWaiter() *Waiter {
	return NewWaiter(10*time.Second, 100*time.Millisecond)
}

// WaitFor waits for a condition to become true
func (w *Waiter) WaitFor(ctx context.Context, condition func() bool, description string) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Check immediately
	if condition() {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for: %s (timeout: %v)", description, w.timeout)
		case <-ticker.C:
			if condition() {
				return nil
			}
		}
	}
}

// WaitForWorkerCount waits for the status server to report a specific number
// of registered workers
func (w *Waiter) WaitForWorkerCount(ctx context.Context, client *Client, count int) error {
	return w.WaitFor(ctx, func() bool {
		workers, err := client.Client.ListSlaves(ctx)
		if err != nil {
			return false
		}
		return len(workers) == count
	}, fmt.Sprintf("status server to report %d workers", count))
}

// WaitForRunCount waits for the journal to hold a specific number of runs
func (w *Waiter) WaitForRunCount(ctx context.Context, client *Client, count int) error {
	return w.WaitFor(ctx, func() bool {
		runs, err := client.Client.ListRuns(ctx)
		if err != nil {
			return false
		}
		return len(runs) == count
	}, fmt.Sprintf("journal to hold %d runs", count))
}

// WaitForRunStatus waits for a run record to reach a status
func (w *Waiter) WaitForRunStatus(ctx context.Context, client *Client, id string, status types.RunStatus) error {
	return w.WaitFor(ctx, func() bool {
		record, err := client.Client.GetRun(ctx, id)
		if err != nil {
			return false
		}
		return record.Status == status
	}, fmt.Sprintf("run %s to reach status %s", id, status))
}

// WaitForCollectorCount waits for a specific number of tracked collectors
func (w *Waiter) WaitForCollectorCount(ctx context.Context, client *Client, count int) error {
	return w.WaitFor(ctx, func() bool {
		handles, err := client.Client.ListCollectors(ctx)
		if err != nil {
			return false
		}
		return len(handles) == count
	}, fmt.Sprintf("node to track %d collectors", count))
}

// WaitForConditionWithRetry waits for a condition with exponential backoff retry
func (w *Waiter) WaitForConditionWithRetry(ctx context.Context, condition func() (bool, error), description string) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	interval := w.interval
	maxInterval := 10 * time.Second

	for {
		ok, err := condition()
		if err != nil {
			return fmt.Errorf("error checking condition '%s': %w", description, err)
		}

		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for: %s (timeout: %v)", description, w.timeout)
		case <-time.After(interval):
			// Exponential backoff
			interval = interval * 2
			if interval > maxInterval {
				interval = maxInterval
			}
		}
	}
}

// PollUntil polls a condition until it returns true or context is cancelled
func PollUntil(ctx context.Context, interval time.Duration, condition func() bool) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Check immediately
	if condition() {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if condition() {
				return nil
			}
		}
	}
}

// PollUntilWithError polls a condition that can return an error
func PollUntilWithError(ctx context.Context, interval time.Duration, condition func() (bool, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Check immediately
	if ok, err := condition(); err != nil {
		return err
	} else if ok {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if ok, err := condition(); err != nil {
				return err
			} else if ok {
				return nil
			}
		}
	}
}

// Retry retries an operation with exponential backoff
func Retry(ctx context.Context, attempts int, initialDelay time.Duration, operation func() error) error {
	var err error
	delay := initialDelay

	for i := 0; i < attempts; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
				delay = delay * 2
			}
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", attempts, err)
}
