package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/musterhq/muster/pkg/proc"
	"github.com/musterhq/muster/pkg/types"
)

type fakeHandleSource struct {
	handles []proc.Handle
	err     error
}

func (f *fakeHandleSource) Running() ([]proc.Handle, error) {
	return f.handles, f.err
}

type fakeMemberSource struct {
	members []types.WorkerAddress
	err     error
}

func (f *fakeMemberSource) List() ([]types.WorkerAddress, error) {
	return f.members, f.err
}

func TestRefreshSetsGauges(t *testing.T) {
	handles := &fakeHandleSource{handles: []proc.Handle{
		{Role: types.RoleCPUSampler, PID: 100},
	}}
	members := &fakeMemberSource{members: []types.WorkerAddress{"10.0.0.5", "10.0.0.6"}}

	r := NewRefresher(handles, members, time.Minute)
	r.refresh()

	if got := testutil.ToFloat64(CollectorsRunning.WithLabelValues("cpu-sampler")); got != 1 {
		t.Errorf("expected 1 cpu-sampler, got %v", got)
	}

	if got := testutil.ToFloat64(CollectorsRunning.WithLabelValues("disk-sampler")); got != 0 {
		t.Errorf("expected 0 disk-samplers, got %v", got)
	}

	if got := testutil.ToFloat64(WorkersRegistered); got != 2 {
		t.Errorf("expected 2 workers, got %v", got)
	}
}

func TestRefreshZeroesStoppedCollectors(t *testing.T) {
	handles := &fakeHandleSource{handles: []proc.Handle{
		{Role: types.RoleCPUSampler, PID: 100},
		{Role: types.RoleDiskSampler, PID: 101},
	}}
	members := &fakeMemberSource{}

	r := NewRefresher(handles, members, time.Minute)
	r.refresh()

	if got := testutil.ToFloat64(CollectorsRunning.WithLabelValues("disk-sampler")); got != 1 {
		t.Fatalf("expected 1 disk-sampler, got %v", got)
	}

	handles.handles = nil
	r.refresh()

	if got := testutil.ToFloat64(CollectorsRunning.WithLabelValues("cpu-sampler")); got != 0 {
		t.Errorf("expected 0 cpu-samplers after stop, got %v", got)
	}

	if got := testutil.ToFloat64(CollectorsRunning.WithLabelValues("disk-sampler")); got != 0 {
		t.Errorf("expected 0 disk-samplers after stop, got %v", got)
	}
}

func TestRefreshKeepsGaugesOnSourceError(t *testing.T) {
	handles := &fakeHandleSource{handles: []proc.Handle{
		{Role: types.RoleCPUSampler, PID: 100},
	}}
	members := &fakeMemberSource{members: []types.WorkerAddress{"10.0.0.5"}}

	r := NewRefresher(handles, members, time.Minute)
	r.refresh()

	handles.err = errors.New("store unreadable")
	members.err = errors.New("file unreadable")
	r.refresh()

	if got := testutil.ToFloat64(CollectorsRunning.WithLabelValues("cpu-sampler")); got != 1 {
		t.Errorf("expected stale gauge to survive source error, got %v", got)
	}

	if got := testutil.ToFloat64(WorkersRegistered); got != 1 {
		t.Errorf("expected stale worker count to survive source error, got %v", got)
	}
}

func TestRefresherStartStop(t *testing.T) {
	handles := &fakeHandleSource{}
	members := &fakeMemberSource{members: []types.WorkerAddress{"10.0.0.5", "10.0.0.6", "10.0.0.7"}}

	r := NewRefresher(handles, members, 10*time.Millisecond)
	r.Start()
	defer r.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if testutil.ToFloat64(WorkersRegistered) == 3 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatalf("refresher never set worker gauge, got %v", testutil.ToFloat64(WorkersRegistered))
}
