package metrics

import (
	"time"

	"github.com/musterhq/muster/pkg/proc"
	"github.com/musterhq/muster/pkg/types"
)

// HandleSource reports the collectors currently tracked by a handle.
type HandleSource interface {
	Running() ([]proc.Handle, error)
}

// MemberSource reports the registered workers.
type MemberSource interface {
	List() ([]types.WorkerAddress, error)
}

// Refresher re-samples the state gauges while the status server runs. Runs
// and remote commands bump their counters at the call site; collector and
// membership counts live on disk and have to be polled.
type Refresher struct {
	handles  HandleSource
	members  MemberSource
	interval time.Duration
	stopCh   chan struct{}
}

// NewRefresher creates a refresher polling at the given interval.
func NewRefresher(handles HandleSource, members MemberSource, interval time.Duration) *Refresher {
	return &Refresher{
		handles:  handles,
		members:  members,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins refreshing the gauges.
func (r *Refresher) Start() {
	ticker := time.NewTicker(r.interval)
	go func() {
		// Refresh immediately on start
		r.refresh()

		for {
			select {
			case <-ticker.C:
				r.refresh()
			case <-r.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the refresher
func (r *Refresher) Stop() {
	close(r.stopCh)
}

func (r *Refresher) refresh() {
	r.refreshCollectors()
	r.refreshWorkers()
}

func (r *Refresher) refreshCollectors() {
	handles, err := r.handles.Running()
	if err != nil {
		return
	}

	counts := make(map[types.CollectorRole]int)
	for _, h := range handles {
		counts[h.Role]++
	}

	// Every role gets set, so a stopped collector drops its gauge to zero.
	for _, role := range types.CollectorRoles() {
		CollectorsRunning.WithLabelValues(string(role)).Set(float64(counts[role]))
	}
}

func (r *Refresher) refreshWorkers() {
	members, err := r.members.List()
	if err != nil {
		return
	}

	WorkersRegistered.Set(float64(len(members)))
}
