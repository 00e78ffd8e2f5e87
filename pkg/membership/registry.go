package membership

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/musterhq/muster/pkg/events"
	"github.com/musterhq/muster/pkg/exports"
	"github.com/musterhq/muster/pkg/log"
	"github.com/musterhq/muster/pkg/remote"
	"github.com/musterhq/muster/pkg/types"
	"github.com/rs/zerolog"
)

// ErrNotMember reports a remove of an address that was never registered.
var ErrNotMember = errors.New("worker is not a member")

// Trust verifies that a worker is reachable and accepts the coordinator's
// credentials before it may join the cluster.
type Trust interface {
	Establish(ctx context.Context, addr types.WorkerAddress) error
}

// ChannelTrust probes the worker by running the shell no-op over the
// command channel. Key provisioning happens outside Muster; this only
// verifies the result end to end.
type ChannelTrust struct {
	Channel remote.Channel
}

// Establish runs `true` on the worker and reports any transport error.
func (t ChannelTrust) Establish(ctx context.Context, addr types.WorkerAddress) error {
	_, err := t.Channel.Execute(ctx, addr, "true")
	return err
}

// AccessSync is the slice of the export synchronizer the registry drives.
type AccessSync interface {
	Sync(ctx context.Context, addr types.WorkerAddress, desired exports.Presence) error
}

// Registry owns cluster membership. Every mutation runs its side effects
// first and touches the membership file last, so a crash mid-operation never
// records a member that lacks trust or an export rule; retrying the
// operation heals the partial state.
type Registry struct {
	mu     sync.Mutex
	store  Store
	trust  Trust
	acl    AccessSync
	broker *events.Broker
	log    zerolog.Logger
}

// NewRegistry wires a registry over its store, trust probe, export
// synchronizer and event broker.
func NewRegistry(store Store, trust Trust, acl AccessSync, broker *events.Broker) *Registry {
	return &Registry{
		store:  store,
		trust:  trust,
		acl:    acl,
		broker: broker,
		log:    log.WithComponent("membership"),
	}
}

// Add registers a worker: validate the address, establish trust, converge
// the export rule, then append to the membership file if absent. Re-adding
// an existing member is not an error; the probe and the rule sync still run,
// which repairs drift left by a crashed earlier attempt.
func (r *Registry) Add(ctx context.Context, raw string) (types.WorkerAddress, error) {
	addr, err := types.ParseWorkerAddress(raw)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.trust.Establish(ctx, addr); err != nil {
		return "", fmt.Errorf("establish trust with %s: %w", addr, err)
	}
	if err := r.acl.Sync(ctx, addr, exports.Present); err != nil {
		return "", fmt.Errorf("sync export rule for %s: %w", addr, err)
	}

	members, err := r.store.Load()
	if err != nil {
		return "", err
	}
	for _, m := range members {
		if m == addr {
			r.log.Info().Str("worker", addr.String()).Msg("worker already registered")
			return addr, nil
		}
	}
	if err := r.store.Save(append(members, addr)); err != nil {
		return "", err
	}

	r.publish(events.EventSlaveAdded, addr, "worker registered")
	r.log.Info().Str("worker", addr.String()).Msg("worker registered")
	return addr, nil
}

// Remove deregisters a worker: revoke the export rule, then delete from the
// membership file. Removing an unknown address returns ErrNotMember without
// touching anything.
func (r *Registry) Remove(ctx context.Context, raw string) (types.WorkerAddress, error) {
	addr, err := types.ParseWorkerAddress(raw)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	members, err := r.store.Load()
	if err != nil {
		return "", err
	}
	idx := -1
	for i, m := range members {
		if m == addr {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", fmt.Errorf("%s: %w", addr, ErrNotMember)
	}

	if err := r.acl.Sync(ctx, addr, exports.Absent); err != nil {
		return "", fmt.Errorf("sync export rule for %s: %w", addr, err)
	}
	if err := r.store.Save(append(members[:idx], members[idx+1:]...)); err != nil {
		return "", err
	}

	r.publish(events.EventSlaveRemoved, addr, "worker deregistered")
	r.log.Info().Str("worker", addr.String()).Msg("worker deregistered")
	return addr, nil
}

// List returns a snapshot of the registered workers in registration order.
func (r *Registry) List() ([]types.WorkerAddress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Load()
}

func (r *Registry) publish(t events.EventType, addr types.WorkerAddress, msg string) {
	if r.broker == nil {
		return
	}
	r.broker.Publish(&events.Event{Type: t, Worker: addr, Message: msg})
}
