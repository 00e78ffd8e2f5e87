package membership

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/musterhq/muster/pkg/exports"
	"github.com/musterhq/muster/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	addrs   []types.WorkerAddress
	saves   int
	saveErr error
}

func (m *memStore) Load() ([]types.WorkerAddress, error) {
	out := make([]types.WorkerAddress, len(m.addrs))
	copy(out, m.addrs)
	return out, nil
}

func (m *memStore) Save(addrs []types.WorkerAddress) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.addrs = make([]types.WorkerAddress, len(addrs))
	copy(m.addrs, addrs)
	m.saves++
	return nil
}

// callLog records the order of trust probes and rule syncs so tests can
// assert that the membership file is always mutated last.
type callLog struct {
	calls []string
}

type fakeTrust struct {
	log *callLog
	err error
}

func (t *fakeTrust) Establish(ctx context.Context, addr types.WorkerAddress) error {
	t.log.calls = append(t.log.calls, "trust:"+addr.String())
	return t.err
}

type fakeSync struct {
	log *callLog
	err error
}

func (s *fakeSync) Sync(ctx context.Context, addr types.WorkerAddress, desired exports.Presence) error {
	s.log.calls = append(s.log.calls, "sync:"+addr.String()+":"+desired.String())
	return s.err
}

func newTestRegistry(store *memStore, trust *fakeTrust, acl *fakeSync) *Registry {
	return NewRegistry(store, trust, acl, nil)
}

func TestAddRegistersWorker(t *testing.T) {
	log := &callLog{}
	store := &memStore{}
	trust := &fakeTrust{log: log}
	acl := &fakeSync{log: log}
	reg := newTestRegistry(store, trust, acl)

	addr, err := reg.Add(context.Background(), "10.0.0.5")
	require.NoError(t, err)
	assert.Equal(t, types.WorkerAddress("10.0.0.5"), addr)
	assert.Equal(t, []types.WorkerAddress{"10.0.0.5"}, store.addrs)
	assert.Equal(t, []string{"trust:10.0.0.5", "sync:10.0.0.5:present"}, log.calls)
}

func TestAddRejectsInvalidAddress(t *testing.T) {
	log := &callLog{}
	store := &memStore{}
	reg := newTestRegistry(store, &fakeTrust{log: log}, &fakeSync{log: log})

	_, err := reg.Add(context.Background(), "10.0.0.5:22")
	require.Error(t, err)
	assert.Empty(t, log.calls, "nothing may run for an invalid address")
	assert.Empty(t, store.addrs)
}

func TestAddTrustFailureLeavesNoState(t *testing.T) {
	log := &callLog{}
	store := &memStore{}
	trust := &fakeTrust{log: log, err: errors.New("connection refused")}
	acl := &fakeSync{log: log}
	reg := newTestRegistry(store, trust, acl)

	_, err := reg.Add(context.Background(), "10.0.0.5")
	require.Error(t, err)
	assert.Equal(t, []string{"trust:10.0.0.5"}, log.calls, "rule sync must not run after a failed probe")
	assert.Empty(t, store.addrs)
}

func TestAddSyncFailureLeavesRegistryUntouched(t *testing.T) {
	log := &callLog{}
	store := &memStore{}
	acl := &fakeSync{log: log, err: errors.New("exportfs: command not found")}
	reg := newTestRegistry(store, &fakeTrust{log: log}, acl)

	_, err := reg.Add(context.Background(), "10.0.0.5")
	require.Error(t, err)
	assert.Empty(t, store.addrs)
	assert.Equal(t, 0, store.saves)
}

func TestAddIsIdempotentButRepairs(t *testing.T) {
	log := &callLog{}
	store := &memStore{}
	reg := newTestRegistry(store, &fakeTrust{log: log}, &fakeSync{log: log})
	ctx := context.Background()

	_, err := reg.Add(ctx, "10.0.0.5")
	require.NoError(t, err)
	_, err = reg.Add(ctx, "10.0.0.5")
	require.NoError(t, err)

	assert.Equal(t, []types.WorkerAddress{"10.0.0.5"}, store.addrs, "no duplicate entries")
	assert.Equal(t, 1, store.saves, "second add must not rewrite the file")
	// The probe and the rule sync still run on re-add to heal drift.
	assert.Len(t, log.calls, 4)
}

func TestRemoveUnknownWorker(t *testing.T) {
	log := &callLog{}
	store := &memStore{addrs: []types.WorkerAddress{"10.0.0.5"}}
	acl := &fakeSync{log: log}
	reg := newTestRegistry(store, &fakeTrust{log: log}, acl)

	_, err := reg.Remove(context.Background(), "10.0.0.99")
	require.ErrorIs(t, err, ErrNotMember)
	assert.Empty(t, log.calls, "no side effects for an unknown worker")
	assert.Equal(t, []types.WorkerAddress{"10.0.0.5"}, store.addrs)
}

func TestRemoveDeregistersWorker(t *testing.T) {
	log := &callLog{}
	store := &memStore{addrs: []types.WorkerAddress{"10.0.0.5", "10.0.0.6", "10.0.0.7"}}
	reg := newTestRegistry(store, &fakeTrust{log: log}, &fakeSync{log: log})

	addr, err := reg.Remove(context.Background(), "10.0.0.6")
	require.NoError(t, err)
	assert.Equal(t, types.WorkerAddress("10.0.0.6"), addr)
	assert.Equal(t, []types.WorkerAddress{"10.0.0.5", "10.0.0.7"}, store.addrs)
	assert.Equal(t, []string{"sync:10.0.0.6:absent"}, log.calls)
}

func TestRemoveSyncFailureKeepsMembership(t *testing.T) {
	log := &callLog{}
	store := &memStore{addrs: []types.WorkerAddress{"10.0.0.5"}}
	acl := &fakeSync{log: log, err: errors.New("exportfs failed")}
	reg := newTestRegistry(store, &fakeTrust{log: log}, acl)

	_, err := reg.Remove(context.Background(), "10.0.0.5")
	require.Error(t, err)
	assert.Equal(t, []types.WorkerAddress{"10.0.0.5"}, store.addrs,
		"a member whose rule could not be revoked stays a member; retry heals")
}

func TestListPreservesRegistrationOrder(t *testing.T) {
	log := &callLog{}
	store := &memStore{}
	reg := newTestRegistry(store, &fakeTrust{log: log}, &fakeSync{log: log})
	ctx := context.Background()

	for _, addr := range []string{"10.0.0.7", "10.0.0.5", "10.0.0.6"} {
		_, err := reg.Add(ctx, addr)
		require.NoError(t, err)
	}

	members, err := reg.List()
	require.NoError(t, err)
	assert.Equal(t, []types.WorkerAddress{"10.0.0.7", "10.0.0.5", "10.0.0.6"}, members)
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slaves")
	store := NewFileStore(path)

	addrs, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, addrs, "missing file reads as empty cluster")

	want := []types.WorkerAddress{"10.0.0.5", "worker-2"}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5\nworker-2\n", string(data))
}

func TestFileStoreSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slaves")
	require.NoError(t, os.WriteFile(path, []byte("10.0.0.5\n\n  \n10.0.0.6\n"), 0o644))

	got, err := NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, []types.WorkerAddress{"10.0.0.5", "10.0.0.6"}, got)
}

func TestFileStoreRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slaves")
	require.NoError(t, os.WriteFile(path, []byte("10.0.0.5\nnot a valid address\n"), 0o644))

	_, err := NewFileStore(path).Load()
	require.Error(t, err)
}
