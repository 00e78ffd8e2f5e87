package proc

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/musterhq/muster/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory Store.
type fakeStore struct {
	mu      sync.Mutex
	handles map[types.CollectorRole]Handle
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{handles: make(map[types.CollectorRole]Handle)}
}

func (s *fakeStore) Get(role types.CollectorRole) (Handle, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[role]
	return h, ok, nil
}

func (s *fakeStore) Put(h Handle) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handles[h.Role] = h
	return nil
}

func (s *fakeStore) Delete(role types.CollectorRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.handles[role]; !ok {
		return fmt.Errorf("no handle for %s", role)
	}
	delete(s.handles, role)
	return nil
}

func (s *fakeStore) List() ([]Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Handle
	for _, role := range types.CollectorRoles() {
		if h, ok := s.handles[role]; ok {
			out = append(out, h)
		}
	}
	return out, nil
}

// fakeSupervisor hands out PIDs and records terminations.
type fakeSupervisor struct {
	mu         sync.Mutex
	nextPID    int
	launched   []LaunchSpec
	terminated []int
	termErr    error
}

func (s *fakeSupervisor) Launch(spec LaunchSpec) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPID++
	s.launched = append(s.launched, spec)
	return 10000 + s.nextPID, nil
}

func (s *fakeSupervisor) Terminate(pid int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.termErr != nil {
		return s.termErr
	}
	s.terminated = append(s.terminated, pid)
	return nil
}

func TestManagerStartPersistsHandle(t *testing.T) {
	store := newFakeStore()
	mgr := NewManager(store, &fakeSupervisor{})

	h, err := mgr.Start(types.RoleCPUSampler, "/data/master-T1", func() (int, error) { return 4242, nil })
	require.NoError(t, err)
	assert.Equal(t, 4242, h.PID)
	assert.Equal(t, types.RoleCPUSampler, h.Role)
	assert.Equal(t, "/data/master-T1", h.OutputDir)

	stored, ok, err := store.Get(types.RoleCPUSampler)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4242, stored.PID)
}

func TestManagerStartTwiceFails(t *testing.T) {
	mgr := NewManager(newFakeStore(), &fakeSupervisor{})

	launches := 0
	launch := func() (int, error) {
		launches++
		return 100 + launches, nil
	}

	_, err := mgr.Start(types.RoleCPUSampler, "/data/run", launch)
	require.NoError(t, err)

	_, err = mgr.Start(types.RoleCPUSampler, "/data/run", launch)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Equal(t, 1, launches, "second start must not launch a second process")
}

func TestManagerStartKillsProcessOnPersistFailure(t *testing.T) {
	store := newFakeStore()
	store.putErr = errors.New("disk full")
	sup := &fakeSupervisor{}
	mgr := NewManager(store, sup)

	_, err := mgr.Start(types.RoleCPUSampler, "/data/run", func() (int, error) { return 555, nil })
	require.Error(t, err)
	assert.Equal(t, []int{555}, sup.terminated, "untracked process must not be leaked")
}

func TestManagerStopRemovesHandle(t *testing.T) {
	store := newFakeStore()
	sup := &fakeSupervisor{}
	mgr := NewManager(store, sup)

	_, err := mgr.Start(types.RoleDiskSampler, "/data/run", func() (int, error) { return 777, nil })
	require.NoError(t, err)

	require.NoError(t, mgr.Stop(types.RoleDiskSampler))
	assert.Equal(t, []int{777}, sup.terminated)

	_, ok, err := store.Get(types.RoleDiskSampler)
	require.NoError(t, err)
	assert.False(t, ok, "handle must be deleted after successful stop")
}

func TestManagerStopWithoutHandleFails(t *testing.T) {
	mgr := NewManager(newFakeStore(), &fakeSupervisor{})

	err := mgr.Stop(types.RoleCPUSampler)
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestManagerStopKeepsHandleOnTerminationFailure(t *testing.T) {
	store := newFakeStore()
	sup := &fakeSupervisor{termErr: errors.New("operation not permitted")}
	mgr := NewManager(store, sup)

	_, err := mgr.Start(types.RoleCPUSampler, "/data/run", func() (int, error) { return 888, nil })
	require.NoError(t, err)

	err = mgr.Stop(types.RoleCPUSampler)
	var termErr *TerminationError
	require.True(t, errors.As(err, &termErr))
	assert.Equal(t, 888, termErr.PID)

	// The handle survives so a retry can find the process again.
	_, ok, getErr := store.Get(types.RoleCPUSampler)
	require.NoError(t, getErr)
	assert.True(t, ok)

	// Retry succeeds once the supervisor can kill again.
	sup.termErr = nil
	require.NoError(t, mgr.Stop(types.RoleCPUSampler))
}

func TestManagerConcurrentStartsLaunchOnce(t *testing.T) {
	mgr := NewManager(newFakeStore(), &fakeSupervisor{})

	var launches int
	var mu sync.Mutex
	launch := func() (int, error) {
		mu.Lock()
		launches++
		n := launches
		mu.Unlock()
		return 9000 + n, nil
	}

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = mgr.Start(types.RoleCPUSampler, "/data/run", launch)
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyRunning)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, launches)
}

func TestManagerRunning(t *testing.T) {
	mgr := NewManager(newFakeStore(), &fakeSupervisor{})

	handles, err := mgr.Running()
	require.NoError(t, err)
	assert.Empty(t, handles)

	_, err = mgr.Start(types.RoleCPUSampler, "/data/run", func() (int, error) { return 1, nil })
	require.NoError(t, err)
	_, err = mgr.Start(types.RoleDiskSampler, "/data/run", func() (int, error) { return 2, nil })
	require.NoError(t, err)

	handles, err = mgr.Running()
	require.NoError(t, err)
	assert.Len(t, handles, 2)
}
