package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musterhq/muster/pkg/api"
	"github.com/musterhq/muster/pkg/journal"
	"github.com/musterhq/muster/pkg/metrics"
	"github.com/musterhq/muster/pkg/proc"
	"github.com/musterhq/muster/pkg/types"
)

type fakeMembers struct {
	addrs []types.WorkerAddress
}

func (f *fakeMembers) List() ([]types.WorkerAddress, error) {
	return f.addrs, nil
}

type fakeRuns struct {
	records []*types.RunRecord
}

func (f *fakeRuns) List() ([]*types.RunRecord, error) {
	return f.records, nil
}

func (f *fakeRuns) Get(id string) (*types.RunRecord, error) {
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, journal.ErrNotFound
}

type fakeCollectors struct {
	handles []proc.Handle
}

func (f *fakeCollectors) Running() ([]proc.Handle, error) {
	return f.handles, nil
}

// startTestServer serves a real api.Server over httptest so the client is
// exercised against the actual routes and payload shapes.
func startTestServer(t *testing.T, members *fakeMembers, runs *fakeRuns, collectors *fakeCollectors) *Client {
	t.Helper()
	srv := httptest.NewServer(api.NewServer(members, runs, collectors).Handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestListSlaves(t *testing.T) {
	members := &fakeMembers{addrs: []types.WorkerAddress{"10.0.0.5", "10.0.0.6"}}
	c := startTestServer(t, members, &fakeRuns{}, &fakeCollectors{})

	slaves, err := c.ListSlaves(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.WorkerAddress{"10.0.0.5", "10.0.0.6"}, slaves)
}

func TestListRuns(t *testing.T) {
	runs := &fakeRuns{records: []*types.RunRecord{
		{ID: "run-new", Token: "20260825-130405", Status: types.RunStatusRunning, StartedAt: time.Now()},
		{ID: "run-old", Token: "20260824-090000", Status: types.RunStatusCompleted, StartedAt: time.Now().Add(-time.Hour)},
	}}
	c := startTestServer(t, &fakeMembers{}, runs, &fakeCollectors{})

	got, err := c.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "run-new", got[0].ID)
	assert.Equal(t, "20260825-130405", got[0].Token)
}

func TestGetRun(t *testing.T) {
	runs := &fakeRuns{records: []*types.RunRecord{
		{
			ID:       "8a6e0804-2bd0-4672-b79d-d97027f9071a",
			Token:    "20260825-130405",
			Mode:     types.RunModeCluster,
			ExitCode: 3,
			Workers:  []types.WorkerTelemetry{{Address: "10.0.0.5", StopError: "worker unreachable"}},
		},
	}}
	c := startTestServer(t, &fakeMembers{}, runs, &fakeCollectors{})

	record, err := c.GetRun(context.Background(), "8a6e0804-2bd0-4672-b79d-d97027f9071a")
	require.NoError(t, err)
	assert.Equal(t, 3, record.ExitCode)
	require.Len(t, record.Workers, 1)
	assert.Equal(t, "worker unreachable", record.Workers[0].StopError)
}

func TestGetRunNotFound(t *testing.T) {
	c := startTestServer(t, &fakeMembers{}, &fakeRuns{}, &fakeCollectors{})

	_, err := c.GetRun(context.Background(), "no-such-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestListCollectors(t *testing.T) {
	collectors := &fakeCollectors{handles: []proc.Handle{
		{Role: types.RoleCPUSampler, PID: 1001},
	}}
	c := startTestServer(t, &fakeMembers{}, &fakeRuns{}, collectors)

	handles, err := c.ListCollectors(context.Background())
	require.NoError(t, err)
	require.Len(t, handles, 1)
	assert.Equal(t, types.RoleCPUSampler, handles[0].Role)
	assert.Equal(t, 1001, handles[0].PID)
}

func TestHealth(t *testing.T) {
	metrics.RegisterComponent("journal", true, "")
	metrics.RegisterComponent("membership", true, "")
	c := startTestServer(t, &fakeMembers{}, &fakeRuns{}, &fakeCollectors{})

	health, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
}

func TestHealthDecodedWhenUnhealthy(t *testing.T) {
	metrics.RegisterComponent("journal", false, "database locked")
	c := startTestServer(t, &fakeMembers{}, &fakeRuns{}, &fakeCollectors{})

	health, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "unhealthy", health.Status)

	// Restore for other tests sharing the global checker.
	metrics.UpdateComponent("journal", true, "")
}

func TestServerUnreachable(t *testing.T) {
	c := NewClient("127.0.0.1:1")

	_, err := c.ListSlaves(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reach status server")
}

func TestBaseURLNormalization(t *testing.T) {
	c := NewClient("10.0.0.1:8380")
	assert.Equal(t, "http://10.0.0.1:8380", c.baseURL)

	c = NewClient("http://10.0.0.1:8380/")
	assert.Equal(t, "http://10.0.0.1:8380", c.baseURL)
}
