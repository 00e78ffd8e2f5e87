package proc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/musterhq/muster/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "pids"))

	_, ok, err := store.Get(types.RoleCPUSampler)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(Handle{Role: types.RoleCPUSampler, PID: 31337}))

	h, ok, err := store.Get(types.RoleCPUSampler)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 31337, h.PID)

	require.NoError(t, store.Delete(types.RoleCPUSampler))

	_, ok, err = store.Get(types.RoleCPUSampler)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStorePIDFileFormat(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	require.NoError(t, store.Put(Handle{Role: types.RoleDiskSampler, PID: 42}))

	// One file per role, bare PID inside.
	data, err := os.ReadFile(filepath.Join(dir, "disk-sampler.pid"))
	require.NoError(t, err)
	assert.Equal(t, "42\n", string(data))
}

func TestFileStoreToleratesWhitespace(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cpu-sampler.pid"), []byte("  977\n\n"), 0o644))

	store := NewFileStore(dir)
	h, ok, err := store.Get(types.RoleCPUSampler)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 977, h.PID)
}

func TestFileStoreCorruptPIDFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cpu-sampler.pid"), []byte("not-a-pid\n"), 0o644))

	store := NewFileStore(dir)
	_, _, err := store.Get(types.RoleCPUSampler)
	assert.Error(t, err)
}

func TestFileStoreDeleteMissing(t *testing.T) {
	store := NewFileStore(t.TempDir())
	assert.Error(t, store.Delete(types.RoleCPUSampler))
}

func TestFileStoreList(t *testing.T) {
	store := NewFileStore(t.TempDir())

	handles, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, handles)

	require.NoError(t, store.Put(Handle{Role: types.RoleCPUSampler, PID: 1}))
	require.NoError(t, store.Put(Handle{Role: types.RoleDiskSampler, PID: 2}))

	handles, err = store.List()
	require.NoError(t, err)
	require.Len(t, handles, 2)
	assert.Equal(t, types.RoleCPUSampler, handles[0].Role)
	assert.Equal(t, types.RoleDiskSampler, handles[1].Role)
}
