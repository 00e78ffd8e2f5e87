package membership

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/musterhq/muster/pkg/types"
)

// Store persists the ordered list of registered workers.
type Store interface {
	Load() ([]types.WorkerAddress, error)
	Save(addrs []types.WorkerAddress) error
}

// FileStore keeps the membership file, one worker address per line in
// registration order. The file is the single source of truth for cluster
// membership; other tools are free to read it.
type FileStore struct {
	path string
}

// NewFileStore returns a store over the membership file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns the registered workers. A missing file reads as an empty
// cluster. Blank lines are skipped; anything else must parse as a worker
// address.
func (s *FileStore) Load() ([]types.WorkerAddress, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read membership file %s: %w", s.path, err)
	}
	var addrs []types.WorkerAddress
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		addr, err := types.ParseWorkerAddress(line)
		if err != nil {
			return nil, fmt.Errorf("membership file %s: %w", s.path, err)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// Save replaces the membership file atomically via a temp file and rename.
func (s *FileStore) Save(addrs []types.WorkerAddress) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create membership dir: %w", err)
	}
	var b strings.Builder
	for _, addr := range addrs {
		b.WriteString(addr.String())
		b.WriteByte('\n')
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write membership file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace membership file: %w", err)
	}
	return nil
}
