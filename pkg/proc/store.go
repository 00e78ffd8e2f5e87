package proc

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/musterhq/muster/pkg/types"
)

// Store persists process handles. Handle presence is the idempotency gate
// for starting collectors, so implementations must reflect exactly what was
// put and not resurrect deleted entries.
type Store interface {
	Get(role types.CollectorRole) (Handle, bool, error)
	Put(h Handle) error
	Delete(role types.CollectorRole) error
	List() ([]Handle, error)
}

// FileStore keeps one <role>.pid file per handle, each containing the bare
// process identifier. The layout is deliberately trivial: an operator can
// inspect or clear it with ls and rm.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir. The directory is created on
// first Put rather than here so a read-only consumer can open a store that
// does not exist yet.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(role types.CollectorRole) string {
	return filepath.Join(s.dir, string(role)+".pid")
}

// Get reads the PID file for role. A missing file means no handle.
func (s *FileStore) Get(role types.CollectorRole) (Handle, bool, error) {
	data, err := os.ReadFile(s.path(role))
	if os.IsNotExist(err) {
		return Handle{}, false, nil
	}
	if err != nil {
		return Handle{}, false, fmt.Errorf("read pid file for %s: %w", role, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return Handle{}, false, fmt.Errorf("corrupt pid file for %s: %w", role, err)
	}
	return Handle{Role: role, PID: pid}, true, nil
}

// Put writes the PID file for the handle's role.
func (s *FileStore) Put(h Handle) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create pid dir: %w", err)
	}
	data := []byte(strconv.Itoa(h.PID) + "\n")
	if err := os.WriteFile(s.path(h.Role), data, 0o644); err != nil {
		return fmt.Errorf("write pid file for %s: %w", h.Role, err)
	}
	return nil
}

// Delete removes the PID file for role. Deleting an absent handle is an
// error: it signals the caller's view of the store has drifted.
func (s *FileStore) Delete(role types.CollectorRole) error {
	if err := os.Remove(s.path(role)); err != nil {
		return fmt.Errorf("delete pid file for %s: %w", role, err)
	}
	return nil
}

// List returns a handle for every known role that has a PID file.
func (s *FileStore) List() ([]Handle, error) {
	var handles []Handle
	for _, role := range types.CollectorRoles() {
		h, ok, err := s.Get(role)
		if err != nil {
			return nil, err
		}
		if ok {
			handles = append(handles, h)
		}
	}
	return handles, nil
}
