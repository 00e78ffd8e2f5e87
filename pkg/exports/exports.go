package exports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/musterhq/muster/pkg/log"
	"github.com/musterhq/muster/pkg/proc"
	"github.com/musterhq/muster/pkg/types"
	"github.com/rs/zerolog"
)

// Presence is the desired state of one worker's access rule.
type Presence int

const (
	// Absent means no rule for the worker may remain.
	Absent Presence = iota
	// Present means exactly one rule for the worker must exist.
	Present
)

func (p Presence) String() string {
	if p == Present {
		return "present"
	}
	return "absent"
}

// Rule grants one worker access to one shared path. Muster writes exactly
// one rule per line so any rule can be located and removed later without
// parsing ambiguity.
type Rule struct {
	Path    string
	Address types.WorkerAddress
	Options string
}

// Line renders the rule as an export table line.
func (r Rule) Line() string {
	return fmt.Sprintf("%s\t%s(%s)", r.Path, r.Address, r.Options)
}

// parseRule recognizes lines Muster itself writes: one path, one client.
// Anything else (comments, blanks, multi-client lines from other tools) is
// not a rule of ours and is preserved untouched.
func parseRule(line string) (Rule, bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 || strings.HasPrefix(fields[0], "#") {
		return Rule{}, false
	}
	client := fields[1]
	addr := client
	options := ""
	if i := strings.IndexByte(client, '('); i >= 0 {
		if !strings.HasSuffix(client, ")") {
			return Rule{}, false
		}
		addr = client[:i]
		options = client[i+1 : len(client)-1]
	}
	if addr == "" {
		return Rule{}, false
	}
	return Rule{Path: fields[0], Address: types.WorkerAddress(addr), Options: options}, true
}

// Store reads and writes the export table as raw lines, preserving
// everything the synchronizer does not own.
type Store interface {
	Load() ([]string, error)
	Save(lines []string) error
}

// FileStore is the production store over the export table file
// (conventionally /etc/exports).
type FileStore struct {
	path string
}

// NewFileStore returns a store over the table file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns the table's lines. A missing table reads as empty.
func (s *FileStore) Load() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read export table %s: %w", s.path, err)
	}
	lines := strings.Split(string(data), "\n")
	// A trailing newline yields one empty phantom line; drop it.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines, nil
}

// Save atomically replaces the table file. Write-then-rename so a crash
// mid-write never leaves the NFS server a half-written table.
func (s *FileStore) Save(lines []string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create export table dir: %w", err)
	}
	content := strings.Join(lines, "\n")
	if content != "" {
		content += "\n"
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write export table: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace export table: %w", err)
	}
	return nil
}

// Reloader applies a saved table to the running NFS server.
type Reloader interface {
	Reload(ctx context.Context) error
}

// ExecReloader runs exportfs -ra through the injected runner.
type ExecReloader struct {
	Runner proc.Runner
}

// Reload re-exports all directories from the saved table.
func (r ExecReloader) Reload(ctx context.Context) error {
	out, err := r.Runner.Run(ctx, "exportfs", "-ra")
	if err != nil {
		return fmt.Errorf("exportfs -ra: %w (output: %s)", err, out)
	}
	return nil
}

// Synchronizer converges the export table on a desired per-worker state.
// Sync is idempotent: it mutates and reloads only when the table actually
// drifts from the desired state.
type Synchronizer struct {
	sharedPath string
	options    string
	store      Store
	reloader   Reloader
	log        zerolog.Logger
}

// NewSynchronizer returns a synchronizer for one shared path. Every rule it
// writes uses the same option string.
func NewSynchronizer(sharedPath, options string, store Store, reloader Reloader) *Synchronizer {
	return &Synchronizer{
		sharedPath: sharedPath,
		options:    options,
		store:      store,
		reloader:   reloader,
		log:        log.WithComponent("exports"),
	}
}

// Sync makes the table match the desired presence of addr's rule, touching
// nothing else. The table is saved and the NFS server reloaded only when a
// line was added or removed; a second identical call is a full no-op.
func (s *Synchronizer) Sync(ctx context.Context, addr types.WorkerAddress, desired Presence) error {
	lines, err := s.store.Load()
	if err != nil {
		return err
	}

	var kept []string
	found := false
	for _, line := range lines {
		rule, ok := parseRule(line)
		if ok && rule.Path == s.sharedPath && rule.Address == addr {
			found = true
			continue
		}
		kept = append(kept, line)
	}

	switch desired {
	case Present:
		if found {
			// Rewriting an existing rule would churn the table for nothing.
			return nil
		}
		rule := Rule{Path: s.sharedPath, Address: addr, Options: s.options}
		kept = append(kept, rule.Line())
	case Absent:
		if !found {
			return nil
		}
	}

	if err := s.store.Save(kept); err != nil {
		return err
	}
	if err := s.reloader.Reload(ctx); err != nil {
		return err
	}

	s.log.Info().
		Str("worker", addr.String()).
		Str("path", s.sharedPath).
		Str("state", desired.String()).
		Msg("export table synchronized")
	return nil
}

// Present reports whether a rule for addr currently exists.
func (s *Synchronizer) Present(addr types.WorkerAddress) (bool, error) {
	lines, err := s.store.Load()
	if err != nil {
		return false, err
	}
	for _, line := range lines {
		rule, ok := parseRule(line)
		if ok && rule.Path == s.sharedPath && rule.Address == addr {
			return true, nil
		}
	}
	return false, nil
}
