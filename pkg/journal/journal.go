package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/musterhq/muster/pkg/types"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var bucketRuns = []byte("runs")

// ErrNotFound reports a lookup of an unknown run ID.
var ErrNotFound = errors.New("run not found")

// Journal is the durable record of every orchestrated run, backed by a
// BoltDB file. Records are written when a run starts and finalized when it
// ends, so a crash mid-run leaves a visible `running` record rather than
// nothing.
type Journal struct {
	db *bolt.DB
}

// Open opens the journal database at path, creating it and its directory on
// first use.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketRuns); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketRuns, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{db: db}, nil
}

// Close closes the database
func (j *Journal) Close() error {
	return j.db.Close()
}

// Put upserts a run record keyed by its ID.
func (j *Journal) Put(record *types.RunRecord) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		return b.Put([]byte(record.ID), data)
	})
}

// Get retrieves a run record by ID.
func (j *Journal) Get(id string) (*types.RunRecord, error) {
	var record types.RunRecord
	err := j.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns all run records, newest first.
func (j *Journal) List() ([]*types.RunRecord, error) {
	var records []*types.RunRecord
	err := j.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		return b.ForEach(func(k, v []byte) error {
			var record types.RunRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return err
			}
			records = append(records, &record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, k int) bool {
		return records[i].StartedAt.After(records[k].StartedAt)
	})
	return records, nil
}
