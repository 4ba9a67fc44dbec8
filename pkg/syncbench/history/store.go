package history

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a run doesn't exist.
var ErrNotFound = errors.New("run not found")

var runPrefix = []byte("r:")

func runKey(id string) []byte {
	return append(append([]byte{}, runPrefix...), id...)
}

// NewID creates an ID like "bench-2024-06-15T10-30-00-1a2b3c4d".
func NewID(kind Kind, t time.Time) string {
	ts := t.UTC().Format("2006-01-02T15-04-05")
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s-%s-%s", kind, ts, suffix)
}

// Store wraps Badger for run records.
type Store struct {
	db *badger.DB
}

// Open opens or creates a history store at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history path cannot be empty")
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening history at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores a run, assigning an ID when it has none.
func (s *Store) Put(run *Run) error {
	if run.ID == "" {
		if run.Started.IsZero() {
			run.Started = time.Now()
		}
		run.ID = NewID(run.Kind, run.Started)
	}

	value, err := run.Encode()
	if err != nil {
		return fmt.Errorf("encoding run: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(runKey(run.ID), value)
	})
}

// Get retrieves a run by ID.
func (s *Store) Get(id string) (*Run, error) {
	var run Run

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(runKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(run.Decode)
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// List returns runs newest first. A limit of zero or less returns all.
func (s *Store) List(limit int) ([]Run, error) {
	runs := []Run{}

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(runPrefix); it.ValidForPrefix(runPrefix); it.Next() {
			var run Run
			if err := it.Item().Value(run.Decode); err != nil {
				// Skip records written by an incompatible version.
				continue
			}
			runs = append(runs, run)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Started.After(runs[j].Started)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Cleanup removes runs started more than retentionDays ago and returns how
// many were removed.
func (s *Store) Cleanup(retentionDays int) (int, error) {
	return s.cleanupBefore(time.Now().AddDate(0, 0, -retentionDays))
}

func (s *Store) cleanupBefore(cutoff time.Time) (int, error) {
	removed := 0

	err := s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		var stale [][]byte
		for it.Seek(runPrefix); it.ValidForPrefix(runPrefix); it.Next() {
			var run Run
			item := it.Item()
			if err := item.Value(run.Decode); err != nil || run.Started.Before(cutoff) {
				stale = append(stale, item.KeyCopy(nil))
			}
		}

		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
			removed++
		}
		return nil
	})

	return removed, err
}
