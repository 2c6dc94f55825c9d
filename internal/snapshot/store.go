// Package snapshot persists the reducer's completed-job snapshots to a
// BadgerDB-backed store so a session can resume after a restart without
// re-fetching or re-counting anything already written to disk.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/harvester/internal/common"
	"github.com/ternarybob/harvester/internal/reducer"
)

// record is the on-disk shape of one reducer.CompletedJobSnapshot,
// keyed by URL so a restart never stores the same URL twice.
type record struct {
	URL    string `boltholdKey:"URL"`
	Tokens uint32
	Bytes  uint64
}

// Store wraps a BadgerDB-backed badgerhold store scoped to completed-job
// snapshots. One Store is opened per process; Close releases the
// underlying database files.
type Store struct {
	db     *badgerhold.Store
	logger arbor.ILogger
}

// Open creates the snapshot directory (clearing it first if
// ResetOnStartup is set) and opens the Badger database at cfg.Path.
func Open(cfg common.SnapshotConfig, logger arbor.ILogger) (*Store, error) {
	if cfg.ResetOnStartup {
		if _, err := os.Stat(cfg.Path); err == nil {
			logger.Debug().Str("path", cfg.Path).Msg("deleting existing snapshot store (reset_on_startup=true)")
			if err := os.RemoveAll(cfg.Path); err != nil {
				logger.Warn().Err(err).Str("path", cfg.Path).Msg("failed to delete snapshot store directory")
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot store directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = cfg.Path
	options.ValueDir = cfg.Path
	options.Logger = nil

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store at %s: %w", cfg.Path, err)
	}

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save replaces the persisted snapshot set with the one given, reflecting
// the reducer's current completed-job list exactly.
func (s *Store) Save(snapshots []reducer.CompletedJobSnapshot) error {
	if err := s.db.DeleteMatching(&record{}, nil); err != nil {
		return fmt.Errorf("failed to clear snapshot store: %w", err)
	}

	for _, snap := range snapshots {
		rec := record{URL: snap.URL, Tokens: snap.Tokens, Bytes: snap.Bytes}
		if err := s.db.Upsert(rec.URL, &rec); err != nil {
			return fmt.Errorf("failed to persist snapshot for %s: %w", snap.URL, err)
		}
	}

	s.logger.Debug().Int("count", len(snapshots)).Msg("saved completed-job snapshot")
	return nil
}

// Load reads every persisted snapshot back. Returns an empty slice, not
// an error, when the store has never been written to.
func (s *Store) Load() ([]reducer.CompletedJobSnapshot, error) {
	var records []record
	if err := s.db.Find(&records, nil); err != nil {
		return nil, fmt.Errorf("failed to read snapshot store: %w", err)
	}

	out := make([]reducer.CompletedJobSnapshot, 0, len(records))
	for _, rec := range records {
		out = append(out, reducer.CompletedJobSnapshot{URL: rec.URL, Tokens: rec.Tokens, Bytes: rec.Bytes})
	}
	return out, nil
}
