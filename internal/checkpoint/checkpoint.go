// Package checkpoint persists per-group replay cursors so tools that run
// repeatedly over a growing log directory can resume where they left off.
package checkpoint

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

var keyPrefix = []byte("cursor/")

// Store is a durable cursor store backed by Pebble.
type Store struct {
	db *pebble.DB
}

// Open creates or opens the cursor store rooted at dir.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("checkpoint: state dir is required")
	}
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func key(group string) []byte {
	return append(append([]byte(nil), keyPrefix...), group...)
}

// Commit stores step as group's cursor. Commits are idempotent and never
// regress: a step at or below the stored one is ignored.
func (s *Store) Commit(group string, step int64) error {
	if prev, ok, err := s.Last(group); err != nil {
		return err
	} else if ok && step <= prev {
		return nil
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(step))
	return s.db.Set(key(group), b[:], pebble.Sync)
}

// Last returns group's committed cursor, or ok=false when none exists.
func (s *Store) Last(group string) (int64, bool, error) {
	v, closer, err := s.db.Get(key(group))
	if err == pebble.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("checkpoint: get %s: %w", group, err)
	}
	defer closer.Close()
	if len(v) < 8 {
		return 0, false, fmt.Errorf("checkpoint: short cursor value for %s", group)
	}
	return int64(binary.BigEndian.Uint64(v[:8])), true, nil
}
