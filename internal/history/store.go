// Package history keeps recently submitted search terms in a bbolt file.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

const DefaultMaxEntries = 50

var bucketSearches = []byte("searches")

// Entry is one remembered search.
type Entry struct {
	Term       string    `json:"term"`
	SearchedAt time.Time `json:"searched_at"`
}

// Store persists search terms. Terms are keyed case-insensitively; re-submitting a term refreshes it.
type Store struct {
	db  *bolt.DB
	max int
	now func() time.Time
}

// Open opens (or creates) the history file at path.
func Open(path string, maxEntries int) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSearches)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history bucket: %w", err)
	}

	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{db: db, max: maxEntries, now: time.Now}, nil
}

// Add records term. Blank terms are ignored. The oldest entries beyond the cap are evicted.
func (s *Store) Add(term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	entry := Entry{Term: term, SearchedAt: s.now().UTC()}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSearches)
		if err := b.Put(entryKey(term), raw); err != nil {
			return fmt.Errorf("put history entry: %w", err)
		}
		return evict(b, s.max)
	})
}

// Recent returns up to n entries, newest first. n <= 0 returns all.
func (s *Store) Recent(n int) ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		entries, err = readAll(tx.Bucket(bucketSearches))
		return err
	})
	if err != nil {
		return nil, err
	}
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func entryKey(term string) []byte {
	return []byte(strings.ToLower(term))
}

// readAll returns the bucket entries sorted newest first.
func readAll(b *bolt.Bucket) ([]Entry, error) {
	var entries []Entry
	err := b.ForEach(func(_, v []byte) error {
		var e Entry
		if err := json.Unmarshal(v, &e); err != nil {
			return fmt.Errorf("decode history entry: %w", err)
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SearchedAt.After(entries[j].SearchedAt)
	})
	return entries, nil
}

func evict(b *bolt.Bucket, max int) error {
	entries, err := readAll(b)
	if err != nil {
		return err
	}
	if len(entries) <= max {
		return nil
	}
	for _, e := range entries[max:] {
		if err := b.Delete(entryKey(e.Term)); err != nil {
			return fmt.Errorf("evict history entry: %w", err)
		}
	}
	return nil
}
