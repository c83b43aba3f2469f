// Package snapshot persists whole fetched collections as named JSON files.
package snapshot

import (
	"errors"
	"time"
)

// ErrCacheDirectoryNotFound is returned when the cache directory is missing.
var ErrCacheDirectoryNotFound = errors.New("snapshot: cache directory not found")

// Store is the snapshot cache contract.
type Store interface {
	// Insert replaces the snapshot stored under key with v.
	Insert(key string, v any) error
	// Get decodes the snapshot under key into v. It reports false with a
	// nil error when no snapshot exists for key.
	Get(key string, v any) (bool, error)
	// List returns metadata for every stored snapshot, sorted by key.
	List() ([]Meta, error)
}

// Meta describes one stored snapshot.
type Meta struct {
	Key       string    `json:"key"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}
