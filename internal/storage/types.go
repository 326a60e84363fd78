package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Delete when the key holds no value.
var ErrNotFound = errors.New("record not found")

// Entry is one raw stored value.
type Entry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// KeyValueStore is the durable medium visit records live in. Values are
// opaque strings; RecordStore owns their encoding.
type KeyValueStore interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// List returns entries whose key starts with prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Entry, error)
	// PurgeAll removes every entry and returns how many were removed.
	PurgeAll(ctx context.Context) (int64, error)
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// Stats holds aggregate statistics about a store.
type Stats struct {
	Backend     string
	Location    string
	TotalKeys   int64
	OldestWrite time.Time
	NewestWrite time.Time
	SizeBytes   int64
}
