package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/runnerr0/chronicle-banner/internal/visit"
)

// StoredRecord is a decoded entry as listed by RecordStore.List.
type StoredRecord struct {
	Key       string
	Record    *visit.Record // nil when the stored value is corrupt
	Raw       string
	UpdatedAt time.Time
}

// RecordStore reads and writes visit records on top of a KeyValueStore.
type RecordStore struct {
	kv  KeyValueStore
	log *slog.Logger
}

// NewRecordStore wraps kv. A nil logger discards log output.
func NewRecordStore(kv KeyValueStore, log *slog.Logger) *RecordStore {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &RecordStore{kv: kv, log: log.With("component", "records")}
}

// Get returns the record stored under key. A missing value and a value that
// does not decode as a JSON object both yield nil; the latter is logged.
func (s *RecordStore) Get(ctx context.Context, key string) (*visit.Record, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read record %s: %w", key, err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	rec, err := decodeRecord(raw)
	if err != nil {
		s.log.ErrorContext(ctx, "error parsing stored visit record", "key", key, "error", err)
		return nil, nil
	}
	return rec, nil
}

// Put stores rec under key, replacing any previous value.
func (s *RecordStore) Put(ctx context.Context, key string, rec visit.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := s.kv.Put(ctx, key, string(data)); err != nil {
		return fmt.Errorf("write record %s: %w", key, err)
	}
	return nil
}

// Delete removes the record stored under key.
func (s *RecordStore) Delete(ctx context.Context, key string) error {
	return s.kv.Delete(ctx, key)
}

// List returns all visit records whose key starts with prefix.
func (s *RecordStore) List(ctx context.Context, prefix string) ([]StoredRecord, error) {
	entries, err := s.kv.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	out := make([]StoredRecord, 0, len(entries))
	for _, e := range entries {
		rec, _ := decodeRecord(e.Value)
		out = append(out, StoredRecord{Key: e.Key, Record: rec, Raw: e.Value, UpdatedAt: e.UpdatedAt})
	}
	return out, nil
}

// PurgeAll removes every stored record.
func (s *RecordStore) PurgeAll(ctx context.Context) (int64, error) {
	return s.kv.PurgeAll(ctx)
}

// Stats reports on the underlying store.
func (s *RecordStore) Stats(ctx context.Context) (*Stats, error) {
	return s.kv.GetStats(ctx)
}

func decodeRecord(raw string) (*visit.Record, error) {
	var rec visit.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
