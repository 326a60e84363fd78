package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

type fileEntry struct {
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileStore implements KeyValueStore as a single JSON document on disk.
// Every operation rereads the file, so several processes may share it with
// last-writer-wins semantics.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates the parent directory and returns a store for path.
// The file itself is created on first write.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

// loadUnlocked reads the document. A missing, empty or malformed file reads
// as an empty store.
func (s *FileStore) loadUnlocked() (map[string]fileEntry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]fileEntry{}, nil
		}
		return nil, fmt.Errorf("read: %w", err)
	}

	entries := map[string]fileEntry{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return map[string]fileEntry{}, nil
	}
	return entries, nil
}

// saveUnlocked writes the document through a temp file and rename.
func (s *FileStore) saveUnlocked(entries map[string]fileEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".visits-*.json")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadUnlocked()
	if err != nil {
		return "", false, err
	}
	e, ok := entries[key]
	return e.Value, ok, nil
}

func (s *FileStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadUnlocked()
	if err != nil {
		return err
	}
	entries[key] = fileEntry{Value: value, UpdatedAt: time.Now().UTC()}
	return s.saveUnlocked(entries)
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadUnlocked()
	if err != nil {
		return err
	}
	if _, ok := entries[key]; !ok {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	delete(entries, key)
	return s.saveUnlocked(entries)
}

func (s *FileStore) List(_ context.Context, prefix string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadUnlocked()
	if err != nil {
		return nil, err
	}

	out := []Entry{}
	for k, e := range entries {
		if strings.HasPrefix(k, prefix) {
			out = append(out, Entry{Key: k, Value: e.Value, UpdatedAt: e.UpdatedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *FileStore) PurgeAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadUnlocked()
	if err != nil {
		return 0, err
	}
	if err := s.saveUnlocked(map[string]fileEntry{}); err != nil {
		return 0, err
	}
	return int64(len(entries)), nil
}

func (s *FileStore) GetStats(_ context.Context) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadUnlocked()
	if err != nil {
		return nil, err
	}

	stats := &Stats{Backend: "file", Location: s.path, TotalKeys: int64(len(entries))}
	for _, e := range entries {
		if stats.OldestWrite.IsZero() || e.UpdatedAt.Before(stats.OldestWrite) {
			stats.OldestWrite = e.UpdatedAt
		}
		if e.UpdatedAt.After(stats.NewestWrite) {
			stats.NewestWrite = e.UpdatedAt
		}
	}
	if info, err := os.Stat(s.path); err == nil {
		stats.SizeBytes = info.Size()
	}
	return stats, nil
}

func (s *FileStore) Close() error { return nil }
