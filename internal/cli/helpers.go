package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"

	"github.com/runnerr0/chronicle-banner/internal/config"
	"github.com/runnerr0/chronicle-banner/internal/logging"
	"github.com/runnerr0/chronicle-banner/internal/storage"
	"github.com/runnerr0/chronicle-banner/internal/visit"
)

// session is everything a subcommand needs: resolved config, logger and an
// open record store.
type session struct {
	cfg     *config.Config
	log     *slog.Logger
	kv      storage.KeyValueStore
	records *storage.RecordStore
	db      *sql.DB // sqlite backend only
}

func (s *session) Close() error {
	err := s.kv.Close()
	if s.db != nil {
		if dbErr := s.db.Close(); err == nil {
			err = dbErr
		}
	}
	return err
}

// loadConfig reads --config when given, otherwise the default path (created
// with defaults on first use).
func (g *GlobalFlags) loadConfig() (*config.Config, error) {
	if g.Config != "" {
		return config.Load(g.Config)
	}
	return config.LoadOrCreate()
}

// newLogger builds the stderr logger; --verbose forces debug level.
func (g *GlobalFlags) newLogger(cfg *config.Config) (*slog.Logger, error) {
	opts := logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
	if g.Verbose {
		opts.Level = "debug"
	}
	return logging.New(os.Stderr, opts)
}

// openSession loads config, builds the logger and opens the configured store.
func (g *GlobalFlags) openSession(ctx context.Context) (*session, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := g.newLogger(cfg)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, log: log}
	switch cfg.Storage.Backend {
	case config.BackendFile:
		path, err := cfg.JSONPath()
		if err != nil {
			return nil, err
		}
		s.kv, err = storage.NewFileStore(path)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
	case config.BackendRedis:
		client, err := storage.NewRedisConnection(ctx, &redis.Options{
			Addr:     cfg.Storage.Redis.Addr,
			Username: cfg.Storage.Redis.Username,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		s.kv = storage.NewRedisStore(client, visit.KeyPrefix)
	default:
		path, err := cfg.SQLitePath()
		if err != nil {
			return nil, err
		}
		s.kv, s.db, err = openSQLiteStore(path, cfg.Storage.SQLiteJournalMode)
		if err != nil {
			return nil, err
		}
	}

	s.records = storage.NewRecordStore(s.kv, log)
	log.Debug("store opened", "backend", cfg.Storage.Backend)
	return s, nil
}

// openSQLiteStore opens the database at path, runs migrations and returns a
// ready-to-use store and the underlying *sql.DB.
func openSQLiteStore(path, journalMode string) (*storage.SQLiteStore, *sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	runner := storage.NewMigrationRunner(db).WithJournalMode(journalMode)
	if err := runner.Run(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := storage.NewSQLiteStore(db, path)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create store: %w", err)
	}

	return store, db, nil
}

// requireTable validates the --database/--table pair used by several commands.
func requireTable(command, database, table string) error {
	if database == "" {
		return fmt.Errorf("--database is required for %s command", command)
	}
	if table == "" {
		return fmt.Errorf("--table is required for %s command", command)
	}
	return nil
}

// parseVersion parses a chronicle version flag.
func parseVersion(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: must be an integer", s)
	}
	return v, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// recordJSON is the JSON form of a stored record used by show and list.
type recordJSON struct {
	Key       string `json:"key"`
	Version   *int64 `json:"version,omitempty"`
	Timestamp *int64 `json:"timestamp,omitempty"`
	VisitedAt string `json:"visited_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
	Corrupt   bool   `json:"corrupt,omitempty"`
}

func toRecordJSON(r storage.StoredRecord) recordJSON {
	out := recordJSON{Key: r.Key, Corrupt: r.Record == nil}
	if r.Record != nil {
		out.Version = r.Record.Version
		out.Timestamp = r.Record.Timestamp
		if r.Record.Timestamp != nil && *r.Record.Timestamp != 0 {
			out.VisitedAt = time.UnixMilli(*r.Record.Timestamp).UTC().Format(time.RFC3339)
		}
	}
	if !r.UpdatedAt.IsZero() {
		out.UpdatedAt = r.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

// lastVisit returns when the record was last written by a visit: its
// timestamp when present, otherwise the backend write time.
func lastVisit(r storage.StoredRecord) time.Time {
	if r.Record != nil && r.Record.Timestamp != nil && *r.Record.Timestamp != 0 {
		return time.UnixMilli(*r.Record.Timestamp)
	}
	return r.UpdatedAt
}

// parseDuration parses a human-friendly duration string like "30d", "7d", "24h", "2w".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty string")
	}

	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]

	n, err := strconv.Atoi(numStr)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	default:
		return 0, fmt.Errorf("invalid duration: %q (use d, h, w, or m suffix)", s)
	}
}

// formatDurationHuman formats a duration into a human-readable string like "30 days".
func formatDurationHuman(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	hours := int(d.Hours())
	if hours > 0 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}
