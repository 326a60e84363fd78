// Package notifier runs the "changed since your last visit" check for one
// table page view.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/runnerr0/chronicle-banner/internal/changes"
	"github.com/runnerr0/chronicle-banner/internal/logging"
	"github.com/runnerr0/chronicle-banner/internal/visit"
)

// RecordRepository persists visit records by scope key.
type RecordRepository interface {
	Get(ctx context.Context, key string) (*visit.Record, error)
	Put(ctx context.Context, key string, rec visit.Record) error
}

// ChangeCounter counts rows changed since a version.
type ChangeCounter interface {
	CountSince(ctx context.Context, table string, since int64) (*changes.CountResult, error)
}

// BannerSink displays the banner text.
type BannerSink interface {
	ShowBanner(text string) error
}

// Notifier wires the record store, the count endpoint and the page.
type Notifier struct {
	records RecordRepository
	counter ChangeCounter
	banners BannerSink
	exclude []string
	now     func() time.Time
	log     *slog.Logger
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(n *Notifier) { n.log = log }
}

// WithExcludedTables skips tables whose name matches any of the path.Match
// patterns.
func WithExcludedTables(patterns []string) Option {
	return func(n *Notifier) { n.exclude = patterns }
}

// New creates a Notifier.
func New(records RecordRepository, counter ChangeCounter, banners BannerSink, opts ...Option) *Notifier {
	n := &Notifier{
		records: records,
		counter: counter,
		banners: banners,
		now:     time.Now,
		log:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.log = n.log.With("component", "notifier")
	return n
}

// Visit describes one run.
type Visit struct {
	RunID    string
	Decision visit.Decision
	Key      string
	// Previous is the record found before this run, nil on first visit.
	Previous *visit.Record
	// Written is the record stored by this run, nil when nothing was written.
	Written *visit.Record

	done   chan struct{}
	mu     sync.Mutex
	banner string
}

// Wait blocks until the notification task, if any, has finished. Callers
// that do not need the banner may skip it; the task never needs cleanup.
func (v *Visit) Wait() {
	<-v.done
}

// Banner returns the banner text shown by this run, or "" if none. Only
// meaningful after Wait.
func (v *Visit) Banner() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.banner
}

func (v *Visit) setBanner(text string) {
	v.mu.Lock()
	v.banner = text
	v.mu.Unlock()
}

// Run performs the check for the page described by in. Missing inputs end
// the run quietly with decision Inactive. On Changed the count query runs in
// the background; Visit.Wait waits for it. Storage failures are returned
// together with the Visit.
func (n *Notifier) Run(ctx context.Context, in visit.Inputs) (*Visit, error) {
	v := &Visit{RunID: uuid.NewString(), done: make(chan struct{})}
	log := n.log.With("run_id", v.RunID)

	pc, err := visit.LoadContext(in)
	if err != nil {
		if errors.Is(err, visit.ErrMissingContext) {
			log.InfoContext(ctx, "missing required page values, exiting")
			close(v.done)
			return v, nil
		}
		close(v.done)
		return v, err
	}

	if pattern, ok := n.excluded(pc.TableName); ok {
		log.InfoContext(ctx, "table excluded from change tracking", "table", pc.TableName, "pattern", pattern)
		close(v.done)
		return v, nil
	}

	v.Key = pc.Key()
	log = log.With("key", v.Key)

	prev, err := n.records.Get(ctx, v.Key)
	if err != nil {
		close(v.done)
		return v, fmt.Errorf("load visit record: %w", err)
	}
	v.Previous = prev
	v.Decision = visit.Detect(pc.MaxVersion, prev)
	log.DebugContext(ctx, "compared versions", "max_version", pc.MaxVersion, "decision", v.Decision.String())

	if v.Decision == visit.Changed {
		taskCtx := context.WithoutCancel(ctx)
		go func() {
			defer close(v.done)
			n.notify(taskCtx, log, pc, *prev, v)
		}()
	} else {
		close(v.done)
	}

	if !v.Decision.ShouldRecord() {
		return v, nil
	}

	rec := visit.NewRecord(pc.MaxVersion, n.now().UnixMilli())
	if err := n.records.Put(ctx, v.Key, rec); err != nil {
		return v, fmt.Errorf("save visit record: %w", err)
	}
	v.Written = &rec
	return v, nil
}

// notify fetches the change count and shows the banner. Failures are logged
// and end the task; there is no retry.
func (n *Notifier) notify(ctx context.Context, log *slog.Logger, pc visit.PageContext, prev visit.Record, v *Visit) {
	res, err := n.counter.CountSince(ctx, pc.TableName, *prev.Version)
	if err != nil {
		log.ErrorContext(ctx, "error fetching chronicle count", "table", pc.TableName, "error", err)
		return
	}
	if !res.OK || res.Count <= 0 {
		log.DebugContext(ctx, "no changed rows to report", "ok", res.OK, "count", res.Count)
		return
	}

	text := visit.BannerMessage(res.Count, visit.ElapsedLabel(n.now(), prev.Timestamp))
	if err := n.banners.ShowBanner(text); err != nil {
		log.ErrorContext(ctx, "could not show banner", "error", err)
		return
	}
	v.setBanner(text)
	log.InfoContext(ctx, "banner shown", "count", res.Count)
}

func (n *Notifier) excluded(table string) (string, bool) {
	for _, p := range n.exclude {
		if ok, _ := path.Match(p, table); ok {
			return p, true
		}
	}
	return "", false
}
