package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/chronicle-banner/internal/visit"
)

// Execute implements the go-flags Commander interface for MarkCommand.
func (c *MarkCommand) Execute(args []string) error {
	if err := requireTable("mark", c.Database, c.Table); err != nil {
		return err
	}
	if c.MaxVersion == "" {
		return fmt.Errorf("--max-version is required for mark command")
	}

	version, err := parseVersion(c.MaxVersion)
	if err != nil {
		return err
	}

	at := time.Now()
	if c.At != "" {
		at, err = time.Parse(time.RFC3339, c.At)
		if err != nil {
			return fmt.Errorf("invalid --at %q: use RFC 3339, e.g. 2024-05-01T10:00:00Z", c.At)
		}
	}

	ctx := context.Background()
	sess, err := c.globals.openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	key := visit.ScopeKey(c.Database, c.Table)
	rec := visit.NewRecord(version, at.UnixMilli())
	if err := sess.records.Put(ctx, key, rec); err != nil {
		return fmt.Errorf("storing record: %w", err)
	}
	sess.log.Debug("record marked", "key", key, "version", version)

	if c.globals.JSON {
		return printJSON(map[string]any{
			"key":       key,
			"version":   version,
			"timestamp": at.UnixMilli(),
		})
	}

	fmt.Printf("Marked %s/%s as seen at version %d (%s)\n", c.Database, c.Table, version, at.Format(time.RFC3339))
	return nil
}
