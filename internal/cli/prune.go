package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/runnerr0/chronicle-banner/internal/visit"
)

// Execute implements the go-flags Commander interface for PruneCommand.
func (c *PruneCommand) Execute(args []string) error {
	age, err := parseDuration(c.OlderThan)
	if err != nil {
		return err
	}

	ctx := context.Background()
	sess, err := c.globals.openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	return c.prune(ctx, sess, age, time.Now())
}

func (c *PruneCommand) prune(ctx context.Context, sess *session, age time.Duration, now time.Time) error {
	cutoff := now.Add(-age)

	stored, err := sess.records.List(ctx, visit.KeyPrefix)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}

	var stale []string
	for _, r := range stored {
		if lastVisit(r).Before(cutoff) {
			stale = append(stale, r.Key)
		}
	}

	deleted := 0
	if !c.DryRun {
		for _, key := range stale {
			if err := sess.records.Delete(ctx, key); err != nil {
				return fmt.Errorf("delete %s: %w", key, err)
			}
			deleted++
		}
		sess.log.Info("pruned visit records", "deleted", deleted, "older_than", c.OlderThan)
	}

	if c.globals.JSON {
		keys := stale
		if keys == nil {
			keys = []string{}
		}
		return printJSON(map[string]any{
			"dry_run":    c.DryRun,
			"older_than": c.OlderThan,
			"cutoff":     cutoff.UTC().Format(time.RFC3339),
			"matched":    len(stale),
			"deleted":    deleted,
			"keys":       keys,
		})
	}

	if c.DryRun {
		fmt.Printf("Would prune %d %s not visited in %s:\n", len(stale), pluralize("record", len(stale)), formatDurationHuman(age))
		for _, key := range stale {
			fmt.Printf("  %s\n", strings.TrimPrefix(key, visit.KeyPrefix))
		}
		return nil
	}

	fmt.Printf("Pruned %d %s not visited in %s.\n", deleted, pluralize("record", deleted), formatDurationHuman(age))
	return nil
}
