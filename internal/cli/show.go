package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/chronicle-banner/internal/visit"
)

// Execute implements the go-flags Commander interface for ShowCommand.
func (c *ShowCommand) Execute(args []string) error {
	if err := requireTable("show", c.Database, c.Table); err != nil {
		return err
	}

	ctx := context.Background()
	sess, err := c.globals.openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	key := visit.ScopeKey(c.Database, c.Table)
	rec, err := sess.records.Get(ctx, key)
	if err != nil {
		return err
	}

	if c.globals.JSON {
		out := map[string]any{"key": key, "found": rec != nil}
		if rec != nil {
			out["version"] = rec.Version
			out["timestamp"] = rec.Timestamp
		}
		return printJSON(out)
	}

	if rec == nil {
		fmt.Printf("No visit recorded for %s/%s\n", c.Database, c.Table)
		return nil
	}

	fmt.Printf("Key:        %s\n", key)
	if rec.Version != nil {
		fmt.Printf("Version:    %d\n", *rec.Version)
	} else {
		fmt.Println("Version:    (none)")
	}
	if rec.Timestamp != nil && *rec.Timestamp != 0 {
		at := time.UnixMilli(*rec.Timestamp)
		fmt.Printf("Last visit: %s (%s)\n", at.Local().Format(time.RFC3339), visit.ElapsedLabel(time.Now(), rec.Timestamp))
	} else {
		fmt.Println("Last visit: unknown")
	}
	return nil
}
