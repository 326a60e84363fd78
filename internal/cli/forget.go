package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/runnerr0/chronicle-banner/internal/storage"
	"github.com/runnerr0/chronicle-banner/internal/visit"
)

// Execute implements the go-flags Commander interface for ForgetCommand.
func (c *ForgetCommand) Execute(args []string) error {
	if err := requireTable("forget", c.Database, c.Table); err != nil {
		return err
	}

	ctx := context.Background()
	sess, err := c.globals.openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	key := visit.ScopeKey(c.Database, c.Table)
	if err := sess.records.Delete(ctx, key); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no visit recorded for %s/%s", c.Database, c.Table)
		}
		return fmt.Errorf("delete record: %w", err)
	}

	if c.globals.JSON {
		return printJSON(map[string]any{"key": key, "deleted": true})
	}

	fmt.Printf("Forgot %s/%s\n", c.Database, c.Table)
	return nil
}
