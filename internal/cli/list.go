package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/runnerr0/chronicle-banner/internal/visit"
)

// Execute implements the go-flags Commander interface for ListCommand.
func (c *ListCommand) Execute(args []string) error {
	ctx := context.Background()
	sess, err := c.globals.openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	prefix := visit.KeyPrefix
	if c.Database != "" {
		prefix = visit.KeyPrefix + c.Database + "_"
	}

	stored, err := sess.records.List(ctx, prefix)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}

	if c.globals.JSON {
		out := make([]recordJSON, 0, len(stored))
		for _, r := range stored {
			out = append(out, toRecordJSON(r))
		}
		return printJSON(out)
	}

	if len(stored) == 0 {
		fmt.Println("No visits recorded.")
		return nil
	}

	for _, r := range stored {
		name := strings.TrimPrefix(r.Key, visit.KeyPrefix)
		switch {
		case r.Record == nil:
			fmt.Printf("%-40s corrupt value %q\n", name, r.Raw)
		case r.Record.Version == nil:
			fmt.Printf("%-40s no version\n", name)
		default:
			visited := "unknown"
			if t := lastVisit(r); !t.IsZero() {
				visited = t.Local().Format("2006-01-02 15:04")
			}
			fmt.Printf("%-40s v%-10d %s\n", name, *r.Record.Version, visited)
		}
	}
	fmt.Printf("\n%d %s\n", len(stored), pluralize("record", len(stored)))
	return nil
}

func pluralize(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
