package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Execute implements the go-flags Commander interface for PurgeCommand.
func (c *PurgeCommand) Execute(args []string) error {
	if !c.All {
		return fmt.Errorf("purge requires --all flag for safety")
	}

	// Confirmation prompt unless --force
	if !c.Force {
		fmt.Println("\u26a0 WARNING: This will permanently delete ALL visit records.")
		fmt.Println("  Every table will count as a first visit again.")
		fmt.Println()
		fmt.Println("This action cannot be undone.")
		fmt.Println()
		fmt.Print(`Type "PURGE" to confirm: `)

		var in io.Reader = os.Stdin
		if c.stdin != nil {
			in = c.stdin
		}
		scanner := bufio.NewScanner(in)
		if !scanner.Scan() {
			return fmt.Errorf("aborted: no input received")
		}
		input := strings.TrimSpace(scanner.Text())
		if input != "PURGE" {
			return fmt.Errorf("aborted: confirmation text did not match")
		}
	}

	ctx := context.Background()
	sess, err := c.globals.openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	n, err := sess.records.PurgeAll(ctx)
	if err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}
	sess.log.Info("purged visit records", "deleted", n)

	if c.globals.JSON {
		return printJSON(map[string]any{
			"purged":  true,
			"deleted": n,
			"message": "all visit records deleted",
		})
	}

	fmt.Printf("Purged %d %s. Every table will count as a first visit.\n", n, pluralize("record", int(n)))
	return nil
}
