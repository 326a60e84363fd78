package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/runnerr0/chronicle-banner/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version       string `json:"version"`
	Backend       string `json:"backend"`
	Location      string `json:"location"`
	SizeBytes     int64  `json:"size_bytes"`
	TotalRecords  int64  `json:"total_records"`
	OldestWrite   string `json:"oldest_write,omitempty"`
	NewestWrite   string `json:"newest_write,omitempty"`
	BaseURL       string `json:"base_url"`
	ExcludeTables int    `json:"exclude_tables"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	ctx := context.Background()
	sess, err := c.globals.openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	return c.executeWithSession(ctx, sess)
}

// executeWithSession runs status against an open session.
func (c *StatusCommand) executeWithSession(ctx context.Context, sess *session) error {
	stats, err := sess.records.Stats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return c.printStatusJSON(stats, sess)
	}
	return c.printStatusHuman(stats, sess)
}

func (c *StatusCommand) printStatusHuman(stats *storage.Stats, sess *session) error {
	fmt.Println("Chronicle Banner Status")
	fmt.Println("=======================")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Backend:       %s\n", stats.Backend)
	if stats.SizeBytes > 0 {
		fmt.Printf("Location:      %s (%s)\n", stats.Location, formatBytes(stats.SizeBytes))
	} else {
		fmt.Printf("Location:      %s\n", stats.Location)
	}
	fmt.Printf("Records:       %s\n", formatNumber(stats.TotalKeys))

	// Time range
	if stats.TotalKeys > 0 && !stats.OldestWrite.IsZero() {
		fmt.Printf("Oldest:        %s\n", stats.OldestWrite.Local().Format("2006-01-02"))
		fmt.Printf("Newest:        %s\n", stats.NewestWrite.Local().Format("2006-01-02"))
	}

	fmt.Println()
	baseURL := sess.cfg.Endpoint.BaseURL
	if baseURL == "" {
		baseURL = "(from page alternate link)"
	}
	fmt.Printf("Endpoint:      %s\n", baseURL)
	fmt.Printf("Excluded:      %d table patterns\n", len(sess.cfg.Tracking.ExcludeTables))

	return nil
}

func (c *StatusCommand) printStatusJSON(stats *storage.Stats, sess *session) error {
	out := statusJSON{
		Version:       c.version,
		Backend:       stats.Backend,
		Location:      stats.Location,
		SizeBytes:     stats.SizeBytes,
		TotalRecords:  stats.TotalKeys,
		BaseURL:       sess.cfg.Endpoint.BaseURL,
		ExcludeTables: len(sess.cfg.Tracking.ExcludeTables),
	}

	if stats.TotalKeys > 0 && !stats.OldestWrite.IsZero() {
		out.OldestWrite = stats.OldestWrite.UTC().Format(time.RFC3339)
		out.NewestWrite = stats.NewestWrite.UTC().Format(time.RFC3339)
	}

	return printJSON(out)
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatNumber formats an int64 with comma separators.
func formatNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
