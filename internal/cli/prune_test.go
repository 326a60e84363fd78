package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/chronicle-banner/internal/visit"
)

// setupPruneTest seeds records visited 60 days ago and 1 hour ago.
func setupPruneTest(t *testing.T, oldCount, recentCount int) (*PruneCommand, *session, time.Time) {
	t.Helper()

	globals := testGlobals(t)
	sess := openTestSession(t, globals)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < oldCount; i++ {
		key := visit.ScopeKey("fixtures", fmt.Sprintf("old%d", i))
		require.NoError(t, sess.records.Put(ctx, key, visit.NewRecord(1, now.Add(-60*24*time.Hour).UnixMilli())))
	}
	for i := 0; i < recentCount; i++ {
		key := visit.ScopeKey("fixtures", fmt.Sprintf("recent%d", i))
		require.NoError(t, sess.records.Put(ctx, key, visit.NewRecord(1, now.Add(-1*time.Hour).UnixMilli())))
	}

	cmd := &PruneCommand{OlderThan: "30d", globals: globals, version: "test"}
	return cmd, sess, now
}

func countRecords(t *testing.T, sess *session) int {
	t.Helper()
	stored, err := sess.records.List(context.Background(), visit.KeyPrefix)
	require.NoError(t, err)
	return len(stored)
}

func TestPrune_DefaultAge(t *testing.T) {
	cmd, sess, _ := setupPruneTest(t, 5, 3)

	output := captureOutput(t, func() {
		require.NoError(t, cmd.Execute(nil))
	})

	assert.Contains(t, output, "Pruned 5 records not visited in 30 days.")
	assert.Equal(t, 3, countRecords(t, sess))
}

func TestPrune_DryRunDeletesNothing(t *testing.T) {
	cmd, sess, _ := setupPruneTest(t, 2, 1)
	cmd.DryRun = true

	output := captureOutput(t, func() {
		require.NoError(t, cmd.Execute(nil))
	})

	assert.Contains(t, output, "Would prune 2 records")
	assert.Contains(t, output, "fixtures_old0")
	assert.Contains(t, output, "fixtures_old1")
	assert.NotContains(t, output, "recent0")
	assert.Equal(t, 3, countRecords(t, sess))
}

func TestPrune_OlderThanOverride(t *testing.T) {
	cmd, sess, _ := setupPruneTest(t, 2, 3)
	cmd.OlderThan = "30m"

	output := captureOutput(t, func() {
		require.NoError(t, cmd.Execute(nil))
	})

	assert.Contains(t, output, "Pruned 5 records")
	assert.Equal(t, 0, countRecords(t, sess))
}

func TestPrune_NothingToPrune(t *testing.T) {
	cmd, sess, _ := setupPruneTest(t, 0, 2)

	output := captureOutput(t, func() {
		require.NoError(t, cmd.Execute(nil))
	})

	assert.Contains(t, output, "Pruned 0 records")
	assert.Equal(t, 2, countRecords(t, sess))
}

func TestPrune_FallsBackToWriteTimeWithoutTimestamp(t *testing.T) {
	cmd, sess, now := setupPruneTest(t, 0, 0)
	ctx := context.Background()
	require.NoError(t, sess.kv.Put(ctx, visit.ScopeKey("fixtures", "noclock"), `{"version": 4}`))

	// The write time is now; it only falls behind the cutoff two days later.
	captureOutput(t, func() {
		require.NoError(t, cmd.prune(ctx, sess, 24*time.Hour, now))
	})
	assert.Equal(t, 1, countRecords(t, sess))

	captureOutput(t, func() {
		require.NoError(t, cmd.prune(ctx, sess, 24*time.Hour, now.Add(48*time.Hour)))
	})
	assert.Equal(t, 0, countRecords(t, sess))
}

func TestPrune_JSONOutput(t *testing.T) {
	cmd, _, _ := setupPruneTest(t, 1, 1)
	cmd.globals.JSON = true
	cmd.DryRun = true

	output := captureOutput(t, func() {
		require.NoError(t, cmd.Execute(nil))
	})

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &result), "output should be valid JSON: %s", output)
	assert.Equal(t, true, result["dry_run"])
	assert.Equal(t, float64(1), result["matched"])
	assert.Equal(t, float64(0), result["deleted"])
	assert.Equal(t, []any{"chronicle_last_seen_info_fixtures_old0"}, result["keys"])
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
		err   bool
	}{
		{"30d", 30 * 24 * time.Hour, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"24h", 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"90m", 90 * time.Minute, false},
		{"", 0, true},
		{"d", 0, true},
		{"abc", 0, true},
		{"10x", 0, true},
		{"-5d", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDuration(tt.input)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatDurationHuman(t *testing.T) {
	assert.Equal(t, "30 days", formatDurationHuman(30*24*time.Hour))
	assert.Equal(t, "1 day", formatDurationHuman(24*time.Hour))
	assert.Equal(t, "5 hours", formatDurationHuman(5*time.Hour))
	assert.Equal(t, "1 hour", formatDurationHuman(time.Hour))
	assert.Equal(t, "30m0s", formatDurationHuman(30*time.Minute))
}
