package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// writeTestConfig writes a config file that keeps all state inside a temp
// directory and returns its path. extra is inserted verbatim into the
// storage section.
func writeTestConfig(t *testing.T, backend, extra string) string {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := fmt.Sprintf(`storage:
  backend: %q
  path: %q
%slogging:
  level: "error"
`, backend, dir, extra)
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))
	return cfgPath
}

// testGlobals returns global flags pointing at a fresh sqlite-backed config.
func testGlobals(t *testing.T) *GlobalFlags {
	t.Helper()
	return &GlobalFlags{Config: writeTestConfig(t, "sqlite", "")}
}

// openTestSession opens the session the commands would use for globals.
func openTestSession(t *testing.T, globals *GlobalFlags) *session {
	t.Helper()
	sess, err := globals.openSession(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close() })
	return sess
}
