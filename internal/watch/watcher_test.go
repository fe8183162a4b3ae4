package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, roots ...string) (*Watcher, chan Change) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	w := New(roots, 50*time.Millisecond)
	changes := make(chan Change, 4)
	require.NoError(t, w.Start(ctx, changes))
	t.Cleanup(func() { _ = w.Stop() })
	return w, changes
}

func waitChange(t *testing.T, changes <-chan Change) Change {
	t.Helper()
	select {
	case c := <-changes:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
		return Change{}
	}
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	dir := t.TempDir()
	_, changes := startWatcher(t, dir)

	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.json")
	require.NoError(t, os.WriteFile(a, []byte("x: 1\n"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(a, []byte("x: 2\n"), 0644))

	c := waitChange(t, changes)
	assert.Equal(t, []string{a, b}, c.Paths)
	assert.False(t, c.Time.IsZero())
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	_, changes := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	tool := filepath.Join(dir, "tool.yml")
	require.NoError(t, os.WriteFile(tool, []byte("x: 1\n"), 0644))

	c := waitChange(t, changes)
	assert.Equal(t, []string{tool}, c.Paths)
}

func TestWatcher_WatchesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "tools")
	require.NoError(t, os.MkdirAll(sub, 0755))
	_, changes := startWatcher(t, dir)

	echo := filepath.Join(sub, "echo.yaml")
	require.NoError(t, os.WriteFile(echo, []byte("action: echo\n"), 0644))

	c := waitChange(t, changes)
	assert.Contains(t, c.Paths, echo)
}

func TestWatcher_ReportsNewDirectories(t *testing.T) {
	dir := t.TempDir()
	_, changes := startWatcher(t, dir)

	sub := filepath.Join(dir, "prompts")
	require.NoError(t, os.Mkdir(sub, 0755))

	c := waitChange(t, changes)
	assert.Contains(t, c.Paths, sub)
}

func TestWatcher_SkipsMissingRoots(t *testing.T) {
	dir := t.TempDir()
	_, changes := startWatcher(t, filepath.Join(dir, "missing"), dir)

	f := filepath.Join(dir, "index.yaml")
	require.NoError(t, os.WriteFile(f, []byte("name: x\n"), 0644))
	c := waitChange(t, changes)
	assert.Equal(t, []string{f}, c.Paths)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w := New([]string{t.TempDir()}, 0)
	assert.Equal(t, DefaultDebounce, w.debounce)
	require.NoError(t, w.Start(context.Background(), make(chan Change)))
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
