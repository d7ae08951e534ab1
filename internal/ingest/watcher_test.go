package ingest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderparse/internal/ingest"
)

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watcher event")
		return ""
	}
}

func TestStartWatcher_InitialScan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.txt"), []byte("Order #: PO-1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.png"), []byte{0x89}, 0o644))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := ingest.StartWatcher(ctx, ingest.WatchConfig{Roots: []string{dir}, InitialScan: true}, nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "existing.txt"), receive(t, events))
}

func TestStartWatcher_NewFile(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:    []string{dir},
		Debounce: 50 * time.Millisecond,
	}, nil)
	require.NoError(t, err)

	path := filepath.Join(dir, "incoming.txt")
	require.NoError(t, os.WriteFile(path, []byte("Order #: PO-2"), 0o644))

	assert.Equal(t, path, receive(t, events))
}

func TestStartWatcher_ClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{Roots: []string{t.TempDir()}}, nil)
	require.NoError(t, err)

	cancel()

	select {
	case _, open := <-events:
		assert.False(t, open)
	case <-time.After(5 * time.Second):
		t.Fatal("events channel not closed")
	}
	_, open := <-errs
	assert.False(t, open)
}

func TestStartWatcher_NoRoots(t *testing.T) {
	_, _, err := ingest.StartWatcher(context.Background(), ingest.WatchConfig{}, nil)
	assert.Error(t, err)
}

func TestAllowed(t *testing.T) {
	assert.True(t, ingest.Allowed("/x/ORDER.TXT", ingest.DefaultExts))
	assert.True(t, ingest.Allowed("mail.eml", ingest.DefaultExts))
	assert.False(t, ingest.Allowed("scan.pdf", ingest.DefaultExts))
	assert.False(t, ingest.Allowed("noext", ingest.DefaultExts))
}
