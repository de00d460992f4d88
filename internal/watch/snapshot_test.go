package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devtether/tether/internal/domain"
)

// fakeSource serves a queue of tree identifiers; each distinct identifier
// parses to a distinct element set. The last identifier repeats.
type fakeSource struct {
	mu            sync.Mutex
	trees         []string
	i             int
	screenshotErr error
	eventsArgv    []string
}

func (f *fakeSource) Screenshot(_ context.Context, path string) error {
	if f.screenshotErr != nil {
		return f.screenshotErr
	}
	return os.WriteFile(path, []byte("png-bytes"), 0o644)
}

func (f *fakeSource) DumpTree(context.Context) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.trees) == 0 {
		return ""
	}
	tree := f.trees[f.i]
	if f.i < len(f.trees)-1 {
		f.i++
	}
	return tree
}

func (f *fakeSource) ParseTree(raw string, _ bool) []domain.Element {
	if raw == "" {
		return nil
	}
	return []domain.Element{
		{Type: "TextView", Text: raw},
		{Type: "Button", Text: "OK", Clickable: true},
	}
}

func (f *fakeSource) EventStream() ([]string, bool) {
	return f.eventsArgv, f.eventsArgv != nil
}

type fakeLogs struct {
	mu      sync.Mutex
	pending []domain.LogEntry
}

func (f *fakeLogs) Drain() []domain.LogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.pending
	f.pending = nil
	return out
}

type fakeNotifier struct {
	mu        sync.Mutex
	snapshots []domain.SnapshotEntry
	statuses  []string
	warnings  []string
}

func (f *fakeNotifier) Snapshot(entry domain.SnapshotEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, entry)
}

func (f *fakeNotifier) Statusf(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, fmt.Sprintf(format, args...))
}

func (f *fakeNotifier) Warnf(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warnings = append(f.warnings, fmt.Sprintf(format, args...))
}

func (f *fakeNotifier) snapshotCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.snapshots)
}

func TestCapturer(t *testing.T) {
	ctx := context.Background()

	t.Run("initial snapshot persists files and manifest", func(t *testing.T) {
		dir := t.TempDir()
		src := &fakeSource{trees: []string{"Home screen"}}
		note := &fakeNotifier{}
		cap := NewCapturer(src, nil, dir, note)

		persisted, err := cap.Capture(ctx, TriggerInitial, 1)
		require.NoError(t, err)
		assert.True(t, persisted)

		assert.FileExists(t, filepath.Join(dir, "001-screen.png"))
		assert.FileExists(t, filepath.Join(dir, "001-elements.json"))

		data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
		require.NoError(t, err)
		var entries []domain.SnapshotEntry
		require.NoError(t, json.Unmarshal(data, &entries))
		require.Len(t, entries, 1)

		entry := entries[0]
		assert.Equal(t, 1, entry.Snapshot)
		assert.Equal(t, TriggerInitial, entry.EventType)
		assert.Equal(t, 2, entry.ElementsCount)
		assert.Equal(t, "Home screen", entry.ScreenTitle)
		assert.Equal(t, 1, entry.ClickableCount)
		assert.NotEmpty(t, entry.Timestamp)
	})

	t.Run("duplicate poll snapshot is skipped", func(t *testing.T) {
		dir := t.TempDir()
		src := &fakeSource{trees: []string{"Same screen"}}
		note := &fakeNotifier{}
		cap := NewCapturer(src, nil, dir, note)

		persisted, err := cap.Capture(ctx, TriggerInitial, 1)
		require.NoError(t, err)
		require.True(t, persisted)

		persisted, err = cap.Capture(ctx, TriggerPoll, 2)
		require.NoError(t, err)
		assert.False(t, persisted)

		assert.Len(t, cap.Manifest().Entries(), 1)
		assert.NoFileExists(t, filepath.Join(dir, "002-elements.json"))
	})

	t.Run("window state change persists despite identical screen", func(t *testing.T) {
		dir := t.TempDir()
		src := &fakeSource{trees: []string{"Same screen"}}
		note := &fakeNotifier{}
		cap := NewCapturer(src, nil, dir, note)

		_, err := cap.Capture(ctx, TriggerInitial, 1)
		require.NoError(t, err)

		persisted, err := cap.Capture(ctx, EventWindowState, 2)
		require.NoError(t, err)
		assert.True(t, persisted)
		assert.Len(t, cap.Manifest().Entries(), 2)
	})

	t.Run("changed screen persists under poll", func(t *testing.T) {
		dir := t.TempDir()
		src := &fakeSource{trees: []string{"Screen A", "Screen B"}}
		note := &fakeNotifier{}
		cap := NewCapturer(src, nil, dir, note)

		_, err := cap.Capture(ctx, TriggerInitial, 1)
		require.NoError(t, err)
		persisted, err := cap.Capture(ctx, TriggerPoll, 2)
		require.NoError(t, err)
		assert.True(t, persisted)
	})

	t.Run("empty dump degrades to count -1", func(t *testing.T) {
		dir := t.TempDir()
		src := &fakeSource{}
		note := &fakeNotifier{}
		cap := NewCapturer(src, nil, dir, note)

		persisted, err := cap.Capture(ctx, TriggerInitial, 1)
		require.NoError(t, err)
		assert.True(t, persisted)

		require.Len(t, cap.Manifest().Entries(), 1)
		assert.Equal(t, -1, cap.Manifest().Entries()[0].ElementsCount)
		assert.Contains(t, note.warnings, "ui dump skipped")
	})

	t.Run("screenshot failure is not fatal", func(t *testing.T) {
		dir := t.TempDir()
		src := &fakeSource{trees: []string{"Screen"}, screenshotErr: fmt.Errorf("device busy")}
		note := &fakeNotifier{}
		cap := NewCapturer(src, nil, dir, note)

		persisted, err := cap.Capture(ctx, TriggerInitial, 1)
		require.NoError(t, err)
		assert.True(t, persisted)
		assert.NoFileExists(t, filepath.Join(dir, "001-screen.png"))
		require.NotEmpty(t, note.warnings)
		assert.Contains(t, note.warnings[0], "screenshot failed")
	})

	t.Run("drained logs land in entry and file", func(t *testing.T) {
		dir := t.TempDir()
		src := &fakeSource{trees: []string{"Screen"}}
		logs := &fakeLogs{pending: []domain.LogEntry{
			{Line: "E/AndroidRuntime: FATAL EXCEPTION", Timestamp: time.Now(), Severity: domain.SeverityCrash},
			{Line: "I/ReactNativeJS: ready", Timestamp: time.Now(), Severity: domain.SeverityInfo},
		}}
		note := &fakeNotifier{}
		cap := NewCapturer(src, logs, dir, note)

		_, err := cap.Capture(ctx, TriggerInitial, 1)
		require.NoError(t, err)

		entry := cap.Manifest().Entries()[0]
		assert.Equal(t, 2, entry.LogLines)
		assert.Equal(t, []string{"E/AndroidRuntime: FATAL EXCEPTION"}, entry.Crashes)
		assert.Equal(t, filepath.Join(dir, "001-logs.json"), entry.Files.Logs)
		assert.FileExists(t, entry.Files.Logs)
	})
}

func TestSummarize(t *testing.T) {
	els := []domain.Element{
		{Type: "TextView", Text: "x"},
		{Type: "TextView", Text: "Appointments"},
		{Type: "View", ID: "Tab 2 of 3", Selected: true},
		{Type: "Button", Clickable: true},
		{Type: "Button", Clickable: true},
	}
	s := summarize(els)
	assert.Equal(t, "Appointments", s.title)
	assert.Equal(t, "Tab 2 of 3", s.tab)
	assert.Equal(t, 2, s.clickable)
}
