package flows

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devtether/tether/internal/config"
	"github.com/devtether/tether/internal/device"
	"github.com/devtether/tether/internal/domain"
	"github.com/devtether/tether/internal/output"
)

type fakeLogs struct {
	entries []domain.LogEntry
}

func (f *fakeLogs) Drain() []domain.LogEntry {
	out := f.entries
	f.entries = nil
	return out
}

func newRunner(t *testing.T, result device.CmdResult) (*Runner, *bytes.Buffer, *Store) {
	t.Helper()
	cfg := config.Default()
	store := NewStore(filepath.Join(t.TempDir(), "progress.json"))
	var buf bytes.Buffer
	out := output.NewPrinter("text", &buf, io.Discard)
	r := NewRunner(device.New(cfg, io.Discard), cfg, store, out)
	r.exec = func(context.Context, string) device.CmdResult { return result }
	return r, &buf, store
}

func TestFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("pass records progress", func(t *testing.T) {
		r, buf, store := newRunner(t, device.CmdResult{Code: 0})
		require.NoError(t, r.Flow(ctx, "flows/login.yaml", nil))

		assert.Contains(t, buf.String(), "PASS (")
		h := store.Load()
		assert.True(t, h.Flows["flows/login.yaml"].Passed)
	})

	t.Run("pass with crashes warns", func(t *testing.T) {
		r, buf, _ := newRunner(t, device.CmdResult{Code: 0})
		logs := &fakeLogs{entries: []domain.LogEntry{
			{Line: "E/AndroidRuntime: FATAL EXCEPTION", Severity: domain.SeverityCrash},
		}}
		require.NoError(t, r.Flow(ctx, "flows/login.yaml", logs))
		assert.Contains(t, buf.String(), "WARNING: 1 crash(es)")
	})

	t.Run("fail extracts error line and records it", func(t *testing.T) {
		r, buf, store := newRunner(t, device.CmdResult{
			Code:   1,
			Stdout: "step 1 ok\nAssertion failed: element not found\n",
		})
		err := r.Flow(ctx, "flows/broken.yaml", nil)
		require.Error(t, err)

		assert.Contains(t, buf.String(), "FAIL (")
		assert.Contains(t, buf.String(), "Assertion failed: element not found")

		h := store.Load()
		rec := h.Flows["flows/broken.yaml"]
		assert.False(t, rec.Passed)
		assert.Contains(t, rec.Error, "Assertion failed")
	})

	t.Run("fail surfaces log context", func(t *testing.T) {
		r, buf, _ := newRunner(t, device.CmdResult{Code: 1, Stderr: "error: timeout"})
		logs := &fakeLogs{entries: []domain.LogEntry{
			{Line: "E/AndroidRuntime: FATAL EXCEPTION: main", Severity: domain.SeverityCrash},
			{Line: "E/MyApp: Error: request failed", Severity: domain.SeverityError},
		}}
		err := r.Flow(ctx, "flows/broken.yaml", logs)
		require.Error(t, err)

		s := buf.String()
		assert.Contains(t, s, "CRASHES (1):")
		assert.Contains(t, s, "ERRORS (1):")
		assert.Contains(t, s, "E/AndroidRuntime: FATAL EXCEPTION: main")
	})
}

func TestSmoke(t *testing.T) {
	ctx := context.Background()

	writeFlows := func(t *testing.T, names ...string) string {
		dir := t.TempDir()
		for _, name := range names {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("appId: x\n---\n"), 0o644))
		}
		return dir
	}

	t.Run("runs all flows and summarizes", func(t *testing.T) {
		r, buf, _ := newRunner(t, device.CmdResult{Code: 0})
		dir := writeFlows(t, "a.yaml", "b.yaml")

		result, err := r.Smoke(ctx, dir, false)
		require.NoError(t, err)
		assert.Equal(t, SmokeResult{Passed: 2}, result)
		assert.Contains(t, buf.String(), "2 passed, 0 failed, 0 skipped (of 2)")
	})

	t.Run("failures do not stop the suite", func(t *testing.T) {
		r, buf, _ := newRunner(t, device.CmdResult{Code: 1, Stdout: "error: nope"})
		dir := writeFlows(t, "a.yaml", "b.yaml")

		result, err := r.Smoke(ctx, dir, false)
		require.Error(t, err)
		assert.Equal(t, 2, result.Failed)
		assert.Contains(t, buf.String(), "0 passed, 2 failed")
	})

	t.Run("resume skips recorded passes", func(t *testing.T) {
		r, buf, store := newRunner(t, device.CmdResult{Code: 0})
		dir := writeFlows(t, "a.yaml", "b.yaml")
		require.NoError(t, store.Record(filepath.Join(dir, "a.yaml"), true, ""))

		result, err := r.Smoke(ctx, dir, true)
		require.NoError(t, err)
		assert.Equal(t, SmokeResult{Passed: 1, Skipped: 1}, result)
		assert.Contains(t, buf.String(), "SKIP")
	})

	t.Run("empty directory is an error", func(t *testing.T) {
		r, _, _ := newRunner(t, device.CmdResult{Code: 0})
		_, err := r.Smoke(ctx, t.TempDir(), false)
		assert.Error(t, err)
	})
}

func TestProgressStore(t *testing.T) {
	t.Run("record and load", func(t *testing.T) {
		store := NewStore(filepath.Join(t.TempDir(), "progress.json"))
		require.NoError(t, store.Record("a.yaml", true, ""))
		require.NoError(t, store.Record("b.yaml", false, "assert failed"))

		h := store.Load()
		assert.True(t, h.Flows["a.yaml"].Passed)
		assert.Equal(t, "assert failed", h.Flows["b.yaml"].Error)
	})

	t.Run("latest failure wins by timestamp", func(t *testing.T) {
		h := History{Flows: map[string]FlowResult{
			"old.yaml": {Passed: false, Error: "old", Timestamp: "2026-08-01T10:00:00Z"},
			"new.yaml": {Passed: false, Error: "new", Timestamp: "2026-08-02T10:00:00Z"},
			"ok.yaml":  {Passed: true, Timestamp: "2026-08-03T10:00:00Z"},
		}}
		name, r, ok := h.LatestFailure()
		require.True(t, ok)
		assert.Equal(t, "new.yaml", name)
		assert.Equal(t, "new", r.Error)
	})

	t.Run("no failures", func(t *testing.T) {
		h := History{Flows: map[string]FlowResult{"ok.yaml": {Passed: true}}}
		_, _, ok := h.LatestFailure()
		assert.False(t, ok)
	})

	t.Run("corrupt file is empty history", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "progress.json")
		require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))
		h := NewStore(path).Load()
		assert.Empty(t, h.Flows)
	})

	t.Run("clear removes the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "progress.json")
		store := NewStore(path)
		require.NoError(t, store.Record("a.yaml", true, ""))

		existed, err := store.Clear()
		require.NoError(t, err)
		assert.True(t, existed)

		existed, err = store.Clear()
		require.NoError(t, err)
		assert.False(t, existed)
	})
}
