package watch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devtether/tether/internal/domain"
)

func TestManifest(t *testing.T) {
	t.Run("append rewrites a complete array", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "manifest.json")
		m := NewManifest(path)

		require.NoError(t, m.Append(domain.SnapshotEntry{Snapshot: 1, EventType: TriggerInitial}))
		require.NoError(t, m.Append(domain.SnapshotEntry{Snapshot: 2, EventType: TriggerPoll}))

		entries, err := LoadManifest(path)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, 1, entries[0].Snapshot)
		assert.Equal(t, TriggerPoll, entries[1].EventType)
	})

	t.Run("no temp file survives", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "manifest.json")
		m := NewManifest(path)
		require.NoError(t, m.Append(domain.SnapshotEntry{Snapshot: 1}))

		_, err := os.Stat(path + ".tmp")
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("load rejects malformed content", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "manifest.json")
		require.NoError(t, os.WriteFile(path, []byte("{not an array"), 0o644))

		_, err := LoadManifest(path)
		assert.Error(t, err)
	})
}
