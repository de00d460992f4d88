package watch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/devtether/tether/internal/domain"
)

// Manifest accumulates the session timeline and persists it after every
// appended entry. The file on disk is always a complete, valid JSON array:
// writes go to a temp file in the same directory and replace the manifest
// with a rename.
type Manifest struct {
	path    string
	entries []domain.SnapshotEntry
}

func NewManifest(path string) *Manifest {
	return &Manifest{path: path}
}

// Append records the entry and rewrites the manifest file.
func (m *Manifest) Append(entry domain.SnapshotEntry) error {
	m.entries = append(m.entries, entry)

	data, err := json.MarshalIndent(m.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

// Entries returns the in-memory timeline.
func (m *Manifest) Entries() []domain.SnapshotEntry {
	return m.entries
}

// Path returns the manifest file location.
func (m *Manifest) Path() string {
	return m.path
}

// LoadManifest reads a previously written manifest, for inspecting a past
// session.
func LoadManifest(path string) ([]domain.SnapshotEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []domain.SnapshotEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", filepath.Base(path), err)
	}
	return entries, nil
}
