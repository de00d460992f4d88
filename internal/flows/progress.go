package flows

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// FlowResult is one recorded flow outcome.
type FlowResult struct {
	Passed    bool   `json:"passed"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// History is the persisted progress file contents.
type History struct {
	Flows map[string]FlowResult `json:"flows"`
}

// LatestFailure returns the most recent failed flow by timestamp.
func (h History) LatestFailure() (string, FlowResult, bool) {
	name := ""
	var latest FlowResult
	for flow, r := range h.Flows {
		if !r.Passed && r.Timestamp > latest.Timestamp {
			name = flow
			latest = r
		}
	}
	return name, latest, name != ""
}

// PassedSet returns the flows that passed, for --resume skipping.
func (h History) PassedSet() map[string]bool {
	passed := make(map[string]bool)
	for flow, r := range h.Flows {
		if r.Passed {
			passed[flow] = true
		}
	}
	return passed
}

// Store persists flow results across invocations. A corrupt file is treated
// as empty history, never as an error: progress is bookkeeping, not truth.
type Store struct {
	path string
}

// NewStore creates a store writing to path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the recorded history. Missing or corrupt files yield empty
// history.
func (s *Store) Load() History {
	h := History{Flows: map[string]FlowResult{}}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return h
	}
	var loaded History
	if json.Unmarshal(data, &loaded) == nil && loaded.Flows != nil {
		h = loaded
	}
	return h
}

// Record merges one result into the history file.
func (s *Store) Record(flow string, passed bool, errMsg string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	h := s.Load()
	h.Flows[flow] = FlowResult{
		Passed:    passed,
		Error:     errMsg,
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05Z"),
	}
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// Clear removes the history file. Returns whether anything existed.
func (s *Store) Clear() (bool, error) {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}
