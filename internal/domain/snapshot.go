package domain

// SnapshotFiles holds the per-snapshot output paths.
type SnapshotFiles struct {
	Screen   string `json:"screen"`
	Elements string `json:"elements"`
	Logs     string `json:"logs,omitempty"`
}

// SnapshotEntry is one row in the watch timeline manifest. Entries are
// written once and never mutated; the manifest file is the ordered sequence
// of all entries for one watch session.
type SnapshotEntry struct {
	Snapshot       int           `json:"snapshot"`
	Timestamp      string        `json:"timestamp"`
	EventType      string        `json:"event_type"`
	ElementsCount  int           `json:"elements_count"`
	ScreenTitle    string        `json:"screen_title"`
	SelectedTab    string        `json:"selected_tab"`
	ClickableCount int           `json:"clickable_count"`
	LogLines       int           `json:"log_lines"`
	Crashes        []string      `json:"crashes,omitempty"`
	Files          SnapshotFiles `json:"files"`
}
