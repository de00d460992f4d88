package domain

import "time"

// Severity classifies a captured log line.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
	SeverityCrash Severity = "crash"
)

// Priority returns the severity rank (higher = more severe).
func (s Severity) Priority() int {
	switch s {
	case SeverityCrash:
		return 2
	case SeverityError:
		return 1
	default:
		return 0
	}
}

// LogEntry is one captured, filtered log line. Entries are owned by the
// collector's buffer until drained; draining transfers ownership to the
// caller.
type LogEntry struct {
	Line      string    `json:"line"`
	Timestamp time.Time `json:"ts"`
	Severity  Severity  `json:"severity"`
}
