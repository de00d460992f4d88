package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode"

	"github.com/devtether/tether/internal/domain"
)

// Source provides the device-side capture primitives. The concrete
// implementation is the active platform adapter.
type Source interface {
	Screenshot(ctx context.Context, path string) error
	DumpTree(ctx context.Context) string
	ParseTree(raw string, assignRefs bool) []domain.Element
	EventStream() (argv []string, ok bool)
}

// LogSource hands over log lines buffered since the previous drain.
type LogSource interface {
	Drain() []domain.LogEntry
}

// Notifier receives session output: persisted snapshots on the result
// stream, status and warnings on the side channel.
type Notifier interface {
	Snapshot(entry domain.SnapshotEntry)
	Statusf(format string, args ...any)
	Warnf(format string, args ...any)
}

// Capturer takes one snapshot at a time: screenshot, element dump, log
// drain, manifest append. Consecutive duplicate screens are dropped unless
// the trigger indicates a settled new screen.
type Capturer struct {
	src      Source
	logs     LogSource
	dir      string
	manifest *Manifest
	notify   Notifier

	lastFingerprint string
}

// NewCapturer prepares a capturer writing into dir. logs may be nil when no
// log collector is running.
func NewCapturer(src Source, logs LogSource, dir string, notify Notifier) *Capturer {
	return &Capturer{
		src:      src,
		logs:     logs,
		dir:      dir,
		manifest: NewManifest(filepath.Join(dir, "manifest.json")),
		notify:   notify,
	}
}

// Manifest exposes the session timeline.
func (c *Capturer) Manifest() *Manifest {
	return c.manifest
}

// Capture records snapshot num with the given trigger. It returns false when
// the screen was an exact duplicate of the previous snapshot and was skipped.
// Screenshot and dump failures degrade the snapshot instead of failing it;
// only a manifest write error is fatal.
func (c *Capturer) Capture(ctx context.Context, trigger string, num int) (bool, error) {
	ts := time.Now().UTC().Format("2006-01-02T15:04:05Z")

	// Screenshot first so image and element tree describe the same instant.
	// It lands in a scratch file until the duplicate check passes.
	scratch := filepath.Join(c.dir, ".screen.tmp")
	haveScreen := false
	if err := c.src.Screenshot(ctx, scratch); err != nil {
		c.notify.Warnf("screenshot failed: %v", err)
	} else {
		haveScreen = true
	}

	elementsCount := -1
	var elements []domain.Element
	var elementsJSON []byte
	raw := c.src.DumpTree(ctx)
	if raw == "" {
		c.notify.Warnf("ui dump skipped")
	} else {
		elements = c.src.ParseTree(raw, true)
		elementsCount = len(elements)
		var err error
		elementsJSON, err = json.MarshalIndent(elements, "", "  ")
		if err != nil {
			return false, fmt.Errorf("encode elements: %w", err)
		}
	}

	fingerprint := ""
	if len(elementsJSON) > 0 {
		sum := sha256.Sum256(elementsJSON)
		fingerprint = hex.EncodeToString(sum[:])
	}
	if trigger != TriggerInitial && trigger != EventWindowState {
		if fingerprint != "" && fingerprint == c.lastFingerprint {
			return false, nil
		}
	}
	if fingerprint != "" {
		c.lastFingerprint = fingerprint
	}

	prefix := fmt.Sprintf("%03d", num)
	screenPath := filepath.Join(c.dir, prefix+"-screen.png")
	elementsPath := filepath.Join(c.dir, prefix+"-elements.json")
	logsPath := filepath.Join(c.dir, prefix+"-logs.json")

	if haveScreen {
		if err := os.Rename(scratch, screenPath); err != nil {
			c.notify.Warnf("screenshot save failed: %v", err)
		}
	}
	if len(elementsJSON) > 0 {
		if err := os.WriteFile(elementsPath, elementsJSON, 0o644); err != nil {
			c.notify.Warnf("elements save failed: %v", err)
		}
	}

	var logEntries []domain.LogEntry
	if c.logs != nil {
		logEntries = c.logs.Drain()
		if len(logEntries) > 0 {
			if data, err := json.MarshalIndent(logEntries, "", "  "); err == nil {
				if err := os.WriteFile(logsPath, data, 0o644); err != nil {
					c.notify.Warnf("logs save failed: %v", err)
				}
			}
		}
	}

	summary := summarize(elements)
	entry := domain.SnapshotEntry{
		Snapshot:       num,
		Timestamp:      ts,
		EventType:      trigger,
		ElementsCount:  elementsCount,
		ScreenTitle:    summary.title,
		SelectedTab:    summary.tab,
		ClickableCount: summary.clickable,
		LogLines:       len(logEntries),
		Files: domain.SnapshotFiles{
			Screen:   screenPath,
			Elements: elementsPath,
		},
	}
	for _, e := range logEntries {
		if e.Severity == domain.SeverityCrash {
			entry.Crashes = append(entry.Crashes, e.Line)
		}
	}
	if len(logEntries) > 0 {
		entry.Files.Logs = logsPath
	}

	if err := c.manifest.Append(entry); err != nil {
		return false, err
	}
	c.notify.Snapshot(entry)
	return true, nil
}

type screenSummary struct {
	title     string
	tab       string
	clickable int
}

// summarize derives the manifest's screen context: the first capitalized
// text as a title guess, the selected navigation item, and how many
// elements are actionable.
func summarize(elements []domain.Element) screenSummary {
	var s screenSummary
	for _, el := range elements {
		if el.Selected && el.Type == "View" && s.tab == "" {
			s.tab = el.ID
		}
		if s.title == "" && el.Type == "TextView" {
			runes := []rune(el.Text)
			if len(runes) > 1 && unicode.IsUpper(runes[0]) {
				s.title = el.Text
			}
		}
		if el.Clickable {
			s.clickable++
		}
	}
	return s
}
