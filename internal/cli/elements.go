package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/devtether/tether/internal/domain"
	"github.com/devtether/tether/internal/logstream"
)

// ElementsCmd dumps the normalized UI element list.
type ElementsCmd struct{}

// Run executes the elements command
func (c *ElementsCmd) Run(globals *Globals) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := requireDevice(ctx, globals); err != nil {
		return err
	}

	raw := globals.Platform().DumpTree(ctx)
	if raw == "" {
		return outputError(globals, domain.ErrDumpFailed, "UI dump failed")
	}
	return globals.Printer().Elements(globals.Platform().ParseTree(raw, true))
}

// InspectCmd combines screenshot, elements, and drained logs into one JSON
// observation. The primary agent command.
type InspectCmd struct{}

type inspectOutput struct {
	Screenshot string           `json:"screenshot,omitempty"`
	Elements   []domain.Element `json:"elements"`
	Crashes    []string         `json:"crashes,omitempty"`
	Errors     []string         `json:"errors,omitempty"`
	LogLines   int              `json:"log_lines,omitempty"`
}

// Run executes the inspect command
func (c *InspectCmd) Run(globals *Globals) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := requireDevice(ctx, globals); err != nil {
		return err
	}

	collector := logstream.NewCollector(globals.Platform().LogStream())
	if err := collector.Start(); err != nil {
		globals.Debug("log collector unavailable: %v", err)
	} else {
		// Give the stream a moment so the drain reflects the current state.
		time.Sleep(300 * time.Millisecond)
	}
	defer collector.Stop()

	shot := filepath.Join(os.TempDir(), "tether-screen.png")
	haveShot := false
	var raw string

	// Screenshot and element dump hit different device endpoints, so take
	// them concurrently. Both degrade instead of failing the observation.
	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		if err := globals.Platform().Screenshot(gctx, shot); err != nil {
			globals.Debug("screenshot failed: %v", err)
			return nil
		}
		haveShot = true
		return nil
	})
	grp.Go(func() error {
		raw = globals.Platform().DumpTree(gctx)
		return nil
	})
	_ = grp.Wait()

	out := inspectOutput{Elements: []domain.Element{}}
	if haveShot {
		out.Screenshot = shot
	}
	if els := globals.Platform().ParseTree(raw, true); raw != "" && els != nil {
		out.Elements = els
	}

	entries := collector.Drain()
	var crashes, errs []string
	for _, e := range entries {
		switch e.Severity {
		case domain.SeverityCrash:
			crashes = append(crashes, e.Line)
		case domain.SeverityError:
			errs = append(errs, e.Line)
		}
	}
	out.Crashes = crashes
	if len(errs) > 10 {
		errs = errs[len(errs)-10:]
	}
	out.Errors = errs
	if len(entries) > 0 && len(crashes) == 0 && len(errs) == 0 {
		out.LogLines = len(entries)
	}

	return globals.Printer().Raw(out)
}
