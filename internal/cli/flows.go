package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/devtether/tether/internal/domain"
	"github.com/devtether/tether/internal/flows"
	"github.com/devtether/tether/internal/logstream"
)

// FlowCmd runs a single Maestro flow with the log collector attached.
type FlowCmd struct {
	Path string `arg:"" help:"Flow file to run"`
}

// Run executes the flow command
func (c *FlowCmd) Run(globals *Globals) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if _, err := os.Stat(c.Path); err != nil {
		return outputError(globals, domain.ErrFlowNotFound, "Flow not found: "+c.Path)
	}
	if err := requireDevice(ctx, globals); err != nil {
		return err
	}

	// Device-side logs from during the run are the "why" behind a failure.
	collector := logstream.NewCollector(globals.Platform().LogStream())
	var logs flows.LogSource
	if err := collector.Start(); err != nil {
		globals.Debug("log collector unavailable: %v", err)
	} else {
		logs = collector
		defer collector.Stop()
	}

	runner := newFlowRunner(globals)
	return runner.Flow(ctx, c.Path, logs)
}

// SmokeCmd runs every .yaml flow in a directory.
type SmokeCmd struct {
	Dir    string `arg:"" help:"Directory of *.yaml flows"`
	Resume bool   `help:"Skip flows that already passed"`
}

// Run executes the smoke command
func (c *SmokeCmd) Run(globals *Globals) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := requireDevice(ctx, globals); err != nil {
		return err
	}

	_, err := newFlowRunner(globals).Smoke(ctx, c.Dir, c.Resume)
	return err
}

func newFlowRunner(globals *Globals) *flows.Runner {
	store := flows.NewStore(globals.Config.ProgressFile())
	return flows.NewRunner(globals.Platform(), globals.Config, store, globals.Printer())
}

// ProgressCmd shows or clears the recorded flow history.
type ProgressCmd struct {
	Clear bool `help:"Delete the recorded history"`
}

// Run executes the progress command
func (c *ProgressCmd) Run(globals *Globals) error {
	store := flows.NewStore(globals.Config.ProgressFile())

	if c.Clear {
		existed, err := store.Clear()
		if err != nil {
			return err
		}
		if existed {
			globals.Printer().Println("Progress cleared.")
		} else {
			globals.Printer().Println("No progress to clear.")
		}
		return nil
	}

	history := store.Load()
	if len(history.Flows) == 0 {
		globals.Printer().Println("No flows recorded.")
		return nil
	}
	if globals.Printer().JSON() {
		return globals.Printer().Raw(history)
	}

	names := make([]string, 0, len(history.Flows))
	for name := range history.Flows {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		result := history.Flows[name]
		icon := "✓"
		if !result.Passed {
			icon = "✗"
		}
		globals.Printer().Printf("%s %s\n", icon, name)
		if result.Error != "" {
			globals.Printer().Printf("    %.80s\n", result.Error)
		}
	}
	return nil
}

// LastErrorCmd shows the most recent flow failure.
type LastErrorCmd struct{}

type lastErrorOutput struct {
	Type       string `json:"type"`
	Flow       string `json:"flow"`
	Error      string `json:"error,omitempty"`
	Timestamp  string `json:"timestamp"`
	Screenshot string `json:"screenshot,omitempty"`
}

// Run executes the last-error command
func (c *LastErrorCmd) Run(globals *Globals) error {
	history := flows.NewStore(globals.Config.ProgressFile()).Load()
	name, result, ok := history.LatestFailure()
	if !ok {
		globals.Printer().Println("No failures recorded.")
		return nil
	}

	shot := filepath.Join(os.TempDir(), "tether-failure.png")
	haveShot := false
	if _, err := os.Stat(shot); err == nil {
		haveShot = true
	}

	if globals.Printer().JSON() {
		out := lastErrorOutput{
			Type:      "last_error",
			Flow:      name,
			Error:     result.Error,
			Timestamp: result.Timestamp,
		}
		if haveShot {
			out.Screenshot = shot
		}
		return globals.Printer().Raw(out)
	}

	globals.Printer().Printf("Flow: %s\n", name)
	errMsg := result.Error
	if errMsg == "" {
		errMsg = "unknown"
	}
	globals.Printer().Printf("Error: %s\n", errMsg)
	globals.Printer().Printf("Time: %s\n", result.Timestamp)
	if haveShot {
		globals.Printer().Printf("Screenshot: %s\n", shot)
	}
	return nil
}
