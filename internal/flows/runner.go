package flows

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/devtether/tether/internal/config"
	"github.com/devtether/tether/internal/device"
	"github.com/devtether/tether/internal/domain"
	"github.com/devtether/tether/internal/output"
)

// LogSource hands over buffered log lines, used to attach device-side
// context to flow failures. Nil when no collector is running.
type LogSource interface {
	Drain() []domain.LogEntry
}

// Runner executes Maestro flows and records outcomes.
type Runner struct {
	plat  device.Platform
	cfg   *config.Config
	store *Store
	out   *output.Printer

	// exec is swapped out in tests; the default shells out to maestro.
	exec func(ctx context.Context, flowPath string) device.CmdResult
}

// NewRunner wires a flow runner for the active platform.
func NewRunner(plat device.Platform, cfg *config.Config, store *Store, out *output.Printer) *Runner {
	r := &Runner{plat: plat, cfg: cfg, store: store, out: out}
	r.exec = func(ctx context.Context, flowPath string) device.CmdResult {
		timeout := time.Duration(cfg.Timeouts.Flow) * time.Second
		return device.Run(ctx, timeout, "maestro", "test", "-p", plat.Name(), flowPath)
	}
	return r
}

// Flow runs a single flow file. On failure it prints the extracted error,
// the device-side crash and error context from logs, saves the failure
// artifacts, and returns an error.
func (r *Runner) Flow(ctx context.Context, flowPath string, logs LogSource) error {
	if logs != nil {
		logs.Drain() // only lines from during the run matter
	}

	r.out.Printf("Running: %s\n", flowPath)
	start := time.Now()
	res := r.exec(ctx, flowPath)
	ms := time.Since(start).Milliseconds()

	var entries []domain.LogEntry
	if logs != nil {
		entries = logs.Drain()
	}
	var crashes, errors []domain.LogEntry
	for _, e := range entries {
		switch e.Severity {
		case domain.SeverityCrash:
			crashes = append(crashes, e)
		case domain.SeverityError:
			errors = append(errors, e)
		}
	}

	if res.OK() {
		r.out.Printf("PASS (%dms)\n", ms)
		if len(crashes) > 0 {
			r.out.Printf("  WARNING: %d crash(es) in logs during run\n", len(crashes))
			for _, c := range firstN(crashes, 3) {
				r.out.Printf("    %s\n", truncate(c.Line, 120))
			}
		}
		return r.store.Record(flowPath, true, "")
	}

	r.out.Printf("FAIL (%dms)\n", ms)
	errorLine := extractErrorLine(res.Stdout + res.Stderr)
	if errorLine != "" {
		r.out.Printf("  %s\n", truncate(errorLine, 100))
	}
	if len(crashes) > 0 {
		r.out.Printf("  CRASHES (%d):\n", len(crashes))
		for _, c := range firstN(crashes, 5) {
			r.out.Printf("    %s\n", truncate(c.Line, 120))
		}
	}
	if len(errors) > 0 {
		r.out.Printf("  ERRORS (%d):\n", len(errors))
		for _, e := range lastN(errors, 5) {
			r.out.Printf("    %s\n", truncate(e.Line, 120))
		}
	}
	if len(entries) > 0 {
		logPath := filepath.Join(os.TempDir(), "tether-failure-logs.json")
		if data, err := json.MarshalIndent(entries, "", "  "); err == nil {
			if os.WriteFile(logPath, data, 0o644) == nil {
				r.out.Printf("  Logs: %s\n", logPath)
			}
		}
	}
	if err := r.store.Record(flowPath, false, errorLine); err != nil {
		return err
	}

	// Freeze the failure state for inspection.
	shotPath := filepath.Join(os.TempDir(), "tether-failure.png")
	if err := r.plat.Screenshot(ctx, shotPath); err == nil {
		r.out.Printf("  Screenshot: %s\n", shotPath)
	}

	return fmt.Errorf("flow failed: %s", flowPath)
}

// SmokeResult summarizes one smoke run.
type SmokeResult struct {
	Passed  int
	Failed  int
	Skipped int
}

// Smoke runs every .yaml flow in dir in name order. Failures do not stop
// the suite; with resume, flows that already passed are skipped.
func (r *Runner) Smoke(ctx context.Context, dir string, resume bool) (SmokeResult, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil || len(matches) == 0 {
		return SmokeResult{}, fmt.Errorf("no .yaml files in %s", dir)
	}
	sort.Strings(matches)

	var passedBefore map[string]bool
	if resume {
		passedBefore = r.store.Load().PassedSet()
	}

	var result SmokeResult
	for _, flow := range matches {
		if resume && passedBefore[flow] {
			r.out.Printf("SKIP %s (already passed)\n", flow)
			result.Skipped++
			continue
		}

		r.out.Printf("Running: %s\n", flow)
		start := time.Now()
		res := r.exec(ctx, flow)
		ms := time.Since(start).Milliseconds()

		if res.OK() {
			r.out.Printf("  PASS (%dms)\n", ms)
			_ = r.store.Record(flow, true, "")
			result.Passed++
			continue
		}

		r.out.Printf("  FAIL (%dms)\n", ms)
		errorLine := extractErrorLine(res.Stdout + res.Stderr)
		if errorLine != "" {
			r.out.Printf("    %s\n", truncate(errorLine, 100))
		}
		_ = r.store.Record(flow, false, errorLine)
		result.Failed++
	}

	total := result.Passed + result.Failed + result.Skipped
	r.out.Printf("\n%d passed, %d failed, %d skipped (of %d)\n",
		result.Passed, result.Failed, result.Skipped, total)

	if result.Failed > 0 {
		return result, fmt.Errorf("%d flow(s) failed", result.Failed)
	}
	return result, nil
}

// extractErrorLine pulls the first assertion or error line out of maestro
// output.
func extractErrorLine(combined string) string {
	for _, line := range strings.Split(combined, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "assert") || strings.Contains(lower, "error") || strings.Contains(lower, "failed") {
			return truncate(strings.TrimSpace(line), 200)
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func firstN(entries []domain.LogEntry, n int) []domain.LogEntry {
	if len(entries) > n {
		return entries[:n]
	}
	return entries
}

func lastN(entries []domain.LogEntry, n int) []domain.LogEntry {
	if len(entries) > n {
		return entries[len(entries)-n:]
	}
	return entries
}
