package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/devtether/tether/internal/domain"
	"github.com/devtether/tether/internal/logstream"
)

// LogsCmd shows filtered device logs, one-shot or streaming.
type LogsCmd struct {
	Lines  int  `default:"50" help:"Number of recent lines to scan"`
	Follow bool `help:"Stream logs continuously until interrupted"`
}

// Run executes the logs command
func (c *LogsCmd) Run(globals *Globals) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := requireDevice(ctx, globals); err != nil {
		return err
	}

	if c.Follow {
		return c.follow(ctx, globals)
	}

	raw := globals.Platform().RecentLogs(ctx, c.Lines)
	if raw == "" {
		return outputError(globals, domain.ErrLogsFailed, "log retrieval failed")
	}

	// One-shot dumps bypass the collector, so apply the same interest and
	// severity rules here.
	opts := globals.Platform().LogStream()
	var entries []domain.LogEntry
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		if line == "" || !opts.Rules.Matches(line, opts.AppID) {
			continue
		}
		entries = append(entries, domain.LogEntry{
			Line:     line,
			Severity: opts.Rules.Classify(line),
		})
	}
	globals.Printer().LogEntries(entries)
	return nil
}

func (c *LogsCmd) follow(ctx context.Context, globals *Globals) error {
	collector := logstream.NewCollector(globals.Platform().LogStream())
	if err := collector.Start(); err != nil {
		return outputError(globals, domain.ErrLogsFailed, err.Error())
	}
	defer collector.Stop()

	globals.Printer().Statusf("streaming logs (Ctrl+C to stop)...")

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			globals.Printer().LogEntries(collector.Drain())
			globals.Printer().Statusf("stopped")
			return nil
		case <-ticker.C:
			globals.Printer().LogEntries(collector.Drain())
		}
	}
}
