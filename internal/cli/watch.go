package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devtether/tether/internal/domain"
	"github.com/devtether/tether/internal/logstream"
	"github.com/devtether/tether/internal/watch"
)

// WatchCmd runs the capture loop: one snapshot per settled UI change.
type WatchCmd struct {
	Timeout  time.Duration `help:"Stop after this long (default: run until interrupted)"`
	Debounce time.Duration `default:"1s" help:"Quiet period before a change counts as settled"`
}

// Run executes the watch command
func (c *WatchCmd) Run(globals *Globals) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := requireDevice(ctx, globals); err != nil {
		return err
	}

	// Each session starts from an empty directory so snapshot numbers and
	// the manifest always describe a single run.
	dir := globals.Config.WatchDir
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clear watch dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create watch dir: %w", err)
	}

	collector := logstream.NewCollector(globals.Platform().LogStream())
	if err := collector.Start(); err != nil {
		globals.Printer().Warnf("log collector unavailable: %v", err)
	}
	defer collector.Stop()

	out := globals.Printer()
	out.Statusf("watching for UI changes...")
	if c.Timeout > 0 {
		out.Statusf("timeout: %s", c.Timeout)
	}
	out.Statusf("debounce: %s", c.Debounce)

	capturer := watch.NewCapturer(globals.Platform(), collector, dir, out)
	watcher := watch.NewWatcher(globals.Platform(), capturer, out, watch.Options{
		Timeout:  c.Timeout,
		Debounce: c.Debounce,
	})

	err := watcher.Run(ctx)
	if errors.Is(err, context.Canceled) {
		out.Statusf("stopped")
		err = nil
	}
	if err != nil {
		return outputError(globals, domain.ErrEventStream, err.Error())
	}
	out.Statusf("session: %s", capturer.Manifest().Path())
	return nil
}
