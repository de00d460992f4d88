package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/devtether/tether/internal/domain"
)

// StatusCmd shows platform and device state, optimized for speed.
type StatusCmd struct{}

type statusOutput struct {
	Type     string `json:"type"`
	Platform string `json:"platform"`
	Target   string `json:"target"`
	Running  bool   `json:"running"`
}

// Run executes the status command
func (c *StatusCmd) Run(globals *Globals) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	check := globals.Platform().Probe(ctx)
	cfg := globals.Config

	target := cfg.AVD
	if cfg.Platform == "ios" {
		target = cfg.SimulatorID()
	}

	if globals.Printer().JSON() {
		return globals.Printer().Raw(statusOutput{
			Type:     "status",
			Platform: cfg.Platform,
			Target:   target,
			Running:  check.Passed,
		})
	}

	if cfg.Platform == "ios" {
		globals.Printer().Printf("Platform: ios\n")
		globals.Printer().Printf("Simulator: %s\n", target)
	} else {
		globals.Printer().Printf("AVD: %s\n", target)
	}
	state := "stopped"
	if check.Passed {
		state = "running"
	}
	globals.Printer().Printf("Device: %s\n", state)
	return nil
}

// BootCmd ensures the device is running.
type BootCmd struct{}

// Run executes the boot command
func (c *BootCmd) Run(globals *Globals) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if globals.Platform().Probe(ctx).Passed {
		globals.Printer().Println("Device already running.")
		return nil
	}
	if err := globals.Platform().Boot(ctx); err != nil {
		return outputError(globals, domain.ErrBootFailed, err.Error())
	}
	return nil
}

// ScreenCmd takes a screenshot.
type ScreenCmd struct {
	Path string `arg:"" optional:"" help:"Output path (default: tether-screen.png under the temp dir)"`
}

type screenshotOutput struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

// Run executes the screen command
func (c *ScreenCmd) Run(globals *Globals) error {
	timeout := time.Duration(globals.Config.Timeouts.Screenshot+10) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := requireDevice(ctx, globals); err != nil {
		return err
	}

	path := c.Path
	if path == "" {
		path = filepath.Join(os.TempDir(), "tether-screen.png")
	}
	if err := globals.Platform().Screenshot(ctx, path); err != nil {
		return outputError(globals, domain.ErrScreenshotFailed, "Screenshot failed")
	}

	if globals.Printer().JSON() {
		return globals.Printer().Raw(screenshotOutput{Type: "screenshot", Path: path})
	}
	globals.Printer().Println(path)
	return nil
}
