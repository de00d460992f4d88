package device

import (
	"context"
	"io"

	"github.com/devtether/tether/internal/config"
	"github.com/devtether/tether/internal/domain"
	"github.com/devtether/tether/internal/elements"
	"github.com/devtether/tether/internal/logstream"
)

// Platform is the capability set the commands and the watch loop depend on.
// Two implementations exist, one per target OS; nothing above this interface
// knows which one is active.
type Platform interface {
	// Name returns "android" or "ios".
	Name() string

	// Probe checks whether a device or simulator is up. Cheap, no side
	// effects.
	Probe(ctx context.Context) domain.CheckResult

	// Boot starts the device and blocks until it is responsive or the boot
	// timeout passes.
	Boot(ctx context.Context) error

	// Screenshot captures the screen to path.
	Screenshot(ctx context.Context, path string) error

	// DumpTree returns the raw accessibility tree, or "" when the dump
	// failed. Dump failures are degraded, not fatal.
	DumpTree(ctx context.Context) string

	// ParseTree normalizes a raw tree into the common element schema.
	ParseTree(raw string, assignRefs bool) []domain.Element

	// LogStream describes the platform's log collector subprocess.
	LogStream() logstream.Options

	// EventStream returns the UI event subprocess argv, or ok=false when
	// the platform has no event stream and the watch loop must poll.
	EventStream() (argv []string, ok bool)

	// RecentLogs returns a one-shot block of recent raw log output.
	RecentLogs(ctx context.Context, lines int) string

	// RunChecks runs the doctor health checks, optionally fixing what it
	// can (starting servers, booting devices).
	RunChecks(ctx context.Context, fix bool) *domain.Report

	// ListApps enumerates installed third-party applications.
	ListApps(ctx context.Context) ([]domain.AppInfo, error)
}

// New selects the platform adapter for the configured target. diag receives
// human diagnostics (boot progress) and is normally stderr.
func New(cfg *config.Config, diag io.Writer) Platform {
	filters := elements.DefaultFilterConfig().WithOverrides(
		cfg.Elements.NoiseClasses,
		cfg.Elements.SystemResourceIDs,
		cfg.Elements.NoiseRoles,
	)
	if cfg.Platform == "ios" {
		return &applePlatform{cfg: cfg, filters: filters, diag: diag}
	}
	return &androidPlatform{cfg: cfg, filters: filters, diag: diag}
}
