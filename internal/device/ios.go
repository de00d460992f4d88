package device

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"howett.net/plist"

	"github.com/devtether/tether/internal/config"
	"github.com/devtether/tether/internal/domain"
	"github.com/devtether/tether/internal/elements"
	"github.com/devtether/tether/internal/logstream"
)

// applePlatform drives a simulator through xcrun simctl, with axe for
// accessibility capture.
type applePlatform struct {
	cfg     *config.Config
	filters elements.FilterConfig
	diag    io.Writer
}

func (p *applePlatform) Name() string { return "ios" }

func (p *applePlatform) simID() string {
	return p.cfg.SimulatorID()
}

// resolveBootedUDID maps the "booted" alias to a concrete UDID, which axe
// requires.
func (p *applePlatform) resolveBootedUDID(ctx context.Context) string {
	res := Run(ctx, 5*time.Second, "xcrun", "simctl", "list", "devices", "booted", "-j")
	if !res.OK() {
		return ""
	}
	udid := ""
	gjson.Get(res.Stdout, "devices").ForEach(func(_, devices gjson.Result) bool {
		devices.ForEach(func(_, dev gjson.Result) bool {
			if dev.Get("state").String() == "Booted" {
				udid = dev.Get("udid").String()
				return false
			}
			return true
		})
		return udid == ""
	})
	return udid
}

func (p *applePlatform) Probe(ctx context.Context) domain.CheckResult {
	start := time.Now()
	res := Run(ctx, 5*time.Second, "xcrun", "simctl", "list", "devices", "booted")
	ms := time.Since(start).Milliseconds()
	if !res.OK() {
		return domain.CheckResult{Name: "simulator running", Message: "simctl failed", DurationMs: ms, Critical: true}
	}
	sim := p.simID()
	if sim == "booted" {
		if strings.Contains(res.Stdout, "Booted") {
			return domain.CheckResult{Name: "simulator running", Passed: true, Message: "yes", DurationMs: ms, Critical: true}
		}
	} else {
		for _, line := range strings.Split(res.Stdout, "\n") {
			if strings.Contains(line, sim) && strings.Contains(line, "Booted") {
				return domain.CheckResult{Name: "simulator running", Passed: true, Message: sim, DurationMs: ms, Critical: true}
			}
		}
	}
	return domain.CheckResult{Name: "simulator running", Message: "not running", DurationMs: ms, Critical: true}
}

func (p *applePlatform) Boot(ctx context.Context) error {
	sim := p.simID()
	if sim == "booted" {
		return fmt.Errorf("no simulator specified. Set 'simulator' in tether.yaml or TETHER_SIMULATOR")
	}
	fmt.Fprintf(p.diag, "Booting %s...\n", sim)

	bootTimeout := time.Duration(p.cfg.Timeouts.Boot) * time.Second
	res := Run(ctx, bootTimeout, "xcrun", "simctl", "boot", sim)
	if !res.OK() && !strings.Contains(res.Stderr, "current state: Booted") {
		return fmt.Errorf("boot failed: %s", firstWords(res.Stderr, "unknown error"))
	}

	start := time.Now()
	deadline := start.Add(bootTimeout)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res := Run(ctx, 5*time.Second, "xcrun", "simctl", "spawn", sim, "launchctl", "print", "system")
		if res.OK() {
			fmt.Fprintf(p.diag, "Booted in %dms\n", time.Since(start).Milliseconds())
			return nil
		}
		time.Sleep(2 * time.Second)
	}
	return fmt.Errorf("boot timeout after %ds", p.cfg.Timeouts.Boot)
}

// Screenshot prefers axe (consistent with the element dump), falling back
// to simctl.
func (p *applePlatform) Screenshot(ctx context.Context, path string) error {
	timeout := time.Duration(p.cfg.Timeouts.Screenshot) * time.Second
	sim := p.simID()

	if _, err := exec.LookPath("axe"); err == nil {
		udid := sim
		if udid == "booted" {
			udid = p.resolveBootedUDID(ctx)
		}
		if udid != "" {
			res := Run(ctx, timeout, "axe", "screenshot", "--output", path, "--udid", udid)
			if res.OK() && fileLargerThan(path, 1000) {
				return nil
			}
		}
	}

	res := Run(ctx, timeout, "xcrun", "simctl", "io", sim, "screenshot", path)
	if res.OK() && fileLargerThan(path, 1000) {
		return nil
	}
	return fmt.Errorf("screenshot failed")
}

func (p *applePlatform) DumpTree(ctx context.Context) string {
	if _, err := exec.LookPath("axe"); err != nil {
		return ""
	}
	udid := p.simID()
	if udid == "booted" {
		udid = p.resolveBootedUDID(ctx)
	}
	if udid == "" {
		return ""
	}
	res := Run(ctx, 10*time.Second, "axe", "describe-ui", "--udid", udid)
	if !res.OK() {
		return ""
	}
	return res.Stdout
}

func (p *applePlatform) ParseTree(raw string, assignRefs bool) []domain.Element {
	return elements.NormalizeApple(raw, assignRefs, p.filters)
}

// LogStream tails the unified log, narrowed at the source by an NSPredicate
// so the stream itself is cheap.
func (p *applePlatform) LogStream() logstream.Options {
	predicate := `subsystem == "com.apple.UIKit" OR ` +
		`messageType == 21 OR ` +
		`subsystem CONTAINS "ReactNative" OR ` +
		`process == "maestro"`
	if p.cfg.AppID != "" {
		predicate += fmt.Sprintf(` OR (processImagePath CONTAINS "%s" AND messageType >= 16)`, p.cfg.AppID)
	}
	return logstream.Options{
		Command: []string{
			"xcrun", "simctl", "spawn", p.simID(), "log", "stream",
			"--style", "compact", "--predicate", predicate,
		},
		SkipPrefixes: []string{"Filtering the log data"},
		Rules:        logstream.AppleRules(),
		AppID:        p.cfg.AppID,
		MaxLines:     p.cfg.Logs.MaxLines,
	}
}

// EventStream reports no stream: the simulator has no uiautomator
// equivalent, so the watch loop polls.
func (p *applePlatform) EventStream() ([]string, bool) {
	return nil, false
}

func (p *applePlatform) RecentLogs(ctx context.Context, _ int) string {
	res := Run(ctx, 20*time.Second,
		"xcrun", "simctl", "spawn", p.simID(), "log", "show", "--style", "compact", "--last", "30s")
	if !res.OK() {
		return ""
	}
	return res.Stdout
}

// simctlApp is the per-bundle record in simctl listapps plist output.
type simctlApp struct {
	BundleID    string `plist:"CFBundleIdentifier"`
	Name        string `plist:"CFBundleName"`
	DisplayName string `plist:"CFBundleDisplayName"`
	Type        string `plist:"ApplicationType"`
}

// ListApps enumerates user-installed apps. simctl emits an old-style plist
// dictionary keyed by bundle identifier.
func (p *applePlatform) ListApps(ctx context.Context) ([]domain.AppInfo, error) {
	res := Run(ctx, 10*time.Second, "xcrun", "simctl", "listapps", p.simID())
	if !res.OK() {
		return nil, fmt.Errorf("simctl listapps failed: %s", firstWords(res.Stderr, "unknown error"))
	}

	var byBundle map[string]simctlApp
	if _, err := plist.Unmarshal([]byte(res.Stdout), &byBundle); err != nil {
		return nil, fmt.Errorf("parse listapps output: %w", err)
	}

	var apps []domain.AppInfo
	for bundleID, app := range byBundle {
		if app.Type != "User" {
			continue
		}
		name := app.DisplayName
		if name == "" {
			name = app.Name
		}
		apps = append(apps, domain.AppInfo{Identifier: bundleID, Name: name})
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].Identifier < apps[j].Identifier })
	return apps, nil
}

func (p *applePlatform) RunChecks(ctx context.Context, fix bool) *domain.Report {
	report := &domain.Report{}

	xcrunCheck := checkBinary("xcrun simctl", "xcrun")
	if !xcrunCheck.Passed {
		xcrunCheck.Message = "Xcode tools not installed"
		report.Add(xcrunCheck)
		return report
	}
	report.Add(xcrunCheck)

	axeCheck := checkBinary("axe installed", "axe")
	if !axeCheck.Passed {
		axeCheck.Message = "not found. Install: brew install cameroncooke/axe/axe"
	}
	report.Add(axeCheck)

	report.Add(checkMaestro(ctx))

	simCheck := p.Probe(ctx)
	if !simCheck.Passed && fix {
		if err := p.Boot(ctx); err != nil {
			fmt.Fprintf(p.diag, "boot failed: %v\n", err)
		}
		simCheck = p.Probe(ctx)
	}
	report.Add(simCheck)

	if simCheck.Passed {
		report.Add(p.checkScreenshot(ctx))
		report.Add(p.checkElementDump(ctx, axeCheck.Passed))
	}
	return report
}

func (p *applePlatform) checkScreenshot(ctx context.Context) domain.CheckResult {
	start := time.Now()
	testPath := filepath.Join(os.TempDir(), "tether-test-screenshot.png")
	err := p.Screenshot(ctx, testPath)
	ms := time.Since(start).Milliseconds()
	if err == nil {
		info, statErr := os.Stat(testPath)
		size := int64(0)
		if statErr == nil {
			size = info.Size()
		}
		_ = os.Remove(testPath)
		return domain.CheckResult{Name: "screenshot", Passed: true, Message: fmt.Sprintf("%d bytes", size), DurationMs: ms, Critical: true}
	}
	return domain.CheckResult{Name: "screenshot", Message: "capture failed", DurationMs: ms, Critical: true}
}

func (p *applePlatform) checkElementDump(ctx context.Context, axeInstalled bool) domain.CheckResult {
	if !axeInstalled {
		return domain.CheckResult{Name: "element dump", Message: "axe not installed (non-critical)"}
	}
	start := time.Now()
	raw := p.DumpTree(ctx)
	ms := time.Since(start).Milliseconds()
	if raw != "" {
		return domain.CheckResult{Name: "element dump", Passed: true, Message: "works (axe)", DurationMs: ms}
	}
	return domain.CheckResult{Name: "element dump", Message: "axe describe-ui failed", DurationMs: ms}
}

// fileLargerThan reports whether path exists with more than n bytes.
// Screenshot tools sometimes exit zero after writing a stub file.
func fileLargerThan(path string, n int64) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > n
}
