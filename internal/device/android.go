package device

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/devtether/tether/internal/config"
	"github.com/devtether/tether/internal/domain"
	"github.com/devtether/tether/internal/elements"
	"github.com/devtether/tether/internal/logstream"
)

const uiDumpPath = "/sdcard/ui.xml"

// androidPlatform drives an emulator through adb and uiautomator.
type androidPlatform struct {
	cfg     *config.Config
	filters elements.FilterConfig
	diag    io.Writer
}

func (p *androidPlatform) Name() string { return "android" }

func (p *androidPlatform) defaultTimeout() time.Duration {
	return time.Duration(p.cfg.Timeouts.Default) * time.Second
}

// Probe looks for an online emulator in the adb device table.
func (p *androidPlatform) Probe(ctx context.Context) domain.CheckResult {
	start := time.Now()
	res := Run(ctx, 5*time.Second, "adb", "devices")
	ms := time.Since(start).Milliseconds()
	if !res.OK() {
		return domain.CheckResult{Name: "emulator running", Message: "adb failed", DurationMs: ms, Critical: true}
	}
	lines := strings.Split(strings.TrimSpace(res.Stdout), "\n")
	for _, line := range lines[1:] {
		if strings.Contains(line, "emulator") && strings.Contains(line, "device") {
			return domain.CheckResult{Name: "emulator running", Passed: true, Message: "yes", DurationMs: ms, Critical: true}
		}
	}
	return domain.CheckResult{Name: "emulator running", Message: "not running", DurationMs: ms, Critical: true}
}

// Boot launches the emulator headless and polls until Android reports boot
// completion.
func (p *androidPlatform) Boot(ctx context.Context) error {
	fmt.Fprintf(p.diag, "Booting %s...\n", p.cfg.AVD)
	cmd := exec.Command(p.cfg.EmulatorBin(),
		"-avd", p.cfg.AVD, "-no-snapshot-load", "-no-audio", "-no-window")
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start emulator: %w", err)
	}
	// The emulator process outlives us; reap it if it exits first.
	go func() { _ = cmd.Wait() }()

	start := time.Now()
	deadline := start.Add(time.Duration(p.cfg.Timeouts.Boot) * time.Second)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res := Run(ctx, 5*time.Second, "adb", "shell", "getprop", "sys.boot_completed")
		if res.OK() && strings.Contains(res.Stdout, "1") {
			fmt.Fprintf(p.diag, "Booted in %dms\n", time.Since(start).Milliseconds())
			return nil
		}
		time.Sleep(2 * time.Second)
	}
	return fmt.Errorf("boot timeout after %ds", p.cfg.Timeouts.Boot)
}

// Screenshot captures via exec-out so no file round-trips through the
// device filesystem. Tiny payloads mean the surfaceflinger capture failed
// even when adb exits zero.
func (p *androidPlatform) Screenshot(ctx context.Context, path string) error {
	timeout := time.Duration(p.cfg.Timeouts.Screenshot) * time.Second
	data, code := RunBytes(ctx, timeout, "adb", "exec-out", "screencap", "-p")
	if code != 0 || len(data) <= 1000 {
		return fmt.Errorf("screencap failed")
	}
	return os.WriteFile(path, data, 0o644)
}

func (p *androidPlatform) DumpTree(ctx context.Context) string {
	Run(ctx, 10*time.Second, "adb", "shell", "uiautomator", "dump", uiDumpPath)
	res := Run(ctx, 5*time.Second, "adb", "shell", "cat", uiDumpPath)
	if !res.OK() {
		return ""
	}
	return res.Stdout
}

func (p *androidPlatform) ParseTree(raw string, assignRefs bool) []domain.Element {
	return elements.NormalizeAndroid(raw, assignRefs, p.filters)
}

// LogStream tails logcat, clearing the backlog first so only lines from
// this session enter the buffer.
func (p *androidPlatform) LogStream() logstream.Options {
	return logstream.Options{
		Command:  []string{"adb", "logcat", "-v", "time"},
		Prestart: [][]string{{"adb", "logcat", "-c"}},
		Rules:    logstream.AndroidRules(),
		AppID:    p.cfg.AppID,
		MaxLines: p.cfg.Logs.MaxLines,
	}
}

func (p *androidPlatform) EventStream() ([]string, bool) {
	return []string{"adb", "shell", "uiautomator", "events"}, true
}

func (p *androidPlatform) RecentLogs(ctx context.Context, lines int) string {
	res := Run(ctx, 10*time.Second,
		"adb", "logcat", "-d", "-v", "time", "-t", strconv.Itoa(lines*10))
	if !res.OK() {
		return ""
	}
	return res.Stdout
}

// ListApps enumerates third-party packages.
func (p *androidPlatform) ListApps(ctx context.Context) ([]domain.AppInfo, error) {
	res := Run(ctx, p.defaultTimeout(), "adb", "shell", "pm", "list", "packages", "-3")
	if !res.OK() {
		return nil, fmt.Errorf("pm list packages failed: %s", strings.TrimSpace(res.Stderr))
	}
	var apps []domain.AppInfo
	for _, line := range strings.Split(strings.TrimSpace(res.Stdout), "\n") {
		if pkg, ok := strings.CutPrefix(strings.TrimSpace(line), "package:"); ok && pkg != "" {
			apps = append(apps, domain.AppInfo{Identifier: pkg})
		}
	}
	return apps, nil
}

// RunChecks validates adb, the AVD, maestro, and the capture path. Later
// checks only run once the emulator is reachable.
func (p *androidPlatform) RunChecks(ctx context.Context, fix bool) *domain.Report {
	report := &domain.Report{}

	adbCheck := checkBinary("adb installed", "adb")
	report.Add(adbCheck)
	if !adbCheck.Passed {
		return report
	}

	serverCheck := p.checkAdbServer(ctx)
	if !serverCheck.Passed && fix {
		fmt.Fprintln(p.diag, "Starting adb server...")
		Run(ctx, 10*time.Second, "adb", "start-server")
		serverCheck = p.checkAdbServer(ctx)
	}
	report.Add(serverCheck)
	report.Add(p.checkAVDExists(ctx))
	report.Add(checkMaestro(ctx))

	emuCheck := p.Probe(ctx)
	if !emuCheck.Passed && fix {
		if err := p.Boot(ctx); err != nil {
			fmt.Fprintf(p.diag, "boot failed: %v\n", err)
		}
		emuCheck = p.Probe(ctx)
	}
	report.Add(emuCheck)

	if emuCheck.Passed {
		report.Add(p.checkShell(ctx))
		report.Add(p.checkScreenshot(ctx))
		report.Add(p.checkUIDump(ctx))
	}
	return report
}

func (p *androidPlatform) checkAdbServer(ctx context.Context) domain.CheckResult {
	start := time.Now()
	res := Run(ctx, 5*time.Second, "adb", "devices")
	ms := time.Since(start).Milliseconds()
	if res.OK() {
		return domain.CheckResult{Name: "adb server", Passed: true, Message: "running", DurationMs: ms, Critical: true}
	}
	return domain.CheckResult{Name: "adb server", Message: firstWords(res.Stderr, "failed"), DurationMs: ms, Critical: true}
}

func (p *androidPlatform) checkAVDExists(ctx context.Context) domain.CheckResult {
	start := time.Now()
	res := Run(ctx, 10*time.Second, p.cfg.EmulatorBin(), "-list-avds")
	ms := time.Since(start).Milliseconds()
	if !res.OK() {
		return domain.CheckResult{Name: "avd exists", Message: "emulator command failed", DurationMs: ms, Critical: true}
	}
	var avds []string
	for _, line := range strings.Split(strings.TrimSpace(res.Stdout), "\n") {
		if s := strings.TrimSpace(line); s != "" {
			avds = append(avds, s)
		}
	}
	for _, avd := range avds {
		if avd == p.cfg.AVD {
			return domain.CheckResult{Name: "avd exists", Passed: true, Message: p.cfg.AVD, DurationMs: ms, Critical: true}
		}
	}
	return domain.CheckResult{
		Name:       "avd exists",
		Message:    fmt.Sprintf("%s not found. Available: %v", p.cfg.AVD, avds),
		DurationMs: ms,
		Critical:   true,
	}
}

func (p *androidPlatform) checkShell(ctx context.Context) domain.CheckResult {
	start := time.Now()
	res := Run(ctx, 5*time.Second, "adb", "shell", "echo", "ok")
	ms := time.Since(start).Milliseconds()
	if res.OK() && strings.Contains(res.Stdout, "ok") {
		return domain.CheckResult{Name: "adb connection", Passed: true, Message: "connected", DurationMs: ms, Critical: true}
	}
	return domain.CheckResult{Name: "adb connection", Message: firstWords(res.Stderr, "failed"), DurationMs: ms, Critical: true}
}

func (p *androidPlatform) checkScreenshot(ctx context.Context) domain.CheckResult {
	start := time.Now()
	timeout := time.Duration(p.cfg.Timeouts.Screenshot) * time.Second
	data, code := RunBytes(ctx, timeout, "adb", "exec-out", "screencap", "-p")
	ms := time.Since(start).Milliseconds()
	if code == 0 && len(data) > 1000 {
		return domain.CheckResult{Name: "screenshot", Passed: true, Message: fmt.Sprintf("%d bytes", len(data)), DurationMs: ms, Critical: true}
	}
	return domain.CheckResult{Name: "screenshot", Message: "capture failed", DurationMs: ms, Critical: true}
}

// checkUIDump is non-critical: screenshots are the primary capture and
// uiautomator hangs on some Android versions.
func (p *androidPlatform) checkUIDump(ctx context.Context) domain.CheckResult {
	start := time.Now()
	res := Run(ctx, 5*time.Second, "adb", "shell", "uiautomator", "dump", uiDumpPath)
	if !res.OK() {
		return domain.CheckResult{Name: "ui dump", Message: "timeout (non-critical)", DurationMs: time.Since(start).Milliseconds()}
	}
	res = Run(ctx, 3*time.Second, "adb", "shell", "cat", uiDumpPath)
	ms := time.Since(start).Milliseconds()
	if res.OK() && strings.Contains(res.Stdout, "hierarchy") {
		return domain.CheckResult{Name: "ui dump", Passed: true, Message: "works", DurationMs: ms}
	}
	return domain.CheckResult{Name: "ui dump", Message: "dump failed (non-critical)", DurationMs: ms}
}
