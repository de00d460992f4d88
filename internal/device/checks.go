package device

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/devtether/tether/internal/domain"
)

var versionRe = regexp.MustCompile(`\d+\.\d+`)

// checkBinary verifies a tool is on PATH.
func checkBinary(name, binary string) domain.CheckResult {
	start := time.Now()
	path, err := exec.LookPath(binary)
	ms := time.Since(start).Milliseconds()
	if err != nil {
		return domain.CheckResult{Name: name, Message: "not found in PATH", DurationMs: ms, Critical: true}
	}
	return domain.CheckResult{Name: name, Passed: true, Message: path, DurationMs: ms, Critical: true}
}

// checkMaestro probes the flow runner. Maestro writes its version to either
// stream and sometimes exits non-zero while healthy, so the version string
// is the real signal.
func checkMaestro(ctx context.Context) domain.CheckResult {
	start := time.Now()
	path, err := exec.LookPath("maestro")
	if err != nil {
		return domain.CheckResult{Name: "maestro installed", Message: "not found in PATH", DurationMs: time.Since(start).Milliseconds(), Critical: true}
	}
	res := Run(ctx, 30*time.Second, "maestro", "--version")
	ms := time.Since(start).Milliseconds()
	combined := strings.TrimSpace(res.Stdout + res.Stderr)
	for _, line := range strings.Split(combined, "\n") {
		if versionRe.MatchString(line) {
			return domain.CheckResult{Name: "maestro installed", Passed: true, Message: strings.TrimSpace(line), DurationMs: ms, Critical: true}
		}
	}
	if res.OK() {
		return domain.CheckResult{Name: "maestro installed", Passed: true, Message: path, DurationMs: ms, Critical: true}
	}
	return domain.CheckResult{Name: "maestro installed", Message: "version check failed", DurationMs: ms, Critical: true}
}

// firstWords trims a diagnostic string for one-line check messages.
func firstWords(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}
