package logstream

import (
	"regexp"
	"strings"

	"github.com/devtether/tether/internal/domain"
)

// Rules holds the per-platform interest patterns and severity classifiers.
// A line enters the buffer only when it matches an interest pattern (or
// contains the app identifier); matching lines are then classified as crash,
// error, or info.
type Rules struct {
	Interest []*regexp.Regexp
	Crash    *regexp.Regexp
	Error    *regexp.Regexp
}

// AndroidRules returns the logcat filter and severity rules.
func AndroidRules() Rules {
	return Rules{
		Interest: []*regexp.Regexp{
			regexp.MustCompile(`(?i)ReactNativeJS`),
			regexp.MustCompile(`(?i)FATAL|ANR|CRASH`),
			regexp.MustCompile(`(?i)AndroidRuntime.*Exception`),
			regexp.MustCompile(`(?i)maestro`),
			regexp.MustCompile(`(?i)E/\S+\s*:\s*(?:Error|Exception|Fatal|Crash)`),
		},
		Crash: regexp.MustCompile(`(?i)FATAL|ANR|CRASH|AndroidRuntime`),
		Error: regexp.MustCompile(`(?i)Error|Exception|E/`),
	}
}

// AppleRules returns the unified-log filter and severity rules for the
// simulator log stream. The stream is already narrowed by an NSPredicate, so
// every line is of interest.
func AppleRules() Rules {
	return Rules{
		Crash: regexp.MustCompile(`(?i)fault|crash|SIGABRT|EXC_BAD_ACCESS`),
		Error: regexp.MustCompile(`(?i)error|exception`),
	}
}

// Matches reports whether a line should be buffered at all. An empty
// interest set matches every line.
func (r Rules) Matches(line, appID string) bool {
	if len(r.Interest) == 0 {
		return true
	}
	if appID != "" && strings.Contains(line, appID) {
		return true
	}
	for _, p := range r.Interest {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// Classify maps a matching line to a severity.
func (r Rules) Classify(line string) domain.Severity {
	if r.Crash != nil && r.Crash.MatchString(line) {
		return domain.SeverityCrash
	}
	if r.Error != nil && r.Error.MatchString(line) {
		return domain.SeverityError
	}
	return domain.SeverityInfo
}
