package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Styles holds all lipgloss styles for text output
var Styles = struct {
	Timestamp lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Danger    lipgloss.Style
	Ref       lipgloss.Style
	Flag      lipgloss.Style
}{
	Timestamp: lipgloss.NewStyle().Foreground(lipgloss.Color("244")), // Gray
	Label:     lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	Value:     lipgloss.NewStyle().Bold(true),
	Success:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),  // Green
	Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true), // Orange
	Danger:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true), // Red
	Ref:       lipgloss.NewStyle().Foreground(lipgloss.Color("39")),             // Cyan
	Flag:      lipgloss.NewStyle().Foreground(lipgloss.Color("142")),            // Yellow-green
}

// SetupColors disables styling when stdout is not a terminal or NO_COLOR is
// set, so piped output stays clean for agents and scripts.
func SetupColors() {
	if os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stdout.Fd()) {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// SeverityPrefix returns the gutter marker used in front of log lines.
func SeverityPrefix(severity string) string {
	switch severity {
	case "crash":
		return Styles.Danger.Render("!!!")
	case "error":
		return Styles.Warning.Render("ERR")
	default:
		return "   "
	}
}

// CheckIcon renders the doctor check status marker.
func CheckIcon(passed, critical bool) string {
	switch {
	case passed:
		return Styles.Success.Render("✓")
	case critical:
		return Styles.Danger.Render("✗")
	default:
		return Styles.Warning.Render("⚠")
	}
}
