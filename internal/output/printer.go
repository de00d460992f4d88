package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/devtether/tether/internal/domain"
)

// Printer renders command results in the selected format. It is the single
// sink for session output: results on stdout, diagnostics on stderr.
type Printer struct {
	format string
	stdout io.Writer
	stderr io.Writer
	nd     *NDJSONWriter
}

// NewPrinter creates a printer for "text" or "json" output.
func NewPrinter(format string, stdout, stderr io.Writer) *Printer {
	return &Printer{
		format: format,
		stdout: stdout,
		stderr: stderr,
		nd:     NewNDJSONWriter(stdout),
	}
}

// JSON reports whether machine-readable output was requested.
func (p *Printer) JSON() bool {
	return p.format == "json"
}

// Snapshot prints one persisted watch snapshot.
func (p *Printer) Snapshot(entry domain.SnapshotEntry) {
	if p.JSON() {
		_ = p.nd.WriteSnapshot(entry)
		return
	}
	tab := ""
	if entry.SelectedTab != "" {
		tab = " [" + entry.SelectedTab + "]"
	}
	title := ""
	if entry.ScreenTitle != "" {
		title = " " + entry.ScreenTitle
	}
	fmt.Fprintf(p.stdout, "%s #%d (%s) %d elements%s%s\n",
		Styles.Timestamp.Render("["+time.Now().Format("15:04:05")+"]"),
		entry.Snapshot, entry.EventType, entry.ElementsCount, tab, title)
}

// Statusf prints a diagnostic line to stderr.
func (p *Printer) Statusf(format string, args ...any) {
	fmt.Fprintf(p.stderr, format+"\n", args...)
}

// Warnf prints a warning to stderr.
func (p *Printer) Warnf(format string, args ...any) {
	fmt.Fprintf(p.stderr, format+"\n", args...)
}

// Error prints a structured failure in the selected format.
func (p *Printer) Error(code, message string) {
	if p.JSON() {
		_ = p.nd.WriteError(code, message)
		return
	}
	fmt.Fprintf(p.stderr, "%s [%s]: %s\n", Styles.Danger.Render("Error"), code, message)
}

// Elements prints a normalized element list.
func (p *Printer) Elements(els []domain.Element) error {
	if p.JSON() {
		return writeIndented(p.stdout, els)
	}
	for _, el := range els {
		fmt.Fprintln(p.stdout, FormatElementLine(el))
	}
	return nil
}

// FormatElementLine renders one element as a compact selector-oriented line.
func FormatElementLine(el domain.Element) string {
	var parts []string
	switch {
	case el.Name != "":
		parts = append(parts, strconv.Quote(el.Name))
	case el.Text != "":
		parts = append(parts, strconv.Quote(el.Text))
	}
	if el.ID != "" {
		parts = append(parts, `id="`+el.ID+`"`)
	}
	if el.ResourceID != "" {
		parts = append(parts, "res="+el.ResourceID)
	}
	if len(parts) == 0 {
		if el.Type != "" {
			parts = append(parts, el.Type)
		} else {
			parts = append(parts, "element")
		}
	}

	var flags []string
	if el.Clickable {
		flags = append(flags, "clickable")
	}
	if el.Enabled != nil && !*el.Enabled {
		flags = append(flags, "DISABLED")
	}
	if el.Checked {
		flags = append(flags, "checked")
	}
	if el.Selected {
		flags = append(flags, "selected")
	}
	if el.Scrollable {
		flags = append(flags, "scrollable")
	}

	line := ""
	if el.Ref != "" {
		line = Styles.Ref.Render(fmt.Sprintf("%-5s", el.Ref)) + " "
	}
	line += strings.Join(parts, " ")
	if len(flags) > 0 {
		line += "  " + Styles.Flag.Render("["+strings.Join(flags, ", ")+"]")
	}
	return line
}

// LogEntries prints drained log lines with severity gutters.
func (p *Printer) LogEntries(entries []domain.LogEntry) {
	if p.JSON() {
		for _, e := range entries {
			_ = p.nd.WriteRaw(e)
		}
		return
	}
	for _, e := range entries {
		fmt.Fprintf(p.stdout, "%s %s\n", SeverityPrefix(string(e.Severity)), e.Line)
	}
}

// Report renders a doctor report: a table in text mode, one object in JSON
// mode.
func (p *Printer) Report(report *domain.Report) error {
	if p.JSON() {
		return writeIndented(p.stdout, report)
	}

	table := tablewriter.NewWriter(p.stdout)
	table.Header("", "Check", "Detail", "Time")
	for _, c := range report.Checks {
		_ = table.Append([]string{
			CheckIcon(c.Passed, c.Critical),
			c.Name,
			c.Message,
			fmt.Sprintf("%dms", c.DurationMs),
		})
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintln(p.stdout)
	switch {
	case report.AllPassed():
		fmt.Fprintln(p.stdout, Styles.Success.Render("All checks passed."))
	case report.CriticalPassed():
		fmt.Fprintf(p.stdout, "%s %s\n", Styles.Warning.Render("Warnings:"),
			strings.Join(report.Failed(false), ", "))
		fmt.Fprintln(p.stdout, "Core functionality ready.")
	default:
		fmt.Fprintf(p.stdout, "%s %s\n", Styles.Danger.Render("Failed:"),
			strings.Join(report.Failed(true), ", "))
	}
	return nil
}

// Raw prints any value as indented JSON regardless of format. Used by
// commands whose sole output is a JSON document (inspect).
func (p *Printer) Raw(v any) error {
	return writeIndented(p.stdout, v)
}

// Println prints a plain result line to stdout.
func (p *Printer) Println(args ...any) {
	fmt.Fprintln(p.stdout, args...)
}

// Printf prints a formatted result line to stdout.
func (p *Printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.stdout, format, args...)
}
