package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/devtether/tether/internal/config"
	"github.com/devtether/tether/internal/device"
	"github.com/devtether/tether/internal/output"
)

// CLI is the root command structure for tether
type CLI struct {
	// Global flags
	Format   string `short:"f" default:"${config_format}" enum:"text,json" help:"Output format"`
	Platform string `short:"p" default:"${config_platform}" enum:"android,ios" help:"Target platform"`
	Quiet    bool   `short:"q" help:"Suppress status output on stderr"`
	Verbose  bool   `short:"v" help:"Show debug output (subprocess failures, internal state)"`

	// Commands
	Doctor    DoctorCmd    `cmd:"" help:"Check system requirements and device health"`
	Status    StatusCmd    `cmd:"" help:"Show platform and device state"`
	Boot      BootCmd      `cmd:"" help:"Boot the emulator or simulator if not running"`
	Screen    ScreenCmd    `cmd:"" help:"Take a screenshot"`
	Elements  ElementsCmd  `cmd:"" help:"Dump the normalized UI element list"`
	Inspect   InspectCmd   `cmd:"" help:"Screenshot + elements + logs as one JSON observation"`
	Logs      LogsCmd      `cmd:"" help:"Show filtered device logs"`
	Watch     WatchCmd     `cmd:"" help:"Capture a snapshot whenever the UI settles"`
	Flow      FlowCmd      `cmd:"" help:"Run a single Maestro flow with log capture"`
	Smoke     SmokeCmd     `cmd:"" help:"Run every flow in a directory"`
	Progress  ProgressCmd  `cmd:"" help:"Show recorded flow results"`
	LastError LastErrorCmd `cmd:"" name:"last-error" help:"Show the most recent flow failure"`
	Apps      AppsCmd      `cmd:"" help:"List installed apps"`
	Version   VersionCmd   `cmd:"" help:"Show version information"`
}

// Globals holds shared state for all commands
type Globals struct {
	Format  string
	Quiet   bool
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
	Config  *config.Config

	plat device.Platform
	out  *output.Printer
}

// NewGlobals creates a new Globals instance from CLI flags with config
// fallbacks. Flags already carry config defaults via kong vars; quiet and
// verbose additionally honor the config file when the flag is unset.
func NewGlobals(c *CLI, cfg *config.Config) *Globals {
	if cfg == nil {
		cfg = config.Default()
	}
	cfg.Platform = c.Platform
	return &Globals{
		Format:  c.Format,
		Quiet:   c.Quiet || cfg.Quiet,
		Verbose: c.Verbose || cfg.Verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Config:  cfg,
	}
}

// Platform returns the active platform adapter, built on first use.
func (g *Globals) Platform() device.Platform {
	if g.plat == nil {
		diag := g.Stderr
		if g.Quiet {
			diag = io.Discard
		}
		g.plat = device.New(g.Config, diag)
	}
	return g.plat
}

// Printer returns the shared output printer for the selected format.
func (g *Globals) Printer() *output.Printer {
	if g.out == nil {
		g.out = output.NewPrinter(g.Format, g.Stdout, g.Stderr)
	}
	return g.out
}

// Debug prints a debug message if verbose mode is enabled
func (g *Globals) Debug(format string, args ...interface{}) {
	if g.Verbose {
		fmt.Fprintf(g.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// VersionCmd shows version information
type VersionCmd struct{}

// Run executes the version command
func (v *VersionCmd) Run(globals *Globals) error {
	if globals.Format == "json" {
		io.WriteString(globals.Stdout, `{"type":"version","version":"`+Version+`","commit":"`+Commit+`"}`+"\n")
	} else {
		io.WriteString(globals.Stdout, "tether version "+Version+" ("+Commit+")\n")
	}
	return nil
}

// Version information (set at build time)
var (
	Version = "dev"
	Commit  = "none"
)
