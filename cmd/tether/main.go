package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/devtether/tether/internal/cli"
	"github.com/devtether/tether/internal/config"
	"github.com/devtether/tether/internal/output"
)

const quickStart = `tether - mobile UI observation for AI agents

START HERE (one JSON document with screen + elements + logs):
  tether inspect

Check the environment first:
  tether doctor        Validate adb/simctl, Maestro, device
  tether boot          Start the emulator or simulator

Other useful commands:
  tether watch         Snapshot every settled UI change
  tether elements      List actionable elements with @eN refs
  tether flow <file>   Run a Maestro flow with log capture
  tether --help        Full command list
`

func main() {
	// Show quick start if no args provided
	if len(os.Args) == 1 {
		fmt.Print(quickStart)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	output.SetupColors()

	var c cli.CLI

	// Config values become flag defaults, overridden by explicit flags.
	ctx := kong.Parse(&c,
		kong.Name("tether"),
		kong.Description("Observe a mobile app under test: screenshots, normalized UI elements, filtered device logs.\n\nSTART HERE: tether inspect"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Vars{
			"config_format":   cfg.Format,
			"config_platform": cfg.Platform,
		},
	)

	globals := cli.NewGlobals(&c, cfg)
	err = ctx.Run(globals)
	if err != nil {
		os.Exit(1)
	}
}
