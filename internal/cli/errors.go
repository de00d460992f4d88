package cli

import (
	"context"
	"errors"

	"github.com/devtether/tether/internal/domain"
)

// outputError normalizes error emission across commands, respecting json vs
// text formats so AI agents always get machine-readable failures.
func outputError(globals *Globals, code, message string) error {
	globals.Printer().Error(code, message)
	return errors.New(message)
}

// requireDevice guards commands that need a running device.
func requireDevice(ctx context.Context, globals *Globals) error {
	if check := globals.Platform().Probe(ctx); !check.Passed {
		return outputError(globals, domain.ErrDeviceNotRunning, "Device not running. Run: tether boot")
	}
	return nil
}
