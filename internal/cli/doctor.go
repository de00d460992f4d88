package cli

import (
	"context"
	"fmt"
	"time"
)

// DoctorCmd checks system requirements and device health.
type DoctorCmd struct {
	Fix bool `help:"Auto-fix issues (start adb server, boot the device)"`
}

// Run executes the doctor command. The generous timeout covers a --fix boot.
func (c *DoctorCmd) Run(globals *Globals) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report := globals.Platform().RunChecks(ctx, c.Fix)
	if err := globals.Printer().Report(report); err != nil {
		return err
	}
	if !report.CriticalPassed() {
		return fmt.Errorf("%d critical check(s) failed", len(report.Failed(true)))
	}
	return nil
}
