package cli

import (
	"context"
	"time"

	"github.com/devtether/tether/internal/domain"
)

// AppsCmd lists installed apps on the device.
type AppsCmd struct{}

// Run executes the apps command
func (c *AppsCmd) Run(globals *Globals) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := requireDevice(ctx, globals); err != nil {
		return err
	}

	apps, err := globals.Platform().ListApps(ctx)
	if err != nil {
		return outputError(globals, domain.ErrAppsFailed, err.Error())
	}

	if globals.Printer().JSON() {
		return globals.Printer().Raw(apps)
	}
	if len(apps) == 0 {
		globals.Printer().Println("No user apps installed.")
		return nil
	}
	for _, app := range apps {
		if app.Name != "" {
			globals.Printer().Printf("%s  (%s)\n", app.Identifier, app.Name)
		} else {
			globals.Printer().Println(app.Identifier)
		}
	}
	return nil
}
