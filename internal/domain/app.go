package domain

// AppInfo describes one installed application on the target device.
type AppInfo struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name,omitempty"`
}
