package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Global settings
	Platform string `mapstructure:"platform"` // "android" or "ios"
	Format   string `mapstructure:"format"`
	Quiet    bool   `mapstructure:"quiet"`
	Verbose  bool   `mapstructure:"verbose"`

	// Target selection
	AVD       string `mapstructure:"avd"`
	Simulator string `mapstructure:"simulator"` // UDID, empty means "booted"
	AppID     string `mapstructure:"app_id"`

	AndroidHome string `mapstructure:"android_home"`

	Timeouts TimeoutsConfig `mapstructure:"timeouts"`
	Logs     LogsConfig     `mapstructure:"logs"`
	Elements ElementsConfig `mapstructure:"elements"`

	// Session output locations
	WatchDir    string `mapstructure:"watch_dir"`
	ProgressDir string `mapstructure:"progress_dir"`
}

// TimeoutsConfig holds per-operation timeouts in seconds.
type TimeoutsConfig struct {
	Boot       int `mapstructure:"boot"`
	Flow       int `mapstructure:"flow"`
	Screenshot int `mapstructure:"screenshot"`
	Default    int `mapstructure:"default"`
}

// LogsConfig tunes the log collector.
type LogsConfig struct {
	MaxLines int `mapstructure:"max_lines"`
}

// ElementsConfig overrides the built-in normalizer noise lists. Empty lists
// keep the defaults.
type ElementsConfig struct {
	NoiseClasses      []string `mapstructure:"noise_classes"`
	SystemResourceIDs []string `mapstructure:"system_resource_ids"`
	NoiseRoles        []string `mapstructure:"noise_roles"`
}

// Default returns a Config with default values
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Platform:    "android",
		Format:      "text",
		AVD:         "Pixel_XL_API_29",
		AndroidHome: filepath.Join(home, "Library", "Android", "sdk"),
		Timeouts: TimeoutsConfig{
			Boot:       90,
			Flow:       180,
			Screenshot: 10,
			Default:    10,
		},
		Logs: LogsConfig{
			MaxLines: 200,
		},
		WatchDir:    filepath.Join(os.TempDir(), "tether-watch"),
		ProgressDir: filepath.Join(home, ".tether"),
	}
}

// EmulatorBin returns the path to the Android emulator binary.
func (c *Config) EmulatorBin() string {
	return filepath.Join(c.AndroidHome, "emulator", "emulator")
}

// SimulatorID returns the simulator target, "booted" when unset.
func (c *Config) SimulatorID() string {
	if c.Simulator == "" {
		return "booted"
	}
	return c.Simulator
}

// Load loads configuration from files and environment.
// Config file search order (highest precedence first):
// 1. tether.yaml / .tether.yaml / tether.json in cwd or any parent
// 2. ~/.tether.yaml
// 3. $XDG_CONFIG_HOME/tether/config.yaml (or ~/.config/tether/config.yaml)
func Load() (*Config, error) {
	cfg := Default()

	configFile := findConfigFile()
	if configFile != "" {
		v := viper.New()
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// findConfigFile searches for a config file: upward from the working
// directory (so a repo-level tether.yaml wins from any subdirectory), then
// the standard per-user locations.
func findConfigFile() string {
	names := []string{"tether.yaml", "tether.yml", ".tether.yaml", "tether.json"}

	if cwd, err := os.Getwd(); err == nil {
		dir := cwd
		for {
			for _, name := range names {
				path := filepath.Join(dir, name)
				if _, err := os.Stat(path); err == nil {
					return path
				}
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".tether.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		path := filepath.Join(configDir, "tether", "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TETHER_PLATFORM"); v != "" {
		cfg.Platform = v
	}
	if v := os.Getenv("TETHER_AVD"); v != "" {
		cfg.AVD = v
	}
	if v := os.Getenv("TETHER_SIMULATOR"); v != "" {
		cfg.Simulator = v
	}
	if v := os.Getenv("TETHER_APP_ID"); v != "" {
		cfg.AppID = v
	}
	if v := os.Getenv("ANDROID_HOME"); v != "" {
		cfg.AndroidHome = v
	}
	if v := os.Getenv("TETHER_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("TETHER_VERBOSE"); v == "true" || v == "1" {
		cfg.Verbose = true
	}
}

// ProgressFile returns the flow progress history location.
func (c *Config) ProgressFile() string {
	return filepath.Join(c.ProgressDir, "progress.json")
}
