// Package config loads the declarative configuration for the tracklog CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration loaded from a file. Flags override
// whatever is set here.
type Config struct {
	// Purge controls rotation-boundary truncation.
	Purge bool `json:"purge" toml:"purge"`
	// Smart controls the recombination pass.
	Smart bool `json:"smart" toml:"smart"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"logLevel" toml:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `json:"logFormat" toml:"log_format"`
	// StateDir roots the resume-cursor store used by --group.
	StateDir string `json:"stateDir" toml:"state_dir"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Purge:     true,
		Smart:     true,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads configuration from a JSON or TOML file, chosen by extension.
// An empty path returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	return cfg, nil
}
