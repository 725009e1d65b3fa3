package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Load reads a configuration file based on its extension on top of Default.
// Supports: .yaml/.yml, .json, .toml. A leading '~' is expanded.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	p, err := expandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return cfg, err
	}
	// pacing sections come from the file alone so that a tps-only file
	// selects the limited mode instead of the default clock bounds
	defClock := cfg.Clock
	cfg.Clock = nil
	if err := decode(filepath.Ext(p), b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Clock == nil && cfg.TPS == nil {
		cfg.Clock = defClock
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func decode(ext string, b []byte, cfg *Config) error {
	switch ext = strings.ToLower(ext); ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	case ".json":
		return json.Unmarshal(b, cfg)
	case ".toml":
		return toml.Unmarshal(b, cfg)
	default:
		return fmt.Errorf("unsupported config extension: %s", ext)
	}
}

// Marshal renders cfg in the format implied by ext, for `tickd config`.
func Marshal(cfg Config, ext string) ([]byte, error) {
	switch ext = strings.ToLower(ext); ext {
	case ".yaml", ".yml", "yaml", "yml":
		return yaml.Marshal(cfg)
	case ".json", "json":
		return json.MarshalIndent(cfg, "", "  ")
	case ".toml", "toml":
		return toml.Marshal(cfg)
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
}

// expandHome expands a leading '~' to the user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
