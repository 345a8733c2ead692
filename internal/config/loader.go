package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// ConfigDirName is the directory under the user config dir.
const ConfigDirName = "arena"

// ConfigPath returns the path of the JSON config file. ARENA_CONFIG_DIR
// overrides the base directory, mainly for tests.
func ConfigPath() (string, error) {
	dir := os.Getenv("ARENA_CONFIG_DIR")
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("resolve config dir: %w", err)
		}
		dir = filepath.Join(base, ConfigDirName)
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load builds the effective config: defaults, then the JSON file if present,
// then ARENA_* environment overrides per group.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil // fall back to defaults
	}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	envconfig.Process("ARENA_STORAGE", &cfg.Storage)
	envconfig.Process("ARENA_KAFKA", &cfg.Kafka)

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = filepath.Join(filepath.Dir(path), "arena.db")
	}
	return cfg, nil
}

// Save writes the config file, creating the directory if needed.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}
