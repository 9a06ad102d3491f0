// internal/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"namenizer/internal/renamer"
)

const DefaultCacheSize = 4096

type Config struct {
	LogLevel   string `json:"log_level"`   // debug, info, warn, error
	Strategy   string `json:"strategy"`    // direct, script
	ScriptName string `json:"script_name"` // only used by the script strategy
	CacheSize  int    `json:"cache_size"`  // label cache entries

	Journal struct {
		Enabled bool   `json:"enabled"`
		Path    string `json:"path"`
	} `json:"journal"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	if c.Strategy == "" {
		c.Strategy = renamer.StrategyDirect
	}
	if c.ScriptName == "" {
		c.ScriptName = renamer.DefaultScriptName
	}
	if c.CacheSize <= 0 {
		c.CacheSize = DefaultCacheSize
	}
	if c.Journal.Path == "" {
		c.Journal.Path = filepath.Join(configDir(), "journal")
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Strategy {
	case renamer.StrategyDirect, renamer.StrategyScript:
	default:
		return fmt.Errorf("unknown rename strategy %q", c.Strategy)
	}
	if filepath.Base(c.ScriptName) != c.ScriptName {
		return fmt.Errorf("script name %q must not contain a directory", c.ScriptName)
	}
	return nil
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".namenizer"
	}
	return filepath.Join(dir, "namenizer")
}

// Path returns the config file location, honouring NAMENIZER_CONFIG.
func Path() string {
	if p := os.Getenv("NAMENIZER_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(configDir(), "config.json")
}

// Load reads the config at path. A missing file is not an error: the
// defaults are returned instead.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
