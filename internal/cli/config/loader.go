package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides DefaultConfigPath.
const EnvConfigPath = "HEALTHQR_CLI_CONFIG"

// Keys accepted by Set, in display order.
var Keys = []string{"server", "output", "timeout", "base_url"}

// DefaultConfigPath returns the CLI config file path.
func DefaultConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".healthqr", "cli.yaml")
	}
	return filepath.Join(homeDir, ".healthqr", "cli.yaml")
}

// Load reads the config at path over the defaults. A missing file is not
// an error.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cli config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse cli config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cli config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path with owner-only permissions.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode cli config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write cli config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write cli config: %w", err)
	}
	return nil
}

// Validate checks field values.
func (c *CLIConfig) Validate() error {
	switch c.Output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("output must be table, json or yaml, got %q", c.Output)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if strings.TrimSpace(c.Server) == "" {
		return fmt.Errorf("server is required")
	}
	return nil
}

// Set assigns one key by name.
func (c *CLIConfig) Set(key, value string) error {
	switch key {
	case "server":
		c.Server = value
	case "output":
		c.Output = strings.ToLower(value)
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		c.Timeout = d
	case "base_url":
		c.BaseURL = value
	default:
		return fmt.Errorf("unknown key %q (want one of %s)", key, strings.Join(Keys, ", "))
	}
	return c.Validate()
}

// Get returns one key by name.
func (c *CLIConfig) Get(key string) (string, error) {
	switch key {
	case "server":
		return c.Server, nil
	case "output":
		return c.Output, nil
	case "timeout":
		return c.Timeout.String(), nil
	case "base_url":
		return c.BaseURL, nil
	default:
		return "", fmt.Errorf("unknown key %q (want one of %s)", key, strings.Join(Keys, ", "))
	}
}
