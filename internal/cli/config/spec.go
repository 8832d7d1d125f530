package config

import "time"

// CLIConfig is the configuration for healthqr-cli.
type CLIConfig struct {
	// Server is the healthqr-server address used by online commands.
	Server string `yaml:"server"`

	// Output is the default format: table, json or yaml.
	Output string `yaml:"output"`

	// Timeout bounds each request to the server.
	Timeout time.Duration `yaml:"timeout"`

	// BaseURL prefixes scan links built by offline commands.
	BaseURL string `yaml:"base_url"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:  "http://127.0.0.1:5080",
		Output:  "table",
		Timeout: 30 * time.Second,
		BaseURL: "http://127.0.0.1:5080",
	}
}
