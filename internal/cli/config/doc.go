// Package config holds healthqr-cli's per-user settings.
//
// Settings live in a YAML file (default ~/.healthqr/cli.yaml, overridden
// by HEALTHQR_CLI_CONFIG). Command-line flags take precedence over the
// file, and a missing file means defaults.
package config
