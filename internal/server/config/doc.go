// Package config defines the healthqr-server configuration structure.
//
// A ServerConfig starts from Default, is overlaid by confloader, checked
// with Verify and logged through Sanitize.
package config
