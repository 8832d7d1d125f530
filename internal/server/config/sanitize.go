package config

import "strings"

// Sanitize returns a copy of the config with secrets masked, for logging.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg
	sanitized.Server.HTTP.CORSAllowedOrigins = append([]string(nil), cfg.Server.HTTP.CORSAllowedOrigins...)

	if sanitized.Security.EncryptionKey != "" {
		sanitized.Security.EncryptionKey = maskSecret(sanitized.Security.EncryptionKey)
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
