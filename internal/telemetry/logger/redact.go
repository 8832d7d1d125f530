package logger

import (
	"strings"
)

// Scanned QR codes are base64 JSON, which always starts with "eyJ".
var sensitiveValuePrefixes = []string{
	"eyJ",
}

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"auth",
	"bearer",
	"signature",
	"encryption_key",
}

// Keys redacted only on exact match; "code" alone is the scanned QR code
// while "status_code" is not sensitive.
var sensitiveKeys = map[string]struct{}{
	"code":    {},
	"qr":      {},
	"qr_code": {},
	"key":     {},
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactArgs returns args with sensitive string values masked.
// args is a flat key/value list; the input slice is not modified.
func redactArgs(args []any) []any {
	var out []any
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		val, ok := args[i+1].(string)
		if !ok {
			continue
		}
		if red := redactValue(key, val); red != val {
			if out == nil {
				out = make([]any, len(args))
				copy(out, args)
			}
			out[i+1] = red
		}
	}
	if out == nil {
		return args
	}
	return out
}

// redactValue masks a single key/value pair.
func redactValue(key, value string) string {
	if value == "" {
		return value
	}
	// Known token shapes are partially masked so they stay correlatable.
	for _, prefix := range sensitiveValuePrefixes {
		if strings.HasPrefix(value, prefix) {
			return maskValue(value, prefix)
		}
	}
	if IsSensitiveKey(key) {
		return redactedValue
	}
	return value
}

// maskValue partially masks a sensitive value, keeping prefix and hints.
// Format: prefix + first 3 chars + "..." + last 3 chars
func maskValue(value, prefix string) string {
	body := value[len(prefix):]
	if len(body) > 6 {
		return prefix + body[:3] + "..." + body[len(body)-3:]
	}
	return prefix + "***"
}

// RedactString manually redacts a string value.
// Use this when you need to redact a value before logging.
func RedactString(value string) string {
	for _, prefix := range sensitiveValuePrefixes {
		if strings.HasPrefix(value, prefix) {
			return maskValue(value, prefix)
		}
	}
	return value
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	if _, ok := sensitiveKeys[keyLower]; ok {
		return true
	}
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue checks if a value appears to be sensitive.
func IsSensitiveValue(value string) bool {
	for _, prefix := range sensitiveValuePrefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}
