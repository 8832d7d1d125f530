// Package confloader loads layered configuration with koanf.
//
// Sources, lowest priority first:
//
//  1. Defaults already present in the target struct
//  2. A YAML file
//  3. Environment variables (HEALTHQR_ prefix)
//  4. Explicit overrides passed with LoadMap (command-line flags)
//
// Environment keys use a double underscore between sections so that
// single underscores survive inside key names:
//
//	HEALTHQR_QR__MAX_AGE=72h        -> qr.max_age
//	HEALTHQR_SERVER__HTTP__ADDR=:80 -> server.http.addr
//
// Watcher reports writes to a config file so the server can reload the
// settings that are safe to change at runtime.
package confloader
