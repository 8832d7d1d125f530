package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/Saiguru2554/Health-Link-Qr/internal/core/service"
	"github.com/Saiguru2554/Health-Link-Qr/pkg/crypto/adaptive"
)

// Verify validates the configuration and returns every problem found.
func Verify(cfg *ServerConfig) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	return errors.Join(
		verifyHTTP(&cfg.Server.HTTP),
		verifyQR(&cfg.QR),
		verifyStorage(&cfg.Storage),
		verifySecurity(&cfg.Security),
		verifyLog(&cfg.Log),
		verifyMetrics(&cfg.Metrics),
	)
}

func verifyHTTP(cfg *HTTPConfig) error {
	var errs []error
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		errs = append(errs, fmt.Errorf("server.http.addr %q: %w", cfg.Addr, err))
	}

	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.http.tls_cert_file and tls_key_file must be set together"))
	}
	for _, f := range []string{cfg.TLSCertFile, cfg.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			errs = append(errs, fmt.Errorf("server.http tls file: %w", err))
		}
	}

	if cfg.RateLimit < 0 {
		errs = append(errs, errors.New("server.http.rate_limit must not be negative"))
	}
	if cfg.RateLimit > 0 && cfg.RateBurst < 1 {
		errs = append(errs, errors.New("server.http.rate_burst must be at least 1"))
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server.http.shutdown_timeout must not be negative"))
	}
	return errors.Join(errs...)
}

func verifyQR(cfg *QRSection) error {
	var errs []error
	u, err := url.Parse(cfg.BaseURL)
	switch {
	case cfg.BaseURL == "":
		errs = append(errs, errors.New("qr.base_url is required"))
	case err != nil:
		errs = append(errs, fmt.Errorf("qr.base_url: %w", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("qr.base_url scheme %q must be http or https", u.Scheme))
	case u.Host == "":
		errs = append(errs, errors.New("qr.base_url must include a host"))
	case u.RawQuery != "" || u.Fragment != "":
		errs = append(errs, errors.New("qr.base_url must not carry a query or fragment"))
	}

	if cfg.MaxAge <= 0 {
		errs = append(errs, errors.New("qr.max_age must be positive"))
	}
	if cfg.MaxTokenLength < 64 {
		errs = append(errs, errors.New("qr.max_token_length must be at least 64"))
	}
	if cfg.ImageSize < service.MinQRSize || cfg.ImageSize > service.MaxQRSize {
		errs = append(errs, fmt.Errorf("qr.image_size must be between %d and %d",
			service.MinQRSize, service.MaxQRSize))
	}
	return errors.Join(errs...)
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Engine {
	case EngineMemory:
		return nil
	case EngineBadger:
	default:
		return fmt.Errorf("storage.engine %q must be %q or %q", cfg.Engine, EngineMemory, EngineBadger)
	}

	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required for the badger engine")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return fmt.Errorf("cannot create data directory: %w", err)
	}
	if cfg.GCThreshold <= 0 || cfg.GCThreshold >= 1 {
		return errors.New("storage.gc_threshold must be between 0 and 1")
	}
	return nil
}

func verifySecurity(cfg *SecuritySection) error {
	if cfg.EncryptionKey != "" {
		key, err := hex.DecodeString(cfg.EncryptionKey)
		if err != nil {
			return errors.New("security.encryption_key must be hex encoded")
		}
		if len(key) != adaptive.KeySize {
			return fmt.Errorf("security.encryption_key must be 32 bytes, got %d", len(key))
		}
	}
	if _, err := adaptive.ParseCipherType(cfg.Cipher); err != nil {
		return fmt.Errorf("security.cipher %q is not supported", cfg.Cipher)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not supported", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		return fmt.Errorf("log.format %q is not supported", cfg.Format)
	}
	return nil
}

func verifyMetrics(cfg *MetricsSection) error {
	if cfg.Enabled && !strings.HasPrefix(cfg.Path, "/") {
		return errors.New("metrics.path must start with /")
	}
	return nil
}
