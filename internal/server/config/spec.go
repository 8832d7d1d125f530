package config

import "time"

// ServerConfig is the root configuration for healthqr-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	QR       QRSection       `koanf:"qr"`
	Storage  StorageSection  `koanf:"storage"`
	Security SecuritySection `koanf:"security"`
	Log      LogSection      `koanf:"log"`
	Metrics  MetricsSection  `koanf:"metrics"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimit is requests per second per client IP; zero disables it.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	// CORSAllowedOrigins lists origins allowed to call the API. "*" allows any.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// EnableAudit logs one line per request.
	EnableAudit bool `koanf:"enable_audit"`
}

// QRSection configures token issuing and verification.
type QRSection struct {
	// BaseURL prefixes scan links: {base_url}/patient/{id}?code={token}.
	BaseURL string `koanf:"base_url"`

	// MaxAge is how long an extended token stays fresh.
	MaxAge time.Duration `koanf:"max_age"`

	// MaxTokenLength rejects longer scanned strings before decoding.
	MaxTokenLength int `koanf:"max_token_length"`

	// ImageSize is the default PNG edge length in pixels.
	ImageSize int `koanf:"image_size"`
}

// StorageSection configures the patient store.
type StorageSection struct {
	// Engine is "memory" or "badger".
	Engine  string `koanf:"engine"`
	DataDir string `koanf:"data_dir"`

	GCInterval  time.Duration `koanf:"gc_interval"`
	GCThreshold float64       `koanf:"gc_threshold"`
	SyncWrites  bool          `koanf:"sync_writes"`
}

// SecuritySection configures encryption at rest.
type SecuritySection struct {
	// EncryptionKey is a hex-encoded 32-byte key. Empty stores values in the clear.
	EncryptionKey string `koanf:"encryption_key"`

	// Cipher forces "aes-gcm" or "chacha20-poly1305"; empty picks by CPU.
	Cipher string `koanf:"cipher"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}
