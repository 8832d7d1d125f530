package config

import (
	"time"

	"github.com/Saiguru2554/Health-Link-Qr/internal/core/service"
	"github.com/Saiguru2554/Health-Link-Qr/pkg/qrtoken"
)

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultRateLimit       = 20
	DefaultRateBurst       = 40

	DefaultBaseURL = "http://127.0.0.1:5080"

	EngineMemory = "memory"
	EngineBadger = "badger"

	DefaultEngine      = EngineMemory
	DefaultDataDir     = "/var/lib/healthqr-server/data"
	DefaultGCInterval  = 10 * time.Minute
	DefaultGCThreshold = 0.5

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsPath = "/metrics"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:               DefaultHTTPAddr,
				ReadTimeout:        DefaultReadTimeout,
				WriteTimeout:       DefaultWriteTimeout,
				IdleTimeout:        DefaultIdleTimeout,
				ShutdownTimeout:    DefaultShutdownTimeout,
				RateLimit:          DefaultRateLimit,
				RateBurst:          DefaultRateBurst,
				CORSAllowedOrigins: []string{"*"},
				EnableAudit:        true,
			},
		},
		QR: QRSection{
			BaseURL:        DefaultBaseURL,
			MaxAge:         qrtoken.DefaultMaxAge,
			MaxTokenLength: qrtoken.DefaultMaxTokenLength,
			ImageSize:      service.DefaultQRSize,
		},
		Storage: StorageSection{
			Engine:      DefaultEngine,
			DataDir:     DefaultDataDir,
			GCInterval:  DefaultGCInterval,
			GCThreshold: DefaultGCThreshold,
			SyncWrites:  true,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsSection{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
	}
}
