package httpserver

import (
	"net/http"

	"github.com/Saiguru2554/Health-Link-Qr/internal/server/httpserver/handler"
	"github.com/Saiguru2554/Health-Link-Qr/internal/telemetry/logger"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	Handler handler.Config

	// Observer receives per-request metrics; nil disables the Metrics middleware.
	Observer RequestObserver

	Logger logger.Logger

	// CORSAllowedOrigins lists allowed origins; "*" allows any, empty allows none.
	CORSAllowedOrigins []string

	// RateLimit is requests/second per client IP; zero disables limiting.
	RateLimit float64
	RateBurst int

	// EnableAudit logs one line per API request.
	EnableAudit bool
}

// NewRouter creates the top-level handler with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	l := cfg.Logger
	if l == nil {
		l = logger.Default()
	}
	hcfg := cfg.Handler
	if hcfg.Logger == nil {
		hcfg.Logger = l
	}
	h := handler.New(&hcfg)

	// Probes skip CORS, rate limiting and auditing.
	probe := Chain(h, Recover(l), RequestID(l))

	middlewares := []Middleware{
		Recover(l),
		RequestID(l),
		CORS(cfg.CORSAllowedOrigins),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = int(cfg.RateLimit) + 1
		}
		middlewares = append(middlewares, RateLimit(cfg.RateLimit, burst))
	}
	if cfg.Observer != nil {
		middlewares = append(middlewares, Metrics(cfg.Observer))
	}
	if cfg.EnableAudit {
		middlewares = append(middlewares, Audit(l))
	}
	api := Chain(h, middlewares...)

	mux := http.NewServeMux()
	mux.Handle("GET /health", probe)
	mux.Handle("GET /ready", probe)
	if hcfg.Metrics != nil {
		path := hcfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, probe)
	}
	mux.Handle("/", api)

	return mux
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		CORSAllowedOrigins: []string{"*"},
		RateLimit:          20,
		RateBurst:          40,
		EnableAudit:        true,
	}
}
