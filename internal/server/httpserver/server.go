package httpserver

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Saiguru2554/Health-Link-Qr/internal/telemetry/logger"
)

// Config holds listener settings for the HTTP server.
type Config struct {
	Addr string

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string
	TLSKeyFile  string

	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	Logger logger.Logger
}

// TLSEnabled reports whether the server will terminate TLS.
func (c Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// Server represents the HTTP server.
type Server struct {
	cfg        Config
	httpServer *http.Server
	logger     logger.Logger

	mu sync.Mutex
	ln net.Listener
}

// New creates a new HTTP server.
func New(cfg Config, handler http.Handler) *Server {
	l := cfg.Logger
	if l == nil {
		l = logger.Default()
	}
	readHeader := cfg.ReadHeaderTimeout
	if readHeader == 0 {
		readHeader = cfg.ReadTimeout
	}

	return &Server{
		cfg:    cfg,
		logger: l,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: readHeader,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			ErrorLog:          log.New(errorLogWriter{l}, "", 0),
		},
	}
}

// ListenAndServe binds the configured address and serves until Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln. It returns nil after a clean Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info("http server listening",
		"addr", ln.Addr().String(),
		"tls", s.cfg.TLSEnabled(),
	)

	var err error
	if s.cfg.TLSEnabled() {
		err = s.httpServer.ServeTLS(ln, s.cfg.TLSCertFile, s.cfg.TLSKeyFile)
	} else {
		err = s.httpServer.Serve(ln)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Addr returns the bound address, or the configured one before Serve.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.cfg.Addr
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// errorLogWriter routes net/http's internal log lines to the structured logger.
type errorLogWriter struct {
	l logger.Logger
}

func (w errorLogWriter) Write(p []byte) (int, error) {
	w.l.Warn("http server error", "detail", string(bytes.TrimSpace(p)))
	return len(p), nil
}
