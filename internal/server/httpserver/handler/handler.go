package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Saiguru2554/Health-Link-Qr/internal/core/domain"
	"github.com/Saiguru2554/Health-Link-Qr/internal/core/service"
	"github.com/Saiguru2554/Health-Link-Qr/internal/telemetry/logger"
)

// maxBodyBytes bounds JSON request bodies. Photos are references, not uploads.
const maxBodyBytes = 64 << 10

// Config wires the services behind the API.
type Config struct {
	QR       *service.QRService
	Resolver *service.ResolverService
	Patients *service.PatientService

	// Metrics serves the Prometheus exposition; nil disables the route.
	Metrics     http.Handler
	MetricsPath string

	// Ready reports whether dependencies can serve traffic; nil means always ready.
	Ready func(ctx context.Context) error

	// ImageSize is the PNG size used when the request names none.
	ImageSize int

	Logger logger.Logger
}

// Handler is the main HTTP handler that routes requests to endpoint methods.
type Handler struct {
	qr        *service.QRService
	resolver  *service.ResolverService
	patients  *service.PatientService
	ready     func(ctx context.Context) error
	imageSize int
	logger    logger.Logger
	mux       *http.ServeMux
}

// New creates a new Handler.
func New(cfg *Config) *Handler {
	l := cfg.Logger
	if l == nil {
		l = logger.Default()
	}
	size := cfg.ImageSize
	if size == 0 {
		size = service.DefaultQRSize
	}

	h := &Handler{
		qr:        cfg.QR,
		resolver:  cfg.Resolver,
		patients:  cfg.Patients,
		ready:     cfg.Ready,
		imageSize: size,
		logger:    l,
		mux:       http.NewServeMux(),
	}

	h.registerRoutes()
	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		h.mux.Handle("GET "+path, cfg.Metrics)
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	// QR codes
	h.mux.HandleFunc("POST /qr/tokens", h.handleIssueToken)
	h.mux.HandleFunc("POST /qr/tokens/verify", h.handleVerifyToken)
	h.mux.HandleFunc("GET /patients/{id}/qr.png", h.handleQRImage)

	// Scanned links land here.
	h.mux.HandleFunc("GET /patient/{id}", h.handleScan)

	// Patient registry
	h.mux.HandleFunc("GET /patients", h.handleListPatients)
	h.mux.HandleFunc("POST /patients", h.handleRegisterPatient)
	h.mux.HandleFunc("GET /patients/{id}", h.handleGetPatient)
	h.mux.HandleFunc("PATCH /patients/{id}", h.handleUpdatePatient)
	h.mux.HandleFunc("DELETE /patients/{id}", h.handleDeletePatient)
	h.mux.HandleFunc("POST /patients/{id}/reports", h.handleAddReport)
}

// writeJSON writes a success response in the standard envelope.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	h.write(w, r, status, NewResponse(getRequestID(r), data))
}

// writeError writes an error response in the standard envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	w.Header().Set("X-Error-Code", code)
	h.write(w, r, status, NewErrorResponse(getRequestID(r), code, message, details))
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, status int, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(resp); err != nil {
		logger.L(r.Context()).Error("failed to encode response", "error", err)
	}
}

// decodeJSON reads a bounded JSON body into dst and rejects unknown fields.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		msg := "invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		h.writeError(w, r, http.StatusBadRequest, domain.ErrBadRequest.Code, msg, nil)
		return false
	}
	return true
}

// getRequestID returns the ID set by the RequestID middleware.
func getRequestID(r *http.Request) string {
	if id := logger.RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	if errors.As(err, &de) {
		status := errorCodeToHTTPStatus(de.Code)
		if status >= http.StatusInternalServerError {
			logger.L(r.Context()).Error("request failed", "code", de.Code, "error", err)
			h.writeError(w, r, status, de.Code, de.Message, nil)
			return
		}
		msg := de.Message
		if de.Details != "" {
			msg += ": " + de.Details
		}
		h.writeError(w, r, status, de.Code, msg, nil)
		return
	}

	logger.L(r.Context()).Error("internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternalServer.Code, domain.ErrInternalServer.Message, nil)
}

// errorCodeToHTTPStatus maps HQ-<AREA>-<NNNN> codes to HTTP statuses.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4010"):
		return http.StatusGone
	case strings.HasSuffix(code, "-4030"):
		return http.StatusForbidden
	case strings.HasSuffix(code, "-5030"):
		return http.StatusServiceUnavailable
	case strings.HasPrefix(code, "HQ-ARG-"):
		return http.StatusBadRequest
	case strings.Contains(code, "-4"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
