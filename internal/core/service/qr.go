package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/Saiguru2554/Health-Link-Qr/internal/core/domain"
	"github.com/Saiguru2554/Health-Link-Qr/internal/telemetry/logger"
	"github.com/Saiguru2554/Health-Link-Qr/pkg/qrtoken"
)

// QR image size bounds in pixels.
const (
	DefaultQRSize = 200
	MinQRSize     = 64
	MaxQRSize     = 1024
)

// Token shapes.
const (
	ShapeExtended = "extended"
	ShapeMinimal  = "minimal"
)

// QRServiceConfig holds configuration for QRService.
type QRServiceConfig struct {
	// BaseURL prefixes scan links, e.g. "https://health.example.org".
	BaseURL string

	// Recorder receives counters; nil disables them.
	Recorder Recorder

	// Clock stamps issued codes; defaults to time.Now.
	Clock func() time.Time
}

// QRService issues, verifies and renders patient QR codes.
type QRService struct {
	codec    *qrtoken.Codec
	baseURL  string
	recorder Recorder
	now      func() time.Time
}

// NewQRService creates a new QRService around codec.
func NewQRService(codec *qrtoken.Codec, cfg *QRServiceConfig) *QRService {
	if cfg == nil {
		cfg = &QRServiceConfig{}
	}
	rec := cfg.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &QRService{
		codec:    codec,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		recorder: rec,
		now:      now,
	}
}

// IssuedCode is a freshly issued QR payload.
type IssuedCode struct {
	PatientID string
	Token     string
	ScanURL   string
	Shape     string

	// IssuedAt is zero for minimal codes.
	IssuedAt time.Time
}

// Issue encodes a code for patientID. Minimal codes carry no timestamp
// and are identical for the same patient.
func (s *QRService) Issue(ctx context.Context, patientID string, minimal bool) (*IssuedCode, error) {
	var (
		token string
		err   error
		at    time.Time
		shape = ShapeExtended
	)
	if minimal {
		shape = ShapeMinimal
		token, err = s.codec.EncodeMinimal(patientID)
	} else {
		at = time.UnixMilli(s.now().UnixMilli())
		token, err = s.codec.EncodeAt(patientID, at)
	}
	if err != nil {
		logger.L(ctx).Warn("qr encode failed", "patient_id", patientID, "error", errors.Unwrap(err))
		return nil, domain.ErrQREncoding.WithCause(err)
	}

	s.recorder.IncTokenIssued(shape)
	logger.L(ctx).Debug("qr code issued", "patient_id", patientID, "shape", shape)

	return &IssuedCode{
		PatientID: patientID,
		Token:     token,
		ScanURL:   s.ScanURL(patientID, token),
		Shape:     shape,
		IssuedAt:  at,
	}, nil
}

// ScanURL builds the link a scanner opens: {base}/patient/{id}?code={token}.
// token must already be in wire form.
func (s *QRService) ScanURL(patientID, token string) string {
	return s.baseURL + "/patient/" + url.PathEscape(patientID) + "?code=" + token
}

// Verify checks a scanned code and records the outcome.
func (s *QRService) Verify(ctx context.Context, token string) qrtoken.Result {
	res := s.codec.Verify(token)
	s.recorder.ObserveVerification(res.Valid, string(res.Reason))

	if !res.Valid {
		logger.L(ctx).Info("qr verification failed", "reason", string(res.Reason), "code", token)
	}
	return res
}

// Inspect decodes a code without judging it.
func (s *QRService) Inspect(token string) (*qrtoken.Reference, error) {
	ref, err := s.codec.Inspect(token)
	if err != nil {
		return nil, domain.ErrQRInvalid.WithCause(err)
	}
	return ref, nil
}

// RenderPNG renders content as a PNG QR image with high error correction.
// size is clamped to [MinQRSize, MaxQRSize]; zero means DefaultQRSize.
func (s *QRService) RenderPNG(ctx context.Context, content string, size int) ([]byte, error) {
	if content == "" {
		return nil, domain.ErrMissingArgument.WithDetails("qr content is empty")
	}
	png, err := qrcode.Encode(content, qrcode.Highest, clampSize(size))
	if err != nil {
		return nil, domain.ErrQREncoding.WithCause(err)
	}
	return png, nil
}

// IssuePNG issues a code for patientID and renders its scan link.
func (s *QRService) IssuePNG(ctx context.Context, patientID string, minimal bool, size int) (*IssuedCode, []byte, error) {
	code, err := s.Issue(ctx, patientID, minimal)
	if err != nil {
		return nil, nil, err
	}
	png, err := s.RenderPNG(ctx, code.ScanURL, size)
	if err != nil {
		return nil, nil, err
	}
	return code, png, nil
}

// MaxAge returns how long issued codes stay fresh.
func (s *QRService) MaxAge() time.Duration {
	return s.codec.MaxAge()
}

func clampSize(size int) int {
	switch {
	case size == 0:
		return DefaultQRSize
	case size < MinQRSize:
		return MinQRSize
	case size > MaxQRSize:
		return MaxQRSize
	default:
		return size
	}
}
