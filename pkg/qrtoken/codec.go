package qrtoken

import "time"

// Defaults.
const (
	// DefaultMaxAge is how long an extended token stays fresh (30 days).
	DefaultMaxAge = 30 * 24 * time.Hour

	// DefaultMaxTokenLength bounds the work spent on a scanned string.
	DefaultMaxTokenLength = 2048
)

// Codec encodes and verifies tokens.
//
// A Codec is immutable once built and safe for concurrent use.
type Codec struct {
	now            func() time.Time
	maxAge         time.Duration
	maxTokenLength int
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock sets the wall-clock source.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMaxAge sets the age after which a token is flagged as expired.
func WithMaxAge(d time.Duration) Option {
	return func(c *Codec) {
		if d > 0 {
			c.maxAge = d
		}
	}
}

// WithMaxTokenLength sets the longest token Verify will try to decode.
func WithMaxTokenLength(n int) Option {
	return func(c *Codec) {
		if n > 0 {
			c.maxTokenLength = n
		}
	}
}

// New creates a Codec.
func New(opts ...Option) *Codec {
	c := &Codec{
		now:            time.Now,
		maxAge:         DefaultMaxAge,
		maxTokenLength: DefaultMaxTokenLength,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxAge returns the configured maximum token age.
func (c *Codec) MaxAge() time.Duration {
	return c.maxAge
}

var defaultCodec = New()

// Encode issues an extended token using the default codec.
func Encode(patientID string) (string, error) {
	return defaultCodec.Encode(patientID)
}

// EncodeMinimal issues a minimal token using the default codec.
func EncodeMinimal(patientID string) (string, error) {
	return defaultCodec.EncodeMinimal(patientID)
}

// Verify checks a token using the default codec.
func Verify(token string) Result {
	return defaultCodec.Verify(token)
}
