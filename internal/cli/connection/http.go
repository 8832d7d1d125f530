package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Saiguru2554/Health-Link-Qr/internal/infra/buildinfo"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 30 * time.Second

// HTTPClient provides HTTP communication with the server.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying client, e.g. for custom TLS.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.client = hc
		}
	}
}

// NewHTTPClient creates a client for server, which may omit the scheme.
func NewHTTPClient(server string, opts ...Option) *HTTPClient {
	baseURL := strings.TrimRight(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	c := &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request against path.
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, c.baseURL+path, nil)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.Do(ctx, http.MethodPost, c.baseURL+path, body)
}

// Patch performs a PATCH request with a JSON body.
func (c *HTTPClient) Patch(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.Do(ctx, http.MethodPatch, c.baseURL+path, body)
}

// Delete performs a DELETE request.
func (c *HTTPClient) Delete(ctx context.Context, path string) (*http.Response, error) {
	return c.Do(ctx, http.MethodDelete, c.baseURL+path, nil)
}

// Do sends a request to an absolute URL. The query string is sent as
// given, so scanned codes reach the server byte for byte.
func (c *HTTPClient) Do(ctx context.Context, method, rawURL string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "healthqr-cli/"+buildinfo.Version)

	return c.client.Do(req)
}

// APIError is a non-2xx response decoded from the envelope.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
	Details   json.RawMessage
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// IsStatus reports whether err is an *APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type envelope struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
	Details   json.RawMessage `json:"details"`
}

// ParseResponse closes resp.Body and decodes the envelope's data into
// target. target may be nil.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Code = env.Code
			apiErr.Message = env.Message
			apiErr.RequestID = env.RequestID
			apiErr.Details = env.Details
		}
		return apiErr
	}
	if errors.Is(decodeErr, io.EOF) {
		return nil
	}
	if decodeErr != nil {
		return fmt.Errorf("parse response: %w", decodeErr)
	}

	if target != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, target); err != nil {
			return fmt.Errorf("parse response data: %w", err)
		}
	}
	return nil
}

// ReadBody closes resp.Body and returns it raw, for non-JSON payloads
// such as PNG images. Error statuses are decoded like ParseResponse.
func ReadBody(resp *http.Response) ([]byte, error) {
	if resp.StatusCode >= 400 {
		return nil, ParseResponse(resp, nil)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
