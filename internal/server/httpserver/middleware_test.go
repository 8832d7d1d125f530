package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/Saiguru2554/Health-Link-Qr/internal/telemetry/logger"
)

// recordingLogger captures log calls for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

func (l *recordingLogger) log(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.log("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.log("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.log("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.log("error", msg, args) }
func (l *recordingLogger) With(...any) logger.Logger     { return l }
func (l *recordingLogger) WithContext(context.Context) logger.Logger {
	return l
}

func (l *recordingLogger) last() logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return logEntry{}
	}
	return l.entries[len(l.entries)-1]
}

func (e logEntry) attr(key string) (any, bool) {
	for i := 0; i+1 < len(e.args); i += 2 {
		if e.args[i] == key {
			return e.args[i+1], true
		}
	}
	return nil, false
}

type observation struct {
	method string
	route  string
	status int
}

type fakeObserver struct {
	mu  sync.Mutex
	obs []observation
}

func (f *fakeObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.obs = append(f.obs, observation{method, route, status})
}

func (f *fakeObserver) all() []observation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]observation(nil), f.obs...)
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("generates request ID when not provided", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		requestID := rec.Header().Get(HeaderRequestID)
		if !strings.HasPrefix(requestID, "req-") {
			t.Errorf("expected request ID to start with 'req-', got %q", requestID)
		}
		if len(requestID) != len("req-")+26 {
			t.Errorf("expected a ULID suffix, got %q", requestID)
		}
		if seen != requestID {
			t.Errorf("context request ID = %q, header = %q", seen, requestID)
		}
	})

	t.Run("preserves existing request ID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(HeaderRequestID, "existing-id-123")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		if got := rec.Header().Get(HeaderRequestID); got != "existing-id-123" {
			t.Errorf("expected 'existing-id-123', got %s", got)
		}
	})

	t.Run("replaces malformed request ID", func(t *testing.T) {
		for _, bad := range []string{"has space", "new\nline", strings.Repeat("a", 65)} {
			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set(HeaderRequestID, bad)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			if got := rec.Header().Get(HeaderRequestID); got == bad || !strings.HasPrefix(got, "req-") {
				t.Errorf("malformed ID %q kept as %q", bad, got)
			}
		}
	})

	t.Run("generated IDs are unique", func(t *testing.T) {
		ids := make(map[string]bool)
		for i := 0; i < 100; i++ {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest("GET", "/test", nil))
			id := rec.Header().Get(HeaderRequestID)
			if ids[id] {
				t.Fatalf("duplicate request ID %s", id)
			}
			ids[id] = true
		}
	})
}

func TestChain(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusOK)
	}), mark("first"), mark("second"), mark("third"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	want := "first,second,third,handler"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
}

func TestRecover(t *testing.T) {
	l := &recordingLogger{}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), RequestID(logger.NewNop()), Recover(l))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(HeaderRequestID, "req-panic")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Error-Code"); got != "HQ-SYS-5000" {
		t.Errorf("X-Error-Code = %q", got)
	}

	var body struct {
		Code      string `json:"code"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Code != "HQ-SYS-5000" || body.RequestID != "req-panic" {
		t.Errorf("unexpected body %+v", body)
	}

	entry := l.last()
	if entry.level != "error" || entry.msg != "panic recovered" {
		t.Errorf("unexpected log entry %+v", entry)
	}
}

func TestRecoverAbortHandler(t *testing.T) {
	h := Recover(logger.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if r := recover(); r != http.ErrAbortHandler {
			t.Errorf("expected ErrAbortHandler to propagate, got %v", r)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		origins     []string
		origin      string
		wantAllowed bool
	}{
		{"wildcard allows any", []string{"*"}, "https://clinic.example.org", true},
		{"listed origin", []string{"https://a.example.org"}, "https://a.example.org", true},
		{"trailing slash in config", []string{"https://a.example.org/"}, "https://a.example.org", true},
		{"unlisted origin", []string{"https://a.example.org"}, "https://b.example.org", false},
		{"empty list allows none", nil, "https://a.example.org", false},
		{"no origin header", []string{"*"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORS(tt.origins)(okHandler)
			req := httptest.NewRequest("GET", "/patients", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			got := rec.Header().Get("Access-Control-Allow-Origin")
			if tt.wantAllowed && got != tt.origin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.origin)
			}
			if !tt.wantAllowed && got != "" {
				t.Errorf("Allow-Origin = %q, want none", got)
			}
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d", rec.Code)
			}
		})
	}

	t.Run("preflight short-circuits", func(t *testing.T) {
		called := false
		h := CORS([]string{"*"})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			called = true
		}))
		req := httptest.NewRequest(http.MethodOptions, "/patients", nil)
		req.Header.Set("Origin", "https://a.example.org")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
		if called {
			t.Error("preflight reached the handler")
		}
		if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "PATCH") {
			t.Errorf("Allow-Methods = %q", rec.Header().Get("Access-Control-Allow-Methods"))
		}
	})
}

func TestRateLimit(t *testing.T) {
	t.Run("allows burst then rejects", func(t *testing.T) {
		h := RateLimit(1, 3)(okHandler)

		codes := make([]int, 0, 5)
		for i := 0; i < 5; i++ {
			req := httptest.NewRequest("GET", "/test", nil)
			req.RemoteAddr = "192.168.1.1:12345"
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			codes = append(codes, rec.Code)

			if rec.Code == http.StatusTooManyRequests {
				if rec.Header().Get("Retry-After") == "" {
					t.Error("missing Retry-After header")
				}
				if rec.Header().Get("X-Error-Code") != "HQ-SYS-4290" {
					t.Errorf("X-Error-Code = %q", rec.Header().Get("X-Error-Code"))
				}
			}
		}

		want := []int{200, 200, 200, 429, 429}
		if fmt.Sprint(codes) != fmt.Sprint(want) {
			t.Errorf("codes = %v, want %v", codes, want)
		}
	})

	t.Run("limits each client separately", func(t *testing.T) {
		h := RateLimit(1, 1)(okHandler)

		for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
			req := httptest.NewRequest("GET", "/test", nil)
			req.RemoteAddr = ip + ":1000"
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Errorf("first request from %s: status %d", ip, rec.Code)
			}
		}
	})
}

func TestRateLimitConcurrency(t *testing.T) {
	h := RateLimit(100, 100)(okHandler)

	var wg sync.WaitGroup
	var mu sync.Mutex
	success, limited := 0, 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req := httptest.NewRequest("GET", "/test", nil)
			req.RemoteAddr = "192.168.1.1:12345"
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			mu.Lock()
			if rec.Code == http.StatusOK {
				success++
			} else {
				limited++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if success == 0 {
		t.Error("expected some successful requests")
	}
	if limited == 0 {
		t.Error("expected some rate-limited requests")
	}
}

func TestIPLimiterSweep(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := newIPLimiter(rate.Limit(1), 1, time.Minute)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	l.allow("10.0.0.1")
	l.allow("10.0.0.2")
	if got := l.size(); got != 2 {
		t.Fatalf("size = %d, want 2", got)
	}

	now = now.Add(30 * time.Second)
	l.allow("10.0.0.2")

	now = now.Add(45 * time.Second)
	l.allow("10.0.0.3")

	// 10.0.0.1 has been idle for 75s and is dropped; 10.0.0.2 was seen 45s ago.
	if got := l.size(); got != 2 {
		t.Errorf("size after sweep = %d, want 2", got)
	}

	ok, wait := l.allow("10.0.0.3")
	if ok {
		t.Error("second immediate request should be limited")
	}
	if wait <= 0 || wait > time.Second {
		t.Errorf("wait = %v, want (0, 1s]", wait)
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "1"},
		{200 * time.Millisecond, "1"},
		{1400 * time.Millisecond, "1"},
		{2600 * time.Millisecond, "3"},
	}
	for _, tt := range tests {
		if got := retryAfterSeconds(tt.d); got != tt.want {
			t.Errorf("retryAfterSeconds(%v) = %s, want %s", tt.d, got, tt.want)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"remote addr", "192.168.1.1:12345", "", "", "192.168.1.1"},
		{"ipv6 remote addr", "[::1]:8080", "", "", "::1"},
		{"no port", "192.168.1.1", "", "", "192.168.1.1"},
		{"x-forwarded-for first hop", "10.0.0.1:1", "203.0.113.5, 10.0.0.2", "", "203.0.113.5"},
		{"x-real-ip", "10.0.0.1:1", "", "198.51.100.7", "198.51.100.7"},
		{"xff wins over x-real-ip", "10.0.0.1:1", "203.0.113.5", "198.51.100.7", "203.0.113.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMetrics(t *testing.T) {
	obs := &fakeObserver{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /patients/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := Metrics(obs)(mux)

	for _, target := range []string{"/patients/P1", "/patients/P2", "/nowhere"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", target, nil))
	}

	got := obs.all()
	want := []observation{
		{"GET", "/patients/{id}", http.StatusNoContent},
		{"GET", "/patients/{id}", http.StatusNoContent},
		{"GET", "unmatched", http.StatusNotFound},
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("observations = %v, want %v", got, want)
	}
}

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"", "unmatched"},
		{"GET /patient/{id}", "/patient/{id}"},
		{"/", "/"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		req.Pattern = tt.pattern
		if got := routeLabel(req); got != tt.want {
			t.Errorf("routeLabel(%q) = %q, want %q", tt.pattern, got, tt.want)
		}
	}
}

func TestAudit(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		errorCode string
		wantLevel string
	}{
		{"success", http.StatusOK, "", "info"},
		{"client error", http.StatusGone, "HQ-QR-4010", "warn"},
		{"server error", http.StatusInternalServerError, "HQ-SYS-5000", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &recordingLogger{}
			h := Audit(l)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if tt.errorCode != "" {
					w.Header().Set("X-Error-Code", tt.errorCode)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			}))

			req := httptest.NewRequest("GET", "/patient/P1?code=secret-token", nil)
			h.ServeHTTP(httptest.NewRecorder(), req)

			entry := l.last()
			if entry.level != tt.wantLevel {
				t.Errorf("level = %s, want %s", entry.level, tt.wantLevel)
			}
			if path, _ := entry.attr("path"); path != "/patient/P1" {
				t.Errorf("path = %v", path)
			}
			if status, _ := entry.attr("status"); status != tt.status {
				t.Errorf("status = %v, want %d", status, tt.status)
			}
			if n, _ := entry.attr("bytes"); n != 4 {
				t.Errorf("bytes = %v, want 4", n)
			}
			code, ok := entry.attr("error_code")
			if tt.errorCode != "" && code != tt.errorCode {
				t.Errorf("error_code = %v, want %s", code, tt.errorCode)
			}
			if tt.errorCode == "" && ok {
				t.Errorf("unexpected error_code %v", code)
			}
			for _, a := range entry.args {
				if s, ok := a.(string); ok && strings.Contains(s, "secret-token") {
					t.Errorf("query string leaked into audit log: %q", s)
				}
			}
		})
	}
}

func TestResponseWriter(t *testing.T) {
	t.Run("captures first status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := wrapResponseWriter(rec)

		rw.WriteHeader(http.StatusCreated)
		rw.WriteHeader(http.StatusBadRequest)

		if rw.statusCode != http.StatusCreated {
			t.Errorf("statusCode = %d, want 201", rw.statusCode)
		}
	})

	t.Run("defaults to 200 and counts bytes", func(t *testing.T) {
		rw := wrapResponseWriter(httptest.NewRecorder())

		_, _ = rw.Write([]byte("hello"))
		_, _ = rw.Write([]byte(" world"))

		if rw.statusCode != http.StatusOK {
			t.Errorf("statusCode = %d", rw.statusCode)
		}
		if rw.written != 11 {
			t.Errorf("written = %d, want 11", rw.written)
		}
	})

	t.Run("does not double wrap", func(t *testing.T) {
		rw := wrapResponseWriter(httptest.NewRecorder())
		if wrapResponseWriter(rw) != rw {
			t.Error("wrapped writer was wrapped again")
		}
	})

	t.Run("unwraps for response controller", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := wrapResponseWriter(rec)
		if err := http.NewResponseController(rw).Flush(); err != nil {
			t.Errorf("Flush through wrapper: %v", err)
		}
		if !rec.Flushed {
			t.Error("underlying recorder not flushed")
		}
	})
}
