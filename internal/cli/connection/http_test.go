package connection

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewHTTPClient(t *testing.T) {
	tests := []struct {
		name   string
		server string
		want   string
	}{
		{"with http prefix", "http://localhost:5080", "http://localhost:5080"},
		{"with https prefix", "https://health.example.org", "https://health.example.org"},
		{"without prefix", "localhost:5080", "http://localhost:5080"},
		{"trailing slash", "http://localhost:5080/", "http://localhost:5080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewHTTPClient(tt.server).BaseURL(); got != tt.want {
				t.Errorf("BaseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHTTPClient_Options(t *testing.T) {
	c := NewHTTPClient("localhost:5080", WithTimeout(3*time.Second))
	if c.client.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v", c.client.Timeout)
	}

	hc := &http.Client{}
	c = NewHTTPClient("localhost:5080", WithHTTPClient(hc), WithTimeout(0))
	if c.client != hc {
		t.Error("WithHTTPClient was not applied")
	}
	if c.client.Timeout != 0 {
		t.Error("zero WithTimeout should not change the timeout")
	}
}

func TestHTTPClient_Requests(t *testing.T) {
	type seenRequest struct {
		method, path, rawQuery, contentType, userAgent, body string
	}
	var seen seenRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = seenRequest{
			method:      r.Method,
			path:        r.URL.Path,
			rawQuery:    r.URL.RawQuery,
			contentType: r.Header.Get("Content-Type"),
			userAgent:   r.Header.Get("User-Agent"),
			body:        string(body),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"OK","message":"Success","data":{"id":"P1"}}`))
	}))
	defer server.Close()

	c := NewHTTPClient(server.URL)
	ctx := context.Background()

	t.Run("get", func(t *testing.T) {
		resp, err := c.Get(ctx, "/patients/P1")
		if err != nil {
			t.Fatal(err)
		}
		var data struct {
			ID string `json:"id"`
		}
		if err := ParseResponse(resp, &data); err != nil {
			t.Fatal(err)
		}
		if data.ID != "P1" {
			t.Errorf("data.ID = %q", data.ID)
		}
		if seen.method != http.MethodGet || seen.path != "/patients/P1" {
			t.Errorf("unexpected request %+v", seen)
		}
		if !strings.HasPrefix(seen.userAgent, "healthqr-cli/") {
			t.Errorf("User-Agent = %q", seen.userAgent)
		}
		if seen.contentType != "" {
			t.Errorf("GET sent Content-Type %q", seen.contentType)
		}
	})

	t.Run("post", func(t *testing.T) {
		resp, err := c.Post(ctx, "/qr/tokens", map[string]string{"patient_id": "P1"})
		if err != nil {
			t.Fatal(err)
		}
		if err := ParseResponse(resp, nil); err != nil {
			t.Fatal(err)
		}
		if seen.method != http.MethodPost || seen.contentType != "application/json" {
			t.Errorf("unexpected request %+v", seen)
		}
		if seen.body != `{"patient_id":"P1"}` {
			t.Errorf("body = %s", seen.body)
		}
	})

	t.Run("patch and delete", func(t *testing.T) {
		resp, err := c.Patch(ctx, "/patients/P1", map[string]string{"name": "A"})
		if err != nil {
			t.Fatal(err)
		}
		_ = ParseResponse(resp, nil)
		if seen.method != http.MethodPatch {
			t.Errorf("method = %s", seen.method)
		}

		resp, err = c.Delete(ctx, "/patients/P1")
		if err != nil {
			t.Fatal(err)
		}
		_ = ParseResponse(resp, nil)
		if seen.method != http.MethodDelete || seen.body != "" {
			t.Errorf("unexpected request %+v", seen)
		}
	})

	t.Run("absolute url keeps raw query", func(t *testing.T) {
		code := "eyJwYXRpZW50SWQiOiJQMSJ9%3D%3D+x"
		resp, err := c.Do(ctx, http.MethodGet, server.URL+"/patient/P1?code="+code, nil)
		if err != nil {
			t.Fatal(err)
		}
		_ = ParseResponse(resp, nil)
		if seen.rawQuery != "code="+code {
			t.Errorf("RawQuery = %q", seen.rawQuery)
		}
	})
}

func TestParseResponse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantMsg  string
	}{
		{
			name:     "envelope",
			status:   http.StatusGone,
			body:     `{"code":"HQ-QR-4010","message":"QR code expired","request_id":"req-1","details":{"status":"expired"}}`,
			wantCode: "HQ-QR-4010",
			wantMsg:  "[HQ-QR-4010] QR code expired",
		},
		{
			name:    "not json",
			status:  http.StatusBadGateway,
			body:    "upstream down",
			wantMsg: "request failed with status 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			rec.WriteHeader(tt.status)
			_, _ = rec.WriteString(tt.body)

			err := ParseResponse(rec.Result(), nil)
			apiErr, ok := err.(*APIError)
			if !ok {
				t.Fatalf("expected *APIError, got %T %v", err, err)
			}
			if apiErr.Code != tt.wantCode || apiErr.Error() != tt.wantMsg {
				t.Errorf("got %q / %q", apiErr.Code, apiErr.Error())
			}
			if !IsStatus(err, tt.status) {
				t.Errorf("IsStatus(%d) = false", tt.status)
			}
		})
	}

	t.Run("details kept", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rec.WriteHeader(http.StatusNotFound)
		_, _ = rec.WriteString(`{"code":"HQ-PAT-4040","message":"Patient not found","details":{"status":"not_found","patient_id":"P9"}}`)

		err := ParseResponse(rec.Result(), nil)
		var details struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(err.(*APIError).Details, &details); err != nil {
			t.Fatal(err)
		}
		if details.Status != "not_found" {
			t.Errorf("details.Status = %q", details.Status)
		}
	})

	t.Run("bad success body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		_, _ = rec.WriteString("{")
		if err := ParseResponse(rec.Result(), nil); err == nil || IsStatus(err, 200) {
			t.Errorf("expected parse error, got %v", err)
		}
	})
}

func TestReadBody(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Set("Content-Type", "image/png")
	_, _ = rec.Write([]byte{0x89, 'P', 'N', 'G'})

	data, err := ReadBody(rec.Result())
	if err != nil {
		t.Fatal(err)
	}
	if string(data[1:]) != "PNG" {
		t.Errorf("body = %q", data)
	}

	rec = httptest.NewRecorder()
	rec.WriteHeader(http.StatusNotFound)
	_, _ = rec.WriteString(`{"code":"HQ-PAT-4040","message":"Patient not found"}`)
	if _, err := ReadBody(rec.Result()); !IsStatus(err, http.StatusNotFound) {
		t.Errorf("expected 404 APIError, got %v", err)
	}
}
