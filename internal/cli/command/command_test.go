package command

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Saiguru2554/Health-Link-Qr/internal/core/service"
	"github.com/Saiguru2554/Health-Link-Qr/internal/server/httpserver"
	"github.com/Saiguru2554/Health-Link-Qr/internal/server/httpserver/handler"
	"github.com/Saiguru2554/Health-Link-Qr/internal/storage"
	"github.com/Saiguru2554/Health-Link-Qr/internal/storage/memory"
	"github.com/Saiguru2554/Health-Link-Qr/internal/telemetry/logger"
	"github.com/Saiguru2554/Health-Link-Qr/pkg/qrtoken"
)

const (
	extendedVector = "eyJwYXRpZW50SWQiOiJQMTIzNDU2MDAxIiwidHlwZSI6InBhdGllbnRfcHJvZmlsZSIsInRpbWVzdGFtcCI6MTcwMDAwMDAwMDAwMCwic2lnbmF0dXJlIjoiVURFeU16UTFOakF3TVRveCIsInZlcnNpb24iOiIxLjAifQ%3D%3D"
	minimalVector  = "eyJwYXRpZW50SWQiOiJQMTIzNDU2MDAxIiwidHlwZSI6InBhdGllbnRfcHJvZmlsZSJ9"
)

// runCLI runs the app with an isolated config file and returns stdout.
func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	if configPath == "" {
		configPath = filepath.Join(t.TempDir(), "cli.yaml")
	}

	var out bytes.Buffer
	app := App()
	app.Writer = &out
	app.ErrWriter = io.Discard

	full := append([]string{"healthqr-cli", "--config", configPath}, args...)
	err := app.Run(full)
	return out.String(), err
}

func decodeJSON(t *testing.T, s string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(s), v); err != nil {
		t.Fatalf("decode %q: %v", s, err)
	}
}

// newTestServer runs the real router over an in-memory store.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo := storage.NewPatientStore(memory.New())
	qr := service.NewQRService(qrtoken.New(), nil)
	srv := httptest.NewServer(httpserver.NewRouter(&httpserver.RouterConfig{
		Handler: handler.Config{
			QR:       qr,
			Resolver: service.NewResolverService(qr, repo, nil),
			Patients: service.NewPatientService(repo, nil),
		},
		Logger: logger.NewNop(),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestApp(t *testing.T) {
	app := App()
	if app.Name != "healthqr-cli" {
		t.Errorf("Name = %q", app.Name)
	}

	commands := make(map[string]bool)
	for _, cmd := range app.Commands {
		commands[cmd.Name] = true
	}
	for _, name := range []string{"token", "patient", "scan", "config"} {
		if !commands[name] {
			t.Errorf("missing command %s", name)
		}
	}

	flags := make(map[string]bool)
	for _, f := range app.Flags {
		flags[f.Names()[0]] = true
	}
	for _, name := range []string{"config", "server", "output", "wide", "timeout", "verbose"} {
		if !flags[name] {
			t.Errorf("missing flag %s", name)
		}
	}
}

func TestTokenEncode(t *testing.T) {
	t.Run("extended vector", func(t *testing.T) {
		out, err := runCLI(t, "", "-o", "json", "token", "encode",
			"--issued-at", "1700000000000", "--base-url", "https://health.example.org/", "P123456001")
		if err != nil {
			t.Fatal(err)
		}

		var v tokenView
		decodeJSON(t, out, &v)
		if v.Token != extendedVector {
			t.Errorf("token = %s", v.Token)
		}
		if v.ScanURL != "https://health.example.org/patient/P123456001?code="+extendedVector {
			t.Errorf("scan_url = %s", v.ScanURL)
		}
		if v.Shape != service.ShapeExtended || v.IssuedAt == nil || v.IssuedAt.UnixMilli() != 1700000000000 {
			t.Errorf("unexpected view %+v", v)
		}
		if v.ExpiresAt == nil || v.ExpiresAt.Sub(*v.IssuedAt) != qrtoken.DefaultMaxAge {
			t.Errorf("expires_at = %v", v.ExpiresAt)
		}
	})

	t.Run("minimal vector", func(t *testing.T) {
		out, err := runCLI(t, "", "-o", "json", "token", "encode", "--minimal", "P123456001")
		if err != nil {
			t.Fatal(err)
		}
		var v tokenView
		decodeJSON(t, out, &v)
		if v.Token != minimalVector || v.IssuedAt != nil || v.Shape != service.ShapeMinimal {
			t.Errorf("unexpected view %+v", v)
		}
		if !strings.HasPrefix(v.ScanURL, "http://127.0.0.1:5080/patient/") {
			t.Errorf("scan_url should use the config default base, got %s", v.ScanURL)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		if _, err := runCLI(t, "", "token", "encode"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("table output", func(t *testing.T) {
		out, err := runCLI(t, "", "token", "encode", "--minimal", "P123456001")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "FIELD") || !strings.Contains(out, minimalVector) {
			t.Errorf("unexpected table:\n%s", out)
		}
	})
}

func TestTokenVerify(t *testing.T) {
	t.Run("fresh token and link", func(t *testing.T) {
		out, err := runCLI(t, "", "-o", "json", "token", "encode", "P123456001")
		if err != nil {
			t.Fatal(err)
		}
		var issued tokenView
		decodeJSON(t, out, &issued)

		for _, arg := range []string{issued.Token, issued.ScanURL} {
			out, err := runCLI(t, "", "-o", "json", "token", "verify", arg)
			if err != nil {
				t.Fatalf("verify %s: %v", arg, err)
			}
			var v verifyView
			decodeJSON(t, out, &v)
			if !v.Valid || v.Expired || v.PatientID != "P123456001" || v.Version != "1.0" {
				t.Errorf("unexpected result %+v", v)
			}
		}
	})

	t.Run("old token is valid but expired", func(t *testing.T) {
		out, err := runCLI(t, "", "-o", "json", "token", "verify", extendedVector)
		if err != nil {
			t.Fatal(err)
		}
		var v verifyView
		decodeJSON(t, out, &v)
		if !v.Valid || !v.Expired || v.Reason != string(qrtoken.ReasonExpired) {
			t.Errorf("unexpected result %+v", v)
		}
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		out, err := runCLI(t, "", "-o", "yaml", "token", "verify", "not-a-token!")
		if err == nil || !strings.Contains(err.Error(), "bad_encoding") {
			t.Errorf("err = %v", err)
		}
		if !strings.Contains(out, "valid: false") {
			t.Errorf("result not printed:\n%s", out)
		}
	})
}

func TestTokenInspect(t *testing.T) {
	out, err := runCLI(t, "", "-o", "json", "token", "inspect", extendedVector)
	if err != nil {
		t.Fatal(err)
	}
	var v inspectView
	decodeJSON(t, out, &v)
	if v.PatientID != "P123456001" || v.Kind != qrtoken.KindPatientProfile || v.Minimal {
		t.Errorf("unexpected view %+v", v)
	}
	if v.IntegrityHint != "UDEyMzQ1NjAwMTox" || v.Version != "1.0" {
		t.Errorf("hint/version = %q/%q", v.IntegrityHint, v.Version)
	}

	if _, err := runCLI(t, "", "token", "inspect", "%zz"); err == nil {
		t.Error("expected error for bad escape")
	}
}

func TestTokenQR(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.png")
	out, err := runCLI(t, "", "-o", "json", "token", "qr", "--out", path, "--size", "128", "P123456001")
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("file is not a PNG")
	}

	var v tokenView
	decodeJSON(t, out, &v)
	if v.File != path {
		t.Errorf("file = %q", v.File)
	}

	if _, err := runCLI(t, "", "token", "qr", "P123456001"); err == nil {
		t.Error("expected error without --out")
	}
}

func TestCodeFromArg(t *testing.T) {
	tests := []struct {
		arg, want string
	}{
		{extendedVector, extendedVector},
		{"https://h.example.org/patient/P1?code=" + extendedVector, extendedVector},
		{"https://h.example.org/patient/P1?x=1&code=ab+c%2B", "ab+c%2B"},
		{"https://h.example.org/patient/P1", ""},
	}
	for _, tt := range tests {
		if got := codeFromArg(tt.arg); got != tt.want {
			t.Errorf("codeFromArg(%q) = %q, want %q", tt.arg, got, tt.want)
		}
	}
}

func TestPatientCommands(t *testing.T) {
	srv := newTestServer(t)
	cfg := filepath.Join(t.TempDir(), "cli.yaml")
	run := func(args ...string) (string, error) {
		return runCLI(t, cfg, append([]string{"--server", srv.URL, "-o", "json"}, args...)...)
	}

	out, err := run("patient", "register", "--id", "P123456001", "--name", "Asha Rao",
		"--email", "asha@example.org", "--blood-group", "O+", "--emergency-name", "Ravi")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	var p patientView
	decodeJSON(t, out, &p)
	if p.ID != "P123456001" || p.Name != "Asha Rao" || p.EmergencyContact == nil || p.EmergencyContact.Name != "Ravi" {
		t.Errorf("unexpected patient %+v", p)
	}

	if _, err := run("patient", "register", "--id", "P123456001", "--name", "Dup"); err == nil ||
		!strings.Contains(err.Error(), "HQ-PAT-4090") {
		t.Errorf("duplicate register err = %v", err)
	}

	out, err = run("patient", "update", "--phone", "+91 98450 00000", "P123456001")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	decodeJSON(t, out, &p)
	if p.Phone != "+91 98450 00000" || p.Name != "Asha Rao" {
		t.Errorf("update result %+v", p)
	}

	if _, err := run("patient", "update", "P123456001"); err == nil {
		t.Error("update without fields should fail")
	}

	out, err = run("patient", "report", "--doctor", "Dr. Mehta", "--diagnosis", "Flu", "--treatment", "Rest", "P123456001")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	var r reportView
	decodeJSON(t, out, &r)
	if r.ID == "" || r.Diagnosis != "Flu" {
		t.Errorf("report %+v", r)
	}

	out, err = run("patient", "get", "P123456001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	decodeJSON(t, out, &p)
	if len(p.MedicalReports) != 1 {
		t.Errorf("reports = %d, want 1", len(p.MedicalReports))
	}

	out, err = run("patient", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var list []patientView
	decodeJSON(t, out, &list)
	if len(list) != 1 || list[0].ID != "P123456001" {
		t.Errorf("list = %+v", list)
	}

	png := filepath.Join(t.TempDir(), "p.png")
	if out, err = run("patient", "qr", "--out", png, "--size", "96", "P123456001"); err != nil {
		t.Fatalf("qr: %v", err)
	}
	if data, _ := os.ReadFile(png); !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Errorf("qr file is not a PNG (output %q)", out)
	}

	if _, err := run("patient", "get", "P999"); err == nil || !strings.Contains(err.Error(), "HQ-PAT-4040") {
		t.Errorf("get missing err = %v", err)
	}

	if out, err = run("patient", "delete", "P123456001"); err != nil || !strings.Contains(out, "deleted") {
		t.Errorf("delete: %q, %v", out, err)
	}
	if _, err := run("patient", "get", "P123456001"); err == nil {
		t.Error("patient still present after delete")
	}
}

func TestScanCommand(t *testing.T) {
	srv := newTestServer(t)
	cfg := filepath.Join(t.TempDir(), "cli.yaml")
	run := func(args ...string) (string, error) {
		return runCLI(t, cfg, append([]string{"--server", srv.URL, "-o", "json"}, args...)...)
	}

	if _, err := run("patient", "register", "--id", "P123456001", "--name", "Asha Rao"); err != nil {
		t.Fatal(err)
	}
	if _, err := run("patient", "report", "--diagnosis", "Flu", "--treatment", "Rest", "P123456001"); err != nil {
		t.Fatal(err)
	}

	out, err := run("token", "encode", "--base-url", srv.URL, "P123456001")
	if err != nil {
		t.Fatal(err)
	}
	var issued tokenView
	decodeJSON(t, out, &issued)

	t.Run("ok by url", func(t *testing.T) {
		out, err := run("scan", issued.ScanURL)
		if err != nil {
			t.Fatal(err)
		}
		var v scanView
		decodeJSON(t, out, &v)
		if v.Status != "ok" || v.PatientID != "P123456001" || v.Patient == nil {
			t.Errorf("unexpected view %+v", v)
		}
		if v.Summary != "Last diagnosis: Flu. Treatment: Rest" {
			t.Errorf("summary = %q", v.Summary)
		}
	})

	t.Run("ok by id and token", func(t *testing.T) {
		if _, err := run("scan", "P123456001", issued.Token); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("mismatch", func(t *testing.T) {
		out, err := run("scan", "P000000002", issued.Token)
		if err == nil || !strings.Contains(err.Error(), "mismatch") {
			t.Fatalf("err = %v", err)
		}
		var v scanView
		decodeJSON(t, out, &v)
		if v.Status != "mismatch" || v.Message == "" {
			t.Errorf("unexpected view %+v", v)
		}
	})

	t.Run("expired", func(t *testing.T) {
		_, err := run("scan", srv.URL+"/patient/P123456001?code="+extendedVector)
		if err == nil || !strings.Contains(err.Error(), "expired") {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("bad arguments", func(t *testing.T) {
		if _, err := run("scan"); err == nil {
			t.Error("expected error with no arguments")
		}
		if _, err := run("scan", "P123456001"); err == nil {
			t.Error("expected error for a bare id")
		}
	})
}

func TestConfigCommands(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "nested", "cli.yaml")

	out, err := runCLI(t, cfg, "config", "path")
	if err != nil || strings.TrimSpace(out) != cfg {
		t.Fatalf("path = %q, %v", out, err)
	}

	if _, err := runCLI(t, cfg, "config", "set", "output", "json"); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, cfg, "config", "set", "base_url", "https://health.example.org"); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, cfg, "config", "set", "output", "xml"); err == nil {
		t.Error("expected error for invalid output")
	}

	out, err = runCLI(t, cfg, "config", "get", "output")
	if err != nil || strings.TrimSpace(out) != "json" {
		t.Errorf("get output = %q, %v", out, err)
	}

	// The saved defaults now apply without flags.
	out, err = runCLI(t, cfg, "token", "encode", "--minimal", "P123456001")
	if err != nil {
		t.Fatal(err)
	}
	var v tokenView
	decodeJSON(t, out, &v)
	if !strings.HasPrefix(v.ScanURL, "https://health.example.org/patient/") {
		t.Errorf("scan_url = %s", v.ScanURL)
	}

	out, err = runCLI(t, cfg, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	var rows []settingRow
	decodeJSON(t, out, &rows)
	if len(rows) != 4 || rows[0].Key != "server" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestParseGlobalFlags_InvalidOutput(t *testing.T) {
	if _, err := runCLI(t, "", "-o", "xml", "token", "encode", "P1"); err == nil {
		t.Error("expected error for unknown output format")
	}
}
