package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Saiguru2554/Health-Link-Qr/internal/core/domain"
)

// handleIssueToken handles POST /qr/tokens.
func (h *Handler) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req IssueTokenRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.PatientID == "" {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrMissingArgument.Code, "patient_id is required", nil)
		return
	}

	// Codes are only issued for registered patients.
	if _, err := h.patients.Get(r.Context(), req.PatientID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	code, err := h.qr.Issue(r.Context(), req.PatientID, req.Minimal)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, issuedToResponse(code, h.qr.MaxAge()))
}

// handleVerifyToken handles POST /qr/tokens/verify.
// A failed verification is a normal 200 response with valid=false.
func (h *Handler) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	var req VerifyTokenRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrMissingArgument.Code, "token is required", nil)
		return
	}

	res := h.qr.Verify(r.Context(), req.Token)
	h.writeJSON(w, r, http.StatusOK, resultToResponse(res))
}

// handleQRImage handles GET /patients/{id}/qr.png?size=&minimal=.
func (h *Handler) handleQRImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	size := h.imageSize
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			h.writeError(w, r, http.StatusBadRequest, domain.ErrInvalidArgument.Code, "size must be a positive integer", nil)
			return
		}
		size = n
	}
	minimal, _ := strconv.ParseBool(r.URL.Query().Get("minimal"))

	if _, err := h.patients.Get(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	_, png, err := h.qr.IssuePNG(r.Context(), id, minimal, size)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// handleScan handles GET /patient/{id}?code=, the link printed in a QR code.
func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	pathID := r.PathValue("id")
	code := rawQueryValue(r, "code")

	out, err := h.resolver.Resolve(r.Context(), pathID, code)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if out.Status != domain.ScanOK {
		h.writeError(w, r, scanHTTPStatus(out.Status), domain.GetErrorCode(out.Status.Err()),
			out.Message(), ScanErrorDetails{Status: string(out.Status), PatientID: pathID})
		return
	}

	p := patientToResponse(out.Patient)
	h.writeJSON(w, r, http.StatusOK, ScanResponse{
		Status:  string(out.Status),
		Message: out.Message(),
		Patient: &p,
		Summary: out.Summary,
	})
}

func scanHTTPStatus(s domain.ScanStatus) int {
	switch s {
	case domain.ScanOK:
		return http.StatusOK
	case domain.ScanExpired:
		return http.StatusGone
	case domain.ScanNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// rawQueryValue returns a query parameter still in its escaped form.
//
// Tokens are carried URL-escaped, and the verifier unescapes them itself.
// Letting net/url decode first would turn a literal '+' into a space.
func rawQueryValue(r *http.Request, key string) string {
	for _, part := range strings.Split(r.URL.RawQuery, "&") {
		if k, v, _ := strings.Cut(part, "="); k == key {
			return v
		}
	}
	return ""
}
