package handler

import (
	"net/http"

	"github.com/Saiguru2554/Health-Link-Qr/internal/core/domain"
	"github.com/Saiguru2554/Health-Link-Qr/internal/core/service"
)

// handleRegisterPatient handles POST /patients.
func (h *Handler) handleRegisterPatient(w http.ResponseWriter, r *http.Request) {
	var req RegisterPatientRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	p, err := h.patients.Register(r.Context(), &service.RegisterPatientRequest{
		ID:               req.ID,
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		BloodGroup:       req.BloodGroup,
		Gender:           req.Gender,
		Address:          req.Address,
		Photo:            req.Photo,
		EmergencyContact: req.EmergencyContact,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", "/patients/"+p.ID)
	h.writeJSON(w, r, http.StatusCreated, patientToResponse(p))
}

// handleGetPatient handles GET /patients/{id}.
func (h *Handler) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	p, err := h.patients.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, patientToResponse(p))
}

// handleListPatients handles GET /patients.
func (h *Handler) handleListPatients(w http.ResponseWriter, r *http.Request) {
	list, err := h.patients.List(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	items := make([]PatientResponse, 0, len(list))
	for _, p := range list {
		items = append(items, patientToResponse(p))
	}
	h.writeJSON(w, r, http.StatusOK, ListPatientsResponse{Items: items, Total: len(items)})
}

// handleUpdatePatient handles PATCH /patients/{id}.
func (h *Handler) handleUpdatePatient(w http.ResponseWriter, r *http.Request) {
	var req UpdatePatientRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	p, err := h.patients.Update(r.Context(), r.PathValue("id"), &service.UpdatePatientRequest{
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		BloodGroup:       req.BloodGroup,
		Gender:           req.Gender,
		Address:          req.Address,
		Photo:            req.Photo,
		EmergencyContact: req.EmergencyContact,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, patientToResponse(p))
}

// handleDeletePatient handles DELETE /patients/{id}.
func (h *Handler) handleDeletePatient(w http.ResponseWriter, r *http.Request) {
	if err := h.patients.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]bool{"deleted": true})
}

// handleAddReport handles POST /patients/{id}/reports.
func (h *Handler) handleAddReport(w http.ResponseWriter, r *http.Request) {
	var req AddReportRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	report, err := h.patients.AddReport(r.Context(), r.PathValue("id"), domain.MedicalReport{
		Date:       req.Date,
		DoctorName: req.DoctorName,
		Diagnosis:  req.Diagnosis,
		Treatment:  req.Treatment,
		FollowUp:   req.FollowUp,
		Notes:      req.Notes,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, report)
}
