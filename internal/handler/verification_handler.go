package handlers

import (
	"net/http"

	"archivePortal/internal/apperr"
	"archivePortal/internal/models"
	"archivePortal/internal/service"
)

func (h *Handlers) SubmitVerification(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Cfg.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeServiceError(w, r, apperr.NewValidation("document", "expected a multipart upload within the size limit"))
		return
	}

	form := service.VerificationForm{
		FullName:    r.FormValue("fullName"),
		DateOfBirth: r.FormValue("dateOfBirth"),
		Country:     r.FormValue("country"),
		IDNumber:    r.FormValue("idNumber"),
		Purpose:     r.FormValue("purpose"),
	}
	if err := h.validate(&form); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		h.writeServiceError(w, r, apperr.NewValidation("document", "is required"))
		return
	}
	defer file.Close()

	req, err := h.VerificationService.Submit(r.Context(), identity(r).UserID, form, service.Document{
		Name: header.Filename,
		Body: file,
		Size: header.Size,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, req, http.StatusCreated)
}

func (h *Handlers) ListVerifications(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.VerificationService.List(r.Context(), models.VerificationStatus(r.URL.Query().Get("status")))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, reqs, http.StatusOK)
}

func (h *Handlers) ApproveVerification(w http.ResponseWriter, r *http.Request) {
	req, err := h.VerificationService.Approve(r.Context(), pathID(r), identity(r).UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, req, http.StatusOK)
}

func (h *Handlers) RejectVerification(w http.ResponseWriter, r *http.Request) {
	var body ReasonRequest
	if err := h.decode(r, &body); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	req, err := h.VerificationService.Reject(r.Context(), pathID(r), identity(r).UserID, body.Reason)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, req, http.StatusOK)
}
