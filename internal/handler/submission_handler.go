package handlers

import (
	"errors"
	"net/http"

	"archivePortal/internal/apperr"
	"archivePortal/internal/models"
	"archivePortal/internal/wizard"
)

// multipartOverhead leaves room for form fields around the file part.
const multipartOverhead = 1 << 20

func (h *Handlers) UploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Cfg.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeServiceError(w, r, apperr.NewValidation("file", "file is larger than the upload limit"))
			return
		}
		h.writeServiceError(w, r, apperr.NewValidation("file", "expected a multipart upload"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeServiceError(w, r, apperr.NewValidation("file", "is required"))
		return
	}
	defer file.Close()

	att, err := h.SubmissionService.UploadAttachment(r.Context(), identity(r).UserID, header.Filename, file, header.Size)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, att, http.StatusCreated)
}

func (h *Handlers) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	var draft wizard.Draft
	if err := h.decode(r, &draft); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	sub, err := h.SubmissionService.Submit(r.Context(), identity(r).UserID, draft)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, sub, http.StatusCreated)
}

func (h *Handlers) ListOwnSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.SubmissionService.ListOwn(r.Context(), identity(r).UserID, models.Status(r.URL.Query().Get("status")))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, subs, http.StatusOK)
}

func (h *Handlers) SubmissionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.SubmissionService.Stats(r.Context(), identity(r).UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, stats, http.StatusOK)
}

func (h *Handlers) GetOwnSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := h.SubmissionService.GetOwn(r.Context(), identity(r).UserID, pathID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, sub, http.StatusOK)
}

// ResubmitSubmission answers an information request with an edited draft.
func (h *Handlers) ResubmitSubmission(w http.ResponseWriter, r *http.Request) {
	var draft wizard.Draft
	if err := h.decode(r, &draft); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	sub, err := h.SubmissionService.Resubmit(r.Context(), identity(r).UserID, pathID(r), draft)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, sub, http.StatusOK)
}

func (h *Handlers) DeleteSubmission(w http.ResponseWriter, r *http.Request) {
	if err := h.SubmissionService.Delete(r.Context(), identity(r).UserID, pathID(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
