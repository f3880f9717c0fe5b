package handlers

import (
	"net/http"
	"strconv"

	"archivePortal/internal/models"
	"archivePortal/internal/service"
)

type ReasonRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

type MessageRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

func (h *Handlers) ModerationQueue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	includeNeedsInfo, _ := strconv.ParseBool(q.Get("includeNeedsInfo"))

	subs, err := h.ModerationService.ListQueue(r.Context(), service.QueueFilter{
		Category:         models.Category(q.Get("category")),
		Search:           q.Get("q"),
		IncludeNeedsInfo: includeNeedsInfo,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, subs, http.StatusOK)
}

func (h *Handlers) ReviewSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := h.ModerationService.ReviewDetail(r.Context(), pathID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, sub, http.StatusOK)
}

func (h *Handlers) EditSubmissionMetadata(w http.ResponseWriter, r *http.Request) {
	var patch service.MetadataPatch
	if err := h.decode(r, &patch); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	sub, err := h.ModerationService.EditMetadata(r.Context(), pathID(r), identity(r).UserID, patch)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, sub, http.StatusOK)
}

func (h *Handlers) SubmissionHistory(w http.ResponseWriter, r *http.Request) {
	events, err := h.ModerationService.History(r.Context(), pathID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, events, http.StatusOK)
}

func (h *Handlers) ApproveSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := h.ModerationService.Approve(r.Context(), pathID(r), identity(r).UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, sub, http.StatusOK)
}

func (h *Handlers) RejectSubmission(w http.ResponseWriter, r *http.Request) {
	var req ReasonRequest
	if err := h.decode(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	sub, err := h.ModerationService.Reject(r.Context(), pathID(r), identity(r).UserID, req.Reason)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, sub, http.StatusOK)
}

func (h *Handlers) RequestSubmissionInfo(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := h.decode(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	sub, err := h.ModerationService.RequestInfo(r.Context(), pathID(r), identity(r).UserID, req.Message)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, sub, http.StatusOK)
}
