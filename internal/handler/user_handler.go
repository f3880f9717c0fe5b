package handlers

import (
	"net/http"

	"archivePortal/internal/models"
	"archivePortal/internal/repository"
)

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, err := h.UserService.List(r.Context(), repository.UserFilter{
		Role:               models.Role(q.Get("role")),
		VerificationStatus: models.VerificationStatus(q.Get("verification")),
		Search:             q.Get("q"),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, users, http.StatusOK)
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.UserService.Get(r.Context(), pathID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, user, http.StatusOK)
}

func (h *Handlers) PromoteUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.UserService.Promote(r.Context(), pathID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, user, http.StatusOK)
}

func (h *Handlers) DemoteUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.UserService.Demote(r.Context(), identity(r).UserID, pathID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, user, http.StatusOK)
}

func (h *Handlers) SuspendUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.UserService.Suspend(r.Context(), identity(r).UserID, pathID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, user, http.StatusOK)
}
