package handlers

import (
	"net/http"

	"archivePortal/internal/models"
	"archivePortal/internal/service"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string       `json:"accessToken"`
	User        *models.User `json:"user"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := h.decode(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if _, err := h.AuthService.Register(r.Context(), req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	user, accessToken, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, AuthResponse{AccessToken: accessToken, User: user}, http.StatusCreated)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.decode(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	user, accessToken, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, AuthResponse{AccessToken: accessToken, User: user}, http.StatusOK)
}

func (h *Handlers) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.AuthService.Me(r.Context(), identity(r).UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, user, http.StatusOK)
}

func (h *Handlers) UpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	var req service.ProfileUpdate
	if err := h.decode(r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	user, err := h.UserService.UpdateProfile(r.Context(), identity(r).UserID, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, user, http.StatusOK)
}
