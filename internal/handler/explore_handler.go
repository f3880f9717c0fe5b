package handlers

import (
	"net/http"

	"archivePortal/internal/models"
	"archivePortal/internal/service"
)

// Explore is public; a bearer token only widens what the caller sees.
func (h *Handlers) Explore(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	subs, err := h.ExploreService.List(r.Context(), identity(r), service.ExploreFilter{
		Category: models.Category(q.Get("category")),
		Search:   q.Get("q"),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, subs, http.StatusOK)
}

func (h *Handlers) ExploreItem(w http.ResponseWriter, r *http.Request) {
	sub, err := h.ExploreService.Get(r.Context(), identity(r), pathID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, sub, http.StatusOK)
}
