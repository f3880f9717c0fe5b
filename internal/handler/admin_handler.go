package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"archivePortal/internal/service"
)

func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := service.ExportFormat(strings.ToLower(q.Get("format")))
	if format == "" {
		format = service.FormatJSON
	}

	var buf bytes.Buffer
	n, err := h.ExportService.Export(r.Context(), &buf, format, service.ParseFields(q.Get("fields")))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	contentType := "application/json"
	if format == service.FormatCSV {
		contentType = "text/csv; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="archive-export.%s"`, format))
	w.Header().Set("X-Export-Count", strconv.Itoa(n))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("export write interrupted", zap.Error(err))
	}
}

func (h *Handlers) AdminStats(w http.ResponseWriter, r *http.Request) {
	overview, err := h.StatsService.Overview(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, overview, http.StatusOK)
}

func (h *Handlers) Readiness(w http.ResponseWriter, r *http.Request) {
	readiness, err := h.StatsService.Readiness(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, readiness, http.StatusOK)
}
