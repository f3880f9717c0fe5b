package app

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"archivePortal/internal/config"
	handlers "archivePortal/internal/handler"
	"archivePortal/internal/middleware"
	"archivePortal/internal/models"
)

// NewRouter registers every route and wraps the router in the shared middleware.
func NewRouter(h *handlers.Handlers, parser middleware.TokenParser, cfg *config.Config, logger *zap.Logger) http.Handler {
	r := mux.NewRouter()
	authed := func(f http.HandlerFunc) http.Handler { return middleware.RequireAuth(f) }

	r.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	api.Handle("/me", authed(h.GetCurrentUser)).Methods(http.MethodGet)
	api.Handle("/me", authed(h.UpdateCurrentUser)).Methods(http.MethodPut)

	api.HandleFunc("/explore", h.Explore).Methods(http.MethodGet)
	api.HandleFunc("/explore/{id}", h.ExploreItem).Methods(http.MethodGet)

	api.Handle("/uploads", authed(h.UploadFile)).Methods(http.MethodPost)
	api.Handle("/submissions", authed(h.CreateSubmission)).Methods(http.MethodPost)
	api.Handle("/submissions", authed(h.ListOwnSubmissions)).Methods(http.MethodGet)
	api.Handle("/submissions/stats", authed(h.SubmissionStats)).Methods(http.MethodGet)
	api.Handle("/submissions/{id}", authed(h.GetOwnSubmission)).Methods(http.MethodGet)
	api.Handle("/submissions/{id}", authed(h.ResubmitSubmission)).Methods(http.MethodPut)
	api.Handle("/submissions/{id}", authed(h.DeleteSubmission)).Methods(http.MethodDelete)
	api.Handle("/verification", authed(h.SubmitVerification)).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(mux.MiddlewareFunc(middleware.CurrentAccount(h.UserService, logger)))
	admin.Use(middleware.RoleMiddleware(models.RoleAdmin))
	admin.HandleFunc("/queue", h.ModerationQueue).Methods(http.MethodGet)
	admin.HandleFunc("/submissions/{id}", h.ReviewSubmission).Methods(http.MethodGet)
	admin.HandleFunc("/submissions/{id}", h.EditSubmissionMetadata).Methods(http.MethodPatch)
	admin.HandleFunc("/submissions/{id}/history", h.SubmissionHistory).Methods(http.MethodGet)
	admin.HandleFunc("/submissions/{id}/approve", h.ApproveSubmission).Methods(http.MethodPost)
	admin.HandleFunc("/submissions/{id}/reject", h.RejectSubmission).Methods(http.MethodPost)
	admin.HandleFunc("/submissions/{id}/request-info", h.RequestSubmissionInfo).Methods(http.MethodPost)
	admin.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}", h.GetUser).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}/promote", h.PromoteUser).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id}/demote", h.DemoteUser).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id}/suspend", h.SuspendUser).Methods(http.MethodPost)
	admin.HandleFunc("/verifications", h.ListVerifications).Methods(http.MethodGet)
	admin.HandleFunc("/verifications/{id}/approve", h.ApproveVerification).Methods(http.MethodPost)
	admin.HandleFunc("/verifications/{id}/reject", h.RejectVerification).Methods(http.MethodPost)
	admin.HandleFunc("/export", h.Export).Methods(http.MethodGet)
	admin.HandleFunc("/stats", h.AdminStats).Methods(http.MethodGet)
	admin.HandleFunc("/readiness", h.Readiness).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		handlers.WriteError(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		handlers.WriteError(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	return middleware.Chain(
		r,
		middleware.AuthMiddleware(parser),
		middleware.CORSMiddleware(cfg.AllowedOrigin),
		middleware.Recover(logger),
		middleware.LoggingMiddleware(logger),
		middleware.RequestID,
	)
}
