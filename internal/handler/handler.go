package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"archivePortal/internal/apperr"
	"archivePortal/internal/config"
	"archivePortal/internal/service"
	"archivePortal/internal/session"
)

// HealthChecker is satisfied by *database.DB; nil means no database to check.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Handlers struct {
	AuthService         service.AuthService
	UserService         service.UserService
	SubmissionService   service.SubmissionService
	ModerationService   service.ModerationService
	VerificationService service.VerificationService
	ExploreService      service.ExploreService
	ExportService       service.ExportService
	StatsService        service.StatsService
	Health              HealthChecker
	Cfg                 *config.Config
	Validate            *validator.Validate
	logger              *zap.Logger
}

func NewHandlers(services *service.Service, health HealthChecker, cfg *config.Config, logger *zap.Logger) *Handlers {
	return &Handlers{
		AuthService:         services.Auth,
		UserService:         services.User,
		SubmissionService:   services.Submission,
		ModerationService:   services.Moderation,
		VerificationService: services.Verification,
		ExploreService:      services.Explore,
		ExportService:       services.Export,
		StatsService:        services.Stats,
		Health:              health,
		Cfg:                 cfg,
		Validate:            newValidator(),
		logger:              logger,
	}
}

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and runs struct validation on it.
func (h *Handlers) decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.NewValidation("body", "invalid JSON: "+err.Error())
	}
	return h.validate(dst)
}

func (h *Handlers) validate(dst interface{}) error {
	err := h.Validate.Struct(dst)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate request: %w", err)
	}

	v := &apperr.ValidationError{}
	for _, fe := range fieldErrs {
		v.Add(fe.Field(), validationMessage(fe))
	}
	return v
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "datetime":
		return "must be a date in the format " + fe.Param()
	default:
		return "is invalid"
	}
}

// identity returns the caller; routes behind the auth middleware always have one.
func identity(r *http.Request) *session.Identity {
	return session.FromContext(r.Context())
}

func pathID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "database": "in-memory"}
	if h.Health != nil {
		if err := h.Health.HealthCheck(r.Context()); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			writeSuccess(w, map[string]string{"status": "unavailable", "database": "down"}, http.StatusServiceUnavailable)
			return
		}
		status["database"] = "up"
	}
	writeSuccess(w, status, http.StatusOK)
}
