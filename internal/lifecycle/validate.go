package lifecycle

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"archivePortal/internal/apperr"
	"archivePortal/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.Category(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("privacy", func(fl validator.FieldLevel) bool {
		return models.PrivacyLevel(fl.Field().String()).Valid()
	})
	return v
}

// submissionContent mirrors the fields a submission needs before it can enter the queue.
type submissionContent struct {
	Title            string `validate:"required,max=200"`
	ShortDescription string `validate:"required,max=500"`
	Category         string `validate:"required,category"`
	PrivacyLevel     string `validate:"required,privacy"`
	Attachments      int    `validate:"min=1,max=10"`
}

var fieldNames = map[string]string{
	"Title":            "title",
	"ShortDescription": "shortDescription",
	"Category":         "category",
	"PrivacyLevel":     "privacyLevel",
	"Attachments":      "attachments",
}

func validateContent(sub *models.Submission) *apperr.ValidationError {
	content := submissionContent{
		Title:            strings.TrimSpace(sub.Title),
		ShortDescription: strings.TrimSpace(sub.ShortDescription),
		Category:         string(sub.Category),
		PrivacyLevel:     string(sub.PrivacyLevel),
		Attachments:      len(sub.Attachments),
	}

	result := &apperr.ValidationError{}
	err := validate.Struct(content)
	if err == nil {
		return result
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		result.Add("submission", err.Error())
		return result
	}
	for _, fe := range fieldErrs {
		result.Add(fieldNames[fe.StructField()], message(fe))
	}
	return result
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "category":
		return "unknown category"
	case "privacy":
		return "unknown privacy level"
	case "min":
		if fe.StructField() == "Attachments" {
			return "at least one file is required"
		}
		return "is too short"
	case "max":
		if fe.StructField() == "Attachments" {
			return "no more than 10 files are allowed"
		}
		return "is too long"
	default:
		return "is invalid"
	}
}

// ValidateContent checks the descriptive fields of sub without touching its status.
func ValidateContent(sub *models.Submission) error {
	return validateContent(sub).OrNil()
}
