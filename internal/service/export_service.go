package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"archivePortal/internal/apperr"
	"archivePortal/internal/models"
	"archivePortal/internal/repository"
)

type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
)

// ExportFields is every field an export may include, in default column order.
var ExportFields = []string{"title", "description", "category", "date", "location", "tags", "contributor", "metadata"}

type ExportService interface {
	// Export writes a snapshot of the approved archive to w.
	Export(ctx context.Context, w io.Writer, format ExportFormat, fields []string) (int, error)
}

type exportService struct {
	subRepo  repository.SubmissionRepository
	userRepo repository.UserRepository
}

func NewExportService(subRepo repository.SubmissionRepository, userRepo repository.UserRepository) ExportService {
	return &exportService{
		subRepo:  subRepo,
		userRepo: userRepo,
	}
}

// ParseFields splits a comma separated field list; blank entries are dropped.
func ParseFields(s string) []string {
	var fields []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

func checkExportRequest(format ExportFormat, fields []string) ([]string, error) {
	v := &apperr.ValidationError{}
	if format != FormatJSON && format != FormatCSV {
		v.Add("format", "must be json or csv")
	}
	if len(fields) == 0 {
		v.Add("fields", "select at least one field")
	}

	known := make(map[string]bool, len(ExportFields))
	for _, f := range ExportFields {
		known[f] = true
	}
	seen := make(map[string]bool, len(fields))
	var out []string
	for _, f := range fields {
		if !known[f] {
			v.Add("fields", "unknown field "+strconv.Quote(f))
			continue
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, v.OrNil()
}

type exportMetadata struct {
	ID             string `json:"id"`
	PrivacyLevel   string `json:"privacyLevel"`
	Coordinates    string `json:"coordinates,omitempty"`
	RelatedPersons string `json:"relatedPersons,omitempty"`
	Attachments    int    `json:"attachments"`
	SubmittedAt    string `json:"submittedAt,omitempty"`
}

func (s *exportService) Export(ctx context.Context, w io.Writer, format ExportFormat, fields []string) (int, error) {
	fields, err := checkExportRequest(format, fields)
	if err != nil {
		return 0, err
	}

	subs, err := s.subRepo.List(ctx, repository.SubmissionFilter{Statuses: []models.Status{models.StatusApproved}})
	if err != nil {
		return 0, err
	}

	contributors := make(map[string]string)
	contributor := func(ownerID string) string {
		if name, ok := contributors[ownerID]; ok {
			return name
		}
		name := ""
		if user, err := s.userRepo.GetUserByID(ctx, ownerID); err == nil {
			name = user.DisplayName
		}
		contributors[ownerID] = name
		return name
	}

	value := func(sub *models.Submission, field string) any {
		switch field {
		case "title":
			return sub.Title
		case "description":
			return sub.ShortDescription
		case "category":
			return string(sub.Category)
		case "date":
			return sub.DateLabel()
		case "location":
			return sub.Location
		case "tags":
			return append([]string{}, sub.Tags...)
		case "contributor":
			return contributor(sub.OwnerID)
		default:
			m := exportMetadata{
				ID:             sub.SubmissionID,
				PrivacyLevel:   string(sub.PrivacyLevel),
				Coordinates:    sub.Coordinates,
				RelatedPersons: sub.RelatedPersons,
				Attachments:    len(sub.Attachments),
			}
			if sub.SubmittedAt != nil {
				m.SubmittedAt = sub.SubmittedAt.UTC().Format("2006-01-02T15:04:05Z")
			}
			return m
		}
	}

	switch format {
	case FormatJSON:
		rows := make([]map[string]any, 0, len(subs))
		for _, sub := range subs {
			row := make(map[string]any, len(fields))
			for _, f := range fields {
				row[f] = value(sub, f)
			}
			rows = append(rows, row)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return 0, fmt.Errorf("error writing json export: %w", err)
		}

	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(fields); err != nil {
			return 0, fmt.Errorf("error writing csv export: %w", err)
		}
		for _, sub := range subs {
			record := make([]string, len(fields))
			for i, f := range fields {
				record[i], err = csvCell(value(sub, f))
				if err != nil {
					return 0, err
				}
			}
			if err := cw.Write(record); err != nil {
				return 0, fmt.Errorf("error writing csv export: %w", err)
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return 0, fmt.Errorf("error writing csv export: %w", err)
		}
	}

	return len(subs), nil
}

func csvCell(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []string:
		return strings.Join(val, ";"), nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", fmt.Errorf("error encoding csv cell: %w", err)
		}
		return string(b), nil
	}
}
