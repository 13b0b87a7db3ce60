package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-registry-api/internal/models"
	appErrors "github.com/noah-isme/sma-registry-api/pkg/errors"
	"github.com/noah-isme/sma-registry-api/pkg/export"
)

var rosterHeaders = []string{"username", "first_name", "last_name", "email", "gender", "role", "is_active"}

var unsafeFilename = regexp.MustCompile(`[^a-z0-9]+`)

type rosterSource interface {
	Members(ctx context.Context, classID string) (*models.StudentClass, []models.User, error)
}

// ExportFile is a rendered document ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders class rosters into downloadable documents.
type ExportService struct {
	classes rosterSource
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an export service.
func NewExportService(classes rosterSource, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{classes: classes, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Roster renders the members of a class in the requested format (csv, pdf or xlsx).
func (s *ExportService) Roster(ctx context.Context, classID, rawFormat string) (*ExportFile, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be one of csv, pdf, xlsx")
	}
	renderer, err := export.RendererFor(format)
	if err != nil {
		return nil, appErrors.Internal(err, "export renderer unavailable")
	}

	class, users, err := s.classes.Members(ctx, classID)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	content, err := renderer.Render(rosterDataset(class, users))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render roster")
	}
	s.logger.Info("roster exported",
		zap.String("class_id", class.ID),
		zap.String("format", string(format)),
		zap.Int("rows", len(users)),
		zap.Duration("duration", time.Since(started)),
	)

	return &ExportFile{
		Filename:    fmt.Sprintf("%s-roster-%s.%s", slug(class.Name), s.now().Format("20060102"), format),
		ContentType: renderer.ContentType(),
		Content:     content,
	}, nil
}

func rosterDataset(class *models.StudentClass, users []models.User) export.Dataset {
	title := class.Name
	if class.SchoolName != "" {
		title = fmt.Sprintf("%s - %s", class.SchoolName, class.Name)
	}
	rows := make([]map[string]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, map[string]string{
			"username":   u.Username,
			"first_name": u.FirstName,
			"last_name":  u.LastName,
			"email":      u.Email,
			"gender":     string(u.Gender),
			"role":       string(u.Role),
			"is_active":  fmt.Sprintf("%t", u.IsActive),
		})
	}
	return export.Dataset{Title: title, Headers: rosterHeaders, Rows: rows}
}

func slug(name string) string {
	out := strings.Trim(unsafeFilename.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if out == "" {
		return "class"
	}
	return out
}
