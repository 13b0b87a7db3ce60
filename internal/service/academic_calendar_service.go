package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-registry-api/internal/models"
	appErrors "github.com/noah-isme/sma-registry-api/pkg/errors"
)

type termReader interface {
	FindByID(ctx context.Context, id string) (*models.AcademicTerm, error)
}

type sessionReader interface {
	FindByID(ctx context.Context, id string) (*models.AcademicSession, error)
}

// AcademicCalendarConfig names the configured current term and session.
type AcademicCalendarConfig struct {
	CurrentTermID    string
	CurrentSessionID string
}

// AcademicCalendarService resolves the current academic period.
type AcademicCalendarService struct {
	terms    termReader
	sessions sessionReader
	cfg      AcademicCalendarConfig
	logger   *zap.Logger
}

// NewAcademicCalendarService constructs the calendar service.
func NewAcademicCalendarService(terms termReader, sessions sessionReader, cfg AcademicCalendarConfig, logger *zap.Logger) *AcademicCalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcademicCalendarService{terms: terms, sessions: sessions, cfg: cfg, logger: logger}
}

// Current returns the configured term and session. Unset or stale ids yield nil entries.
func (s *AcademicCalendarService) Current(ctx context.Context) (*models.CurrentAcademicPeriod, error) {
	period := &models.CurrentAcademicPeriod{}

	if s.cfg.CurrentTermID != "" {
		term, err := s.terms.FindByID(ctx, s.cfg.CurrentTermID)
		switch {
		case err == nil:
			period.Term = term
		case errors.Is(err, sql.ErrNoRows):
			s.logger.Warn("configured current term not found", zap.String("term_id", s.cfg.CurrentTermID))
		default:
			return nil, appErrors.Internal(err, "failed to load current term")
		}
	}

	if s.cfg.CurrentSessionID != "" {
		session, err := s.sessions.FindByID(ctx, s.cfg.CurrentSessionID)
		switch {
		case err == nil:
			period.Session = session
		case errors.Is(err, sql.ErrNoRows):
			s.logger.Warn("configured current session not found", zap.String("session_id", s.cfg.CurrentSessionID))
		default:
			return nil, appErrors.Internal(err, "failed to load current session")
		}
	}

	return period, nil
}
