package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-registry-api/internal/models"
)

type academicSessionRepository interface {
	List(ctx context.Context, filter models.NameFilter) ([]models.AcademicSession, int, error)
	FindByID(ctx context.Context, id string) (*models.AcademicSession, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, item *models.AcademicSession) error
	Update(ctx context.Context, item *models.AcademicSession) error
	Delete(ctx context.Context, id string) error
}

// AcademicSessionService handles academic session domain workflows.
type AcademicSessionService struct {
	repo      academicSessionRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAcademicSessionService creates a new academic session service. cache and metrics may be nil.
func NewAcademicSessionService(repo academicSessionRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AcademicSessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcademicSessionService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// List returns paginated academic sessions ordered by name unless another sort is requested.
func (s *AcademicSessionService) List(ctx context.Context, filter models.NameFilter) ([]models.AcademicSession, ListInfo, error) {
	key := cacheKey(cachePrefixSessions, "list", filter.Search, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)
	items, total, hit, err := cachedList(ctx, s.cache, s.metrics, key, "academic_sessions_list", func() ([]models.AcademicSession, int, error) {
		return s.repo.List(ctx, filter)
	})
	if err != nil {
		return nil, ListInfo{}, lookupError(err, "academic sessions")
	}
	return items, ListInfo{Pagination: pagination(filter.Page, filter.PageSize, total), CacheHit: hit}, nil
}

// Get returns academic session by identifier.
func (s *AcademicSessionService) Get(ctx context.Context, id string) (*models.AcademicSession, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "academic session")
	}
	return item, nil
}

// Create adds a new academic session ensuring name uniqueness.
func (s *AcademicSessionService) Create(ctx context.Context, req models.NameRequest) (*models.AcademicSession, error) {
	name, err := s.checkName(ctx, req, "")
	if err != nil {
		return nil, err
	}

	item := &models.AcademicSession{Name: name}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, writeError(err, "academic session", "create")
	}
	s.cache.Invalidate(ctx, cachePrefixSessions)
	s.logger.Info("academic session created", zap.String("id", item.ID), zap.String("name", item.Name))
	return item, nil
}

// Update renames an existing academic session.
func (s *AcademicSessionService) Update(ctx context.Context, id string, req models.NameRequest) (*models.AcademicSession, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "academic session")
	}
	name, err := s.checkName(ctx, req, id)
	if err != nil {
		return nil, err
	}

	item.Name = name
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, writeError(err, "academic session", "update")
	}
	s.cache.Invalidate(ctx, cachePrefixSessions)
	return item, nil
}

// Delete removes an academic session.
func (s *AcademicSessionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "academic session", "delete")
	}
	s.cache.Invalidate(ctx, cachePrefixSessions)
	return nil
}

func (s *AcademicSessionService) checkName(ctx context.Context, req models.NameRequest, excludeID string) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return "", validationError(err, "academic session")
	}
	exists, err := s.repo.ExistsByName(ctx, req.Name, excludeID)
	if err != nil {
		return "", lookupError(err, "academic session name")
	}
	if exists {
		return "", conflict("academic session name already exists")
	}
	return req.Name, nil
}
