package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-registry-api/internal/models"
)

type academicTermRepository interface {
	List(ctx context.Context, filter models.NameFilter) ([]models.AcademicTerm, int, error)
	FindByID(ctx context.Context, id string) (*models.AcademicTerm, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, item *models.AcademicTerm) error
	Update(ctx context.Context, item *models.AcademicTerm) error
	Delete(ctx context.Context, id string) error
}

// AcademicTermService handles academic term domain workflows.
type AcademicTermService struct {
	repo      academicTermRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAcademicTermService creates a new academic term service. cache and metrics may be nil.
func NewAcademicTermService(repo academicTermRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AcademicTermService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcademicTermService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// List returns paginated academic terms ordered by name unless another sort is requested.
func (s *AcademicTermService) List(ctx context.Context, filter models.NameFilter) ([]models.AcademicTerm, ListInfo, error) {
	key := cacheKey(cachePrefixTerms, "list", filter.Search, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)
	items, total, hit, err := cachedList(ctx, s.cache, s.metrics, key, "academic_terms_list", func() ([]models.AcademicTerm, int, error) {
		return s.repo.List(ctx, filter)
	})
	if err != nil {
		return nil, ListInfo{}, lookupError(err, "academic terms")
	}
	return items, ListInfo{Pagination: pagination(filter.Page, filter.PageSize, total), CacheHit: hit}, nil
}

// Get returns academic term by identifier.
func (s *AcademicTermService) Get(ctx context.Context, id string) (*models.AcademicTerm, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "academic term")
	}
	return item, nil
}

// Create adds a new academic term ensuring name uniqueness.
func (s *AcademicTermService) Create(ctx context.Context, req models.NameRequest) (*models.AcademicTerm, error) {
	name, err := s.checkName(ctx, req, "")
	if err != nil {
		return nil, err
	}

	item := &models.AcademicTerm{Name: name}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, writeError(err, "academic term", "create")
	}
	s.cache.Invalidate(ctx, cachePrefixTerms)
	s.logger.Info("academic term created", zap.String("id", item.ID), zap.String("name", item.Name))
	return item, nil
}

// Update renames an existing academic term.
func (s *AcademicTermService) Update(ctx context.Context, id string, req models.NameRequest) (*models.AcademicTerm, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "academic term")
	}
	name, err := s.checkName(ctx, req, id)
	if err != nil {
		return nil, err
	}

	item.Name = name
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, writeError(err, "academic term", "update")
	}
	s.cache.Invalidate(ctx, cachePrefixTerms)
	return item, nil
}

// Delete removes an academic term.
func (s *AcademicTermService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "academic term", "delete")
	}
	s.cache.Invalidate(ctx, cachePrefixTerms)
	return nil
}

func (s *AcademicTermService) checkName(ctx context.Context, req models.NameRequest, excludeID string) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return "", validationError(err, "academic term")
	}
	exists, err := s.repo.ExistsByName(ctx, req.Name, excludeID)
	if err != nil {
		return "", lookupError(err, "academic term name")
	}
	if exists {
		return "", conflict("academic term name already exists")
	}
	return req.Name, nil
}
