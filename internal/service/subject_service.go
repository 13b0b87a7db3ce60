package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-registry-api/internal/models"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.NameFilter) ([]models.Subject, int, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

// SubjectService handles subject domain workflows.
type SubjectService struct {
	repo      subjectRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService creates a new subject service. cache and metrics may be nil.
func NewSubjectService(repo subjectRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// List returns paginated subjects ordered by name unless another sort is requested.
func (s *SubjectService) List(ctx context.Context, filter models.NameFilter) ([]models.Subject, ListInfo, error) {
	key := cacheKey(cachePrefixSubjects, "list", filter.Search, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)
	subjects, total, hit, err := cachedList(ctx, s.cache, s.metrics, key, "subjects_list", func() ([]models.Subject, int, error) {
		return s.repo.List(ctx, filter)
	})
	if err != nil {
		return nil, ListInfo{}, lookupError(err, "subjects")
	}
	return subjects, ListInfo{Pagination: pagination(filter.Page, filter.PageSize, total), CacheHit: hit}, nil
}

// Get returns subject by identifier.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "subject")
	}
	return subject, nil
}

// Create adds a new subject ensuring name uniqueness.
func (s *SubjectService) Create(ctx context.Context, req models.NameRequest) (*models.Subject, error) {
	name, err := s.checkName(ctx, req, "")
	if err != nil {
		return nil, err
	}

	subject := &models.Subject{Name: name}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, writeError(err, "subject", "create")
	}
	s.cache.Invalidate(ctx, cachePrefixSubjects)
	s.logger.Info("subject created", zap.String("id", subject.ID), zap.String("name", subject.Name))
	return subject, nil
}

// Update renames an existing subject.
func (s *SubjectService) Update(ctx context.Context, id string, req models.NameRequest) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "subject")
	}
	name, err := s.checkName(ctx, req, id)
	if err != nil {
		return nil, err
	}

	subject.Name = name
	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, writeError(err, "subject", "update")
	}
	s.cache.Invalidate(ctx, cachePrefixSubjects)
	return subject, nil
}

// Delete removes a subject.
func (s *SubjectService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "subject", "delete")
	}
	s.cache.Invalidate(ctx, cachePrefixSubjects)
	return nil
}

func (s *SubjectService) checkName(ctx context.Context, req models.NameRequest, excludeID string) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return "", validationError(err, "subject")
	}
	exists, err := s.repo.ExistsByName(ctx, req.Name, excludeID)
	if err != nil {
		return "", lookupError(err, "subject name")
	}
	if exists {
		return "", conflict("subject name already exists")
	}
	return req.Name, nil
}
