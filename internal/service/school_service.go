package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-registry-api/internal/models"
)

type schoolRepository interface {
	List(ctx context.Context, filter models.NameFilter) ([]models.School, int, error)
	FindByID(ctx context.Context, id string) (*models.School, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, school *models.School) error
	Update(ctx context.Context, school *models.School) error
	Delete(ctx context.Context, id string) (*models.SchoolDeleteResult, error)
}

// SchoolService manages schools. Deleting a school removes its classes.
type SchoolService struct {
	repo      schoolRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSchoolService creates a new school service.
func NewSchoolService(repo schoolRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SchoolService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchoolService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// List returns paginated schools.
func (s *SchoolService) List(ctx context.Context, filter models.NameFilter) ([]models.School, ListInfo, error) {
	key := cacheKey(cachePrefixSchools, "list", filter.Search, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)
	schools, total, hit, err := cachedList(ctx, s.cache, s.metrics, key, "schools_list", func() ([]models.School, int, error) {
		return s.repo.List(ctx, filter)
	})
	if err != nil {
		return nil, ListInfo{}, lookupError(err, "schools")
	}
	return schools, ListInfo{Pagination: pagination(filter.Page, filter.PageSize, total), CacheHit: hit}, nil
}

// Get returns a school by identifier.
func (s *SchoolService) Get(ctx context.Context, id string) (*models.School, error) {
	school, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "school")
	}
	return school, nil
}

// Create adds a school with a unique name.
func (s *SchoolService) Create(ctx context.Context, req models.NameRequest) (*models.School, error) {
	name, err := s.checkName(ctx, req, "")
	if err != nil {
		return nil, err
	}
	school := &models.School{Name: name}
	if err := s.repo.Create(ctx, school); err != nil {
		return nil, writeError(err, "school", "create")
	}
	s.cache.Invalidate(ctx, cachePrefixSchools)
	s.logger.Info("school created", zap.String("id", school.ID), zap.String("name", school.Name))
	return school, nil
}

// Update renames a school. Class listings embed the school name, so they are invalidated too.
func (s *SchoolService) Update(ctx context.Context, id string, req models.NameRequest) (*models.School, error) {
	school, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "school")
	}
	name, err := s.checkName(ctx, req, id)
	if err != nil {
		return nil, err
	}
	school.Name = name
	if err := s.repo.Update(ctx, school); err != nil {
		return nil, writeError(err, "school", "update")
	}
	s.cache.Invalidate(ctx, cachePrefixSchools, cachePrefixClasses)
	return school, nil
}

// Delete removes a school together with all of its classes.
func (s *SchoolService) Delete(ctx context.Context, id string) (*models.SchoolDeleteResult, error) {
	result, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, writeError(err, "school", "delete")
	}
	s.cache.Invalidate(ctx, cachePrefixSchools, cachePrefixClasses)
	s.logger.Info("school deleted",
		zap.String("id", id),
		zap.Int("classes_deleted", result.ClassesDeleted),
		zap.Int("users_detached", result.UsersDetached),
	)
	return result, nil
}

func (s *SchoolService) checkName(ctx context.Context, req models.NameRequest, excludeID string) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return "", validationError(err, "school")
	}
	exists, err := s.repo.ExistsByName(ctx, req.Name, excludeID)
	if err != nil {
		return "", lookupError(err, "school name")
	}
	if exists {
		return "", conflict("school name already exists")
	}
	return req.Name, nil
}
