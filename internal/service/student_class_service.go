package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-registry-api/internal/models"
	appErrors "github.com/noah-isme/sma-registry-api/pkg/errors"
)

type studentClassRepository interface {
	List(ctx context.Context, filter models.StudentClassFilter) ([]models.StudentClass, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentClass, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, class *models.StudentClass) error
	Update(ctx context.Context, class *models.StudentClass) error
	Delete(ctx context.Context, id string) (*models.StudentClassDeleteResult, error)
}

type classSchoolReader interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
}

type classMemberLister interface {
	ListByClass(ctx context.Context, classID string) ([]models.User, error)
}

// StudentClassService manages classes and their rosters.
type StudentClassService struct {
	repo      studentClassRepository
	schools   classSchoolReader
	members   classMemberLister
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentClassService creates a new class service.
func NewStudentClassService(repo studentClassRepository, schools classSchoolReader, members classMemberLister, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *StudentClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentClassService{repo: repo, schools: schools, members: members, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// List returns paginated classes, optionally scoped to a school.
func (s *StudentClassService) List(ctx context.Context, filter models.StudentClassFilter) ([]models.StudentClass, ListInfo, error) {
	key := cacheKey(cachePrefixClasses, "list", filter.SchoolID, filter.Search, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)
	classes, total, hit, err := cachedList(ctx, s.cache, s.metrics, key, "student_classes_list", func() ([]models.StudentClass, int, error) {
		return s.repo.List(ctx, filter)
	})
	if err != nil {
		return nil, ListInfo{}, lookupError(err, "student classes")
	}
	return classes, ListInfo{Pagination: pagination(filter.Page, filter.PageSize, total), CacheHit: hit}, nil
}

// ListBySchool returns a school's classes, failing with NOT_FOUND for an unknown school.
func (s *StudentClassService) ListBySchool(ctx context.Context, schoolID string, filter models.NameFilter) ([]models.StudentClass, ListInfo, error) {
	if _, err := s.schools.FindByID(ctx, schoolID); err != nil {
		return nil, ListInfo{}, lookupError(err, "school")
	}
	return s.List(ctx, models.StudentClassFilter{NameFilter: filter, SchoolID: schoolID})
}

// Get returns a class by identifier.
func (s *StudentClassService) Get(ctx context.Context, id string) (*models.StudentClass, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "student class")
	}
	return class, nil
}

// Create adds a class under an existing school.
func (s *StudentClassService) Create(ctx context.Context, req models.StudentClassRequest) (*models.StudentClass, error) {
	school, err := s.check(ctx, &req, "")
	if err != nil {
		return nil, err
	}
	class := &models.StudentClass{Name: req.Name, SchoolID: school.ID}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, writeError(err, "student class", "create")
	}
	class.SchoolName = school.Name
	s.cache.Invalidate(ctx, cachePrefixClasses)
	s.logger.Info("student class created", zap.String("id", class.ID), zap.String("school_id", class.SchoolID))
	return class, nil
}

// Update renames a class or moves it to another school.
func (s *StudentClassService) Update(ctx context.Context, id string, req models.StudentClassRequest) (*models.StudentClass, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "student class")
	}
	school, err := s.check(ctx, &req, id)
	if err != nil {
		return nil, err
	}
	class.Name = req.Name
	class.SchoolID = school.ID
	class.SchoolName = school.Name
	if err := s.repo.Update(ctx, class); err != nil {
		return nil, writeError(err, "student class", "update")
	}
	s.cache.Invalidate(ctx, cachePrefixClasses)
	return class, nil
}

// Delete removes a class. Users in the class remain, with their class cleared.
func (s *StudentClassService) Delete(ctx context.Context, id string) (*models.StudentClassDeleteResult, error) {
	result, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, writeError(err, "student class", "delete")
	}
	s.cache.Invalidate(ctx, cachePrefixClasses)
	s.logger.Info("student class deleted", zap.String("id", id), zap.Int("users_detached", result.UsersDetached))
	return result, nil
}

// Members lists the users assigned to a class.
func (s *StudentClassService) Members(ctx context.Context, id string) (*models.StudentClass, []models.User, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, lookupError(err, "student class")
	}
	users, err := s.members.ListByClass(ctx, id)
	if err != nil {
		return nil, nil, lookupError(err, "class members")
	}
	if users == nil {
		users = []models.User{}
	}
	return class, users, nil
}

func (s *StudentClassService) check(ctx context.Context, req *models.StudentClassRequest, excludeID string) (*models.School, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "student class")
	}
	school, err := s.schools.FindByID(ctx, req.SchoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "school_id references an unknown school")
		}
		return nil, lookupError(err, "school")
	}
	exists, err := s.repo.ExistsByName(ctx, req.Name, excludeID)
	if err != nil {
		return nil, lookupError(err, "student class name")
	}
	if exists {
		return nil, conflict("student class name already exists")
	}
	return school, nil
}
