package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-registry-api/internal/models"
	"github.com/noah-isme/sma-registry-api/pkg/database"
	appErrors "github.com/noah-isme/sma-registry-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	SetStudentClass(ctx context.Context, id string, classID *string) error
	Deactivate(ctx context.Context, id string) error
	ListSubjects(ctx context.Context, userID string) ([]models.Subject, error)
	ReplaceSubjects(ctx context.Context, userID string, subjectIDs []string) error
}

type classExistenceChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type auditRecorder interface {
	Record(ctx context.Context, entry *models.AuditLog)
}

// UserService handles user management workflows.
type UserService struct {
	repo      userRepository
	classes   classExistenceChecker
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService. audit may be nil.
func NewUserService(repo userRepository, classes classExistenceChecker, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, classes: classes, audit: audit, validator: validate, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list users")
	}
	if users == nil {
		users = []models.User{}
	}
	return users, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "user")
	}
	return user, nil
}

// Create provisions a user. Accounts are active unless the payload says otherwise.
func (s *UserService) Create(ctx context.Context, req models.CreateUserRequest, actor models.Actor) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "create user")
	}

	exists, err := s.repo.ExistsByUsername(ctx, req.Username, "")
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check username uniqueness")
	}
	if exists {
		return nil, conflict("username already exists")
	}
	if err := s.ensureClass(ctx, req.StudentClassID); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	user := &models.User{
		ID:             uuid.NewString(),
		Username:       req.Username,
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:   string(passwordHash),
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Role:           req.Role,
		Gender:         req.Gender,
		IsActive:       active,
		StudentClassID: req.StudentClassID,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, writeError(err, "user", "create")
	}

	entry := actor.AuditEntry(models.AuditActionCreate, "users", user.ID)
	entry.NewValues = mustJSON(map[string]interface{}{"username": user.Username, "role": user.Role, "student_class_id": user.StudentClassID})
	s.record(ctx, entry)
	return user, nil
}

// Update modifies profile attributes. Only non-nil fields change.
func (s *UserService) Update(ctx context.Context, id string, req models.UpdateUserRequest, actor models.Actor) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "update user")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "user")
	}
	old := mustJSON(map[string]interface{}{"role": user.Role, "gender": user.Gender, "is_active": user.IsActive})

	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, writeError(err, "user", "update")
	}

	entry := actor.AuditEntry(models.AuditActionUpdate, "users", user.ID)
	entry.OldValues = old
	entry.NewValues = mustJSON(map[string]interface{}{"role": user.Role, "gender": user.Gender, "is_active": user.IsActive})
	s.record(ctx, entry)
	return user, nil
}

// AssignClass sets the user's class, or clears it when req.StudentClassID is nil.
func (s *UserService) AssignClass(ctx context.Context, id string, req models.AssignClassRequest, actor models.Actor) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "class assignment")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "user")
	}
	if err := s.ensureClass(ctx, req.StudentClassID); err != nil {
		return nil, err
	}

	if err := s.repo.SetStudentClass(ctx, id, req.StudentClassID); err != nil {
		return nil, writeError(err, "user", "assign class to")
	}

	entry := actor.AuditEntry(models.AuditActionUpdate, "users", id)
	entry.OldValues = mustJSON(map[string]interface{}{"student_class_id": user.StudentClassID})
	entry.NewValues = mustJSON(map[string]interface{}{"student_class_id": req.StudentClassID})
	s.record(ctx, entry)

	user.StudentClassID = req.StudentClassID
	return user, nil
}

// Subjects lists the subjects assigned to a user.
func (s *UserService) Subjects(ctx context.Context, id string) ([]models.Subject, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, lookupError(err, "user")
	}
	subjects, err := s.repo.ListSubjects(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list user subjects")
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	return subjects, nil
}

// AssignSubjects replaces the subjects taught by a staff member and returns the new set.
func (s *UserService) AssignSubjects(ctx context.Context, id string, req models.AssignSubjectsRequest, actor models.Actor) ([]models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "subject assignment")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "user")
	}
	if user.Role != models.RoleStaff {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subjects can only be assigned to staff")
	}

	previous, err := s.repo.ListSubjects(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list user subjects")
	}

	ids := uniqueIDs(req.SubjectIDs)
	if err := s.repo.ReplaceSubjects(ctx, id, ids); err != nil {
		if ce, ok := database.Constraint(err); ok && ce.Kind == database.KindForeignKey {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "one or more subjects do not exist")
		}
		return nil, writeError(err, "user", "assign subjects to")
	}

	entry := actor.AuditEntry(models.AuditActionUpdate, "user_subjects", id)
	entry.OldValues = mustJSON(map[string]interface{}{"subject_ids": subjectIDs(previous)})
	entry.NewValues = mustJSON(map[string]interface{}{"subject_ids": ids})
	s.record(ctx, entry)

	return s.Subjects(ctx, id)
}

// Delete performs a soft delete (inactive) on a user.
func (s *UserService) Delete(ctx context.Context, id string, actor models.Actor) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, "user")
	}
	if actor.UserID != "" && actor.UserID == id {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot deactivate your own account")
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return writeError(err, "user", "delete")
	}

	entry := actor.AuditEntry(models.AuditActionDelete, "users", id)
	entry.OldValues = mustJSON(map[string]interface{}{"is_active": user.IsActive})
	entry.NewValues = mustJSON(map[string]interface{}{"is_active": false})
	s.record(ctx, entry)
	return nil
}

// EnsureAdmin creates the bootstrap administrator when the username is free.
// It reports whether a new account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password, email string, gender models.Gender) (bool, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return false, nil
	}
	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return false, appErrors.Internal(err, "failed to look up bootstrap admin")
	}

	if _, err := s.Create(ctx, models.CreateUserRequest{
		Username: username,
		Email:    email,
		Password: password,
		Role:     models.RoleAdmin,
		Gender:   gender,
	}, models.Actor{}); err != nil {
		return false, err
	}
	s.logger.Info("bootstrap admin created", zap.String("username", username))
	return true, nil
}

func (s *UserService) ensureClass(ctx context.Context, classID *string) error {
	if classID == nil || s.classes == nil {
		return nil
	}
	ok, err := s.classes.Exists(ctx, *classID)
	if err != nil {
		return appErrors.Internal(err, "failed to check student class")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, "student_class_id references an unknown class")
	}
	return nil
}

func (s *UserService) record(ctx context.Context, entry *models.AuditLog) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, entry)
}

func mustJSON(v interface{}) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return payload
}

// uniqueIDs drops repeated ids keeping first-seen order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		key := strings.ToLower(id)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, id)
	}
	return out
}

func subjectIDs(subjects []models.Subject) []string {
	out := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		out = append(out, subject.ID)
	}
	return out
}
