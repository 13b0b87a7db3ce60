package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-registry-api/internal/models"
	appErrors "github.com/noah-isme/sma-registry-api/pkg/errors"
)

func uniqueViolation(constraint string) error {
	return &pq.Error{Code: "23505", Constraint: constraint}
}

func checkViolation(constraint string) error {
	return &pq.Error{Code: "23514", Constraint: constraint}
}

type mockSubjectRepo struct {
	items     map[string]*models.Subject
	createErr error
	findErr   error
	listCalls int
}

func newMockSubjectRepo(names ...string) *mockSubjectRepo {
	repo := &mockSubjectRepo{items: map[string]*models.Subject{}}
	for _, name := range names {
		id := uuid.NewString()
		repo.items[id] = &models.Subject{ID: id, Name: name}
	}
	return repo
}

func (m *mockSubjectRepo) List(ctx context.Context, filter models.NameFilter) ([]models.Subject, int, error) {
	m.listCalls++
	var out []models.Subject
	for _, s := range m.items {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *mockSubjectRepo) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if s, ok := m.items[id]; ok {
		copy := *s
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubjectRepo) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	for id, s := range m.items {
		if id != excludeID && strings.EqualFold(s.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSubjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	if m.createErr != nil {
		return m.createErr
	}
	subject.ID = uuid.NewString()
	copy := *subject
	m.items[subject.ID] = &copy
	return nil
}

func (m *mockSubjectRepo) Update(ctx context.Context, subject *models.Subject) error {
	if _, ok := m.items[subject.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *subject
	m.items[subject.ID] = &copy
	return nil
}

func (m *mockSubjectRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

type mockSchoolRepo struct {
	schools      map[string]*models.School
	deleteResult *models.SchoolDeleteResult
}

func (m *mockSchoolRepo) List(ctx context.Context, filter models.NameFilter) ([]models.School, int, error) {
	var out []models.School
	for _, s := range m.schools {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *mockSchoolRepo) FindByID(ctx context.Context, id string) (*models.School, error) {
	if s, ok := m.schools[id]; ok {
		copy := *s
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSchoolRepo) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	for id, s := range m.schools {
		if id != excludeID && strings.EqualFold(s.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSchoolRepo) Create(ctx context.Context, school *models.School) error {
	school.ID = uuid.NewString()
	copy := *school
	m.schools[school.ID] = &copy
	return nil
}

func (m *mockSchoolRepo) Update(ctx context.Context, school *models.School) error {
	copy := *school
	m.schools[school.ID] = &copy
	return nil
}

func (m *mockSchoolRepo) Delete(ctx context.Context, id string) (*models.SchoolDeleteResult, error) {
	if _, ok := m.schools[id]; !ok {
		return nil, sql.ErrNoRows
	}
	delete(m.schools, id)
	if m.deleteResult != nil {
		return m.deleteResult, nil
	}
	return &models.SchoolDeleteResult{ID: id}, nil
}

type mockClassRepo struct {
	classes      map[string]*models.StudentClass
	deleteResult *models.StudentClassDeleteResult
	lastFilter   models.StudentClassFilter
}

func (m *mockClassRepo) List(ctx context.Context, filter models.StudentClassFilter) ([]models.StudentClass, int, error) {
	m.lastFilter = filter
	var out []models.StudentClass
	for _, c := range m.classes {
		if filter.SchoolID == "" || c.SchoolID == filter.SchoolID {
			out = append(out, *c)
		}
	}
	return out, len(out), nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, id string) (*models.StudentClass, error) {
	if c, ok := m.classes[id]; ok {
		copy := *c
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	for id, c := range m.classes {
		if id != excludeID && strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.StudentClass) error {
	class.ID = uuid.NewString()
	copy := *class
	m.classes[class.ID] = &copy
	return nil
}

func (m *mockClassRepo) Update(ctx context.Context, class *models.StudentClass) error {
	copy := *class
	m.classes[class.ID] = &copy
	return nil
}

func (m *mockClassRepo) Delete(ctx context.Context, id string) (*models.StudentClassDeleteResult, error) {
	if _, ok := m.classes[id]; !ok {
		return nil, sql.ErrNoRows
	}
	delete(m.classes, id)
	if m.deleteResult != nil {
		return m.deleteResult, nil
	}
	return &models.StudentClassDeleteResult{ID: id}, nil
}

func (m *mockClassRepo) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := m.classes[id]
	return ok, nil
}

type mockUserRepo struct {
	mu        sync.Mutex
	users     map[string]*models.User
	createErr error
	updateErr error

	refreshTokens map[string]*models.RefreshToken
	revokedAll    []string
	lastLogin     map[string]time.Time

	subjects     map[string]models.Subject
	assignments  map[string][]string
	replaceCalls int
}

func newMockUserRepo(users ...models.User) *mockUserRepo {
	repo := &mockUserRepo{
		users:         map[string]*models.User{},
		refreshTokens: map[string]*models.RefreshToken{},
		lastLogin:     map[string]time.Time{},
		subjects:      map[string]models.Subject{},
		assignments:   map[string][]string{},
	}
	for i := range users {
		u := users[i]
		repo.users[u.ID] = &u
	}
	return repo
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) ListByClass(ctx context.Context, classID string) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if u.StudentClassID != nil && *u.StudentClassID == classID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error) {
	for id, u := range m.users {
		if id != excludeID && strings.EqualFold(u.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) SetStudentClass(ctx context.Context, id string, classID *string) error {
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.StudentClassID = classID
	return nil
}

func (m *mockUserRepo) Deactivate(ctx context.Context, id string) error {
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.IsActive = false
	return nil
}

func (m *mockUserRepo) ListSubjects(ctx context.Context, userID string) ([]models.Subject, error) {
	var out []models.Subject
	for _, id := range m.assignments[userID] {
		out = append(out, m.subjects[id])
	}
	return out, nil
}

func (m *mockUserRepo) ReplaceSubjects(ctx context.Context, userID string, subjectIDs []string) error {
	m.replaceCalls++
	for _, id := range subjectIDs {
		if _, ok := m.subjects[id]; !ok {
			return &pq.Error{Code: "23503", Constraint: "user_subjects_subject_id_fkey"}
		}
	}
	m.assignments[userID] = append([]string(nil), subjectIDs...)
	return nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLogin[id] = ts
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revokedAll = append(m.revokedAll, userID)
	for _, t := range m.refreshTokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (m *mockUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *token
	m.refreshTokens[token.Token] = &copy
	return nil
}

func (m *mockUserRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.refreshTokens[token]; ok {
		copy := *t
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.refreshTokens {
		if t.ID == id && !t.Revoked {
			t.Revoked = true
			t.RevokedAt = &revokedAt
			return nil
		}
	}
	return sql.ErrNoRows
}

type mockAuditRecorder struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (m *mockAuditRecorder) Record(ctx context.Context, entry *models.AuditLog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
}

func (m *mockAuditRecorder) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}

type mockAuditWriter struct {
	mu      sync.Mutex
	entries []*models.AuditLog
	err     error
}

func (m *mockAuditWriter) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, log)
	return nil
}

func (m *mockAuditWriter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type mockCacheRepo struct {
	data     map[string][]byte
	patterns []string
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{data: map[string][]byte{}}
}

func (m *mockCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *mockCacheRepo) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	m.patterns = append(m.patterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	deleted := 0
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
			deleted++
		}
	}
	return deleted, nil
}
