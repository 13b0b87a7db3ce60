package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-registry-api/internal/models"
	appErrors "github.com/noah-isme/sma-registry-api/pkg/errors"
)

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func TestSubjectServiceCreateTrimsName(t *testing.T) {
	repo := newMockSubjectRepo()
	svc := NewSubjectService(repo, nil, nil, nil, nil)

	subject, err := svc.Create(context.Background(), models.NameRequest{Name: "  Mathematics "})
	require.NoError(t, err)
	assert.Equal(t, "Mathematics", subject.Name)
	assert.NotEmpty(t, subject.ID)
}

func TestSubjectServiceCreateDuplicateIsConflict(t *testing.T) {
	repo := newMockSubjectRepo("Mathematics")
	svc := NewSubjectService(repo, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), models.NameRequest{Name: "mathematics"})
	assertCode(t, err, appErrors.ErrConflict.Code)
	assert.Len(t, repo.items, 1)
}

func TestSubjectServiceCreateUniqueViolationIsConflict(t *testing.T) {
	repo := newMockSubjectRepo()
	repo.createErr = uniqueViolation("subjects_name_key")
	svc := NewSubjectService(repo, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), models.NameRequest{Name: "Physics"})
	assertCode(t, err, appErrors.ErrConflict.Code)
	assert.Contains(t, err.Error(), "subject name already exists")
}

func TestSubjectServiceCreateRequiresName(t *testing.T) {
	svc := NewSubjectService(newMockSubjectRepo(), nil, nil, nil, nil)
	_, err := svc.Create(context.Background(), models.NameRequest{Name: "   "})
	assertCode(t, err, appErrors.ErrValidation.Code)
}

func TestSubjectServiceUpdateKeepsOwnName(t *testing.T) {
	repo := newMockSubjectRepo("Biology")
	var id string
	for k := range repo.items {
		id = k
	}
	svc := NewSubjectService(repo, nil, nil, nil, nil)

	subject, err := svc.Update(context.Background(), id, models.NameRequest{Name: "BIOLOGY"})
	require.NoError(t, err)
	assert.Equal(t, "BIOLOGY", subject.Name)
}

func TestSubjectServiceMissingIsNotFound(t *testing.T) {
	svc := NewSubjectService(newMockSubjectRepo(), nil, nil, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	assertCode(t, err, appErrors.ErrNotFound.Code)

	err = svc.Delete(context.Background(), "missing")
	assertCode(t, err, appErrors.ErrNotFound.Code)
}

func TestSubjectServiceMalformedIDIsNotFound(t *testing.T) {
	repo := newMockSubjectRepo()
	repo.findErr = fmt.Errorf("find subjects: %w", &pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "123"`})
	svc := NewSubjectService(repo, nil, nil, nil, nil)

	_, err := svc.Get(context.Background(), "123")
	assertCode(t, err, appErrors.ErrNotFound.Code)
}

func TestSubjectServiceCaseInsensitiveIndexIsConflict(t *testing.T) {
	repo := newMockSubjectRepo()
	repo.createErr = uniqueViolation("idx_subjects_lower_name")
	svc := NewSubjectService(repo, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), models.NameRequest{Name: "physics"})
	assertCode(t, err, appErrors.ErrConflict.Code)
	assert.Contains(t, err.Error(), "subject name already exists")
}

func TestSubjectServiceListUsesCacheUntilWrite(t *testing.T) {
	repo := newMockSubjectRepo("Chemistry")
	cacheRepo := newMockCacheRepo()
	metrics := NewMetricsService()
	cache := NewCacheService(cacheRepo, metrics, time.Minute, nil, true)
	svc := NewSubjectService(repo, cache, metrics, nil, nil)
	ctx := context.Background()

	items, info, err := svc.List(ctx, models.NameFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.False(t, info.CacheHit)
	assert.Equal(t, 1, info.Pagination.TotalCount)

	items, info, err = svc.List(ctx, models.NameFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.True(t, info.CacheHit)
	assert.Equal(t, 1, repo.listCalls)

	_, err = svc.Create(ctx, models.NameRequest{Name: "Physics"})
	require.NoError(t, err)
	assert.Contains(t, cacheRepo.patterns, "subjects:*")

	items, info, err = svc.List(ctx, models.NameFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.False(t, info.CacheHit)
	assert.Equal(t, 2, repo.listCalls)
}
