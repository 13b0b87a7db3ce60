package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-registry-api/internal/models"
	appErrors "github.com/noah-isme/sma-registry-api/pkg/errors"
)

func TestSchoolServiceDeleteReportsCascade(t *testing.T) {
	repo := &mockSchoolRepo{
		schools:      map[string]*models.School{"s1": {ID: "s1", Name: "Kings College"}},
		deleteResult: &models.SchoolDeleteResult{ID: "s1", ClassesDeleted: 3, UsersDetached: 41},
	}
	cacheRepo := newMockCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewSchoolService(repo, cache, nil, nil, nil)

	result, err := svc.Delete(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, result.ClassesDeleted)
	assert.Equal(t, 41, result.UsersDetached)
	assert.ElementsMatch(t, []string{"schools:*", "classes:*"}, cacheRepo.patterns)
}

func TestSchoolServiceDeleteMissing(t *testing.T) {
	svc := NewSchoolService(&mockSchoolRepo{schools: map[string]*models.School{}}, nil, nil, nil, nil)
	_, err := svc.Delete(context.Background(), "nope")
	assertCode(t, err, appErrors.ErrNotFound.Code)
}

func TestSchoolServiceCreateDuplicate(t *testing.T) {
	repo := &mockSchoolRepo{schools: map[string]*models.School{"s1": {ID: "s1", Name: "Kings College"}}}
	svc := NewSchoolService(repo, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), models.NameRequest{Name: "kings college"})
	assertCode(t, err, appErrors.ErrConflict.Code)

	school, err := svc.Create(context.Background(), models.NameRequest{Name: "Queens College"})
	require.NoError(t, err)
	assert.Equal(t, "Queens College", school.Name)
}
